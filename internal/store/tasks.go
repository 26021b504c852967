package store

import (
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/sadopc/planr/internal/task"
)

const taskColumns = `id, subject, description, parent_id, start_date, due_date, estimated_hours,
	done_ratio, status_name, status_color, project_name, custom_group, sort_order`

type scanner interface {
	Scan(dest ...any) error
}

func scanTask(sc scanner) (task.Task, error) {
	var t task.Task
	var parent sql.NullInt64
	var start, due sql.NullString
	var hours sql.NullFloat64
	err := sc.Scan(&t.ID, &t.Subject, &t.Description, &parent, &start, &due, &hours,
		&t.DoneRatio, &t.StatusName, &t.StatusColor, &t.ProjectName, &t.Group, &t.SortOrder)
	if err != nil {
		return t, err
	}
	if parent.Valid {
		t.Parent = task.ParentID(parent.Int64)
	}
	if start.Valid {
		t.StartDate = task.ParseDate(start.String)
	}
	if due.Valid {
		t.DueDate = task.ParseDate(due.String)
	}
	if hours.Valid {
		h := hours.Float64
		t.EstimatedHours = &h
	}
	return t, nil
}

func dateValue(d task.Date) any {
	if d.IsNull() {
		return nil
	}
	return d.String()
}

func parentValue(p task.ParentRef) any {
	if id, ok := p.Get(); ok {
		return id
	}
	return nil
}

func hoursValue(h *float64) any {
	if h == nil {
		return nil
	}
	return *h
}

// ReplaceTasks makes the tasks of source exactly the given list. Tasks seen
// before keep their custom group and sort order; new ones are appended in
// list order. Returns the number of tasks removed.
func (s *Store) ReplaceTasks(source string, tasks []task.Task) (int, error) {
	tx, err := s.db.Begin()
	if err != nil {
		return 0, fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback()

	var base int
	if err := tx.QueryRow(`SELECT COALESCE(MAX(sort_order), 0) FROM tasks`).Scan(&base); err != nil {
		return 0, fmt.Errorf("max sort order: %w", err)
	}

	now := time.Now().UTC().Format(time.RFC3339)
	keep := make(map[int64]bool, len(tasks))
	for i, t := range tasks {
		keep[t.ID] = true
		_, err := tx.Exec(`
			INSERT INTO tasks (id, source, subject, description, parent_id, start_date, due_date,
				estimated_hours, done_ratio, status_name, status_color, project_name, sort_order, updated_at)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
			ON CONFLICT(id) DO UPDATE SET
				source = excluded.source,
				subject = excluded.subject,
				description = excluded.description,
				parent_id = excluded.parent_id,
				start_date = excluded.start_date,
				due_date = excluded.due_date,
				estimated_hours = excluded.estimated_hours,
				done_ratio = excluded.done_ratio,
				status_name = excluded.status_name,
				status_color = excluded.status_color,
				project_name = excluded.project_name,
				updated_at = excluded.updated_at`,
			t.ID, source, t.Subject, t.Description, parentValue(t.Parent),
			dateValue(t.StartDate), dateValue(t.DueDate), hoursValue(t.EstimatedHours),
			task.ClampRatio(t.DoneRatio), t.StatusName, t.StatusColor, t.ProjectName,
			base+i+1, now,
		)
		if err != nil {
			return 0, fmt.Errorf("upsert task %d: %w", t.ID, err)
		}
	}

	rows, err := tx.Query(`SELECT id FROM tasks WHERE source = ?`, source)
	if err != nil {
		return 0, fmt.Errorf("list %s tasks: %w", source, err)
	}
	var stale []int64
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			rows.Close()
			return 0, err
		}
		if !keep[id] {
			stale = append(stale, id)
		}
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return 0, err
	}
	for _, id := range stale {
		if _, err := tx.Exec(`DELETE FROM tasks WHERE id = ?`, id); err != nil {
			return 0, fmt.Errorf("delete task %d: %w", id, err)
		}
		if err := dropLinks(tx, id); err != nil {
			return 0, err
		}
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("commit: %w", err)
	}
	return len(stale), nil
}

// UpsertTask saves a local task. A zero ID allocates the next local id.
func (s *Store) UpsertTask(t task.Task) (*task.Task, error) {
	if t.ID == 0 {
		var low int64
		if err := s.db.QueryRow(`SELECT COALESCE(MIN(id), 0) FROM tasks WHERE id < 0`).Scan(&low); err != nil {
			return nil, fmt.Errorf("next local id: %w", err)
		}
		t.ID = low - 1
	}
	now := time.Now().UTC().Format(time.RFC3339)
	_, err := s.db.Exec(`
		INSERT INTO tasks (id, source, subject, description, parent_id, start_date, due_date,
			estimated_hours, done_ratio, status_name, status_color, project_name, custom_group, sort_order, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			subject = excluded.subject,
			description = excluded.description,
			parent_id = excluded.parent_id,
			start_date = excluded.start_date,
			due_date = excluded.due_date,
			estimated_hours = excluded.estimated_hours,
			done_ratio = excluded.done_ratio,
			status_name = excluded.status_name,
			status_color = excluded.status_color,
			project_name = excluded.project_name,
			custom_group = excluded.custom_group,
			sort_order = excluded.sort_order,
			updated_at = excluded.updated_at`,
		t.ID, SourceLocal, t.Subject, t.Description, parentValue(t.Parent),
		dateValue(t.StartDate), dateValue(t.DueDate), hoursValue(t.EstimatedHours),
		task.ClampRatio(t.DoneRatio), t.StatusName, t.StatusColor, t.ProjectName,
		t.Group, t.SortOrder, now,
	)
	if err != nil {
		return nil, fmt.Errorf("upsert task: %w", err)
	}
	return s.GetTask(t.ID)
}

func (s *Store) GetTask(id int64) (*task.Task, error) {
	t, err := scanTask(s.db.QueryRow(`SELECT `+taskColumns+` FROM tasks WHERE id = ?`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("get task %d: %w", id, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("get task %d: %w", id, err)
	}
	return &t, nil
}

// ListTasks returns tasks in display order.
func (s *Store) ListTasks(f TaskFilter) ([]task.Task, error) {
	query := `SELECT ` + taskColumns + ` FROM tasks WHERE 1=1`
	var args []any
	if f.Source != "" {
		query += ` AND source = ?`
		args = append(args, f.Source)
	}
	if f.Project != "" {
		query += ` AND project_name = ?`
		args = append(args, f.Project)
	}
	if f.Group != "" {
		query += ` AND custom_group = ?`
		args = append(args, f.Group)
	}
	query += ` ORDER BY sort_order, id`

	rows, err := s.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("list tasks: %w", err)
	}
	defer rows.Close()

	var tasks []task.Task
	for rows.Next() {
		t, err := scanTask(rows)
		if err != nil {
			return nil, err
		}
		tasks = append(tasks, t)
	}
	return tasks, rows.Err()
}

func (s *Store) DeleteTask(id int64) error {
	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback()

	res, err := tx.Exec(`DELETE FROM tasks WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete task %d: %w", id, err)
	}
	if err := expectOne(res, "task", id); err != nil {
		return err
	}
	if err := dropLinks(tx, id); err != nil {
		return err
	}
	return tx.Commit()
}

// SetTaskGroup assigns the custom group; an empty group clears it.
func (s *Store) SetTaskGroup(id int64, group string) error {
	res, err := s.db.Exec(`UPDATE tasks SET custom_group = ? WHERE id = ?`, group, id)
	if err != nil {
		return fmt.Errorf("set group of task %d: %w", id, err)
	}
	return expectOne(res, "task", id)
}

// ReorderTasks applies all moves in one transaction.
func (s *Store) ReorderTasks(moves []Reorder) error {
	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback()

	for _, m := range moves {
		res, err := tx.Exec(`UPDATE tasks SET parent_id = ?, sort_order = ? WHERE id = ?`,
			parentValue(m.Parent), m.SortOrder, m.ID)
		if err != nil {
			return fmt.Errorf("reorder task %d: %w", m.ID, err)
		}
		if err := expectOne(res, "task", m.ID); err != nil {
			return err
		}
	}
	return tx.Commit()
}

// ListProjects summarises cached tasks by project name.
func (s *Store) ListProjects() ([]ProjectSummary, error) {
	rows, err := s.db.Query(`
		SELECT project_name, COUNT(*), SUM(CASE WHEN done_ratio >= 100 THEN 1 ELSE 0 END)
		FROM tasks
		WHERE project_name != ''
		GROUP BY project_name
		ORDER BY project_name`)
	if err != nil {
		return nil, fmt.Errorf("list projects: %w", err)
	}
	defer rows.Close()

	var out []ProjectSummary
	for rows.Next() {
		var p ProjectSummary
		if err := rows.Scan(&p.Name, &p.TaskCount, &p.Done); err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

func expectOne(res sql.Result, what string, id int64) error {
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return fmt.Errorf("%s %d: %w", what, id, ErrNotFound)
	}
	return nil
}
