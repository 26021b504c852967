package store

import (
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/sadopc/planr/internal/task"
)

const entryColumns = `id, task_id, start_time, end_time, duration, notes, synced, created_at`

func scanEntry(sc scanner) (TimeEntry, error) {
	var e TimeEntry
	var startTime, createdAt string
	var endTime sql.NullString
	var synced int
	if err := sc.Scan(&e.ID, &e.TaskID, &startTime, &endTime, &e.Duration, &e.Notes, &synced, &createdAt); err != nil {
		return e, err
	}
	e.StartTime, _ = time.Parse(time.RFC3339, startTime)
	if endTime.Valid {
		t, _ := time.Parse(time.RFC3339, endTime.String)
		e.EndTime = &t
	}
	e.Synced = synced == 1
	e.CreatedAt, _ = time.Parse(time.RFC3339, createdAt)
	return e, nil
}

// StartEntry begins logging time against a task. Only one entry runs at a
// time: an open entry is closed first, in the same transaction.
func (s *Store) StartEntry(taskID int64) (*TimeEntry, error) {
	now := time.Now().UTC()

	tx, err := s.db.Begin()
	if err != nil {
		return nil, fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback()

	if err := closeOpen(tx, now); err != nil {
		return nil, err
	}
	res, err := tx.Exec(
		`INSERT INTO time_entries (task_id, start_time, created_at) VALUES (?, ?, ?)`,
		taskID, now.Format(time.RFC3339), now.Format(time.RFC3339),
	)
	if err != nil {
		return nil, fmt.Errorf("start entry: %w", err)
	}
	id, _ := res.LastInsertId()
	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit: %w", err)
	}
	return s.GetEntry(id)
}

// closeOpen ends every running entry at now.
func closeOpen(tx *sql.Tx, now time.Time) error {
	_, err := tx.Exec(`
		UPDATE time_entries
		SET end_time = ?, duration = MAX(0, CAST(strftime('%s', ?) AS INTEGER) - CAST(strftime('%s', start_time) AS INTEGER))
		WHERE end_time IS NULL`,
		now.Format(time.RFC3339), now.Format(time.RFC3339),
	)
	if err != nil {
		return fmt.Errorf("close running entries: %w", err)
	}
	return nil
}

// StopEntry ends a running entry. Stopping an entry twice keeps the first
// end time.
func (s *Store) StopEntry(id int64) (*TimeEntry, error) {
	e, err := s.GetEntry(id)
	if err != nil {
		return nil, err
	}
	if e.EndTime != nil {
		return e, nil
	}

	now := time.Now().UTC()
	_, err = s.db.Exec(
		`UPDATE time_entries SET end_time = ?, duration = ? WHERE id = ? AND end_time IS NULL`,
		now.Format(time.RFC3339), max(int64(now.Sub(e.StartTime).Seconds()), 0), id,
	)
	if err != nil {
		return nil, fmt.Errorf("stop entry %d: %w", id, err)
	}
	return s.GetEntry(id)
}

func (s *Store) GetEntry(id int64) (*TimeEntry, error) {
	e, err := scanEntry(s.db.QueryRow(`SELECT `+entryColumns+` FROM time_entries WHERE id = ?`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("get entry %d: %w", id, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("get entry %d: %w", id, err)
	}
	return &e, nil
}

// GetRunningEntry returns the newest entry without an end time, or nil.
func (s *Store) GetRunningEntry() (*TimeEntry, error) {
	e, err := scanEntry(s.db.QueryRow(
		`SELECT ` + entryColumns + ` FROM time_entries WHERE end_time IS NULL ORDER BY id DESC LIMIT 1`,
	))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get running entry: %w", err)
	}
	return &e, nil
}

func (s *Store) UpdateEntryNotes(id int64, notes string) error {
	res, err := s.db.Exec(`UPDATE time_entries SET notes = ? WHERE id = ?`, notes, id)
	if err != nil {
		return fmt.Errorf("update entry %d: %w", id, err)
	}
	return expectOne(res, "entry", id)
}

// MarkSynced flags an entry as submitted to the tracker.
func (s *Store) MarkSynced(id int64) error {
	res, err := s.db.Exec(`UPDATE time_entries SET synced = 1 WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("mark entry %d synced: %w", id, err)
	}
	return expectOne(res, "entry", id)
}

// where renders the filter as a SQL condition and its arguments.
func (f EntryFilter) where() (string, []any) {
	conds := []string{"1=1"}
	var args []any
	if f.TaskID != nil {
		conds = append(conds, "task_id = ?")
		args = append(args, *f.TaskID)
	}
	if f.From != nil {
		conds = append(conds, "start_time >= ?")
		args = append(args, f.From.UTC().Format(time.RFC3339))
	}
	if f.To != nil {
		conds = append(conds, "start_time < ?")
		args = append(args, f.To.UTC().Format(time.RFC3339))
	}
	if f.Unsynced {
		conds = append(conds, "synced = 0", "end_time IS NOT NULL")
	}
	return strings.Join(conds, " AND "), args
}

// ListEntries returns matching entries, newest first.
func (s *Store) ListEntries(f EntryFilter) ([]TimeEntry, error) {
	cond, args := f.where()
	query := `SELECT ` + entryColumns + ` FROM time_entries WHERE ` + cond + ` ORDER BY start_time DESC, id DESC`
	if f.Limit > 0 {
		query += ` LIMIT ?`
		args = append(args, f.Limit)
	}

	rows, err := s.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("list entries: %w", err)
	}
	defer rows.Close()

	var entries []TimeEntry
	for rows.Next() {
		e, err := scanEntry(rows)
		if err != nil {
			return nil, fmt.Errorf("scan entry: %w", err)
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

// GetDailySummary aggregates finished entries per day and task. Entries of
// tasks no longer cached are labelled by id.
func (s *Store) GetDailySummary(from, to time.Time) ([]DailySummary, error) {
	rows, err := s.db.Query(`
		SELECT date(e.start_time) AS day, e.task_id, COALESCE(t.subject, '#' || e.task_id),
		       COALESCE(SUM(e.duration), 0), COUNT(*)
		FROM time_entries e
		LEFT JOIN tasks t ON t.id = e.task_id
		WHERE e.end_time IS NOT NULL
		  AND e.start_time >= ? AND e.start_time < ?
		GROUP BY day, e.task_id
		ORDER BY day, e.task_id`,
		from.UTC().Format(time.RFC3339), to.UTC().Format(time.RFC3339),
	)
	if err != nil {
		return nil, fmt.Errorf("daily summary: %w", err)
	}
	defer rows.Close()

	var summaries []DailySummary
	for rows.Next() {
		var ds DailySummary
		if err := rows.Scan(&ds.Date, &ds.TaskID, &ds.Subject, &ds.TotalSeconds, &ds.EntryCount); err != nil {
			return nil, err
		}
		summaries = append(summaries, ds)
	}
	return summaries, rows.Err()
}

// GetTodayTotal sums the finished entries started today (UTC).
func (s *Store) GetTodayTotal() (int64, error) {
	day := task.Day(time.Now().UTC())
	summaries, err := s.GetDailySummary(day, day.Add(24*time.Hour))
	if err != nil {
		return 0, err
	}
	var total int64
	for _, ds := range summaries {
		total += ds.TotalSeconds
	}
	return total, nil
}
