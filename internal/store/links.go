package store

import (
	"database/sql"
	"errors"
	"fmt"

	"github.com/sadopc/planr/internal/deps"
	"github.com/sadopc/planr/internal/task"
)

var (
	ErrSelfLink      = errors.New("a task cannot depend on itself")
	ErrDuplicateLink = errors.New("link already exists")
	ErrLinkCycle     = errors.New("link would create a dependency cycle")
)

// AddLink stores a dependency. Both tasks must exist, and the link may not
// close a cycle with the links already stored.
func (s *Store) AddLink(l task.Link) (*task.Link, error) {
	if l.Source == l.Target {
		return nil, ErrSelfLink
	}

	tx, err := s.db.Begin()
	if err != nil {
		return nil, fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback()

	for _, id := range []int64{l.Source, l.Target} {
		var n int
		if err := tx.QueryRow(`SELECT COUNT(*) FROM tasks WHERE id = ?`, id).Scan(&n); err != nil {
			return nil, fmt.Errorf("check task %d: %w", id, err)
		}
		if n == 0 {
			return nil, fmt.Errorf("task %d: %w", id, ErrNotFound)
		}
	}

	existing, err := queryLinks(tx)
	if err != nil {
		return nil, err
	}
	for _, e := range existing {
		if e.Source == l.Source && e.Target == l.Target {
			return nil, fmt.Errorf("#%d -> #%d: %w", l.Source, l.Target, ErrDuplicateLink)
		}
	}
	if deps.Build(existing).WouldCycle(l.Source, l.Target) {
		return nil, fmt.Errorf("#%d -> #%d: %w", l.Source, l.Target, ErrLinkCycle)
	}

	res, err := tx.Exec(`INSERT INTO task_links (source_id, target_id, link_type) VALUES (?, ?, ?)`,
		l.Source, l.Target, int(l.Type))
	if err != nil {
		return nil, fmt.Errorf("add link: %w", err)
	}
	l.ID, _ = res.LastInsertId()
	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit: %w", err)
	}
	return &l, nil
}

// ListLinks returns every stored link in creation order.
func (s *Store) ListLinks() ([]task.Link, error) {
	return queryLinks(s.db)
}

func (s *Store) DeleteLink(id int64) error {
	res, err := s.db.Exec(`DELETE FROM task_links WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete link %d: %w", id, err)
	}
	return expectOne(res, "link", id)
}

type querier interface {
	Query(query string, args ...any) (*sql.Rows, error)
}

func queryLinks(q querier) ([]task.Link, error) {
	rows, err := q.Query(`SELECT id, source_id, target_id, link_type FROM task_links ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("list links: %w", err)
	}
	defer rows.Close()

	var out []task.Link
	for rows.Next() {
		var l task.Link
		var typ int
		if err := rows.Scan(&l.ID, &l.Source, &l.Target, &typ); err != nil {
			return nil, err
		}
		l.Type = task.LinkType(typ)
		out = append(out, l)
	}
	return out, rows.Err()
}

// dropLinks removes the links touching a deleted task.
func dropLinks(tx *sql.Tx, id int64) error {
	if _, err := tx.Exec(`DELETE FROM task_links WHERE source_id = ? OR target_id = ?`, id, id); err != nil {
		return fmt.Errorf("drop links of task %d: %w", id, err)
	}
	return nil
}
