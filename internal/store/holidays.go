package store

import (
	"database/sql"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/sadopc/planr/internal/calendar"
	"github.com/sadopc/planr/internal/task"
)

// ErrDuplicateHoliday is returned when a date already has a holiday.
var ErrDuplicateHoliday = errors.New("holiday already exists for date")

func (s *Store) AddHoliday(date time.Time, name string) (*calendar.Holiday, error) {
	d := task.Day(date).Format(task.DateLayout)
	res, err := s.db.Exec(`INSERT OR IGNORE INTO holidays (date, name) VALUES (?, ?)`, d, name)
	if err != nil {
		return nil, fmt.Errorf("add holiday: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return nil, fmt.Errorf("%s: %w", d, ErrDuplicateHoliday)
	}
	id, _ := res.LastInsertId()
	return s.GetHoliday(id)
}

func (s *Store) GetHoliday(id int64) (*calendar.Holiday, error) {
	var h calendar.Holiday
	err := s.db.QueryRow(`SELECT id, date, name FROM holidays WHERE id = ?`, id).Scan(&h.ID, &h.Date, &h.Name)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("get holiday %d: %w", id, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("get holiday %d: %w", id, err)
	}
	return &h, nil
}

// ListHolidays returns holidays in date order. A year of 0 lists all.
func (s *Store) ListHolidays(year int) ([]calendar.Holiday, error) {
	query := `SELECT id, date, name FROM holidays`
	var args []any
	if year > 0 {
		query += ` WHERE substr(date, 1, 4) = ?`
		args = append(args, strconv.Itoa(year))
	}
	query += ` ORDER BY date`

	rows, err := s.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("list holidays: %w", err)
	}
	defer rows.Close()

	var out []calendar.Holiday
	for rows.Next() {
		var h calendar.Holiday
		if err := rows.Scan(&h.ID, &h.Date, &h.Name); err != nil {
			return nil, err
		}
		out = append(out, h)
	}
	return out, rows.Err()
}

func (s *Store) UpdateHoliday(id int64, name string) error {
	res, err := s.db.Exec(`UPDATE holidays SET name = ? WHERE id = ?`, name, id)
	if err != nil {
		return fmt.Errorf("update holiday %d: %w", id, err)
	}
	return expectOne(res, "holiday", id)
}

func (s *Store) DeleteHoliday(id int64) error {
	res, err := s.db.Exec(`DELETE FROM holidays WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete holiday %d: %w", id, err)
	}
	return expectOne(res, "holiday", id)
}

// ImportHolidays inserts holidays whose date is not taken yet.
func (s *Store) ImportHolidays(hs []calendar.Holiday) (imported, skipped int, err error) {
	tx, err := s.db.Begin()
	if err != nil {
		return 0, 0, fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback()

	for _, h := range hs {
		res, err := tx.Exec(`INSERT OR IGNORE INTO holidays (date, name) VALUES (?, ?)`, h.Date, h.Name)
		if err != nil {
			return 0, 0, fmt.Errorf("import holiday %s: %w", h.Date, err)
		}
		if n, _ := res.RowsAffected(); n == 0 {
			skipped++
		} else {
			imported++
		}
	}
	if err := tx.Commit(); err != nil {
		return 0, 0, fmt.Errorf("commit: %w", err)
	}
	return imported, skipped, nil
}

func (s *Store) HolidaySettings() (calendar.Settings, error) {
	all, err := s.settingsMap()
	if err != nil {
		return calendar.Settings{}, err
	}
	def := calendar.DefaultSettings()
	return calendar.Settings{
		ExcludeSaturday: parseBool(all[KeyExcludeSaturday], def.ExcludeSaturday),
		ExcludeSunday:   parseBool(all[KeyExcludeSunday], def.ExcludeSunday),
	}, nil
}

func (s *Store) SetHolidaySettings(cs calendar.Settings) error {
	return s.SetSettings(map[string]string{
		KeyExcludeSaturday: strconv.FormatBool(cs.ExcludeSaturday),
		KeyExcludeSunday:   strconv.FormatBool(cs.ExcludeSunday),
	})
}

// Calendar assembles the working-day calendar from stored settings and
// holidays.
func (s *Store) Calendar() (calendar.Calendar, error) {
	cs, err := s.HolidaySettings()
	if err != nil {
		return calendar.Calendar{}, err
	}
	hs, err := s.ListHolidays(0)
	if err != nil {
		return calendar.Calendar{}, err
	}
	return calendar.New(cs, hs), nil
}

func parseBool(v string, def bool) bool {
	b, err := strconv.ParseBool(v)
	if err != nil {
		return def
	}
	return b
}
