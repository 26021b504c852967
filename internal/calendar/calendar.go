// Package calendar decides which days are working days, given weekend
// exclusion flags and an explicit holiday list.
package calendar

import (
	"sort"
	"time"

	"github.com/sadopc/planr/internal/task"
)

// Settings controls which weekdays are non-working.
type Settings struct {
	ExcludeSaturday bool `json:"exclude_saturday"`
	ExcludeSunday   bool `json:"exclude_sunday"`
}

// DefaultSettings excludes both weekend days.
func DefaultSettings() Settings {
	return Settings{ExcludeSaturday: true, ExcludeSunday: true}
}

// Holiday is a named non-working day.
type Holiday struct {
	ID   int64  `json:"id,omitempty"`
	Date string `json:"date"` // YYYY-MM-DD
	Name string `json:"name"`
}

// Calendar answers working-day questions. The zero value treats every day
// as a working day.
type Calendar struct {
	settings Settings
	holidays map[string]Holiday
}

func New(settings Settings, holidays []Holiday) Calendar {
	m := make(map[string]Holiday, len(holidays))
	for _, h := range holidays {
		m[h.Date] = h
	}
	return Calendar{settings: settings, holidays: m}
}

func (c Calendar) Settings() Settings { return c.settings }

// IsExcludedWeekday reports whether d falls on a weekday disabled by the
// settings.
func (c Calendar) IsExcludedWeekday(d time.Time) bool {
	switch d.Weekday() {
	case time.Saturday:
		return c.settings.ExcludeSaturday
	case time.Sunday:
		return c.settings.ExcludeSunday
	}
	return false
}

// IsHoliday reports whether the ISO date of d is in the holiday list.
func (c Calendar) IsHoliday(d time.Time) bool {
	_, ok := c.holidays[d.Format(task.DateLayout)]
	return ok
}

// Holiday returns the holiday falling on d, if any.
func (c Calendar) Holiday(d time.Time) (Holiday, bool) {
	h, ok := c.holidays[d.Format(task.DateLayout)]
	return h, ok
}

func (c Calendar) IsWorkingDay(d time.Time) bool {
	return !c.IsExcludedWeekday(d) && !c.IsHoliday(d)
}

// DueDate returns the day on which workingDays of work starting at start
// finish. The start day counts when it is a working day.
func (c Calendar) DueDate(start time.Time, workingDays int) time.Time {
	cur := task.Day(start)
	if workingDays <= 0 {
		return cur
	}
	counted := 0
	if c.IsWorkingDay(cur) {
		counted = 1
	}
	for counted < workingDays {
		cur = cur.AddDate(0, 0, 1)
		if c.IsWorkingDay(cur) {
			counted++
		}
	}
	return cur
}

// WorkingDaysBetween counts working days in [from, to], inclusive. An
// inverted range counts zero.
func (c Calendar) WorkingDaysBetween(from, to time.Time) int {
	from, to = task.Day(from), task.Day(to)
	if to.Before(from) {
		return 0
	}
	n := 0
	for d := from; !d.After(to); d = d.AddDate(0, 0, 1) {
		if c.IsWorkingDay(d) {
			n++
		}
	}
	return n
}

// HolidaysBetween returns the holidays in [from, to] ordered by date.
func (c Calendar) HolidaysBetween(from, to time.Time) []Holiday {
	lo := from.Format(task.DateLayout)
	hi := to.Format(task.DateLayout)
	var out []Holiday
	for date, h := range c.holidays {
		if date >= lo && date <= hi {
			out = append(out, h)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Date < out[j].Date })
	return out
}
