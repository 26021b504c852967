package timeline

import (
	"math"
	"time"

	"github.com/sadopc/planr/internal/task"
)

const day = 24 * time.Hour

const (
	leadDays  = 7
	trailDays = 14
)

// Range is the calendar window shown on the timeline, [Start, End).
type Range struct {
	Start time.Time `json:"start"`
	End   time.Time `json:"end"`
}

// TotalDays is the number of day columns in the range.
func (r Range) TotalDays() int {
	return int(math.Ceil(float64(r.End.Sub(r.Start)) / float64(day)))
}

// Index returns the column of date d, ceil((d - Start) / 1 day). Every
// consumer of column positions goes through here.
func (r Range) Index(d time.Time) int {
	return int(math.Ceil(float64(d.Sub(r.Start)) / float64(day)))
}

// Date returns the day of column i.
func (r Range) Date(i int) time.Time {
	return r.Start.AddDate(0, 0, i)
}

// Contains reports whether column i is inside the range.
func (r Range) Contains(i int) bool {
	return i >= 0 && i < r.TotalDays()
}

// MaxDays is the most day columns a layout spans. Longer ranges are cut
// at their end.
const MaxDays = 3660

// clamp keeps End within [Start, Start+MaxDays].
func (r Range) clamp() Range {
	if r.End.Before(r.Start) {
		r.End = r.Start
	}
	if r.TotalDays() > MaxDays {
		r.End = r.Start.AddDate(0, 0, MaxDays)
	}
	return r
}

// DeriveRange returns the window from the earliest start to the latest due
// date, padded by a week before and two weeks after. Only tasks that get a
// bar count, so a half-dated task never moves the others. With no such task
// it falls back to the current and the next month.
func DeriveRange(tasks []task.Task, today time.Time) Range {
	var lo, hi time.Time
	found := false
	for _, t := range tasks {
		if !t.HasSpan() {
			continue
		}
		s, e := task.Day(t.StartDate.Time()), task.Day(t.DueDate.Time())
		if e.Before(s) {
			s, e = e, s
		}
		if !found || s.Before(lo) {
			lo = s
		}
		if !found || e.After(hi) {
			hi = e
		}
		found = true
	}

	if !found {
		y, m, _ := today.Date()
		start := time.Date(y, m, 1, 0, 0, 0, 0, time.UTC)
		return Range{Start: start, End: start.AddDate(0, 2, 0)}
	}
	return Range{
		Start: lo.AddDate(0, 0, -leadDays),
		End:   hi.AddDate(0, 0, trailDays),
	}
}
