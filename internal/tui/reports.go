package tui

import (
	"cmp"
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/NimbleMarkets/ntcharts/barchart"
	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/sadopc/planr/internal/store"
	"github.com/sadopc/planr/internal/task"
)

type reportMode int

const (
	reportDaily  reportMode = iota // the last seven days
	reportWeekly                   // one Monday-based week
)

// taskTotal is the time logged against one task over the period.
type taskTotal struct {
	id      int64
	subject string
	seconds int64
	entries int
}

// totalsByTask folds per-day summaries into per-task totals, largest first.
func totalsByTask(summaries []store.DailySummary) []taskTotal {
	idx := make(map[int64]int)
	var out []taskTotal
	for _, s := range summaries {
		i, ok := idx[s.TaskID]
		if !ok {
			i = len(out)
			idx[s.TaskID] = i
			out = append(out, taskTotal{id: s.TaskID, subject: s.Subject})
		}
		out[i].seconds += s.TotalSeconds
		out[i].entries += s.EntryCount
	}
	slices.SortStableFunc(out, func(a, b taskTotal) int { return cmp.Compare(b.seconds, a.seconds) })
	return out
}

type reportsModel struct {
	store  *store.Store
	width  int
	height int
	now    func() time.Time

	mode   reportMode
	offset int // periods back from the current one

	summaries []store.DailySummary
	totals    []taskTotal
	chart     barchart.Model
}

func newReportsModel(s *store.Store) reportsModel {
	return reportsModel{store: s, now: time.Now, chart: barchart.New(60, 12)}
}

func (r *reportsModel) setSize(w, h int) {
	r.width = w
	r.height = h
}

type reportsDataMsg struct {
	summaries []store.DailySummary
}

func (r reportsModel) refresh() tea.Cmd {
	from, to := r.dateRange()
	return func() tea.Msg {
		summaries, err := r.store.GetDailySummary(from, to)
		if err != nil {
			return statusMsg{text: fmt.Sprintf("Load report: %v", err), isError: true}
		}
		return reportsDataMsg{summaries: summaries}
	}
}

// dateRange is the half-open period [from, to) being reported.
func (r reportsModel) dateRange() (time.Time, time.Time) {
	today := task.Day(r.now().UTC())
	if r.mode == reportWeekly {
		back := (int(today.Weekday()) + 6) % 7 // days since Monday
		from := today.AddDate(0, 0, -back-7*r.offset)
		return from, from.AddDate(0, 0, 7)
	}
	to := today.AddDate(0, 0, 1-7*r.offset)
	return to.AddDate(0, 0, -7), to
}

func (r reportsModel) update(msg tea.Msg) (reportsModel, tea.Cmd) {
	switch msg := msg.(type) {
	case reportsDataMsg:
		r.summaries = msg.summaries
		r.totals = totalsByTask(msg.summaries)
		r.buildChart()
		return r, nil

	case tea.KeyMsg:
		switch {
		case key.Matches(msg, keys.Left):
			r.offset++
		case key.Matches(msg, keys.Right):
			if r.offset == 0 {
				return r, nil
			}
			r.offset--
		case key.Matches(msg, keys.Group):
			r.mode = 1 - r.mode
			r.offset = 0
		default:
			return r, nil
		}
		return r, r.refresh()
	}
	return r, nil
}

// buildChart stacks one segment per task on each day of the period.
func (r *reportsModel) buildChart() {
	h := 12
	if r.height > 30 {
		h = 16
	}
	r.chart = barchart.New(max(r.width-8, 20), h)

	byDay := make(map[string][]barchart.BarValue)
	for _, s := range r.summaries {
		byDay[s.Date] = append(byDay[s.Date], barchart.BarValue{
			Name:  s.Subject,
			Value: float64(s.TotalSeconds) / 3600,
			Style: fg(lipgloss.Color(taskColor(s.TaskID))),
		})
	}

	from, to := r.dateRange()
	var bars []barchart.BarData
	for d := from; d.Before(to); d = d.AddDate(0, 0, 1) {
		values := byDay[d.Format(task.DateLayout)]
		if len(values) == 0 {
			values = []barchart.BarValue{{Style: fg(colorSubtle)}}
		}
		bars = append(bars, barchart.BarData{Label: d.Format("Mon 02"), Values: values})
	}
	r.chart.PushAll(bars)
	r.chart.Draw()
}

func (r reportsModel) totalSeconds() int64 {
	var n int64
	for _, t := range r.totals {
		n += t.seconds
	}
	return n
}

func (r reportsModel) view() string {
	tabs := []string{inactiveTabStyle.Render("Daily"), inactiveTabStyle.Render("Weekly")}
	tabs[r.mode] = activeTabStyle.Render([]string{"Daily", "Weekly"}[r.mode])

	from, to := r.dateRange()
	period := mutedStyle.Render(fmt.Sprintf("%s - %s  total %s",
		from.Format("Jan 02"), to.AddDate(0, 0, -1).Format("Jan 02, 2006"), formatHours(r.totalSeconds())))

	header := lipgloss.JoinHorizontal(lipgloss.Bottom,
		titleStyle.Render("Reports"), "  ", lipgloss.JoinHorizontal(lipgloss.Bottom, tabs...), "  ", period)

	return panelStyle.Width(r.width - 4).Render(lipgloss.JoinVertical(lipgloss.Left,
		header, "",
		r.chart.View(), "",
		r.renderTotals(r.width-4), "",
		mutedStyle.Render("  ←/→: previous/next period  g: daily/weekly  u: submit to Redmine"),
	))
}

// renderTotals lists each task with its share of the period.
func (r reportsModel) renderTotals(w int) string {
	if len(r.totals) == 0 {
		return mutedStyle.Render("  No time logged in this period")
	}
	total := r.totalSeconds()
	barW := max(min(w-64, 20), 5)

	rows := []string{
		mutedStyle.Render(fmt.Sprintf("  %-32s %10s %7s  %s", "Task", "Time", "Entries", "Share")),
		mutedStyle.Render("  " + strings.Repeat("─", min(w-6, 56+barW))),
	}
	for _, t := range r.totals {
		share := 0.0
		if total > 0 {
			share = float64(t.seconds) / float64(total)
		}
		filled := int(share*float64(barW) + 0.5)
		bar := fg(lipgloss.Color(taskColor(t.id))).Render(strings.Repeat("█", filled)) +
			mutedStyle.Render(strings.Repeat("░", barW-filled))
		rows = append(rows, fmt.Sprintf("  %s %-30s %10s %7d  %s %3.0f%%",
			dot(taskColor(t.id)), truncate(t.subject, 30), formatSeconds(t.seconds), t.entries, bar, share*100))
	}
	return strings.Join(rows, "\n")
}
