// Package syncer moves data between Redmine and the local store.
package syncer

import (
	"context"
	"errors"
	"fmt"
	"math"

	"github.com/charmbracelet/log"
	"github.com/sadopc/planr/internal/redmine"
	"github.com/sadopc/planr/internal/store"
	"github.com/sadopc/planr/internal/task"
)

// Tracker is the part of the Redmine client the syncer needs.
type Tracker interface {
	ListIssues(ctx context.Context, q redmine.Query) ([]redmine.Issue, error)
	ListStatuses(ctx context.Context) ([]redmine.Status, error)
	CreateTimeEntry(ctx context.Context, e redmine.TimeEntry) error
}

type Syncer struct {
	tracker Tracker
	store   *store.Store
	log     *log.Logger
	// ActivityID is sent with submitted time entries when non-zero.
	ActivityID int64
}

func New(t Tracker, s *store.Store, l *log.Logger) *Syncer {
	if l == nil {
		l = log.Default()
	}
	return &Syncer{tracker: t, store: s, log: l}
}

type Result struct {
	Total    int `json:"total"`
	Imported int `json:"imported"`
	Removed  int `json:"removed"`
}

// Run replaces the cached Redmine tasks with the issues matching q.
func (s *Syncer) Run(ctx context.Context, q redmine.Query) (Result, error) {
	issues, err := s.tracker.ListIssues(ctx, q)
	if err != nil {
		return Result{}, fmt.Errorf("fetch issues: %w", err)
	}

	colors := map[string]string{}
	statuses, err := s.tracker.ListStatuses(ctx)
	if err != nil {
		s.log.Warn("could not load issue statuses", "err", err)
	} else {
		colors = statusColors(statuses)
	}

	tasks := make([]task.Task, len(issues))
	for i, is := range issues {
		t := is.Task()
		t.StatusColor = colors[t.StatusName]
		tasks[i] = t
	}

	removed, err := s.store.ReplaceTasks(store.SourceRedmine, tasks)
	if err != nil {
		return Result{}, fmt.Errorf("save tasks: %w", err)
	}
	res := Result{Total: len(issues), Imported: len(tasks), Removed: removed}
	s.log.Info("synced redmine issues", "total", res.Total, "removed", res.Removed)
	return res, nil
}

var palette = []string{"#6C63FF", "#4ECDC4", "#F7B731", "#FF6B6B", "#A55EEA", "#45AAF2"}

const closedColor = "#565F89"

func statusColors(statuses []redmine.Status) map[string]string {
	m := make(map[string]string, len(statuses))
	open := 0
	for _, st := range statuses {
		if st.IsClosed {
			m[st.Name] = closedColor
			continue
		}
		m[st.Name] = palette[open%len(palette)]
		open++
	}
	return m
}

type SubmitResult struct {
	Submitted int     `json:"submitted"`
	Skipped   int     `json:"skipped"`
	Failed    int     `json:"failed"`
	Hours     float64 `json:"hours"`
}

// SubmitEntries posts finished, unsubmitted time entries to Redmine.
func (s *Syncer) SubmitEntries(ctx context.Context) (SubmitResult, error) {
	var res SubmitResult
	entries, err := s.store.ListEntries(store.EntryFilter{Unsynced: true})
	if err != nil {
		return res, err
	}

	for _, e := range entries {
		if e.TaskID <= 0 {
			res.Skipped++
			continue
		}
		hours := entryHours(e.Duration)
		err := s.tracker.CreateTimeEntry(ctx, redmine.TimeEntry{
			IssueID:    e.TaskID,
			Hours:      hours,
			ActivityID: s.ActivityID,
			Comments:   e.Notes,
		})
		if err != nil {
			if errors.Is(err, redmine.ErrUnauthorized) || ctx.Err() != nil {
				return res, fmt.Errorf("submit entry %d: %w", e.ID, err)
			}
			s.log.Error("submit time entry", "entry", e.ID, "issue", e.TaskID, "err", err)
			res.Failed++
			continue
		}
		if err := s.store.MarkSynced(e.ID); err != nil {
			return res, err
		}
		res.Submitted++
		res.Hours += hours
	}
	s.log.Info("submitted time entries", "submitted", res.Submitted, "failed", res.Failed, "skipped", res.Skipped)
	return res, nil
}

// entryHours rounds to two decimals with a floor of 0.1h.
func entryHours(seconds int64) float64 {
	h := math.Round(float64(seconds)/3600*100) / 100
	if h < 0.1 {
		h = 0.1
	}
	return h
}
