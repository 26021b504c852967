package store

import (
	"errors"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/sadopc/planr/internal/calendar"
	"github.com/sadopc/planr/internal/task"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := NewMemory()
	if err != nil {
		t.Fatalf("new memory store: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

// insertEntry is a test helper that inserts a completed entry with a given duration.
func insertEntry(t *testing.T, s *Store, taskID int64, startOffset, durationSecs int) int64 {
	t.Helper()
	now := time.Now().UTC()
	start := now.Add(time.Duration(-startOffset) * time.Second)
	end := start.Add(time.Duration(durationSecs) * time.Second)
	res, err := s.db.Exec(
		`INSERT INTO time_entries (task_id, start_time, end_time, duration) VALUES (?, ?, ?, ?)`,
		taskID, start.Format(time.RFC3339), end.Format(time.RFC3339), durationSecs,
	)
	if err != nil {
		t.Fatalf("insert entry: %v", err)
	}
	id, _ := res.LastInsertId()
	return id
}

func issue(id int64, subject string, parent int64) task.Task {
	t := task.Task{ID: id, Subject: subject, ProjectName: "Web"}
	if parent != 0 {
		t.Parent = task.ParentID(parent)
	}
	return t
}

// ============================================================
// Store initialization
// ============================================================

func TestNewMemory(t *testing.T) {
	s, err := NewMemory()
	if err != nil {
		t.Fatal(err)
	}
	defer s.Close()

	var version int
	s.db.QueryRow("PRAGMA user_version").Scan(&version)
	if version != 1 {
		t.Fatalf("expected user_version 1, got %d", version)
	}
}

func TestNewWithPath(t *testing.T) {
	dir := t.TempDir()
	path := dir + "/sub/planr.db"
	s, err := New(path)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := s.UpsertTask(task.Task{Subject: "persisted"}); err != nil {
		t.Fatal(err)
	}
	s.Close()

	s2, err := New(path)
	if err != nil {
		t.Fatal(err)
	}
	defer s2.Close()
	tasks, _ := s2.ListTasks(TaskFilter{})
	if len(tasks) != 1 || tasks[0].Subject != "persisted" {
		t.Fatalf("expected the task to survive reopen, got %+v", tasks)
	}
}

func TestSchemaVersion(t *testing.T) {
	s := newTestStore(t)
	var v int
	if err := s.db.QueryRow("PRAGMA user_version").Scan(&v); err != nil {
		t.Fatal(err)
	}
	if v != len(migrations) {
		t.Fatalf("user_version = %d, want %d", v, len(migrations))
	}
}

func TestOpenFileCreatesDirectory(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "planr.db")
	s, err := New(path)
	if err != nil {
		t.Fatal(err)
	}
	s.Close()

	reopened, err := New(path)
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	reopened.Close()
}

func TestMigrationIdempotent(t *testing.T) {
	s := newTestStore(t)
	if err := s.migrate(); err != nil {
		t.Fatalf("second migration failed: %v", err)
	}
}

// ============================================================
// Tasks
// ============================================================

func TestReplaceTasksRoundTrip(t *testing.T) {
	s := newTestStore(t)
	hours := 4.5
	in := issue(10, "Root", 0)
	in.StartDate = task.MustDate("2024-01-02")
	in.DueDate = task.ParseDate("soon")
	in.EstimatedHours = &hours
	in.DoneRatio = 30
	in.StatusName = "New"

	if _, err := s.ReplaceTasks(SourceRedmine, []task.Task{in, issue(11, "Child", 10)}); err != nil {
		t.Fatal(err)
	}

	got, err := s.GetTask(10)
	if err != nil {
		t.Fatal(err)
	}
	if got.StartDate.String() != "2024-01-02" || !got.StartDate.Valid() {
		t.Errorf("start date: %v", got.StartDate)
	}
	if got.DueDate.Valid() || got.DueDate.String() != "soon" {
		t.Errorf("malformed due date should keep its text, got %q", got.DueDate.String())
	}
	if got.EstimatedHours == nil || *got.EstimatedHours != 4.5 {
		t.Errorf("hours: %v", got.EstimatedHours)
	}
	if got.Parent.IsSet() {
		t.Error("root should have no parent")
	}

	child, _ := s.GetTask(11)
	if id, ok := child.Parent.Get(); !ok || id != 10 {
		t.Errorf("child parent: %d %v", id, ok)
	}
}

func TestReplaceTasksRemovesStaleAndKeepsLocalState(t *testing.T) {
	s := newTestStore(t)
	s.ReplaceTasks(SourceRedmine, []task.Task{issue(1, "A", 0), issue(2, "B", 0), issue(3, "C", 0)})
	if err := s.SetTaskGroup(2, "Sprint 1"); err != nil {
		t.Fatal(err)
	}
	local, _ := s.UpsertTask(task.Task{Subject: "mine"})

	removed, err := s.ReplaceTasks(SourceRedmine, []task.Task{issue(2, "B renamed", 0), issue(4, "D", 0)})
	if err != nil {
		t.Fatal(err)
	}
	if removed != 2 {
		t.Errorf("expected 2 removed, got %d", removed)
	}

	b, _ := s.GetTask(2)
	if b.Subject != "B renamed" || b.Group != "Sprint 1" {
		t.Errorf("resync should update fields and keep the group: %+v", b)
	}
	if _, err := s.GetTask(1); !errors.Is(err, ErrNotFound) {
		t.Errorf("task 1 should be gone, got %v", err)
	}
	if _, err := s.GetTask(local.ID); err != nil {
		t.Errorf("local task must survive a redmine sync: %v", err)
	}
}

func TestListTasksOrderAndFilter(t *testing.T) {
	s := newTestStore(t)
	other := issue(3, "Other", 0)
	other.ProjectName = "Ops"
	s.ReplaceTasks(SourceRedmine, []task.Task{issue(9, "first", 0), issue(2, "second", 0), other})

	all, err := s.ListTasks(TaskFilter{})
	if err != nil {
		t.Fatal(err)
	}
	var names []string
	for _, tk := range all {
		names = append(names, tk.Subject)
	}
	if strings.Join(names, ",") != "first,second,Other" {
		t.Errorf("expected fetch order, got %v", names)
	}

	web, _ := s.ListTasks(TaskFilter{Project: "Web"})
	if len(web) != 2 {
		t.Errorf("expected 2 Web tasks, got %d", len(web))
	}
	local, _ := s.ListTasks(TaskFilter{Source: SourceLocal})
	if len(local) != 0 {
		t.Errorf("expected no local tasks, got %d", len(local))
	}
}

func TestListTasksEmpty(t *testing.T) {
	s := newTestStore(t)
	tasks, err := s.ListTasks(TaskFilter{})
	if err != nil {
		t.Fatal(err)
	}
	if len(tasks) != 0 {
		t.Fatalf("expected 0 tasks, got %d", len(tasks))
	}
}

func TestUpsertTaskAllocatesLocalIDs(t *testing.T) {
	s := newTestStore(t)
	a, err := s.UpsertTask(task.Task{Subject: "a"})
	if err != nil {
		t.Fatal(err)
	}
	b, _ := s.UpsertTask(task.Task{Subject: "b", Parent: task.ParentID(a.ID)})
	if a.ID != -1 || b.ID != -2 {
		t.Fatalf("expected ids -1,-2, got %d,%d", a.ID, b.ID)
	}

	b.Subject = "b2"
	b.DoneRatio = 250
	updated, err := s.UpsertTask(*b)
	if err != nil {
		t.Fatal(err)
	}
	if updated.Subject != "b2" || updated.DoneRatio != 100 {
		t.Errorf("update: %+v", updated)
	}
}

func TestGetTaskNotFound(t *testing.T) {
	s := newTestStore(t)
	_, err := s.GetTask(999)
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestSetTaskGroupNotFound(t *testing.T) {
	s := newTestStore(t)
	if err := s.SetTaskGroup(42, "x"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestDeleteTask(t *testing.T) {
	s := newTestStore(t)
	tk, _ := s.UpsertTask(task.Task{Subject: "gone"})
	if err := s.DeleteTask(tk.ID); err != nil {
		t.Fatal(err)
	}
	if err := s.DeleteTask(tk.ID); !errors.Is(err, ErrNotFound) {
		t.Fatalf("second delete: expected ErrNotFound, got %v", err)
	}
}

func TestReorderTasks(t *testing.T) {
	s := newTestStore(t)
	s.ReplaceTasks(SourceRedmine, []task.Task{issue(1, "A", 0), issue(2, "B", 0), issue(3, "C", 1)})

	err := s.ReorderTasks([]Reorder{
		{ID: 3, Parent: task.NoParent(), SortOrder: 0},
		{ID: 2, Parent: task.ParentID(3), SortOrder: 1},
		{ID: 1, Parent: task.NoParent(), SortOrder: 2},
	})
	if err != nil {
		t.Fatal(err)
	}
	all, _ := s.ListTasks(TaskFilter{})
	if all[0].ID != 3 || all[1].ID != 2 || all[2].ID != 1 {
		t.Errorf("order: %d %d %d", all[0].ID, all[1].ID, all[2].ID)
	}
	if all[0].Parent.IsSet() {
		t.Error("task 3 should have been detached")
	}
	if id, _ := all[1].Parent.Get(); id != 3 {
		t.Errorf("task 2 parent: %d", id)
	}
}

func TestReorderTasksRollsBack(t *testing.T) {
	s := newTestStore(t)
	s.ReplaceTasks(SourceRedmine, []task.Task{issue(1, "A", 0)})

	err := s.ReorderTasks([]Reorder{
		{ID: 1, SortOrder: 50},
		{ID: 404, SortOrder: 0},
	})
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
	a, _ := s.GetTask(1)
	if a.SortOrder == 50 {
		t.Error("partial reorder was committed")
	}
}

func TestListProjects(t *testing.T) {
	s := newTestStore(t)
	done := issue(2, "done", 0)
	done.DoneRatio = 100
	ops := issue(3, "ops", 0)
	ops.ProjectName = "Ops"
	s.ReplaceTasks(SourceRedmine, []task.Task{issue(1, "open", 0), done, ops})

	ps, err := s.ListProjects()
	if err != nil {
		t.Fatal(err)
	}
	if len(ps) != 2 || ps[0].Name != "Ops" || ps[1].Name != "Web" {
		t.Fatalf("projects: %+v", ps)
	}
	if ps[1].TaskCount != 2 || ps[1].Done != 1 {
		t.Errorf("Web counts: %+v", ps[1])
	}
}

// ============================================================
// Holidays
// ============================================================

func TestAddAndListHolidays(t *testing.T) {
	s := newTestStore(t)
	if _, err := s.AddHoliday(time.Date(2024, 12, 25, 15, 0, 0, 0, time.UTC), "Christmas"); err != nil {
		t.Fatal(err)
	}
	s.AddHoliday(time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC), "New Year")
	s.AddHoliday(time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC), "New Year")

	all, _ := s.ListHolidays(0)
	if len(all) != 3 || all[0].Date != "2024-01-01" || all[1].Date != "2024-12-25" {
		t.Fatalf("holidays: %+v", all)
	}
	y2025, _ := s.ListHolidays(2025)
	if len(y2025) != 1 {
		t.Errorf("expected 1 holiday in 2025, got %d", len(y2025))
	}
}

func TestAddHolidayDuplicate(t *testing.T) {
	s := newTestStore(t)
	d := time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC)
	s.AddHoliday(d, "Labour Day")
	if _, err := s.AddHoliday(d, "again"); !errors.Is(err, ErrDuplicateHoliday) {
		t.Fatalf("expected ErrDuplicateHoliday, got %v", err)
	}
}

func TestUpdateAndDeleteHoliday(t *testing.T) {
	s := newTestStore(t)
	h, _ := s.AddHoliday(time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC), "May")
	if err := s.UpdateHoliday(h.ID, "Labour Day"); err != nil {
		t.Fatal(err)
	}
	got, _ := s.GetHoliday(h.ID)
	if got.Name != "Labour Day" {
		t.Errorf("name: %q", got.Name)
	}
	if err := s.DeleteHoliday(h.ID); err != nil {
		t.Fatal(err)
	}
	if _, err := s.GetHoliday(h.ID); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestImportHolidaysSkipsDuplicates(t *testing.T) {
	s := newTestStore(t)
	s.AddHoliday(time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC), "New Year")

	imported, skipped, err := s.ImportHolidays([]calendar.Holiday{
		{Date: "2024-01-01", Name: "dup"},
		{Date: "2024-02-10", Name: "Lunar New Year"},
		{Date: "2024-02-10", Name: "dup in file"},
	})
	if err != nil {
		t.Fatal(err)
	}
	if imported != 1 || skipped != 2 {
		t.Errorf("imported=%d skipped=%d, want 1/2", imported, skipped)
	}
}

func TestHolidaySettings(t *testing.T) {
	s := newTestStore(t)
	cs, err := s.HolidaySettings()
	if err != nil {
		t.Fatal(err)
	}
	if cs != calendar.DefaultSettings() {
		t.Errorf("defaults: %+v", cs)
	}

	if err := s.SetHolidaySettings(calendar.Settings{ExcludeSaturday: false, ExcludeSunday: true}); err != nil {
		t.Fatal(err)
	}
	cs, _ = s.HolidaySettings()
	if cs.ExcludeSaturday || !cs.ExcludeSunday {
		t.Errorf("after set: %+v", cs)
	}
}

func TestCalendarFromStore(t *testing.T) {
	s := newTestStore(t)
	s.AddHoliday(time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC), "New Year")
	s.SetHolidaySettings(calendar.Settings{ExcludeSunday: true})

	cal, err := s.Calendar()
	if err != nil {
		t.Fatal(err)
	}
	if cal.IsWorkingDay(time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)) {
		t.Error("holiday should not be a working day")
	}
	if !cal.IsWorkingDay(time.Date(2024, 1, 6, 0, 0, 0, 0, time.UTC)) {
		t.Error("Saturday should be a working day when not excluded")
	}
	if cal.IsWorkingDay(time.Date(2024, 1, 7, 0, 0, 0, 0, time.UTC)) {
		t.Error("Sunday should be excluded")
	}
}

// ============================================================
// Time entries
// ============================================================

func TestStartAndStopEntry(t *testing.T) {
	s := newTestStore(t)

	entry, err := s.StartEntry(10)
	if err != nil {
		t.Fatal(err)
	}
	if entry.EndTime != nil {
		t.Fatal("entry should not have end time yet")
	}
	if entry.TaskID != 10 {
		t.Fatalf("expected task_id=10, got %d", entry.TaskID)
	}

	running, _ := s.GetRunningEntry()
	if running == nil || running.ID != entry.ID {
		t.Fatal("expected the new entry to be running")
	}

	stopped, err := s.StopEntry(entry.ID)
	if err != nil {
		t.Fatal(err)
	}
	if stopped.EndTime == nil {
		t.Fatal("stopped entry should have end time")
	}
	if stopped.Duration < 0 {
		t.Fatal("duration should be non-negative")
	}

	again, err := s.StopEntry(entry.ID)
	if err != nil {
		t.Fatal(err)
	}
	if !again.EndTime.Equal(*stopped.EndTime) {
		t.Error("second stop changed the end time")
	}

	running, _ = s.GetRunningEntry()
	if running != nil {
		t.Fatal("no entry should be running")
	}
}

func TestStopEntryNotFound(t *testing.T) {
	s := newTestStore(t)
	if _, err := s.StopEntry(999); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestStartEntryClosesRunning(t *testing.T) {
	s := newTestStore(t)
	first, _ := s.StartEntry(1)
	second, err := s.StartEntry(2)
	if err != nil {
		t.Fatal(err)
	}

	running, _ := s.GetRunningEntry()
	if running == nil || running.ID != second.ID {
		t.Fatalf("expected latest running entry %d, got %+v", second.ID, running)
	}
	prev, _ := s.GetEntry(first.ID)
	if prev.EndTime == nil || prev.Duration < 0 {
		t.Fatalf("first entry should be closed: %+v", prev)
	}
}

func TestUpdateEntryNotes(t *testing.T) {
	s := newTestStore(t)
	id := insertEntry(t, s, 1, 60, 30)
	if err := s.UpdateEntryNotes(id, "reviewed PR"); err != nil {
		t.Fatal(err)
	}
	e, _ := s.GetEntry(id)
	if e.Notes != "reviewed PR" {
		t.Errorf("notes: %q", e.Notes)
	}
}

func TestListEntriesFilters(t *testing.T) {
	s := newTestStore(t)
	insertEntry(t, s, 1, 7200, 600)
	insertEntry(t, s, 1, 3600, 600)
	insertEntry(t, s, 2, 60, 30)
	s.StartEntry(3)

	all, _ := s.ListEntries(EntryFilter{})
	if len(all) != 4 {
		t.Fatalf("expected 4 entries, got %d", len(all))
	}

	tid := int64(1)
	byTask, _ := s.ListEntries(EntryFilter{TaskID: &tid})
	if len(byTask) != 2 {
		t.Errorf("expected 2 entries for task 1, got %d", len(byTask))
	}

	from := time.Now().Add(-90 * time.Minute)
	recent, _ := s.ListEntries(EntryFilter{From: &from})
	if len(recent) != 3 {
		t.Errorf("expected 3 recent entries, got %d", len(recent))
	}

	limited, _ := s.ListEntries(EntryFilter{Limit: 1})
	if len(limited) != 1 {
		t.Errorf("expected 1 entry with limit, got %d", len(limited))
	}
}

func TestMarkSyncedAndUnsyncedFilter(t *testing.T) {
	s := newTestStore(t)
	a := insertEntry(t, s, 1, 3600, 600)
	insertEntry(t, s, 2, 1800, 600)
	s.StartEntry(3)

	if err := s.MarkSynced(a); err != nil {
		t.Fatal(err)
	}
	pending, _ := s.ListEntries(EntryFilter{Unsynced: true})
	if len(pending) != 1 || pending[0].TaskID != 2 {
		t.Fatalf("unsynced entries: %+v", pending)
	}
	e, _ := s.GetEntry(a)
	if !e.Synced {
		t.Error("entry should be marked synced")
	}
	if err := s.MarkSynced(999); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestGetDailySummary(t *testing.T) {
	s := newTestStore(t)
	s.ReplaceTasks(SourceRedmine, []task.Task{issue(1, "Design", 0)})
	insertEntry(t, s, 1, 3600, 1800)
	insertEntry(t, s, 1, 1800, 1200)
	insertEntry(t, s, 77, 600, 60)
	s.StartEntry(1)

	now := time.Now()
	summaries, err := s.GetDailySummary(now.Add(-24*time.Hour), now.Add(24*time.Hour))
	if err != nil {
		t.Fatal(err)
	}

	// Entries may straddle midnight UTC, so fold the days together.
	byTask := map[int64]DailySummary{}
	for _, ds := range summaries {
		agg := byTask[ds.TaskID]
		agg.Subject = ds.Subject
		agg.TotalSeconds += ds.TotalSeconds
		agg.EntryCount += ds.EntryCount
		byTask[ds.TaskID] = agg
	}
	d := byTask[1]
	if d.Subject != "Design" || d.TotalSeconds != 3000 || d.EntryCount != 2 {
		t.Errorf("task 1 summary: %+v", d)
	}
	if byTask[77].Subject != "#77" {
		t.Errorf("uncached task label: %q", byTask[77].Subject)
	}
}

func TestGetDailySummaryEmpty(t *testing.T) {
	s := newTestStore(t)
	now := time.Now()
	summaries, err := s.GetDailySummary(now.Add(-time.Hour), now)
	if err != nil {
		t.Fatal(err)
	}
	if len(summaries) != 0 {
		t.Fatalf("expected no summaries, got %d", len(summaries))
	}
}

func TestGetTodayTotalExcludesRunning(t *testing.T) {
	s := newTestStore(t)
	insertEntry(t, s, 1, 0, 600)
	s.StartEntry(1)

	total, err := s.GetTodayTotal()
	if err != nil {
		t.Fatal(err)
	}
	if total != 600 {
		t.Fatalf("expected 600, got %d", total)
	}
}

// ============================================================
// Settings
// ============================================================

func TestSettingsDefaults(t *testing.T) {
	s := newTestStore(t)

	defaults := map[string]string{
		"exclude_saturday": "true",
		"exclude_sunday":   "true",
		"redmine_url":      "",
		"daily_goal":       "28800",
		"timeline_zoom":    "day",
	}
	for k, expected := range defaults {
		val, err := s.GetSetting(k)
		if err != nil {
			t.Fatalf("GetSetting(%q): %v", k, err)
		}
		if val != expected {
			t.Fatalf("GetSetting(%q) = %q, want %q", k, val, expected)
		}
	}
}

func TestSetSettingOverwrite(t *testing.T) {
	s := newTestStore(t)
	s.SetSetting("key", "v1")
	s.SetSetting("key", "v2")
	val, _ := s.GetSetting("key")
	if val != "v2" {
		t.Fatalf("expected v2, got %s", val)
	}
}

func TestGetSettingNotFound(t *testing.T) {
	s := newTestStore(t)
	_, err := s.GetSetting("nonexistent")
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestGetAllSettingsSorted(t *testing.T) {
	s := newTestStore(t)
	all, err := s.GetAllSettings()
	if err != nil {
		t.Fatal(err)
	}
	if len(all) < 6 {
		t.Fatalf("expected at least 6 default settings, got %d", len(all))
	}
	for i := 1; i < len(all); i++ {
		if all[i-1].Key >= all[i].Key {
			t.Fatalf("settings not sorted: %s >= %s", all[i-1].Key, all[i].Key)
		}
	}
}

func TestSetSettingsBatch(t *testing.T) {
	s := newTestStore(t)
	err := s.SetSettings(map[string]string{
		KeyRedmineURL: "https://redmine.example.com",
		KeyDailyGoal:  "21600",
	})
	if err != nil {
		t.Fatal(err)
	}
	if v, _ := s.GetSetting(KeyRedmineURL); v != "https://redmine.example.com" {
		t.Errorf("redmine_url = %q", v)
	}
	if n := s.SettingInt(KeyDailyGoal, 0); n != 21600 {
		t.Errorf("daily_goal = %d", n)
	}
}

func TestSettingIntFallback(t *testing.T) {
	s := newTestStore(t)
	s.SetSetting("odd", "eight hours")
	if n := s.SettingInt("odd", 7); n != 7 {
		t.Errorf("non-numeric value: got %d, want fallback", n)
	}
	if n := s.SettingInt("missing", 3); n != 3 {
		t.Errorf("missing key: got %d, want fallback", n)
	}
}

// ============================================================
// Links
// ============================================================

func seedLinkTasks(t *testing.T, s *Store) {
	t.Helper()
	tasks := []task.Task{issue(1, "Design", 0), issue(2, "Build", 0), issue(3, "Ship", 0)}
	if _, err := s.ReplaceTasks(SourceRedmine, tasks); err != nil {
		t.Fatalf("seed: %v", err)
	}
}

func TestAddAndListLinks(t *testing.T) {
	s := newTestStore(t)
	seedLinkTasks(t, s)

	l, err := s.AddLink(task.Link{Source: 1, Target: 2})
	if err != nil {
		t.Fatalf("add link: %v", err)
	}
	if l.ID == 0 {
		t.Fatal("expected an id")
	}
	if _, err := s.AddLink(task.Link{Source: 2, Target: 3, Type: task.StartToStart}); err != nil {
		t.Fatalf("add second link: %v", err)
	}

	links, err := s.ListLinks()
	if err != nil {
		t.Fatalf("list links: %v", err)
	}
	if len(links) != 2 {
		t.Fatalf("got %d links, want 2", len(links))
	}
	if links[1].Type != task.StartToStart || links[1].Source != 2 || links[1].Target != 3 {
		t.Errorf("second link = %+v", links[1])
	}
}

func TestAddLinkRejects(t *testing.T) {
	s := newTestStore(t)
	seedLinkTasks(t, s)
	if _, err := s.AddLink(task.Link{Source: 1, Target: 2}); err != nil {
		t.Fatal(err)
	}
	if _, err := s.AddLink(task.Link{Source: 2, Target: 3}); err != nil {
		t.Fatal(err)
	}

	tests := []struct {
		name string
		link task.Link
		want error
	}{
		{"self", task.Link{Source: 1, Target: 1}, ErrSelfLink},
		{"duplicate", task.Link{Source: 1, Target: 2}, ErrDuplicateLink},
		{"cycle", task.Link{Source: 3, Target: 1}, ErrLinkCycle},
		{"unknown task", task.Link{Source: 1, Target: 99}, ErrNotFound},
	}
	for _, tt := range tests {
		if _, err := s.AddLink(tt.link); !errors.Is(err, tt.want) {
			t.Errorf("%s: err = %v, want %v", tt.name, err, tt.want)
		}
	}
}

func TestDeleteLink(t *testing.T) {
	s := newTestStore(t)
	seedLinkTasks(t, s)
	l, err := s.AddLink(task.Link{Source: 1, Target: 2})
	if err != nil {
		t.Fatal(err)
	}
	if err := s.DeleteLink(l.ID); err != nil {
		t.Fatalf("delete link: %v", err)
	}
	if err := s.DeleteLink(l.ID); !errors.Is(err, ErrNotFound) {
		t.Errorf("second delete err = %v, want ErrNotFound", err)
	}
}

func TestLinksFollowTaskRemoval(t *testing.T) {
	s := newTestStore(t)
	seedLinkTasks(t, s)
	local, err := s.UpsertTask(task.Task{Subject: "Local"})
	if err != nil {
		t.Fatal(err)
	}
	for _, l := range []task.Link{{Source: 1, Target: 2}, {Source: 2, Target: 3}, {Source: local.ID, Target: 1}} {
		if _, err := s.AddLink(l); err != nil {
			t.Fatal(err)
		}
	}

	// Task 3 disappears from Redmine; the local task is deleted.
	if _, err := s.ReplaceTasks(SourceRedmine, []task.Task{issue(1, "Design", 0), issue(2, "Build", 0)}); err != nil {
		t.Fatal(err)
	}
	if err := s.DeleteTask(local.ID); err != nil {
		t.Fatal(err)
	}

	links, err := s.ListLinks()
	if err != nil {
		t.Fatal(err)
	}
	if len(links) != 1 || links[0].Source != 1 || links[0].Target != 2 {
		t.Errorf("links = %+v, want only 1 -> 2", links)
	}
}
