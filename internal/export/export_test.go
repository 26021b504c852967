package export

import (
	"bytes"
	"encoding/csv"
	"encoding/json"
	"image/png"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/sadopc/planr/internal/calendar"
	"github.com/sadopc/planr/internal/hierarchy"
	"github.com/sadopc/planr/internal/store"
	"github.com/sadopc/planr/internal/task"
	"github.com/sadopc/planr/internal/timeline"
)

func sampleEntries() ([]store.TimeEntry, map[int64]string) {
	now := time.Now().UTC()
	end := now

	entries := []store.TimeEntry{
		{
			ID:        1,
			TaskID:    10,
			StartTime: now.Add(-1 * time.Hour),
			EndTime:   &end,
			Duration:  3600,
			Notes:     "worked on feature",
			Synced:    true,
			CreatedAt: now,
		},
		{
			ID:        2,
			TaskID:    11,
			StartTime: now.Add(-30 * time.Minute),
			EndTime:   &end,
			Duration:  1800,
			CreatedAt: now,
		},
		{
			ID:        3,
			TaskID:    10,
			StartTime: now.Add(-10 * time.Minute),
			EndTime:   nil, // still running
			CreatedAt: now,
		},
	}

	subjects := map[int64]string{10: "Login page", 11: "Password reset"}
	return entries, subjects
}

func sampleTree() []*hierarchy.Node {
	hours := 3.0
	return hierarchy.Build([]task.Task{
		{ID: 1, Subject: "Epic", StatusName: "New", StartDate: task.MustDate("2024-01-01"), DueDate: task.MustDate("2024-01-31")},
		{ID: 2, Subject: "Story", Parent: task.ParentID(1), DoneRatio: 40, EstimatedHours: &hours},
		{ID: 3, Subject: "Sub-task", Parent: task.ParentID(2), Group: "Sprint 1"},
		{ID: 4, Subject: "Other root"},
	})
}

func readCSV(t *testing.T, path string) [][]string {
	t.Helper()
	f, err := os.Open(path)
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()
	records, err := csv.NewReader(f).ReadAll()
	if err != nil {
		t.Fatal(err)
	}
	return records
}

// ============================================================
// Entries CSV
// ============================================================

func TestEntriesToCSV(t *testing.T) {
	entries, subjects := sampleEntries()
	path := filepath.Join(t.TempDir(), "test.csv")

	if err := EntriesToCSV(entries, subjects, path); err != nil {
		t.Fatalf("EntriesToCSV: %v", err)
	}
	records := readCSV(t, path)

	if len(records) != 4 {
		t.Fatalf("expected 4 rows (1 header + 3 data), got %d", len(records))
	}
	expectedHeader := []string{"ID", "Task ID", "Task", "Start", "End", "Duration (s)", "Duration", "Notes", "Synced"}
	for i, h := range expectedHeader {
		if records[0][i] != h {
			t.Fatalf("header[%d] = %q, want %q", i, records[0][i], h)
		}
	}

	row := records[1]
	if row[2] != "Login page" {
		t.Fatalf("Task = %q, want Login page", row[2])
	}
	if row[5] != "3600" || row[6] != "01:00:00" {
		t.Fatalf("duration columns = %q %q", row[5], row[6])
	}
	if row[8] != "true" {
		t.Fatalf("Synced = %q, want true", row[8])
	}
	if records[3][4] != "" {
		t.Fatalf("running entry should have empty end time, got %q", records[3][4])
	}
}

func TestEntriesToCSVUnknownTask(t *testing.T) {
	entries := []store.TimeEntry{{ID: 1, TaskID: 999, StartTime: time.Now(), Duration: 60}}
	path := filepath.Join(t.TempDir(), "unknown.csv")
	if err := EntriesToCSV(entries, nil, path); err != nil {
		t.Fatal(err)
	}
	if got := readCSV(t, path)[1][2]; got != "#999" {
		t.Fatalf("expected '#999' for uncached task, got %q", got)
	}
}

func TestEntriesToCSVSpecialCharacters(t *testing.T) {
	entries := []store.TimeEntry{{ID: 1, TaskID: 1, StartTime: time.Now(), Notes: `notes with "quotes" and, commas`}}
	subjects := map[int64]string{1: `Task "Special"`}
	path := filepath.Join(t.TempDir(), "special.csv")

	if err := EntriesToCSV(entries, subjects, path); err != nil {
		t.Fatal(err)
	}
	records := readCSV(t, path)
	if records[1][2] != `Task "Special"` {
		t.Fatalf("subject mangled: %q", records[1][2])
	}
	if records[1][7] != `notes with "quotes" and, commas` {
		t.Fatalf("notes mangled: %q", records[1][7])
	}
}

func TestEntriesToCSVBadPath(t *testing.T) {
	if err := EntriesToCSV(nil, nil, "/nonexistent/dir/file.csv"); err == nil {
		t.Fatal("expected error for bad path")
	}
}

// ============================================================
// Entries JSON
// ============================================================

func TestEntriesToJSON(t *testing.T) {
	entries, subjects := sampleEntries()
	path := filepath.Join(t.TempDir(), "test.json")

	if err := EntriesToJSON(entries, subjects, path); err != nil {
		t.Fatalf("EntriesToJSON: %v", err)
	}
	data, _ := os.ReadFile(path)

	var result jsonExport
	if err := json.Unmarshal(data, &result); err != nil {
		t.Fatalf("invalid JSON: %v", err)
	}
	if result.Count != 3 || len(result.Entries) != 3 {
		t.Fatalf("count = %d entries = %d, want 3", result.Count, len(result.Entries))
	}
	if _, err := time.Parse(time.RFC3339, result.ExportedAt); err != nil {
		t.Fatalf("exported_at is not valid RFC3339: %q", result.ExportedAt)
	}
	e := result.Entries[1]
	if e.Task != "Password reset" || e.Duration != "00:30:00" || e.Synced {
		t.Fatalf("entry 2: %+v", e)
	}
	if result.Entries[2].EndTime != "" {
		t.Fatalf("running entry end_time should be empty, got %q", result.Entries[2].EndTime)
	}
}

func TestEntriesToJSONEmpty(t *testing.T) {
	path := filepath.Join(t.TempDir(), "empty.json")
	if err := EntriesToJSON(nil, nil, path); err != nil {
		t.Fatal(err)
	}
	data, _ := os.ReadFile(path)
	if !strings.Contains(string(data), `"entries": []`) {
		t.Fatalf("empty export should carry an empty array:\n%s", data)
	}
	if !strings.Contains(string(data), "\n  ") {
		t.Fatal("JSON should be pretty-printed")
	}
}

// ============================================================
// Tree
// ============================================================

func TestTreeToCSV(t *testing.T) {
	path := filepath.Join(t.TempDir(), "tree.csv")
	if err := TreeToCSV(sampleTree(), path); err != nil {
		t.Fatal(err)
	}
	records := readCSV(t, path)
	if len(records) != 5 {
		t.Fatalf("expected header + 4 rows, got %d", len(records))
	}

	wantIDs := []string{"1", "2", "3", "4"}
	wantDepth := []string{"0", "1", "2", "0"}
	for i, r := range records[1:] {
		if r[0] != wantIDs[i] || r[2] != wantDepth[i] {
			t.Errorf("row %d: id=%s depth=%s", i, r[0], r[2])
		}
	}
	if records[3][3] != "    Sub-task" {
		t.Errorf("indented subject: %q", records[3][3])
	}
	if records[3][1] != "2" || records[1][1] != "" {
		t.Errorf("parent column: %q %q", records[3][1], records[1][1])
	}
	if records[2][10] != "3" || records[1][10] != "" {
		t.Errorf("estimated column: %q %q", records[2][10], records[1][10])
	}
	if records[1][7] != "2024-01-01" {
		t.Errorf("start column: %q", records[1][7])
	}
}

func TestTreeToJSON(t *testing.T) {
	path := filepath.Join(t.TempDir(), "tree.json")
	if err := TreeToJSON(sampleTree(), path); err != nil {
		t.Fatal(err)
	}
	data, _ := os.ReadFile(path)

	type node struct {
		ID       int64  `json:"id"`
		ParentID *int64 `json:"parent_id"`
		Children []node `json:"children"`
	}
	var result struct {
		Count int    `json:"count"`
		Tasks []node `json:"tasks"`
	}
	if err := json.Unmarshal(data, &result); err != nil {
		t.Fatal(err)
	}
	if result.Count != 4 || len(result.Tasks) != 2 {
		t.Fatalf("count=%d roots=%d", result.Count, len(result.Tasks))
	}
	story := result.Tasks[0].Children[0]
	if story.ID != 2 || len(story.Children) != 1 || story.Children[0].ID != 3 {
		t.Fatalf("nesting: %+v", story)
	}
	if result.Tasks[1].Children == nil {
		t.Error("leaf should carry an empty children array")
	}
}

func TestTreeToJSONEmpty(t *testing.T) {
	path := filepath.Join(t.TempDir(), "empty.json")
	if err := TreeToJSON(nil, path); err != nil {
		t.Fatal(err)
	}
	data, _ := os.ReadFile(path)
	if !strings.Contains(string(data), `"tasks": []`) {
		t.Fatalf("expected empty tasks array:\n%s", data)
	}
}

// ============================================================
// PNG
// ============================================================

func TestGanttToPNG(t *testing.T) {
	l := timeline.Compute([]task.Task{
		{ID: 1, Subject: "A", StartDate: task.MustDate("2024-01-02"), DueDate: task.MustDate("2024-01-05")},
	}, timeline.Options{
		Config:   timeline.DefaultConfig(),
		Calendar: calendar.New(calendar.DefaultSettings(), nil),
		Today:    time.Date(2024, 1, 3, 0, 0, 0, 0, time.UTC),
	})
	path := filepath.Join(t.TempDir(), "gantt.png")
	if err := GanttToPNG(l, path); err != nil {
		t.Fatal(err)
	}
	data, _ := os.ReadFile(path)
	img, err := png.Decode(bytes.NewReader(data))
	if err != nil {
		t.Fatalf("not a PNG: %v", err)
	}
	if img.Bounds().Dx() != int(l.Width) {
		t.Errorf("width: got %d, want %v", img.Bounds().Dx(), l.Width)
	}
}

func TestGanttToPNGBadPath(t *testing.T) {
	if err := GanttToPNG(timeline.Layout{Empty: true}, "/nonexistent/dir/g.png"); err == nil {
		t.Fatal("expected error for bad path")
	}
}

// ============================================================
// formatDuration (internal helper)
// ============================================================

func TestFormatDuration(t *testing.T) {
	tests := []struct {
		secs int64
		want string
	}{
		{0, "00:00:00"},
		{1, "00:00:01"},
		{60, "00:01:00"},
		{3600, "01:00:00"},
		{3661, "01:01:01"},
		{86400, "24:00:00"},
		{90061, "25:01:01"},
	}

	for _, tt := range tests {
		got := formatDuration(tt.secs)
		if got != tt.want {
			t.Errorf("formatDuration(%d) = %q, want %q", tt.secs, got, tt.want)
		}
	}
}
