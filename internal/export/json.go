package export

import (
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/sadopc/planr/internal/hierarchy"
	"github.com/sadopc/planr/internal/store"
)

type jsonExport struct {
	ExportedAt string      `json:"exported_at"`
	Count      int         `json:"count"`
	Entries    []jsonEntry `json:"entries"`
}

type jsonEntry struct {
	ID          int64  `json:"id"`
	TaskID      int64  `json:"task_id"`
	Task        string `json:"task"`
	StartTime   string `json:"start_time"`
	EndTime     string `json:"end_time,omitempty"`
	DurationSec int64  `json:"duration_seconds"`
	Duration    string `json:"duration"`
	Notes       string `json:"notes,omitempty"`
	Synced      bool   `json:"synced"`
}

func EntriesToJSON(entries []store.TimeEntry, subjects map[int64]string, path string) error {
	export := jsonExport{
		ExportedAt: time.Now().UTC().Format(time.RFC3339),
		Count:      len(entries),
		Entries:    []jsonEntry{},
	}

	for _, e := range entries {
		endStr := ""
		if e.EndTime != nil {
			endStr = e.EndTime.Local().Format(time.RFC3339)
		}
		export.Entries = append(export.Entries, jsonEntry{
			ID:          e.ID,
			TaskID:      e.TaskID,
			Task:        subjectFor(subjects, e.TaskID),
			StartTime:   e.StartTime.Local().Format(time.RFC3339),
			EndTime:     endStr,
			DurationSec: e.Duration,
			Duration:    formatDuration(e.Duration),
			Notes:       e.Notes,
			Synced:      e.Synced,
		})
	}

	return writeJSON(export, path)
}

type treeExport struct {
	ExportedAt string            `json:"exported_at"`
	Count      int               `json:"count"`
	Tasks      []*hierarchy.Node `json:"tasks"`
}

// TreeToJSON writes the nested forest; every node carries a children array.
func TreeToJSON(roots []*hierarchy.Node, path string) error {
	if roots == nil {
		roots = []*hierarchy.Node{}
	}
	return writeJSON(treeExport{
		ExportedAt: time.Now().UTC().Format(time.RFC3339),
		Count:      hierarchy.Count(roots),
		Tasks:      roots,
	}, path)
}

func writeJSON(v any, path string) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal json: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write json file: %w", err)
	}
	return nil
}
