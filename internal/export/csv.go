package export

import (
	"encoding/csv"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/sadopc/planr/internal/hierarchy"
	"github.com/sadopc/planr/internal/store"
)

// EntriesToCSV writes logged time. subjects maps task ids to their titles.
func EntriesToCSV(entries []store.TimeEntry, subjects map[int64]string, path string) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create csv file: %w", err)
	}
	defer f.Close()

	w := csv.NewWriter(f)
	defer w.Flush()

	if err := w.Write([]string{"ID", "Task ID", "Task", "Start", "End", "Duration (s)", "Duration", "Notes", "Synced"}); err != nil {
		return err
	}

	for _, e := range entries {
		endStr := ""
		if e.EndTime != nil {
			endStr = e.EndTime.Local().Format(time.RFC3339)
		}
		row := []string{
			fmt.Sprintf("%d", e.ID),
			fmt.Sprintf("%d", e.TaskID),
			subjectFor(subjects, e.TaskID),
			e.StartTime.Local().Format(time.RFC3339),
			endStr,
			fmt.Sprintf("%d", e.Duration),
			formatDuration(e.Duration),
			e.Notes,
			strconv.FormatBool(e.Synced),
		}
		if err := w.Write(row); err != nil {
			return err
		}
	}

	return w.Error()
}

// TreeToCSV writes the task tree depth-first. Subjects are indented two
// spaces per level so the file reads as an outline in a spreadsheet.
func TreeToCSV(roots []*hierarchy.Node, path string) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create csv file: %w", err)
	}
	defer f.Close()

	w := csv.NewWriter(f)
	defer w.Flush()

	header := []string{"ID", "Parent", "Depth", "Subject", "Status", "Project", "Group", "Start", "Due", "Done %", "Estimated (h)"}
	if err := w.Write(header); err != nil {
		return err
	}

	var werr error
	hierarchy.Walk(roots, func(n *hierarchy.Node, depth int) {
		if werr != nil {
			return
		}
		parent := ""
		if id, ok := n.Task.Parent.Get(); ok {
			parent = strconv.FormatInt(id, 10)
		}
		est := ""
		if n.Task.EstimatedHours != nil {
			est = strconv.FormatFloat(*n.Task.EstimatedHours, 'f', -1, 64)
		}
		werr = w.Write([]string{
			strconv.FormatInt(n.Task.ID, 10),
			parent,
			strconv.Itoa(depth),
			strings.Repeat("  ", depth) + n.Task.Subject,
			n.Task.StatusName,
			n.Task.ProjectName,
			n.Task.Group,
			n.Task.StartDate.String(),
			n.Task.DueDate.String(),
			strconv.Itoa(n.Task.DoneRatio),
			est,
		})
	})
	if werr != nil {
		return werr
	}
	w.Flush()
	return w.Error()
}

func subjectFor(subjects map[int64]string, id int64) string {
	if s, ok := subjects[id]; ok {
		return s
	}
	return fmt.Sprintf("#%d", id)
}

func formatDuration(secs int64) string {
	h := secs / 3600
	m := (secs % 3600) / 60
	s := secs % 60
	return fmt.Sprintf("%02d:%02d:%02d", h, m, s)
}
