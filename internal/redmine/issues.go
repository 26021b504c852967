package redmine

import (
	"context"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/sadopc/planr/internal/task"
)

// pageSize is the largest page Redmine serves by default.
const pageSize = 100

type Ref struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
}

// Issue is the subset of a Redmine issue planr uses.
type Issue struct {
	ID             int64     `json:"id"`
	Subject        string    `json:"subject"`
	Description    string    `json:"description"`
	Project        Ref       `json:"project"`
	Tracker        Ref       `json:"tracker"`
	Status         Ref       `json:"status"`
	AssignedTo     *Ref      `json:"assigned_to"`
	Parent         *Ref      `json:"parent"`
	StartDate      task.Date `json:"start_date"`
	DueDate        task.Date `json:"due_date"`
	DoneRatio      int       `json:"done_ratio"`
	EstimatedHours *float64  `json:"estimated_hours"`
}

// Task converts the issue to a planning task.
func (i Issue) Task() task.Task {
	t := task.Task{
		ID:             i.ID,
		Subject:        i.Subject,
		Description:    i.Description,
		StartDate:      i.StartDate,
		DueDate:        i.DueDate,
		EstimatedHours: i.EstimatedHours,
		DoneRatio:      task.ClampRatio(i.DoneRatio),
		StatusName:     i.Status.Name,
		ProjectName:    i.Project.Name,
	}
	if i.Parent != nil {
		t.Parent = task.ParentID(i.Parent.ID)
	}
	return t
}

// Query selects issues. Closed issues are always included.
type Query struct {
	ProjectID    string
	AssignedToMe bool
	IssueIDs     []int64
	// Limit caps the number of issues returned; 0 fetches every page.
	Limit int
}

func (q Query) values() url.Values {
	v := url.Values{}
	v.Set("status_id", "*")
	v.Set("sort", "id")
	if q.ProjectID != "" {
		v.Set("project_id", q.ProjectID)
	}
	if q.AssignedToMe {
		v.Set("assigned_to_id", "me")
	}
	if len(q.IssueIDs) > 0 {
		ids := make([]string, len(q.IssueIDs))
		for i, id := range q.IssueIDs {
			ids[i] = strconv.FormatInt(id, 10)
		}
		v.Set("issue_id", strings.Join(ids, ","))
	}
	return v
}

type issuePage struct {
	Issues     []Issue `json:"issues"`
	TotalCount int     `json:"total_count"`
	Offset     int     `json:"offset"`
	Limit      int     `json:"limit"`
}

// ListIssues fetches issues matching q, following offset pagination.
func (c *Client) ListIssues(ctx context.Context, q Query) ([]Issue, error) {
	var out []Issue
	offset := 0
	for {
		size := pageSize
		if q.Limit > 0 && q.Limit-len(out) < size {
			size = q.Limit - len(out)
		}
		v := q.values()
		v.Set("offset", strconv.Itoa(offset))
		v.Set("limit", strconv.Itoa(size))

		var page issuePage
		if err := c.do(ctx, http.MethodGet, "/issues.json", v, nil, &page); err != nil {
			return nil, err
		}
		out = append(out, page.Issues...)
		offset += len(page.Issues)
		c.log.Debug("fetched issue page", "count", len(page.Issues), "offset", offset, "total", page.TotalCount)

		if len(page.Issues) == 0 || offset >= page.TotalCount {
			break
		}
		if q.Limit > 0 && len(out) >= q.Limit {
			break
		}
	}
	return out, nil
}
