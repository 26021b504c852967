package redmine

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strconv"
	"testing"
)

func newTestServer(t *testing.T, h http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)
	return New(srv.URL+"/", "secret")
}

// ============================================================
// Issues
// ============================================================

func TestListIssuesPaginates(t *testing.T) {
	const total = 250
	var calls int
	c := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		calls++
		if r.URL.Path != "/issues.json" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		if got := r.URL.Query().Get("status_id"); got != "*" {
			t.Errorf("status_id: got %q, want *", got)
		}
		offset, _ := strconv.Atoi(r.URL.Query().Get("offset"))
		limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
		var issues []map[string]any
		for i := offset; i < total && i < offset+limit; i++ {
			issues = append(issues, map[string]any{"id": i + 1, "subject": fmt.Sprintf("Issue %d", i+1)})
		}
		json.NewEncoder(w).Encode(map[string]any{
			"issues": issues, "total_count": total, "offset": offset, "limit": limit,
		})
	})

	issues, err := c.ListIssues(context.Background(), Query{})
	if err != nil {
		t.Fatal(err)
	}
	if len(issues) != total {
		t.Fatalf("expected %d issues, got %d", total, len(issues))
	}
	if calls != 3 {
		t.Errorf("expected 3 page requests, got %d", calls)
	}
	if issues[249].ID != 250 {
		t.Errorf("last issue id: got %d", issues[249].ID)
	}
}

func TestListIssuesLimit(t *testing.T) {
	c := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
		if limit != 5 {
			t.Errorf("limit param: got %d, want 5", limit)
		}
		issues := make([]map[string]any, limit)
		for i := range issues {
			issues[i] = map[string]any{"id": i + 1}
		}
		json.NewEncoder(w).Encode(map[string]any{"issues": issues, "total_count": 1000})
	})

	issues, err := c.ListIssues(context.Background(), Query{Limit: 5})
	if err != nil {
		t.Fatal(err)
	}
	if len(issues) != 5 {
		t.Errorf("expected 5 issues, got %d", len(issues))
	}
}

func TestQueryParams(t *testing.T) {
	c := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		if q.Get("project_id") != "web" {
			t.Errorf("project_id: %q", q.Get("project_id"))
		}
		if q.Get("assigned_to_id") != "me" {
			t.Errorf("assigned_to_id: %q", q.Get("assigned_to_id"))
		}
		if q.Get("issue_id") != "3,7" {
			t.Errorf("issue_id: %q", q.Get("issue_id"))
		}
		if r.Header.Get("X-Redmine-API-Key") != "secret" {
			t.Error("missing api key header")
		}
		w.Write([]byte(`{"issues":[],"total_count":0}`))
	})

	_, err := c.ListIssues(context.Background(), Query{ProjectID: "web", AssignedToMe: true, IssueIDs: []int64{3, 7}})
	if err != nil {
		t.Fatal(err)
	}
}

func TestIssueToTask(t *testing.T) {
	raw := `{
		"id": 12, "subject": "Ship", "description": "**now**",
		"project": {"id": 1, "name": "Web"},
		"status": {"id": 2, "name": "In Progress"},
		"parent": {"id": 4},
		"start_date": "2024-01-10", "due_date": "2024-01-12",
		"done_ratio": 140, "estimated_hours": 6.5
	}`
	var is Issue
	if err := json.Unmarshal([]byte(raw), &is); err != nil {
		t.Fatal(err)
	}
	tk := is.Task()
	if id, ok := tk.Parent.Get(); !ok || id != 4 {
		t.Errorf("parent: got %d,%v", id, ok)
	}
	if tk.DoneRatio != 100 {
		t.Errorf("done ratio not clamped: %d", tk.DoneRatio)
	}
	if tk.StatusName != "In Progress" || tk.ProjectName != "Web" {
		t.Errorf("names: %q %q", tk.StatusName, tk.ProjectName)
	}
	if tk.StartDate.String() != "2024-01-10" || tk.EstimatedHours == nil || *tk.EstimatedHours != 6.5 {
		t.Errorf("dates/hours: %v %v", tk.StartDate, tk.EstimatedHours)
	}
}

func TestIssueWithoutParent(t *testing.T) {
	var is Issue
	if err := json.Unmarshal([]byte(`{"id": 1, "start_date": null}`), &is); err != nil {
		t.Fatal(err)
	}
	if is.Task().Parent.IsSet() {
		t.Error("expected no parent")
	}
}

// ============================================================
// Errors
// ============================================================

func TestUnauthorized(t *testing.T) {
	c := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	})
	_, err := c.CurrentUser(context.Background())
	if !errors.Is(err, ErrUnauthorized) {
		t.Fatalf("expected ErrUnauthorized, got %v", err)
	}
}

func TestAPIError(t *testing.T) {
	c := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "boom", http.StatusInternalServerError)
	})
	_, err := c.ListStatuses(context.Background())
	var apiErr *APIError
	if !errors.As(err, &apiErr) {
		t.Fatalf("expected *APIError, got %v", err)
	}
	if apiErr.Status != 500 {
		t.Errorf("status: got %d", apiErr.Status)
	}
}

func TestContextCanceled(t *testing.T) {
	c := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{}`))
	})
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := c.CurrentUser(ctx); !errors.Is(err, context.Canceled) {
		t.Errorf("expected context.Canceled, got %v", err)
	}
}

// ============================================================
// Other endpoints
// ============================================================

func TestCurrentUser(t *testing.T) {
	c := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/users/current.json" {
			t.Errorf("path: %s", r.URL.Path)
		}
		w.Write([]byte(`{"user":{"id":9,"login":"ada","firstname":"Ada","lastname":"L"}}`))
	})
	u, err := c.CurrentUser(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if u.ID != 9 || u.Name() != "Ada L" {
		t.Errorf("user: %+v", u)
	}
}

func TestListStatuses(t *testing.T) {
	c := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"issue_statuses":[{"id":1,"name":"New"},{"id":5,"name":"Closed","is_closed":true}]}`))
	})
	st, err := c.ListStatuses(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if len(st) != 2 || !st[1].IsClosed || st[0].IsClosed {
		t.Errorf("statuses: %+v", st)
	}
}

func TestCreateTimeEntry(t *testing.T) {
	var got struct {
		TimeEntry TimeEntry `json:"time_entry"`
	}
	c := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost || r.URL.Path != "/time_entries.json" {
			t.Errorf("request: %s %s", r.Method, r.URL.Path)
		}
		if err := json.NewDecoder(r.Body).Decode(&got); err != nil {
			t.Error(err)
		}
		w.WriteHeader(http.StatusCreated)
		w.Write([]byte(`{"time_entry":{"id":1}}`))
	})
	err := c.CreateTimeEntry(context.Background(), TimeEntry{IssueID: 3, Hours: 1.25, Comments: "x"})
	if err != nil {
		t.Fatal(err)
	}
	if got.TimeEntry.IssueID != 3 || got.TimeEntry.Hours != 1.25 {
		t.Errorf("posted entry: %+v", got.TimeEntry)
	}
}
