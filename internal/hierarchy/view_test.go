package hierarchy

import (
	"reflect"
	"testing"

	"github.com/sadopc/planr/internal/task"
)

func rowIDs(rows []Row) []int64 {
	var out []int64
	for _, r := range rows {
		out = append(out, r.Node.Task.ID)
	}
	return out
}

func TestFlattenCollapsed(t *testing.T) {
	roots := Build([]task.Task{mk(1, 0), mk(2, 1), mk(3, 0)})
	rows := Flatten(roots, NewExpandSet[int64]())
	if got := rowIDs(rows); !reflect.DeepEqual(got, []int64{1, 3}) {
		t.Fatalf("rows = %v, want [1 3]", got)
	}
	if !rows[0].HasChildren || rows[0].Expanded {
		t.Fatalf("row 1 flags wrong: %+v", rows[0])
	}
}

func TestFlattenExpanded(t *testing.T) {
	roots := Build([]task.Task{mk(1, 0), mk(2, 1), mk(4, 2), mk(3, 0)})
	set := NewExpandSet[int64]()
	set.Expand(1)
	rows := Flatten(roots, set)
	if got := rowIDs(rows); !reflect.DeepEqual(got, []int64{1, 2, 3}) {
		t.Fatalf("rows = %v, want [1 2 3]", got)
	}
	if rows[1].Depth != 1 {
		t.Fatalf("depth of 2 = %d", rows[1].Depth)
	}

	set.Expand(2)
	rows = Flatten(roots, set)
	if got := rowIDs(rows); !reflect.DeepEqual(got, []int64{1, 2, 4, 3}) {
		t.Fatalf("rows = %v", got)
	}
}

func TestFlattenNilSet(t *testing.T) {
	roots := Build([]task.Task{mk(1, 0), mk(2, 1)})
	rows := Flatten(roots, nil)
	if len(rows) != 1 {
		t.Fatalf("nil set should show roots only, got %d rows", len(rows))
	}
}

func TestExpandSetToggle(t *testing.T) {
	s := NewExpandSet[string]()
	if !s.Toggle("a") {
		t.Fatal("first toggle expands")
	}
	if s.Toggle("a") {
		t.Fatal("second toggle collapses")
	}
	if s.Len() != 0 {
		t.Fatal("set should be empty")
	}
}

func TestAutoExpandOneShot(t *testing.T) {
	roots := Build([]task.Task{mk(1, 0), mk(2, 1)})
	set := NewExpandSet[int64]()

	if AutoExpand(set, nil) {
		t.Fatal("empty forest must not trigger")
	}
	if !AutoExpand(set, roots) {
		t.Fatal("first non-empty forest should expand")
	}
	if set.Len() != 2 {
		t.Fatalf("expected 2 expanded, got %d", set.Len())
	}

	// User collapses one node; a refresh must not undo it.
	set.Collapse(1)
	if AutoExpand(set, roots) {
		t.Fatal("refresh should not re-expand")
	}
	if set.Has(1) {
		t.Fatal("user collapse was overridden")
	}

	// Once the set is empty again auto-expansion re-arms.
	set.Collapse(2)
	if !AutoExpand(set, roots) {
		t.Fatal("empty set should re-arm")
	}
}

func TestGroupBy(t *testing.T) {
	tasks := []task.Task{
		{ID: 1, StatusName: "New"},
		{ID: 2, StatusName: "Done"},
		{ID: 3},
		{ID: 4, StatusName: "New"},
	}
	groups := GroupBy(tasks, ByStatus)
	if len(groups) != 3 {
		t.Fatalf("expected 3 groups, got %d", len(groups))
	}
	if groups[0].Key != "New" || len(groups[0].Tasks) != 2 || groups[0].Tasks[1].ID != 4 {
		t.Fatalf("group New wrong: %+v", groups[0])
	}
	if groups[1].Key != "Done" {
		t.Fatalf("second group = %q", groups[1].Key)
	}
	if groups[2].Key != UngroupedKey || groups[2].Tasks[0].ID != 3 {
		t.Fatalf("ungrouped should be last: %+v", groups[2])
	}
}

func TestGroupByCustomGroupEmpty(t *testing.T) {
	if got := GroupBy(nil, ByCustomGroup); len(got) != 0 {
		t.Fatalf("expected no groups, got %v", got)
	}
}

func TestFilterKeepsAncestors(t *testing.T) {
	tasks := []task.Task{
		{ID: 1, Subject: "epic"},
		{ID: 2, Subject: "story", Parent: task.ParentID(1)},
		{ID: 3, Subject: "bug", Parent: task.ParentID(2)},
		{ID: 4, Subject: "other"},
	}
	got := Filter(tasks, func(t task.Task) bool { return t.Subject == "bug" })
	var gotIDs []int64
	for _, tk := range got {
		gotIDs = append(gotIDs, tk.ID)
	}
	if !reflect.DeepEqual(gotIDs, []int64{1, 2, 3}) {
		t.Fatalf("filtered = %v, want [1 2 3]", gotIDs)
	}
}

func TestFilterTerminatesOnCycle(t *testing.T) {
	tasks := []task.Task{mk(1, 2), mk(2, 1)}
	got := Filter(tasks, func(t task.Task) bool { return t.ID == 1 })
	if len(got) != 2 {
		t.Fatalf("expected both cycle members, got %d", len(got))
	}
}
