package hierarchy

import "github.com/sadopc/planr/internal/task"

// ExpandSet holds the keys of expanded tree nodes or groups. It is owned by
// the rendering layer and passed into Flatten.
type ExpandSet[K comparable] map[K]struct{}

func NewExpandSet[K comparable]() ExpandSet[K] {
	return make(ExpandSet[K])
}

func (s ExpandSet[K]) Has(k K) bool {
	_, ok := s[k]
	return ok
}

func (s ExpandSet[K]) Expand(k K)   { s[k] = struct{}{} }
func (s ExpandSet[K]) Collapse(k K) { delete(s, k) }
func (s ExpandSet[K]) Len() int     { return len(s) }

// Toggle flips k and returns its new state.
func (s ExpandSet[K]) Toggle(k K) bool {
	if s.Has(k) {
		delete(s, k)
		return false
	}
	s[k] = struct{}{}
	return true
}

// ExpandAll expands every node in the forest.
func ExpandAll(s ExpandSet[int64], roots []*Node) {
	Walk(roots, func(n *Node, _ int) { s.Expand(n.Task.ID) })
}

// AutoExpand expands the whole forest the first time a non-empty forest is
// seen with an empty set. It reports whether anything was expanded. Later
// refreshes leave the user's choices alone unless the set is empty again.
func AutoExpand(s ExpandSet[int64], roots []*Node) bool {
	if len(roots) == 0 || s.Len() > 0 {
		return false
	}
	ExpandAll(s, roots)
	return true
}

// Row is one visible line of a flattened tree.
type Row struct {
	Node        *Node
	Depth       int
	HasChildren bool
	Expanded    bool
}

// Flatten returns the rows visible under the given expand set, in
// depth-first order. Children of collapsed nodes are skipped.
func Flatten(roots []*Node, expanded ExpandSet[int64]) []Row {
	var rows []Row
	var visit func(nodes []*Node, depth int)
	visit = func(nodes []*Node, depth int) {
		for _, n := range nodes {
			open := expanded.Has(n.Task.ID)
			rows = append(rows, Row{
				Node:        n,
				Depth:       depth,
				HasChildren: len(n.Children) > 0,
				Expanded:    open,
			})
			if open {
				visit(n.Children, depth+1)
			}
		}
	}
	visit(roots, 0)
	return rows
}

// UngroupedKey names the group of tasks whose key is empty.
const UngroupedKey = "Ungrouped"

// Group is a named bucket of tasks.
type Group struct {
	Key   string      `json:"key"`
	Tasks []task.Task `json:"tasks"`
}

// GroupBy buckets tasks by key. Groups appear in the order their key was
// first seen and keep input order inside; the ungrouped bucket goes last.
func GroupBy(tasks []task.Task, key func(task.Task) string) []Group {
	pos := make(map[string]int)
	var groups []Group
	var ungrouped []task.Task
	for _, t := range tasks {
		k := key(t)
		if k == "" {
			ungrouped = append(ungrouped, t)
			continue
		}
		i, ok := pos[k]
		if !ok {
			i = len(groups)
			pos[k] = i
			groups = append(groups, Group{Key: k})
		}
		groups[i].Tasks = append(groups[i].Tasks, t)
	}
	if len(ungrouped) > 0 {
		groups = append(groups, Group{Key: UngroupedKey, Tasks: ungrouped})
	}
	return groups
}

// ByStatus and ByCustomGroup are the key functions used by list views.
func ByStatus(t task.Task) string      { return t.StatusName }
func ByCustomGroup(t task.Task) string { return t.Group }

// Filter keeps the tasks matching pred together with all of their
// ancestors, so the filtered forest stays connected. Input order is kept.
func Filter(tasks []task.Task, pred func(task.Task) bool) []task.Task {
	byID := make(map[int64]int, len(tasks))
	for i, t := range tasks {
		if _, dup := byID[t.ID]; !dup {
			byID[t.ID] = i
		}
	}

	keep := make([]bool, len(tasks))
	for i, t := range tasks {
		if !pred(t) {
			continue
		}
		keep[i] = true
		// Climb the parent chain; stop at anything already kept so cycles
		// terminate.
		cur := t
		for {
			pid, ok := cur.Parent.Get()
			if !ok {
				break
			}
			j, found := byID[pid]
			if !found || keep[j] {
				break
			}
			keep[j] = true
			cur = tasks[j]
		}
	}

	var out []task.Task
	for i, t := range tasks {
		if keep[i] {
			out = append(out, t)
		}
	}
	return out
}
