// Package hierarchy rebuilds the parent/child forest of a flat task list for
// indented tree views.
package hierarchy

import (
	"encoding/json"
	"fmt"

	"github.com/sadopc/planr/internal/task"
)

// Node is a task together with the nodes that name it as their parent.
type Node struct {
	Task     task.Task
	Children []*Node
}

// MarshalJSON renders the node as the task object plus a children array.
func (n *Node) MarshalJSON() ([]byte, error) {
	tb, err := json.Marshal(n.Task)
	if err != nil {
		return nil, err
	}
	children := n.Children
	if children == nil {
		children = []*Node{}
	}
	cb, err := json.Marshal(children)
	if err != nil {
		return nil, err
	}
	if len(tb) < 2 || tb[len(tb)-1] != '}' {
		return nil, fmt.Errorf("marshal node %d: task is not an object", n.Task.ID)
	}
	out := make([]byte, 0, len(tb)+len(cb)+13)
	out = append(out, tb[:len(tb)-1]...)
	out = append(out, `,"children":`...)
	out = append(out, cb...)
	out = append(out, '}')
	return out, nil
}

// Build converts tasks into a forest. Children keep the relative order they
// had in tasks; nothing is sorted.
//
// A task whose parent is missing from tasks, points at itself, or lies on a
// parent cycle is placed at root level. Tasks hanging off a cycle member
// still attach to it. Duplicate ids are not merged: the first occurrence
// owns the id, every occurrence produces a node.
func Build(tasks []task.Task) []*Node {
	nodes := make([]*Node, len(tasks))
	index := make(map[int64]int, len(tasks))
	for i := range tasks {
		nodes[i] = &Node{Task: tasks[i], Children: []*Node{}}
		if _, dup := index[tasks[i].ID]; !dup {
			index[tasks[i].ID] = i
		}
	}

	parent := make([]int, len(tasks))
	for i, t := range tasks {
		parent[i] = -1
		pid, ok := t.Parent.Get()
		if !ok || pid == t.ID {
			continue
		}
		if p, found := index[pid]; found {
			parent[i] = p
		}
	}

	cyclic := cycleMembers(parent)

	roots := make([]*Node, 0)
	for i, p := range parent {
		if p < 0 || cyclic[i] {
			roots = append(roots, nodes[i])
			continue
		}
		nodes[p].Children = append(nodes[p].Children, nodes[i])
	}
	return roots
}

// cycleMembers marks every index that lies on a cycle of the parent
// function. Each index is visited once.
func cycleMembers(parent []int) []bool {
	const (
		unvisited = 0
		onPath    = 1
		done      = 2
	)
	state := make([]int, len(parent))
	cyclic := make([]bool, len(parent))
	var path []int

	for start := range parent {
		if state[start] != unvisited {
			continue
		}
		path = path[:0]
		cur := start
		for cur >= 0 && state[cur] == unvisited {
			state[cur] = onPath
			path = append(path, cur)
			cur = parent[cur]
		}
		if cur >= 0 && state[cur] == onPath {
			for n := cur; ; {
				cyclic[n] = true
				n = parent[n]
				if n == cur {
					break
				}
			}
		}
		for _, n := range path {
			state[n] = done
		}
	}
	return cyclic
}

// Walk visits every node depth-first, parents before children. depth is 0
// for roots.
func Walk(roots []*Node, fn func(n *Node, depth int)) {
	var visit func(nodes []*Node, depth int)
	visit = func(nodes []*Node, depth int) {
		for _, n := range nodes {
			fn(n, depth)
			visit(n.Children, depth+1)
		}
	}
	visit(roots, 0)
}

// Count returns the number of nodes reachable from roots.
func Count(roots []*Node) int {
	n := 0
	Walk(roots, func(*Node, int) { n++ })
	return n
}

// Find returns the node with the given id, or nil.
func Find(roots []*Node, id int64) *Node {
	var found *Node
	Walk(roots, func(n *Node, _ int) {
		if found == nil && n.Task.ID == id {
			found = n
		}
	})
	return found
}
