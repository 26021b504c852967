// Package deps models dependency links between tasks as a directed graph.
package deps

import (
	"slices"

	"github.com/sadopc/planr/internal/task"
)

// Graph is the dependency graph of a set of links.
type Graph struct {
	Adj    map[int64][]int64 // task -> tasks waiting on it
	RevAdj map[int64][]int64 // task -> tasks it waits on
}

// Build indexes links. Repeated source/target pairs collapse into one edge.
func Build(links []task.Link) *Graph {
	g := &Graph{
		Adj:    make(map[int64][]int64),
		RevAdj: make(map[int64][]int64),
	}
	seen := make(map[[2]int64]bool, len(links))
	for _, l := range links {
		key := [2]int64{l.Source, l.Target}
		if seen[key] {
			continue
		}
		seen[key] = true
		g.Adj[l.Source] = append(g.Adj[l.Source], l.Target)
		g.RevAdj[l.Target] = append(g.RevAdj[l.Target], l.Source)
	}
	for k := range g.Adj {
		slices.Sort(g.Adj[k])
	}
	for k := range g.RevAdj {
		slices.Sort(g.RevAdj[k])
	}
	return g
}

// Reaches reports whether to can be reached from from along links.
func (g *Graph) Reaches(from, to int64) bool {
	if from == to {
		return true
	}
	visited := map[int64]bool{from: true}
	stack := []int64{from}
	for len(stack) > 0 {
		cur := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		for _, next := range g.Adj[cur] {
			if next == to {
				return true
			}
			if !visited[next] {
				visited[next] = true
				stack = append(stack, next)
			}
		}
	}
	return false
}

// WouldCycle reports whether adding source -> target closes a loop.
func (g *Graph) WouldCycle(source, target int64) bool {
	return g.Reaches(target, source)
}

// Blockers lists the tasks id waits on.
func (g *Graph) Blockers(id int64) []int64 {
	return g.RevAdj[id]
}
