// Package hierarchy turns a flat task slice into a parent/child forest.
package hierarchy

import (
	"slices"
	"strings"

	"taskflow/internal/service"
)

// Node is a task and its subtasks.
type Node struct {
	Task     service.Task
	Children []*Node
}

// Build returns the forest for tasks. It is pure: the same input always
// yields the same tree.
//
// A task whose parent is unknown becomes a root. Tasks on a parent cycle are
// also roots, so every input task appears exactly once. Siblings are ordered
// by Position; tasks without one keep their input order and sort first.
func Build(tasks []service.Task) []*Node {
	onCycle := make(map[string]bool)
	for _, cycle := range Cycles(tasks) {
		for _, id := range cycle {
			onCycle[id] = true
		}
	}

	nodes := make(map[string]*Node, len(tasks))
	order := make([]*Node, 0, len(tasks))
	for _, t := range tasks {
		if _, dup := nodes[t.ID]; dup {
			continue
		}
		n := &Node{Task: t}
		nodes[t.ID] = n
		order = append(order, n)
	}

	var roots []*Node
	for _, n := range order {
		parent, ok := nodes[n.Task.Parent]
		if n.Task.Parent == "" || !ok || onCycle[n.Task.ID] {
			roots = append(roots, n)
			continue
		}
		parent.Children = append(parent.Children, n)
	}

	sortSiblings(roots)
	return roots
}

func sortSiblings(nodes []*Node) {
	slices.SortStableFunc(nodes, func(a, b *Node) int {
		return strings.Compare(a.Task.Position, b.Task.Position)
	})
	for _, n := range nodes {
		sortSiblings(n.Children)
	}
}

// Cycles returns every parent cycle among tasks, each as the ids along the
// cycle starting from the member that appears first in tasks. The result is
// nil when the parent links form a forest.
//
// Uses DFS with coloring: white (unvisited), gray (in progress), black (done).
// Each task has at most one parent, so the walk follows a single chain.
func Cycles(tasks []service.Task) [][]string {
	const (
		white = 0
		gray  = 1
		black = 2
	)

	parentOf := make(map[string]string, len(tasks))
	index := make(map[string]int, len(tasks))
	for i, t := range tasks {
		if _, dup := index[t.ID]; dup {
			continue
		}
		index[t.ID] = i
		parentOf[t.ID] = t.Parent
	}

	color := make(map[string]int, len(tasks))
	var cycles [][]string
	for _, t := range tasks {
		if color[t.ID] != white {
			continue
		}

		var path []string
		cur := t.ID
		for {
			if _, known := index[cur]; !known || color[cur] == black {
				break
			}
			if color[cur] == gray {
				// Found a cycle: the path suffix starting at cur.
				start := slices.Index(path, cur)
				cycles = append(cycles, rotateToFirst(slices.Clone(path[start:]), index))
				break
			}
			color[cur] = gray
			path = append(path, cur)
			cur = parentOf[cur]
		}
		for _, id := range path {
			color[id] = black
		}
	}
	return cycles
}

// rotateToFirst rotates cycle so it starts at the member earliest in input order.
func rotateToFirst(cycle []string, index map[string]int) []string {
	first := 0
	for i, id := range cycle {
		if index[id] < index[cycle[first]] {
			first = i
		}
	}
	return append(cycle[first:], cycle[:first]...)
}

// Flatten returns the tasks of a forest in depth-first display order
// together with each task's depth.
func Flatten(roots []*Node) (tasks []service.Task, depths []int) {
	var walk func(nodes []*Node, depth int)
	walk = func(nodes []*Node, depth int) {
		for _, n := range nodes {
			tasks = append(tasks, n.Task)
			depths = append(depths, depth)
			walk(n.Children, depth+1)
		}
	}
	walk(roots, 0)
	return tasks, depths
}
