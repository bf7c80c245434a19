// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package validate checks the ordering subgraph for logical consistency.
package validate

import (
	"sort"

	"github.com/ldm/standards-graph/pkg/types"
)

// MaxCycles bounds how many distinct cycles a report carries, so a
// pathological input cannot blow up the artifact.
const MaxCycles = 50

// CycleReport is the result of one validation pass over the ordering
// (prerequisite) subgraph. Purely derived; rebuilt on every run.
type CycleReport struct {
	// Cycles holds each distinct cycle as the ordered node codes along
	// it; the last element's edge returns to the first.
	Cycles [][]string `json:"cycles"`

	// IsDAG is true when no cycle was found.
	IsDAG bool `json:"is_dag"`

	// Truncated is true when more than MaxCycles cycles exist.
	Truncated bool `json:"truncated"`
}

// CycleCount returns the number of reported cycles.
func (r CycleReport) CycleCount() int {
	return len(r.Cycles)
}

// FindCycles runs depth-first search over the subgraph induced by
// ordering-kind edges and reports every distinct cycle reachable from any
// root. A node already on the current recursion stack marks a back edge;
// the cycle is the path slice from that node's first occurrence to the
// current node. The stack-membership check is what guarantees termination
// on cyclic input.
func FindCycles(edges []types.RelationEdge) CycleReport {
	adj := make(map[string][]string)
	nodeSet := make(map[string]bool)
	for _, e := range edges {
		if e.Kind != types.OrderingKind {
			continue
		}
		adj[e.SourceCode] = append(adj[e.SourceCode], e.TargetCode)
		nodeSet[e.SourceCode] = true
		nodeSet[e.TargetCode] = true
	}

	nodes := make([]string, 0, len(nodeSet))
	for n := range nodeSet {
		nodes = append(nodes, n)
	}
	sort.Strings(nodes)
	for n := range adj {
		sort.Strings(adj[n])
	}

	d := &detector{
		adj:     adj,
		onStack: make(map[string]bool),
		done:    make(map[string]bool),
		seen:    make(map[string]bool),
	}
	for _, n := range nodes {
		if !d.done[n] {
			d.visit(n)
		}
	}

	return CycleReport{
		Cycles:    d.cycles,
		IsDAG:     len(d.cycles) == 0,
		Truncated: d.truncated,
	}
}

type detector struct {
	adj       map[string][]string
	onStack   map[string]bool
	done      map[string]bool
	path      []string
	cycles    [][]string
	seen      map[string]bool // canonical cycle keys already reported
	truncated bool
}

func (d *detector) visit(node string) {
	d.onStack[node] = true
	d.path = append(d.path, node)

	for _, next := range d.adj[node] {
		if d.onStack[next] {
			d.record(next)
			continue
		}
		if !d.done[next] {
			d.visit(next)
		}
	}

	d.path = d.path[:len(d.path)-1]
	d.onStack[node] = false
	d.done[node] = true
}

// record captures the cycle closed by a back edge from the current path
// head to start, deduplicating rotations of the same cycle.
func (d *detector) record(start string) {
	idx := -1
	for i, n := range d.path {
		if n == start {
			idx = i
			break
		}
	}
	if idx < 0 {
		return
	}

	cycle := append([]string(nil), d.path[idx:]...)
	key := canonicalKey(cycle)
	if d.seen[key] {
		return
	}
	d.seen[key] = true

	if len(d.cycles) >= MaxCycles {
		d.truncated = true
		return
	}
	d.cycles = append(d.cycles, canonicalize(cycle))
}

// canonicalize rotates the cycle so its lexicographically smallest node
// comes first, keeping reports stable across traversal orders.
func canonicalize(cycle []string) []string {
	min := 0
	for i, n := range cycle {
		if n < cycle[min] {
			min = i
		}
	}
	out := make([]string, 0, len(cycle))
	out = append(out, cycle[min:]...)
	out = append(out, cycle[:min]...)
	return out
}

func canonicalKey(cycle []string) string {
	rotated := canonicalize(cycle)
	key := ""
	for _, n := range rotated {
		key += n + ","
	}
	return key
}
