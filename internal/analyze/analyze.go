// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package analyze derives coverage and graph-quality metrics from the
// final node and edge sets. Everything here is a pure computation; the
// orchestrator's Report stage is the only consumer.
package analyze

import (
	"math"

	"github.com/ldm/standards-graph/internal/validate"
	"github.com/ldm/standards-graph/pkg/types"
)

// Report holds the derived coverage and quality numbers for one run.
type Report struct {
	NodeCount int `json:"node_count"`
	EdgeCount int `json:"edge_count"`

	// NodeCoverage is |nodes touched by at least one edge| / |nodes|.
	NodeCoverage float64 `json:"node_coverage"`

	// IsolatedNodes counts nodes no edge touches.
	IsolatedNodes int `json:"isolated_nodes"`

	// EdgeDensity is |edges| / (|nodes| * (|nodes|-1)).
	EdgeDensity float64 `json:"edge_density"`

	// EdgesByKind, EdgesByDomain, and EdgesByGradeBand are edge-count
	// histograms; domain and grade band are attributed from the source
	// node.
	EdgesByKind      map[string]int `json:"edges_by_kind"`
	EdgesByDomain    map[string]int `json:"edges_by_domain"`
	EdgesByGradeBand map[string]int `json:"edges_by_grade_band"`

	// CyclesFound is carried over from validation.
	CyclesFound int  `json:"cycles_found"`
	IsDAG       bool `json:"is_dag"`

	// QualityScore is a bounded composite in [0,1].
	QualityScore float64 `json:"quality_score"`
}

// Analyze computes the report from the final sets and the cycle report.
func Analyze(nodes []types.StandardNode, edges []types.RelationEdge, cycles validate.CycleReport) Report {
	r := Report{
		NodeCount:        len(nodes),
		EdgeCount:        len(edges),
		EdgesByKind:      make(map[string]int),
		EdgesByDomain:    make(map[string]int),
		EdgesByGradeBand: make(map[string]int),
		CyclesFound:      cycles.CycleCount(),
		IsDAG:            cycles.IsDAG,
	}

	byCode := make(map[string]types.StandardNode, len(nodes))
	for _, n := range nodes {
		byCode[n.Code] = n
	}

	touched := make(map[string]bool)
	for _, e := range edges {
		touched[e.SourceCode] = true
		touched[e.TargetCode] = true
		r.EdgesByKind[string(e.Kind)]++
		if src, ok := byCode[e.SourceCode]; ok {
			r.EdgesByDomain[src.DomainID]++
			r.EdgesByGradeBand[src.GradeBandID]++
		}
	}

	touchedCount := 0
	for _, n := range nodes {
		if touched[n.Code] {
			touchedCount++
		}
	}

	if len(nodes) > 0 {
		r.NodeCoverage = round3(float64(touchedCount) / float64(len(nodes)))
		r.IsolatedNodes = len(nodes) - touchedCount
	}
	if len(nodes) > 1 {
		r.EdgeDensity = round3(float64(len(edges)) / float64(len(nodes)*(len(nodes)-1)))
	}

	r.QualityScore = qualityScore(r)
	return r
}

// qualityScore combines coverage, non-isolation, a density band, and DAG
// cleanliness into one bounded scalar. The weights are a calibration
// choice, not a measurement.
func qualityScore(r Report) float64 {
	if r.NodeCount == 0 {
		return 0
	}

	coverage := r.NodeCoverage
	nonIsolated := 1.0 - float64(r.IsolatedNodes)/float64(r.NodeCount)

	// Density in [0.01, 0.30] scores full marks; sparser or denser
	// graphs degrade linearly toward zero.
	density := 0.0
	switch {
	case r.EdgeDensity >= 0.01 && r.EdgeDensity <= 0.30:
		density = 1.0
	case r.EdgeDensity > 0 && r.EdgeDensity < 0.01:
		density = r.EdgeDensity / 0.01
	case r.EdgeDensity > 0.30:
		density = math.Max(0, 1.0-(r.EdgeDensity-0.30))
	}

	dag := 1.0
	if !r.IsDAG {
		dag = math.Max(0, 1.0-0.1*float64(r.CyclesFound))
	}

	score := 0.4*coverage + 0.2*nonIsolated + 0.2*density + 0.2*dag
	return round3(clamp01(score))
}

func round3(v float64) float64 {
	return math.Round(v*1000) / 1000
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
