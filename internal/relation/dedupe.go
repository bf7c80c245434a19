// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package relation

import (
	"sort"

	"github.com/ldm/standards-graph/pkg/types"
)

// kindRank orders kinds for deterministic tie-breaking: when two
// candidates for the same pair carry equal weight, the stronger ordering
// semantics win.
var kindRank = map[types.RelationKind]int{
	types.KindPrerequisite:     0,
	types.KindGradeProgression: 1,
	types.KindHorizontal:       2,
	types.KindSimilar:          3,
	types.KindDomainBridge:     4,
}

// DedupeSummary reports what the deduplicator collapsed.
type DedupeSummary struct {
	CandidatesIn  int
	EdgesOut      int
	Merged        int
	TypeConflicts int

	// ConflictPairs lists the ordered pairs whose candidates disagreed on
	// relation kind, for the stage summary.
	ConflictPairs []string
}

// Dedupe collapses weighted candidates into exactly one RelationEdge per
// ordered (source, target) pair. Within a group the highest composed
// weight wins; ties break by kind rank then origin then reasoning, so the
// result is identical under any input ordering. Kind disagreements are
// recorded in AlternativeKinds and counted as type conflicts; no pair is
// ever lost.
func Dedupe(candidates []types.RelationCandidate) ([]types.RelationEdge, DedupeSummary) {
	summary := DedupeSummary{CandidatesIn: len(candidates)}

	groups := make(map[string][]types.RelationCandidate)
	for _, c := range candidates {
		key := c.SourceCode + "->" + c.TargetCode
		groups[key] = append(groups[key], c)
	}

	keys := make([]string, 0, len(groups))
	for k := range groups {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	edges := make([]types.RelationEdge, 0, len(groups))
	for _, key := range keys {
		group := groups[key]
		edge, conflicted := mergeGroup(group)
		edges = append(edges, edge)
		if len(group) > 1 {
			summary.Merged += len(group) - 1
		}
		if conflicted {
			summary.TypeConflicts++
			summary.ConflictPairs = append(summary.ConflictPairs, key)
		}
	}

	summary.EdgesOut = len(edges)
	return edges, summary
}

// mergeGroup collapses all candidates for one ordered pair into a single
// edge. Returns whether the group disagreed on relation kind.
func mergeGroup(group []types.RelationCandidate) (types.RelationEdge, bool) {
	sort.Slice(group, func(i, j int) bool {
		wi, wj := ComposeWeight(group[i]), ComposeWeight(group[j])
		if wi != wj {
			return wi > wj
		}
		if kindRank[group[i].Kind] != kindRank[group[j].Kind] {
			return kindRank[group[i].Kind] < kindRank[group[j].Kind]
		}
		if group[i].Origin != group[j].Origin {
			return group[i].Origin < group[j].Origin
		}
		return group[i].Reasoning < group[j].Reasoning
	})

	winner := group[0]
	edge := types.RelationEdge{
		SourceCode: winner.SourceCode,
		TargetCode: winner.TargetCode,
		Kind:       winner.Kind,
		Weight:     ComposeWeight(winner),
	}

	altSeen := make(map[types.RelationKind]bool)
	conflicted := false
	for _, c := range group {
		edge.Provenance = append(edge.Provenance, types.ProvenanceEntry{
			Origin:    c.Origin,
			Kind:      c.Kind,
			Strength:  c.Strength,
			Reasoning: c.Reasoning,
		})
		if c.Kind != winner.Kind {
			conflicted = true
			altSeen[c.Kind] = true
		}
	}

	for kind := range altSeen {
		edge.AlternativeKinds = append(edge.AlternativeKinds, kind)
	}
	sort.Slice(edge.AlternativeKinds, func(i, j int) bool {
		return kindRank[edge.AlternativeKinds[i]] < kindRank[edge.AlternativeKinds[j]]
	})

	return edge, conflicted
}
