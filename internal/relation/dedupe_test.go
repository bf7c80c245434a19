// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package relation

import (
	"math/rand"
	"reflect"
	"testing"

	"github.com/ldm/standards-graph/pkg/types"
)

func cand(source, target string, kind types.RelationKind, strength float64, origin string) types.RelationCandidate {
	return types.RelationCandidate{
		SourceCode: source,
		TargetCode: target,
		Kind:       kind,
		Strength:   strength,
		Origin:     origin,
	}
}

func TestDedupeMergesDuplicates(t *testing.T) {
	candidates := []types.RelationCandidate{
		cand("2X01-01", "4X01-01", types.KindPrerequisite, 0.9, "domain_prerequisites"),
		cand("2X01-01", "4X01-01", types.KindPrerequisite, 0.6, "similar_pairs"),
	}

	edges, summary := Dedupe(candidates)

	if len(edges) != 1 {
		t.Fatalf("got %d edges, want 1", len(edges))
	}
	edge := edges[0]
	if edge.Weight != 0.9 {
		t.Errorf("Weight = %v, want 0.9 (highest composed weight wins)", edge.Weight)
	}
	if len(edge.Provenance) != 2 {
		t.Errorf("got %d provenance entries, want 2", len(edge.Provenance))
	}
	if summary.Merged != 1 {
		t.Errorf("Merged = %d, want 1", summary.Merged)
	}
	if summary.TypeConflicts != 0 {
		t.Errorf("TypeConflicts = %d, want 0", summary.TypeConflicts)
	}
}

func TestDedupeTypeConflict(t *testing.T) {
	candidates := []types.RelationCandidate{
		cand("2X01-01", "4X01-01", types.KindSimilar, 0.9, "similar_pairs"),
		cand("2X01-01", "4X01-01", types.KindPrerequisite, 0.9, "domain_prerequisites"),
	}

	edges, summary := Dedupe(candidates)

	if len(edges) != 1 {
		t.Fatalf("got %d edges, want 1", len(edges))
	}
	edge := edges[0]
	// prerequisite composes to 0.9, similar to 0.45.
	if edge.Kind != types.KindPrerequisite {
		t.Errorf("Kind = %q, want prerequisite", edge.Kind)
	}
	if len(edge.AlternativeKinds) != 1 || edge.AlternativeKinds[0] != types.KindSimilar {
		t.Errorf("AlternativeKinds = %v, want [similar]", edge.AlternativeKinds)
	}
	if summary.TypeConflicts != 1 {
		t.Errorf("TypeConflicts = %d, want 1", summary.TypeConflicts)
	}
	if len(summary.ConflictPairs) != 1 || summary.ConflictPairs[0] != "2X01-01->4X01-01" {
		t.Errorf("ConflictPairs = %v", summary.ConflictPairs)
	}
}

func TestDedupeDirectionsAreDistinct(t *testing.T) {
	candidates := []types.RelationCandidate{
		cand("2X01-01", "4X01-01", types.KindPrerequisite, 0.8, "a"),
		cand("4X01-01", "2X01-01", types.KindSimilar, 0.8, "b"),
	}

	edges, _ := Dedupe(candidates)

	if len(edges) != 2 {
		t.Fatalf("got %d edges, want 2 (opposite directions are distinct pairs)", len(edges))
	}
}

func TestDedupeOrderInvariant(t *testing.T) {
	base := []types.RelationCandidate{
		cand("2X01-01", "4X01-01", types.KindPrerequisite, 0.9, "domain_prerequisites"),
		cand("2X01-01", "4X01-01", types.KindSimilar, 0.9, "similar_pairs"),
		cand("2X01-01", "4X01-01", types.KindGradeProgression, 0.7, "grade_progression"),
		cand("4X01-01", "6X01-01", types.KindPrerequisite, 0.6, "domain_prerequisites"),
		cand("2X02-01", "2X01-01", types.KindDomainBridge, 0.5, "domain_bridge"),
	}

	want, _ := Dedupe(base)

	rng := rand.New(rand.NewSource(42))
	for i := 0; i < 10; i++ {
		shuffled := append([]types.RelationCandidate(nil), base...)
		rng.Shuffle(len(shuffled), func(a, b int) {
			shuffled[a], shuffled[b] = shuffled[b], shuffled[a]
		})

		got, _ := Dedupe(shuffled)
		if !reflect.DeepEqual(got, want) {
			t.Fatalf("permutation %d changed the result:\ngot  %+v\nwant %+v", i, got, want)
		}
	}
}

func TestDedupePairUniqueness(t *testing.T) {
	candidates := []types.RelationCandidate{
		cand("2X01-01", "4X01-01", types.KindPrerequisite, 0.9, "a"),
		cand("2X01-01", "4X01-01", types.KindSimilar, 0.4, "b"),
		cand("2X01-01", "6X01-01", types.KindPrerequisite, 0.8, "a"),
		cand("2X01-01", "6X01-01", types.KindPrerequisite, 0.3, "c"),
	}

	edges, summary := Dedupe(candidates)

	seen := make(map[string]bool)
	for _, e := range edges {
		if seen[e.PairKey()] {
			t.Errorf("duplicate pair %s in output", e.PairKey())
		}
		seen[e.PairKey()] = true
	}
	if summary.CandidatesIn != 4 || summary.EdgesOut != 2 {
		t.Errorf("summary = %+v, want 4 in / 2 out", summary)
	}
}
