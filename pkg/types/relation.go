// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

// RelationKind categorizes an edge between two achievement standards.
type RelationKind string

const (
	KindPrerequisite     RelationKind = "prerequisite"
	KindSimilar          RelationKind = "similar"
	KindDomainBridge     RelationKind = "domain_bridge"
	KindGradeProgression RelationKind = "grade_progression"
	KindHorizontal       RelationKind = "horizontal"
)

// OrderingKind is the relation kind whose subgraph must form a DAG.
// Cycle detection applies only to this subtype.
const OrderingKind = KindPrerequisite

// validKinds is the closed set of accepted relation kinds.
var validKinds = map[RelationKind]bool{
	KindPrerequisite:     true,
	KindSimilar:          true,
	KindDomainBridge:     true,
	KindGradeProgression: true,
	KindHorizontal:       true,
}

// Valid reports whether k is one of the five accepted relation kinds.
func (k RelationKind) Valid() bool {
	return validKinds[k]
}

// Importance grades an inferred relation's value to the graph. Only
// critical and high inferred edges join the active edge set.
type Importance string

const (
	ImportanceCritical Importance = "critical"
	ImportanceHigh     Importance = "high"
	ImportanceMedium   Importance = "medium"
)

// RelationCandidate is a proposed, not-yet-accepted edge. Candidates are
// created by the proposer, merged into RelationEdges, and discarded.
type RelationCandidate struct {
	// SourceCode and TargetCode reference StandardNode codes.
	SourceCode string `json:"source_code"`
	TargetCode string `json:"target_code"`

	// Kind is the proposed relation category.
	Kind RelationKind `json:"relation_kind"`

	// Strength is the proposer-supplied confidence in [0,1].
	Strength float64 `json:"strength"`

	// Reasoning is free-text provenance from the proposer.
	Reasoning string `json:"reasoning,omitempty"`

	// Origin names the extraction strategy that produced the candidate
	// (e.g. "similar_pairs", "domain_prerequisites", "inferred").
	Origin string `json:"origin"`

	// Importance is set only on inferred candidates.
	Importance Importance `json:"importance,omitempty"`
}

// ProvenanceEntry records one candidate that contributed to an edge.
type ProvenanceEntry struct {
	Origin    string       `json:"origin"`
	Kind      RelationKind `json:"relation_kind"`
	Strength  float64      `json:"strength"`
	Reasoning string       `json:"reasoning,omitempty"`
}

// RelationEdge is the accepted, deduplicated, weighted graph edge. At most
// one edge exists per ordered (source, target) pair, and source never
// equals target. Edges are created by the deduplicator and the
// missing-edge inferrer and are frozen once validation begins.
type RelationEdge struct {
	SourceCode string `json:"source_code"`
	TargetCode string `json:"target_code"`

	// Kind is the winning relation category after conflict resolution.
	Kind RelationKind `json:"relation_kind"`

	// Weight is the composed scalar in [0,1].
	Weight float64 `json:"weight"`

	// Provenance lists every contributing candidate.
	Provenance []ProvenanceEntry `json:"provenance"`

	// AlternativeKinds retains losing kinds from type conflicts for audit.
	AlternativeKinds []RelationKind `json:"alternative_kinds,omitempty"`
}

// PairKey returns the ordered-pair identity of the edge.
func (e RelationEdge) PairKey() string {
	return e.SourceCode + "->" + e.TargetCode
}
