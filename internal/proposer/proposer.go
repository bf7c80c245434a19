// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package proposer abstracts the external completion service that scores
// candidate relations between achievement standards. The pipeline consumes
// the Proposer interface only; the concrete backend, retry policy, and
// cost accounting live behind it so refinement logic is testable without
// network calls.
package proposer

import (
	"context"

	"github.com/ldm/standards-graph/pkg/types"
)

// Pair is one ordered (source, target) pair submitted for scoring, with
// enough surrounding text for the service to judge the relation.
type Pair struct {
	SourceCode string `json:"source"`
	TargetCode string `json:"target"`
	Context    string `json:"context"`
}

// Request is one batch submitted to the proposer.
type Request struct {
	// Pairs is the batch of ordered pairs to score.
	Pairs []Pair

	// KindHint, when non-empty, tells the proposer which relation kind
	// the caller expects for this batch.
	KindHint types.RelationKind
}

// RawCandidate is a candidate relation exactly as the proposer emitted it.
// Fields may be missing or unrecognized; the normalizer canonicalizes
// them before anything downstream sees the record.
type RawCandidate struct {
	SourceCode string   `json:"source_code"`
	TargetCode string   `json:"target_code"`
	Kind       string   `json:"relation_kind"`
	Strength   *float64 `json:"strength,omitempty"`
	Reasoning  string   `json:"reasoning,omitempty"`
	Importance string   `json:"importance,omitempty"`
}

// Response is the backend's batch result plus token usage for cost
// accounting.
type Response struct {
	Candidates   []RawCandidate
	InputTokens  int
	OutputTokens int
}

// Backend performs a single completion call. Implementations handle one
// batch and return the raw response; retries and cost tracking are the
// Meter's job.
type Backend interface {
	Propose(ctx context.Context, req Request) (Response, error)
}

// Proposer is the contract the pipeline stages consume.
type Proposer interface {
	ProposeRelations(ctx context.Context, req Request) ([]RawCandidate, error)
}
