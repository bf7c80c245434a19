// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package infer proposes high-value edges absent from the deduplicated
// edge set. It is an enhancement stage: every failure short of the cost
// ceiling degrades to zero inferred edges, never to a failed run.
package infer

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strconv"
	"sync"

	"github.com/ldm/standards-graph/internal/proposer"
	"github.com/ldm/standards-graph/internal/relation"
	"github.com/ldm/standards-graph/pkg/types"
)

// OriginInferred tags candidates produced by this stage.
const OriginInferred = "inferred"

const (
	defaultMaxPairs = 200
	defaultWorkers  = 4
)

// Result is the outcome of one inference pass.
type Result struct {
	// Accepted holds normalized critical/high-importance candidates,
	// ready for weighting and merge into the edge set.
	Accepted []types.RelationCandidate

	// AuditOnly holds medium-importance candidates, recorded in the
	// artifact but excluded from the active graph.
	AuditOnly []types.RelationCandidate

	// PairsConsidered is how many candidate pairs survived the adjacency
	// heuristics and the existing-pair filter.
	PairsConsidered int

	// Proposed counts raw candidates returned across all batches.
	Proposed int

	// Warnings lists batch-level failures; each failed batch contributed
	// zero candidates.
	Warnings []string
}

// Inferrer scores missing pairs through the shared proposer contract.
type Inferrer struct {
	Proposer  proposer.Proposer
	BatchSize int
	Workers   int
	MaxPairs  int
}

// Infer computes the bounded set of absent ordered pairs under the
// grade/domain adjacency heuristics, submits them in batches through a
// bounded worker pool, and gates results by importance. A cost-ceiling
// error aborts; any other proposer failure is reported as a warning.
func (inf *Inferrer) Infer(ctx context.Context, nodes []types.StandardNode, edges []types.RelationEdge) (Result, error) {
	maxPairs := inf.MaxPairs
	if maxPairs <= 0 {
		maxPairs = defaultMaxPairs
	}

	pairs := CandidatePairs(nodes, edges, maxPairs)
	result := Result{PairsConsidered: len(pairs)}
	if len(pairs) == 0 {
		return result, nil
	}

	batchSize := inf.BatchSize
	if batchSize <= 0 {
		batchSize = 50
	}
	var batches [][]proposer.Pair
	for start := 0; start < len(pairs); start += batchSize {
		end := start + batchSize
		if end > len(pairs) {
			end = len(pairs)
		}
		batches = append(batches, pairs[start:end])
	}

	workers := inf.Workers
	if workers <= 0 {
		workers = defaultWorkers
	}

	type batchResult struct {
		raws []proposer.RawCandidate
		err  error
		idx  int
	}

	sem := make(chan struct{}, workers)
	ch := make(chan batchResult, len(batches))
	var wg sync.WaitGroup

	for i, batch := range batches {
		wg.Add(1)
		go func(idx int, batch []proposer.Pair) {
			defer wg.Done()
			sem <- struct{}{}
			defer func() { <-sem }()

			raws, err := inf.Proposer.ProposeRelations(ctx, proposer.Request{Pairs: batch})
			ch <- batchResult{raws: raws, err: err, idx: idx}
		}(i, batch)
	}

	go func() {
		wg.Wait()
		close(ch)
	}()

	var raws []proposer.RawCandidate
	var ceilingErr error
	for br := range ch {
		if br.err != nil {
			if errors.Is(br.err, proposer.ErrCostCeiling) {
				ceilingErr = br.err
				continue
			}
			result.Warnings = append(result.Warnings,
				fmt.Sprintf("inference batch %d failed: %v", br.idx, br.err))
			continue
		}
		raws = append(raws, br.raws...)
	}
	if ceilingErr != nil {
		return Result{}, ceilingErr
	}

	result.Proposed = len(raws)

	normalized, _ := relation.Normalize(raws, OriginInferred)
	for _, c := range normalized {
		switch c.Importance {
		case types.ImportanceCritical, types.ImportanceHigh:
			result.Accepted = append(result.Accepted, c)
		default:
			// Unranked inferred candidates are treated as medium.
			result.AuditOnly = append(result.AuditOnly, c)
		}
	}

	sortCandidates(result.Accepted)
	sortCandidates(result.AuditOnly)
	return result, nil
}

// CandidatePairs returns ordered pairs not already present as edges,
// restricted to pairs that share a domain across adjacent grade bands or
// a grade band across different domains. The result is bounded by
// maxPairs and deterministic for a given catalog.
func CandidatePairs(nodes []types.StandardNode, edges []types.RelationEdge, maxPairs int) []proposer.Pair {
	existing := make(map[string]bool, len(edges))
	for _, e := range edges {
		existing[e.PairKey()] = true
	}

	sorted := append([]types.StandardNode(nil), nodes...)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].Code < sorted[j].Code })

	bandRank := gradeBandRanks(sorted)

	var pairs []proposer.Pair
	add := func(a, b types.StandardNode) bool {
		if a.Code == b.Code || existing[a.Code+"->"+b.Code] {
			return true
		}
		pairs = append(pairs, proposer.Pair{
			SourceCode: a.Code,
			TargetCode: b.Code,
			Context:    a.Content + " / " + b.Content,
		})
		return len(pairs) < maxPairs
	}

	for i := range sorted {
		for j := range sorted {
			if i == j {
				continue
			}
			a, b := sorted[i], sorted[j]
			sameDomain := a.DomainID == b.DomainID
			adjacentBand := bandRank[b.GradeBandID]-bandRank[a.GradeBandID] == 1
			sameBand := a.GradeBandID == b.GradeBandID

			// Grade adjacency: same domain, next band up.
			// Domain adjacency: same band, different domain, source-first
			// ordering only so each unordered pair is scored once.
			if sameDomain && adjacentBand {
				if !add(a, b) {
					return pairs
				}
			} else if sameBand && !sameDomain && a.Code < b.Code {
				if !add(a, b) {
					return pairs
				}
			}
		}
	}

	return pairs
}

// gradeBandRanks assigns 0..n ranks to the distinct grade bands in
// ascending order, numerically when the IDs parse as integers.
func gradeBandRanks(nodes []types.StandardNode) map[string]int {
	set := make(map[string]bool)
	for _, n := range nodes {
		set[n.GradeBandID] = true
	}
	bands := make([]string, 0, len(set))
	for b := range set {
		bands = append(bands, b)
	}
	sort.Slice(bands, func(i, j int) bool {
		ni, erri := strconv.Atoi(bands[i])
		nj, errj := strconv.Atoi(bands[j])
		if erri == nil && errj == nil {
			return ni < nj
		}
		return bands[i] < bands[j]
	})

	ranks := make(map[string]int, len(bands))
	for i, b := range bands {
		ranks[b] = i
	}
	return ranks
}

func sortCandidates(cands []types.RelationCandidate) {
	sort.Slice(cands, func(i, j int) bool {
		if cands[i].SourceCode != cands[j].SourceCode {
			return cands[i].SourceCode < cands[j].SourceCode
		}
		return cands[i].TargetCode < cands[j].TargetCode
	})
}
