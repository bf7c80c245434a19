// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package pipeline

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/ldm/standards-graph/internal/analyze"
	"github.com/ldm/standards-graph/internal/infer"
	"github.com/ldm/standards-graph/internal/proposer"
	"github.com/ldm/standards-graph/internal/relation"
	"github.com/ldm/standards-graph/internal/validate"
	"github.com/ldm/standards-graph/pkg/types"
)

// runExtract enumerates candidate pairs under every extraction strategy,
// scores them through the proposer, and writes the normalized candidate
// pool. A batch that fails after retries is counted and skipped; only
// the cost ceiling aborts the stage.
func (p *Pipeline) runExtract(ctx context.Context, w io.Writer) error {
	nodes, err := p.Nodes.Nodes(ctx)
	if err != nil {
		return fmt.Errorf("loading catalog: %w", err)
	}

	perGroup := p.Config.Pipeline.PairsPerGroup
	if perGroup <= 0 {
		perGroup = defaultPairsPerGroup
	}
	batchSize := proposer.BatchSize(p.Config.Proposer)

	var artifact ExtractArtifact
	var summary relation.NormalizeSummary

	for _, strat := range extractStrategies {
		pairs := strat.pairs(nodes, perGroup)
		fmt.Fprintf(w, "extract %s: %d pairs\n", strat.name, len(pairs))

		for start := 0; start < len(pairs); start += batchSize {
			end := start + batchSize
			if end > len(pairs) {
				end = len(pairs)
			}

			raws, err := p.Proposer.ProposeRelations(ctx, proposer.Request{
				Pairs:    pairs[start:end],
				KindHint: strat.hint,
			})
			if err != nil {
				if errors.Is(err, proposer.ErrCostCeiling) {
					return err
				}
				artifact.FailedBatches++
				artifact.Warnings = append(artifact.Warnings,
					fmt.Sprintf("%s batch at %d failed: %v", strat.name, start, err))
				fmt.Fprintf(w, "failed  %s batch at %d: %v\n", strat.name, start, err)
				continue
			}

			candidates, s := relation.Normalize(raws, strat.name)
			summary.Merge(s)
			artifact.Candidates = append(artifact.Candidates, candidates...)
		}
	}

	artifact.Meta = p.metadata(StageExtract)
	artifact.Dropped = summary.Dropped()
	artifact.Warnings = append(artifact.Warnings, summary.Warnings...)
	artifact.Meta.Counts = map[string]int{
		"candidates":     len(artifact.Candidates),
		"dropped":        artifact.Dropped,
		"failed_batches": artifact.FailedBatches,
	}

	if err := p.Artifacts.WriteExtract(artifact); err != nil {
		return err
	}

	fmt.Fprintf(w, "extract: %d candidates, %d dropped, %d failed batches\n",
		len(artifact.Candidates), artifact.Dropped, artifact.FailedBatches)
	return nil
}

// runRefine collapses the candidate pool into one edge per ordered pair.
func (p *Pipeline) runRefine(w io.Writer) error {
	extract, err := p.Artifacts.ReadExtract()
	if err != nil {
		return err
	}

	edges, summary := relation.Dedupe(extract.Candidates)

	artifact := RefineArtifact{
		Meta:          p.metadata(StageRefine),
		Edges:         edges,
		CandidatesIn:  summary.CandidatesIn,
		Merged:        summary.Merged,
		TypeConflicts: summary.TypeConflicts,
		ConflictPairs: summary.ConflictPairs,
	}
	artifact.Meta.Counts = map[string]int{
		"candidates_in": summary.CandidatesIn,
		"edges_out":     summary.EdgesOut,
		"merged":        summary.Merged,
	}
	artifact.Meta.ConflictsResolved = summary.TypeConflicts
	if err := p.Artifacts.WriteRefine(artifact); err != nil {
		return err
	}

	fmt.Fprintf(w, "refine: %d candidates -> %d edges, %d merged, %d type conflicts\n",
		summary.CandidatesIn, summary.EdgesOut, summary.Merged, summary.TypeConflicts)
	return nil
}

// runInferMissing proposes edges for absent pairs and merges the
// accepted ones into the edge set by re-running deduplication over the
// combined provenance.
func (p *Pipeline) runInferMissing(ctx context.Context, w io.Writer) error {
	refine, err := p.Artifacts.ReadRefine()
	if err != nil {
		return err
	}
	nodes, err := p.Nodes.Nodes(ctx)
	if err != nil {
		return fmt.Errorf("loading catalog: %w", err)
	}

	inferrer := &infer.Inferrer{
		Proposer:  p.Proposer,
		BatchSize: proposer.BatchSize(p.Config.Proposer),
		Workers:   p.Config.Proposer.MaxConcurrent,
		MaxPairs:  p.Config.Pipeline.MaxInferredPairs,
	}

	result, err := inferrer.Infer(ctx, nodes, refine.Edges)
	if err != nil {
		return err
	}

	candidates := flattenEdges(refine.Edges)
	candidates = append(candidates, result.Accepted...)
	edges, _ := relation.Dedupe(candidates)

	artifact := InferMissingArtifact{
		Meta:            p.metadata(StageInferMissing),
		Edges:           edges,
		PairsConsidered: result.PairsConsidered,
		Accepted:        result.Accepted,
		AuditOnly:       result.AuditOnly,
		Warnings:        result.Warnings,
	}
	artifact.Meta.Counts = map[string]int{
		"pairs_considered": result.PairsConsidered,
		"accepted":         len(result.Accepted),
		"audit_only":       len(result.AuditOnly),
		"edges":            len(edges),
	}
	if err := p.Artifacts.WriteInfer(artifact); err != nil {
		return err
	}

	fmt.Fprintf(w, "infer_missing: %d pairs considered, %d accepted, %d audit-only, %d edges\n",
		result.PairsConsidered, len(result.Accepted), len(result.AuditOnly), len(edges))
	return nil
}

// runValidate finds cycles among ordering edges.
func (p *Pipeline) runValidate(w io.Writer) error {
	inferred, err := p.Artifacts.ReadInfer()
	if err != nil {
		return err
	}

	cycles := validate.FindCycles(inferred.Edges)

	artifact := ValidateArtifact{
		Meta:   p.metadata(StageValidate),
		Edges:  inferred.Edges,
		Cycles: cycles,
	}
	artifact.Meta.Counts = map[string]int{"edges": len(inferred.Edges)}
	artifact.Meta.CyclesFound = cycles.CycleCount()
	if err := p.Artifacts.WriteValidate(artifact); err != nil {
		return err
	}

	if cycles.IsDAG {
		fmt.Fprintf(w, "validate: %d edges, no cycles\n", len(inferred.Edges))
	} else {
		fmt.Fprintf(w, "validate: %d edges, %d cycles found\n",
			len(inferred.Edges), cycles.CycleCount())
	}
	return nil
}

// runReport computes coverage and quality metrics over the validated
// edge set.
func (p *Pipeline) runReport(ctx context.Context, w io.Writer) error {
	validated, err := p.Artifacts.ReadValidate()
	if err != nil {
		return err
	}
	nodes, err := p.Nodes.Nodes(ctx)
	if err != nil {
		return fmt.Errorf("loading catalog: %w", err)
	}

	report := analyze.Analyze(nodes, validated.Edges, validated.Cycles)

	artifact := ReportArtifact{
		Meta:   p.metadata(StageReport),
		Report: report,
	}
	artifact.Meta.Counts = map[string]int{
		"nodes": report.NodeCount,
		"edges": report.EdgeCount,
	}
	artifact.Meta.CyclesFound = validated.Cycles.CycleCount()
	if err := p.Artifacts.WriteReport(artifact); err != nil {
		return err
	}

	fmt.Fprintf(w, "report: %d nodes, %d edges, coverage %.3f, quality %.3f\n",
		report.NodeCount, report.EdgeCount, report.NodeCoverage, report.QualityScore)
	return nil
}

// flattenEdges reconstructs the candidate pool from edge provenance so
// inferred candidates merge through the same deduplication path.
func flattenEdges(edges []types.RelationEdge) []types.RelationCandidate {
	var candidates []types.RelationCandidate
	for _, e := range edges {
		for _, prov := range e.Provenance {
			candidates = append(candidates, types.RelationCandidate{
				SourceCode: e.SourceCode,
				TargetCode: e.TargetCode,
				Kind:       prov.Kind,
				Strength:   prov.Strength,
				Reasoning:  prov.Reasoning,
				Origin:     prov.Origin,
			})
		}
	}
	return candidates
}
