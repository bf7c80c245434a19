// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package relation canonicalizes proposer candidates, composes edge
// weights, and collapses duplicate candidates into accepted edges.
package relation

import (
	"fmt"

	"github.com/ldm/standards-graph/internal/proposer"
	"github.com/ldm/standards-graph/pkg/types"
)

// kindAliases folds legacy and refined kind names emitted by older
// proposer prompts into the five-kind enumeration.
var kindAliases = map[string]types.RelationKind{
	"similar_to":             types.KindSimilar,
	"prerequisite_explicit":  types.KindPrerequisite,
	"prerequisite_implicit":  types.KindPrerequisite,
	"similar_conceptual":     types.KindSimilar,
	"similar_procedural":     types.KindSimilar,
	"bridge":                 types.KindDomainBridge,
	"progression":            types.KindGradeProgression,
}

// NormalizeSummary counts what the normalizer accepted, defaulted, and
// dropped from one batch.
type NormalizeSummary struct {
	Accepted          int
	DroppedBadCode    int
	DroppedSelfLoop   int
	DefaultedKind     int
	DefaultedStrength int

	// Warnings holds one human-readable line per defaulted kind, for the
	// stage log.
	Warnings []string
}

// Merge folds other into s.
func (s *NormalizeSummary) Merge(other NormalizeSummary) {
	s.Accepted += other.Accepted
	s.DroppedBadCode += other.DroppedBadCode
	s.DroppedSelfLoop += other.DroppedSelfLoop
	s.DefaultedKind += other.DefaultedKind
	s.DefaultedStrength += other.DefaultedStrength
	s.Warnings = append(s.Warnings, other.Warnings...)
}

// Dropped returns the total number of rejected candidates.
func (s NormalizeSummary) Dropped() int {
	return s.DroppedBadCode + s.DroppedSelfLoop
}

// Normalize canonicalizes raw proposer output into RelationCandidates.
// Candidates with an empty, self-referencing, or syntactically invalid
// code pair are dropped and counted. An unrecognized kind defaults to
// horizontal with a warning; an absent strength defaults to 1.0; strength
// is clamped to [0,1]. Nothing here is fatal.
func Normalize(raws []proposer.RawCandidate, origin string) ([]types.RelationCandidate, NormalizeSummary) {
	var out []types.RelationCandidate
	var summary NormalizeSummary

	for _, raw := range raws {
		if !types.ValidStandardCode(raw.SourceCode) || !types.ValidStandardCode(raw.TargetCode) {
			summary.DroppedBadCode++
			continue
		}
		if raw.SourceCode == raw.TargetCode {
			summary.DroppedSelfLoop++
			continue
		}

		kind := canonicalKind(raw.Kind)
		if kind == "" {
			kind = types.KindHorizontal
			summary.DefaultedKind++
			summary.Warnings = append(summary.Warnings,
				fmt.Sprintf("unrecognized relation kind %q for %s->%s, defaulting to horizontal",
					raw.Kind, raw.SourceCode, raw.TargetCode))
		}

		strength := 1.0
		if raw.Strength == nil {
			summary.DefaultedStrength++
		} else {
			strength = clamp01(*raw.Strength)
		}

		out = append(out, types.RelationCandidate{
			SourceCode: raw.SourceCode,
			TargetCode: raw.TargetCode,
			Kind:       kind,
			Strength:   strength,
			Reasoning:  raw.Reasoning,
			Origin:     origin,
			Importance: canonicalImportance(raw.Importance),
		})
		summary.Accepted++
	}

	return out, summary
}

// canonicalKind maps a raw kind string to the enum, resolving aliases.
// Returns "" for unrecognized kinds.
func canonicalKind(raw string) types.RelationKind {
	if k := types.RelationKind(raw); k.Valid() {
		return k
	}
	if k, ok := kindAliases[raw]; ok {
		return k
	}
	return ""
}

// canonicalImportance maps a raw importance string to the enum, or ""
// when absent or unrecognized.
func canonicalImportance(raw string) types.Importance {
	switch types.Importance(raw) {
	case types.ImportanceCritical:
		return types.ImportanceCritical
	case types.ImportanceHigh:
		return types.ImportanceHigh
	case types.ImportanceMedium:
		return types.ImportanceMedium
	}
	return ""
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
