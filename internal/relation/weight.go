// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package relation

import (
	"math"

	"github.com/ldm/standards-graph/pkg/types"
)

// WeightTableVersion identifies the base-weight calibration below. It is
// recorded in artifact metadata so a run's weights are reproducible.
// Changing the table is a deliberate calibration act and must bump this.
const WeightTableVersion = "v1"

// baseWeights is the fixed per-kind base weight table.
var baseWeights = map[types.RelationKind]float64{
	types.KindPrerequisite:     1.0,
	types.KindGradeProgression: 0.8,
	types.KindHorizontal:       0.6,
	types.KindSimilar:          0.5,
	types.KindDomainBridge:     0.4,
}

// BaseWeight returns the base weight for kind, or 0.5 for a kind missing
// from the table.
func BaseWeight(kind types.RelationKind) float64 {
	if w, ok := baseWeights[kind]; ok {
		return w
	}
	return 0.5
}

// ComposeWeight combines a candidate's kind base weight with its strength:
// base * clamp(strength, 0, 1), clamped to [0,1] and rounded to three
// decimal places. Pure function over one candidate.
func ComposeWeight(c types.RelationCandidate) float64 {
	w := BaseWeight(c.Kind) * clamp01(c.Strength)
	return round3(clamp01(w))
}

func round3(v float64) float64 {
	return math.Round(v*1000) / 1000
}
