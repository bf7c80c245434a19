// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package relation

import (
	"testing"

	"github.com/ldm/standards-graph/pkg/types"
)

func TestComposeWeight(t *testing.T) {
	tests := []struct {
		kind     types.RelationKind
		strength float64
		want     float64
	}{
		{types.KindPrerequisite, 1.0, 1.0},
		{types.KindPrerequisite, 0.9, 0.9},
		{types.KindGradeProgression, 0.5, 0.4},
		{types.KindHorizontal, 1.0, 0.6},
		{types.KindSimilar, 0.333, 0.167},
		{types.KindDomainBridge, 0.75, 0.3},
		{types.KindPrerequisite, 0.0, 0.0},
		// Out-of-range strength is clamped before composing.
		{types.KindPrerequisite, 1.5, 1.0},
		{types.KindSimilar, -0.2, 0.0},
	}

	for _, tt := range tests {
		c := types.RelationCandidate{Kind: tt.kind, Strength: tt.strength}
		got := ComposeWeight(c)
		if got != tt.want {
			t.Errorf("ComposeWeight(%s, %v) = %v, want %v", tt.kind, tt.strength, got, tt.want)
		}
		if got < 0 || got > 1 {
			t.Errorf("ComposeWeight(%s, %v) = %v, outside [0,1]", tt.kind, tt.strength, got)
		}
	}
}

func TestBaseWeightUnknownKind(t *testing.T) {
	if got := BaseWeight(types.RelationKind("mystery")); got != 0.5 {
		t.Errorf("BaseWeight(mystery) = %v, want 0.5", got)
	}
}
