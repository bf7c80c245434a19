// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

import "testing"

func TestValidStandardCode(t *testing.T) {
	tests := []struct {
		code string
		want bool
	}{
		{"2X01-01", true},
		{"9M12-34", true},
		{"0A00-00", true},
		{"", false},
		{"2x01-01", false},
		{"X01-01", false},
		{"2X1-01", false},
		{"2X01-1", false},
		{"2X01_01", false},
		{"2X01-011", false},
	}
	for _, tt := range tests {
		if got := ValidStandardCode(tt.code); got != tt.want {
			t.Errorf("ValidStandardCode(%q) = %v, want %v", tt.code, got, tt.want)
		}
	}
}

func TestNodeSeq(t *testing.T) {
	tests := []struct {
		code string
		want int
	}{
		{"2X01-01", 1},
		{"2X01-12", 12},
		{"nonsense", 0},
	}
	for _, tt := range tests {
		n := StandardNode{Code: tt.code}
		if got := n.Seq(); got != tt.want {
			t.Errorf("Seq(%q) = %d, want %d", tt.code, got, tt.want)
		}
	}
}

func TestRelationKindValid(t *testing.T) {
	for _, k := range []RelationKind{KindPrerequisite, KindSimilar, KindDomainBridge, KindGradeProgression, KindHorizontal} {
		if !k.Valid() {
			t.Errorf("%q.Valid() = false", k)
		}
	}
	if RelationKind("related").Valid() {
		t.Error(`"related".Valid() = true`)
	}
}
