// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package export

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/ldm/standards-graph/pkg/types"
)

func TestWriteJSONDeterministic(t *testing.T) {
	nodes := []types.StandardNode{
		{Code: "4X01-01", Content: "add within 1000", DomainID: "01", GradeBandID: "4"},
		{Code: "2X01-01", Content: "count to 100", DomainID: "01", GradeBandID: "2"},
	}
	edges := []types.RelationEdge{
		{SourceCode: "2X01-01", TargetCode: "4X01-01", Kind: types.KindPrerequisite, Weight: 0.9},
		{SourceCode: "2X01-01", TargetCode: "2X02-01", Kind: types.KindDomainBridge, Weight: 0.4},
	}

	var a, b bytes.Buffer
	if err := WriteJSON(&a, nodes, edges); err != nil {
		t.Fatalf("WriteJSON: %v", err)
	}

	// Reversed input order serializes identically.
	reversedNodes := []types.StandardNode{nodes[1], nodes[0]}
	reversedEdges := []types.RelationEdge{edges[1], edges[0]}
	if err := WriteJSON(&b, reversedNodes, reversedEdges); err != nil {
		t.Fatalf("WriteJSON: %v", err)
	}

	if a.String() != b.String() {
		t.Errorf("input order changed the serialization:\n%s\n%s", a.String(), b.String())
	}
}

func TestWriteJSONShape(t *testing.T) {
	nodes := []types.StandardNode{
		{Code: "2X01-01", Content: "count to 100", DomainID: "01", GradeBandID: "2"},
	}
	edges := []types.RelationEdge{
		{
			SourceCode: "2X01-01",
			TargetCode: "4X01-01",
			Kind:       types.KindPrerequisite,
			Weight:     0.9,
			Provenance: []types.ProvenanceEntry{
				{Origin: "domain_prerequisites", Kind: types.KindPrerequisite, Strength: 0.9},
			},
		},
	}

	var buf bytes.Buffer
	if err := WriteJSON(&buf, nodes, edges); err != nil {
		t.Fatalf("WriteJSON: %v", err)
	}

	var record GraphRecord
	if err := json.Unmarshal(buf.Bytes(), &record); err != nil {
		t.Fatalf("round trip: %v", err)
	}
	if len(record.Nodes) != 1 || len(record.Edges) != 1 {
		t.Fatalf("record = %d nodes / %d edges", len(record.Nodes), len(record.Edges))
	}
	if record.Edges[0].Weight != 0.9 {
		t.Errorf("Weight = %v, want 0.9", record.Edges[0].Weight)
	}
	if len(record.Edges[0].Provenance) != 1 {
		t.Errorf("Provenance lost in serialization")
	}
}

func TestWriteJSONEmptyGraph(t *testing.T) {
	var buf bytes.Buffer
	if err := WriteJSON(&buf, nil, nil); err != nil {
		t.Fatalf("WriteJSON: %v", err)
	}

	var record GraphRecord
	if err := json.Unmarshal(buf.Bytes(), &record); err != nil {
		t.Fatalf("round trip: %v", err)
	}
	if len(record.Nodes) != 0 || len(record.Edges) != 0 {
		t.Errorf("record not empty: %+v", record)
	}
}
