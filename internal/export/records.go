// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package export

import (
	"encoding/json"
	"fmt"
	"io"
	"sort"

	"github.com/ldm/standards-graph/pkg/types"
)

// GraphRecord is the flat JSON export shape.
type GraphRecord struct {
	Nodes []types.StandardNode `json:"nodes"`
	Edges []types.RelationEdge `json:"edges"`
}

// WriteJSON emits the graph as a single JSON document with nodes ordered
// by code and edges by pair key, so identical graphs serialize
// identically.
func WriteJSON(w io.Writer, nodes []types.StandardNode, edges []types.RelationEdge) error {
	record := GraphRecord{
		Nodes: append([]types.StandardNode(nil), nodes...),
		Edges: append([]types.RelationEdge(nil), edges...),
	}

	sort.Slice(record.Nodes, func(i, j int) bool {
		return record.Nodes[i].Code < record.Nodes[j].Code
	})
	sort.Slice(record.Edges, func(i, j int) bool {
		return record.Edges[i].PairKey() < record.Edges[j].PairKey()
	})

	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(record); err != nil {
		return fmt.Errorf("export: encoding graph: %w", err)
	}
	return nil
}
