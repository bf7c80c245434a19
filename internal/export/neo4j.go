// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package export publishes a validated graph to downstream consumers,
// either as flat JSON records or into Neo4j.
package export

import (
	"context"
	"fmt"
	"strings"

	"github.com/neo4j/neo4j-go-driver/v5/neo4j"

	"github.com/ldm/standards-graph/internal/logging"
	"github.com/ldm/standards-graph/pkg/types"
)

// relTypes maps relation kinds to Neo4j relationship types. Cypher does
// not parameterize relationship types, so edges are written per kind
// with the literal spelled into the query.
var relTypes = map[types.RelationKind]string{
	types.KindPrerequisite:     "PREREQUISITE",
	types.KindSimilar:          "SIMILAR",
	types.KindDomainBridge:     "DOMAIN_BRIDGE",
	types.KindGradeProgression: "GRADE_PROGRESSION",
	types.KindHorizontal:       "HORIZONTAL",
}

// Exporter writes standards and relations into a Neo4j database.
type Exporter struct {
	driver    neo4j.DriverWithContext
	database  string
	batchSize int
	log       *logging.Logger
}

// NewExporter connects to Neo4j and verifies connectivity before
// returning.
func NewExporter(ctx context.Context, cfg types.ExportConfig, log *logging.Logger) (*Exporter, error) {
	uri := strings.TrimSpace(cfg.Neo4jURI)
	if uri == "" {
		return nil, fmt.Errorf("export: neo4j uri required")
	}

	user := strings.TrimSpace(cfg.Neo4jUser)
	if user == "" {
		user = "neo4j"
	}

	driver, err := neo4j.NewDriverWithContext(uri, neo4j.BasicAuth(user, cfg.Neo4jPassword, ""))
	if err != nil {
		return nil, fmt.Errorf("export: init driver: %w", err)
	}

	if err := driver.VerifyConnectivity(ctx); err != nil {
		_ = driver.Close(ctx)
		return nil, fmt.Errorf("export: verify connectivity: %w", err)
	}

	batchSize := cfg.BatchSize
	if batchSize <= 0 {
		batchSize = 500
	}
	if log == nil {
		log = logging.Nop()
	}

	return &Exporter{
		driver:    driver,
		database:  cfg.Neo4jDatabase,
		batchSize: batchSize,
		log:       log.With("component", "exporter"),
	}, nil
}

// Close releases the driver.
func (e *Exporter) Close(ctx context.Context) error {
	if e == nil || e.driver == nil {
		return nil
	}
	err := e.driver.Close(ctx)
	e.driver = nil
	return err
}

// Export merges all nodes and edges. Re-exporting the same graph is a
// no-op apart from property refreshes: identity is the standard code for
// nodes and (source, target, type) for relationships.
func (e *Exporter) Export(ctx context.Context, nodes []types.StandardNode, edges []types.RelationEdge) error {
	session := e.driver.NewSession(ctx, neo4j.SessionConfig{DatabaseName: e.database})
	defer session.Close(ctx)

	if err := e.ensureConstraint(ctx, session); err != nil {
		return err
	}
	if err := e.writeNodes(ctx, session, nodes); err != nil {
		return err
	}
	if err := e.writeEdges(ctx, session, edges); err != nil {
		return err
	}

	e.log.Info("export complete", "nodes", len(nodes), "edges", len(edges))
	return nil
}

func (e *Exporter) ensureConstraint(ctx context.Context, session neo4j.SessionWithContext) error {
	_, err := session.ExecuteWrite(ctx, func(tx neo4j.ManagedTransaction) (any, error) {
		return tx.Run(ctx,
			`CREATE CONSTRAINT standard_code IF NOT EXISTS
			 FOR (s:Standard) REQUIRE s.code IS UNIQUE`, nil)
	})
	if err != nil {
		return fmt.Errorf("export: creating constraint: %w", err)
	}
	return nil
}

func (e *Exporter) writeNodes(ctx context.Context, session neo4j.SessionWithContext, nodes []types.StandardNode) error {
	for start := 0; start < len(nodes); start += e.batchSize {
		end := start + e.batchSize
		if end > len(nodes) {
			end = len(nodes)
		}

		batch := make([]map[string]any, 0, end-start)
		for _, n := range nodes[start:end] {
			batch = append(batch, map[string]any{
				"code":            n.Code,
				"content":         n.Content,
				"domain_id":       n.DomainID,
				"grade_band_id":   n.GradeBandID,
				"domain_name":     n.DomainName,
				"grade_band_name": n.GradeBandName,
			})
		}

		_, err := session.ExecuteWrite(ctx, func(tx neo4j.ManagedTransaction) (any, error) {
			return tx.Run(ctx,
				`UNWIND $batch AS row
				 MERGE (s:Standard {code: row.code})
				 SET s.content = row.content,
				     s.domain_id = row.domain_id,
				     s.grade_band_id = row.grade_band_id,
				     s.domain_name = row.domain_name,
				     s.grade_band_name = row.grade_band_name`,
				map[string]any{"batch": batch})
		})
		if err != nil {
			return fmt.Errorf("export: writing nodes: %w", err)
		}
	}
	return nil
}

func (e *Exporter) writeEdges(ctx context.Context, session neo4j.SessionWithContext, edges []types.RelationEdge) error {
	byKind := make(map[types.RelationKind][]types.RelationEdge)
	for _, edge := range edges {
		byKind[edge.Kind] = append(byKind[edge.Kind], edge)
	}

	for kind, relType := range relTypes {
		kindEdges := byKind[kind]
		for start := 0; start < len(kindEdges); start += e.batchSize {
			end := start + e.batchSize
			if end > len(kindEdges) {
				end = len(kindEdges)
			}

			batch := make([]map[string]any, 0, end-start)
			for _, edge := range kindEdges[start:end] {
				batch = append(batch, map[string]any{
					"source": edge.SourceCode,
					"target": edge.TargetCode,
					"weight": edge.Weight,
				})
			}

			query := fmt.Sprintf(
				`UNWIND $batch AS row
				 MATCH (a:Standard {code: row.source})
				 MATCH (b:Standard {code: row.target})
				 MERGE (a)-[r:%s]->(b)
				 SET r.weight = row.weight`, relType)

			_, err := session.ExecuteWrite(ctx, func(tx neo4j.ManagedTransaction) (any, error) {
				return tx.Run(ctx, query, map[string]any{"batch": batch})
			})
			if err != nil {
				return fmt.Errorf("export: writing %s edges: %w", relType, err)
			}
		}
	}
	return nil
}
