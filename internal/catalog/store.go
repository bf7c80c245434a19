// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package catalog persists the standards catalog in SQLite and loads it
// for pipeline runs. Node identity is the standard code; re-importing a
// code replaces its row.
package catalog

import (
	"context"
	"database/sql"
	"fmt"
	"io"
	"os"
	"path/filepath"

	_ "github.com/mattn/go-sqlite3"
	"go.yaml.in/yaml/v3"

	"github.com/ldm/standards-graph/pkg/types"
)

// Store manages the standards catalog SQLite database.
type Store struct {
	db *sql.DB
}

// Open opens or creates the catalog database at dbPath, creating parent
// directories and the schema as needed.
func Open(dbPath string) (*Store, error) {
	if dir := filepath.Dir(dbPath); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("creating catalog directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite3", dbPath+"?_journal_mode=WAL&_foreign_keys=on")
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	s := &Store{db: db}
	if err := s.createSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("creating schema: %w", err)
	}

	return s, nil
}

// Close releases the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) createSchema() error {
	statements := []string{
		`CREATE TABLE IF NOT EXISTS standards (
			code TEXT PRIMARY KEY,
			content TEXT NOT NULL,
			domain_id TEXT NOT NULL,
			grade_band_id TEXT NOT NULL,
			domain_name TEXT,
			grade_band_name TEXT
		)`,
		`CREATE INDEX IF NOT EXISTS idx_standards_domain ON standards(domain_id)`,
		`CREATE INDEX IF NOT EXISTS idx_standards_grade_band ON standards(grade_band_id)`,
	}

	for _, stmt := range statements {
		if _, err := s.db.Exec(stmt); err != nil {
			return fmt.Errorf("executing schema statement: %w", err)
		}
	}

	return nil
}

// ImportSummary holds counts from a catalog import run.
type ImportSummary struct {
	Imported int
	Rejected int
}

// Total returns the number of nodes processed.
func (s ImportSummary) Total() int {
	return s.Imported + s.Rejected
}

// nodesFile is the YAML shape accepted by ImportYAML.
type nodesFile struct {
	Nodes []types.StandardNode `yaml:"nodes"`
}

// ImportYAML reads a nodes file and upserts every valid node. Nodes with
// malformed codes or empty content are rejected and reported on w.
func (s *Store) ImportYAML(ctx context.Context, path string, w io.Writer) (ImportSummary, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return ImportSummary{}, fmt.Errorf("reading nodes file %s: %w", path, err)
	}

	var file nodesFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return ImportSummary{}, fmt.Errorf("parsing nodes file %s: %w", path, err)
	}

	var summary ImportSummary
	var valid []types.StandardNode
	for _, node := range file.Nodes {
		if !types.ValidStandardCode(node.Code) {
			fmt.Fprintf(w, "rejected %q: malformed code\n", node.Code)
			summary.Rejected++
			continue
		}
		if node.Content == "" {
			fmt.Fprintf(w, "rejected %s: empty content\n", node.Code)
			summary.Rejected++
			continue
		}
		valid = append(valid, node)
	}

	if err := s.InsertNodes(ctx, valid); err != nil {
		return summary, err
	}
	summary.Imported = len(valid)

	fmt.Fprintf(w, "\nimported: %d, rejected: %d\n", summary.Imported, summary.Rejected)
	return summary, nil
}

// InsertNodes upserts nodes in a single transaction.
func (s *Store) InsertNodes(ctx context.Context, nodes []types.StandardNode) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx,
		`INSERT INTO standards (code, content, domain_id, grade_band_id, domain_name, grade_band_name)
		 VALUES (?, ?, ?, ?, ?, ?)
		 ON CONFLICT(code) DO UPDATE SET
			content=excluded.content, domain_id=excluded.domain_id,
			grade_band_id=excluded.grade_band_id, domain_name=excluded.domain_name,
			grade_band_name=excluded.grade_band_name`)
	if err != nil {
		return fmt.Errorf("preparing insert: %w", err)
	}
	defer stmt.Close()

	for _, node := range nodes {
		_, err := stmt.ExecContext(ctx,
			node.Code, node.Content, node.DomainID, node.GradeBandID,
			node.DomainName, node.GradeBandName,
		)
		if err != nil {
			return fmt.Errorf("inserting node %s: %w", node.Code, err)
		}
	}

	return tx.Commit()
}

// Nodes returns all standards ordered by code.
func (s *Store) Nodes(ctx context.Context) ([]types.StandardNode, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT code, content, domain_id, grade_band_id, domain_name, grade_band_name
		 FROM standards ORDER BY code`)
	if err != nil {
		return nil, fmt.Errorf("querying standards: %w", err)
	}
	defer rows.Close()

	var nodes []types.StandardNode
	for rows.Next() {
		var n types.StandardNode
		if err := rows.Scan(&n.Code, &n.Content, &n.DomainID, &n.GradeBandID,
			&n.DomainName, &n.GradeBandName); err != nil {
			return nil, fmt.Errorf("scanning standard: %w", err)
		}
		nodes = append(nodes, n)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating standards: %w", err)
	}

	return nodes, nil
}

// Counts summarizes the catalog for status output.
type Counts struct {
	Nodes      int
	Domains    int
	GradeBands int
}

// Counts reports catalog totals.
func (s *Store) Counts(ctx context.Context) (Counts, error) {
	var c Counts
	err := s.db.QueryRowContext(ctx,
		`SELECT count(*), count(DISTINCT domain_id), count(DISTINCT grade_band_id) FROM standards`,
	).Scan(&c.Nodes, &c.Domains, &c.GradeBands)
	if err != nil {
		return Counts{}, fmt.Errorf("counting standards: %w", err)
	}
	return c, nil
}
