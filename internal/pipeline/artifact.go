// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package pipeline orchestrates the five refinement stages and persists
// one JSON artifact per stage. Artifacts are the only state shared
// between stages, so a run can resume from any stage whose predecessors
// have all written theirs.
package pipeline

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/ldm/standards-graph/internal/analyze"
	"github.com/ldm/standards-graph/internal/proposer"
	"github.com/ldm/standards-graph/internal/validate"
	"github.com/ldm/standards-graph/pkg/types"
)

// Stage identifies one pipeline stage.
type Stage string

const (
	StageExtract      Stage = "extract"
	StageRefine       Stage = "refine"
	StageInferMissing Stage = "infer_missing"
	StageValidate     Stage = "validate"
	StageReport       Stage = "report"
)

// Stages lists all stages in execution order.
var Stages = []Stage{StageExtract, StageRefine, StageInferMissing, StageValidate, StageReport}

// ParseStage converts a user-supplied stage name.
func ParseStage(s string) (Stage, error) {
	for _, stage := range Stages {
		if string(stage) == s {
			return stage, nil
		}
	}
	return "", fmt.Errorf("unknown stage %q (expected one of extract, refine, infer_missing, validate, report)", s)
}

// ErrMissingArtifact is returned when a resume requires an artifact that
// a prior run never wrote.
var ErrMissingArtifact = errors.New("pipeline artifact missing")

// Metadata is stamped on every artifact.
type Metadata struct {
	Stage              Stage          `json:"stage"`
	Timestamp          time.Time      `json:"timestamp"`
	WeightTableVersion string         `json:"weight_table_version"`
	Counts             map[string]int `json:"counts"`
	ConflictsResolved  int            `json:"conflicts_resolved"`
	CyclesFound        int            `json:"cycles_found"`
	Usage              proposer.Usage `json:"usage"`
}

// ExtractArtifact records normalized candidates from every extraction
// strategy.
type ExtractArtifact struct {
	Meta          Metadata                  `json:"metadata"`
	Candidates    []types.RelationCandidate `json:"candidates"`
	Dropped       int                       `json:"dropped"`
	FailedBatches int                       `json:"failed_batches"`
	Warnings      []string                  `json:"warnings,omitempty"`
}

// RefineArtifact records the deduplicated edge set.
type RefineArtifact struct {
	Meta          Metadata             `json:"metadata"`
	Edges         []types.RelationEdge `json:"edges"`
	CandidatesIn  int                  `json:"candidates_in"`
	Merged        int                  `json:"merged"`
	TypeConflicts int                  `json:"type_conflicts"`
	ConflictPairs []string             `json:"conflict_pairs,omitempty"`
}

// InferMissingArtifact records the edge set after merging accepted
// inferred candidates. Medium-importance candidates are preserved for
// audit but never enter Edges.
type InferMissingArtifact struct {
	Meta            Metadata                  `json:"metadata"`
	Edges           []types.RelationEdge      `json:"edges"`
	PairsConsidered int                       `json:"pairs_considered"`
	Accepted        []types.RelationCandidate `json:"accepted"`
	AuditOnly       []types.RelationCandidate `json:"audit_only,omitempty"`
	Warnings        []string                  `json:"warnings,omitempty"`
}

// ValidateArtifact records the final edge set and its cycle report.
type ValidateArtifact struct {
	Meta   Metadata             `json:"metadata"`
	Edges  []types.RelationEdge `json:"edges"`
	Cycles validate.CycleReport `json:"cycles"`
}

// ReportArtifact records coverage and quality metrics for the run.
type ReportArtifact struct {
	Meta   Metadata       `json:"metadata"`
	Report analyze.Report `json:"report"`
}

// Store reads and writes stage artifacts under one directory.
type Store struct {
	dir string
}

// NewStore returns a Store rooted at dir. The directory is created on
// first write.
func NewStore(dir string) *Store {
	return &Store{dir: dir}
}

// Path returns the artifact file path for a stage.
func (s *Store) Path(stage Stage) string {
	return filepath.Join(s.dir, string(stage)+".json")
}

// Exists reports whether the artifact for stage has been written.
func (s *Store) Exists(stage Stage) bool {
	_, err := os.Stat(s.Path(stage))
	return err == nil
}

func (s *Store) WriteExtract(a ExtractArtifact) error    { return s.write(StageExtract, a) }
func (s *Store) WriteRefine(a RefineArtifact) error      { return s.write(StageRefine, a) }
func (s *Store) WriteInfer(a InferMissingArtifact) error { return s.write(StageInferMissing, a) }
func (s *Store) WriteValidate(a ValidateArtifact) error  { return s.write(StageValidate, a) }
func (s *Store) WriteReport(a ReportArtifact) error      { return s.write(StageReport, a) }

func (s *Store) ReadExtract() (ExtractArtifact, error) {
	var a ExtractArtifact
	err := s.read(StageExtract, &a)
	return a, err
}

func (s *Store) ReadRefine() (RefineArtifact, error) {
	var a RefineArtifact
	err := s.read(StageRefine, &a)
	return a, err
}

func (s *Store) ReadInfer() (InferMissingArtifact, error) {
	var a InferMissingArtifact
	err := s.read(StageInferMissing, &a)
	return a, err
}

func (s *Store) ReadValidate() (ValidateArtifact, error) {
	var a ValidateArtifact
	err := s.read(StageValidate, &a)
	return a, err
}

func (s *Store) ReadReport() (ReportArtifact, error) {
	var a ReportArtifact
	err := s.read(StageReport, &a)
	return a, err
}

// write marshals v and replaces the stage artifact atomically, via a
// temp file in the same directory.
func (s *Store) write(stage Stage, v any) error {
	if err := os.MkdirAll(s.dir, 0o755); err != nil {
		return fmt.Errorf("creating artifacts directory: %w", err)
	}

	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("marshaling %s artifact: %w", stage, err)
	}

	tmp, err := os.CreateTemp(s.dir, string(stage)+"-*.tmp")
	if err != nil {
		return fmt.Errorf("creating temp artifact: %w", err)
	}
	tmpName := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("writing %s artifact: %w", stage, err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("closing %s artifact: %w", stage, err)
	}

	if err := os.Rename(tmpName, s.Path(stage)); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("replacing %s artifact: %w", stage, err)
	}
	return nil
}

func (s *Store) read(stage Stage, v any) error {
	data, err := os.ReadFile(s.Path(stage))
	if err != nil {
		if os.IsNotExist(err) {
			return fmt.Errorf("stage %s: %w", stage, ErrMissingArtifact)
		}
		return fmt.Errorf("reading %s artifact: %w", stage, err)
	}
	if err := json.Unmarshal(data, v); err != nil {
		return fmt.Errorf("parsing %s artifact: %w", stage, err)
	}
	return nil
}
