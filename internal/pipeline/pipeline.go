// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package pipeline

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/ldm/standards-graph/internal/logging"
	"github.com/ldm/standards-graph/internal/proposer"
	"github.com/ldm/standards-graph/internal/relation"
	"github.com/ldm/standards-graph/pkg/types"
)

// NodeSource supplies the standards catalog for a run.
type NodeSource interface {
	Nodes(ctx context.Context) ([]types.StandardNode, error)
}

// UsageFunc reports cumulative proposer consumption, typically bound to
// a Meter.
type UsageFunc func() proposer.Usage

// Pipeline runs the refinement stages against one catalog.
type Pipeline struct {
	Nodes     NodeSource
	Proposer  proposer.Proposer
	Artifacts *Store
	Config    types.Config
	Log       *logging.Logger
	Usage     UsageFunc
}

// RunOptions selects which stages execute.
type RunOptions struct {
	// ResumeFrom names the first stage to execute. Empty means run the
	// whole pipeline from extract.
	ResumeFrom Stage

	// StageOnly stops after the ResumeFrom stage instead of continuing
	// to report.
	StageOnly bool
}

// Run executes the pipeline, writing one artifact per completed stage
// and a progress line per stage to w. Resuming requires every prior
// stage's artifact; a missing one fails immediately with
// ErrMissingArtifact rather than silently re-running earlier stages.
func (p *Pipeline) Run(ctx context.Context, opts RunOptions, w io.Writer) error {
	start := 0
	if opts.ResumeFrom != "" {
		found := false
		for i, stage := range Stages {
			if stage == opts.ResumeFrom {
				start, found = i, true
				break
			}
		}
		if !found {
			return fmt.Errorf("unknown stage %q", opts.ResumeFrom)
		}
		for _, stage := range Stages[:start] {
			if !p.Artifacts.Exists(stage) {
				return fmt.Errorf("resume from %s: stage %s: %w", opts.ResumeFrom, stage, ErrMissingArtifact)
			}
		}
	}

	for i := start; i < len(Stages); i++ {
		if opts.StageOnly && i > start {
			break
		}
		if err := ctx.Err(); err != nil {
			return err
		}

		stage := Stages[i]
		began := time.Now()
		p.log().Info("stage starting", "stage", string(stage))

		if err := p.runStage(ctx, stage, w); err != nil {
			p.log().Error("stage failed", "stage", string(stage), "error", err.Error())
			return fmt.Errorf("stage %s: %w", stage, err)
		}

		p.log().Info("stage complete", "stage", string(stage),
			"elapsed", time.Since(began).String())
	}

	return nil
}

func (p *Pipeline) runStage(ctx context.Context, stage Stage, w io.Writer) error {
	switch stage {
	case StageExtract:
		return p.runExtract(ctx, w)
	case StageRefine:
		return p.runRefine(w)
	case StageInferMissing:
		return p.runInferMissing(ctx, w)
	case StageValidate:
		return p.runValidate(w)
	case StageReport:
		return p.runReport(ctx, w)
	default:
		return fmt.Errorf("unknown stage %q", stage)
	}
}

func (p *Pipeline) log() *logging.Logger {
	if p.Log != nil {
		return p.Log
	}
	return logging.Nop()
}

func (p *Pipeline) metadata(stage Stage) Metadata {
	m := Metadata{
		Stage:              stage,
		Timestamp:          time.Now().UTC(),
		WeightTableVersion: relation.WeightTableVersion,
	}
	if p.Usage != nil {
		m.Usage = p.Usage()
	}
	return m
}
