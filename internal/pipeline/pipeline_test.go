// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package pipeline

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"

	"github.com/ldm/standards-graph/internal/proposer"
	"github.com/ldm/standards-graph/pkg/types"
)

// memNodes is an in-memory NodeSource.
type memNodes struct {
	nodes []types.StandardNode
}

func (m *memNodes) Nodes(_ context.Context) ([]types.StandardNode, error) {
	return m.nodes, nil
}

// echoProposer proposes one prerequisite candidate per pair.
type echoProposer struct {
	err error

	mu    sync.Mutex
	calls int
}

func (e *echoProposer) ProposeRelations(_ context.Context, req proposer.Request) ([]proposer.RawCandidate, error) {
	e.mu.Lock()
	e.calls++
	e.mu.Unlock()

	if e.err != nil {
		return nil, e.err
	}

	strength := 0.9
	var raws []proposer.RawCandidate
	for _, p := range req.Pairs {
		raws = append(raws, proposer.RawCandidate{
			SourceCode: p.SourceCode,
			TargetCode: p.TargetCode,
			Kind:       "prerequisite",
			Strength:   &strength,
			Importance: "high",
		})
	}
	return raws, nil
}

func pipelineNodes() []types.StandardNode {
	return []types.StandardNode{
		{Code: "2X01-01", Content: "count to 100", DomainID: "01", GradeBandID: "2"},
		{Code: "4X01-01", Content: "add within 1000", DomainID: "01", GradeBandID: "4"},
		{Code: "2X02-01", Content: "sort shapes", DomainID: "02", GradeBandID: "2"},
		{Code: "4X02-01", Content: "measure angles", DomainID: "02", GradeBandID: "4"},
	}
}

func testPipeline(t *testing.T, prop proposer.Proposer) *Pipeline {
	t.Helper()
	return &Pipeline{
		Nodes:     &memNodes{nodes: pipelineNodes()},
		Proposer:  prop,
		Artifacts: NewStore(t.TempDir()),
		Config: types.Config{
			Pipeline: types.PipelineConfig{MaxInferredPairs: 50, PairsPerGroup: 10},
			Proposer: types.ProposerConfig{BatchSize: 10, MaxConcurrent: 2},
		},
	}
}

func TestRunWritesAllArtifacts(t *testing.T) {
	p := testPipeline(t, &echoProposer{})

	var out bytes.Buffer
	if err := p.Run(context.Background(), RunOptions{}, &out); err != nil {
		t.Fatalf("Run: %v", err)
	}

	for _, stage := range Stages {
		if !p.Artifacts.Exists(stage) {
			t.Errorf("artifact for stage %s not written", stage)
		}
	}

	report, err := p.Artifacts.ReadReport()
	if err != nil {
		t.Fatalf("ReadReport: %v", err)
	}
	if report.Report.NodeCount != 4 {
		t.Errorf("NodeCount = %d, want 4", report.Report.NodeCount)
	}
	if report.Report.EdgeCount == 0 {
		t.Error("EdgeCount = 0, want edges from the echo proposer")
	}
	if report.Meta.WeightTableVersion == "" {
		t.Error("artifact missing weight table version")
	}
}

func TestRunResumeMissingArtifactFails(t *testing.T) {
	p := testPipeline(t, &echoProposer{})

	var out bytes.Buffer
	err := p.Run(context.Background(), RunOptions{ResumeFrom: StageValidate}, &out)
	if !errors.Is(err, ErrMissingArtifact) {
		t.Fatalf("error = %v, want ErrMissingArtifact", err)
	}
}

func TestRunResumeFromValidate(t *testing.T) {
	p := testPipeline(t, &echoProposer{})
	ctx := context.Background()

	var out bytes.Buffer
	if err := p.Run(ctx, RunOptions{}, &out); err != nil {
		t.Fatalf("initial Run: %v", err)
	}

	before, err := p.Artifacts.ReadReport()
	if err != nil {
		t.Fatalf("ReadReport: %v", err)
	}

	// Resume without touching extract/refine/infer.
	resumed := &echoProposer{}
	p.Proposer = resumed
	if err := p.Run(ctx, RunOptions{ResumeFrom: StageValidate}, &out); err != nil {
		t.Fatalf("resumed Run: %v", err)
	}
	if resumed.calls != 0 {
		t.Errorf("proposer called %d times during validate/report resume", resumed.calls)
	}

	after, err := p.Artifacts.ReadReport()
	if err != nil {
		t.Fatalf("ReadReport: %v", err)
	}

	// The report is idempotent apart from its timestamp.
	before.Meta.Timestamp = after.Meta.Timestamp
	if fmt.Sprintf("%+v", before) != fmt.Sprintf("%+v", after) {
		t.Errorf("resumed report differs:\nbefore %+v\nafter  %+v", before, after)
	}
}

func TestRunStageOnly(t *testing.T) {
	p := testPipeline(t, &echoProposer{})

	var out bytes.Buffer
	if err := p.Run(context.Background(), RunOptions{ResumeFrom: StageExtract, StageOnly: true}, &out); err != nil {
		t.Fatalf("Run: %v", err)
	}

	if !p.Artifacts.Exists(StageExtract) {
		t.Error("extract artifact not written")
	}
	if p.Artifacts.Exists(StageRefine) {
		t.Error("refine artifact written in stage-only mode")
	}
}

func TestRunCostCeilingAborts(t *testing.T) {
	failing := &echoProposer{err: fmt.Errorf("call: %w", proposer.ErrCostCeiling)}
	p := testPipeline(t, failing)

	var out bytes.Buffer
	err := p.Run(context.Background(), RunOptions{}, &out)
	if !errors.Is(err, proposer.ErrCostCeiling) {
		t.Fatalf("error = %v, want ErrCostCeiling", err)
	}
	if p.Artifacts.Exists(StageReport) {
		t.Error("report artifact written after cost-ceiling abort")
	}
}

func TestRunFailingStageNamed(t *testing.T) {
	failing := &echoProposer{err: fmt.Errorf("call: %w", proposer.ErrCostCeiling)}
	p := testPipeline(t, failing)

	var out bytes.Buffer
	err := p.Run(context.Background(), RunOptions{}, &out)
	if err == nil || !errors.Is(err, proposer.ErrCostCeiling) {
		t.Fatalf("unexpected error: %v", err)
	}
	if want := "stage extract"; !bytes.Contains([]byte(err.Error()), []byte(want)) {
		t.Errorf("error %q does not name the failing stage", err)
	}
}

func TestRunTransientProposerFailureDegrades(t *testing.T) {
	// Non-ceiling proposer failures cost the run candidates, not the run.
	failing := &echoProposer{err: errors.New("backend down")}
	p := testPipeline(t, failing)

	var out bytes.Buffer
	if err := p.Run(context.Background(), RunOptions{}, &out); err != nil {
		t.Fatalf("Run: %v", err)
	}

	extract, err := p.Artifacts.ReadExtract()
	if err != nil {
		t.Fatalf("ReadExtract: %v", err)
	}
	if extract.FailedBatches == 0 {
		t.Error("FailedBatches = 0, want failed batches counted")
	}
	if len(extract.Candidates) != 0 {
		t.Errorf("got %d candidates from a failing proposer", len(extract.Candidates))
	}

	report, err := p.Artifacts.ReadReport()
	if err != nil {
		t.Fatalf("ReadReport: %v", err)
	}
	if report.Report.EdgeCount != 0 {
		t.Errorf("EdgeCount = %d, want 0", report.Report.EdgeCount)
	}
}

func TestRunEmptyCatalog(t *testing.T) {
	p := testPipeline(t, &echoProposer{})
	p.Nodes = &memNodes{}

	var out bytes.Buffer
	if err := p.Run(context.Background(), RunOptions{}, &out); err != nil {
		t.Fatalf("Run: %v", err)
	}

	report, err := p.Artifacts.ReadReport()
	if err != nil {
		t.Fatalf("ReadReport: %v", err)
	}
	if report.Report.NodeCount != 0 || report.Report.EdgeCount != 0 {
		t.Errorf("report = %+v, want empty graph", report.Report)
	}
}

func TestRunCancelledContext(t *testing.T) {
	p := testPipeline(t, &echoProposer{})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	var out bytes.Buffer
	err := p.Run(ctx, RunOptions{}, &out)
	if !errors.Is(err, context.Canceled) {
		t.Errorf("error = %v, want context.Canceled", err)
	}
}

func TestParseStage(t *testing.T) {
	for _, stage := range Stages {
		got, err := ParseStage(string(stage))
		if err != nil || got != stage {
			t.Errorf("ParseStage(%q) = (%v, %v)", stage, got, err)
		}
	}
	if _, err := ParseStage("bogus"); err == nil {
		t.Error("ParseStage(bogus) succeeded")
	}
}
