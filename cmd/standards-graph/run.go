// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"fmt"
	"net/http"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/ldm/standards-graph/internal/catalog"
	"github.com/ldm/standards-graph/internal/logging"
	"github.com/ldm/standards-graph/internal/pipeline"
	"github.com/ldm/standards-graph/internal/proposer"
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run the relation refinement pipeline",
	Long: `Run executes the five pipeline stages in order: extract, refine,
infer_missing, validate, report. Each stage writes a JSON artifact to
the artifacts directory.

Use --resume-from to restart at a later stage; every earlier stage must
have written its artifact. Use --stage-only to run a single named stage
and stop.`,
	RunE: runPipeline,
}

func runPipeline(cmd *cobra.Command, args []string) error {
	cfg := loadConfig()

	resumeFrom, _ := cmd.Flags().GetString("resume-from")
	stageOnly, _ := cmd.Flags().GetString("stage-only")
	logMode, _ := cmd.Flags().GetString("log-mode")

	var opts pipeline.RunOptions
	if resumeFrom != "" {
		stage, err := pipeline.ParseStage(resumeFrom)
		if err != nil {
			return err
		}
		opts.ResumeFrom = stage
	}
	if stageOnly != "" {
		stage, err := pipeline.ParseStage(stageOnly)
		if err != nil {
			return err
		}
		if resumeFrom != "" && stage != opts.ResumeFrom {
			return fmt.Errorf("--stage-only and --resume-from name different stages")
		}
		opts.ResumeFrom = stage
		opts.StageOnly = true
	}

	if cfg.Proposer.APIKey == "" {
		return fmt.Errorf("proposer API key required: set proposer.api_key or .secrets/anthropic-api-key")
	}

	log, err := logging.New(logMode)
	if err != nil {
		return err
	}
	defer log.Sync()

	store, err := catalog.Open(cfg.Catalog.DBPath)
	if err != nil {
		return err
	}
	defer store.Close()

	timeout := cfg.Proposer.Timeout
	if timeout <= 0 {
		timeout = 120 * time.Second
	}
	backend := &proposer.ClaudeBackend{
		APIKey: cfg.Proposer.APIKey,
		Model:  cfg.Proposer.Model,
		Client: &http.Client{Timeout: timeout},
	}
	meter := proposer.NewMeter(backend, cfg.Proposer)

	p := &pipeline.Pipeline{
		Nodes:     store,
		Proposer:  meter,
		Artifacts: pipeline.NewStore(cfg.Pipeline.ArtifactsDir),
		Config:    cfg,
		Log:       log,
		Usage:     meter.Usage,
	}

	if err := p.Run(cmd.Context(), opts, os.Stdout); err != nil {
		fmt.Fprintf(os.Stderr, "pipeline failed: %v\n", err)
		return err
	}

	usage := meter.Usage()
	fmt.Fprintf(os.Stdout, "proposer usage: %d calls, %d input tokens, %d output tokens, $%.4f\n",
		usage.Calls, usage.InputTokens, usage.OutputTokens, usage.CostUSD)
	return nil
}

func init() {
	runCmd.Flags().String("resume-from", "", "stage to resume from: extract, refine, infer_missing, validate, report")
	runCmd.Flags().String("stage-only", "", "run only the named stage: extract, refine, infer_missing, validate, report")
	runCmd.Flags().String("log-mode", "dev", "log output mode: dev or prod")

	rootCmd.AddCommand(runCmd)
}
