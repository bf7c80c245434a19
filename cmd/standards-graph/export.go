// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/ldm/standards-graph/internal/catalog"
	"github.com/ldm/standards-graph/internal/export"
	"github.com/ldm/standards-graph/internal/logging"
	"github.com/ldm/standards-graph/internal/pipeline"
)

var exportCmd = &cobra.Command{
	Use:   "export",
	Short: "Publish the validated graph to JSON or Neo4j",
	Long: `Export reads the validate stage artifact and publishes the graph.
The json format writes a single document to stdout or --out; the neo4j
format merges nodes and relationships into the configured database.`,
	RunE: runExport,
}

func runExport(cmd *cobra.Command, args []string) error {
	cfg := loadConfig()

	format, _ := cmd.Flags().GetString("format")
	outPath, _ := cmd.Flags().GetString("out")
	logMode, _ := cmd.Flags().GetString("log-mode")

	artifacts := pipeline.NewStore(cfg.Pipeline.ArtifactsDir)
	validated, err := artifacts.ReadValidate()
	if err != nil {
		return err
	}

	store, err := catalog.Open(cfg.Catalog.DBPath)
	if err != nil {
		return err
	}
	defer store.Close()

	nodes, err := store.Nodes(cmd.Context())
	if err != nil {
		return err
	}

	switch format {
	case "json", "":
		w := os.Stdout
		if outPath != "" {
			f, err := os.Create(outPath)
			if err != nil {
				return fmt.Errorf("creating output file: %w", err)
			}
			defer f.Close()
			w = f
		}
		return export.WriteJSON(w, nodes, validated.Edges)

	case "neo4j":
		log, err := logging.New(logMode)
		if err != nil {
			return err
		}
		defer log.Sync()

		exporter, err := export.NewExporter(cmd.Context(), cfg.Export, log)
		if err != nil {
			return err
		}
		defer exporter.Close(cmd.Context())

		if err := exporter.Export(cmd.Context(), nodes, validated.Edges); err != nil {
			return err
		}
		fmt.Fprintf(os.Stdout, "exported %d nodes and %d edges to %s\n",
			len(nodes), len(validated.Edges), cfg.Export.Neo4jURI)
		return nil

	default:
		return fmt.Errorf("unsupported format %q: use json or neo4j", format)
	}
}

func init() {
	exportCmd.Flags().String("format", "json", "export format: json or neo4j")
	exportCmd.Flags().String("out", "", "output file for json format (default stdout)")
	exportCmd.Flags().String("log-mode", "dev", "log output mode: dev or prod")

	rootCmd.AddCommand(exportCmd)
}
