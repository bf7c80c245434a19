// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/ldm/standards-graph/internal/catalog"
)

var nodesCmd = &cobra.Command{
	Use:   "nodes",
	Short: "Manage the standards catalog",
	Long: `Nodes manages the SQLite catalog of achievement standards that the
pipeline runs against. Use subcommands to import a YAML nodes file or
list the current catalog.`,
}

var nodesImportCmd = &cobra.Command{
	Use:   "import [file]",
	Short: "Import standards from a YAML nodes file",
	Long: `Import reads a YAML file with a top-level nodes list and upserts every
valid standard into the catalog. Standards with malformed codes or empty
content are rejected and reported.`,
	Args: cobra.ExactArgs(1),
	RunE: runNodesImport,
}

func runNodesImport(cmd *cobra.Command, args []string) error {
	cfg := loadConfig()

	store, err := catalog.Open(cfg.Catalog.DBPath)
	if err != nil {
		return err
	}
	defer store.Close()

	summary, err := store.ImportYAML(cmd.Context(), args[0], os.Stdout)
	if err != nil {
		return err
	}
	if summary.Rejected > 0 {
		return fmt.Errorf("%d node(s) rejected", summary.Rejected)
	}
	return nil
}

var nodesListCmd = &cobra.Command{
	Use:   "list",
	Short: "List standards in the catalog",
	RunE:  runNodesList,
}

func runNodesList(cmd *cobra.Command, args []string) error {
	cfg := loadConfig()

	store, err := catalog.Open(cfg.Catalog.DBPath)
	if err != nil {
		return err
	}
	defer store.Close()

	nodes, err := store.Nodes(cmd.Context())
	if err != nil {
		return err
	}

	jsonOutput, _ := cmd.Flags().GetBool("json")
	if jsonOutput {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(nodes)
	}

	for _, n := range nodes {
		content := n.Content
		if len(content) > 60 {
			content = content[:57] + "..."
		}
		fmt.Fprintf(os.Stdout, "%-8s  %-12s  %-4s  %s\n",
			n.Code, n.DomainID, n.GradeBandID, content)
	}

	counts, err := store.Counts(cmd.Context())
	if err != nil {
		return err
	}
	fmt.Fprintf(os.Stdout, "\n%d standards, %d domains, %d grade bands\n",
		counts.Nodes, counts.Domains, counts.GradeBands)
	return nil
}

func init() {
	nodesListCmd.Flags().Bool("json", false, "output as JSON")

	nodesCmd.AddCommand(nodesImportCmd)
	nodesCmd.AddCommand(nodesListCmd)

	rootCmd.AddCommand(nodesCmd)
}
