// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package main is the entry point for the standards-graph CLI.
package main

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/ldm/standards-graph/internal/secrets"
	"github.com/ldm/standards-graph/pkg/types"
)

// version is set at build time via ldflags.
var version = "dev"

// loadedSecrets holds credentials loaded from .secrets/ at startup.
var loadedSecrets map[string]string

// secretDefault returns fallback when set, otherwise the secret value
// for key if one was loaded.
func secretDefault(key, fallback string) string {
	if fallback != "" {
		return fallback
	}
	if v, ok := loadedSecrets[key]; ok {
		return v
	}
	return ""
}

// rootCmd is the base command for the standards-graph CLI.
var rootCmd = &cobra.Command{
	Use:   "standards-graph",
	Short: "Refine a curriculum standards relation graph",
	Long: `standards-graph builds and refines a weighted relation graph over
curriculum achievement standards. It runs a staged pipeline: extract
relation candidates, refine them into deduplicated weighted edges, infer
missing edges, validate prerequisite ordering, and report coverage.

Each stage writes a JSON artifact, so a run can resume from any stage.
Use nodes to manage the standards catalog and export to publish a
validated graph.`,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		s, err := secrets.Load(".secrets/")
		if err != nil {
			return err
		}
		loadedSecrets = s
		if len(s) > 0 {
			keys := make([]string, 0, len(s))
			for k := range s {
				keys = append(keys, k)
			}
			sort.Strings(keys)
			fmt.Fprintf(os.Stderr, "Loaded secrets: %v\n", keys)
		}
		return nil
	},
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().String("config", "", "config file (default: ./standards-graph.yaml or ~/.config/standards-graph/config.yaml)")
}

func initConfig() {
	cfgFile, _ := rootCmd.PersistentFlags().GetString("config")
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		viper.SetConfigName("standards-graph")
		viper.SetConfigType("yaml")
		viper.AddConfigPath(".")

		home, err := os.UserHomeDir()
		if err == nil {
			viper.AddConfigPath(filepath.Join(home, ".config", "standards-graph"))
		}
	}

	viper.SetEnvPrefix("STANDARDS_GRAPH")
	viper.AutomaticEnv()

	viper.SetDefault("catalog.db_path", filepath.Join("catalog", "standards.db"))
	viper.SetDefault("pipeline.artifacts_dir", "artifacts")
	viper.SetDefault("pipeline.max_inferred_pairs", 200)
	viper.SetDefault("pipeline.pairs_per_group", 20)
	viper.SetDefault("proposer.model", "claude-sonnet-4-5")
	viper.SetDefault("proposer.max_retries", 3)
	viper.SetDefault("proposer.max_concurrent", 4)
	viper.SetDefault("proposer.batch_size", 50)
	viper.SetDefault("proposer.cost_ceiling_usd", 10.0)
	viper.SetDefault("proposer.cost_per_input_token", 0.000003)
	viper.SetDefault("proposer.cost_per_output_token", 0.000015)
	viper.SetDefault("export.batch_size", 500)

	if err := viper.ReadInConfig(); err == nil {
		fmt.Fprintln(os.Stderr, "Using config file:", viper.ConfigFileUsed())
	}
}

// loadConfig assembles the typed config from viper plus loaded secrets.
func loadConfig() types.Config {
	var cfg types.Config

	cfg.Catalog.DBPath = viper.GetString("catalog.db_path")

	cfg.Pipeline.ArtifactsDir = viper.GetString("pipeline.artifacts_dir")
	cfg.Pipeline.MaxInferredPairs = viper.GetInt("pipeline.max_inferred_pairs")
	cfg.Pipeline.PairsPerGroup = viper.GetInt("pipeline.pairs_per_group")

	cfg.Proposer.Model = viper.GetString("proposer.model")
	cfg.Proposer.APIKey = secretDefault(secrets.KeyAnthropicAPI, viper.GetString("proposer.api_key"))
	cfg.Proposer.MaxRetries = viper.GetInt("proposer.max_retries")
	cfg.Proposer.MaxConcurrent = viper.GetInt("proposer.max_concurrent")
	cfg.Proposer.BatchSize = viper.GetInt("proposer.batch_size")
	cfg.Proposer.Timeout = viper.GetDuration("proposer.timeout")
	cfg.Proposer.CostCeilingUSD = viper.GetFloat64("proposer.cost_ceiling_usd")
	cfg.Proposer.CostPerInputToken = viper.GetFloat64("proposer.cost_per_input_token")
	cfg.Proposer.CostPerOutputToken = viper.GetFloat64("proposer.cost_per_output_token")

	cfg.Export.Neo4jURI = viper.GetString("export.neo4j_uri")
	cfg.Export.Neo4jUser = viper.GetString("export.neo4j_user")
	cfg.Export.Neo4jPassword = secretDefault(secrets.KeyNeo4jPassword, viper.GetString("export.neo4j_password"))
	cfg.Export.Neo4jDatabase = viper.GetString("export.neo4j_database")
	cfg.Export.BatchSize = viper.GetInt("export.batch_size")

	return cfg
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
