package types

import "time"

// ProposerConfig holds settings for the external relation proposer.
type ProposerConfig struct {
	// Model is the completion-service model identifier.
	Model string `json:"model" yaml:"model"`

	// APIKey authenticates against the completion service.
	APIKey string `json:"api_key,omitempty" yaml:"api_key,omitempty"`

	// MaxRetries is the number of retry attempts for failed calls (default 3).
	MaxRetries int `json:"max_retries" yaml:"max_retries"`

	// MaxConcurrent bounds parallel proposer calls within a stage (default 4).
	// The bound respects the service's rate and cost limits.
	MaxConcurrent int `json:"max_concurrent" yaml:"max_concurrent"`

	// BatchSize is the maximum number of pairs per proposer call (default 50).
	BatchSize int `json:"batch_size" yaml:"batch_size"`

	// Timeout is the per-request HTTP timeout.
	Timeout time.Duration `json:"timeout" yaml:"timeout"`

	// CostCeilingUSD is the hard per-run spend limit. Exceeding it aborts
	// the run; it is never retried past.
	CostCeilingUSD float64 `json:"cost_ceiling_usd" yaml:"cost_ceiling_usd"`

	// CostPerInputToken and CostPerOutputToken are the model's token rates
	// in USD, used for cumulative cost accounting.
	CostPerInputToken  float64 `json:"cost_per_input_token" yaml:"cost_per_input_token"`
	CostPerOutputToken float64 `json:"cost_per_output_token" yaml:"cost_per_output_token"`
}

// CatalogConfig holds settings for the node-catalog store.
type CatalogConfig struct {
	// DBPath is the sqlite database file holding the standards catalog.
	DBPath string `json:"db_path" yaml:"db_path"`
}

// PipelineConfig holds settings for the relation pipeline run.
type PipelineConfig struct {
	// ArtifactsDir is the directory receiving stage-named JSON artifacts.
	ArtifactsDir string `json:"artifacts_dir" yaml:"artifacts_dir"`

	// MaxInferredPairs bounds the missing-edge search space (default 200).
	MaxInferredPairs int `json:"max_inferred_pairs" yaml:"max_inferred_pairs"`

	// PairsPerGroup bounds how many pairs each extraction strategy draws
	// from one node group (default 20).
	PairsPerGroup int `json:"pairs_per_group" yaml:"pairs_per_group"`
}

// ExportConfig holds settings for the graph-database writer.
type ExportConfig struct {
	Neo4jURI      string `json:"neo4j_uri" yaml:"neo4j_uri"`
	Neo4jUser     string `json:"neo4j_user" yaml:"neo4j_user"`
	Neo4jPassword string `json:"neo4j_password,omitempty" yaml:"neo4j_password,omitempty"`
	Neo4jDatabase string `json:"neo4j_database" yaml:"neo4j_database"`

	// BatchSize is the number of rows per UNWIND batch (default 500).
	BatchSize int `json:"batch_size" yaml:"batch_size"`
}

// Config groups all component configurations.
type Config struct {
	Proposer ProposerConfig `json:"proposer" yaml:"proposer"`
	Catalog  CatalogConfig  `json:"catalog" yaml:"catalog"`
	Pipeline PipelineConfig `json:"pipeline" yaml:"pipeline"`
	Export   ExportConfig   `json:"export" yaml:"export"`
}
