// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package proposer

import (
	"context"
	"errors"
	"fmt"
	"math"
	"sync"
	"time"

	"github.com/ldm/standards-graph/pkg/types"
)

// ErrCostCeiling is returned when cumulative proposer spend reaches the
// configured per-run ceiling. It is fatal: the run aborts and the call is
// never retried.
var ErrCostCeiling = errors.New("proposer cost ceiling exceeded")

// backoffBase controls the base duration for exponential backoff. Tests
// override this to avoid real sleeps.
var backoffBase = time.Second

const (
	defaultMaxRetries = 3
	defaultBatchSize  = 50
)

// Usage is a snapshot of cumulative proposer consumption for one run.
type Usage struct {
	Calls        int     `json:"calls"`
	InputTokens  int     `json:"input_tokens"`
	OutputTokens int     `json:"output_tokens"`
	CostUSD      float64 `json:"cost_usd"`
}

// Meter wraps a Backend with retry-with-backoff and cumulative cost
// accounting. It is the single retry point shared by every proposer call
// site. Safe for concurrent use.
type Meter struct {
	backend Backend
	cfg     types.ProposerConfig

	mu    sync.Mutex
	usage Usage
}

// NewMeter wraps backend with the retry and cost policy from cfg.
func NewMeter(backend Backend, cfg types.ProposerConfig) *Meter {
	return &Meter{backend: backend, cfg: cfg}
}

// Usage returns a snapshot of cumulative consumption.
func (m *Meter) Usage() Usage {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.usage
}

// ProposeRelations submits one batch, retrying transient failures with
// exponential backoff up to the configured attempt cap. Cost is accrued
// from token usage after every successful call; once the ceiling is
// reached, this and every subsequent call fails with ErrCostCeiling.
func (m *Meter) ProposeRelations(ctx context.Context, req Request) ([]RawCandidate, error) {
	if m.cfg.CostCeilingUSD > 0 && m.Usage().CostUSD >= m.cfg.CostCeilingUSD {
		return nil, fmt.Errorf("%w: spent $%.4f of $%.4f", ErrCostCeiling, m.Usage().CostUSD, m.cfg.CostCeilingUSD)
	}

	maxRetries := m.cfg.MaxRetries
	if maxRetries <= 0 {
		maxRetries = defaultMaxRetries
	}

	var lastErr error
	for attempt := 0; attempt <= maxRetries; attempt++ {
		if attempt > 0 {
			backoff := time.Duration(math.Pow(2, float64(attempt-1))) * backoffBase
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-time.After(backoff):
			}
		}

		resp, err := m.backend.Propose(ctx, req)
		if err != nil {
			lastErr = err
			continue
		}

		if err := m.accrue(resp); err != nil {
			return nil, err
		}
		return resp.Candidates, nil
	}

	return nil, fmt.Errorf("after %d retries: %w", maxRetries, lastErr)
}

// accrue adds one response's token usage to the running total and
// enforces the ceiling.
func (m *Meter) accrue(resp Response) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.usage.Calls++
	m.usage.InputTokens += resp.InputTokens
	m.usage.OutputTokens += resp.OutputTokens
	m.usage.CostUSD += float64(resp.InputTokens)*m.cfg.CostPerInputToken +
		float64(resp.OutputTokens)*m.cfg.CostPerOutputToken

	if m.cfg.CostCeilingUSD > 0 && m.usage.CostUSD > m.cfg.CostCeilingUSD {
		return fmt.Errorf("%w: spent $%.4f of $%.4f", ErrCostCeiling, m.usage.CostUSD, m.cfg.CostCeilingUSD)
	}
	return nil
}

// BatchSize returns the configured pairs-per-call bound, defaulting to 50.
func BatchSize(cfg types.ProposerConfig) int {
	if cfg.BatchSize > 0 {
		return cfg.BatchSize
	}
	return defaultBatchSize
}
