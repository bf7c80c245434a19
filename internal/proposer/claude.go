// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package proposer

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"text/template"

	"github.com/ldm/standards-graph/internal/httputil"
	"github.com/ldm/standards-graph/pkg/types"
)

// proposalPromptTmpl is the prompt sent to the Claude API for one batch of
// standard pairs. It instructs the model to score each pair and respond
// with JSON only.
var proposalPromptTmpl = template.Must(template.New("proposal").Parse(`You are a curriculum analysis system. For each pair of achievement standards below, decide whether a relation exists and score it.

Relation kinds:
- prerequisite: the source standard must be learned before the target
- similar: the standards address closely related concepts or skills
- domain_bridge: the standards connect different subject domains
- grade_progression: the target deepens the source across grade bands
- horizontal: the standards are commonly taught together at the same level
{{if .KindHint}}
Focus on relations of kind "{{.KindHint}}" for this batch.
{{end}}
For each related pair emit an object with:
- source_code, target_code: the standard codes exactly as given
- relation_kind: one of the kinds above
- strength: a float in [0.0, 1.0] for your confidence
- reasoning: one sentence of justification
- importance: "critical", "high", or "medium" for how much the relation matters to learning-path queries

Omit pairs with no meaningful relation. Respond with a JSON object containing a "relations" array and no other text.

Pairs:
{{range $i, $p := .Pairs}}
Pair {{$i}}:
A: [{{$p.SourceCode}}] {{$p.Context}}
B: [{{$p.TargetCode}}]
{{end}}`))

// claudeAPIURL is the Claude API endpoint. Package-level var for test substitution.
var claudeAPIURL = "https://api.anthropic.com/v1/messages"

// ClaudeBackend calls the Claude Messages API to score one batch of pairs.
type ClaudeBackend struct {
	APIKey string
	Model  string
	Client *http.Client
}

type claudeRequest struct {
	Model     string          `json:"model"`
	MaxTokens int             `json:"max_tokens"`
	Messages  []claudeMessage `json:"messages"`
}

type claudeMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type claudeResponse struct {
	Content []claudeContent `json:"content"`
	Usage   claudeUsage     `json:"usage"`
}

type claudeContent struct {
	Type string `json:"type"`
	Text string `json:"text"`
}

type claudeUsage struct {
	InputTokens  int `json:"input_tokens"`
	OutputTokens int `json:"output_tokens"`
}

// proposalPayload is the JSON document the model is instructed to return.
type proposalPayload struct {
	Relations []RawCandidate `json:"relations"`
}

// Propose submits one batch and decodes the strict JSON response. A
// response that is not the documented shape is an error; the caller logs
// the raw payload and the batch contributes zero candidates.
func (c *ClaudeBackend) Propose(ctx context.Context, req Request) (Response, error) {
	prompt, err := renderPrompt(req)
	if err != nil {
		return Response{}, fmt.Errorf("rendering prompt: %w", err)
	}

	body, err := json.Marshal(claudeRequest{
		Model:     c.Model,
		MaxTokens: 4096,
		Messages:  []claudeMessage{{Role: "user", Content: prompt}},
	})
	if err != nil {
		return Response{}, fmt.Errorf("marshaling request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, claudeAPIURL, bytes.NewReader(body))
	if err != nil {
		return Response{}, fmt.Errorf("creating request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("x-api-key", c.APIKey)
	httpReq.Header.Set("anthropic-version", "2023-06-01")

	client := c.Client
	if client == nil {
		client = http.DefaultClient
	}

	// Rate limiting is handled here at the transport level; the Meter
	// retries everything else.
	resp, err := httputil.DoWithRetry(ctx, client, httpReq, 0)
	if err != nil {
		return Response{}, fmt.Errorf("calling completion API: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		raw, _ := io.ReadAll(resp.Body)
		return Response{}, fmt.Errorf("completion API returned %d: %s", resp.StatusCode, string(raw))
	}

	var cResp claudeResponse
	if err := json.NewDecoder(resp.Body).Decode(&cResp); err != nil {
		return Response{}, fmt.Errorf("decoding API response: %w", err)
	}

	out := Response{
		InputTokens:  cResp.Usage.InputTokens,
		OutputTokens: cResp.Usage.OutputTokens,
	}

	for _, block := range cResp.Content {
		if block.Type != "text" {
			continue
		}
		var payload proposalPayload
		if err := json.Unmarshal([]byte(block.Text), &payload); err != nil {
			return Response{}, fmt.Errorf("unparsable proposer output: %w: %s", err, block.Text)
		}
		out.Candidates = payload.Relations
		return out, nil
	}

	return Response{}, fmt.Errorf("no text content in API response")
}

// renderPrompt executes the proposal template for one batch.
func renderPrompt(req Request) (string, error) {
	var buf bytes.Buffer
	data := struct {
		Pairs    []Pair
		KindHint types.RelationKind
	}{Pairs: req.Pairs, KindHint: req.KindHint}
	if err := proposalPromptTmpl.Execute(&buf, data); err != nil {
		return "", err
	}
	return buf.String(), nil
}
