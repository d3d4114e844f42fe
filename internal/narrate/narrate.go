// Package narrate generates investment thesis narratives with the
// Anthropic API.
package narrate

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/rotisserie/eris"

	"github.com/ascentvc/diligence-cli/internal/benchmark"
	"github.com/ascentvc/diligence-cli/internal/config"
	"github.com/ascentvc/diligence-cli/internal/jsonx"
	"github.com/ascentvc/diligence-cli/pkg/anthropic"
)

const systemPrompt = `You are an investment analyst at a venture fund.
Given a scored company benchmark report, write a concise investment thesis.
Respond with a JSON object: {"thesis": "<2-4 sentence thesis>"}.
Ground every claim in the numbers provided. Do not invent metrics.`

// Narrator implements benchmark.Narrator on top of the Anthropic API.
type Narrator struct {
	client    anthropic.Client
	model     string
	maxTokens int64
}

// New creates a Narrator. Returns nil when the integration is disabled or
// no key is configured, which makes the engine fall back to templates.
func New(cfg config.AnthropicConfig) *Narrator {
	if cfg.Disabled || cfg.Key == "" {
		return nil
	}
	return &Narrator{
		client:    anthropic.NewClient(cfg.Key),
		model:     cfg.SonnetModel,
		maxTokens: int64(cfg.MaxTokens),
	}
}

// NewWithClient wires an existing client, used by tests.
func NewWithClient(client anthropic.Client, model string, maxTokens int64) *Narrator {
	return &Narrator{client: client, model: model, maxTokens: maxTokens}
}

var _ benchmark.Narrator = (*Narrator)(nil)

// Thesis asks the model for a thesis paragraph grounded in the report.
func (n *Narrator) Thesis(ctx context.Context, report *benchmark.Report) (string, error) {
	reportJSON, err := json.Marshal(report)
	if err != nil {
		return "", eris.Wrap(err, "narrate: marshal report")
	}

	resp, err := n.client.CreateMessage(ctx, anthropic.MessageRequest{
		Model:     n.model,
		MaxTokens: n.maxTokens,
		System:    anthropic.BuildCachedSystemBlocks(systemPrompt),
		Messages: []anthropic.Message{
			{Role: "user", Content: fmt.Sprintf("Benchmark report:\n%s", reportJSON)},
		},
	})
	if err != nil {
		return "", err
	}
	resp.Usage.LogCost(n.model, "thesis")

	var out struct {
		Thesis string `json:"thesis"`
	}
	if err := jsonx.Recover(resp.Text(), &out); err != nil {
		return "", eris.Wrap(err, "narrate: parse thesis")
	}
	if out.Thesis == "" {
		return "", eris.New("narrate: empty thesis in response")
	}
	return out.Thesis, nil
}
