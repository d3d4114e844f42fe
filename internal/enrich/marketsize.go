// Package enrich fills gaps in company profiles using web research.
package enrich

import (
	"context"
	"fmt"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/ascentvc/diligence-cli/internal/config"
	"github.com/ascentvc/diligence-cli/internal/jsonx"
	"github.com/ascentvc/diligence-cli/internal/model"
	"github.com/ascentvc/diligence-cli/pkg/perplexity"
)

// MarketSizer estimates total addressable market for companies that did
// not state one in their materials.
type MarketSizer struct {
	client perplexity.Client
}

// NewMarketSizer creates a MarketSizer. Returns nil when no key is
// configured; callers treat a nil sizer as "leave TAM unset".
func NewMarketSizer(cfg config.PerplexityConfig) *MarketSizer {
	if cfg.Key == "" {
		return nil
	}
	opts := []perplexity.Option{}
	if cfg.BaseURL != "" {
		opts = append(opts, perplexity.WithBaseURL(cfg.BaseURL))
	}
	if cfg.Model != "" {
		opts = append(opts, perplexity.WithModel(cfg.Model))
	}
	return &MarketSizer{client: perplexity.NewClient(cfg.Key, opts...)}
}

// NewMarketSizerWithClient wires an existing client, used by tests.
func NewMarketSizerWithClient(client perplexity.Client) *MarketSizer {
	return &MarketSizer{client: client}
}

// EstimateTAM looks up a TAM figure in USD for the company's market.
// Returns the estimate and any citations the search produced.
func (m *MarketSizer) EstimateTAM(ctx context.Context, company model.Company) (float64, []string, error) {
	prompt := fmt.Sprintf(
		`Estimate the total addressable market in USD for the following company.
Company: %s
Sector: %s
Description: %s
Respond with a JSON object: {"tam_usd": <number>}.`,
		company.Name, company.Sector, company.Description,
	)

	resp, err := m.client.ChatCompletion(ctx, perplexity.ChatCompletionRequest{
		Messages:            []perplexity.Message{{Role: "user", Content: prompt}},
		SearchRecencyFilter: "year",
	})
	if err != nil {
		return 0, nil, eris.Wrap(err, "enrich: market size lookup")
	}
	if len(resp.Choices) == 0 {
		return 0, nil, eris.New("enrich: empty market size response")
	}

	var out struct {
		TAMUSD float64 `json:"tam_usd"`
	}
	if err := jsonx.Recover(resp.Choices[0].Message.Content, &out); err != nil {
		return 0, nil, eris.Wrap(err, "enrich: parse market size")
	}
	if out.TAMUSD <= 0 {
		return 0, nil, eris.New("enrich: non-positive TAM estimate")
	}

	zap.L().Info("enrich: estimated TAM",
		zap.String("company", company.Name),
		zap.Float64("tam_usd", out.TAMUSD),
		zap.Int("citations", len(resp.Citations)))
	return out.TAMUSD, resp.Citations, nil
}
