package extract

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/ascentvc/diligence-cli/internal/config"
)

// Chain runs extraction strategies in priority order until one produces
// acceptable text.
type Chain struct {
	strategies      []Strategy
	minWordCount    int
	strategyTimeout time.Duration
}

// NewChain creates a chain over the given strategies. Order matters: the
// first strategy whose output passes the acceptance check wins. Each
// strategy runs under its own timeout so one stuck rung cannot consume
// the whole request budget.
func NewChain(cfg config.ExtractConfig, strategies ...Strategy) *Chain {
	minWords := cfg.MinWordCount
	if minWords <= 0 {
		minWords = 50
	}
	return &Chain{
		strategies:      strategies,
		minWordCount:    minWords,
		strategyTimeout: time.Duration(cfg.StrategyTimeout) * time.Second,
	}
}

// strategyContext bounds a single strategy run. A zero timeout leaves
// the caller's context untouched apart from cancellation.
func (c *Chain) strategyContext(ctx context.Context) (context.Context, context.CancelFunc) {
	if c.strategyTimeout <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, c.strategyTimeout)
}

// accepted reports whether a successful result carries enough text to be
// usable. The threshold is strict: exactly minWordCount words is rejected.
func (c *Chain) accepted(res *Result) bool {
	return res != nil && res.WordCount > c.minWordCount
}

// Run executes the chain against a document. The result includes one
// Attempt per strategy tried; strategies after the winner are not invoked.
func (c *Chain) Run(ctx context.Context, doc Document) (*ChainResult, error) {
	cr := &ChainResult{Document: doc}

	if doc.Encrypted {
		// No strategy can read an encrypted document; fail fast with the
		// password suggestion up front.
		return cr, &AllFailedError{Suggestions: failureSuggestions}
	}

	var lastErr error
	for _, s := range c.strategies {
		runCtx, cancel := c.strategyContext(ctx)
		res, err := s.Extract(runCtx, doc)
		cancel()
		attempt := Attempt{Strategy: s.Name()}

		if err != nil {
			lastErr = err
			attempt.Error = err.Error()
			cr.Attempts = append(cr.Attempts, attempt)
			zap.L().Debug("extract: strategy failed",
				zap.String("strategy", s.Name()),
				zap.String("document", doc.Name),
				zap.Error(err),
			)
			continue
		}

		res.WordCount = countWords(res.Text)
		res.Strategy = s.Name()
		attempt.WordCount = res.WordCount

		if !c.accepted(res) {
			cr.Attempts = append(cr.Attempts, attempt)
			zap.L().Debug("extract: strategy output below threshold",
				zap.String("strategy", s.Name()),
				zap.String("document", doc.Name),
				zap.Int("word_count", res.WordCount),
				zap.Int("min_word_count", c.minWordCount),
			)
			continue
		}

		attempt.Accepted = true
		cr.Attempts = append(cr.Attempts, attempt)
		cr.Result = res
		cr.Analysis = AnalyzeContent(res.Text)

		zap.L().Info("extract: document extracted",
			zap.String("strategy", s.Name()),
			zap.String("document", doc.Name),
			zap.Int("word_count", res.WordCount),
			zap.Int("attempts", len(cr.Attempts)),
		)
		return cr, nil
	}

	return cr, &AllFailedError{
		Attempts:    cr.Attempts,
		Suggestions: failureSuggestions,
		last:        lastErr,
	}
}
