package extract

import (
	"context"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"
)

// Chain tries strategies in order, one at a time, and stops at the first
// usable Result.
type Chain struct {
	strategies []Strategy
}

// NewChain creates a Chain. Nil strategies are ignored so optional stages
// (such as AI without an API key) can be passed unconditionally.
func NewChain(strategies ...Strategy) *Chain {
	c := &Chain{}
	for _, s := range strategies {
		if s != nil {
			c.strategies = append(c.strategies, s)
		}
	}
	return c
}

// Strategies returns the names of the configured strategies in order.
func (c *Chain) Strategies() []string {
	names := make([]string, len(c.strategies))
	for i, s := range c.strategies {
		names[i] = s.Name()
	}
	return names
}

// Extract returns the first usable Result and the name of the strategy that
// produced it. When every strategy fails it returns an *ExhaustedError that
// carries each stage's failure.
func (c *Chain) Extract(ctx context.Context, page *Page) (*Result, string, error) {
	exhausted := &ExhaustedError{URL: page.URL}

	for _, s := range c.strategies {
		if err := ctx.Err(); err != nil {
			return nil, "", eris.Wrap(err, "extract: cancelled")
		}

		res, err := s.Extract(ctx, page)
		switch {
		case err != nil:
			zap.L().Warn("extract: strategy failed, trying next",
				zap.String("strategy", s.Name()),
				zap.String("url", page.URL),
				zap.Error(err),
			)
			exhausted.Failures = append(exhausted.Failures, StageFailure{Strategy: s.Name(), Err: err})
		case !res.Usable():
			zap.L().Debug("extract: strategy found nothing usable, trying next",
				zap.String("strategy", s.Name()),
				zap.String("url", page.URL),
			)
			exhausted.Failures = append(exhausted.Failures, StageFailure{Strategy: s.Name(), Err: errNoResult})
		default:
			zap.L().Debug("extract: strategy succeeded",
				zap.String("strategy", s.Name()),
				zap.String("url", page.URL),
			)
			return res, s.Name(), nil
		}
	}

	return nil, "", exhausted
}
