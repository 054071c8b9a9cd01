package search

import (
	"context"
	"errors"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/sitefinder/internal/model"
	"github.com/sells-group/sitefinder/internal/resilience"
)

// Chain tries backends in priority order and returns the first backend's
// non-empty hits. Each backend sits behind its own circuit breaker, so a
// blocked or failing engine goes cold instead of slowing every query.
type Chain struct {
	searchers []Searcher
	breakers  *resilience.BackendBreakers
	retry     resilience.RetryConfig
}

// ChainOption configures a Chain.
type ChainOption func(*Chain)

// WithRetryConfig overrides the per-backend retry policy.
func WithRetryConfig(cfg resilience.RetryConfig) ChainOption {
	return func(c *Chain) {
		c.retry = cfg
	}
}

// WithBreakerConfig overrides the per-backend circuit breaker policy.
func WithBreakerConfig(cfg resilience.CircuitBreakerConfig) ChainOption {
	return func(c *Chain) {
		c.breakers = resilience.NewBackendBreakers(cfg)
	}
}

// NewChain creates a Chain over the given backends, tried in order.
func NewChain(searchers []Searcher, opts ...ChainOption) *Chain {
	breakerCfg := resilience.DefaultCircuitBreakerConfig()
	breakerCfg.ShouldTrip = tripsBreaker

	c := &Chain{
		searchers: searchers,
		breakers:  resilience.NewBackendBreakers(breakerCfg),
		retry:     resilience.DefaultRetryConfig(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Name implements Searcher.
func (c *Chain) Name() string { return "chain" }

// Search implements Searcher. A backend that answers with zero hits is a
// valid answer but the next backend still gets a try; only when every
// backend fails outright does the chain return an error.
func (c *Chain) Search(ctx context.Context, query string, max int) ([]model.SearchHit, error) {
	var lastErr error
	answered := false

	for _, s := range c.searchers {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}

		cfg := c.retry
		if cfg.ShouldRetry == nil {
			cfg.ShouldRetry = retriesError
		}
		cfg.OnRetry = resilience.RetryLogger(s.Name(), "search")

		br := c.breakers.Get(s.Name())
		hits, err := resilience.ExecuteVal(ctx, br, func(ctx context.Context) ([]model.SearchHit, error) {
			return resilience.DoVal(ctx, cfg, func(ctx context.Context) ([]model.SearchHit, error) {
				return s.Search(ctx, query, max)
			})
		})
		if err != nil {
			zap.L().Debug("search: backend failed, trying next",
				zap.String("backend", s.Name()),
				zap.String("query", query),
				zap.Error(err),
			)
			lastErr = err
			continue
		}

		answered = true
		if len(hits) > 0 {
			return hits, nil
		}
		zap.L().Debug("search: backend returned no hits",
			zap.String("backend", s.Name()),
			zap.String("query", query),
		)
	}

	if !answered && lastErr != nil {
		return nil, eris.Wrap(lastErr, "search: all backends failed")
	}
	return nil, nil
}

// BreakerStates snapshots every backend breaker, for health reporting.
func (c *Chain) BreakerStates() map[string]resilience.CircuitState {
	return c.breakers.States()
}

// retriesError keeps retries on transient failures but never on blocks:
// a blocked engine stays blocked for far longer than any backoff.
func retriesError(err error) bool {
	return resilience.IsTransient(err) && !errors.Is(err, ErrBlocked)
}

// tripsBreaker opens a backend's breaker on blocks and transient faults.
func tripsBreaker(err error) bool {
	return errors.Is(err, ErrBlocked) || resilience.IsTransient(err)
}
