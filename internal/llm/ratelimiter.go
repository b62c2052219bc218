package llm

import (
	"context"
	"fmt"
	"time"

	"golang.org/x/time/rate"
)

// RateLimiterConfig controls request pacing and retry behavior for a
// rate-limited provider.
type RateLimiterConfig struct {
	RequestsPerMinute int
	Burst             int
	MaxRetries        int
	InitialBackoff    time.Duration
	MaxBackoff        time.Duration
}

// DefaultRateLimiterConfig is a conservative default for hosted APIs.
var DefaultRateLimiterConfig = RateLimiterConfig{
	RequestsPerMinute: 60,
	Burst:             5,
	MaxRetries:        3,
	InitialBackoff:    500 * time.Millisecond,
	MaxBackoff:        10 * time.Second,
}

// RateLimitedProvider wraps a Provider with token-bucket rate limiting and
// exponential-backoff retries.
type RateLimitedProvider struct {
	inner   Provider
	limiter *rate.Limiter
	cfg     RateLimiterConfig
}

// NewRateLimitedProvider wraps inner with the given config.
func NewRateLimitedProvider(inner Provider, cfg RateLimiterConfig) (*RateLimitedProvider, error) {
	if inner == nil {
		return nil, fmt.Errorf("rate limiter: inner provider is nil")
	}
	if cfg.RequestsPerMinute <= 0 {
		return nil, fmt.Errorf("rate limiter: requests per minute must be positive, got %d", cfg.RequestsPerMinute)
	}
	if cfg.Burst <= 0 {
		cfg.Burst = 1
	}

	limit := rate.Limit(float64(cfg.RequestsPerMinute) / 60.0)
	return &RateLimitedProvider{
		inner:   inner,
		limiter: rate.NewLimiter(limit, cfg.Burst),
		cfg:     cfg,
	}, nil
}

func (r *RateLimitedProvider) Name() string         { return r.inner.Name() }
func (r *RateLimitedProvider) DefaultModel() string { return r.inner.DefaultModel() }

// Complete waits for a rate-limit token, then calls the inner provider,
// retrying transient failures up to MaxRetries times with exponential backoff.
func (r *RateLimitedProvider) Complete(ctx context.Context, req *CompletionRequest) (*CompletionResponse, error) {
	backoff := r.cfg.InitialBackoff
	var lastErr error

	for attempt := 0; attempt <= r.cfg.MaxRetries; attempt++ {
		if attempt > 0 {
			select {
			case <-time.After(backoff):
			case <-ctx.Done():
				return nil, ctx.Err()
			}
			backoff *= 2
			if backoff > r.cfg.MaxBackoff {
				backoff = r.cfg.MaxBackoff
			}
		}

		if err := r.limiter.Wait(ctx); err != nil {
			return nil, err
		}

		resp, err := r.inner.Complete(ctx, req)
		if err == nil {
			return resp, nil
		}
		lastErr = err
	}

	return nil, fmt.Errorf("completion failed after %d retries: %w", r.cfg.MaxRetries, lastErr)
}
