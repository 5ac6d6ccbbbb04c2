package rate

import (
	"context"
	"fmt"

	xrate "golang.org/x/time/rate"
)

// Limiter gates outbound API calls so we respect Gmail rate limits.
type Limiter interface {
	Wait(ctx context.Context) error
}

// TokenBucket paces calls to a fixed number of requests per second.
type TokenBucket struct {
	lim *xrate.Limiter
}

// NewTokenBucket returns a limiter that releases rps tokens per second.
// The first call proceeds immediately.
func NewTokenBucket(rps int) *TokenBucket {
	if rps <= 0 {
		rps = 1
	}
	return &TokenBucket{lim: xrate.NewLimiter(xrate.Limit(rps), 1)}
}

// New returns nil when rps disables limiting, so callers can skip waits.
func New(rps int) Limiter {
	if rps <= 0 {
		return nil
	}
	return NewTokenBucket(rps)
}

// Wait blocks until a token is available or the context is canceled.
func (t *TokenBucket) Wait(ctx context.Context) error {
	if err := t.lim.Wait(ctx); err != nil {
		return fmt.Errorf("rate wait canceled: %w", err)
	}
	return nil
}

// Wait calls l.Wait when l is non-nil and wraps failures with operation.
func Wait(ctx context.Context, l Limiter, operation string) error {
	if l == nil {
		return nil
	}
	if err := l.Wait(ctx); err != nil {
		return fmt.Errorf("%s: %w", operation, err)
	}
	return nil
}

var _ Limiter = (*TokenBucket)(nil)
