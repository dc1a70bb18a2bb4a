package llm

import (
	"context"
	"fmt"
	"sync"
	"time"
)

// RateLimitedProvider spaces neural summarization calls so that a burst of
// chunked requests stays under the provider's requests-per-minute quota.
type RateLimitedProvider struct {
	provider Provider
	perToken time.Duration

	mu       sync.Mutex
	capacity float64
	tokens   float64
	last     time.Time
	now      func() time.Time
}

// NewRateLimitedProvider allows at most rpm requests per minute through to
// provider. A non-positive rpm or a nil provider returns provider unchanged.
func NewRateLimitedProvider(provider Provider, rpm int) Provider {
	if provider == nil || rpm <= 0 {
		return provider
	}
	return &RateLimitedProvider{
		provider: provider,
		perToken: time.Minute / time.Duration(rpm),
		capacity: float64(rpm),
		tokens:   float64(rpm),
		last:     time.Now(),
		now:      time.Now,
	}
}

func (r *RateLimitedProvider) Name() string {
	return r.provider.Name()
}

func (r *RateLimitedProvider) Complete(ctx context.Context, req CompletionRequest) (*CompletionResponse, error) {
	if err := r.wait(ctx); err != nil {
		return nil, fmt.Errorf("%s rate limit: %w", r.provider.Name(), err)
	}
	return r.provider.Complete(ctx, req)
}

// reserve takes a token and returns how long the caller must sleep before
// using it. The balance may go negative; later callers queue behind it.
func (r *RateLimitedProvider) reserve() time.Duration {
	r.mu.Lock()
	defer r.mu.Unlock()

	now := r.now()
	r.tokens = min(r.capacity, r.tokens+now.Sub(r.last).Seconds()/r.perToken.Seconds())
	r.last = now
	r.tokens--
	if r.tokens >= 0 {
		return 0
	}
	return time.Duration(-r.tokens * float64(r.perToken))
}

// cancel returns a reserved token that was never used.
func (r *RateLimitedProvider) cancel() {
	r.mu.Lock()
	r.tokens = min(r.capacity, r.tokens+1)
	r.mu.Unlock()
}

func (r *RateLimitedProvider) wait(ctx context.Context) error {
	delay := r.reserve()
	if delay == 0 {
		return nil
	}
	if deadline, ok := ctx.Deadline(); ok && r.now().Add(delay).After(deadline) {
		r.cancel()
		return context.DeadlineExceeded
	}

	timer := time.NewTimer(delay)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		r.cancel()
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
