package ai

import (
	"context"
	"encoding/json"

	"golang.org/x/time/rate"

	"github.com/custodia-labs/digest-cli/internal/core/ports/driven"
)

// Ensure RateLimitedGenerator implements the interface.
var _ driven.Generator = (*RateLimitedGenerator)(nil)

// RateLimitedGenerator paces generation calls with a token bucket shared by
// every caller, so parallel sections stay under a provider's request rate.
type RateLimitedGenerator struct {
	next   driven.Generator
	bucket *rate.Limiter
}

// NewRateLimitedGenerator wraps next with a limit of rps calls per second.
func NewRateLimitedGenerator(next driven.Generator, rps float64) *RateLimitedGenerator {
	return &RateLimitedGenerator{
		next:   next,
		bucket: rate.NewLimiter(rate.Limit(rps), 1),
	}
}

// GenerateStructured waits for a token, then delegates.
func (g *RateLimitedGenerator) GenerateStructured(
	ctx context.Context,
	req driven.GenerateRequest,
) (json.RawMessage, error) {
	if err := g.bucket.Wait(ctx); err != nil {
		return nil, err
	}
	return g.next.GenerateStructured(ctx, req)
}

// ModelName returns the wrapped generator's model.
func (g *RateLimitedGenerator) ModelName() string {
	return g.next.ModelName()
}

// Ping is not rate limited.
func (g *RateLimitedGenerator) Ping(ctx context.Context) error {
	return g.next.Ping(ctx)
}

// Close closes the wrapped generator.
func (g *RateLimitedGenerator) Close() error {
	return g.next.Close()
}
