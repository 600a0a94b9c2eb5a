package stream

import (
	"context"

	"golang.org/x/time/rate"
)

// RateLimited wraps a source with a token-bucket limiter, pacing ingestion
// when the stream feeds from a shared upstream (object store, message bus).
type RateLimited struct {
	src     Source
	limiter *rate.Limiter
}

// NewRateLimited creates a rate-limited view of src.
// If limiter is nil the source is returned unpaced.
func NewRateLimited(src Source, limiter *rate.Limiter) Source {
	if limiter == nil {
		return src
	}
	return &RateLimited{src: src, limiter: limiter}
}

// Next implements Source. It waits for a token before delegating.
func (s *RateLimited) Next(ctx context.Context) (Point, error) {
	if err := s.limiter.Wait(ctx); err != nil {
		return Point{}, err
	}
	return s.src.Next(ctx)
}
