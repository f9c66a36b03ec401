package ratelimit

import (
	"context"
	"sync"

	"golang.org/x/time/rate"
)

// API represents the different endpoints we pace independently
type API string

const (
	// APIPrices represents the end-of-day price endpoint
	APIPrices API = "prices"
	// APICatalog represents the supported tickers archive
	APICatalog API = "catalog"
)

// Limiter manages request pacing for different APIs
type Limiter struct {
	limiters map[API]*rate.Limiter
	mu       sync.RWMutex
}

// New creates a Limiter from per-second rates. A rate of zero or less leaves
// that API unlimited. Burst is the number of requests that may start at once;
// values below one are treated as one.
func New(perSecond map[API]float64, burst int) *Limiter {
	if burst < 1 {
		burst = 1
	}
	l := &Limiter{
		limiters: make(map[API]*rate.Limiter),
	}
	for api, r := range perSecond {
		l.Set(api, r, burst)
	}
	return l
}

// Set replaces the limiter for one API
func (l *Limiter) Set(api API, perSecond float64, burst int) {
	limit := rate.Inf
	if perSecond > 0 {
		limit = rate.Limit(perSecond)
	}

	l.mu.Lock()
	defer l.mu.Unlock()
	l.limiters[api] = rate.NewLimiter(limit, burst)
}

// Wait blocks until the rate limiter permits an event for the given API
// It returns an error if the context is canceled before the event can proceed
func (l *Limiter) Wait(ctx context.Context, api API) error {
	if l == nil {
		return nil
	}
	l.mu.RLock()
	limiter, exists := l.limiters[api]
	l.mu.RUnlock()

	if !exists {
		// If no limiter exists for this API, allow the request without limiting
		return nil
	}

	return limiter.Wait(ctx)
}
