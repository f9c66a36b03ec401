package testutil

import (
	"context"
	"sync"

	"tickerfetch/internal/fetcher"
)

// MockFetcher is a mock implementation of the Fetcher interface for testing
type MockFetcher struct {
	FetchFunc func(ctx context.Context, symbol string) fetcher.Outcome
}

// Fetch implements the Fetcher interface
func (m *MockFetcher) Fetch(ctx context.Context, symbol string) fetcher.Outcome {
	if m.FetchFunc != nil {
		return m.FetchFunc(ctx, symbol)
	}
	return fetcher.Saved(symbol, symbol+".csv")
}

// NewMockFetcher creates a mock fetcher that fails the given symbols with err
// and saves every other symbol
func NewMockFetcher(failing map[string]*fetcher.FetchError) *MockFetcher {
	return &MockFetcher{
		FetchFunc: func(ctx context.Context, symbol string) fetcher.Outcome {
			if err, ok := failing[symbol]; ok {
				return fetcher.Failed(symbol, err)
			}
			return fetcher.Saved(symbol, symbol+".csv")
		},
	}
}

// Recorder is an in-memory FailureRecorder safe for concurrent use
type Recorder struct {
	mu      sync.Mutex
	symbols []string
	Err     error
}

// Record implements fetcher.FailureRecorder
func (r *Recorder) Record(symbol string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.Err != nil {
		return r.Err
	}
	r.symbols = append(r.symbols, symbol)
	return nil
}

// Symbols returns a copy of the recorded symbols in arrival order
func (r *Recorder) Symbols() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]string, len(r.symbols))
	copy(out, r.symbols)
	return out
}
