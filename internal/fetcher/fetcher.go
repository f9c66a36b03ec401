package fetcher

import "context"

// Fetcher retrieves the price history of one symbol and persists it.
//
// Implementations never return Go errors: every failure is folded into the
// returned Outcome so that one symbol can never abort its siblings.
type Fetcher interface {
	Fetch(ctx context.Context, symbol string) Outcome
}

// FailureRecorder receives one call per failed symbol.
// ledger.Ledger is the production implementation.
type FailureRecorder interface {
	Record(symbol string) error
}
