package catalog

import (
	"slices"
	"strings"
	"time"
)

// Filter selects tickers from the catalog. Empty fields match everything.
type Filter struct {
	Exchanges       []string
	AssetTypes      []string
	PriceCurrencies []string
	// ActiveSince drops tickers whose coverage ended before this date or is unknown
	ActiveSince time.Time
}

// Apply returns the matching tickers in catalog order
func (f Filter) Apply(tickers []SupportedTicker) []SupportedTicker {
	var out []SupportedTicker
	for _, t := range tickers {
		if f.Match(t) {
			out = append(out, t)
		}
	}
	return out
}

// Match reports whether a single ticker passes the filter
func (f Filter) Match(t SupportedTicker) bool {
	if !matchAny(f.Exchanges, t.Exchange) {
		return false
	}
	if !matchAny(f.AssetTypes, t.AssetType) {
		return false
	}
	if !matchAny(f.PriceCurrencies, t.PriceCurrency) {
		return false
	}
	if !f.ActiveSince.IsZero() {
		if !t.EndDate.Valid || t.EndDate.Time.Before(f.ActiveSince) {
			return false
		}
	}
	return true
}

func matchAny(allowed []string, value string) bool {
	if len(allowed) == 0 {
		return true
	}
	return slices.ContainsFunc(allowed, func(a string) bool {
		return strings.EqualFold(a, value)
	})
}

// Symbols returns the ticker codes, skipping blanks and duplicates while keeping order
func Symbols(tickers []SupportedTicker) []string {
	seen := make(map[string]struct{}, len(tickers))
	out := make([]string, 0, len(tickers))
	for _, t := range tickers {
		if t.Ticker == "" {
			continue
		}
		if _, ok := seen[t.Ticker]; ok {
			continue
		}
		seen[t.Ticker] = struct{}{}
		out = append(out, t.Ticker)
	}
	return out
}

// Skip drops every symbol listed in skip, compared case-insensitively.
// symbols is not modified.
func Skip(symbols, skip []string) []string {
	if len(skip) == 0 {
		return symbols
	}
	drop := make(map[string]struct{}, len(skip))
	for _, s := range skip {
		drop[strings.ToUpper(strings.TrimSpace(s))] = struct{}{}
	}
	out := make([]string, 0, len(symbols))
	for _, s := range symbols {
		if _, ok := drop[strings.ToUpper(s)]; !ok {
			out = append(out, s)
		}
	}
	return out
}

// Half returns the first or second half of symbols. Running each half in a
// different clock hour keeps a full backfill inside an hourly request quota.
// For odd lengths the second half is the larger one.
func Half(symbols []string, first bool) []string {
	if len(symbols) == 0 {
		return symbols
	}
	if first {
		return symbols[:len(symbols)/2]
	}
	return symbols[len(symbols)/2:]
}
