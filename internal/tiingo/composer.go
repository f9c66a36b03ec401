package tiingo

import (
	"fmt"
	"net/url"
	"path/filepath"
	"strings"

	"tickerfetch/internal/secret"
)

const (
	// DefaultBaseURL is the root of the end-of-day price API
	DefaultBaseURL = "https://api.tiingo.com/tiingo/daily"

	// LastTradingDayFile names the bulk last-trading-day output and its ledger entry
	LastTradingDayFile = "last_trading_day"

	// defaultExtension is used for paths when no format is requested; the API answers JSON then
	defaultExtension = "json"
)

// Composer builds request URLs for the end-of-day price endpoint
type Composer struct {
	BaseURL string
	Token   secret.Token
	Format  string
}

// NewComposer creates a Composer, falling back to DefaultBaseURL
func NewComposer(baseURL string, token secret.Token, format string) Composer {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	return Composer{
		BaseURL: strings.TrimRight(baseURL, "/"),
		Token:   token,
		Format:  format,
	}
}

// ComposeURL builds
//
//	{base}/{symbol}/prices?startDate={start}[&endDate={end}][&format={fmt}][&columns=c1,c2]&token={token}
//
// Columns keep the caller's order. The token is always the last parameter.
// The result carries the raw token and must go through secret.Redact before logging.
func (c Composer) ComposeURL(symbol, startDate, endDate string, columns []string) string {
	var b strings.Builder
	b.WriteString(strings.TrimRight(c.BaseURL, "/"))
	b.WriteString("/")
	b.WriteString(url.PathEscape(symbol))
	b.WriteString("/prices?startDate=")
	b.WriteString(url.QueryEscape(startDate))

	if endDate != "" {
		b.WriteString("&endDate=")
		b.WriteString(url.QueryEscape(endDate))
	}
	if c.Format != "" {
		b.WriteString("&format=")
		b.WriteString(url.QueryEscape(c.Format))
	}
	if len(columns) > 0 {
		escaped := make([]string, len(columns))
		for i, col := range columns {
			escaped[i] = url.QueryEscape(col)
		}
		b.WriteString("&columns=")
		b.WriteString(strings.Join(escaped, ","))
	}

	b.WriteString("&token=")
	b.WriteString(url.QueryEscape(c.Token.Reveal()))
	return b.String()
}

// ComposeBulkURL builds
//
//	{base}/prices?[format={fmt}&]token={token}
//
// which answers with the last trading day of every supported ticker.
func (c Composer) ComposeBulkURL() string {
	var b strings.Builder
	b.WriteString(strings.TrimRight(c.BaseURL, "/"))
	b.WriteString("/prices?")
	if c.Format != "" {
		b.WriteString("format=")
		b.WriteString(url.QueryEscape(c.Format))
		b.WriteString("&")
	}
	b.WriteString("token=")
	b.WriteString(url.QueryEscape(c.Token.Reveal()))
	return b.String()
}

// ComposeBulkPath returns {outputDir}/last_trading_day.{format}
func ComposeBulkPath(outputDir, format string) string {
	ext := format
	if ext == "" {
		ext = defaultExtension
	}
	return filepath.Join(outputDir, LastTradingDayFile+"."+ext)
}

// ComposePath returns {outputDir}/{symbol}_{startDate}.{format}.
// The same (symbol, startDate) pair always maps to the same file, so a re-fetch overwrites it.
func ComposePath(symbol, startDate, outputDir, format string) string {
	ext := format
	if ext == "" {
		ext = defaultExtension
	}
	filename := fmt.Sprintf("%s_%s.%s", symbol, startDate, ext)
	return filepath.Join(outputDir, filename)
}
