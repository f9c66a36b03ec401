// Package secret keeps API credentials out of logs and error messages
package secret

import (
	"log/slog"
	"regexp"
)

// Redacted is printed wherever a secret would otherwise appear
const Redacted = "REDACTED"

// Token is an API credential. It formats as [REDACTED] through fmt and slog;
// only Reveal returns the underlying value.
type Token struct {
	value string
}

// NewToken wraps a raw API token
func NewToken(value string) Token {
	return Token{value: value}
}

// Reveal returns the raw token for placing it on the wire
func (t Token) Reveal() string {
	return t.value
}

// Empty reports whether no token was configured
func (t Token) Empty() bool {
	return t.value == ""
}

func (t Token) String() string {
	return "[" + Redacted + "]"
}

func (t Token) GoString() string {
	return t.String()
}

// LogValue implements slog.LogValuer
func (t Token) LogValue() slog.Value {
	return slog.StringValue(t.String())
}

// MarshalText keeps the token out of any encoded config dump
func (t Token) MarshalText() ([]byte, error) {
	return []byte(t.String()), nil
}

var tokenParam = regexp.MustCompile(`(?i)((?:^|[?&\s])(?:token|apikey|api_key)=)[^&\s"]*`)

// Redact masks token-like query parameters anywhere in s. It works on full
// URLs as well as on free-form log messages that embed one.
func Redact(s string) string {
	return tokenParam.ReplaceAllString(s, "${1}"+Redacted)
}
