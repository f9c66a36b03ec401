package secret

import (
	"bytes"
	"fmt"
	"log/slog"
	"strings"
	"testing"
)

func TestToken_NeverFormatsValue(t *testing.T) {
	tok := NewToken("s3cr3t")

	outputs := []string{
		tok.String(),
		fmt.Sprintf("%v", tok),
		fmt.Sprintf("%s", tok),
		fmt.Sprintf("%+v", struct{ T Token }{tok}),
		fmt.Sprintf("%#v", tok),
	}
	for _, out := range outputs {
		if strings.Contains(out, "s3cr3t") {
			t.Errorf("formatted token leaked secret: %q", out)
		}
	}

	if got := tok.Reveal(); got != "s3cr3t" {
		t.Errorf("Reveal() = %q, want %q", got, "s3cr3t")
	}
}

func TestToken_LogValue(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, nil))
	logger.Info("loaded", "token", NewToken("s3cr3t"))

	if strings.Contains(buf.String(), "s3cr3t") {
		t.Errorf("log output leaked secret: %q", buf.String())
	}
}

func TestRedact(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{
			name: "token last",
			in:   "https://api.tiingo.com/tiingo/daily/AAPL/prices?startDate=2022-01-01&token=abc123",
			want: "https://api.tiingo.com/tiingo/daily/AAPL/prices?startDate=2022-01-01&token=REDACTED",
		},
		{
			name: "token first",
			in:   "https://host/x?token=abc123&format=csv",
			want: "https://host/x?token=REDACTED&format=csv",
		},
		{
			name: "embedded in message",
			in:   `Get "https://host/x?a=1&token=abc123": dial tcp: refused`,
			want: `Get "https://host/x?a=1&token=REDACTED": dial tcp: refused`,
		},
		{
			name: "no token",
			in:   "https://host/x?startDate=2022-01-01",
			want: "https://host/x?startDate=2022-01-01",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Redact(tt.in); got != tt.want {
				t.Errorf("Redact() = %q, want %q", got, tt.want)
			}
		})
	}
}
