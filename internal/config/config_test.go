package config

import (
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"testing"
	"time"

	"github.com/spf13/viper"
)

// clearEnv unsets every bound variable for the duration of the test
func clearEnv(t *testing.T) {
	t.Helper()
	for _, env := range envBindings {
		t.Setenv(env, "")
		os.Unsetenv(env)
	}
}

func TestLoad_Success(t *testing.T) {
	clearEnv(t)
	envVars := map[string]string{
		"TIINGO_TOKEN":        "test_token",
		"TIINGO_BASE_URL":     "https://test.tiingo.com/tiingo/daily",
		"TIINGO_FORMAT":       "json",
		"MIN_START_DATE":      "2000-01-01",
		"END_DATE":            "2020-12-31",
		"OUTPUT_DIR":          "/tmp/prices",
		"FAILED_TICKERS_FILE": "/tmp/failed.csv",
		"WINDOW_SIZE":         "250",
		"HOURLY_QUOTA":        "5000",
	}
	for key, value := range envVars {
		t.Setenv(key, value)
	}

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() returned unexpected error: %v", err)
	}

	tests := []struct {
		name     string
		got      string
		expected string
	}{
		{"TiingoToken", cfg.TiingoToken, "test_token"},
		{"TiingoBaseURL", cfg.TiingoBaseURL, "https://test.tiingo.com/tiingo/daily"},
		{"Format", cfg.Format, "json"},
		{"MinStartDate", cfg.MinStartDate, "2000-01-01"},
		{"EndDate", cfg.EndDate, "2020-12-31"},
		{"OutputDir", cfg.OutputDir, "/tmp/prices"},
		{"FailedTickersFile", cfg.FailedTickersFile, "/tmp/failed.csv"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.got != tt.expected {
				t.Errorf("%s = %q, want %q", tt.name, tt.got, tt.expected)
			}
		})
	}

	if cfg.WindowSize != 250 {
		t.Errorf("WindowSize = %d, want 250", cfg.WindowSize)
	}
	if cfg.HourlyQuota != 5000 {
		t.Errorf("HourlyQuota = %d, want 5000", cfg.HourlyQuota)
	}
}

func TestLoad_WithDefaults(t *testing.T) {
	clearEnv(t)
	t.Setenv("TIINGO_TOKEN", "test_token")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() returned unexpected error: %v", err)
	}

	tests := []struct {
		name     string
		got      string
		expected string
	}{
		{"TiingoBaseURL", cfg.TiingoBaseURL, "https://api.tiingo.com/tiingo/daily"},
		{"CatalogURL", cfg.CatalogURL, "https://apimedia.tiingo.com/docs/tiingo/daily/supported_tickers.zip"},
		{"Format", cfg.Format, "csv"},
		{"MinStartDate", cfg.MinStartDate, "1995-01-01"},
		{"EndDate", cfg.EndDate, ""},
		{"OutputDir", cfg.OutputDir, "data"},
		{"FailedTickersFile", cfg.FailedTickersFile, "failed_tickers.csv"},
		{"LogLevel", cfg.LogLevel, "info"},
		{"LogFormat", cfg.LogFormat, "json"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.got != tt.expected {
				t.Errorf("%s = %q, want %q", tt.name, tt.got, tt.expected)
			}
		})
	}

	if cfg.WindowSize != 500 {
		t.Errorf("WindowSize = %d, want 500", cfg.WindowSize)
	}
	if cfg.HourlyQuota != 10000 {
		t.Errorf("HourlyQuota = %d, want 10000", cfg.HourlyQuota)
	}
	if cfg.RequestTimeout != 30*time.Second {
		t.Errorf("RequestTimeout = %v, want 30s", cfg.RequestTimeout)
	}
	if cfg.RetryMax != 0 {
		t.Errorf("RetryMax = %d, want 0", cfg.RetryMax)
	}
	if !cfg.AddTickerColumn {
		t.Error("AddTickerColumn = false, want true")
	}
	if len(cfg.Columns) != 0 {
		t.Errorf("Columns = %v, want empty", cfg.Columns)
	}
}

func TestLoad_MissingToken(t *testing.T) {
	clearEnv(t)

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() returned unexpected error: %v", err)
	}

	err = cfg.RequireToken()
	if err == nil {
		t.Fatal("RequireToken() expected error, got nil")
	}
	want := "missing required configuration: TIINGO_TOKEN"
	if err.Error() != want {
		t.Errorf("RequireToken() error = %q, want %q", err.Error(), want)
	}

	t.Setenv("TIINGO_TOKEN", "test_token")
	cfg, err = Load()
	if err != nil {
		t.Fatalf("Load() returned unexpected error: %v", err)
	}
	if err := cfg.RequireToken(); err != nil {
		t.Errorf("RequireToken() = %v, want nil", err)
	}
}

func TestLoad_Lists(t *testing.T) {
	clearEnv(t)
	t.Setenv("TIINGO_TOKEN", "test_token")
	t.Setenv("TIINGO_COLUMNS", "date, close ,volume")
	t.Setenv("EXCHANGES", "NYSE,NASDAQ")
	t.Setenv("SKIP_TICKERS", "brk.a, BRK-B")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() returned unexpected error: %v", err)
	}

	if want := []string{"date", "close", "volume"}; !reflect.DeepEqual(cfg.Columns, want) {
		t.Errorf("Columns = %v, want %v", cfg.Columns, want)
	}
	if want := []string{"NYSE", "NASDAQ"}; !reflect.DeepEqual(cfg.Exchanges, want) {
		t.Errorf("Exchanges = %v, want %v", cfg.Exchanges, want)
	}
	if want := []string{"brk.a", "BRK-B"}; !reflect.DeepEqual(cfg.SkipTickers, want) {
		t.Errorf("SkipTickers = %v, want %v", cfg.SkipTickers, want)
	}
}

func TestLoad_Invalid(t *testing.T) {
	tests := []struct {
		name        string
		env         map[string]string
		wantErrText string
	}{
		{"bad format", map[string]string{"TIINGO_FORMAT": "xml"}, "Format"},
		{"zero window", map[string]string{"WINDOW_SIZE": "0"}, "WindowSize"},
		{"zero quota", map[string]string{"HOURLY_QUOTA": "0"}, "HourlyQuota"},
		{"bad start date", map[string]string{"MIN_START_DATE": "01/02/1995"}, "MinStartDate"},
		{"bad base url", map[string]string{"TIINGO_BASE_URL": "not a url"}, "TiingoBaseURL"},
		{"end before start", map[string]string{"MIN_START_DATE": "2020-01-01", "END_DATE": "2019-01-01"}, "end_date"},
		{"bad log format", map[string]string{"LOG_FORMAT": "xml"}, "LogFormat"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			clearEnv(t)
			t.Setenv("TIINGO_TOKEN", "test_token")
			for key, value := range tt.env {
				t.Setenv(key, value)
			}

			_, err := Load()
			if err == nil {
				t.Fatal("Load() expected error, got nil")
			}
			if !strings.Contains(err.Error(), tt.wantErrText) {
				t.Errorf("Load() error = %q, want error containing %q", err.Error(), tt.wantErrText)
			}
		})
	}
}

func TestFromViper_ConfigFile(t *testing.T) {
	clearEnv(t)
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	yaml := "tiingo_token: file_token\nwindow_size: 100\ncolumns:\n  - date\n  - adjClose\n"
	if err := os.WriteFile(path, []byte(yaml), 0o644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}

	v := viper.New()
	SetDefaults(v)
	v.SetConfigFile(path)
	if err := v.ReadInConfig(); err != nil {
		t.Fatalf("ReadInConfig: %v", err)
	}

	t.Setenv("WINDOW_SIZE", "50")

	cfg, err := FromViper(v)
	if err != nil {
		t.Fatalf("FromViper() returned unexpected error: %v", err)
	}
	if cfg.TiingoToken != "file_token" {
		t.Errorf("TiingoToken = %q, want %q", cfg.TiingoToken, "file_token")
	}
	// environment wins over the file
	if cfg.WindowSize != 50 {
		t.Errorf("WindowSize = %d, want 50", cfg.WindowSize)
	}
	if want := []string{"date", "adjClose"}; !reflect.DeepEqual(cfg.Columns, want) {
		t.Errorf("Columns = %v, want %v", cfg.Columns, want)
	}
}

func TestConfig_TokenIsRedacted(t *testing.T) {
	cfg := &Config{TiingoToken: "secret_value"}
	tok := cfg.Token()
	if tok.Reveal() != "secret_value" {
		t.Errorf("Reveal() = %q, want %q", tok.Reveal(), "secret_value")
	}
	if strings.Contains(tok.String(), "secret_value") {
		t.Errorf("String() = %q leaks the token", tok.String())
	}
}
