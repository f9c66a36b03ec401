package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/spf13/viper"

	"tickerfetch/internal/secret"
)

// Config holds all configuration for the ticker fetcher.
type Config struct {
	// Provider credentials and endpoints
	TiingoToken   string `mapstructure:"tiingo_token"`
	TiingoBaseURL string `mapstructure:"tiingo_base_url" validate:"required,url"`
	CatalogURL    string `mapstructure:"catalog_url" validate:"required,url"`

	// Request shape
	Format       string   `mapstructure:"format" validate:"oneof=csv json"`
	MinStartDate string   `mapstructure:"min_start_date" validate:"required,datetime=2006-01-02"`
	EndDate      string   `mapstructure:"end_date" validate:"omitempty,datetime=2006-01-02"`
	Columns      []string `mapstructure:"columns" validate:"dive,required"`

	// Output
	OutputDir         string `mapstructure:"output_dir" validate:"required"`
	FailedTickersFile string `mapstructure:"failed_tickers_file" validate:"required"`
	AddTickerColumn   bool   `mapstructure:"add_ticker_column"`

	// Scheduling and quota
	WindowSize        int           `mapstructure:"window_size" validate:"min=1"`
	HourlyQuota       int           `mapstructure:"hourly_quota" validate:"min=1"`
	RequestTimeout    time.Duration `mapstructure:"request_timeout" validate:"gt=0"`
	RetryMax          int           `mapstructure:"retry_max" validate:"min=0"`
	RetryWaitMin      time.Duration `mapstructure:"retry_wait_min" validate:"gte=0"`
	RetryWaitMax      time.Duration `mapstructure:"retry_wait_max" validate:"gte=0"`
	RequestsPerSecond float64       `mapstructure:"requests_per_second" validate:"gte=0"`

	// Catalog selection
	Exchanges       []string `mapstructure:"exchanges"`
	AssetTypes      []string `mapstructure:"asset_types"`
	PriceCurrencies []string `mapstructure:"price_currencies"`
	ActiveSince     string   `mapstructure:"active_since" validate:"omitempty,datetime=2006-01-02"`
	SkipTickers     []string `mapstructure:"skip_tickers"`

	// Logging
	LogLevel  string `mapstructure:"log_level" validate:"omitempty,oneof=debug info warn warning error"`
	LogFormat string `mapstructure:"log_format" validate:"omitempty,oneof=json text"`
}

// Token returns the API token as an opaque credential
func (c *Config) Token() secret.Token {
	return secret.NewToken(c.TiingoToken)
}

// RequireToken fails when no API token is configured. The catalog archive is
// public, so only commands that hit the price API call it.
func (c *Config) RequireToken() error {
	if c.Token().Empty() {
		return errors.New("missing required configuration: TIINGO_TOKEN")
	}
	return nil
}

// envBindings maps config keys to environment variables
var envBindings = map[string]string{
	"tiingo_token":        "TIINGO_TOKEN",
	"tiingo_base_url":     "TIINGO_BASE_URL",
	"catalog_url":         "TIINGO_CATALOG_URL",
	"format":              "TIINGO_FORMAT",
	"min_start_date":      "MIN_START_DATE",
	"end_date":            "END_DATE",
	"columns":             "TIINGO_COLUMNS",
	"output_dir":          "OUTPUT_DIR",
	"failed_tickers_file": "FAILED_TICKERS_FILE",
	"add_ticker_column":   "ADD_TICKER_COLUMN",
	"window_size":         "WINDOW_SIZE",
	"hourly_quota":        "HOURLY_QUOTA",
	"request_timeout":     "REQUEST_TIMEOUT",
	"retry_max":           "RETRY_MAX",
	"retry_wait_min":      "RETRY_WAIT_MIN",
	"retry_wait_max":      "RETRY_WAIT_MAX",
	"requests_per_second": "REQUESTS_PER_SECOND",
	"exchanges":           "EXCHANGES",
	"asset_types":         "ASSET_TYPES",
	"price_currencies":    "PRICE_CURRENCIES",
	"active_since":        "ACTIVE_SINCE",
	"skip_tickers":        "SKIP_TICKERS",
	"log_level":           "LOG_LEVEL",
	"log_format":          "LOG_FORMAT",
}

// Load reads configuration from environment variables and optional config file.
// Environment variables take precedence over config file values.
//
// Every key has a default (see SetDefaults) except TIINGO_TOKEN, which is
// checked by RequireToken. List values such as TIINGO_COLUMNS are comma separated.
func Load() (*Config, error) {
	v := viper.New()
	SetDefaults(v)

	// Optionally read from config file if it exists
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	v.AddConfigPath("$HOME/.tickerfetch")

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	return FromViper(v)
}

// SetDefaults registers defaults and environment bindings on v
func SetDefaults(v *viper.Viper) {
	v.SetDefault("tiingo_base_url", "https://api.tiingo.com/tiingo/daily")
	v.SetDefault("catalog_url", "https://apimedia.tiingo.com/docs/tiingo/daily/supported_tickers.zip")
	v.SetDefault("format", "csv")
	v.SetDefault("min_start_date", "1995-01-01")
	v.SetDefault("end_date", "")
	v.SetDefault("columns", []string{})
	v.SetDefault("output_dir", "data")
	v.SetDefault("failed_tickers_file", "failed_tickers.csv")
	v.SetDefault("add_ticker_column", true)
	v.SetDefault("window_size", 500)
	v.SetDefault("hourly_quota", 10000)
	v.SetDefault("request_timeout", 30*time.Second)
	v.SetDefault("retry_max", 0)
	v.SetDefault("retry_wait_min", time.Second)
	v.SetDefault("retry_wait_max", 10*time.Second)
	v.SetDefault("requests_per_second", 0.0)
	v.SetDefault("exchanges", []string{})
	v.SetDefault("asset_types", []string{})
	v.SetDefault("price_currencies", []string{})
	v.SetDefault("active_since", "")
	v.SetDefault("skip_tickers", []string{})
	v.SetDefault("log_level", "info")
	v.SetDefault("log_format", "json")

	for key, env := range envBindings {
		v.BindEnv(key, env)
	}
}

// FromViper unmarshals and validates a prepared viper instance
func FromViper(v *viper.Viper) (*Config, error) {
	config := &Config{}
	if err := v.Unmarshal(config); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}
	config.Columns = splitList(config.Columns)
	config.Exchanges = splitList(config.Exchanges)
	config.AssetTypes = splitList(config.AssetTypes)
	config.PriceCurrencies = splitList(config.PriceCurrencies)
	config.SkipTickers = splitList(config.SkipTickers)

	if err := validate.Struct(config); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	if config.EndDate != "" && config.EndDate < config.MinStartDate {
		return nil, fmt.Errorf("invalid configuration: end_date %s is before min_start_date %s", config.EndDate, config.MinStartDate)
	}

	return config, nil
}

var validate = validator.New(validator.WithRequiredStructEnabled())

// splitList trims entries, drops blanks and splits entries that still hold commas
// (a YAML scalar "date,close" arrives as one element)
func splitList(in []string) []string {
	var out []string
	for _, item := range in {
		for _, part := range strings.Split(item, ",") {
			if part = strings.TrimSpace(part); part != "" {
				out = append(out, part)
			}
		}
	}
	return out
}
