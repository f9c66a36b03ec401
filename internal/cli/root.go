// Package cli wires configuration, logging and the pipeline into cobra commands
package cli

import (
	"context"
	"errors"
	"io/fs"
	"log/slog"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"resty.dev/v3"

	"tickerfetch/internal/catalog"
	"tickerfetch/internal/config"
	"tickerfetch/internal/fetcher"
	"tickerfetch/internal/logging"
	"tickerfetch/internal/ratelimit"
)

// NewRootCmd builds the tickerfetch command tree
func NewRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "tickerfetch",
		Short:         "Bulk end-of-day price downloads from Tiingo",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().String("env-file", ".env", "dotenv file loaded before configuration")

	root.AddCommand(newCatalogCmd())
	root.AddCommand(newFetchCmd())
	root.AddCommand(newDailyCmd())
	return root
}

// Execute runs the command tree with ctx; the caller decides the exit code
func Execute(ctx context.Context, args []string) error {
	root := NewRootCmd()
	root.SetArgs(args)
	return root.ExecuteContext(ctx)
}

// env bundles what every subcommand needs
type env struct {
	cfg     *config.Config
	log     *slog.Logger
	limiter *ratelimit.Limiter
}

// setup loads the dotenv file, configuration and logger.
// A missing dotenv file is not an error.
func setup(cmd *cobra.Command) (*env, error) {
	envFile, _ := cmd.Flags().GetString("env-file")
	if envFile != "" {
		if err := godotenv.Load(envFile); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return nil, err
		}
	}

	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}

	log := logging.New(cmd.ErrOrStderr(), cfg.LogLevel, cfg.LogFormat)
	limiter := ratelimit.New(map[ratelimit.API]float64{
		ratelimit.APIPrices:  cfg.RequestsPerSecond,
		ratelimit.APICatalog: 0,
	}, 1)

	return &env{cfg: cfg, log: log, limiter: limiter}, nil
}

// newClient builds a shared client honouring the timeout and retry settings
func (e *env) newClient(accept string) *resty.Client {
	return fetcher.NewHTTPClient(fetcher.ClientOptions{
		Timeout:          e.cfg.RequestTimeout,
		RetryCount:       e.cfg.RetryMax,
		RetryWaitTime:    e.cfg.RetryWaitMin,
		RetryMaxWaitTime: e.cfg.RetryWaitMax,
		Accept:           accept,
		Logger:           e.log,
	})
}

// filter turns the selection keys into a catalog filter
func (e *env) filter() (catalog.Filter, error) {
	f := catalog.Filter{
		Exchanges:       e.cfg.Exchanges,
		AssetTypes:      e.cfg.AssetTypes,
		PriceCurrencies: e.cfg.PriceCurrencies,
	}
	if e.cfg.ActiveSince != "" {
		since, err := time.Parse(catalog.DateLayout, e.cfg.ActiveSince)
		if err != nil {
			return f, err
		}
		f.ActiveSince = since
	}
	return f, nil
}

// loadCatalog downloads the catalog and applies the configured filter
func (e *env) loadCatalog(ctx context.Context) ([]catalog.SupportedTicker, error) {
	client := e.newClient("*/*")
	defer client.Close()

	loader := catalog.NewLoader(client, e.limiter, e.log)
	tickers, err := loader.LoadSupportedTickers(ctx, e.cfg.CatalogURL)
	if err != nil {
		return nil, err
	}

	f, err := e.filter()
	if err != nil {
		return nil, err
	}
	selected := f.Apply(tickers)
	e.log.Info("catalog loaded", "total", len(tickers), "selected", len(selected))
	return selected, nil
}

// splitTickers parses a comma separated ticker list, dropping blanks
func splitTickers(arg string) []string {
	var out []string
	for _, t := range strings.Split(arg, ",") {
		if t = strings.TrimSpace(t); t != "" {
			out = append(out, t)
		}
	}
	return out
}
