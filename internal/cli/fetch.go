package cli

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/spf13/cobra"
	"resty.dev/v3"

	"tickerfetch/internal/catalog"
	"tickerfetch/internal/coordinator"
	"tickerfetch/internal/ledger"
	"tickerfetch/internal/tiingo"
)

func newFetchCmd() *cobra.Command {
	var (
		half        string
		catalogFile string
		skip        []string
	)

	cmd := &cobra.Command{
		Use:   "fetch [tickers]",
		Short: "Fetches end-of-day history for the given tickers or the selected catalog",
		Long: `Fetches end-of-day history and writes one file per ticker.

Tickers are comma separated. Without them the configured catalog selection is
used, read from --catalog-file when given. Tickers in --skip or SKIP_TICKERS are
dropped before --half is applied. Failed tickers are appended to the failure
ledger and do not change the exit status.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if half != "" && half != "first" && half != "second" {
				return fmt.Errorf("--half must be first or second, got %q", half)
			}

			e, err := setup(cmd)
			if err != nil {
				return err
			}
			if err := e.cfg.RequireToken(); err != nil {
				return err
			}

			symbols, err := e.symbols(cmd.Context(), args, catalogFile, skip)
			if err != nil {
				return err
			}
			if half != "" {
				symbols = catalog.Half(symbols, half == "first")
			}

			// refuse before the ledger file is touched
			if err := coordinator.CheckQuota(len(symbols), e.cfg.HourlyQuota); err != nil {
				return err
			}

			summary, failures, err := e.fetch(cmd.Context(), symbols)
			if summary != nil {
				e.printSummary(cmd, summary, failures)
			}
			return err
		},
	}

	cmd.Flags().StringVar(&half, "half", "", "fetch only the first or second half of the symbols")
	cmd.Flags().StringVar(&catalogFile, "catalog-file", "", "parquet catalog written by the catalog command")
	cmd.Flags().StringSliceVar(&skip, "skip", nil, "comma separated tickers to leave out, added to SKIP_TICKERS")
	return cmd
}

// symbols resolves the run's symbol list from args, a parquet catalog or the
// live catalog, then drops the skipped tickers
func (e *env) symbols(ctx context.Context, args []string, catalogFile string, skip []string) ([]string, error) {
	var symbols []string
	switch {
	case len(args) > 0:
		symbols = splitTickers(args[0])
	default:
		var (
			tickers []catalog.SupportedTicker
			err     error
		)
		if catalogFile != "" {
			tickers, err = catalog.ReadParquet(catalogFile)
		} else {
			tickers, err = e.loadCatalog(ctx)
		}
		if err != nil {
			return nil, fmt.Errorf("error loading catalog: %w", err)
		}
		symbols = catalog.Symbols(tickers)
	}

	skipped := append(append([]string{}, e.cfg.SkipTickers...), skip...)
	kept := catalog.Skip(symbols, skipped)
	if n := len(symbols) - len(kept); n > 0 {
		e.log.Info("skipped tickers", "count", n)
	}
	return kept, nil
}

// priceFetcher wires the shared client and failure ledger into a PriceFetcher
func (e *env) priceFetcher(client *resty.Client, failures *ledger.Ledger) *tiingo.PriceFetcher {
	return tiingo.NewPriceFetcher(tiingo.PriceFetcherConfig{
		Client:   client,
		Composer: tiingo.NewComposer(e.cfg.TiingoBaseURL, e.cfg.Token(), e.cfg.Format),
		Params: tiingo.PriceParams{
			StartDate:       e.cfg.MinStartDate,
			EndDate:         e.cfg.EndDate,
			Columns:         e.cfg.Columns,
			OutputDir:       e.cfg.OutputDir,
			AddTickerColumn: e.cfg.AddTickerColumn,
		},
		Limiter:  e.limiter,
		Recorder: failures,
		Logger:   e.log,
	})
}

// priceClient builds the client for the price API in the configured format
func (e *env) priceClient() *resty.Client {
	accept := "text/csv"
	if e.cfg.Format != tiingo.FormatCSV {
		accept = "application/json"
	}
	return e.newClient(accept)
}

// fetch runs the coordinator over symbols with the failure ledger attached.
// The ledger is returned closed, for its path and record count.
func (e *env) fetch(ctx context.Context, symbols []string) (*coordinator.Summary, *ledger.Ledger, error) {
	client := e.priceClient()
	defer client.Close()

	failures, err := ledger.Open(e.cfg.FailedTickersFile)
	if err != nil {
		return nil, nil, fmt.Errorf("error opening failure ledger: %w", err)
	}
	defer failures.Close()

	coord := coordinator.New(e.priceFetcher(client, failures), coordinator.Options{
		WindowSize:  e.cfg.WindowSize,
		HourlyQuota: e.cfg.HourlyQuota,
		Recorder:    failures,
		Logger:      e.log,
	})
	summary, err := coord.FetchAll(ctx, symbols)
	return summary, failures, err
}

func (e *env) printSummary(cmd *cobra.Command, s *coordinator.Summary, failures *ledger.Ledger) {
	w := cmd.OutOrStdout()
	fmt.Fprintf(w, "run %s: %d requested, %d saved, %d failed in %s\n",
		s.RunID, s.Requested, s.Saved, s.Failed, s.Duration.Round(time.Millisecond))

	types := make([]string, 0, len(s.ByType))
	for t := range s.ByType {
		types = append(types, t)
	}
	sort.Strings(types)
	for _, t := range types {
		fmt.Fprintf(w, "  %-15s %d\n", t, s.ByType[t])
	}

	// every failed outcome must have produced exactly one ledger line
	if recorded := failures.Count(); recorded != s.Failed {
		e.log.Warn("failure ledger out of step with run",
			"ledger", failures.Path(),
			"recorded", recorded,
			"failed", s.Failed)
	}

	failed := s.FailedSymbols()
	if len(failed) == 0 {
		return
	}
	fmt.Fprintf(w, "failed tickers appended to %s:\n", failures.Path())
	for _, sym := range failed {
		fmt.Fprintf(w, "  %s\n", sym)
	}
}
