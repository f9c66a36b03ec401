package tiingo

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"os"
	"path/filepath"

	"resty.dev/v3"

	"tickerfetch/internal/fetcher"
	"tickerfetch/internal/ratelimit"
	"tickerfetch/internal/secret"
)

// PriceParams holds the query and output settings shared by every symbol of a run
type PriceParams struct {
	StartDate       string
	EndDate         string
	Columns         []string
	OutputDir       string
	AddTickerColumn bool
}

// PriceFetcherConfig wires a PriceFetcher. Client and Composer are required.
type PriceFetcherConfig struct {
	Client   *resty.Client
	Composer Composer
	Params   PriceParams
	Limiter  *ratelimit.Limiter
	Recorder fetcher.FailureRecorder
	Logger   *slog.Logger
}

// PriceFetcher downloads the end-of-day history of one symbol and writes it to disk
type PriceFetcher struct {
	client   *resty.Client
	composer Composer
	params   PriceParams
	limiter  *ratelimit.Limiter
	recorder fetcher.FailureRecorder
	logger   *slog.Logger
}

var _ fetcher.Fetcher = (*PriceFetcher)(nil)

// NewPriceFetcher creates a new price history fetcher
func NewPriceFetcher(cfg PriceFetcherConfig) *PriceFetcher {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &PriceFetcher{
		client:   cfg.Client,
		composer: cfg.Composer,
		params:   cfg.Params,
		limiter:  cfg.Limiter,
		recorder: cfg.Recorder,
		logger:   logger,
	}
}

// Fetch issues one request for symbol and persists the response.
// Every failure is logged, recorded once and returned as data.
func (f *PriceFetcher) Fetch(ctx context.Context, symbol string) fetcher.Outcome {
	url := f.composer.ComposeURL(symbol, f.params.StartDate, f.params.EndDate, f.params.Columns)
	path := ComposePath(symbol, f.params.StartDate, f.params.OutputDir, f.composer.Format)
	return f.fetchTo(ctx, symbol, url, path, f.params.AddTickerColumn)
}

// FetchLastTradingDay downloads the latest end-of-day row of every supported
// ticker in one request. The body already names the ticker on every row, so it
// is written as is. A failure is recorded under LastTradingDayFile.
func (f *PriceFetcher) FetchLastTradingDay(ctx context.Context) fetcher.Outcome {
	url := f.composer.ComposeBulkURL()
	path := ComposeBulkPath(f.params.OutputDir, f.composer.Format)
	return f.fetchTo(ctx, LastTradingDayFile, url, path, false)
}

// fetchTo runs get, classify and save for one url
func (f *PriceFetcher) fetchTo(ctx context.Context, symbol, url, path string, augment bool) fetcher.Outcome {
	body, ferr := f.get(ctx, url)
	if ferr == nil {
		ferr = ClassifyBody(body, f.composer.Format)
	}
	if ferr == nil {
		ferr = f.save(symbol, body, path, augment)
	}
	if ferr != nil {
		return f.fail(symbol, url, ferr)
	}

	f.logger.Debug("saved prices", "ticker", symbol, "path", path)
	return fetcher.Saved(symbol, path)
}

// get performs the request and maps transport and status failures
func (f *PriceFetcher) get(ctx context.Context, url string) ([]byte, *fetcher.FetchError) {
	if err := f.limiter.Wait(ctx, ratelimit.APIPrices); err != nil {
		return nil, fetcher.NewTransportError(err)
	}

	resp, err := f.client.R().
		SetContext(ctx).
		Get(url)
	if err != nil {
		if isTimeout(err) {
			return nil, fetcher.NewTimeoutError(err)
		}
		return nil, fetcher.NewTransportError(err)
	}

	if !resp.IsSuccess() {
		return nil, fetcher.ClassifyHTTPError(resp.StatusCode())
	}

	return resp.Bytes(), nil
}

// save optionally augments the body and writes it to path, replacing any previous file
func (f *PriceFetcher) save(symbol string, body []byte, path string, augment bool) *fetcher.FetchError {
	if augment && f.composer.Format == FormatCSV {
		augmented, err := AddTickerColumn(body, symbol)
		if err != nil {
			return fetcher.NewUnexpectedError("failed to add ticker column", err)
		}
		body = augmented
	}

	if err := writeFileAtomic(path, body); err != nil {
		return fetcher.NewUnexpectedError("failed to write output file", err)
	}
	return nil
}

// fail logs a failed attempt and records it in the ledger
func (f *PriceFetcher) fail(symbol, url string, ferr *fetcher.FetchError) fetcher.Outcome {
	f.logger.Error("fetch failed",
		"ticker", symbol,
		"error_type", string(ferr.Type),
		"status_code", ferr.StatusCode,
		"url", secret.Redact(url),
		"error", secret.Redact(ferr.Error()))

	if f.recorder != nil {
		if err := f.recorder.Record(symbol); err != nil {
			f.logger.Error("failed to record failure", "ticker", symbol, "error", err)
		}
	}

	return fetcher.Failed(symbol, ferr)
}

// isTimeout reports whether err came from a deadline rather than a refused connection
func isTimeout(err error) bool {
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var netErr net.Error
	return errors.As(err, &netErr) && netErr.Timeout()
}

// writeFileAtomic writes through a temporary file in the same directory so
// readers never observe a half-written output file
func writeFileAtomic(path string, data []byte) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create output dir: %w", err)
	}

	tmp, err := os.CreateTemp(dir, "."+filepath.Base(path)+".*")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	tmpName := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("write temp file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("close temp file: %w", err)
	}
	if err := os.Chmod(tmpName, 0o644); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("chmod temp file: %w", err)
	}
	if err := os.Rename(tmpName, path); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("rename temp file: %w", err)
	}
	return nil
}
