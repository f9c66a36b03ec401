package coordinator

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/sourcegraph/conc/iter"
	"github.com/sourcegraph/conc/panics"

	"tickerfetch/internal/fetcher"
)

const (
	// DefaultWindowSize bounds how many requests are in flight at once
	DefaultWindowSize = 500
	// DefaultHourlyQuota is the provider's request allowance per rolling hour
	DefaultHourlyQuota = 10000
)

// ErrQuotaExceeded is matched by every *QuotaExceededError
var ErrQuotaExceeded = errors.New("hourly request quota exceeded")

// QuotaExceededError is returned before any request is sent when a run asks
// for more symbols than the hourly quota allows
type QuotaExceededError struct {
	Requested int
	Limit     int
}

func (e *QuotaExceededError) Error() string {
	return fmt.Sprintf("%s: %d symbols requested, limit is %d", ErrQuotaExceeded, e.Requested, e.Limit)
}

// Is lets errors.Is(err, ErrQuotaExceeded) match
func (e *QuotaExceededError) Is(target error) bool {
	return target == ErrQuotaExceeded
}

// CheckQuota returns a *QuotaExceededError when requested exceeds limit.
// A limit below one means DefaultHourlyQuota.
func CheckQuota(requested, limit int) error {
	if limit <= 0 {
		limit = DefaultHourlyQuota
	}
	if requested > limit {
		return &QuotaExceededError{Requested: requested, Limit: limit}
	}
	return nil
}

// Options configures a Coordinator. Zero values fall back to the defaults.
type Options struct {
	WindowSize  int
	HourlyQuota int
	// Recorder receives failures the fetcher could not record itself (panics)
	Recorder fetcher.FailureRecorder
	Logger   *slog.Logger
}

// Coordinator fans a symbol list out over a single-symbol Fetcher, one window at a time
type Coordinator struct {
	fetcher     fetcher.Fetcher
	windowSize  int
	hourlyQuota int
	recorder    fetcher.FailureRecorder
	logger      *slog.Logger
}

// New creates a new Coordinator around f
func New(f fetcher.Fetcher, opts Options) *Coordinator {
	if opts.WindowSize <= 0 {
		opts.WindowSize = DefaultWindowSize
	}
	if opts.HourlyQuota <= 0 {
		opts.HourlyQuota = DefaultHourlyQuota
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	return &Coordinator{
		fetcher:     f,
		windowSize:  opts.WindowSize,
		hourlyQuota: opts.HourlyQuota,
		recorder:    opts.Recorder,
		logger:      opts.Logger,
	}
}

// FetchAll attempts every symbol exactly once.
//
// Symbols are split into consecutive windows. All fetches of a window run
// concurrently and the next window starts only after every fetch of the
// current one has produced an outcome. Per-symbol failures never abort the
// run; they show up in the Summary and the failure ledger.
//
// The returned error is non-nil only when the quota check fails (no request
// is sent) or ctx ends between windows (the partial Summary is returned).
func (c *Coordinator) FetchAll(ctx context.Context, symbols []string) (*Summary, error) {
	if err := CheckQuota(len(symbols), c.hourlyQuota); err != nil {
		return nil, err
	}

	windows := Windows(symbols, c.windowSize)
	summary := newSummary(uuid.NewString(), len(symbols), len(windows))
	logger := c.logger.With("run_id", summary.RunID)
	start := time.Now()

	logger.Info("fetch run started",
		"symbols", len(symbols),
		"windows", len(windows),
		"window_size", c.windowSize)

	for i, window := range windows {
		if err := ctx.Err(); err != nil {
			summary.Duration = time.Since(start)
			logger.Warn("fetch run interrupted",
				"completed_windows", i,
				"windows", len(windows),
				"error", err)
			return summary, err
		}

		outcomes := c.runWindow(ctx, window)
		saved, failed := summary.add(outcomes)

		logger.Info("window done",
			"window", fmt.Sprintf("%d/%d", i+1, len(windows)),
			"symbols", len(window),
			"saved", saved,
			"failed", failed,
			"elapsed", time.Since(start).Round(time.Second))
	}

	summary.Duration = time.Since(start)
	logger.Info("fetch run finished",
		"saved", summary.Saved,
		"failed", summary.Failed,
		"by_type", summary.ByType,
		"duration", summary.Duration.Round(time.Millisecond))
	return summary, nil
}

// runWindow starts one goroutine per symbol and returns once all of them are done.
// Outcomes are positionally aligned with window.
func (c *Coordinator) runWindow(ctx context.Context, window []string) []fetcher.Outcome {
	mapper := iter.Mapper[string, fetcher.Outcome]{MaxGoroutines: len(window)}
	return mapper.Map(window, func(symbol *string) fetcher.Outcome {
		return c.fetchOne(ctx, *symbol)
	})
}

// fetchOne shields siblings from a panicking fetch by turning it into an unexpected failure
func (c *Coordinator) fetchOne(ctx context.Context, symbol string) fetcher.Outcome {
	var outcome fetcher.Outcome
	var pc panics.Catcher
	pc.Try(func() {
		outcome = c.fetcher.Fetch(ctx, symbol)
	})

	recovered := pc.Recovered()
	if recovered == nil {
		if outcome.Symbol == "" {
			outcome.Symbol = symbol
		}
		return outcome
	}

	ferr := fetcher.NewUnexpectedError("fetch panicked", recovered.AsError())
	c.logger.Error("fetch failed",
		"ticker", symbol,
		"error_type", string(ferr.Type),
		"error", fmt.Sprint(recovered.Value))
	if c.recorder != nil {
		if err := c.recorder.Record(symbol); err != nil {
			c.logger.Error("failed to record failure", "ticker", symbol, "error", err)
		}
	}
	return fetcher.Failed(symbol, ferr)
}

// Windows partitions symbols into consecutive slices of at most size elements.
// A size below one falls back to DefaultWindowSize.
func Windows(symbols []string, size int) [][]string {
	if size <= 0 {
		size = DefaultWindowSize
	}
	windows := make([][]string, 0, (len(symbols)+size-1)/size)
	for start := 0; start < len(symbols); start += size {
		end := min(start+size, len(symbols))
		windows = append(windows, symbols[start:end])
	}
	return windows
}
