// Package catalog downloads and selects the provider's universe of supported tickers
package catalog

import (
	"bytes"
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"slices"
	"strings"
	"time"

	"github.com/guregu/null/v6"
	"github.com/klauspost/compress/zip"
	"resty.dev/v3"

	"tickerfetch/internal/ratelimit"
	"tickerfetch/internal/secret"
)

// DefaultURL is the provider's supported tickers archive
const DefaultURL = "https://apimedia.tiingo.com/docs/tiingo/daily/supported_tickers.zip"

// DateLayout is the layout of every date in the catalog
const DateLayout = "2006-01-02"

var (
	// ErrDownload means the archive could not be retrieved
	ErrDownload = errors.New("catalog download failed")
	// ErrArchive means the archive could not be opened or does not hold exactly one file
	ErrArchive = errors.New("catalog archive invalid")
	// ErrParse means the delimited file does not match the expected schema
	ErrParse = errors.New("catalog parse failed")
)

// Columns is the expected header of the delimited file, in order
var Columns = []string{"ticker", "exchange", "assetType", "priceCurrency", "startDate", "endDate"}

// SupportedTicker is one row of the catalog. Dates are null when the provider
// has no coverage information.
type SupportedTicker struct {
	Ticker        string
	Exchange      string
	AssetType     string
	PriceCurrency string
	StartDate     null.Time
	EndDate       null.Time
}

// Loader downloads the catalog archive
type Loader struct {
	client  *resty.Client
	limiter *ratelimit.Limiter
	logger  *slog.Logger
}

// NewLoader creates a Loader on top of a shared client. limiter may be nil.
func NewLoader(client *resty.Client, limiter *ratelimit.Limiter, logger *slog.Logger) *Loader {
	if logger == nil {
		logger = slog.Default()
	}
	return &Loader{client: client, limiter: limiter, logger: logger}
}

// LoadSupportedTickers downloads the archive at sourceURL and decodes its single CSV file.
// Nothing is written to disk.
func (l *Loader) LoadSupportedTickers(ctx context.Context, sourceURL string) ([]SupportedTicker, error) {
	if sourceURL == "" {
		sourceURL = DefaultURL
	}
	start := time.Now()

	archive, err := l.download(ctx, sourceURL)
	if err != nil {
		return nil, err
	}

	csvData, err := UnzipSingleFile(archive)
	if err != nil {
		return nil, err
	}

	tickers, err := ParseCSV(bytes.NewReader(csvData))
	if err != nil {
		return nil, err
	}

	l.logger.Info("loaded supported tickers",
		"url", secret.Redact(sourceURL),
		"tickers", len(tickers),
		"archive_bytes", len(archive),
		"elapsed", time.Since(start).Round(time.Millisecond))
	return tickers, nil
}

func (l *Loader) download(ctx context.Context, sourceURL string) ([]byte, error) {
	if err := l.limiter.Wait(ctx, ratelimit.APICatalog); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrDownload, err)
	}

	resp, err := l.client.R().
		SetContext(ctx).
		SetHeader("Accept", "application/zip").
		Get(sourceURL)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrDownload, redactedError{err})
	}
	if !resp.IsSuccess() {
		return nil, fmt.Errorf("%w: status %d", ErrDownload, resp.StatusCode())
	}
	return resp.Bytes(), nil
}

// redactedError hides tokens in the message while keeping the cause reachable
// for errors.Is and errors.As
type redactedError struct {
	err error
}

func (e redactedError) Error() string { return secret.Redact(e.err.Error()) }

func (e redactedError) Unwrap() error { return e.err }

// UnzipSingleFile returns the contents of the only file inside a zip archive
func UnzipSingleFile(data []byte) ([]byte, error) {
	reader, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrArchive, err)
	}

	if len(reader.File) != 1 {
		return nil, fmt.Errorf("%w: expected exactly one file, found %d", ErrArchive, len(reader.File))
	}

	file := reader.File[0]
	f, err := file.Open()
	if err != nil {
		return nil, fmt.Errorf("%w: open %s: %w", ErrArchive, file.Name, err)
	}
	defer f.Close()

	content, err := io.ReadAll(f)
	if err != nil {
		return nil, fmt.Errorf("%w: read %s: %w", ErrArchive, file.Name, err)
	}
	return content, nil
}

// ParseCSV decodes the catalog file. The header must equal Columns exactly.
func ParseCSV(r io.Reader) ([]SupportedTicker, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = len(Columns)
	reader.ReuseRecord = true

	header, err := reader.Read()
	if err != nil {
		return nil, fmt.Errorf("%w: read header: %w", ErrParse, err)
	}
	if len(header) > 0 {
		header[0] = strings.TrimPrefix(header[0], "\ufeff")
	}
	if !slices.Equal(header, Columns) {
		return nil, fmt.Errorf("%w: header %q, want %q", ErrParse, strings.Join(header, ","), strings.Join(Columns, ","))
	}

	var tickers []SupportedTicker
	for {
		record, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("%w: %w", ErrParse, err)
		}

		line, _ := reader.FieldPos(0)
		startDate, err := parseDate(record[4])
		if err != nil {
			return nil, fmt.Errorf("%w: line %d: startDate: %w", ErrParse, line, err)
		}
		endDate, err := parseDate(record[5])
		if err != nil {
			return nil, fmt.Errorf("%w: line %d: endDate: %w", ErrParse, line, err)
		}

		tickers = append(tickers, SupportedTicker{
			Ticker:        record[0],
			Exchange:      record[1],
			AssetType:     record[2],
			PriceCurrency: record[3],
			StartDate:     startDate,
			EndDate:       endDate,
		})
	}
	return tickers, nil
}

// parseDate maps an empty field to a null date
func parseDate(s string) (null.Time, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return null.Time{}, nil
	}
	t, err := time.Parse(DateLayout, s)
	if err != nil {
		return null.Time{}, err
	}
	return null.TimeFrom(t), nil
}
