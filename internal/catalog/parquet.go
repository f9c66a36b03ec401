package catalog

import (
	"fmt"
	"time"

	"github.com/guregu/null/v6"
	"github.com/parquet-go/parquet-go"
)

// parquetRow is the on-disk schema of an exported catalog. Dates are kept as
// optional YYYY-MM-DD strings, matching the CSV the provider ships.
type parquetRow struct {
	Ticker        string  `parquet:"ticker"`
	Exchange      string  `parquet:"exchange"`
	AssetType     string  `parquet:"assetType"`
	PriceCurrency string  `parquet:"priceCurrency"`
	StartDate     *string `parquet:"startDate,optional"`
	EndDate       *string `parquet:"endDate,optional"`
}

// WriteParquet exports tickers so the downstream loader can ingest the selection
func WriteParquet(path string, tickers []SupportedTicker) error {
	rows := make([]parquetRow, len(tickers))
	for i, t := range tickers {
		rows[i] = parquetRow{
			Ticker:        t.Ticker,
			Exchange:      t.Exchange,
			AssetType:     t.AssetType,
			PriceCurrency: t.PriceCurrency,
			StartDate:     formatDate(t.StartDate),
			EndDate:       formatDate(t.EndDate),
		}
	}
	if err := parquet.WriteFile(path, rows); err != nil {
		return fmt.Errorf("write catalog parquet %s: %w", path, err)
	}
	return nil
}

// ReadParquet loads a catalog previously written by WriteParquet
func ReadParquet(path string) ([]SupportedTicker, error) {
	rows, err := parquet.ReadFile[parquetRow](path)
	if err != nil {
		return nil, fmt.Errorf("read catalog parquet %s: %w", path, err)
	}

	tickers := make([]SupportedTicker, len(rows))
	for i, r := range rows {
		start, err := parseDatePtr(r.StartDate)
		if err != nil {
			return nil, fmt.Errorf("%w: row %d: startDate: %w", ErrParse, i, err)
		}
		end, err := parseDatePtr(r.EndDate)
		if err != nil {
			return nil, fmt.Errorf("%w: row %d: endDate: %w", ErrParse, i, err)
		}
		tickers[i] = SupportedTicker{
			Ticker:        r.Ticker,
			Exchange:      r.Exchange,
			AssetType:     r.AssetType,
			PriceCurrency: r.PriceCurrency,
			StartDate:     start,
			EndDate:       end,
		}
	}
	return tickers, nil
}

func formatDate(t null.Time) *string {
	if !t.Valid {
		return nil
	}
	s := t.Time.Format(DateLayout)
	return &s
}

func parseDatePtr(s *string) (null.Time, error) {
	if s == nil {
		return null.Time{}, nil
	}
	t, err := time.Parse(DateLayout, *s)
	if err != nil {
		return null.Time{}, err
	}
	return null.TimeFrom(t), nil
}
