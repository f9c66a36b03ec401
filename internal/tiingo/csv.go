package tiingo

import (
	"bytes"
	"encoding/csv"
	"errors"
	"fmt"
	"io"

	"tickerfetch/internal/fetcher"
)

// TickerColumn is the name of the column appended to every row when enabled
const TickerColumn = "ticker"

// FormatCSV is the only format whose rows are inspected and augmented
const FormatCSV = "csv"

// ClassifyBody applies the body rules of a 2xx response, in order:
//  1. empty or "[]" (ignoring surrounding whitespace) is an empty response
//  2. a CSV body with a single non-blank line is a header without data rows
//
// A nil result means the body carries data.
func ClassifyBody(body []byte, format string) *fetcher.FetchError {
	trimmed := bytes.TrimSpace(body)
	if len(trimmed) == 0 || string(trimmed) == "[]" {
		return fetcher.NewEmptyResponseError()
	}
	if format == FormatCSV && nonBlankLines(trimmed, 2) < 2 {
		return fetcher.NewNoDataRowsError()
	}
	return nil
}

// nonBlankLines counts lines holding something other than whitespace, stopping at limit
func nonBlankLines(data []byte, limit int) int {
	n := 0
	for len(data) > 0 && n < limit {
		line := data
		if i := bytes.IndexByte(data, '\n'); i >= 0 {
			line, data = data[:i], data[i+1:]
		} else {
			data = nil
		}
		if len(bytes.TrimSpace(line)) > 0 {
			n++
		}
	}
	return n
}

// AddTickerColumn appends a constant ticker column to every row of csvData,
// including the header.
func AddTickerColumn(csvData []byte, ticker string) ([]byte, error) {
	reader := csv.NewReader(bytes.NewReader(csvData))
	reader.ReuseRecord = true

	var buf bytes.Buffer
	buf.Grow(len(csvData) + len(csvData)/8)
	writer := csv.NewWriter(&buf)

	header, err := reader.Read()
	if err != nil {
		return nil, fmt.Errorf("failed to read CSV header: %w", err)
	}
	if err := writer.Write(append(header, TickerColumn)); err != nil {
		return nil, fmt.Errorf("failed to write CSV header: %w", err)
	}

	for {
		record, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to read CSV data: %w", err)
		}
		if err := writer.Write(append(record, ticker)); err != nil {
			return nil, fmt.Errorf("failed to write CSV data: %w", err)
		}
	}

	writer.Flush()
	if err := writer.Error(); err != nil {
		return nil, fmt.Errorf("failed to flush CSV writer: %w", err)
	}
	return buf.Bytes(), nil
}
