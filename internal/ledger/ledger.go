// Package ledger keeps the append-only record of failed fetch attempts
package ledger

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"
)

// Header is the first line of every ledger file
const Header = "ticker,date"

// DateLayout is the layout of the date column
const DateLayout = "2006-01-02"

// Ledger appends one "ticker,date" line per failed symbol. It is safe for
// concurrent use; each record is written with a single write call.
type Ledger struct {
	mu    sync.Mutex
	file  *os.File
	path  string
	now   func() time.Time
	count int
}

// Option configures a Ledger
type Option func(*Ledger)

// WithClock replaces time.Now as the source of the failure date
func WithClock(now func() time.Time) Option {
	return func(l *Ledger) {
		l.now = now
	}
}

// Open opens path for appending, creating parent directories and seeding the
// header when the file is missing or empty. An existing file whose last line
// lacks a newline is terminated first so records always start on a fresh line.
func Open(path string, opts ...Option) (*Ledger, error) {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create ledger dir: %w", err)
		}
	}

	f, err := os.OpenFile(path, os.O_CREATE|os.O_RDWR|os.O_APPEND, 0o644)
	if err != nil {
		return nil, fmt.Errorf("open ledger %s: %w", path, err)
	}

	info, err := f.Stat()
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("stat ledger %s: %w", path, err)
	}
	if err := terminate(f, info.Size()); err != nil {
		f.Close()
		return nil, fmt.Errorf("prepare ledger %s: %w", path, err)
	}

	l := &Ledger{file: f, path: path, now: time.Now}
	for _, opt := range opts {
		opt(l)
	}
	return l, nil
}

// terminate writes the header into an empty file, or a newline when the
// existing content does not end with one
func terminate(f *os.File, size int64) error {
	if size == 0 {
		_, err := f.WriteString(Header + "\n")
		return err
	}

	last := make([]byte, 1)
	if _, err := f.ReadAt(last, size-1); err != nil {
		return err
	}
	if last[0] != '\n' {
		_, err := f.WriteString("\n")
		return err
	}
	return nil
}

// Path returns the ledger file location
func (l *Ledger) Path() string {
	return l.path
}

// Record appends symbol with today's date. It implements fetcher.FailureRecorder.
func (l *Ledger) Record(symbol string) error {
	return l.RecordFailure(symbol, l.now())
}

// RecordFailure appends symbol with the date of the failed attempt
func (l *Ledger) RecordFailure(symbol string, at time.Time) error {
	line := formatLine(symbol, at)

	l.mu.Lock()
	defer l.mu.Unlock()
	if l.file == nil {
		return fmt.Errorf("ledger %s is closed", l.path)
	}
	if _, err := l.file.WriteString(line); err != nil {
		return fmt.Errorf("append to ledger: %w", err)
	}
	l.count++
	return nil
}

// Count returns the number of records appended through this Ledger
func (l *Ledger) Count() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.count
}

// Close flushes and releases the file. Further records fail.
func (l *Ledger) Close() error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.file == nil {
		return nil
	}
	err := l.file.Close()
	l.file = nil
	return err
}

// formatLine keeps a record on one line even for hostile symbols
func formatLine(symbol string, at time.Time) string {
	symbol = strings.NewReplacer(",", "_", "\n", "", "\r", "").Replace(symbol)
	return symbol + "," + at.Format(DateLayout) + "\n"
}
