package fetcher

import (
	"bytes"
	"context"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"resty.dev/v3"
)

func TestNewHTTPClient_NoRetriesByDefault(t *testing.T) {
	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer server.Close()

	client := NewHTTPClient(ClientOptions{})
	defer client.Close()

	resp, err := client.R().SetContext(context.Background()).Get(server.URL)
	if err != nil {
		t.Fatalf("Get() returned unexpected error: %v", err)
	}
	if resp.StatusCode() != http.StatusInternalServerError {
		t.Errorf("StatusCode() = %d, want 500", resp.StatusCode())
	}
	if got := calls.Load(); got != 1 {
		t.Errorf("server saw %d calls, want 1", got)
	}
}

func TestNewHTTPClient_RetriesServerErrors(t *testing.T) {
	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) < 3 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("date,close\n2024-01-02,1.0\n"))
	}))
	defer server.Close()

	var logs bytes.Buffer
	client := NewHTTPClient(ClientOptions{
		RetryCount:       3,
		RetryWaitTime:    time.Millisecond,
		RetryMaxWaitTime: 5 * time.Millisecond,
		Logger:           slog.New(slog.NewTextHandler(&logs, &slog.HandlerOptions{Level: slog.LevelDebug})),
	})
	defer client.Close()

	resp, err := client.R().Get(server.URL + "/AAPL/prices?token=abc123")
	if err != nil {
		t.Fatalf("Get() returned unexpected error: %v", err)
	}
	if !resp.IsSuccess() {
		t.Errorf("IsSuccess() = false, status %d", resp.StatusCode())
	}
	if got := calls.Load(); got != 3 {
		t.Errorf("server saw %d calls, want 3", got)
	}
	if strings.Contains(logs.String(), "abc123") {
		t.Errorf("retry logs leaked token: %s", logs.String())
	}
}

func TestRetryCondition(t *testing.T) {
	if !retryCondition(nil, context.DeadlineExceeded) {
		t.Error("retryCondition should retry on transport errors")
	}

	tests := []struct {
		statusCode int
		want       bool
	}{
		{200, false},
		{404, false},
		{408, true},
		{429, true},
		{500, true},
		{503, true},
	}

	for _, tt := range tests {
		resp := &resty.Response{RawResponse: &http.Response{StatusCode: tt.statusCode}}
		if got := retryCondition(resp, nil); got != tt.want {
			t.Errorf("retryCondition(%d) = %v, want %v", tt.statusCode, got, tt.want)
		}
		if tt.statusCode >= 400 && ClassifyHTTPError(tt.statusCode).Retryable != tt.want {
			t.Errorf("ClassifyHTTPError(%d).Retryable disagrees with retryCondition", tt.statusCode)
		}
	}
}
