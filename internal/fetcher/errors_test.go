package fetcher

import (
	"errors"
	"testing"
)

func TestClassifyHTTPError(t *testing.T) {
	tests := []struct {
		statusCode    int
		wantRetryable bool
	}{
		{400, false},
		{401, false},
		{404, false},
		{408, true},
		{429, true},
		{500, true},
		{503, true},
		{302, false},
	}

	for _, tt := range tests {
		err := ClassifyHTTPError(tt.statusCode)
		if err.Type != ErrorTypeHTTPStatus {
			t.Errorf("ClassifyHTTPError(%d).Type = %q, want %q", tt.statusCode, err.Type, ErrorTypeHTTPStatus)
		}
		if err.StatusCode != tt.statusCode {
			t.Errorf("ClassifyHTTPError(%d).StatusCode = %d", tt.statusCode, err.StatusCode)
		}
		if err.Retryable != tt.wantRetryable {
			t.Errorf("ClassifyHTTPError(%d).Retryable = %v, want %v", tt.statusCode, err.Retryable, tt.wantRetryable)
		}
	}
}

func TestFetchError_Error(t *testing.T) {
	tests := []struct {
		name string
		err  *FetchError
		want string
	}{
		{"status", ClassifyHTTPError(404), "http_status error (status 404): client error: HTTP 404"},
		{"empty", NewEmptyResponseError(), "empty_response error: response body is empty"},
		{"no rows", NewNoDataRowsError(), "no_data_rows error: response holds a header but no data rows"},
		{"cause", NewTransportError(errors.New("connection refused")), "transport error: network request failed: connection refused"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.err.Error(); got != tt.want {
				t.Errorf("Error() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestFetchError_Unwrap(t *testing.T) {
	cause := errors.New("boom")
	err := NewUnexpectedError("write failed", cause)

	if !errors.Is(err, cause) {
		t.Error("errors.Is(err, cause) = false, want true")
	}
}

func TestOutcome(t *testing.T) {
	saved := Saved("AAPL", "data/AAPL_2022-01-01.csv")
	if !saved.OK() || saved.Type() != "saved" {
		t.Errorf("Saved outcome: OK() = %v, Type() = %q", saved.OK(), saved.Type())
	}

	failed := Failed("AAPL", NewEmptyResponseError())
	if failed.OK() || failed.Type() != string(ErrorTypeEmptyResponse) {
		t.Errorf("Failed outcome: OK() = %v, Type() = %q", failed.OK(), failed.Type())
	}
}
