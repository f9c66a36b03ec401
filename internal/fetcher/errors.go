package fetcher

import (
	"fmt"
	"net/http"
)

// ErrorType represents the category of failure for a single-symbol fetch
type ErrorType string

const (
	// ErrorTypeTransport indicates the request never produced a response (connection refused, DNS, timeout)
	ErrorTypeTransport ErrorType = "transport"
	// ErrorTypeHTTPStatus indicates the server answered with a non-2xx status
	ErrorTypeHTTPStatus ErrorType = "http_status"
	// ErrorTypeEmptyResponse indicates a 2xx response whose body was empty or "[]"
	ErrorTypeEmptyResponse ErrorType = "empty_response"
	// ErrorTypeNoDataRows indicates a 2xx response carrying only a header line
	ErrorTypeNoDataRows ErrorType = "no_data_rows"
	// ErrorTypeUnexpected indicates any other failure, including panics inside a fetch
	ErrorTypeUnexpected ErrorType = "unexpected"
)

// FetchError represents a structured error from a fetch operation
type FetchError struct {
	Type       ErrorType
	Retryable  bool
	StatusCode int
	Message    string
	Cause      error
}

// Error implements the error interface
func (e *FetchError) Error() string {
	if e.StatusCode > 0 {
		return fmt.Sprintf("%s error (status %d): %s", e.Type, e.StatusCode, e.Message)
	}
	if e.Cause != nil {
		return fmt.Sprintf("%s error: %s: %v", e.Type, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s error: %s", e.Type, e.Message)
}

// Unwrap implements error unwrapping for errors.Is and errors.As
func (e *FetchError) Unwrap() error {
	return e.Cause
}

// NewTransportError creates a transport error
func NewTransportError(cause error) *FetchError {
	return &FetchError{
		Type:      ErrorTypeTransport,
		Retryable: true,
		Message:   "network request failed",
		Cause:     cause,
	}
}

// NewTimeoutError creates a transport error for a request that ran out of time
func NewTimeoutError(cause error) *FetchError {
	return &FetchError{
		Type:      ErrorTypeTransport,
		Retryable: true,
		Message:   "request timed out",
		Cause:     cause,
	}
}

// NewHTTPStatusError creates an HTTP status error
func NewHTTPStatusError(statusCode int, message string) *FetchError {
	return &FetchError{
		Type:       ErrorTypeHTTPStatus,
		Retryable:  retryableStatus(statusCode),
		StatusCode: statusCode,
		Message:    message,
	}
}

// NewEmptyResponseError creates an empty response error
func NewEmptyResponseError() *FetchError {
	return &FetchError{
		Type:    ErrorTypeEmptyResponse,
		Message: "response body is empty",
	}
}

// NewNoDataRowsError creates a no data rows error
func NewNoDataRowsError() *FetchError {
	return &FetchError{
		Type:    ErrorTypeNoDataRows,
		Message: "response holds a header but no data rows",
	}
}

// NewUnexpectedError creates an unexpected error
func NewUnexpectedError(message string, cause error) *FetchError {
	return &FetchError{
		Type:    ErrorTypeUnexpected,
		Message: message,
		Cause:   cause,
	}
}

// retryableStatus reports whether a status is worth another attempt:
// throttling, request timeout and server errors
func retryableStatus(statusCode int) bool {
	return statusCode == http.StatusTooManyRequests ||
		statusCode == http.StatusRequestTimeout ||
		statusCode >= 500
}

// ClassifyHTTPError classifies a non-2xx HTTP status code into a FetchError
func ClassifyHTTPError(statusCode int) *FetchError {
	switch {
	case statusCode == http.StatusTooManyRequests:
		return NewHTTPStatusError(statusCode, "rate limit exceeded")
	case statusCode >= 500:
		return NewHTTPStatusError(statusCode, "server returned an error")
	case statusCode >= 400:
		return NewHTTPStatusError(statusCode, fmt.Sprintf("client error: HTTP %d", statusCode))
	default:
		return NewHTTPStatusError(statusCode, fmt.Sprintf("unexpected status code: %d", statusCode))
	}
}
