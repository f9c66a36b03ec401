package fetcher

import (
	"fmt"
	"log/slog"
	"time"

	"resty.dev/v3"

	"tickerfetch/internal/secret"
)

const (
	// Default client configuration
	defaultTimeout          = 30 * time.Second
	defaultRetryWaitTime    = 1 * time.Second
	defaultRetryMaxWaitTime = 10 * time.Second
)

// ClientOptions configures the shared HTTP client.
// The zero value gives a client with the default timeout and no retries.
type ClientOptions struct {
	Timeout          time.Duration
	RetryCount       int
	RetryWaitTime    time.Duration
	RetryMaxWaitTime time.Duration
	Accept           string
	Logger           *slog.Logger
}

// NewHTTPClient creates the connection-pooling client shared by every fetch of a run.
// Retries are off unless RetryCount > 0; when enabled they back off exponentially.
func NewHTTPClient(opts ClientOptions) *resty.Client {
	if opts.Timeout <= 0 {
		opts.Timeout = defaultTimeout
	}
	if opts.RetryWaitTime <= 0 {
		opts.RetryWaitTime = defaultRetryWaitTime
	}
	if opts.RetryMaxWaitTime <= 0 {
		opts.RetryMaxWaitTime = defaultRetryMaxWaitTime
	}
	if opts.Accept == "" {
		opts.Accept = "text/csv"
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}

	client := resty.New().
		SetTimeout(opts.Timeout).
		SetHeader("Accept", opts.Accept).
		SetLogger(&redactingLogger{log: logger}).
		SetRetryCount(opts.RetryCount).
		SetRetryWaitTime(opts.RetryWaitTime).
		SetRetryMaxWaitTime(opts.RetryMaxWaitTime).
		AddRetryConditions(retryCondition).
		AddRetryHooks(retryHook(logger))

	return client
}

// retryCondition retries transport failures and the statuses ClassifyHTTPError marks
// retryable. A successful but empty body is "no coverage", not a transient fault.
func retryCondition(r *resty.Response, err error) bool {
	if err != nil {
		return NewTransportError(err).Retryable
	}
	if r == nil || r.IsSuccess() {
		return false
	}
	return ClassifyHTTPError(r.StatusCode()).Retryable
}

// retryHook logs retry attempts with the token stripped from the URL
func retryHook(logger *slog.Logger) resty.RetryHookFunc {
	return func(r *resty.Response, err error) {
		if r == nil || r.Request == nil {
			return
		}
		url := secret.Redact(r.Request.URL)
		if err != nil {
			logger.Debug("retrying request due to error",
				"url", url,
				"attempt", r.Request.Attempt,
				"error", secret.Redact(err.Error()))
			return
		}

		logger.Debug("retrying request due to status code",
			"url", url,
			"attempt", r.Request.Attempt,
			"status_code", r.StatusCode())
	}
}

// redactingLogger routes resty's internal logging through slog without leaking tokens
type redactingLogger struct {
	log *slog.Logger
}

func (l *redactingLogger) Errorf(format string, v ...any) {
	l.log.Error(secret.Redact(fmt.Sprintf(format, v...)), "component", "resty")
}

func (l *redactingLogger) Warnf(format string, v ...any) {
	l.log.Warn(secret.Redact(fmt.Sprintf(format, v...)), "component", "resty")
}

func (l *redactingLogger) Debugf(format string, v ...any) {
	l.log.Debug(secret.Redact(fmt.Sprintf(format, v...)), "component", "resty")
}
