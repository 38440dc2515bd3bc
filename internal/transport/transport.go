// Package transport builds the HTTP client shared by the token and data
// endpoints.
package transport

import (
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"net/http"
	"regexp"
	"time"

	retry "github.com/appleboy/go-httpretry"
	"github.com/rs/zerolog"
)

const (
	// DefaultTimeout bounds a single HTTP attempt.
	DefaultTimeout = 30 * time.Second

	maxRetries        = 2
	initialRetryDelay = 200 * time.Millisecond
	maxRetryDelay     = 2 * time.Second
)

// Doer sends a request under ctx. *Client satisfies it.
type Doer interface {
	DoWithContext(ctx context.Context, req *http.Request) (*http.Response, error)
}

// NewHTTPClient returns the base client: TLS 1.2+, pooled connections and a
// per-attempt timeout.
func NewHTTPClient(timeout time.Duration) *http.Client {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &http.Client{
		Timeout: timeout,
		Transport: &http.Transport{
			Proxy: http.ProxyFromEnvironment,
			TLSClientConfig: &tls.Config{
				MinVersion: tls.VersionTLS12,
			},
			MaxIdleConns:        10,
			IdleConnTimeout:     90 * time.Second,
			TLSHandshakeTimeout: 10 * time.Second,
		},
	}
}

// Client retries idempotent requests that failed before any response
// arrived. Every HTTP status, and every non-idempotent request, goes back to
// the caller after one attempt: token exchanges carry single-use codes and
// rotating refresh tokens.
type Client struct {
	idempotent *retry.Client
	once       *retry.Client
}

// New wraps base (or a fresh client when base is nil). Retry events are
// logged to log with query strings removed.
func New(base *http.Client, timeout time.Duration, log zerolog.Logger) (*Client, error) {
	if base == nil {
		base = NewHTTPClient(timeout)
	}
	adapter := &retryLogger{log: log}

	idempotent, err := retry.NewClient(
		retry.WithHTTPClient(base),
		retry.WithMaxRetries(maxRetries),
		retry.WithInitialRetryDelay(initialRetryDelay),
		retry.WithMaxRetryDelay(maxRetryDelay),
		retry.WithRetryableChecker(transportFailure),
		retry.WithLogger(adapter),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create retry client: %w", err)
	}
	once, err := retry.NewClient(
		retry.WithHTTPClient(base),
		retry.WithMaxRetries(0),
		retry.WithRetryableChecker(transportFailure),
		retry.WithLogger(adapter),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create retry client: %w", err)
	}
	return &Client{idempotent: idempotent, once: once}, nil
}

// DoWithContext sends req, retrying it only when it is idempotent.
func (c *Client) DoWithContext(ctx context.Context, req *http.Request) (*http.Response, error) {
	switch req.Method {
	case http.MethodGet, http.MethodHead:
		return c.idempotent.DoWithContext(ctx, req)
	default:
		return c.once.DoWithContext(ctx, req)
	}
}

// transportFailure retries network errors only. A status code is an answer
// and is never retried here.
func transportFailure(err error, _ *http.Response) bool {
	if err == nil {
		return false
	}
	return !errors.Is(err, context.Canceled) && !errors.Is(err, context.DeadlineExceeded)
}

// Requests carry credentials in the query string.
var queryPattern = regexp.MustCompile(`\?[^\s"']*`)

// StripQuery removes every query string from s.
func StripQuery(s string) string {
	return queryPattern.ReplaceAllString(s, "")
}

type redactedError struct {
	msg string
	err error
}

func (e *redactedError) Error() string { return e.msg }
func (e *redactedError) Unwrap() error { return e.err }

// Redact returns err with query strings removed from its message. The
// original stays reachable through errors.Is and errors.As.
func Redact(err error) error {
	if err == nil {
		return nil
	}
	return &redactedError{msg: StripQuery(err.Error()), err: err}
}

// retryLogger sends go-httpretry's events to zerolog.
type retryLogger struct {
	log zerolog.Logger
}

func (l *retryLogger) Debug(msg string, args ...any) { l.emit(l.log.Debug(), msg, args) }
func (l *retryLogger) Info(msg string, args ...any)  { l.emit(l.log.Info(), msg, args) }
func (l *retryLogger) Warn(msg string, args ...any)  { l.emit(l.log.Warn(), msg, args) }
func (l *retryLogger) Error(msg string, args ...any) { l.emit(l.log.Error(), msg, args) }

func (l *retryLogger) emit(ev *zerolog.Event, msg string, args []any) {
	if ev == nil {
		return
	}
	fields := make([]any, 0, len(args))
	for i := 0; i+1 < len(args); i += 2 {
		val := args[i+1]
		switch v := val.(type) {
		case string:
			val = StripQuery(v)
		case error:
			val = StripQuery(v.Error())
		}
		fields = append(fields, args[i], val)
	}
	ev.Fields(fields).Msg(msg)
}
