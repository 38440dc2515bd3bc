// Package apierror defines the failure taxonomy returned by every public
// operation of the Moves client.
package apierror

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
)

// Kind classifies a failure. A Kind is itself an error so callers can match
// with errors.Is(err, apierror.Expired).
type Kind int

const (
	// Unknown is never produced by the library; it is what KindOf reports for
	// errors that did not come from it.
	Unknown Kind = iota
	// NotAuthenticated means no complete credential is stored.
	NotAuthenticated
	// NotGranted means the user declined, or the redirect failed CSRF checks.
	NotGranted
	// AuthFailed means the token endpoint rejected a code or refresh exchange.
	AuthFailed
	// Expired means the API rejected an access token believed to be fresh.
	Expired
	// BadResponse is any other non-200 data endpoint reply.
	BadResponse
	// InvalidResponse is a 200 reply whose body has the wrong shape.
	InvalidResponse
	// UnexpectedError covers transport failures, timeouts and parse errors.
	UnexpectedError
)

var kindNames = map[Kind]string{
	Unknown:          "unknown",
	NotAuthenticated: "not authenticated",
	NotGranted:       "not granted",
	AuthFailed:       "auth failed",
	Expired:          "expired",
	BadResponse:      "bad response",
	InvalidResponse:  "invalid response",
	UnexpectedError:  "unexpected error",
}

func (k Kind) String() string {
	if name, ok := kindNames[k]; ok {
		return name
	}
	return fmt.Sprintf("kind(%d)", int(k))
}

func (k Kind) Error() string {
	return k.String()
}

// Error is the concrete error returned across the public boundary.
type Error struct {
	Kind       Kind
	Op         string // e.g. "refresh", "GET /user/profile"
	StatusCode int    // 0 when no HTTP response was received
	Body       string // raw response body, kept for diagnostics
	Err        error
}

// New creates an Error of the given kind.
func New(kind Kind, op string, err error) *Error {
	return &Error{Kind: kind, Op: op, Err: err}
}

// Newf creates an Error whose cause is a formatted message.
func Newf(kind Kind, op, format string, args ...any) *Error {
	return &Error{Kind: kind, Op: op, Err: fmt.Errorf(format, args...)}
}

func (e *Error) Error() string {
	var b strings.Builder
	if e.Op != "" {
		b.WriteString(e.Op)
		b.WriteString(": ")
	}
	b.WriteString(e.Kind.String())
	if e.StatusCode != 0 {
		fmt.Fprintf(&b, " (status %d)", e.StatusCode)
	}
	if e.Err != nil {
		b.WriteString(": ")
		b.WriteString(e.Err.Error())
	} else if e.Body != "" {
		b.WriteString(": ")
		b.WriteString(preview(e.Body))
	}
	return b.String()
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Is matches a bare Kind target against the error's kind.
func (e *Error) Is(target error) bool {
	if k, ok := target.(Kind); ok {
		return e.Kind == k
	}
	return false
}

// KindOf returns the kind carried by err, or Unknown.
func KindOf(err error) Kind {
	var apiErr *Error
	if errors.As(err, &apiErr) {
		return apiErr.Kind
	}
	var k Kind
	if errors.As(err, &k) {
		return k
	}
	return Unknown
}

// Classify maps a non-200 data endpoint outcome to an error.
func Classify(op string, statusCode int, body []byte) *Error {
	kind := BadResponse
	if statusCode == http.StatusUnauthorized {
		kind = Expired
	}
	return &Error{
		Kind:       kind,
		Op:         op,
		StatusCode: statusCode,
		Body:       string(body),
	}
}

func preview(s string) string {
	if len(s) > 300 {
		return s[:300] + "…(truncated)"
	}
	return s
}
