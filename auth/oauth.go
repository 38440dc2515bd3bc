// Package auth runs the Moves authorization-code login and keeps the stored
// credential fresh.
package auth

import (
	"context"
	"fmt"
	"io"
	"math"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/dvcrn/moves-go/apierror"
	"github.com/dvcrn/moves-go/config"
	"github.com/dvcrn/moves-go/internal/jsonx"
	"github.com/dvcrn/moves-go/internal/transport"
	"github.com/rs/zerolog"
	"golang.org/x/oauth2"
)

const (
	pathAuthorize   = "/authorize"
	pathAccessToken = "/access_token"

	// maxExpiresIn is the longest lifetime, in seconds, a time.Duration holds.
	maxExpiresIn = math.MaxInt64 / int64(time.Second)
)

// Option configures a Flow or Refresher.
type Option func(*settings)

type settings struct {
	logger zerolog.Logger
	doer   transport.Doer
	now    func() time.Time
}

// WithLogger sets the logger. The default discards everything.
func WithLogger(l zerolog.Logger) Option {
	return func(s *settings) { s.logger = l }
}

// WithHTTPClient replaces the retrying transport.
func WithHTTPClient(d transport.Doer) Option {
	return func(s *settings) { s.doer = d }
}

// WithClock replaces time.Now.
func WithClock(now func() time.Time) Option {
	return func(s *settings) { s.now = now }
}

func newSettings(cfg config.Config, opts []Option) (*settings, error) {
	s := &settings{logger: zerolog.Nop(), now: time.Now}
	for _, opt := range opts {
		opt(s)
	}
	if s.doer == nil {
		d, err := transport.New(nil, cfg.HTTPTimeout, s.logger)
		if err != nil {
			return nil, err
		}
		s.doer = d
	}
	return s, nil
}

// tokenReply is the decoded token endpoint response. Fields the server
// omitted are empty.
type tokenReply struct {
	AccessToken  string
	RefreshToken string
	UserID       string
	ExpiresIn    time.Duration
}

// tokenClient talks to the access_token endpoint. Moves takes every
// parameter in the query string of a bodiless POST.
type tokenClient struct {
	cfg    config.Config
	doer   transport.Doer
	logger zerolog.Logger
}

func (t *tokenClient) exchange(ctx context.Context, op string, params url.Values) (*tokenReply, error) {
	params.Set("client_id", t.cfg.ClientID)
	params.Set("client_secret", t.cfg.ClientSecret)

	ctx, cancel := context.WithTimeout(ctx, t.cfg.HTTPTimeout)
	defer cancel()

	endpoint := t.cfg.AuthBaseURL + pathAccessToken + "?" + params.Encode()
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, nil)
	if err != nil {
		return nil, apierror.New(apierror.UnexpectedError, op, fmt.Errorf("failed to create request: %w", err))
	}
	req.Header.Set("Accept", "application/json")

	resp, err := t.doer.DoWithContext(ctx, req)
	if err != nil {
		return nil, apierror.New(apierror.UnexpectedError, op, fmt.Errorf("request failed: %w", transport.Redact(err)))
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, apierror.New(apierror.UnexpectedError, op, fmt.Errorf("failed to read response: %w", err))
	}

	if resp.StatusCode != http.StatusOK {
		t.logger.Warn().
			Str("op", op).
			Int("status_code", resp.StatusCode).
			Msg("token endpoint rejected the exchange")
		return nil, &apierror.Error{
			Kind:       apierror.AuthFailed,
			Op:         op,
			StatusCode: resp.StatusCode,
			Body:       string(body),
			Err:        &oauth2.RetrieveError{Response: resp, Body: body},
		}
	}

	reply, err := parseTokenReply(body)
	if err != nil {
		return nil, apierror.New(apierror.UnexpectedError, op, err)
	}
	return reply, nil
}

func parseTokenReply(body []byte) (*tokenReply, error) {
	v, err := jsonx.Decode(body)
	if err != nil {
		return nil, fmt.Errorf("failed to parse token response: %w", err)
	}
	obj, ok := v.(jsonx.Object)
	if !ok {
		return nil, fmt.Errorf("token response is not a JSON object")
	}

	reply := &tokenReply{
		AccessToken:  jsonx.String(obj, "access_token"),
		RefreshToken: jsonx.String(obj, "refresh_token"),
		UserID:       jsonx.String(obj, "user_id"),
	}
	if reply.AccessToken == "" {
		return nil, fmt.Errorf("token response has no access_token")
	}

	// expires_in arrives as a number or a numeric string depending on the server.
	raw := strings.TrimSpace(jsonx.String(obj, "expires_in"))
	secs, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		f, ferr := strconv.ParseFloat(raw, 64)
		if ferr != nil || math.IsNaN(f) || f <= 0 || f > float64(maxExpiresIn) {
			return nil, fmt.Errorf("invalid expires_in %q", raw)
		}
		secs = int64(f)
	}
	if secs <= 0 || secs > maxExpiresIn {
		return nil, fmt.Errorf("invalid expires_in %q", raw)
	}
	reply.ExpiresIn = time.Duration(secs) * time.Second
	return reply, nil
}
