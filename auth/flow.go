package auth

import (
	"context"
	"crypto/subtle"
	"fmt"
	"net/url"
	"sync/atomic"
	"time"

	"github.com/dvcrn/moves-go/apierror"
	"github.com/dvcrn/moves-go/config"
	"github.com/dvcrn/moves-go/credentials"
	"github.com/dvcrn/moves-go/internal/logger"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"golang.org/x/oauth2"
)

const opLogin = "login"

// Attempt is one login in progress. It is resolved by the first
// CompleteWithRedirect call and cannot be reused after that.
type Attempt struct {
	State string
	// URL is the browser authorization page.
	URL string
	// AppURL hands the same request to the installed Moves app.
	AppURL string

	resolved atomic.Bool
}

// Resolved reports whether the attempt has been completed, successfully or not.
func (a *Attempt) Resolved() bool {
	return a.resolved.Load()
}

// Flow drives the authorization-code login.
type Flow struct {
	cfg     config.Config
	store   credentials.Store
	tokens  *tokenClient
	browser *oauth2.Config
	app     *oauth2.Config
	logger  zerolog.Logger
	now     func() time.Time
}

// NewFlow creates a Flow that persists logins to store.
func NewFlow(cfg config.Config, store credentials.Store, opts ...Option) (*Flow, error) {
	cfg = cfg.WithDefaults()
	s, err := newSettings(cfg, opts)
	if err != nil {
		return nil, err
	}

	browser := &oauth2.Config{
		ClientID:     cfg.ClientID,
		ClientSecret: cfg.ClientSecret,
		RedirectURL:  cfg.RedirectURI,
		Scopes:       cfg.Scopes,
		Endpoint: oauth2.Endpoint{
			AuthURL:  cfg.AuthBaseURL + pathAuthorize,
			TokenURL: cfg.AuthBaseURL + pathAccessToken,
		},
	}
	app := *browser
	app.Endpoint.AuthURL = cfg.AppAuthorizeURL

	return &Flow{
		cfg:     cfg,
		store:   store,
		tokens:  &tokenClient{cfg: cfg, doer: s.doer, logger: s.logger},
		browser: browser,
		app:     &app,
		logger:  s.logger,
		now:     s.now,
	}, nil
}

// Begin starts a login attempt with a fresh random state.
func (f *Flow) Begin() *Attempt {
	state := uuid.NewString()
	return &Attempt{
		State:  state,
		URL:    f.browser.AuthCodeURL(state),
		AppURL: f.app.AuthCodeURL(state),
	}
}

// CompleteWithRedirect validates the redirect the user landed on, exchanges
// its code and persists the resulting credential. The attempt is resolved
// whatever the outcome.
func (f *Flow) CompleteWithRedirect(ctx context.Context, attempt *Attempt, redirectURL string) (*credentials.Credential, error) {
	if attempt == nil || !attempt.resolved.CompareAndSwap(false, true) {
		return nil, apierror.Newf(apierror.NotGranted, opLogin, "login attempt already used")
	}

	u, err := url.Parse(redirectURL)
	if err != nil {
		return nil, apierror.New(apierror.NotGranted, opLogin, fmt.Errorf("invalid redirect url: %w", err))
	}
	q := u.Query()

	if e := q.Get("error"); e != "" {
		f.logger.Info().Str("error", e).Msg("user did not grant access")
		if desc := q.Get("error_description"); desc != "" {
			return nil, apierror.Newf(apierror.NotGranted, opLogin, "%s: %s", e, desc)
		}
		return nil, apierror.Newf(apierror.NotGranted, opLogin, "%s", e)
	}

	code := q.Get("code")
	if code == "" {
		return nil, apierror.Newf(apierror.NotGranted, opLogin, "redirect carries no authorization code")
	}

	state := q.Get("state")
	if state == "" || subtle.ConstantTimeCompare([]byte(state), []byte(attempt.State)) != 1 {
		f.logger.Warn().Msg("⚠️ login redirect state mismatch, refusing code")
		return nil, apierror.Newf(apierror.NotGranted, opLogin, "state mismatch")
	}

	params := url.Values{}
	params.Set("grant_type", "authorization_code")
	params.Set("code", code)
	params.Set("redirect_uri", f.cfg.RedirectURI)

	reply, err := f.tokens.exchange(ctx, opLogin, params)
	if err != nil {
		return nil, err
	}
	if reply.RefreshToken == "" || reply.UserID == "" {
		return nil, apierror.Newf(apierror.UnexpectedError, opLogin, "token response is missing refresh_token or user_id")
	}

	cred := credentials.NewCredential(reply.AccessToken, reply.RefreshToken, reply.UserID, reply.ExpiresIn, f.now())
	if err := credentials.Save(f.store, cred); err != nil {
		return nil, apierror.New(apierror.UnexpectedError, opLogin, err)
	}

	f.logger.Info().
		Str("user_id", cred.UserID).
		Str("access_token", logger.Mask(cred.AccessToken)).
		Time("expires_at", cred.Expiry()).
		Msg("✅ logged in to Moves")
	return cred, nil
}
