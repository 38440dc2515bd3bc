// Package moves is a client for the Moves activity-tracking API. It handles
// login, keeps the stored credential fresh and decodes the daily endpoints.
package moves

import (
	"context"
	"fmt"
	"time"

	"github.com/dvcrn/moves-go/apierror"
	"github.com/dvcrn/moves-go/auth"
	"github.com/dvcrn/moves-go/config"
	"github.com/dvcrn/moves-go/credentials"
	"github.com/dvcrn/moves-go/internal/logger"
	"github.com/dvcrn/moves-go/internal/transport"
	"github.com/rs/zerolog"
	"golang.org/x/oauth2"
)

// Doer sends HTTP requests. The default retries transient failures.
type Doer = transport.Doer

// Option configures a Client.
type Option func(*options)

type options struct {
	logger zerolog.Logger
	doer   Doer
	now    func() time.Time
}

// WithLogger sets the logger. The default discards everything.
func WithLogger(l zerolog.Logger) Option {
	return func(o *options) { o.logger = l }
}

// WithHTTPClient replaces the HTTP transport for token and data requests.
func WithHTTPClient(d Doer) Option {
	return func(o *options) { o.doer = d }
}

// WithClock replaces time.Now, for expiry decisions.
func WithClock(now func() time.Time) Option {
	return func(o *options) { o.now = now }
}

// Client is safe for concurrent use. All clients sharing a Store share one
// credential.
type Client struct {
	cfg       config.Config
	store     credentials.Store
	flow      *auth.Flow
	refresher *auth.Refresher
	doer      Doer
	logger    zerolog.Logger
}

// New creates a Client persisting its credential in store. A nil store keeps
// the credential in memory only.
func New(cfg config.Config, store credentials.Store, opts ...Option) (*Client, error) {
	cfg = cfg.WithDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if store == nil {
		store = credentials.NewMemoryStore()
	}

	o := &options{logger: zerolog.Nop(), now: time.Now}
	for _, opt := range opts {
		opt(o)
	}
	if o.doer == nil {
		d, err := transport.New(nil, cfg.HTTPTimeout, o.logger)
		if err != nil {
			return nil, err
		}
		o.doer = d
	}

	authOpts := []auth.Option{
		auth.WithLogger(o.logger),
		auth.WithHTTPClient(o.doer),
		auth.WithClock(o.now),
	}
	flow, err := auth.NewFlow(cfg, store, authOpts...)
	if err != nil {
		return nil, err
	}
	refresher, err := auth.NewRefresher(cfg, store, authOpts...)
	if err != nil {
		return nil, err
	}

	return &Client{
		cfg:       cfg,
		store:     store,
		flow:      flow,
		refresher: refresher,
		doer:      o.doer,
		logger:    o.logger,
	}, nil
}

// NewFromEnv builds a Client from MOVES_* environment variables (and .env),
// storing the credential in a file and logging through the default logger.
func NewFromEnv(opts ...Option) (*Client, error) {
	cfg, err := config.FromEnv()
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	path := cfg.CredentialsPath
	if path == "" {
		path = credentials.DefaultPath()
	}
	if path == "" {
		return nil, fmt.Errorf("could not determine credentials path, set MOVES_CREDENTIALS_PATH")
	}

	log := logger.New()
	log.Debug().
		Str("path", path).
		Bool("exists", credentials.FileExists(path)).
		Msg("using file credential store")

	return New(cfg, credentials.NewFSStore(path), append([]Option{WithLogger(log)}, opts...)...)
}

// BeginLogin starts an authorization attempt. Send the user to URL (or
// AppURL on a device with the Moves app) and pass the redirect they land on
// to CompleteLogin.
func (c *Client) BeginLogin() *auth.Attempt {
	return c.flow.Begin()
}

// CompleteLogin finishes attempt with the redirect URL and stores the credential.
func (c *Client) CompleteLogin(ctx context.Context, attempt *auth.Attempt, redirectURL string) (*credentials.Credential, error) {
	return c.flow.CompleteWithRedirect(ctx, attempt, redirectURL)
}

// Credential returns the stored credential without refreshing it.
func (c *Client) Credential() (*credentials.Credential, error) {
	cred, err := credentials.Load(c.store)
	if err != nil {
		return nil, apierror.New(apierror.UnexpectedError, "credential", err)
	}
	if cred == nil {
		return nil, apierror.Newf(apierror.NotAuthenticated, "credential", "no stored credential")
	}
	return cred, nil
}

// IsAuthenticated reports whether a complete credential is stored.
func (c *Client) IsAuthenticated() bool {
	cred, err := credentials.Load(c.store)
	return err == nil && cred != nil
}

// Logout forgets the stored credential.
func (c *Client) Logout() error {
	if err := c.store.Clear(); err != nil {
		return fmt.Errorf("failed to clear credential store: %w", err)
	}
	c.logger.Info().Msg("logged out of Moves")
	return nil
}

// TokenSource exposes the refreshed credential to golang.org/x/oauth2
// consumers. Each Token call refreshes through the same single-flight path
// as API calls.
func (c *Client) TokenSource(ctx context.Context) oauth2.TokenSource {
	return &tokenSource{ctx: ctx, refresher: c.refresher}
}

type tokenSource struct {
	ctx       context.Context
	refresher *auth.Refresher
}

func (t *tokenSource) Token() (*oauth2.Token, error) {
	cred, err := t.refresher.EnsureFresh(t.ctx)
	if err != nil {
		return nil, err
	}
	return cred.Token(), nil
}
