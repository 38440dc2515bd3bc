package auth

import (
	"context"
	"net/url"
	"sync"
	"time"

	"github.com/dvcrn/moves-go/apierror"
	"github.com/dvcrn/moves-go/config"
	"github.com/dvcrn/moves-go/credentials"
	"github.com/dvcrn/moves-go/internal/logger"
	"github.com/rs/zerolog"
	"golang.org/x/sync/singleflight"
)

const opRefresh = "refresh"

// Refresher hands out a usable credential, refreshing it through the token
// endpoint when it is close to expiry. Concurrent callers that observe the
// same credential share one exchange.
type Refresher struct {
	store   credentials.Store
	tokens  *tokenClient
	lead    time.Duration
	timeout time.Duration
	logger  zerolog.Logger
	now     func() time.Time

	group singleflight.Group
	// mu serialises the reload, check, exchange and persist sequence.
	mu sync.Mutex
}

// NewRefresher creates a Refresher for the credential held in store.
func NewRefresher(cfg config.Config, store credentials.Store, opts ...Option) (*Refresher, error) {
	cfg = cfg.WithDefaults()
	s, err := newSettings(cfg, opts)
	if err != nil {
		return nil, err
	}
	return &Refresher{
		store:   store,
		tokens:  &tokenClient{cfg: cfg, doer: s.doer, logger: s.logger},
		lead:    cfg.RefreshBefore,
		timeout: cfg.HTTPTimeout,
		logger:  s.logger,
		now:     s.now,
	}, nil
}

// EnsureFresh returns the stored credential, refreshing it first when less
// than the lead time remains.
func (r *Refresher) EnsureFresh(ctx context.Context) (*credentials.Credential, error) {
	cred, err := r.load()
	if err != nil {
		return nil, err
	}

	if !cred.NeedsRefresh(r.now(), r.lead) {
		r.logger.Debug().
			Int64("minutes_until_expiry", int64(cred.ExpiresIn(r.now())/time.Minute)).
			Msg("access token is still valid")
		return cred, nil
	}

	r.logger.Info().
		Int64("minutes_until_expiry", int64(cred.ExpiresIn(r.now())/time.Minute)).
		Msg("🔄 access token expiring soon, refreshing")
	return r.refresh(ctx, cred, false)
}

// ForceRefresh refreshes regardless of expiry after the API rejected
// rejectedAccessToken. When the stored token already differs, another caller
// has refreshed and the stored credential is returned as-is.
func (r *Refresher) ForceRefresh(ctx context.Context, rejectedAccessToken string) (*credentials.Credential, error) {
	cred, err := r.load()
	if err != nil {
		return nil, err
	}
	if cred.AccessToken != rejectedAccessToken {
		return cred, nil
	}

	r.logger.Info().Str("access_token", logger.Mask(rejectedAccessToken)).Msg("🔄 access token rejected, forcing refresh")
	return r.refresh(ctx, cred, true)
}

func (r *Refresher) load() (*credentials.Credential, error) {
	cred, err := credentials.Load(r.store)
	if err != nil {
		return nil, apierror.New(apierror.UnexpectedError, opRefresh, err)
	}
	if cred == nil {
		return nil, apierror.Newf(apierror.NotAuthenticated, opRefresh, "no stored credential")
	}
	return cred, nil
}

func (r *Refresher) refresh(ctx context.Context, observed *credentials.Credential, force bool) (*credentials.Credential, error) {
	// The flight outlives any single caller; it is bounded by the timeout only.
	detached := context.WithoutCancel(ctx)

	ch := r.group.DoChan(observed.RefreshToken, func() (interface{}, error) {
		flightCtx, cancel := context.WithTimeout(detached, r.timeout)
		defer cancel()
		return r.exchange(flightCtx, observed, force)
	})

	select {
	case res := <-ch:
		if res.Err != nil {
			return nil, res.Err
		}
		return res.Val.(*credentials.Credential), nil
	case <-ctx.Done():
		return nil, apierror.New(apierror.UnexpectedError, opRefresh, ctx.Err())
	}
}

func (r *Refresher) exchange(ctx context.Context, observed *credentials.Credential, force bool) (*credentials.Credential, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	current, err := r.load()
	if err != nil {
		return nil, err
	}
	if current.AccessToken != observed.AccessToken || current.RefreshToken != observed.RefreshToken {
		r.logger.Debug().Msg("credential was refreshed by another caller")
		return current, nil
	}
	if !force && !current.NeedsRefresh(r.now(), r.lead) {
		return current, nil
	}

	params := url.Values{}
	params.Set("grant_type", "refresh_token")
	params.Set("refresh_token", current.RefreshToken)

	reply, err := r.tokens.exchange(ctx, opRefresh, params)
	if err != nil {
		r.logger.Error().Err(err).Msg("❌ failed to refresh access token")
		return nil, err
	}

	refreshToken := reply.RefreshToken
	if refreshToken == "" {
		refreshToken = current.RefreshToken
	}
	userID := reply.UserID
	if userID == "" {
		userID = current.UserID
	}

	next := credentials.NewCredential(reply.AccessToken, refreshToken, userID, reply.ExpiresIn, r.now())
	if err := credentials.Save(r.store, next); err != nil {
		r.logger.Error().Err(err).Msg("❌ failed to store refreshed credential")
		return nil, apierror.New(apierror.UnexpectedError, opRefresh, err)
	}

	r.logger.Info().
		Int64("new_expiry_minutes", int64(next.ExpiresIn(r.now())/time.Minute)).
		Msg("✅ access token refreshed")
	return next, nil
}
