// Package config holds the client settings and loads them from the
// environment.
package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

const (
	DefaultAuthBaseURL     = "https://api.moves-app.com/oauth/v1"
	DefaultAPIBaseURL      = "https://api.moves-app.com/api/1.1"
	DefaultAppAuthorizeURL = "moves://app/authorize"
	DefaultRefreshBefore   = 10 * 24 * time.Hour
	DefaultHTTPTimeout     = 30 * time.Second
)

// DefaultScopes are requested when none are configured.
var DefaultScopes = []string{"activity", "location"}

// ErrMissingClientDetails is returned by Validate when the client id,
// secret or redirect URI is empty.
var ErrMissingClientDetails = errors.New("client id, client secret and redirect uri are required")

type Config struct {
	ClientID     string
	ClientSecret string
	RedirectURI  string
	Scopes       []string

	AuthBaseURL     string
	APIBaseURL      string
	AppAuthorizeURL string

	// RefreshBefore is how long before expiry a credential is refreshed.
	RefreshBefore time.Duration
	// HTTPTimeout bounds each token or data exchange.
	HTTPTimeout time.Duration

	// CredentialsPath is the file used by the default file store. Empty means
	// the XDG default.
	CredentialsPath string
}

// Default returns a Config with every optional field set.
func Default() Config {
	return Config{
		Scopes:          append([]string(nil), DefaultScopes...),
		AuthBaseURL:     DefaultAuthBaseURL,
		APIBaseURL:      DefaultAPIBaseURL,
		AppAuthorizeURL: DefaultAppAuthorizeURL,
		RefreshBefore:   DefaultRefreshBefore,
		HTTPTimeout:     DefaultHTTPTimeout,
	}
}

// FromEnv loads .env if present and overlays MOVES_* variables on Default.
// The result is validated.
func FromEnv() (Config, error) {
	// .env is optional.
	_ = godotenv.Load()

	cfg := Default()
	cfg.ClientID = os.Getenv("MOVES_CLIENT_ID")
	cfg.ClientSecret = os.Getenv("MOVES_CLIENT_SECRET")
	cfg.RedirectURI = os.Getenv("MOVES_REDIRECT_URI")
	cfg.CredentialsPath = os.Getenv("MOVES_CREDENTIALS_PATH")

	if v := strings.TrimSpace(os.Getenv("MOVES_SCOPES")); v != "" {
		cfg.Scopes = strings.Fields(v)
	}
	if v := os.Getenv("MOVES_AUTH_BASE_URL"); v != "" {
		cfg.AuthBaseURL = strings.TrimRight(v, "/")
	}
	if v := os.Getenv("MOVES_API_BASE_URL"); v != "" {
		cfg.APIBaseURL = strings.TrimRight(v, "/")
	}

	var err error
	if cfg.RefreshBefore, err = durationEnv("MOVES_REFRESH_BEFORE", cfg.RefreshBefore); err != nil {
		return Config{}, err
	}
	if cfg.HTTPTimeout, err = durationEnv("MOVES_HTTP_TIMEOUT", cfg.HTTPTimeout); err != nil {
		return Config{}, err
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate checks the client details and base URLs.
func (c Config) Validate() error {
	if c.ClientID == "" || c.ClientSecret == "" || c.RedirectURI == "" {
		return ErrMissingClientDetails
	}
	for name, raw := range map[string]string{"auth base url": c.AuthBaseURL, "api base url": c.APIBaseURL} {
		u, err := url.Parse(raw)
		if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
			return fmt.Errorf("invalid %s %q", name, raw)
		}
	}
	if c.RefreshBefore < 0 {
		return fmt.Errorf("refresh lead time must not be negative, got %s", c.RefreshBefore)
	}
	return nil
}

// WithDefaults fills zero-valued optional fields from Default.
func (c Config) WithDefaults() Config {
	d := Default()
	if len(c.Scopes) == 0 {
		c.Scopes = d.Scopes
	}
	if c.AuthBaseURL == "" {
		c.AuthBaseURL = d.AuthBaseURL
	}
	if c.APIBaseURL == "" {
		c.APIBaseURL = d.APIBaseURL
	}
	if c.AppAuthorizeURL == "" {
		c.AppAuthorizeURL = d.AppAuthorizeURL
	}
	if c.RefreshBefore == 0 {
		c.RefreshBefore = d.RefreshBefore
	}
	if c.HTTPTimeout <= 0 {
		c.HTTPTimeout = d.HTTPTimeout
	}
	c.AuthBaseURL = strings.TrimRight(c.AuthBaseURL, "/")
	c.APIBaseURL = strings.TrimRight(c.APIBaseURL, "/")
	return c
}

func durationEnv(key string, def time.Duration) (time.Duration, error) {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return def, nil
	}
	d, err := time.ParseDuration(raw)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}
	return d, nil
}
