package credentials

import (
	"fmt"
	"strconv"
	"time"

	"golang.org/x/oauth2"
)

// Credential is one authenticated Moves session. It is replaced wholesale on
// login and refresh, never mutated in place.
type Credential struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
	UserID       string `json:"user_id"`
	ExpiresAt    int64  `json:"expires_at"` // epoch milliseconds
}

// NewCredential builds a credential issued at now with a lifetime of expiresIn.
func NewCredential(accessToken, refreshToken, userID string, expiresIn time.Duration, now time.Time) *Credential {
	return &Credential{
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
		UserID:       userID,
		ExpiresAt:    now.Add(expiresIn).UnixMilli(),
	}
}

// Complete reports whether every field is populated.
func (c *Credential) Complete() bool {
	return c != nil &&
		c.AccessToken != "" &&
		c.RefreshToken != "" &&
		c.UserID != "" &&
		c.ExpiresAt > 0
}

// Expiry returns ExpiresAt as a time.
func (c *Credential) Expiry() time.Time {
	return time.UnixMilli(c.ExpiresAt)
}

// ExpiresIn is the remaining lifetime at now; negative once expired.
func (c *Credential) ExpiresIn(now time.Time) time.Duration {
	return time.Duration(c.ExpiresAt-now.UnixMilli()) * time.Millisecond
}

// NeedsRefresh reports whether the remaining lifetime is at most lead.
func (c *Credential) NeedsRefresh(now time.Time, lead time.Duration) bool {
	return c.ExpiresAt-now.UnixMilli() <= lead.Milliseconds()
}

// Token converts the credential for use with golang.org/x/oauth2 consumers.
func (c *Credential) Token() *oauth2.Token {
	tok := &oauth2.Token{
		AccessToken:  c.AccessToken,
		RefreshToken: c.RefreshToken,
		TokenType:    "Bearer",
		Expiry:       c.Expiry(),
	}
	return tok.WithExtra(map[string]interface{}{"user_id": c.UserID})
}

// Load reads the credential record from s. It returns nil, nil when the
// store holds no complete, authenticated record.
func Load(s Store) (*Credential, error) {
	values := make(map[string]string, 5)
	for _, key := range recordKeys() {
		v, err := s.Get(key)
		if err != nil {
			return nil, fmt.Errorf("failed to read %s: %w", key, err)
		}
		values[key] = v
	}

	if values[KeyAuthenticated] != StatusYes {
		return nil, nil
	}

	expiresAt, err := strconv.ParseInt(values[KeyExpiresAt], 10, 64)
	if err != nil {
		return nil, nil
	}

	cred := &Credential{
		AccessToken:  values[KeyAccessToken],
		RefreshToken: values[KeyRefreshToken],
		UserID:       values[KeyUserID],
		ExpiresAt:    expiresAt,
	}
	if !cred.Complete() {
		return nil, nil
	}
	return cred, nil
}

// Save writes cred to s and marks the store authenticated. Incomplete
// credentials are refused so a partial record is never persisted.
func Save(s Store, cred *Credential) error {
	if !cred.Complete() {
		return ErrIncomplete
	}

	values := map[string]string{
		KeyAccessToken:  cred.AccessToken,
		KeyRefreshToken: cred.RefreshToken,
		KeyUserID:       cred.UserID,
		KeyExpiresAt:    strconv.FormatInt(cred.ExpiresAt, 10),
	}

	if b, ok := s.(BatchSetter); ok {
		values[KeyAuthenticated] = StatusYes
		if err := b.SetAll(values); err != nil {
			return fmt.Errorf("failed to store credential: %w", err)
		}
		return nil
	}

	return saveKeyByKey(s, values)
}

// saveKeyByKey withdraws the authenticated flag while the fields change so
// readers never see a mix of two credentials. On failure the fields already
// written are restored, and the flag with them when that succeeds.
func saveKeyByKey(s Store, values map[string]string) error {
	fields := []string{KeyAccessToken, KeyRefreshToken, KeyUserID, KeyExpiresAt}

	previous := make(map[string]string, len(fields)+1)
	for _, key := range append(fields, KeyAuthenticated) {
		v, err := s.Get(key)
		if err != nil {
			return fmt.Errorf("failed to read %s: %w", key, err)
		}
		previous[key] = v
	}

	if err := s.Set(KeyAuthenticated, StatusNo); err != nil {
		return fmt.Errorf("failed to store %s: %w", KeyAuthenticated, err)
	}

	for i, key := range fields {
		if err := s.Set(key, values[key]); err != nil {
			if restore(s, previous, fields[:i]) {
				_ = s.Set(KeyAuthenticated, previous[KeyAuthenticated])
			}
			return fmt.Errorf("failed to store %s: %w", key, err)
		}
	}

	if err := s.Set(KeyAuthenticated, StatusYes); err != nil {
		return fmt.Errorf("failed to store %s: %w", KeyAuthenticated, err)
	}
	return nil
}

func restore(s Store, previous map[string]string, keys []string) bool {
	for _, key := range keys {
		if err := s.Set(key, previous[key]); err != nil {
			return false
		}
	}
	return true
}
