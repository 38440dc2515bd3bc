// Package credentials persists the Moves credential record through a small
// key/value Store contract and ships the stores the client uses by default.
package credentials

import "errors"

// Keys under which a credential record is persisted.
const (
	KeyAccessToken   = "moves_access_token"
	KeyRefreshToken  = "moves_refresh_token"
	KeyUserID        = "moves_user_id"
	KeyExpiresAt     = "moves_access_expires"
	KeyAuthenticated = "moves_is_authenticated"
)

// Values of KeyAuthenticated.
const (
	StatusYes = "yes"
	StatusNo  = "no"
)

// ErrIncomplete is returned by Save for a credential with a missing field.
var ErrIncomplete = errors.New("credential is incomplete")

// Store is durable key/value persistence. Get returns "" and a nil error for
// an absent key. Implementations must be safe for concurrent use.
type Store interface {
	Get(key string) (string, error)
	Set(key, value string) error
	Clear() error
}

// BatchSetter is implemented by stores that can write several keys
// atomically. Save prefers it so readers never observe a half-written record.
type BatchSetter interface {
	SetAll(values map[string]string) error
}

func recordKeys() []string {
	return []string{KeyAccessToken, KeyRefreshToken, KeyUserID, KeyExpiresAt, KeyAuthenticated}
}
