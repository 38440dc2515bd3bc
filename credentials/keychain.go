package credentials

import (
	"encoding/json"
	"fmt"
	"os/exec"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"
)

const (
	keychainService = "moves-go-credentials"
	keychainAccount = "moves-go"
)

// Runner executes a command and returns its standard output.
type Runner func(name string, args ...string) ([]byte, error)

func execRunner(name string, args ...string) ([]byte, error) {
	return exec.Command(name, args...).Output()
}

// KeychainStore keeps the values as one JSON item in the macOS keychain,
// driven through the security(1) tool. Reads are cached for cacheTTL.
type KeychainStore struct {
	mu       sync.Mutex
	run      Runner
	cached   map[string]string
	cachedAt time.Time
	cacheTTL time.Duration
	logger   *zerolog.Logger
}

// NewKeychainStore creates a keychain-backed store. A nil runner uses os/exec.
func NewKeychainStore(run Runner) *KeychainStore {
	if run == nil {
		run = execRunner
	}
	return &KeychainStore{
		run:      run,
		cacheTTL: 5 * time.Minute,
	}
}

// NewKeychainStoreWithLogger is NewKeychainStore with debug logging of
// keychain round trips.
func NewKeychainStoreWithLogger(run Runner, logger zerolog.Logger) *KeychainStore {
	k := NewKeychainStore(run)
	k.logger = &logger
	return k
}

func (k *KeychainStore) Get(key string) (string, error) {
	k.mu.Lock()
	defer k.mu.Unlock()

	values, err := k.load()
	if err != nil {
		return "", err
	}
	return values[key], nil
}

func (k *KeychainStore) Set(key, value string) error {
	return k.SetAll(map[string]string{key: value})
}

func (k *KeychainStore) SetAll(updates map[string]string) error {
	k.mu.Lock()
	defer k.mu.Unlock()

	values, err := k.load()
	if err != nil {
		return err
	}
	merged := make(map[string]string, len(values)+len(updates))
	for key, v := range values {
		merged[key] = v
	}
	for key, v := range updates {
		merged[key] = v
	}

	data, err := json.Marshal(merged)
	if err != nil {
		return fmt.Errorf("failed to marshal credentials: %w", err)
	}
	// -U updates the item in place when it already exists.
	if _, err := k.run("security", "add-generic-password", "-s", keychainService, "-a", keychainAccount, "-w", string(data), "-U"); err != nil {
		return fmt.Errorf("failed to update keychain: %w", err)
	}

	k.cached = merged
	k.cachedAt = time.Now()
	k.debug("stored credentials in keychain")
	return nil
}

func (k *KeychainStore) Clear() error {
	k.mu.Lock()
	defer k.mu.Unlock()

	// Deleting an item that is not there fails; that is an empty store either way.
	if _, err := k.run("security", "delete-generic-password", "-s", keychainService); err != nil {
		k.debug("keychain delete reported an error, treating as empty")
	}
	k.cached = map[string]string{}
	k.cachedAt = time.Now()
	return nil
}

func (k *KeychainStore) load() (map[string]string, error) {
	if k.cached != nil && time.Since(k.cachedAt) < k.cacheTTL {
		return k.cached, nil
	}

	out, err := k.run("security", "find-generic-password", "-s", keychainService, "-w")
	if err != nil {
		// find-generic-password exits non-zero when the item does not exist.
		k.debug("no keychain item found")
		k.cached = map[string]string{}
		k.cachedAt = time.Now()
		return k.cached, nil
	}

	values := map[string]string{}
	raw := strings.TrimSpace(string(out))
	if raw != "" {
		if err := json.Unmarshal([]byte(raw), &values); err != nil {
			return nil, fmt.Errorf("failed to parse JSON from keychain: %w", err)
		}
	}
	k.cached = values
	k.cachedAt = time.Now()
	k.debug("loaded credentials from keychain")
	return values, nil
}

func (k *KeychainStore) debug(msg string) {
	if k.logger != nil {
		k.logger.Debug().Str("service", keychainService).Msg(msg)
	}
}
