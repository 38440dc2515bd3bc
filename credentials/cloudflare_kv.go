//go:build js && wasm

package credentials

import (
	"encoding/json"
	"fmt"
	"sync"

	"github.com/syumai/workers/cloudflare/kv"
)

const (
	// DefaultKVBinding is the namespace binding name expected in wrangler.toml.
	DefaultKVBinding = "moves_go_kv"

	kvRecordKey = "moves_credentials"
)

// KVStore keeps the values as one JSON document in a Cloudflare Workers KV
// namespace. Writing a single document keeps the record atomic.
type KVStore struct {
	mu      sync.Mutex
	kvStore *kv.Namespace
}

// NewKVStore opens the KV namespace bound as binding.
func NewKVStore(binding string) (*KVStore, error) {
	if binding == "" {
		binding = DefaultKVBinding
	}
	ns, err := kv.NewNamespace(binding)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize KV namespace: %w", err)
	}
	return &KVStore{kvStore: ns}, nil
}

func (c *KVStore) Get(key string) (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	values, err := c.read()
	if err != nil {
		return "", err
	}
	return values[key], nil
}

func (c *KVStore) Set(key, value string) error {
	return c.SetAll(map[string]string{key: value})
}

func (c *KVStore) SetAll(updates map[string]string) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	values, err := c.read()
	if err != nil {
		return err
	}
	for k, v := range updates {
		values[k] = v
	}
	return c.write(values)
}

func (c *KVStore) Clear() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.write(map[string]string{})
}

func (c *KVStore) read() (map[string]string, error) {
	raw, err := c.kvStore.GetString(kvRecordKey, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to get credentials from KV: %w", err)
	}

	values := map[string]string{}
	// A missing key surfaces as the string form of JS null.
	if raw == "" || raw == "<null>" {
		return values, nil
	}
	if err := json.Unmarshal([]byte(raw), &values); err != nil {
		return nil, fmt.Errorf("failed to parse credentials JSON: %w", err)
	}
	return values, nil
}

func (c *KVStore) write(values map[string]string) error {
	data, err := json.Marshal(values)
	if err != nil {
		return fmt.Errorf("failed to marshal credentials: %w", err)
	}
	if err := c.kvStore.PutString(kvRecordKey, string(data), nil); err != nil {
		return fmt.Errorf("failed to store credentials in KV: %w", err)
	}
	return nil
}
