package storage

import (
	"context"
	"encoding/json"
	"sync"
)

// KV is the raw key-value backend the store persists through. Values are
// JSON blobs; the store owns the schema layered on top. Implementations
// provide at-the-key-level atomicity only — there is no cross-key
// transaction and no compare-and-swap.
type KV interface {
	// Get returns the values for the requested keys. Absent keys are
	// simply missing from the result map, not an error.
	Get(ctx context.Context, keys ...string) (map[string]json.RawMessage, error)
	// Set writes all given key/value pairs.
	Set(ctx context.Context, values map[string]json.RawMessage) error
	// Remove deletes the given keys. Removing an absent key is not an error.
	Remove(ctx context.Context, keys ...string) error
	// Clear deletes every key.
	Clear(ctx context.Context) error
}

// MemoryKV is an in-process KV used by tests and ephemeral runs.
type MemoryKV struct {
	mu     sync.Mutex
	values map[string]json.RawMessage
}

// NewMemoryKV returns an empty in-memory backend.
func NewMemoryKV() *MemoryKV {
	return &MemoryKV{values: make(map[string]json.RawMessage)}
}

func (m *MemoryKV) Get(ctx context.Context, keys ...string) (map[string]json.RawMessage, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	out := make(map[string]json.RawMessage, len(keys))
	for _, k := range keys {
		if v, ok := m.values[k]; ok {
			out[k] = append(json.RawMessage(nil), v...)
		}
	}
	return out, nil
}

func (m *MemoryKV) Set(ctx context.Context, values map[string]json.RawMessage) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	for k, v := range values {
		m.values[k] = append(json.RawMessage(nil), v...)
	}
	return nil
}

func (m *MemoryKV) Remove(ctx context.Context, keys ...string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	for _, k := range keys {
		delete(m.values, k)
	}
	return nil
}

func (m *MemoryKV) Clear(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.values = make(map[string]json.RawMessage)
	return nil
}
