// Package storage is the key/value port that persists local provider state
// and cache entries. Values are written whole; there is no partial merge.
package storage

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
)

// Store is a byte store.
// Get must return exactly the bytes previously passed to Set for the same key.
type Store interface {
	// Get returns (value, true, nil) on hit and (nil, false, nil) on miss.
	Get(ctx context.Context, key string) ([]byte, bool, error)

	// Set overwrites the value stored under key.
	Set(ctx context.Context, key string, value []byte) error

	// Delete removes key. Missing keys are not an error.
	Delete(ctx context.Context, key string) error

	// Close releases resources.
	Close() error
}

// Namespace gives typed JSON access to keys sharing a prefix.
type Namespace struct {
	store  Store
	prefix string
}

// NewNamespace returns a namespace over store. An empty prefix addresses raw keys.
func NewNamespace(store Store, prefix string) Namespace {
	return Namespace{store: store, prefix: prefix}
}

// Key returns the full store key for name.
func (n Namespace) Key(name string) string {
	return n.prefix + name
}

// GetJSON decodes the value under name into v. It reports false on miss.
func (n Namespace) GetJSON(ctx context.Context, name string, v any) (bool, error) {
	data, ok, err := n.store.Get(ctx, n.Key(name))
	if err != nil || !ok {
		return false, err
	}
	if err := json.Unmarshal(data, v); err != nil {
		return false, fmt.Errorf("decode %s: %w", n.Key(name), err)
	}
	return true, nil
}

// PutJSON encodes v and stores it under name.
func (n Namespace) PutJSON(ctx context.Context, name string, v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("encode %s: %w", n.Key(name), err)
	}
	return n.store.Set(ctx, n.Key(name), data)
}

// Delete removes name.
func (n Namespace) Delete(ctx context.Context, name string) error {
	return n.store.Delete(ctx, n.Key(name))
}

// Memory is an in-process Store, used for tests and ephemeral sessions.
type Memory struct {
	mu   sync.RWMutex
	data map[string][]byte
}

// NewMemory creates an empty in-memory store.
func NewMemory() *Memory {
	return &Memory{data: make(map[string][]byte)}
}

// Get implements Store.
func (m *Memory) Get(ctx context.Context, key string) ([]byte, bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	v, ok := m.data[key]
	if !ok {
		return nil, false, nil
	}
	out := make([]byte, len(v))
	copy(out, v)
	return out, true, nil
}

// Set implements Store.
func (m *Memory) Set(ctx context.Context, key string, value []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	v := make([]byte, len(value))
	copy(v, value)
	m.data[key] = v
	return nil
}

// Delete implements Store.
func (m *Memory) Delete(ctx context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.data, key)
	return nil
}

// Close implements Store.
func (m *Memory) Close() error { return nil }

// Keys returns the stored keys (for tests).
func (m *Memory) Keys() []string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	keys := make([]string, 0, len(m.data))
	for k := range m.data {
		keys = append(keys, k)
	}
	return keys
}
