// Package memory provides in-process store implementations for demo
// deployments and tests.
package memory

import (
	"context"
	"encoding/json"
	"sort"
	"strings"
	"sync"

	"github.com/dafibh/tripsaver/tripsaver-backend/internal/domain"
)

// KVStore is a map-backed domain.KVStore
type KVStore struct {
	mu   sync.RWMutex
	data map[string]json.RawMessage
}

// NewKVStore creates an empty KVStore
func NewKVStore() *KVStore {
	return &KVStore{data: make(map[string]json.RawMessage)}
}

// Get returns a copy of the stored value
func (s *KVStore) Get(ctx context.Context, key string) (json.RawMessage, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	v, ok := s.data[key]
	if !ok {
		return nil, domain.ErrNotFound
	}
	out := make(json.RawMessage, len(v))
	copy(out, v)
	return out, nil
}

// Set stores a copy of value under key
func (s *KVStore) Set(ctx context.Context, key string, value json.RawMessage) error {
	v := make(json.RawMessage, len(value))
	copy(v, value)

	s.mu.Lock()
	defer s.mu.Unlock()
	s.data[key] = v
	return nil
}

// Delete removes key
func (s *KVStore) Delete(ctx context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.data, key)
	return nil
}

// Keys returns all keys with the given prefix in lexical order
func (s *KVStore) Keys(ctx context.Context, prefix string) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	keys := make([]string, 0)
	for k := range s.data {
		if strings.HasPrefix(k, prefix) {
			keys = append(keys, k)
		}
	}
	sort.Strings(keys)
	return keys, nil
}
