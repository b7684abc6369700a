// Package settings persists user preferences in a key/value store.
//
// Keys are namespaced as "<domain>.<key>" and every value is stored as a JSON
// object {"value": ...}, the layout earlier clients wrote to browser local
// storage. Unreadable values fall back to the caller's default.
package settings

import (
	"sort"
	"strings"
	"sync"
)

// Store is a raw key/value backend.
type Store interface {
	// Get returns the stored bytes and whether the key exists.
	Get(key string) ([]byte, bool, error)
	Set(key string, value []byte) error
}

// Memory is an in-process Store. The zero value is ready to use.
type Memory struct {
	mu sync.RWMutex
	m  map[string][]byte
}

// NewMemory returns an empty Memory store.
func NewMemory() *Memory { return &Memory{} }

func (s *Memory) Get(key string) ([]byte, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	v, ok := s.m[key]
	if !ok {
		return nil, false, nil
	}
	return append([]byte(nil), v...), true, nil
}

func (s *Memory) Set(key string, value []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.m == nil {
		s.m = make(map[string][]byte)
	}
	s.m[key] = append([]byte(nil), value...)
	return nil
}

// Keys returns the stored keys starting with prefix, sorted.
func (s *Memory) Keys(prefix string) []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var keys []string
	for k := range s.m {
		if strings.HasPrefix(k, prefix) {
			keys = append(keys, k)
		}
	}
	sort.Strings(keys)
	return keys
}
