package store

import (
	"slices"
	"strings"
	"sync"
	"sync/atomic"
	"time"
)

// TypedStore is a generic, concurrency-safe, in-memory key-value store.
// Each TypedStore has its own RWMutex, so resource kinds and editor
// sessions never contend on a shared lock.
type TypedStore[T any] struct {
	mu          sync.RWMutex
	items       map[string]T
	lastUpdated atomic.Int64 // UnixMilli of last Set/Delete/Update
}

// NewTypedStore creates a new, empty TypedStore.
func NewTypedStore[T any]() *TypedStore[T] {
	s := &TypedStore[T]{
		items: make(map[string]T),
	}
	s.touch()
	return s
}

func (s *TypedStore[T]) touch() {
	s.lastUpdated.Store(time.Now().UnixMilli())
}

// Set inserts or updates a value for the given key.
func (s *TypedStore[T]) Set(key string, value T) {
	s.mu.Lock()
	s.items[key] = value
	s.mu.Unlock()
	s.touch()
}

// Delete removes a key. It reports whether the key was present.
func (s *TypedStore[T]) Delete(key string) bool {
	s.mu.Lock()
	_, ok := s.items[key]
	delete(s.items, key)
	s.mu.Unlock()
	if ok {
		s.touch()
	}
	return ok
}

// Update runs fn on the current value under the write lock and stores the
// result when fn returns true. fn sees the zero value and false for a
// missing key. Update reports whether a value was stored.
func (s *TypedStore[T]) Update(key string, fn func(cur T, exists bool) (T, bool)) bool {
	s.mu.Lock()
	cur, exists := s.items[key]
	next, store := fn(cur, exists)
	if store {
		s.items[key] = next
	}
	s.mu.Unlock()
	if store {
		s.touch()
	}
	return store
}

// LastUpdated returns the UnixMilli timestamp of the last modification.
func (s *TypedStore[T]) LastUpdated() int64 {
	return s.lastUpdated.Load()
}

// Get retrieves a value by key.
func (s *TypedStore[T]) Get(key string) (T, bool) {
	s.mu.RLock()
	v, ok := s.items[key]
	s.mu.RUnlock()
	return v, ok
}

// Len returns the number of items in the store.
func (s *TypedStore[T]) Len() int {
	s.mu.RLock()
	n := len(s.items)
	s.mu.RUnlock()
	return n
}

// Snapshot returns a shallow copy of all items. Mutations to the returned
// map do not affect the store.
func (s *TypedStore[T]) Snapshot() map[string]T {
	s.mu.RLock()
	cp := make(map[string]T, len(s.items))
	for k, v := range s.items {
		cp[k] = v
	}
	s.mu.RUnlock()
	return cp
}

// Values returns all values ordered by key.
func (s *TypedStore[T]) Values() []T {
	return s.ValuesWithPrefix("")
}

// ValuesWithPrefix returns the values whose key starts with prefix,
// ordered by key.
func (s *TypedStore[T]) ValuesWithPrefix(prefix string) []T {
	s.mu.RLock()
	keys := make([]string, 0, len(s.items))
	for k := range s.items {
		if strings.HasPrefix(k, prefix) {
			keys = append(keys, k)
		}
	}
	slices.Sort(keys)
	vals := make([]T, 0, len(keys))
	for _, k := range keys {
		vals = append(vals, s.items[k])
	}
	s.mu.RUnlock()
	return vals
}

// Clear removes all items from the store.
func (s *TypedStore[T]) Clear() {
	s.mu.Lock()
	s.items = make(map[string]T)
	s.mu.Unlock()
	s.touch()
}
