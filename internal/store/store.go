// Copyright (c) 2025 Nishisan. All rights reserved.
// Use of this source code is governed by the N-Backup License (Non-Commercial Evaluation)
// that can be found in the LICENSE file.

// Package store implements the shared, concurrently accessible key-value
// map with per-entry absolute expiry that backs the server's GET/SET
// commands, plus a compressed snapshot format used to seed followers.
package store

import (
	"sync"
	"time"
)

// DefaultExpiry is the TTL applied when a caller does not specify one.
const DefaultExpiry = 7 * 24 * time.Hour

type entry struct {
	value     []byte
	expiresAt time.Time
}

// Store is a thread-safe map of byte keys to byte values with per-entry
// absolute expiry. A single mutex protects the whole map; reads that
// observe expiry upgrade to a write to evict the stale entry.
type Store struct {
	mu   sync.Mutex
	data map[string]entry
}

// New creates an empty Store.
func New() *Store {
	return &Store{data: make(map[string]entry)}
}

// Set overwrites any existing entry for key with value, expiring after ttl.
func (s *Store) Set(key, value []byte, ttl time.Duration) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.data[string(key)] = entry{
		value:     append([]byte(nil), value...),
		expiresAt: time.Now().Add(ttl),
	}
}

// SetWithDefaultExpiry is Set with DefaultExpiry.
func (s *Store) SetWithDefaultExpiry(key, value []byte) {
	s.Set(key, value, DefaultExpiry)
}

// Get returns the value for key if present and not expired. A present but
// expired entry is evicted and treated as absent; this is the store's only
// eviction path besides the background sweep.
func (s *Store) Get(key []byte) ([]byte, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.data[string(key)]
	if !ok {
		return nil, false
	}
	if time.Now().After(e.expiresAt) {
		delete(s.data, string(key))
		return nil, false
	}
	return append([]byte(nil), e.value...), true
}

// Del removes key if present.
func (s *Store) Del(key []byte) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.data, string(key))
}

// sweepExpired removes every entry whose expiry has already passed,
// independent of whether it is ever read again. Returns the count removed.
func (s *Store) sweepExpired(now time.Time) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	removed := 0
	for k, e := range s.data {
		if now.After(e.expiresAt) {
			delete(s.data, k)
			removed++
		}
	}
	return removed
}

// Len reports the current entry count, including not-yet-swept expired
// entries.
func (s *Store) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.data)
}
