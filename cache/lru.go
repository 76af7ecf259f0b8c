// Copyright (c) 2025 The VeChainThor developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package cache

import (
	"sync"

	lru "github.com/hashicorp/golang-lru"
)

// LRU a LRU cache extends golang-lru.
type LRU struct {
	*lru.Cache
}

// NewLRU create a LRU cache instance.
// maxSize should be > 0, or an error returned.
func NewLRU(maxSize int) (*LRU, error) {
	cache, err := lru.New(maxSize)
	if err != nil {
		return nil, err
	}
	return &LRU{cache}, nil
}

// Seen remembers the most recent keys, to reject replayed requests.
type Seen struct {
	mu    sync.Mutex
	lru   *LRU
	stats Stats
}

// NewSeen creates a set remembering up to size keys.
func NewSeen(size int) (*Seen, error) {
	l, err := NewLRU(size)
	if err != nil {
		return nil, err
	}
	return &Seen{lru: l}, nil
}

// Mark records key and reports whether it was new.
func (s *Seen) Mark(key any) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.lru.Contains(key) {
		s.stats.Hit()
		return false
	}
	s.stats.Miss()
	s.lru.Add(key, struct{}{})
	return true
}

// Forget drops key, so a rejected request can be submitted again.
func (s *Seen) Forget(key any) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.lru.Remove(key)
}

// Stats returns replay counters, see Stats.Stats.
func (s *Seen) Stats() (bool, int64, int64) {
	return s.stats.Stats()
}
