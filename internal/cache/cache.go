// Package cache provides two bounded in-memory stores: a validation-result
// cache keyed by block hash, and a seen-transaction-id set used for
// duplicate detection (spec.md §4.6).
package cache

import (
	"sync"
	"time"

	"rotorchain/internal/hashing"
)

// DefaultValidationCapacity is the default number of validation results
// retained before eviction begins.
const DefaultValidationCapacity = 1000

// EvictionFraction is the approximate share of oldest entries dropped once
// the validation cache reaches capacity; insertion-order approximation is
// acceptable, no strict LRU is required (§4.6). The seen-tx set drops a
// fixed batch instead (SeenSetDropBatch).
const EvictionFraction = 0.10

// DefaultSeenSetCapacity is the default maximum size of the seen-tx set.
const DefaultSeenSetCapacity = 10_000

// SeenSetDropBatch is how many entries are dropped, arbitrarily, once the
// seen-tx set is full.
const SeenSetDropBatch = 1_000

// ValidationResult is one cached validation outcome.
type ValidationResult struct {
	Valid    bool
	Errors   []string
	Warnings []string
	Elapsed  time.Duration
}

type validationEntry struct {
	hash   hashing.Digest
	result ValidationResult
}

// ValidationCache stores the last N validation results keyed by block
// hash, evicting the oldest ~10% once full.
type ValidationCache struct {
	mu       sync.RWMutex
	capacity int
	order    []validationEntry
	byHash   map[hashing.Digest]int
}

// NewValidationCache returns a cache bounded at capacity entries. A
// non-positive capacity falls back to DefaultValidationCapacity.
func NewValidationCache(capacity int) *ValidationCache {
	if capacity <= 0 {
		capacity = DefaultValidationCapacity
	}
	return &ValidationCache{
		capacity: capacity,
		byHash:   make(map[hashing.Digest]int),
	}
}

// Put records result for blockHash, evicting the oldest ~10% of entries
// first if the cache is at capacity.
func (c *ValidationCache) Put(blockHash hashing.Digest, result ValidationResult) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if idx, exists := c.byHash[blockHash]; exists {
		c.order[idx].result = result
		return
	}

	if len(c.order) >= c.capacity {
		c.evictOldestLocked()
	}

	c.order = append(c.order, validationEntry{hash: blockHash, result: result})
	c.byHash[blockHash] = len(c.order) - 1
}

func (c *ValidationCache) evictOldestLocked() {
	drop := int(float64(len(c.order)) * EvictionFraction)
	if drop < 1 {
		drop = 1
	}
	if drop > len(c.order) {
		drop = len(c.order)
	}

	c.order = c.order[drop:]
	c.byHash = make(map[hashing.Digest]int, len(c.order))
	for i, e := range c.order {
		c.byHash[e.hash] = i
	}
}

// Get returns the cached result for blockHash, if present.
func (c *ValidationCache) Get(blockHash hashing.Digest) (ValidationResult, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	idx, ok := c.byHash[blockHash]
	if !ok {
		return ValidationResult{}, false
	}
	return c.order[idx].result, true
}

// Len returns the number of cached entries.
func (c *ValidationCache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.order)
}

// SeenTxSet tracks transaction ids already observed, bounded at its
// configured capacity (DefaultSeenSetCapacity by default); on overflow it
// drops a batch of its oldest entries.
type SeenTxSet struct {
	mu       sync.RWMutex
	capacity int
	dropSize int
	order    []string
	index    map[string]struct{}
}

// NewSeenTxSet returns a set bounded at capacity ids, dropping dropSize
// arbitrary entries on overflow. Non-positive values fall back to the
// package defaults.
func NewSeenTxSet(capacity, dropSize int) *SeenTxSet {
	if capacity <= 0 {
		capacity = DefaultSeenSetCapacity
	}
	if dropSize <= 0 {
		dropSize = SeenSetDropBatch
	}
	return &SeenTxSet{
		capacity: capacity,
		dropSize: dropSize,
		index:    make(map[string]struct{}),
	}
}

// Contains reports whether txID has already been seen.
func (s *SeenTxSet) Contains(txID string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.index[txID]
	return ok
}

// Add records txID as seen, dropping the oldest dropSize entries first if
// the set is at capacity. Returns false if txID was already present
// (duplicate detection is conservative: the caller should reject the
// containing block in that case, per §4.6).
func (s *SeenTxSet) Add(txID string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.index[txID]; exists {
		return false
	}

	if len(s.order) >= s.capacity {
		drop := s.dropSize
		if drop > len(s.order) {
			drop = len(s.order)
		}
		for _, id := range s.order[:drop] {
			delete(s.index, id)
		}
		s.order = s.order[drop:]
	}

	s.order = append(s.order, txID)
	s.index[txID] = struct{}{}
	return true
}

// Len returns the number of tracked transaction ids.
func (s *SeenTxSet) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.order)
}
