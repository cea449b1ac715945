package consensus

import (
	"sync"

	"rotorchain/internal/hashing"
)

// SeedManager holds the round's current global seed, refreshed each round
// per §4.4.3. It exposes both a read ("current seed") and a write
// ("replace seed") operation, as the spec requires.
type SeedManager struct {
	mu   sync.RWMutex
	seed hashing.Digest
}

// NewSeedManager returns a manager initialized to seed.
func NewSeedManager(seed hashing.Digest) *SeedManager {
	return &SeedManager{seed: seed}
}

// Current returns the active seed.
func (m *SeedManager) Current() hashing.Digest {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.seed
}

// Replace installs a new seed for the next round.
func (m *SeedManager) Replace(seed hashing.Digest) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.seed = seed
}
