// Package consensus implements the six-phase round engine: commitment
// collection, reveal verification, deterministic ordering, Merkle
// anchoring, rotating single-processor transaction application, and
// weighted-quorum validation (spec.md §4.4).
package consensus

import (
	"sync"
	"time"

	"rotorchain/internal/core"
)

// CommitmentStore holds the current round's commitments keyed by node_id.
// A second commitment from the same node replaces the first — the
// reference contract keeps only the last accepted commitment (§4.4.1).
type CommitmentStore struct {
	mu          sync.RWMutex
	commitments map[string]core.Commitment
}

// NewCommitmentStore returns an empty store.
func NewCommitmentStore() *CommitmentStore {
	return &CommitmentStore{commitments: make(map[string]core.Commitment)}
}

// Submit validates c against now and, if valid, stores it — replacing any
// prior commitment from the same node_id.
func (s *CommitmentStore) Submit(c core.Commitment, now time.Time) error {
	if err := c.Validate(now); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.commitments[c.NodeID] = c
	return nil
}

// Get returns the stored commitment for nodeID, if any.
func (s *CommitmentStore) Get(nodeID string) (core.Commitment, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	c, ok := s.commitments[nodeID]
	return c, ok
}

// Len returns the number of distinct nodes with a stored commitment.
func (s *CommitmentStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.commitments)
}

// Reset clears the store for the next round.
func (s *CommitmentStore) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.commitments = make(map[string]core.Commitment)
}
