package consensus

import (
	"fmt"
	"sync"

	"rotorchain/internal/core"
	"rotorchain/internal/errs"
)

// ApprovedSet accumulates the round's approved nodes: those whose reveal
// matched their stored commitment (§4.4.2). It is independent from
// CommitmentStore so a round can be replayed or inspected after its
// commitment map is reset.
type ApprovedSet struct {
	mu      sync.RWMutex
	reveals map[string]core.Reveal
}

// NewApprovedSet returns an empty set.
func NewApprovedSet() *ApprovedSet {
	return &ApprovedSet{reveals: make(map[string]core.Reveal)}
}

// SubmitReveal looks up r.NodeID's commitment in commitments, and on a
// digest match adds r to the approved set. A reveal with no matching
// commitment is rejected with errs.ErrMissingCommitment; a reveal whose
// recomputed hash disagrees is rejected with errs.ErrInvalidReveal. Both
// are meant to be logged at warn and otherwise ignored by the caller
// (§4.4.2, §7).
func (a *ApprovedSet) SubmitReveal(r core.Reveal, commitments *CommitmentStore) error {
	if err := r.Validate(); err != nil {
		return fmt.Errorf("%w: %v", errs.ErrInvalidReveal, err)
	}

	commitment, ok := commitments.Get(r.NodeID)
	if !ok {
		return fmt.Errorf("%w: node %s", errs.ErrMissingCommitment, r.NodeID)
	}
	if !r.Matches(&commitment) {
		return fmt.Errorf("%w: node %s reveal does not match commitment", errs.ErrInvalidReveal, r.NodeID)
	}

	a.mu.Lock()
	defer a.mu.Unlock()
	a.reveals[r.NodeID] = r
	return nil
}

// Nodes materializes the approved set as core.Node values, using each
// reveal's public key.
func (a *ApprovedSet) Nodes() []core.Node {
	a.mu.RLock()
	defer a.mu.RUnlock()
	out := make([]core.Node, 0, len(a.reveals))
	for nodeID, r := range a.reveals {
		out = append(out, core.Node{ID: nodeID, PublicKey: r.PublicKey, Active: true})
	}
	return out
}

// Len returns the number of approved nodes.
func (a *ApprovedSet) Len() int {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return len(a.reveals)
}

// Reset clears the set for the next round.
func (a *ApprovedSet) Reset() {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.reveals = make(map[string]core.Reveal)
}
