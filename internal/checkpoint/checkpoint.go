// Package checkpoint periodically anchors a block hash to a derived-state
// digest, enabling bounded-replay recovery (spec.md §4.7).
package checkpoint

import (
	"fmt"
	"sync"

	"rotorchain/internal/core"
	"rotorchain/internal/errs"
)

// DefaultInterval is the number of blocks between checkpoints.
const DefaultInterval = 100

// DefaultRetention is the number of most-recent checkpoints kept.
const DefaultRetention = 10

// StateReplayer replays the chain up to and including blockNumber and
// returns a serialized summary of the derived state. Supplied by the
// caller (typically chainstore plus whatever application state the
// transactions mutate) so this package stays independent of any one
// state representation.
type StateReplayer func(blockNumber uint64) (serializedState []byte, err error)

// Manager produces, validates, and retains checkpoints.
type Manager struct {
	mu          sync.RWMutex
	interval    uint64
	retention   int
	checkpoints []core.Checkpoint
	replay      StateReplayer
}

// NewManager returns a Manager that checkpoints every interval blocks
// (DefaultInterval if non-positive), retaining up to retention
// checkpoints (DefaultRetention if non-positive).
func NewManager(interval uint64, retention int, replay StateReplayer) *Manager {
	if interval == 0 {
		interval = DefaultInterval
	}
	if retention <= 0 {
		retention = DefaultRetention
	}
	return &Manager{interval: interval, retention: retention, replay: replay}
}

// ShouldCheckpoint reports whether blockNumber falls on a checkpoint
// boundary.
func (m *Manager) ShouldCheckpoint(blockNumber uint64) bool {
	return blockNumber > 0 && blockNumber%m.interval == 0
}

// Produce replays the chain up to block, builds a Checkpoint summarizing
// the derived state, and retains it (evicting the oldest past
// m.retention).
func (m *Manager) Produce(block *core.Block) (core.Checkpoint, error) {
	serializedState, err := m.replay(block.Header.Number)
	if err != nil {
		return core.Checkpoint{}, fmt.Errorf("%w: replay to block %d: %v", errs.ErrPersistence, block.Header.Number, err)
	}

	cp := core.Checkpoint{
		BlockNumber:     block.Header.Number,
		BlockHash:       block.BlockHash,
		StateMerkleRoot: core.ComputeStateMerkleRoot(serializedState),
		Timestamp:       block.Header.Timestamp,
		Signature:       core.ComputeSignature(block.BlockHash, serializedState),
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	m.checkpoints = append(m.checkpoints, cp)
	if len(m.checkpoints) > m.retention {
		m.checkpoints = m.checkpoints[len(m.checkpoints)-m.retention:]
	}
	return cp, nil
}

// Validate checks a checkpoint against the chain: the referenced block
// must exist with the recorded hash, replaying must yield the same
// state-root, and the signature must match (§4.7).
func (m *Manager) Validate(cp core.Checkpoint, lookupBlock func(number uint64) (*core.Block, bool)) error {
	block, ok := lookupBlock(cp.BlockNumber)
	if !ok {
		return fmt.Errorf("%w: block %d not found", errs.ErrDecode, cp.BlockNumber)
	}
	if block.BlockHash != cp.BlockHash {
		return fmt.Errorf("%w: block %d hash does not match checkpoint", errs.ErrDecode, cp.BlockNumber)
	}

	serializedState, err := m.replay(cp.BlockNumber)
	if err != nil {
		return fmt.Errorf("%w: replay to block %d: %v", errs.ErrPersistence, cp.BlockNumber, err)
	}
	if core.ComputeStateMerkleRoot(serializedState) != cp.StateMerkleRoot {
		return fmt.Errorf("%w: state root mismatch at block %d", errs.ErrDecode, cp.BlockNumber)
	}
	if core.ComputeSignature(cp.BlockHash, serializedState) != cp.Signature {
		return fmt.Errorf("%w: signature mismatch at block %d", errs.ErrDecode, cp.BlockNumber)
	}
	return nil
}

// Latest returns the most recently retained checkpoint, if any.
func (m *Manager) Latest() (core.Checkpoint, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if len(m.checkpoints) == 0 {
		return core.Checkpoint{}, false
	}
	return m.checkpoints[len(m.checkpoints)-1], true
}

// All returns a snapshot of every retained checkpoint, oldest first.
func (m *Manager) All() []core.Checkpoint {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return append([]core.Checkpoint(nil), m.checkpoints...)
}
