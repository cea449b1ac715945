// Package chainstore holds the ordered chain of blocks, the hash index,
// and current height/difficulty, enforcing block admission (§4.3.1),
// difficulty policy (§4.3.2), and persistent-store recovery (§4.3.3).
package chainstore

import (
	"fmt"
	"sort"
	"sync"
	"time"

	"rotorchain/internal/blockengine"
	"rotorchain/internal/core"
	"rotorchain/internal/errs"
	"rotorchain/internal/hashing"
)

// GenesisDifficulty is the initial difficulty genesis is mined at.
const GenesisDifficulty = 1

// DifficultyAdjustPeriod and DifficultyAdjustFloor implement §4.3.2: every
// time chain length is a multiple of DifficultyAdjustPeriod and length is
// greater than DifficultyAdjustFloor, difficulty increases by 1.
const (
	DifficultyAdjustPeriod = 10
	DifficultyAdjustFloor  = 20
)

// Store is the single-reader-writer-lock-protected chain: the blocks
// vector, the hash index, current height, and current difficulty (§5).
type Store struct {
	mu         sync.RWMutex
	blocks     []*core.Block
	byHash     map[hashing.Digest]int
	difficulty uint32
	persist    *Persistence
}

// New creates a chain store, optionally backed by persist. A nil persist
// runs the store purely in memory.
func New(persist *Persistence) *Store {
	return &Store{
		byHash:     make(map[hashing.Digest]int),
		difficulty: GenesisDifficulty,
		persist:    persist,
	}
}

// InitializeWithGenesis atomically inserts block 0 with the zero previous
// hash and GenesisDifficulty. It is idempotent: calling it again when
// genesis already matches is a no-op; calling it when a different genesis
// is already present is an error.
func (s *Store) InitializeWithGenesis(now time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if len(s.blocks) > 0 {
		existing := s.blocks[0]
		if existing.Header.Number == 0 && existing.Header.PrevBlockHash.IsZero() {
			return nil
		}
		return fmt.Errorf("%w: genesis already present and differs", errs.ErrPersistence)
	}

	genesis := blockengine.Build(0, hashing.Zero, nil, "genesis", GenesisDifficulty, now)
	if !blockengine.Mine(genesis, 1_000_000) {
		return fmt.Errorf("%w: failed to mine genesis block", errs.ErrDifficultyNotMet)
	}
	return s.appendLocked(genesis)
}

// Append validates block via the §4.3.1 admission rules, persists it
// first (write-ahead discipline: a crash mid-append must not expose an
// unpersisted tip), then updates the in-memory chain and runs the
// difficulty policy.
func (s *Store) Append(block *core.Block) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.appendLocked(block)
}

func (s *Store) appendLocked(block *core.Block) error {
	if ok, err := blockengine.ValidateStructure(block); !ok {
		return fmt.Errorf("%w: %v", errs.ErrBlockStructureInvalid, err)
	}
	if ok, err := blockengine.ValidatePoW(block); !ok {
		return fmt.Errorf("%w: %v", errs.ErrDifficultyNotMet, err)
	}
	if err := s.checkLinkLocked(block); err != nil {
		return err
	}

	if s.persist != nil {
		if err := s.persist.PutBlock(block); err != nil {
			return err
		}
		if err := s.persist.SetHeight(block.Header.Number); err != nil {
			return err
		}
	}

	s.blocks = append(s.blocks, block)
	s.byHash[block.BlockHash] = len(s.blocks) - 1
	s.adjustDifficultyLocked()
	return nil
}

// checkLinkLocked implements §4.3.1 rule 3: the block must extend the
// current tip by exactly one, or be the sole genesis block.
func (s *Store) checkLinkLocked(block *core.Block) error {
	if len(s.blocks) == 0 {
		if block.Header.Number != 0 || !block.Header.PrevBlockHash.IsZero() {
			return fmt.Errorf("%w: first block must be number 0 with zero prev hash", errs.ErrLinkMismatch)
		}
		return nil
	}
	tip := s.blocks[len(s.blocks)-1]
	if block.Header.Number != tip.Header.Number+1 {
		return fmt.Errorf("%w: expected number %d, got %d", errs.ErrOutOfSequence, tip.Header.Number+1, block.Header.Number)
	}
	if block.Header.PrevBlockHash != tip.BlockHash {
		return fmt.Errorf("%w: prev hash does not match tip", errs.ErrLinkMismatch)
	}
	return nil
}

// adjustDifficultyLocked implements §4.3.2: every time chain_length is a
// multiple of DifficultyAdjustPeriod and length > DifficultyAdjustFloor,
// difficulty increases by 1. Difficulty is otherwise left untouched —
// monotone non-decreasing, invariant 9 in §8.
func (s *Store) adjustDifficultyLocked() {
	length := len(s.blocks)
	if length > DifficultyAdjustFloor && length%DifficultyAdjustPeriod == 0 {
		s.difficulty++
	}
}

// CurrentDifficulty returns the difficulty new blocks should be mined at.
func (s *Store) CurrentDifficulty() uint32 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.difficulty
}

// Height returns the number of blocks in the chain (genesis counts as 1).
func (s *Store) Height() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.blocks)
}

// GetByNumber returns the block at position n, if present. Position n
// always equals block number — §4.3.3's contiguity-on-load rule holds
// this invariant even across a restart.
func (s *Store) GetByNumber(n uint64) (*core.Block, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if n >= uint64(len(s.blocks)) {
		return nil, false
	}
	return s.blocks[n], true
}

// GetByHash returns the block with the given hash, if present.
func (s *Store) GetByHash(h hashing.Digest) (*core.Block, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	idx, ok := s.byHash[h]
	if !ok {
		return nil, false
	}
	return s.blocks[idx], true
}

// GetTip returns the most recently appended block, if the chain is
// non-empty.
func (s *Store) GetTip() (*core.Block, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if len(s.blocks) == 0 {
		return nil, false
	}
	return s.blocks[len(s.blocks)-1], true
}

// ValidateChain performs a full sweep: every block must validate
// structurally, satisfy PoW at its declared difficulty, and link to its
// predecessor (§4.3, invariants 1-3 in §8).
func (s *Store) ValidateChain() error {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for i, b := range s.blocks {
		if ok, err := blockengine.ValidateStructure(b); !ok {
			return fmt.Errorf("%w: block %d: %v", errs.ErrBlockStructureInvalid, b.Header.Number, err)
		}
		if ok, err := blockengine.ValidatePoW(b); !ok {
			return fmt.Errorf("%w: block %d: %v", errs.ErrDifficultyNotMet, b.Header.Number, err)
		}
		if i == 0 {
			if b.Header.Number != 0 || !b.Header.PrevBlockHash.IsZero() {
				return fmt.Errorf("%w: genesis malformed", errs.ErrLinkMismatch)
			}
			continue
		}
		prev := s.blocks[i-1]
		if b.Header.Number != prev.Header.Number+1 {
			return fmt.Errorf("%w: block %d out of sequence", errs.ErrOutOfSequence, b.Header.Number)
		}
		if b.Header.PrevBlockHash != prev.BlockHash {
			return fmt.Errorf("%w: block %d does not link to %d", errs.ErrLinkMismatch, b.Header.Number, prev.Header.Number)
		}
	}
	return nil
}

// Recover rebuilds the in-memory chain from the persistent store on
// startup (§4.3.3): every bloco_ key is decoded and inserted sorted by
// number; if any decode fails or the set of numbers is not the contiguous
// range [0, max], recovery aborts — partial loads are not allowed, and a
// non-contiguous persisted chain is explicitly rejected rather than
// silently misindexed (the "position == number" assumption the original
// design left as an open question).
func (s *Store) Recover() error {
	if s.persist == nil {
		return nil
	}

	numbers, err := s.persist.AllBlockNumbers()
	if err != nil {
		return fmt.Errorf("%w: list blocks: %v", errs.ErrDecode, err)
	}
	sort.Slice(numbers, func(i, j int) bool { return numbers[i] < numbers[j] })

	for i, n := range numbers {
		if uint64(i) != n {
			return fmt.Errorf("%w: non-contiguous persisted chain at position %d (found number %d)", errs.ErrDecode, i, n)
		}
	}

	blocks := make([]*core.Block, 0, len(numbers))
	for _, n := range numbers {
		b, ok, err := s.persist.GetBlock(n)
		if err != nil {
			return err
		}
		if !ok {
			return fmt.Errorf("%w: block %d vanished mid-scan", errs.ErrDecode, n)
		}
		blocks = append(blocks, b)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.blocks = blocks
	s.byHash = make(map[hashing.Digest]int, len(blocks))
	for i, b := range blocks {
		s.byHash[b.BlockHash] = i
	}
	s.difficulty = GenesisDifficulty
	for length := DifficultyAdjustPeriod; length <= len(blocks); length += DifficultyAdjustPeriod {
		if length > DifficultyAdjustFloor {
			s.difficulty++
		}
	}
	return nil
}
