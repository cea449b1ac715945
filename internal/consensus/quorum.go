package consensus

import (
	"math"
	"sync"
	"time"

	"rotorchain/internal/core"
	"rotorchain/internal/hashing"
)

// DefaultQuorumThreshold is the fraction of the node population whose
// agreement is required, absent configuration (§4.4.6).
const DefaultQuorumThreshold = 0.7

// VoteBox collects the current round's validation votes.
type VoteBox struct {
	mu    sync.RWMutex
	votes []core.ValidationVote
}

// NewVoteBox returns an empty box.
func NewVoteBox() *VoteBox {
	return &VoteBox{}
}

// Submit validates v and records it.
func (b *VoteBox) Submit(v core.ValidationVote) error {
	if err := v.Validate(time.Now()); err != nil {
		return err
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	b.votes = append(b.votes, v)
	return nil
}

// Votes returns a snapshot of the collected votes.
func (b *VoteBox) Votes() []core.ValidationVote {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return append([]core.ValidationVote(nil), b.votes...)
}

// Reset clears the box for the next round.
func (b *VoteBox) Reset() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.votes = nil
}

// QuorumResult is the outcome of evaluating a vote set.
type QuorumResult struct {
	Reached        bool
	MajorityTxHash hashing.Digest
	MajorityChain  hashing.Digest
	VoteCount      int
	RequiredCount  int
}

// Evaluate implements §4.4.6: quorum requires a strict majority (>50%) of
// both tx_hash and chain_hash among the collected votes AND the number of
// votes agreeing on that majority (tx_hash, chain_hash) pair to meet
// ⌈threshold × nodeCount⌉. VoteCount reports that agreeing count.
func Evaluate(votes []core.ValidationVote, nodeCount int, threshold float64) QuorumResult {
	if threshold <= 0 {
		threshold = DefaultQuorumThreshold
	}
	required := int(math.Ceil(threshold * float64(nodeCount)))

	txCounts := make(map[hashing.Digest]int)
	chainCounts := make(map[hashing.Digest]int)
	for _, v := range votes {
		txCounts[v.TxHash]++
		chainCounts[v.ChainHash]++
	}

	majorityTx, txOK := strictMajority(txCounts, len(votes))
	majorityChain, chainOK := strictMajority(chainCounts, len(votes))

	agreeing := 0
	for _, v := range votes {
		if v.TxHash == majorityTx && v.ChainHash == majorityChain {
			agreeing++
		}
	}

	reached := agreeing >= required && txOK && chainOK

	return QuorumResult{
		Reached:        reached,
		MajorityTxHash: majorityTx,
		MajorityChain:  majorityChain,
		VoteCount:      agreeing,
		RequiredCount:  required,
	}
}

func strictMajority(counts map[hashing.Digest]int, total int) (hashing.Digest, bool) {
	var best hashing.Digest
	bestCount := 0
	for d, c := range counts {
		if c > bestCount {
			best, bestCount = d, c
		}
	}
	if total == 0 {
		return hashing.Zero, false
	}
	return best, bestCount*2 > total
}
