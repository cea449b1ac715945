package core

import (
	"errors"
	"time"

	"rotorchain/internal/hashing"
)

// ValidationVote errors.
var (
	ErrVoteEmptyValidatorID = errors.New("vote: validator id cannot be empty")
	ErrVoteStale             = errors.New("vote: timestamp outside the acceptance window")
)

// VoteWindow is the ±10 minute acceptance window §3 places on a
// ValidationVote's timestamp.
const VoteWindow = 10 * time.Minute

// ValidationVote is one validator's independently recomputed (tx_hash,
// chain_hash) pair for the transaction the current round's processor
// folded in.
type ValidationVote struct {
	TxHash      hashing.Digest `json:"txHash"`
	ChainHash   hashing.Digest `json:"chainHash"`
	ValidatorID string         `json:"validatorId"`
	Signature   hashing.Digest `json:"signature"`
	Timestamp   time.Time      `json:"timestamp"`
}

// ComputeSignature returns H(tx_hash‖chain_hash‖validator_id), the value a
// valid vote's Signature field must equal.
func (v *ValidationVote) ComputeSignature() hashing.Digest {
	buf := make([]byte, 0, hashing.Size*2+len(v.ValidatorID))
	buf = append(buf, v.TxHash[:]...)
	buf = append(buf, v.ChainHash[:]...)
	buf = append(buf, v.ValidatorID...)
	return hashing.H(buf)
}

// Validate checks the vote's structural invariants: a non-empty validator
// id, a timestamp within VoteWindow of now, and a matching signature.
func (v *ValidationVote) Validate(now time.Time) error {
	if v == nil || v.ValidatorID == "" {
		return ErrVoteEmptyValidatorID
	}
	age := now.Sub(v.Timestamp)
	if age > VoteWindow || age < -VoteWindow {
		return ErrVoteStale
	}
	if v.ComputeSignature() != v.Signature {
		return errors.New("vote: signature does not match tx_hash, chain_hash, validator_id")
	}
	return nil
}
