package core

import (
	"errors"
	"time"

	"rotorchain/internal/hashing"
)

// Reveal-phase errors.
var (
	ErrRevealEmptyNodeID    = errors.New("reveal: node id cannot be empty")
	ErrRevealHashMismatch   = errors.New("reveal: H(public_key||nonce) does not match commitment")
)

// Reveal is a node's disclosed key material for the current round. It is
// promoted into the round's approved set once its hash matches the node's
// stored Commitment.
type Reveal struct {
	PublicKey []byte    `json:"publicKey"`
	Nonce     []byte    `json:"nonce"`
	NodeID    string    `json:"nodeId"`
	Timestamp time.Time `json:"timestamp"`
}

// Digest computes H(public_key‖nonce) for this reveal.
func (r *Reveal) Digest() hashing.Digest {
	return hashing.CommitmentDigest(r.PublicKey, r.Nonce)
}

// Matches reports whether r's digest equals the stored commitment's hash,
// the sole admission test for promoting a node into the approved set
// (§4.4.2). Invariant 4 in §8 is exactly this equality.
func (r *Reveal) Matches(c *Commitment) bool {
	if r == nil || c == nil {
		return false
	}
	return r.Digest() == c.Hash
}

// Validate checks the structural invariants of a reveal in isolation (a
// non-empty node id); hash matching against a commitment is checked
// separately via Matches, since it requires the paired Commitment.
func (r *Reveal) Validate() error {
	if r == nil || r.NodeID == "" {
		return ErrRevealEmptyNodeID
	}
	return nil
}
