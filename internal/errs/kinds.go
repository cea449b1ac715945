// Package errs catalogs the cross-cutting error kinds surfaced by the
// consensus and chain engines, per the error-handling design: structural
// and cryptographic faults are reported as booleans from validation
// functions, while I/O and serialization faults propagate as typed errors.
package errs

import "errors"

// Commitment / reveal phase errors. Warn, drop the offending message, and
// continue the round.
var (
	ErrInvalidCommitment  = errors.New("invalid commitment")
	ErrInvalidReveal      = errors.New("invalid reveal")
	ErrMissingCommitment  = errors.New("reveal has no matching commitment")
)

// Block / chain errors. A BlockStructureInvalid, MerkleMismatch, or
// BadSignature rejects the block and aborts the round; LinkMismatch and
// OutOfSequence reject the block and require a network re-sync, which is a
// collaborator's responsibility, not this package's.
var (
	ErrBlockStructureInvalid = errors.New("block structure invalid")
	ErrMerkleMismatch        = errors.New("merkle root mismatch")
	ErrBadSignature          = errors.New("miner signature mismatch")
	ErrLinkMismatch          = errors.New("block does not extend the chain tip")
	ErrOutOfSequence         = errors.New("block number out of sequence")
	ErrDifficultyNotMet      = errors.New("proof of work target not met")
)

// Persistence / serialization errors. Fatal at startup; per-call during
// runtime operation.
var (
	ErrPersistence = errors.New("persistence error")
	ErrDecode      = errors.New("decode error")
)

// Consensus round errors.
var (
	ErrQuorumTimeout              = errors.New("quorum not reached before timeout")
	ErrMaliciousNodeThresholdReached = errors.New("node crossed malicious suspicion threshold")
)
