package core

import (
	"time"

	"rotorchain/internal/hashing"
)

// Checkpoint anchors a block hash to a derived-state digest so a node can
// bound how far back it must replay during recovery (§4.7).
type Checkpoint struct {
	BlockNumber     uint64         `json:"blockNumber"`
	BlockHash       hashing.Digest `json:"blockHash"`
	StateMerkleRoot hashing.Digest `json:"stateMerkleRoot"`
	Timestamp       time.Time      `json:"timestamp"`
	Signature       hashing.Digest `json:"signature"`
	ValidatorSet    []string       `json:"validatorSet"`
}

// ComputeSignature returns H(block_hash‖serialized_state), the value a
// valid checkpoint's Signature field must equal.
func ComputeSignature(blockHash hashing.Digest, serializedState []byte) hashing.Digest {
	return hashing.HConcat(blockHash[:], serializedState)
}

// ComputeStateMerkleRoot returns H(serialized_state), stored as the
// checkpoint's state merkle root (§4.7: "H(serialized_state) as the state
// merkle root").
func ComputeStateMerkleRoot(serializedState []byte) hashing.Digest {
	return hashing.H(serializedState)
}
