package core

import (
	"errors"
	"time"

	"rotorchain/internal/errs"
	"rotorchain/internal/hashing"
	"rotorchain/internal/merkle"
)

// Block validation errors.
var (
	ErrBlockBadGenesisNumber   = errors.New("block: genesis must have number 0")
	ErrBlockBadGenesisPrevHash = errors.New("block: genesis prev_block_hash must be zero")
)

// BlockHeader carries every field the block hash is computed over, in the
// canonical order §4.1 defines.
type BlockHeader struct {
	Number        uint64         `json:"number"`
	PrevBlockHash hashing.Digest `json:"prevBlockHash"`
	MerkleRoot    hashing.Digest `json:"merkleRoot"`
	Timestamp     time.Time      `json:"timestamp"`
	MiningNonce   uint64         `json:"miningNonce"`
	Difficulty    uint32         `json:"difficulty"`
}

// Digest computes H(canonical(header)).
func (h BlockHeader) Digest() hashing.Digest {
	return hashing.BlockHeaderDigest(h.Number, h.PrevBlockHash, h.MerkleRoot, h.Timestamp, h.MiningNonce, h.Difficulty)
}

// Block is a header plus its transactions and the miner's attestation.
type Block struct {
	Header       BlockHeader    `json:"header"`
	Transactions []Transaction  `json:"transactions"`
	BlockHash    hashing.Digest `json:"blockHash"`
	MinerSig     hashing.Digest `json:"minerSig"`
	MinerID      string         `json:"minerId"`
}

// ComputeMerkleRoot returns the Merkle root over b's transactions,
// recomputed from leaf digests rather than trusting Header.MerkleRoot.
func (b *Block) ComputeMerkleRoot() hashing.Digest {
	leaves := make([]hashing.Digest, len(b.Transactions))
	for i := range b.Transactions {
		leaves[i] = b.Transactions[i].LeafDigest()
	}
	return merkle.Root(leaves)
}

// ComputeMinerSig returns H(block_hash‖miner_id), recomputed independent of
// the stored value.
func (b *Block) ComputeMinerSig(blockHash hashing.Digest) hashing.Digest {
	return hashing.HConcat(blockHash[:], []byte(b.MinerID))
}

// ValidateStructure recomputes block_hash, merkle_root, and miner_sig and
// checks them against the stored values, plus the genesis-specific shape
// invariants (§3, §4.3.1 rule 1). It does not check proof-of-work or chain
// linkage — see blockengine.ValidatePoW and chainstore's admission rules.
func (b *Block) ValidateStructure() (bool, error) {
	if b.Header.Number == 0 {
		if !b.Header.PrevBlockHash.IsZero() {
			return false, ErrBlockBadGenesisPrevHash
		}
	}

	wantMerkle := b.ComputeMerkleRoot()
	if wantMerkle != b.Header.MerkleRoot {
		return false, errs.ErrMerkleMismatch
	}

	wantHash := b.Header.Digest()
	if wantHash != b.BlockHash {
		return false, errs.ErrBlockStructureInvalid
	}

	wantSig := b.ComputeMinerSig(wantHash)
	if wantSig != b.MinerSig {
		return false, errs.ErrBadSignature
	}

	return true, nil
}
