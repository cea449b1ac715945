// Package hashing implements the single domain hash the rest of the node
// relies on for byte-identical cross-node agreement, plus the handful of
// higher-level digests derived from it (commitment digest, seat digest,
// block-header digest, wire-message digest).
//
// Every digest in this package must be byte-identical across nodes running
// different builds of this code; changing field order, endianness, or
// concatenation here changes consensus outcomes.
package hashing

import (
	"crypto/sha256"
	"encoding/binary"
	"time"

	"golang.org/x/crypto/sha3"
)

// Size is the width in bytes of every digest this package produces.
const Size = sha256.Size

// Digest is a 32-byte SHA-256 output.
type Digest [Size]byte

// Zero is the all-zero digest used as the genesis previous-hash and the
// empty-Merkle-tree root.
var Zero Digest

// IsZero reports whether d is the all-zero digest.
func (d Digest) IsZero() bool { return d == Zero }

// Bytes returns d as a freshly allocated slice.
func (d Digest) Bytes() []byte {
	out := make([]byte, Size)
	copy(out, d[:])
	return out
}

// String returns the lowercase hex encoding of d.
func (d Digest) String() string {
	const hextable = "0123456789abcdef"
	out := make([]byte, 2*Size)
	for i, b := range d {
		out[i*2] = hextable[b>>4]
		out[i*2+1] = hextable[b&0x0f]
	}
	return string(out)
}

// FromBytes copies b into a Digest. b must be exactly Size bytes.
func FromBytes(b []byte) (Digest, bool) {
	var d Digest
	if len(b) != Size {
		return d, false
	}
	copy(d[:], b)
	return d, true
}

// H is the domain hash: SHA-256 over raw bytes, no separator.
func H(b []byte) Digest {
	return Digest(sha256.Sum256(b))
}

// HConcat is H(a‖b) without allocating an intermediate concatenated slice
// when the caller already has two separate buffers (commitments, seat
// digests, chain-hash folds, message signatures all have this two-part
// shape).
func HConcat(a, b []byte) Digest {
	h := sha256.New()
	h.Write(a)
	h.Write(b)
	var out Digest
	copy(out[:], h.Sum(nil))
	return out
}

// CommitmentDigest computes H(pk ‖ nonce), the value stored in a
// Commitment and recomputed during Reveal.
func CommitmentDigest(publicKey, nonce []byte) Digest {
	return HConcat(publicKey, nonce)
}

// SeatDigest computes H(pk ‖ globalSeed), the sort key that determines a
// node's position in the ordered queue for a round.
func SeatDigest(publicKey []byte, globalSeed Digest) Digest {
	return HConcat(publicKey, globalSeed[:])
}

// MessageDigest computes H(sender ‖ payload), the signature field of a
// wire message.
func MessageDigest(sender, payload []byte) Digest {
	return HConcat(sender, payload)
}

// CanonicalHeader serializes the fields of a block header in the fixed
// order and endianness §4.1 requires: number, prev_block_hash, merkle_root,
// timestamp, mining_nonce, difficulty — little-endian integers, ISO-8601
// UTC timestamp.
func CanonicalHeader(number uint64, prevBlockHash, merkleRoot Digest, timestamp time.Time, miningNonce uint64, difficulty uint32) []byte {
	tsBytes := []byte(timestamp.UTC().Format(time.RFC3339Nano))
	buf := make([]byte, 0, 8+Size+Size+8+8+4+len(tsBytes)+4)
	var num [8]byte
	binary.LittleEndian.PutUint64(num[:], number)
	buf = append(buf, num[:]...)
	buf = append(buf, prevBlockHash[:]...)
	buf = append(buf, merkleRoot[:]...)

	var tsLen [4]byte
	binary.LittleEndian.PutUint32(tsLen[:], uint32(len(tsBytes)))
	buf = append(buf, tsLen[:]...)
	buf = append(buf, tsBytes...)

	var nonce [8]byte
	binary.LittleEndian.PutUint64(nonce[:], miningNonce)
	buf = append(buf, nonce[:]...)

	var diff [4]byte
	binary.LittleEndian.PutUint32(diff[:], difficulty)
	buf = append(buf, diff[:]...)

	return buf
}

// BlockHeaderDigest is H(canonical(header)).
func BlockHeaderDigest(number uint64, prevBlockHash, merkleRoot Digest, timestamp time.Time, miningNonce uint64, difficulty uint32) Digest {
	return H(CanonicalHeader(number, prevBlockHash, merkleRoot, timestamp, miningNonce, difficulty))
}

// LeadingZeroHexDigits reports how many leading hex-zero characters d's hex
// representation has, the difficulty predicate §4.2 uses.
func LeadingZeroHexDigits(d Digest) uint32 {
	var n uint32
	for _, b := range d {
		if b == 0 {
			n += 2
			continue
		}
		if b>>4 == 0 {
			n++
		}
		break
	}
	return n
}

// MeetsDifficulty reports whether d's hex representation begins with at
// least `difficulty` zero characters. difficulty 0 always passes.
func MeetsDifficulty(d Digest, difficulty uint32) bool {
	return LeadingZeroHexDigits(d) >= difficulty
}

// ManifestChecksum is a non-consensus-critical integrity checksum, never
// used for anything that must agree across nodes. It uses a distinct
// algorithm (SHA3-256) from the domain hash so a bug that corrupts one
// cannot silently pass the other's check. No other package in this module
// calls it; the chain store keeps no manifest file to verify.
func ManifestChecksum(b []byte) [32]byte {
	return sha3.Sum256(b)
}
