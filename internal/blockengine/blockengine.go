// Package blockengine builds, mines, validates, and (de)serializes blocks
// (§4.2). Encoding uses an explicit-size-prefixed LZ4 frame for the
// canonical on-disk/wire format, with JSON retained as a parallel
// interoperability format that is never used for hashing.
package blockengine

import (
	"bytes"
	"encoding/binary"
	"encoding/gob"
	"encoding/json"
	"time"

	"github.com/pierrec/lz4/v4"

	"rotorchain/internal/core"
	"rotorchain/internal/errs"
	"rotorchain/internal/hashing"
	"rotorchain/internal/merkle"
)

// Build assembles an unmined block: computes the Merkle root over txs and
// sets every header field except MiningNonce (left at 0) and BlockHash/
// MinerSig (left zero until Mine succeeds).
func Build(number uint64, prevHash hashing.Digest, txs []core.Transaction, minerID string, difficulty uint32, now time.Time) *core.Block {
	leaves := make([]hashing.Digest, len(txs))
	for i := range txs {
		leaves[i] = txs[i].LeafDigest()
	}
	root := merkle.Root(leaves)

	return &core.Block{
		Header: core.BlockHeader{
			Number:        number,
			PrevBlockHash: prevHash,
			MerkleRoot:    root,
			Timestamp:     now,
			MiningNonce:   0,
			Difficulty:    difficulty,
		},
		Transactions: txs,
		MinerID:      minerID,
	}
}

// Mine increments MiningNonce from 0, recomputing the block hash each try,
// until the hash meets the block's declared difficulty or maxIters is
// exhausted. On success it also (re)computes MinerSig; on failure neither
// BlockHash nor MinerSig is touched, per §4.2.
func Mine(b *core.Block, maxIters uint64) bool {
	for nonce := uint64(0); nonce < maxIters; nonce++ {
		b.Header.MiningNonce = nonce
		hash := b.Header.Digest()
		if hashing.MeetsDifficulty(hash, b.Header.Difficulty) {
			b.BlockHash = hash
			b.MinerSig = b.ComputeMinerSig(hash)
			return true
		}
	}
	return false
}

// ValidateStructure delegates to core.Block.ValidateStructure; kept here
// too so callers needing PoW and structural checks can import just this
// package (§4.2's exposed surface groups both).
func ValidateStructure(b *core.Block) (bool, error) {
	return b.ValidateStructure()
}

// ValidatePoW checks the difficulty predicate alone: the hex form of
// BlockHash must begin with Header.Difficulty zero characters. difficulty
// 0 always passes.
func ValidatePoW(b *core.Block) (bool, error) {
	if !hashing.MeetsDifficulty(b.BlockHash, b.Header.Difficulty) {
		return false, errs.ErrDifficultyNotMet
	}
	return true, nil
}

// wireBlock is the explicit, order-fixed field layout encoded into the LZ4
// frame. It mirrors core.Block/core.BlockHeader but flattens digests to
// raw byte slices and the timestamp to Unix nanoseconds so the layout is
// independent of any future change to core's JSON tags.
type wireBlock struct {
	Number        uint64
	PrevBlockHash []byte
	MerkleRoot    []byte
	Timestamp     int64
	MiningNonce   uint64
	Difficulty    uint32
	BlockHash     []byte
	MinerSig      []byte
	MinerID       string
	Transactions  []wireTx
}

type wireTx struct {
	ID        string
	Payload   []byte
	PrevState []byte
	PostState []byte
	Nonce     uint64
	Signature []byte
	Timestamp int64
}

func toWire(b *core.Block) wireBlock {
	txs := make([]wireTx, len(b.Transactions))
	for i, tx := range b.Transactions {
		txs[i] = wireTx{
			ID:        tx.ID,
			Payload:   tx.Payload,
			PrevState: tx.PrevState[:],
			PostState: tx.PostState[:],
			Nonce:     tx.Nonce,
			Signature: tx.Signature,
			Timestamp: tx.Timestamp.UTC().UnixNano(),
		}
	}
	return wireBlock{
		Number:        b.Header.Number,
		PrevBlockHash: b.Header.PrevBlockHash[:],
		MerkleRoot:    b.Header.MerkleRoot[:],
		Timestamp:     b.Header.Timestamp.UTC().UnixNano(),
		MiningNonce:   b.Header.MiningNonce,
		Difficulty:    b.Header.Difficulty,
		BlockHash:     b.BlockHash[:],
		MinerSig:      b.MinerSig[:],
		MinerID:       b.MinerID,
		Transactions:  txs,
	}
}

func fromWire(w wireBlock) (*core.Block, error) {
	prevHash, ok := hashing.FromBytes(w.PrevBlockHash)
	if !ok {
		return nil, errs.ErrDecode
	}
	merkleRoot, ok := hashing.FromBytes(w.MerkleRoot)
	if !ok {
		return nil, errs.ErrDecode
	}
	blockHash, ok := hashing.FromBytes(w.BlockHash)
	if !ok {
		return nil, errs.ErrDecode
	}
	minerSig, ok := hashing.FromBytes(w.MinerSig)
	if !ok {
		return nil, errs.ErrDecode
	}

	txs := make([]core.Transaction, len(w.Transactions))
	for i, wt := range w.Transactions {
		prevState, ok := hashing.FromBytes(wt.PrevState)
		if !ok {
			return nil, errs.ErrDecode
		}
		postState, ok := hashing.FromBytes(wt.PostState)
		if !ok {
			return nil, errs.ErrDecode
		}
		txs[i] = core.Transaction{
			ID:        wt.ID,
			Payload:   wt.Payload,
			PrevState: prevState,
			PostState: postState,
			Nonce:     wt.Nonce,
			Signature: wt.Signature,
			Timestamp: time.Unix(0, wt.Timestamp).UTC(),
		}
	}

	return &core.Block{
		Header: core.BlockHeader{
			Number:        w.Number,
			PrevBlockHash: prevHash,
			MerkleRoot:    merkleRoot,
			Timestamp:     time.Unix(0, w.Timestamp).UTC(),
			MiningNonce:   w.MiningNonce,
			Difficulty:    w.Difficulty,
		},
		Transactions: txs,
		BlockHash:    blockHash,
		MinerSig:     minerSig,
		MinerID:      w.MinerID,
	}, nil
}

// Encode serializes b with gob into an LZ4 frame, prefixed with the
// uncompressed size as a little-endian u64 so Decode can preallocate and
// validate the restored length (§4.2, §6). This framing — not JSON — is
// the format chain persistence stores; block hashes are computed over the
// canonical header (hashing.CanonicalHeader), not over this encoding.
func Encode(b *core.Block) ([]byte, error) {
	raw, err := gobEncode(toWire(b))
	if err != nil {
		return nil, errs.ErrDecode
	}

	compressed := make([]byte, lz4.CompressBlockBound(len(raw)))
	var c lz4.Compressor
	n, err := c.CompressBlock(raw, compressed)
	if err != nil {
		return nil, errs.ErrDecode
	}
	compressed = compressed[:n]

	out := make([]byte, 8+len(compressed))
	binary.LittleEndian.PutUint64(out[:8], uint64(len(raw)))
	copy(out[8:], compressed)
	return out, nil
}

// Decode restores a block from the framing Encode produces.
func Decode(b []byte) (*core.Block, error) {
	if len(b) < 8 {
		return nil, errs.ErrDecode
	}
	uncompressedSize := binary.LittleEndian.Uint64(b[:8])
	raw := make([]byte, uncompressedSize)
	n, err := lz4.UncompressBlock(b[8:], raw)
	if err != nil {
		return nil, errs.ErrDecode
	}
	if uint64(n) != uncompressedSize {
		return nil, errs.ErrDecode
	}

	var w wireBlock
	if err := gobDecode(raw, &w); err != nil {
		return nil, errs.ErrDecode
	}
	return fromWire(w)
}

// EncodeJSON is the parallel interoperability format; never used to
// compute a block's hash.
func EncodeJSON(b *core.Block) ([]byte, error) {
	return json.Marshal(b)
}

// DecodeJSON is the inverse of EncodeJSON.
func DecodeJSON(data []byte) (*core.Block, error) {
	var b core.Block
	if err := json.Unmarshal(data, &b); err != nil {
		return nil, errs.ErrDecode
	}
	return &b, nil
}

func gobEncode(v any) ([]byte, error) {
	var buf bytes.Buffer
	if err := gob.NewEncoder(&buf).Encode(v); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func gobDecode(data []byte, v any) error {
	return gob.NewDecoder(bytes.NewReader(data)).Decode(v)
}
