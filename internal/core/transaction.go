package core

import (
	"encoding/binary"
	"errors"
	"time"

	"rotorchain/internal/hashing"
)

// Transaction validation errors.
var (
	ErrTxEmptyID        = errors.New("transaction: id cannot be empty")
	ErrTxEmptyPayload   = errors.New("transaction: payload cannot be empty")
	ErrTxEmptySignature = errors.New("transaction: signature cannot be empty")
	ErrTxFutureTimestamp = errors.New("transaction: timestamp too far in the future")
)

// TxTimestampSkew is the maximum allowed client-clock drift into the
// future, per §3 ("timestamp ≤ now + 5 min").
const TxTimestampSkew = 5 * time.Minute

// Transaction is the single unit of state transition a round's processor
// folds into the chain. PrevState/PostState/Signature are stamped by the
// processor during the Processing phase (§4.4.5); a client-submitted
// transaction arrives with them empty.
type Transaction struct {
	ID        string    `json:"id"`
	Payload   []byte    `json:"payload"`
	PrevState hashing.Digest `json:"prevState"`
	PostState hashing.Digest `json:"postState"`
	Nonce     uint64    `json:"nonce"`
	Signature []byte    `json:"signature"`
	Timestamp time.Time `json:"timestamp"`
}

// ValidateStructure checks the structural invariants §3/§4.4.5 place on a
// transaction before processing: non-empty id/payload, and a timestamp not
// further than TxTimestampSkew in the future of now. Signature is not
// required to be present yet at submission time — the processor stamps it
// — so callers that need the post-processing invariant should check
// len(tx.Signature) == 0 themselves after Process.
func (t *Transaction) ValidateStructure(now time.Time) error {
	if t == nil || t.ID == "" {
		return ErrTxEmptyID
	}
	if len(t.Payload) == 0 {
		return ErrTxEmptyPayload
	}
	if t.Timestamp.After(now.Add(TxTimestampSkew)) {
		return ErrTxFutureTimestamp
	}
	return nil
}

// ValidateProcessed additionally requires a non-empty signature, the
// invariant that holds once a transaction has gone through the Processing
// phase.
func (t *Transaction) ValidateProcessed(now time.Time) error {
	if err := t.ValidateStructure(now); err != nil {
		return err
	}
	if len(t.Signature) == 0 {
		return ErrTxEmptySignature
	}
	return nil
}

// Canonical returns the deterministic byte layout of the transaction used
// for leaf hashing (Merkle root) and for the processor's signature
// H(processor_id‖canonical(tx)). Field order is fixed: id, payload,
// prev_state, post_state, nonce (little-endian u64), timestamp.
func (t *Transaction) Canonical() []byte {
	ts := []byte(t.Timestamp.UTC().Format(time.RFC3339Nano))

	buf := make([]byte, 0, len(t.ID)+len(t.Payload)+hashing.Size*2+8+len(ts)+16)

	var idLen [4]byte
	binary.LittleEndian.PutUint32(idLen[:], uint32(len(t.ID)))
	buf = append(buf, idLen[:]...)
	buf = append(buf, t.ID...)

	var payloadLen [4]byte
	binary.LittleEndian.PutUint32(payloadLen[:], uint32(len(t.Payload)))
	buf = append(buf, payloadLen[:]...)
	buf = append(buf, t.Payload...)

	buf = append(buf, t.PrevState[:]...)
	buf = append(buf, t.PostState[:]...)

	var nonce [8]byte
	binary.LittleEndian.PutUint64(nonce[:], t.Nonce)
	buf = append(buf, nonce[:]...)

	var tsLen [4]byte
	binary.LittleEndian.PutUint32(tsLen[:], uint32(len(ts)))
	buf = append(buf, tsLen[:]...)
	buf = append(buf, ts...)

	return buf
}

// LeafDigest is H(canonical(tx)), the Merkle-tree leaf for this
// transaction (§4.1).
func (t *Transaction) LeafDigest() hashing.Digest {
	return hashing.H(t.Canonical())
}
