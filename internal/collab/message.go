// Package collab implements the §6 collaborator contract: wire messages,
// peer records, a simulated in-process transport, and the retry policy
// described in §5 — generalizing the teacher's block/transaction-only
// simulated network to all four message kinds the spec defines.
package collab

import (
	"crypto/rand"
	"encoding/binary"
	"fmt"
	"time"

	"rotorchain/internal/hashing"
)

// Kind is one of the four wire-message kinds the collaborator contract
// defines (§6).
type Kind string

const (
	KindCommitment  Kind = "Commitment"
	KindReveal      Kind = "Reveal"
	KindValidation  Kind = "Validation"
	KindTransaction Kind = "Transaction"
)

// Message is the wire envelope: {id, kind, sender, timestamp,
// payload_bytes, signature} where signature = H(sender ‖ payload_bytes)
// and id = "msg_{ns_epoch}_{random_u32}" (§6).
type Message struct {
	ID        string
	Kind      Kind
	Sender    string
	Timestamp time.Time
	Payload   []byte
	Signature hashing.Digest
}

// NewMessage builds a signed Message. The signature is computed over
// sender and payload; receivers must verify it before delivering the
// message to the engine (§6).
func NewMessage(kind Kind, sender string, payload []byte, now time.Time) (Message, error) {
	id, err := newMessageID(now)
	if err != nil {
		return Message{}, err
	}
	return Message{
		ID:        id,
		Kind:      kind,
		Sender:    sender,
		Timestamp: now,
		Payload:   payload,
		Signature: hashing.HConcat([]byte(sender), payload),
	}, nil
}

// Verify reports whether m's signature matches H(sender ‖ payload_bytes).
// Messages with a mismatched signature must be dropped before delivery to
// the engine (§6).
func (m Message) Verify() bool {
	return m.Signature == hashing.HConcat([]byte(m.Sender), m.Payload)
}

func newMessageID(now time.Time) (string, error) {
	var buf [4]byte
	if _, err := rand.Read(buf[:]); err != nil {
		return "", fmt.Errorf("generate message id: %w", err)
	}
	random := binary.LittleEndian.Uint32(buf[:])
	return fmt.Sprintf("msg_%d_%d", now.UnixNano(), random), nil
}
