package core

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"rotorchain/internal/hashing"
)

func TestCommitmentValidate(t *testing.T) {
	now := time.Now()
	c := &Commitment{Hash: hashing.H([]byte("x")), NodeID: "n1", Timestamp: now}
	require.NoError(t, c.Validate(now))

	stale := &Commitment{Hash: hashing.H([]byte("x")), NodeID: "n1", Timestamp: now.Add(-10 * time.Minute)}
	require.ErrorIs(t, stale.Validate(now), ErrCommitmentStale)

	empty := &Commitment{Hash: hashing.H([]byte("x")), Timestamp: now}
	require.ErrorIs(t, empty.Validate(now), ErrCommitmentEmptyNodeID)
}

func TestRevealMatchesCommitment_S4(t *testing.T) {
	var pk, nonce [32]byte
	for i := range pk {
		pk[i] = 0xAA
	}
	for i := range nonce {
		nonce[i] = 0xBB
	}
	c := &Commitment{Hash: hashing.CommitmentDigest(pk[:], nonce[:]), NodeID: "n1", Timestamp: time.Now()}
	r := &Reveal{PublicKey: pk[:], Nonce: nonce[:], NodeID: "n1", Timestamp: time.Now()}
	require.True(t, r.Matches(c))

	var otherNonce [32]byte
	for i := range otherNonce {
		otherNonce[i] = 0xCC
	}
	wrong := &Reveal{PublicKey: pk[:], Nonce: otherNonce[:], NodeID: "n1", Timestamp: time.Now()}
	require.False(t, wrong.Matches(c))
}

func TestBuildOrderedQueue_DeterministicAndOrderIndependent_S5(t *testing.T) {
	seed := hashing.H([]byte("S"))
	a := Node{ID: "A", PublicKey: []byte("A")}
	b := Node{ID: "B", PublicKey: []byte("B")}
	c := Node{ID: "C", PublicKey: []byte("C")}

	q1 := BuildOrderedQueue([]Node{a, b, c}, seed, time.Now())
	q2 := BuildOrderedQueue([]Node{c, a, b}, seed, time.Now())

	require.Equal(t, q1.NodeIDs(), q2.NodeIDs())

	q3 := BuildOrderedQueue([]Node{a, b, c}, seed, time.Now())
	require.Equal(t, q1.NodeIDs(), q3.NodeIDs())
}

func TestOrderedQueueRotationBijective_Invariant6(t *testing.T) {
	seed := hashing.H([]byte("S"))
	nodes := []Node{{ID: "A", PublicKey: []byte("A")}, {ID: "B", PublicKey: []byte("B")}, {ID: "C", PublicKey: []byte("C")}}
	q := BuildOrderedQueue(nodes, seed, time.Now())
	original := append([]string(nil), q.NodeIDs()...)

	for i := 0; i < len(original); i++ {
		q.RotateLeft()
	}
	require.Equal(t, original, q.NodeIDs())
}

func TestOrderedQueueProcessorAndValidators(t *testing.T) {
	seed := hashing.H([]byte("S"))
	nodes := []Node{{ID: "A", PublicKey: []byte("A")}, {ID: "B", PublicKey: []byte("B")}}
	q := BuildOrderedQueue(nodes, seed, time.Now())

	proc, ok := q.Processor()
	require.True(t, ok)
	validators := q.Validators()
	require.Len(t, validators, 1)
	require.NotEqual(t, proc.ID, validators[0].ID)
}

func TestTransactionValidateStructure(t *testing.T) {
	now := time.Now()
	tx := &Transaction{ID: "t1", Payload: []byte("hello"), Timestamp: now}
	require.NoError(t, tx.ValidateStructure(now))

	future := &Transaction{ID: "t1", Payload: []byte("hello"), Timestamp: now.Add(time.Hour)}
	require.ErrorIs(t, future.ValidateStructure(now), ErrTxFutureTimestamp)

	empty := &Transaction{ID: "", Payload: []byte("hello"), Timestamp: now}
	require.ErrorIs(t, empty.ValidateStructure(now), ErrTxEmptyID)
}

func TestBlockValidateStructure_Genesis_S1(t *testing.T) {
	header := BlockHeader{Number: 0, PrevBlockHash: hashing.Zero, Timestamp: time.Now()}
	block := &Block{Header: header, Transactions: nil, MinerID: "genesis"}
	block.Header.MerkleRoot = block.ComputeMerkleRoot()
	require.Equal(t, hashing.Zero, block.Header.MerkleRoot)
	block.BlockHash = block.Header.Digest()
	block.MinerSig = block.ComputeMinerSig(block.BlockHash)

	ok, err := block.ValidateStructure()
	require.NoError(t, err)
	require.True(t, ok)
}

func TestValidationVoteSignature(t *testing.T) {
	v := &ValidationVote{TxHash: hashing.H([]byte("tx")), ChainHash: hashing.H([]byte("chain")), ValidatorID: "v1", Timestamp: time.Now()}
	v.Signature = v.ComputeSignature()
	require.NoError(t, v.Validate(time.Now()))

	v.ValidatorID = "tampered"
	require.Error(t, v.Validate(time.Now()))
}
