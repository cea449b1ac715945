package blockengine

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"rotorchain/internal/core"
	"rotorchain/internal/hashing"
)

func TestGenesis_S1(t *testing.T) {
	b := Build(0, hashing.Zero, nil, "genesis", 1, time.Now())
	ok := Mine(b, 1000)
	require.True(t, ok)

	require.Equal(t, uint64(0), b.Header.Number)
	require.Equal(t, hashing.Zero, b.Header.PrevBlockHash)
	require.Equal(t, hashing.Zero, b.Header.MerkleRoot)

	structOK, err := ValidateStructure(b)
	require.NoError(t, err)
	require.True(t, structOK)

	powOK, err := ValidatePoW(b)
	require.NoError(t, err)
	require.True(t, powOK)
}

func TestAppendMinedBlock_S2(t *testing.T) {
	genesis := Build(0, hashing.Zero, nil, "genesis", 1, time.Now())
	require.True(t, Mine(genesis, 1000))

	tx := core.Transaction{ID: "t1", Payload: []byte("hello"), Timestamp: time.Now()}
	b1 := Build(1, genesis.BlockHash, []core.Transaction{tx}, "miner1", 1, time.Now())
	ok := Mine(b1, 1000)
	require.True(t, ok)

	require.Equal(t, genesis.BlockHash, b1.Header.PrevBlockHash)
	require.GreaterOrEqual(t, hashing.LeadingZeroHexDigits(b1.BlockHash), uint32(1))
}

func TestMineFailsWithinBudgetReportsFailureWithoutTouchingSig(t *testing.T) {
	b := Build(5, hashing.Zero, nil, "miner", 64, time.Now()) // effectively unreachable difficulty
	ok := Mine(b, 5)
	require.False(t, ok)
	require.Equal(t, hashing.Zero, b.MinerSig)
	require.Equal(t, hashing.Zero, b.BlockHash)
}

func TestDifficultyZeroAlwaysPasses(t *testing.T) {
	b := Build(1, hashing.Zero, nil, "miner", 0, time.Now())
	ok := Mine(b, 1)
	require.True(t, ok)
	powOK, err := ValidatePoW(b)
	require.NoError(t, err)
	require.True(t, powOK)
}

func TestEncodeDecodeRoundTrip_Invariant8(t *testing.T) {
	genesis := Build(0, hashing.Zero, nil, "genesis", 1, time.Now())
	require.True(t, Mine(genesis, 1000))

	tx := core.Transaction{
		ID:        "t1",
		Payload:   []byte("hello"),
		PrevState: hashing.H([]byte("prev")),
		PostState: hashing.H([]byte("post")),
		Nonce:     42,
		Signature: []byte("sig"),
		Timestamp: time.Now().UTC().Round(0),
	}
	b1 := Build(1, genesis.BlockHash, []core.Transaction{tx}, "miner1", 1, time.Now())
	require.True(t, Mine(b1, 2000))

	encoded, err := Encode(b1)
	require.NoError(t, err)

	decoded, err := Decode(encoded)
	require.NoError(t, err)

	require.Equal(t, b1.Header.Number, decoded.Header.Number)
	require.Equal(t, b1.Header.PrevBlockHash, decoded.Header.PrevBlockHash)
	require.Equal(t, b1.Header.MerkleRoot, decoded.Header.MerkleRoot)
	require.Equal(t, b1.Header.MiningNonce, decoded.Header.MiningNonce)
	require.Equal(t, b1.Header.Difficulty, decoded.Header.Difficulty)
	require.Equal(t, b1.BlockHash, decoded.BlockHash)
	require.Equal(t, b1.MinerSig, decoded.MinerSig)
	require.Equal(t, b1.MinerID, decoded.MinerID)
	require.Len(t, decoded.Transactions, 1)
	require.Equal(t, b1.Transactions[0].ID, decoded.Transactions[0].ID)
	require.Equal(t, b1.Transactions[0].Payload, decoded.Transactions[0].Payload)
	require.Equal(t, b1.Transactions[0].Nonce, decoded.Transactions[0].Nonce)

	structOK, err := ValidateStructure(decoded)
	require.NoError(t, err)
	require.True(t, structOK)
}

func TestDecodeRejectsTruncatedInput(t *testing.T) {
	_, err := Decode([]byte{1, 2, 3})
	require.Error(t, err)
}

func TestEncodeJSONNeverUsedForHashingButRoundTrips(t *testing.T) {
	b := Build(0, hashing.Zero, nil, "genesis", 1, time.Now())
	require.True(t, Mine(b, 1000))

	data, err := EncodeJSON(b)
	require.NoError(t, err)
	decoded, err := DecodeJSON(data)
	require.NoError(t, err)
	require.Equal(t, b.BlockHash, decoded.BlockHash)
}
