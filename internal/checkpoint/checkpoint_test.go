package checkpoint

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"rotorchain/internal/blockengine"
	"rotorchain/internal/core"
	"rotorchain/internal/hashing"
)

func replayStub(state []byte) StateReplayer {
	return func(blockNumber uint64) ([]byte, error) {
		return state, nil
	}
}

func TestShouldCheckpoint_OnIntervalBoundary(t *testing.T) {
	m := NewManager(10, 3, replayStub(nil))
	require.True(t, m.ShouldCheckpoint(10))
	require.True(t, m.ShouldCheckpoint(20))
	require.False(t, m.ShouldCheckpoint(15))
	require.False(t, m.ShouldCheckpoint(0))
}

func TestProduceAndValidate_RoundTrip(t *testing.T) {
	block := blockengine.Build(10, hashing.H([]byte("prev")), nil, "genesis", 1, time.Now())
	require.True(t, blockengine.Mine(block, 1000))

	state := []byte("derived-state-at-block-10")
	m := NewManager(10, 3, replayStub(state))

	cp, err := m.Produce(block)
	require.NoError(t, err)
	require.Equal(t, block.Header.Number, cp.BlockNumber)
	require.Equal(t, block.BlockHash, cp.BlockHash)

	lookup := func(number uint64) (*core.Block, bool) {
		if number == block.Header.Number {
			return block, true
		}
		return nil, false
	}
	require.NoError(t, m.Validate(cp, lookup))
}

func TestValidate_RejectsTamperedState(t *testing.T) {
	block := blockengine.Build(10, hashing.H([]byte("prev")), nil, "genesis", 1, time.Now())
	require.True(t, blockengine.Mine(block, 1000))

	m := NewManager(10, 3, replayStub([]byte("original-state")))
	cp, err := m.Produce(block)
	require.NoError(t, err)

	tampered := NewManager(10, 3, replayStub([]byte("tampered-state")))
	lookup := func(number uint64) (*core.Block, bool) { return block, true }
	require.Error(t, tampered.Validate(cp, lookup))
}

func TestValidate_RejectsMissingBlock(t *testing.T) {
	block := blockengine.Build(10, hashing.H([]byte("prev")), nil, "genesis", 1, time.Now())
	require.True(t, blockengine.Mine(block, 1000))

	m := NewManager(10, 3, replayStub([]byte("state")))
	cp, err := m.Produce(block)
	require.NoError(t, err)

	lookup := func(number uint64) (*core.Block, bool) { return nil, false }
	require.Error(t, m.Validate(cp, lookup))
}

func TestRetention_KeepsOnlyMostRecent(t *testing.T) {
	m := NewManager(10, 2, replayStub([]byte("s")))
	for i := uint64(1); i <= 3; i++ {
		block := blockengine.Build(i*10, hashing.H([]byte("prev")), nil, "genesis", 1, time.Now())
		require.True(t, blockengine.Mine(block, 1000))
		_, err := m.Produce(block)
		require.NoError(t, err)
	}

	all := m.All()
	require.Len(t, all, 2)
	require.Equal(t, uint64(20), all[0].BlockNumber)
	require.Equal(t, uint64(30), all[1].BlockNumber)
}
