package main

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"rotorchain/internal/config"
)

// TestBuildNode_InitializationAndGracefulStop exercises the core node
// initialization sequence and the engine's start/stop lifecycle, the same
// shape the teacher's empower1d main_test.go covers.
func TestBuildNode_InitializationAndGracefulStop(t *testing.T) {
	cfg := config.Defaults()
	cfg.DataDir = t.TempDir()
	cfg.RoundInterval = 10 * time.Millisecond
	cfg.LogLevel = "error"

	node, err := buildNode(cfg)
	require.NoError(t, err)
	require.NotNil(t, node)
	defer node.Close()

	// Let the engine run for a few ticks to catch any immediate panic from
	// its round loop.
	time.Sleep(100 * time.Millisecond)

	require.GreaterOrEqual(t, node.chain.Height(), 1, "genesis block should exist")
}

func TestBuildNode_RecoversExistingChainOnSecondStart(t *testing.T) {
	cfg := config.Defaults()
	cfg.DataDir = t.TempDir()
	cfg.RoundInterval = time.Hour
	cfg.LogLevel = "error"

	first, err := buildNode(cfg)
	require.NoError(t, err)
	firstHeight := first.chain.Height()
	first.Close()

	second, err := buildNode(cfg)
	require.NoError(t, err)
	defer second.Close()

	require.Equal(t, firstHeight, second.chain.Height())
}
