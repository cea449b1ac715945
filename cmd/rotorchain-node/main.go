package main

import (
	"crypto/rand"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"sync/atomic"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"rotorchain/internal/cache"
	"rotorchain/internal/chainstore"
	"rotorchain/internal/checkpoint"
	"rotorchain/internal/collab"
	"rotorchain/internal/config"
	"rotorchain/internal/consensus"
	"rotorchain/internal/core"
	"rotorchain/internal/detector"
	"rotorchain/internal/obslog"
)

// simulatedNodeCount is how many local round participants this single
// process simulates when no external collaborators are configured. A real
// deployment would register one RegisteredNode per network peer via
// internal/collab instead of generating them locally.
const simulatedNodeCount = 4

func newRootCommand() *cobra.Command {
	v := viper.New()
	cmd := &cobra.Command{
		Use:   "rotorchain-node",
		Short: "Run a rotorchain consensus node",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(v)
			if err != nil {
				return fmt.Errorf("load config: %w", err)
			}
			return runNode(cfg)
		},
	}
	config.BindFlags(cmd, v)
	return cmd
}

func main() {
	if err := newRootCommand().Execute(); err != nil {
		os.Exit(1)
	}
}

// runNode builds every node component, starts the consensus engine, and
// blocks until an OS signal requests shutdown. The initialization logic
// lives in buildNode so it can be exercised directly by tests without
// waiting on a signal.
func runNode(cfg config.Config) error {
	node, err := buildNode(cfg)
	if err != nil {
		return err
	}

	node.log.Info().Int("nodes", len(node.nodes)).Msg("consensus engine started")
	go watchChainProgress(node.chain, node.checkpointMgr, node.validationCache, node.transport, node.rewardLedger, node.log)

	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, os.Interrupt, syscall.SIGTERM)
	sig := <-shutdown
	node.log.Info().Str("signal", sig.String()).Msg("shutting down")

	node.engine.Stop()
	node.log.Info().Uint64("processed_rounds", node.engine.ProcessedCount()).Msg("rotorchain node stopped cleanly")
	return nil
}

// builtNode holds every component buildNode wires together, so runNode and
// tests can start/stop the engine without repeating construction logic.
type builtNode struct {
	log             obslog.Logger
	chain           *chainstore.Store
	persist         *chainstore.Persistence
	engine          *consensus.Engine
	checkpointMgr   *checkpoint.Manager
	validationCache *cache.ValidationCache
	transport       *collab.SimulatedTransport
	rewardLedger    *collab.SimulatedRewardLedger
	nodes           []consensus.RegisteredNode
}

// buildNode performs every initialization step runNode needs: opening
// persistence, recovering or seeding the chain, and wiring the consensus
// engine plus its supporting caches, checkpoint manager, and collaborator
// stand-ins. It starts the engine before returning.
func buildNode(cfg config.Config) (*builtNode, error) {
	log := obslog.NewPretty("node", cfg.LogLevel)
	log.Info().Str("node_id", cfg.NodeID).Msg("starting rotorchain node")

	if err := os.MkdirAll(cfg.DataDir, 0o755); err != nil {
		return nil, fmt.Errorf("create data dir: %w", err)
	}

	persist, err := chainstore.OpenPersistence(filepath.Join(cfg.DataDir, "chain.db"))
	if err != nil {
		return nil, fmt.Errorf("open persistence: %w", err)
	}

	chain := chainstore.New(persist)
	if err := chain.Recover(); err != nil {
		_ = persist.Close()
		return nil, fmt.Errorf("recover chain: %w", err)
	}
	if chain.Height() == 0 {
		if _, ok := chain.GetByNumber(0); !ok {
			if err := chain.InitializeWithGenesis(time.Now()); err != nil {
				_ = persist.Close()
				return nil, fmt.Errorf("initialize genesis: %w", err)
			}
			log.Info().Msg("genesis block created")
		}
	}
	log.Info().Int("height", chain.Height()).Msg("chain loaded")

	det := detector.New()
	validationCache := cache.NewValidationCache(cfg.CacheCapacity)
	seenTx := cache.NewSeenTxSet(cfg.SeenSetCapacity, cache.SeenSetDropBatch)

	checkpointMgr := checkpoint.NewManager(cfg.CheckpointInterval, int(cfg.Retention), func(blockNumber uint64) ([]byte, error) {
		block, ok := chain.GetByNumber(blockNumber)
		if !ok {
			return nil, fmt.Errorf("replay: block %d not found", blockNumber)
		}
		return block.BlockHash.Bytes(), nil
	})

	transport := collab.NewSimulatedTransport(cfg.NodeID)
	rewardLedger := collab.NewSimulatedRewardLedger()

	nodes, err := simulatedNodes(simulatedNodeCount, seenTx)
	if err != nil {
		_ = persist.Close()
		return nil, fmt.Errorf("generate simulated nodes: %w", err)
	}

	engine := consensus.NewEngine(chain, det, log, nodes, cfg.QuorumThreshold, cfg.RoundInterval)
	engine.Start()

	return &builtNode{
		log:             log,
		chain:           chain,
		persist:         persist,
		engine:          engine,
		checkpointMgr:   checkpointMgr,
		validationCache: validationCache,
		transport:       transport,
		rewardLedger:    rewardLedger,
		nodes:           nodes,
	}, nil
}

// Close stops the engine and closes persistence, for callers (tests, or a
// future multi-node-in-one-process harness) that built a node without
// going through runNode's signal-driven lifecycle.
func (n *builtNode) Close() {
	n.engine.Stop()
	_ = n.persist.Close()
}

// processorReward is the amount credited to a round's processor once its
// block lands on the chain. The reward policy itself is out of scope
// (collab.RewardLedger is a thin collaborator interface); this is just the
// flat amount the simulated in-process ledger applies.
const processorReward = 1

// watchChainProgress polls the chain tip. For each newly-seen block it:
// validates the chain (caching the result so a repeated poll of the same
// tip is free), credits the block's miner in rewardLedger, broadcasts a
// Transaction-kind notification over transport, and produces a checkpoint
// whenever the height crosses a checkpoint boundary. A fixed poll interval
// stands in for a proper block-appended notification, which chainstore
// does not currently expose.
func watchChainProgress(chain *chainstore.Store, mgr *checkpoint.Manager, validationCache *cache.ValidationCache, transport *collab.SimulatedTransport, rewardLedger *collab.SimulatedRewardLedger, log obslog.Logger) {
	var lastSeen uint64
	var lastCheckpointed uint64
	ticker := time.NewTicker(time.Second)
	defer ticker.Stop()
	for range ticker.C {
		tip, ok := chain.GetTip()
		if !ok {
			continue
		}

		if _, cached := validationCache.Get(tip.BlockHash); !cached {
			start := time.Now()
			result := cache.ValidationResult{Valid: true}
			if err := chain.ValidateChain(); err != nil {
				result.Valid = false
				result.Errors = []string{err.Error()}
			}
			result.Elapsed = time.Since(start)
			validationCache.Put(tip.BlockHash, result)
			if !result.Valid {
				log.Warn().Strs("errors", result.Errors).Msg("chain validation failed at current tip")
			}
		}

		number := tip.Header.Number
		if number > lastSeen {
			lastSeen = number
			rewardLedger.Credit(tip.MinerID, processorReward)
			if msg, err := collab.NewMessage(collab.KindTransaction, tip.MinerID, tip.BlockHash.Bytes(), time.Now()); err == nil {
				transport.Broadcast(msg)
			}
			log.Info().Str("miner", tip.MinerID).Uint64("balance", rewardLedger.Balance(tip.MinerID)).Msg("processor credited")
		}

		if number <= lastCheckpointed || !mgr.ShouldCheckpoint(number) {
			continue
		}
		cp, err := mgr.Produce(tip)
		if err != nil {
			log.Warn().Err(err).Uint64("block", number).Msg("checkpoint production failed")
			continue
		}
		lastCheckpointed = number
		log.Info().Uint64("block", cp.BlockNumber).Msg("checkpoint produced")
	}
}

// simulatedNodes builds n locally-simulated round participants, each with
// its own keypair-stand-in and a shared transaction feed so a processed
// round always has a transaction to fold in regardless of which seat the
// deterministic ordering selects as processor. seenTx guards against
// resubmitting a transaction id the engine has already drawn.
func simulatedNodes(n int, seenTx *cache.SeenTxSet) ([]consensus.RegisteredNode, error) {
	var counter atomic.Uint64
	nextTx := func() (core.Transaction, bool) {
		seq := counter.Add(1)
		id := fmt.Sprintf("tx-%d", seq)
		if !seenTx.Add(id) {
			return core.Transaction{}, false
		}
		return core.Transaction{
			ID:        id,
			Payload:   []byte(fmt.Sprintf("payload-%d", seq)),
			Timestamp: time.Now(),
		}, true
	}

	nodes := make([]consensus.RegisteredNode, 0, n)
	for i := 0; i < n; i++ {
		pub := make([]byte, 32)
		if _, err := rand.Read(pub); err != nil {
			return nil, fmt.Errorf("generate public key: %w", err)
		}
		nonce := make([]byte, 16)
		if _, err := rand.Read(nonce); err != nil {
			return nil, fmt.Errorf("generate nonce: %w", err)
		}
		nodes = append(nodes, consensus.RegisteredNode{
			Node: core.Node{
				ID:        fmt.Sprintf("node-%d", i),
				PublicKey: pub,
				Active:    true,
			},
			Nonce:  nonce,
			NextTx: nextTx,
		})
	}
	return nodes, nil
}
