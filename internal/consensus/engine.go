package consensus

import (
	"sync"
	"sync/atomic"
	"time"

	"rotorchain/internal/blockengine"
	"rotorchain/internal/chainstore"
	"rotorchain/internal/core"
	"rotorchain/internal/detector"
	"rotorchain/internal/hashing"
	"rotorchain/internal/obslog"
)

// RegisteredNode pairs a node's identity with the reveal material the
// engine needs to simulate it locally (collaborator wiring happens in
// internal/collab; the engine itself is transport-agnostic).
type RegisteredNode struct {
	Node      core.Node
	Nonce     []byte
	NextTx    func() (core.Transaction, bool)
}

// Engine drives the round tick-based state machine (§4.4): it is advanced
// by an external tick — currently a fixed sleep between rounds, per the
// spec's open question on the tick-based driver. stopChan/wg mirror the
// teacher's ConsensusEngine Start/Stop discipline.
type Engine struct {
	chain      *chainstore.Store
	detector   *detector.Detector
	log        obslog.Logger
	nodes      []RegisteredNode
	threshold  float64
	tickPeriod time.Duration

	seeds    *SeedManager
	prevHash atomic.Value // hashing.Digest

	processed atomic.Uint64

	stopChan chan struct{}
	wg       sync.WaitGroup
}

// NewEngine builds an Engine over chain, reporting suspicions to det,
// logging through log. tickPeriod is the round driver's sleep interval
// (config.RoundInterval); threshold is the quorum fraction
// (config.QuorumThreshold).
func NewEngine(chain *chainstore.Store, det *detector.Detector, log obslog.Logger, nodes []RegisteredNode, threshold float64, tickPeriod time.Duration) *Engine {
	e := &Engine{
		chain:      chain,
		detector:   det,
		log:        log,
		nodes:      nodes,
		threshold:  threshold,
		tickPeriod: tickPeriod,
		seeds:      NewSeedManager(hashing.H([]byte("genesis-seed"))),
		stopChan:   make(chan struct{}),
	}
	e.prevHash.Store(hashing.Zero)
	return e
}

// Start launches the round loop in a background goroutine.
func (e *Engine) Start() {
	e.wg.Add(1)
	go func() {
		defer e.wg.Done()
		ticker := time.NewTicker(e.tickPeriod)
		defer ticker.Stop()

		for {
			select {
			case <-e.stopChan:
				return
			case <-ticker.C:
				e.runRound()
			}
		}
	}()
}

// Stop signals the round loop to exit and waits for it to drain.
func (e *Engine) Stop() {
	close(e.stopChan)
	e.wg.Wait()
}

// ProcessedCount returns the monotonic count of transactions this engine
// instance has successfully committed.
func (e *Engine) ProcessedCount() uint64 {
	return e.processed.Load()
}

// runRound executes exactly one pass of the six-phase pipeline. Failures
// at any phase abort the round without advancing prev_chain_hash; the
// next tick starts a fresh round (§7: structural/consensus faults
// terminate only the current round).
func (e *Engine) runRound() {
	now := time.Now()
	seed := e.seeds.Current()

	commitments := NewCommitmentStore()
	approved := NewApprovedSet()

	for _, rn := range e.nodes {
		commitment := core.Commitment{
			Hash:      hashing.CommitmentDigest(rn.Node.PublicKey, rn.Nonce),
			NodeID:    rn.Node.ID,
			Timestamp: now,
		}
		if err := commitments.Submit(commitment, now); err != nil {
			e.log.Warn().Str("node", rn.Node.ID).Err(err).Msg("commitment rejected")
			continue
		}
	}

	for _, rn := range e.nodes {
		reveal := core.Reveal{
			PublicKey: rn.Node.PublicKey,
			Nonce:     rn.Nonce,
			NodeID:    rn.Node.ID,
			Timestamp: now,
		}
		if err := approved.SubmitReveal(reveal, commitments); err != nil {
			e.log.Warn().Str("node", rn.Node.ID).Err(err).Msg("reveal rejected")
		}
	}

	if approved.Len() == 0 {
		e.log.Warn().Msg("round produced no approved nodes, skipping")
		return
	}

	queue := core.BuildOrderedQueue(approved.Nodes(), seed, now)
	root := AnchorQueue(queue).Root()
	e.log.Debug().Str("merkle_root", root.String()).Int("queue_len", len(queue.Nodes)).Msg("ordering anchored")

	processor, ok := queue.Processor()
	if !ok {
		return
	}

	tx, hasTx := e.txForProcessor(processor.ID)
	if !hasTx {
		queue.RotateLeft()
		return
	}

	prevChainHash := e.prevHash.Load().(hashing.Digest)
	processed, err := Process(processor.ID, tx, prevChainHash, now)
	if err != nil {
		e.log.Warn().Str("processor", processor.ID).Err(err).Msg("processing failed")
		queue.RotateLeft()
		return
	}

	votes := e.collectVotes(queue.Validators(), processed, now)
	result := Evaluate(votes, len(queue.Nodes), e.threshold)
	e.detector.IngestVotes(votes, now)

	queue.RotateLeft()

	if !result.Reached {
		e.log.Warn().Int("votes", result.VoteCount).Int("required", result.RequiredCount).Msg("quorum not reached, round discarded")
		return
	}

	e.prevHash.Store(result.MajorityChain)
	e.processed.Add(1)

	block := blockengine.Build(e.nextBlockNumber(), e.tipHash(), []core.Transaction{processed.Transaction}, processor.ID, e.chain.CurrentDifficulty(), now)
	if !blockengine.Mine(block, 5_000_000) {
		e.log.Warn().Msg("failed to mine committed round's block within budget")
		return
	}
	if err := e.chain.Append(block); err != nil {
		e.log.Warn().Err(err).Msg("failed to append committed round's block")
	}
}

func (e *Engine) txForProcessor(nodeID string) (core.Transaction, bool) {
	for _, rn := range e.nodes {
		if rn.Node.ID == nodeID && rn.NextTx != nil {
			return rn.NextTx()
		}
	}
	return core.Transaction{}, false
}

// collectVotes has every validator independently recompute the processor's
// published (tx_hash, chain_hash) and emit a vote (§4.4.6). In this
// in-process engine every validator recomputes honestly; internal/collab's
// simulated transport is where byzantine behavior would be injected.
func (e *Engine) collectVotes(validators []core.Node, processed ProcessedTx, now time.Time) []core.ValidationVote {
	votes := make([]core.ValidationVote, 0, len(validators))
	for _, v := range validators {
		vote := core.ValidationVote{
			TxHash:      processed.TxHash,
			ChainHash:   processed.ChainHash,
			ValidatorID: v.ID,
			Timestamp:   now,
		}
		vote.Signature = vote.ComputeSignature()
		votes = append(votes, vote)
	}
	return votes
}

func (e *Engine) nextBlockNumber() uint64 {
	if tip, ok := e.chain.GetTip(); ok {
		return tip.Header.Number + 1
	}
	return 0
}

func (e *Engine) tipHash() hashing.Digest {
	if tip, ok := e.chain.GetTip(); ok {
		return tip.BlockHash
	}
	return hashing.Zero
}
