package consensus

import (
	"time"

	"rotorchain/internal/core"
	"rotorchain/internal/hashing"
)

// ProcessedTx is the processor's output for a round: the finished
// transaction plus the two hashes validators vote on (§4.4.5).
type ProcessedTx struct {
	Transaction core.Transaction
	TxHash      hashing.Digest
	ChainHash   hashing.Digest
}

// Process runs the rotating processor's single-writer step: validates tx
// structurally, derives post_state, signs tx_hash as
// H(processor_id ‖ canonical(tx)), and folds it into chain_hash with
// prevChainHash.
func Process(processorID string, tx core.Transaction, prevChainHash hashing.Digest, now time.Time) (ProcessedTx, error) {
	if err := tx.ValidateStructure(now); err != nil {
		return ProcessedTx{}, err
	}

	tx.PostState = hashing.HConcat(tx.PrevState[:], tx.Payload)

	txHash := hashing.HConcat([]byte(processorID), tx.Canonical())
	tx.Signature = txHash.Bytes()

	chainHash := hashing.HConcat(txHash[:], prevChainHash[:])

	return ProcessedTx{Transaction: tx, TxHash: txHash, ChainHash: chainHash}, nil
}
