package consensus

import (
	"rotorchain/internal/core"
	"rotorchain/internal/hashing"
	"rotorchain/internal/merkle"
)

// AnchorQueue builds a Merkle tree over an OrderedQueue's node_ids, leaves
// being H(node_id), per §4.4.4. The returned tree also yields inclusion
// proofs via ProofForPosition/VerifyMembership below.
func AnchorQueue(q *core.OrderedQueue) *merkle.Tree {
	leaves := make([]hashing.Digest, len(q.Nodes))
	for i, n := range q.Nodes {
		leaves[i] = hashing.H([]byte(n.ID))
	}
	return merkle.Build(leaves)
}

// ProofForPosition returns the inclusion proof for the node at position p
// in the anchored queue.
func ProofForPosition(tree *merkle.Tree, p int) ([]merkle.ProofStep, bool) {
	return tree.Proof(p)
}

// VerifyMembership checks that nodeID at the claimed position is included
// under root, given its inclusion proof.
func VerifyMembership(nodeID string, steps []merkle.ProofStep, root hashing.Digest) bool {
	return merkle.Verify(hashing.H([]byte(nodeID)), steps, root)
}
