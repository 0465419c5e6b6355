package network

import (
	"context"

	"github.com/kylefleming/mobilecoin/transaction"
)

// ConsensusService is the node surface the transactions manager needs.
type ConsensusService interface {
	// SubmitTx proposes tx to the network and returns the node's block count
	// at the time it was accepted.
	SubmitTx(ctx context.Context, tx *transaction.Tx) (uint64, error)

	// GetBlockHeight returns the number of blocks in the node's ledger.
	GetBlockHeight(ctx context.Context) (uint64, error)
}

// Result codes reported by the node for a submitted transaction.
const (
	SubmitOK                     = "Ok"
	SubmitContainsSpentKeyImage  = "ContainsSpentKeyImage"
	SubmitTombstoneBlockExceeded = "TombstoneBlockExceeded"
	SubmitInvalidRangeProof      = "InvalidRangeProof"
)
