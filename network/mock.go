package network

import (
	"context"

	"github.com/kylefleming/mobilecoin/transaction"
)

// MockConsensusService is a test double for ConsensusService.
// Function fields must be set before the corresponding method is called.
type MockConsensusService struct {
	SubmitTxFn       func(ctx context.Context, tx *transaction.Tx) (uint64, error)
	GetBlockHeightFn func(ctx context.Context) (uint64, error)
}

var _ ConsensusService = (*MockConsensusService)(nil)

func (m *MockConsensusService) SubmitTx(ctx context.Context, tx *transaction.Tx) (uint64, error) {
	return m.SubmitTxFn(ctx, tx)
}
func (m *MockConsensusService) GetBlockHeight(ctx context.Context) (uint64, error) {
	return m.GetBlockHeightFn(ctx)
}
