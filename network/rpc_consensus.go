package network

import (
	"context"
	"encoding/hex"
	"fmt"

	"github.com/kylefleming/mobilecoin/transaction"
)

var _ ConsensusService = (*RPCClient)(nil)

type submitTxResult struct {
	Result     string `json:"result"`
	BlockCount uint64 `json:"block_count"`
}

// SubmitTx sends the hex protobuf encoding of tx via `submit_tx`.
// A result code other than SubmitOK returns ErrSubmitRejected.
func (c *RPCClient) SubmitTx(ctx context.Context, tx *transaction.Tx) (uint64, error) {
	if tx == nil {
		return 0, fmt.Errorf("%w: tx", ErrNilParam)
	}
	var res submitTxResult
	if err := c.Call(ctx, "submit_tx", []any{hex.EncodeToString(tx.Encode())}, &res); err != nil {
		return 0, err
	}
	if res.Result == "" {
		return 0, fmt.Errorf("%w: submit_tx: missing result code", ErrInvalidResponse)
	}
	if res.Result != SubmitOK {
		return res.BlockCount, fmt.Errorf("%w: %s", ErrSubmitRejected, res.Result)
	}
	return res.BlockCount, nil
}

// GetBlockHeight calls `get_block_height`.
func (c *RPCClient) GetBlockHeight(ctx context.Context) (uint64, error) {
	var height uint64
	if err := c.Call(ctx, "get_block_height", nil, &height); err != nil {
		return 0, err
	}
	return height, nil
}
