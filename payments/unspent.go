package payments

import (
	"fmt"

	"github.com/kylefleming/mobilecoin/account"
	"github.com/kylefleming/mobilecoin/transaction"
	"github.com/kylefleming/mobilecoin/wire"
)

// UnspentOutput is an output the wallet owns and may spend.
//
// KeyImage identifies the record. Value is the cleartext behind
// TxOut.Amount.Commitment as discovered by the wallet; it is trusted here.
// The attempted-spend fields record the most recent submission that used
// this output, so it is not selected again before that submission's
// tombstone block passes.
type UnspentOutput struct {
	TxOut                   transaction.TxOut
	SubaddressIndex         uint32
	KeyImage                account.KeyImage
	Value                   uint64
	AttemptedSpendHeight    uint64
	AttemptedSpendTombstone uint64
}

// Equal compares every field.
func (u *UnspentOutput) Equal(other *UnspentOutput) bool {
	if u == nil || other == nil {
		return u == other
	}
	return u.TxOut.Equal(&other.TxOut) &&
		u.SubaddressIndex == other.SubaddressIndex &&
		u.KeyImage == other.KeyImage &&
		u.Value == other.Value &&
		u.AttemptedSpendHeight == other.AttemptedSpendHeight &&
		u.AttemptedSpendTombstone == other.AttemptedSpendTombstone
}

// Eligible reports whether the output may be selected at currentHeight:
// it was never attempted, or the attempt's tombstone block has passed.
func (u *UnspentOutput) Eligible(currentHeight uint64) bool {
	return u.AttemptedSpendHeight == 0 || u.AttemptedSpendTombstone < currentHeight
}

// Encode serialises the record as
// UnspentTxOut{1 tx_out, 2 subaddress_index, 3 key_image, 4 value,
// 5 attempted_spend_height, 6 attempted_spend_tombstone}.
func (u *UnspentOutput) Encode() []byte {
	var b []byte
	b = wire.AppendMessage(b, 1, u.TxOut.Encode())
	b = wire.AppendUint64(b, 2, uint64(u.SubaddressIndex))
	b = wire.AppendMessage(b, 3, wire.AppendBytes(nil, 1, u.KeyImage[:]))
	b = wire.AppendUint64(b, 4, u.Value)
	b = wire.AppendUint64(b, 5, u.AttemptedSpendHeight)
	b = wire.AppendUint64(b, 6, u.AttemptedSpendTombstone)
	return b
}

// DecodeUnspentOutput parses a record produced by Encode. The output and
// key image are required.
func DecodeUnspentOutput(b []byte) (*UnspentOutput, error) {
	var (
		u                  UnspentOutput
		haveOut, haveImage bool
	)
	err := wire.Walk(b, func(f wire.Field) error {
		var err error
		switch f.Num {
		case 1:
			msg, err := f.Message()
			if err != nil {
				return err
			}
			out, err := transaction.DecodeTxOut(msg)
			if err != nil {
				return err
			}
			u.TxOut, haveOut = *out, true
		case 2:
			u.SubaddressIndex, err = f.Uint32()
		case 3:
			msg, err := f.Message()
			if err != nil {
				return err
			}
			if u.KeyImage, err = decodeKeyImage(msg); err != nil {
				return err
			}
			haveImage = true
		case 4:
			u.Value, err = f.Uint64()
		case 5:
			u.AttemptedSpendHeight, err = f.Uint64()
		case 6:
			u.AttemptedSpendTombstone, err = f.Uint64()
		}
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("%w: unspent output: %w", ErrInvalidEncoding, err)
	}
	if !haveOut || !haveImage {
		return nil, fmt.Errorf("%w: unspent output: missing tx out or key image", ErrInvalidEncoding)
	}
	return &u, nil
}

func decodeKeyImage(msg []byte) (account.KeyImage, error) {
	var (
		ki   account.KeyImage
		data []byte
	)
	err := wire.Walk(msg, func(f wire.Field) error {
		if f.Num != 1 {
			return nil
		}
		v, err := f.Message()
		data = v
		return err
	})
	if err != nil {
		return ki, err
	}
	if len(data) != len(ki) {
		return ki, fmt.Errorf("key image is %d bytes, want %d", len(data), len(ki))
	}
	copy(ki[:], data)
	return ki, nil
}
