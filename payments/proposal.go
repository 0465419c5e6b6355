package payments

import (
	"fmt"
	"maps"
	"math"
	"slices"

	"github.com/kylefleming/mobilecoin/transaction"
	"github.com/kylefleming/mobilecoin/wire"
)

// TxProposal is a fully assembled payment awaiting submission.
//
// OutlayIndexToTxOutIndex maps each outlay to the output slot that realises
// it. Outputs with no outlay (change) have no entry.
type TxProposal struct {
	UTXOs                   []UnspentOutput
	Outlays                 []Outlay
	Tx                      *transaction.Tx
	Fee                     uint64
	OutlayIndexToTxOutIndex map[int]int
}

// Equal compares every field, including the encoded transaction.
func (p *TxProposal) Equal(other *TxProposal) bool {
	if p == nil || other == nil {
		return p == other
	}
	if p.Fee != other.Fee ||
		len(p.UTXOs) != len(other.UTXOs) ||
		len(p.Outlays) != len(other.Outlays) ||
		!maps.Equal(p.OutlayIndexToTxOutIndex, other.OutlayIndexToTxOutIndex) {
		return false
	}
	for i := range p.UTXOs {
		if !p.UTXOs[i].Equal(&other.UTXOs[i]) {
			return false
		}
	}
	for i := range p.Outlays {
		if !p.Outlays[i].Equal(other.Outlays[i]) {
			return false
		}
	}
	if p.Tx == nil || other.Tx == nil {
		return p.Tx == other.Tx
	}
	return string(p.Tx.Encode()) == string(other.Tx.Encode())
}

// Validate checks the proposal's cross-structure invariants:
//
//	the declared fee equals the transaction's fee;
//	the mapping has one entry per outlay;
//	every key is an outlay index and every value an output index;
//	no two outlays share an output.
//
// It has no side effects.
func Validate(p *TxProposal) error {
	if p == nil {
		return fmt.Errorf("%w: proposal", ErrNilParam)
	}
	if p.Tx == nil {
		return fmt.Errorf("%w: proposal tx", ErrNilParam)
	}
	if p.Tx.Prefix.Fee != p.Fee {
		return fmt.Errorf("%w: proposal declares %d, tx carries %d", ErrFeeMismatch, p.Fee, p.Tx.Prefix.Fee)
	}

	numOutlays := len(p.Outlays)
	numOutputs := len(p.Tx.Prefix.Outputs)
	if len(p.OutlayIndexToTxOutIndex) != numOutlays {
		return fmt.Errorf("%w: %d mapping entries for %d outlays",
			ErrIndexOutOfBounds, len(p.OutlayIndexToTxOutIndex), numOutlays)
	}

	used := make(map[int]int, numOutlays)
	for _, outlay := range slices.Sorted(maps.Keys(p.OutlayIndexToTxOutIndex)) {
		out := p.OutlayIndexToTxOutIndex[outlay]
		if outlay < 0 || outlay >= numOutlays {
			return fmt.Errorf("%w: outlay index %d, have %d outlays", ErrIndexOutOfBounds, outlay, numOutlays)
		}
		if out < 0 || out >= numOutputs {
			return fmt.Errorf("%w: tx out index %d, have %d outputs", ErrIndexOutOfBounds, out, numOutputs)
		}
		if prev, ok := used[out]; ok {
			return fmt.Errorf("%w: %w: outlays %d and %d both map to tx out %d",
				ErrIndexOutOfBounds, ErrDuplicateTxOutIndex, prev, outlay, out)
		}
		used[out] = outlay
	}
	return nil
}

// Encode serialises the proposal as
// TxProposal{1 input_list, 2 outlay_list, 3 tx, 4 fee, 5 outlay_index_to_tx_out_index}.
// Map entries are written in ascending key order.
func (p *TxProposal) Encode() []byte {
	var b []byte
	for i := range p.UTXOs {
		b = wire.AppendMessage(b, 1, p.UTXOs[i].Encode())
	}
	for _, o := range p.Outlays {
		b = wire.AppendMessage(b, 2, o.Encode())
	}
	if p.Tx != nil {
		b = wire.AppendMessage(b, 3, p.Tx.Encode())
	}
	b = wire.AppendUint64(b, 4, p.Fee)
	for _, k := range slices.Sorted(maps.Keys(p.OutlayIndexToTxOutIndex)) {
		var entry []byte
		entry = wire.AppendUint64(entry, 1, uint64(k))
		entry = wire.AppendUint64(entry, 2, uint64(p.OutlayIndexToTxOutIndex[k]))
		b = wire.AppendMessage(b, 5, entry)
	}
	return b
}

// DecodeTxProposal parses a proposal and runs Validate on it. A proposal
// that decodes but fails validation is never returned.
func DecodeTxProposal(b []byte) (*TxProposal, error) {
	p := &TxProposal{OutlayIndexToTxOutIndex: make(map[int]int)}
	err := wire.Walk(b, func(f wire.Field) error {
		switch f.Num {
		case 1:
			msg, err := f.Message()
			if err != nil {
				return err
			}
			u, err := DecodeUnspentOutput(msg)
			if err != nil {
				return err
			}
			p.UTXOs = append(p.UTXOs, *u)
		case 2:
			msg, err := f.Message()
			if err != nil {
				return err
			}
			o, err := DecodeOutlay(msg)
			if err != nil {
				return err
			}
			p.Outlays = append(p.Outlays, o)
		case 3:
			msg, err := f.Message()
			if err != nil {
				return err
			}
			tx, err := transaction.DecodeTx(msg)
			if err != nil {
				return err
			}
			p.Tx = tx
		case 4:
			v, err := f.Uint64()
			if err != nil {
				return err
			}
			p.Fee = v
		case 5:
			msg, err := f.Message()
			if err != nil {
				return err
			}
			k, v, err := decodeMapEntry(msg)
			if err != nil {
				return err
			}
			p.OutlayIndexToTxOutIndex[k] = v
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("%w: tx proposal: %w", ErrInvalidEncoding, err)
	}
	if err := Validate(p); err != nil {
		return nil, err
	}
	return p, nil
}

// decodeMapEntry reads one map<uint64,uint64> entry. Indices that do not
// fit in an int are reported as out of bounds.
func decodeMapEntry(msg []byte) (int, int, error) {
	var k, v uint64
	err := wire.Walk(msg, func(f wire.Field) error {
		var err error
		switch f.Num {
		case 1:
			k, err = f.Uint64()
		case 2:
			v, err = f.Uint64()
		}
		return err
	})
	if err != nil {
		return 0, 0, err
	}
	if k > math.MaxInt32 || v > math.MaxInt32 {
		return 0, 0, fmt.Errorf("%w: mapping entry %d -> %d", ErrIndexOutOfBounds, k, v)
	}
	return int(k), int(v), nil
}
