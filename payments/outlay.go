package payments

import (
	"fmt"

	"github.com/kylefleming/mobilecoin/account"
	"github.com/kylefleming/mobilecoin/wire"
)

// Outlay is one intended payment, before it is realised as a transaction output.
type Outlay struct {
	Value    uint64
	Receiver account.PublicAddress
}

// Equal compares value and receiver.
func (o Outlay) Equal(other Outlay) bool {
	return o.Value == other.Value && o.Receiver.Equal(other.Receiver)
}

// Encode serialises the outlay as Outlay{1 value, 2 receiver}.
func (o Outlay) Encode() []byte {
	var b []byte
	b = wire.AppendUint64(b, 1, o.Value)
	b = wire.AppendMessage(b, 2, o.Receiver.Encode())
	return b
}

// DecodeOutlay parses an outlay. The receiver is required.
func DecodeOutlay(b []byte) (Outlay, error) {
	var (
		o            Outlay
		haveReceiver bool
	)
	err := wire.Walk(b, func(f wire.Field) error {
		switch f.Num {
		case 1:
			v, err := f.Uint64()
			if err != nil {
				return err
			}
			o.Value = v
		case 2:
			msg, err := f.Message()
			if err != nil {
				return err
			}
			if o.Receiver, err = account.DecodePublicAddress(msg); err != nil {
				return err
			}
			haveReceiver = true
		}
		return nil
	})
	if err != nil {
		return Outlay{}, fmt.Errorf("%w: outlay: %w", ErrInvalidEncoding, err)
	}
	if !haveReceiver {
		return Outlay{}, fmt.Errorf("%w: outlay: missing receiver", ErrInvalidEncoding)
	}
	return o, nil
}
