package account

import (
	"fmt"

	"github.com/kylefleming/mobilecoin/wire"
)

// PublicAddress is where funds are sent: a subaddress view public key C_i and
// spend public key D_i.
type PublicAddress struct {
	ViewPublic  PublicKey
	SpendPublic PublicKey
}

// Equal reports whether both keys match.
func (a PublicAddress) Equal(other PublicAddress) bool {
	return a.ViewPublic == other.ViewPublic && a.SpendPublic == other.SpendPublic
}

// Validate checks both keys are valid points.
func (a PublicAddress) Validate() error {
	if _, err := a.ViewPublic.Decompress(); err != nil {
		return fmt.Errorf("%w: view key: %w", ErrInvalidAddress, err)
	}
	if _, err := a.SpendPublic.Decompress(); err != nil {
		return fmt.Errorf("%w: spend key: %w", ErrInvalidAddress, err)
	}
	return nil
}

// Encode serialises the address as PublicAddress{1 view_public_key, 2 spend_public_key}.
func (a PublicAddress) Encode() []byte {
	var b []byte
	b = wire.AppendCompressed(b, 1, a.ViewPublic[:])
	b = wire.AppendCompressed(b, 2, a.SpendPublic[:])
	return b
}

// DecodePublicAddress parses an address produced by Encode. Both keys are
// required and must be valid points.
func DecodePublicAddress(b []byte) (PublicAddress, error) {
	var (
		a                 PublicAddress
		haveView, haveSpd bool
	)
	err := wire.Walk(b, func(f wire.Field) error {
		var dst *PublicKey
		switch f.Num {
		case 1:
			dst, haveView = &a.ViewPublic, true
		case 2:
			dst, haveSpd = &a.SpendPublic, true
		default:
			return nil
		}
		msg, err := f.Message()
		if err != nil {
			return err
		}
		data, err := wire.ParseCompressed(msg, KeySize)
		if err != nil {
			return err
		}
		copy(dst[:], data)
		return nil
	})
	if err != nil {
		return PublicAddress{}, fmt.Errorf("%w: %w", ErrInvalidAddress, err)
	}
	if !haveView || !haveSpd {
		return PublicAddress{}, fmt.Errorf("%w: missing key", ErrInvalidAddress)
	}
	if err := a.Validate(); err != nil {
		return PublicAddress{}, err
	}
	return a, nil
}
