package transaction

import (
	"encoding/binary"
	"fmt"

	"github.com/gtank/ristretto255"
	"golang.org/x/crypto/blake2b"

	"github.com/kylefleming/mobilecoin/account"
	"github.com/kylefleming/mobilecoin/rangeproof"
)

// Amount is a committed output value. MaskedValue is the cleartext XORed
// with a mask only the sender and recipient can derive.
type Amount struct {
	Commitment  rangeproof.Commitment
	MaskedValue uint64
}

func amountHash(label string, sharedSecret account.PublicKey) []byte {
	h, _ := blake2b.New512(nil)
	_, _ = h.Write([]byte(label))
	_, _ = h.Write(sharedSecret[:])
	return h.Sum(nil)
}

// ValueMask returns the 64-bit mask applied to an output's value.
func ValueMask(sharedSecret account.PublicKey) uint64 {
	return binary.LittleEndian.Uint64(amountHash("amount_value_mask", sharedSecret)[:8])
}

// AmountBlinding returns the commitment blinding for an output.
func AmountBlinding(sharedSecret account.PublicKey) *rangeproof.Scalar {
	return ristretto255.NewScalar().FromUniformBytes(amountHash("amount_blinding", sharedSecret))
}

// NewAmount commits to value under the blinding derived from sharedSecret.
func NewAmount(value uint64, sharedSecret account.PublicKey) (Amount, *rangeproof.Scalar) {
	blinding := AmountBlinding(sharedSecret)
	return Amount{
		Commitment:  rangeproof.Commit(value, blinding),
		MaskedValue: value ^ ValueMask(sharedSecret),
	}, blinding
}

// Open unmasks the value and checks it against the commitment.
func (a Amount) Open(sharedSecret account.PublicKey) (uint64, *rangeproof.Scalar, error) {
	value := a.MaskedValue ^ ValueMask(sharedSecret)
	blinding := AmountBlinding(sharedSecret)
	if rangeproof.Commit(value, blinding) != a.Commitment {
		return 0, nil, fmt.Errorf("%w: commitment %s", ErrAmountMismatch, a.Commitment)
	}
	return value, blinding, nil
}
