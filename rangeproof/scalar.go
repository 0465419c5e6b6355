package rangeproof

import (
	"encoding/binary"
	"fmt"
	"io"

	"github.com/gtank/ristretto255"
)

// Scalar is an element of the ristretto255 scalar field.
type Scalar = ristretto255.Scalar

// ScalarFromUint64 returns v as a scalar.
func ScalarFromUint64(v uint64) *Scalar {
	var buf [32]byte
	binary.LittleEndian.PutUint64(buf[:8], v)
	s := ristretto255.NewScalar()
	if err := s.Decode(buf[:]); err != nil {
		// 2^64 is far below the group order, every uint64 is canonical.
		panic(fmt.Sprintf("rangeproof: uint64 scalar decode: %v", err))
	}
	return s
}

// RandomScalar draws a uniformly distributed scalar from 64 bytes of rng output.
func RandomScalar(rng io.Reader) (*Scalar, error) {
	var wide [64]byte
	if _, err := io.ReadFull(rng, wide[:]); err != nil {
		return nil, fmt.Errorf("rangeproof: read randomness: %w", err)
	}
	return ristretto255.NewScalar().FromUniformBytes(wide[:]), nil
}

func scalarAdd(a, b *Scalar) *Scalar { return ristretto255.NewScalar().Add(a, b) }
func scalarSub(a, b *Scalar) *Scalar { return ristretto255.NewScalar().Subtract(a, b) }
func scalarMul(a, b *Scalar) *Scalar { return ristretto255.NewScalar().Multiply(a, b) }
func scalarNeg(a *Scalar) *Scalar    { return ristretto255.NewScalar().Negate(a) }
func scalarInv(a *Scalar) *Scalar    { return ristretto255.NewScalar().Invert(a) }

// innerProduct returns sum(a[i]*b[i]); the slices must have equal length.
func innerProduct(a, b []*Scalar) *Scalar {
	acc := ristretto255.NewScalar()
	for i := range a {
		acc = scalarAdd(acc, scalarMul(a[i], b[i]))
	}
	return acc
}

// powers returns [1, x, x^2, ..., x^(n-1)].
func powers(x *Scalar, n int) []*Scalar {
	out := make([]*Scalar, n)
	cur := ScalarFromUint64(1)
	for i := 0; i < n; i++ {
		out[i] = cur
		cur = scalarMul(cur, x)
	}
	return out
}

// sumOfPowers returns 1 + x + ... + x^(n-1).
func sumOfPowers(x *Scalar, n int) *Scalar {
	acc := ristretto255.NewScalar()
	for _, p := range powers(x, n) {
		acc = scalarAdd(acc, p)
	}
	return acc
}
