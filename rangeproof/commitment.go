package rangeproof

import (
	"encoding/hex"
	"fmt"

	"github.com/gtank/ristretto255"
)

// CommitmentSize is the length of a compressed ristretto255 point.
const CommitmentSize = 32

// Commitment is a compressed Pedersen commitment (or any compressed
// ristretto255 point carried by a proof).
type Commitment [CommitmentSize]byte

// Commit returns the Pedersen commitment value*B + blinding*BBlinding.
func Commit(value uint64, blinding *Scalar) Commitment {
	pc, _ := generators()
	return CompressPoint(pc.commit(ScalarFromUint64(value), blinding))
}

// ValueBase returns a copy of the value generator B.
func ValueBase() *ristretto255.Element {
	pc, _ := generators()
	return ristretto255.NewElement().Add(ristretto255.NewElement(), pc.B)
}

// CompressPoint encodes p as a Commitment.
func CompressPoint(p *ristretto255.Element) Commitment {
	var c Commitment
	copy(c[:], p.Encode(nil))
	return c
}

// CommitmentFromBytes copies a 32-byte encoding, rejecting anything that is
// not a valid ristretto255 point.
func CommitmentFromBytes(b []byte) (Commitment, error) {
	var c Commitment
	if len(b) != CommitmentSize {
		return c, fmt.Errorf("%w: commitment must be %d bytes, got %d", ErrInvalidEncoding, CommitmentSize, len(b))
	}
	copy(c[:], b)
	if _, err := c.Decompress(); err != nil {
		return Commitment{}, err
	}
	return c, nil
}

// Decompress decodes the commitment into a group element.
func (c Commitment) Decompress() (*ristretto255.Element, error) {
	p := ristretto255.NewElement()
	if err := p.Decode(c[:]); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidEncoding, err)
	}
	return p, nil
}

// String returns the hex encoding.
func (c Commitment) String() string {
	return hex.EncodeToString(c[:])
}
