package rangeproof

import (
	"fmt"

	"github.com/bsv-blockchain/go-sdk/util"
	"github.com/gtank/ristretto255"
)

// fixedProofElements counts A, S, T1, T2, t_x, t_x_blinding, e_blinding, a, b.
const fixedProofElements = 9

// Bytes serialises the proof as
//
//	A || S || T1 || T2 || t_x || t_x_blinding || e_blinding || (L_i || R_i)* || a || b
//
// with every element 32 bytes.
func (p *RangeProof) Bytes() []byte {
	w := util.NewWriter()
	w.WriteBytes(p.A[:])
	w.WriteBytes(p.S[:])
	w.WriteBytes(p.T1[:])
	w.WriteBytes(p.T2[:])
	w.WriteBytes(p.TX.Encode(nil))
	w.WriteBytes(p.TXBlinding.Encode(nil))
	w.WriteBytes(p.EBlinding.Encode(nil))
	for i := range p.ipp.L {
		w.WriteBytes(p.ipp.L[i][:])
		w.WriteBytes(p.ipp.R[i][:])
	}
	w.WriteBytes(p.ipp.A.Encode(nil))
	w.WriteBytes(p.ipp.B.Encode(nil))
	return w.Buf
}

// Rounds returns the number of inner product rounds, log2 of the padded width times BitSize.
func (p *RangeProof) Rounds() int {
	return len(p.ipp.L)
}

// ParseRangeProof decodes a proof produced by Bytes. Scalars must be canonical
// and every point must decode to a ristretto255 element.
func ParseRangeProof(b []byte) (*RangeProof, error) {
	if len(b)%32 != 0 || len(b) < fixedProofElements*32 {
		return nil, fmt.Errorf("%w: proof length %d", ErrInvalidEncoding, len(b))
	}
	rounds := len(b)/32 - fixedProofElements
	if rounds%2 != 0 || rounds/2 >= 32 {
		return nil, fmt.Errorf("%w: proof length %d", ErrInvalidEncoding, len(b))
	}
	rounds /= 2

	r := util.NewReader(b)
	readPoint := func(name string) (Commitment, error) {
		raw, err := r.ReadBytes(CommitmentSize)
		if err != nil {
			return Commitment{}, fmt.Errorf("%w: %s: %w", ErrInvalidEncoding, name, err)
		}
		c, err := CommitmentFromBytes(raw)
		if err != nil {
			return Commitment{}, fmt.Errorf("%s: %w", name, err)
		}
		return c, nil
	}
	readScalar := func(name string) (*Scalar, error) {
		raw, err := r.ReadBytes(32)
		if err != nil {
			return nil, fmt.Errorf("%w: %s: %w", ErrInvalidEncoding, name, err)
		}
		s := ristretto255.NewScalar()
		if err := s.Decode(raw); err != nil {
			return nil, fmt.Errorf("%w: %s: %w", ErrInvalidEncoding, name, err)
		}
		return s, nil
	}

	var (
		p   RangeProof
		err error
	)
	if p.A, err = readPoint("A"); err != nil {
		return nil, err
	}
	if p.S, err = readPoint("S"); err != nil {
		return nil, err
	}
	if p.T1, err = readPoint("T_1"); err != nil {
		return nil, err
	}
	if p.T2, err = readPoint("T_2"); err != nil {
		return nil, err
	}
	if p.TX, err = readScalar("t_x"); err != nil {
		return nil, err
	}
	if p.TXBlinding, err = readScalar("t_x_blinding"); err != nil {
		return nil, err
	}
	if p.EBlinding, err = readScalar("e_blinding"); err != nil {
		return nil, err
	}

	p.ipp.L = make([]Commitment, rounds)
	p.ipp.R = make([]Commitment, rounds)
	for i := 0; i < rounds; i++ {
		if p.ipp.L[i], err = readPoint(fmt.Sprintf("L[%d]", i)); err != nil {
			return nil, err
		}
		if p.ipp.R[i], err = readPoint(fmt.Sprintf("R[%d]", i)); err != nil {
			return nil, err
		}
	}
	if p.ipp.A, err = readScalar("a"); err != nil {
		return nil, err
	}
	if p.ipp.B, err = readScalar("b"); err != nil {
		return nil, err
	}
	return &p, nil
}
