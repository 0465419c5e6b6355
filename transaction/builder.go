package transaction

import (
	"fmt"
	"io"
	"math/bits"

	"github.com/gtank/ristretto255"

	"github.com/kylefleming/mobilecoin/rangeproof"
)

// InputCredentials is everything needed to spend one real output hidden in a ring.
type InputCredentials struct {
	Ring           []TxOut
	RealIndex      int
	OnetimePrivate *rangeproof.Scalar
	Value          uint64
	Blinding       *rangeproof.Scalar
}

// PreparedOutput is an output together with the secrets its creator knows.
type PreparedOutput struct {
	TxOut    TxOut
	Value    uint64
	Blinding *rangeproof.Scalar
}

// RingSignInput is handed to a RingSigner for one input.
type RingSignInput struct {
	Ring                 []TxOut
	RealIndex            int
	OnetimePrivate       *rangeproof.Scalar
	Value                uint64
	Blinding             *rangeproof.Scalar
	PseudoOutput         rangeproof.Commitment
	PseudoOutputBlinding *rangeproof.Scalar
}

// RingSigner produces the ring signature for one input over message, the
// prefix hash. The signature scheme is opaque to this package.
type RingSigner interface {
	SignRing(message []byte, input RingSignInput, rng io.Reader) ([]byte, error)
}

// BuildRequest collects the parts of a transaction prepared by the caller.
//
// Commitments are the range proof's padded commitments; the first
// len(Outputs) must equal the output commitments in order.
type BuildRequest struct {
	Inputs         []InputCredentials
	Outputs        []PreparedOutput
	Proof          *rangeproof.RangeProof
	Commitments    []rangeproof.Commitment
	Fee            uint64
	TombstoneBlock uint64
}

// Builder assembles and signs transactions.
type Builder struct {
	signer RingSigner
}

// NewBuilder returns a Builder that signs with signer.
func NewBuilder(signer RingSigner) *Builder {
	return &Builder{signer: signer}
}

// Build checks req, computes pseudo-output commitments that balance the
// outputs and fee, signs every input over the prefix hash, and returns the Tx.
//
// Pseudo-output blindings are random except the last, which is chosen so the
// pseudo blindings sum to the output blindings:
//
//	sum(pseudo) = sum(outputs) + fee*B
func (b *Builder) Build(req BuildRequest, rng io.Reader) (*Tx, error) {
	if b.signer == nil {
		return nil, fmt.Errorf("%w: ring signer", ErrNilParam)
	}
	if rng == nil {
		return nil, fmt.Errorf("%w: rng", ErrNilParam)
	}
	if req.Proof == nil {
		return nil, fmt.Errorf("%w: range proof", ErrNilParam)
	}
	if len(req.Inputs) == 0 {
		return nil, ErrNoInputs
	}
	if len(req.Outputs) == 0 {
		return nil, ErrNoOutputs
	}

	// Validate inputs.
	var totalIn uint64
	for i, in := range req.Inputs {
		if in.OnetimePrivate == nil || in.Blinding == nil {
			return nil, fmt.Errorf("%w: input[%d] secrets", ErrNilParam, i)
		}
		if in.RealIndex < 0 || in.RealIndex >= len(in.Ring) {
			return nil, fmt.Errorf("%w: input[%d] real index %d outside ring of %d",
				ErrInvalidInput, i, in.RealIndex, len(in.Ring))
		}
		member := in.Ring[in.RealIndex]
		if rangeproof.Commit(in.Value, in.Blinding) != member.Amount.Commitment {
			return nil, fmt.Errorf("%w: input[%d] value and blinding do not open its commitment", ErrInvalidInput, i)
		}
		var carry uint64
		totalIn, carry = bits.Add64(totalIn, in.Value, 0)
		if carry != 0 {
			return nil, fmt.Errorf("%w: input total overflows", ErrUnbalanced)
		}
	}

	// Validate outputs against the proof commitments.
	if len(req.Commitments) < len(req.Outputs) {
		return nil, fmt.Errorf("%w: %d commitments for %d outputs",
			ErrCommitmentMismatch, len(req.Commitments), len(req.Outputs))
	}
	totalOut := req.Fee
	outBlinding := ristretto255.NewScalar()
	for i, out := range req.Outputs {
		if out.Blinding == nil {
			return nil, fmt.Errorf("%w: output[%d] blinding", ErrNilParam, i)
		}
		if out.TxOut.Amount.Commitment != req.Commitments[i] {
			return nil, fmt.Errorf("%w: output[%d]", ErrCommitmentMismatch, i)
		}
		var carry uint64
		totalOut, carry = bits.Add64(totalOut, out.Value, 0)
		if carry != 0 {
			return nil, fmt.Errorf("%w: output total overflows", ErrUnbalanced)
		}
		outBlinding = ristretto255.NewScalar().Add(outBlinding, out.Blinding)
	}
	if totalIn != totalOut {
		return nil, fmt.Errorf("%w: inputs %d, outputs plus fee %d", ErrUnbalanced, totalIn, totalOut)
	}

	// Pseudo outputs.
	pseudoBlindings := make([]*rangeproof.Scalar, len(req.Inputs))
	remaining := outBlinding
	for i := 0; i < len(req.Inputs)-1; i++ {
		r, err := rangeproof.RandomScalar(rng)
		if err != nil {
			return nil, fmt.Errorf("transaction: pseudo output blinding: %w", err)
		}
		pseudoBlindings[i] = r
		remaining = ristretto255.NewScalar().Subtract(remaining, r)
	}
	pseudoBlindings[len(req.Inputs)-1] = remaining

	pseudo := make([]rangeproof.Commitment, len(req.Inputs))
	for i, in := range req.Inputs {
		pseudo[i] = rangeproof.Commit(in.Value, pseudoBlindings[i])
	}

	tx := &Tx{
		Prefix: TxPrefix{
			Inputs:         make([]TxIn, len(req.Inputs)),
			Outputs:        make([]TxOut, len(req.Outputs)),
			Fee:            req.Fee,
			TombstoneBlock: req.TombstoneBlock,
		},
		Signature: Signature{
			RingSignatures:          make([][]byte, len(req.Inputs)),
			PseudoOutputCommitments: pseudo,
			RangeProof:              req.Proof.Bytes(),
		},
	}
	for i, in := range req.Inputs {
		tx.Prefix.Inputs[i] = TxIn{Ring: append([]TxOut(nil), in.Ring...)}
	}
	for i, out := range req.Outputs {
		tx.Prefix.Outputs[i] = out.TxOut
	}

	// Sign.
	message := tx.Prefix.Hash()
	for i, in := range req.Inputs {
		sig, err := b.signer.SignRing(message[:], RingSignInput{
			Ring:                 tx.Prefix.Inputs[i].Ring,
			RealIndex:            in.RealIndex,
			OnetimePrivate:       in.OnetimePrivate,
			Value:                in.Value,
			Blinding:             in.Blinding,
			PseudoOutput:         pseudo[i],
			PseudoOutputBlinding: pseudoBlindings[i],
		}, rng)
		if err != nil {
			return nil, fmt.Errorf("%w: input[%d]: %w", ErrSigningFailed, i, err)
		}
		tx.Signature.RingSignatures[i] = sig
	}
	return tx, nil
}
