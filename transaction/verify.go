package transaction

import (
	"fmt"
	"io"

	"github.com/gtank/ristretto255"

	"github.com/kylefleming/mobilecoin/rangeproof"
)

// VerifyRangeProof parses the embedded proof and checks it against the
// output commitments, padded the same way the prover padded them.
func VerifyRangeProof(tx *Tx, rng io.Reader) error {
	if tx == nil {
		return fmt.Errorf("%w: tx", ErrNilParam)
	}
	if len(tx.Prefix.Outputs) == 0 {
		return fmt.Errorf("%w: %w", ErrRangeProof, ErrNoOutputs)
	}
	proof, err := rangeproof.ParseRangeProof(tx.Signature.RangeProof)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrRangeProof, err)
	}
	if err := rangeproof.Verify(proof, tx.Prefix.OutputCommitments(), rng); err != nil {
		return fmt.Errorf("%w: %w", ErrRangeProof, err)
	}
	return nil
}

// VerifyBalance checks sum(pseudo outputs) == sum(outputs) + fee*B, with one
// pseudo output per input.
func VerifyBalance(tx *Tx) error {
	if tx == nil {
		return fmt.Errorf("%w: tx", ErrNilParam)
	}
	if len(tx.Signature.PseudoOutputCommitments) != len(tx.Prefix.Inputs) {
		return fmt.Errorf("%w: %d pseudo outputs for %d inputs",
			ErrUnbalanced, len(tx.Signature.PseudoOutputCommitments), len(tx.Prefix.Inputs))
	}

	lhs := ristretto255.NewElement()
	for i, c := range tx.Signature.PseudoOutputCommitments {
		p, err := c.Decompress()
		if err != nil {
			return fmt.Errorf("%w: pseudo output[%d]: %w", ErrUnbalanced, i, err)
		}
		lhs = ristretto255.NewElement().Add(lhs, p)
	}

	rhs := ristretto255.NewElement().ScalarMult(rangeproof.ScalarFromUint64(tx.Prefix.Fee), rangeproof.ValueBase())
	for i := range tx.Prefix.Outputs {
		p, err := tx.Prefix.Outputs[i].Amount.Commitment.Decompress()
		if err != nil {
			return fmt.Errorf("%w: output[%d]: %w", ErrUnbalanced, i, err)
		}
		rhs = ristretto255.NewElement().Add(rhs, p)
	}

	if lhs.Equal(rhs) != 1 {
		return ErrUnbalanced
	}
	return nil
}
