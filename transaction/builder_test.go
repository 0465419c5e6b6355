package transaction

import (
	"crypto/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kylefleming/mobilecoin/rangeproof"
)

func TestBuilder_Build(t *testing.T) {
	tx, signer := buildTestTx(t)

	assert.Len(t, tx.Prefix.Inputs, 2)
	assert.Len(t, tx.Prefix.Outputs, 3)
	assert.Equal(t, uint64(50), tx.Prefix.Fee)
	assert.Equal(t, uint64(1234), tx.Prefix.TombstoneBlock)
	assert.Len(t, tx.Signature.RingSignatures, 2)
	assert.Len(t, tx.Signature.PseudoOutputCommitments, 2)

	hash := tx.Prefix.Hash()
	require.Len(t, signer.messages, 2)
	for _, m := range signer.messages {
		assert.Equal(t, hash[:], m)
	}

	require.NoError(t, VerifyRangeProof(tx, rand.Reader))
	require.NoError(t, VerifyBalance(tx))
}

func TestBuilder_SingleInputPseudoMatchesOutputs(t *testing.T) {
	owner := testAccount(t)
	in := spendable(t, owner, 1000)
	outs, proof, commitments := prepared(t, 990)

	tx, err := NewBuilder(&stubSigner{}).Build(BuildRequest{
		Inputs:      []InputCredentials{in},
		Outputs:     outs,
		Proof:       proof,
		Commitments: commitments,
		Fee:         10,
	}, rand.Reader)
	require.NoError(t, err)
	require.NoError(t, VerifyBalance(tx))
	assert.NotEqual(t, in.Ring[0].Amount.Commitment, tx.Signature.PseudoOutputCommitments[0])
}

func TestBuilder_Errors(t *testing.T) {
	owner := testAccount(t)
	outs, proof, commitments := prepared(t, 700, 300)

	base := func() BuildRequest {
		return BuildRequest{
			Inputs:      []InputCredentials{spendable(t, owner, 1010)},
			Outputs:     append([]PreparedOutput(nil), outs...),
			Proof:       proof,
			Commitments: commitments,
			Fee:         10,
		}
	}

	t.Run("unbalanced", func(t *testing.T) {
		req := base()
		req.Fee = 11
		_, err := NewBuilder(&stubSigner{}).Build(req, rand.Reader)
		assert.ErrorIs(t, err, ErrUnbalanced)
	})

	t.Run("commitment mismatch", func(t *testing.T) {
		req := base()
		req.Outputs[0], req.Outputs[1] = req.Outputs[1], req.Outputs[0]
		_, err := NewBuilder(&stubSigner{}).Build(req, rand.Reader)
		assert.ErrorIs(t, err, ErrCommitmentMismatch)
	})

	t.Run("too few commitments", func(t *testing.T) {
		req := base()
		req.Commitments = req.Commitments[:1]
		_, err := NewBuilder(&stubSigner{}).Build(req, rand.Reader)
		assert.ErrorIs(t, err, ErrCommitmentMismatch)
	})

	t.Run("wrong input value", func(t *testing.T) {
		req := base()
		req.Inputs[0].Value++
		_, err := NewBuilder(&stubSigner{}).Build(req, rand.Reader)
		assert.ErrorIs(t, err, ErrInvalidInput)
	})

	t.Run("real index outside ring", func(t *testing.T) {
		req := base()
		req.Inputs[0].RealIndex = 3
		_, err := NewBuilder(&stubSigner{}).Build(req, rand.Reader)
		assert.ErrorIs(t, err, ErrInvalidInput)
	})

	t.Run("no inputs", func(t *testing.T) {
		req := base()
		req.Inputs = nil
		_, err := NewBuilder(&stubSigner{}).Build(req, rand.Reader)
		assert.ErrorIs(t, err, ErrNoInputs)
	})

	t.Run("no outputs", func(t *testing.T) {
		req := base()
		req.Outputs = nil
		_, err := NewBuilder(&stubSigner{}).Build(req, rand.Reader)
		assert.ErrorIs(t, err, ErrNoOutputs)
	})

	t.Run("nil proof", func(t *testing.T) {
		req := base()
		req.Proof = nil
		_, err := NewBuilder(&stubSigner{}).Build(req, rand.Reader)
		assert.ErrorIs(t, err, ErrNilParam)
	})

	t.Run("nil signer", func(t *testing.T) {
		_, err := NewBuilder(nil).Build(base(), rand.Reader)
		assert.ErrorIs(t, err, ErrNilParam)
	})

	t.Run("signer failure", func(t *testing.T) {
		_, err := NewBuilder(&stubSigner{err: assert.AnError}).Build(base(), rand.Reader)
		assert.ErrorIs(t, err, ErrSigningFailed)
		assert.ErrorIs(t, err, assert.AnError)
	})
}

// ---------------------------------------------------------------------------
// Verification of received transactions
// ---------------------------------------------------------------------------

func TestVerifyBalance_TamperedFee(t *testing.T) {
	tx, _ := buildTestTx(t)
	tx.Prefix.Fee++
	assert.ErrorIs(t, VerifyBalance(tx), ErrUnbalanced)
}

func TestVerifyBalance_MissingPseudoOutput(t *testing.T) {
	tx, _ := buildTestTx(t)
	tx.Signature.PseudoOutputCommitments = tx.Signature.PseudoOutputCommitments[:1]
	assert.ErrorIs(t, VerifyBalance(tx), ErrUnbalanced)
}

func TestVerifyRangeProof_TamperedOutput(t *testing.T) {
	tx, _ := buildTestTx(t)
	tx.Prefix.Outputs[1].Amount.Commitment = rangeproof.Commit(1, rangeproof.ScalarFromUint64(99))
	err := VerifyRangeProof(tx, rand.Reader)
	assert.ErrorIs(t, err, ErrRangeProof)
	assert.ErrorIs(t, err, rangeproof.ErrVerification)
}

func TestVerifyRangeProof_GarbageProof(t *testing.T) {
	tx, _ := buildTestTx(t)
	tx.Signature.RangeProof = tx.Signature.RangeProof[:40]
	err := VerifyRangeProof(tx, rand.Reader)
	assert.ErrorIs(t, err, ErrRangeProof)
	assert.ErrorIs(t, err, rangeproof.ErrInvalidEncoding)
}

func TestVerify_NilTx(t *testing.T) {
	assert.ErrorIs(t, VerifyRangeProof(nil, rand.Reader), ErrNilParam)
	assert.ErrorIs(t, VerifyBalance(nil), ErrNilParam)
}
