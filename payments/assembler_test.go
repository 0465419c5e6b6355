package payments

import (
	"bytes"
	"crypto/rand"
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kylefleming/mobilecoin/account"
	"github.com/kylefleming/mobilecoin/rangeproof"
	"github.com/kylefleming/mobilecoin/transaction"
)

func TestAssemble_SingleInputExactOutlay(t *testing.T) {
	owner := testAccount(t)
	recipient := testAccount(t)
	const v = 1_000_000

	p, err := testAssembler().Assemble(AssembleRequest{
		Account: owner,
		UTXOs:   []UnspentOutput{ownedUTXO(t, owner, 0, v)},
		Outlays: []Outlay{{Value: v - testFee, Receiver: recipient.DefaultSubaddress()}},
		Fee:     testFee,
	}, rand.Reader)
	require.NoError(t, err)
	require.NoError(t, Validate(p))

	require.Len(t, p.OutlayIndexToTxOutIndex, 1)
	k, ok := p.OutlayIndexToTxOutIndex[0]
	require.True(t, ok)
	require.Len(t, p.Tx.Prefix.Outputs, 1, "no change output when inputs equal outlays plus fee")

	value, blinding, _, err := transaction.ViewOutput(recipient, account.DefaultSubaddressIndex, &p.Tx.Prefix.Outputs[k])
	require.NoError(t, err)
	assert.Equal(t, uint64(v-testFee), value)
	assert.Equal(t, rangeproof.Commit(value, blinding), p.Tx.Prefix.Outputs[k].Amount.Commitment)

	require.NoError(t, transaction.VerifyRangeProof(p.Tx, rand.Reader))
	require.NoError(t, transaction.VerifyBalance(p.Tx))
}

func TestAssemble_WithChange(t *testing.T) {
	p, owner := testProposal(t)

	require.Len(t, p.Tx.Prefix.Outputs, 3)
	require.Len(t, p.OutlayIndexToTxOutIndex, 2)
	assert.NotEqual(t, p.OutlayIndexToTxOutIndex[0], p.OutlayIndexToTxOutIndex[1])
	assert.Equal(t, uint64(testFee), p.Tx.Prefix.Fee)
	assert.Equal(t, uint64(100), p.Tx.Prefix.TombstoneBlock)

	// The slot no outlay maps to is change back to the owner.
	used := map[int]bool{p.OutlayIndexToTxOutIndex[0]: true, p.OutlayIndexToTxOutIndex[1]: true}
	for i := range p.Tx.Prefix.Outputs {
		if used[i] {
			continue
		}
		value, _, _, err := transaction.ViewOutput(owner, account.ChangeSubaddressIndex, &p.Tx.Prefix.Outputs[i])
		require.NoError(t, err)
		assert.Equal(t, uint64(1_500_000-500_000-testFee), value)
	}

	require.NoError(t, transaction.VerifyRangeProof(p.Tx, rand.Reader))
	require.NoError(t, transaction.VerifyBalance(p.Tx))
}

func TestAssemble_CustomChangeAddress(t *testing.T) {
	owner := testAccount(t)
	elsewhere := testAccount(t)
	changeAddr := elsewhere.Subaddress(4)

	p, err := testAssembler().Assemble(AssembleRequest{
		Account:       owner,
		UTXOs:         []UnspentOutput{ownedUTXO(t, owner, 2, 50_000)},
		Outlays:       []Outlay{{Value: 10_000, Receiver: testAccount(t).DefaultSubaddress()}},
		Fee:           testFee,
		ChangeAddress: &changeAddr,
	}, rand.Reader)
	require.NoError(t, err)

	found := false
	for i := range p.Tx.Prefix.Outputs {
		if v, _, _, err := transaction.ViewOutput(elsewhere, 4, &p.Tx.Prefix.Outputs[i]); err == nil {
			assert.Equal(t, uint64(30_000), v)
			found = true
		}
	}
	assert.True(t, found)
}

func TestAssemble_Errors(t *testing.T) {
	owner := testAccount(t)
	utxo := ownedUTXO(t, owner, 0, 100_000)
	outlay := Outlay{Value: 1_000, Receiver: testAccount(t).DefaultSubaddress()}

	t.Run("insufficient funds", func(t *testing.T) {
		_, err := testAssembler().Assemble(AssembleRequest{
			Account: owner,
			UTXOs:   []UnspentOutput{utxo},
			Outlays: []Outlay{{Value: 100_000 - testFee + 1, Receiver: outlay.Receiver}},
			Fee:     testFee,
		}, rand.Reader)
		assert.ErrorIs(t, err, ErrInsufficientFunds)
	})

	t.Run("no outlays", func(t *testing.T) {
		_, err := testAssembler().Assemble(AssembleRequest{Account: owner, UTXOs: []UnspentOutput{utxo}}, rand.Reader)
		assert.ErrorIs(t, err, ErrNoOutlays)
	})

	t.Run("no inputs", func(t *testing.T) {
		_, err := testAssembler().Assemble(AssembleRequest{Account: owner, Outlays: []Outlay{outlay}}, rand.Reader)
		assert.ErrorIs(t, err, ErrNoInputs)
	})

	t.Run("nil account", func(t *testing.T) {
		_, err := testAssembler().Assemble(AssembleRequest{UTXOs: []UnspentOutput{utxo}, Outlays: []Outlay{outlay}}, rand.Reader)
		assert.ErrorIs(t, err, ErrNilParam)
	})

	t.Run("too many outputs", func(t *testing.T) {
		outlays := make([]Outlay, rangeproof.MaxAggregationWidth+1)
		for i := range outlays {
			outlays[i] = Outlay{Value: 1, Receiver: outlay.Receiver}
		}
		_, err := testAssembler().Assemble(AssembleRequest{
			Account: owner, UTXOs: []UnspentOutput{utxo}, Outlays: outlays, Fee: testFee,
		}, rand.Reader)
		assert.ErrorIs(t, err, ErrTooManyOutputs)
	})

	t.Run("recorded value disagrees with output", func(t *testing.T) {
		wrong := utxo
		wrong.Value = 200_000
		_, err := testAssembler().Assemble(AssembleRequest{
			Account: owner, UTXOs: []UnspentOutput{wrong}, Outlays: []Outlay{outlay}, Fee: testFee,
		}, rand.Reader)
		assert.ErrorIs(t, err, transaction.ErrInvalidInput)
	})

	t.Run("input owned by another account", func(t *testing.T) {
		_, err := testAssembler().Assemble(AssembleRequest{
			Account: testAccount(t), UTXOs: []UnspentOutput{utxo}, Outlays: []Outlay{outlay}, Fee: testFee,
		}, rand.Reader)
		assert.ErrorIs(t, err, transaction.ErrInvalidInput)
	})
}

// budgetReader serves n bytes from crypto/rand, then fails.
type budgetReader struct{ n int }

func (r *budgetReader) Read(p []byte) (int, error) {
	if r.n <= 0 {
		return 0, assert.AnError
	}
	if len(p) > r.n {
		p = p[:r.n]
	}
	n, err := rand.Read(p)
	r.n -= n
	return n, err
}

func TestAssemble_ProofFailureLogged(t *testing.T) {
	owner := testAccount(t)
	var logs bytes.Buffer
	asm := NewAssembler(transaction.NewBuilder(stubSigner{}), slog.New(slog.NewTextHandler(&logs, nil)))

	// One outlay, no change: 64 bytes for the tx key and 32 for the shuffle
	// seed, leaving nothing for the prover.
	_, err := asm.Assemble(AssembleRequest{
		Account: owner,
		UTXOs:   []UnspentOutput{ownedUTXO(t, owner, 0, 20_000)},
		Outlays: []Outlay{{Value: 10_000, Receiver: testAccount(t).DefaultSubaddress()}},
		Fee:     testFee,
	}, &budgetReader{n: 96})
	require.Error(t, err)
	assert.ErrorIs(t, err, rangeproof.ErrProofGeneration)
	assert.Contains(t, logs.String(), "range proof generation failed")
	assert.Contains(t, logs.String(), "level=ERROR")
}

type stubMixins struct {
	t *testing.T
}

func (m stubMixins) Mixins(_ transaction.TxOut, count int) ([]transaction.TxOut, error) {
	addr := testAccount(m.t).DefaultSubaddress()
	out := make([]transaction.TxOut, count)
	for i := range out {
		o, _, err := transaction.NewOutput(uint64(i+1), addr, nil, rand.Reader)
		if err != nil {
			return nil, err
		}
		out[i] = *o
	}
	return out, nil
}

type recordingBuilder struct {
	inner *transaction.Builder
	req   transaction.BuildRequest
}

func (b *recordingBuilder) Build(req transaction.BuildRequest, rng io.Reader) (*transaction.Tx, error) {
	b.req = req
	return b.inner.Build(req, rng)
}

func TestAssemble_RingsWithMixins(t *testing.T) {
	owner := testAccount(t)
	utxo := ownedUTXO(t, owner, 0, 90_000)
	builder := &recordingBuilder{inner: transaction.NewBuilder(stubSigner{})}
	asm := NewAssembler(builder, nil)
	asm.SetMixins(stubMixins{t: t}, 5)

	p, err := asm.Assemble(AssembleRequest{
		Account: owner,
		UTXOs:   []UnspentOutput{utxo},
		Outlays: []Outlay{{Value: 80_000, Receiver: testAccount(t).DefaultSubaddress()}},
		Fee:     testFee,
	}, rand.Reader)
	require.NoError(t, err)

	require.Len(t, p.Tx.Prefix.Inputs, 1)
	ring := p.Tx.Prefix.Inputs[0].Ring
	assert.Len(t, ring, 5)
	for i := 1; i < len(ring); i++ {
		assert.Negative(t, bytes.Compare(ring[i-1].TargetKey[:], ring[i].TargetKey[:]), "ring sorted by target key")
	}

	cred := builder.req.Inputs[0]
	assert.True(t, cred.Ring[cred.RealIndex].Equal(&utxo.TxOut))
}

func TestAssemble_ShufflesOutputs(t *testing.T) {
	// With two outlays and change the first outlay lands in every slot
	// across enough runs.
	owner := testAccount(t)
	utxo := ownedUTXO(t, owner, 0, 1_000_000)
	receiver := testAccount(t).DefaultSubaddress()

	seen := make(map[int]bool)
	for i := 0; i < 40 && len(seen) < 3; i++ {
		p, err := testAssembler().Assemble(AssembleRequest{
			Account: owner,
			UTXOs:   []UnspentOutput{utxo},
			Outlays: []Outlay{{Value: 1, Receiver: receiver}, {Value: 2, Receiver: receiver}},
			Fee:     testFee,
		}, rand.Reader)
		require.NoError(t, err)
		seen[p.OutlayIndexToTxOutIndex[0]] = true
	}
	assert.Len(t, seen, 3)
}
