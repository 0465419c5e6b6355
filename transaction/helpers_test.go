package transaction

import (
	"crypto/rand"
	"crypto/sha256"
	"encoding/binary"
	"io"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/kylefleming/mobilecoin/account"
	"github.com/kylefleming/mobilecoin/rangeproof"
)

// stubSigner tags each input with sha256(message || realIndex) and records calls.
type stubSigner struct {
	messages [][]byte
	err      error
}

func (s *stubSigner) SignRing(message []byte, input RingSignInput, _ io.Reader) ([]byte, error) {
	if s.err != nil {
		return nil, s.err
	}
	s.messages = append(s.messages, append([]byte(nil), message...))
	var idx [8]byte
	binary.LittleEndian.PutUint64(idx[:], uint64(input.RealIndex))
	sum := sha256.Sum256(append(append([]byte(nil), message...), idx[:]...))
	return sum[:], nil
}

func testAccount(t *testing.T) *account.AccountKey {
	t.Helper()
	k, err := account.NewAccountKey(rand.Reader)
	require.NoError(t, err)
	return k
}

// spendable creates an output of value paid to owner's default subaddress and
// returns credentials spending it from a ring of one.
func spendable(t *testing.T, owner *account.AccountKey, value uint64) InputCredentials {
	t.Helper()
	out, _, err := NewOutput(value, owner.DefaultSubaddress(), nil, rand.Reader)
	require.NoError(t, err)
	got, blinding, onetime, err := ViewOutput(owner, account.DefaultSubaddressIndex, out)
	require.NoError(t, err)
	require.Equal(t, value, got)
	return InputCredentials{
		Ring:           []TxOut{*out},
		RealIndex:      0,
		OnetimePrivate: onetime,
		Value:          value,
		Blinding:       blinding,
	}
}

// prepared creates outputs of the given values and a range proof over them.
func prepared(t *testing.T, values ...uint64) ([]PreparedOutput, *rangeproof.RangeProof, []rangeproof.Commitment) {
	t.Helper()
	recipient := testAccount(t).DefaultSubaddress()
	outs := make([]PreparedOutput, len(values))
	blindings := make([]*rangeproof.Scalar, len(values))
	for i, v := range values {
		out, blinding, err := NewOutput(v, recipient, []byte{byte(i)}, rand.Reader)
		require.NoError(t, err)
		outs[i] = PreparedOutput{TxOut: *out, Value: v, Blinding: blinding}
		blindings[i] = blinding
	}
	proof, commitments, err := rangeproof.Generate(values, blindings, rand.Reader)
	require.NoError(t, err)
	return outs, proof, commitments
}

func buildTestTx(t *testing.T) (*Tx, *stubSigner) {
	t.Helper()
	owner := testAccount(t)
	inputs := []InputCredentials{spendable(t, owner, 600), spendable(t, owner, 500)}
	outs, proof, commitments := prepared(t, 700, 300, 50)

	signer := &stubSigner{}
	tx, err := NewBuilder(signer).Build(BuildRequest{
		Inputs:         inputs,
		Outputs:        outs,
		Proof:          proof,
		Commitments:    commitments,
		Fee:            50,
		TombstoneBlock: 1234,
	}, rand.Reader)
	require.NoError(t, err)
	return tx, signer
}
