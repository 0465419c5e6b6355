package payments

import (
	"crypto/rand"
	"crypto/sha256"
	"io"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/kylefleming/mobilecoin/account"
	"github.com/kylefleming/mobilecoin/transaction"
)

const testFee = 10_000

type stubSigner struct{}

func (stubSigner) SignRing(message []byte, input transaction.RingSignInput, _ io.Reader) ([]byte, error) {
	sum := sha256.Sum256(append(append([]byte(nil), message...), input.PseudoOutput[:]...))
	return sum[:], nil
}

func testAccount(t *testing.T) *account.AccountKey {
	t.Helper()
	k, err := account.NewAccountKey(rand.Reader)
	require.NoError(t, err)
	return k
}

// ownedUTXO creates an output of value paid to owner's subaddress index and
// wraps it as an UnspentOutput with its real key image.
func ownedUTXO(t *testing.T, owner *account.AccountKey, index uint32, value uint64) UnspentOutput {
	t.Helper()
	out, _, err := transaction.NewOutput(value, owner.Subaddress(uint64(index)), nil, rand.Reader)
	require.NoError(t, err)
	onetime, err := owner.RecoverOnetimePrivateKey(uint64(index), out.PublicKey)
	require.NoError(t, err)
	ki, err := account.KeyImageOf(onetime)
	require.NoError(t, err)
	return UnspentOutput{
		TxOut:           *out,
		SubaddressIndex: index,
		KeyImage:        ki,
		Value:           value,
	}
}

func testAssembler() *Assembler {
	return NewAssembler(transaction.NewBuilder(stubSigner{}), nil)
}

// testProposal assembles a proposal with two outlays and change.
func testProposal(t *testing.T) (*TxProposal, *account.AccountKey) {
	t.Helper()
	owner := testAccount(t)
	p, err := testAssembler().Assemble(AssembleRequest{
		Account: owner,
		UTXOs:   []UnspentOutput{ownedUTXO(t, owner, 0, 1_000_000), ownedUTXO(t, owner, 0, 500_000)},
		Outlays: []Outlay{
			{Value: 300_000, Receiver: testAccount(t).DefaultSubaddress()},
			{Value: 200_000, Receiver: testAccount(t).DefaultSubaddress()},
		},
		Fee:            testFee,
		TombstoneBlock: 100,
	}, rand.Reader)
	require.NoError(t, err)
	return p, owner
}
