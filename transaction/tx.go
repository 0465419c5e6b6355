// Package transaction defines the confidential ledger transaction, its field
// exact protobuf encoding, and the Builder that turns selected inputs and
// prepared outputs into a signed Tx.
package transaction

import (
	"fmt"
	"io"

	"github.com/bsv-blockchain/go-sdk/chainhash"

	"github.com/kylefleming/mobilecoin/account"
	"github.com/kylefleming/mobilecoin/rangeproof"
)

// TxOut is a transaction output: a committed amount sent to a one-time key.
type TxOut struct {
	Amount       Amount
	TargetKey    account.PublicKey // one-time public key P
	PublicKey    account.PublicKey // tx public key R
	EAccountHint []byte
}

// Equal compares every field.
func (o *TxOut) Equal(other *TxOut) bool {
	if o == nil || other == nil {
		return o == other
	}
	return o.Amount == other.Amount &&
		o.TargetKey == other.TargetKey &&
		o.PublicKey == other.PublicKey &&
		string(o.EAccountHint) == string(other.EAccountHint)
}

// TxIn is one spent input hidden in a ring of candidate outputs.
type TxIn struct {
	Ring []TxOut
}

// TxPrefix is the signed part of a transaction.
type TxPrefix struct {
	Inputs         []TxIn
	Outputs        []TxOut
	Fee            uint64
	TombstoneBlock uint64
}

// Signature carries one ring signature per input, the pseudo-output
// commitments that balance the inputs, and the aggregated range proof.
type Signature struct {
	RingSignatures          [][]byte
	PseudoOutputCommitments []rangeproof.Commitment
	RangeProof              []byte
}

// Tx is a complete transaction.
type Tx struct {
	Prefix    TxPrefix
	Signature Signature
}

// Hash returns the double SHA-256 of the encoded prefix. It is the message
// every ring signature signs.
func (p *TxPrefix) Hash() chainhash.Hash {
	return chainhash.DoubleHashH(p.Encode())
}

// Hash identifies the transaction by its prefix.
func (t *Tx) Hash() chainhash.Hash {
	return t.Prefix.Hash()
}

// OutputCommitments returns the commitments of every output, in order.
func (p *TxPrefix) OutputCommitments() []rangeproof.Commitment {
	out := make([]rangeproof.Commitment, len(p.Outputs))
	for i := range p.Outputs {
		out[i] = p.Outputs[i].Amount.Commitment
	}
	return out
}

// NewOutput builds an output of value to recipient under a fresh tx key
// drawn from rng. It returns the output and its commitment blinding.
func NewOutput(value uint64, recipient account.PublicAddress, hint []byte, rng io.Reader) (*TxOut, *rangeproof.Scalar, error) {
	r, err := rangeproof.RandomScalar(rng)
	if err != nil {
		return nil, nil, fmt.Errorf("transaction: tx private key: %w", err)
	}
	return NewOutputWithKey(value, recipient, hint, r)
}

// NewOutputWithKey is NewOutput with a caller supplied tx private key.
func NewOutputWithKey(value uint64, recipient account.PublicAddress, hint []byte, txPrivate *rangeproof.Scalar) (*TxOut, *rangeproof.Scalar, error) {
	txPublic, err := account.CreateTxPublicKey(txPrivate, recipient)
	if err != nil {
		return nil, nil, err
	}
	target, err := account.CreateOnetimePublicKey(txPrivate, recipient)
	if err != nil {
		return nil, nil, err
	}
	shared, err := account.SharedSecret(txPrivate, recipient.ViewPublic)
	if err != nil {
		return nil, nil, err
	}
	amount, blinding := NewAmount(value, shared)
	return &TxOut{
		Amount:       amount,
		TargetKey:    target,
		PublicKey:    txPublic,
		EAccountHint: hint,
	}, blinding, nil
}

// ViewOutput opens an output received by key on subaddress index, returning
// its value, blinding and one-time private key.
func ViewOutput(key *account.AccountKey, index uint64, out *TxOut) (uint64, *rangeproof.Scalar, *rangeproof.Scalar, error) {
	if key == nil || out == nil {
		return 0, nil, nil, fmt.Errorf("%w: account key or output", ErrNilParam)
	}
	ok, err := key.ViewKeyMatches(index, out.TargetKey, out.PublicKey)
	if err != nil {
		return 0, nil, nil, err
	}
	if !ok {
		return 0, nil, nil, fmt.Errorf("%w: output not owned by subaddress %d", ErrInvalidInput, index)
	}
	shared, err := account.SharedSecret(key.ViewPrivate, out.PublicKey)
	if err != nil {
		return 0, nil, nil, err
	}
	value, blinding, err := out.Amount.Open(shared)
	if err != nil {
		return 0, nil, nil, err
	}
	onetime, err := key.RecoverOnetimePrivateKey(index, out.PublicKey)
	if err != nil {
		return 0, nil, nil, err
	}
	return value, blinding, onetime, nil
}
