// Package account holds the key material needed to build and receive
// confidential outputs: view/spend key pairs, subaddresses, one-time output
// keys, key images and BIP39 seed handling.
//
// Subaddress i of an account with view key a and spend key b:
//
//	d_i = b + Hs(a || i)        D_i = d_i*G     (spend public)
//	                            C_i = a*D_i     (view public)
package account

import (
	"encoding/binary"
	"encoding/hex"
	"fmt"
	"io"

	"github.com/gtank/ristretto255"
	"golang.org/x/crypto/blake2b"

	"github.com/kylefleming/mobilecoin/rangeproof"
)

const (
	// KeySize is the length of a compressed public key or scalar.
	KeySize = 32

	// DefaultSubaddressIndex receives payments addressed to the account.
	DefaultSubaddressIndex uint64 = 0

	// ChangeSubaddressIndex receives change from the account's own spends.
	ChangeSubaddressIndex uint64 = 1
)

// Hash domain tags.
const (
	domainSubaddress = "mc_subaddress"
	domainOnetime    = "mc_onetime_key"
	domainKeyImage   = "mc_key_image"
)

// Scalar is a ristretto255 scalar, shared with the range proof engine.
type Scalar = rangeproof.Scalar

// PublicKey is a compressed ristretto255 point.
type PublicKey [KeySize]byte

// PublicKeyFromBytes copies b, rejecting anything that is not a valid point.
func PublicKeyFromBytes(b []byte) (PublicKey, error) {
	var k PublicKey
	if len(b) != KeySize {
		return k, fmt.Errorf("%w: must be %d bytes, got %d", ErrInvalidKey, KeySize, len(b))
	}
	copy(k[:], b)
	if _, err := k.Decompress(); err != nil {
		return PublicKey{}, err
	}
	return k, nil
}

// Decompress decodes the key into a group element.
func (k PublicKey) Decompress() (*ristretto255.Element, error) {
	p := ristretto255.NewElement()
	if err := p.Decode(k[:]); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidKey, err)
	}
	return p, nil
}

// String returns the hex encoding.
func (k PublicKey) String() string {
	return hex.EncodeToString(k[:])
}

func compress(p *ristretto255.Element) PublicKey {
	var k PublicKey
	copy(k[:], p.Encode(nil))
	return k
}

// PublicFromPrivate returns x*G.
func PublicFromPrivate(x *Scalar) PublicKey {
	return compress(ristretto255.NewElement().ScalarBaseMult(x))
}

// hashToScalar maps a tagged message to a scalar via BLAKE2b-512.
func hashToScalar(domain string, parts ...[]byte) *Scalar {
	h, _ := blake2b.New512(nil)
	_, _ = h.Write([]byte(domain))
	for _, p := range parts {
		_, _ = h.Write(p)
	}
	return ristretto255.NewScalar().FromUniformBytes(h.Sum(nil))
}

// hashToPoint maps a tagged message to a group element via BLAKE2b-512.
func hashToPoint(domain string, parts ...[]byte) *ristretto255.Element {
	h, _ := blake2b.New512(nil)
	_, _ = h.Write([]byte(domain))
	for _, p := range parts {
		_, _ = h.Write(p)
	}
	return ristretto255.NewElement().FromUniformBytes(h.Sum(nil))
}

// AccountKey is the private view/spend key pair of an account.
type AccountKey struct {
	ViewPrivate  *Scalar
	SpendPrivate *Scalar
}

// NewAccountKey draws a fresh key pair from rng.
func NewAccountKey(rng io.Reader) (*AccountKey, error) {
	view, err := rangeproof.RandomScalar(rng)
	if err != nil {
		return nil, fmt.Errorf("account: view key: %w", err)
	}
	spend, err := rangeproof.RandomScalar(rng)
	if err != nil {
		return nil, fmt.Errorf("account: spend key: %w", err)
	}
	return &AccountKey{ViewPrivate: view, SpendPrivate: spend}, nil
}

// subaddressHash returns Hs(a || i).
func (k *AccountKey) subaddressHash(index uint64) *Scalar {
	var idx [8]byte
	binary.LittleEndian.PutUint64(idx[:], index)
	return hashToScalar(domainSubaddress, k.ViewPrivate.Encode(nil), idx[:])
}

// SubaddressSpendPrivate returns d_i = b + Hs(a || i).
func (k *AccountKey) SubaddressSpendPrivate(index uint64) *Scalar {
	return ristretto255.NewScalar().Add(k.SpendPrivate, k.subaddressHash(index))
}

// Subaddress returns the public address (C_i, D_i) for index.
func (k *AccountKey) Subaddress(index uint64) PublicAddress {
	d := ristretto255.NewElement().ScalarBaseMult(k.SubaddressSpendPrivate(index))
	c := ristretto255.NewElement().ScalarMult(k.ViewPrivate, d)
	return PublicAddress{ViewPublic: compress(c), SpendPublic: compress(d)}
}

// DefaultSubaddress returns subaddress 0.
func (k *AccountKey) DefaultSubaddress() PublicAddress {
	return k.Subaddress(DefaultSubaddressIndex)
}

// ChangeSubaddress returns subaddress 1.
func (k *AccountKey) ChangeSubaddress() PublicAddress {
	return k.Subaddress(ChangeSubaddressIndex)
}
