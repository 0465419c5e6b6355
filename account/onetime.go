package account

import (
	"fmt"

	"github.com/gtank/ristretto255"
)

// KeyImage tags a spent output. It is deterministic in the output's one-time
// private key, so a second spend of the same output produces the same image.
type KeyImage [KeySize]byte

// CreateTxPublicKey returns R = r*D for a recipient with spend public key D.
func CreateTxPublicKey(txPrivate *Scalar, recipient PublicAddress) (PublicKey, error) {
	if txPrivate == nil {
		return PublicKey{}, fmt.Errorf("%w: tx private key", ErrNilParam)
	}
	d, err := recipient.SpendPublic.Decompress()
	if err != nil {
		return PublicKey{}, err
	}
	return compress(ristretto255.NewElement().ScalarMult(txPrivate, d)), nil
}

// CreateOnetimePublicKey returns P = Hs(r*C)*G + D.
func CreateOnetimePublicKey(txPrivate *Scalar, recipient PublicAddress) (PublicKey, error) {
	if txPrivate == nil {
		return PublicKey{}, fmt.Errorf("%w: tx private key", ErrNilParam)
	}
	c, err := recipient.ViewPublic.Decompress()
	if err != nil {
		return PublicKey{}, err
	}
	d, err := recipient.SpendPublic.Decompress()
	if err != nil {
		return PublicKey{}, err
	}
	shared := compress(ristretto255.NewElement().ScalarMult(txPrivate, c))
	hs := hashToScalar(domainOnetime, shared[:])
	p := ristretto255.NewElement().Add(ristretto255.NewElement().ScalarBaseMult(hs), d)
	return compress(p), nil
}

// SharedSecret returns private*public. The sender computes r*C and the
// recipient a*R; both arrive at the same point.
func SharedSecret(private *Scalar, public PublicKey) (PublicKey, error) {
	if private == nil {
		return PublicKey{}, fmt.Errorf("%w: private key", ErrNilParam)
	}
	p, err := public.Decompress()
	if err != nil {
		return PublicKey{}, err
	}
	return compress(ristretto255.NewElement().ScalarMult(private, p)), nil
}

// ViewKeyMatches reports whether onetime was sent to subaddress index of k,
// given the output's tx public key.
func (k *AccountKey) ViewKeyMatches(index uint64, onetime, txPublic PublicKey) (bool, error) {
	shared, err := SharedSecret(k.ViewPrivate, txPublic)
	if err != nil {
		return false, err
	}
	target, err := onetime.Decompress()
	if err != nil {
		return false, err
	}
	d, err := k.Subaddress(index).SpendPublic.Decompress()
	if err != nil {
		return false, err
	}
	hs := hashToScalar(domainOnetime, shared[:])
	expect := ristretto255.NewElement().Add(ristretto255.NewElement().ScalarBaseMult(hs), d)
	return expect.Equal(target) == 1, nil
}

// RecoverOnetimePrivateKey returns x = Hs(a*R) + d_i, the private key of an
// output received on subaddress index.
func (k *AccountKey) RecoverOnetimePrivateKey(index uint64, txPublic PublicKey) (*Scalar, error) {
	shared, err := SharedSecret(k.ViewPrivate, txPublic)
	if err != nil {
		return nil, err
	}
	hs := hashToScalar(domainOnetime, shared[:])
	return ristretto255.NewScalar().Add(hs, k.SubaddressSpendPrivate(index)), nil
}

// KeyImageOf returns x*Hp(x*G).
func KeyImageOf(onetimePrivate *Scalar) (KeyImage, error) {
	if onetimePrivate == nil {
		return KeyImage{}, fmt.Errorf("%w: onetime private key", ErrNilParam)
	}
	pub := PublicFromPrivate(onetimePrivate)
	hp := hashToPoint(domainKeyImage, pub[:])
	return KeyImage(compress(ristretto255.NewElement().ScalarMult(onetimePrivate, hp))), nil
}
