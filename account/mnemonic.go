package account

import (
	"crypto/sha512"
	"fmt"
	"io"

	"github.com/bsv-blockchain/go-sdk/compat/bip39"
	"github.com/gtank/ristretto255"
	"golang.org/x/crypto/hkdf"
)

const (
	// Mnemonic entropy sizes.
	Mnemonic12Words = 128 // 12-word mnemonic
	Mnemonic24Words = 256 // 24-word mnemonic

	// MinSeedLen is the shortest seed AccountKeyFromSeed accepts.
	MinSeedLen = 32
)

// GenerateMnemonic creates a new BIP39 mnemonic with the specified entropy bits.
func GenerateMnemonic(entropyBits int) (string, error) {
	if entropyBits != Mnemonic12Words && entropyBits != Mnemonic24Words {
		return "", ErrInvalidEntropy
	}

	entropy, err := bip39.NewEntropy(entropyBits)
	if err != nil {
		return "", fmt.Errorf("account: generate entropy: %w", err)
	}
	mnemonic, err := bip39.NewMnemonic(entropy)
	if err != nil {
		return "", fmt.Errorf("account: generate mnemonic: %w", err)
	}
	return mnemonic, nil
}

// SeedFromMnemonic derives the 64-byte BIP39 seed. The passphrase may be empty.
func SeedFromMnemonic(mnemonic, passphrase string) ([]byte, error) {
	if !bip39.IsMnemonicValid(mnemonic) {
		return nil, ErrInvalidMnemonic
	}
	seed, err := bip39.NewSeedWithErrorChecking(mnemonic, passphrase)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidMnemonic, err)
	}
	return seed, nil
}

// AccountKeyFromSeed expands seed into view and spend keys with HKDF-SHA512.
// Each key reads 64 bytes of output and reduces them to a scalar.
func AccountKeyFromSeed(seed []byte) (*AccountKey, error) {
	if len(seed) < MinSeedLen {
		return nil, fmt.Errorf("%w: %d bytes, need at least %d", ErrInvalidSeed, len(seed), MinSeedLen)
	}
	view, err := deriveScalar(seed, "view")
	if err != nil {
		return nil, err
	}
	spend, err := deriveScalar(seed, "spend")
	if err != nil {
		return nil, err
	}
	return &AccountKey{ViewPrivate: view, SpendPrivate: spend}, nil
}

// AccountKeyFromMnemonic is SeedFromMnemonic followed by AccountKeyFromSeed.
func AccountKeyFromMnemonic(mnemonic, passphrase string) (*AccountKey, error) {
	seed, err := SeedFromMnemonic(mnemonic, passphrase)
	if err != nil {
		return nil, err
	}
	return AccountKeyFromSeed(seed)
}

func deriveScalar(seed []byte, which string) (*Scalar, error) {
	r := hkdf.New(sha512.New, seed, []byte("mobilecoin account key"), []byte(which))
	var wide [64]byte
	if _, err := io.ReadFull(r, wide[:]); err != nil {
		return nil, fmt.Errorf("account: derive %s key: %w", which, err)
	}
	return ristretto255.NewScalar().FromUniformBytes(wide[:]), nil
}
