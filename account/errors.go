package account

import "errors"

var (
	// ErrInvalidMnemonic indicates the mnemonic fails BIP39 validation.
	ErrInvalidMnemonic = errors.New("account: invalid BIP39 mnemonic")

	// ErrInvalidEntropy indicates entropy bits is not 128 or 256.
	ErrInvalidEntropy = errors.New("account: entropy bits must be 128 or 256")

	// ErrInvalidSeed indicates the seed is empty or too short.
	ErrInvalidSeed = errors.New("account: invalid seed")

	// ErrInvalidKey indicates a public key that does not decode to a ristretto255 point.
	ErrInvalidKey = errors.New("account: invalid public key")

	// ErrInvalidAddress indicates a malformed public address encoding.
	ErrInvalidAddress = errors.New("account: invalid public address")

	// ErrNilParam indicates a required parameter is nil.
	ErrNilParam = errors.New("account: required parameter is nil")

	// ErrDecryptionFailed indicates wrong password or corrupted seed file.
	ErrDecryptionFailed = errors.New("account: seed decryption failed (wrong password or corrupted data)")

	// ErrUnsupportedSeedFile indicates a seed file written by an unknown format version.
	ErrUnsupportedSeedFile = errors.New("account: unsupported seed file version")
)
