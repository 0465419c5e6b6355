package account

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"fmt"
	"os"
	"path/filepath"

	"golang.org/x/crypto/argon2"
)

const (
	// Argon2id parameters for seed encryption.
	Argon2Time        = 3
	Argon2Memory      = 64 * 1024 // 64 MB
	Argon2Parallelism = 4
	Argon2KeyLen      = 32

	// seedFileVersion prefixes every sealed seed and is bound as GCM additional data.
	seedFileVersion byte = 1

	saltLen  = 16
	nonceLen = 12
)

// SealSeed encrypts seed under password.
//
// Output format: version(1B) || salt(16B) || nonce(12B) || AES-256-GCM(argon2id(password, salt), seed)
func SealSeed(seed []byte, password string) ([]byte, error) {
	if len(seed) == 0 {
		return nil, ErrInvalidSeed
	}

	header := make([]byte, 1+saltLen+nonceLen)
	header[0] = seedFileVersion
	if _, err := rand.Read(header[1:]); err != nil {
		return nil, fmt.Errorf("account: generate salt and nonce: %w", err)
	}
	salt := header[1 : 1+saltLen]
	nonce := header[1+saltLen:]

	gcm, err := seedCipher(password, salt)
	if err != nil {
		return nil, err
	}
	return gcm.Seal(header, nonce, seed, header[:1]), nil
}

// OpenSeed reverses SealSeed.
func OpenSeed(sealed []byte, password string) ([]byte, error) {
	if len(sealed) < 1+saltLen+nonceLen {
		return nil, ErrDecryptionFailed
	}
	if sealed[0] != seedFileVersion {
		return nil, fmt.Errorf("%w: %d", ErrUnsupportedSeedFile, sealed[0])
	}
	salt := sealed[1 : 1+saltLen]
	nonce := sealed[1+saltLen : 1+saltLen+nonceLen]

	gcm, err := seedCipher(password, salt)
	if err != nil {
		return nil, ErrDecryptionFailed
	}
	seed, err := gcm.Open(nil, nonce, sealed[1+saltLen+nonceLen:], sealed[:1])
	if err != nil {
		return nil, ErrDecryptionFailed
	}
	return seed, nil
}

func seedCipher(password string, salt []byte) (cipher.AEAD, error) {
	key := argon2.IDKey([]byte(password), salt, Argon2Time, Argon2Memory, Argon2Parallelism, Argon2KeyLen)
	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, fmt.Errorf("account: AES cipher creation failed: %w", err)
	}
	gcm, err := cipher.NewGCM(block)
	if err != nil {
		return nil, fmt.Errorf("account: GCM creation failed: %w", err)
	}
	return gcm, nil
}

// WriteSeedFile seals seed and writes it to path with owner-only permissions.
func WriteSeedFile(path string, seed []byte, password string) error {
	sealed, err := SealSeed(seed, password)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
		return fmt.Errorf("account: create directory: %w", err)
	}
	if err := os.WriteFile(path, sealed, 0600); err != nil {
		return fmt.Errorf("account: write seed file: %w", err)
	}
	return nil
}

// ReadSeedFile reads and opens a file written by WriteSeedFile.
func ReadSeedFile(path, password string) ([]byte, error) {
	sealed, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("account: read seed file: %w", err)
	}
	return OpenSeed(sealed, password)
}
