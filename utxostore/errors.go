package utxostore

import "errors"

var (
	// ErrNilParam indicates a required parameter is nil.
	ErrNilParam = errors.New("utxostore: required parameter is nil")

	// ErrDuplicateKeyImage indicates a record with the same key image is already stored.
	ErrDuplicateKeyImage = errors.New("utxostore: duplicate key image")

	// ErrNotFound indicates no record exists for the key image.
	ErrNotFound = errors.New("utxostore: unspent output not found")

	// ErrCorrupt indicates a stored record that no longer decodes.
	ErrCorrupt = errors.New("utxostore: stored record is corrupt")
)
