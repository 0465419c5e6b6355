package mobilecoind

import "errors"

var (
	// ErrNilParam indicates a required parameter is nil.
	ErrNilParam = errors.New("mobilecoind: required parameter is nil")

	// ErrAmountOverflow indicates outlays plus fee, or height plus tombstone window, overflow uint64.
	ErrAmountOverflow = errors.New("mobilecoind: amount overflow")

	// ErrNotOwned indicates an imported output does not belong to the given subaddress.
	ErrNotOwned = errors.New("mobilecoind: output not owned by account")

	// ErrInvalidProposal indicates a submitted proposal failed decoding or verification.
	ErrInvalidProposal = errors.New("mobilecoind: invalid tx proposal")

	// ErrSubmitFailed indicates the consensus node did not accept the transaction.
	ErrSubmitFailed = errors.New("mobilecoind: submit failed")
)
