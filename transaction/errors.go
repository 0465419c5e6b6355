package transaction

import "errors"

var (
	// ErrNilParam indicates a required parameter is nil.
	ErrNilParam = errors.New("transaction: required parameter is nil")

	// ErrInvalidEncoding indicates a message that does not decode to a well-formed transaction part.
	ErrInvalidEncoding = errors.New("transaction: invalid encoding")

	// ErrNoInputs indicates a build request without inputs.
	ErrNoInputs = errors.New("transaction: no inputs")

	// ErrNoOutputs indicates a build request without outputs.
	ErrNoOutputs = errors.New("transaction: no outputs")

	// ErrInvalidInput indicates input credentials that do not open the real ring member.
	ErrInvalidInput = errors.New("transaction: invalid input credentials")

	// ErrCommitmentMismatch indicates output commitments that disagree with the range proof.
	ErrCommitmentMismatch = errors.New("transaction: output commitment does not match range proof")

	// ErrUnbalanced indicates inputs that do not equal outputs plus fee.
	ErrUnbalanced = errors.New("transaction: inputs do not balance outputs and fee")

	// ErrAmountMismatch indicates a masked amount whose commitment does not open with the shared secret.
	ErrAmountMismatch = errors.New("transaction: amount does not match commitment")

	// ErrSigningFailed indicates the ring signer returned an error.
	ErrSigningFailed = errors.New("transaction: signing failed")

	// ErrRangeProof indicates the embedded range proof failed to parse or verify.
	ErrRangeProof = errors.New("transaction: range proof invalid")
)
