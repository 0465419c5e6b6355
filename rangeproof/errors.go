package rangeproof

import "errors"

var (
	// ErrEmptyBatch indicates padding or proving was asked for zero elements.
	ErrEmptyBatch = errors.New("rangeproof: batch is empty")

	// ErrPaddingOverflow indicates no representable power of two exists at or above the batch length.
	ErrPaddingOverflow = errors.New("rangeproof: next power of two overflows")

	// ErrLengthMismatch indicates the values and blindings slices differ in length.
	ErrLengthMismatch = errors.New("rangeproof: values and blindings length mismatch")

	// ErrUnsupportedWidth indicates the padded batch exceeds MaxAggregationWidth.
	ErrUnsupportedWidth = errors.New("rangeproof: unsupported aggregation width")

	// ErrInvalidEncoding indicates a malformed point, scalar or proof encoding.
	ErrInvalidEncoding = errors.New("rangeproof: invalid encoding")

	// ErrProofGeneration indicates proving failed on input that should have been provable.
	// Callers must not retry with identical inputs.
	ErrProofGeneration = errors.New("rangeproof: proof generation failed")

	// ErrVerification indicates the proof does not attest the given commitments.
	ErrVerification = errors.New("rangeproof: verification failed")
)
