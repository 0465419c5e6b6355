package wire

import "errors"

var (
	// ErrMalformed indicates bytes that do not parse as protobuf fields.
	ErrMalformed = errors.New("wire: malformed message")

	// ErrWrongType indicates a known field number arrived with an unexpected wire type.
	ErrWrongType = errors.New("wire: unexpected wire type")
)
