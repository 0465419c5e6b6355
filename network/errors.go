package network

import "errors"

var (
	// ErrConnectionFailed indicates the client could not reach the consensus node.
	ErrConnectionFailed = errors.New("network: connection failed")

	// ErrInvalidResponse indicates the node returned a malformed or unexpected response.
	ErrInvalidResponse = errors.New("network: invalid response")

	// ErrSubmitRejected indicates the node refused a submitted transaction.
	ErrSubmitRejected = errors.New("network: transaction rejected")

	// ErrNilParam indicates a required parameter is nil.
	ErrNilParam = errors.New("network: required parameter is nil")
)
