package payments

import "errors"

var (
	// ErrNilParam indicates a required parameter is nil.
	ErrNilParam = errors.New("payments: required parameter is nil")

	// ErrFeeMismatch indicates the proposal fee differs from the fee embedded in its transaction.
	ErrFeeMismatch = errors.New("payments: proposal fee does not match transaction fee")

	// ErrIndexOutOfBounds indicates an outlay mapping of the wrong length or with a key or value outside its bound.
	ErrIndexOutOfBounds = errors.New("payments: outlay index mapping out of bounds")

	// ErrDuplicateTxOutIndex indicates two outlays mapped to the same output.
	ErrDuplicateTxOutIndex = errors.New("payments: two outlays share a tx out index")

	// ErrInsufficientFunds indicates the inputs cannot cover the outlays and fee.
	ErrInsufficientFunds = errors.New("payments: insufficient funds")

	// ErrNoOutlays indicates a payment request without recipients.
	ErrNoOutlays = errors.New("payments: no outlays")

	// ErrNoInputs indicates a payment request without inputs.
	ErrNoInputs = errors.New("payments: no inputs")

	// ErrTooManyOutputs indicates more outputs than one range proof can cover.
	ErrTooManyOutputs = errors.New("payments: too many outputs")

	// ErrInvalidEncoding indicates a malformed proposal, outlay or unspent output message.
	ErrInvalidEncoding = errors.New("payments: invalid encoding")
)
