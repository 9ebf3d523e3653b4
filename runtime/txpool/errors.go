package txpool

import "errors"

var (
	// ErrValidationFailed is the error returned when a transaction fails
	// the syntactic or signature checks performed at admission.
	ErrValidationFailed = errors.New("txpool: transaction validation failed")

	// ErrReplacementRejected is the error returned when a resubmission for
	// an occupied (sender, nonce) slot does not bump the fee enough or
	// grows the call data beyond the configured delta.
	ErrReplacementRejected = errors.New("txpool: replacement fee bump too low")

	// ErrMempoolFull is the error returned when the pool is at capacity
	// and nothing of lower priority can be evicted to make room.
	ErrMempoolFull = errors.New("txpool: mempool is full")

	// ErrDuplicateTx is the error returned when an identical transaction
	// was recently submitted.
	ErrDuplicateTx = errors.New("txpool: duplicate transaction")

	// ErrCheckQueueFull is the error returned when the admission check
	// queue is at capacity.
	ErrCheckQueueFull = errors.New("txpool: check queue is full")
)
