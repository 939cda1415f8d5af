package checkout

import "errors"

var (
	ErrOrderNotFound = errors.New("checkout: order not found")
	// ErrSignatureMismatch means the completion payload failed verification.
	// The order is marked failed and the attempt cannot be retried; the user
	// restarts checkout.
	ErrSignatureMismatch = errors.New("checkout: payment signature mismatch")
)
