package domain

import "errors"

var (
	ErrNotFound = errors.New("not found")

	// Data-quality rejections raised by the orderbook validator.
	ErrEmptyBook     = errors.New("orderbook message has no asks or bids")
	ErrNoValidLevels = errors.New("no valid price levels after coercion")

	// Precondition violations; these indicate programming errors at the
	// call site rather than recoverable runtime conditions.
	ErrInvalidTier         = errors.New("fee tier must be between 1 and 9")
	ErrInvalidCoefficients = errors.New("impact coefficients must be positive")
)
