package meter

import "errors"

var (
	// ErrLimitExceeded is returned when a call tree would charge more than
	// its storage deposit limit.
	ErrLimitExceeded = errors.New("meter: storage deposit limit exhausted")
	// ErrInsufficientFunds is returned when the origin cannot afford the
	// requested limit.
	ErrInsufficientFunds = errors.New("meter: not enough funds for storage deposit")
)
