package store

import "errors"

var (
	ErrAccountNotFound    = errors.New("store: account not found")
	ErrRecordNotFound     = errors.New("store: record not found")
	ErrSettlementNotFound = errors.New("store: settlement not found")
	ErrAlreadyExists      = errors.New("store: already exists")
	ErrClosed             = errors.New("store: closed")
)

// IsNotFound reports whether err means the requested entity does not exist.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrAccountNotFound) ||
		errors.Is(err, ErrRecordNotFound) ||
		errors.Is(err, ErrSettlementNotFound)
}
