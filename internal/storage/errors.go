package storage

import "errors"

var (
	// ErrNotFound means no record matched the lookup key.
	ErrNotFound = errors.New("storage: record not found")

	// ErrDuplicateKey means a price point or transaction id already exists.
	// Price series are append-only.
	ErrDuplicateKey = errors.New("storage: duplicate key")

	// ErrInvalidInput covers missing keys and transitions out of a final status.
	ErrInvalidInput = errors.New("storage: invalid input")
)
