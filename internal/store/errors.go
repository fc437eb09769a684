package store

import "errors"

var (
	// ErrNotFound is returned when a lookup matches no row.
	ErrNotFound = errors.New("not found")

	// ErrAlreadyAwarded is returned when an award already exists for the
	// same period and conference.
	ErrAlreadyAwarded = errors.New("award already exists for period and conference")
)
