package mocks

import "errors"

var (
	// ErrContactMissing is returned when a contact id doesn't exist.
	ErrContactMissing = errors.New("contact not found")
)
