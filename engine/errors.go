package engine

import "errors"

// Validation errors, returned synchronously before any store call is made.
var (
	ErrEmptyName        = errors.New("name must not be empty")
	ErrEmptyDisplayName = errors.New("display name must not be empty")
	ErrUnknownClass     = errors.New("class not present in session cache")
	ErrUnknownRequest   = errors.New("join request not present in session cache")
	ErrUnknownMember    = errors.New("member not present in session cache")
	ErrClassRequired    = errors.New("a destination class must be supplied")
	ErrInvalidCapacity  = errors.New("capacity limit must be positive")
	ErrSessionClosed    = errors.New("session is closed")
)
