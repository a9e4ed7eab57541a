package models

import "errors"

// Error classes shared by the store, lifecycle and coordinator layers.
// Wrap with fmt.Errorf("%w: ...") and test with errors.Is.
var (
	ErrValidation   = errors.New("validation error")
	ErrNotFound     = errors.New("not found")
	ErrInvalidState = errors.New("invalid state")
	ErrConflict     = errors.New("conflict")
	ErrStorage      = errors.New("storage error")
	ErrTransport    = errors.New("transport error")
)
