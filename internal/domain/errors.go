package domain

import "errors"

var (
	ErrNotFound          = errors.New("not found")
	ErrConflict          = errors.New("conflict")
	ErrInvalidInput      = errors.New("invalid input")
	ErrUnsupportedSource = errors.New("unsupported source")
	ErrValidationFailed  = errors.New("validation failed")
)
