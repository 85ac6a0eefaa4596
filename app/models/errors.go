package models

import (
	"errors"
	"fmt"
)

var (
	ErrNotFound  = errors.New("not found")
	ErrDuplicate = errors.New("already exists")

	ErrInsufficientPoints = errors.New("insufficient points")
	ErrUnknownUser        = errors.New("unknown user")
	ErrMissingImage       = errors.New("image is required for instagram content")

	ErrProviderError   = errors.New("generation provider failed")
	ErrProviderTimeout = errors.New("generation provider timed out")

	ErrSignatureVerification = errors.New("signature verification failed")
)

// ValidationError is a malformed or missing request field.
type ValidationError struct {
	Field   string
	Message string
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Message)
}

func Invalid(field, message string) error {
	return ValidationError{Field: field, Message: message}
}
