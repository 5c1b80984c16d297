package domain

import (
	"errors"
	"strings"
)

// Sentinel errors shared by the store adapters, the services and the
// HTTP layer. Adapters wrap them with the collection and document ID.
var (
	ErrNotFound      = errors.New("document not found")
	ErrAlreadyExists = errors.New("document already exists")
	ErrValidation    = errors.New("invalid input")
	ErrUnauthorized  = errors.New("no signed-in user")
	ErrForbidden     = errors.New("not permitted for this user")
	ErrNotReady      = errors.New("session not ready")
)

// FieldError names one rejected input field, e.g. a blank topic name.
type FieldError struct {
	Field   string
	Message string
}

func (f FieldError) String() string { return f.Field + ": " + f.Message }

// ValidationError lists every rejected field of one request.
type ValidationError struct {
	Errors []FieldError
}

// Error reads "invalid name: required" for one field and
// "invalid input: bio: max 500 characters; display_name: required" for several.
func (e *ValidationError) Error() string {
	switch len(e.Errors) {
	case 0:
		return ErrValidation.Error()
	case 1:
		return "invalid " + e.Errors[0].String()
	}
	parts := make([]string, len(e.Errors))
	for i, fe := range e.Errors {
		parts[i] = fe.String()
	}
	return ErrValidation.Error() + ": " + strings.Join(parts, "; ")
}

func (e *ValidationError) Unwrap() error { return ErrValidation }

// Message returns the first message recorded for field.
func (e *ValidationError) Message(field string) (string, bool) {
	for _, fe := range e.Errors {
		if fe.Field == field {
			return fe.Message, true
		}
	}
	return "", false
}

func NewValidationError(field, message string) *ValidationError {
	return &ValidationError{
		Errors: []FieldError{{Field: field, Message: message}},
	}
}

func NewValidationErrors(errs []FieldError) *ValidationError {
	return &ValidationError{Errors: errs}
}
