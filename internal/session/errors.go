package session

import (
	"errors"
	"strings"
)

// ErrInvalidParameter marks input outside the accepted domain.
var ErrInvalidParameter = errors.New("session: invalid parameter")

// FieldError is one rejected input field with the message shown next to it.
type FieldError struct {
	Field   string
	Value   any
	Message string
}

// ValidationError lists every rejected field of one SetParams call.
type ValidationError struct {
	Fields []FieldError
}

func (e *ValidationError) Error() string {
	parts := make([]string, len(e.Fields))
	for i, f := range e.Fields {
		parts[i] = f.Field + ": " + f.Message
	}
	return ErrInvalidParameter.Error() + " (" + strings.Join(parts, "; ") + ")"
}

func (e *ValidationError) Unwrap() error { return ErrInvalidParameter }

// Message returns the message for field, or "" when it passed.
func (e *ValidationError) Message(field string) string {
	for _, f := range e.Fields {
		if f.Field == field {
			return f.Message
		}
	}
	return ""
}
