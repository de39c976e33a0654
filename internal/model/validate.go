package model

import (
	"fmt"
	"strings"
)

// ValidationError holds a list of field-level validation errors.
type ValidationError struct {
	Errors []FieldError
}

// FieldError represents a single validation failure on a named field.
type FieldError struct {
	Field   string
	Message string
}

// Error formats the validation error as a semicolon-separated list of field messages.
func (e *ValidationError) Error() string {
	parts := make([]string, len(e.Errors))
	for i, fe := range e.Errors {
		parts[i] = fe.Field + ": " + fe.Message
	}
	return "validation failed: " + strings.Join(parts, "; ")
}

// HasErrors reports whether the validation error contains any field errors.
func (e *ValidationError) HasErrors() bool {
	return len(e.Errors) > 0
}

// ValidateEvent checks an Event for constraint violations.
func ValidateEvent(e *Event) error {
	var ve ValidationError

	if strings.TrimSpace(e.Name) == "" {
		ve.Errors = append(ve.Errors, FieldError{Field: "name", Message: "is required"})
	}

	if ve.HasErrors() {
		return &ve
	}
	return nil
}

// ValidateGuest checks a Guest for constraint violations. The token itself
// is minted by the store, so ID is not validated here.
func ValidateGuest(g *Guest) error {
	var ve ValidationError

	if strings.TrimSpace(g.Name) == "" {
		ve.Errors = append(ve.Errors, FieldError{Field: "name", Message: "is required"})
	}

	if g.EventID == "" {
		ve.Errors = append(ve.Errors, FieldError{Field: "event_id", Message: "is required"})
	}

	if !g.AccessLevel.IsValid() {
		ve.Errors = append(ve.Errors, FieldError{
			Field:   "access_level",
			Message: fmt.Sprintf("must be 1, 2, or 3, got %d", g.AccessLevel),
		})
	}

	if ve.HasErrors() {
		return &ve
	}
	return nil
}
