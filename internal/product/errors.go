package product

import (
	"errors"
	"strings"
)

var (
	ErrNotFound = errors.New("product not found")
	ErrLoading  = errors.New("inventory is still loading")
)

// FieldError is one invalid field of an Input.
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// ValidationError is returned when an Input is rejected. Nothing is applied.
type ValidationError struct {
	// Index of the offending input when several were submitted together.
	Index  int
	Fields []FieldError
}

func (e *ValidationError) Error() string {
	parts := make([]string, 0, len(e.Fields))
	for _, f := range e.Fields {
		parts = append(parts, f.Field+": "+f.Message)
	}
	return "invalid product: " + strings.Join(parts, "; ")
}
