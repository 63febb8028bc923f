package errs

import (
	"fmt"
	"strings"

	"github.com/pkg/errors"
)

var (
	ErrNotFound            = errors.New("not found")
	ErrConflict            = errors.New("book with this isbn already exists")
	ErrInvalidCategory     = errors.New("one or more category IDs are invalid or inactive")
	ErrCategoryUnavailable = errors.New("category validity cannot be confirmed")
	ErrNoCopiesAvailable   = errors.New("no available copies to borrow")
	ErrFullyStocked        = errors.New("all copies are already available")
)

// IsStateError reports an inventory guard violation.
func IsStateError(err error) bool {
	return errors.Is(err, ErrNoCopiesAvailable) || errors.Is(err, ErrFullyStocked)
}

type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

type ValidationError struct {
	Fields []FieldError
}

func NewValidationError(fields ...FieldError) *ValidationError {
	return &ValidationError{Fields: fields}
}

// ErrCopiesInvariant is the availableCopies <= totalCopies breach.
func ErrCopiesInvariant(available, total int) *ValidationError {
	return NewValidationError(FieldError{
		Field:   "availableCopies",
		Message: fmt.Sprintf("available copies (%d) cannot be greater than total copies (%d)", available, total),
	})
}

func (e *ValidationError) Error() string {
	parts := make([]string, 0, len(e.Fields))
	for _, f := range e.Fields {
		parts = append(parts, f.Field+": "+f.Message)
	}
	return "validation failed: " + strings.Join(parts, "; ")
}

type ValidationErrorResponse struct {
	Message string       `json:"message"`
	Errors  []FieldError `json:"errors"`
}
