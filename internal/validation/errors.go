// Package validation collects per-field request problems and runs the
// per-route check pipelines.
package validation

import (
	"context"
	"strings"
)

// FieldError is a single problem with a request field.
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// Errors accumulates field problems in the order they were found.
type Errors []FieldError

// Add records a problem for field.
func (e *Errors) Add(field, message string) {
	*e = append(*e, FieldError{Field: field, Message: message})
}

// Has reports whether field already failed a check. Store-backed checks use
// it to skip lookups on values that are known to be malformed.
func (e Errors) Has(field string) bool {
	for _, fe := range e {
		if fe.Field == field {
			return true
		}
	}
	return false
}

func (e Errors) Error() string {
	parts := make([]string, 0, len(e))
	for _, fe := range e {
		parts = append(parts, fe.Field+": "+fe.Message)
	}
	return "validation failed: " + strings.Join(parts, "; ")
}

// Err returns nil when no problems were recorded.
func (e Errors) Err() error {
	if len(e) == 0 {
		return nil
	}
	return e
}

// Check inspects (and may enrich) the typed request input. Field problems go
// into errs. A returned error either means the check could not run or
// rejects the whole request, such as an expired token.
type Check[T any] func(ctx context.Context, in *T, errs *Errors) error

// Run executes every check in order and returns the accumulated problems.
// A check that returns an error stops the pipeline early.
func Run[T any](ctx context.Context, in *T, checks ...Check[T]) (Errors, error) {
	var errs Errors
	for _, check := range checks {
		if err := check(ctx, in, &errs); err != nil {
			return errs, err
		}
	}
	return errs, nil
}

// NormalizeEmail trims and lower-cases an address.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
