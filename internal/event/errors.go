package event

import "fmt"

// DataError marks a malformed record: a missing required field or a date that
// cannot be resolved to an instant. It surfaces as a blocking validation
// message and is never silently coerced.
type DataError struct {
	Field  string
	Reason string
}

func (e *DataError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
}

func dataErrf(field, format string, args ...any) *DataError {
	return &DataError{Field: field, Reason: fmt.Sprintf(format, args...)}
}
