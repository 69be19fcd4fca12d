package types

import (
	"errors"
	"fmt"
	"strings"
)

// SchemaError reports required identifying columns that the source lacks.
type SchemaError struct {
	Missing []string
	Present []string
}

func (e *SchemaError) Error() string {
	return fmt.Sprintf("required columns missing: %s (present: %s)",
		strings.Join(e.Missing, ", "), strings.Join(e.Present, ", "))
}

// NoYearColumnsError reports that no usable year column survived detection
// and coercion. Detected lists year headers that were found but held no values.
type NoYearColumnsError struct {
	Detected []int
}

func (e *NoYearColumnsError) Error() string {
	if len(e.Detected) == 0 {
		return "no year columns found"
	}
	return fmt.Sprintf("year columns %v contain no valuations", e.Detected)
}

// NotFoundError reports a unit key or group that matches no rows.
type NotFoundError struct {
	Subject string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("no rows match %s", e.Subject)
}

// EmptyResultError reports a comparable search that found no candidate
// although the target exists.
type EmptyResultError struct {
	Reason string
}

func (e *EmptyResultError) Error() string {
	return "no comparable found: " + e.Reason
}

// IsNotFound reports whether err wraps a NotFoundError.
func IsNotFound(err error) bool {
	var nf *NotFoundError
	return errors.As(err, &nf)
}

// IsEmptyResult reports whether err wraps an EmptyResultError.
func IsEmptyResult(err error) bool {
	var er *EmptyResultError
	return errors.As(err, &er)
}
