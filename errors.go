// Package exprannot holds what the annotation, table, filter and matrix
// packages share: the error kinds they report and the helpers that open,
// sniff and decompress input files.
package exprannot

import (
	"errors"
	"fmt"
)

var (
	// ErrUnknownField is reported when a pipeline names a field or column
	// that its input does not provide. It is raised when the pipeline is
	// built, before any row is processed.
	ErrUnknownField = errors.New("unknown field")

	// ErrMissingIdentifier is only returned where a caller demands that an
	// identifier be present. Ordinary lookups report a miss as an absent value.
	ErrMissingIdentifier = errors.New("missing identifier")

	ErrMalformedFile       = errors.New("malformed file")
	ErrDimensionMismatch   = errors.New("dimension mismatch")
	ErrZeroVariance        = errors.New("zero variance")
	ErrDuplicateIdentifier = errors.New("duplicate identifier")
	ErrEmptyIdentifier     = errors.New("empty identifier")
)

// MalformedFileError describes a parse failure at a given 1-based line.
type MalformedFileError struct {
	Path   string
	Line   int
	Reason string
	Err    error
}

func (e *MalformedFileError) Error() string {
	path := e.Path
	if path == "" {
		path = "<input>"
	}

	if e.Err != nil {
		return fmt.Sprintf("%s:%d: %s: %v", path, e.Line, e.Reason, e.Err)
	}

	return fmt.Sprintf("%s:%d: %s", path, e.Line, e.Reason)
}

// Is makes errors.Is(err, ErrMalformedFile) hold for every MalformedFileError.
func (e *MalformedFileError) Is(target error) bool {
	return target == ErrMalformedFile
}

func (e *MalformedFileError) Unwrap() error {
	return e.Err
}

// UnknownField wraps ErrUnknownField with the offending name and the context
// it was looked up in.
func UnknownField(field, where string) error {
	return fmt.Errorf("%w %q in %s", ErrUnknownField, field, where)
}
