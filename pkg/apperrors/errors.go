package apperrors

import (
	"errors"
	"fmt"
	"time"
)

var (
	// ErrSerialRequired is the validation failure for a missing or blank serial number.
	ErrSerialRequired = errors.New("Serial Number is required")
	// ErrNotFound marks a healthy source that holds no row for the requested key.
	ErrNotFound = errors.New("not found")
	// ErrUnknownSource is returned when the configured source type has no registered adapter.
	ErrUnknownSource = errors.New("unknown lookup source")
	// ErrStatsUnsupported is returned when the active source cannot aggregate its rows.
	ErrStatsUnsupported = errors.New("statistics not supported by this source")
)

// NotFoundError identifies the serial number that had no match.
// QueryTime is how long the source took to say so, when known.
type NotFoundError struct {
	Serial    string
	QueryTime time.Duration
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("No record found for Serial Number: %s", e.Serial)
}

func (e *NotFoundError) Is(target error) bool {
	return target == ErrNotFound
}

// SourceError is an infrastructure failure of a backing source: unreachable store,
// failed query, unreadable file. It is never a not-found.
type SourceError struct {
	Source string
	Op     string
	Err    error
}

func (e *SourceError) Error() string {
	return fmt.Sprintf("%s %s: %v", e.Source, e.Op, e.Err)
}

func (e *SourceError) Unwrap() error {
	return e.Err
}

// NewSourceError wraps err as a failure of source during op.
func NewSourceError(source, op string, err error) error {
	return &SourceError{Source: source, Op: op, Err: err}
}

// IsValidation reports whether err is a client-side input failure.
func IsValidation(err error) bool {
	return errors.Is(err, ErrSerialRequired)
}

// IsNotFound reports whether err is the not-found outcome.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}
