package errs

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidArgument is returned for missing or empty required input.
	ErrInvalidArgument = errors.New("invalid argument")
	// ErrNotFound is a generic sentinel for missing resources.
	ErrNotFound = errors.New("not found")
	// ErrAlreadyExists is returned when ingesting under a label that is taken.
	ErrAlreadyExists = errors.New("already exists")
)

// ParseError marks a single malformed oracle response. Callers skip the
// affected item instead of aborting the batch.
type ParseError struct {
	Raw string
	Err error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("parse oracle response: %v (raw=%q)", e.Err, e.Raw)
}

func (e *ParseError) Unwrap() error { return e.Err }

// NoDocumentsFoundError is returned when every requested document failed to
// resolve. Distinct from a partial not-found, which is reported alongside a
// successful result.
type NoDocumentsFoundError struct {
	Requested []string
}

func (e *NoDocumentsFoundError) Error() string {
	return fmt.Sprintf("no documents were found out of the provided %v", e.Requested)
}

// ConceptNotRemovedError carries the before/after concept counts from the
// failed deletion verification.
type ConceptNotRemovedError struct {
	Before int
	After  int
}

func (e *ConceptNotRemovedError) Error() string {
	return fmt.Sprintf("failed to remove concept: concept count before removal was %d, after removal is %d", e.Before, e.After)
}

// IngestFailedError reports a failure partway through a multi-chunk ingest.
// Nodes created before the failure are left in place.
type IngestFailedError struct {
	Label string
	Err   error
}

func (e *IngestFailedError) Error() string {
	return fmt.Sprintf("ingest failed for label %q: %v", e.Label, e.Err)
}

func (e *IngestFailedError) Unwrap() error { return e.Err }
