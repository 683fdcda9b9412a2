package models

import (
	"errors"
	"fmt"
)

var (
	// ErrSessionNotFound is returned when a session id is unknown or expired.
	ErrSessionNotFound = errors.New("session not found")
	// ErrSafetyBlocked marks a completion rejected by the provider's safety filter.
	ErrSafetyBlocked = errors.New("response blocked by safety filter")
	// ErrMalformedEnvelope marks a completion response without usable content.
	ErrMalformedEnvelope = errors.New("malformed completion envelope")
)

// UploadError aborts a request when a research file cannot be read.
type UploadError struct {
	File string
	Err  error
}

func (e *UploadError) Error() string {
	if e.File == "" {
		return fmt.Sprintf("upload processing: %v", e.Err)
	}
	return fmt.Sprintf("upload processing %q: %v", e.File, e.Err)
}

func (e *UploadError) Unwrap() error { return e.Err }

// UpstreamError is a completion call failure after retries were exhausted.
type UpstreamError struct {
	Status   int // HTTP status of the last attempt, 0 if none
	Attempts int
	Err      error
}

func (e *UpstreamError) Error() string {
	if e.Status != 0 {
		return fmt.Sprintf("upstream status %d after %d attempt(s): %v", e.Status, e.Attempts, e.Err)
	}
	return fmt.Sprintf("upstream after %d attempt(s): %v", e.Attempts, e.Err)
}

func (e *UpstreamError) Unwrap() error { return e.Err }

// SchemaMismatchError means the completion JSON did not have the expected shape.
type SchemaMismatchError struct {
	Kind string // chart, analysis, chat
	Err  error
}

func (e *SchemaMismatchError) Error() string {
	switch e.Kind {
	case EventChart:
		return "unable to find tasks/columns in the generated chart"
	default:
		return fmt.Sprintf("unexpected %s response shape", e.Kind)
	}
}

func (e *SchemaMismatchError) Unwrap() error { return e.Err }
