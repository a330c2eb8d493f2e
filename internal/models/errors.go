package models

import "fmt"

// ValidationError names the first offending form field. Recoverable by
// user correction, never reaches the store.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("field %s %s", e.Field, e.Reason)
}

// FetchError wraps a failed option-list or recap fetch. The affected list
// is reset to empty so downstream state stays consistent.
type FetchError struct {
	Kind string // classes, groups, participants, recap
	Err  error
}

func (e *FetchError) Error() string {
	return fmt.Sprintf("failed to fetch %s: %v", e.Kind, e.Err)
}

func (e *FetchError) Unwrap() error {
	return e.Err
}

// WriteError wraps a failed rating insert. Form state is preserved so the
// user can resubmit; there is no automatic retry.
type WriteError struct {
	Err error
}

func (e *WriteError) Error() string {
	return fmt.Sprintf("failed to save rating: %v", e.Err)
}

func (e *WriteError) Unwrap() error {
	return e.Err
}
