package models

import "fmt"

// ValidationError reports input that failed the current step's expectation.
// It is always recoverable: the caller re-prompts the same step with Reason.
type ValidationError struct {
	Reason string
}

func (e *ValidationError) Error() string {
	return e.Reason
}

// Validationf builds a ValidationError with a formatted reason.
func Validationf(format string, args ...any) *ValidationError {
	return &ValidationError{Reason: fmt.Sprintf(format, args...)}
}

// SessionStoreError wraps a session persistence failure. The step is
// considered not advanced; the user is told to retry.
type SessionStoreError struct {
	Err error
}

func (e *SessionStoreError) Error() string {
	return fmt.Sprintf("session store: %v", e.Err)
}

func (e *SessionStoreError) Unwrap() error { return e.Err }

// CommitError wraps a domain-store write failure at confirm time. The
// session is preserved so the user can retry without re-entering fields.
type CommitError struct {
	Err error
}

func (e *CommitError) Error() string {
	return fmt.Sprintf("commit: %v", e.Err)
}

func (e *CommitError) Unwrap() error { return e.Err }
