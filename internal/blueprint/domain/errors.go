package domain

import (
	"errors"
	"fmt"
)

var (
	// ErrNotFound is returned when a persisted project does not exist.
	ErrNotFound = errors.New("not found")
	// ErrRunNotFound is returned when a pipeline run id is unknown.
	ErrRunNotFound = errors.New("run not found")
	// ErrForbidden is returned for privileged editor operations by a
	// non-admin role.
	ErrForbidden = errors.New("forbidden")
)

// FailureKind classifies a collaborator failure so callers can apply the
// right recovery policy (halt, degrade, or isolate).
type FailureKind string

const (
	FailValidation  FailureKind = "validation"
	FailGeneration  FailureKind = "generation"
	FailReview      FailureKind = "review"
	FailUpload      FailureKind = "upload"
	FailPersistence FailureKind = "persistence"
	FailDraftStore  FailureKind = "draft_store"
)

// Failure is the error type returned at every collaborator boundary.
type Failure struct {
	Kind    FailureKind
	Message string
	Err     error
}

func (f *Failure) Error() string {
	if f.Err != nil {
		return fmt.Sprintf("%s: %s: %v", f.Kind, f.Message, f.Err)
	}
	return fmt.Sprintf("%s: %s", f.Kind, f.Message)
}

func (f *Failure) Unwrap() error { return f.Err }

// NewFailure builds a Failure without an underlying cause.
func NewFailure(kind FailureKind, message string) *Failure {
	return &Failure{Kind: kind, Message: message}
}

// WrapFailure builds a Failure around an underlying error.
func WrapFailure(kind FailureKind, message string, err error) *Failure {
	return &Failure{Kind: kind, Message: message, Err: err}
}

// FailureOf extracts the Failure from err, if any.
func FailureOf(err error) (*Failure, bool) {
	var f *Failure
	if errors.As(err, &f) {
		return f, true
	}
	return nil, false
}

// ValidationError blocks a wizard step transition. It is always user-visible
// and never fatal.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	if e.Field != "" {
		return fmt.Sprintf("%s: %s", e.Field, e.Message)
	}
	return e.Message
}

// IsValidation reports whether err is a step-blocking validation error.
func IsValidation(err error) bool {
	var v *ValidationError
	return errors.As(err, &v)
}
