// Package kerr defines the error-kind taxonomy shared by graph validation
// and scheduler execution. Kite has no exception hierarchy to translate, so
// kinds are a plain string-backed type compared with errors.Is/errors.As,
// the conventional Go substitute for a tagged error enum.
package kerr

import (
	"errors"
	"fmt"
)

// Kind tags a KiteError with one of the taxonomy entries from the spec's
// error handling design.
type Kind string

const (
	UnknownSegment  Kind = "UnknownSegment"
	EmptyParallel   Kind = "EmptyParallel"
	SelfDependency  Kind = "SelfDependency"
	Cycle           Kind = "Cycle"
	MissingArtifact Kind = "MissingArtifact"
	MissingInput    Kind = "MissingInput"
	MissingOutput   Kind = "MissingOutput"
	Timeout         Kind = "Timeout"
	Cancelled       Kind = "Cancelled"
	BodyFailure     Kind = "BodyFailure"
	HookFailure     Kind = "HookFailure"
	MissingEnv      Kind = "MissingEnv"
)

// KiteError carries a Kind alongside the usual error message/wrapped cause.
type KiteError struct {
	Kind    Kind
	Message string
	Cause   error
}

func (e *KiteError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

func (e *KiteError) Unwrap() error {
	return e.Cause
}

// New builds a KiteError with no wrapped cause.
func New(kind Kind, format string, args ...any) *KiteError {
	return &KiteError{Kind: kind, Message: fmt.Sprintf(format, args...)}
}

// Wrap builds a KiteError that wraps cause.
func Wrap(kind Kind, cause error, format string, args ...any) *KiteError {
	return &KiteError{Kind: kind, Message: fmt.Sprintf(format, args...), Cause: cause}
}

// Is reports whether err, or any error it wraps, is a *KiteError with the
// given kind.
func Is(err error, kind Kind) bool {
	var ke *KiteError
	if !errors.As(err, &ke) {
		return false
	}
	return ke.Kind == kind
}

// KindOf returns the Kind of err, unwrapping as needed, if err or any error
// it wraps is a *KiteError, and ok=false otherwise.
func KindOf(err error) (Kind, bool) {
	var ke *KiteError
	if !errors.As(err, &ke) {
		return "", false
	}
	return ke.Kind, true
}
