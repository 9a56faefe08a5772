// Package failure defines the fatal error taxonomy of the reflectance
// pipeline. Every stage reports failures as *Error values tagged with a Kind
// so callers can branch with errors.As or IsKind. None of them are retried.
package failure

import (
	"errors"
	"fmt"
	"time"
)

// Kind identifies the class of a pipeline failure.
type Kind string

const (
	KindInputResolution      Kind = "InputResolutionError"
	KindStagingIO            Kind = "StagingIOError"
	KindHeaderParse          Kind = "HeaderParseError"
	KindSurfaceModel         Kind = "SurfaceModelError"
	KindCorrectionProcess    Kind = "CorrectionProcessError"
	KindCorrectionTimeout    Kind = "CorrectionTimeoutError"
	KindOutputMissing        Kind = "OutputMissingError"
	KindQuicklookRender      Kind = "QuicklookRenderError"
	KindSourceDatasetMissing Kind = "SourceDatasetMissingError"
	KindCatalogSerialization Kind = "CatalogSerializationError"
)

// Error is a fatal stage failure. Stage and Path give enough context to
// reproduce the failure; Err is the underlying cause and may be nil.
type Error struct {
	Kind    Kind
	Stage   string
	Path    string
	Message string
	Err     error
}

func (e *Error) Error() string {
	msg := string(e.Kind)
	if e.Stage != "" {
		msg = e.Stage + ": " + msg
	}
	if e.Message != "" {
		msg += ": " + e.Message
	}
	if e.Path != "" {
		msg += fmt.Sprintf(" (path=%s)", e.Path)
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *Error) Unwrap() error {
	return e.Err
}

// New creates a failure without an underlying cause.
func New(kind Kind, stage, path, message string) *Error {
	return &Error{Kind: kind, Stage: stage, Path: path, Message: message}
}

// Wrap creates a failure around cause. A nil cause still yields a failure.
func Wrap(kind Kind, stage, path string, cause error, message string) *Error {
	return &Error{Kind: kind, Stage: stage, Path: path, Message: message, Err: cause}
}

// KindOf returns the Kind of the first *Error in err's chain, or "" if none.
func KindOf(err error) Kind {
	var fe *Error
	if errors.As(err, &fe) {
		return fe.Kind
	}
	var pe *ProcessError
	if errors.As(err, &pe) {
		return KindCorrectionProcess
	}
	var te *TimeoutError
	if errors.As(err, &te) {
		return KindCorrectionTimeout
	}
	return ""
}

// IsKind reports whether err (or any error in its chain) has the given Kind.
func IsKind(err error, kind Kind) bool {
	if err == nil {
		return false
	}
	return KindOf(err) == kind
}

// ProcessError reports a correction process that exited nonzero.
type ProcessError struct {
	ExitCode   int
	StderrTail string
	Duration   time.Duration
	Err        error
}

func (e *ProcessError) Error() string {
	msg := fmt.Sprintf("correction: %s: exit code %d after %s", KindCorrectionProcess, e.ExitCode, e.Duration.Round(time.Millisecond))
	if e.StderrTail != "" {
		msg += ": " + e.StderrTail
	}
	return msg
}

func (e *ProcessError) Unwrap() error {
	return e.Err
}

// TimeoutError reports a correction process killed after its deadline.
type TimeoutError struct {
	Timeout  time.Duration
	Duration time.Duration
	Err      error
}

func (e *TimeoutError) Error() string {
	return fmt.Sprintf("correction: %s: exceeded %s (ran %s)", KindCorrectionTimeout, e.Timeout, e.Duration.Round(time.Millisecond))
}

func (e *TimeoutError) Unwrap() error {
	return e.Err
}
