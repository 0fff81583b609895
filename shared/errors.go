package shared

import (
	"errors"
	"fmt"
)

// ErrorKind classifies engine failures. Every kind is local and non-retryable.
type ErrorKind string

const (
	KindInvalidHTTPMessage ErrorKind = "invalid_http_message"
	KindInvalidEncoding    ErrorKind = "invalid_encoding"
	KindEncodingMismatch   ErrorKind = "encoding_mismatch"
	KindHeaderNotFound     ErrorKind = "header_not_found"
	KindInvalidPath        ErrorKind = "invalid_path"
	KindPathNotFound       ErrorKind = "path_not_found"
	KindNonStringValue     ErrorKind = "non_string_value"
	KindInvalidJSON        ErrorKind = "invalid_json"
	KindNoGivenParamInURL  ErrorKind = "no_given_param_in_url"
	KindOutOfBounds        ErrorKind = "out_of_bounds"
	KindInvalidRange       ErrorKind = "invalid_range"
	KindInvalidConfig      ErrorKind = "invalid_config"
)

// EngineError is the error type returned by every redaction component.
type EngineError struct {
	Kind    ErrorKind `json:"kind"`
	Message string    `json:"message"`
	Cause   error     `json:"cause,omitempty"`
}

// Error implements the error interface
func (e *EngineError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s (caused by: %v)", e.Kind, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

// Unwrap implements the error unwrapping interface
func (e *EngineError) Unwrap() error {
	return e.Cause
}

// Is matches any *EngineError of the same kind, so the Err* sentinels work
// with errors.Is.
func (e *EngineError) Is(target error) bool {
	var t *EngineError
	if !errors.As(target, &t) {
		return false
	}
	return t.Kind == e.Kind
}

// Sentinels for errors.Is checks.
var (
	ErrInvalidHTTPMessage = &EngineError{Kind: KindInvalidHTTPMessage}
	ErrInvalidEncoding    = &EngineError{Kind: KindInvalidEncoding}
	ErrEncodingMismatch   = &EngineError{Kind: KindEncodingMismatch}
	ErrHeaderNotFound     = &EngineError{Kind: KindHeaderNotFound}
	ErrInvalidPath        = &EngineError{Kind: KindInvalidPath}
	ErrPathNotFound       = &EngineError{Kind: KindPathNotFound}
	ErrNonStringValue     = &EngineError{Kind: KindNonStringValue}
	ErrInvalidJSON        = &EngineError{Kind: KindInvalidJSON}
	ErrNoGivenParamInURL  = &EngineError{Kind: KindNoGivenParamInURL}
	ErrOutOfBounds        = &EngineError{Kind: KindOutOfBounds}
	ErrInvalidRange       = &EngineError{Kind: KindInvalidRange}
	ErrInvalidConfig      = &EngineError{Kind: KindInvalidConfig}
)

// NewEngineError creates an error of the given kind with a formatted message.
func NewEngineError(kind ErrorKind, format string, args ...any) *EngineError {
	return &EngineError{
		Kind:    kind,
		Message: fmt.Sprintf(format, args...),
	}
}

// Wrap creates an error of the given kind that carries cause.
func Wrap(kind ErrorKind, cause error, format string, args ...any) *EngineError {
	return &EngineError{
		Kind:    kind,
		Message: fmt.Sprintf(format, args...),
		Cause:   cause,
	}
}

// KindOf returns the kind of the first EngineError in err's chain, or "" if
// there is none.
func KindOf(err error) ErrorKind {
	var e *EngineError
	if errors.As(err, &e) {
		return e.Kind
	}
	return ""
}
