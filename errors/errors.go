package errors

import (
	"encoding/json"
	stderrors "errors"
	"fmt"
	"net/http"
)

// Kind classifies an application error so callers can react to it without
// string matching.
type Kind string

const (
	KindConfiguration    Kind = "ConfigurationError"
	KindInvalidRequest   Kind = "InvalidRequest"
	KindInvalidSignature Kind = "InvalidSignature"
	KindUpstream         Kind = "UpstreamError"
)

// Error represents an application error
type Error struct {
	Kind    Kind   `json:"kind"`
	Code    int    `json:"code"`
	Message string `json:"message"`
	Err     error  `json:"-"`
}

// Error implements the error interface
func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

// Unwrap returns the wrapped error
func (e *Error) Unwrap() error {
	return e.Err
}

// JSON returns the error as a JSON string
func (e *Error) JSON() string {
	b, _ := json.Marshal(e)
	return string(b)
}

// New creates a new Error. The HTTP code is derived from the kind.
func New(kind Kind, message string, err error) *Error {
	return &Error{
		Kind:    kind,
		Code:    StatusFor(kind),
		Message: message,
		Err:     err,
	}
}

func Configuration(message string) *Error {
	return New(KindConfiguration, message, nil)
}

func InvalidRequest(message string) *Error {
	return New(KindInvalidRequest, message, nil)
}

func InvalidSignature(message string, err error) *Error {
	return New(KindInvalidSignature, message, err)
}

func Upstream(message string, err error) *Error {
	return New(KindUpstream, message, err)
}

// StatusFor maps an error kind to the HTTP status returned to callers.
func StatusFor(kind Kind) int {
	switch kind {
	case KindInvalidRequest, KindInvalidSignature:
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

// KindOf returns the kind of the first *Error in err's chain, or
// KindUpstream when err carries no kind.
func KindOf(err error) Kind {
	var appErr *Error
	if stderrors.As(err, &appErr) {
		return appErr.Kind
	}
	return KindUpstream
}

// As reports whether err's chain contains an *Error and returns it.
func As(err error) (*Error, bool) {
	var appErr *Error
	ok := stderrors.As(err, &appErr)
	return appErr, ok
}

func IsConfiguration(err error) bool {
	return err != nil && KindOf(err) == KindConfiguration
}

func IsInvalidRequest(err error) bool {
	return err != nil && KindOf(err) == KindInvalidRequest
}

func IsInvalidSignature(err error) bool {
	return err != nil && KindOf(err) == KindInvalidSignature
}

func IsUpstream(err error) bool {
	return err != nil && KindOf(err) == KindUpstream
}
