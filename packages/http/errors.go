package http

import (
	"errors"
	"fmt"
)

// ErrorKind classifies an Error by the stage that produced it.
type ErrorKind int

const (
	KindClient ErrorKind = iota + 1
	KindMethod
	KindBinaryData
	KindTransport
	KindBodyRead
)

// Error is the failure half of a request execution. Status is set only when
// the failure happened after a response was received.
type Error struct {
	Message string `json:"error"`
	Status  *int   `json:"status,omitempty"`
	kind    ErrorKind
	cause   error
}

func (e *Error) Error() string {
	return e.Message
}

func (e *Error) Unwrap() error {
	return e.cause
}

func (e *Error) Kind() ErrorKind {
	return e.kind
}

// HasStatus reports whether a response status is attached.
func (e *Error) HasStatus() bool {
	return e.Status != nil
}

// IsTransportError reports whether err is an *Error raised while sending.
func IsTransportError(err error) bool {
	var e *Error
	return errors.As(err, &e) && e.kind == KindTransport
}

func newError(kind ErrorKind, cause error, format string, args ...any) *Error {
	return &Error{Message: fmt.Sprintf(format, args...), kind: kind, cause: cause}
}

func clientCreateFailed(err error) *Error {
	return newError(KindClient, err, "Failed to create HTTP client: %v", err)
}

func invalidMethod(method string) *Error {
	return newError(KindMethod, nil, "Invalid HTTP method: %s", method)
}

func invalidBase64(err error) *Error {
	return newError(KindBinaryData, err, "Invalid base64 binary data: %v", err)
}

func requestFailed(err error) *Error {
	return newError(KindTransport, err, "Request failed: %v", err)
}

func bodyReadFailed(status int, err error) *Error {
	e := newError(KindBodyRead, err, "Failed to read response body: %v", err)
	e.Status = &status
	return e
}

// AsError returns err as an *Error. Foreign errors are wrapped with their
// message and no kind.
func AsError(err error) *Error {
	if err == nil {
		return nil
	}
	var e *Error
	if errors.As(err, &e) {
		return e
	}
	return &Error{Message: err.Error(), cause: err}
}
