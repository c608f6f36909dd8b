package accrue

import (
	"errors"
	"fmt"
	"net/http"
)

// Sentinel errors for common failure modes.
var (
	// ErrStreamClosed indicates an operation on a closed stream.
	ErrStreamClosed = errors.New("stream closed")

	// ErrIncomplete indicates the accumulator was asked for its message
	// before message_stop was applied.
	ErrIncomplete = errors.New("message incomplete: message_stop not received")
)

// TransportError is a connection or IO failure below the protocol layer,
// including context cancellation and a stream that ended before
// message_stop (Err is io.ErrUnexpectedEOF).
type TransportError struct {
	Err error
}

func (e *TransportError) Error() string { return "transport: " + e.Err.Error() }

func (e *TransportError) Unwrap() error { return e.Err }

// ProtocolError is malformed server-sent-event framing or a payload that is
// not valid UTF-8.
type ProtocolError struct {
	Reason string
	Err    error
}

func (e *ProtocolError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("protocol: %s: %v", e.Reason, e.Err)
	}
	return "protocol: " + e.Reason
}

func (e *ProtocolError) Unwrap() error { return e.Err }

// ClassificationError is a payload that is valid JSON but does not have the
// shape its declared event type requires. Payload is the raw frame data.
type ClassificationError struct {
	EventType string
	Payload   string
	Err       error
}

func (e *ClassificationError) Error() string {
	return fmt.Sprintf("classify %s: %v", e.EventType, e.Err)
}

func (e *ClassificationError) Unwrap() error { return e.Err }

// ErrorKind is the API's error type string.
type ErrorKind string

const (
	ErrorInvalidRequest  ErrorKind = "invalid_request_error"
	ErrorAuthentication  ErrorKind = "authentication_error"
	ErrorPermission      ErrorKind = "permission_error"
	ErrorNotFound        ErrorKind = "not_found_error"
	ErrorRequestTooLarge ErrorKind = "request_too_large"
	ErrorRateLimit       ErrorKind = "rate_limit_error"
	ErrorAPI             ErrorKind = "api_error"
	ErrorOverloaded      ErrorKind = "overloaded_error"
)

// ServerError is an error reported by the API, either as an error event in
// the stream or as a non-200 response. Status is the HTTP status when the
// error came from a response, zero for stream events.
type ServerError struct {
	Kind    ErrorKind
	Message string
	Status  int
}

func (e *ServerError) Error() string {
	return fmt.Sprintf("%s (%d): %s", e.Kind, e.HTTPStatus(), e.Message)
}

// Retryable reports whether the error only signals transient server load.
func (e *ServerError) Retryable() bool {
	return e.Kind == ErrorRateLimit || e.Kind == ErrorOverloaded
}

// HTTPStatus returns the status code the API associates with the error kind.
// For kinds this package does not know it returns Status, or 500 if unset.
func (e *ServerError) HTTPStatus() int {
	switch e.Kind {
	case ErrorInvalidRequest:
		return http.StatusBadRequest
	case ErrorAuthentication:
		return http.StatusUnauthorized
	case ErrorPermission:
		return http.StatusForbidden
	case ErrorNotFound:
		return http.StatusNotFound
	case ErrorRequestTooLarge:
		return http.StatusRequestEntityTooLarge
	case ErrorRateLimit:
		return http.StatusTooManyRequests
	case ErrorAPI:
		return http.StatusInternalServerError
	case ErrorOverloaded:
		return 529
	}
	if e.Status != 0 {
		return e.Status
	}
	return http.StatusInternalServerError
}

// ProtocolViolation is an event that arrived in a state the event ordering
// contract does not allow, such as a delta for a block that is not open.
type ProtocolViolation struct {
	Event  Event
	Reason string
}

func (e *ProtocolViolation) Error() string {
	return fmt.Sprintf("protocol violation: %s (event %T)", e.Reason, e.Event)
}

// DecodeError is accumulated tool input that is not valid JSON at
// content_block_stop.
type DecodeError struct {
	Index int
	Input string
	Err   error
}

func (e *DecodeError) Error() string {
	return fmt.Sprintf("decode tool input for block %d: %v", e.Index, e.Err)
}

func (e *DecodeError) Unwrap() error { return e.Err }
