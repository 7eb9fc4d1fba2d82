package api

import (
	"errors"
	"fmt"
	"net/http"
)

// DefaultErrorMessage is shown when a failure carries no usable message.
const DefaultErrorMessage = "Something went wrong!"

// Common API errors. An *Error unwraps to one of these so callers can match
// with errors.Is.
var (
	// ErrNotFound is returned when a book or route does not exist.
	ErrNotFound = errors.New("not found")
	// ErrBadRequest is returned for rejected payloads (400, 422).
	ErrBadRequest = errors.New("bad request")
	// ErrServer is returned for 5xx responses.
	ErrServer = errors.New("server error")
	// ErrTransport is returned when no response was received.
	ErrTransport = errors.New("transport failure")
)

// Payload is the decoded body of a failed response.
type Payload struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
}

// Error is a failed API call. Status is 0 when the request never got a
// response; Payload is nil when the body was empty or not JSON.
type Error struct {
	Method  string
	Path    string
	Status  int
	Message string
	Payload *Payload
	Err     error
}

func (e *Error) Error() string {
	msg := e.Message
	if e.Payload != nil && e.Payload.Message != "" {
		msg = e.Payload.Message
	}
	if e.Status == 0 {
		return fmt.Sprintf("%s %s: %s", e.Method, e.Path, msg)
	}
	return fmt.Sprintf("%s %s: %d %s: %s", e.Method, e.Path, e.Status, http.StatusText(e.Status), msg)
}

// Unwrap exposes both the status sentinel and the underlying cause.
func (e *Error) Unwrap() []error {
	var out []error
	if s := sentinel(e.Status); s != nil {
		out = append(out, s)
	}
	if e.Err != nil {
		out = append(out, e.Err)
	}
	return out
}

func sentinel(status int) error {
	switch {
	case status == 0:
		return ErrTransport
	case status == http.StatusNotFound:
		return ErrNotFound
	case status == http.StatusBadRequest, status == http.StatusUnprocessableEntity:
		return ErrBadRequest
	case status >= 500:
		return ErrServer
	}
	return nil
}

// Message extracts the user-facing message of err. The payload message wins
// over the top-level message; fallback is used when neither is set. An error
// response without a JSON body has no message of its own, so it gets the
// fallback rather than the bare HTTP status text.
func Message(err error, fallback string) string {
	if fallback == "" {
		fallback = DefaultErrorMessage
	}
	if err == nil {
		return fallback
	}
	var apiErr *Error
	if errors.As(err, &apiErr) {
		if apiErr.Payload != nil && apiErr.Payload.Message != "" {
			return apiErr.Payload.Message
		}
		if apiErr.Payload == nil && apiErr.Status >= 300 {
			return fallback
		}
		if apiErr.Message != "" {
			return apiErr.Message
		}
		return fallback
	}
	if msg := err.Error(); msg != "" {
		return msg
	}
	return fallback
}
