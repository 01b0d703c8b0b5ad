package connection

import (
	"errors"
	"net/http"
)

// ErrSessionExpired is returned when the server rejects the credential.
// The credential has already been cleared when a caller sees it.
var ErrSessionExpired = errors.New("session expired")

// ErrNoCredential is returned by Manager.Login for an empty credential.
var ErrNoCredential = errors.New("no credential")

// RequestError is a non-2xx response other than a session expiry.
type RequestError struct {
	StatusCode int
	// Message is the response body text, or the status text when the body
	// is empty.
	Message string
	// Body is the raw response body text.
	Body string
}

func (e *RequestError) Error() string {
	return e.Message
}

// newRequestError builds a RequestError from a response status and body.
func newRequestError(code int, body []byte) *RequestError {
	msg := string(body)
	if msg == "" {
		msg = http.StatusText(code)
	}
	return &RequestError{StatusCode: code, Message: msg, Body: string(body)}
}

// IsStatus reports whether err is a RequestError with the given status.
func IsStatus(err error, code int) bool {
	var re *RequestError
	return errors.As(err, &re) && re.StatusCode == code
}

// MalformedResponseError is a 2xx response whose body is not valid JSON
// (or does not fit the expected shape).
type MalformedResponseError struct {
	Err error
}

func (e *MalformedResponseError) Error() string {
	return "malformed response: " + e.Err.Error()
}

func (e *MalformedResponseError) Unwrap() error {
	return e.Err
}
