package remote

import (
	"errors"
	"fmt"
	"net/http"
)

// Transport failure kinds. Every error returned by Client matches exactly one of them.
var (
	// ErrNetworkFailure covers transport errors, timeouts, cancelled contexts,
	// undecodable responses and an open circuit
	ErrNetworkFailure = errors.New("network failure")

	// ErrServerRejected is matched by every *ServerError
	ErrServerRejected = errors.New("server rejected request")
)

// Status-specific rejections; a *ServerError with the matching status also matches ErrServerRejected
var (
	ErrBadRequest   = errors.New("bad request")
	ErrUnauthorized = errors.New("unauthorized")
	ErrForbidden    = errors.New("forbidden")
	ErrNotFound     = errors.New("not found")
	ErrConflict     = errors.New("conflict")
	ErrRateLimited  = errors.New("rate limited")
)

// ErrCircuitOpen is returned without a request while an endpoint group is failing
var ErrCircuitOpen = fmt.Errorf("%w: circuit open", ErrNetworkFailure)

// ServerError is a non-2xx response decoded from the {"error","message"} envelope
type ServerError struct {
	Type       string
	Message    string
	StatusCode int
}

func (e *ServerError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("server rejected request (%d %s)", e.StatusCode, e.Type)
	}
	return fmt.Sprintf("server rejected request (%d %s): %s", e.StatusCode, e.Type, e.Message)
}

// Is matches ErrServerRejected and the sentinel for the response status
func (e *ServerError) Is(target error) bool {
	if target == ErrServerRejected {
		return true
	}
	sentinel := statusSentinel(e.StatusCode)
	return sentinel != nil && target == sentinel
}

func statusSentinel(status int) error {
	switch status {
	case http.StatusBadRequest:
		return ErrBadRequest
	case http.StatusUnauthorized:
		return ErrUnauthorized
	case http.StatusForbidden:
		return ErrForbidden
	case http.StatusNotFound:
		return ErrNotFound
	case http.StatusConflict:
		return ErrConflict
	case http.StatusTooManyRequests:
		return ErrRateLimited
	}
	return nil
}

// IsTransient reports whether err is a network or server failure, the kinds
// that are surfaced to the user rather than handled silently
func IsTransient(err error) bool {
	return errors.Is(err, ErrNetworkFailure) || errors.Is(err, ErrServerRejected)
}

// Message returns the text shown to users for err
func Message(err error) string {
	var srvErr *ServerError
	if errors.As(err, &srvErr) && srvErr.Message != "" {
		return srvErr.Message
	}
	if errors.Is(err, ErrNetworkFailure) {
		return "Could not reach the server. Please try again."
	}
	return err.Error()
}
