package recovery

import (
	"errors"
	"fmt"
)

// ErrInFlight is returned when a submission arrives while a request is already in flight.
var ErrInFlight = errors.New("recovery request already in flight")

// ValidationReason enumerates client-side validation failures.
type ValidationReason string

const (
	ReasonEmpty          ValidationReason = "empty"
	ReasonMalformedEmail ValidationReason = "malformed_email"
)

// ValidationError is raised before any request is sent.
type ValidationError struct {
	Reason ValidationReason
}

func (e *ValidationError) Error() string {
	switch e.Reason {
	case ReasonEmpty:
		return "Please enter your email address"
	case ReasonMalformedEmail:
		return "Please enter a valid email address"
	default:
		return fmt.Sprintf("invalid email: %s", e.Reason)
	}
}

// RejectedError is a service-level failure: the service answered but refused the request.
type RejectedError struct {
	Message string
}

func (e *RejectedError) Error() string {
	return e.Message
}

// TransportError covers every failure to complete the HTTP exchange.
// Message is the human-readable text surfaced by the service, if any.
type TransportError struct {
	Message string
	Status  int
	Err     error
}

func (e *TransportError) Error() string {
	switch {
	case e.Err != nil && e.Message != "":
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	case e.Err != nil:
		return e.Err.Error()
	case e.Message != "":
		return e.Message
	case e.Status != 0:
		return fmt.Sprintf("unexpected status %d", e.Status)
	default:
		return "transport failure"
	}
}

func (e *TransportError) Unwrap() error {
	return e.Err
}
