package domain

import (
	"errors"
	"fmt"
)

var (
	errReservationNotFound = errors.New("Reservation not found")
	errRoomNotFound        = errors.New("Room not found")
)

func ErrReservationNotFound() error {
	return errReservationNotFound
}

func ErrRoomNotFound() error {
	return errRoomNotFound
}

// ParseError marks malformed date or time input. Local, non-retryable.
type ParseError struct {
	Input   string
	Message string
}

func (e ParseError) Error() string {
	return fmt.Sprintf("cannot parse %q: %s", e.Input, e.Message)
}

// RangeError marks structurally valid input whose values fall outside the
// allowed range (hour, minute, calendar day).
type RangeError struct {
	Field string
	Value int
}

func (e RangeError) Error() string {
	return fmt.Sprintf("%s out of range: %d", e.Field, e.Value)
}

// NotFoundError marks an unknown room or reservation. Not the same thing as
// "unavailable".
type NotFoundError struct {
	Kind string
	ID   string
}

func (e NotFoundError) Error() string {
	return fmt.Sprintf("%s %s not found", e.Kind, e.ID)
}

// TransportError wraps a failed remote call. The caller may retry; the
// coordination layer never does on its own.
type TransportError struct {
	Err error
}

func (e TransportError) Error() string {
	return "remote call failed: " + e.Err.Error()
}

func (e TransportError) Unwrap() error {
	return e.Err
}

// UnknownStatusError indicates a status value outside the enumerated set,
// which means a data or version mismatch. Should never occur in correct
// operation and is logged loudly when it does.
type UnknownStatusError struct {
	Status string
}

func (e UnknownStatusError) Error() string {
	return fmt.Sprintf("unknown reservation status %q", e.Status)
}

// TransitionError rejects an illegal lifecycle transition with a diagnostic
// a person can read.
type TransitionError struct {
	From   string
	Action string
	Reason string
}

func (e TransitionError) Error() string {
	if e.Reason != "" {
		return fmt.Sprintf("cannot %s a %s reservation: %s", e.Action, e.From, e.Reason)
	}
	return fmt.Sprintf("cannot %s a %s reservation", e.Action, e.From)
}

func IsNotFound(err error) bool {
	var nf NotFoundError
	return errors.As(err, &nf)
}

func IsTransport(err error) bool {
	var te TransportError
	return errors.As(err, &te)
}
