package repository

import (
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
)

// Sentinel errors shared across repositories and services. Handlers use
// errors.Is / errors.As on these to pick the HTTP status, so services must
// wrap them with %w rather than rephrasing.

// ErrScheduleNotFound is returned when the requested schedule does not exist
// or is inactive.
var ErrScheduleNotFound = errors.New("schedule not found")

// ErrHoldNotFound is returned when the requested hold id is unknown.
var ErrHoldNotFound = errors.New("hold not found")

// ErrRouteNotFound is returned when the referenced route does not exist.
var ErrRouteNotFound = errors.New("route not found")

// ErrVehicleNotFound is returned when the referenced vehicle does not exist.
var ErrVehicleNotFound = errors.New("vehicle not found")

// ErrInvalidInput is returned for malformed request data that passes schema
// validation but fails a semantic check, such as an arrival before departure.
var ErrInvalidInput = errors.New("invalid input")

// ErrBookingNotFound is returned when the requested booking does not exist.
var ErrBookingNotFound = errors.New("booking not found")

// ErrInvalidSeatSet is returned when a hold request names no seats, repeats
// a seat, or names seats that do not belong to the schedule's vehicle.
var ErrInvalidSeatSet = errors.New("invalid seat set")

// ErrHoldExpired is returned when a confirm arrives after the hold's TTL.
// The caller must restart seat selection; funds must not be captured.
var ErrHoldExpired = errors.New("hold expired")

// ErrSeatStateConflict is returned when a conditional write finds a seat in
// a state the invariants say it cannot be in (e.g. a confirm racing into a
// booked row). It is surfaced, never swallowed.
var ErrSeatStateConflict = errors.New("seat state conflict")

// ErrForbidden is returned when the caller attempts an operation on a
// resource they do not own, such as releasing another user's hold.
var ErrForbidden = errors.New("forbidden")

// SeatsUnavailableError reports a failed hold attempt together with the
// exact seats that blocked it, so the UI can offer alternatives.
type SeatsUnavailableError struct {
	ScheduleID uuid.UUID
	SeatIDs    []uuid.UUID
}

func (e *SeatsUnavailableError) Error() string {
	ids := make([]string, len(e.SeatIDs))
	for i, id := range e.SeatIDs {
		ids[i] = id.String()
	}
	return fmt.Sprintf("seats unavailable on schedule %s: %s", e.ScheduleID, strings.Join(ids, ", "))
}
