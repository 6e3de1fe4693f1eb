package entity

import (
	"github.com/google/uuid"
)

type BookingStatus string

const (
	BookingStatusConfirmed BookingStatus = "confirmed"
	BookingStatusCancelled BookingStatus = "cancelled"
)

// Booking is created only by hold confirmation and is immutable afterwards
// except for Status, which downstream processes may flip to cancelled.
// A cancelled booking never releases its seats through this engine.
type Booking struct {
	BaseNoDelete
	BookingRef  string        `db:"booking_ref"`
	HoldID      uuid.UUID     `db:"hold_id"`
	UserID      uuid.UUID     `db:"user_id"`
	ScheduleID  uuid.UUID     `db:"schedule_id"`
	TotalSeats  int           `db:"total_seats"`
	TotalAmount float64       `db:"total_amount"`
	Status      BookingStatus `db:"status"`
}
