package entity

import (
	"time"

	"github.com/google/uuid"
)

type SeatSlotStatus string

const (
	SeatSlotAvailable SeatSlotStatus = "available"
	SeatSlotHeld      SeatSlotStatus = "held"
	SeatSlotBooked    SeatSlotStatus = "booked"
)

// SeatSlot is the per-schedule, per-seat inventory row. It is the unit of
// contention: every state change is a single conditional UPDATE against this
// row, so two callers can never both win the same seat.
//
// HoldID, HeldBy and HoldExpiresAt are set only while Status is "held".
// BookingID is set only when Status is "booked" and never cleared afterwards.
type SeatSlot struct {
	BaseNoDelete
	ScheduleID    uuid.UUID      `db:"schedule_id"`
	SeatID        uuid.UUID      `db:"seat_id"`
	Status        SeatSlotStatus `db:"status"`
	HoldID        *uuid.UUID     `db:"hold_id"`
	HeldBy        *uuid.UUID     `db:"held_by"`
	HoldExpiresAt *time.Time     `db:"hold_expires_at"`
	BookingID     *uuid.UUID     `db:"booking_id"`
}

// HoldExpired reports whether the slot is held and its hold has passed its
// expiry. An expired held slot is treated as available by the hold path.
func (s *SeatSlot) HoldExpired(now time.Time) bool {
	return s.Status == SeatSlotHeld && s.HoldExpiresAt != nil && !s.HoldExpiresAt.After(now)
}
