package entity

import (
	"time"

	"github.com/google/uuid"
)

type HoldStatus string

const (
	HoldStatusActive    HoldStatus = "active"
	HoldStatusReleased  HoldStatus = "released"
	HoldStatusExpired   HoldStatus = "expired"
	HoldStatusConfirmed HoldStatus = "confirmed"
)

// Hold groups the seat slots claimed by one request under a shared expiry.
// The authoritative per-seat state lives on seat_slots; the hold row exists
// so that release, confirm and webhook redelivery can be keyed by one id.
type Hold struct {
	BaseNoDelete
	ScheduleID uuid.UUID  `db:"schedule_id"`
	UserID     uuid.UUID  `db:"user_id"`
	Status     HoldStatus `db:"status"`
	TotalSeats int        `db:"total_seats"`
	ExpiresAt  time.Time  `db:"expires_at"`
	BookingID  *uuid.UUID `db:"booking_id"`
}

// Expired reports whether the hold's TTL has passed.
func (h *Hold) Expired(now time.Time) bool {
	return !h.ExpiresAt.After(now)
}
