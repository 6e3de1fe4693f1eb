package response

import (
	"time"

	"transit-booking/internal/data/entity"
)

type HoldResponse struct {
	HoldID     string    `json:"hold_id"`
	ScheduleID string    `json:"schedule_id"`
	UserID     string    `json:"user_id"`
	SeatIDs    []string  `json:"seat_ids"`
	ExpiresAt  time.Time `json:"expires_at"`
	CreatedAt  time.Time `json:"created_at"`
}

type SeatSlotResponse struct {
	SeatID        string                `json:"seat_id"`
	SeatNumber    string                `json:"seat_number,omitempty"`
	Status        entity.SeatSlotStatus `json:"status"`
	HoldExpiresAt *time.Time            `json:"hold_expires_at,omitempty"`
}

type SeatMapResponse struct {
	ScheduleID string             `json:"schedule_id"`
	Seats      []SeatSlotResponse `json:"seats"`
}
