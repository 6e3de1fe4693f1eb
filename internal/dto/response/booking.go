package response

import (
	"time"

	"transit-booking/internal/data/entity"
)

type BookingResponse struct {
	ID          string               `json:"id"`
	BookingRef  string               `json:"booking_ref"`
	HoldID      string               `json:"hold_id"`
	UserID      string               `json:"user_id"`
	ScheduleID  string               `json:"schedule_id"`
	TotalSeats  int                  `json:"total_seats"`
	TotalAmount float64              `json:"total_amount"`
	Status      entity.BookingStatus `json:"status"`
	SeatNumbers []string             `json:"seat_numbers,omitempty"`
	CreatedAt   time.Time            `json:"created_at"`
}

func BookingToResponse(booking *entity.Booking, seatNumbers []string) BookingResponse {
	return BookingResponse{
		ID:          booking.ID.String(),
		BookingRef:  booking.BookingRef,
		HoldID:      booking.HoldID.String(),
		UserID:      booking.UserID.String(),
		ScheduleID:  booking.ScheduleID.String(),
		TotalSeats:  booking.TotalSeats,
		TotalAmount: booking.TotalAmount,
		Status:      booking.Status,
		SeatNumbers: seatNumbers,
		CreatedAt:   booking.CreatedAt,
	}
}
