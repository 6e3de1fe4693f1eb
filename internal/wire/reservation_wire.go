package wire

import (
	"transit-booking/internal/adaptor"
	"transit-booking/pkg/identity"
	"transit-booking/pkg/middleware"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

func wireReservation(
	r chi.Router,
	reservationHandler *adaptor.ReservationHandler,
	verifier identity.Verifier,
	log *zap.Logger,
) {
	// Protected routes: hold lifecycle and booking history.
	r.Group(func(r chi.Router) {
		r.Use(middleware.Auth(verifier, log))

		// POST /api/reservations/hold - Place a hold on a seat set
		r.Post("/api/reservations/hold", reservationHandler.PlaceHold)

		// DELETE /api/reservations/hold/{id} - Release an active hold
		r.Delete("/api/reservations/hold/{id}", reservationHandler.ReleaseHold)

		// GET /api/user/bookings - Booking history for the caller
		r.Get("/api/user/bookings", reservationHandler.GetUserBookings)
	})
}
