package wire

import (
	"transit-booking/internal/adaptor"
	"transit-booking/pkg/identity"
	"transit-booking/pkg/middleware"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

func wireSchedule(
	r chi.Router,
	scheduleHandler *adaptor.ScheduleHandler,
	reservationHandler *adaptor.ReservationHandler,
	verifier identity.Verifier,
	log *zap.Logger,
) {
	// Public browse routes.
	// GET /api/schedules - List active schedules
	r.Get("/api/schedules", scheduleHandler.ListSchedules)

	// GET /api/schedules/{id} - Schedule details with availability
	r.Get("/api/schedules/{id}", scheduleHandler.GetSchedule)

	// GET /api/schedules/{id}/seats - Seat map with per-seat status
	r.Get("/api/schedules/{id}/seats", reservationHandler.GetSeatMap)

	// Admin schedule management.
	r.Route("/api/admin/schedules", func(r chi.Router) {
		r.Use(middleware.Auth(verifier, log))
		r.Use(middleware.Admin(log))

		// POST /api/admin/schedules - Create schedule and provision seats
		r.Post("/", scheduleHandler.CreateSchedule)
	})
}
