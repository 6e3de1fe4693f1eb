package adaptor

import (
	"errors"
	"net/http"

	"transit-booking/internal/data/repository"
	"transit-booking/internal/usecase"
	"transit-booking/pkg/utils"

	"go.uber.org/zap"
)

type Handler struct {
	Reservation *ReservationHandler
	Payment     *PaymentHandler
	Schedule    *ScheduleHandler
}

func NewHandler(service *usecase.Service, log *zap.Logger) *Handler {
	return &Handler{
		Reservation: NewReservationHandler(service.Reservation, log),
		Payment:     NewPaymentHandler(service.Finalizer, log),
		Schedule:    NewScheduleHandler(service.Schedule, log),
	}
}

// writeServiceError maps the service error taxonomy onto HTTP statuses.
// A blocked hold gets 409 with the exact blocked seats in the payload so
// the client can offer alternatives.
func writeServiceError(w http.ResponseWriter, log *zap.Logger, err error, operation string) {
	var unavailable *repository.SeatsUnavailableError
	if errors.As(err, &unavailable) {
		seatIDs := make([]string, len(unavailable.SeatIDs))
		for i, id := range unavailable.SeatIDs {
			seatIDs[i] = id.String()
		}
		log.Info(operation+" rejected, seats unavailable",
			zap.String("schedule_id", unavailable.ScheduleID.String()),
			zap.Int("blocked", len(seatIDs)),
		)
		utils.ResponseConflict(w, "Seats unavailable", map[string]any{
			"schedule_id": unavailable.ScheduleID.String(),
			"seat_ids":    seatIDs,
		})
		return
	}

	switch {
	case errors.Is(err, repository.ErrScheduleNotFound),
		errors.Is(err, repository.ErrHoldNotFound),
		errors.Is(err, repository.ErrBookingNotFound),
		errors.Is(err, repository.ErrRouteNotFound),
		errors.Is(err, repository.ErrVehicleNotFound):
		log.Warn(operation+" failed, not found", zap.Error(err))
		utils.ResponseNotFound(w, err.Error())

	case errors.Is(err, repository.ErrInvalidSeatSet),
		errors.Is(err, repository.ErrInvalidInput):
		log.Warn(operation+" failed, invalid input", zap.Error(err))
		utils.ResponseBadRequest(w, err.Error(), nil)

	case errors.Is(err, repository.ErrHoldExpired):
		log.Info(operation+" failed, hold expired", zap.Error(err))
		utils.ResponseGone(w, err.Error())

	case errors.Is(err, repository.ErrSeatStateConflict):
		log.Warn(operation+" failed, state conflict", zap.Error(err))
		utils.ResponseConflict(w, err.Error(), nil)

	case errors.Is(err, repository.ErrForbidden):
		log.Warn(operation+" failed, forbidden", zap.Error(err))
		utils.ResponseForbidden(w, err.Error())

	default:
		log.Error("Failed to "+operation, zap.Error(err))
		utils.ResponseInternalError(w, "Internal server error")
	}
}
