package adaptor

import (
	"encoding/json"
	"net/http"

	"transit-booking/internal/dto/request"
	"transit-booking/internal/usecase"
	"transit-booking/pkg/utils"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

type ReservationHandler struct {
	service usecase.ReservationService
	log     *zap.Logger
}

func NewReservationHandler(service usecase.ReservationService, log *zap.Logger) *ReservationHandler {
	return &ReservationHandler{
		service: service,
		log:     log.With(zap.String("handler", "reservation")),
	}
}

// PlaceHold handles POST /api/reservations/hold (protected)
func (h *ReservationHandler) PlaceHold(w http.ResponseWriter, r *http.Request) {
	userID, ok := utils.GetUserIDFromContext(r.Context())
	if !ok {
		utils.ResponseUnauthorized(w, "Authentication required")
		return
	}

	var req request.PlaceHoldRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		utils.ResponseBadRequest(w, "Invalid request body", nil)
		return
	}

	if validationErrors := utils.ValidateStruct(req); len(validationErrors) > 0 {
		utils.ResponseBadRequest(w, "Validation failed", validationErrors)
		return
	}

	hold, err := h.service.PlaceHold(r.Context(), userID.String(), &req)
	if err != nil {
		writeServiceError(w, h.log, err, "place hold")
		return
	}

	utils.ResponseCreated(w, "success", hold)
}

// ReleaseHold handles DELETE /api/reservations/hold/{id} (protected)
func (h *ReservationHandler) ReleaseHold(w http.ResponseWriter, r *http.Request) {
	userID, ok := utils.GetUserIDFromContext(r.Context())
	if !ok {
		utils.ResponseUnauthorized(w, "Authentication required")
		return
	}

	holdID := chi.URLParam(r, "id")
	if holdID == "" {
		utils.ResponseBadRequest(w, "Hold ID is required", nil)
		return
	}

	if err := h.service.ReleaseHold(r.Context(), userID.String(), holdID); err != nil {
		writeServiceError(w, h.log, err, "release hold")
		return
	}

	utils.ResponseSuccess(w, "success", nil)
}

// GetSeatMap handles GET /api/schedules/{id}/seats (public)
func (h *ReservationHandler) GetSeatMap(w http.ResponseWriter, r *http.Request) {
	scheduleID := chi.URLParam(r, "id")
	if scheduleID == "" {
		utils.ResponseBadRequest(w, "Schedule ID is required", nil)
		return
	}

	seatMap, err := h.service.GetSeatMap(r.Context(), scheduleID)
	if err != nil {
		writeServiceError(w, h.log, err, "get seat map")
		return
	}

	utils.ResponseSuccess(w, "success", seatMap)
}

// GetUserBookings handles GET /api/user/bookings (protected)
func (h *ReservationHandler) GetUserBookings(w http.ResponseWriter, r *http.Request) {
	userID, ok := utils.GetUserIDFromContext(r.Context())
	if !ok {
		utils.ResponseUnauthorized(w, "Authentication required")
		return
	}

	query := r.URL.Query()
	req := &request.PaginatedRequest{
		Page:    utils.ParseInt(query.Get("page"), 1),
		PerPage: utils.ParseInt(query.Get("per_page"), 10),
	}

	bookings, err := h.service.GetUserBookings(r.Context(), userID.String(), req)
	if err != nil {
		writeServiceError(w, h.log, err, "get user bookings")
		return
	}

	utils.ResponseSuccess(w, "success", bookings)
}
