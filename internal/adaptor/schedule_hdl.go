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

type ScheduleHandler struct {
	service usecase.ScheduleService
	log     *zap.Logger
}

func NewScheduleHandler(service usecase.ScheduleService, log *zap.Logger) *ScheduleHandler {
	return &ScheduleHandler{
		service: service,
		log:     log.With(zap.String("handler", "schedule")),
	}
}

// CreateSchedule handles POST /api/admin/schedules (admin only)
func (h *ScheduleHandler) CreateSchedule(w http.ResponseWriter, r *http.Request) {
	var req request.CreateScheduleRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		utils.ResponseBadRequest(w, "Invalid request body", nil)
		return
	}

	if validationErrors := utils.ValidateStruct(req); len(validationErrors) > 0 {
		utils.ResponseBadRequest(w, "Validation failed", validationErrors)
		return
	}

	schedule, err := h.service.CreateSchedule(r.Context(), &req)
	if err != nil {
		writeServiceError(w, h.log, err, "create schedule")
		return
	}

	utils.ResponseCreated(w, "success", schedule)
}

// GetSchedule handles GET /api/schedules/{id} (public)
func (h *ScheduleHandler) GetSchedule(w http.ResponseWriter, r *http.Request) {
	scheduleID := chi.URLParam(r, "id")
	if scheduleID == "" {
		utils.ResponseBadRequest(w, "Schedule ID is required", nil)
		return
	}

	schedule, err := h.service.GetSchedule(r.Context(), scheduleID)
	if err != nil {
		writeServiceError(w, h.log, err, "get schedule")
		return
	}

	utils.ResponseSuccess(w, "success", schedule)
}

// ListSchedules handles GET /api/schedules (public)
func (h *ScheduleHandler) ListSchedules(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()
	req := &request.PaginatedRequest{
		Page:    utils.ParseInt(query.Get("page"), 1),
		PerPage: utils.ParseInt(query.Get("per_page"), 10),
	}

	schedules, err := h.service.ListSchedules(r.Context(), req)
	if err != nil {
		writeServiceError(w, h.log, err, "list schedules")
		return
	}

	utils.ResponseSuccess(w, "success", schedules)
}
