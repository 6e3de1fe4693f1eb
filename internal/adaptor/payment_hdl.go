package adaptor

import (
	"encoding/json"
	"net/http"

	"transit-booking/internal/dto/request"
	"transit-booking/internal/usecase"
	"transit-booking/pkg/utils"

	"go.uber.org/zap"
)

type PaymentHandler struct {
	service usecase.FinalizerService
	log     *zap.Logger
}

func NewPaymentHandler(service usecase.FinalizerService, log *zap.Logger) *PaymentHandler {
	return &PaymentHandler{
		service: service,
		log:     log.With(zap.String("handler", "payment")),
	}
}

// Callback handles POST /api/payments/callback (webhook secret protected).
// The provider redelivers on 5xx only, so terminal outcomes map to 4xx: an
// expired hold comes back 410 and tells the provider to void the charge.
func (h *PaymentHandler) Callback(w http.ResponseWriter, r *http.Request) {
	var req request.PaymentCallbackRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		utils.ResponseBadRequest(w, "Invalid request body", nil)
		return
	}

	if validationErrors := utils.ValidateStruct(req); len(validationErrors) > 0 {
		utils.ResponseBadRequest(w, "Validation failed", validationErrors)
		return
	}

	booking, err := h.service.HandlePaymentCallback(r.Context(), &req)
	if err != nil {
		writeServiceError(w, h.log, err, "payment callback")
		return
	}

	if booking != nil {
		utils.ResponseSuccess(w, "success", booking)
		return
	}
	utils.ResponseSuccess(w, "success", nil)
}
