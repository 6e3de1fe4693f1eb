package wire

import (
	"transit-booking/internal/adaptor"
	"transit-booking/pkg/middleware"
	"transit-booking/pkg/utils"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

func wirePayment(
	r chi.Router,
	paymentHandler *adaptor.PaymentHandler,
	config *utils.Config,
	log *zap.Logger,
) {
	// The payment collaborator authenticates with a shared secret header,
	// not a user session.
	r.Group(func(r chi.Router) {
		r.Use(middleware.WebhookSecret(config.Payment.WebhookSecret, log))

		// POST /api/payments/callback - Payment outcome webhook
		r.Post("/api/payments/callback", paymentHandler.Callback)
	})
}
