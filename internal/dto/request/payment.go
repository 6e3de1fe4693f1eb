package request

// PaymentCallbackRequest is the webhook body delivered by the payment
// collaborator. EventID identifies the delivery attempt; providers retry
// webhooks, so processing must be idempotent on it.
type PaymentCallbackRequest struct {
	EventID string `json:"event_id" validate:"required"`
	HoldID  string `json:"hold_id" validate:"required,uuid4"`
	Status  string `json:"status" validate:"required,oneof=success failed timeout"`
}
