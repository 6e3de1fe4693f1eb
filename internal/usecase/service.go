package usecase

import (
	"context"

	"transit-booking/internal/data/repository"
	"transit-booking/internal/events"
	"transit-booking/pkg/utils"

	"go.uber.org/zap"
)

// DeliveryChecker is the webhook fast-path dedup. Satisfied by
// dedup.Deduper; the database idempotency checks remain authoritative.
type DeliveryChecker interface {
	FirstDelivery(ctx context.Context, eventID string) (bool, error)
}

type Service struct {
	Reservation ReservationService
	Finalizer   FinalizerService
	Schedule    ScheduleService
}

func NewService(repo *repository.Repository, config *utils.Config, publisher events.Publisher, deduper DeliveryChecker, log *zap.Logger) *Service {
	reservation := NewReservationService(repo, config, publisher, log)
	return &Service{
		Reservation: reservation,
		Finalizer:   NewFinalizerService(reservation, deduper, log),
		Schedule:    NewScheduleService(repo, log),
	}
}
