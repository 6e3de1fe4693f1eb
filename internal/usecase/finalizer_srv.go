package usecase

import (
	"context"
	"fmt"

	"transit-booking/internal/data/repository"
	"transit-booking/internal/dto/request"
	"transit-booking/internal/dto/response"
	"transit-booking/pkg/utils"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// FinalizerService turns payment outcomes into booking state. Success
// confirms the hold into a booking; failure or timeout releases it. Both
// paths are idempotent because payment providers redeliver webhooks.
type FinalizerService interface {
	HandlePaymentCallback(ctx context.Context, req *request.PaymentCallbackRequest) (*response.BookingResponse, error)
}

type finalizerService struct {
	reservation ReservationService
	deduper     DeliveryChecker
	log         *zap.Logger
}

func NewFinalizerService(reservation ReservationService, deduper DeliveryChecker, log *zap.Logger) FinalizerService {
	return &finalizerService{
		reservation: reservation,
		deduper:     deduper,
		log:         log.With(zap.String("service", "finalizer")),
	}
}

// HandlePaymentCallback processes one webhook delivery. The booking response
// is non-nil only for the success path.
func (s *finalizerService) HandlePaymentCallback(ctx context.Context, req *request.PaymentCallbackRequest) (*response.BookingResponse, error) {
	if errs := utils.ValidateStruct(req); len(errs) > 0 {
		return nil, fmt.Errorf("%w: %s", repository.ErrInvalidInput, utils.FormatValidationErrors(errs))
	}

	holdID, err := uuid.Parse(req.HoldID)
	if err != nil {
		return nil, fmt.Errorf("%w: invalid hold ID %s", repository.ErrInvalidInput, req.HoldID)
	}

	// Redis is a fast-path filter only. On error or a duplicate we still
	// fall through to the database, whose conditional writes make the
	// outcome idempotent either way.
	if s.deduper != nil {
		first, err := s.deduper.FirstDelivery(ctx, req.EventID)
		if err != nil {
			s.log.Warn("Delivery dedup check failed, proceeding",
				zap.Error(err),
				zap.String("event_id", req.EventID),
			)
		} else if !first {
			s.log.Info("Duplicate webhook delivery",
				zap.String("event_id", req.EventID),
				zap.String("hold_id", req.HoldID),
				zap.String("status", req.Status),
			)
		}
	}

	switch req.Status {
	case "success":
		booking, err := s.reservation.ConfirmHold(ctx, holdID)
		if err != nil {
			return nil, err
		}
		s.log.Info("Payment success finalized",
			zap.String("event_id", req.EventID),
			zap.String("hold_id", req.HoldID),
			zap.String("booking_ref", booking.BookingRef),
		)
		return booking, nil

	case "failed", "timeout":
		if err := s.reservation.ReleaseHoldByID(ctx, holdID); err != nil {
			return nil, err
		}
		s.log.Info("Payment failure finalized, hold released",
			zap.String("event_id", req.EventID),
			zap.String("hold_id", req.HoldID),
			zap.String("status", req.Status),
		)
		return nil, nil

	default:
		return nil, fmt.Errorf("%w: unknown payment status %s", repository.ErrInvalidInput, req.Status)
	}
}
