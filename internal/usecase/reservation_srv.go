package usecase

import (
	"context"
	"fmt"
	"time"

	"transit-booking/internal/data/entity"
	"transit-booking/internal/data/repository"
	"transit-booking/internal/dto/request"
	"transit-booking/internal/dto/response"
	"transit-booking/internal/events"
	"transit-booking/pkg/utils"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// ReservationService is the seat reservation engine: the hold / release /
// confirm lifecycle. Every seat-state decision is made by a conditional
// write in the store, never by in-process state, so the service is safe to
// run as multiple replicas.
type ReservationService interface {
	PlaceHold(ctx context.Context, userID string, req *request.PlaceHoldRequest) (*response.HoldResponse, error)
	ReleaseHold(ctx context.Context, userID string, holdID string) error
	// ReleaseHoldByID skips the ownership check; it is for internal callers
	// (the finalizer acting on a failed payment).
	ReleaseHoldByID(ctx context.Context, holdID uuid.UUID) error
	ConfirmHold(ctx context.Context, holdID uuid.UUID) (*response.BookingResponse, error)
	GetSeatMap(ctx context.Context, scheduleID string) (*response.SeatMapResponse, error)
	GetUserBookings(ctx context.Context, userID string, req *request.PaginatedRequest) (*response.PaginatedResponse[response.BookingResponse], error)
}

type reservationService struct {
	repo      *repository.Repository
	config    *utils.Config
	publisher events.Publisher
	log       *zap.Logger
}

func NewReservationService(repo *repository.Repository, config *utils.Config, publisher events.Publisher, log *zap.Logger) ReservationService {
	return &reservationService{
		repo:      repo,
		config:    config,
		publisher: publisher,
		log:       log.With(zap.String("service", "reservation")),
	}
}

// opCtx bounds a storage transaction. A deadline hit surfaces as a context
// error, which callers treat as retryable rather than as an outcome.
func (s *reservationService) opCtx(ctx context.Context) (context.Context, context.CancelFunc) {
	timeout := s.config.Reservation.OperationTimeout
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	return context.WithTimeout(ctx, timeout)
}

func (s *reservationService) PlaceHold(ctx context.Context, userID string, req *request.PlaceHoldRequest) (*response.HoldResponse, error) {
	if errs := utils.ValidateStruct(req); len(errs) > 0 {
		return nil, fmt.Errorf("%w: %s", repository.ErrInvalidSeatSet, utils.FormatValidationErrors(errs))
	}

	userUUID, err := uuid.Parse(userID)
	if err != nil {
		return nil, fmt.Errorf("%w: invalid user ID %s", repository.ErrInvalidInput, userID)
	}

	scheduleID, err := uuid.Parse(req.ScheduleID)
	if err != nil {
		return nil, fmt.Errorf("%w: invalid schedule ID %s", repository.ErrInvalidInput, req.ScheduleID)
	}

	seatIDs := make([]uuid.UUID, 0, len(req.SeatIDs))
	seen := make(map[uuid.UUID]bool, len(req.SeatIDs))
	for _, seatIDStr := range req.SeatIDs {
		seatID, err := uuid.Parse(seatIDStr)
		if err != nil {
			return nil, fmt.Errorf("%w: invalid seat ID %s", repository.ErrInvalidSeatSet, seatIDStr)
		}
		if seen[seatID] {
			return nil, fmt.Errorf("%w: duplicate seat %s", repository.ErrInvalidSeatSet, seatIDStr)
		}
		seen[seatID] = true
		seatIDs = append(seatIDs, seatID)
	}

	ctx, cancel := s.opCtx(ctx)
	defer cancel()

	schedule, err := s.repo.Schedule.FindByID(ctx, scheduleID)
	if err != nil {
		return nil, err
	}
	if schedule == nil || !schedule.IsActive {
		return nil, fmt.Errorf("%w: %s", repository.ErrScheduleNotFound, req.ScheduleID)
	}

	// Every requested seat must have a slot on this schedule.
	known, err := s.repo.SeatSlot.FindSeatIDsBySchedule(ctx, scheduleID)
	if err != nil {
		return nil, err
	}
	for _, seatID := range seatIDs {
		if !known[seatID] {
			return nil, fmt.Errorf("%w: seat %s does not belong to schedule %s",
				repository.ErrInvalidSeatSet, seatID.String(), req.ScheduleID)
		}
	}

	ttl := s.config.Reservation.HoldTTL
	if req.TTLSeconds > 0 {
		ttl = time.Duration(req.TTLSeconds) * time.Second
	}

	now := time.Now()
	hold := &entity.Hold{
		BaseNoDelete: entity.BaseNoDelete{
			ID:        uuid.New(),
			CreatedAt: now,
			UpdatedAt: now,
		},
		ScheduleID: scheduleID,
		UserID:     userUUID,
		Status:     entity.HoldStatusActive,
		TotalSeats: len(seatIDs),
		ExpiresAt:  now.Add(ttl),
	}

	tx, err := s.repo.DB.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("begin hold transaction: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	if err := s.repo.Hold.CreateTx(ctx, tx, hold); err != nil {
		return nil, err
	}

	blocked, err := s.repo.SeatSlot.HoldSeatsTx(ctx, tx, scheduleID, seatIDs, hold.ID, userUUID, hold.ExpiresAt)
	if err != nil {
		return nil, err
	}
	if len(blocked) > 0 {
		// Roll back so the seats that did transition are untouched:
		// the hold is all-or-nothing across the requested set.
		s.log.Info("Hold rejected, seats unavailable",
			zap.String("schedule_id", req.ScheduleID),
			zap.String("user_id", userID),
			zap.Int("blocked", len(blocked)),
		)
		return nil, &repository.SeatsUnavailableError{ScheduleID: scheduleID, SeatIDs: blocked}
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("commit hold transaction: %w", err)
	}

	s.log.Info("Hold placed",
		zap.String("hold_id", hold.ID.String()),
		zap.String("schedule_id", req.ScheduleID),
		zap.String("user_id", userID),
		zap.Int("seat_count", len(seatIDs)),
		zap.Time("expires_at", hold.ExpiresAt),
	)

	seatIDStrs := make([]string, len(seatIDs))
	for i, id := range seatIDs {
		seatIDStrs[i] = id.String()
	}

	return &response.HoldResponse{
		HoldID:     hold.ID.String(),
		ScheduleID: scheduleID.String(),
		UserID:     userUUID.String(),
		SeatIDs:    seatIDStrs,
		ExpiresAt:  hold.ExpiresAt,
		CreatedAt:  hold.CreatedAt,
	}, nil
}

func (s *reservationService) ReleaseHold(ctx context.Context, userID string, holdID string) error {
	userUUID, err := uuid.Parse(userID)
	if err != nil {
		return fmt.Errorf("%w: invalid user ID %s", repository.ErrInvalidInput, userID)
	}

	holdUUID, err := uuid.Parse(holdID)
	if err != nil {
		return fmt.Errorf("%w: invalid hold ID %s", repository.ErrInvalidInput, holdID)
	}

	ctx, cancel := s.opCtx(ctx)
	defer cancel()

	hold, err := s.repo.Hold.FindByID(ctx, holdUUID)
	if err != nil {
		return err
	}
	if hold == nil {
		return fmt.Errorf("%w: %s", repository.ErrHoldNotFound, holdID)
	}
	if hold.UserID != userUUID {
		return fmt.Errorf("%w: hold %s belongs to another user", repository.ErrForbidden, holdID)
	}

	return s.release(ctx, hold)
}

func (s *reservationService) ReleaseHoldByID(ctx context.Context, holdID uuid.UUID) error {
	ctx, cancel := s.opCtx(ctx)
	defer cancel()

	hold, err := s.repo.Hold.FindByID(ctx, holdID)
	if err != nil {
		return err
	}
	if hold == nil {
		return fmt.Errorf("%w: %s", repository.ErrHoldNotFound, holdID.String())
	}

	return s.release(ctx, hold)
}

func (s *reservationService) release(ctx context.Context, hold *entity.Hold) error {
	// Already released, expired or confirmed: releasing again is a no-op,
	// not an error.
	if hold.Status != entity.HoldStatusActive {
		return nil
	}

	tx, err := s.repo.DB.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin release transaction: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	released, err := s.repo.SeatSlot.ReleaseByHoldTx(ctx, tx, hold.ID)
	if err != nil {
		return err
	}

	// A racing confirm may have flipped the hold already; the conditional
	// update then touches nothing and that is the correct outcome.
	if _, err := s.repo.Hold.MarkReleasedTx(ctx, tx, hold.ID); err != nil {
		return err
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit release transaction: %w", err)
	}

	s.log.Info("Hold released",
		zap.String("hold_id", hold.ID.String()),
		zap.Int64("seats_released", released),
	)

	return nil
}

func (s *reservationService) ConfirmHold(ctx context.Context, holdID uuid.UUID) (*response.BookingResponse, error) {
	ctx, cancel := s.opCtx(ctx)
	defer cancel()

	hold, err := s.repo.Hold.FindByID(ctx, holdID)
	if err != nil {
		return nil, err
	}
	if hold == nil {
		return nil, fmt.Errorf("%w: %s", repository.ErrHoldNotFound, holdID.String())
	}

	// Double-confirm of the same hold is an idempotent no-op returning the
	// existing booking; webhook providers redeliver.
	if hold.Status == entity.HoldStatusConfirmed {
		return s.existingBooking(ctx, holdID)
	}

	if hold.Status == entity.HoldStatusReleased {
		return nil, fmt.Errorf("%w: hold %s was released before confirmation",
			repository.ErrSeatStateConflict, holdID.String())
	}

	if hold.Status == entity.HoldStatusExpired || hold.Expired(time.Now()) {
		return nil, fmt.Errorf("%w: %s", repository.ErrHoldExpired, holdID.String())
	}

	schedule, err := s.repo.Schedule.FindByID(ctx, hold.ScheduleID)
	if err != nil {
		return nil, err
	}
	if schedule == nil {
		return nil, fmt.Errorf("%w: %s", repository.ErrScheduleNotFound, hold.ScheduleID.String())
	}

	now := time.Now()
	booking := &entity.Booking{
		BaseNoDelete: entity.BaseNoDelete{
			ID:        uuid.New(),
			CreatedAt: now,
			UpdatedAt: now,
		},
		BookingRef:  utils.GenerateBookingRef(),
		HoldID:      hold.ID,
		UserID:      hold.UserID,
		ScheduleID:  hold.ScheduleID,
		TotalSeats:  hold.TotalSeats,
		TotalAmount: schedule.BasePrice * float64(hold.TotalSeats),
		Status:      entity.BookingStatusConfirmed,
	}

	tx, err := s.repo.DB.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("begin confirm transaction: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	seatIDs, err := s.repo.SeatSlot.FindSeatIDsByHoldTx(ctx, tx, hold.ID)
	if err != nil {
		return nil, err
	}

	flipped, err := s.repo.SeatSlot.ConfirmSeatsTx(ctx, tx, hold.ID, booking.ID)
	if err != nil {
		return nil, err
	}

	// The conditional write must land on every seat of the hold. Anything
	// less means the sweeper or another hold got there first.
	if int(flipped) != hold.TotalSeats || len(seatIDs) != hold.TotalSeats {
		if hold.Expired(time.Now()) {
			return nil, fmt.Errorf("%w: %s", repository.ErrHoldExpired, holdID.String())
		}
		s.log.Error("Confirm found seats in unexpected state",
			zap.String("hold_id", holdID.String()),
			zap.Int("expected", hold.TotalSeats),
			zap.Int64("flipped", flipped),
		)
		return nil, fmt.Errorf("%w: hold %s covers %d seats, %d were still held",
			repository.ErrSeatStateConflict, holdID.String(), hold.TotalSeats, flipped)
	}

	if err := s.repo.Booking.CreateTx(ctx, tx, booking); err != nil {
		return nil, err
	}

	bookingSeats := make([]*entity.BookingSeat, len(seatIDs))
	for i, seatID := range seatIDs {
		bookingSeats[i] = &entity.BookingSeat{
			BaseSimple: entity.BaseSimple{
				ID:        uuid.New(),
				CreatedAt: now,
			},
			BookingID: booking.ID,
			SeatID:    seatID,
		}
	}
	if err := s.repo.BookingSeat.CreateBatchTx(ctx, tx, bookingSeats); err != nil {
		return nil, err
	}

	confirmed, err := s.repo.Hold.MarkConfirmedTx(ctx, tx, hold.ID, booking.ID)
	if err != nil {
		return nil, err
	}
	if !confirmed {
		// Lost a race with release or a concurrent confirm between our read
		// and this write. Roll back and re-read to answer correctly.
		_ = tx.Rollback(ctx)
		fresh, err := s.repo.Hold.FindByID(ctx, hold.ID)
		if err != nil {
			return nil, err
		}
		if fresh != nil && fresh.Status == entity.HoldStatusConfirmed {
			return s.existingBooking(ctx, hold.ID)
		}
		return nil, fmt.Errorf("%w: hold %s changed state during confirmation",
			repository.ErrSeatStateConflict, holdID.String())
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("commit confirm transaction: %w", err)
	}

	s.log.Info("Hold confirmed",
		zap.String("hold_id", hold.ID.String()),
		zap.String("booking_id", booking.ID.String()),
		zap.String("booking_ref", booking.BookingRef),
		zap.Int("seat_count", len(seatIDs)),
		zap.Float64("total_amount", booking.TotalAmount),
	)

	// Outbound notification. The booking is durable; a publish failure is
	// logged by the publisher and must not fail the confirmation.
	if s.publisher != nil {
		event := events.BookingCreatedEvent{
			BookingID:   booking.ID,
			BookingRef:  booking.BookingRef,
			UserID:      booking.UserID,
			ScheduleID:  booking.ScheduleID,
			SeatIDs:     seatIDs,
			TotalAmount: booking.TotalAmount,
			CreatedAt:   booking.CreatedAt,
		}
		if err := s.publisher.PublishBookingCreated(ctx, event); err != nil {
			s.log.Warn("Booking created event not published",
				zap.Error(err),
				zap.String("booking_id", booking.ID.String()),
			)
		}
	}

	seatNumbers, err := s.seatNumbers(ctx, seatIDs)
	if err != nil {
		// Response enrichment only; the booking exists either way.
		seatNumbers = nil
	}

	resp := response.BookingToResponse(booking, seatNumbers)
	return &resp, nil
}

func (s *reservationService) existingBooking(ctx context.Context, holdID uuid.UUID) (*response.BookingResponse, error) {
	booking, err := s.repo.Booking.FindByHoldID(ctx, holdID)
	if err != nil {
		return nil, err
	}
	if booking == nil {
		return nil, fmt.Errorf("%w: hold %s is confirmed but has no booking",
			repository.ErrSeatStateConflict, holdID.String())
	}

	bookingSeats, err := s.repo.BookingSeat.FindByBookingID(ctx, booking.ID)
	if err != nil {
		return nil, err
	}
	seatIDs := make([]uuid.UUID, len(bookingSeats))
	for i, bs := range bookingSeats {
		seatIDs[i] = bs.SeatID
	}

	seatNumbers, err := s.seatNumbers(ctx, seatIDs)
	if err != nil {
		seatNumbers = nil
	}

	resp := response.BookingToResponse(booking, seatNumbers)
	return &resp, nil
}

func (s *reservationService) seatNumbers(ctx context.Context, seatIDs []uuid.UUID) ([]string, error) {
	seats, err := s.repo.Seat.FindByIDs(ctx, seatIDs)
	if err != nil {
		return nil, err
	}
	numbers := make([]string, len(seats))
	for i, seat := range seats {
		numbers[i] = seat.SeatNumber
	}
	return numbers, nil
}

func (s *reservationService) GetSeatMap(ctx context.Context, scheduleID string) (*response.SeatMapResponse, error) {
	scheduleUUID, err := uuid.Parse(scheduleID)
	if err != nil {
		return nil, fmt.Errorf("%w: invalid schedule ID %s", repository.ErrInvalidInput, scheduleID)
	}

	schedule, err := s.repo.Schedule.FindByID(ctx, scheduleUUID)
	if err != nil {
		return nil, err
	}
	if schedule == nil {
		return nil, fmt.Errorf("%w: %s", repository.ErrScheduleNotFound, scheduleID)
	}

	slots, err := s.repo.SeatSlot.FindBySchedule(ctx, scheduleUUID)
	if err != nil {
		return nil, err
	}

	seatIDs := make([]uuid.UUID, len(slots))
	for i, slot := range slots {
		seatIDs[i] = slot.SeatID
	}
	seats, err := s.repo.Seat.FindByIDs(ctx, seatIDs)
	if err != nil {
		return nil, err
	}
	numberBySeat := make(map[uuid.UUID]string, len(seats))
	for _, seat := range seats {
		numberBySeat[seat.ID] = seat.SeatNumber
	}

	now := time.Now()
	resp := &response.SeatMapResponse{
		ScheduleID: scheduleID,
		Seats:      make([]response.SeatSlotResponse, len(slots)),
	}
	for i, slot := range slots {
		status := slot.Status
		var expiresAt *time.Time
		// A held seat whose expiry has passed reads as available; the
		// sweeper will catch up shortly.
		if slot.HoldExpired(now) {
			status = entity.SeatSlotAvailable
		} else if slot.Status == entity.SeatSlotHeld {
			expiresAt = slot.HoldExpiresAt
		}
		resp.Seats[i] = response.SeatSlotResponse{
			SeatID:        slot.SeatID.String(),
			SeatNumber:    numberBySeat[slot.SeatID],
			Status:        status,
			HoldExpiresAt: expiresAt,
		}
	}

	return resp, nil
}

func (s *reservationService) GetUserBookings(ctx context.Context, userID string, req *request.PaginatedRequest) (*response.PaginatedResponse[response.BookingResponse], error) {
	userUUID, err := uuid.Parse(userID)
	if err != nil {
		return nil, fmt.Errorf("%w: invalid user ID %s", repository.ErrInvalidInput, userID)
	}

	bookings, err := s.repo.Booking.FindByUserID(ctx, userUUID, req.Limit(), req.Offset())
	if err != nil {
		return nil, err
	}

	total, err := s.repo.Booking.CountByUserID(ctx, userUUID)
	if err != nil {
		return nil, err
	}

	bookingResponses := make([]response.BookingResponse, len(bookings))
	for i, booking := range bookings {
		bookingSeats, err := s.repo.BookingSeat.FindByBookingID(ctx, booking.ID)
		if err != nil {
			return nil, err
		}
		seatIDs := make([]uuid.UUID, len(bookingSeats))
		for j, bs := range bookingSeats {
			seatIDs[j] = bs.SeatID
		}
		seatNumbers, err := s.seatNumbers(ctx, seatIDs)
		if err != nil {
			seatNumbers = nil
		}
		bookingResponses[i] = response.BookingToResponse(booking, seatNumbers)
	}

	return response.NewPaginatedResponse(bookingResponses, req.Page, req.PerPage, total), nil
}
