package usecase

import (
	"context"
	"errors"
	"testing"

	"transit-booking/internal/data/entity"
	"transit-booking/internal/data/repository"
	"transit-booking/internal/dto/request"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func newFinalizer(f *fixture, deduper DeliveryChecker) FinalizerService {
	return NewFinalizerService(f.reservationService(), deduper, zap.NewNop())
}

func callback(holdID, status string) *request.PaymentCallbackRequest {
	return &request.PaymentCallbackRequest{
		EventID: uuid.New().String(),
		HoldID:  holdID,
		Status:  status,
	}
}

func TestPaymentCallbackSuccess(t *testing.T) {
	f := newFixture()
	svc := f.reservationService()
	fin := newFinalizer(f, newMockDeduper())
	ctx := context.Background()

	hold := placeHold(t, f, svc, f.seatIDs[0], f.seatIDs[1])

	booking, err := fin.HandlePaymentCallback(ctx, callback(hold.HoldID, "success"))
	require.NoError(t, err)
	require.NotNil(t, booking)
	assert.Equal(t, hold.HoldID, booking.HoldID)
	assert.Equal(t, entity.SeatSlotBooked, f.slot(f.seatIDs[0]).Status)
}

func TestPaymentCallbackFailureReleasesHold(t *testing.T) {
	f := newFixture()
	svc := f.reservationService()
	fin := newFinalizer(f, newMockDeduper())
	ctx := context.Background()

	for _, status := range []string{"failed", "timeout"} {
		hold := placeHold(t, f, svc, f.seatIDs[0])

		booking, err := fin.HandlePaymentCallback(ctx, callback(hold.HoldID, status))
		require.NoError(t, err)
		assert.Nil(t, booking)
		assert.Equal(t, entity.SeatSlotAvailable, f.slot(f.seatIDs[0]).Status)
		assert.Equal(t, entity.HoldStatusReleased, f.hold(uuid.MustParse(hold.HoldID)).Status)
	}
}

func TestPaymentCallbackRedelivery(t *testing.T) {
	f := newFixture()
	svc := f.reservationService()
	fin := newFinalizer(f, newMockDeduper())
	ctx := context.Background()

	hold := placeHold(t, f, svc, f.seatIDs[0])
	req := callback(hold.HoldID, "success")

	first, err := fin.HandlePaymentCallback(ctx, req)
	require.NoError(t, err)

	// The provider redelivers the same event. The outcome must be the same
	// booking with no second event published.
	second, err := fin.HandlePaymentCallback(ctx, req)
	require.NoError(t, err)
	assert.Equal(t, first.ID, second.ID)
	assert.Equal(t, 1, f.publisher.published())
}

func TestPaymentCallbackDedupOutage(t *testing.T) {
	f := newFixture()
	svc := f.reservationService()
	deduper := newMockDeduper()
	deduper.err = errors.New("redis down")
	fin := newFinalizer(f, deduper)

	// Dedup failure must not drop the webhook; the database path is still
	// idempotent on its own.
	hold := placeHold(t, f, svc, f.seatIDs[0])
	booking, err := fin.HandlePaymentCallback(context.Background(), callback(hold.HoldID, "success"))
	require.NoError(t, err)
	require.NotNil(t, booking)
}

func TestPaymentCallbackExpiredHold(t *testing.T) {
	f := newFixture()
	svc := f.reservationService()
	fin := newFinalizer(f, newMockDeduper())

	hold := placeHold(t, f, svc, f.seatIDs[0])
	f.expireHold(uuid.MustParse(hold.HoldID))

	// Payment succeeded after the TTL: no booking may be created.
	_, err := fin.HandlePaymentCallback(context.Background(), callback(hold.HoldID, "success"))
	assert.ErrorIs(t, err, repository.ErrHoldExpired)
	assert.NotEqual(t, entity.SeatSlotBooked, f.slot(f.seatIDs[0]).Status)
}

func TestPaymentCallbackValidation(t *testing.T) {
	f := newFixture()
	fin := newFinalizer(f, newMockDeduper())
	ctx := context.Background()

	t.Run("unknown status", func(t *testing.T) {
		_, err := fin.HandlePaymentCallback(ctx, callback(uuid.New().String(), "pending"))
		assert.ErrorIs(t, err, repository.ErrInvalidInput)
	})

	t.Run("missing event id", func(t *testing.T) {
		_, err := fin.HandlePaymentCallback(ctx, &request.PaymentCallbackRequest{
			HoldID: uuid.New().String(),
			Status: "success",
		})
		assert.ErrorIs(t, err, repository.ErrInvalidInput)
	})

	t.Run("unknown hold", func(t *testing.T) {
		_, err := fin.HandlePaymentCallback(ctx, callback(uuid.New().String(), "success"))
		assert.ErrorIs(t, err, repository.ErrHoldNotFound)
	})
}
