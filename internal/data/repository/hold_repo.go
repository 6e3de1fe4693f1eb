package repository

import (
	"context"
	"fmt"
	"time"

	"transit-booking/internal/data/entity"
	"transit-booking/pkg/database"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"
)

type HoldRepository interface {
	CreateTx(ctx context.Context, tx database.Tx, hold *entity.Hold) error
	FindByID(ctx context.Context, id uuid.UUID) (*entity.Hold, error)

	// MarkConfirmedTx flips an active hold to confirmed and stamps the
	// booking id. Conditioned on status so a racing sweep or release loses.
	MarkConfirmedTx(ctx context.Context, tx database.Tx, holdID, bookingID uuid.UUID) (bool, error)

	// MarkReleasedTx flips an active hold to released. Idempotent: a hold
	// that is already released, expired or confirmed is left untouched.
	MarkReleasedTx(ctx context.Context, tx database.Tx, holdID uuid.UUID) (bool, error)

	// MarkExpired flips an active, past-expiry hold to expired. Used by the
	// sweeper after reclaiming the hold's seats.
	MarkExpired(ctx context.Context, holdID uuid.UUID, now time.Time) (bool, error)
}

type holdRepository struct {
	db  database.PgxIface
	log *zap.Logger
}

func NewHoldRepository(db database.PgxIface, log *zap.Logger) HoldRepository {
	return &holdRepository{
		db:  db,
		log: log.With(zap.String("repository", "hold")),
	}
}

func (r *holdRepository) CreateTx(ctx context.Context, tx database.Tx, hold *entity.Hold) error {
	query := `
		INSERT INTO holds (id, schedule_id, user_id, status, total_seats, expires_at, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`

	_, err := tx.Exec(ctx, query,
		hold.ID,
		hold.ScheduleID,
		hold.UserID,
		hold.Status,
		hold.TotalSeats,
		hold.ExpiresAt,
		hold.CreatedAt,
		hold.UpdatedAt,
	)

	if err != nil {
		r.log.Error("Failed to create hold",
			zap.Error(err),
			zap.String("hold_id", hold.ID.String()),
			zap.String("user_id", hold.UserID.String()),
		)
		return fmt.Errorf("create hold %s: %w", hold.ID.String(), err)
	}

	return nil
}

func (r *holdRepository) FindByID(ctx context.Context, id uuid.UUID) (*entity.Hold, error) {
	query := `
		SELECT id, schedule_id, user_id, status, total_seats, expires_at, booking_id, created_at, updated_at
		FROM holds
		WHERE id = $1
	`

	var hold entity.Hold
	err := r.db.QueryRow(ctx, query, id).Scan(
		&hold.ID,
		&hold.ScheduleID,
		&hold.UserID,
		&hold.Status,
		&hold.TotalSeats,
		&hold.ExpiresAt,
		&hold.BookingID,
		&hold.CreatedAt,
		&hold.UpdatedAt,
	)

	if err == pgx.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		r.log.Error("Failed to find hold by ID",
			zap.Error(err),
			zap.String("hold_id", id.String()),
		)
		return nil, fmt.Errorf("find hold by ID %s: %w", id.String(), err)
	}

	return &hold, nil
}

func (r *holdRepository) MarkConfirmedTx(ctx context.Context, tx database.Tx, holdID, bookingID uuid.UUID) (bool, error) {
	query := `
		UPDATE holds
		SET status = 'confirmed', booking_id = $2, updated_at = NOW()
		WHERE id = $1 AND status = 'active'
	`

	result, err := tx.Exec(ctx, query, holdID, bookingID)
	if err != nil {
		r.log.Error("Failed to mark hold confirmed",
			zap.Error(err),
			zap.String("hold_id", holdID.String()),
		)
		return false, fmt.Errorf("mark hold %s confirmed: %w", holdID.String(), err)
	}

	return result.RowsAffected() > 0, nil
}

func (r *holdRepository) MarkReleasedTx(ctx context.Context, tx database.Tx, holdID uuid.UUID) (bool, error) {
	query := `
		UPDATE holds
		SET status = 'released', updated_at = NOW()
		WHERE id = $1 AND status = 'active'
	`

	result, err := tx.Exec(ctx, query, holdID)
	if err != nil {
		r.log.Error("Failed to mark hold released",
			zap.Error(err),
			zap.String("hold_id", holdID.String()),
		)
		return false, fmt.Errorf("mark hold %s released: %w", holdID.String(), err)
	}

	return result.RowsAffected() > 0, nil
}

func (r *holdRepository) MarkExpired(ctx context.Context, holdID uuid.UUID, now time.Time) (bool, error) {
	query := `
		UPDATE holds
		SET status = 'expired', updated_at = NOW()
		WHERE id = $1 AND status = 'active' AND expires_at <= $2
	`

	result, err := r.db.Exec(ctx, query, holdID, now)
	if err != nil {
		r.log.Error("Failed to mark hold expired",
			zap.Error(err),
			zap.String("hold_id", holdID.String()),
		)
		return false, fmt.Errorf("mark hold %s expired: %w", holdID.String(), err)
	}

	return result.RowsAffected() > 0, nil
}
