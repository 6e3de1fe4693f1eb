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

// SeatSlotRepository owns the seat inventory rows. Every mutation is a single
// conditional UPDATE per seat; the database row is the unit of locking, so
// correctness does not depend on any in-process state and survives running
// multiple service replicas.
type SeatSlotRepository interface {
	CreateBatchTx(ctx context.Context, tx database.Tx, slots []*entity.SeatSlot) error
	FindBySchedule(ctx context.Context, scheduleID uuid.UUID) ([]*entity.SeatSlot, error)
	FindSeatIDsBySchedule(ctx context.Context, scheduleID uuid.UUID) (map[uuid.UUID]bool, error)
	FindSlot(ctx context.Context, scheduleID, seatID uuid.UUID) (*entity.SeatSlot, error)

	// HoldSeatsTx transitions each seat to held, but only if it is available
	// or carries an already-expired hold. It returns the seat IDs whose
	// conditional write did not land; the caller must roll back the
	// transaction when any are returned so the set stays all-or-nothing.
	HoldSeatsTx(ctx context.Context, tx database.Tx, scheduleID uuid.UUID, seatIDs []uuid.UUID, holdID, userID uuid.UUID, expiresAt time.Time) ([]uuid.UUID, error)

	// FindSeatIDsByHoldTx lists the seats currently held by holdID, read
	// inside the confirm transaction so the booking rows match exactly what
	// the conditional confirm write will flip.
	FindSeatIDsByHoldTx(ctx context.Context, tx database.Tx, holdID uuid.UUID) ([]uuid.UUID, error)

	// ConfirmSeatsTx transitions every seat of a hold to booked, conditioned
	// on the seat still being held by holdID with an unexpired expiry.
	// Returns the number of rows flipped; the caller compares it against the
	// expected seat count and rolls back on mismatch.
	ConfirmSeatsTx(ctx context.Context, tx database.Tx, holdID, bookingID uuid.UUID) (int64, error)

	// ReleaseByHoldTx returns every seat still held by holdID to available.
	// Booked seats are never touched. Idempotent.
	ReleaseByHoldTx(ctx context.Context, tx database.Tx, holdID uuid.UUID) (int64, error)

	// FindExpiredHeld lists held slots whose expiry has passed, for the sweeper.
	FindExpiredHeld(ctx context.Context, now time.Time, limit int) ([]*entity.SeatSlot, error)

	// ReclaimSlot reclaims one expired held slot. The write is conditioned on
	// the exact hold id and expiry the sweeper read, so it can never undo a
	// hold that was re-placed or confirmed in the meantime.
	ReclaimSlot(ctx context.Context, scheduleID, seatID, holdID uuid.UUID, expiresAt time.Time) (bool, error)
}

type seatSlotRepository struct {
	db  database.PgxIface
	log *zap.Logger
}

func NewSeatSlotRepository(db database.PgxIface, log *zap.Logger) SeatSlotRepository {
	return &seatSlotRepository{
		db:  db,
		log: log.With(zap.String("repository", "seat_slot")),
	}
}

const seatSlotColumns = `id, schedule_id, seat_id, status, hold_id, held_by, hold_expires_at, booking_id, created_at, updated_at`

func scanSeatSlot(row pgx.Row) (*entity.SeatSlot, error) {
	var slot entity.SeatSlot
	err := row.Scan(
		&slot.ID,
		&slot.ScheduleID,
		&slot.SeatID,
		&slot.Status,
		&slot.HoldID,
		&slot.HeldBy,
		&slot.HoldExpiresAt,
		&slot.BookingID,
		&slot.CreatedAt,
		&slot.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &slot, nil
}

func (r *seatSlotRepository) CreateBatchTx(ctx context.Context, tx database.Tx, slots []*entity.SeatSlot) error {
	query := `
		INSERT INTO seat_slots (id, schedule_id, seat_id, status, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6)
	`

	for _, slot := range slots {
		_, err := tx.Exec(ctx, query,
			slot.ID,
			slot.ScheduleID,
			slot.SeatID,
			slot.Status,
			slot.CreatedAt,
			slot.UpdatedAt,
		)
		if err != nil {
			r.log.Error("Failed to create seat slot",
				zap.Error(err),
				zap.String("schedule_id", slot.ScheduleID.String()),
				zap.String("seat_id", slot.SeatID.String()),
			)
			return fmt.Errorf("create seat slot for schedule %s seat %s: %w",
				slot.ScheduleID.String(), slot.SeatID.String(), err)
		}
	}

	return nil
}

func (r *seatSlotRepository) FindBySchedule(ctx context.Context, scheduleID uuid.UUID) ([]*entity.SeatSlot, error) {
	query := `
		SELECT ` + seatSlotColumns + `
		FROM seat_slots
		WHERE schedule_id = $1
		ORDER BY seat_id
	`

	rows, err := r.db.Query(ctx, query, scheduleID)
	if err != nil {
		r.log.Error("Failed to find seat slots by schedule",
			zap.Error(err),
			zap.String("schedule_id", scheduleID.String()),
		)
		return nil, fmt.Errorf("find seat slots by schedule %s: %w", scheduleID.String(), err)
	}
	defer rows.Close()

	var slots []*entity.SeatSlot
	for rows.Next() {
		slot, err := scanSeatSlot(rows)
		if err != nil {
			r.log.Error("Failed to scan seat slot row", zap.Error(err))
			return nil, fmt.Errorf("scan seat slot row: %w", err)
		}
		slots = append(slots, slot)
	}

	return slots, nil
}

func (r *seatSlotRepository) FindSeatIDsBySchedule(ctx context.Context, scheduleID uuid.UUID) (map[uuid.UUID]bool, error) {
	query := `SELECT seat_id FROM seat_slots WHERE schedule_id = $1`

	rows, err := r.db.Query(ctx, query, scheduleID)
	if err != nil {
		r.log.Error("Failed to find seat IDs by schedule",
			zap.Error(err),
			zap.String("schedule_id", scheduleID.String()),
		)
		return nil, fmt.Errorf("find seat IDs by schedule %s: %w", scheduleID.String(), err)
	}
	defer rows.Close()

	seatIDs := make(map[uuid.UUID]bool)
	for rows.Next() {
		var seatID uuid.UUID
		if err := rows.Scan(&seatID); err != nil {
			return nil, fmt.Errorf("scan seat ID row: %w", err)
		}
		seatIDs[seatID] = true
	}

	return seatIDs, nil
}

func (r *seatSlotRepository) FindSlot(ctx context.Context, scheduleID, seatID uuid.UUID) (*entity.SeatSlot, error) {
	query := `
		SELECT ` + seatSlotColumns + `
		FROM seat_slots
		WHERE schedule_id = $1 AND seat_id = $2
	`

	slot, err := scanSeatSlot(r.db.QueryRow(ctx, query, scheduleID, seatID))
	if err == pgx.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		r.log.Error("Failed to find seat slot",
			zap.Error(err),
			zap.String("schedule_id", scheduleID.String()),
			zap.String("seat_id", seatID.String()),
		)
		return nil, fmt.Errorf("find seat slot %s/%s: %w", scheduleID.String(), seatID.String(), err)
	}

	return slot, nil
}

func (r *seatSlotRepository) HoldSeatsTx(ctx context.Context, tx database.Tx, scheduleID uuid.UUID, seatIDs []uuid.UUID, holdID, userID uuid.UUID, expiresAt time.Time) ([]uuid.UUID, error) {
	// The WHERE clause is the compare-and-swap: the row must be available, or
	// held with an expiry already in the past. A concurrent holder makes
	// RowsAffected come back 0 for that seat.
	query := `
		UPDATE seat_slots
		SET status = 'held', hold_id = $3, held_by = $4, hold_expires_at = $5, updated_at = NOW()
		WHERE schedule_id = $1 AND seat_id = $2
		  AND (status = 'available' OR (status = 'held' AND hold_expires_at <= NOW()))
	`

	var blocked []uuid.UUID
	for _, seatID := range seatIDs {
		result, err := tx.Exec(ctx, query, scheduleID, seatID, holdID, userID, expiresAt)
		if err != nil {
			r.log.Error("Failed to hold seat",
				zap.Error(err),
				zap.String("schedule_id", scheduleID.String()),
				zap.String("seat_id", seatID.String()),
				zap.String("hold_id", holdID.String()),
			)
			return nil, fmt.Errorf("hold seat %s on schedule %s: %w", seatID.String(), scheduleID.String(), err)
		}
		if result.RowsAffected() == 0 {
			blocked = append(blocked, seatID)
		}
	}

	return blocked, nil
}

func (r *seatSlotRepository) FindSeatIDsByHoldTx(ctx context.Context, tx database.Tx, holdID uuid.UUID) ([]uuid.UUID, error) {
	query := `SELECT seat_id FROM seat_slots WHERE hold_id = $1 AND status = 'held' ORDER BY seat_id`

	rows, err := tx.Query(ctx, query, holdID)
	if err != nil {
		r.log.Error("Failed to find seat IDs by hold",
			zap.Error(err),
			zap.String("hold_id", holdID.String()),
		)
		return nil, fmt.Errorf("find seat IDs by hold %s: %w", holdID.String(), err)
	}
	defer rows.Close()

	var seatIDs []uuid.UUID
	for rows.Next() {
		var seatID uuid.UUID
		if err := rows.Scan(&seatID); err != nil {
			return nil, fmt.Errorf("scan seat ID row: %w", err)
		}
		seatIDs = append(seatIDs, seatID)
	}

	return seatIDs, nil
}

func (r *seatSlotRepository) ConfirmSeatsTx(ctx context.Context, tx database.Tx, holdID, bookingID uuid.UUID) (int64, error) {
	// Conditioned on the seat still being held by this hold and unexpired.
	// A seat the sweeper reclaimed, or that another hold grabbed after
	// expiry, fails the condition and the caller rolls back.
	query := `
		UPDATE seat_slots
		SET status = 'booked', booking_id = $2, hold_id = NULL, held_by = NULL, hold_expires_at = NULL, updated_at = NOW()
		WHERE hold_id = $1 AND status = 'held' AND hold_expires_at > NOW()
	`

	result, err := tx.Exec(ctx, query, holdID, bookingID)
	if err != nil {
		r.log.Error("Failed to confirm seats",
			zap.Error(err),
			zap.String("hold_id", holdID.String()),
			zap.String("booking_id", bookingID.String()),
		)
		return 0, fmt.Errorf("confirm seats for hold %s: %w", holdID.String(), err)
	}

	return result.RowsAffected(), nil
}

func (r *seatSlotRepository) ReleaseByHoldTx(ctx context.Context, tx database.Tx, holdID uuid.UUID) (int64, error) {
	query := `
		UPDATE seat_slots
		SET status = 'available', hold_id = NULL, held_by = NULL, hold_expires_at = NULL, updated_at = NOW()
		WHERE hold_id = $1 AND status = 'held'
	`

	result, err := tx.Exec(ctx, query, holdID)
	if err != nil {
		r.log.Error("Failed to release seats",
			zap.Error(err),
			zap.String("hold_id", holdID.String()),
		)
		return 0, fmt.Errorf("release seats for hold %s: %w", holdID.String(), err)
	}

	return result.RowsAffected(), nil
}

func (r *seatSlotRepository) FindExpiredHeld(ctx context.Context, now time.Time, limit int) ([]*entity.SeatSlot, error) {
	query := `
		SELECT ` + seatSlotColumns + `
		FROM seat_slots
		WHERE status = 'held' AND hold_expires_at <= $1
		ORDER BY hold_expires_at
		LIMIT $2
	`

	rows, err := r.db.Query(ctx, query, now, limit)
	if err != nil {
		r.log.Error("Failed to find expired held slots", zap.Error(err))
		return nil, fmt.Errorf("find expired held slots: %w", err)
	}
	defer rows.Close()

	var slots []*entity.SeatSlot
	for rows.Next() {
		slot, err := scanSeatSlot(rows)
		if err != nil {
			r.log.Error("Failed to scan seat slot row", zap.Error(err))
			return nil, fmt.Errorf("scan seat slot row: %w", err)
		}
		slots = append(slots, slot)
	}

	return slots, nil
}

func (r *seatSlotRepository) ReclaimSlot(ctx context.Context, scheduleID, seatID, holdID uuid.UUID, expiresAt time.Time) (bool, error) {
	// Matching on the exact hold id and expiry closes the race with a
	// last-moment confirm: if the row changed since the sweeper read it,
	// nothing matches and the reclaim is a no-op.
	query := `
		UPDATE seat_slots
		SET status = 'available', hold_id = NULL, held_by = NULL, hold_expires_at = NULL, updated_at = NOW()
		WHERE schedule_id = $1 AND seat_id = $2
		  AND status = 'held' AND hold_id = $3 AND hold_expires_at = $4
	`

	result, err := r.db.Exec(ctx, query, scheduleID, seatID, holdID, expiresAt)
	if err != nil {
		r.log.Error("Failed to reclaim seat slot",
			zap.Error(err),
			zap.String("schedule_id", scheduleID.String()),
			zap.String("seat_id", seatID.String()),
			zap.String("hold_id", holdID.String()),
		)
		return false, fmt.Errorf("reclaim seat slot %s/%s: %w", scheduleID.String(), seatID.String(), err)
	}

	return result.RowsAffected() > 0, nil
}
