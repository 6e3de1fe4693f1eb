package repository

import (
	"context"
	"fmt"

	"transit-booking/internal/data/entity"
	"transit-booking/pkg/database"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

type BookingSeatRepository interface {
	CreateBatchTx(ctx context.Context, tx database.Tx, bookingSeats []*entity.BookingSeat) error
	FindByBookingID(ctx context.Context, bookingID uuid.UUID) ([]*entity.BookingSeat, error)
}

type bookingSeatRepository struct {
	db  database.PgxIface
	log *zap.Logger
}

func NewBookingSeatRepository(db database.PgxIface, log *zap.Logger) BookingSeatRepository {
	return &bookingSeatRepository{
		db:  db,
		log: log.With(zap.String("repository", "booking_seat")),
	}
}

func (r *bookingSeatRepository) CreateBatchTx(ctx context.Context, tx database.Tx, bookingSeats []*entity.BookingSeat) error {
	if len(bookingSeats) == 0 {
		return nil
	}

	query := `
		INSERT INTO booking_seats (id, booking_id, seat_id, created_at)
		VALUES ($1, $2, $3, $4)
	`

	for _, bs := range bookingSeats {
		_, err := tx.Exec(ctx, query,
			bs.ID,
			bs.BookingID,
			bs.SeatID,
			bs.CreatedAt,
		)
		if err != nil {
			r.log.Error("Failed to create booking seat",
				zap.Error(err),
				zap.String("booking_id", bs.BookingID.String()),
				zap.String("seat_id", bs.SeatID.String()),
			)
			return fmt.Errorf("create booking seat for booking %s seat %s: %w",
				bs.BookingID.String(), bs.SeatID.String(), err)
		}
	}

	return nil
}

func (r *bookingSeatRepository) FindByBookingID(ctx context.Context, bookingID uuid.UUID) ([]*entity.BookingSeat, error) {
	query := `
		SELECT id, booking_id, seat_id, created_at
		FROM booking_seats
		WHERE booking_id = $1
		ORDER BY created_at
	`

	rows, err := r.db.Query(ctx, query, bookingID)
	if err != nil {
		r.log.Error("Failed to find booking seats by booking ID",
			zap.Error(err),
			zap.String("booking_id", bookingID.String()),
		)
		return nil, fmt.Errorf("find booking seats by booking ID %s: %w", bookingID.String(), err)
	}
	defer rows.Close()

	var bookingSeats []*entity.BookingSeat
	for rows.Next() {
		var bs entity.BookingSeat
		err := rows.Scan(
			&bs.ID,
			&bs.BookingID,
			&bs.SeatID,
			&bs.CreatedAt,
		)
		if err != nil {
			r.log.Error("Failed to scan booking seat row", zap.Error(err))
			return nil, fmt.Errorf("scan booking seat row: %w", err)
		}
		bookingSeats = append(bookingSeats, &bs)
	}

	return bookingSeats, nil
}
