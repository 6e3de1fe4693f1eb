package repository

import (
	"context"
	"fmt"

	"transit-booking/internal/data/entity"
	"transit-booking/pkg/database"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

type SeatRepository interface {
	FindByVehicleID(ctx context.Context, vehicleID uuid.UUID) ([]*entity.Seat, error)
	FindByIDs(ctx context.Context, ids []uuid.UUID) ([]*entity.Seat, error)
}

type seatRepository struct {
	db  database.PgxIface
	log *zap.Logger
}

func NewSeatRepository(db database.PgxIface, log *zap.Logger) SeatRepository {
	return &seatRepository{
		db:  db,
		log: log.With(zap.String("repository", "seat")),
	}
}

func (r *seatRepository) FindByVehicleID(ctx context.Context, vehicleID uuid.UUID) ([]*entity.Seat, error) {
	query := `
		SELECT id, vehicle_id, seat_number, seat_row, seat_column, created_at, updated_at
		FROM seats
		WHERE vehicle_id = $1
		ORDER BY seat_row, seat_column
	`

	rows, err := r.db.Query(ctx, query, vehicleID)
	if err != nil {
		r.log.Error("Failed to find seats by vehicle ID",
			zap.Error(err),
			zap.String("vehicle_id", vehicleID.String()),
		)
		return nil, fmt.Errorf("find seats by vehicle ID %s: %w", vehicleID.String(), err)
	}
	defer rows.Close()

	var seats []*entity.Seat
	for rows.Next() {
		var seat entity.Seat
		err := rows.Scan(
			&seat.ID,
			&seat.VehicleID,
			&seat.SeatNumber,
			&seat.SeatRow,
			&seat.SeatColumn,
			&seat.CreatedAt,
			&seat.UpdatedAt,
		)
		if err != nil {
			r.log.Error("Failed to scan seat row", zap.Error(err))
			return nil, fmt.Errorf("scan seat row: %w", err)
		}
		seats = append(seats, &seat)
	}

	return seats, nil
}

func (r *seatRepository) FindByIDs(ctx context.Context, ids []uuid.UUID) ([]*entity.Seat, error) {
	if len(ids) == 0 {
		return nil, nil
	}

	query := `
		SELECT id, vehicle_id, seat_number, seat_row, seat_column, created_at, updated_at
		FROM seats
		WHERE id = ANY($1)
		ORDER BY seat_row, seat_column
	`

	rows, err := r.db.Query(ctx, query, ids)
	if err != nil {
		r.log.Error("Failed to find seats by IDs", zap.Error(err), zap.Int("count", len(ids)))
		return nil, fmt.Errorf("find seats by IDs: %w", err)
	}
	defer rows.Close()

	var seats []*entity.Seat
	for rows.Next() {
		var seat entity.Seat
		err := rows.Scan(
			&seat.ID,
			&seat.VehicleID,
			&seat.SeatNumber,
			&seat.SeatRow,
			&seat.SeatColumn,
			&seat.CreatedAt,
			&seat.UpdatedAt,
		)
		if err != nil {
			r.log.Error("Failed to scan seat row", zap.Error(err))
			return nil, fmt.Errorf("scan seat row: %w", err)
		}
		seats = append(seats, &seat)
	}

	return seats, nil
}
