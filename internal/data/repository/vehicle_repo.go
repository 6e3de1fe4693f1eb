package repository

import (
	"context"
	"fmt"

	"transit-booking/internal/data/entity"
	"transit-booking/pkg/database"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"
)

type VehicleRepository interface {
	FindByID(ctx context.Context, id uuid.UUID) (*entity.Vehicle, error)
}

type vehicleRepository struct {
	db  database.PgxIface
	log *zap.Logger
}

func NewVehicleRepository(db database.PgxIface, log *zap.Logger) VehicleRepository {
	return &vehicleRepository{
		db:  db,
		log: log.With(zap.String("repository", "vehicle")),
	}
}

func (r *vehicleRepository) FindByID(ctx context.Context, id uuid.UUID) (*entity.Vehicle, error) {
	query := `
		SELECT id, route_id, plate_number, model, vehicle_type, total_seats, is_active, created_at, updated_at
		FROM vehicles
		WHERE id = $1
	`

	var vehicle entity.Vehicle
	err := r.db.QueryRow(ctx, query, id).Scan(
		&vehicle.ID,
		&vehicle.RouteID,
		&vehicle.PlateNumber,
		&vehicle.Model,
		&vehicle.VehicleType,
		&vehicle.TotalSeats,
		&vehicle.IsActive,
		&vehicle.CreatedAt,
		&vehicle.UpdatedAt,
	)

	if err == pgx.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		r.log.Error("Failed to find vehicle by ID",
			zap.Error(err),
			zap.String("vehicle_id", id.String()),
		)
		return nil, fmt.Errorf("find vehicle by ID %s: %w", id.String(), err)
	}

	return &vehicle, nil
}
