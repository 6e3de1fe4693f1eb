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

type ScheduleRepository interface {
	CreateTx(ctx context.Context, tx database.Tx, schedule *entity.Schedule) error
	FindByID(ctx context.Context, id uuid.UUID) (*entity.Schedule, error)
	FindActive(ctx context.Context, limit, offset int) ([]*entity.Schedule, error)
	CountActive(ctx context.Context) (int64, error)
}

type scheduleRepository struct {
	db  database.PgxIface
	log *zap.Logger
}

func NewScheduleRepository(db database.PgxIface, log *zap.Logger) ScheduleRepository {
	return &scheduleRepository{
		db:  db,
		log: log.With(zap.String("repository", "schedule")),
	}
}

const scheduleColumns = `id, route_id, vehicle_id, departure_time, arrival_time, base_price, is_active, created_at, updated_at`

func scanSchedule(row pgx.Row) (*entity.Schedule, error) {
	var schedule entity.Schedule
	err := row.Scan(
		&schedule.ID,
		&schedule.RouteID,
		&schedule.VehicleID,
		&schedule.DepartureTime,
		&schedule.ArrivalTime,
		&schedule.BasePrice,
		&schedule.IsActive,
		&schedule.CreatedAt,
		&schedule.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &schedule, nil
}

func (r *scheduleRepository) CreateTx(ctx context.Context, tx database.Tx, schedule *entity.Schedule) error {
	query := `
		INSERT INTO schedules (id, route_id, vehicle_id, departure_time, arrival_time, base_price, is_active, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`

	_, err := tx.Exec(ctx, query,
		schedule.ID,
		schedule.RouteID,
		schedule.VehicleID,
		schedule.DepartureTime,
		schedule.ArrivalTime,
		schedule.BasePrice,
		schedule.IsActive,
		schedule.CreatedAt,
		schedule.UpdatedAt,
	)

	if err != nil {
		r.log.Error("Failed to create schedule",
			zap.Error(err),
			zap.String("schedule_id", schedule.ID.String()),
		)
		return fmt.Errorf("create schedule %s: %w", schedule.ID.String(), err)
	}

	return nil
}

func (r *scheduleRepository) FindByID(ctx context.Context, id uuid.UUID) (*entity.Schedule, error) {
	query := `SELECT ` + scheduleColumns + ` FROM schedules WHERE id = $1`

	schedule, err := scanSchedule(r.db.QueryRow(ctx, query, id))
	if err == pgx.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		r.log.Error("Failed to find schedule by ID",
			zap.Error(err),
			zap.String("schedule_id", id.String()),
		)
		return nil, fmt.Errorf("find schedule by ID %s: %w", id.String(), err)
	}

	return schedule, nil
}

func (r *scheduleRepository) FindActive(ctx context.Context, limit, offset int) ([]*entity.Schedule, error) {
	query := `
		SELECT ` + scheduleColumns + `
		FROM schedules
		WHERE is_active = true
		ORDER BY departure_time
		LIMIT $1 OFFSET $2
	`

	rows, err := r.db.Query(ctx, query, limit, offset)
	if err != nil {
		r.log.Error("Failed to find active schedules",
			zap.Error(err),
			zap.Int("limit", limit),
			zap.Int("offset", offset),
		)
		return nil, fmt.Errorf("find active schedules: %w", err)
	}
	defer rows.Close()

	var schedules []*entity.Schedule
	for rows.Next() {
		schedule, err := scanSchedule(rows)
		if err != nil {
			r.log.Error("Failed to scan schedule row", zap.Error(err))
			return nil, fmt.Errorf("scan schedule row: %w", err)
		}
		schedules = append(schedules, schedule)
	}

	return schedules, nil
}

func (r *scheduleRepository) CountActive(ctx context.Context) (int64, error) {
	query := `SELECT COUNT(*) FROM schedules WHERE is_active = true`

	var count int64
	err := r.db.QueryRow(ctx, query).Scan(&count)
	if err != nil {
		r.log.Error("Failed to count active schedules", zap.Error(err))
		return 0, fmt.Errorf("count active schedules: %w", err)
	}

	return count, nil
}
