package usecase

import (
	"context"
	"fmt"
	"time"

	"transit-booking/internal/data/entity"
	"transit-booking/internal/data/repository"
	"transit-booking/internal/dto/request"
	"transit-booking/internal/dto/response"
	"transit-booking/pkg/utils"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

type ScheduleService interface {
	// CreateSchedule registers a departure and provisions one seat slot per
	// seat of the assigned vehicle, all in one transaction.
	CreateSchedule(ctx context.Context, req *request.CreateScheduleRequest) (*response.ScheduleResponse, error)
	GetSchedule(ctx context.Context, scheduleID string) (*response.ScheduleResponse, error)
	ListSchedules(ctx context.Context, req *request.PaginatedRequest) (*response.PaginatedResponse[response.ScheduleResponse], error)
}

type scheduleService struct {
	repo *repository.Repository
	log  *zap.Logger
}

func NewScheduleService(repo *repository.Repository, log *zap.Logger) ScheduleService {
	return &scheduleService{
		repo: repo,
		log:  log.With(zap.String("service", "schedule")),
	}
}

func (s *scheduleService) CreateSchedule(ctx context.Context, req *request.CreateScheduleRequest) (*response.ScheduleResponse, error) {
	if errs := utils.ValidateStruct(req); len(errs) > 0 {
		return nil, fmt.Errorf("%w: %s", repository.ErrInvalidInput, utils.FormatValidationErrors(errs))
	}

	routeID, err := uuid.Parse(req.RouteID)
	if err != nil {
		return nil, fmt.Errorf("%w: invalid route ID %s", repository.ErrInvalidInput, req.RouteID)
	}
	vehicleID, err := uuid.Parse(req.VehicleID)
	if err != nil {
		return nil, fmt.Errorf("%w: invalid vehicle ID %s", repository.ErrInvalidInput, req.VehicleID)
	}

	departure, err := time.Parse(time.RFC3339, req.DepartureTime)
	if err != nil {
		return nil, fmt.Errorf("%w: departure_time must be RFC 3339", repository.ErrInvalidInput)
	}
	arrival, err := time.Parse(time.RFC3339, req.ArrivalTime)
	if err != nil {
		return nil, fmt.Errorf("%w: arrival_time must be RFC 3339", repository.ErrInvalidInput)
	}
	if !arrival.After(departure) {
		return nil, fmt.Errorf("%w: arrival must be after departure", repository.ErrInvalidInput)
	}

	route, err := s.repo.Route.FindByID(ctx, routeID)
	if err != nil {
		return nil, err
	}
	if route == nil {
		return nil, fmt.Errorf("%w: %s", repository.ErrRouteNotFound, req.RouteID)
	}

	vehicle, err := s.repo.Vehicle.FindByID(ctx, vehicleID)
	if err != nil {
		return nil, err
	}
	if vehicle == nil {
		return nil, fmt.Errorf("%w: %s", repository.ErrVehicleNotFound, req.VehicleID)
	}

	seats, err := s.repo.Seat.FindByVehicleID(ctx, vehicleID)
	if err != nil {
		return nil, err
	}
	if len(seats) == 0 {
		return nil, fmt.Errorf("%w: vehicle %s has no seats", repository.ErrInvalidInput, req.VehicleID)
	}

	now := time.Now()
	schedule := &entity.Schedule{
		BaseNoDelete: entity.BaseNoDelete{
			ID:        uuid.New(),
			CreatedAt: now,
			UpdatedAt: now,
		},
		RouteID:       routeID,
		VehicleID:     vehicleID,
		DepartureTime: departure,
		ArrivalTime:   arrival,
		BasePrice:     req.BasePrice,
		IsActive:      true,
	}

	slots := make([]*entity.SeatSlot, len(seats))
	for i, seat := range seats {
		slots[i] = &entity.SeatSlot{
			BaseNoDelete: entity.BaseNoDelete{
				ID:        uuid.New(),
				CreatedAt: now,
				UpdatedAt: now,
			},
			ScheduleID: schedule.ID,
			SeatID:     seat.ID,
			Status:     entity.SeatSlotAvailable,
		}
	}

	tx, err := s.repo.DB.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("begin schedule transaction: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	if err := s.repo.Schedule.CreateTx(ctx, tx, schedule); err != nil {
		return nil, err
	}
	if err := s.repo.SeatSlot.CreateBatchTx(ctx, tx, slots); err != nil {
		return nil, err
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("commit schedule transaction: %w", err)
	}

	s.log.Info("Schedule created",
		zap.String("schedule_id", schedule.ID.String()),
		zap.String("route_id", req.RouteID),
		zap.String("vehicle_id", req.VehicleID),
		zap.Int("seats_provisioned", len(slots)),
	)

	resp := response.ScheduleToResponse(schedule, route)
	resp.TotalSeats = len(slots)
	resp.AvailableSeats = len(slots)
	return &resp, nil
}

func (s *scheduleService) GetSchedule(ctx context.Context, scheduleID string) (*response.ScheduleResponse, error) {
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

	resp, err := s.enrich(ctx, schedule)
	if err != nil {
		return nil, err
	}
	return resp, nil
}

func (s *scheduleService) ListSchedules(ctx context.Context, req *request.PaginatedRequest) (*response.PaginatedResponse[response.ScheduleResponse], error) {
	schedules, err := s.repo.Schedule.FindActive(ctx, req.Limit(), req.Offset())
	if err != nil {
		return nil, err
	}

	total, err := s.repo.Schedule.CountActive(ctx)
	if err != nil {
		return nil, err
	}

	scheduleResponses := make([]response.ScheduleResponse, len(schedules))
	for i, schedule := range schedules {
		resp, err := s.enrich(ctx, schedule)
		if err != nil {
			return nil, err
		}
		scheduleResponses[i] = *resp
	}

	return response.NewPaginatedResponse(scheduleResponses, req.Page, req.PerPage, total), nil
}

func (s *scheduleService) enrich(ctx context.Context, schedule *entity.Schedule) (*response.ScheduleResponse, error) {
	route, err := s.repo.Route.FindByID(ctx, schedule.RouteID)
	if err != nil {
		return nil, err
	}

	slots, err := s.repo.SeatSlot.FindBySchedule(ctx, schedule.ID)
	if err != nil {
		return nil, err
	}

	now := time.Now()
	available := 0
	for _, slot := range slots {
		// Expired holds count as available even before the sweeper runs.
		if slot.Status == entity.SeatSlotAvailable || slot.HoldExpired(now) {
			available++
		}
	}

	resp := response.ScheduleToResponse(schedule, route)
	resp.TotalSeats = len(slots)
	resp.AvailableSeats = available
	return &resp, nil
}
