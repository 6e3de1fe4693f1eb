package repository

import (
	"transit-booking/pkg/database"

	"go.uber.org/zap"
)

type Repository struct {
	DB          database.PgxIface
	Route       RouteRepository
	Vehicle     VehicleRepository
	Seat        SeatRepository
	Schedule    ScheduleRepository
	SeatSlot    SeatSlotRepository
	Hold        HoldRepository
	Booking     BookingRepository
	BookingSeat BookingSeatRepository
}

func NewRepository(db database.PgxIface, log *zap.Logger) *Repository {
	return &Repository{
		DB:          db,
		Route:       NewRouteRepository(db, log),
		Vehicle:     NewVehicleRepository(db, log),
		Seat:        NewSeatRepository(db, log),
		Schedule:    NewScheduleRepository(db, log),
		SeatSlot:    NewSeatSlotRepository(db, log),
		Hold:        NewHoldRepository(db, log),
		Booking:     NewBookingRepository(db, log),
		BookingSeat: NewBookingSeatRepository(db, log),
	}
}
