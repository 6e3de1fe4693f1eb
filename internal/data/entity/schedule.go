package entity

import (
	"time"

	"github.com/google/uuid"
)

type Schedule struct {
	BaseNoDelete
	RouteID       uuid.UUID `db:"route_id"`
	VehicleID     uuid.UUID `db:"vehicle_id"`
	DepartureTime time.Time `db:"departure_time"`
	ArrivalTime   time.Time `db:"arrival_time"`
	BasePrice     float64   `db:"base_price"`
	IsActive      bool      `db:"is_active"`
}
