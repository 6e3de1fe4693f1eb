package entity

import "github.com/google/uuid"

type VehicleType string

const (
	VehicleTypeBus     VehicleType = "bus"
	VehicleTypeMinibus VehicleType = "minibus"
	VehicleTypeVan     VehicleType = "van"
)

type Vehicle struct {
	BaseNoDelete
	RouteID     *uuid.UUID  `db:"route_id"`
	PlateNumber string      `db:"plate_number"`
	Model       *string     `db:"model"`
	VehicleType VehicleType `db:"vehicle_type"`
	TotalSeats  int         `db:"total_seats"`
	IsActive    bool        `db:"is_active"`
}
