package request

type CreateScheduleRequest struct {
	RouteID       string  `json:"route_id" validate:"required,uuid4"`
	VehicleID     string  `json:"vehicle_id" validate:"required,uuid4"`
	DepartureTime string  `json:"departure_time" validate:"required"` // RFC 3339
	ArrivalTime   string  `json:"arrival_time" validate:"required"`   // RFC 3339
	BasePrice     float64 `json:"base_price" validate:"required,gt=0"`
}
