package response

import (
	"time"

	"transit-booking/internal/data/entity"
)

type ScheduleResponse struct {
	ID             string    `json:"id"`
	RouteID        string    `json:"route_id"`
	VehicleID      string    `json:"vehicle_id"`
	StartLocation  string    `json:"start_location,omitempty"`
	EndLocation    string    `json:"end_location,omitempty"`
	DepartureTime  time.Time `json:"departure_time"`
	ArrivalTime    time.Time `json:"arrival_time"`
	BasePrice      float64   `json:"base_price"`
	TotalSeats     int       `json:"total_seats,omitempty"`
	AvailableSeats int       `json:"available_seats,omitempty"`
}

func ScheduleToResponse(schedule *entity.Schedule, route *entity.Route) ScheduleResponse {
	resp := ScheduleResponse{
		ID:            schedule.ID.String(),
		RouteID:       schedule.RouteID.String(),
		VehicleID:     schedule.VehicleID.String(),
		DepartureTime: schedule.DepartureTime,
		ArrivalTime:   schedule.ArrivalTime,
		BasePrice:     schedule.BasePrice,
	}
	if route != nil {
		resp.StartLocation = route.StartLocation
		resp.EndLocation = route.EndLocation
	}
	return resp
}
