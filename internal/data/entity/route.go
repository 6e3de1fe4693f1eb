package entity

type Route struct {
	BaseNoDelete
	StartLocation            string `db:"start_location"`
	EndLocation              string `db:"end_location"`
	DistanceKM               *int   `db:"distance_km"`
	EstimatedDurationMinutes *int   `db:"estimated_duration_minutes"`
}
