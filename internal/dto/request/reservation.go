package request

type PlaceHoldRequest struct {
	ScheduleID string   `json:"schedule_id" validate:"required,uuid4"`
	SeatIDs    []string `json:"seat_ids" validate:"required,min=1,max=10,dive,uuid4"`
	// TTLSeconds optionally overrides the default hold TTL. Bounded so a
	// client cannot park seats for hours.
	TTLSeconds int `json:"ttl_seconds,omitempty" validate:"omitempty,min=30,max=1800"`
}
