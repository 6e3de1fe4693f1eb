package adaptor

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"transit-booking/internal/data/repository"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestWriteServiceErrorStatusMapping(t *testing.T) {
	cases := []struct {
		name string
		err  error
		code int
	}{
		{"schedule not found", fmt.Errorf("%w: x", repository.ErrScheduleNotFound), http.StatusNotFound},
		{"hold not found", fmt.Errorf("%w: x", repository.ErrHoldNotFound), http.StatusNotFound},
		{"invalid seat set", fmt.Errorf("%w: x", repository.ErrInvalidSeatSet), http.StatusBadRequest},
		{"invalid input", fmt.Errorf("%w: x", repository.ErrInvalidInput), http.StatusBadRequest},
		{"hold expired", fmt.Errorf("%w: x", repository.ErrHoldExpired), http.StatusGone},
		{"state conflict", fmt.Errorf("%w: x", repository.ErrSeatStateConflict), http.StatusConflict},
		{"forbidden", fmt.Errorf("%w: x", repository.ErrForbidden), http.StatusForbidden},
		{"unknown", fmt.Errorf("boom"), http.StatusInternalServerError},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			writeServiceError(rec, zap.NewNop(), tc.err, "test")
			assert.Equal(t, tc.code, rec.Code)
		})
	}
}

func TestWriteServiceErrorSeatsUnavailable(t *testing.T) {
	scheduleID := uuid.New()
	blocked := []uuid.UUID{uuid.New(), uuid.New()}
	err := &repository.SeatsUnavailableError{ScheduleID: scheduleID, SeatIDs: blocked}

	rec := httptest.NewRecorder()
	writeServiceError(rec, zap.NewNop(), err, "place hold")

	require.Equal(t, http.StatusConflict, rec.Code)

	var body struct {
		Errors struct {
			ScheduleID string   `json:"schedule_id"`
			SeatIDs    []string `json:"seat_ids"`
		} `json:"errors"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))

	// The payload names the exact seats that blocked the request.
	assert.Equal(t, scheduleID.String(), body.Errors.ScheduleID)
	assert.Equal(t, []string{blocked[0].String(), blocked[1].String()}, body.Errors.SeatIDs)
}
