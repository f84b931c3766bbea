package handler_test

import (
	"context"
	"net/http"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pkordes/hos-logbook/internal/domain"
	"github.com/pkordes/hos-logbook/internal/handler"
	"github.com/pkordes/hos-logbook/internal/hos"
	"github.com/pkordes/hos-logbook/internal/service"
)

func TestGetHoursByStatus_ReturnsAllStatusesAndTotal(t *testing.T) {
	h := newHTTPHandler(deps{timeline: &mockTimeline{
		durationByStatus: func(_ context.Context, _ uuid.UUID, _, _ time.Time) (hos.Hours, error) {
			hours := hos.NewHours()
			hours[domain.StatusDriving] = 8.5
			hours[domain.StatusOnDuty] = 1
			hours[domain.StatusOffDuty] = 14.5
			return hours, nil
		},
	}})

	rec := do(t, h, http.MethodGet,
		"/drivers/"+uuid.NewString()+"/hours?from=2025-03-10T00:00:00Z&to=2025-03-11T00:00:00Z", nil)

	require.Equal(t, http.StatusOK, rec.Code)
	body := decode[handler.HoursResponse](t, rec)
	assert.Len(t, body.Hours, 4)
	assert.InDelta(t, 8.5, body.Hours[domain.StatusDriving], 1e-9)
	assert.InDelta(t, 0.0, body.Hours[domain.StatusSleeperBerth], 1e-9)
	assert.InDelta(t, 24.0, body.Total, 1e-9)
}

func TestGetCycleRemaining_PassesCycleAndAt(t *testing.T) {
	driverID := uuid.New()
	h := newHTTPHandler(deps{hours: &mockHours{
		remaining: func(_ context.Context, id uuid.UUID, cycle domain.CycleType, at time.Time) (float64, error) {
			assert.Equal(t, driverID, id)
			assert.Equal(t, domain.Cycle60Hour7Day, cycle)
			assert.True(t, time.Date(2025, 3, 9, 18, 0, 0, 0, time.UTC).Equal(at))
			return 21.5, nil
		},
	}})

	rec := do(t, h, http.MethodGet,
		"/drivers/"+driverID.String()+"/cycle/remaining?cycle=60_7&at=2025-03-09T18:00:00Z", nil)

	require.Equal(t, http.StatusOK, rec.Code)
	body := decode[handler.CycleRemainingResponse](t, rec)
	assert.Equal(t, domain.Cycle60Hour7Day, body.Cycle)
	assert.InDelta(t, 21.5, body.Remaining, 1e-9)
}

func TestGetCycleRemaining_DefaultsAtToNow(t *testing.T) {
	h := newHTTPHandler(deps{hours: &mockHours{
		remaining: func(_ context.Context, _ uuid.UUID, cycle domain.CycleType, at time.Time) (float64, error) {
			assert.Empty(t, cycle)
			assert.True(t, testNow.Equal(at))
			return 70, nil
		},
	}})

	rec := do(t, h, http.MethodGet, "/drivers/"+uuid.NewString()+"/cycle/remaining", nil)

	require.Equal(t, http.StatusOK, rec.Code)
	body := decode[handler.CycleRemainingResponse](t, rec)
	assert.True(t, testNow.Equal(body.At))
}

func TestGetCycleRemaining_UnknownCycleIs422(t *testing.T) {
	h := newHTTPHandler(deps{hours: &mockHours{
		remaining: func(_ context.Context, _ uuid.UUID, cycle domain.CycleType, _ time.Time) (float64, error) {
			_, err := domain.ParseCycleType(string(cycle))
			return 0, err
		},
	}})

	rec := do(t, h, http.MethodGet, "/drivers/"+uuid.NewString()+"/cycle/remaining?cycle=34_restart", nil)

	require.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	body := decode[handler.ErrorResponse](t, rec)
	assert.Equal(t, "validation_error", body.Error.Code)
}

func TestGetCycleRemaining_BadAtIs400(t *testing.T) {
	h := newHTTPHandler(deps{hours: &mockHours{}})

	rec := do(t, h, http.MethodGet, "/drivers/"+uuid.NewString()+"/cycle/remaining?at=noon", nil)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestGetHoursSummary(t *testing.T) {
	driving := domain.StatusDriving
	h := newHTTPHandler(deps{hours: &mockHours{
		summary: func(_ context.Context, id uuid.UUID, cycle domain.CycleType, at time.Time) (service.HoursSummary, error) {
			today := hos.NewHours()
			today[domain.StatusDriving] = 3
			return service.HoursSummary{
				DriverID:         id,
				At:               at,
				Cycle:            domain.Cycle70Hour8Day,
				CurrentStatus:    &driving,
				Today:            today,
				DrivingRemaining: 8,
				CycleUsed:        3,
				CycleRemaining:   67,
			}, nil
		},
	}})

	rec := do(t, h, http.MethodGet, "/drivers/"+uuid.NewString()+"/hours/summary", nil)

	require.Equal(t, http.StatusOK, rec.Code)
	body := decode[service.HoursSummary](t, rec)
	require.NotNil(t, body.CurrentStatus)
	assert.Equal(t, domain.StatusDriving, *body.CurrentStatus)
	assert.InDelta(t, 8.0, body.DrivingRemaining, 1e-9)
	assert.InDelta(t, 67.0, body.CycleRemaining, 1e-9)
}
