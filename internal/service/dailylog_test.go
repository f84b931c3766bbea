package service_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pkordes/hos-logbook/internal/domain"
	"github.com/pkordes/hos-logbook/internal/hos"
	"github.com/pkordes/hos-logbook/internal/service"
)

type dailyLogFixture struct {
	svc      *service.DailyLogService
	timeline *service.TimelineService
	statuses *memStatusRepo
	logs     *memDailyLogRepo
	trips    *[]domain.Trip
}

func newDailyLogFixture(now time.Time) *dailyLogFixture {
	f := &dailyLogFixture{statuses: newMemStatusRepo(), logs: newMemDailyLogRepo(), trips: &[]domain.Trip{}}
	f.timeline = service.NewTimelineService(f.statuses, fixedClock(now))
	carrier := domain.Carrier{Name: "Prairie Freight", VehicleNumber: "T-102", DriverName: "Sam Ortiz"}
	f.svc = service.NewDailyLogService(f.timeline, f.logs, tripsOn(f.trips), hos.DefaultRules(), carrier, nil)
	return f
}

// addTrip stores a trip of the given length in miles starting at start.
func (f *dailyLogFixture) addTrip(driverID uuid.UUID, start time.Time, miles float64) domain.Trip {
	trip := domain.Trip{
		ID:            uuid.New(),
		DriverID:      driverID,
		Start:         start,
		DistanceKm:    miles / domain.KmToMiles,
		DurationHours: 2,
	}
	*f.trips = append(*f.trips, trip)
	return trip
}

func TestDailyLogService_BuildDailyLog_Hours(t *testing.T) {
	f := newDailyLogFixture(at(5, 0, 0))
	ctx := context.Background()
	driverID := uuid.New()

	for _, step := range []struct {
		s  domain.DutyStatus
		at time.Time
	}{
		{domain.StatusOffDuty, at(-1, 20, 0)},
		{domain.StatusOnDuty, at(0, 6, 0)},
		{domain.StatusDriving, at(0, 7, 0)},
		{domain.StatusSleeperBerth, at(0, 15, 30)},
	} {
		_, err := f.timeline.RecordStatus(ctx, driverID, step.s, step.at)
		require.NoError(t, err)
	}
	trip := f.addTrip(driverID, at(0, 7, 0), 400)

	rec, err := f.svc.BuildDailyLog(ctx, driverID, at(0, 13, 0))

	require.NoError(t, err)
	assert.Equal(t, at(0, 0, 0), rec.Date, "date is truncated to the calendar day")
	assert.InDelta(t, 6.0, rec.OffDutyHours, 1e-9)
	assert.InDelta(t, 1.0, rec.OnDutyHours, 1e-9)
	assert.InDelta(t, 8.5, rec.DrivingHours, 1e-9)
	assert.InDelta(t, 8.5, rec.SleeperBerthHours, 1e-9)
	assert.InDelta(t, 24.0, rec.TotalHours(), 1e-9)
	assert.InDelta(t, 400.0, rec.MilesToday, 1e-6)
	assert.InDelta(t, 400.0, rec.CumulativeMileage, 1e-6)
	assert.Equal(t, []uuid.UUID{trip.ID}, rec.TripIDs)
}

func TestDailyLogService_BuildDailyLog_CurrentDayStopsAtNow(t *testing.T) {
	f := newDailyLogFixture(at(0, 10, 0))
	ctx := context.Background()
	driverID := uuid.New()

	_, err := f.timeline.RecordStatus(ctx, driverID, domain.StatusOnDuty, at(0, 8, 0))
	require.NoError(t, err)

	rec, err := f.svc.BuildDailyLog(ctx, driverID, at(0, 0, 0))

	require.NoError(t, err)
	assert.InDelta(t, 2.0, rec.OnDutyHours, 1e-9)
	assert.InDelta(t, 2.0, rec.TotalHours(), 1e-9)
}

func TestDailyLogService_BuildDailyLog_MileageChainRepair(t *testing.T) {
	f := newDailyLogFixture(at(10, 0, 0))
	ctx := context.Background()
	driverID := uuid.New()

	day1Trip := f.addTrip(driverID, at(0, 8, 0), 100)
	f.addTrip(driverID, at(1, 8, 0), 150)

	day1, err := f.svc.BuildDailyLog(ctx, driverID, at(0, 0, 0))
	require.NoError(t, err)
	assert.InDelta(t, 100.0, day1.CumulativeMileage, 1e-6)

	day2, err := f.svc.BuildDailyLog(ctx, driverID, at(1, 0, 0))
	require.NoError(t, err)
	assert.InDelta(t, 250.0, day2.CumulativeMileage, 1e-6)

	// Correct the first day's distance to 80 miles and rebuild it.
	for i := range *f.trips {
		if (*f.trips)[i].ID == day1Trip.ID {
			(*f.trips)[i].DistanceKm = 80 / domain.KmToMiles
		}
	}
	day1, err = f.svc.BuildDailyLog(ctx, driverID, at(0, 0, 0))
	require.NoError(t, err)
	assert.InDelta(t, 80.0, day1.CumulativeMileage, 1e-6)

	day2, err = f.svc.GetDailyLog(ctx, driverID, at(1, 0, 0))
	require.NoError(t, err)
	assert.InDelta(t, 150.0, day2.MilesToday, 1e-6)
	assert.InDelta(t, 230.0, day2.CumulativeMileage, 1e-6)
}

func TestDailyLogService_BuildDailyLog_FailedSaveKeepsChain(t *testing.T) {
	f := newDailyLogFixture(at(10, 0, 0))
	ctx := context.Background()
	driverID := uuid.New()

	f.addTrip(driverID, at(0, 8, 0), 100)
	f.addTrip(driverID, at(1, 8, 0), 150)
	_, err := f.svc.BuildDailyLog(ctx, driverID, at(0, 0, 0))
	require.NoError(t, err)
	_, err = f.svc.BuildDailyLog(ctx, driverID, at(1, 0, 0))
	require.NoError(t, err)

	f.addTrip(driverID, at(0, 18, 0), 50)
	f.logs.saveErr = errors.New("serialization failure")
	_, err = f.svc.BuildDailyLog(ctx, driverID, at(0, 0, 0))
	require.Error(t, err)

	day2, err := f.svc.GetDailyLog(ctx, driverID, at(1, 0, 0))
	require.NoError(t, err)
	assert.InDelta(t, 250.0, day2.CumulativeMileage, 1e-6)
}

func TestDailyLogService_BuildDailyLog_HoursExceeded(t *testing.T) {
	f := newDailyLogFixture(at(5, 0, 0))
	driverID := uuid.New()

	// Overlapping rows can only come from a corrupt store.
	end := at(1, 0, 0)
	f.statuses.intervals[driverID] = []domain.StatusInterval{
		{ID: uuid.New(), DriverID: driverID, Status: domain.StatusDriving, Start: at(0, 0, 0), End: &end},
		{ID: uuid.New(), DriverID: driverID, Status: domain.StatusOnDuty, Start: at(0, 12, 0), End: &end},
	}

	_, err := f.svc.BuildDailyLog(context.Background(), driverID, at(0, 0, 0))

	assert.ErrorIs(t, err, domain.ErrHoursExceeded)
	assert.Zero(t, f.logs.saves, "nothing is written")
}

func TestDailyLogService_BuildDailyLog_NilDriver(t *testing.T) {
	f := newDailyLogFixture(at(5, 0, 0))

	_, err := f.svc.BuildDailyLog(context.Background(), uuid.Nil, at(0, 0, 0))

	assert.ErrorIs(t, err, domain.ErrValidation)
}

func TestDailyLogService_GetDailyLog_NotFound(t *testing.T) {
	f := newDailyLogFixture(at(5, 0, 0))

	_, err := f.svc.GetDailyLog(context.Background(), uuid.New(), at(0, 0, 0))

	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestDailyLogService_ListDailyLogs(t *testing.T) {
	f := newDailyLogFixture(at(10, 0, 0))
	ctx := context.Background()
	driverID := uuid.New()
	for d := 0; d < 3; d++ {
		_, err := f.svc.BuildDailyLog(ctx, driverID, at(d, 0, 0))
		require.NoError(t, err)
	}

	got, err := f.svc.ListDailyLogs(ctx, driverID, at(1, 0, 0), at(2, 0, 0))
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, at(1, 0, 0), got[0].Date)

	_, err = f.svc.ListDailyLogs(ctx, driverID, at(2, 0, 0), at(1, 0, 0))
	assert.ErrorIs(t, err, domain.ErrValidation)
}

func TestDailyLogService_Report(t *testing.T) {
	f := newDailyLogFixture(at(10, 0, 0))
	ctx := context.Background()
	driverID := uuid.New()
	trip := f.addTrip(driverID, at(0, 8, 0), 120)
	_, err := f.svc.BuildDailyLog(ctx, driverID, at(0, 0, 0))
	require.NoError(t, err)

	report, err := f.svc.Report(ctx, driverID, at(0, 0, 0))

	require.NoError(t, err)
	assert.Equal(t, "Prairie Freight", report.Carrier.Name)
	assert.InDelta(t, 120.0, report.Log.MilesToday, 1e-6)
	require.Len(t, report.Trips, 1)
	assert.Equal(t, trip.ID, report.Trips[0].TripID)
	assert.InDelta(t, 120.0, report.Trips[0].Miles, 1e-6)
	assert.InDelta(t, 2.0, report.Trips[0].DurationHours, 1e-9)
}
