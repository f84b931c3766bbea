package repo_test

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pkordes/hos-logbook/internal/domain"
	"github.com/pkordes/hos-logbook/internal/repo"
	"github.com/pkordes/hos-logbook/testutil"
)

func newTestTx(t *testing.T) pgx.Tx {
	t.Helper()
	return testutil.NewTx(t)
}

// tripFixture returns a domain.Trip with sensible defaults for use in tests.
// Callers can override individual fields after calling this function.
func tripFixture(driverID uuid.UUID) domain.Trip {
	start := time.Date(2025, 1, 1, 8, 0, 0, 0, time.UTC)
	end := start.Add(9*time.Hour + 30*time.Minute)
	return domain.Trip{
		DriverID:      driverID,
		Origin:        domain.LatLon{Lat: 41.8781, Lon: -87.6298},
		Destination:   domain.LatLon{Lat: 39.7392, Lon: -104.9903},
		Waypoints:     []domain.LatLon{{Lat: 41.8781, Lon: -87.6298}, {Lat: 41.2565, Lon: -95.9345}, {Lat: 39.7392, Lon: -104.9903}},
		Start:         start,
		End:           &end,
		DistanceKm:    1610.2,
		DurationHours: 9.5,
		CycleType:     domain.Cycle70Hour8Day,
	}
}

func TestTripRepo_Create(t *testing.T) {
	r := repo.NewTripRepo(newTestTx(t))
	ctx := context.Background()

	input := tripFixture(uuid.New())
	got, err := r.Create(ctx, input)

	require.NoError(t, err)
	assert.NotEqual(t, uuid.Nil, got.ID, "ID should be DB-generated UUID")
	assert.Equal(t, input.DriverID, got.DriverID)
	assert.Equal(t, input.Origin, got.Origin)
	assert.Equal(t, input.Waypoints, got.Waypoints)
	assert.True(t, got.Start.Equal(input.Start), "Start mismatch")
	require.NotNil(t, got.End)
	assert.True(t, got.End.Equal(*input.End), "End mismatch")
	assert.InDelta(t, input.DistanceKm, got.DistanceKm, 1e-9)
	assert.Equal(t, domain.Cycle70Hour8Day, got.CycleType)
	assert.False(t, got.CreatedAt.IsZero(), "CreatedAt should be set by DB")
}

func TestTripRepo_GetByID_NotFound(t *testing.T) {
	r := repo.NewTripRepo(newTestTx(t))

	_, err := r.GetByID(context.Background(), uuid.New())

	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestTripRepo_ListByDriverPaged(t *testing.T) {
	r := repo.NewTripRepo(newTestTx(t))
	ctx := context.Background()
	driverID := uuid.New()

	for i := 0; i < 3; i++ {
		trip := tripFixture(driverID)
		trip.Start = trip.Start.AddDate(0, 0, i)
		_, err := r.Create(ctx, trip)
		require.NoError(t, err)
	}
	_, err := r.Create(ctx, tripFixture(uuid.New())) // another driver
	require.NoError(t, err)

	got, total, err := r.ListByDriverPaged(ctx, driverID, domain.PaginationParams{Page: 1, Limit: 2})

	require.NoError(t, err)
	assert.EqualValues(t, 3, total)
	require.Len(t, got, 2)
	assert.True(t, got[0].Start.After(got[1].Start), "expected most recent first")
}

func TestTripRepo_ListStartingBetween(t *testing.T) {
	r := repo.NewTripRepo(newTestTx(t))
	ctx := context.Background()
	driverID := uuid.New()

	day1 := tripFixture(driverID)
	day2 := tripFixture(driverID)
	day2.Start = day2.Start.AddDate(0, 0, 1)
	for _, trip := range []domain.Trip{day1, day2} {
		_, err := r.Create(ctx, trip)
		require.NoError(t, err)
	}

	from := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	got, err := r.ListStartingBetween(ctx, driverID, from, from.Add(24*time.Hour))

	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.True(t, got[0].Start.Equal(day1.Start))
}
