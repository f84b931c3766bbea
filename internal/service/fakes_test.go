package service_test

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/pkordes/hos-logbook/internal/domain"
	"github.com/pkordes/hos-logbook/internal/repo"
)

// memStatusRepo is an in-memory repo.StatusRepo with the same append
// semantics as the Postgres one.
type memStatusRepo struct {
	mu        sync.Mutex
	intervals map[uuid.UUID][]domain.StatusInterval
	listErr   error
}

func newMemStatusRepo() *memStatusRepo {
	return &memStatusRepo{intervals: make(map[uuid.UUID][]domain.StatusInterval)}
}

func (m *memStatusRepo) Current(_ context.Context, driverID uuid.UUID) (domain.StatusInterval, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	ivs := m.intervals[driverID]
	if len(ivs) == 0 {
		return domain.StatusInterval{}, domain.ErrNotFound
	}
	return ivs[len(ivs)-1], nil
}

func (m *memStatusRepo) ListOverlapping(_ context.Context, driverID uuid.UUID, from, to time.Time) ([]domain.StatusInterval, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.listErr != nil {
		return nil, m.listErr
	}
	var out []domain.StatusInterval
	for _, iv := range m.intervals[driverID] {
		if iv.Start.Before(to) && (iv.End == nil || iv.End.After(from)) {
			out = append(out, iv)
		}
	}
	return out, nil
}

func (m *memStatusRepo) Append(_ context.Context, next domain.StatusInterval) (domain.StatusInterval, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	ivs := m.intervals[next.DriverID]
	if n := len(ivs); n > 0 {
		if next.Start.Before(ivs[n-1].Start) {
			return domain.StatusInterval{}, domain.ErrOutOfOrder
		}
		end := next.Start
		ivs[n-1].End = &end
	}
	next.ID = uuid.New()
	next.CreatedAt = next.Start
	m.intervals[next.DriverID] = append(ivs, next)
	return next, nil
}

// snapshot returns a deep copy of the driver's intervals.
func (m *memStatusRepo) snapshot(driverID uuid.UUID) []domain.StatusInterval {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]domain.StatusInterval, len(m.intervals[driverID]))
	for i, iv := range m.intervals[driverID] {
		if iv.End != nil {
			end := *iv.End
			iv.End = &end
		}
		out[i] = iv
	}
	return out
}

var _ repo.StatusRepo = (*memStatusRepo)(nil)

// mockTripRepo is a hand-written test double for repo.TripRepo.
// Each method is a function field; set only the ones your test needs.
type mockTripRepo struct {
	create              func(ctx context.Context, trip domain.Trip) (domain.Trip, error)
	getByID             func(ctx context.Context, id uuid.UUID) (domain.Trip, error)
	listByDriverPaged   func(ctx context.Context, driverID uuid.UUID, p domain.PaginationParams) ([]domain.Trip, int64, error)
	listStartingBetween func(ctx context.Context, driverID uuid.UUID, from, to time.Time) ([]domain.Trip, error)
}

func (m *mockTripRepo) Create(ctx context.Context, trip domain.Trip) (domain.Trip, error) {
	return m.create(ctx, trip)
}
func (m *mockTripRepo) GetByID(ctx context.Context, id uuid.UUID) (domain.Trip, error) {
	return m.getByID(ctx, id)
}
func (m *mockTripRepo) ListByDriverPaged(ctx context.Context, driverID uuid.UUID, p domain.PaginationParams) ([]domain.Trip, int64, error) {
	return m.listByDriverPaged(ctx, driverID, p)
}
func (m *mockTripRepo) ListStartingBetween(ctx context.Context, driverID uuid.UUID, from, to time.Time) ([]domain.Trip, error) {
	return m.listStartingBetween(ctx, driverID, from, to)
}

var _ repo.TripRepo = (*mockTripRepo)(nil)

// tripsOn returns a mockTripRepo whose ListStartingBetween filters trips.
func tripsOn(trips *[]domain.Trip) *mockTripRepo {
	return &mockTripRepo{
		listStartingBetween: func(_ context.Context, driverID uuid.UUID, from, to time.Time) ([]domain.Trip, error) {
			var out []domain.Trip
			for _, t := range *trips {
				if t.DriverID == driverID && !t.Start.Before(from) && t.Start.Before(to) {
					out = append(out, t)
				}
			}
			return out, nil
		},
	}
}

// memDailyLogRepo is an in-memory repo.DailyLogRepo. Setting saveErr makes
// SaveChain fail without writing anything.
type memDailyLogRepo struct {
	mu      sync.Mutex
	records map[uuid.UUID]map[time.Time]domain.DailyLogRecord
	saveErr error
	saves   int
}

func newMemDailyLogRepo() *memDailyLogRepo {
	return &memDailyLogRepo{records: make(map[uuid.UUID]map[time.Time]domain.DailyLogRecord)}
}

func (m *memDailyLogRepo) sorted(driverID uuid.UUID, keep func(time.Time) bool) []domain.DailyLogRecord {
	var out []domain.DailyLogRecord
	for d, r := range m.records[driverID] {
		if keep(d) {
			out = append(out, r)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Date.Before(out[j].Date) })
	return out
}

func (m *memDailyLogRepo) GetByDate(_ context.Context, driverID uuid.UUID, date time.Time) (domain.DailyLogRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	r, ok := m.records[driverID][date]
	if !ok {
		return domain.DailyLogRecord{}, domain.ErrNotFound
	}
	return r, nil
}

func (m *memDailyLogRepo) LatestBefore(_ context.Context, driverID uuid.UUID, date time.Time) (domain.DailyLogRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	before := m.sorted(driverID, func(d time.Time) bool { return d.Before(date) })
	if len(before) == 0 {
		return domain.DailyLogRecord{}, domain.ErrNotFound
	}
	return before[len(before)-1], nil
}

func (m *memDailyLogRepo) ListAfter(_ context.Context, driverID uuid.UUID, date time.Time) ([]domain.DailyLogRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.sorted(driverID, func(d time.Time) bool { return d.After(date) }), nil
}

func (m *memDailyLogRepo) ListRange(_ context.Context, driverID uuid.UUID, from, to time.Time) ([]domain.DailyLogRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.sorted(driverID, func(d time.Time) bool { return !d.Before(from) && !d.After(to) }), nil
}

func (m *memDailyLogRepo) SaveChain(_ context.Context, records []domain.DailyLogRecord) ([]domain.DailyLogRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.saveErr != nil {
		return nil, m.saveErr
	}
	m.saves++
	out := make([]domain.DailyLogRecord, len(records))
	for i, r := range records {
		if m.records[r.DriverID] == nil {
			m.records[r.DriverID] = make(map[time.Time]domain.DailyLogRecord)
		}
		r.UpdatedAt = time.Now()
		m.records[r.DriverID][r.Date] = r
		out[i] = r
	}
	return out, nil
}

var _ repo.DailyLogRepo = (*memDailyLogRepo)(nil)

// mockRouting is a func-field service.RoutingProvider.
type mockRouting struct {
	route func(ctx context.Context, waypoints []domain.LatLon) (domain.Route, error)
}

func (m *mockRouting) Route(ctx context.Context, waypoints []domain.LatLon) (domain.Route, error) {
	return m.route(ctx, waypoints)
}

// ---- helpers ---------------------------------------------------------------

// at returns 2025-01-01 h:m UTC shifted by days.
func at(days, h, m int) time.Time {
	return time.Date(2025, 1, 1+days, h, m, 0, 0, time.UTC)
}

func fixedClock(t time.Time) domain.Clock {
	return domain.ClockFunc(func() time.Time { return t })
}
