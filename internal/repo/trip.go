package repo

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"

	"github.com/pkordes/hos-logbook/internal/domain"
)

// TripRepo defines the persistence operations for Trips.
// The service layer depends on this interface, not the concrete Postgres implementation,
// which allows the service to be unit-tested with a mock.
type TripRepo interface {
	// Create inserts a new trip and returns the persisted record (with DB-generated
	// id and created_at populated).
	Create(ctx context.Context, trip domain.Trip) (domain.Trip, error)

	// GetByID retrieves a single trip by its UUID primary key.
	// Returns domain.ErrNotFound if no trip with that ID exists.
	GetByID(ctx context.Context, id uuid.UUID) (domain.Trip, error)

	// ListByDriverPaged returns one page of a driver's trips ordered by start
	// descending, plus the total number of trips for that driver.
	ListByDriverPaged(ctx context.Context, driverID uuid.UUID, p domain.PaginationParams) ([]domain.Trip, int64, error)

	// ListStartingBetween returns a driver's trips whose start falls in
	// [from, to), ordered by start ascending.
	ListStartingBetween(ctx context.Context, driverID uuid.UUID, from, to time.Time) ([]domain.Trip, error)
}

// pgTripRepo is the Postgres implementation of TripRepo.
type pgTripRepo struct {
	db db
}

// NewTripRepo constructs a TripRepo backed by the provided db connection.
// In production pass *pgxpool.Pool; in tests pass a pgx.Tx for rollback isolation.
func NewTripRepo(db db) TripRepo {
	return &pgTripRepo{db: db}
}

const tripColumns = `id, driver_id, origin_lat, origin_lon, destination_lat, destination_lon,
	waypoints, start_at, end_at, distance_km, duration_hours, cycle_type, created_at`

// Create inserts a new trip row and returns the full persisted record.
func (r *pgTripRepo) Create(ctx context.Context, trip domain.Trip) (domain.Trip, error) {
	q := `
		INSERT INTO trips (driver_id, origin_lat, origin_lon, destination_lat, destination_lon,
		                   waypoints, start_at, end_at, distance_km, duration_hours, cycle_type)
		VALUES (@driver_id, @origin_lat, @origin_lon, @destination_lat, @destination_lon,
		        @waypoints, @start_at, @end_at, @distance_km, @duration_hours, @cycle_type)
		RETURNING ` + tripColumns

	waypoints := trip.Waypoints
	if waypoints == nil {
		waypoints = []domain.LatLon{}
	}

	args := pgx.NamedArgs{
		"driver_id":       trip.DriverID,
		"origin_lat":      trip.Origin.Lat,
		"origin_lon":      trip.Origin.Lon,
		"destination_lat": trip.Destination.Lat,
		"destination_lon": trip.Destination.Lon,
		"waypoints":       waypoints, // encoded as jsonb
		"start_at":        trip.Start,
		"end_at":          trip.End, // nil becomes NULL
		"distance_km":     trip.DistanceKm,
		"duration_hours":  trip.DurationHours,
		"cycle_type":      string(trip.CycleType),
	}

	result, err := scanTrip(r.db.QueryRow(ctx, q, args))
	if err != nil {
		return domain.Trip{}, fmt.Errorf("repo.TripRepo.Create: %w", err)
	}
	return result, nil
}

// GetByID retrieves a trip by primary key.
func (r *pgTripRepo) GetByID(ctx context.Context, id uuid.UUID) (domain.Trip, error) {
	q := `SELECT ` + tripColumns + ` FROM trips WHERE id = @id`

	result, err := scanTrip(r.db.QueryRow(ctx, q, pgx.NamedArgs{"id": id}))
	if err != nil {
		return domain.Trip{}, fmt.Errorf("repo.TripRepo.GetByID: %w", err)
	}
	return result, nil
}

// ListByDriverPaged returns one page of trips (most recent first) and the total count.
func (r *pgTripRepo) ListByDriverPaged(ctx context.Context, driverID uuid.UUID, p domain.PaginationParams) ([]domain.Trip, int64, error) {
	var total int64
	const countQ = `SELECT count(*) FROM trips WHERE driver_id = @driver_id`
	if err := r.db.QueryRow(ctx, countQ, pgx.NamedArgs{"driver_id": driverID}).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("repo.TripRepo.ListByDriverPaged: count: %w", err)
	}

	q := `SELECT ` + tripColumns + `
		FROM trips
		WHERE driver_id = @driver_id
		ORDER BY start_at DESC
		LIMIT @limit OFFSET @offset`

	trips, err := r.list(ctx, q, pgx.NamedArgs{"driver_id": driverID, "limit": p.Limit, "offset": p.Offset()})
	if err != nil {
		return nil, 0, fmt.Errorf("repo.TripRepo.ListByDriverPaged: %w", err)
	}
	return trips, total, nil
}

// ListStartingBetween returns trips whose start_at lies in [from, to).
func (r *pgTripRepo) ListStartingBetween(ctx context.Context, driverID uuid.UUID, from, to time.Time) ([]domain.Trip, error) {
	q := `SELECT ` + tripColumns + `
		FROM trips
		WHERE driver_id = @driver_id AND start_at >= @from AND start_at < @to
		ORDER BY start_at`

	trips, err := r.list(ctx, q, pgx.NamedArgs{"driver_id": driverID, "from": from, "to": to})
	if err != nil {
		return nil, fmt.Errorf("repo.TripRepo.ListStartingBetween: %w", err)
	}
	return trips, nil
}

func (r *pgTripRepo) list(ctx context.Context, q string, args pgx.NamedArgs) ([]domain.Trip, error) {
	rows, err := r.db.Query(ctx, q, args)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	trips := []domain.Trip{}
	for rows.Next() {
		t, err := scanTrip(rows)
		if err != nil {
			return nil, fmt.Errorf("scan: %w", err)
		}
		trips = append(trips, t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows: %w", err)
	}
	return trips, nil
}

// scanTrip maps a single database row into a domain.Trip.
// It handles the UUID, jsonb waypoint and nullable end_at conversions.
func scanTrip(s scanner) (domain.Trip, error) {
	var (
		t        domain.Trip
		id       pgtype.UUID
		driverID pgtype.UUID
		endAt    pgtype.Timestamptz
		cycle    string
	)

	err := s.Scan(
		&id, &driverID,
		&t.Origin.Lat, &t.Origin.Lon, &t.Destination.Lat, &t.Destination.Lon,
		&t.Waypoints, &t.Start, &endAt, &t.DistanceKm, &t.DurationHours, &cycle, &t.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.Trip{}, domain.ErrNotFound
		}
		return domain.Trip{}, err
	}

	t.ID = uuid.UUID(id.Bytes)
	t.DriverID = uuid.UUID(driverID.Bytes)
	t.CycleType = domain.CycleType(cycle)
	if endAt.Valid {
		end := endAt.Time
		t.End = &end
	}
	return t, nil
}
