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

// StatusRepo defines the persistence operations for a driver's duty-status timeline.
// Intervals are append-only: the only update ever issued closes the open interval.
type StatusRepo interface {
	// Current returns the driver's open interval.
	// Returns domain.ErrNotFound if the driver has no intervals yet.
	Current(ctx context.Context, driverID uuid.UUID) (domain.StatusInterval, error)

	// ListOverlapping returns every interval that overlaps [from, to), ordered
	// by start time. Open intervals overlap any range that ends after their start.
	ListOverlapping(ctx context.Context, driverID uuid.UUID, from, to time.Time) ([]domain.StatusInterval, error)

	// Append closes the driver's open interval at next.Start and inserts next
	// as the new open interval, in a single transaction.
	// Returns domain.ErrOutOfOrder if next.Start precedes the open interval's start.
	Append(ctx context.Context, next domain.StatusInterval) (domain.StatusInterval, error)
}

// pgStatusRepo is the Postgres implementation of StatusRepo.
type pgStatusRepo struct {
	db db
}

// NewStatusRepo constructs a StatusRepo backed by the provided db connection.
// In production pass *pgxpool.Pool; in tests pass a pgx.Tx for rollback isolation.
func NewStatusRepo(db db) StatusRepo {
	return &pgStatusRepo{db: db}
}

const statusColumns = `id, driver_id, status, start_at, end_at, created_at`

// Current reads the single row with a NULL end_at for the driver.
func (r *pgStatusRepo) Current(ctx context.Context, driverID uuid.UUID) (domain.StatusInterval, error) {
	q := `SELECT ` + statusColumns + `
		FROM status_intervals
		WHERE driver_id = @driver_id AND end_at IS NULL`

	result, err := scanStatus(r.db.QueryRow(ctx, q, pgx.NamedArgs{"driver_id": driverID}))
	if err != nil {
		return domain.StatusInterval{}, fmt.Errorf("repo.StatusRepo.Current: %w", err)
	}
	return result, nil
}

// ListOverlapping returns intervals overlapping [from, to) ordered by start_at.
func (r *pgStatusRepo) ListOverlapping(ctx context.Context, driverID uuid.UUID, from, to time.Time) ([]domain.StatusInterval, error) {
	q := `SELECT ` + statusColumns + `
		FROM status_intervals
		WHERE driver_id = @driver_id
		  AND start_at < @to
		  AND (end_at IS NULL OR end_at > @from)
		ORDER BY start_at`

	rows, err := r.db.Query(ctx, q, pgx.NamedArgs{"driver_id": driverID, "from": from, "to": to})
	if err != nil {
		return nil, fmt.Errorf("repo.StatusRepo.ListOverlapping: %w", err)
	}
	defer rows.Close()

	intervals := []domain.StatusInterval{}
	for rows.Next() {
		iv, err := scanStatus(rows)
		if err != nil {
			return nil, fmt.Errorf("repo.StatusRepo.ListOverlapping: scan: %w", err)
		}
		intervals = append(intervals, iv)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("repo.StatusRepo.ListOverlapping: rows: %w", err)
	}
	return intervals, nil
}

// Append runs close-then-insert under a per-driver advisory lock. The open
// interval is re-read with FOR UPDATE inside the transaction so the ordering
// check and the write see the same state.
func (r *pgStatusRepo) Append(ctx context.Context, next domain.StatusInterval) (domain.StatusInterval, error) {
	var result domain.StatusInterval

	err := pgx.BeginFunc(ctx, r.db, func(tx pgx.Tx) error {
		if err := lockDriver(ctx, tx, next.DriverID.String()); err != nil {
			return fmt.Errorf("lock driver: %w", err)
		}

		q := `SELECT ` + statusColumns + `
			FROM status_intervals
			WHERE driver_id = @driver_id AND end_at IS NULL
			FOR UPDATE`
		current, err := scanStatus(tx.QueryRow(ctx, q, pgx.NamedArgs{"driver_id": next.DriverID}))
		switch {
		case errors.Is(err, domain.ErrNotFound):
			// first status for this driver
		case err != nil:
			return fmt.Errorf("read open interval: %w", err)
		default:
			if next.Start.Before(current.Start) {
				return fmt.Errorf("%w: %s precedes open interval start %s",
					domain.ErrOutOfOrder, next.Start.Format(time.RFC3339), current.Start.Format(time.RFC3339))
			}
			const closeQ = `UPDATE status_intervals SET end_at = @end_at WHERE id = @id`
			if _, err := tx.Exec(ctx, closeQ, pgx.NamedArgs{"id": current.ID, "end_at": next.Start}); err != nil {
				return fmt.Errorf("close open interval: %w", err)
			}
		}

		insertQ := `
			INSERT INTO status_intervals (driver_id, status, start_at)
			VALUES (@driver_id, @status, @start_at)
			RETURNING ` + statusColumns
		result, err = scanStatus(tx.QueryRow(ctx, insertQ, pgx.NamedArgs{
			"driver_id": next.DriverID,
			"status":    string(next.Status),
			"start_at":  next.Start,
		}))
		if err != nil {
			return fmt.Errorf("insert interval: %w", err)
		}
		return nil
	})
	if err != nil {
		return domain.StatusInterval{}, fmt.Errorf("repo.StatusRepo.Append: %w", err)
	}
	return result, nil
}

// scanStatus maps a single database row into a domain.StatusInterval.
func scanStatus(s scanner) (domain.StatusInterval, error) {
	var (
		iv       domain.StatusInterval
		id       pgtype.UUID
		driverID pgtype.UUID
		status   string
		endAt    pgtype.Timestamptz
	)

	err := s.Scan(&id, &driverID, &status, &iv.Start, &endAt, &iv.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.StatusInterval{}, domain.ErrNotFound
		}
		return domain.StatusInterval{}, err
	}

	iv.ID = uuid.UUID(id.Bytes)
	iv.DriverID = uuid.UUID(driverID.Bytes)
	iv.Status = domain.DutyStatus(status)
	if endAt.Valid {
		end := endAt.Time
		iv.End = &end
	}
	return iv, nil
}
