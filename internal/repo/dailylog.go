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

// DailyLogRepo defines the persistence operations for daily log records and
// their trip links. Records are unique per (driver, date).
type DailyLogRepo interface {
	// GetByDate returns the driver's record for date.
	// Returns domain.ErrNotFound if none exists.
	GetByDate(ctx context.Context, driverID uuid.UUID, date time.Time) (domain.DailyLogRecord, error)

	// LatestBefore returns the most recent record strictly before date.
	// Returns domain.ErrNotFound if there is none.
	LatestBefore(ctx context.Context, driverID uuid.UUID, date time.Time) (domain.DailyLogRecord, error)

	// ListAfter returns every record strictly after date, ordered by date ascending.
	ListAfter(ctx context.Context, driverID uuid.UUID, date time.Time) ([]domain.DailyLogRecord, error)

	// ListRange returns records with from <= date <= to, ordered by date ascending.
	ListRange(ctx context.Context, driverID uuid.UUID, from, to time.Time) ([]domain.DailyLogRecord, error)

	// SaveChain upserts every record and replaces each record's trip links
	// in one transaction. Either all records are written or none are.
	SaveChain(ctx context.Context, records []domain.DailyLogRecord) ([]domain.DailyLogRecord, error)
}

// pgDailyLogRepo is the Postgres implementation of DailyLogRepo.
type pgDailyLogRepo struct {
	db db
}

// NewDailyLogRepo constructs a DailyLogRepo backed by the provided db connection.
func NewDailyLogRepo(db db) DailyLogRepo {
	return &pgDailyLogRepo{db: db}
}

// dailyLogSelect aggregates linked trip ids alongside each row.
const dailyLogSelect = `
	SELECT d.driver_id, d.log_date, d.driving_hours, d.on_duty_hours, d.off_duty_hours,
	       d.sleeper_berth_hours, d.miles_today, d.cumulative_mileage, d.updated_at,
	       COALESCE(array_agg(l.trip_id ORDER BY l.trip_id) FILTER (WHERE l.trip_id IS NOT NULL), '{}')
	FROM daily_logs d
	LEFT JOIN daily_log_trips l ON l.driver_id = d.driver_id AND l.log_date = d.log_date`

const dailyLogGroup = `
	GROUP BY d.driver_id, d.log_date`

func (r *pgDailyLogRepo) GetByDate(ctx context.Context, driverID uuid.UUID, date time.Time) (domain.DailyLogRecord, error) {
	q := dailyLogSelect + `
		WHERE d.driver_id = @driver_id AND d.log_date = @log_date` + dailyLogGroup

	result, err := scanDailyLog(r.db.QueryRow(ctx, q, pgx.NamedArgs{"driver_id": driverID, "log_date": date}))
	if err != nil {
		return domain.DailyLogRecord{}, fmt.Errorf("repo.DailyLogRepo.GetByDate: %w", err)
	}
	return result, nil
}

func (r *pgDailyLogRepo) LatestBefore(ctx context.Context, driverID uuid.UUID, date time.Time) (domain.DailyLogRecord, error) {
	q := dailyLogSelect + `
		WHERE d.driver_id = @driver_id AND d.log_date < @log_date` + dailyLogGroup + `
		ORDER BY d.log_date DESC
		LIMIT 1`

	result, err := scanDailyLog(r.db.QueryRow(ctx, q, pgx.NamedArgs{"driver_id": driverID, "log_date": date}))
	if err != nil {
		return domain.DailyLogRecord{}, fmt.Errorf("repo.DailyLogRepo.LatestBefore: %w", err)
	}
	return result, nil
}

func (r *pgDailyLogRepo) ListAfter(ctx context.Context, driverID uuid.UUID, date time.Time) ([]domain.DailyLogRecord, error) {
	q := dailyLogSelect + `
		WHERE d.driver_id = @driver_id AND d.log_date > @log_date` + dailyLogGroup + `
		ORDER BY d.log_date`

	records, err := r.list(ctx, q, pgx.NamedArgs{"driver_id": driverID, "log_date": date})
	if err != nil {
		return nil, fmt.Errorf("repo.DailyLogRepo.ListAfter: %w", err)
	}
	return records, nil
}

func (r *pgDailyLogRepo) ListRange(ctx context.Context, driverID uuid.UUID, from, to time.Time) ([]domain.DailyLogRecord, error) {
	q := dailyLogSelect + `
		WHERE d.driver_id = @driver_id AND d.log_date BETWEEN @from AND @to` + dailyLogGroup + `
		ORDER BY d.log_date`

	records, err := r.list(ctx, q, pgx.NamedArgs{"driver_id": driverID, "from": from, "to": to})
	if err != nil {
		return nil, fmt.Errorf("repo.DailyLogRepo.ListRange: %w", err)
	}
	return records, nil
}

// SaveChain writes all records inside one transaction, holding the driver's
// advisory lock so readers never observe a half-repaired mileage chain.
func (r *pgDailyLogRepo) SaveChain(ctx context.Context, records []domain.DailyLogRecord) ([]domain.DailyLogRecord, error) {
	if len(records) == 0 {
		return []domain.DailyLogRecord{}, nil
	}

	const upsertQ = `
		INSERT INTO daily_logs (driver_id, log_date, driving_hours, on_duty_hours, off_duty_hours,
		                        sleeper_berth_hours, miles_today, cumulative_mileage)
		VALUES (@driver_id, @log_date, @driving_hours, @on_duty_hours, @off_duty_hours,
		        @sleeper_berth_hours, @miles_today, @cumulative_mileage)
		ON CONFLICT (driver_id, log_date) DO UPDATE
		SET driving_hours       = EXCLUDED.driving_hours,
		    on_duty_hours       = EXCLUDED.on_duty_hours,
		    off_duty_hours      = EXCLUDED.off_duty_hours,
		    sleeper_berth_hours = EXCLUDED.sleeper_berth_hours,
		    miles_today         = EXCLUDED.miles_today,
		    cumulative_mileage  = EXCLUDED.cumulative_mileage,
		    updated_at          = now()
		RETURNING updated_at`
	const unlinkQ = `DELETE FROM daily_log_trips WHERE driver_id = @driver_id AND log_date = @log_date`
	const linkQ = `
		INSERT INTO daily_log_trips (driver_id, log_date, trip_id)
		VALUES (@driver_id, @log_date, @trip_id)
		ON CONFLICT DO NOTHING`

	out := make([]domain.DailyLogRecord, len(records))
	copy(out, records)

	err := pgx.BeginFunc(ctx, r.db, func(tx pgx.Tx) error {
		locked := map[uuid.UUID]bool{}
		for i := range out {
			rec := &out[i]
			if !locked[rec.DriverID] {
				if err := lockDriver(ctx, tx, rec.DriverID.String()); err != nil {
					return fmt.Errorf("lock driver: %w", err)
				}
				locked[rec.DriverID] = true
			}

			key := pgx.NamedArgs{"driver_id": rec.DriverID, "log_date": rec.Date}
			err := tx.QueryRow(ctx, upsertQ, pgx.NamedArgs{
				"driver_id":           rec.DriverID,
				"log_date":            rec.Date,
				"driving_hours":       rec.DrivingHours,
				"on_duty_hours":       rec.OnDutyHours,
				"off_duty_hours":      rec.OffDutyHours,
				"sleeper_berth_hours": rec.SleeperBerthHours,
				"miles_today":         rec.MilesToday,
				"cumulative_mileage":  rec.CumulativeMileage,
			}).Scan(&rec.UpdatedAt)
			if err != nil {
				return fmt.Errorf("upsert %s: %w", rec.Date.Format(time.DateOnly), err)
			}

			if _, err := tx.Exec(ctx, unlinkQ, key); err != nil {
				return fmt.Errorf("unlink trips %s: %w", rec.Date.Format(time.DateOnly), err)
			}
			for _, tripID := range rec.TripIDs {
				if _, err := tx.Exec(ctx, linkQ, pgx.NamedArgs{
					"driver_id": rec.DriverID,
					"log_date":  rec.Date,
					"trip_id":   tripID,
				}); err != nil {
					return fmt.Errorf("link trip %s: %w", tripID, err)
				}
			}
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("repo.DailyLogRepo.SaveChain: %w", err)
	}
	return out, nil
}

func (r *pgDailyLogRepo) list(ctx context.Context, q string, args pgx.NamedArgs) ([]domain.DailyLogRecord, error) {
	rows, err := r.db.Query(ctx, q, args)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	records := []domain.DailyLogRecord{}
	for rows.Next() {
		rec, err := scanDailyLog(rows)
		if err != nil {
			return nil, fmt.Errorf("scan: %w", err)
		}
		records = append(records, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows: %w", err)
	}
	return records, nil
}

// scanDailyLog maps a single aggregated row into a domain.DailyLogRecord.
func scanDailyLog(s scanner) (domain.DailyLogRecord, error) {
	var (
		rec      domain.DailyLogRecord
		driverID pgtype.UUID
		logDate  pgtype.Date
		tripIDs  []pgtype.UUID
	)

	err := s.Scan(&driverID, &logDate,
		&rec.DrivingHours, &rec.OnDutyHours, &rec.OffDutyHours, &rec.SleeperBerthHours,
		&rec.MilesToday, &rec.CumulativeMileage, &rec.UpdatedAt, &tripIDs)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.DailyLogRecord{}, domain.ErrNotFound
		}
		return domain.DailyLogRecord{}, err
	}

	rec.DriverID = uuid.UUID(driverID.Bytes)
	rec.Date = logDate.Time
	rec.TripIDs = make([]uuid.UUID, 0, len(tripIDs))
	for _, id := range tripIDs {
		rec.TripIDs = append(rec.TripIDs, uuid.UUID(id.Bytes))
	}
	return rec, nil
}
