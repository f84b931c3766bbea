// Package repo contains all database access logic for the HOS logbook.
// Each resource has its own file with an interface and a Postgres implementation.
// No business logic lives here, only SQL and type mapping.
package repo

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

// db is the minimal interface satisfied by *pgxpool.Pool and pgx.Tx.
// Accepting this interface instead of *pgxpool.Pool directly allows integration
// tests to pass a transaction that is rolled back after each test, giving free
// per-test isolation without any manual cleanup.
//
// Begin is included so multi-statement writes can run in their own
// transaction. On a pgx.Tx it opens a savepoint.
type db interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Begin(ctx context.Context) (pgx.Tx, error)
}

// scanner is satisfied by both pgx.Row and pgx.Rows, allowing scan helpers
// to be reused for both QueryRow and Query calls.
type scanner interface {
	Scan(dest ...any) error
}

// lockDriver takes a transaction-scoped advisory lock keyed by driver so that
// concurrent writers for the same driver queue behind each other. The lock is
// released on commit or rollback.
func lockDriver(ctx context.Context, tx pgx.Tx, driverID string) error {
	_, err := tx.Exec(ctx, `SELECT pg_advisory_xact_lock(hashtext(@driver_id))`, pgx.NamedArgs{"driver_id": driverID})
	return err
}
