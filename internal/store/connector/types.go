package connector

import (
	"context"
	"database/sql"
)

// Queryer is satisfied by *sql.DB, *sql.Conn and *sql.Tx.
type Queryer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// Dialect captures the SQL differences between the supported stores.
type Dialect interface {
	// Name returns the driver name used in logs and config (postgres, sqlite).
	Name() string
	// Placeholder returns the bind parameter for the 1-based index.
	Placeholder(index int) string
	// EnsureTableStatement returns the idempotent DDL for the tracking table.
	EnsureTableStatement(table string) string
	// DropAllTables drops every table in the active schema.
	DropAllTables(ctx context.Context, q Queryer) error
	// IsUniqueViolation reports whether err is a unique-constraint failure.
	IsUniqueViolation(err error) bool
	// ExecStatus executes a statement and returns the driver-reported outcome.
	ExecStatus(ctx context.Context, conn *sql.Conn, query string) (string, error)
}
