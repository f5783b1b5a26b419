// Package store persists which migrations have been applied, one row per
// migration file in the tracking table.
package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/loykin/fsapi/internal/apperr"
	"github.com/loykin/fsapi/internal/common"
	"github.com/loykin/fsapi/internal/constants"
	"github.com/loykin/fsapi/internal/store/connector"
)

// Record is one row of the tracking table.
type Record struct {
	ID         int64
	Name       string
	AppliedAt  time.Time
	DurationMs int64
}

// Store reads and writes the tracking table through a dialect. It holds no
// connection; every call takes the Queryer to run on.
type Store struct {
	dialect connector.Dialect
	table   string
}

// New creates a store for the given table. An empty table name selects the
// default "migrations".
func New(dialect connector.Dialect, table string) *Store {
	if table == "" {
		table = constants.DefaultMigrationsTable
	}
	return &Store{dialect: dialect, table: table}
}

// Table returns the tracking table name
func (s *Store) Table() string { return s.table }

// Dialect returns the dialect the store was built with
func (s *Store) Dialect() connector.Dialect { return s.dialect }

// EnsureTable creates the tracking table if it does not exist
func (s *Store) EnsureTable(ctx context.Context, q connector.Queryer) error {
	logger := common.GetLogger().WithStore(s.dialect.Name())
	stmt := s.dialect.EnsureTableStatement(s.table)
	logger.Debug("ensuring migrations table", "table", s.table)
	if _, err := q.ExecContext(ctx, stmt); err != nil {
		logger.Error("failed to create migrations table", "error", err, "table", s.table)
		return fmt.Errorf("failed to ensure table %s: %w", s.table, err)
	}
	return nil
}

// ListApplied returns applied migration names in insertion order
func (s *Store) ListApplied(ctx context.Context, q connector.Queryer) ([]string, error) {
	rows, err := q.QueryContext(ctx, fmt.Sprintf("SELECT name FROM %s ORDER BY id", s.table))
	if err != nil {
		return nil, fmt.Errorf("failed to list applied migrations: %w", err)
	}
	defer func() { _ = rows.Close() }()

	names := make([]string, 0)
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, fmt.Errorf("failed to scan migration name: %w", err)
		}
		names = append(names, name)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating applied migrations: %w", err)
	}
	return names, nil
}

// AppliedSet returns the applied names as a set
func (s *Store) AppliedSet(ctx context.Context, q connector.Queryer) (map[string]struct{}, error) {
	names, err := s.ListApplied(ctx, q)
	if err != nil {
		return nil, err
	}
	set := make(map[string]struct{}, len(names))
	for _, n := range names {
		set[n] = struct{}{}
	}
	return set, nil
}

// Records returns every tracking row ordered by id
func (s *Store) Records(ctx context.Context, q connector.Queryer) ([]Record, error) {
	rows, err := q.QueryContext(ctx, fmt.Sprintf("SELECT id, name, applied_at, duration_ms FROM %s ORDER BY id", s.table))
	if err != nil {
		return nil, fmt.Errorf("failed to list migration records: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var out []Record
	for rows.Next() {
		var (
			r  Record
			at timeValue
		)
		if err := rows.Scan(&r.ID, &r.Name, &at, &r.DurationMs); err != nil {
			return nil, fmt.Errorf("failed to scan migration record: %w", err)
		}
		r.AppliedAt = at.Time
		out = append(out, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating migration records: %w", err)
	}
	return out, nil
}

// Last returns the most recently applied record. ok is false when the table
// is empty.
func (s *Store) Last(ctx context.Context, q connector.Queryer) (rec Record, ok bool, err error) {
	query := fmt.Sprintf("SELECT id, name, applied_at, duration_ms FROM %s ORDER BY id DESC LIMIT 1", s.table)
	var at timeValue
	err = q.QueryRowContext(ctx, query).Scan(&rec.ID, &rec.Name, &at, &rec.DurationMs)
	if errors.Is(err, sql.ErrNoRows) {
		return Record{}, false, nil
	}
	if err != nil {
		return Record{}, false, fmt.Errorf("failed to read last migration: %w", err)
	}
	rec.AppliedAt = at.Time
	return rec, true, nil
}

// RecordApplied inserts a tracking row. A name that is already recorded
// yields apperr.ErrConstraintViolation.
func (s *Store) RecordApplied(ctx context.Context, q connector.Queryer, name string, durationMs int64) error {
	if durationMs < 0 {
		durationMs = 0
	}
	query := fmt.Sprintf("INSERT INTO %s (name, duration_ms) VALUES (%s, %s)",
		s.table, s.dialect.Placeholder(1), s.dialect.Placeholder(2))
	if _, err := q.ExecContext(ctx, query, name, durationMs); err != nil {
		if s.dialect.IsUniqueViolation(err) {
			return apperr.New(apperr.ErrConstraintViolation, fmt.Sprintf("record migration %s", name), err)
		}
		return fmt.Errorf("failed to record migration %s: %w", name, err)
	}
	return nil
}

// DeleteApplied removes the tracking row for name
func (s *Store) DeleteApplied(ctx context.Context, q connector.Queryer, name string) error {
	query := fmt.Sprintf("DELETE FROM %s WHERE name = %s", s.table, s.dialect.Placeholder(1))
	if _, err := q.ExecContext(ctx, query, name); err != nil {
		return fmt.Errorf("failed to delete migration record %s: %w", name, err)
	}
	return nil
}
