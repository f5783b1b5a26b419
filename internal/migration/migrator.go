// Package migration discovers SQL migration files and applies or reverts
// them against a connection, tracking progress in the migrations table.
//
// Files are ordered by name only. Each file runs on its own; a failed run
// keeps whatever was applied before the failure.
package migration

import (
	"context"
	"fmt"
	"time"

	"github.com/loykin/fsapi/internal/apperr"
	"github.com/loykin/fsapi/internal/common"
	"github.com/loykin/fsapi/internal/store"
	"github.com/loykin/fsapi/internal/store/connector"
)

// Result describes one migration handled by a run.
type Result struct {
	Name      string
	Direction Direction
	Duration  time.Duration
	Skipped   bool
}

// Migrator applies and reverts migrations from Files on Conn.
type Migrator struct {
	Files    *Repository
	Store    *store.Store
	Conn     connector.Queryer
	Logger   *common.Logger
	Reporter Reporter
}

func (m *Migrator) logger() *common.Logger {
	l := m.Logger
	if l == nil {
		l = common.GetLogger()
	}
	return l.WithComponent("migrator").WithStore(m.Store.Dialect().Name())
}

func (m *Migrator) reporter() Reporter {
	if m.Reporter == nil {
		return nopReporter{}
	}
	return m.Reporter
}

// Pending returns the files on disk that are not recorded as applied, in
// file name order. It does not modify anything besides creating the
// tracking table.
func (m *Migrator) Pending(ctx context.Context) ([]File, error) {
	if err := m.Store.EnsureTable(ctx, m.Conn); err != nil {
		return nil, err
	}
	files, err := m.Files.List()
	if err != nil {
		return nil, err
	}
	applied, err := m.Store.AppliedSet(ctx, m.Conn)
	if err != nil {
		return nil, err
	}
	return PendingFiles(files, applied), nil
}

// PendingFiles returns files minus applied, keeping the order of files.
func PendingFiles(files []File, applied map[string]struct{}) []File {
	pending := make([]File, 0, len(files))
	for _, f := range files {
		if _, ok := applied[f.Name]; !ok {
			pending = append(pending, f)
		}
	}
	return pending
}

// Up applies every pending migration in order and stops at the first
// failure. Files whose UP section is empty are skipped and left unrecorded.
func (m *Migrator) Up(ctx context.Context) ([]Result, error) {
	pending, err := m.Pending(ctx)
	if err != nil {
		return nil, err
	}
	logger := m.logger()
	rep := m.reporter()

	results := make([]Result, 0, len(pending))
	if len(pending) == 0 {
		logger.Debug("no pending migrations")
		return results, nil
	}
	logger.Info("running migrations", "count", len(pending))

	for _, pf := range pending {
		f, err := m.Files.Load(pf)
		if err != nil {
			return results, err
		}
		flog := logger.WithMigration(f.Name)
		if f.Up == "" {
			flog.Warn("skipping migration with empty UP section")
			rep.Skip(f.Name, "empty UP section")
			results = append(results, Result{Name: f.Name, Direction: Up, Skipped: true})
			continue
		}

		rep.Start(f.Name, Up)
		started := time.Now()
		if _, err := m.Conn.ExecContext(ctx, f.Up); err != nil {
			rep.Fail(f.Name, Up, err)
			flog.Error("migration failed", "error", err)
			return results, apperr.Execution("apply "+f.Name, err)
		}
		elapsed := time.Since(started)
		if err := m.Store.RecordApplied(ctx, m.Conn, f.Name, elapsed.Milliseconds()); err != nil {
			rep.Fail(f.Name, Up, err)
			flog.Error("failed to record migration", "error", err)
			return results, err
		}
		rep.Done(f.Name, Up, elapsed)
		flog.Info("migration applied", "duration", elapsed)
		results = append(results, Result{Name: f.Name, Direction: Up, Duration: elapsed})
	}
	return results, nil
}

// Rollback reverts the most recently applied migration. It fails with
// apperr.ErrNotFound when nothing is applied, the file is gone or the file
// has no DOWN section; in those cases nothing is changed.
func (m *Migrator) Rollback(ctx context.Context) (Result, error) {
	if err := m.Store.EnsureTable(ctx, m.Conn); err != nil {
		return Result{}, err
	}
	last, ok, err := m.Store.Last(ctx, m.Conn)
	if err != nil {
		return Result{}, err
	}
	if !ok {
		return Result{}, apperr.NotFound("no migrations to rollback")
	}

	f, err := m.Files.Find(last.Name)
	if err != nil {
		return Result{}, err
	}
	if !f.HasDown() {
		return Result{}, apperr.NotFound("no DOWN section in %s", f.Name)
	}

	logger := m.logger().WithMigration(f.Name)
	rep := m.reporter()
	rep.Start(f.Name, Down)
	started := time.Now()
	if _, err := m.Conn.ExecContext(ctx, f.Down); err != nil {
		rep.Fail(f.Name, Down, err)
		logger.Error("rollback failed", "error", err)
		return Result{}, apperr.Execution("rollback "+f.Name, err)
	}
	if err := m.Store.DeleteApplied(ctx, m.Conn, f.Name); err != nil {
		rep.Fail(f.Name, Down, err)
		return Result{}, err
	}
	elapsed := time.Since(started)
	rep.Done(f.Name, Down, elapsed)
	logger.Info("migration rolled back", "duration", elapsed)
	return Result{Name: f.Name, Direction: Down, Duration: elapsed}, nil
}

// Fresh drops every table in the active schema, recreates the tracking table
// and applies all migrations. Confirmation is the caller's responsibility.
// A failure part way through leaves the schema partially rebuilt.
func (m *Migrator) Fresh(ctx context.Context) ([]Result, error) {
	logger := m.logger()
	logger.Warn("dropping all tables")
	if err := m.Store.Dialect().DropAllTables(ctx, m.Conn); err != nil {
		return nil, fmt.Errorf("fresh: %w", err)
	}
	if err := m.Store.EnsureTable(ctx, m.Conn); err != nil {
		return nil, fmt.Errorf("fresh: %w", err)
	}
	results, err := m.Up(ctx)
	if err != nil {
		return results, fmt.Errorf("fresh: %w", err)
	}
	return results, nil
}
