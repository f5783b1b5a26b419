package db

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/loykin/fsapi/internal/apperr"
	"github.com/loykin/fsapi/internal/common"
	"github.com/loykin/fsapi/internal/constants"
	"github.com/loykin/fsapi/internal/store/connector"
	"github.com/loykin/fsapi/internal/store/postgresql"
	"github.com/loykin/fsapi/internal/store/sqlite"
)

// Pool is a bounded set of reusable connections. For postgres it is backed
// by a pgx pool; DB exposes it through database/sql.
type Pool struct {
	db      *sql.DB
	pgx     *pgxpool.Pool
	dialect connector.Dialect
}

func openPool(ctx context.Context, cfg Config) (*Pool, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	logger := common.GetLogger().WithStore(cfg.DriverName())

	switch cfg.DriverName() {
	case constants.DriverSQLite:
		sqlDB, err := sqlite.Open(ctx, cfg.Path)
		if err != nil {
			return nil, err
		}
		logger.Info("database pool created", "path", cfg.Path)
		return &Pool{db: sqlDB, dialect: sqlite.NewDialect()}, nil
	default:
		pgxPool, sqlDB, err := postgresql.OpenPool(ctx, cfg.DSN(), int32(cfg.MinConns), int32(cfg.MaxConns))
		if err != nil {
			return nil, err
		}
		logger.Info("database pool created", "dsn", cfg.Redacted(), "min_conns", cfg.MinConns, "max_conns", cfg.MaxConns)
		return &Pool{db: sqlDB, pgx: pgxPool, dialect: postgresql.NewDialect()}, nil
	}
}

// DB returns the database/sql handle over the pool
func (p *Pool) DB() *sql.DB { return p.db }

// Dialect returns the SQL dialect of the pooled store
func (p *Pool) Dialect() connector.Dialect { return p.dialect }

// Ping verifies that a connection can be acquired and used
func (p *Pool) Ping(ctx context.Context) error {
	if err := p.db.PingContext(ctx); err != nil {
		return fmt.Errorf("failed to ping database: %w", err)
	}
	return nil
}

// Conn checks a single connection out of the pool. Closing it returns the
// connection to the pool.
func (p *Pool) Conn(ctx context.Context) (*Conn, error) {
	c, err := p.db.Conn(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to acquire connection: %w", err)
	}
	return &Conn{conn: c, dialect: p.dialect}, nil
}

// WithPgx runs fn on a pooled pgx connection, released when fn returns.
// Use it to scan json/jsonb columns into Go maps and slices: the
// database/sql handle returns those as raw bytes.
func (p *Pool) WithPgx(ctx context.Context, fn func(conn *pgx.Conn) error) error {
	if p.pgx == nil {
		return apperr.InvalidArgument("native connection requires the %s driver", constants.DriverPostgres)
	}
	return p.pgx.AcquireFunc(ctx, func(c *pgxpool.Conn) error {
		return fn(c.Conn())
	})
}

// WithTx runs fn in a transaction: commit when fn returns nil, rollback when
// it returns an error or panics. A panic is re-raised after the rollback.
func (p *Pool) WithTx(ctx context.Context, fn func(ctx context.Context, tx *sql.Tx) error) (err error) {
	tx, err := p.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() {
		if r := recover(); r != nil {
			_ = tx.Rollback()
			panic(r)
		}
	}()

	if err := fn(ctx, tx); err != nil {
		if rbErr := tx.Rollback(); rbErr != nil {
			common.GetLogger().WithStore(p.dialect.Name()).Warn("rollback failed", "error", rbErr)
		}
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

func (p *Pool) close() error {
	err := p.db.Close()
	if p.pgx != nil {
		p.pgx.Close()
	}
	return err
}
