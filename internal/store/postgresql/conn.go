package postgresql

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jackc/pgx/v5/stdlib"
)

// OpenPool creates a pgx pool bounded by minConns..maxConns, verifies it with
// a ping and exposes it through database/sql. Closing the returned *sql.DB
// does not close the pool; callers close both.
func OpenPool(ctx context.Context, dsn string, minConns, maxConns int32) (*pgxpool.Pool, *sql.DB, error) {
	cfg, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to parse PostgreSQL DSN: %w", err)
	}
	if maxConns > 0 {
		cfg.MaxConns = maxConns
	}
	if minConns > 0 {
		cfg.MinConns = minConns
	}
	if cfg.MinConns > cfg.MaxConns {
		cfg.MinConns = cfg.MaxConns
	}
	cfg.AfterConnect = ConfigureConn

	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to create PostgreSQL pool: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, nil, fmt.Errorf("failed to ping PostgreSQL database: %w", err)
	}
	return pool, stdlib.OpenDBFromPool(pool), nil
}

// OpenDirect opens a single, unpooled connection. The returned *sql.DB is
// capped at one connection and must be closed together with the *sql.Conn.
func OpenDirect(ctx context.Context, dsn string) (*sql.DB, *sql.Conn, error) {
	cfg, err := pgx.ParseConfig(dsn)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to parse PostgreSQL DSN: %w", err)
	}
	db := stdlib.OpenDB(*cfg, stdlib.OptionAfterConnect(ConfigureConn))
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	conn, err := db.Conn(ctx)
	if err != nil {
		_ = db.Close()
		return nil, nil, fmt.Errorf("failed to connect to PostgreSQL: %w", err)
	}
	if err := conn.PingContext(ctx); err != nil {
		_ = conn.Close()
		_ = db.Close()
		return nil, nil, fmt.Errorf("failed to ping PostgreSQL database: %w", err)
	}
	return db, conn, nil
}
