package db

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/loykin/fsapi/internal/apperr"
	"github.com/loykin/fsapi/internal/common"
	"github.com/loykin/fsapi/internal/constants"
	"github.com/loykin/fsapi/internal/store/connector"
	"github.com/loykin/fsapi/internal/store/postgresql"
	"github.com/loykin/fsapi/internal/store/sqlite"
)

// Conn is a single connection owned by the caller, who must Close it.
type Conn struct {
	conn    *sql.Conn
	owner   *sql.DB // non-nil for direct connections
	dialect connector.Dialect
}

// Connect opens one unpooled connection for short-lived tools. Postgres
// connections get the same codec setup as pooled ones.
func Connect(ctx context.Context, cfg Config) (*Conn, error) {
	if err := cfg.Validate(); err != nil {
		return nil, apperr.New(apperr.ErrInvalidArgument, "connect", err)
	}
	logger := common.GetLogger().WithStore(cfg.DriverName())

	var (
		owner *sql.DB
		conn  *sql.Conn
		err   error
	)
	switch cfg.DriverName() {
	case constants.DriverSQLite:
		owner, conn, err = sqlite.OpenDirect(ctx, cfg.Path)
	default:
		owner, conn, err = postgresql.OpenDirect(ctx, cfg.DSN())
	}
	if err != nil {
		logger.Debug("connection failed", "dsn", cfg.Redacted(), "error", err)
		return nil, apperr.Connection("connect", err)
	}
	logger.Debug("connection opened", "dsn", cfg.Redacted())
	return &Conn{conn: conn, owner: owner, dialect: cfg.Dialect()}, nil
}

// Dialect returns the SQL dialect of the connection
func (c *Conn) Dialect() connector.Dialect { return c.dialect }

// ExecContext implements connector.Queryer
func (c *Conn) ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error) {
	return c.conn.ExecContext(ctx, query, args...)
}

// QueryContext implements connector.Queryer
func (c *Conn) QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error) {
	return c.conn.QueryContext(ctx, query, args...)
}

// QueryRowContext implements connector.Queryer
func (c *Conn) QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row {
	return c.conn.QueryRowContext(ctx, query, args...)
}

// ExecStatus runs a statement and returns the driver-reported outcome, e.g.
// "INSERT 0 1" on postgres.
func (c *Conn) ExecStatus(ctx context.Context, query string) (string, error) {
	return c.dialect.ExecStatus(ctx, c.conn, query)
}

// WithPgx runs fn on the pgx connection underneath c (postgres only).
func (c *Conn) WithPgx(fn func(conn *pgx.Conn) error) error {
	if c.dialect.Name() != constants.DriverPostgres {
		return apperr.InvalidArgument("native connection requires the %s driver", constants.DriverPostgres)
	}
	return postgresql.WithNativeConn(c.conn, fn)
}

// Close releases the connection. It is safe to call more than once.
func (c *Conn) Close() error {
	if c == nil || c.conn == nil {
		return nil
	}
	err := c.conn.Close()
	c.conn = nil
	if c.owner != nil {
		if cerr := c.owner.Close(); err == nil {
			err = cerr
		}
		c.owner = nil
	}
	if err != nil {
		return fmt.Errorf("failed to close connection: %w", err)
	}
	return nil
}
