package postgresql

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/stdlib"
	"github.com/loykin/fsapi/internal/store/connector"
)

const uniqueViolationCode = "23505"

// dropAllTablesStatement drops every table of the current schema, cascading.
const dropAllTablesStatement = `DO $$ DECLARE
	r RECORD;
BEGIN
	FOR r IN (SELECT tablename FROM pg_tables WHERE schemaname = current_schema()) LOOP
		EXECUTE 'DROP TABLE IF EXISTS ' || quote_ident(r.tablename) || ' CASCADE';
	END LOOP;
END $$;`

// Dialect implements connector.Dialect for PostgreSQL
type Dialect struct{}

var _ connector.Dialect = (*Dialect)(nil)

// NewDialect creates a new PostgreSQL dialect
func NewDialect() *Dialect {
	return &Dialect{}
}

// Name returns the driver name for logging
func (p *Dialect) Name() string {
	return "postgres"
}

// Placeholder returns PostgreSQL-style placeholders ($1, $2, etc.)
func (p *Dialect) Placeholder(index int) string {
	return fmt.Sprintf("$%d", index)
}

// EnsureTableStatement returns the tracking table DDL
func (p *Dialect) EnsureTableStatement(table string) string {
	return fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %s (
	id SERIAL PRIMARY KEY,
	name VARCHAR(255) NOT NULL UNIQUE,
	applied_at TIMESTAMP NOT NULL DEFAULT NOW(),
	duration_ms INTEGER NOT NULL
)`, table)
}

// DropAllTables drops every table in current_schema() with CASCADE
func (p *Dialect) DropAllTables(ctx context.Context, q connector.Queryer) error {
	if _, err := q.ExecContext(ctx, dropAllTablesStatement); err != nil {
		return fmt.Errorf("failed to drop PostgreSQL tables: %w", err)
	}
	return nil
}

// IsUniqueViolation reports SQLSTATE 23505
func (p *Dialect) IsUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == uniqueViolationCode
}

// ExecStatus runs query on the underlying pgx connection so the command tag
// (e.g. "INSERT 0 1", "CREATE TABLE") can be reported. Connections that are
// not backed by pgx fall back to the affected row count.
func (p *Dialect) ExecStatus(ctx context.Context, conn *sql.Conn, query string) (string, error) {
	var (
		tag    string
		viaPgx bool
	)
	err := conn.Raw(func(driverConn any) error {
		sc, ok := driverConn.(*stdlib.Conn)
		if !ok {
			return nil
		}
		viaPgx = true
		ct, err := sc.Conn().Exec(ctx, query)
		if err != nil {
			return err
		}
		tag = ct.String()
		return nil
	})
	if err != nil {
		return "", err
	}
	if viaPgx {
		return tag, nil
	}
	res, err := conn.ExecContext(ctx, query)
	if err != nil {
		return "", err
	}
	return rowsAffectedStatus(res), nil
}

func rowsAffectedStatus(res sql.Result) string {
	n, err := res.RowsAffected()
	if err != nil {
		return "OK"
	}
	return fmt.Sprintf("%d row(s) affected", n)
}
