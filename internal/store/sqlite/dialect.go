package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/loykin/fsapi/internal/store/connector"
	"modernc.org/sqlite"
	sqlite3 "modernc.org/sqlite/lib"
)

// Dialect implements connector.Dialect for SQLite
type Dialect struct{}

var _ connector.Dialect = (*Dialect)(nil)

// NewDialect creates a new SQLite dialect
func NewDialect() *Dialect {
	return &Dialect{}
}

// Name returns the driver name for logging
func (s *Dialect) Name() string {
	return "sqlite"
}

// Placeholder returns SQLite-style placeholders (?)
func (s *Dialect) Placeholder(int) string {
	return "?"
}

// EnsureTableStatement returns the tracking table DDL
func (s *Dialect) EnsureTableStatement(table string) string {
	return fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %s (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	name VARCHAR(255) NOT NULL UNIQUE,
	applied_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP,
	duration_ms INTEGER NOT NULL
)`, table)
}

// DropAllTables drops every user table with foreign keys switched off for
// the duration.
func (s *Dialect) DropAllTables(ctx context.Context, q connector.Queryer) error {
	rows, err := q.QueryContext(ctx, `SELECT name FROM sqlite_master WHERE type = 'table' AND name NOT LIKE 'sqlite\_%' ESCAPE '\'`)
	if err != nil {
		return fmt.Errorf("failed to list SQLite tables: %w", err)
	}
	var names []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			_ = rows.Close()
			return fmt.Errorf("failed to scan SQLite table name: %w", err)
		}
		names = append(names, name)
	}
	if err := rows.Err(); err != nil {
		_ = rows.Close()
		return fmt.Errorf("failed to list SQLite tables: %w", err)
	}
	_ = rows.Close()

	if _, err := q.ExecContext(ctx, "PRAGMA foreign_keys = OFF"); err != nil {
		return fmt.Errorf("failed to disable foreign keys: %w", err)
	}
	for _, name := range names {
		if _, err := q.ExecContext(ctx, "DROP TABLE IF EXISTS "+quoteIdent(name)); err != nil {
			_, _ = q.ExecContext(ctx, "PRAGMA foreign_keys = ON")
			return fmt.Errorf("failed to drop table %s: %w", name, err)
		}
	}
	if _, err := q.ExecContext(ctx, "PRAGMA foreign_keys = ON"); err != nil {
		return fmt.Errorf("failed to enable foreign keys: %w", err)
	}
	return nil
}

// IsUniqueViolation reports a UNIQUE constraint failure
func (s *Dialect) IsUniqueViolation(err error) bool {
	if err == nil {
		return false
	}
	var se *sqlite.Error
	if errors.As(err, &se) && se.Code() == sqlite3.SQLITE_CONSTRAINT_UNIQUE {
		return true
	}
	return strings.Contains(err.Error(), "UNIQUE constraint failed")
}

// ExecStatus executes query and reports the number of affected rows
func (s *Dialect) ExecStatus(ctx context.Context, conn *sql.Conn, query string) (string, error) {
	res, err := conn.ExecContext(ctx, query)
	if err != nil {
		return "", err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return "OK", nil
	}
	return fmt.Sprintf("%d row(s) affected", n), nil
}

func quoteIdent(name string) string {
	return `"` + strings.ReplaceAll(name, `"`, `""`) + `"`
}
