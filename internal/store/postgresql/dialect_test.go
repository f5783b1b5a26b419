package postgresql

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jackc/pgx/v5/pgconn"
)

func TestDialect_Basics(t *testing.T) {
	d := NewDialect()
	if d.Name() != "postgres" {
		t.Errorf("Name() = %q", d.Name())
	}
	if got := d.Placeholder(2); got != "$2" {
		t.Errorf("Placeholder(2) = %q", got)
	}
	ddl := d.EnsureTableStatement("migrations")
	for _, want := range []string{
		"CREATE TABLE IF NOT EXISTS migrations",
		"id SERIAL PRIMARY KEY",
		"name VARCHAR(255) NOT NULL UNIQUE",
		"applied_at TIMESTAMP NOT NULL DEFAULT NOW()",
		"duration_ms INTEGER NOT NULL",
	} {
		if !strings.Contains(ddl, want) {
			t.Errorf("ddl missing %q:\n%s", want, ddl)
		}
	}
}

func TestDialect_IsUniqueViolation(t *testing.T) {
	d := NewDialect()
	tests := []struct {
		name string
		err  error
		want bool
	}{
		{"unique", &pgconn.PgError{Code: "23505"}, true},
		{"wrapped unique", fmt.Errorf("insert: %w", &pgconn.PgError{Code: "23505"}), true},
		{"fk violation", &pgconn.PgError{Code: "23503"}, false},
		{"plain", errors.New("duplicate"), false},
		{"nil", nil, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := d.IsUniqueViolation(tt.err); got != tt.want {
				t.Errorf("IsUniqueViolation() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestDialect_DropAllTables(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock: %v", err)
	}
	defer func() { _ = db.Close() }()

	mock.ExpectExec(`DO \$\$ DECLARE`).WillReturnResult(sqlmock.NewResult(0, 0))
	if err := NewDialect().DropAllTables(context.Background(), db); err != nil {
		t.Fatalf("DropAllTables: %v", err)
	}

	mock.ExpectExec(`DO \$\$ DECLARE`).WillReturnError(errors.New("permission denied"))
	err = NewDialect().DropAllTables(context.Background(), db)
	if err == nil || !strings.Contains(err.Error(), "permission denied") {
		t.Fatalf("expected wrapped error, got %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatal(err)
	}
}

func TestDialect_ExecStatusFallback(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock: %v", err)
	}
	defer func() { _ = db.Close() }()

	ctx := context.Background()
	conn, err := db.Conn(ctx)
	if err != nil {
		t.Fatalf("conn: %v", err)
	}
	defer func() { _ = conn.Close() }()

	mock.ExpectExec("UPDATE items SET qty = 0").WillReturnResult(sqlmock.NewResult(0, 4))
	status, err := NewDialect().ExecStatus(ctx, conn, "UPDATE items SET qty = 0")
	if err != nil {
		t.Fatalf("ExecStatus: %v", err)
	}
	if status != "4 row(s) affected" {
		t.Fatalf("status = %q", status)
	}
}
