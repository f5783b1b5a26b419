// Package query runs ad-hoc SQL for the sapi query command and renders the
// outcome as text.
package query

import (
	"context"
	"database/sql"
	"fmt"
	"reflect"
	"strings"
	"time"

	"github.com/goccy/go-json"
	"github.com/loykin/fsapi/internal/apperr"
	"github.com/loykin/fsapi/internal/common"
)

// Conn is what the executor needs from a connection.
type Conn interface {
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	ExecStatus(ctx context.Context, query string) (string, error)
}

// Result is the outcome of one statement.
type Result struct {
	Read    bool
	Columns []string
	Rows    [][]string
	Status  string
	Elapsed time.Duration
}

// IsRead reports whether sql is a row-returning statement (SELECT or WITH).
func IsRead(sql string) bool {
	s := strings.ToUpper(strings.TrimSpace(sql))
	return strings.HasPrefix(s, "SELECT") || strings.HasPrefix(s, "WITH")
}

// Executor runs statements on a single connection.
type Executor struct {
	Conn   Conn
	Logger *common.Logger
}

// Execute runs sql. Read statements return all rows as text; anything else
// returns the driver-reported status.
func (e *Executor) Execute(ctx context.Context, sql string) (*Result, error) {
	if strings.TrimSpace(sql) == "" {
		return nil, apperr.InvalidArgument("SQL query is required")
	}
	logger := e.Logger
	if logger == nil {
		logger = common.GetLogger()
	}
	logger = logger.WithComponent("query")

	started := time.Now()
	if !IsRead(sql) {
		status, err := e.Conn.ExecStatus(ctx, sql)
		if err != nil {
			logger.Debug("statement failed", "error", err)
			return nil, apperr.Execution("query", err)
		}
		return &Result{Status: status, Elapsed: time.Since(started)}, nil
	}

	res, err := fetchAll(ctx, e.Conn, sql)
	if err != nil {
		logger.Debug("query failed", "error", err)
		return nil, apperr.Execution("query", err)
	}
	res.Elapsed = time.Since(started)
	logger.Debug("query executed", "rows", len(res.Rows), "elapsed", res.Elapsed)
	return res, nil
}

func fetchAll(ctx context.Context, conn Conn, sql string) (*Result, error) {
	rows, err := conn.QueryContext(ctx, sql)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	cols, err := rows.Columns()
	if err != nil {
		return nil, err
	}
	res := &Result{Read: true, Columns: cols}

	values := make([]any, len(cols))
	ptrs := make([]any, len(cols))
	for i := range values {
		ptrs[i] = &values[i]
	}
	for rows.Next() {
		if err := rows.Scan(ptrs...); err != nil {
			return nil, err
		}
		row := make([]string, len(cols))
		for i, v := range values {
			row[i] = FormatValue(v)
		}
		res.Rows = append(res.Rows, row)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return res, nil
}

// FormatValue renders a scanned column value as display text.
func FormatValue(v any) string {
	switch x := v.(type) {
	case nil:
		return "NULL"
	case []byte:
		return string(x)
	case string:
		return x
	case time.Time:
		return x.Format(time.RFC3339)
	case fmt.Stringer:
		return x.String()
	}
	switch reflect.ValueOf(v).Kind() {
	case reflect.Map, reflect.Slice, reflect.Struct:
		if b, err := json.Marshal(v); err == nil {
			return string(b)
		}
	}
	return fmt.Sprintf("%v", v)
}
