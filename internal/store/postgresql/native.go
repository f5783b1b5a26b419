package postgresql

import (
	"database/sql"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/stdlib"
)

// WithNativeConn runs fn on the pgx connection underneath c. Values scanned
// through it go through the connection's type map, so json and jsonb decode
// into maps and slices instead of raw bytes.
func WithNativeConn(c *sql.Conn, fn func(*pgx.Conn) error) error {
	return c.Raw(func(driverConn any) error {
		sc, ok := driverConn.(*stdlib.Conn)
		if !ok {
			return fmt.Errorf("not a pgx connection: %T", driverConn)
		}
		return fn(sc.Conn())
	})
}
