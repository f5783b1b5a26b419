package db

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/loykin/fsapi/internal/apperr"
	"github.com/loykin/fsapi/internal/common"
	"github.com/loykin/fsapi/internal/retry"
)

// SQLSTATE classes that will not go away by waiting.
var permanentPgCodes = map[string]bool{
	"28000": true, // invalid_authorization_specification
	"28P01": true, // invalid_password
	"3D000": true, // invalid_catalog_name
}

func isTransient(err error) bool {
	if errors.Is(err, apperr.ErrInvalidArgument) {
		return false
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return !permanentPgCodes[pgErr.Code]
	}
	return true
}

// WaitReady polls until a connection can be opened and pinged, or the
// timeout elapses. Authentication failures stop the wait immediately.
func WaitReady(ctx context.Context, cfg Config, timeout, interval time.Duration) error {
	logger := common.GetLogger().WithStore(cfg.DriverName())
	started := time.Now()

	err := retry.Until(ctx, retry.Config{Timeout: timeout, Interval: interval, Retryable: isTransient}, func(ctx context.Context) error {
		conn, err := Connect(ctx, cfg)
		if err != nil {
			logger.Debug("database not ready", "dsn", cfg.Redacted(), "error", err)
			return err
		}
		return conn.Close()
	})
	if err != nil {
		return err
	}
	logger.Info("database is ready", "elapsed", time.Since(started).Round(time.Millisecond))
	return nil
}
