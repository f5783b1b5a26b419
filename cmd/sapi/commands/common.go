package commands

import (
	"context"
	"fmt"

	"github.com/spf13/viper"

	"github.com/loykin/fsapi/internal/common"
	"github.com/loykin/fsapi/internal/config"
	"github.com/loykin/fsapi/internal/constants"
	"github.com/loykin/fsapi/internal/db"
	"github.com/loykin/fsapi/internal/migration"
	"github.com/loykin/fsapi/internal/store"
	"github.com/loykin/fsapi/internal/util"
)

// LoadConfig resolves configuration from the env file named by the
// env_file setting and the process environment.
func LoadConfig() (*config.Config, error) {
	v := viper.GetViper()
	return config.Load(v, v.GetString("env_file"))
}

func migrationsDir() string {
	return util.TrimWithDefault(viper.GetString("migrations_dir"), constants.DefaultMigrationsDir)
}

// withConn opens a single connection, runs fn and always closes it.
func withConn(ctx context.Context, fn func(ctx context.Context, cfg *config.Config, conn *db.Conn) error) (err error) {
	cfg, err := LoadConfig()
	if err != nil {
		return err
	}
	conn, err := db.Connect(ctx, cfg.DB)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := conn.Close(); cerr != nil {
			common.LogWarn("failed to close connection", "error", cerr)
			if err == nil {
				err = cerr
			}
		}
	}()
	return fn(ctx, cfg, conn)
}

// withMigrator builds a migrator on a single connection for the duration of fn.
func withMigrator(ctx context.Context, rep migration.Reporter, fn func(ctx context.Context, cfg *config.Config, m *migration.Migrator) error) error {
	return withConn(ctx, func(ctx context.Context, cfg *config.Config, conn *db.Conn) error {
		m := &migration.Migrator{
			Files:    migration.NewRepository(migrationsDir()),
			Store:    store.New(conn.Dialect(), constants.DefaultMigrationsTable),
			Conn:     conn,
			Logger:   common.GetLogger(),
			Reporter: rep,
		}
		return fn(ctx, cfg, m)
	})
}

func plural(n int, word string) string {
	return fmt.Sprintf("%d %s(s)", n, word)
}
