package db

import (
	"fmt"
	"net"
	"net/url"
	"sort"
	"strconv"

	"github.com/loykin/fsapi/internal/common"
	"github.com/loykin/fsapi/internal/constants"
	"github.com/loykin/fsapi/internal/store/connector"
	"github.com/loykin/fsapi/internal/store/postgresql"
	"github.com/loykin/fsapi/internal/store/sqlite"
	"github.com/loykin/fsapi/internal/util"
)

// Config describes how to reach the database.
type Config struct {
	Driver   string            `mapstructure:"driver"`
	Host     string            `mapstructure:"host"`
	Port     int               `mapstructure:"port"`
	User     string            `mapstructure:"user"`
	Password string            `mapstructure:"password"`
	Name     string            `mapstructure:"name"`
	SSLMode  string            `mapstructure:"sslmode"`
	Path     string            `mapstructure:"path"`
	MinConns int               `mapstructure:"pool_min"`
	MaxConns int               `mapstructure:"pool_max"`
	Params   map[string]string `mapstructure:"params"`
}

// DefaultConfig returns the local postgres defaults
func DefaultConfig() Config {
	return Config{
		Driver:   constants.DriverPostgres,
		Host:     constants.DefaultPostgresHost,
		Port:     constants.DefaultPostgresPort,
		User:     constants.DefaultPostgresUser,
		Name:     constants.DefaultPostgresDB,
		SSLMode:  constants.DefaultPostgresSSLMode,
		Path:     constants.DefaultSQLitePath,
		MinConns: constants.DefaultPoolMinConns,
		MaxConns: constants.DefaultPoolMaxConns,
	}
}

// DriverName returns the normalized driver, defaulting to postgres.
func (c Config) DriverName() string {
	switch util.TrimAndLower(c.Driver) {
	case "", "postgres", "postgresql", "pgx":
		return constants.DriverPostgres
	case "sqlite", "sqlite3":
		return constants.DriverSQLite
	default:
		return util.TrimAndLower(c.Driver)
	}
}

// Validate checks the fields the selected driver needs.
func (c Config) Validate() error {
	switch c.DriverName() {
	case constants.DriverPostgres:
		if c.Host == "" {
			return fmt.Errorf("database host is required")
		}
		if c.Port <= 0 || c.Port > 65535 {
			return fmt.Errorf("invalid database port: %d", c.Port)
		}
		if c.Name == "" {
			return fmt.Errorf("database name is required")
		}
	case constants.DriverSQLite:
		if c.Path == "" {
			return fmt.Errorf("sqlite path is required")
		}
	default:
		return fmt.Errorf("unsupported database driver: %s (valid: postgres, sqlite)", c.Driver)
	}
	if c.MinConns < 0 || c.MaxConns < 0 {
		return fmt.Errorf("pool bounds must not be negative")
	}
	if c.MaxConns > 0 && c.MinConns > c.MaxConns {
		return fmt.Errorf("pool min (%d) exceeds pool max (%d)", c.MinConns, c.MaxConns)
	}
	return nil
}

// DSN returns the connection string for the configured driver: a postgres
// URL, or the sqlite file DSN.
func (c Config) DSN() string {
	if c.DriverName() == constants.DriverSQLite {
		return sqlite.DSN(c.Path)
	}

	u := url.URL{
		Scheme: "postgres",
		Host:   net.JoinHostPort(c.Host, strconv.Itoa(c.Port)),
		Path:   "/" + c.Name,
	}
	switch {
	case c.User != "" && c.Password != "":
		u.User = url.UserPassword(c.User, c.Password)
	case c.User != "":
		u.User = url.User(c.User)
	}

	q := url.Values{}
	if c.SSLMode != "" {
		q.Set("sslmode", c.SSLMode)
	}
	keys := make([]string, 0, len(c.Params))
	for k := range c.Params {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		q.Set(k, c.Params[k])
	}
	u.RawQuery = q.Encode()
	return u.String()
}

// Redacted returns the DSN with credentials masked, for logs.
func (c Config) Redacted() string {
	return common.MaskSensitiveData(c.DSN())
}

// Dialect returns the SQL dialect for the configured driver.
func (c Config) Dialect() connector.Dialect {
	if c.DriverName() == constants.DriverSQLite {
		return sqlite.NewDialect()
	}
	return postgresql.NewDialect()
}
