// Package config loads application settings from a .env file and the
// process environment. Environment variables win over the file; both win
// over the built-in defaults.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"reflect"
	"time"

	"github.com/go-viper/mapstructure/v2"
	"github.com/spf13/viper"

	"github.com/loykin/fsapi/internal/common"
	"github.com/loykin/fsapi/internal/constants"
	"github.com/loykin/fsapi/internal/db"
	"github.com/loykin/fsapi/internal/util"
)

// AppConfig configures the HTTP service.
type AppConfig struct {
	Name            string
	Host            string
	Port            int
	Mode            string
	CORSOrigins     []string
	ViewsDir        string
	StaticDir       string
	ShutdownTimeout time.Duration
}

// Addr returns host:port for the listener
func (a AppConfig) Addr() string {
	return fmt.Sprintf("%s:%d", a.Host, a.Port)
}

// IsDebug reports whether the service runs in a development mode.
func (a AppConfig) IsDebug() bool {
	switch util.TrimAndLower(a.Mode) {
	case "debug", "development", "dev", "local":
		return true
	}
	return false
}

// LoggingConfig selects log level, output format and masking.
type LoggingConfig struct {
	Level         string
	Format        string
	MaskSensitive bool
}

// Config is the resolved application configuration.
type Config struct {
	App     AppConfig
	DB      db.Config
	Logging LoggingConfig
}

// envDoc mirrors the flat environment keys.
type envDoc struct {
	AppName         string        `mapstructure:"app_name"`
	AppHost         string        `mapstructure:"app_host"`
	AppPort         int           `mapstructure:"app_port"`
	AppMode         string        `mapstructure:"app_mode"`
	CORSOrigins     []string      `mapstructure:"cors_origins"`
	ViewsDir        string        `mapstructure:"views_dir"`
	StaticDir       string        `mapstructure:"static_dir"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`

	DBDriver  string `mapstructure:"db_driver"`
	DBHost    string `mapstructure:"db_host"`
	DBPort    int    `mapstructure:"db_port"`
	DBUser    string `mapstructure:"db_user"`
	DBPass    string `mapstructure:"db_pass"`
	DBName    string `mapstructure:"db_name"`
	DBSSLMode string `mapstructure:"db_sslmode"`
	DBPath    string `mapstructure:"db_path"`
	DBPoolMin int    `mapstructure:"db_pool_min"`
	DBPoolMax int    `mapstructure:"db_pool_max"`

	LogLevel         string `mapstructure:"log_level"`
	LogFormat        string `mapstructure:"log_format"`
	LogMaskSensitive bool   `mapstructure:"log_mask_sensitive"`
}

// SetDefaults registers every known key so that AutomaticEnv lookups reach
// them during Unmarshal.
func SetDefaults(v *viper.Viper) {
	v.SetDefault("app_name", constants.DefaultAppName)
	v.SetDefault("app_host", constants.DefaultAppHost)
	v.SetDefault("app_port", constants.DefaultAppPort)
	v.SetDefault("app_mode", constants.DefaultAppMode)
	v.SetDefault("cors_origins", "")
	v.SetDefault("views_dir", constants.DefaultViewsDir)
	v.SetDefault("static_dir", constants.DefaultStatic)
	v.SetDefault("shutdown_timeout", constants.ShutdownTimeout.String())

	v.SetDefault("db_driver", constants.DriverPostgres)
	v.SetDefault("db_host", constants.DefaultPostgresHost)
	v.SetDefault("db_port", constants.DefaultPostgresPort)
	v.SetDefault("db_user", constants.DefaultPostgresUser)
	v.SetDefault("db_pass", "")
	v.SetDefault("db_name", constants.DefaultPostgresDB)
	v.SetDefault("db_sslmode", constants.DefaultPostgresSSLMode)
	v.SetDefault("db_path", constants.DefaultSQLitePath)
	v.SetDefault("db_pool_min", constants.DefaultPoolMinConns)
	v.SetDefault("db_pool_max", constants.DefaultPoolMaxConns)

	v.SetDefault("log_level", "info")
	v.SetDefault("log_format", "text")
	v.SetDefault("log_mask_sensitive", true)
}

// Load reads envFile (if it exists) into v, layers the process environment
// on top and decodes the result. A missing env file is not an error.
func Load(v *viper.Viper, envFile string) (*Config, error) {
	if v == nil {
		v = viper.New()
	}
	SetDefaults(v)
	v.AutomaticEnv()

	if path, ok := util.TrimEmptyCheck(envFile); ok {
		info, err := os.Stat(path)
		switch {
		case errors.Is(err, fs.ErrNotExist):
			common.LogDebug("env file not found, using environment only", "path", path)
		case err != nil:
			return nil, fmt.Errorf("failed to stat env file %s: %w", path, err)
		case !info.Mode().IsRegular():
			return nil, fmt.Errorf("not a regular file: %s", path)
		default:
			v.SetConfigFile(path)
			v.SetConfigType("env")
			if err := v.ReadInConfig(); err != nil {
				return nil, fmt.Errorf("failed to read env file %s: %w", path, err)
			}
		}
	}

	var doc envDoc
	hook := mapstructure.ComposeDecodeHookFunc(
		mapstructure.StringToTimeDurationHookFunc(),
		stringToListHookFunc(),
	)
	if err := v.Unmarshal(&doc, viper.DecodeHook(hook)); err != nil {
		return nil, fmt.Errorf("failed to decode configuration: %w", err)
	}
	util.TrimStructFields(&doc)

	cfg := doc.toConfig()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// stringToListHookFunc splits comma-separated strings into trimmed,
// non-empty entries.
func stringToListHookFunc() mapstructure.DecodeHookFuncType {
	return func(f reflect.Type, t reflect.Type, data any) (any, error) {
		if f.Kind() != reflect.String || t != reflect.TypeOf([]string{}) {
			return data, nil
		}
		return util.SplitList(reflect.ValueOf(data).String()), nil
	}
}

func (d envDoc) toConfig() *Config {
	return &Config{
		App: AppConfig{
			Name:            d.AppName,
			Host:            d.AppHost,
			Port:            d.AppPort,
			Mode:            d.AppMode,
			CORSOrigins:     d.CORSOrigins,
			ViewsDir:        d.ViewsDir,
			StaticDir:       d.StaticDir,
			ShutdownTimeout: d.ShutdownTimeout,
		},
		DB: db.Config{
			Driver:   d.DBDriver,
			Host:     d.DBHost,
			Port:     d.DBPort,
			User:     d.DBUser,
			Password: d.DBPass,
			Name:     d.DBName,
			SSLMode:  d.DBSSLMode,
			Path:     d.DBPath,
			MinConns: d.DBPoolMin,
			MaxConns: d.DBPoolMax,
		},
		Logging: LoggingConfig{
			Level:         d.LogLevel,
			Format:        d.LogFormat,
			MaskSensitive: d.LogMaskSensitive,
		},
	}
}

// Validate checks values that would otherwise fail late. The database
// section is checked where a connection is opened, so commands that never
// touch the database still run with an incomplete DB_* setup.
func (c *Config) Validate() error {
	if c.App.Port <= 0 || c.App.Port > 65535 {
		return fmt.Errorf("invalid APP_PORT: %d", c.App.Port)
	}
	if _, err := common.ParseLogLevel(c.Logging.Level); err != nil {
		return err
	}
	return nil
}

// SetupLogging installs the global logger described by the logging section.
func (c *Config) SetupLogging() (*common.Logger, error) {
	level, err := common.ParseLogLevel(c.Logging.Level)
	if err != nil {
		return nil, err
	}
	logger, err := common.NewLoggerWithFormat(c.Logging.Format, level)
	if err != nil {
		return nil, err
	}
	common.EnableMasking(c.Logging.MaskSensitive)
	common.SetDefaultLogger(logger)
	logger.Debug("logging configured",
		"level", level.String(),
		"format", util.TrimWithDefault(c.Logging.Format, "text"),
		"mask_sensitive", c.Logging.MaskSensitive)
	return logger, nil
}
