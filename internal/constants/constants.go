package constants

import "time"

// Database Constants
const (
	DriverPostgres = "postgres"
	DriverSQLite   = "sqlite"

	DefaultPostgresHost    = "localhost"
	DefaultPostgresPort    = 5432
	DefaultPostgresUser    = "postgres"
	DefaultPostgresDB      = "postgres"
	DefaultPostgresSSLMode = "disable"

	// Pool bounds
	DefaultPoolMinConns = 10
	DefaultPoolMaxConns = 20

	DefaultSQLitePath = "fsapi.db"
)

// Migration Constants
const (
	DefaultMigrationsTable = "migrations"
	DefaultMigrationsDir   = "migrations"
	MigrationExt           = ".sql"

	UpMarker   = "-- UP"
	DownMarker = "-- DOWN"

	// Go reference layout for YYYY_MM_DD_HH_mm
	MigrationTimestampLayout = "2006_01_02_15_04"

	// Token the user must type before migrate:fresh proceeds
	FreshConfirmToken = "yes"
)

// Wait Configuration Constants
const (
	DefaultWaitTimeout  = 60 * time.Second
	DefaultWaitInterval = 2 * time.Second
)

// HTTP service defaults
const (
	DefaultAppName  = "fsapi"
	DefaultAppHost  = "0.0.0.0"
	DefaultAppPort  = 8000
	DefaultAppMode  = "production"
	DefaultViewsDir = "views"
	DefaultStatic   = "static"

	ShutdownTimeout = 5 * time.Second
)
