package commands

import (
	"bufio"
	"context"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/loykin/fsapi/internal/config"
	"github.com/loykin/fsapi/internal/constants"
	"github.com/loykin/fsapi/internal/migration"
)

var MakeCmd = &cobra.Command{
	Use:   "migrate:make <name>",
	Short: "Create a new timestamped migration file",
	Args:  cobra.ArbitraryArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		repo := migration.NewRepository(migrationsDir())
		p, err := repo.Create(strings.Join(args, " "))
		if err != nil {
			return err
		}
		_, _ = fmt.Fprintf(cmd.OutOrStdout(), "Created migration: %s\n", p)
		return nil
	},
}

var MigrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Run all pending migrations",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		out := cmd.OutOrStdout()
		rep := migration.WriterReporter{W: out}
		return withMigrator(cmd.Context(), rep, func(ctx context.Context, _ *config.Config, m *migration.Migrator) error {
			return runUp(ctx, cmd, m)
		})
	},
}

func runUp(ctx context.Context, cmd *cobra.Command, m *migration.Migrator) error {
	out := cmd.OutOrStdout()
	pending, err := m.Pending(ctx)
	if err != nil {
		return err
	}
	if len(pending) == 0 {
		_, _ = fmt.Fprintln(out, "No pending migrations")
		return nil
	}
	_, _ = fmt.Fprintf(out, "Running %s...\n", plural(len(pending), "migration"))
	if _, err := m.Up(ctx); err != nil {
		return err
	}
	_, _ = fmt.Fprintln(out, "All migrations completed successfully")
	return nil
}

var PendingCmd = &cobra.Command{
	Use:   "migrate:pending",
	Short: "List migrations that have not been applied",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		out := cmd.OutOrStdout()
		return withMigrator(cmd.Context(), nil, func(ctx context.Context, _ *config.Config, m *migration.Migrator) error {
			pending, err := m.Pending(ctx)
			if err != nil {
				return err
			}
			if len(pending) == 0 {
				_, _ = fmt.Fprintln(out, "No pending migrations")
				return nil
			}
			_, _ = fmt.Fprintf(out, "Pending migrations (%d):\n", len(pending))
			for _, f := range pending {
				_, _ = fmt.Fprintf(out, "  - %s\n", f.Name)
			}
			return nil
		})
	},
}

var RollbackCmd = &cobra.Command{
	Use:   "migrate:rollback",
	Short: "Roll back the most recently applied migration",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		rep := migration.WriterReporter{W: cmd.OutOrStdout()}
		return withMigrator(cmd.Context(), rep, func(ctx context.Context, _ *config.Config, m *migration.Migrator) error {
			_, err := m.Rollback(ctx)
			return err
		})
	},
}

var FreshCmd = &cobra.Command{
	Use:   "migrate:fresh",
	Short: "Drop all tables and re-run every migration",
	Long: `Drop every table in the active schema, recreate the migrations table and
apply all migrations from scratch. Asks for confirmation; type 'yes' to continue.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		out := cmd.OutOrStdout()
		rep := migration.WriterReporter{W: out}
		return withMigrator(cmd.Context(), rep, func(ctx context.Context, cfg *config.Config, m *migration.Migrator) error {
			_, _ = fmt.Fprintln(out, "WARNING: This will drop all tables in the database!")
			_, _ = fmt.Fprintf(out, "Database: %s\n", databaseLabel(cfg))
			_, _ = fmt.Fprint(out, "Are you sure? Type 'yes' to continue: ")

			if !confirmed(cmd) {
				_, _ = fmt.Fprintln(out, "Aborted")
				return nil
			}
			_, _ = fmt.Fprintln(out, "\nDropping all tables...")
			results, err := m.Fresh(ctx)
			if err != nil {
				return err
			}
			_, _ = fmt.Fprintf(out, "Fresh migration completed: %s applied\n", plural(appliedCount(results), "migration"))
			return nil
		})
	},
}

func confirmed(cmd *cobra.Command) bool {
	line, err := bufio.NewReader(cmd.InOrStdin()).ReadString('\n')
	if err != nil && line == "" {
		return false
	}
	return strings.TrimSpace(line) == constants.FreshConfirmToken
}

func databaseLabel(cfg *config.Config) string {
	if cfg.DB.DriverName() == constants.DriverSQLite {
		return cfg.DB.Path
	}
	return cfg.DB.Name
}

func appliedCount(results []migration.Result) int {
	n := 0
	for _, r := range results {
		if !r.Skipped {
			n++
		}
	}
	return n
}
