package commands

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/goccy/go-json"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"

	"github.com/loykin/fsapi/internal/apperr"
	"github.com/loykin/fsapi/internal/migration"
)

type env struct {
	dir    string
	migDir string
	dbPath string
}

// setup points the commands at a throwaway sqlite database and migrations dir.
func setup(t *testing.T) env {
	t.Helper()
	viper.Reset()
	t.Cleanup(viper.Reset)

	dir := t.TempDir()
	e := env{dir: dir, migDir: filepath.Join(dir, "migrations"), dbPath: filepath.Join(dir, "app.db")}
	if err := os.MkdirAll(e.migDir, 0o755); err != nil {
		t.Fatal(err)
	}
	t.Setenv("DB_DRIVER", "sqlite")
	t.Setenv("DB_PATH", e.dbPath)
	viper.Set("env_file", filepath.Join(dir, "absent.env"))
	viper.Set("migrations_dir", e.migDir)
	return e
}

func (e env) write(t *testing.T, name, content string) {
	t.Helper()
	if err := os.WriteFile(filepath.Join(e.migDir, name), []byte(content), 0o600); err != nil {
		t.Fatal(err)
	}
}

func run(t *testing.T, cmd *cobra.Command, stdin string, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetIn(strings.NewReader(stdin))
	cmd.SetContext(context.Background())
	err := cmd.RunE(cmd, args)
	return out.String(), err
}

const usersMigration = `-- UP
CREATE TABLE users (id INTEGER PRIMARY KEY, name TEXT);
-- DOWN
DROP TABLE users;
`

const postsMigration = `-- UP
CREATE TABLE posts (id INTEGER PRIMARY KEY, title TEXT);
-- DOWN
DROP TABLE posts;
`

func TestMakeCmd_CreatesFile(t *testing.T) {
	e := setup(t)
	out, err := run(t, MakeCmd, "", "Create", "Users", "Table")
	if err != nil {
		t.Fatalf("make: %v", err)
	}
	if !strings.HasPrefix(out, "Created migration: ") {
		t.Fatalf("unexpected output: %q", out)
	}
	entries, _ := os.ReadDir(e.migDir)
	if len(entries) != 1 || !strings.HasSuffix(entries[0].Name(), "_Create_Users_Table.sql") {
		t.Fatalf("unexpected files: %v", entries)
	}
}

func TestMakeCmd_EmptyName(t *testing.T) {
	setup(t)
	_, err := run(t, MakeCmd, "")
	if !errors.Is(err, apperr.ErrInvalidArgument) {
		t.Fatalf("expected invalid argument, got %v", err)
	}
}

func TestMigrateCmd_AppliesPending(t *testing.T) {
	e := setup(t)
	e.write(t, "2024_01_01_00_00_create_users.sql", usersMigration)
	e.write(t, "2024_01_02_00_00_create_posts.sql", postsMigration)

	out, err := run(t, MigrateCmd, "")
	if err != nil {
		t.Fatalf("migrate: %v", err)
	}
	for _, want := range []string{
		"Running 2 migration(s)...",
		"  Migrating: 2024_01_01_00_00_create_users.sql",
		"  Migrating: 2024_01_02_00_00_create_posts.sql",
		"All migrations completed successfully",
	} {
		if !strings.Contains(out, want) {
			t.Fatalf("output missing %q:\n%s", want, out)
		}
	}

	out, err = run(t, MigrateCmd, "")
	if err != nil {
		t.Fatalf("second migrate: %v", err)
	}
	if strings.TrimSpace(out) != "No pending migrations" {
		t.Fatalf("expected no pending, got %q", out)
	}
}

func TestMigrateCmd_FailureStopsRun(t *testing.T) {
	e := setup(t)
	e.write(t, "2024_01_01_00_00_broken.sql", "-- UP\nCREATE TABLE (;\n-- DOWN\n")
	e.write(t, "2024_01_02_00_00_create_posts.sql", postsMigration)

	out, err := run(t, MigrateCmd, "")
	if !errors.Is(err, apperr.ErrExecution) {
		t.Fatalf("expected execution error, got %v", err)
	}
	if strings.Contains(out, "create_posts") {
		t.Fatalf("later migration should not run:\n%s", out)
	}

	out, err = run(t, PendingCmd, "")
	if err != nil {
		t.Fatalf("pending: %v", err)
	}
	if !strings.Contains(out, "Pending migrations (2):") {
		t.Fatalf("both migrations should stay pending:\n%s", out)
	}
}

func TestPendingCmd(t *testing.T) {
	e := setup(t)
	out, err := run(t, PendingCmd, "")
	if err != nil {
		t.Fatalf("pending: %v", err)
	}
	if strings.TrimSpace(out) != "No pending migrations" {
		t.Fatalf("unexpected output %q", out)
	}

	e.write(t, "2024_01_01_00_00_create_users.sql", usersMigration)
	out, err = run(t, PendingCmd, "")
	if err != nil {
		t.Fatalf("pending: %v", err)
	}
	want := "Pending migrations (1):\n  - 2024_01_01_00_00_create_users.sql\n"
	if out != want {
		t.Fatalf("got %q want %q", out, want)
	}
}

func TestRollbackCmd(t *testing.T) {
	e := setup(t)
	if _, err := run(t, RollbackCmd, ""); !errors.Is(err, apperr.ErrNotFound) {
		t.Fatalf("expected not found on empty history, got %v", err)
	}

	e.write(t, "2024_01_01_00_00_create_users.sql", usersMigration)
	e.write(t, "2024_01_02_00_00_create_posts.sql", postsMigration)
	if _, err := run(t, MigrateCmd, ""); err != nil {
		t.Fatal(err)
	}

	out, err := run(t, RollbackCmd, "")
	if err != nil {
		t.Fatalf("rollback: %v", err)
	}
	if !strings.Contains(out, "Rolling back: 2024_01_02_00_00_create_posts.sql") {
		t.Fatalf("unexpected output:\n%s", out)
	}
	if strings.Contains(out, "create_users") {
		t.Fatalf("only the last migration should roll back:\n%s", out)
	}
}

func TestFreshCmd_AbortsWithoutYes(t *testing.T) {
	e := setup(t)
	e.write(t, "2024_01_01_00_00_create_users.sql", usersMigration)
	if _, err := run(t, MigrateCmd, ""); err != nil {
		t.Fatal(err)
	}

	for _, answer := range []string{"no\n", "YES\n", "", "y\n"} {
		out, err := run(t, FreshCmd, answer)
		if err != nil {
			t.Fatalf("fresh(%q): %v", answer, err)
		}
		if !strings.Contains(out, "WARNING") || !strings.Contains(out, e.dbPath) {
			t.Fatalf("missing warning:\n%s", out)
		}
		if !strings.HasSuffix(strings.TrimSpace(out), "Aborted") {
			t.Fatalf("fresh(%q) should abort:\n%s", answer, out)
		}
	}
}

func TestFreshCmd_RebuildsSchema(t *testing.T) {
	e := setup(t)
	e.write(t, "2024_01_01_00_00_create_users.sql", usersMigration)
	if _, err := run(t, MigrateCmd, ""); err != nil {
		t.Fatal(err)
	}
	if _, err := run(t, QueryCmd, "", "INSERT INTO users (name) VALUES ('ada')"); err != nil {
		t.Fatal(err)
	}

	out, err := run(t, FreshCmd, "  yes \n")
	if err != nil {
		t.Fatalf("fresh: %v", err)
	}
	if !strings.Contains(out, "Fresh migration completed: 1 migration(s) applied") {
		t.Fatalf("unexpected output:\n%s", out)
	}

	out, err = run(t, QueryCmd, "", "SELECT COUNT(*) AS n FROM users")
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(out, "\n0\n") || !strings.Contains(out, "1 row(s) returned") {
		t.Fatalf("users should be empty after fresh:\n%s", out)
	}
}

func TestQueryCmd(t *testing.T) {
	setup(t)
	out, err := run(t, QueryCmd, "", "CREATE TABLE t (x INTEGER)")
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if !strings.HasPrefix(out, "Query executed: ") {
		t.Fatalf("unexpected output %q", out)
	}

	out, err = run(t, QueryCmd, "", "SELECT x FROM t")
	if err != nil {
		t.Fatal(err)
	}
	if !strings.HasPrefix(out, "No rows returned\n") {
		t.Fatalf("unexpected output %q", out)
	}

	if _, err := run(t, QueryCmd, "", "   "); !errors.Is(err, apperr.ErrInvalidArgument) {
		t.Fatalf("expected invalid argument, got %v", err)
	}
	if _, err := run(t, QueryCmd, "", "SELECT * FROM nope"); !errors.Is(err, apperr.ErrExecution) {
		t.Fatalf("expected execution error, got %v", err)
	}
}

func TestStatusCmd_Formats(t *testing.T) {
	e := setup(t)
	e.write(t, "2024_01_01_00_00_create_users.sql", usersMigration)
	if _, err := run(t, MigrateCmd, ""); err != nil {
		t.Fatal(err)
	}
	e.write(t, "2024_01_02_00_00_create_posts.sql", postsMigration)

	viper.Set("output", "json")
	out, err := run(t, StatusCmd, "")
	if err != nil {
		t.Fatalf("status json: %v", err)
	}
	var entries []migration.StatusEntry
	if err := json.Unmarshal([]byte(out), &entries); err != nil {
		t.Fatalf("decode json: %v\n%s", err, out)
	}
	if len(entries) != 2 || entries[0].State != migration.StateApplied || entries[1].State != migration.StatePending {
		t.Fatalf("unexpected entries: %+v", entries)
	}

	viper.Set("output", "yaml")
	out, err = run(t, StatusCmd, "")
	if err != nil {
		t.Fatalf("status yaml: %v", err)
	}
	entries = nil
	if err := yaml.Unmarshal([]byte(out), &entries); err != nil {
		t.Fatalf("decode yaml: %v", err)
	}
	if len(entries) != 2 || entries[1].Name != "2024_01_02_00_00_create_posts.sql" {
		t.Fatalf("unexpected entries: %+v", entries)
	}

	viper.Set("output", "text")
	out, err = run(t, StatusCmd, "")
	if err != nil {
		t.Fatal(err)
	}
	if !strings.HasPrefix(out, "NAME") || !strings.Contains(out, "pending") {
		t.Fatalf("unexpected table:\n%s", out)
	}

	viper.Set("output", "xml")
	if _, err := run(t, StatusCmd, ""); err == nil {
		t.Fatal("expected error for unknown format")
	}
}

func TestWaitCmd_SQLite(t *testing.T) {
	setup(t)
	out, err := run(t, WaitCmd, "")
	if err != nil {
		t.Fatalf("wait: %v", err)
	}
	if strings.TrimSpace(out) != "Database is ready" {
		t.Fatalf("unexpected output %q", out)
	}
}

func TestInvalidDatabaseConfig_OnlyBlocksDatabaseCommands(t *testing.T) {
	e := setup(t)
	t.Setenv("DB_DRIVER", "oracle")
	t.Setenv("DB_PORT", "70000")

	if _, err := LoadConfig(); err != nil {
		t.Fatalf("LoadConfig: %v", err)
	}
	if _, err := run(t, MakeCmd, "", "add_index"); err != nil {
		t.Fatalf("make should not need the database: %v", err)
	}
	entries, _ := os.ReadDir(e.migDir)
	if len(entries) != 1 {
		t.Fatalf("expected one migration file, got %d", len(entries))
	}

	for _, cmd := range []*cobra.Command{MigrateCmd, PendingCmd, WaitCmd} {
		if _, err := run(t, cmd, ""); !errors.Is(err, apperr.ErrInvalidArgument) {
			t.Errorf("%s = %v, want invalid argument", cmd.Name(), err)
		}
	}
	if _, err := run(t, QueryCmd, "", "SELECT 1"); !errors.Is(err, apperr.ErrInvalidArgument) {
		t.Errorf("query = %v, want invalid argument", err)
	}
}
