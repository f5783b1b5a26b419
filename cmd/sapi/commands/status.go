package commands

import (
	"context"
	"fmt"
	"io"
	"text/tabwriter"
	"time"

	"github.com/goccy/go-json"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"

	"github.com/loykin/fsapi/internal/config"
	"github.com/loykin/fsapi/internal/migration"
	"github.com/loykin/fsapi/internal/util"
)

var StatusCmd = &cobra.Command{
	Use:   "migrate:status",
	Short: "Show applied, pending and missing migrations",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		format := util.TrimAndLower(util.TrimWithDefault(viper.GetString("output"), "text"))
		switch format {
		case "text", "json", "yaml":
		default:
			return fmt.Errorf("invalid output format: %s (valid: text, json, yaml)", format)
		}
		return withMigrator(cmd.Context(), nil, func(ctx context.Context, _ *config.Config, m *migration.Migrator) error {
			entries, err := m.Status(ctx)
			if err != nil {
				return err
			}
			return writeStatus(cmd.OutOrStdout(), format, entries)
		})
	},
}

func writeStatus(w io.Writer, format string, entries []migration.StatusEntry) error {
	switch format {
	case "json":
		b, err := json.MarshalIndent(entries, "", "  ")
		if err != nil {
			return err
		}
		_, err = fmt.Fprintln(w, string(b))
		return err
	case "yaml":
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(entries); err != nil {
			return err
		}
		return enc.Close()
	}

	if len(entries) == 0 {
		_, err := fmt.Fprintln(w, "No migrations found")
		return err
	}
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	_, _ = fmt.Fprintln(tw, "NAME\tSTATE\tAPPLIED AT\tDURATION")
	for _, e := range entries {
		at, dur := "-", "-"
		if e.AppliedAt != nil {
			at = e.AppliedAt.Format(time.RFC3339)
			dur = fmt.Sprintf("%dms", e.DurationMs)
		}
		_, _ = fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n", e.Name, e.State, at, dur)
	}
	return tw.Flush()
}
