package commands

import (
	"fmt"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/loykin/fsapi/internal/constants"
	"github.com/loykin/fsapi/internal/db"
)

var WaitCmd = &cobra.Command{
	Use:   "db:wait",
	Short: "Block until the database accepts connections",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := LoadConfig()
		if err != nil {
			return err
		}
		timeout := viper.GetDuration("wait_timeout")
		if timeout <= 0 {
			timeout = constants.DefaultWaitTimeout
		}
		interval := viper.GetDuration("wait_interval")
		if interval <= 0 {
			interval = constants.DefaultWaitInterval
		}

		if err := db.WaitReady(cmd.Context(), cfg.DB, timeout, interval); err != nil {
			return fmt.Errorf("database not ready after %s: %w", timeout, err)
		}
		_, _ = fmt.Fprintln(cmd.OutOrStdout(), "Database is ready")
		return nil
	},
}
