package main

import (
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/loykin/fsapi/cmd/sapi/commands"
	"github.com/loykin/fsapi/internal/constants"
)

var rootCmd = &cobra.Command{
	Use:           "sapi",
	Short:         "Database migrations and ad-hoc queries for fsapi",
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		// Only explicitly set flags override LOG_LEVEL and LOG_FORMAT
		for key, name := range map[string]string{"log_level": "log-level", "log_format": "log-format"} {
			if f := cmd.Flags().Lookup(name); f != nil && f.Changed {
				viper.Set(key, f.Value.String())
			}
		}
		cfg, err := commands.LoadConfig()
		if err != nil {
			return err
		}
		_, err = cfg.SetupLogging()
		return err
	},
}

func init() {
	v := viper.GetViper()
	v.SetDefault("env_file", ".env")
	v.SetDefault("migrations_dir", constants.DefaultMigrationsDir)
	v.SetDefault("output", "text")
	v.SetDefault("wait_timeout", constants.DefaultWaitTimeout)
	v.SetDefault("wait_interval", constants.DefaultWaitInterval)

	pf := rootCmd.PersistentFlags()
	pf.String("env-file", v.GetString("env_file"), "path to the .env file")
	pf.String("migrations-dir", v.GetString("migrations_dir"), "directory holding migration files")
	pf.String("log-level", "", "log level override (error, warn, info, debug)")
	pf.String("log-format", "", "log format override (text, json, color)")
	commands.StatusCmd.Flags().StringP("output", "o", v.GetString("output"), "output format: text, json or yaml")
	commands.WaitCmd.Flags().Duration("timeout", v.GetDuration("wait_timeout"), "maximum time to wait")
	commands.WaitCmd.Flags().Duration("interval", v.GetDuration("wait_interval"), "delay between attempts")

	_ = v.BindPFlag("env_file", pf.Lookup("env-file"))
	_ = v.BindPFlag("migrations_dir", pf.Lookup("migrations-dir"))
	_ = v.BindPFlag("output", commands.StatusCmd.Flags().Lookup("output"))
	_ = v.BindPFlag("wait_timeout", commands.WaitCmd.Flags().Lookup("timeout"))
	_ = v.BindPFlag("wait_interval", commands.WaitCmd.Flags().Lookup("interval"))

	rootCmd.AddCommand(commands.MakeCmd)
	rootCmd.AddCommand(commands.MigrateCmd)
	rootCmd.AddCommand(commands.PendingCmd)
	rootCmd.AddCommand(commands.RollbackCmd)
	rootCmd.AddCommand(commands.FreshCmd)
	rootCmd.AddCommand(commands.StatusCmd)
	rootCmd.AddCommand(commands.QueryCmd)
	rootCmd.AddCommand(commands.WaitCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		exitHandler.Fail(err)
	}
}
