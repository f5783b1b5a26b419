package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/loykin/fsapi/internal/apperr"
	"github.com/loykin/fsapi/internal/config"
	"github.com/loykin/fsapi/internal/db"
	"github.com/loykin/fsapi/internal/httpc"
	"github.com/loykin/fsapi/internal/server"
)

var rootCmd = &cobra.Command{
	Use:           "fsapi",
	Short:         "Serve the fsapi web application",
	SilenceUsage:  true,
	SilenceErrors: true,
	RunE: func(cmd *cobra.Command, args []string) error {
		return serve(cmd.Context())
	},
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP server (default)",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return serve(cmd.Context())
	},
}

var healthcheckCmd = &cobra.Command{
	Use:   "healthcheck",
	Short: "Probe a running server's /health endpoint",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		h := &httpc.Httpc{Timeout: viper.GetDuration("health_timeout")}
		res, err := h.CheckHealth(cmd.Context(), viper.GetString("health_url"))
		if err != nil {
			return apperr.Connection("healthcheck", err)
		}
		_, _ = fmt.Fprintf(cmd.OutOrStdout(), "status=%s database=%s mode=%s\n", res.Status, res.Database, res.AppMode)
		if !res.Healthy() {
			return fmt.Errorf("service is %s (HTTP %d)", res.Status, res.StatusCode)
		}
		return nil
	},
}

func serve(parent context.Context) error {
	cfg, err := config.Load(viper.GetViper(), viper.GetString("env_file"))
	if err != nil {
		return err
	}
	if err := cfg.DB.Validate(); err != nil {
		return apperr.New(apperr.ErrInvalidArgument, "invalid database configuration", err)
	}
	logger, err := cfg.SetupLogging()
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(parent, os.Interrupt, syscall.SIGTERM)
	defer stop()

	provider := db.NewProvider()
	defer func() {
		if cerr := provider.Close(); cerr != nil {
			logger.Warn("failed to close database pool", "error", cerr)
		}
	}()
	// The server still starts without a database; /health reports degraded.
	if _, err := provider.CreatePool(ctx, cfg.DB); err != nil {
		logger.Error("database pool unavailable", "error", err, "db", cfg.DB.Redacted())
	} else {
		logger.Info("database pool ready", "driver", cfg.DB.DriverName())
	}

	srv, err := server.New(cfg.App, provider, logger)
	if err != nil {
		return err
	}
	return srv.Run(ctx)
}

func init() {
	v := viper.GetViper()
	v.SetDefault("env_file", ".env")
	v.SetDefault("health_url", "http://127.0.0.1:8000/health")
	v.SetDefault("health_timeout", "5s")

	rootCmd.PersistentFlags().String("env-file", v.GetString("env_file"), "path to the .env file")
	healthcheckCmd.Flags().String("url", v.GetString("health_url"), "full URL of the /health endpoint")
	healthcheckCmd.Flags().Duration("timeout", v.GetDuration("health_timeout"), "request timeout")

	_ = v.BindPFlag("env_file", rootCmd.PersistentFlags().Lookup("env-file"))
	_ = v.BindPFlag("health_url", healthcheckCmd.Flags().Lookup("url"))
	_ = v.BindPFlag("health_timeout", healthcheckCmd.Flags().Lookup("timeout"))

	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(healthcheckCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		_, _ = fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(apperr.ExitCode(err))
	}
}
