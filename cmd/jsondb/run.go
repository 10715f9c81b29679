package main

import (
	"context"
	"fmt"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/hexdb-io/hexdb/config"
	"github.com/hexdb-io/hexdb/internal/logger"
	"github.com/hexdb-io/hexdb/internal/metrics"
	"github.com/hexdb-io/hexdb/server"
)

var (
	configPath string
	envPath    string
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Start the jsondb TCP server",
	Long: `Start the jsondb TCP server: loads configuration, bootstraps the data
directory and handshake keypair, and serves SQL-over-JSON requests until
interrupted.`,
	RunE: runRun,
}

func init() {
	rootCmd.AddCommand(runCmd)

	runCmd.Flags().StringVarP(&configPath, "config", "c", "config.yaml", "Path to config.yaml")
	runCmd.Flags().StringVar(&envPath, "env", "", "Path to a .env file overlaying configuration")
}

func runRun(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load(config.LoaderOptions{ConfigPath: configPath, EnvPath: envPath})
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	if cfg.Logging.Format == "text" {
		logger.GetDefaultLogger().SetPrettyPrint(true)
	}

	if cfg.Metrics.Enabled {
		go func() {
			if err := metrics.StartServer(cfg.Metrics.Addr); err != nil {
				logger.ErrorMsg("metrics server stopped", logger.String("error", err.Error()))
			}
		}()
	}

	srv, err := server.New(cfg)
	if err != nil {
		return fmt.Errorf("build server: %w", err)
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	return srv.Run(ctx)
}
