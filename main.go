package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"battle-pass-service/config"
	"battle-pass-service/database"
	"battle-pass-service/services"
	"battle-pass-service/utils"
	"battle-pass-service/workers"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

const serviceName = "battle-pass-service"

func main() {
	rootCmd := &cobra.Command{
		Use:           serviceName,
		Short:         "Battle pass seasons, reward ladder and claims",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	rootCmd.AddCommand(serveCommand(), migrateCommand(), replayGrantsCommand())

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		stop()
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// loadRuntime reads configuration and builds the logger every command needs.
func loadRuntime() (*config.Config, *logrus.Entry, error) {
	cfg, dotenv, err := config.Load()
	if err != nil {
		return nil, nil, err
	}
	log := utils.NewLogger(serviceName, cfg.LogLevel)
	if !dotenv {
		log.Debug("no .env file found, reading environment variables directly")
	}
	return cfg, log, nil
}

func migrateCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Create or update the database schema and exit",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, log, err := loadRuntime()
			if err != nil {
				return err
			}
			db, err := database.Open(cfg.DatabaseDriver, cfg.DatabaseURL)
			if err != nil {
				return err
			}
			defer database.Close(db)

			if err := database.Migrate(db); err != nil {
				return err
			}
			log.Info("[MIGRATE] schema up to date")
			return nil
		},
	}
}

func replayGrantsCommand() *cobra.Command {
	var batch int
	cmd := &cobra.Command{
		Use:   "replay-grants",
		Short: "Deliver one batch of pending benefit grants and exit",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, log, err := loadRuntime()
			if err != nil {
				return err
			}
			db, err := database.Open(cfg.DatabaseDriver, cfg.DatabaseURL)
			if err != nil {
				return err
			}
			defer database.Close(db)

			metrics := services.NewMetrics(prometheus.NewRegistry())
			httpClient := utils.NewHTTPClient(cfg.HTTPTimeout)
			benefits := services.NewBenefitClient(cfg.BenefitServiceURL, cfg.ServiceToken, httpClient, log)
			dispatcher := services.NewGrantDispatcher(db, benefits, cfg.GrantMaxAttempts, metrics, log)

			if batch <= 0 {
				batch = cfg.GrantReplayBatch
			}
			worker := workers.NewGrantReplayWorker(dispatcher, cfg.GrantReplayInterval, batch, log)
			delivered, failed, err := worker.RunOnce(cmd.Context())
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "delivered=%d failed=%d\n", delivered, failed)
			return nil
		},
	}
	cmd.Flags().IntVar(&batch, "batch", 0, "maximum grants to replay (defaults to GRANT_REPLAY_BATCH)")
	return cmd
}
