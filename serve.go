package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/brettboylen/reaction-tracker/api"
	"github.com/brettboylen/reaction-tracker/db"
	"github.com/brettboylen/reaction-tracker/server"
	"github.com/brettboylen/reaction-tracker/stats"
	"github.com/brettboylen/reaction-tracker/utils"
)

// newServeCmd creates the serve subcommand
func newServeCmd(opts *globalOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Collect reactions and serve metrics over HTTP",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			log := setupLogger(opts.logLevel)
			log.Info("Starting Reaction Tracker")

			config, err := utils.LoadConfig(opts.envPath, log)
			if err != nil {
				log.WithError(err).Error("Failed to load configuration")
				return err
			}

			log.WithFields(logrus.Fields{
				"api_url":          config.Reactions.APIURL,
				"polling_interval": config.Reactions.PollingInterval,
				"server_port":      config.Server.Port,
			}).Info("Configuration loaded")

			database, err := db.NewDatabase(config.Database.Path, log)
			if err != nil {
				log.WithError(err).Error("Failed to connect to database")
				return err
			}
			defer database.Close()

			// the stored snapshot is not served; metrics stay loading until the first fetch
			if stored, err := database.GetTotalReactions(); err == nil {
				log.WithField("stored_reactions", stored).Info("Database ready")
			}

			reactionsAPI := api.NewReactionsAPI(
				config.Reactions.APIURL,
				config.Reactions.MaxRequestsPerMinute,
				log,
			)

			collector := stats.NewCollector(
				reactionsAPI,
				database,
				config.Reactions.PollingInterval,
				log,
			)

			ctx, cancel := context.WithCancel(context.Background())
			defer cancel()

			srv := server.New(collector, config.Server.MaxRequestsPerMinute, log)
			go runServer(ctx, srv, config.Server.Port, log)

			go func() {
				if err := collector.Start(ctx); err != nil && !errors.Is(err, context.Canceled) {
					log.WithError(err).Error("Collector stopped unexpectedly")
				}
			}()

			waitForShutdown(cancel, log)
			return nil
		},
	}
}

// runServer serves HTTP until ctx is cancelled
func runServer(ctx context.Context, srv *server.Server, port int, log *logrus.Logger) {
	go func() {
		if err := srv.Start(port); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.WithError(err).Fatal("API server failed")
		}
	}()

	// wait for context cancellation to shut down server
	<-ctx.Done()
	log.Info("Shutting down API server")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.WithError(err).Error("API server shutdown failed")
	}
}

// waitForShutdown waits for a shutdown signal
func waitForShutdown(cancel context.CancelFunc, log *logrus.Logger) {
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	sig := <-sigChan
	log.WithField("signal", sig.String()).Info("Shutdown signal received")

	cancel()

	time.Sleep(1 * time.Second)
	log.Info("Reaction Tracker stopped")
}
