package cmd

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"example.com/hospital/services/scheduling/internal/notification"
)

var workerCmd = &cobra.Command{
	Use:   "worker",
	Short: "Start the notification worker",
	Run:   runWorker,
}

func init() {
	rootCmd.AddCommand(workerCmd)
}

func runWorker(cmd *cobra.Command, args []string) {
	log.Info().Msg("Starting notification worker")

	broker, err := newBroker(cfg)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to connect to broker")
	}

	dispatcher := notification.NewDispatcher(notification.NewLogSink())

	ctx, cancel := context.WithCancel(context.Background())
	group, ctx := errgroup.WithContext(ctx)

	group.Go(func() error {
		return dispatcher.Run(ctx, broker)
	})

	group.Go(func() error {
		quit := make(chan os.Signal, 1)
		signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
		select {
		case <-quit:
			log.Info().Msg("Shutting down worker...")
			cancel()
		case <-ctx.Done():
		}
		return nil
	})

	if err := group.Wait(); err != nil && err != context.Canceled {
		log.Error().Err(err).Msg("Worker stopped with error")
	}

	if err := broker.Close(context.Background()); err != nil {
		log.Error().Err(err).Msg("Error closing broker")
	}

	log.Info().Msg("Worker exited properly")
}
