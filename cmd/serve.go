package cmd

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"example.com/hospital/services/scheduling/internal/api"
	"example.com/hospital/services/scheduling/internal/messaging"
	"example.com/hospital/services/scheduling/internal/repository"
	"example.com/hospital/services/scheduling/internal/scheduling"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the scheduling API server",
	Run:   runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, args []string) {
	log.Info().Msg("Starting scheduling server")

	db, err := openDatabase(cfg)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to connect to database")
	}

	if cfg.EnableMigrations {
		if err := repository.Migrate(db); err != nil {
			log.Fatal().Err(err).Msg("Failed to migrate database")
		}
	}

	broker, err := newBroker(cfg)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to connect to broker")
	}

	users, err := newUserDirectory(db, cfg)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to initialize user directory")
	}

	consultations := repository.NewGormConsultationRepository(db)
	publisher := messaging.NewEventPublisher(broker)

	schedulingService := scheduling.NewService(consultations, users, publisher)
	userService := scheduling.NewUserService(users)

	server := api.NewServer(cfg.Server.Address, schedulingService, userService)

	go func() {
		if err := server.Start(); err != nil {
			log.Fatal().Err(err).Msg("Failed to start HTTP server")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		log.Error().Err(err).Msg("Server forced to shutdown")
	}
	if err := broker.Close(ctx); err != nil {
		log.Error().Err(err).Msg("Error closing broker")
	}

	log.Info().Msg("Server exited properly")
}
