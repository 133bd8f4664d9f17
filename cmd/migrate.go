package cmd

import (
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"example.com/hospital/services/scheduling/internal/repository"
)

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Run database migrations",
	Run: func(cmd *cobra.Command, args []string) {
		db, err := openDatabase(cfg)
		if err != nil {
			log.Fatal().Err(err).Msg("Failed to connect to database")
		}

		log.Info().Msg("Running database migrations...")
		if err := repository.Migrate(db); err != nil {
			log.Fatal().Err(err).Msg("Failed to run database migrations")
		}

		log.Info().Msg("Database migrations completed successfully")
	},
}

func init() {
	rootCmd.AddCommand(migrateCmd)
}
