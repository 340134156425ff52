package main

import (
	"errors"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/elys-network/wamm/internal/config"
	"github.com/elys-network/wamm/internal/logger"
	"github.com/elys-network/wamm/internal/state"
)

var resetConfirmed bool

var resetDBCmd = &cobra.Command{
	Use:   "reset-db",
	Short: "Drop and recreate every pool table",
	Long: `Drops the event log, pool snapshots, fee history and operation counter,
then recreates them empty. The next serve starts from a fresh pool.`,
	RunE: runResetDB,
}

func init() {
	resetDBCmd.Flags().BoolVar(&resetConfirmed, "yes", false, "confirm that all persisted pool data will be deleted")
}

func runResetDB(cmd *cobra.Command, args []string) error {
	logger.Initialize(envOrDefault("LOG_LEVEL", "info"))
	log.Info().Msg("Starting database reset...")

	if !resetConfirmed {
		return errors.New("refusing to reset without --yes")
	}

	dbCfg, err := config.LoadDBConfig()
	if err != nil {
		return err
	}
	if dbCfg == nil {
		return errors.New("DB_HOST environment variable not set")
	}

	log.Info().
		Str("host", dbCfg.Host).
		Int("port", dbCfg.Port).
		Str("user", dbCfg.User).
		Str("dbname", dbCfg.DBName).
		Msg("Connecting to database")

	if err := state.InitDB(*dbCfg); err != nil {
		return err
	}
	defer state.CloseDB()

	if err := state.ResetSchema(); err != nil {
		return err
	}
	log.Info().Msg("Database reset completed successfully!")
	return nil
}
