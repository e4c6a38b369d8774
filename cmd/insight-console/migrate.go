package main

import (
	"fmt"

	"github.com/salesdeck/insight-console/internal/store"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Migrate the history database",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, done, err := loadConfig()
		if err != nil {
			return fmt.Errorf("reading configuration: %w", err)
		}
		defer done()

		zap.S().Info("Initializing data store")
		db, err := store.InitDB(cfg)
		if err != nil {
			return fmt.Errorf("initializing data store: %w", err)
		}

		s := store.NewStore(db)
		defer s.Close()

		if err := s.InitialMigration(cmd.Context()); err != nil {
			return fmt.Errorf("running initial migration: %w", err)
		}
		zap.S().Info("Db migrated")
		return nil
	},
}
