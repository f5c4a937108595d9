package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/yanote/notes/backend/go-services/internal/config"
	"github.com/yanote/notes/backend/go-services/internal/database"
	"github.com/yanote/notes/backend/go-services/pkg/logger"
)

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Apply the Postgres schema and exit",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		if cfg.Backend != config.BackendPostgres {
			return fmt.Errorf("migrate needs NOTES_BACKEND=%s, got %q", config.BackendPostgres, cfg.Backend)
		}
		db, err := database.NewPostgres(cmd.Context(), cfg.Postgres.DSN, 1, 1)
		if err != nil {
			return err
		}
		defer db.Close()
		if err := database.Migrate(cmd.Context(), db); err != nil {
			return err
		}
		logger.Infof("schema up to date")
		return nil
	},
}
