package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/yanote/notes/backend/go-services/internal/config"
	"github.com/yanote/notes/backend/go-services/pkg/logger"
)

var logLevel string

// rootCmd runs the server when called without a subcommand.
var rootCmd = &cobra.Command{
	Use:   "notes",
	Short: "Personal notes service",
	Long: `notes serves a small notes application: every user sees and edits only their own notes,
addressed by unique slugs derived from the title.`,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		level := logLevel
		if level == "" {
			level = os.Getenv("LOG_LEVEL")
		}
		logger.Init(level)
		logger.Debugf("startup: LOG_LEVEL=%s", logger.LevelString())
	},
	RunE: func(cmd *cobra.Command, args []string) error {
		return serveCmd.RunE(cmd, args)
	},
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "debug|info|warn|error (default: $LOG_LEVEL)")
	rootCmd.AddCommand(serveCmd, migrateCmd)
}

func loadConfig() (*config.Config, error) {
	cfg, err := config.LoadConfig()
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	logger.Infof("config loaded: backend=%s keycloak=%v redis=%v minio=%v", cfg.Backend, cfg.Keycloak.URL != "", cfg.Redis.Host != "", cfg.MinIO.Endpoint != "")
	return cfg, nil
}
