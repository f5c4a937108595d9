// Command devserver runs the notes service on in-memory stores with unsigned id tokens.
// It needs no Postgres, Redis or Keycloak and must never face real users.
package main

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"os"

	"github.com/yanote/notes/backend/go-services/internal/config"
	"github.com/yanote/notes/backend/go-services/internal/server"
	"github.com/yanote/notes/backend/go-services/pkg/logger"
)

func main() {
	logger.Init(os.Getenv("LOG_LEVEL"))

	port := os.Getenv("DEV_SERVER_PORT")
	if port == "" {
		port = "5010"
	}

	cfg, err := devConfig()
	if err != nil {
		logger.Fatalf("dev config: %v", err)
	}
	app, err := server.Bootstrap(context.Background(), cfg)
	if err != nil {
		logger.Fatalf("bootstrap: %v", err)
	}
	defer app.Close(context.Background())

	logger.Warnf("devserver: memory backend, insecure id tokens; listening on :%s", port)
	if err := server.New(app.Deps).Run(":" + port); err != nil {
		logger.Fatalf("server failed: %v", err)
	}
}

// devConfig starts from the environment but forces the memory backend and unsigned id tokens.
func devConfig() (*config.Config, error) {
	os.Setenv("NOTES_BACKEND", config.BackendMemory)
	os.Setenv("ALLOW_INSECURE_TOKEN", "true")
	cfg, err := config.LoadConfig()
	if err != nil {
		return nil, err
	}
	if cfg.JWT.Secret == "" {
		b := make([]byte, 32)
		if _, err := rand.Read(b); err != nil {
			return nil, err
		}
		cfg.JWT.Secret = hex.EncodeToString(b)
	}
	return cfg, nil
}
