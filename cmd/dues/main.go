// Command dues runs the housing-society dues engine: an HTTP API server plus
// operator commands for migrations, bulk billing, the defaulter register and
// demand letters. Configuration comes from the environment and an optional
// .env file.
package main

import (
	"log"
	"os"

	"github.com/joho/godotenv"

	"github.com/xraph/dues/internal/config"
	"github.com/xraph/dues/internal/logger"
)

func main() {
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		log.Printf("Warning: Could not load .env file: %v", err)
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}
	if err := logger.Setup(cfg.GetLoggerConfig()); err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}

	if err := newRootCmd(cfg).Execute(); err != nil {
		l := logger.WithComponent("cmd")
		l.Error().Err(err).Msg("Command execution failed")
		os.Exit(1)
	}
}
