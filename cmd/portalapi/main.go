package main

import (
	"log"
	"os"

	"mspportal/internal/config"
	httpinfra "mspportal/internal/infra/http"
	"mspportal/internal/infra/logging"

	"go.uber.org/zap"
)

func main() {
	cfg := config.FromEnv()
	if err := cfg.Validate(); err != nil {
		log.Fatalf("invalid configuration: %v", err)
	}

	logger := logging.New(os.Stderr, cfg.LogLevel, cfg.LogFormat)
	defer func() { _ = logger.Sync() }()

	srv := httpinfra.NewServer(cfg, logger)
	defer func() { _ = srv.Close() }()
	if err := srv.Run(); err != nil {
		logger.Fatal("server exited", zap.Error(err))
	}
}
