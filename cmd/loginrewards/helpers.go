package main

import (
	"fmt"
	"os"

	"github.com/rs/zerolog"

	"github.com/seolha/loginrewards/internal/config"
	"github.com/seolha/loginrewards/internal/storage"
	"github.com/seolha/loginrewards/internal/storage/bolt"
	"github.com/seolha/loginrewards/internal/storage/csv"
	"github.com/seolha/loginrewards/internal/storage/redis"
)

// setupLogger configures the logger based on configuration
func setupLogger(cfg config.LogConfig) zerolog.Logger {
	level := zerolog.InfoLevel
	switch cfg.Level {
	case "debug":
		level = zerolog.DebugLevel
	case "info":
		level = zerolog.InfoLevel
	case "warn":
		level = zerolog.WarnLevel
	case "error":
		level = zerolog.ErrorLevel
	}

	zerolog.SetGlobalLevel(level)

	if cfg.Format == "text" {
		return zerolog.New(zerolog.ConsoleWriter{Out: os.Stdout}).With().Timestamp().Logger()
	}

	// Default to JSON
	return zerolog.New(os.Stdout).With().Timestamp().Logger()
}

// openStore opens the configured record store backend.
func openStore(cfg *config.Config, logger zerolog.Logger) (storage.Store, error) {
	switch cfg.Storage.Type {
	case "csv":
		return csv.Open(cfg.DataDir, cfg.Location(), logger)
	case "bolt":
		return bolt.Open(cfg.DataDir, logger)
	case "redis":
		return redis.Open(redis.Config{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		}, logger)
	default:
		return nil, fmt.Errorf("unknown storage type %q", cfg.Storage.Type)
	}
}
