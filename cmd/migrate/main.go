package main

import (
	"errors"
	"fmt"
	"os"
	"strconv"

	"circle/internal/config"
	"circle/internal/database"
	"circle/internal/logger"

	"github.com/golang-migrate/migrate/v4"
)

func main() {
	logger.Init(os.Getenv("ENV"))
	defer logger.Sync()

	if err := run(); err != nil {
		logger.Get().Fatalf("Migration error: %v", err)
	}
}

func run() error {
	if len(os.Args) < 2 {
		return fmt.Errorf("usage: migrate <up|down|version> [N]")
	}

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	if cfg.DBDriver == config.DriverBolt {
		return fmt.Errorf("the bolt backend has no SQL schema to migrate")
	}

	command := os.Args[1]

	return database.Migrate(database.NewConfig(cfg), func(m *migrate.Migrate) error {
		switch command {
		case "up":
			if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
				return fmt.Errorf("migration up failed: %w", err)
			}
			logger.Get().Info("Migrations applied successfully")

		case "down":
			steps := 1
			if len(os.Args) > 2 {
				steps, err = strconv.Atoi(os.Args[2])
				if err != nil {
					return fmt.Errorf("invalid step count: %w", err)
				}
			}
			if err := m.Steps(-steps); err != nil && !errors.Is(err, migrate.ErrNoChange) {
				return fmt.Errorf("migration down failed: %w", err)
			}
			logger.Get().Infof("Rolled back %d migration(s)", steps)

		case "version":
			version, dirty, err := m.Version()
			if err != nil {
				return fmt.Errorf("failed to get version: %w", err)
			}
			logger.Get().Infof("Version: %d, Dirty: %v", version, dirty)

		default:
			return fmt.Errorf("unknown command: %s (use up, down, or version)", command)
		}
		return nil
	})
}
