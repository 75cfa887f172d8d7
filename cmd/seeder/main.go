// cmd/seeder/main.go
package main

import (
	"context"
	"flag"
	"os"
	"path/filepath"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/ThisIsJeron/fluffyduck-sub000/internal/config"
	"github.com/ThisIsJeron/fluffyduck-sub000/internal/db"
	"github.com/ThisIsJeron/fluffyduck-sub000/internal/observability"
)

func main() {
	dir := flag.String("dir", "seed", "directory holding the seed SQL files")
	flag.Parse()

	cfg, err := config.Parse()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load config")
	}
	logger := observability.InitLogger("fluffyduck-seeder", cfg.LogLevel, cfg.LogFormat)
	if cfg.DatabaseURL == "" {
		logger.Fatal().Msg("DATABASE_URL is required")
	}

	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()

	conn, err := db.Connect(ctx, cfg.DatabaseURL)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to connect to database")
	}
	defer conn.Close()

	if err := db.Migrate(ctx, conn); err != nil {
		logger.Fatal().Err(err).Msg("failed to run migrations")
	}

	seedFiles := []string{
		"campaigns.sql",
	}

	for _, name := range seedFiles {
		file := filepath.Join(*dir, name)
		content, err := os.ReadFile(file)
		if err != nil {
			logger.Fatal().Err(err).Str("file", file).Msg("failed to read seed file")
		}

		if _, err := conn.ExecContext(ctx, string(content)); err != nil {
			logger.Fatal().Err(err).Str("file", file).Msg("failed to execute seed file")
		}
		logger.Info().Str("file", file).Msg("seeded")
	}

	logger.Info().Msg("database seeding completed successfully")
}
