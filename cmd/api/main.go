package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"studio-backend/internal/auth"
	"studio-backend/internal/config"
	"studio-backend/internal/infrastructure/database"
	"studio-backend/internal/interfaces/router"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("Config load failed")
	}
	setupLogger(cfg)

	app, res, err := router.CreateApp(cfg)
	if err != nil {
		log.Fatal().Err(err).Msg("App create failed")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	if err := database.GormPing(ctx, res.DB); err != nil {
		cancel()
		log.Fatal().Err(err).Msg("Database connection failed")
	}
	log.Info().Msg("Database connected")
	if err := res.Rdb.Ping(ctx).Err(); err != nil {
		cancel()
		log.Fatal().Err(err).Msg("Redis connection failed")
	}
	log.Info().Msg("Redis connected")
	if err := database.AutoMigrate(res.DB); err != nil {
		cancel()
		log.Fatal().Err(err).Msg("Migration failed")
	}
	if err := auth.EnsureAdmin(ctx, res.DB, "", cfg.AdminBootstrapEmail, cfg.AdminBootstrapPassword); err != nil {
		cancel()
		log.Fatal().Err(err).Msg("Admin bootstrap failed")
	}
	cancel()

	go func() {
		log.Info().Str("port", cfg.Port).Str("env", cfg.Env).Msg("Server running")
		if err := app.Listen(":" + cfg.Port); err != nil {
			log.Fatal().Err(err).Msg("Server stopped")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info().Msg("Shutting down")

	if err := app.ShutdownWithTimeout(15 * time.Second); err != nil {
		log.Error().Err(err).Msg("Server shutdown failed")
	}
	if err := res.Close(); err != nil {
		log.Error().Err(err).Msg("Resource cleanup failed")
	}
}

func setupLogger(cfg *config.Config) {
	zerolog.TimeFieldFormat = time.RFC3339
	if cfg.IsProduction() {
		zerolog.SetGlobalLevel(zerolog.InfoLevel)
		return
	}
	zerolog.SetGlobalLevel(zerolog.DebugLevel)
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: "15:04:05"})
}
