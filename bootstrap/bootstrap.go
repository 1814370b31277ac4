package bootstrap

import (
	"context"
	"net/http"
	"time"

	"studio-backend/internal/auth"
	"studio-backend/internal/config"
	"studio-backend/internal/infrastructure/database"
	"studio-backend/internal/interfaces/router"
)

// Handler builds the app for the serverless entry point (api/ imports this package, not internal).
// Resources live for the life of the instance.
func Handler() (http.Handler, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}
	app, res, err := router.CreateApp(cfg)
	if err != nil {
		return nil, err
	}
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := database.AutoMigrate(res.DB.WithContext(ctx)); err != nil {
		_ = res.Close()
		return nil, err
	}
	if err := auth.EnsureAdmin(ctx, res.DB, "", cfg.AdminBootstrapEmail, cfg.AdminBootstrapPassword); err != nil {
		_ = res.Close()
		return nil, err
	}
	return router.Handler(app), nil
}
