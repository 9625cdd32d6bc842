package commands

import (
	"context"
	"net/http"
	"time"

	"gorm.io/gorm"

	"airg/internal/config"
	"airg/internal/db"
)

type Globals struct {
	Config  config.Config
	Version string
}

func connect(ctx context.Context, cfg config.Config) (*gorm.DB, error) {
	return db.Connect(ctx, db.Options{
		Driver:       cfg.DB.Driver,
		DSN:          cfg.DB.DSN,
		Debug:        cfg.Debug,
		MaxOpenConns: cfg.DB.MaxOpenConns,
	})
}

func configureHTTPServer(addr string, handler http.Handler) *http.Server {
	return &http.Server{
		Addr:              addr,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       time.Minute,
		WriteTimeout:      time.Minute,
		IdleTimeout:       2 * time.Minute,
		MaxHeaderBytes:    16 * 1024,
	}
}
