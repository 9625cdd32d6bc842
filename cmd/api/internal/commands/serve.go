package commands

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/gin-gonic/gin"

	"airg/internal/auth"
	"airg/internal/bus"
	"airg/internal/db"
	httpserver "airg/internal/http"
	"airg/internal/http/middleware"
	"airg/internal/idempotency"
	"airg/internal/logger"
	"airg/internal/models"
	"airg/internal/repository"
	"airg/internal/storage"
)

type ServeCmd struct {
	AutoMigrate bool `help:"Run database migrations on startup." default:"true" negatable:"" env:"AUTO_MIGRATE"`
}

func (s *ServeCmd) Run(ctx context.Context, globals *Globals) error {
	cfg := globals.Config
	log := logger.Setup(cfg.Debug)
	ctx = log.WithContext(ctx)

	log.Info().Str("version", globals.Version).Bool("debug", cfg.Debug).Msg("Starting server")

	if !cfg.Debug {
		gin.SetMode(gin.ReleaseMode)
	}

	gdb, err := connect(ctx, cfg)
	if err != nil {
		return err
	}
	defer db.Close(gdb)

	if s.AutoMigrate {
		if err := db.Migrate(gdb); err != nil {
			return err
		}
	}

	deps := httpserver.Deps{
		DB: gdb,
		Auth: auth.NewService(gdb, auth.Options{
			Secret:     cfg.Auth.Secret,
			TTL:        cfg.Auth.TTL,
			BcryptCost: cfg.Auth.BcryptCost,
		}),
		Logger: log,
	}

	if cfg.Redis.URL != "" {
		store, err := idempotency.NewStore(ctx, cfg.Redis.URL, cfg.Redis.IdempotencyTTL)
		if err != nil {
			log.Warn().Err(err).Msg("Redis unavailable, idempotent replay disabled")
		} else {
			defer store.Close()
			deps.Idempotency = store
		}
	}

	if cfg.AMQP.URL != "" {
		gateway, err := bus.Dial(cfg.AMQP.URL, cfg.AMQP.Exchange)
		if err != nil {
			return err
		}
		defer gateway.Close()
		deps.Publisher = gateway
	} else {
		log.Warn().Msg("AMQP_URL not set, work requests are logged and dropped")
		deps.Publisher = bus.Discard{Logger: log}
	}

	if cfg.S3.Endpoint != "" {
		presigner, err := storage.NewPresigner(storage.Config{
			Endpoint:        cfg.S3.Endpoint,
			Region:          cfg.S3.Region,
			AccessKeyID:     cfg.S3.AccessKeyID,
			SecretAccessKey: cfg.S3.SecretAccessKey,
			Bucket:          cfg.S3.Bucket,
			Expiry:          cfg.S3.PresignExpiry,
		})
		if err != nil {
			return err
		}
		deps.Uploads = presigner
	}

	auditor := middleware.NewAuditor(repository.New[models.AuditLog](gdb), log, middleware.AuditOptions{
		SensitivePrefixes: cfg.Audit.SensitivePrefixes,
		BasePath:          httpserver.BasePath,
	})
	deps.Auditor = auditor

	server := configureHTTPServer(cfg.ListenAddr(), httpserver.NewRouter(deps))

	errCh := make(chan error, 1)
	go func() {
		log.Info().Str("addr", server.Addr).Msg("API listening")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(sigCh)

	select {
	case sig := <-sigCh:
		log.Info().Str("signal", sig.String()).Msg("shutting down")
	case err, ok := <-errCh:
		if ok {
			return err
		}
	}

	shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), cfg.Shutdown.Timeout)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("shutdown error")
	}

	// Pending audit writes need the database, which the deferred Close
	// below tears down.
	auditor.Wait()
	return nil
}
