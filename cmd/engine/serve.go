package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/SAP-F-2025/adaptive-assessment-engine/internal/cache"
	"github.com/SAP-F-2025/adaptive-assessment-engine/internal/config"
	"github.com/SAP-F-2025/adaptive-assessment-engine/internal/handlers"
	"github.com/SAP-F-2025/adaptive-assessment-engine/internal/identity"
	"github.com/SAP-F-2025/adaptive-assessment-engine/internal/repositories"
	"github.com/SAP-F-2025/adaptive-assessment-engine/internal/repositories/postgres"
	"github.com/SAP-F-2025/adaptive-assessment-engine/internal/services"
	"github.com/SAP-F-2025/adaptive-assessment-engine/internal/utils"
	"github.com/SAP-F-2025/adaptive-assessment-engine/internal/validator"
	"github.com/SAP-F-2025/adaptive-assessment-engine/pkg"
)

const (
	// lockTTL bounds how long one Submit may hold its session lock. The Redis
	// lease is not renewed; a request running past it is no longer serialized
	// and the release logs a warning.
	lockTTL         = 30 * time.Second
	shutdownTimeout = 15 * time.Second
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP API",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, logger, err := bootstrap()
		if err != nil {
			return err
		}
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()
		return serve(ctx, cfg, logger)
	},
}

func serve(ctx context.Context, cfg *config.Config, logger *slog.Logger) error {
	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}

	db, err := pkg.InitDatabase(cfg, logger)
	if err != nil {
		return err
	}
	if err := postgres.AutoMigrate(db); err != nil {
		return fmt.Errorf("failed to migrate database: %w", err)
	}

	var (
		repo   repositories.Repository = postgres.NewRepository(db)
		store                          = cache.NewMemoryCache()
		locker cache.Locker            = cache.NewLocalLocker()
	)
	if cfg.RedisEnabled() {
		client, err := pkg.NewRedisClient(ctx, cfg)
		if err != nil {
			return err
		}
		defer client.Close()
		store = cache.NewRedisCache(client, logger)
		locker = cache.NewRedisLocker(client, lockTTL, logger)
		logger.Info("Redis connected, using shared cache and session locks")
	} else {
		logger.Warn("REDIS_URL not set, session locks are process-local")
	}
	repo = cache.WrapRepository(repo, cache.NewCachedItemBank(repo.ItemBank(), store, cfg.Engine.CandidateCacheTTL, logger))

	publisher, err := cfg.Events.CreateEventPublisher(logger)
	if err != nil {
		return fmt.Errorf("failed to create event publisher: %w", err)
	}
	defer publisher.Close()

	v := validator.New()
	serviceManager := services.NewServiceManager(services.Dependencies{
		Repo:      repo,
		Directory: identity.NewDirectory(cfg.Identity, logger),
		Locker:    locker,
		Publisher: publisher,
		Engine:    cfg.Engine,
		Logger:    logger,
		Validator: v,
	})

	handlerLogger := utils.NewSlogLogger(logger)
	router := handlers.NewRouter(handlers.NewHandlerManager(serviceManager, v, handlerLogger), handlerLogger, cfg.AllowedOrigins)

	server := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		logger.Info("Starting server", "port", cfg.Port, "environment", cfg.Environment)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("server failed: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		logger.Info("Shutting down server")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		return server.Shutdown(shutdownCtx)
	})

	return g.Wait()
}
