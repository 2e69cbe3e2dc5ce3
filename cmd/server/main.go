package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/SAP-F-2025/exercise-service/internal/cache"
	"github.com/SAP-F-2025/exercise-service/internal/config"
	"github.com/SAP-F-2025/exercise-service/internal/grader"
	"github.com/SAP-F-2025/exercise-service/internal/handlers"
	"github.com/SAP-F-2025/exercise-service/internal/repositories/postgres"
	"github.com/SAP-F-2025/exercise-service/internal/services"
	"github.com/SAP-F-2025/exercise-service/internal/utils"
	"github.com/SAP-F-2025/exercise-service/internal/validator"
	"github.com/SAP-F-2025/exercise-service/pkg"
	"github.com/gin-gonic/gin"
)

func main() {
	cfg, err := config.LoadConfig()
	if err != nil {
		slog.Error("Failed to load config", "error", err)
		os.Exit(1)
	}

	logger := utils.NewLogger(cfg.IsProduction())
	if err := run(cfg, logger); err != nil {
		logger.LogError(err, "Server stopped with error")
		os.Exit(1)
	}
}

func run(cfg *config.Config, logger utils.Logger) error {
	db, err := pkg.InitDatabase(cfg)
	if err != nil {
		return err
	}
	if err := pkg.Migrate(db); err != nil {
		return err
	}

	cacheService, closeCache, err := newCache(cfg, logger.Slog())
	if err != nil {
		return err
	}
	defer closeCache()

	publisher, err := cfg.Events.CreateEventPublisher(logger.Slog())
	if err != nil {
		return err
	}
	defer publisher.Close()

	var freeResponseGrader grader.FreeResponseGrader = grader.NewOpenAIGrader(grader.OpenAIConfig{
		APIKey:  cfg.Grader.APIKey,
		BaseURL: cfg.Grader.BaseURL,
		Model:   cfg.Grader.Model,
		Timeout: cfg.Grader.Timeout,
	})
	if cfg.Grader.Resilience {
		freeResponseGrader = grader.NewResilientGrader(freeResponseGrader, grader.DefaultResilientConfig(logger.Slog()))
	}

	serviceManager := services.NewServiceManager(services.Dependencies{
		Repo:         postgres.NewRepository(db),
		Cache:        cacheService,
		CacheTTL:     cfg.CacheTTL,
		Publisher:    publisher,
		Grader:       freeResponseGrader,
		GradeTimeout: cfg.Grader.Timeout,
		Logger:       logger.Slog(),
		Validator:    validator.New(),
	})

	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}
	router := gin.New()
	router.Use(gin.Recovery(), utils.RequestID(), utils.ContextLogger(logger), utils.LoggerMiddleware(logger))
	handlers.NewHandlerManager(serviceManager, logger).SetupRoutes(router)

	server := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, 1)
	go func() {
		logger.Info("Exercise service listening", "port", cfg.Port, "environment", cfg.Environment)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	logger.Info("Shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	return server.Shutdown(shutdownCtx)
}

// newCache uses Redis when REDIS_URL is set and an in-process cache otherwise
func newCache(cfg *config.Config, logger *slog.Logger) (cache.CacheService, func(), error) {
	if cfg.RedisURL == "" {
		logger.Info("REDIS_URL not set, using in-memory cache")
		return cache.NewMemoryCache(), func() {}, nil
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	client, err := pkg.NewRedisClient(ctx, cfg)
	if err != nil {
		return nil, nil, err
	}
	return cache.NewRedisCache(client, logger), func() { _ = client.Close() }, nil
}
