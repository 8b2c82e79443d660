package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	httptransport "github.com/spec-kit/token-queue-service/internal/api/http"
	"github.com/spec-kit/token-queue-service/internal/api/http/handlers"
	"github.com/spec-kit/token-queue-service/internal/auth"
	"github.com/spec-kit/token-queue-service/internal/config"
	"github.com/spec-kit/token-queue-service/internal/events"
	"github.com/spec-kit/token-queue-service/internal/observability"
	"github.com/spec-kit/token-queue-service/internal/persistence"
	"github.com/spec-kit/token-queue-service/internal/repository"
	"github.com/spec-kit/token-queue-service/internal/service"
	"github.com/spec-kit/token-queue-service/internal/worker"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	logger, err := observability.NewLogger(cfg.Logger)
	if err != nil {
		log.Fatalf("failed to init logger: %v", err)
	}
	defer logger.Sync() //nolint:errcheck

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	pg, err := persistence.NewPostgres(ctx, cfg.Postgres, logger)
	if err != nil {
		logger.Fatal("failed to connect postgres", zap.Error(err))
	}
	defer pg.Close()

	if cfg.Postgres.RunMigrations && pg.PoolHandle() != nil {
		if err := persistence.RunMigrations(ctx, pg.PoolHandle(), logger); err != nil {
			logger.Fatal("failed to run migrations", zap.Error(err))
		}
	}

	redis := persistence.NewRedis(cfg.Redis, logger)
	defer redis.Close()

	var tokenStore repository.TokenStore
	var userStore repository.UserStore
	if pool := pg.PoolHandle(); pool != nil {
		tokenStore = repository.NewTokenRepository(pool)
		userStore = repository.NewUserRepository(pool)
	} else {
		tokenStore = repository.NewMemoryTokenStore()
		userStore = repository.NewMemoryUserStore()
	}

	dispatcher := events.NewInMemoryDispatcher()
	metrics := observability.NewMetrics()

	tokenService := service.NewTokenService(service.TokenDependencies{
		TokenStore: tokenStore,
		Cache:      redis.Client,
		Dispatcher: dispatcher,
		QueueSize:  cfg.App.DisplayQueueSize,
	})
	authService := service.NewAuthService(cfg.Auth, userStore)
	notificationService := service.NewNotificationService(cfg.Notification, dispatcher, logger)

	if err := authService.EnsureAdmin(ctx, cfg.Auth.AdminUsername, cfg.Auth.AdminPassword); err != nil {
		logger.Fatal("failed to ensure admin account", zap.Error(err))
	}

	worker.StartNotificationWorker(notificationService)

	authMiddleware := auth.NewMiddleware(authService.TokenManager(), userStore)

	app := fiber.New(fiber.Config{DisableStartupMessage: true})
	httptransport.RegisterMiddlewares(app, logger, metrics, cfg.App.RequestTimeout())

	httptransport.RegisterRoutes(app, httptransport.RouteConfig{
		Health:         handlers.NewHealthHandler(cfg.App.Name, cfg.App.Version, pg, redis),
		Auth:           handlers.NewAuthHandler(authService),
		Tokens:         handlers.NewTokensHandler(tokenService),
		Counters:       handlers.NewCountersHandler(tokenService),
		Admin:          handlers.NewAdminHandler(tokenService),
		AuthMiddleware: authMiddleware,
	})

	go func() {
		logger.Info("listening", zap.String("addr", cfg.App.Addr()))
		if err := app.Listen(cfg.App.Addr()); err != nil {
			logger.Fatal("fiber listen", zap.Error(err))
		}
	}()

	waitForShutdown(logger)

	_ = app.Shutdown()
}

func waitForShutdown(logger *zap.Logger) {
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	sig := <-sigCh
	logger.Info("shutting down", zap.String("signal", sig.String()))
}
