package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	httptransport "github.com/spec-kit/video-service/internal/api/http"
	"github.com/spec-kit/video-service/internal/api/http/handlers"
	"github.com/spec-kit/video-service/internal/auth"
	"github.com/spec-kit/video-service/internal/config"
	"github.com/spec-kit/video-service/internal/events"
	"github.com/spec-kit/video-service/internal/media"
	"github.com/spec-kit/video-service/internal/observability"
	"github.com/spec-kit/video-service/internal/persistence"
	"github.com/spec-kit/video-service/internal/repository"
	"github.com/spec-kit/video-service/internal/service"
	"github.com/spec-kit/video-service/internal/worker"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	logger, err := observability.NewLogger(cfg.Logger, cfg.App)
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

	if cfg.Postgres.RunMigrations {
		if err := persistence.RunMigrations(ctx, pg.PoolHandle(), cfg.Postgres.MigrationsDir, logger); err != nil {
			logger.Fatal("failed to run migrations", zap.Error(err))
		}
	}

	deps := map[string]handlers.Pinger{"postgres": pg, "redis": nil}
	var revocations auth.RevocationStore = auth.NoopRevocationStore{}
	if cfg.Auth.RevocationEnabled {
		redis := persistence.NewRedis(ctx, cfg.Redis, logger)
		defer redis.Close()
		revocations = auth.NewRedisRevocationStore(redis.Handle())
		deps["redis"] = redis
	}

	resolver, err := media.NewResolver(cfg.Media.Root, cfg.Media.DefaultContentType)
	if err != nil {
		logger.Fatal("invalid media root", zap.String("root", cfg.Media.Root), zap.Error(err))
	}

	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	metrics := observability.NewMetrics(registry)

	var dispatcher events.Dispatcher
	if cfg.Audit.Enabled {
		dispatcher = events.NewInMemoryDispatcher()
		worker.StartAuditWorker(service.NewAuditService(dispatcher, logger))
	}

	tokens := auth.NewTokenManager(cfg.Auth.JWTSecret, cfg.Auth.AccessTokenTTL())
	accounts := service.NewAccountService(cfg.Auth, service.AccountDependencies{
		UserRepo:    repository.NewUserRepository(pg.PoolHandle()),
		Tokens:      tokens,
		Revocations: revocations,
		Events:      dispatcher,
		Logger:      logger,
	})

	app := fiber.New(fiber.Config{
		AppName:               cfg.App.Name,
		DisableStartupMessage: true,
		ErrorHandler:          httptransport.ErrorHandler(logger, metrics),
	})
	httptransport.RegisterMiddlewares(app, logger, metrics, httptransport.MiddlewareConfig{
		Timeout:          cfg.App.RequestTimeout(),
		CORSAllowOrigins: cfg.App.CORSAllowOrigins,
	})

	httptransport.RegisterRoutes(app, httptransport.RouteConfig{
		BasePath:       cfg.App.BasePath,
		Health:         handlers.NewHealthHandler(cfg.App.Name, cfg.App.Version, resolver.Root(), deps),
		Users:          handlers.NewUsersHandler(accounts),
		Videos:         handlers.NewVideoHandler(resolver, media.NewCatalog(resolver, cfg.Media.Catalog), dispatcher, logger, metrics),
		Metrics:        adaptor.HTTPHandler(promhttp.HandlerFor(registry, promhttp.HandlerOpts{})),
		AuthMiddleware: auth.NewAuthMiddleware(tokens, revocations, logger),
		AuthLimiter:    httptransport.NewAuthLimiter(cfg.Auth.RateLimitPerMinute),
	})

	go func() {
		logger.Info("video service listening",
			zap.String("addr", cfg.App.Addr()),
			zap.String("base_path", cfg.App.BasePath),
			zap.String("media_root", resolver.Root()))
		if err := app.Listen(cfg.App.Addr()); err != nil {
			logger.Fatal("fiber listen", zap.Error(err))
		}
	}()

	waitForShutdown(logger)

	if err := app.ShutdownWithTimeout(10 * time.Second); err != nil {
		logger.Warn("shutdown", zap.Error(err))
	}
}

func waitForShutdown(logger *zap.Logger) {
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	sig := <-sigCh
	logger.Info("shutting down", zap.String("signal", sig.String()))
}
