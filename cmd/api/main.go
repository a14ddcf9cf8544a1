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

	httptransport "github.com/spec-kit/schedulo/internal/api/http"
	"github.com/spec-kit/schedulo/internal/api/http/handlers"
	"github.com/spec-kit/schedulo/internal/auth"
	"github.com/spec-kit/schedulo/internal/config"
	"github.com/spec-kit/schedulo/internal/events"
	"github.com/spec-kit/schedulo/internal/mail"
	"github.com/spec-kit/schedulo/internal/observability"
	"github.com/spec-kit/schedulo/internal/persistence"
	"github.com/spec-kit/schedulo/internal/realtime"
	"github.com/spec-kit/schedulo/internal/service"
	"github.com/spec-kit/schedulo/internal/worker"
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

	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	metrics := observability.NewMetrics(registry)

	healthDeps := map[string]handlers.Pinger{}
	var stores *persistence.Stores
	switch cfg.Store.Driver {
	case "memory":
		logger.Warn("STORE_DRIVER=memory; data is lost on restart")
		stores = persistence.NewMemoryStores()
	default:
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
		stores, err = persistence.NewPostgresStores(pg.PoolHandle())
		if err != nil {
			logger.Fatal("failed to build stores", zap.Error(err))
		}
		healthDeps["postgres"] = pg
	}

	redis := persistence.NewRedis(cfg.Redis, logger)
	defer redis.Close()

	var dispatcher events.Dispatcher = events.NewLocalDispatcher()
	var limiterStorage fiber.Storage
	if redis != nil {
		dispatcher = events.NewRedisDispatcher(redis.Client, cfg.Redis.EventsChannel, logger)
		limiterStorage = redis.Storage("schedulo:ratelimit:")
		healthDeps["redis"] = redis
	}

	mailer := newMailer(cfg.Mail, logger)
	resolver := service.NewIdentityResolver(stores.CredentialStores()...)

	authService := service.NewAuthService(cfg.Auth, resolver, logger, metrics)
	resetService := service.NewPasswordResetService(cfg.Auth, stores.Faculty, mailer, logger, metrics)
	accountService := service.NewAccountService(stores.Faculty, logger)
	importService := service.NewImportService(*cfg, service.ImportDependencies{
		Resolver: resolver,
		Faculty:  stores.Faculty,
		Uploads:  stores.Uploads,
		Mailer:   mailer,
	}, logger, metrics)
	notificationService := service.NewNotificationService(service.NotificationDependencies{
		Allocations: stores.Allocations,
		Faculty:     stores.Faculty,
		Uploads:     stores.Uploads,
		Dispatcher:  dispatcher,
		Mailer:      mailer,
	}, logger)

	hub := realtime.NewHub(logger, metrics)
	worker.StartEventRelay(ctx, dispatcher, hub, logger)

	authMiddleware := auth.NewAuthMiddleware(authService.TokenManager(), authService)

	app := fiber.New(fiber.Config{
		AppName:   cfg.App.Name,
		BodyLimit: cfg.Import.MaxUploadBytes() + 1<<20,
	})
	httptransport.RegisterMiddlewares(app, httptransport.MiddlewareConfig{
		Logger:         logger,
		Metrics:        metrics,
		Timeout:        cfg.App.RequestTimeout(),
		AllowedOrigins: cfg.App.AllowedOrigins,
		Limit:          rateLimit(cfg.RateLimit.GlobalMax, cfg.RateLimit.GlobalWindowSec),
		Storage:        limiterStorage,
	})

	httptransport.RegisterRoutes(app, httptransport.RouteConfig{
		Health:         handlers.NewHealthHandler(cfg.App.Name, cfg.App.Version, healthDeps),
		Auth:           handlers.NewAuthHandler(authService, resetService),
		Imports:        handlers.NewImportHandler(importService, cfg.Import.MaxUploadBytes()),
		Faculty:        handlers.NewFacultyHandler(accountService),
		Allocations:    handlers.NewAllocationHandler(notificationService),
		Realtime:       handlers.NewRealtimeHandler(hub, logger),
		AuthMiddleware: authMiddleware,
		LoginLimiter:   httptransport.NewRateLimiter(rateLimit(cfg.RateLimit.LoginMax, cfg.RateLimit.LoginWindowSec), limiterStorage, "login"),
		ForgotLimiter:  httptransport.NewRateLimiter(rateLimit(cfg.RateLimit.ForgotMax, cfg.RateLimit.ForgotWindowSec), limiterStorage, "forgot"),
		Metrics:        adaptor.HTTPHandler(promhttp.HandlerFor(registry, promhttp.HandlerOpts{})),
	})

	go func() {
		if err := app.Listen(cfg.App.Addr()); err != nil {
			logger.Fatal("fiber listen", zap.Error(err))
		}
	}()

	waitForShutdown(logger)

	cancel()
	if err := app.ShutdownWithTimeout(10 * time.Second); err != nil {
		logger.Warn("shutdown", zap.Error(err))
	}
}

func newMailer(cfg config.MailConfig, logger *zap.Logger) mail.Mailer {
	if cfg.Provider == "sendgrid" {
		return mail.NewSendGridMailer(cfg.SendGridAPIKey, cfg.FromName, cfg.From, logger)
	}
	logger.Warn("MAIL_PROVIDER=log; emails are written to the log only")
	return mail.NewLogMailer(logger)
}

func rateLimit(max, windowSec int) httptransport.RateLimit {
	return httptransport.RateLimit{Max: max, Window: time.Duration(windowSec) * time.Second}
}

func waitForShutdown(logger *zap.Logger) {
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	sig := <-sigCh
	logger.Info("shutting down", zap.String("signal", sig.String()))
}
