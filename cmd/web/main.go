package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"github.com/pronet/recovery-portal/internal/accountclient"
	httptransport "github.com/pronet/recovery-portal/internal/api/http"
	"github.com/pronet/recovery-portal/internal/api/http/handlers"
	"github.com/pronet/recovery-portal/internal/auth"
	"github.com/pronet/recovery-portal/internal/config"
	"github.com/pronet/recovery-portal/internal/events"
	"github.com/pronet/recovery-portal/internal/observability"
	"github.com/pronet/recovery-portal/internal/persistence"
	"github.com/pronet/recovery-portal/internal/repository"
	"github.com/pronet/recovery-portal/internal/service"
	"github.com/pronet/recovery-portal/internal/worker"
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

	redis := persistence.OpenRedis(ctx, cfg.Redis, logger)
	defer func() {
		if err := redis.Close(); err != nil {
			logger.Warn("close redis", zap.Error(err))
		}
	}()

	metrics := observability.NewMetrics()
	dispatcher := events.NewInMemoryDispatcher()
	worker.StartNotificationWorker(dispatcher, logger, metrics)

	accounts := accountclient.New(cfg.AccountService, logger.Named("accountclient"))
	logger.Info("account service configured", zap.String("base_url", accounts.BaseURL()))

	recoveryService := service.NewRecoveryService(*cfg, service.RecoveryDependencies{
		Accounts: accounts,
		Flashes:  repository.NewFlashRepository(redis.Client, cfg.Recovery.FlashTTL()),
		Handoffs: repository.NewHandoffRepository(redis.Client, cfg.Recovery.HandoffTTL()),
		Events:   dispatcher,
	}, logger.Named("recovery"))

	tokens := auth.NewTokenManager(cfg.Session.Secret, cfg.Session.TTL())
	sessions := auth.NewSessionMiddleware(tokens, cfg.Session, logger)

	app := fiber.New(fiber.Config{
		AppName:               cfg.App.Name,
		DisableStartupMessage: true,
	})
	httptransport.RegisterMiddlewares(app, logger, metrics, cfg.App.RequestTimeout())

	httptransport.RegisterRoutes(app, httptransport.RouteConfig{
		Health:   handlers.NewHealthHandler(cfg.App.Name, cfg.App.Version, redis, metrics, recoveryService.Sessions),
		Recovery: handlers.NewRecoveryHandler(recoveryService, logger),
		Reset:    handlers.NewResetHandler(recoveryService, cfg.App.LoginURL, logger),
		Session:  sessions,
	})

	go func() {
		logger.Info("listening", zap.String("addr", cfg.App.Addr()), zap.String("env", cfg.App.Env))
		if err := app.Listen(cfg.App.Addr()); err != nil {
			logger.Fatal("fiber listen", zap.Error(err))
		}
	}()

	waitForShutdown(logger)

	if err := app.Shutdown(); err != nil {
		logger.Warn("shutdown", zap.Error(err))
	}
}

func waitForShutdown(logger *zap.Logger) {
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	sig := <-sigCh
	logger.Info("shutting down", zap.String("signal", sig.String()))
}
