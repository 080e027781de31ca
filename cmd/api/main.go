package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	httptransport "github.com/why-platform/buzon-service/internal/api/http"
	"github.com/why-platform/buzon-service/internal/api/http/handlers"
	"github.com/why-platform/buzon-service/internal/auth"
	"github.com/why-platform/buzon-service/internal/clickup"
	"github.com/why-platform/buzon-service/internal/config"
	"github.com/why-platform/buzon-service/internal/events"
	"github.com/why-platform/buzon-service/internal/observability"
	"github.com/why-platform/buzon-service/internal/persistence"
	"github.com/why-platform/buzon-service/internal/repository"
	"github.com/why-platform/buzon-service/internal/service"
	"github.com/why-platform/buzon-service/internal/webhook"
	"github.com/why-platform/buzon-service/internal/worker"
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

	if pg.Enabled() && cfg.Postgres.RunMigrations {
		if err := persistence.RunMigrations(ctx, pg.PoolHandle(), cfg.Postgres, logger); err != nil {
			logger.Fatal("failed to run migrations", zap.Error(err))
		}
	}

	redis := persistence.NewRedis(cfg.Redis, logger)
	defer redis.Close()

	metrics := observability.NewMetrics()
	dispatcher := events.NewInMemoryDispatcher()

	auditService := service.NewAuditService(dispatcher, metrics, logger)
	auditService.RegisterHandlers()

	stateRepo := repository.NewTicketStateRepository(redis.Client)
	var submissionRepo repository.SubmissionRepository
	if pg.Enabled() {
		submissionRepo = repository.NewSubmissionRepository(pg.PoolHandle())
	}

	slaService := service.NewSLAService()
	privacyService := service.NewPrivacyService()
	validator := service.NewValidator(cfg.Validation.AllowedEmailDomains)
	notificationService := service.NewNotificationService(cfg.Escalation, logger)
	webhookClient := webhook.NewClient(cfg.Webhook, logger)

	var gateway *clickup.Gateway
	clickupClient := clickup.NewClient(cfg.ClickUp)
	if clickupClient.Configured() {
		gateway = clickup.NewGateway(clickupClient, cfg.ClickUp, logger)
	} else {
		logger.Warn("clickup api key missing, ticket creation disabled")
	}

	escalationService := service.NewEscalationService(stateRepo, slaService, notificationService, dispatcher, metrics, logger)
	submissionService := service.NewSubmissionService(service.SubmissionDependencies{
		Validator:   validator,
		SLA:         slaService,
		Privacy:     privacyService,
		Webhook:     webhookClient,
		Gateway:     gateway,
		States:      stateRepo,
		Submissions: submissionRepo,
		Dispatcher:  dispatcher,
		Metrics:     metrics,
		Logger:      logger,
	})

	tokens := auth.NewTokenManager(cfg.Auth.JWTSecret, cfg.Auth.AccessTokenTTLMinutes)
	authMiddleware := auth.NewMiddleware(tokens)

	app := fiber.New()
	httptransport.RegisterMiddlewares(app, logger, metrics, cfg.App.RequestTimeout())

	httptransport.RegisterRoutes(app, httptransport.RouteConfig{
		Health:         handlers.NewHealthHandler(cfg.App.Name, cfg.App.Version, pg, redis, webhookClient),
		Messages:       handlers.NewMessagesHandler(submissionService),
		Config:         handlers.NewConfigHandler(slaService),
		Auth:           handlers.NewAuthHandler(tokens, cfg.Auth.AdminKeyHash),
		Stats:          handlers.NewStatsHandler(metrics, stateRepo, slaService, escalationService, webhookClient),
		Admin:          handlers.NewAdminHandler(escalationService, stateRepo, submissionRepo, gateway),
		AuthMiddleware: authMiddleware,
	})

	escalationWorker := worker.NewEscalationWorker(escalationService, cfg.Escalation.SweepInterval(), logger)
	go escalationWorker.Run(ctx)

	go func() {
		if err := app.Listen(cfg.App.Addr()); err != nil {
			logger.Fatal("fiber listen", zap.Error(err))
		}
	}()

	waitForShutdown(logger)

	cancel()
	_ = app.Shutdown()
}

func waitForShutdown(logger *zap.Logger) {
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	sig := <-sigCh
	logger.Info("shutting down", zap.String("signal", sig.String()))
}
