package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"github.com/helpdeskhq/helpdesk-ai/internal/ai"
	httptransport "github.com/helpdeskhq/helpdesk-ai/internal/api/http"
	"github.com/helpdeskhq/helpdesk-ai/internal/api/http/handlers"
	"github.com/helpdeskhq/helpdesk-ai/internal/config"
	"github.com/helpdeskhq/helpdesk-ai/internal/events"
	"github.com/helpdeskhq/helpdesk-ai/internal/knowledge"
	"github.com/helpdeskhq/helpdesk-ai/internal/observability"
	"github.com/helpdeskhq/helpdesk-ai/internal/persistence"
	"github.com/helpdeskhq/helpdesk-ai/internal/repository"
	"github.com/helpdeskhq/helpdesk-ai/internal/search"
	"github.com/helpdeskhq/helpdesk-ai/internal/service"
	"github.com/helpdeskhq/helpdesk-ai/internal/worker"
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

	if cfg.Postgres.RunMigrations {
		if err := persistence.RunMigrations(ctx, pg.PoolHandle(), logger); err != nil {
			logger.Fatal("failed to run migrations", zap.Error(err))
		}
	}

	redis := persistence.NewRedis(cfg.Redis, logger)
	defer redis.Close()

	metrics := observability.NewMetrics()

	pool := pg.PoolHandle()
	ticketRepo := repository.NewTicketRepository(pool)
	messageRepo := repository.NewTicketMessageRepository(pool)
	userRepo := repository.NewUserRepository(pool)
	agentRepo := repository.NewAgentRepository(pool)
	violationRepo := repository.NewViolationRepository(pool)
	notificationRepo := repository.NewNotificationRepository(pool)

	classifier := ai.NewOpenAIClassifier(cfg.AI, logger)
	var embedder ai.Embedder
	if e := ai.NewOpenAIEmbedder(cfg.AI, cfg.Retrieval); e != nil {
		embedder = e
	}
	index := knowledge.NewRedisIndex(redis.Client, embedder, logger)

	var searcher search.WebSearcher
	if s := search.NewHTTPSearcher(cfg.WebSearch, logger); s != nil {
		searcher = s
	}

	dispatcher := events.NewQueueDispatcher(
		cfg.Notification.QueueSize,
		cfg.Notification.Workers,
		cfg.Notification.HandlerTimeout(),
		logger)
	defer dispatcher.Close()

	gate := service.NewModerationGate(classifier, violationRepo, metrics, logger, cfg.AI)
	router := service.NewDepartmentRouter(classifier, metrics, logger)

	ticketService := service.NewTicketService(service.TicketDependencies{
		TicketRepo:  ticketRepo,
		MessageRepo: messageRepo,
		AgentRepo:   agentRepo,
		Gate:        gate,
		Router:      router,
		Dispatcher:  dispatcher,
		Logger:      logger,
		AIConfig:    cfg.AI,
	})
	notificationService := service.NewNotificationService(notificationRepo, userRepo, agentRepo, dispatcher, logger, cfg.Notification)
	knowledgeService := service.NewKnowledgeService(ticketRepo, messageRepo, classifier, index, dispatcher, metrics, logger)
	queryService := service.NewQueryService(index, searcher, logger, cfg.Retrieval, cfg.WebSearch)
	violationService := service.NewViolationReviewService(violationRepo, logger)

	worker.StartPipelineWorkers(notificationService, knowledgeService)

	app := fiber.New()
	httptransport.RegisterMiddlewares(app, logger, metrics, cfg.App.RequestTimeout())

	httptransport.RegisterRoutes(app, httptransport.RouteConfig{
		Health:        handlers.NewHealthHandler(cfg.App.Name, cfg.App.Version, pg, redis),
		Tickets:       handlers.NewTicketsHandler(ticketService),
		AgentTickets:  handlers.NewAgentTicketsHandler(ticketService),
		Assist:        handlers.NewAssistHandler(queryService),
		Notifications: handlers.NewNotificationsHandler(notificationService),
		Admin:         handlers.NewAdminHandler(violationService),
	})

	go func() {
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
