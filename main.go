package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"backgammon-platform/config"
	"backgammon-platform/dice"
	"backgammon-platform/handlers"
	"backgammon-platform/logging"
	"backgammon-platform/middleware"
	"backgammon-platform/services"
	"backgammon-platform/storage"
	"backgammon-platform/utils"
	"backgammon-platform/workers"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}
	if err := logging.Init(cfg.LogLevel); err != nil {
		log.Fatalf("failed to init logger: %v", err)
	}
	defer logging.Sync()
	logger := logging.Log

	db, err := storage.Open(cfg)
	if err != nil {
		logger.Fatal("failed to open database", zap.Error(err))
	}

	seed, err := dice.NewSeed()
	if err != nil {
		logger.Fatal("failed to seed dice", zap.Error(err))
	}

	sessionService := services.NewSessionService(db, dice.NewSource(seed))
	settlementService := services.NewSettlementService(db)
	lobbyService := services.NewLobbyService(db)
	ratingService := services.NewRatingService(db)
	authClient := services.NewAuthServiceClient(cfg.AuthServiceURL, cfg.GameServiceToken)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if cfg.SyncServiceURL != "" {
		workers.NewPlayerSyncWorker(db, ratingService, cfg.SyncServiceURL, "/api/v1/public/profiles",
			cfg.GameServiceToken, cfg.ProfileSyncInterval).Start(ctx)
	} else {
		logger.Warn("SYNC_SERVICE_URL not set; player sync disabled")
	}

	if cfg.R2.Enabled() {
		r2, err := utils.NewR2(ctx, cfg.R2)
		if err != nil {
			logger.Fatal("failed to initialize R2 client", zap.Error(err))
		}
		sched, err := services.NewArchiveService(db, r2).StartArchiveScheduler(cfg.ArchiveInterval)
		if err != nil {
			logger.Fatal("failed to start archive scheduler", zap.Error(err))
		}
		defer func() { _ = sched.Shutdown() }()
	} else {
		logger.Warn("R2 not configured; session archiving disabled")
	}

	app := fiber.New(fiber.Config{
		ErrorHandler: handlers.ErrorHandler,
	})

	app.Use(cors.New(cors.Config{
		AllowOrigins:     cfg.CORSOrigins(),
		AllowMethods:     "GET,POST,OPTIONS",
		AllowHeaders:     "Origin, Content-Type, Accept, Authorization, X-Requested-With, X-Request-ID, Cache-Control, X-Device-ID",
		ExposeHeaders:    "Content-Length, Content-Type, X-Request-ID",
		AllowCredentials: true,
		MaxAge:           86400,
	}))

	// Scraped in-cluster, outside the gateway.
	app.Get("/metrics", adaptor.HTTPHandler(promhttp.Handler()))

	// Every other request must come from the gateway.
	app.Use(middleware.GatewayAuthMiddleware(cfg.GameServiceToken))

	handlers.SetupSessionRoutes(app, &handlers.SessionHandler{
		Sessions:   sessionService,
		Settlement: settlementService,
		Lobby:      lobbyService,
	}, authClient)
	handlers.SetupProposalRoutes(app, lobbyService)
	handlers.SetupRatingRoutes(app, ratingService)

	go func() {
		if err := app.Listen(":" + cfg.Port); err != nil {
			logger.Error("server error", zap.Error(err))
			stop()
		}
	}()
	logger.Info("server running",
		zap.String("port", cfg.Port),
		zap.String("db_driver", cfg.DBDriver),
		zap.String("cors_origins", cfg.CORSOrigins()))

	<-ctx.Done()
	logger.Info("shutting down server")
	if err := app.ShutdownWithTimeout(10 * time.Second); err != nil {
		logger.Error("shutdown error", zap.Error(err))
	}
}
