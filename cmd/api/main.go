package main

// @title Route Planner API
// @version 1.0.0
// @description Редактор велосипедных маршрутов: точки, секции и сегменты, построенные движком Valhalla.
// @description
// @description Основные возможности:
// @description - Сессии редактора с undo/redo и асинхронным пересчётом сегментов
// @description - Вставка точки в середину сегмента, разбиение и слияние секций
// @description - Direct Mode без обращения к движку
// @description - Экспорт в GPX и KML, профиль высот, GeoJSON для карты
// @description - Сохранение маршрутов в PostgreSQL

// @contact.name API Support
// @contact.email support@route-planner.dev

// @license.name MIT
// @license.url https://opensource.org/licenses/MIT

// @host localhost:8080
// @BasePath /
// @schemes http https

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/route-planner/internal/config"
	httpDelivery "github.com/route-planner/internal/delivery/http"
	"github.com/route-planner/internal/delivery/http/handler"
	"github.com/route-planner/internal/domain"
	"github.com/route-planner/internal/editor"
	"github.com/route-planner/internal/infrastructure/valhalla"
	"github.com/route-planner/internal/pkg/logger"
	"github.com/route-planner/internal/repository/cache"
	"github.com/route-planner/internal/repository/postgres"
	redisRepo "github.com/route-planner/internal/repository/redis"
	"github.com/route-planner/internal/usecase"
	"github.com/route-planner/internal/worker"
	"github.com/route-planner/internal/worker/session"
	"go.uber.org/zap"
)

// janitorInterval - как часто проверяются простаивающие сессии
const janitorInterval = time.Minute

func main() {
	// 1. Load configuration
	cfg, err := config.Load()
	if err != nil {
		panic(fmt.Sprintf("Failed to load config: %v", err))
	}

	// 2. Initialize logger
	log, err := logger.New(cfg.Log.Level)
	if err != nil {
		panic(fmt.Sprintf("Failed to initialize logger: %v", err))
	}
	defer log.Sync()

	log.Info("Starting Route Planner")
	log.Info("Configuration loaded",
		zap.String("env", cfg.Server.Env),
		zap.String("server_addr", cfg.GetServerAddr()),
		zap.String("valhalla_url", cfg.Valhalla.BaseURL),
		zap.Bool("direct_mode", cfg.Editor.DirectMode),
	)

	// 3. Connect to PostgreSQL
	db, err := postgres.New(&cfg.Database, log)
	if err != nil {
		log.Fatal("Failed to connect to PostgreSQL", zap.Error(err))
	}
	log.Info("PostgreSQL connected")

	// 4. Connect to Redis
	redisClient, err := cache.NewRedis(&cfg.Redis, log)
	if err != nil {
		log.Fatal("Failed to connect to Redis", zap.Error(err))
	}
	log.Info("Redis connected")

	// 5. Health checks
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := db.Health(ctx); err != nil {
		log.Fatal("PostgreSQL health check failed", zap.Error(err))
	}
	if err := redisClient.Health(ctx); err != nil {
		log.Fatal("Redis health check failed", zap.Error(err))
	}

	log.Info("All connections healthy")

	if cfg.Database.MigrationsDir != "" {
		if err := db.Migrate(ctx, cfg.Database.MigrationsDir); err != nil {
			log.Fatal("Failed to apply migrations", zap.Error(err))
		}
	}

	// 6. Initialize Repositories
	routeRepo := postgres.NewRouteRepository(db)
	cacheRepo := cache.NewCacheRepository(redisClient)
	streamRepo := redisRepo.NewStreamRepository(redisClient.Client(), cfg.Worker.StreamReadTimeout, log)
	valhallaClient := valhalla.NewValhallaClient(&cfg.Valhalla, log)

	log.Info("Repositories initialized")

	// 7. Initialize Use Cases
	routingUC := usecase.NewRoutingUseCase(valhallaClient, cacheRepo, cfg.Routing.CacheTTL, log)

	editorUC := usecase.NewEditorUseCase(
		routingUC,
		routeRepo,
		streamRepo,
		editor.Options{
			Profile: domain.RoutingProfile{
				BicycleType: cfg.Routing.BicycleType,
				UseHills:    cfg.Routing.UseHills,
				UseRoads:    cfg.Routing.UseRoads,
			},
			DirectMode:     cfg.Editor.DirectMode,
			HistoryLimit:   cfg.Editor.HistoryLimit,
			RequestTimeout: cfg.Valhalla.RequestTimeout,
		},
		cfg.Editor.SessionTTL,
		log,
	)

	log.Info("Use cases initialized")

	// 8. Initialize HTTP Handlers
	sessionHandler := handler.NewSessionHandler(editorUC, log)
	routeHandler := handler.NewRouteHandler(editorUC, log)
	healthHandler := handler.NewHealthHandler(editorUC, map[string]handler.HealthChecker{
		"postgres": db,
		"redis":    redisClient,
	}, log)

	// 9. Initialize HTTP Server
	server := httpDelivery.NewServer(cfg, log, sessionHandler, routeHandler, healthHandler)

	log.Info("HTTP server initialized")

	// 10. Background workers
	workerCtx, stopWorkers := context.WithCancel(context.Background())
	defer stopWorkers()

	workerManager := worker.NewWorkerManager(log)
	workerManager.Register(session.NewJanitor(editorUC, janitorInterval, log))
	if err := workerManager.Start(workerCtx); err != nil {
		log.Fatal("Failed to start workers", zap.Error(err))
	}

	// 11. Start server in goroutine
	go func() {
		if err := server.Start(); err != nil {
			log.Fatal("Failed to start server", zap.Error(err))
		}
	}()

	log.Info("Server started successfully",
		zap.String("address", cfg.GetServerAddr()),
		zap.String("env", cfg.Server.Env),
	)

	// 12. Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	<-quit

	log.Info("Shutting down server gracefully...")

	ctx, cancel = context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		log.Error("Server shutdown error", zap.Error(err))
	}

	stopWorkers()
	if err := workerManager.Stop(); err != nil {
		log.Error("Error stopping workers", zap.Error(err))
	}

	// Отменяем запросы к движку у открытых сессий
	editorUC.Close()

	if err := db.Close(); err != nil {
		log.Error("Failed to close PostgreSQL", zap.Error(err))
	}
	if err := redisClient.Close(); err != nil {
		log.Error("Failed to close Redis", zap.Error(err))
	}

	log.Info("Server stopped successfully")
}
