package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/route-planner/internal/config"
	"github.com/route-planner/internal/pkg/logger"
	"github.com/route-planner/internal/repository/cache"
	"github.com/route-planner/internal/repository/postgres"
	redisRepo "github.com/route-planner/internal/repository/redis"
	"github.com/route-planner/internal/worker"
	"github.com/route-planner/internal/worker/export"
	"go.uber.org/zap"
)

// Экспорт-воркер: читает stream:route:saved, пишет GPX в EXPORT_DIR и
// публикует результат в stream:route:exported.
func main() {
	cfg, err := config.Load()
	if err != nil {
		panic(fmt.Sprintf("Failed to load config: %v", err))
	}

	if !cfg.Worker.Enabled {
		fmt.Println("Worker is disabled in configuration. Set WORKER_ENABLED=true to enable.")
		os.Exit(0)
	}

	log, err := logger.New(cfg.Log.Level)
	if err != nil {
		panic(fmt.Sprintf("Failed to initialize logger: %v", err))
	}
	defer log.Sync()

	if err := run(cfg, log); err != nil {
		log.Fatal("Worker failed", zap.Error(err))
	}
	log.Info("Worker shutdown complete")
}

func run(cfg *config.Config, log *zap.Logger) error {
	log.Info("Starting Route Export Worker",
		zap.String("consumer_group", cfg.Worker.ConsumerGroup),
		zap.Int("max_retries", cfg.Worker.MaxRetries),
		zap.Duration("stream_read_timeout", cfg.Worker.StreamReadTimeout),
		zap.String("export_dir", cfg.Export.Dir))

	db, err := postgres.New(&cfg.Database, log)
	if err != nil {
		return fmt.Errorf("connect postgres: %w", err)
	}
	defer db.Close()

	redisClient, err := cache.NewRedis(&cfg.Redis, log)
	if err != nil {
		return fmt.Errorf("connect redis: %w", err)
	}
	defer redisClient.Close()

	manager := worker.NewWorkerManager(log)
	manager.Register(export.NewRouteExportWorker(
		redisRepo.NewStreamRepository(redisClient.Client(), cfg.Worker.StreamReadTimeout, log),
		postgres.NewRouteRepository(db),
		cfg.Export.Dir,
		cfg.Worker.ConsumerGroup,
		cfg.Worker.MaxRetries,
		log,
	))

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := manager.Start(ctx); err != nil {
		return fmt.Errorf("start workers: %w", err)
	}

	<-ctx.Done()
	log.Info("Received shutdown signal")

	if err := manager.Stop(); err != nil {
		return err
	}
	for name, err := range manager.Failed() {
		log.Error("Worker exited with error", zap.String("name", name), zap.Error(err))
	}
	return nil
}
