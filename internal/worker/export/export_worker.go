// Package export выгружает сохранённые маршруты в GPX по событиям stream:route:saved
package export

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/route-planner/internal/domain"
	"github.com/route-planner/internal/domain/repository"
	trackexport "github.com/route-planner/internal/export"
	"github.com/route-planner/internal/pkg/metrics"
	"github.com/route-planner/internal/worker"
	"go.uber.org/zap"
)

const (
	maxBatchSize    = 20                     // максимум сообщений за раз
	emptyQueueSleep = 100 * time.Millisecond // пауза если очередь пуста
)

// retryDelay - базовая пауза между попытками экспорта
var retryDelay = 500 * time.Millisecond

// RouteExportWorker пишет GPX-файл сохранённого маршрута и записывает путь к нему
type RouteExportWorker struct {
	*worker.BaseWorker
	streamRepo   repository.StreamRepository
	routeRepo    repository.RouteRepository
	exportDir    string
	consumerName string
	maxRetries   int
}

// NewRouteExportWorker создает новый RouteExportWorker
func NewRouteExportWorker(
	streamRepo repository.StreamRepository,
	routeRepo repository.RouteRepository,
	exportDir string,
	consumerGroup string,
	maxRetries int,
	logger *zap.Logger,
) *RouteExportWorker {
	hostname, _ := os.Hostname()
	consumerName := fmt.Sprintf("%s-%d", hostname, os.Getpid())

	return &RouteExportWorker{
		BaseWorker:   worker.NewBaseWorker("route-export", consumerGroup, logger),
		streamRepo:   streamRepo,
		routeRepo:    routeRepo,
		exportDir:    exportDir,
		consumerName: consumerName,
		maxRetries:   max(maxRetries, 1),
	}
}

// Start запускает воркер
func (w *RouteExportWorker) Start(ctx context.Context) error {
	logger := w.Logger()
	logger.Info("Starting RouteExportWorker",
		zap.String("consumer_group", w.ConsumerGroup()),
		zap.String("consumer_name", w.consumerName),
		zap.String("export_dir", w.exportDir))

	if err := os.MkdirAll(w.exportDir, 0o755); err != nil {
		return fmt.Errorf("failed to create export dir: %w", err)
	}

	// Создаем consumer group
	if err := w.streamRepo.CreateConsumerGroup(ctx, domain.StreamRouteSaved, w.ConsumerGroup()); err != nil {
		logger.Error("Failed to create consumer group", zap.Error(err))
		return fmt.Errorf("failed to create consumer group: %w", err)
	}

	// Основной цикл обработки
	for {
		select {
		case <-w.StopChan():
			logger.Info("Worker stopped")
			return nil

		case <-ctx.Done():
			logger.Info("Context cancelled")
			return ctx.Err()

		default:
			processed, err := w.processBatch(ctx)
			if err != nil {
				logger.Error("Failed to process batch", zap.Error(err))
				w.Sleep(ctx, time.Second) // пауза при ошибке
				continue
			}

			// Если ничего не обработали - короткая пауза
			if processed == 0 {
				w.Sleep(ctx, emptyQueueSleep)
			}
		}
	}
}

// processBatch читает и обрабатывает batch сообщений.
// Возвращает количество прочитанных сообщений.
func (w *RouteExportWorker) processBatch(ctx context.Context) (int, error) {
	logger := w.Logger()

	messages, err := w.streamRepo.ConsumeBatch(ctx, domain.StreamRouteSaved, w.ConsumerGroup(), w.consumerName, maxBatchSize)
	if err != nil {
		return 0, fmt.Errorf("failed to consume batch: %w", err)
	}
	if len(messages) == 0 {
		return 0, nil // очередь пуста
	}

	logger.Info("Processing batch", zap.Int("message_count", len(messages)))

	for _, msg := range messages {
		event, err := parseMessage(msg)
		if err != nil {
			logger.Warn("Failed to parse message, skipping",
				zap.String("message_id", msg.ID),
				zap.Error(err))
		} else {
			w.handle(ctx, event)
		}

		// ACK после обработки, в том числе неудачной: результат уже опубликован
		if err := w.streamRepo.AckMessage(ctx, domain.StreamRouteSaved, w.ConsumerGroup(), msg.ID); err != nil {
			logger.Error("Failed to ack message", zap.String("message_id", msg.ID), zap.Error(err))
		}
	}

	return len(messages), nil
}

// handle экспортирует маршрут с повторами и публикует результат
func (w *RouteExportWorker) handle(ctx context.Context, event *domain.RouteSavedEvent) {
	logger := w.Logger().With(zap.String("route_id", event.RouteID.String()))

	var (
		path string
		err  error
	)
	for attempt := 1; attempt <= w.maxRetries; attempt++ {
		path, err = w.exportRoute(ctx, event)
		if err == nil || ctx.Err() != nil {
			break
		}
		logger.Warn("Route export failed", zap.Int("attempt", attempt), zap.Error(err))
		if attempt < w.maxRetries && !w.Sleep(ctx, retryDelay*time.Duration(attempt)) {
			break
		}
	}

	done := &domain.RouteExportedEvent{RouteID: event.RouteID, DataFilePath: path}
	if err != nil {
		done.Error = err.Error()
		logger.Error("Route export gave up", zap.Error(err))
	} else {
		logger.Info("Route exported", zap.String("path", path))
	}

	if err := w.streamRepo.PublishToStream(ctx, domain.StreamRouteExported, done); err != nil {
		logger.Error("Failed to publish exported event", zap.Error(err))
	}
}

// exportRoute пишет <exportDir>/<id>.gpx и сохраняет путь в маршруте
func (w *RouteExportWorker) exportRoute(ctx context.Context, event *domain.RouteSavedEvent) (string, error) {
	route, err := w.routeRepo.GetByID(ctx, event.RouteID)
	if err != nil {
		return "", fmt.Errorf("load route: %w", err)
	}
	if route == nil {
		return "", fmt.Errorf("route %s not found", event.RouteID)
	}

	points := trackexport.Flatten(route.EditorState.Sections)
	if len(points) == 0 {
		return "", fmt.Errorf("route %s has no track points", event.RouteID)
	}

	var buf bytes.Buffer
	if err := trackexport.WriteGPX(&buf, route.Title, points); err != nil {
		return "", fmt.Errorf("write gpx: %w", err)
	}

	path := filepath.Join(w.exportDir, event.RouteID.String()+".gpx")
	if err := writeFileAtomic(path, buf.Bytes()); err != nil {
		return "", err
	}
	metrics.Exports.WithLabelValues(string(trackexport.FormatGPX)).Inc()

	if err := w.routeRepo.SetDataFilePath(ctx, event.RouteID, path); err != nil {
		return "", fmt.Errorf("set data file path: %w", err)
	}
	return path, nil
}

// writeFileAtomic пишет во временный файл и переименовывает его
func writeFileAtomic(path string, data []byte) error {
	tmp, err := os.CreateTemp(filepath.Dir(path), filepath.Base(path)+".*.tmp")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("write temp file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close temp file: %w", err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		return fmt.Errorf("rename export file: %w", err)
	}
	return nil
}

// parseMessage парсит сообщение из стрима в RouteSavedEvent
func parseMessage(msg domain.StreamMessage) (*domain.RouteSavedEvent, error) {
	var event domain.RouteSavedEvent
	if err := json.Unmarshal([]byte(msg.Data), &event); err != nil {
		return nil, fmt.Errorf("failed to unmarshal event: %w", err)
	}
	if !event.Valid() {
		return nil, fmt.Errorf("event has no route id")
	}
	return &event, nil
}
