package repository

import (
	"context"
	"time"

	"github.com/route-planner/internal/domain"
)

// CacheRepository - кеш результатов маршрутизации в Redis
type CacheRepository interface {
	// Get получает значение из кеша по ключу
	Get(ctx context.Context, key string) ([]byte, error)

	// Set сохраняет значение в кеше с TTL
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error

	// GetRoute получает результат маршрутизации из кеша
	GetRoute(ctx context.Context, req domain.RouteRequest) (*domain.RouteResult, error)

	// SetRoute сохраняет результат маршрутизации в кеше
	SetRoute(ctx context.Context, req domain.RouteRequest, result *domain.RouteResult, ttl time.Duration) error
}
