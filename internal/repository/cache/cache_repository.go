package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/route-planner/internal/domain"
	"github.com/route-planner/internal/domain/repository"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

type cacheRepository struct {
	client *redis.Client
	logger *zap.Logger
}

func NewCacheRepository(redis *Redis) repository.CacheRepository {
	return &cacheRepository{
		client: redis.Client(),
		logger: redis.logger,
	}
}

func (r *cacheRepository) Get(ctx context.Context, key string) ([]byte, error) {
	val, err := r.client.Get(ctx, key).Bytes()
	if err == redis.Nil {
		return nil, nil // Cache miss
	}
	if err != nil {
		r.logger.Error("Failed to get from cache", zap.String("key", key), zap.Error(err))
		return nil, fmt.Errorf("cache get error: %w", err)
	}

	r.logger.Debug("Cache hit", zap.String("key", key))
	return val, nil
}

func (r *cacheRepository) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	err := r.client.Set(ctx, key, value, ttl).Err()
	if err != nil {
		r.logger.Error("Failed to set cache", zap.String("key", key), zap.Error(err))
		return fmt.Errorf("cache set error: %w", err)
	}

	r.logger.Debug("Cache set", zap.String("key", key), zap.Duration("ttl", ttl))
	return nil
}

// routeKey строит ключ кеша по координатам (6 знаков) и профилю
func routeKey(req domain.RouteRequest) string {
	p := req.Profile
	return fmt.Sprintf("route:%.6f,%.6f:%.6f,%.6f:%s:%.2f:%.2f",
		req.Origin.Lat, req.Origin.Lon,
		req.Destination.Lat, req.Destination.Lon,
		p.BicycleType, p.UseHills, p.UseRoads,
	)
}

// GetRoute получает результат маршрутизации из кеша
func (r *cacheRepository) GetRoute(ctx context.Context, req domain.RouteRequest) (*domain.RouteResult, error) {
	key := routeKey(req)
	data, err := r.Get(ctx, key)
	if err != nil {
		return nil, err
	}
	if data == nil {
		return nil, nil // Cache miss
	}

	var result domain.RouteResult
	if err := json.Unmarshal(data, &result); err != nil {
		r.logger.Error("Failed to unmarshal route from cache", zap.String("key", key), zap.Error(err))
		return nil, fmt.Errorf("unmarshal route: %w", err)
	}

	return &result, nil
}

// SetRoute сохраняет результат маршрутизации в кеше
func (r *cacheRepository) SetRoute(ctx context.Context, req domain.RouteRequest, result *domain.RouteResult, ttl time.Duration) error {
	data, err := json.Marshal(result)
	if err != nil {
		r.logger.Error("Failed to marshal route", zap.Error(err))
		return fmt.Errorf("marshal route: %w", err)
	}

	return r.Set(ctx, routeKey(req), data, ttl)
}
