package usecase

import (
	"context"
	"time"

	"github.com/route-planner/internal/domain"
	"github.com/route-planner/internal/domain/repository"
	"github.com/route-planner/internal/pkg/metrics"
	"go.uber.org/zap"
)

// RoutingUseCase - маршрутизация с кешем результатов в Redis.
// Реализует repository.RoutingRepository, поэтому подставляется в сессии
// вместо клиента движка.
type RoutingUseCase struct {
	router    repository.RoutingRepository
	cacheRepo repository.CacheRepository
	ttl       time.Duration
	logger    *zap.Logger
}

// NewRoutingUseCase создает новый экземпляр RoutingUseCase.
// cacheRepo может быть nil, тогда запросы идут напрямую в движок.
func NewRoutingUseCase(
	router repository.RoutingRepository,
	cacheRepo repository.CacheRepository,
	ttl time.Duration,
	logger *zap.Logger,
) *RoutingUseCase {
	return &RoutingUseCase{
		router:    router,
		cacheRepo: cacheRepo,
		ttl:       ttl,
		logger:    logger,
	}
}

// Route возвращает маршрут из кеша или строит его в движке
func (uc *RoutingUseCase) Route(ctx context.Context, req domain.RouteRequest) (*domain.RouteResult, error) {
	if uc.cacheRepo == nil {
		return uc.router.Route(ctx, req)
	}

	// 1. Проверяем кеш
	cached, err := uc.cacheRepo.GetRoute(ctx, req)
	if err == nil && cached != nil {
		metrics.RoutingCache.WithLabelValues("hit").Inc()
		uc.logger.Debug("Route fetched from cache")
		return cached, nil
	}
	if err != nil {
		uc.logger.Warn("Failed to get route from cache", zap.Error(err))
	}
	metrics.RoutingCache.WithLabelValues("miss").Inc()

	// 2. Строим в движке, отказы не кешируются
	result, err := uc.router.Route(ctx, req)
	if err != nil {
		return nil, err
	}

	// 3. Кешируем
	if err := uc.cacheRepo.SetRoute(ctx, req, result, uc.ttl); err != nil {
		uc.logger.Warn("Failed to cache route", zap.Error(err))
		// Не возвращаем ошибку, т.к. маршрут уже получен
	}

	return result, nil
}
