package repository

import (
	"context"

	"github.com/route-planner/internal/domain"
)

// RoutingRepository определяет методы для работы с движком маршрутизации
type RoutingRepository interface {
	// Route строит путь между двумя точками.
	// 4xx ответ движка возвращается как *domain.RouteRejectedError.
	Route(ctx context.Context, req domain.RouteRequest) (*domain.RouteResult, error)
}
