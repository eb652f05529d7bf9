package repository

import (
	"context"

	"github.com/google/uuid"
	"github.com/route-planner/internal/domain"
)

// RouteRepository определяет методы для хранения сохранённых маршрутов
type RouteRepository interface {
	// Create сохраняет новый маршрут и заполняет ID и временные метки
	Create(ctx context.Context, route *domain.SavedRoute) error

	// Update перезаписывает существующий маршрут
	Update(ctx context.Context, route *domain.SavedRoute) error

	// GetByID возвращает маршрут или nil, если он не найден
	GetByID(ctx context.Context, id uuid.UUID) (*domain.SavedRoute, error)

	// SetDataFilePath запоминает путь к экспортированному файлу трека
	SetDataFilePath(ctx context.Context, id uuid.UUID, path string) error
}
