package handler

import (
	"context"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/route-planner/internal/usecase"
	"github.com/route-planner/internal/usecase/dto"
	"go.uber.org/zap"
)

// HealthChecker - зависимость, доступность которой проверяет health check
type HealthChecker interface {
	Health(ctx context.Context) error
}

// HealthHandler - обработчик health check
type HealthHandler struct {
	editorUC *usecase.EditorUseCase
	checks   map[string]HealthChecker
	logger   *zap.Logger
}

// NewHealthHandler - создание нового HealthHandler
func NewHealthHandler(editorUC *usecase.EditorUseCase, checks map[string]HealthChecker, logger *zap.Logger) *HealthHandler {
	return &HealthHandler{
		editorUC: editorUC,
		checks:   checks,
		logger:   logger,
	}
}

// Health godoc
// @Summary Health check
// @Tags Health
// @Produce json
// @Success 200 {object} dto.HealthResponse
// @Failure 503 {object} dto.HealthResponse
// @Router /api/v1/health [get]
func (h *HealthHandler) Health(c *fiber.Ctx) error {
	ctx, cancel := context.WithTimeout(c.Context(), 2*time.Second)
	defer cancel()

	resp := dto.HealthResponse{
		Status:   "healthy",
		Sessions: h.editorUC.SessionCount(),
		Checks:   make(map[string]string, len(h.checks)),
	}
	for name, check := range h.checks {
		if err := check.Health(ctx); err != nil {
			h.logger.Warn("Health check failed", zap.String("check", name), zap.Error(err))
			resp.Checks[name] = err.Error()
			resp.Status = "degraded"
			continue
		}
		resp.Checks[name] = "ok"
	}

	if resp.Status != "healthy" {
		return c.Status(fiber.StatusServiceUnavailable).JSON(resp)
	}
	return c.JSON(resp)
}
