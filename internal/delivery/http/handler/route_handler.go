package handler

import (
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/route-planner/internal/pkg/errors"
	"github.com/route-planner/internal/pkg/utils"
	"github.com/route-planner/internal/usecase"
	"github.com/route-planner/internal/usecase/dto"
	"go.uber.org/zap"
)

// RouteHandler - сохранение и получение маршрутов
type RouteHandler struct {
	editorUC *usecase.EditorUseCase
	logger   *zap.Logger
}

// NewRouteHandler - создание нового RouteHandler
func NewRouteHandler(editorUC *usecase.EditorUseCase, logger *zap.Logger) *RouteHandler {
	return &RouteHandler{
		editorUC: editorUC,
		logger:   logger,
	}
}

// Save godoc
// @Summary Сохранить маршрут сессии
// @Description Создаёт новый маршрут или, при overwrite, перезаписывает маршрут, из которого открыта сессия. После сохранения воркер выгружает GPX.
// @Tags Routes
// @Accept json
// @Produce json
// @Param id path string true "ID сессии"
// @Param request body dto.SaveRouteRequest true "Метаданные маршрута"
// @Success 200 {object} utils.SuccessResponse{data=domain.SavedRoute}
// @Failure 400 {object} utils.ErrorResponse
// @Failure 422 {object} utils.ErrorResponse
// @Failure 500 {object} utils.ErrorResponse
// @Router /api/v1/sessions/{id}/save [post]
func (h *RouteHandler) Save(c *fiber.Ctx) error {
	var req dto.SaveRouteRequest
	if err := parseBody(c, &req); err != nil {
		return utils.SendError(c, err)
	}

	route, err := h.editorUC.SaveRoute(c.Context(), c.Params("id"), req)
	if err != nil {
		h.logger.Warn("Failed to save route", zap.String("session", c.Params("id")), zap.Error(err))
		return utils.SendError(c, err)
	}

	return utils.SendSuccess(c, route, nil)
}

// GetRoute godoc
// @Summary Получить сохранённый маршрут
// @Tags Routes
// @Produce json
// @Param id path string true "ID маршрута"
// @Success 200 {object} utils.SuccessResponse{data=domain.SavedRoute}
// @Failure 404 {object} utils.ErrorResponse
// @Router /api/v1/routes/{id} [get]
func (h *RouteHandler) GetRoute(c *fiber.Ctx) error {
	id, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return utils.SendError(c, errors.ErrInvalidRequest.WithMessage("Invalid route id"))
	}

	route, err := h.editorUC.GetRoute(c.Context(), id)
	if err != nil {
		return utils.SendError(c, err)
	}

	return utils.SendSuccess(c, route, nil)
}
