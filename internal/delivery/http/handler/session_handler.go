package handler

import (
	"fmt"
	"strconv"

	"github.com/gofiber/fiber/v2"
	"github.com/route-planner/internal/domain"
	"github.com/route-planner/internal/editor"
	"github.com/route-planner/internal/export"
	"github.com/route-planner/internal/pkg/errors"
	"github.com/route-planner/internal/pkg/utils"
	"github.com/route-planner/internal/usecase"
	"github.com/route-planner/internal/usecase/dto"
	"go.uber.org/zap"
)

// SessionHandler - обработчик операций редактора маршрута
type SessionHandler struct {
	editorUC *usecase.EditorUseCase
	logger   *zap.Logger
}

// NewSessionHandler - создание нового SessionHandler
func NewSessionHandler(editorUC *usecase.EditorUseCase, logger *zap.Logger) *SessionHandler {
	return &SessionHandler{
		editorUC: editorUC,
		logger:   logger,
	}
}

func (h *SessionHandler) session(c *fiber.Ctx) (*editor.Session, error) {
	return h.editorUC.Session(c.Params("id"))
}

// edit применяет операцию к сессии; false от операции означает no-op
func (h *SessionHandler) edit(c *fiber.Ctx, noop *errors.AppError, op func(s *editor.Session) bool) error {
	s, err := h.session(c)
	if err != nil {
		return utils.SendError(c, err)
	}
	if !op(s) {
		return utils.SendError(c, noop)
	}
	return sendView(c, s.View())
}

// Create godoc
// @Summary Открыть сессию редактора
// @Description Создаёт пустую сессию или загружает сохранённый маршрут по route_id
// @Tags Sessions
// @Accept json
// @Produce json
// @Param request body dto.CreateSessionRequest false "Параметры сессии"
// @Success 201 {object} utils.SuccessResponse{data=editor.View}
// @Failure 400 {object} utils.ErrorResponse
// @Failure 404 {object} utils.ErrorResponse
// @Router /api/v1/sessions [post]
func (h *SessionHandler) Create(c *fiber.Ctx) error {
	var req dto.CreateSessionRequest
	if len(c.Body()) > 0 {
		if err := parseBody(c, &req); err != nil {
			return utils.SendError(c, err)
		}
	}

	s, err := h.editorUC.CreateSession(c.Context(), req)
	if err != nil {
		return utils.SendError(c, err)
	}

	c.Status(fiber.StatusCreated)
	return sendView(c, s.View())
}

// Get godoc
// @Summary Состояние сессии
// @Tags Sessions
// @Produce json
// @Param id path string true "ID сессии"
// @Success 200 {object} utils.SuccessResponse{data=editor.View}
// @Failure 404 {object} utils.ErrorResponse
// @Router /api/v1/sessions/{id} [get]
func (h *SessionHandler) Get(c *fiber.Ctx) error {
	s, err := h.session(c)
	if err != nil {
		return utils.SendError(c, err)
	}
	return sendView(c, s.View())
}

// Delete godoc
// @Summary Закрыть сессию
// @Tags Sessions
// @Param id path string true "ID сессии"
// @Success 204
// @Failure 404 {object} utils.ErrorResponse
// @Router /api/v1/sessions/{id} [delete]
func (h *SessionHandler) Delete(c *fiber.Ctx) error {
	if err := h.editorUC.DeleteSession(c.Params("id")); err != nil {
		return utils.SendError(c, err)
	}
	return c.SendStatus(fiber.StatusNoContent)
}

// AppendPoint godoc
// @Summary Добавить точку в конец маршрута
// @Tags Points
// @Accept json
// @Produce json
// @Param id path string true "ID сессии"
// @Param request body dto.Point true "Координаты"
// @Success 200 {object} utils.SuccessResponse{data=editor.View}
// @Failure 400 {object} utils.ErrorResponse
// @Router /api/v1/sessions/{id}/points [post]
func (h *SessionHandler) AppendPoint(c *fiber.Ctx) error {
	var req dto.Point
	if err := parseBody(c, &req); err != nil {
		return utils.SendError(c, errors.ErrInvalidCoordinates)
	}
	return h.edit(c, errors.ErrInvalidEdit, func(s *editor.Session) bool {
		return s.Append(req.Lng, req.Lat)
	})
}

// MovePoint godoc
// @Summary Переместить точку
// @Tags Points
// @Accept json
// @Produce json
// @Param id path string true "ID сессии"
// @Param section path int true "Индекс секции"
// @Param point path int true "Индекс точки в секции"
// @Param request body dto.Point true "Новые координаты"
// @Success 200 {object} utils.SuccessResponse{data=editor.View}
// @Failure 409 {object} utils.ErrorResponse
// @Router /api/v1/sessions/{id}/sections/{section}/points/{point} [put]
func (h *SessionHandler) MovePoint(c *fiber.Ctx) error {
	section, point, err := pointParams(c)
	if err != nil {
		return utils.SendError(c, err)
	}
	var req dto.Point
	if err := parseBody(c, &req); err != nil {
		return utils.SendError(c, errors.ErrInvalidCoordinates)
	}
	return h.edit(c, errors.ErrInvalidEdit, func(s *editor.Session) bool {
		return s.Move(section, point, req.Lng, req.Lat)
	})
}

// RemovePoint godoc
// @Summary Удалить точку
// @Tags Points
// @Produce json
// @Param id path string true "ID сессии"
// @Param section path int true "Индекс секции"
// @Param point path int true "Индекс точки в секции"
// @Success 200 {object} utils.SuccessResponse{data=editor.View}
// @Failure 409 {object} utils.ErrorResponse
// @Router /api/v1/sessions/{id}/sections/{section}/points/{point} [delete]
func (h *SessionHandler) RemovePoint(c *fiber.Ctx) error {
	section, point, err := pointParams(c)
	if err != nil {
		return utils.SendError(c, err)
	}
	return h.edit(c, errors.ErrInvalidEdit, func(s *editor.Session) bool {
		return s.Remove(section, point)
	})
}

// RenamePoint godoc
// @Summary Подписать точку
// @Tags Points
// @Accept json
// @Produce json
// @Param id path string true "ID сессии"
// @Param section path int true "Индекс секции"
// @Param point path int true "Индекс точки в секции"
// @Param request body dto.RenamePointRequest true "Подпись"
// @Success 200 {object} utils.SuccessResponse{data=editor.View}
// @Failure 409 {object} utils.ErrorResponse
// @Router /api/v1/sessions/{id}/sections/{section}/points/{point} [patch]
func (h *SessionHandler) RenamePoint(c *fiber.Ctx) error {
	section, point, err := pointParams(c)
	if err != nil {
		return utils.SendError(c, err)
	}
	var req dto.RenamePointRequest
	if err := parseBody(c, &req); err != nil {
		return utils.SendError(c, err)
	}
	return h.edit(c, errors.ErrInvalidEdit, func(s *editor.Session) bool {
		return s.RenamePoint(section, point, req.Label)
	})
}

// Insert godoc
// @Summary Вставить точку в сегмент
// @Description Ранжирует кандидатов по расстоянию вдоль маршрута. Если остаётся ровно один кандидат, точка вставляется; иначе возвращается ранжированный список для выбора.
// @Tags Points
// @Accept json
// @Produce json
// @Param id path string true "ID сессии"
// @Param request body dto.InsertRequest true "Координата и кандидаты"
// @Success 200 {object} utils.SuccessResponse{data=dto.InsertResponse}
// @Failure 409 {object} utils.ErrorResponse
// @Router /api/v1/sessions/{id}/insert [post]
func (h *SessionHandler) Insert(c *fiber.Ctx) error {
	s, err := h.session(c)
	if err != nil {
		return utils.SendError(c, err)
	}
	var req dto.InsertRequest
	if err := parseBody(c, &req); err != nil {
		return utils.SendError(c, err)
	}

	ranked, inserted := s.Insert(toCandidates(req.Candidates), req.Lng, req.Lat)
	if !inserted && len(ranked) == 0 {
		return utils.SendError(c, errors.ErrInvalidEdit)
	}

	view := s.View()
	return utils.SendSuccess(c, dto.InsertResponse{
		Inserted:   inserted,
		Candidates: ranked,
		Session:    view,
	}, viewMeta(view))
}

// Candidates godoc
// @Summary Ранжировать кандидатов для вставки
// @Tags Points
// @Accept json
// @Produce json
// @Param id path string true "ID сессии"
// @Param request body dto.InsertRequest true "Координата и кандидаты"
// @Success 200 {object} utils.SuccessResponse{data=dto.CandidatesResponse}
// @Router /api/v1/sessions/{id}/candidates [post]
func (h *SessionHandler) Candidates(c *fiber.Ctx) error {
	s, err := h.session(c)
	if err != nil {
		return utils.SendError(c, err)
	}
	var req dto.InsertRequest
	if err := parseBody(c, &req); err != nil {
		return utils.SendError(c, err)
	}

	ranked := s.Candidates(toCandidates(req.Candidates), req.Lng, req.Lat)
	if ranked == nil {
		ranked = []domain.RankedCandidate{}
	}
	return utils.SendSuccess(c, dto.CandidatesResponse{Candidates: ranked}, nil)
}

// Split godoc
// @Summary Разделить секцию в точке
// @Tags Sections
// @Produce json
// @Param id path string true "ID сессии"
// @Param section path int true "Индекс секции"
// @Param point query int true "Индекс точки, с которой начинается новая секция"
// @Success 200 {object} utils.SuccessResponse{data=editor.View}
// @Failure 409 {object} utils.ErrorResponse
// @Router /api/v1/sessions/{id}/sections/{section}/split [post]
func (h *SessionHandler) Split(c *fiber.Ctx) error {
	section, err := paramIndex(c, "section")
	if err != nil {
		return utils.SendError(c, err)
	}
	point, err := strconv.Atoi(c.Query("point"))
	if err != nil {
		return utils.SendError(c, errors.ErrInvalidRequest.WithDetails(map[string]interface{}{"point": "required integer"}))
	}
	return h.edit(c, errors.ErrInvalidEdit, func(s *editor.Session) bool {
		return s.Split(section, point)
	})
}

// Merge godoc
// @Summary Объединить секцию со следующей
// @Tags Sections
// @Produce json
// @Param id path string true "ID сессии"
// @Param section path int true "Индекс секции"
// @Success 200 {object} utils.SuccessResponse{data=editor.View}
// @Failure 409 {object} utils.ErrorResponse
// @Router /api/v1/sessions/{id}/sections/{section}/merge [post]
func (h *SessionHandler) Merge(c *fiber.Ctx) error {
	section, err := paramIndex(c, "section")
	if err != nil {
		return utils.SendError(c, err)
	}
	return h.edit(c, errors.ErrInvalidEdit, func(s *editor.Session) bool {
		return s.Merge(section)
	})
}

// DeleteSection godoc
// @Summary Удалить секцию
// @Tags Sections
// @Produce json
// @Param id path string true "ID сессии"
// @Param section path int true "Индекс секции"
// @Success 200 {object} utils.SuccessResponse{data=editor.View}
// @Failure 409 {object} utils.ErrorResponse
// @Router /api/v1/sessions/{id}/sections/{section} [delete]
func (h *SessionHandler) DeleteSection(c *fiber.Ctx) error {
	section, err := paramIndex(c, "section")
	if err != nil {
		return utils.SendError(c, err)
	}
	return h.edit(c, errors.ErrInvalidEdit, func(s *editor.Session) bool {
		return s.DeleteSection(section)
	})
}

// RenameSection godoc
// @Summary Переименовать секцию
// @Tags Sections
// @Accept json
// @Produce json
// @Param id path string true "ID сессии"
// @Param section path int true "Индекс секции"
// @Param request body dto.RenameSectionRequest true "Название"
// @Success 200 {object} utils.SuccessResponse{data=editor.View}
// @Failure 409 {object} utils.ErrorResponse
// @Router /api/v1/sessions/{id}/sections/{section} [patch]
func (h *SessionHandler) RenameSection(c *fiber.Ctx) error {
	section, err := paramIndex(c, "section")
	if err != nil {
		return utils.SendError(c, err)
	}
	var req dto.RenameSectionRequest
	if err := parseBody(c, &req); err != nil {
		return utils.SendError(c, err)
	}
	return h.edit(c, errors.ErrInvalidEdit, func(s *editor.Session) bool {
		return s.RenameSection(section, req.Name)
	})
}

// Undo godoc
// @Summary Отменить последнее действие
// @Tags History
// @Produce json
// @Param id path string true "ID сессии"
// @Success 200 {object} utils.SuccessResponse{data=editor.View}
// @Failure 409 {object} utils.ErrorResponse
// @Router /api/v1/sessions/{id}/undo [post]
func (h *SessionHandler) Undo(c *fiber.Ctx) error {
	return h.edit(c, errors.ErrNothingToUndo, (*editor.Session).Undo)
}

// Redo godoc
// @Summary Повторить отменённое действие
// @Tags History
// @Produce json
// @Param id path string true "ID сессии"
// @Success 200 {object} utils.SuccessResponse{data=editor.View}
// @Failure 409 {object} utils.ErrorResponse
// @Router /api/v1/sessions/{id}/redo [post]
func (h *SessionHandler) Redo(c *fiber.Ctx) error {
	return h.edit(c, errors.ErrNothingToUndo.WithMessage("Nothing to redo"), (*editor.Session).Redo)
}

// Clear godoc
// @Summary Очистить маршрут
// @Tags History
// @Produce json
// @Param id path string true "ID сессии"
// @Success 200 {object} utils.SuccessResponse{data=editor.View}
// @Failure 409 {object} utils.ErrorResponse
// @Router /api/v1/sessions/{id}/clear [post]
func (h *SessionHandler) Clear(c *fiber.Ctx) error {
	return h.edit(c, errors.ErrInvalidEdit, (*editor.Session).Clear)
}

// SetDirectMode godoc
// @Summary Режим прямых линий
// @Description Во включённом режиме новые сегменты строятся прямыми линиями без движка маршрутизации
// @Tags Sessions
// @Accept json
// @Produce json
// @Param id path string true "ID сессии"
// @Param request body dto.DirectModeRequest true "Режим"
// @Success 200 {object} utils.SuccessResponse{data=editor.View}
// @Router /api/v1/sessions/{id}/direct-mode [put]
func (h *SessionHandler) SetDirectMode(c *fiber.Ctx) error {
	var req dto.DirectModeRequest
	if err := parseBody(c, &req); err != nil {
		return utils.SendError(c, err)
	}
	return h.edit(c, errors.ErrInvalidEdit, func(s *editor.Session) bool {
		s.SetDirectMode(req.Enabled)
		return true
	})
}

// GeoJSON godoc
// @Summary Слой отображения маршрута
// @Description FeatureCollection с сегментами (по частям поверхности) и точками
// @Tags Export
// @Produce json
// @Param id path string true "ID сессии"
// @Success 200 {object} map[string]interface{}
// @Router /api/v1/sessions/{id}/geojson [get]
func (h *SessionHandler) GeoJSON(c *fiber.Ctx) error {
	s, err := h.session(c)
	if err != nil {
		return utils.SendError(c, err)
	}
	return c.JSON(export.FeatureCollection(s.View().Sections))
}

// Profile godoc
// @Summary Профиль высот
// @Tags Export
// @Produce json
// @Param id path string true "ID сессии"
// @Success 200 {object} utils.SuccessResponse{data=dto.ProfileResponse}
// @Router /api/v1/sessions/{id}/profile [get]
func (h *SessionHandler) Profile(c *fiber.Ctx) error {
	s, err := h.session(c)
	if err != nil {
		return utils.SendError(c, err)
	}

	view := s.View()
	points := s.Profile()
	if points == nil {
		points = []domain.ProfilePoint{}
	}
	return utils.SendSuccess(c, dto.ProfileResponse{
		Points:     points,
		DistanceKm: view.Stats.DistanceKm,
		AscentM:    view.Stats.AscentM,
	}, viewMeta(view))
}

// Export godoc
// @Summary Скачать трек
// @Tags Export
// @Produce application/gpx+xml
// @Produce application/vnd.google-earth.kml+xml
// @Param id path string true "ID сессии"
// @Param format query string false "gpx или kml" default(gpx)
// @Param section query int false "Только одна секция"
// @Success 200 {file} file
// @Failure 400 {object} utils.ErrorResponse
// @Failure 422 {object} utils.ErrorResponse
// @Router /api/v1/sessions/{id}/export [get]
func (h *SessionHandler) Export(c *fiber.Ctx) error {
	var section *int
	if raw := c.Query("section"); raw != "" {
		idx, err := strconv.Atoi(raw)
		if err != nil {
			return utils.SendError(c, errors.ErrInvalidRequest.WithDetails(map[string]interface{}{"section": "must be an integer"}))
		}
		section = &idx
	}

	file, err := h.editorUC.Export(c.Params("id"), c.Query("format"), section)
	if err != nil {
		return utils.SendError(c, err)
	}

	c.Set(fiber.HeaderContentType, file.ContentType)
	c.Set(fiber.HeaderContentDisposition, fmt.Sprintf("attachment; filename=%q", file.Filename))
	return c.Send(file.Data)
}

func pointParams(c *fiber.Ctx) (int, int, error) {
	section, err := paramIndex(c, "section")
	if err != nil {
		return 0, 0, err
	}
	point, err := paramIndex(c, "point")
	if err != nil {
		return 0, 0, err
	}
	return section, point, nil
}

func toCandidates(in []dto.Candidate) []domain.Candidate {
	out := make([]domain.Candidate, 0, len(in))
	for _, c := range in {
		out = append(out, domain.Candidate{SectionIdx: c.SectionIdx, SegmentIdx: c.SegmentIdx})
	}
	return out
}
