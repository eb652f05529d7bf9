package usecase

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"math"
	"strings"
	"sync"
	"time"
	"unicode"

	"github.com/google/uuid"
	"github.com/route-planner/internal/domain"
	"github.com/route-planner/internal/domain/repository"
	"github.com/route-planner/internal/editor"
	"github.com/route-planner/internal/export"
	apperrors "github.com/route-planner/internal/pkg/errors"
	"github.com/route-planner/internal/pkg/metrics"
	"github.com/route-planner/internal/usecase/dto"
	"go.uber.org/zap"
)

type sessionEntry struct {
	session *editor.Session
	// routeID - сохранённый маршрут, из которого открыта или в который сохранена сессия
	routeID uuid.UUID
}

// EditorUseCase управляет сессиями редактора и их сохранением
type EditorUseCase struct {
	router     repository.RoutingRepository
	routeRepo  repository.RouteRepository
	streamRepo repository.StreamRepository
	opts       editor.Options
	sessionTTL time.Duration
	logger     *zap.Logger

	mu       sync.RWMutex
	sessions map[string]*sessionEntry
}

// NewEditorUseCase создает новый экземпляр EditorUseCase.
// streamRepo может быть nil, тогда событие сохранения не публикуется.
func NewEditorUseCase(
	router repository.RoutingRepository,
	routeRepo repository.RouteRepository,
	streamRepo repository.StreamRepository,
	opts editor.Options,
	sessionTTL time.Duration,
	logger *zap.Logger,
) *EditorUseCase {
	return &EditorUseCase{
		router:     router,
		routeRepo:  routeRepo,
		streamRepo: streamRepo,
		opts:       opts,
		sessionTTL: sessionTTL,
		logger:     logger,
		sessions:   make(map[string]*sessionEntry),
	}
}

// CreateSession открывает новую сессию, при route_id загружает сохранённый маршрут
func (uc *EditorUseCase) CreateSession(ctx context.Context, req dto.CreateSessionRequest) (*editor.Session, error) {
	opts := uc.opts
	if req.DirectMode != nil {
		opts.DirectMode = *req.DirectMode
	}

	var (
		saved   *domain.SavedRoute
		routeID uuid.UUID
	)
	if req.RouteID != "" {
		id, err := uuid.Parse(req.RouteID)
		if err != nil {
			return nil, apperrors.ErrInvalidRequest.WithMessage("Invalid route id")
		}
		if saved, err = uc.GetRoute(ctx, id); err != nil {
			return nil, err
		}
		routeID = id
	}

	session := editor.NewSession(uc.router, opts, uc.logger)
	if saved != nil {
		session.Load(saved.EditorState)
	}

	uc.mu.Lock()
	uc.sessions[session.ID()] = &sessionEntry{session: session, routeID: routeID}
	metrics.ActiveSessions.Set(float64(len(uc.sessions)))
	uc.mu.Unlock()

	uc.logger.Info("Editor session created",
		zap.String("session", session.ID()),
		zap.String("route_id", req.RouteID),
		zap.Bool("direct_mode", opts.DirectMode))

	return session, nil
}

// Session возвращает открытую сессию
func (uc *EditorUseCase) Session(id string) (*editor.Session, error) {
	uc.mu.RLock()
	defer uc.mu.RUnlock()

	entry, ok := uc.sessions[id]
	if !ok {
		return nil, apperrors.ErrSessionNotFound
	}
	return entry.session, nil
}

// DeleteSession закрывает сессию, запоздавшие ответы движка игнорируются
func (uc *EditorUseCase) DeleteSession(id string) error {
	uc.mu.Lock()
	entry, ok := uc.sessions[id]
	if ok {
		delete(uc.sessions, id)
		metrics.ActiveSessions.Set(float64(len(uc.sessions)))
	}
	uc.mu.Unlock()

	if !ok {
		return apperrors.ErrSessionNotFound
	}
	entry.session.Close()
	uc.logger.Info("Editor session closed", zap.String("session", id))
	return nil
}

// EvictIdle закрывает сессии, неактивные дольше sessionTTL, и возвращает их число
func (uc *EditorUseCase) EvictIdle(now time.Time) int {
	if uc.sessionTTL <= 0 {
		return 0
	}

	var idle []*editor.Session
	uc.mu.Lock()
	for id, entry := range uc.sessions {
		if now.Sub(entry.session.LastActive()) > uc.sessionTTL {
			idle = append(idle, entry.session)
			delete(uc.sessions, id)
		}
	}
	metrics.ActiveSessions.Set(float64(len(uc.sessions)))
	uc.mu.Unlock()

	for _, s := range idle {
		s.Close()
		uc.logger.Info("Evicted idle editor session", zap.String("session", s.ID()))
	}
	return len(idle)
}

// SessionCount возвращает число открытых сессий
func (uc *EditorUseCase) SessionCount() int {
	uc.mu.RLock()
	defer uc.mu.RUnlock()
	return len(uc.sessions)
}

// Close закрывает все сессии
func (uc *EditorUseCase) Close() {
	uc.mu.Lock()
	sessions := uc.sessions
	uc.sessions = make(map[string]*sessionEntry)
	metrics.ActiveSessions.Set(0)
	uc.mu.Unlock()

	for _, entry := range sessions {
		entry.session.Close()
	}
}

// SaveRoute сохраняет состояние сессии. При Overwrite перезаписывается маршрут,
// связанный с сессией; если его нет, создаётся новый.
func (uc *EditorUseCase) SaveRoute(ctx context.Context, sessionID string, req dto.SaveRouteRequest) (*domain.SavedRoute, error) {
	uc.mu.RLock()
	entry, ok := uc.sessions[sessionID]
	var routeID uuid.UUID
	if ok {
		routeID = entry.routeID
	}
	uc.mu.RUnlock()
	if !ok {
		return nil, apperrors.ErrSessionNotFound
	}

	state := entry.session.State()
	if !hasPoints(state.Sections) {
		return nil, apperrors.ErrEmptyRoute
	}

	distanceKm, ascentM := export.Totals(state.Sections)
	visibility := domain.Visibility(req.Visibility)
	if visibility == "" {
		visibility = domain.VisibilityPrivate
	}

	route := &domain.SavedRoute{
		Title:         req.Title,
		Description:   req.Description,
		Visibility:    visibility,
		Tags:          req.Tags,
		EditorState:   state,
		DistanceM:     int(math.Round(distanceKm * 1000)),
		ElevationGain: int(math.Round(ascentM)),
	}

	overwrite := req.Overwrite && routeID != uuid.Nil
	if overwrite {
		route.ID = routeID
		err := uc.routeRepo.Update(ctx, route)
		if errors.Is(err, apperrors.ErrRouteNotFound) {
			uc.logger.Warn("Route to overwrite not found, creating new", zap.String("route_id", routeID.String()))
			overwrite = false
		} else if err != nil {
			return nil, err
		}
	}
	if !overwrite {
		route.ID = uuid.Nil
		if err := uc.routeRepo.Create(ctx, route); err != nil {
			return nil, err
		}
	}

	uc.mu.Lock()
	if entry, ok := uc.sessions[sessionID]; ok {
		entry.routeID = route.ID
	}
	uc.mu.Unlock()

	uc.logger.Info("Route saved",
		zap.String("session", sessionID),
		zap.String("route_id", route.ID.String()),
		zap.Bool("overwrite", overwrite),
		zap.Int("distance_m", route.DistanceM))

	if uc.streamRepo != nil {
		event := &domain.RouteSavedEvent{RouteID: route.ID, Overwrite: overwrite}
		if err := uc.streamRepo.PublishToStream(ctx, domain.StreamRouteSaved, event); err != nil {
			// маршрут уже сохранён, трек будет выгружен при следующем сохранении
			uc.logger.Warn("Failed to publish route saved event", zap.String("route_id", route.ID.String()), zap.Error(err))
		}
	}

	return route, nil
}

// GetRoute возвращает сохранённый маршрут
func (uc *EditorUseCase) GetRoute(ctx context.Context, id uuid.UUID) (*domain.SavedRoute, error) {
	route, err := uc.routeRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if route == nil {
		return nil, apperrors.ErrRouteNotFound
	}
	return route, nil
}

// Export выгружает маршрут сессии или одну его секцию в GPX/KML
func (uc *EditorUseCase) Export(sessionID, format string, section *int) (*dto.ExportFile, error) {
	session, err := uc.Session(sessionID)
	if err != nil {
		return nil, err
	}

	f, err := export.ParseFormat(strings.ToLower(format))
	if err != nil {
		return nil, apperrors.ErrUnsupportedFormat.WithDetails(map[string]interface{}{"format": format})
	}

	view := session.View()
	name := "route"
	points := export.Flatten(view.Sections)
	if section != nil {
		if points, err = export.FlattenSection(view.Sections, *section); err != nil {
			return nil, apperrors.ErrInvalidRequest.WithMessage(err.Error())
		}
		name = view.Sections[*section].Name
	}
	if len(points) == 0 {
		return nil, apperrors.ErrEmptyRoute
	}

	var buf bytes.Buffer
	if err := export.Write(&buf, f, name, points); err != nil {
		return nil, fmt.Errorf("write %s: %w", f, err)
	}
	metrics.Exports.WithLabelValues(string(f)).Inc()

	return &dto.ExportFile{
		Filename:    fmt.Sprintf("%s.%s", fileSlug(name), f),
		ContentType: f.ContentType(),
		Data:        buf.Bytes(),
	}, nil
}

func hasPoints(sections []domain.Section) bool {
	for _, s := range sections {
		if len(s.Points) > 0 {
			return true
		}
	}
	return false
}

// fileSlug оставляет в имени файла только буквы, цифры, '-' и '_'
func fileSlug(name string) string {
	slug := strings.Map(func(r rune) rune {
		switch {
		case unicode.IsLetter(r), unicode.IsDigit(r), r == '-', r == '_':
			return r
		case unicode.IsSpace(r):
			return '_'
		}
		return -1
	}, strings.TrimSpace(name))
	if slug == "" {
		return "route"
	}
	return slug
}
