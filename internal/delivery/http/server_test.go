package http

import (
	"bytes"
	"context"
	"encoding/json"
	stderrors "errors"
	"io"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/route-planner/internal/config"
	"github.com/route-planner/internal/delivery/http/handler"
	"github.com/route-planner/internal/domain"
	"github.com/route-planner/internal/editor"
	"github.com/route-planner/internal/pkg/errors"
	"github.com/route-planner/internal/pkg/utils"
	"github.com/route-planner/internal/usecase"
	"github.com/route-planner/internal/usecase/dto"
)

// memRouteRepository хранит маршруты в памяти
type memRouteRepository struct {
	mu     sync.Mutex
	routes map[uuid.UUID]*domain.SavedRoute
}

func newMemRouteRepository() *memRouteRepository {
	return &memRouteRepository{routes: make(map[uuid.UUID]*domain.SavedRoute)}
}

func (r *memRouteRepository) Create(_ context.Context, route *domain.SavedRoute) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if route.ID == uuid.Nil {
		route.ID = uuid.New()
	}
	cp := *route
	r.routes[route.ID] = &cp
	return nil
}

func (r *memRouteRepository) Update(_ context.Context, route *domain.SavedRoute) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.routes[route.ID]; !ok {
		return errors.ErrRouteNotFound
	}
	cp := *route
	r.routes[route.ID] = &cp
	return nil
}

func (r *memRouteRepository) GetByID(_ context.Context, id uuid.UUID) (*domain.SavedRoute, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	route, ok := r.routes[id]
	if !ok {
		return nil, nil
	}
	cp := *route
	return &cp, nil
}

func (r *memRouteRepository) SetDataFilePath(_ context.Context, id uuid.UUID, path string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	route, ok := r.routes[id]
	if !ok {
		return errors.ErrRouteNotFound
	}
	route.DataFilePath = path
	return nil
}

type unusedRouter struct{}

func (unusedRouter) Route(context.Context, domain.RouteRequest) (*domain.RouteResult, error) {
	return nil, stderrors.New("routing is disabled in direct mode")
}

type checkFunc func(ctx context.Context) error

func (f checkFunc) Health(ctx context.Context) error { return f(ctx) }

type envelope struct {
	Data  json.RawMessage  `json:"data"`
	Meta  *utils.Meta      `json:"meta"`
	Error *errors.AppError `json:"error"`
}

type testServer struct {
	t      *testing.T
	server *Server
}

func newTestServer(t *testing.T, checks map[string]handler.HealthChecker) *testServer {
	logger := zap.NewNop()
	editorUC := usecase.NewEditorUseCase(
		unusedRouter{},
		newMemRouteRepository(),
		nil,
		editor.Options{DirectMode: true},
		time.Hour,
		logger,
	)
	t.Cleanup(editorUC.Close)

	server := NewServer(
		&config.Config{},
		logger,
		handler.NewSessionHandler(editorUC, logger),
		handler.NewRouteHandler(editorUC, logger),
		handler.NewHealthHandler(editorUC, checks, logger),
	)
	return &testServer{t: t, server: server}
}

func (s *testServer) do(method, path string, body interface{}) (int, envelope, []byte) {
	s.t.Helper()

	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		require.NoError(s.t, err)
		reader = bytes.NewReader(data)
	}
	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := s.server.App().Test(req, -1)
	require.NoError(s.t, err)
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	require.NoError(s.t, err)

	var env envelope
	_ = json.Unmarshal(raw, &env)
	return resp.StatusCode, env, raw
}

func (s *testServer) view(method, path string, body interface{}) editor.View {
	s.t.Helper()
	status, env, raw := s.do(method, path, body)
	require.Less(s.t, status, 300, "unexpected response %s", raw)

	var view editor.View
	require.NoError(s.t, json.Unmarshal(env.Data, &view))
	return view
}

func (s *testServer) createSession() string {
	s.t.Helper()
	status, env, raw := s.do("POST", "/api/v1/sessions", nil)
	require.Equal(s.t, 201, status, string(raw))

	var view editor.View
	require.NoError(s.t, json.Unmarshal(env.Data, &view))
	require.NotEmpty(s.t, view.ID)
	return "/api/v1/sessions/" + view.ID
}

func TestServer_Health(t *testing.T) {
	t.Run("healthy", func(t *testing.T) {
		ts := newTestServer(t, map[string]handler.HealthChecker{
			"postgres": checkFunc(func(context.Context) error { return nil }),
		})
		status, _, raw := ts.do("GET", "/api/v1/health", nil)
		assert.Equal(t, 200, status)

		var resp dto.HealthResponse
		require.NoError(t, json.Unmarshal(raw, &resp))
		assert.Equal(t, "healthy", resp.Status)
		assert.Equal(t, "ok", resp.Checks["postgres"])
	})

	t.Run("degraded", func(t *testing.T) {
		ts := newTestServer(t, map[string]handler.HealthChecker{
			"redis": checkFunc(func(context.Context) error { return stderrors.New("connection refused") }),
		})
		status, _, raw := ts.do("GET", "/api/v1/health", nil)
		assert.Equal(t, 503, status)
		assert.Contains(t, string(raw), "connection refused")
	})
}

func TestServer_EditingFlow(t *testing.T) {
	ts := newTestServer(t, nil)
	base := ts.createSession()

	ts.view("POST", base+"/points", dto.Point{Lat: 41.3851, Lng: 2.1734})
	ts.view("POST", base+"/points", dto.Point{Lat: 41.3900, Lng: 2.1800})
	view := ts.view("POST", base+"/points", dto.Point{Lat: 41.3950, Lng: 2.1850})

	require.Len(t, view.Sections, 1)
	assert.Len(t, view.Sections[0].Points, 3)
	assert.Len(t, view.Sections[0].Segments, 2)
	assert.True(t, view.DirectMode)
	assert.True(t, view.CanUndo)
	assert.Equal(t, domain.SegmentStraight, view.Sections[0].Segments[0].State)

	// move and label
	view = ts.view("PUT", base+"/sections/0/points/1", dto.Point{Lat: 41.3910, Lng: 2.1810})
	assert.Equal(t, 41.3910, view.Sections[0].Points[1].Lat)
	view = ts.view("PATCH", base+"/sections/0/points/1", dto.RenamePointRequest{Label: "Café"})
	assert.Equal(t, "Café", view.Sections[0].Points[1].Label)

	// split and merge
	view = ts.view("POST", base+"/sections/0/split?point=1", nil)
	require.Len(t, view.Sections, 2)
	assert.Len(t, view.Sections[0].Points, 1)
	assert.Len(t, view.Sections[1].Points, 2)

	view = ts.view("PATCH", base+"/sections/1", dto.RenameSectionRequest{Name: "Climb"})
	assert.Equal(t, "Climb", view.Sections[1].Name)

	view = ts.view("POST", base+"/sections/0/merge", nil)
	require.Len(t, view.Sections, 1)

	// undo restores the split, redo merges again
	view = ts.view("POST", base+"/undo", nil)
	assert.Len(t, view.Sections, 2)
	assert.True(t, view.CanRedo)
	view = ts.view("POST", base+"/redo", nil)
	assert.Len(t, view.Sections, 1)
	assert.False(t, view.CanRedo)

	// single candidate inserts
	status, env, raw := ts.do("POST", base+"/insert", dto.InsertRequest{
		Lat:        41.3880,
		Lng:        2.1770,
		Candidates: []dto.Candidate{{SectionIdx: 0, SegmentIdx: 0}},
	})
	require.Equal(t, 200, status, string(raw))
	var inserted dto.InsertResponse
	require.NoError(t, json.Unmarshal(env.Data, &inserted))
	assert.True(t, inserted.Inserted)
	assert.Len(t, inserted.Session.Sections[0].Points, 4)

	// two candidates only rank
	status, env, raw = ts.do("POST", base+"/insert", dto.InsertRequest{
		Lat:        41.3880,
		Lng:        2.1770,
		Candidates: []dto.Candidate{{SectionIdx: 0, SegmentIdx: 0}, {SectionIdx: 0, SegmentIdx: 2}},
	})
	require.Equal(t, 200, status, string(raw))
	require.NoError(t, json.Unmarshal(env.Data, &inserted))
	assert.False(t, inserted.Inserted)
	assert.Len(t, inserted.Candidates, 2)
	assert.Len(t, inserted.Session.Sections[0].Points, 4)

	status, env, _ = ts.do("POST", base+"/candidates", dto.InsertRequest{
		Lat:        41.3880,
		Lng:        2.1770,
		Candidates: []dto.Candidate{{SectionIdx: 0, SegmentIdx: 1}},
	})
	require.Equal(t, 200, status)
	var ranked dto.CandidatesResponse
	require.NoError(t, json.Unmarshal(env.Data, &ranked))
	assert.Len(t, ranked.Candidates, 1)

	// remove, then clear
	view = ts.view("DELETE", base+"/sections/0/points/0", nil)
	assert.Len(t, view.Sections[0].Points, 3)

	view = ts.view("POST", base+"/clear", nil)
	require.Len(t, view.Sections, 1)
	assert.Empty(t, view.Sections[0].Points)

	// delete session
	status, _, _ = ts.do("DELETE", base, nil)
	assert.Equal(t, 204, status)
	status, env, _ = ts.do("GET", base, nil)
	assert.Equal(t, 404, status)
	assert.Equal(t, "SESSION_NOT_FOUND", env.Error.Code)
}

func TestServer_InvalidEdits(t *testing.T) {
	ts := newTestServer(t, nil)
	base := ts.createSession()

	status, env, _ := ts.do("POST", base+"/undo", nil)
	assert.Equal(t, 409, status)
	assert.Equal(t, "NOTHING_TO_UNDO", env.Error.Code)

	status, env, _ = ts.do("PUT", base+"/sections/0/points/5", dto.Point{Lat: 1, Lng: 1})
	assert.Equal(t, 409, status)
	assert.Equal(t, "INVALID_EDIT", env.Error.Code)

	status, env, _ = ts.do("POST", base+"/points", dto.Point{Lat: 95, Lng: 1})
	assert.Equal(t, 400, status)
	assert.Equal(t, "INVALID_COORDINATES", env.Error.Code)

	status, env, _ = ts.do("DELETE", base+"/sections/x/points/0", nil)
	assert.Equal(t, 400, status)
	assert.Equal(t, "INVALID_REQUEST", env.Error.Code)

	status, env, _ = ts.do("POST", base+"/insert", dto.InsertRequest{Lat: 1, Lng: 1})
	assert.Equal(t, 400, status)
	assert.Equal(t, "INVALID_REQUEST", env.Error.Code)

	status, env, _ = ts.do("POST", "/api/v1/sessions/missing/points", dto.Point{Lat: 1, Lng: 1})
	assert.Equal(t, 404, status)
	assert.Equal(t, "SESSION_NOT_FOUND", env.Error.Code)
}

func TestServer_ExportAndDisplay(t *testing.T) {
	ts := newTestServer(t, nil)
	base := ts.createSession()

	status, env, _ := ts.do("GET", base+"/export", nil)
	assert.Equal(t, 422, status)
	assert.Equal(t, "EMPTY_ROUTE", env.Error.Code)

	ts.view("POST", base+"/points", dto.Point{Lat: 41.3851, Lng: 2.1734})
	ts.view("POST", base+"/points", dto.Point{Lat: 41.3900, Lng: 2.1800})

	req := httptest.NewRequest("GET", base+"/export?format=gpx", nil)
	resp, err := ts.server.App().Test(req, -1)
	require.NoError(t, err)
	assert.Equal(t, 200, resp.StatusCode)
	assert.Equal(t, "application/gpx+xml", resp.Header.Get("Content-Type"))
	assert.Contains(t, resp.Header.Get("Content-Disposition"), "route.gpx")
	data, _ := io.ReadAll(resp.Body)
	resp.Body.Close()
	assert.Contains(t, string(data), "<trkpt")

	status, env, _ = ts.do("GET", base+"/export?format=shp", nil)
	assert.Equal(t, 400, status)
	assert.Equal(t, "UNSUPPORTED_FORMAT", env.Error.Code)

	status, _, raw := ts.do("GET", base+"/geojson", nil)
	assert.Equal(t, 200, status)
	assert.Contains(t, string(raw), `"FeatureCollection"`)

	status, env, _ = ts.do("GET", base+"/profile", nil)
	assert.Equal(t, 200, status)
	var profile dto.ProfileResponse
	require.NoError(t, json.Unmarshal(env.Data, &profile))
	assert.Empty(t, profile.Points, "straight segments carry no elevation")
}

func TestServer_SaveAndLoad(t *testing.T) {
	ts := newTestServer(t, nil)
	base := ts.createSession()

	status, env, _ := ts.do("POST", base+"/save", dto.SaveRouteRequest{Title: "Empty"})
	assert.Equal(t, 422, status)
	assert.Equal(t, "EMPTY_ROUTE", env.Error.Code)

	ts.view("POST", base+"/points", dto.Point{Lat: 41.3851, Lng: 2.1734})
	ts.view("POST", base+"/points", dto.Point{Lat: 41.3900, Lng: 2.1800})

	status, env, _ = ts.do("POST", base+"/save", dto.SaveRouteRequest{Title: "Loop", Visibility: "SECRET"})
	assert.Equal(t, 400, status)
	assert.Equal(t, "INVALID_REQUEST", env.Error.Code)

	status, env, raw := ts.do("POST", base+"/save", dto.SaveRouteRequest{Title: "Loop", Visibility: "PUBLIC", Tags: []string{"road"}})
	require.Equal(t, 200, status, string(raw))
	var saved domain.SavedRoute
	require.NoError(t, json.Unmarshal(env.Data, &saved))
	assert.NotEqual(t, uuid.Nil, saved.ID)
	assert.Equal(t, domain.VisibilityPublic, saved.Visibility)

	status, env, _ = ts.do("GET", "/api/v1/routes/"+saved.ID.String(), nil)
	require.Equal(t, 200, status)
	var got domain.SavedRoute
	require.NoError(t, json.Unmarshal(env.Data, &got))
	assert.Equal(t, "Loop", got.Title)
	assert.Len(t, got.EditorState.Sections[0].Points, 2)

	// reopen the saved route in a new session
	status, env, raw = ts.do("POST", "/api/v1/sessions", dto.CreateSessionRequest{RouteID: saved.ID.String()})
	require.Equal(t, 201, status, string(raw))
	var view editor.View
	require.NoError(t, json.Unmarshal(env.Data, &view))
	assert.Len(t, view.Sections[0].Points, 2)

	status, env, _ = ts.do("GET", "/api/v1/routes/"+uuid.NewString(), nil)
	assert.Equal(t, 404, status)
	assert.Equal(t, "ROUTE_NOT_FOUND", env.Error.Code)
}

func TestServer_Metrics(t *testing.T) {
	ts := newTestServer(t, nil)
	ts.createSession()

	status, _, raw := ts.do("GET", "/metrics", nil)
	assert.Equal(t, 200, status)
	assert.Contains(t, string(raw), "route_planner_active_sessions")
}
