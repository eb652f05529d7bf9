package export

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/paulmach/orb"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/route-planner/internal/domain"
)

// MockStreamRepository - мок для StreamRepository
type MockStreamRepository struct {
	mock.Mock
}

func (m *MockStreamRepository) ConsumeBatch(ctx context.Context, stream, group, consumer string, count int) ([]domain.StreamMessage, error) {
	args := m.Called(ctx, stream, group, consumer, count)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.StreamMessage), args.Error(1)
}

func (m *MockStreamRepository) AckMessage(ctx context.Context, stream, group, messageID string) error {
	args := m.Called(ctx, stream, group, messageID)
	return args.Error(0)
}

func (m *MockStreamRepository) CreateConsumerGroup(ctx context.Context, stream, group string) error {
	args := m.Called(ctx, stream, group)
	return args.Error(0)
}

func (m *MockStreamRepository) PublishToStream(ctx context.Context, stream string, data interface{}) error {
	args := m.Called(ctx, stream, data)
	return args.Error(0)
}

// MockRouteRepository - мок для RouteRepository
type MockRouteRepository struct {
	mock.Mock
}

func (m *MockRouteRepository) Create(ctx context.Context, route *domain.SavedRoute) error {
	return m.Called(ctx, route).Error(0)
}

func (m *MockRouteRepository) Update(ctx context.Context, route *domain.SavedRoute) error {
	return m.Called(ctx, route).Error(0)
}

func (m *MockRouteRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.SavedRoute, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.SavedRoute), args.Error(1)
}

func (m *MockRouteRepository) SetDataFilePath(ctx context.Context, id uuid.UUID, path string) error {
	return m.Called(ctx, id, path).Error(0)
}

const testGroup = "test-export-workers"

func newTestWorker(t *testing.T, maxRetries int) (*RouteExportWorker, *MockStreamRepository, *MockRouteRepository) {
	t.Helper()
	retryDelay = time.Millisecond

	streams := new(MockStreamRepository)
	routes := new(MockRouteRepository)
	w := NewRouteExportWorker(streams, routes, t.TempDir(), testGroup, maxRetries, zap.NewNop())
	return w, streams, routes
}

func savedRoute(id uuid.UUID) *domain.SavedRoute {
	return &domain.SavedRoute{
		ID:    id,
		Title: "Morning loop",
		EditorState: domain.EditorState{Sections: []domain.Section{{
			ID:   "s1",
			Name: "Section 1",
			Points: []domain.Point{
				{ID: "p1", Lng: 13.40, Lat: 52.52, Kind: domain.PointKindEndpoint},
				{ID: "p2", Lng: 13.41, Lat: 52.53, Kind: domain.PointKindEndpoint},
			},
			Segments: []domain.Segment{{
				ID:           "g1",
				StartPointID: "p1",
				EndPointID:   "p2",
				State:        domain.SegmentResolved,
				Geometry:     orb.LineString{{13.40, 52.52}, {13.405, 52.525}, {13.41, 52.53}},
				Elevations:   []float64{34, 36, 35},
			}},
		}}},
	}
}

func TestProcessBatch_ExportsRoute(t *testing.T) {
	w, streams, routes := newTestWorker(t, 3)
	ctx := context.Background()
	id := uuid.New()
	expectedPath := filepath.Join(w.exportDir, id.String()+".gpx")

	streams.On("ConsumeBatch", mock.Anything, domain.StreamRouteSaved, testGroup, mock.Anything, maxBatchSize).
		Return([]domain.StreamMessage{{ID: "1-0", Data: `{"route_id":"` + id.String() + `"}`}}, nil).Once()
	routes.On("GetByID", mock.Anything, id).Return(savedRoute(id), nil).Once()
	routes.On("SetDataFilePath", mock.Anything, id, expectedPath).Return(nil).Once()
	streams.On("PublishToStream", mock.Anything, domain.StreamRouteExported, mock.MatchedBy(func(e *domain.RouteExportedEvent) bool {
		return e.RouteID == id && e.DataFilePath == expectedPath && e.Error == ""
	})).Return(nil).Once()
	streams.On("AckMessage", mock.Anything, domain.StreamRouteSaved, testGroup, "1-0").Return(nil).Once()

	n, err := w.processBatch(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	data, err := os.ReadFile(expectedPath)
	require.NoError(t, err)
	assert.Contains(t, string(data), "<gpx")
	assert.Contains(t, string(data), "Morning loop")

	streams.AssertExpectations(t)
	routes.AssertExpectations(t)
}

func TestProcessBatch_InvalidMessageIsAcked(t *testing.T) {
	w, streams, routes := newTestWorker(t, 3)

	streams.On("ConsumeBatch", mock.Anything, domain.StreamRouteSaved, testGroup, mock.Anything, maxBatchSize).
		Return([]domain.StreamMessage{
			{ID: "1-0", Data: "not json"},
			{ID: "2-0", Data: `{"route_id":"00000000-0000-0000-0000-000000000000"}`},
		}, nil).Once()
	streams.On("AckMessage", mock.Anything, domain.StreamRouteSaved, testGroup, "1-0").Return(nil).Once()
	streams.On("AckMessage", mock.Anything, domain.StreamRouteSaved, testGroup, "2-0").Return(nil).Once()

	n, err := w.processBatch(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	streams.AssertExpectations(t)
	routes.AssertNotCalled(t, "GetByID", mock.Anything, mock.Anything)
	streams.AssertNotCalled(t, "PublishToStream", mock.Anything, mock.Anything, mock.Anything)
}

func TestProcessBatch_MissingRoutePublishesError(t *testing.T) {
	w, streams, routes := newTestWorker(t, 2)
	id := uuid.New()

	streams.On("ConsumeBatch", mock.Anything, domain.StreamRouteSaved, testGroup, mock.Anything, maxBatchSize).
		Return([]domain.StreamMessage{{ID: "1-0", Data: `{"route_id":"` + id.String() + `"}`}}, nil).Once()
	routes.On("GetByID", mock.Anything, id).Return(nil, nil).Twice()
	streams.On("PublishToStream", mock.Anything, domain.StreamRouteExported, mock.MatchedBy(func(e *domain.RouteExportedEvent) bool {
		return e.RouteID == id && e.DataFilePath == "" && e.Error != ""
	})).Return(nil).Once()
	streams.On("AckMessage", mock.Anything, domain.StreamRouteSaved, testGroup, "1-0").Return(nil).Once()

	_, err := w.processBatch(context.Background())
	require.NoError(t, err)

	streams.AssertExpectations(t)
	routes.AssertExpectations(t)
	routes.AssertNotCalled(t, "SetDataFilePath", mock.Anything, mock.Anything, mock.Anything)
}

func TestProcessBatch_RetriesTransientFailure(t *testing.T) {
	w, streams, routes := newTestWorker(t, 3)
	id := uuid.New()

	streams.On("ConsumeBatch", mock.Anything, domain.StreamRouteSaved, testGroup, mock.Anything, maxBatchSize).
		Return([]domain.StreamMessage{{ID: "1-0", Data: `{"route_id":"` + id.String() + `"}`}}, nil).Once()
	routes.On("GetByID", mock.Anything, id).Return(nil, errors.New("connection reset")).Once()
	routes.On("GetByID", mock.Anything, id).Return(savedRoute(id), nil).Once()
	routes.On("SetDataFilePath", mock.Anything, id, mock.Anything).Return(nil).Once()
	streams.On("PublishToStream", mock.Anything, domain.StreamRouteExported, mock.MatchedBy(func(e *domain.RouteExportedEvent) bool {
		return e.Error == ""
	})).Return(nil).Once()
	streams.On("AckMessage", mock.Anything, domain.StreamRouteSaved, testGroup, "1-0").Return(nil).Once()

	_, err := w.processBatch(context.Background())
	require.NoError(t, err)

	streams.AssertExpectations(t)
	routes.AssertExpectations(t)
}

func TestProcessBatch_EmptyQueue(t *testing.T) {
	w, streams, _ := newTestWorker(t, 3)

	streams.On("ConsumeBatch", mock.Anything, domain.StreamRouteSaved, testGroup, mock.Anything, maxBatchSize).
		Return(nil, nil).Once()

	n, err := w.processBatch(context.Background())
	require.NoError(t, err)
	assert.Zero(t, n)
}

func TestProcessBatch_ConsumeError(t *testing.T) {
	w, streams, _ := newTestWorker(t, 3)

	streams.On("ConsumeBatch", mock.Anything, domain.StreamRouteSaved, testGroup, mock.Anything, maxBatchSize).
		Return(nil, errors.New("redis down")).Once()

	_, err := w.processBatch(context.Background())
	assert.ErrorContains(t, err, "redis down")
}

func TestStart_StopsOnStop(t *testing.T) {
	w, streams, _ := newTestWorker(t, 3)

	streams.On("CreateConsumerGroup", mock.Anything, domain.StreamRouteSaved, testGroup).Return(nil).Once()
	streams.On("ConsumeBatch", mock.Anything, domain.StreamRouteSaved, testGroup, mock.Anything, maxBatchSize).
		Return(nil, nil).Maybe()

	done := make(chan error, 1)
	go func() { done <- w.Start(context.Background()) }()

	time.Sleep(50 * time.Millisecond)
	require.NoError(t, w.Stop())

	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("worker did not stop")
	}
	assert.True(t, w.IsStopped())
}

func TestStart_ConsumerGroupError(t *testing.T) {
	w, streams, _ := newTestWorker(t, 3)

	streams.On("CreateConsumerGroup", mock.Anything, domain.StreamRouteSaved, testGroup).
		Return(errors.New("NOPERM")).Once()

	err := w.Start(context.Background())
	assert.ErrorContains(t, err, "consumer group")
}
