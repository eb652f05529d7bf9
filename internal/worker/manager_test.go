package worker_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/route-planner/internal/worker"
)

// loopWorker блокируется до Stop, либо сразу возвращает err
type loopWorker struct {
	*worker.BaseWorker
	err error
}

func (w *loopWorker) Start(ctx context.Context) error {
	if w.err != nil {
		return w.err
	}
	for w.Sleep(ctx, time.Millisecond) {
	}
	return nil
}

// stuckWorker игнорирует Stop
type stuckWorker struct {
	*worker.BaseWorker
	release chan struct{}
}

func (w *stuckWorker) Start(context.Context) error {
	<-w.release
	return nil
}

func TestWorkerManager_StartRequiresWorkers(t *testing.T) {
	m := worker.NewWorkerManager(zap.NewNop())
	assert.Error(t, m.Start(context.Background()))
}

func TestWorkerManager_StartStop(t *testing.T) {
	m := worker.NewWorkerManager(zap.NewNop())
	a := &loopWorker{BaseWorker: worker.NewBaseWorker("a", "", zap.NewNop())}
	b := &loopWorker{BaseWorker: worker.NewBaseWorker("b", "", zap.NewNop())}
	m.Register(a)
	m.Register(b)

	require.NoError(t, m.Start(context.Background()))
	require.NoError(t, m.Stop())

	assert.True(t, a.IsStopped())
	assert.True(t, b.IsStopped())
	assert.Empty(t, m.Failed())
}

func TestWorkerManager_RecordsFailures(t *testing.T) {
	m := worker.NewWorkerManager(zap.NewNop())
	m.Register(&loopWorker{
		BaseWorker: worker.NewBaseWorker("broken", "", zap.NewNop()),
		err:        errors.New("boom"),
	})

	require.NoError(t, m.Start(context.Background()))
	require.NoError(t, m.Stop())

	failed := m.Failed()
	require.Contains(t, failed, "broken")
	assert.EqualError(t, failed["broken"], "boom")
}

func TestWorkerManager_StopTimeout(t *testing.T) {
	m := worker.NewWorkerManager(zap.NewNop())
	m.SetShutdownTimeout(20 * time.Millisecond)
	w := &stuckWorker{BaseWorker: worker.NewBaseWorker("stuck", "", zap.NewNop()), release: make(chan struct{})}
	defer close(w.release)
	m.Register(w)

	require.NoError(t, m.Start(context.Background()))
	assert.ErrorContains(t, m.Stop(), "timed out")
}

func TestBaseWorker_StopIsIdempotent(t *testing.T) {
	w := worker.NewBaseWorker("idle", "group", zap.NewNop())
	require.NoError(t, w.Stop())
	require.NoError(t, w.Stop())

	assert.True(t, w.IsStopped())
	assert.Equal(t, "group", w.ConsumerGroup())
	assert.False(t, w.Sleep(context.Background(), time.Hour))
}
