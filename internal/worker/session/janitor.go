// Package session закрывает простаивающие сессии редактора
package session

import (
	"context"
	"time"

	"github.com/route-planner/internal/worker"
	"go.uber.org/zap"
)

// Evictor закрывает сессии, простаивающие дольше TTL
type Evictor interface {
	EvictIdle(now time.Time) int
}

// Janitor периодически вызывает Evictor
type Janitor struct {
	*worker.BaseWorker
	evictor  Evictor
	interval time.Duration
}

// NewJanitor создает новый Janitor
func NewJanitor(evictor Evictor, interval time.Duration, logger *zap.Logger) *Janitor {
	return &Janitor{
		BaseWorker: worker.NewBaseWorker("session-janitor", "", logger),
		evictor:    evictor,
		interval:   interval,
	}
}

// Start запускает воркер
func (j *Janitor) Start(ctx context.Context) error {
	ticker := time.NewTicker(j.interval)
	defer ticker.Stop()

	for {
		select {
		case <-j.StopChan():
			return nil
		case <-ctx.Done():
			return ctx.Err()
		case now := <-ticker.C:
			if n := j.evictor.EvictIdle(now); n > 0 {
				j.Logger().Info("Idle sessions evicted", zap.Int("count", n))
			}
		}
	}
}
