package editor

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/route-planner/internal/domain"
	"github.com/route-planner/internal/domain/repository"
	"github.com/route-planner/internal/pkg/metrics"
	"go.uber.org/zap"
)

// Options configure a Session.
type Options struct {
	Profile        domain.RoutingProfile
	DirectMode     bool
	HistoryLimit   int
	RequestTimeout time.Duration
}

// View is a consistent snapshot of a session for rendering.
type View struct {
	ID         string            `json:"id"`
	Sections   []domain.Section  `json:"sections"`
	Stats      domain.RouteStats `json:"stats"`
	Loading    bool              `json:"loading"`
	CanUndo    bool              `json:"can_undo"`
	CanRedo    bool              `json:"can_redo"`
	DirectMode bool              `json:"direct_mode"`
	Notice     string            `json:"notice,omitempty"`
}

// Session owns one route with its history and reconciles routing results
// into it. All edits and result merges run under one mutex, one at a time.
//
// Every pending segment is requested once per id. A result is merged into
// "the segment with this id, if it still exists"; results for ids removed
// by later edits are dropped. A rejected request retracts the edit that
// created the segment, as long as no other edit happened since.
type Session struct {
	id     string
	router repository.RoutingRepository
	opts   Options
	logger *zap.Logger

	mu      sync.Mutex
	route   *Route
	history *History
	direct  bool
	notice  string
	// editSeq grows with every applied edit, undo, redo and load
	editSeq uint64
	// inflight maps segment id to the editSeq of the edit that created it,
	// zero when the request is not eligible for rollback
	inflight   map[string]uint64
	lastActive time.Time
	closed     bool

	wg     sync.WaitGroup
	ctx    context.Context
	cancel context.CancelFunc
}

func NewSession(router repository.RoutingRepository, opts Options, logger *zap.Logger) *Session {
	ctx, cancel := context.WithCancel(context.Background())
	return &Session{
		id:         uuid.NewString(),
		router:     router,
		opts:       opts,
		logger:     logger,
		route:      NewRoute(),
		history:    NewHistory(opts.HistoryLimit),
		direct:     opts.DirectMode,
		inflight:   make(map[string]uint64),
		lastActive: time.Now(),
		ctx:        ctx,
		cancel:     cancel,
	}
}

func (s *Session) ID() string {
	return s.id
}

// LastActive returns the time of the last call that touched the session.
func (s *Session) LastActive() time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastActive
}

// edit snapshots the route, applies fn and records the snapshot only if fn
// changed something.
func (s *Session) edit(op string, fn func(r *Route) ([]string, bool)) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.lastActive = time.Now()

	snapshot := s.route.Clone()
	created, ok := fn(s.route)
	if !ok {
		metrics.EditorOperations.WithLabelValues(op, "noop").Inc()
		return false
	}

	s.history.Push(snapshot)
	s.editSeq++
	s.notice = ""
	metrics.EditorOperations.WithLabelValues(op, "applied").Inc()

	s.dispatch(created, s.editSeq)
	return true
}

func (s *Session) Append(lng, lat float64) bool {
	return s.edit("append", func(r *Route) ([]string, bool) {
		return r.Append(lng, lat), true
	})
}

func (s *Session) Remove(section, point int) bool {
	return s.edit("remove", func(r *Route) ([]string, bool) {
		return r.Remove(section, point)
	})
}

func (s *Session) Move(section, point int, lng, lat float64) bool {
	return s.edit("move", func(r *Route) ([]string, bool) {
		return r.Move(section, point, lng, lat)
	})
}

func (s *Session) InsertMidSegment(c domain.Candidate, lng, lat float64) bool {
	return s.edit("insert", func(r *Route) ([]string, bool) {
		return r.InsertMidSegment(c, lng, lat)
	})
}

// Insert ranks candidates and inserts the point only when exactly one
// candidate remains. The ranking is returned either way.
func (s *Session) Insert(candidates []domain.Candidate, lng, lat float64) ([]domain.RankedCandidate, bool) {
	var ranked []domain.RankedCandidate
	inserted := s.edit("insert", func(r *Route) ([]string, bool) {
		ranked = r.RankCandidates(candidates, lng, lat)
		if len(ranked) != 1 {
			return nil, false
		}
		return r.InsertMidSegment(ranked[0].Candidate, lng, lat)
	})
	return ranked, inserted
}

// Candidates ranks insertion candidates without editing.
func (s *Session) Candidates(candidates []domain.Candidate, lng, lat float64) []domain.RankedCandidate {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.route.RankCandidates(candidates, lng, lat)
}

func (s *Session) Split(section, point int) bool {
	return s.edit("split", func(r *Route) ([]string, bool) {
		return nil, r.Split(section, point)
	})
}

func (s *Session) Merge(section int) bool {
	return s.edit("merge", func(r *Route) ([]string, bool) {
		return nil, r.Merge(section)
	})
}

func (s *Session) DeleteSection(section int) bool {
	return s.edit("delete_section", func(r *Route) ([]string, bool) {
		return r.DeleteSection(section)
	})
}

func (s *Session) RenameSection(section int, name string) bool {
	return s.edit("rename_section", func(r *Route) ([]string, bool) {
		return nil, r.RenameSection(section, name)
	})
}

func (s *Session) RenamePoint(section, point int, label string) bool {
	return s.edit("rename_point", func(r *Route) ([]string, bool) {
		return nil, r.RenamePoint(section, point, label)
	})
}

func (s *Session) Clear() bool {
	return s.edit("clear", func(r *Route) ([]string, bool) {
		return nil, r.Clear()
	})
}

func (s *Session) Undo() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.lastActive = time.Now()

	prev, ok := s.history.Undo(s.route)
	if !ok {
		return false
	}
	s.replace(prev)
	metrics.EditorOperations.WithLabelValues("undo", "applied").Inc()
	return true
}

func (s *Session) Redo() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.lastActive = time.Now()

	next, ok := s.history.Redo(s.route)
	if !ok {
		return false
	}
	s.replace(next)
	metrics.EditorOperations.WithLabelValues("redo", "applied").Inc()
	return true
}

// Load replaces the route with a persisted state and resets history.
func (s *Session) Load(state domain.EditorState) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.lastActive = time.Now()

	s.history.Reset()
	s.replace(LoadRoute(state))
}

// replace swaps the live route and requests pending segments that have no
// request in flight. Callers hold s.mu.
func (s *Session) replace(r *Route) {
	s.route = r
	s.editSeq++
	s.notice = ""
	s.dispatch(r.PendingSegments(), 0)
}

// SetDirectMode toggles straight-line resolution. Turning it on settles
// every idle pending segment immediately.
func (s *Session) SetDirectMode(on bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.lastActive = time.Now()

	s.direct = on
	if on {
		s.dispatch(s.route.PendingSegments(), 0)
	}
}

// dispatch requests every given segment in parallel. Callers hold s.mu.
func (s *Session) dispatch(ids []string, origin uint64) {
	for _, id := range ids {
		if _, busy := s.inflight[id]; busy {
			continue
		}
		if s.direct {
			s.route.ResolveStraight(id)
			metrics.Reconciliations.WithLabelValues("straight").Inc()
			continue
		}

		a, b, ok := s.route.Endpoints(id)
		if !ok {
			continue
		}
		req := domain.RouteRequest{
			Origin:      domain.Coordinate{Lat: a.Lat, Lon: a.Lng},
			Destination: domain.Coordinate{Lat: b.Lat, Lon: b.Lng},
			Profile:     s.opts.Profile,
		}

		s.inflight[id] = origin
		s.wg.Add(1)
		go s.request(id, req)
	}
}

func (s *Session) request(id string, req domain.RouteRequest) {
	defer s.wg.Done()

	ctx := s.ctx
	if s.opts.RequestTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.opts.RequestTimeout)
		defer cancel()
	}

	res, err := s.router.Route(ctx, req)

	s.mu.Lock()
	defer s.mu.Unlock()

	origin := s.inflight[id]
	delete(s.inflight, id)
	if s.closed {
		return
	}

	s.complete(id, origin, res, err)
}

// complete merges one routing outcome by segment id. Callers hold s.mu.
func (s *Session) complete(id string, origin uint64, res *domain.RouteResult, err error) {
	if err == nil {
		if !s.route.Resolve(id, res) {
			metrics.Reconciliations.WithLabelValues("stale").Inc()
			s.logger.Debug("Discarding result for removed segment", zap.String("session", s.id), zap.String("segment", id))
			return
		}
		metrics.Reconciliations.WithLabelValues("resolved").Inc()
		return
	}

	var rejected *domain.RouteRejectedError
	if errors.As(err, &rejected) {
		s.notice = rejected.Reason
		if origin != 0 && origin == s.editSeq && s.route.HasSegment(id) {
			if prev, ok := s.history.Discard(); ok {
				s.logger.Info("Routing rejected, retracting edit",
					zap.String("session", s.id),
					zap.String("segment", id),
					zap.String("reason", rejected.Reason))
				metrics.Reconciliations.WithLabelValues("rolled_back").Inc()
				s.route = prev
				s.editSeq++
				s.dispatch(prev.PendingSegments(), 0)
				return
			}
		}
	}

	if s.route.Fail(id, err.Error()) {
		s.logger.Warn("Routing failed", zap.String("session", s.id), zap.String("segment", id), zap.Error(err))
		metrics.Reconciliations.WithLabelValues("error").Inc()
		return
	}
	metrics.Reconciliations.WithLabelValues("stale").Inc()
}

// View returns a deep copy of the current state.
func (s *Session) View() View {
	s.mu.Lock()
	defer s.mu.Unlock()

	return View{
		ID:         s.id,
		Sections:   s.route.Sections(),
		Stats:      s.route.Stats(),
		Loading:    len(s.inflight) > 0,
		CanUndo:    s.history.CanUndo(),
		CanRedo:    s.history.CanRedo(),
		DirectMode: s.direct,
		Notice:     s.notice,
	}
}

// State returns the serializable route.
func (s *Session) State() domain.EditorState {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.route.State()
}

// Profile returns elevation samples along the route.
func (s *Session) Profile() []domain.ProfilePoint {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.route.Profile()
}

// Loading reports whether any routing request is outstanding.
func (s *Session) Loading() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.inflight) > 0
}

// Wait blocks until no routing request is outstanding.
func (s *Session) Wait() {
	s.wg.Wait()
}

// Close cancels outstanding requests; their results are ignored.
func (s *Session) Close() {
	s.mu.Lock()
	s.closed = true
	s.mu.Unlock()
	s.cancel()
}
