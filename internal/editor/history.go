package editor

// History keeps linear undo/redo stacks of deep route snapshots.
type History struct {
	past   []*Route
	future []*Route
	// limit caps len(past); zero means unbounded
	limit int
}

func NewHistory(limit int) *History {
	return &History{limit: max(limit, 0)}
}

// Snapshot pushes a deep copy of the route onto past and clears future.
func (h *History) Snapshot(r *Route) {
	h.Push(r.Clone())
}

// Push records an already cloned snapshot. The caller must not keep using it.
func (h *History) Push(snapshot *Route) {
	h.past = append(h.past, snapshot)
	if h.limit > 0 && len(h.past) > h.limit {
		h.past = h.past[len(h.past)-h.limit:]
	}
	h.future = nil
}

// Undo returns the most recent snapshot and moves current to the front of future.
func (h *History) Undo(current *Route) (*Route, bool) {
	if len(h.past) == 0 {
		return nil, false
	}

	prev := h.past[len(h.past)-1]
	h.past = h.past[:len(h.past)-1]
	h.future = append([]*Route{current}, h.future...)
	return prev, true
}

// Redo is the mirror of Undo.
func (h *History) Redo(current *Route) (*Route, bool) {
	if len(h.future) == 0 {
		return nil, false
	}

	next := h.future[0]
	h.future = h.future[1:]
	h.past = append(h.past, current)
	return next, true
}

// Discard pops the most recent snapshot without recording the current route
// anywhere. Used to retract an edit that turned out to be unroutable.
func (h *History) Discard() (*Route, bool) {
	if len(h.past) == 0 {
		return nil, false
	}

	prev := h.past[len(h.past)-1]
	h.past = h.past[:len(h.past)-1]
	return prev, true
}

// Reset forgets all snapshots.
func (h *History) Reset() {
	h.past = nil
	h.future = nil
}

func (h *History) CanUndo() bool { return len(h.past) > 0 }

func (h *History) CanRedo() bool { return len(h.future) > 0 }

// Len returns the number of undo steps available.
func (h *History) Len() int { return len(h.past) }
