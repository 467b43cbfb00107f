package board

// DefaultHistorySize caps the undo/redo history
const DefaultHistorySize = 50

// History is a bounded undo/redo stack of canvas snapshots.
type History struct {
	states []Snapshot
	step   int
	max    int
}

func NewHistory(max int) *History {
	if max <= 0 {
		max = DefaultHistorySize
	}
	return &History{step: -1, max: max}
}

// Push records a new state, discarding any redo tail. When the cap is
// exceeded the oldest state is evicted and the index shifts back by one.
func (h *History) Push(s Snapshot) {
	h.states = append(h.states[:h.step+1], s)
	h.step++

	if len(h.states) > h.max {
		h.states = h.states[1:]
		h.step--
	}
}

// Undo steps back one state. At the first state it reports false.
func (h *History) Undo() (Snapshot, bool) {
	if h.step <= 0 {
		return Snapshot{}, false
	}
	h.step--
	return h.states[h.step], true
}

// Redo steps forward one state. At the newest state it reports false.
func (h *History) Redo() (Snapshot, bool) {
	if h.step >= len(h.states)-1 {
		return Snapshot{}, false
	}
	h.step++
	return h.states[h.step], true
}

func (h *History) CanUndo() bool {
	return h.step > 0
}

func (h *History) CanRedo() bool {
	return h.step < len(h.states)-1
}

// Len is the number of retained states
func (h *History) Len() int {
	return len(h.states)
}

// Step is the index of the current state, -1 when empty
func (h *History) Step() int {
	return h.step
}
