package vcedit

// MaxHistory is the number of snapshots kept; the oldest is dropped first.
const MaxHistory = 50

// History is a linear list of full-document snapshots with a cursor.
// Invariant: 0 <= cursor < len(snapshots) whenever snapshots is non-empty.
type History struct {
	snapshots []string
	// changes[i] summarises snapshots[i-1] -> snapshots[i]; changes[0] is nil.
	changes [][]Change
	cursor  int
}

// NewHistory starts a history holding only initial.
func NewHistory(initial string) *History {
	h := &History{}
	h.Reset(initial)
	return h
}

// Reset drops every entry and starts over from initial.
func (h *History) Reset(initial string) {
	h.snapshots = []string{initial}
	h.changes = [][]Change{nil}
	h.cursor = 0
}

// Current returns the snapshot under the cursor.
func (h *History) Current() string {
	if len(h.snapshots) == 0 {
		return ""
	}
	return h.snapshots[h.cursor]
}

// Push records snapshot as the newest entry. A snapshot identical to the
// current one is ignored. Entries after the cursor are discarded first, and
// the oldest entry goes once the cap is exceeded. It reports whether an
// entry was added.
func (h *History) Push(snapshot string, changes []Change) bool {
	if len(h.snapshots) == 0 {
		h.Reset(snapshot)
		return true
	}
	if h.snapshots[h.cursor] == snapshot {
		return false
	}
	h.snapshots = append(h.snapshots[:h.cursor+1], snapshot)
	h.changes = append(h.changes[:h.cursor+1], changes)
	if len(h.snapshots) > MaxHistory {
		h.snapshots = h.snapshots[1:]
		h.changes = h.changes[1:]
		h.changes[0] = nil
	}
	h.cursor = len(h.snapshots) - 1
	return true
}

// Back moves the cursor one entry towards the start.
func (h *History) Back() (string, error) {
	if h.cursor == 0 {
		return "", ErrHistoryBoundary
	}
	h.cursor--
	return h.snapshots[h.cursor], nil
}

// Forward moves the cursor one entry towards the end.
func (h *History) Forward() (string, error) {
	if h.cursor >= len(h.snapshots)-1 {
		return "", ErrHistoryBoundary
	}
	h.cursor++
	return h.snapshots[h.cursor], nil
}

// Snapshots returns a copy of every entry.
func (h *History) Snapshots() []string {
	return append([]string(nil), h.snapshots...)
}

// Changes returns the change summary that produced entry i.
func (h *History) Changes(i int) []Change {
	if i < 0 || i >= len(h.changes) {
		return nil
	}
	return h.changes[i]
}

func (h *History) State() HistoryState {
	return HistoryState{
		Length:  len(h.snapshots),
		Cursor:  h.cursor,
		CanUndo: h.cursor > 0,
		CanRedo: h.cursor < len(h.snapshots)-1,
	}
}
