package vcedit

import (
	"errors"
	"fmt"
	"slices"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Session is one editing session: the loaded document, the live surface,
// the interaction mode, selection and history. Construct one per loaded
// editor and pass it to whatever drives it; there is no package-level
// instance.
//
// Every exported method runs to completion under the session lock, which
// gives the single-threaded, one-handler-at-a-time model the editor relies
// on. The debounced commit takes the same lock when it fires.
type Session struct {
	mu sync.Mutex

	log       *zap.Logger
	layout    Layout
	sanitizer Sanitizer
	commits   debouncer

	name   string
	loadID string
	doc    Document
	loaded bool

	surface   *Surface
	ready     bool
	restoring bool
	// Serialization of the surface right after it was loaded from
	// loadedFrom; lets a commit recognise an untouched document even when
	// the source text was not in canonical form.
	baseline   string
	loadedFrom string

	selected   []ElementPath
	controlled ElementPath
	picker     []Candidate

	modes   *modeController
	history *History

	subscribers []subscriber
	nextSubID   int
}

type subscriber struct {
	id int
	fn func(State)
}

// Option configures a Session.
type Option func(*Session)

// WithLogger sets the diagnostics logger. The default discards everything.
func WithLogger(l *zap.Logger) Option {
	return func(s *Session) {
		if l != nil {
			s.log = l
		}
	}
}

// WithLayout sets the geometry provider used by reposition mode.
func WithLayout(l Layout) Option {
	return func(s *Session) {
		if l != nil {
			s.layout = l
		}
	}
}

// WithDebounce sets how long style edits wait before they are committed.
func WithDebounce(d time.Duration) Option {
	return func(s *Session) {
		if d >= 0 {
			s.commits.delay = d
		}
	}
}

// WithClock replaces the timer source for deferred commits.
func WithClock(c Clock) Option {
	return func(s *Session) {
		if c != nil {
			s.commits.clock = c
		}
	}
}

// WithSanitizer cleans every loaded document before it is used.
func WithSanitizer(p Sanitizer) Option {
	return func(s *Session) { s.sanitizer = p }
}

// NewSession creates an empty session in content-edit mode.
func NewSession(opts ...Option) *Session {
	s := &Session{
		log:     zap.NewNop(),
		layout:  StyleLayout{},
		commits: debouncer{clock: realClock{}, delay: DefaultDebounce},
		surface: newSurface(),
		modes:   newModeController(),
		history: &History{},
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// update runs fn under the lock, then hands the resulting state to
// subscribers outside of it.
func (s *Session) update(fn func() error) error {
	s.mu.Lock()
	err := fn()
	st := s.stateLocked()
	subs := slices.Clone(s.subscribers)
	s.mu.Unlock()

	for _, sub := range subs {
		sub.fn(st)
	}
	return err
}

// Subscribe registers fn to receive the state after every operation.
// The returned function removes the subscription.
func (s *Session) Subscribe(fn func(State)) func() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.nextSubID++
	id := s.nextSubID
	s.subscribers = append(s.subscribers, subscriber{id: id, fn: fn})
	return func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		s.subscribers = slices.DeleteFunc(s.subscribers, func(sub subscriber) bool { return sub.id == id })
	}
}

// State returns a copy of the session state for rendering.
func (s *Session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.stateLocked()
}

func (s *Session) stateLocked() State {
	st := State{
		Name:           s.name,
		LoadID:         s.loadID,
		Mode:           s.modes.current,
		Ready:          s.ready,
		SelectedPaths:  append([]ElementPath{}, s.selected...),
		SelectionCount: len(s.selected),
		ControlledPath: s.controlled,
		Picker:         slices.Clone(s.picker),
		History:        s.history.State(),
	}
	if e := s.modes.contentEdit().editing; e != nil {
		st.Editing = e.path
	}
	return st
}

// Picker returns the open pick list, or nil when no picker is shown.
func (s *Session) Picker() []Candidate {
	s.mu.Lock()
	defer s.mu.Unlock()
	return slices.Clone(s.picker)
}

// Document returns the loaded source and the last restored serialization.
func (s *Session) Document() Document {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.doc
}

// Export serializes the live document without editor markers, for saving.
func (s *Session) Export() (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.ready {
		if !s.loaded {
			return "", ErrNotReady
		}
		return s.doc.Current, nil
	}
	return s.surface.serialize()
}

// Snapshots returns a copy of the history entries.
func (s *Session) Snapshots() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.history.Snapshots()
}

// HistoryChanges summarises what history entry i changed relative to the
// entry before it.
func (s *Session) HistoryChanges(i int) []Change {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.history.Changes(i)
}

// Load replaces the document. History restarts from content, selection and
// controlled element are cleared, and the session stays not-ready until
// SurfaceLoaded is called.
func (s *Session) Load(name, content string) {
	_ = s.update(func() error {
		if s.sanitizer != nil {
			content = s.sanitizer.Sanitize(content)
		}
		s.commits.cancel()
		s.ready = false
		s.modes.install(s) // Not ready: drops observers and defers installation.

		s.name = name
		s.loadID = uuid.NewString()
		s.doc = Document{Original: content, Current: content}
		s.loaded = true
		s.history.Reset(content)
		s.selected = nil
		s.controlled = ""
		s.picker = nil

		s.log.Info("document loaded",
			zap.String("name", name),
			zap.String("load_id", s.loadID),
			zap.Int("bytes", len(content)))
		return nil
	})
}

// SurfaceLoaded is the load-completion signal of the rendering surface.
// The current document is parsed and set up, the session becomes ready and
// the deferred observer installation runs.
func (s *Session) SurfaceLoaded() error {
	return s.update(func() error {
		if !s.loaded {
			return fmt.Errorf("%w: no document loaded", ErrNotReady)
		}
		if err := s.loadSurfaceLocked(s.doc.Current); err != nil {
			return err
		}
		s.ready = true
		s.modes.install(s)
		s.applyMarkersLocked()
		return nil
	})
}

// Open loads content and immediately reports the surface as loaded.
func (s *Session) Open(name, content string) error {
	s.Load(name, content)
	return s.SurfaceLoaded()
}

func (s *Session) loadSurfaceLocked(content string) error {
	if err := s.surface.load(content); err != nil {
		return err
	}
	baseline, err := s.surface.serialize()
	if err != nil {
		return err
	}
	s.baseline = baseline
	s.loadedFrom = content
	return nil
}

// Mode returns the current interaction mode.
func (s *Session) Mode() Mode {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.modes.current
}

// SetMode switches the interaction mode. The controlled element and the
// selection are released and any open pick list is closed, then the old
// mode's observers are removed before the new ones are installed.
// Selecting the current mode again reinstalls it.
func (s *Session) SetMode(m Mode) error {
	return s.update(func() error {
		if _, ok := s.modes.states[m]; !ok {
			return fmt.Errorf("%w: %q", ErrUnknownMode, m)
		}
		s.closePickerLocked()
		s.releaseLocked()
		s.clearSelectionLocked()
		s.modes.switchTo(s, m)
		s.log.Debug("mode changed", zap.String("mode", string(m)))
		return nil
	})
}

// Commit records the live document as a new history entry.
func (s *Session) Commit() error {
	return s.update(s.commitLocked)
}

// Flush commits a pending debounced style edit right away.
func (s *Session) Flush() error {
	return s.update(func() error {
		s.flushLocked()
		return nil
	})
}

func (s *Session) commitLocked() error {
	if !s.ready {
		s.log.Debug("commit blocked: surface not ready")
		return ErrNotReady
	}
	if s.restoring {
		s.log.Debug("commit blocked: restoring history")
		return nil
	}
	snapshot, err := s.surface.serialize()
	if err != nil {
		return fmt.Errorf("serialize document: %w", err)
	}
	prev := s.history.Current()
	if snapshot == prev || (prev == s.loadedFrom && snapshot == s.baseline) {
		s.log.Debug("commit skipped: document unchanged")
		return nil
	}

	changes, err := Changes(prev, snapshot)
	if err != nil {
		s.log.Debug("change summary failed", zap.Error(err))
	}
	s.history.Push(snapshot, changes)
	s.log.Debug("snapshot committed",
		zap.Int("cursor", s.history.cursor),
		zap.Int("length", len(s.history.snapshots)),
		zap.Int("changes", len(changes)))
	return nil
}

// scheduleCommitLocked replaces any pending deferred commit with a new one.
func (s *Session) scheduleCommitLocked() {
	var gen uint64
	gen = s.commits.schedule(func() {
		_ = s.update(func() error {
			if !s.commits.fire(gen) {
				return nil
			}
			return s.commitLocked()
		})
	})
}

// flushLocked commits now if a deferred commit was still pending.
func (s *Session) flushLocked() {
	if s.commits.cancel() {
		_ = s.commitLocked()
	}
}

// settleLocked completes work a new command would implicitly finish in a
// browser: the focused text edit loses focus and pending style edits land.
func (s *Session) settleLocked() {
	s.modes.contentEdit().finish(s)
	s.flushLocked()
}

// Undo steps back one history entry.
func (s *Session) Undo() error {
	return s.update(func() error {
		if !s.ready {
			return ErrNotReady
		}
		s.settleLocked()
		content, err := s.history.Back()
		if err != nil {
			s.log.Debug("undo ignored", zap.Error(err))
			return err
		}
		s.clearSelectionLocked()
		return s.restoreLocked(content)
	})
}

// Redo steps forward one history entry.
func (s *Session) Redo() error {
	return s.update(func() error {
		if !s.ready {
			return ErrNotReady
		}
		s.settleLocked()
		content, err := s.history.Forward()
		if err != nil {
			s.log.Debug("redo ignored", zap.Error(err))
			return err
		}
		s.clearSelectionLocked()
		return s.restoreLocked(content)
	})
}

// ResetToOriginal discards every edit and the whole history. The caller
// must have asked the user first.
func (s *Session) ResetToOriginal(confirmed bool) error {
	return s.update(func() error {
		if !confirmed {
			return ErrNotConfirmed
		}
		if !s.ready {
			return ErrNotReady
		}
		s.commits.cancel()
		s.history.Reset(s.doc.Original)
		s.clearSelectionLocked()
		s.log.Info("document reset to original", zap.String("name", s.name))
		return s.restoreLocked(s.doc.Original)
	})
}

// restoreLocked makes content the live document. The restoring flag covers
// exactly this call, so nothing it triggers is committed back into history.
func (s *Session) restoreLocked(content string) error {
	s.restoring = true
	defer func() { s.restoring = false }()

	s.closePickerLocked()
	s.modes.uninstall(s)
	s.doc.Current = content
	if err := s.loadSurfaceLocked(content); err != nil {
		return fmt.Errorf("restore document: %w", err)
	}
	s.modes.install(s)
	s.applyMarkersLocked()
	return nil
}

// Click delivers a click on target (or on the body when target is empty).
// A target that no longer resolves aborts the gesture.
func (s *Session) Click(ev ClickEvent) error {
	return s.update(func() error {
		if !s.ready {
			return ErrNotReady
		}
		target := s.surface.body()
		if ev.Target != "" {
			n, err := s.surface.resolve(ev.Target)
			if err != nil {
				s.log.Debug("click aborted", zap.String("target", string(ev.Target)), zap.Error(err))
				return err
			}
			target = n
		}
		if target == nil {
			return ErrNotReady
		}

		// Clicking outside the element being edited takes focus from it.
		edit := s.modes.contentEdit()
		if edit.editing != nil {
			if en, err := s.surface.resolve(edit.editing.path); err != nil || !isInside(target, en) {
				edit.finish(s)
			}
		}

		s.surface.dispatch(&Event{Type: EventClick, Target: target, X: ev.X, Y: ev.Y, Modifier: ev.Modifier})
		return nil
	})
}

// Hover delivers a pointer-enter on target.
func (s *Session) Hover(target ElementPath) error {
	return s.pointer(EventMouseOver, target)
}

// HoverEnd delivers a pointer-leave on target.
func (s *Session) HoverEnd(target ElementPath) error {
	return s.pointer(EventMouseOut, target)
}

func (s *Session) pointer(typ EventType, target ElementPath) error {
	return s.update(func() error {
		if !s.ready {
			return ErrNotReady
		}
		n, err := s.surface.resolve(target)
		if err != nil {
			s.log.Debug("pointer event aborted", zap.Stringer("type", typ), zap.Error(err))
			return err
		}
		s.surface.dispatch(&Event{Type: typ, Target: n})
		return nil
	})
}

// Blur takes focus from the element being edited, committing its text if
// it changed.
func (s *Session) Blur() error {
	return s.update(func() error {
		if !s.ready {
			return ErrNotReady
		}
		edit := s.modes.contentEdit()
		if edit.editing == nil {
			return nil
		}
		n, err := s.surface.resolve(edit.editing.path)
		if err != nil {
			s.log.Debug("blur target vanished", zap.String("path", string(edit.editing.path)))
			edit.editing = nil
			return err
		}
		s.surface.dispatch(&Event{Type: EventBlur, Target: n})
		return nil
	})
}

// EditText replaces the content of the element being edited, as typing in
// it would. Nothing is committed until it loses focus.
func (s *Session) EditText(content string) error {
	return s.update(func() error {
		if !s.ready {
			return ErrNotReady
		}
		return s.modes.contentEdit().editText(s, content)
	})
}

// Release lets go of the controlled element without moving it.
func (s *Session) Release() error {
	return s.update(func() error {
		s.releaseLocked()
		return nil
	})
}

// PickCandidate makes a pick-list entry the controlled element.
func (s *Session) PickCandidate(p ElementPath) error {
	return s.update(func() error {
		if !s.ready {
			return ErrNotReady
		}
		if !slices.ContainsFunc(s.picker, func(c Candidate) bool { return c.Path == p }) {
			return fmt.Errorf("%w: %s is not a pick candidate", ErrInvalidSelection, p)
		}
		if _, err := s.surface.resolve(p); err != nil {
			s.log.Debug("pick aborted", zap.Error(err))
			s.closePickerLocked()
			return err
		}
		s.closePickerLocked()
		s.setControlledLocked(p)
		return nil
	})
}

// PreviewCandidate highlights a pick-list entry while it is hovered.
func (s *Session) PreviewCandidate(p ElementPath) error {
	return s.update(func() error {
		if !s.ready {
			return ErrNotReady
		}
		n, err := s.surface.resolve(p)
		if err != nil {
			return err
		}
		addClass(n, classPreview)
		return nil
	})
}

// EndPreview removes every pick-list highlight.
func (s *Session) EndPreview() error {
	return s.update(func() error {
		s.surface.clearClass(classPreview)
		return nil
	})
}

// ClosePicker dismisses the pick list without choosing.
func (s *Session) ClosePicker() error {
	return s.update(func() error {
		s.closePickerLocked()
		return nil
	})
}

func (s *Session) closePickerLocked() {
	s.picker = nil
	s.surface.clearClass(classPreview)
}

func (s *Session) openPickerLocked(cands []Candidate) {
	s.picker = cands
}

func (s *Session) setControlledLocked(p ElementPath) {
	s.controlled = p
	s.surface.mark(classControlled, p)
	s.log.Debug("element grabbed", zap.String("path", string(p)))
}

func (s *Session) releaseLocked() {
	if s.controlled == "" {
		return
	}
	s.controlled = ""
	s.surface.clearClass(classControlled)
}

func (s *Session) setSelectionLocked(paths []ElementPath) {
	s.selected = paths
	s.surface.mark(classSelected, s.selected...)
}

func (s *Session) clearSelectionLocked() {
	s.setSelectionLocked(nil)
}

// applyMarkersLocked puts selection and grab markers on a freshly loaded
// tree.
func (s *Session) applyMarkersLocked() {
	s.surface.mark(classSelected, s.selected...)
	if s.controlled != "" {
		s.surface.mark(classControlled, s.controlled)
	} else {
		s.surface.clearClass(classControlled)
	}
}

// Ignorable reports errors that mean "nothing happened": a stale path, a
// surface that is not ready yet, or a history boundary. Callers drop them
// without telling the user.
func Ignorable(err error) bool {
	return errors.Is(err, ErrPathNotFound) || errors.Is(err, ErrNotReady) || errors.Is(err, ErrHistoryBoundary)
}
