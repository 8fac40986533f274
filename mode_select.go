package vcedit

import (
	"slices"

	"go.uber.org/zap"
	"golang.org/x/net/html"
)

// selectMode highlights elements under the pointer and builds the
// selection from clicks.
type selectMode struct {
	ids []listenerID
}

func (m *selectMode) mode() Mode { return ModeSelect }

func (m *selectMode) enter(s *Session) {
	m.ids = []listenerID{
		s.surface.on(EventMouseOver, isElement, func(ev *Event) {
			ev.StopPropagation()
			if s.selectable(ev.Target) {
				addClass(ev.Target, classHover)
			}
		}),
		s.surface.on(EventMouseOut, isElement, func(ev *Event) {
			ev.StopPropagation()
			removeClass(ev.Target, classHover)
		}),
		s.surface.on(EventClick, isElement, func(ev *Event) {
			ev.StopPropagation()
			m.click(s, ev.Target, ev.Modifier)
		}),
	}
}

func (m *selectMode) exit(s *Session) {
	s.surface.off(m.ids...)
	m.ids = nil
	s.surface.clearClass(classHover)
}

// click replaces the selection, or toggles target in it when the modifier
// is held. Excluded elements are ignored.
func (m *selectMode) click(s *Session, target *html.Node, modifier bool) {
	if !s.selectable(target) {
		return
	}
	removeClass(target, classHover)
	path, err := ComputePath(target)
	if err != nil {
		s.log.Debug("selection ignored", zap.Error(err))
		return
	}

	if !modifier {
		s.setSelectionLocked([]ElementPath{path})
		return
	}
	if i := slices.Index(s.selected, path); i >= 0 {
		s.setSelectionLocked(slices.Delete(slices.Clone(s.selected), i, i+1))
		return
	}
	s.setSelectionLocked(append(slices.Clone(s.selected), path))
}

func (s *Session) selectable(n *html.Node) bool {
	return n != nil && n.Type == html.ElementNode && !isExcluded(n) && !s.surface.isHelper(n)
}
