package vcedit

import (
	"strconv"
	"strings"

	"go.uber.org/zap"
	"golang.org/x/net/html"
)

// repositionMode grabs one element and moves it to where the user clicks
// next. Several elements under the first click open the pick list instead.
type repositionMode struct {
	ids []listenerID
}

func (m *repositionMode) mode() Mode { return ModeReposition }

func (m *repositionMode) enter(s *Session) {
	if body := s.surface.body(); body != nil {
		for _, el := range elements(body) {
			if isDraggable(el) && !s.surface.isHelper(el) {
				addClass(el, classDraggable)
			}
		}
	}
	m.ids = []listenerID{
		s.surface.on(EventClick, isElement, func(ev *Event) {
			ev.StopPropagation()
			m.click(s, ev)
		}),
	}
}

func (m *repositionMode) exit(s *Session) {
	s.surface.off(m.ids...)
	m.ids = nil
	s.surface.clearClass(classDraggable)
	s.closePickerLocked()
}

func (m *repositionMode) click(s *Session, ev *Event) {
	if s.surface.isHelper(ev.Target) {
		return
	}
	if s.controlled != "" {
		if err := s.moveControlledLocked(ev.X, ev.Y); err != nil {
			s.log.Debug("move aborted", zap.String("path", string(s.controlled)), zap.Error(err))
			return
		}
		if err := s.commitLocked(); err != nil {
			s.log.Debug("move commit skipped", zap.Error(err))
		}
		return
	}

	// A click anywhere dismisses an open pick list before hit testing again.
	s.closePickerLocked()

	nodes, err := s.layout.ElementsAt(s.surface.doc, ev.X, ev.Y)
	if err != nil {
		s.log.Debug("hit test failed", zap.Error(err))
		return
	}
	var cands []Candidate
	for _, n := range nodes {
		if isExcluded(n) || s.surface.isHelper(n) {
			continue
		}
		p, err := ComputePath(n)
		if err != nil {
			continue
		}
		cands = append(cands, Candidate{Path: p, Label: candidateLabel(n)})
	}

	switch len(cands) {
	case 0:
	case 1:
		s.setControlledLocked(cands[0].Path)
	default:
		s.openPickerLocked(cands)
	}
}

// moveControlledLocked centres the controlled element on (x, y) with
// absolute positioning.
func (s *Session) moveControlledLocked(x, y float64) error {
	n, err := s.surface.resolve(s.controlled)
	if err != nil {
		return err
	}
	box, err := s.layout.BoundingBox(n)
	if err != nil {
		return err
	}
	position, err := s.layout.ComputedStyle(n, "position")
	if err != nil {
		return err
	}
	if position == "" || position == "static" {
		setStyle(n, "position", "relative")
	}
	setStyle(n, "position", "absolute")
	setStyle(n, "left", formatPixels(x-box.Width/2))
	setStyle(n, "top", formatPixels(y-box.Height/2))
	return nil
}

func formatPixels(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64) + "px"
}

// candidateLabel renders tag#id.class1.class2, leaving out editor markers.
func candidateLabel(n *html.Node) string {
	var b strings.Builder
	b.WriteString(strings.ToLower(n.Data))
	if id := getAttr(n, "id"); id != "" {
		b.WriteString("#" + id)
	}
	for _, c := range classes(n) {
		if isMarkerClass(c) {
			continue
		}
		b.WriteString("." + c)
	}
	return b.String()
}

func isMarkerClass(c string) bool {
	for _, m := range markerClasses {
		if c == m {
			return true
		}
	}
	return false
}
