package vcedit

import (
	"fmt"

	"go.uber.org/zap"
	"golang.org/x/net/html"
)

// editState is the single element being edited in place. It is held by
// path; the node is resolved again whenever it is needed.
type editState struct {
	path     ElementPath
	original string

	// The element's own contenteditable attribute, put back on blur.
	hadEditable  bool
	prevEditable string
}

// contentEditMode makes text-bearing elements editable on click. At most
// one element is in the editing sub-state; activating another one first
// finishes (and possibly commits) the current edit.
type contentEditMode struct {
	ids     []listenerID
	editing *editState
}

func (m *contentEditMode) mode() Mode { return ModeContentEdit }

func (m *contentEditMode) enter(s *Session) {
	editable := func(n *html.Node) bool { return isTextBearing(n) && !s.surface.isHelper(n) }
	m.ids = []listenerID{
		s.surface.on(EventClick, editable, func(ev *Event) {
			ev.StopPropagation()
			m.activate(s, ev.Current)
		}),
		s.surface.on(EventMouseOver, editable, func(ev *Event) {
			ev.StopPropagation()
			if insideEditing(ev.Target) {
				return
			}
			addClass(ev.Current, classTextHover)
		}),
		s.surface.on(EventMouseOut, editable, func(ev *Event) {
			ev.StopPropagation()
			removeClass(ev.Current, classTextHover)
		}),
		s.surface.on(EventBlur, func(n *html.Node) bool { return hasAttr(n, attrEditing) }, func(ev *Event) {
			ev.StopPropagation()
			m.finish(s)
		}),
	}
}

func (m *contentEditMode) exit(s *Session) {
	m.finish(s)
	s.surface.off(m.ids...)
	m.ids = nil
	s.surface.clearClass(classTextHover)
}

func (m *contentEditMode) activate(s *Session, n *html.Node) {
	path, err := ComputePath(n)
	if err != nil {
		s.log.Debug("edit activation ignored", zap.Error(err))
		return
	}
	if m.editing != nil {
		// Clicks inside the element being edited only move the caret.
		if m.editing.path == path || insideEditing(n) {
			return
		}
		m.finish(s)
	}

	original, err := InnerHTML(n)
	if err != nil {
		s.log.Debug("edit activation ignored", zap.Error(err))
		return
	}
	st := &editState{path: path, original: original}
	for _, a := range n.Attr {
		if a.Key == attrContentEditable {
			st.hadEditable, st.prevEditable = true, a.Val
		}
	}
	if st.hadEditable {
		setAttr(n, attrPrevEditable, st.prevEditable)
	}
	setAttr(n, attrContentEditable, "true")
	setAttr(n, attrEditing, "")
	m.editing = st
	s.log.Debug("editing started", zap.String("path", string(path)))
}

// finish ends the editing sub-state. Changed content is committed; an
// element that vanished meanwhile just ends the edit.
func (m *contentEditMode) finish(s *Session) {
	st := m.editing
	if st == nil {
		return
	}
	m.editing = nil

	n, err := s.surface.resolve(st.path)
	if err != nil {
		s.log.Debug("edited element no longer resolves", zap.String("path", string(st.path)))
		return
	}
	removeAttr(n, attrEditing)
	removeAttr(n, attrPrevEditable)
	if st.hadEditable {
		setAttr(n, attrContentEditable, st.prevEditable)
	} else {
		removeAttr(n, attrContentEditable)
	}
	removeClass(n, classTextHover)

	current, err := InnerHTML(n)
	if err != nil || current == st.original {
		s.log.Debug("editing finished without changes", zap.String("path", string(st.path)))
		return
	}
	if err := s.commitLocked(); err != nil {
		s.log.Debug("edit commit skipped", zap.Error(err))
	}
}

func (m *contentEditMode) editText(s *Session, content string) error {
	if m.editing == nil {
		return fmt.Errorf("%w: no element is being edited", ErrInvalidSelection)
	}
	n, err := s.surface.resolve(m.editing.path)
	if err != nil {
		m.editing = nil
		return err
	}
	return setInnerHTML(n, content)
}

func insideEditing(n *html.Node) bool {
	for ; n != nil; n = n.Parent {
		if n.Type == html.ElementNode && hasAttr(n, attrEditing) {
			return true
		}
	}
	return false
}
