package vcedit

import (
	"go.uber.org/zap"
	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

// modeState is one state of the interaction state machine. enter installs
// the state's observers on the surface; exit removes them and must be safe
// to call when nothing is installed.
type modeState interface {
	mode() Mode
	enter(s *Session)
	exit(s *Session)
}

// modeController owns the current mode and which state, if any, has its
// observers installed. Installation only happens on a ready surface;
// otherwise one installation stays pending until the surface reports load
// completion, and a later request replaces it.
type modeController struct {
	current   Mode
	installed modeState
	pending   bool
	states    map[Mode]modeState
}

func newModeController() *modeController {
	return &modeController{
		current: ModeContentEdit,
		states: map[Mode]modeState{
			ModeContentEdit: &contentEditMode{},
			ModeSelect:      &selectMode{},
			ModeReposition:  &repositionMode{},
		},
	}
}

// switchTo exits the installed state before entering the next one.
func (c *modeController) switchTo(s *Session, m Mode) {
	c.uninstall(s)
	c.current = m
	c.install(s)
}

// install (re)enters the current state when the surface is ready and
// records a pending installation when it is not.
func (c *modeController) install(s *Session) {
	c.uninstall(s)
	if !s.ready {
		c.pending = true
		s.log.Debug("mode installation deferred", zap.String("mode", string(c.current)))
		return
	}
	c.pending = false
	st := c.states[c.current]
	st.enter(s)
	c.installed = st
	s.log.Debug("mode installed", zap.String("mode", string(st.mode())))
}

func (c *modeController) uninstall(s *Session) {
	if c.installed == nil {
		return
	}
	c.installed.exit(s)
	c.installed = nil
}

func (c *modeController) contentEdit() *contentEditMode {
	return c.states[ModeContentEdit].(*contentEditMode)
}

// Tag classes the modes work on.
var (
	excludedTags = map[atom.Atom]bool{
		atom.Html: true, atom.Head: true, atom.Body: true, atom.Script: true,
		atom.Style: true, atom.Meta: true, atom.Link: true, atom.Title: true,
	}
	textTags = map[atom.Atom]bool{
		atom.P: true, atom.H1: true, atom.H2: true, atom.H3: true, atom.H4: true,
		atom.H5: true, atom.H6: true, atom.Span: true, atom.A: true, atom.Li: true,
		atom.Th: true, atom.Td: true, atom.Blockquote: true, atom.Label: true,
		atom.Button: true, atom.Strong: true, atom.Em: true,
	}
	draggableTags = map[atom.Atom]bool{
		atom.Div: true, atom.P: true, atom.H1: true, atom.H2: true, atom.H3: true,
		atom.H4: true, atom.H5: true, atom.H6: true, atom.Section: true,
		atom.Article: true, atom.Header: true, atom.Footer: true, atom.Img: true,
		atom.Ul: true, atom.Table: true, atom.Figure: true,
	}
)

func isElement(n *html.Node) bool { return n.Type == html.ElementNode }

func isExcluded(n *html.Node) bool { return excludedTags[n.DataAtom] }

func isTextBearing(n *html.Node) bool { return textTags[n.DataAtom] }

func isDraggable(n *html.Node) bool { return draggableTags[n.DataAtom] }
