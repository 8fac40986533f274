package vcedit

import (
	"fmt"
	"slices"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

// Editor-only presentation markers. None of them may reach a snapshot or a
// download.
const (
	classHover          = "editor-hover"
	classSelected       = "editor-selected"
	classTextHover      = "editable-text-hover"
	classDraggable      = "editor-draggable"
	classControlled     = "element-controlled"
	classPreview        = "element-preview-highlight"
	attrContentEditable = "contenteditable"
	attrEditing         = "data-editor-editing"
	// Holds the element's own contenteditable value while it is being
	// edited; serialization puts it back.
	attrPrevEditable = "data-editor-contenteditable"

	// Nodes the editor injects carry attrHelper; documents may use any id.
	attrHelper   = "data-vcedit-helper"
	helperStyles = "styles"
	helperRoot   = "picker-root"
)

var markerClasses = []string{
	classHover, classSelected, classTextHover,
	classDraggable, classControlled, classPreview,
}

const editorStyles = `
.editor-selected { outline: 3px solid #c3b3ff !important; outline-offset: 2px; position: relative; }
.editor-hover { outline: 2px dashed #ffcce4 !important; cursor: pointer !important; }
.editor-draggable { cursor: move !important; }
.editor-draggable:hover { outline: 2px dashed #ffd4a3 !important; }
.editable-text-hover { outline: 2px dashed #ffcce4 !important; cursor: text !important; background-color: rgba(255, 204, 228, 0.1) !important; }
[contenteditable="true"] { outline: 2px solid #a2a8d3 !important; background-color: #0088ff38 !important; }
.element-controlled { outline: 3px solid #ff6b6b !important; outline-offset: 3px; cursor: crosshair !important; z-index: 9998 !important; }
.element-preview-highlight { outline: 4px solid #ff6b6b !important; outline-offset: 3px; }
`

// EventType identifies a surface gesture.
type EventType int

const (
	EventClick EventType = iota
	EventMouseOver
	EventMouseOut
	EventBlur
)

func (t EventType) String() string {
	switch t {
	case EventClick:
		return "click"
	case EventMouseOver:
		return "mouseover"
	case EventMouseOut:
		return "mouseout"
	case EventBlur:
		return "blur"
	default:
		return "unknown"
	}
}

// Event travels from its target up to the document root, like a bubbling
// DOM event. Current is the node whose listener is running.
type Event struct {
	Type     EventType
	Target   *html.Node
	Current  *html.Node
	X, Y     float64
	Modifier bool

	stopped bool
}

// StopPropagation keeps the event from reaching ancestors.
func (e *Event) StopPropagation() { e.stopped = true }

type listenerID int

type listener struct {
	id    listenerID
	typ   EventType
	match func(*html.Node) bool
	fn    func(*Event)
}

// Surface is the rendering surface: the live document tree plus the
// observers currently installed on it.
type Surface struct {
	doc       *html.Node
	listeners []*listener
	nextID    listenerID
}

func newSurface() *Surface {
	return &Surface{}
}

// load parses content into a fresh tree and performs the editor setup.
// Observers of the previous tree are dropped.
func (s *Surface) load(content string) error {
	doc, err := ParseHTML(content)
	if err != nil {
		return fmt.Errorf("parse document: %w", err)
	}
	s.doc = doc
	s.listeners = nil
	s.setup()
	return nil
}

// setup injects the editor style sheet and the helper root that hosts the
// pick list.
func (s *Surface) setup() {
	if s.helper(helperStyles) == nil {
		if head := findElement(s.doc, atom.Head); head != nil {
			style := &html.Node{Type: html.ElementNode, DataAtom: atom.Style, Data: "style",
				Attr: []html.Attribute{{Key: attrHelper, Val: helperStyles}}}
			style.AppendChild(&html.Node{Type: html.TextNode, Data: editorStyles})
			head.AppendChild(style)
		}
	}
	if s.helper(helperRoot) == nil {
		if body := s.body(); body != nil {
			body.AppendChild(&html.Node{Type: html.ElementNode, DataAtom: atom.Div, Data: "div",
				Attr: []html.Attribute{{Key: attrHelper, Val: helperRoot}}})
		}
	}
}

func (s *Surface) loaded() bool { return s.doc != nil }

func (s *Surface) body() *html.Node {
	if s.doc == nil {
		return nil
	}
	return findElement(s.doc, atom.Body)
}

// helper returns the injected node of the given kind.
func (s *Surface) helper(kind string) *html.Node {
	if s.doc == nil {
		return nil
	}
	var found *html.Node
	walk(s.doc, func(c *html.Node) bool {
		if found != nil {
			return false
		}
		if c.Type == html.ElementNode && getAttr(c, attrHelper) == kind {
			found = c
			return false
		}
		return true
	})
	return found
}

// isHelper reports whether n belongs to the editor's own helper root.
func (s *Surface) isHelper(n *html.Node) bool {
	root := s.helper(helperRoot)
	return root != nil && isInside(n, root)
}

func (s *Surface) resolve(p ElementPath) (*html.Node, error) {
	if s.doc == nil {
		return nil, fmt.Errorf("%w: %s", ErrPathNotFound, p)
	}
	return ResolvePath(s.doc, p)
}

// on installs an observer. match decides, per node on the propagation path,
// whether fn runs there.
func (s *Surface) on(typ EventType, match func(*html.Node) bool, fn func(*Event)) listenerID {
	s.nextID++
	s.listeners = append(s.listeners, &listener{id: s.nextID, typ: typ, match: match, fn: fn})
	return s.nextID
}

// off removes observers. Unknown ids are ignored, so it is safe to call
// twice.
func (s *Surface) off(ids ...listenerID) {
	s.listeners = slices.DeleteFunc(s.listeners, func(l *listener) bool {
		return slices.Contains(ids, l.id)
	})
}

// dispatch delivers ev along the ancestor chain of its target. Text targets
// are redirected to their element. It reports whether any observer ran.
func (s *Surface) dispatch(ev *Event) bool {
	ev.Target = NearestElement(ev.Target)
	if ev.Target == nil {
		return false
	}
	handled := false
	for n := ev.Target; n != nil && !ev.stopped; n = n.Parent {
		if n.Type != html.ElementNode {
			continue
		}
		// Listeners may install or remove observers; iterate over a copy.
		for _, l := range slices.Clone(s.listeners) {
			if l.typ != ev.Type || !l.match(n) {
				continue
			}
			ev.Current = n
			l.fn(ev)
			handled = true
			if ev.stopped {
				break
			}
		}
	}
	return handled
}

// mark puts class on exactly the resolvable nodes among paths.
func (s *Surface) mark(class string, paths ...ElementPath) {
	s.clearClass(class)
	for _, p := range paths {
		if n, err := s.resolve(p); err == nil {
			addClass(n, class)
		}
	}
}

func (s *Surface) clearClass(class string) {
	if s.doc == nil {
		return
	}
	walk(s.doc, func(n *html.Node) bool {
		if n.Type == html.ElementNode {
			removeClass(n, class)
		}
		return true
	})
}

// serialize renders the document without any editor artefacts. The live
// tree is left untouched.
func (s *Surface) serialize() (string, error) {
	if s.doc == nil {
		return "", ErrNotReady
	}
	clean := cloneTree(s.doc)
	stripEditorArtifacts(clean)
	return RenderNode(clean)
}

func stripEditorArtifacts(doc *html.Node) {
	walk(doc, func(n *html.Node) bool {
		if n.Type != html.ElementNode {
			return true
		}
		if hasAttr(n, attrHelper) {
			n.Parent.RemoveChild(n)
			return false
		}
		for _, c := range markerClasses {
			removeClass(n, c)
		}
		if hasAttr(n, attrEditing) {
			removeAttr(n, attrEditing)
			if hasAttr(n, attrPrevEditable) {
				setAttr(n, attrContentEditable, getAttr(n, attrPrevEditable))
				removeAttr(n, attrPrevEditable)
			} else {
				removeAttr(n, attrContentEditable)
			}
		}
		return true
	})
}
