package vcedit

import (
	"fmt"
	"strings"
)

// ElementPath is a structural locator for one element of the live document.
// Example: "body > div#main > p:nth-of-type(2)"
//
// A path is only meaningful against the document it was computed from. Any
// structural change may make it resolve to another element or to nothing,
// so it is re-resolved every time it is used.
type ElementPath string

// Mode selects the behaviour set installed on the surface.
type Mode string

const (
	ModeContentEdit Mode = "content-edit" // Click text to edit it in place
	ModeSelect      Mode = "select"       // Click to select, modifier-click to toggle
	ModeReposition  Mode = "reposition"   // Grab an element, click to move it
)

// ParseMode accepts the canonical names plus the short ones used by the
// mode toggle ("text", "drag").
func ParseMode(s string) (Mode, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "content-edit", "text", "edit":
		return ModeContentEdit, nil
	case "select":
		return ModeSelect, nil
	case "reposition", "drag", "move":
		return ModeReposition, nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownMode, s)
}

// Depth is the target of a stacking-order change.
type Depth string

const (
	DepthFront Depth = "front"
	DepthBack  Depth = "back"
)

// Rect is an element's border box in surface coordinates.
type Rect struct {
	X      float64 `json:"x"`
	Y      float64 `json:"y"`
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}

// Contains reports whether the point lies inside the rectangle.
func (r Rect) Contains(x, y float64) bool {
	return x >= r.X && x < r.X+r.Width && y >= r.Y && y < r.Y+r.Height
}

// Candidate is one entry of the reposition pick list.
type Candidate struct {
	Path  ElementPath `json:"path"`
	Label string      `json:"label"` // tag#id.class1.class2
}

// Document holds the loaded source and the current restored serialization.
type Document struct {
	Original string `json:"original"`
	Current  string `json:"current"`
}

// HistoryState is what the UI needs to enable or disable history controls.
type HistoryState struct {
	Length  int  `json:"length"`
	Cursor  int  `json:"cursor"`
	CanUndo bool `json:"can_undo"`
	CanRedo bool `json:"can_redo"`
}

// State is a read-only copy of the session, handed to the UI layer.
type State struct {
	Name           string        `json:"name"`
	LoadID         string        `json:"load_id"`
	Mode           Mode          `json:"mode"`
	Ready          bool          `json:"ready"`
	SelectedPaths  []ElementPath `json:"selected_paths"`
	SelectionCount int           `json:"selection_count"`
	ControlledPath ElementPath   `json:"controlled_path,omitempty"`
	Editing        ElementPath   `json:"editing,omitempty"`
	Picker         []Candidate   `json:"picker,omitempty"`
	History        HistoryState  `json:"history"`
}

// ClickEvent is a click gesture coming from the rendering surface.
// Target may be empty for purely positional clicks (reposition mode).
type ClickEvent struct {
	Target   ElementPath `json:"target"`
	X        float64     `json:"x"`
	Y        float64     `json:"y"`
	Modifier bool        `json:"modifier"` // Ctrl or Meta held
}
