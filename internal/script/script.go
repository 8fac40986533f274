// Package script replays a list of editor gestures and commands against a
// session, for batch edits without a UI.
package script

import (
	"errors"
	"fmt"
	"io"

	"go.uber.org/zap"
	"gopkg.in/yaml.v3"

	"github.com/dannyswat/vcedit"
)

// Actions a step may name.
const (
	ActionMode      = "mode"
	ActionClick     = "click"
	ActionHover     = "hover"
	ActionHoverEnd  = "hover-end"
	ActionBlur      = "blur"
	ActionText      = "text"
	ActionStyle     = "style"
	ActionDelete    = "delete"
	ActionDuplicate = "duplicate"
	ActionDepth     = "depth"
	ActionRelease   = "release"
	ActionPick      = "pick"
	ActionUndo      = "undo"
	ActionRedo      = "redo"
	ActionReset     = "reset"
	ActionCommit    = "commit"
)

// Script is a parsed edit script.
//
//	steps:
//	  - action: mode
//	    mode: select
//	  - action: click
//	    target: "body > div#hero"
//	  - action: style
//	    property: background-color
//	    value: "#fff"
type Script struct {
	Steps []Step `yaml:"steps"`
}

// Step is one gesture or command. Fields that do not apply to the action
// are ignored. Commands that take paths use the current selection when
// Paths is empty.
type Step struct {
	Action   string               `yaml:"action"`
	Mode     string               `yaml:"mode,omitempty"`
	Target   vcedit.ElementPath   `yaml:"target,omitempty"`
	Paths    []vcedit.ElementPath `yaml:"paths,omitempty"`
	X        float64              `yaml:"x,omitempty"`
	Y        float64              `yaml:"y,omitempty"`
	Modifier bool                 `yaml:"modifier,omitempty"`
	Text     string               `yaml:"text,omitempty"`
	Property string               `yaml:"property,omitempty"`
	Value    string               `yaml:"value,omitempty"`
	Depth    vcedit.Depth         `yaml:"depth,omitempty"`
}

// Parse decodes a script. Unknown keys are rejected so that typos do not
// silently turn into no-ops.
func Parse(r io.Reader) (*Script, error) {
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	var s Script
	if err := dec.Decode(&s); err != nil {
		if errors.Is(err, io.EOF) {
			return &s, nil
		}
		return nil, fmt.Errorf("parse script: %w", err)
	}
	return &s, nil
}

// Runner applies scripts to a session.
type Runner struct {
	Session *vcedit.Session
	Log     *zap.Logger
}

// Run applies every step in order and lands any pending style edit at the
// end. Steps that hit a stale path, a history boundary or a surface that is
// not ready are skipped, as the editor skips such gestures; anything else
// stops the run.
func (r *Runner) Run(s *Script) error {
	log := r.Log
	if log == nil {
		log = zap.NewNop()
	}
	for i, step := range s.Steps {
		err := r.apply(step)
		if err == nil {
			continue
		}
		if vcedit.Ignorable(err) {
			log.Debug("script step skipped", zap.Int("step", i+1), zap.String("action", step.Action), zap.Error(err))
			continue
		}
		return fmt.Errorf("step %d (%s): %w", i+1, step.Action, err)
	}
	return r.Session.Flush()
}

func (r *Runner) apply(step Step) error {
	s := r.Session
	switch step.Action {
	case ActionMode:
		m, err := vcedit.ParseMode(step.Mode)
		if err != nil {
			return err
		}
		return s.SetMode(m)
	case ActionClick:
		return s.Click(vcedit.ClickEvent{Target: step.Target, X: step.X, Y: step.Y, Modifier: step.Modifier})
	case ActionHover:
		return s.Hover(step.Target)
	case ActionHoverEnd:
		return s.HoverEnd(step.Target)
	case ActionBlur:
		return s.Blur()
	case ActionText:
		return s.EditText(step.Text)
	case ActionStyle:
		_, err := s.UpdateStyle(r.paths(step), step.Property, step.Value)
		return err
	case ActionDelete:
		return s.DeleteElements(r.paths(step))
	case ActionDuplicate:
		return s.DuplicateElement(r.paths(step)...)
	case ActionDepth:
		return s.ReorderDepth(r.paths(step), step.Depth)
	case ActionRelease:
		return s.Release()
	case ActionPick:
		return s.PickCandidate(step.Target)
	case ActionUndo:
		return s.Undo()
	case ActionRedo:
		return s.Redo()
	case ActionReset:
		return s.ResetToOriginal(true)
	case ActionCommit:
		return s.Commit()
	}
	return fmt.Errorf("unknown action %q", step.Action)
}

func (r *Runner) paths(step Step) []vcedit.ElementPath {
	if len(step.Paths) > 0 {
		return step.Paths
	}
	return r.Session.State().SelectedPaths
}
