package vcedit

import (
	"fmt"
	"slices"

	"go.uber.org/zap"
	"golang.org/x/net/html"
)

// Mutation operations address elements by path only and resolve every path
// at call time. Elements whose path no longer resolves are skipped.

// resolveAll resolves paths against the live document before anything is
// mutated, so removing one element cannot shift the meaning of the others.
func (s *Session) resolveAll(paths []ElementPath) []*html.Node {
	var out []*html.Node
	for _, p := range paths {
		n, err := s.surface.resolve(p)
		if err != nil {
			s.log.Debug("path skipped", zap.String("path", string(p)), zap.Error(err))
			continue
		}
		if !slices.Contains(out, n) {
			out = append(out, n)
		}
	}
	return out
}

// UpdateStyle sets a CSS property on every element of paths and schedules
// a debounced commit; a burst of calls produces one history entry. It
// returns the number of elements changed.
func (s *Session) UpdateStyle(paths []ElementPath, property, value string) (int, error) {
	var applied int
	err := s.update(func() error {
		if !s.ready {
			return ErrNotReady
		}
		s.modes.contentEdit().finish(s)
		for _, n := range s.resolveAll(paths) {
			setStyle(n, property, value)
			applied++
		}
		if applied > 0 {
			s.scheduleCommitLocked()
		}
		return nil
	})
	return applied, err
}

// UpdateSelectedStyle applies UpdateStyle to the current selection.
func (s *Session) UpdateSelectedStyle(property, value string) (int, error) {
	return s.UpdateStyle(s.State().SelectedPaths, property, value)
}

// DeleteElements removes every element of paths, clears the selection and
// commits.
func (s *Session) DeleteElements(paths []ElementPath) error {
	return s.update(func() error {
		if !s.ready {
			return ErrNotReady
		}
		if len(paths) == 0 {
			return fmt.Errorf("%w: nothing to delete", ErrInvalidSelection)
		}
		s.settleLocked()
		nodes := s.resolveAll(paths)
		for _, n := range nodes {
			if n.Parent != nil {
				n.Parent.RemoveChild(n)
			}
		}
		s.clearSelectionLocked()
		if s.controlled != "" {
			if _, err := s.surface.resolve(s.controlled); err != nil {
				s.releaseLocked()
			}
		}
		s.log.Debug("elements deleted", zap.Int("requested", len(paths)), zap.Int("removed", len(nodes)))
		return s.commitLocked()
	})
}

// DeleteSelected deletes the selection after the user confirmed it.
func (s *Session) DeleteSelected(confirmed bool) error {
	if !confirmed {
		return ErrNotConfirmed
	}
	return s.DeleteElements(s.State().SelectedPaths)
}

// DuplicateElement inserts a deep copy of the element right after it.
// Exactly one path is required.
func (s *Session) DuplicateElement(paths ...ElementPath) error {
	return s.update(func() error {
		if !s.ready {
			return ErrNotReady
		}
		if len(paths) != 1 {
			return fmt.Errorf("%w: select exactly one element to duplicate (have %d)", ErrInvalidSelection, len(paths))
		}
		s.settleLocked()
		n, err := s.surface.resolve(paths[0])
		if err != nil {
			s.log.Debug("duplicate aborted", zap.Error(err))
			return err
		}
		if n.Parent == nil {
			return fmt.Errorf("%w: %s has no parent", ErrInvalidTarget, paths[0])
		}
		clone := cloneTree(n)
		removeClass(clone, classSelected)
		insertAfter(n, clone)
		return s.commitLocked()
	})
}

// DuplicateSelected duplicates the single selected element.
func (s *Session) DuplicateSelected() error {
	return s.DuplicateElement(s.State().SelectedPaths...)
}

// ReorderDepth brings elements in front of everything else in the body or
// sends them to stacking order 0.
func (s *Session) ReorderDepth(paths []ElementPath, depth Depth) error {
	return s.update(func() error {
		if !s.ready {
			return ErrNotReady
		}
		if len(paths) == 0 {
			return fmt.Errorf("%w: nothing to reorder", ErrInvalidSelection)
		}
		if depth != DepthFront && depth != DepthBack {
			return fmt.Errorf("unknown depth %q", depth)
		}
		s.settleLocked()
		nodes := s.resolveAll(paths)
		if len(nodes) == 0 {
			return ErrPathNotFound
		}

		z := 0
		if depth == DepthFront {
			z = s.maxZIndexLocked() + 1
		}
		for _, n := range nodes {
			setStyle(n, "z-index", fmt.Sprint(z))
		}
		return s.commitLocked()
	})
}

// BringToFront raises the selection above every other element.
func (s *Session) BringToFront() error {
	return s.ReorderDepth(s.State().SelectedPaths, DepthFront)
}

// SendToBack drops the selection to stacking order 0.
func (s *Session) SendToBack() error {
	return s.ReorderDepth(s.State().SelectedPaths, DepthBack)
}

func (s *Session) maxZIndexLocked() int {
	body := s.surface.body()
	if body == nil {
		return 0
	}
	maxZ := 0
	for _, el := range elements(body) {
		if el == body || s.surface.isHelper(el) {
			continue
		}
		v, err := s.layout.ComputedStyle(el, "z-index")
		if err != nil {
			continue
		}
		maxZ = max(maxZ, zIndex(v))
	}
	return maxZ
}

// InspectStyle returns the property-panel values of one element.
func (s *Session) InspectStyle(p ElementPath) (map[string]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.ready {
		return nil, ErrNotReady
	}
	n, err := s.surface.resolve(p)
	if err != nil {
		return nil, err
	}
	out := make(map[string]string, len(InspectedProperties))
	for _, prop := range InspectedProperties {
		v, err := s.layout.ComputedStyle(n, prop)
		if err != nil {
			return nil, fmt.Errorf("inspect %s: %w", prop, err)
		}
		out[prop] = v
	}
	return out, nil
}
