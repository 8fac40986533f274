package vcedit

import "errors"

var (
	// ErrInvalidTarget is returned when a non-element node is addressed.
	ErrInvalidTarget = errors.New("target is not an element")

	// ErrPathNotFound is returned when a path no longer resolves.
	ErrPathNotFound = errors.New("element path does not resolve")

	// ErrInvalidSelection is returned when an operation needs a different
	// number of selected elements.
	ErrInvalidSelection = errors.New("invalid selection")

	// ErrHistoryBoundary is returned by undo at the first entry and redo at
	// the last one.
	ErrHistoryBoundary = errors.New("history boundary")

	// ErrNotReady is returned while no document is loaded into the surface.
	ErrNotReady = errors.New("document not ready")

	// ErrNotConfirmed is returned by destructive actions called without
	// confirmation.
	ErrNotConfirmed = errors.New("action not confirmed")

	ErrUnknownMode = errors.New("unknown mode")
)
