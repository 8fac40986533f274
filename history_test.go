package vcedit

import (
	"errors"
	"fmt"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestHistoryPushIsIdempotent(t *testing.T) {
	h := NewHistory("a")
	if h.Push("a", nil) {
		t.Errorf("pushing the current snapshot added an entry")
	}
	if !h.Push("b", nil) {
		t.Errorf("pushing a new snapshot was ignored")
	}
	if h.Push("b", nil) {
		t.Errorf("pushing the same snapshot twice added an entry")
	}
	want := HistoryState{Length: 2, Cursor: 1, CanUndo: true, CanRedo: false}
	if diff := cmp.Diff(want, h.State()); diff != "" {
		t.Errorf("State mismatch (-want +got):\n%s", diff)
	}
}

func TestHistoryTruncatesAfterCursor(t *testing.T) {
	h := NewHistory("a")
	h.Push("b", nil)
	h.Push("c", nil)

	if got, err := h.Back(); err != nil || got != "b" {
		t.Fatalf("Back = %q, %v", got, err)
	}
	if !h.State().CanRedo {
		t.Errorf("expected redo to be available")
	}
	h.Push("d", nil)
	if diff := cmp.Diff([]string{"a", "b", "d"}, h.Snapshots()); diff != "" {
		t.Errorf("Snapshots mismatch (-want +got):\n%s", diff)
	}
	if h.State().CanRedo {
		t.Errorf("redo survived a new commit")
	}
}

func TestHistoryBoundaries(t *testing.T) {
	h := NewHistory("a")
	if _, err := h.Back(); !errors.Is(err, ErrHistoryBoundary) {
		t.Errorf("Back at start: expected ErrHistoryBoundary, got %v", err)
	}
	if _, err := h.Forward(); !errors.Is(err, ErrHistoryBoundary) {
		t.Errorf("Forward at end: expected ErrHistoryBoundary, got %v", err)
	}
	h.Push("b", nil)
	h.Back()
	if got, err := h.Forward(); err != nil || got != "b" {
		t.Errorf("Forward = %q, %v", got, err)
	}
}

func TestHistoryCap(t *testing.T) {
	h := NewHistory("s0")
	for i := 1; i <= 60; i++ {
		h.Push(fmt.Sprintf("s%d", i), []Change{{Kind: ChangeText, Path: "body"}})
	}
	st := h.State()
	if st.Length != MaxHistory || st.Cursor != MaxHistory-1 {
		t.Fatalf("State = %+v, want length %d", st, MaxHistory)
	}
	snaps := h.Snapshots()
	if snaps[0] != "s11" || snaps[len(snaps)-1] != "s60" {
		t.Errorf("kept %s..%s, want s11..s60", snaps[0], snaps[len(snaps)-1])
	}
	if h.Changes(0) != nil {
		t.Errorf("oldest entry still carries a change summary")
	}
	if len(h.Changes(1)) != 1 {
		t.Errorf("Changes(1) = %v", h.Changes(1))
	}
}

func TestHistoryReset(t *testing.T) {
	h := NewHistory("a")
	h.Push("b", nil)
	h.Reset("orig")
	if diff := cmp.Diff([]string{"orig"}, h.Snapshots()); diff != "" {
		t.Errorf("Snapshots mismatch (-want +got):\n%s", diff)
	}
	if h.Current() != "orig" || h.State().Cursor != 0 {
		t.Errorf("Current = %q, cursor %d", h.Current(), h.State().Cursor)
	}
}
