package vcedit

import (
	"errors"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
)

const editDoc = `<body><p id="t">hello</p><div><span>x</span></div><div id="box">no text</div></body>`

func TestContentEditCommitsOnBlur(t *testing.T) {
	s, _ := openSession(t, editDoc)
	if err := s.Click(ClickEvent{Target: "body > p#t"}); err != nil {
		t.Fatalf("Click failed: %v", err)
	}
	if got := s.State().Editing; got != "body > p#t" {
		t.Fatalf("Editing = %q", got)
	}
	n, _ := s.surface.resolve("body > p#t")
	if getAttr(n, attrContentEditable) != "true" {
		t.Errorf("element is not editable")
	}

	if err := s.EditText("bye"); err != nil {
		t.Fatalf("EditText failed: %v", err)
	}
	if s.State().History.Length != 1 {
		t.Errorf("typing committed before blur")
	}
	if err := s.Blur(); err != nil {
		t.Fatalf("Blur failed: %v", err)
	}

	st := s.State()
	if st.Editing != "" || st.History.Length != 2 {
		t.Errorf("State = %+v", st)
	}
	out := mustExport(t, s)
	if !strings.Contains(out, `<p id="t">bye</p>`) {
		t.Errorf("unexpected document: %s", out)
	}
}

func TestContentEditWithoutChangeDoesNotCommit(t *testing.T) {
	s, _ := openSession(t, editDoc)
	s.Click(ClickEvent{Target: "body > p#t"})
	s.Blur()
	if got := s.State().History.Length; got != 1 {
		t.Errorf("unchanged edit committed: length %d", got)
	}
	n, _ := s.surface.resolve("body > p#t")
	if hasAttr(n, attrContentEditable) || hasAttr(n, attrEditing) {
		t.Errorf("editing attributes left behind: %v", n.Attr)
	}
}

func TestContentEditIgnoresNonTextElements(t *testing.T) {
	s, _ := openSession(t, editDoc)
	s.Click(ClickEvent{Target: "body > div#box"})
	if got := s.State().Editing; got != "" {
		t.Errorf("div became editable: %q", got)
	}
	if err := s.EditText("x"); !errors.Is(err, ErrInvalidSelection) {
		t.Errorf("EditText without an edit: expected ErrInvalidSelection, got %v", err)
	}
}

func TestContentEditSwitchCommitsFirst(t *testing.T) {
	s, _ := openSession(t, editDoc)
	s.Click(ClickEvent{Target: "body > p#t"})
	s.EditText("changed")

	s.Click(ClickEvent{Target: "body > div > span"})
	st := s.State()
	if st.Editing != "body > div > span" {
		t.Errorf("Editing = %q", st.Editing)
	}
	if st.History.Length != 2 {
		t.Errorf("first edit not committed before switching: %+v", st.History)
	}
	if out := mustExport(t, s); !strings.Contains(out, `<p id="t">changed</p>`) {
		t.Errorf("unexpected document: %s", out)
	}
}

func TestContentEditClickInsideKeepsEditing(t *testing.T) {
	s, _ := openSession(t, `<body><p id="t">a <strong>b</strong></p></body>`)
	s.Click(ClickEvent{Target: "body > p#t"})
	s.Click(ClickEvent{Target: "body > p#t > strong"})
	if got := s.State().Editing; got != "body > p#t" {
		t.Errorf("Editing = %q, want the paragraph", got)
	}
}

func TestContentEditKeepsOwnContentEditable(t *testing.T) {
	s, _ := openSession(t, `<body><p id="t" contenteditable="false">a</p></body>`)
	s.Click(ClickEvent{Target: "body > p#t"})
	s.EditText("b")
	s.Blur()
	out := mustExport(t, s)
	if !strings.Contains(out, `<p id="t" contenteditable="false">b</p>`) {
		t.Errorf("unexpected document: %s", out)
	}
}

func TestExportDuringEditKeepsOwnContentEditable(t *testing.T) {
	s, _ := openSession(t, `<body><p id="t" contenteditable="false">a</p><p id="u">b</p></body>`)
	s.Click(ClickEvent{Target: "body > p#t"})
	s.Click(ClickEvent{Target: "body > p#u"})
	out := mustExport(t, s)
	if !strings.Contains(out, `<p id="t" contenteditable="false">a</p>`) || !strings.Contains(out, `<p id="u">b</p>`) {
		t.Errorf("unexpected document: %s", out)
	}

	s.Blur()
	s.Click(ClickEvent{Target: "body > p#t"})
	out = mustExport(t, s)
	if !strings.Contains(out, `<p id="t" contenteditable="false">a</p>`) {
		t.Errorf("unexpected document mid-edit: %s", out)
	}
	if strings.Contains(out, attrPrevEditable) {
		t.Errorf("editor attribute leaked: %s", out)
	}
}

func TestModeSwitchFinishesEdit(t *testing.T) {
	s, _ := openSession(t, editDoc)
	s.Click(ClickEvent{Target: "body > p#t"})
	s.EditText("z")
	if err := s.SetMode(ModeSelect); err != nil {
		t.Fatalf("SetMode failed: %v", err)
	}
	st := s.State()
	if st.Editing != "" || st.History.Length != 2 {
		t.Errorf("State = %+v", st)
	}

	// Content-edit observers are gone.
	s.Click(ClickEvent{Target: "body > p#t"})
	if s.State().Editing != "" {
		t.Errorf("content edit still active in select mode")
	}
}

func TestContentEditHover(t *testing.T) {
	s, _ := openSession(t, editDoc)
	s.Hover("body > p#t")
	n, _ := s.surface.resolve("body > p#t")
	if !hasClass(n, classTextHover) {
		t.Errorf("text hover marker missing")
	}
	s.SetMode(ModeSelect)
	if hasClass(n, classTextHover) {
		t.Errorf("text hover marker survived the mode switch")
	}
}

const boxDoc = `<body>` +
	`<div id="a" style="left: 0px; top: 0px; width: 100px; height: 100px;">A</div>` +
	`<div id="b" style="left: 50px; top: 50px; width: 100px; height: 100px;">B</div>` +
	`</body>`

func TestRepositionGrabAndMove(t *testing.T) {
	s, _ := openSession(t, boxDoc)
	if err := s.SetMode(ModeReposition); err != nil {
		t.Fatalf("SetMode failed: %v", err)
	}
	a, _ := s.surface.resolve("body > div#a")
	if !hasClass(a, classDraggable) {
		t.Errorf("draggable marker missing")
	}

	s.Click(ClickEvent{X: 10, Y: 10})
	if got := s.State().ControlledPath; got != "body > div#a" {
		t.Fatalf("ControlledPath = %q", got)
	}

	s.Click(ClickEvent{X: 300, Y: 300})
	if s.State().History.Length != 2 {
		t.Fatalf("move not committed")
	}
	out := mustExport(t, s)
	want := `<div id="a" style="left: 250px; top: 250px; width: 100px; height: 100px; position: absolute;">A</div>`
	if !strings.Contains(out, want) {
		t.Errorf("unexpected document: %s", out)
	}
	if strings.Contains(out, classControlled) || strings.Contains(out, classDraggable) {
		t.Errorf("reposition markers leaked: %s", out)
	}

	// Still controlled: the next click moves it again.
	s.Click(ClickEvent{X: 60, Y: 60})
	if got := s.State().History.Length; got != 3 {
		t.Errorf("second move not committed: %d", got)
	}

	s.Release()
	if s.State().ControlledPath != "" {
		t.Errorf("Release kept the element")
	}
}

func TestRepositionPicker(t *testing.T) {
	s, _ := openSession(t, boxDoc)
	s.SetMode(ModeReposition)

	s.Click(ClickEvent{X: 75, Y: 75})
	st := s.State()
	want := []Candidate{
		{Path: "body > div#b", Label: "div#b"},
		{Path: "body > div#a", Label: "div#a"},
	}
	if diff := cmp.Diff(want, st.Picker); diff != "" {
		t.Fatalf("Picker mismatch (-want +got):\n%s", diff)
	}
	if st.ControlledPath != "" {
		t.Errorf("ambiguous click grabbed %q", st.ControlledPath)
	}
	if len(s.Picker()) != 2 {
		t.Errorf("Picker() = %v", s.Picker())
	}

	if err := s.PreviewCandidate("body > div#b"); err != nil {
		t.Fatalf("PreviewCandidate failed: %v", err)
	}
	b, _ := s.surface.resolve("body > div#b")
	if !hasClass(b, classPreview) {
		t.Errorf("preview marker missing")
	}

	if err := s.PickCandidate("body > p"); !errors.Is(err, ErrInvalidSelection) {
		t.Errorf("non-candidate: expected ErrInvalidSelection, got %v", err)
	}
	if err := s.PickCandidate("body > div#b"); err != nil {
		t.Fatalf("PickCandidate failed: %v", err)
	}
	st = s.State()
	if st.ControlledPath != "body > div#b" || st.Picker != nil {
		t.Errorf("State = %+v", st)
	}
	if hasClass(b, classPreview) {
		t.Errorf("preview marker survived the pick")
	}
}

func TestRepositionClickClosesPicker(t *testing.T) {
	s, _ := openSession(t, boxDoc)
	s.SetMode(ModeReposition)
	s.Click(ClickEvent{X: 75, Y: 75})
	s.Click(ClickEvent{X: 500, Y: 500})
	if st := s.State(); st.Picker != nil || st.ControlledPath != "" {
		t.Errorf("State = %+v", st)
	}
}

func TestRepositionReleasedOnModeChange(t *testing.T) {
	s, _ := openSession(t, boxDoc)
	s.SetMode(ModeReposition)
	s.Click(ClickEvent{X: 10, Y: 10})
	s.SetMode(ModeSelect)
	if st := s.State(); st.ControlledPath != "" {
		t.Errorf("controlled element survived the mode change")
	}
	a, _ := s.surface.resolve("body > div#a")
	if hasClass(a, classDraggable) || hasClass(a, classControlled) {
		t.Errorf("markers survived the mode change: %v", a.Attr)
	}
}

func TestReorderDepth(t *testing.T) {
	s, _ := openSession(t, `<body><div id="a" style="z-index: 3;">A</div><div id="b">B</div></body>`)

	if err := s.ReorderDepth(nil, DepthFront); !errors.Is(err, ErrInvalidSelection) {
		t.Errorf("expected ErrInvalidSelection, got %v", err)
	}
	if err := s.ReorderDepth([]ElementPath{"body > div#b"}, DepthFront); err != nil {
		t.Fatalf("ReorderDepth failed: %v", err)
	}
	if out := mustExport(t, s); !strings.Contains(out, `<div id="b" style="z-index: 4;">B</div>`) {
		t.Errorf("unexpected document: %s", out)
	}

	s.SetMode(ModeSelect)
	s.Click(ClickEvent{Target: "body > div#a"})
	if err := s.SendToBack(); err != nil {
		t.Fatalf("SendToBack failed: %v", err)
	}
	if out := mustExport(t, s); !strings.Contains(out, `<div id="a" style="z-index: 0;">A</div>`) {
		t.Errorf("unexpected document: %s", out)
	}
	if got := s.State().History.Length; got != 3 {
		t.Errorf("History length = %d, want 3", got)
	}
}

func TestInspectStyle(t *testing.T) {
	s, _ := openSession(t, `<body><div id="a" style="width: 100px; color: red;">A</div></body>`)
	got, err := s.InspectStyle("body > div#a")
	if err != nil {
		t.Fatalf("InspectStyle failed: %v", err)
	}
	if got["width"] != "100px" || got["color"] != "red" || got["z-index"] != "auto" {
		t.Errorf("InspectStyle = %v", got)
	}
	if len(got) != len(InspectedProperties) {
		t.Errorf("got %d properties, want %d", len(got), len(InspectedProperties))
	}
	if _, err := s.InspectStyle("body > div#gone"); !errors.Is(err, ErrPathNotFound) {
		t.Errorf("expected ErrPathNotFound, got %v", err)
	}
}
