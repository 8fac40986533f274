//go:build integration

package browserlayout

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/net/html"

	"github.com/dannyswat/vcedit"
)

const page = `<html><head></head><body style="margin: 0">` +
	`<div id="a" style="position: absolute; left: 0; top: 0; width: 100px; height: 100px;"></div>` +
	`<div id="b" style="position: absolute; left: 50px; top: 50px; width: 100px; height: 100px;"></div>` +
	`</body></html>`

func newLayout(t *testing.T) *Layout {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	t.Cleanup(cancel)
	l, err := New(ctx, Config{Headless: true, Width: 800, Height: 600}, nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = l.Close() })
	return l
}

func TestBrowserLayoutGeometry(t *testing.T) {
	l := newLayout(t)
	doc, err := vcedit.ParseHTML(page)
	require.NoError(t, err)
	a, err := vcedit.ResolvePath(doc, "body > div#a")
	require.NoError(t, err)
	b, err := vcedit.ResolvePath(doc, "body > div#b")
	require.NoError(t, err)

	hits, err := l.ElementsAt(doc, 75, 75)
	require.NoError(t, err)
	assert.Equal(t, []*html.Node{b, a}, hits)

	box, err := l.BoundingBox(a)
	require.NoError(t, err)
	assert.Equal(t, vcedit.Rect{X: 0, Y: 0, Width: 100, Height: 100}, box)

	pos, err := l.ComputedStyle(b, "position")
	require.NoError(t, err)
	assert.Equal(t, "absolute", pos)
}

func TestBrowserLayoutDrivesReposition(t *testing.T) {
	l := newLayout(t)
	s := vcedit.NewSession(vcedit.WithLayout(l))
	require.NoError(t, s.Open("page.html", page))
	require.NoError(t, s.SetMode(vcedit.ModeReposition))

	require.NoError(t, s.Click(vcedit.ClickEvent{X: 10, Y: 10}))
	assert.Equal(t, vcedit.ElementPath("body > div#a"), s.State().ControlledPath)

	require.NoError(t, s.Click(vcedit.ClickEvent{X: 300, Y: 300}))
	out, err := s.Export()
	require.NoError(t, err)
	assert.Contains(t, out, "left: 250px")
	assert.Contains(t, out, "top: 250px")
}
