package vcedit

import (
	"sort"
	"strconv"
	"strings"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

// Layout answers geometric questions about the live document. The tree
// itself carries no geometry; a browser (see internal/browserlayout) or the
// inline-style approximation below supplies it.
type Layout interface {
	// ElementsAt returns the elements under the point, front-to-back.
	ElementsAt(doc *html.Node, x, y float64) ([]*html.Node, error)

	// BoundingBox returns the border box of n.
	BoundingBox(n *html.Node) (Rect, error)

	// ComputedStyle returns the effective value of a CSS property on n.
	ComputedStyle(n *html.Node, property string) (string, error)
}

// StyleLayout derives geometry from inline styles only: an element occupies
// left/top/width/height (px) when all of width and height are set, and is
// invisible to hit testing otherwise. Stacking follows z-index, then
// document order (later paints on top). It keeps the editor usable without
// a browser and makes reposition behaviour deterministic in tests.
type StyleLayout struct{}

var styleDefaults = map[string]string{
	"position": "static",
	"z-index":  "auto",
	"display":  "inline",
}

func (StyleLayout) ElementsAt(doc *html.Node, x, y float64) ([]*html.Node, error) {
	body := findElement(documentRoot(doc), atom.Body)
	if body == nil {
		return nil, nil
	}

	type hit struct {
		n     *html.Node
		z     int
		order int
	}
	var hits []hit
	for i, el := range elements(body) {
		if el == body {
			continue
		}
		box, ok := styleBox(el)
		if !ok || !box.Contains(x, y) {
			continue
		}
		hits = append(hits, hit{n: el, z: zIndex(styleValue(el, "z-index")), order: i})
	}
	sort.SliceStable(hits, func(i, j int) bool {
		if hits[i].z != hits[j].z {
			return hits[i].z > hits[j].z
		}
		return hits[i].order > hits[j].order
	})

	out := make([]*html.Node, len(hits))
	for i, h := range hits {
		out[i] = h.n
	}
	return out, nil
}

func (StyleLayout) BoundingBox(n *html.Node) (Rect, error) {
	box, _ := styleBox(n)
	return box, nil
}

func (StyleLayout) ComputedStyle(n *html.Node, property string) (string, error) {
	property = CSSProperty(property)
	if v := styleValue(n, property); v != "" {
		return v, nil
	}
	return styleDefaults[property], nil
}

// styleBox reads the px box from the inline style. ok is false when the
// element has no explicit size.
func styleBox(n *html.Node) (Rect, bool) {
	w, wok := pixels(styleValue(n, "width"))
	h, hok := pixels(styleValue(n, "height"))
	x, _ := pixels(styleValue(n, "left"))
	y, _ := pixels(styleValue(n, "top"))
	return Rect{X: x, Y: y, Width: w, Height: h}, wok && hok
}

func pixels(v string) (float64, bool) {
	v = strings.TrimSpace(strings.TrimSuffix(strings.TrimSpace(v), "px"))
	if v == "" {
		return 0, false
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return 0, false
	}
	return f, true
}

// zIndex parses a stacking order. Non-numeric values ("auto", "") count as 0.
func zIndex(v string) int {
	z, err := strconv.Atoi(strings.TrimSpace(v))
	if err != nil {
		return 0
	}
	return z
}
