// Package browserlayout answers the editor's geometry questions with a
// headless Chromium: the live document is mirrored into a page and hit
// testing, boxes and computed styles come from the real layout engine.
package browserlayout

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"strconv"
	"sync"
	"time"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/launcher"
	"github.com/go-rod/rod/lib/proto"
	"go.uber.org/zap"
	"golang.org/x/net/html"

	"github.com/dannyswat/vcedit"
)

// keyAttr tags every element of the mirrored page with its index in the
// live tree, so answers from the browser map back to nodes.
const keyAttr = "data-vcedit-key"

// Config controls the browser process.
type Config struct {
	Bin      string // Browser binary; empty lets rod find or download one.
	Headless bool
	Width    int
	Height   int
	Timeout  time.Duration // Per query.
}

// Layout is a vcedit.Layout backed by a browser page.
type Layout struct {
	mu      sync.Mutex
	cfg     Config
	log     *zap.Logger
	launch  *launcher.Launcher
	browser *rod.Browser
	page    *rod.Page

	// Mirror of the last synced tree.
	rendered string
	keys     map[*html.Node]int
	nodes    []*html.Node
}

var _ vcedit.Layout = (*Layout)(nil)

// New launches the browser and opens the page used for layout.
func New(ctx context.Context, cfg Config, log *zap.Logger) (*Layout, error) {
	if log == nil {
		log = zap.NewNop()
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 10 * time.Second
	}

	l := launcher.New().Headless(cfg.Headless)
	if cfg.Bin != "" {
		l = l.Bin(cfg.Bin)
	}
	controlURL, err := l.Launch()
	if err != nil {
		return nil, fmt.Errorf("launch browser: %w", err)
	}

	browser := rod.New().ControlURL(controlURL).Context(ctx)
	if err := browser.Connect(); err != nil {
		l.Kill()
		return nil, fmt.Errorf("connect to browser: %w", err)
	}
	page, err := browser.Page(proto.TargetCreateTarget{})
	if err != nil {
		_ = browser.Close()
		l.Kill()
		return nil, fmt.Errorf("create page: %w", err)
	}
	if cfg.Width > 0 && cfg.Height > 0 {
		if err := page.SetViewport(&proto.EmulationSetDeviceMetricsOverride{
			Width:             cfg.Width,
			Height:            cfg.Height,
			DeviceScaleFactor: 1.0,
		}); err != nil {
			log.Warn("failed to set viewport", zap.Error(err))
		}
	}

	log.Info("layout browser started", zap.String("control_url", controlURL))
	return &Layout{cfg: cfg, log: log, launch: l, browser: browser, page: page}, nil
}

// Close shuts the page and the browser down.
func (l *Layout) Close() error {
	l.mu.Lock()
	defer l.mu.Unlock()
	var errs []error
	if l.page != nil {
		errs = append(errs, l.page.Close())
		l.page = nil
	}
	if l.browser != nil {
		errs = append(errs, l.browser.Close())
		l.browser = nil
	}
	if l.launch != nil {
		l.launch.Kill()
		l.launch.Cleanup()
		l.launch = nil
	}
	return errors.Join(errs...)
}

// ElementsAt returns the elements under (x, y), topmost first.
func (l *Layout) ElementsAt(doc *html.Node, x, y float64) ([]*html.Node, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if err := l.syncLocked(doc); err != nil {
		return nil, err
	}
	res, err := l.pageLocked().Eval(`(x, y, attr) => document.elementsFromPoint(x, y)
		.map(e => e.getAttribute(attr))
		.filter(k => k !== null)
		.map(Number)`, x, y, keyAttr)
	if err != nil {
		return nil, fmt.Errorf("elementsFromPoint: %w", err)
	}
	var keys []int
	if err := res.Value.Unmarshal(&keys); err != nil {
		return nil, fmt.Errorf("elementsFromPoint result: %w", err)
	}
	out := make([]*html.Node, 0, len(keys))
	for _, k := range keys {
		if n := l.nodeLocked(k); n != nil && n.Data != "html" && n.Data != "body" {
			out = append(out, n)
		}
	}
	return out, nil
}

// BoundingBox returns the client rectangle of n.
func (l *Layout) BoundingBox(n *html.Node) (vcedit.Rect, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	key, err := l.keyLocked(n)
	if err != nil {
		return vcedit.Rect{}, err
	}
	res, err := l.pageLocked().Eval(`(sel) => {
		const r = document.querySelector(sel).getBoundingClientRect();
		return {x: r.left, y: r.top, width: r.width, height: r.height};
	}`, selector(key))
	if err != nil {
		return vcedit.Rect{}, fmt.Errorf("getBoundingClientRect: %w", err)
	}
	var r vcedit.Rect
	if err := res.Value.Unmarshal(&r); err != nil {
		return vcedit.Rect{}, fmt.Errorf("getBoundingClientRect result: %w", err)
	}
	return r, nil
}

// ComputedStyle returns getComputedStyle(n)[property].
func (l *Layout) ComputedStyle(n *html.Node, property string) (string, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	key, err := l.keyLocked(n)
	if err != nil {
		return "", err
	}
	res, err := l.pageLocked().Eval(`(sel, prop) =>
		getComputedStyle(document.querySelector(sel)).getPropertyValue(prop)`,
		selector(key), vcedit.CSSProperty(property))
	if err != nil {
		return "", fmt.Errorf("getComputedStyle: %w", err)
	}
	return res.Value.Str(), nil
}

func (l *Layout) pageLocked() *rod.Page {
	return l.page.Timeout(l.cfg.Timeout)
}

// keyLocked syncs the tree n lives in and returns n's key.
func (l *Layout) keyLocked(n *html.Node) (int, error) {
	if err := l.syncLocked(n); err != nil {
		return 0, err
	}
	key, ok := l.keys[n]
	if !ok {
		return 0, fmt.Errorf("%w: node is not part of the synced document", vcedit.ErrInvalidTarget)
	}
	return key, nil
}

func (l *Layout) nodeLocked(key int) *html.Node {
	if key < 0 || key >= len(l.nodes) {
		return nil
	}
	return l.nodes[key]
}

// syncLocked mirrors the document containing n into the page. The live tree
// changes between queries, so it is rendered every time and only pushed to
// the browser when the markup differs from what the page shows.
func (l *Layout) syncLocked(n *html.Node) error {
	if l.page == nil {
		return errors.New("layout browser is closed")
	}
	root := n
	for root.Parent != nil {
		root = root.Parent
	}

	keys := make(map[*html.Node]int)
	var nodes []*html.Node
	mirror := cloneKeyed(root, keys, &nodes)

	var buf bytes.Buffer
	if err := html.Render(&buf, mirror); err != nil {
		return fmt.Errorf("render mirror: %w", err)
	}
	rendered := buf.String()

	l.keys, l.nodes = keys, nodes
	if rendered == l.rendered {
		return nil
	}
	if err := l.pageLocked().SetDocumentContent(rendered); err != nil {
		l.rendered = ""
		return fmt.Errorf("sync document: %w", err)
	}
	l.rendered = rendered
	l.log.Debug("layout page synced", zap.Int("elements", len(nodes)), zap.Int("bytes", len(rendered)))
	return nil
}

// cloneKeyed copies n, numbering elements in document order and recording
// the live node behind each number.
func cloneKeyed(n *html.Node, keys map[*html.Node]int, nodes *[]*html.Node) *html.Node {
	c := &html.Node{
		Type:      n.Type,
		DataAtom:  n.DataAtom,
		Data:      n.Data,
		Namespace: n.Namespace,
		Attr:      append([]html.Attribute(nil), n.Attr...),
	}
	if n.Type == html.ElementNode {
		keys[n] = len(*nodes)
		c.Attr = append(c.Attr, html.Attribute{Key: keyAttr, Val: strconv.Itoa(len(*nodes))})
		*nodes = append(*nodes, n)
	}
	for child := n.FirstChild; child != nil; child = child.NextSibling {
		c.AppendChild(cloneKeyed(child, keys, nodes))
	}
	return c
}

func selector(key int) string {
	return "[" + keyAttr + `="` + strconv.Itoa(key) + `"]`
}
