package vcedit

import (
	"fmt"
	"sort"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

// ChangeKind classifies one difference between two snapshots.
type ChangeKind string

const (
	ChangeText   ChangeKind = "text"   // Text content of an element changed
	ChangeAttr   ChangeKind = "attr"   // Attribute added, changed or removed
	ChangeInsert ChangeKind = "insert" // Child node appended
	ChangeRemove ChangeKind = "remove" // Child node removed
)

// Change is one entry of a snapshot summary. Path addresses the element in
// the older snapshot (for inserts: the parent element).
type Change struct {
	Kind     ChangeKind  `json:"kind"`
	Path     ElementPath `json:"path"`
	Key      string      `json:"key,omitempty"`
	OldValue string      `json:"old_value,omitempty"`
	NewValue string      `json:"new_value,omitempty"`
}

func (c Change) String() string {
	switch c.Kind {
	case ChangeAttr:
		return fmt.Sprintf("%s %s [%s] %q -> %q", c.Kind, c.Path, c.Key, c.OldValue, c.NewValue)
	case ChangeText:
		return fmt.Sprintf("%s %s %q -> %q", c.Kind, c.Path, c.OldValue, c.NewValue)
	default:
		return fmt.Sprintf("%s %s %s", c.Kind, c.Path, c.NewValue+c.OldValue)
	}
}

// Changes compares the bodies of two serialized documents. Children are
// matched by position, so an insertion in the middle reports every later
// sibling as changed; the summary is for display and diagnostics, not for
// patching.
func Changes(before, after string) ([]Change, error) {
	oldDoc, err := ParseHTML(before)
	if err != nil {
		return nil, fmt.Errorf("failed to parse old HTML: %w", err)
	}
	newDoc, err := ParseHTML(after)
	if err != nil {
		return nil, fmt.Errorf("failed to parse new HTML: %w", err)
	}

	oldBody := findElement(oldDoc, atom.Body)
	newBody := findElement(newDoc, atom.Body)
	if oldBody == nil || newBody == nil {
		return nil, fmt.Errorf("document has no body")
	}
	return diffNodes(oldBody, newBody)
}

// diffNodes compares two nodes that sit at the same position.
func diffNodes(oldNode, newNode *html.Node) ([]Change, error) {
	var out []Change

	if oldNode.Type != newNode.Type || (oldNode.Type == html.ElementNode && oldNode.Data != newNode.Data) {
		// Different kind of node in the same slot: report a replacement.
		parent := pathOrBody(oldNode.Parent)
		rendered, err := RenderNode(newNode)
		if err != nil {
			return nil, err
		}
		oldRendered, err := RenderNode(oldNode)
		if err != nil {
			return nil, err
		}
		return []Change{
			{Kind: ChangeRemove, Path: parent, OldValue: oldRendered},
			{Kind: ChangeInsert, Path: parent, NewValue: rendered},
		}, nil
	}

	switch oldNode.Type {
	case html.ElementNode:
		out = append(out, diffAttributes(oldNode, newNode)...)
	case html.TextNode:
		if oldNode.Data != newNode.Data {
			out = append(out, Change{
				Kind:     ChangeText,
				Path:     pathOrBody(oldNode.Parent),
				OldValue: oldNode.Data,
				NewValue: newNode.Data,
			})
		}
	}

	childChanges, err := diffChildren(oldNode, newNode)
	if err != nil {
		return nil, err
	}
	return append(out, childChanges...), nil
}

// diffAttributes reports attribute changes sorted by key, so summaries are
// stable from run to run.
func diffAttributes(oldNode, newNode *html.Node) []Change {
	oldAttrs := make(map[string]string)
	for _, a := range oldNode.Attr {
		oldAttrs[a.Key] = a.Val
	}
	newAttrs := make(map[string]string)
	for _, a := range newNode.Attr {
		newAttrs[a.Key] = a.Val
	}

	keys := make(map[string]struct{})
	for k := range oldAttrs {
		keys[k] = struct{}{}
	}
	for k := range newAttrs {
		keys[k] = struct{}{}
	}
	sorted := make([]string, 0, len(keys))
	for k := range keys {
		sorted = append(sorted, k)
	}
	sort.Strings(sorted)

	path := pathOrBody(oldNode)
	var out []Change
	for _, k := range sorted {
		vOld, inOld := oldAttrs[k]
		vNew, inNew := newAttrs[k]
		if inOld && inNew && vOld == vNew {
			continue
		}
		out = append(out, Change{Kind: ChangeAttr, Path: path, Key: k, OldValue: vOld, NewValue: vNew})
	}
	return out
}

func diffChildren(oldNode, newNode *html.Node) ([]Change, error) {
	var out []Change
	oldChildren := childList(oldNode)
	newChildren := childList(newNode)

	commonLen := min(len(oldChildren), len(newChildren))
	for i := 0; i < commonLen; i++ {
		childChanges, err := diffNodes(oldChildren[i], newChildren[i])
		if err != nil {
			return nil, err
		}
		out = append(out, childChanges...)
	}

	parent := pathOrBody(oldNode)
	for i := commonLen; i < len(oldChildren); i++ {
		rendered, err := RenderNode(oldChildren[i])
		if err != nil {
			return nil, err
		}
		out = append(out, Change{Kind: ChangeRemove, Path: parent, OldValue: rendered})
	}
	for i := commonLen; i < len(newChildren); i++ {
		rendered, err := RenderNode(newChildren[i])
		if err != nil {
			return nil, err
		}
		out = append(out, Change{Kind: ChangeInsert, Path: parent, NewValue: rendered})
	}
	return out, nil
}

func childList(n *html.Node) []*html.Node {
	var children []*html.Node
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		children = append(children, c)
	}
	return children
}

func pathOrBody(n *html.Node) ElementPath {
	if p, err := ComputePath(NearestElement(n)); err == nil {
		return p
	}
	return "body"
}
