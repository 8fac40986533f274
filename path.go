package vcedit

import (
	"fmt"
	"strconv"
	"strings"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

const (
	pathSeparator = " > "
	nthPrefix     = ":nth-of-type("
)

// ComputePath builds the locator of n, bottom-up:
//   - an element with an id that resolves back to it contributes "tag#id"
//     and ends the walk,
//   - any other element contributes "tag" or "tag:nth-of-type(n)" where n
//     counts preceding element siblings with the same tag (1-based),
//   - the root-most segment is always "body".
//
// html, body and the document node all map to "body". Elements outside the
// body (head content) are not addressable.
func ComputePath(n *html.Node) (ElementPath, error) {
	if n == nil {
		return "", ErrInvalidTarget
	}
	if n.Type == html.DocumentNode {
		return "body", nil
	}
	if n.Type != html.ElementNode {
		return "", fmt.Errorf("%w: node type %d", ErrInvalidTarget, n.Type)
	}

	var segments []string
	current := n
	for {
		if current == nil || current.Type != html.ElementNode {
			return "", fmt.Errorf("%w: <%s> is not inside body", ErrInvalidTarget, n.Data)
		}
		if current.DataAtom == atom.Body || current.DataAtom == atom.Html {
			break
		}
		if current.DataAtom == atom.Head {
			return "", fmt.Errorf("%w: <%s> is inside head", ErrInvalidTarget, n.Data)
		}

		tag := strings.ToLower(current.Data)
		if id := getAttr(current, "id"); id != "" {
			body := bodyAncestor(current)
			if body == nil {
				return "", fmt.Errorf("%w: <%s> is not inside body", ErrInvalidTarget, n.Data)
			}
			if addressableID(body, current, tag, id) {
				segments = append(segments, tag+"#"+id)
				break
			}
		}
		if nth := nthOfType(current); nth > 1 {
			tag += nthPrefix + strconv.Itoa(nth) + ")"
		}
		segments = append(segments, tag)
		current = current.Parent
	}

	var b strings.Builder
	b.WriteString("body")
	for i := len(segments) - 1; i >= 0; i-- {
		b.WriteString(pathSeparator)
		b.WriteString(segments[i])
	}
	return ElementPath(b.String()), nil
}

func bodyAncestor(n *html.Node) *html.Node {
	for p := n.Parent; p != nil; p = p.Parent {
		if p.Type == html.ElementNode && p.DataAtom == atom.Body {
			return p
		}
	}
	return nil
}

// addressableID reports whether "tag#id" resolves back to n. Ids that
// contain the separator or surrounding whitespace, and ids shared with an
// earlier element, fall back to positional segments.
func addressableID(body, n *html.Node, tag, id string) bool {
	if id != strings.TrimSpace(id) || strings.Contains(id, pathSeparator) {
		return false
	}
	return findByID(body, tag, id) == n
}

// nthOfType is the 1-based position of n among element siblings sharing
// its tag name.
func nthOfType(n *html.Node) int {
	nth := 1
	for sib := n.PrevSibling; sib != nil; sib = sib.PrevSibling {
		if sib.Type == html.ElementNode && strings.EqualFold(sib.Data, n.Data) {
			nth++
		}
	}
	return nth
}

// segment is one parsed step of an ElementPath.
type segment struct {
	tag string
	id  string
	nth int
}

func parseSegment(s string) (segment, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return segment{}, fmt.Errorf("empty path segment")
	}
	if tag, id, ok := strings.Cut(s, "#"); ok {
		if tag == "" || id == "" {
			return segment{}, fmt.Errorf("malformed segment %q", s)
		}
		return segment{tag: strings.ToLower(tag), id: id}, nil
	}
	if tag, rest, ok := strings.Cut(s, nthPrefix); ok {
		num, found := strings.CutSuffix(rest, ")")
		nth, err := strconv.Atoi(num)
		if !found || err != nil || nth < 1 {
			return segment{}, fmt.Errorf("malformed segment %q", s)
		}
		return segment{tag: strings.ToLower(tag), nth: nth}, nil
	}
	return segment{tag: strings.ToLower(s), nth: 1}, nil
}

// ResolvePath finds the element p points to in the document containing
// root. It reads the live tree on every call and never caches.
func ResolvePath(root *html.Node, p ElementPath) (*html.Node, error) {
	if root == nil {
		return nil, fmt.Errorf("%w: %s (no document)", ErrPathNotFound, p)
	}
	parts := strings.Split(string(p), pathSeparator)
	if len(parts) == 0 || strings.TrimSpace(parts[0]) != "body" {
		return nil, fmt.Errorf("%w: %s (must start at body)", ErrPathNotFound, p)
	}
	current := findElement(documentRoot(root), atom.Body)
	if current == nil {
		return nil, fmt.Errorf("%w: %s (document has no body)", ErrPathNotFound, p)
	}

	for i, raw := range parts[1:] {
		seg, err := parseSegment(raw)
		if err != nil {
			return nil, fmt.Errorf("%w: %s: %v", ErrPathNotFound, p, err)
		}
		var next *html.Node
		if seg.id != "" {
			next = findByID(current, seg.tag, seg.id)
		} else {
			next = nthChildOfType(current, seg.tag, seg.nth)
		}
		if next == nil {
			return nil, fmt.Errorf("%w: %s (failed at segment %d %q)", ErrPathNotFound, p, i+1, raw)
		}
		current = next
	}
	return current, nil
}

// findByID searches the descendants of scope, since an id segment may skip
// any number of ancestors.
func findByID(scope *html.Node, tag, id string) *html.Node {
	var found *html.Node
	walk(scope, func(c *html.Node) bool {
		if found != nil {
			return false
		}
		if c != scope && c.Type == html.ElementNode && strings.EqualFold(c.Data, tag) && getAttr(c, "id") == id {
			found = c
			return false
		}
		return true
	})
	return found
}

func nthChildOfType(parent *html.Node, tag string, nth int) *html.Node {
	count := 0
	for c := parent.FirstChild; c != nil; c = c.NextSibling {
		if c.Type == html.ElementNode && strings.EqualFold(c.Data, tag) {
			count++
			if count == nth {
				return c
			}
		}
	}
	return nil
}
