package vcedit

import (
	"strings"
	"unicode"

	"github.com/aymerick/douceur/css"
	"github.com/aymerick/douceur/parser"
	"github.com/gorilla/css/scanner"
	"golang.org/x/net/html"
)

// InspectedProperties are the values the property panel shows for a single
// selected element.
var InspectedProperties = []string{
	"width", "height", "margin", "padding",
	"background-color", "color", "font-size", "z-index",
}

// CSSProperty normalises a property name to its kebab-case form, so both
// "backgroundColor" and "background-color" address the same declaration.
// Custom properties ("--mainColor") are returned as given.
func CSSProperty(name string) string {
	name = strings.TrimSpace(name)
	if strings.HasPrefix(name, "--") {
		// Custom properties are case-sensitive.
		return name
	}
	var b strings.Builder
	for i, r := range name {
		if unicode.IsUpper(r) {
			if i > 0 {
				b.WriteByte('-')
			}
			b.WriteRune(unicode.ToLower(r))
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}

// inlineStyle parses the style attribute of n. Like a browser, it skips
// malformed declarations and keeps the rest: the attribute comes from
// arbitrary documents.
func inlineStyle(n *html.Node) []*css.Declaration {
	raw := strings.TrimSpace(getAttr(n, "style"))
	if raw == "" {
		return nil
	}
	var out []*css.Declaration
	for _, chunk := range splitDeclarations(raw) {
		decls, err := parser.ParseDeclarations(chunk + ";")
		if err != nil {
			continue
		}
		for _, d := range decls {
			if d.Property != "" && d.Value != "" {
				out = append(out, d)
			}
		}
	}
	return out
}

// splitDeclarations cuts a declaration list at top-level semicolons.
// Strings, url() and comments are single tokens, so a ";" inside them does
// not split. Text after a tokenizer error is dropped.
func splitDeclarations(s string) []string {
	var (
		out []string
		b   strings.Builder
	)
	flush := func() {
		if strings.TrimSpace(b.String()) != "" {
			out = append(out, b.String())
		}
		b.Reset()
	}
	sc := scanner.New(s)
	for {
		tok := sc.Next()
		switch {
		case tok.Type == scanner.TokenEOF:
			flush()
			return out
		case tok.Type == scanner.TokenError:
			return out
		case tok.Type == scanner.TokenChar && tok.Value == ";":
			flush()
		default:
			b.WriteString(tok.Value)
		}
	}
}

// sameProperty compares property names. Custom properties are
// case-sensitive, everything else is not.
func sameProperty(a, b string) bool {
	if strings.HasPrefix(a, "--") || strings.HasPrefix(b, "--") {
		return a == b
	}
	return strings.EqualFold(a, b)
}

// styleValue returns the inline value of property on n, or "".
func styleValue(n *html.Node, property string) string {
	property = CSSProperty(property)
	value := ""
	for _, d := range inlineStyle(n) {
		if sameProperty(d.Property, property) {
			value = d.Value
		}
	}
	return value
}

// setStyle sets property on the inline style of n. An empty value removes
// the declaration, like assigning "" to element.style[prop].
func setStyle(n *html.Node, property, value string) {
	property = CSSProperty(property)
	value = strings.TrimSpace(value)

	decls := inlineStyle(n)
	out := make([]*css.Declaration, 0, len(decls)+1)
	replaced := false
	for _, d := range decls {
		if !sameProperty(d.Property, property) {
			out = append(out, d)
			continue
		}
		if replaced || value == "" {
			continue
		}
		out = append(out, &css.Declaration{Property: property, Value: value})
		replaced = true
	}
	if !replaced && value != "" {
		out = append(out, &css.Declaration{Property: property, Value: value})
	}

	if len(out) == 0 {
		removeAttr(n, "style")
		return
	}
	setAttr(n, "style", renderStyle(out))
}

func renderStyle(decls []*css.Declaration) string {
	parts := make([]string, 0, len(decls))
	for _, d := range decls {
		s := d.Property + ": " + d.Value
		if d.Important {
			s += " !important"
		}
		parts = append(parts, s)
	}
	return strings.Join(parts, "; ") + ";"
}
