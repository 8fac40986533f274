package browserlayout

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/net/html"

	"github.com/dannyswat/vcedit"
)

func TestCloneKeyedNumbersElements(t *testing.T) {
	doc, err := vcedit.ParseHTML(`<body><div id="a"><p>x</p></div></body>`)
	require.NoError(t, err)

	keys := make(map[*html.Node]int)
	var nodes []*html.Node
	mirror := cloneKeyed(doc, keys, &nodes)

	// html, head, body, div, p
	require.Len(t, nodes, 5)
	p, err := vcedit.ResolvePath(doc, "body > div#a > p")
	require.NoError(t, err)
	assert.Equal(t, 4, keys[p])
	assert.Same(t, p, nodes[4])

	var buf bytes.Buffer
	require.NoError(t, html.Render(&buf, mirror))
	assert.Contains(t, buf.String(), `<p data-vcedit-key="4">x</p>`)

	// The live tree is untouched.
	var live bytes.Buffer
	require.NoError(t, html.Render(&live, doc))
	assert.False(t, strings.Contains(live.String(), keyAttr))
}

func TestSelector(t *testing.T) {
	assert.Equal(t, `[data-vcedit-key="12"]`, selector(12))
}
