package main

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/dannyswat/vcedit/internal/config"
)

func setup(t *testing.T) string {
	t.Helper()
	logger = zap.NewNop()
	cfg = config.Default()
	outputPath = ""
	t.Cleanup(func() { outputPath = "" })
	return t.TempDir()
}

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func newCmd() (*cobra.Command, *bytes.Buffer) {
	var out bytes.Buffer
	cmd := &cobra.Command{}
	cmd.SetContext(context.Background())
	cmd.SetOut(&out)
	return cmd, &out
}

func TestDiffCmd(t *testing.T) {
	dir := setup(t)
	a := writeFile(t, dir, "a.html", `<body><p id="x">one</p></body>`)
	b := writeFile(t, dir, "b.html", `<body><p id="x" class="lead">one</p></body>`)

	cmd, out := newCmd()
	require.NoError(t, runDiff(cmd, []string{a, b}))
	assert.Equal(t, `attr body > p#x [class] "" -> "lead"`+"\n", out.String())

	cmd, out = newCmd()
	require.NoError(t, runDiff(cmd, []string{a, a}))
	assert.Equal(t, "no changes\n", out.String())

	cmd, _ = newCmd()
	assert.Error(t, runDiff(cmd, []string{a, filepath.Join(dir, "missing.html")}))
}

func TestRunCmd(t *testing.T) {
	dir := setup(t)
	doc := writeFile(t, dir, "page.html", `<body><div id="hero">Hi</div><p>tail</p></body>`)
	sc := writeFile(t, dir, "edit.yaml", `
steps:
  - action: mode
    mode: select
  - action: click
    target: "body > div#hero"
  - action: style
    property: color
    value: blue
  - action: delete
    paths: ["body > p"]
`)

	cmd, out := newCmd()
	require.NoError(t, runScript(cmd, []string{doc, sc}))
	assert.Contains(t, out.String(), `<div id="hero" style="color: blue;">Hi</div>`)
	assert.NotContains(t, out.String(), "tail")
	assert.NotContains(t, out.String(), "editor-")

	// Same run written to a file.
	outputPath = filepath.Join(dir, "out.html")
	cmd, out = newCmd()
	require.NoError(t, runScript(cmd, []string{doc, sc}))
	assert.Empty(t, out.String())
	written, err := os.ReadFile(outputPath)
	require.NoError(t, err)
	assert.Contains(t, string(written), `style="color: blue;"`)
}

func TestRunCmdStopsOnBadStep(t *testing.T) {
	dir := setup(t)
	doc := writeFile(t, dir, "page.html", `<body><p>x</p></body>`)
	sc := writeFile(t, dir, "edit.yaml", `
steps:
  - action: mode
    mode: paint
`)
	cmd, _ := newCmd()
	err := runScript(cmd, []string{doc, sc})
	require.Error(t, err)
	assert.True(t, strings.HasPrefix(err.Error(), "step 1 (mode)"), err.Error())
}

func TestRootLoadsConfig(t *testing.T) {
	dir := setup(t)
	path := writeFile(t, dir, "vcedit.yaml", "log:\n  level: warn\neditor:\n  debounce: 50ms\n")
	a := writeFile(t, dir, "a.html", `<body><p>x</p></body>`)

	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetArgs([]string{"--config", path, "diff", a, a})
	t.Cleanup(func() {
		rootCmd.SetArgs(nil)
		rootCmd.SetOut(nil)
		configPath = "vcedit.yaml"
	})
	require.NoError(t, rootCmd.Execute())
	assert.Equal(t, "no changes\n", out.String())
	assert.Equal(t, "warn", cfg.Log.Level)
	assert.Equal(t, "50ms", cfg.Editor.Debounce.String())
}
