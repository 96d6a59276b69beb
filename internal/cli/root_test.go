package cli

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/leapstack-labs/leaf/internal/cli/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// execute runs the root command with the given args against a fresh
// config and returns its combined output.
func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	config.ResetConfig()

	cmd := NewRootCmd()
	var buf bytes.Buffer
	cmd.SetOut(&buf)
	cmd.SetErr(&buf)
	cmd.SetArgs(args)

	err := cmd.Execute()
	return buf.String(), err
}

func writeComponent(t *testing.T, dir, name, content string) {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o750))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
}

// newProject lays down a small two-component project and returns its
// source and output directories.
func newProject(t *testing.T) (src, out string) {
	t.Helper()
	src = t.TempDir()
	out = filepath.Join(t.TempDir(), "dist")

	writeComponent(t, src, "App.leaf", `<import Card from "./Card.leaf">
<script>
count = wrap(0)
</script>
<template>
<p>{{count}}</p>
<Card/>
</template>`)
	writeComponent(t, src, "Card.leaf", `<template><p>card</p></template>`)

	return src, out
}

func TestRootCmd_Subcommands(t *testing.T) {
	cmd := NewRootCmd()

	want := []string{"build", "list", "graph", "serve", "builds", "version", "completion"}
	for _, name := range want {
		found := false
		for _, sub := range cmd.Commands() {
			if sub.Name() == name {
				found = true
				break
			}
		}
		assert.True(t, found, "subcommand %q should be registered", name)
	}
}

func TestBuildCommand_WritesArtifacts(t *testing.T) {
	src, out := newProject(t)

	stdout, err := execute(t,
		"build",
		"--src-dir", src,
		"--out-dir", out,
		"--state", ":memory:",
		"--output", "markdown",
	)
	require.NoError(t, err, stdout)

	assert.Contains(t, stdout, "Built 1 components")
	assert.Contains(t, stdout, "App")

	// Only the root component produces artifacts
	assert.FileExists(t, filepath.Join(out, "App.html"))
	assert.FileExists(t, filepath.Join(out, "App.js"))
	assert.NoFileExists(t, filepath.Join(out, "Card.html"))
}

func TestListCommand_Markdown(t *testing.T) {
	src, out := newProject(t)

	stdout, err := execute(t,
		"list",
		"--src-dir", src,
		"--out-dir", out,
		"--state", ":memory:",
		"--output", "markdown",
	)
	require.NoError(t, err, stdout)

	assert.Contains(t, stdout, "Components (2 total)")
	assert.Contains(t, stdout, "## App")
	assert.Contains(t, stdout, "## Card")
	assert.Contains(t, stdout, "**Imports**: Card")
}

func TestListCommand_JSON(t *testing.T) {
	src, out := newProject(t)

	stdout, err := execute(t,
		"list",
		"--src-dir", src,
		"--out-dir", out,
		"--state", ":memory:",
		"--output", "json",
	)
	require.NoError(t, err, stdout)

	assert.Contains(t, stdout, `"total": 2`)
	assert.Contains(t, stdout, `"name": "App"`)
	assert.Contains(t, stdout, `"root": true`)
}

func TestGraphCommand_Markdown(t *testing.T) {
	src, out := newProject(t)

	stdout, err := execute(t,
		"graph",
		"--src-dir", src,
		"--out-dir", out,
		"--state", ":memory:",
		"--output", "markdown",
	)
	require.NoError(t, err, stdout)

	// Card has no imports, App imports Card
	assert.Contains(t, stdout, "Level 0 (Leaves)")
	assert.Contains(t, stdout, "Level 1")
	assert.Contains(t, stdout, "imports: Card")
	assert.Contains(t, stdout, "**Total Components**: 2")
}

func TestBuildsCommand_History(t *testing.T) {
	src, out := newProject(t)
	statePath := filepath.Join(t.TempDir(), "state.db")

	_, err := execute(t,
		"build",
		"--src-dir", src,
		"--out-dir", out,
		"--state", statePath,
		"--output", "markdown",
	)
	require.NoError(t, err)

	stdout, err := execute(t,
		"builds",
		"--src-dir", src,
		"--out-dir", out,
		"--state", statePath,
		"--output", "markdown",
	)
	require.NoError(t, err, stdout)

	assert.Contains(t, stdout, "Builds (1 shown)")
	assert.Contains(t, stdout, "**Status**: success")
	assert.Contains(t, stdout, "**Components**: 1")
}

func TestBuildCommand_MissingSrcDir(t *testing.T) {
	out := filepath.Join(t.TempDir(), "dist")

	_, err := execute(t,
		"build",
		"--src-dir", filepath.Join(t.TempDir(), "does-not-exist"),
		"--out-dir", out,
		"--state", ":memory:",
	)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "source directory does not exist")
}
