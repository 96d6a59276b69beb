package engine

import (
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/leapstack-labs/leaf/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeSource(t *testing.T, dir, name, content string) {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o750))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
}

func newTestEngine(t *testing.T, src string, statePath string) *Engine {
	t.Helper()
	eng, err := New(Config{
		SrcDir:    src,
		OutDir:    filepath.Join(t.TempDir(), "out"),
		StatePath: statePath,
		Logger:    testutil.NewTestLogger(t),
	})
	require.NoError(t, err)
	t.Cleanup(func() { _ = eng.Close() })
	return eng
}

func TestDiscoverBuildsGraph(t *testing.T) {
	src := t.TempDir()
	writeSource(t, src, "App.leaf", `<import Card from "./Card.leaf">
<template><Card/></template>`)
	writeSource(t, src, "Card.leaf", `<template><p>card</p></template>`)

	eng := newTestEngine(t, src, "")
	sources, err := eng.Discover()
	require.NoError(t, err)
	assert.Len(t, sources, 2)

	assert.Equal(t, []string{"App"}, eng.Graph().Roots())
	assert.Equal(t, []string{"Card"}, eng.Graph().ImportsOf("App"))
}

func TestDiscover_DuplicateName(t *testing.T) {
	src := t.TempDir()
	writeSource(t, src, "App.leaf", `<template><p>a</p></template>`)
	writeSource(t, src, "pages/App.leaf", `<template><p>b</p></template>`)

	eng := newTestEngine(t, src, "")
	_, err := eng.Discover()
	assert.ErrorContains(t, err, "duplicate component name")
}

func TestBuild_WritesArtifactsAndRecords(t *testing.T) {
	src := t.TempDir()
	writeSource(t, src, "App.leaf", `<import Card from "./Card.leaf">
<script>count = wrap(0)</script>
<template><div><Card/><span>{{count}}</span></div></template>
<style isolated>div { margin: 0; }</style>`)
	writeSource(t, src, "Card.leaf", `<template><p>card</p></template>`)

	statePath := filepath.Join(t.TempDir(), "state", "builds.db")
	eng := newTestEngine(t, src, statePath)

	summary, err := eng.Build()
	require.NoError(t, err)
	require.Len(t, summary.Components, 1, "only roots produce artifacts")
	assert.Equal(t, "App", summary.Components[0].Name)
	assert.NotEmpty(t, summary.BuildID)

	outDir := eng.cfg.OutDir
	for _, name := range []string{"App.html", "App.css", "App.js"} {
		_, err := os.Stat(filepath.Join(outDir, name))
		assert.NoError(t, err, name)
	}

	build, err := eng.Store().GetBuild(summary.BuildID)
	require.NoError(t, err)
	assert.Equal(t, 1, build.Components)

	comps, err := eng.Store().ListComponents(summary.BuildID)
	require.NoError(t, err)
	require.Len(t, comps, 1)
	assert.Equal(t, "App", comps[0].Name)
}

func TestBuild_CycleFails(t *testing.T) {
	src := t.TempDir()
	writeSource(t, src, "A.leaf", `<import B from "./B.leaf"><template><B/></template>`)
	writeSource(t, src, "B.leaf", `<import A from "./A.leaf"><template><A/></template>`)

	eng := newTestEngine(t, src, "")
	_, err := eng.Build()
	assert.ErrorContains(t, err, "cycle")
}

func TestCompileComponent(t *testing.T) {
	src := t.TempDir()
	writeSource(t, src, "Counter.leaf", `<script>n = wrap(1)</script>
<template><b>{{n}}</b></template>`)

	eng := newTestEngine(t, src, "")
	_, err := eng.Discover()
	require.NoError(t, err)

	result, err := eng.CompileComponent("Counter")
	require.NoError(t, err)
	assert.Contains(t, result.HTML, `data-bind="n"`)

	_, err = eng.CompileComponent("Nope")
	assert.Error(t, err)
}

// Rediscovery runs on the dev server's watcher goroutine while request
// handlers read; the accessors must stay safe under that interleaving.
func TestDiscover_ConcurrentWithReads(t *testing.T) {
	src := t.TempDir()
	writeSource(t, src, "App.leaf", `<import Card from "./Card.leaf">
<template><Card/></template>`)
	writeSource(t, src, "Card.leaf", `<template><p>card</p></template>`)

	eng := newTestEngine(t, src, "")
	_, err := eng.Discover()
	require.NoError(t, err)

	var wg sync.WaitGroup
	for i := 0; i < 4; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 20; j++ {
				_, _ = eng.Discover()
			}
		}()
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 20; j++ {
				if src, ok := eng.Lookup("App"); ok {
					assert.Equal(t, "App", src.Name)
				}
				_ = eng.Sources()
				_, _ = eng.CompileComponent("Card")
			}
		}()
	}
	wg.Wait()

	src2, ok := eng.Lookup("Card")
	require.True(t, ok)
	assert.Equal(t, "Card.leaf", src2.RelPath)
}
