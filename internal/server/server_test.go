package server

import (
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/leapstack-labs/leaf/internal/engine"
	"github.com/leapstack-labs/leaf/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNotifier(t *testing.T) {
	n := NewNotifier()
	ch := n.Subscribe()

	n.Broadcast()
	select {
	case <-ch:
	case <-time.After(time.Second):
		t.Fatal("subscriber never received the ping")
	}

	// A full channel must not block the broadcaster.
	n.Broadcast()
	n.Broadcast()

	n.Unsubscribe(ch)
	if _, open := <-ch; open {
		t.Fatal("unsubscribed channel should be closed")
	}
}

func newTestServer(t *testing.T) *Server {
	t.Helper()
	src := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(src, "Hello.leaf"),
		[]byte(`<script>who = wrap("world")</script>
<template><p>hello {{who}}</p></template>
<style isolated>p { color: teal; }</style>`), 0o600))

	eng, err := engine.New(engine.Config{
		SrcDir: src,
		OutDir: filepath.Join(t.TempDir(), "out"),
		Logger: testutil.NewTestLogger(t),
	})
	require.NoError(t, err)
	t.Cleanup(func() { _ = eng.Close() })
	_, err = eng.Discover()
	require.NoError(t, err)

	return New(Config{Engine: eng, SrcDir: src, Logger: testutil.NewTestLogger(t)})
}

func TestIndexListsComponents(t *testing.T) {
	srv := newTestServer(t)
	ts := httptest.NewServer(srv.routes())
	defer ts.Close()

	resp, err := http.Get(ts.URL + "/")
	require.NoError(t, err)
	defer func() { _ = resp.Body.Close() }()

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	body := readAll(t, resp)
	assert.Contains(t, body, `/c/Hello`)
}

func TestPreviewAssemblesArtifacts(t *testing.T) {
	srv := newTestServer(t)
	ts := httptest.NewServer(srv.routes())
	defer ts.Close()

	resp, err := http.Get(ts.URL + "/c/Hello")
	require.NoError(t, err)
	defer func() { _ = resp.Body.Close() }()

	require.Equal(t, http.StatusOK, resp.StatusCode)
	body := readAll(t, resp)
	assert.Contains(t, body, `data-bind="who"`)
	assert.Contains(t, body, "<style>")
	assert.Contains(t, body, "function who(")
}

func TestPreviewUnknownComponent(t *testing.T) {
	srv := newTestServer(t)
	ts := httptest.NewServer(srv.routes())
	defer ts.Close()

	resp, err := http.Get(ts.URL + "/c/Missing")
	require.NoError(t, err)
	defer func() { _ = resp.Body.Close() }()
	assert.Equal(t, http.StatusUnprocessableEntity, resp.StatusCode)
}

func TestArtifactEndpoints(t *testing.T) {
	srv := newTestServer(t)
	ts := httptest.NewServer(srv.routes())
	defer ts.Close()

	resp, err := http.Get(ts.URL + "/c/Hello.css")
	require.NoError(t, err)
	defer func() { _ = resp.Body.Close() }()
	assert.Contains(t, resp.Header.Get("Content-Type"), "text/css")
	assert.Contains(t, readAll(t, resp), "color: teal")

	resp, err = http.Get(ts.URL + "/c/Hello.js")
	require.NoError(t, err)
	defer func() { _ = resp.Body.Close() }()
	assert.Contains(t, resp.Header.Get("Content-Type"), "javascript")
}

func TestMetricsEndpoint(t *testing.T) {
	srv := newTestServer(t)
	ts := httptest.NewServer(srv.routes())
	defer ts.Close()

	// Drive one compile so the counter has a sample.
	resp, err := http.Get(ts.URL + "/c/Hello")
	require.NoError(t, err)
	_ = resp.Body.Close()

	resp, err = http.Get(ts.URL + "/metrics")
	require.NoError(t, err)
	defer func() { _ = resp.Body.Close() }()
	assert.Contains(t, readAll(t, resp), "leaf_compiles_total")
}

func readAll(t *testing.T, resp *http.Response) string {
	t.Helper()
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return string(body)
}
