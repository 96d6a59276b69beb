package loader

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o750))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestDiscover(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "App.leaf", "<template><p>hi</p></template>")
	writeFile(t, dir, "widgets/Counter.leaf", "<template><p>0</p></template>")
	writeFile(t, dir, "notes.txt", "not a component")
	writeFile(t, dir, ".hidden/Secret.leaf", "<template></template>")

	d, err := NewDiscovery(dir, nil)
	require.NoError(t, err)

	sources, err := d.Discover()
	require.NoError(t, err)
	require.Len(t, sources, 2)
	assert.Equal(t, "App", sources[0].Name)
	assert.Equal(t, "App.leaf", sources[0].RelPath)
	assert.Equal(t, "Counter", sources[1].Name)
	assert.Equal(t, "widgets/Counter.leaf", sources[1].RelPath)
}

func TestDiscover_Excludes(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "App.leaf", "")
	writeFile(t, dir, "drafts/Wip.leaf", "")

	d, err := NewDiscovery(dir, []string{"drafts/*"})
	require.NoError(t, err)

	sources, err := d.Discover()
	require.NoError(t, err)
	require.Len(t, sources, 1)
	assert.Equal(t, "App", sources[0].Name)
}

func TestDiscover_BadPattern(t *testing.T) {
	_, err := NewDiscovery(t.TempDir(), []string{"[unclosed"})
	assert.Error(t, err)
}

func TestDiscover_MissingRoot(t *testing.T) {
	d, err := NewDiscovery(filepath.Join(t.TempDir(), "nope"), nil)
	require.NoError(t, err)
	_, err = d.Discover()
	assert.Error(t, err)
}

func TestOSLoader(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "App.leaf", "<template><p>hi</p></template>")

	text, err := OSLoader{}.Load(path)
	require.NoError(t, err)
	assert.Contains(t, text, "<template>")

	_, err = OSLoader{}.Load(filepath.Join(dir, "gone.leaf"))
	assert.Error(t, err)
}
