// Package loader discovers Leaf component sources on disk and supplies
// their text to the compiler's import resolver.
package loader

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/gobwas/glob"
)

// Ext is the component source extension.
const Ext = ".leaf"

// Source is one discovered component file.
type Source struct {
	// Name is the component name, the file name without extension.
	Name string
	// Path is the absolute file path.
	Path string
	// RelPath is the path relative to the source root.
	RelPath string
}

// Discovery scans a source directory for component files.
type Discovery struct {
	root     string
	excludes []glob.Glob
}

// NewDiscovery creates a Discovery over root. Exclude patterns are glob
// expressions matched against root-relative paths; an invalid pattern is
// an error up front rather than a silent no-op.
func NewDiscovery(root string, excludes []string) (*Discovery, error) {
	compiled := make([]glob.Glob, 0, len(excludes))
	for _, pattern := range excludes {
		g, err := glob.Compile(pattern, '/')
		if err != nil {
			return nil, fmt.Errorf("invalid exclude pattern %q: %w", pattern, err)
		}
		compiled = append(compiled, g)
	}
	return &Discovery{root: root, excludes: compiled}, nil
}

// Discover walks the root and returns every component file, sorted by
// relative path. Hidden files and directories are skipped, as are paths
// matching an exclude pattern.
func (d *Discovery) Discover() ([]Source, error) {
	info, err := os.Stat(d.root)
	if err != nil {
		return nil, fmt.Errorf("source directory %s: %w", d.root, err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("source path %s is not a directory", d.root)
	}

	var sources []Source
	err = filepath.WalkDir(d.root, func(path string, entry fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		name := entry.Name()
		if strings.HasPrefix(name, ".") && path != d.root {
			if entry.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}
		if entry.IsDir() {
			return nil
		}
		if filepath.Ext(name) != Ext {
			return nil
		}

		rel, err := filepath.Rel(d.root, path)
		if err != nil {
			return err
		}
		rel = filepath.ToSlash(rel)
		if d.excluded(rel) {
			return nil
		}

		abs, err := filepath.Abs(path)
		if err != nil {
			return err
		}
		sources = append(sources, Source{
			Name:    strings.TrimSuffix(name, Ext),
			Path:    abs,
			RelPath: rel,
		})
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("discovering components in %s: %w", d.root, err)
	}

	sort.Slice(sources, func(i, j int) bool { return sources[i].RelPath < sources[j].RelPath })
	return sources, nil
}

func (d *Discovery) excluded(rel string) bool {
	for _, g := range d.excludes {
		if g.Match(rel) {
			return true
		}
	}
	return false
}

// OSLoader reads component sources from the filesystem. It satisfies the
// compiler's Loader interface.
type OSLoader struct{}

// Load returns the file's text.
func (OSLoader) Load(path string) (string, error) {
	data, err := os.ReadFile(path) //nolint:gosec // G304: paths come from discovery or import declarations
	if err != nil {
		return "", err
	}
	return string(data), nil
}
