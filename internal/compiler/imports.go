package compiler

import (
	"fmt"
	"path/filepath"
	"strings"
)

// Loader supplies raw component source text for a resolved path. The
// engine passes an OS-backed implementation; tests use in-memory maps.
type Loader interface {
	Load(path string) (string, error)
}

// ResolvedImport is one import declaration after resolution: the parsed
// child component, its fully compiled output, and the deterministic
// instance identity shared by every usage of the declaration.
type ResolvedImport struct {
	Alias      string
	Path       string // resolved, relative to the importing file
	Component  *Component
	Result     *Result
	InstanceID string
}

// resolveImports resolves and recursively compiles every import of comp.
// The session's visited chain detects cycles; its per-path cache collapses
// duplicate work when two components import the same file. Errors raised
// below an import are re-wrapped with the importing component's name and
// the resolved path.
func (s *session) resolveImports(comp *Component) ([]*ResolvedImport, error) {
	if len(comp.Imports) == 0 {
		return nil, nil
	}

	resolved := make([]*ResolvedImport, 0, len(comp.Imports))
	for _, imp := range comp.Imports {
		path := resolveImportPath(comp.FilePath, imp.Path)

		if i := chainIndex(s.visited, path); i >= 0 {
			chain := append(append([]string{}, s.visited[i:]...), path)
			return nil, newError(ErrCircularImport, comp.Name, comp.FilePath,
				"circular import: %s", strings.Join(chain, " -> "))
		}

		child, err := s.compilePath(path, comp.FilePath)
		if err != nil {
			ce := wrapError(err, comp.Name, comp.FilePath)
			if ce.Kind == ErrCircularImport {
				return nil, ce
			}
			return nil, &Error{
				Kind:      ce.Kind,
				Component: comp.Name,
				File:      comp.FilePath,
				Err:       fmt.Errorf("import %q (%s): %w", imp.Name, path, ce.Err),
			}
		}

		resolved = append(resolved, &ResolvedImport{
			Alias:      imp.Name,
			Path:       path,
			Component:  child.component,
			Result:     child.result,
			InstanceID: InstanceID(imp.Name, comp.ScopeID),
		})
	}
	return resolved, nil
}

// compilePath loads and compiles the component at path, reusing the
// session cache when the same file was already compiled in this invocation.
func (s *session) compilePath(path, importer string) (*compiled, error) {
	if cached, ok := s.cache[path]; ok {
		return cached, nil
	}

	if s.compiler.loader == nil {
		return nil, newError(ErrMissingImport, "", importer,
			"cannot load import %q: compiler has no loader", path)
	}

	source, err := s.compiler.loader.Load(path)
	if err != nil {
		return nil, newError(ErrMissingImport, "", importer,
			"cannot load import %q: %v", path, err)
	}

	s.visited = append(s.visited, path)
	child, err := s.compile(source, path)
	s.visited = s.visited[:len(s.visited)-1]
	if err != nil {
		return nil, err
	}

	s.cache[path] = child
	return child, nil
}

// resolveImportPath resolves an import path against the importing file's
// directory. Absolute paths pass through.
func resolveImportPath(importerFile, importPath string) string {
	if filepath.IsAbs(importPath) {
		return filepath.Clean(importPath)
	}
	return filepath.Clean(filepath.Join(filepath.Dir(importerFile), importPath))
}

func chainIndex(chain []string, path string) int {
	for i, p := range chain {
		if p == path {
			return i
		}
	}
	return -1
}
