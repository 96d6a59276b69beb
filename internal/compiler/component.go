// Package compiler implements the ahead-of-time compiler for single-file
// Leaf components. A component source holds a script block, a markup
// template block, a style block, and optional import declarations; one
// compile produces a static HTML fragment, a scoped stylesheet, and the
// glue JavaScript that wires reactive state to DOM updates without a
// client runtime.
package compiler

// Import is one <import Name from "path"> declaration.
type Import struct {
	// Name is the alias used in the template (e.g., <Name/>).
	Name string
	// Path is the import path as written, resolved relative to the
	// importing file at resolution time.
	Path string
}

// Component is the parsed form of one source file. It is created once per
// file per compile and not mutated after parsing.
type Component struct {
	// Name is the component name, derived from the file name.
	Name string
	// FilePath is the path the source was loaded from.
	FilePath string
	// Script is the raw script section body.
	Script string
	// Template is the raw template section body.
	Template string
	// Style is the raw style section body.
	Style string
	// StyleIsolated reports whether the style block is scoped strictly to
	// this component. A missing style section counts as isolated; a bare
	// <style> without the isolated attribute may target rendered children.
	StyleIsolated bool
	// Imports are the declared child components, in declaration order.
	Imports []Import
	// ScopeID is the short deterministic token derived from Name.
	ScopeID string
	// Store is the raw store section body, if any.
	Store string
	// IsStore reports whether this file defines a shared store rather
	// than a renderable component.
	IsStore bool
}

// Marker returns the scope marker attribute injected onto this component's
// elements, e.g. "data-lf-9f86d081".
func (c *Component) Marker() string {
	return ScopeMarker(c.ScopeID)
}

// ImportRef describes one resolved import in component metadata.
type ImportRef struct {
	// Alias is the import name used in the template.
	Alias string
	// Path is the resolved file path.
	Path string
	// InstanceID is the deterministic identity shared by all usages of
	// this declaration; individual usages append a positional suffix.
	InstanceID string
}

// Meta is the component metadata attached to a compile result.
type Meta struct {
	Name     string
	File     string
	ScopeID  string
	IsStore  bool
	Reactive []string
	Computed []string
	// Constants maps names proven constant at compile time to their values.
	Constants map[string]any
	// Hooks counts lifecycle callbacks by kind (mount/destroy/update).
	Hooks map[string]int
	// Imports lists resolved child components in declaration order.
	Imports []ImportRef
	// Includes names every component merged into the output, this one
	// first, each transitive child exactly once.
	Includes []string
}
