// Package dag models the component import graph. It answers the questions
// the build pipeline and the graph command ask: is there a cycle, which
// components are roots, what order compiles leaves first, and which
// components must be rebuilt when a file changes.
package dag

import (
	"fmt"
	"sort"
)

// Node is one component in the import graph.
type Node struct {
	// Name is the component name, unique in the graph.
	Name string
	// Data holds caller-attached component info.
	Data any
}

// Graph is a directed graph of import relations. An edge runs from the
// importing component to the imported one.
type Graph struct {
	nodes   map[string]*Node
	imports map[string][]string // importer -> imported components
	usedBy  map[string][]string // imported -> importers
}

// New creates an empty graph.
func New() *Graph {
	return &Graph{
		nodes:   make(map[string]*Node),
		imports: make(map[string][]string),
		usedBy:  make(map[string][]string),
	}
}

// AddComponent adds a component node, updating its data if it already
// exists.
func (g *Graph) AddComponent(name string, data any) {
	if node, ok := g.nodes[name]; ok {
		node.Data = data
		return
	}
	g.nodes[name] = &Node{Name: name, Data: data}
	g.imports[name] = []string{}
	g.usedBy[name] = []string{}
}

// AddImport records that importer uses imported. Both components must be
// known; self-imports are rejected.
func (g *Graph) AddImport(importer, imported string) error {
	if _, ok := g.nodes[importer]; !ok {
		return fmt.Errorf("unknown component %q", importer)
	}
	if _, ok := g.nodes[imported]; !ok {
		return fmt.Errorf("unknown component %q", imported)
	}
	if importer == imported {
		return fmt.Errorf("component %q imports itself", importer)
	}
	if !contains(g.imports[importer], imported) {
		g.imports[importer] = append(g.imports[importer], imported)
	}
	if !contains(g.usedBy[imported], importer) {
		g.usedBy[imported] = append(g.usedBy[imported], importer)
	}
	return nil
}

// Node returns a component node by name.
func (g *Graph) Node(name string) (*Node, bool) {
	node, ok := g.nodes[name]
	return node, ok
}

// Components returns all component names, sorted.
func (g *Graph) Components() []string {
	names := make([]string, 0, len(g.nodes))
	for name := range g.nodes {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// ImportsOf returns the components name imports directly.
func (g *Graph) ImportsOf(name string) []string {
	return g.imports[name]
}

// ImportersOf returns the components that import name directly.
func (g *Graph) ImportersOf(name string) []string {
	return g.usedBy[name]
}

// Size reports node and edge counts.
func (g *Graph) Size() (nodes, edges int) {
	for _, imported := range g.imports {
		edges += len(imported)
	}
	return len(g.nodes), edges
}

// Roots returns the components nobody imports, sorted. These are the
// entry pages a build compiles; everything else is reached through them.
func (g *Graph) Roots() []string {
	var roots []string
	for name := range g.nodes {
		if len(g.usedBy[name]) == 0 {
			roots = append(roots, name)
		}
	}
	sort.Strings(roots)
	return roots
}

// HasCycle reports whether the import graph contains a cycle, returning
// the cycle path when it does.
func (g *Graph) HasCycle() (bool, []string) {
	visited := make(map[string]bool)
	inStack := make(map[string]bool)
	cameFrom := make(map[string]string)

	var cycle []string
	var dfs func(name string) bool
	dfs = func(name string) bool {
		visited[name] = true
		inStack[name] = true

		for _, imported := range g.imports[name] {
			if !visited[imported] {
				cameFrom[imported] = name
				if dfs(imported) {
					return true
				}
			} else if inStack[imported] {
				cycle = []string{imported}
				for at := name; at != imported; at = cameFrom[at] {
					cycle = append([]string{at}, cycle...)
				}
				cycle = append([]string{imported}, cycle...)
				return true
			}
		}

		inStack[name] = false
		return false
	}

	for _, name := range g.Components() {
		if !visited[name] {
			if dfs(name) {
				return true, cycle
			}
		}
	}
	return false, nil
}

// TopologicalSort returns components with every import preceding its
// importer, deterministically ordered. Errors on a cyclic graph.
func (g *Graph) TopologicalSort() ([]string, error) {
	if cyclic, cycle := g.HasCycle(); cyclic {
		return nil, fmt.Errorf("import cycle: %v", cycle)
	}

	visited := make(map[string]bool)
	var order []string
	var visit func(name string)
	visit = func(name string) {
		if visited[name] {
			return
		}
		visited[name] = true
		for _, imported := range g.imports[name] {
			visit(imported)
		}
		order = append(order, name)
	}

	for _, name := range g.Components() {
		visit(name)
	}
	return order, nil
}

// Levels groups components by import depth: level 0 holds components with
// no imports, level N components whose deepest import sits at N-1.
func (g *Graph) Levels() ([][]string, error) {
	if cyclic, cycle := g.HasCycle(); cyclic {
		return nil, fmt.Errorf("import cycle: %v", cycle)
	}
	if len(g.nodes) == 0 {
		return nil, nil
	}

	depth := make(map[string]int)
	var levelOf func(name string) int
	levelOf = func(name string) int {
		if d, ok := depth[name]; ok {
			return d
		}
		max := -1
		for _, imported := range g.imports[name] {
			if d := levelOf(imported); d > max {
				max = d
			}
		}
		depth[name] = max + 1
		return max + 1
	}

	deepest := 0
	for name := range g.nodes {
		if d := levelOf(name); d > deepest {
			deepest = d
		}
	}

	levels := make([][]string, deepest+1)
	for name, d := range depth {
		levels[d] = append(levels[d], name)
	}
	for i := range levels {
		sort.Strings(levels[i])
	}
	return levels, nil
}

// Affected returns the changed components plus every transitive importer,
// sorted. When a child's source changes, each page that renders it must
// recompile.
func (g *Graph) Affected(changed []string) []string {
	affected := make(map[string]bool)
	var mark func(name string)
	mark = func(name string) {
		if affected[name] {
			return
		}
		affected[name] = true
		for _, importer := range g.usedBy[name] {
			mark(importer)
		}
	}
	for _, name := range changed {
		if _, ok := g.nodes[name]; ok {
			mark(name)
		}
	}

	out := make([]string, 0, len(affected))
	for name := range affected {
		out = append(out, name)
	}
	sort.Strings(out)
	return out
}

func contains(list []string, s string) bool {
	for _, item := range list {
		if item == s {
			return true
		}
	}
	return false
}
