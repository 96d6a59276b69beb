package compiler

import (
	"fmt"
	"log/slog"
	"strings"

	"github.com/leapstack-labs/leaf/internal/css"
)

// Normalizer turns generated script into a baseline executable form. It is
// an external collaborator: text in, text plus any hoisted import
// statements out.
type Normalizer interface {
	Normalize(js string) (body string, imports string, err error)
}

// Minifier shrinks final artifacts. Minification is a pure text pass and
// never affects compile correctness; failures degrade to the unminified
// artifact with a warning.
type Minifier interface {
	MinifyHTML(html string) (string, error)
	MinifyCSS(css string) (string, error)
	MinifyJS(js string) (string, error)
}

// Options are per-compile settings.
type Options struct {
	// Minify enables minification of all three artifacts. The per-artifact
	// flags enable individual passes.
	Minify     bool
	MinifyHTML bool
	MinifyCSS  bool
	MinifyJS   bool
	// Dev surfaces warnings through the compiler's logger as they are
	// collected; warnings are returned on the Result either way.
	Dev bool
	// Props are externally supplied values (route params, server props)
	// that override any compile-time constant of the same name.
	Props map[string]any
}

// Result is one component's compiled output, owned by the caller.
type Result struct {
	HTML string
	CSS  string
	JS   string
	// JSImports holds hoisted import statements and JSBody the rest, split
	// for downstream bundling. JS is the two joined.
	JSImports string
	JSBody    string
	Meta      Meta
	Warnings  []Warning
}

// Config configures a Compiler instance.
type Config struct {
	// Loader supplies source text for import resolution. Compiling a
	// component without imports works with a nil Loader.
	Loader Loader
	// Normalizer and Minifier are optional collaborator passes.
	Normalizer Normalizer
	Minifier   Minifier
	Logger     *slog.Logger
}

// Compiler compiles Leaf component sources. It owns the session-scoped
// caches (selector rewrites, scope-collision registry, per-compile import
// memoization) so concurrent compilers stay independent; it is not itself
// safe for concurrent use.
type Compiler struct {
	loader     Loader
	normalizer Normalizer
	minifier   Minifier
	logger     *slog.Logger
	scoper     *css.Scoper
	registry   *ScopeRegistry
}

// New creates a Compiler.
func New(cfg Config) *Compiler {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Compiler{
		loader:     cfg.Loader,
		normalizer: cfg.Normalizer,
		minifier:   cfg.Minifier,
		logger:     logger,
		scoper:     css.NewScoper(),
		registry:   NewScopeRegistry(),
	}
}

// Registry exposes the scope-collision registry for listings and tests.
func (c *Compiler) Registry() *ScopeRegistry {
	return c.registry
}

// session is the per-invocation state of one top-level Compile call: the
// import chain for cycle detection and the per-path result cache. Neither
// outlives the call.
type session struct {
	compiler *Compiler
	opts     Options
	visited  []string
	cache    map[string]*compiled
}

type compiled struct {
	component *Component
	result    *Result
}

// Compile compiles one component source. Warnings are collected on the
// Result; a single *Error aborts and describes the failing component.
func (c *Compiler) Compile(source, filename string, opts Options) (*Result, error) {
	s := &session{
		compiler: c,
		opts:     opts,
		visited:  []string{filename},
		cache:    make(map[string]*compiled),
	}
	out, err := s.compile(source, filename)
	if err != nil {
		return nil, wrapError(err, "", filename)
	}
	if opts.Dev {
		for _, w := range out.result.Warnings {
			c.logger.Warn("compile warning", "file", w.File, "message", w.Message)
		}
	}
	return out.result, nil
}

// CompileFile loads filename through the configured Loader and compiles it.
func (c *Compiler) CompileFile(filename string, opts Options) (*Result, error) {
	if c.loader == nil {
		return nil, newError(ErrInternal, "", filename, "compiler has no loader")
	}
	source, err := c.loader.Load(filename)
	if err != nil {
		return nil, newError(ErrMissingImport, "", filename, "cannot load %q: %v", filename, err)
	}
	return c.Compile(source, filename, opts)
}

// compile runs the fixed pipeline for one component. Several steps have
// hard ordering dependencies: hooks are extracted before the reactivity
// rewrite so callback bodies stay verbatim, hook declarations precede
// reactive functions because accessors call the update runner, and hook
// execution trails every declaration because mount callbacks call
// accessors.
func (s *session) compile(source, filename string) (*compiled, error) {
	c := s.compiler

	comp, warnings, err := ParseComponent(source, filename)
	if err != nil {
		return nil, err
	}

	if c.registry.Register(comp.ScopeID, comp.Name) {
		owner, _ := c.registry.Owner(comp.ScopeID)
		warnings = append(warnings, Warning{
			File:       filename,
			Message:    fmt.Sprintf("scope id %s of component %q collides with component %q", comp.ScopeID, comp.Name, owner),
			Suggestion: "rename one of the components",
		})
	}

	imports, err := s.resolveImports(comp)
	if err != nil {
		return nil, err
	}

	script := comp.Script
	if comp.IsStore {
		script = comp.Store
	}
	jsImports, script := hoistImportLines(script)

	consts := ExtractConstants(script, s.opts.Props)
	refs := ParseReferences(comp.Template)
	hooks, script := ExtractHooks(script)
	computedVars, script := ParseComputed(script)
	reactiveVars := FindReactiveVars(script, refs, s.opts.Props)

	computedNames := make([]string, len(computedVars))
	names := make(map[string]bool, len(reactiveVars)+len(computedVars))
	for i, v := range computedVars {
		computedNames[i] = v.Name
		names[v.Name] = true
	}
	for _, v := range reactiveVars {
		names[v.Name] = true
	}

	marker := comp.Marker()
	reactive := TransformReactivity(script, reactiveVars, marker, hooks.HasUpdate(), computedNames)
	computed := TransformComputed(computedVars, reactiveVars, marker, names)

	events := CompileEvents(comp.Template, comp.ScopeID, names)
	directives := CompileDirectives(events.Template, comp.ScopeID, names)

	template, bindWarnings := bindReferences(directives.Template, marker, filename, reactiveVars, computedNames, consts)
	warnings = append(warnings, bindWarnings...)
	template = applyMarker(template, marker)
	template = instantiateChildren(template, marker, imports)

	warnings = append(warnings, cssLeakWarnings(comp, imports)...)

	childMarkers := make([]string, len(imports))
	for i, imp := range imports {
		childMarkers[i] = imp.Component.Marker()
	}
	scopedCSS := ""
	if comp.Style != "" {
		scopedCSS = c.scoper.Scope(comp.Style, marker, childMarkers, comp.StyleIsolated)
	}

	var js strings.Builder
	for _, frag := range []string{
		HookDeclarations(hooks),
		reactive.Backing,
		reactive.Functions,
		computed.Functions,
		reactive.Script,
		events.Functions,
		directives.Functions,
		computed.Wiring,
		HookExecution(hooks),
	} {
		if frag == "" {
			continue
		}
		js.WriteString(strings.TrimRight(frag, "\n"))
		js.WriteByte('\n')
	}

	result := &Result{
		HTML:      template,
		CSS:       scopedCSS,
		JSImports: jsImports,
		JSBody:    js.String(),
		Warnings:  warnings,
	}
	mergeImported(result, comp, imports)

	if err := s.normalize(result, comp); err != nil {
		return nil, err
	}
	s.minify(result)
	result.JS = joinJS(result.JSImports, result.JSBody)

	result.Meta = buildMeta(comp, imports, reactiveVars, computedVars, consts, hooks)
	return &compiled{component: comp, result: result}, nil
}

// mergeImported appends each child's CSS and JS in declaration order. A
// child whose components were all merged already (the same component
// imported through two paths) contributes nothing new and is skipped.
func mergeImported(result *Result, comp *Component, imports []*ResolvedImport) {
	included := map[string]bool{comp.Name: true}
	for _, imp := range imports {
		fresh := false
		for _, name := range imp.Result.Meta.Includes {
			if !included[name] {
				included[name] = true
				fresh = true
			}
		}
		if !fresh {
			continue
		}
		if imp.Result.CSS != "" {
			result.CSS = joinBlocks(result.CSS, imp.Result.CSS)
		}
		if imp.Result.JSBody != "" {
			result.JSBody = joinBlocks(result.JSBody, "/* "+imp.Component.Name+" */\n"+imp.Result.JSBody)
		}
		result.JSImports = mergeImportLines(result.JSImports, imp.Result.JSImports)
		result.Warnings = append(result.Warnings, imp.Result.Warnings...)
	}
}

func (s *session) normalize(result *Result, comp *Component) error {
	if s.compiler.normalizer == nil || result.JSBody == "" {
		return nil
	}
	body, imports, err := s.compiler.normalizer.Normalize(result.JSBody)
	if err != nil {
		return &Error{
			Kind:      ErrNormalize,
			Component: comp.Name,
			File:      comp.FilePath,
			Err:       fmt.Errorf("script normalization: %w", err),
		}
	}
	result.JSBody = body
	result.JSImports = mergeImportLines(result.JSImports, imports)
	return nil
}

// minify applies the optional minifier passes. A failing pass keeps the
// unminified artifact and records a warning.
func (s *session) minify(result *Result) {
	m := s.compiler.minifier
	if m == nil {
		return
	}
	warn := func(kind string, err error) {
		result.Warnings = append(result.Warnings, warningf("", "%s minification failed: %v", kind, err))
	}
	if s.opts.Minify || s.opts.MinifyHTML {
		if out, err := m.MinifyHTML(result.HTML); err != nil {
			warn("html", err)
		} else {
			result.HTML = out
		}
	}
	if (s.opts.Minify || s.opts.MinifyCSS) && result.CSS != "" {
		if out, err := m.MinifyCSS(result.CSS); err != nil {
			warn("css", err)
		} else {
			result.CSS = out
		}
	}
	if (s.opts.Minify || s.opts.MinifyJS) && result.JSBody != "" {
		if out, err := m.MinifyJS(result.JSBody); err != nil {
			warn("js", err)
		} else {
			result.JSBody = out
		}
	}
}

// cssLeakWarnings runs the leak heuristics: a style section that parses to
// nothing, and a non-isolated style with no children to scope into.
func cssLeakWarnings(comp *Component, imports []*ResolvedImport) []Warning {
	if strings.TrimSpace(comp.Style) == "" {
		return nil
	}
	var warnings []Warning
	if len(css.Parse(comp.Style)) == 0 {
		warnings = append(warnings, warningf(comp.FilePath, "style section contains no parseable rules"))
	}
	if !comp.StyleIsolated && len(imports) == 0 {
		warnings = append(warnings, Warning{
			File:       comp.FilePath,
			Message:    "style is not isolated but the component has no imported children",
			Suggestion: "use <style isolated> unless the styles must reach child components",
		})
	}
	return warnings
}

func buildMeta(comp *Component, imports []*ResolvedImport, reactive []ReactiveVar, computed []ComputedVar, consts Constants, hooks Hooks) Meta {
	meta := Meta{
		Name:      comp.Name,
		File:      comp.FilePath,
		ScopeID:   comp.ScopeID,
		IsStore:   comp.IsStore,
		Constants: consts,
		Hooks:     hooks.Counts(),
		Includes:  []string{comp.Name},
	}
	for _, v := range reactive {
		meta.Reactive = append(meta.Reactive, v.Name)
	}
	for _, v := range computed {
		meta.Computed = append(meta.Computed, v.Name)
	}
	seen := map[string]bool{comp.Name: true}
	for _, imp := range imports {
		meta.Imports = append(meta.Imports, ImportRef{
			Alias:      imp.Alias,
			Path:       imp.Path,
			InstanceID: imp.InstanceID,
		})
		for _, name := range imp.Result.Meta.Includes {
			if !seen[name] {
				seen[name] = true
				meta.Includes = append(meta.Includes, name)
			}
		}
	}
	return meta
}

// hoistImportLines splits top-level JavaScript import statements out of
// script text so they can be re-emitted ahead of the generated body.
func hoistImportLines(script string) (imports, rest string) {
	var imp, body []string
	for _, line := range strings.Split(script, "\n") {
		trimmed := strings.TrimSpace(line)
		if strings.HasPrefix(trimmed, "import ") || strings.HasPrefix(trimmed, "import\"") || strings.HasPrefix(trimmed, "import'") {
			imp = append(imp, trimmed)
			continue
		}
		body = append(body, line)
	}
	if len(imp) == 0 {
		return "", script
	}
	return strings.Join(imp, "\n") + "\n", strings.Join(body, "\n")
}

func mergeImportLines(existing, extra string) string {
	if strings.TrimSpace(extra) == "" {
		return existing
	}
	seen := make(map[string]bool)
	var out []string
	for _, line := range strings.Split(existing+"\n"+extra, "\n") {
		line = strings.TrimSpace(line)
		if line == "" || seen[line] {
			continue
		}
		seen[line] = true
		out = append(out, line)
	}
	if len(out) == 0 {
		return ""
	}
	return strings.Join(out, "\n") + "\n"
}

func joinBlocks(a, b string) string {
	if a == "" {
		return b
	}
	if b == "" {
		return a
	}
	return strings.TrimRight(a, "\n") + "\n" + b
}

func joinJS(imports, body string) string {
	if imports == "" {
		return body
	}
	return imports + body
}
