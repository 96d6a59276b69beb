// Package engine orchestrates full builds: discover component sources,
// assemble the import graph, compile every root component, write the
// output artifacts, and record the build in the state store.
package engine

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/leapstack-labs/leaf/internal/compiler"
	"github.com/leapstack-labs/leaf/internal/dag"
	"github.com/leapstack-labs/leaf/internal/loader"
	"github.com/leapstack-labs/leaf/internal/script"
	"github.com/leapstack-labs/leaf/internal/state"
)

// Config configures an Engine.
type Config struct {
	// SrcDir is the component source root.
	SrcDir string
	// OutDir receives the compiled artifacts, one html/css/js triple per
	// root component.
	OutDir string
	// Exclude are discovery glob patterns matched against relative paths.
	Exclude []string
	// StatePath is the build-history database; empty disables recording.
	StatePath string
	// Props are externally supplied values merged into every compile.
	Props map[string]any

	Minify     bool
	MinifyHTML bool
	MinifyCSS  bool
	MinifyJS   bool

	// Dev surfaces compile warnings through the logger.
	Dev bool

	Logger *slog.Logger
}

// CompiledComponent is one root component's build outcome.
type CompiledComponent struct {
	Name     string
	File     string
	ScopeID  string
	Warnings int
}

// BuildSummary describes one completed build.
type BuildSummary struct {
	BuildID    string
	Components []CompiledComponent
	Warnings   []compiler.Warning
	Duration   time.Duration
}

// Engine drives discovery and compilation over one project.
type Engine struct {
	cfg       Config
	logger    *slog.Logger
	discovery *loader.Discovery
	store     *state.Store

	// mu guards the discovery results below; the dev server rediscovers
	// from the watcher goroutine while request handlers read.
	mu      sync.RWMutex
	sources []loader.Source
	byName  map[string]loader.Source
	graph   *dag.Graph
}

// New creates an Engine. The state store is opened eagerly when a path is
// configured so a bad path fails the command, not the first build.
func New(cfg Config) (*Engine, error) {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}

	discovery, err := loader.NewDiscovery(cfg.SrcDir, cfg.Exclude)
	if err != nil {
		return nil, err
	}

	e := &Engine{
		cfg:       cfg,
		logger:    logger,
		discovery: discovery,
		byName:    make(map[string]loader.Source),
		graph:     dag.New(),
	}

	if cfg.StatePath != "" {
		if dir := filepath.Dir(cfg.StatePath); dir != "." && dir != "" {
			if err := os.MkdirAll(dir, 0o750); err != nil {
				return nil, fmt.Errorf("create state directory: %w", err)
			}
		}
		store, err := state.Open(cfg.StatePath)
		if err != nil {
			return nil, err
		}
		e.store = store
	}

	return e, nil
}

// Close releases the state store.
func (e *Engine) Close() error {
	if e.store == nil {
		return nil
	}
	return e.store.Close()
}

// Store exposes the build history, nil when disabled.
func (e *Engine) Store() *state.Store {
	return e.store
}

// Discover scans the source tree and rebuilds the import graph. Import
// declarations pointing outside the discovered set are left to compile
// time to report with full context.
func (e *Engine) Discover() ([]loader.Source, error) {
	sources, err := e.discovery.Discover()
	if err != nil {
		return nil, err
	}

	byPath := make(map[string]loader.Source, len(sources))
	byName := make(map[string]loader.Source, len(sources))
	graph := dag.New()
	for _, src := range sources {
		if prev, dup := byName[src.Name]; dup {
			return nil, fmt.Errorf("duplicate component name %q: %s and %s", src.Name, prev.RelPath, src.RelPath)
		}
		byPath[src.Path] = src
		byName[src.Name] = src
		graph.AddComponent(src.Name, src)
	}

	osLoader := loader.OSLoader{}
	for _, src := range sources {
		text, err := osLoader.Load(src.Path)
		if err != nil {
			return nil, fmt.Errorf("read %s: %w", src.RelPath, err)
		}
		comp, _, err := compiler.ParseComponent(text, src.Path)
		if err != nil {
			return nil, fmt.Errorf("parse %s: %w", src.RelPath, err)
		}
		for _, imp := range comp.Imports {
			target := filepath.Clean(filepath.Join(filepath.Dir(src.Path), imp.Path))
			child, ok := byPath[target]
			if !ok {
				continue
			}
			if err := graph.AddImport(src.Name, child.Name); err != nil {
				return nil, err
			}
		}
	}

	e.mu.Lock()
	e.sources = sources
	e.byName = byName
	e.graph = graph
	e.mu.Unlock()
	e.logger.Debug("discovered components", "count", len(sources))
	return sources, nil
}

// Graph returns the import graph from the last discovery.
func (e *Engine) Graph() *dag.Graph {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.graph
}

// Sources returns the last discovered sources.
func (e *Engine) Sources() []loader.Source {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.sources
}

// Lookup finds a discovered component by name.
func (e *Engine) Lookup(name string) (loader.Source, bool) {
	e.mu.RLock()
	defer e.mu.RUnlock()
	src, ok := e.byName[name]
	return src, ok
}

// CompileComponent compiles one discovered component by name with a fresh
// compiler session.
func (e *Engine) CompileComponent(name string) (*compiler.Result, error) {
	src, ok := e.Lookup(name)
	if !ok {
		return nil, fmt.Errorf("unknown component %q", name)
	}
	return e.newCompiler().CompileFile(src.Path, e.options())
}

// Build discovers, compiles every root component, writes artifacts, and
// records the outcome. The first compile error aborts the build; it is
// still recorded before being returned.
func (e *Engine) Build() (*BuildSummary, error) {
	started := time.Now()

	if _, err := e.Discover(); err != nil {
		return nil, err
	}
	graph := e.Graph()
	if cyclic, cycle := graph.HasCycle(); cyclic {
		return nil, fmt.Errorf("import cycle: %v", cycle)
	}

	var build *state.Build
	if e.store != nil {
		var err error
		build, err = e.store.StartBuild()
		if err != nil {
			return nil, err
		}
	}

	summary := &BuildSummary{}
	if build != nil {
		summary.BuildID = build.ID
	}

	comp := e.newCompiler()
	opts := e.options()
	for _, name := range graph.Roots() {
		src, _ := e.Lookup(name)
		result, err := comp.CompileFile(src.Path, opts)
		if err != nil {
			e.recordFinish(build, state.StatusFailed, summary, err)
			return nil, err
		}
		if err := e.writeArtifacts(name, result); err != nil {
			e.recordFinish(build, state.StatusFailed, summary, err)
			return nil, err
		}

		summary.Components = append(summary.Components, CompiledComponent{
			Name:     name,
			File:     src.RelPath,
			ScopeID:  result.Meta.ScopeID,
			Warnings: len(result.Warnings),
		})
		summary.Warnings = append(summary.Warnings, result.Warnings...)

		if build != nil {
			_ = e.store.RecordComponent(state.BuildComponent{
				BuildID:  build.ID,
				Name:     name,
				File:     src.RelPath,
				ScopeID:  result.Meta.ScopeID,
				Warnings: len(result.Warnings),
			})
		}
		e.logger.Info("compiled", "component", name, "warnings", len(result.Warnings))
	}

	e.recordFinish(build, state.StatusSuccess, summary, nil)
	summary.Duration = time.Since(started)
	return summary, nil
}

func (e *Engine) recordFinish(build *state.Build, status state.BuildStatus, summary *BuildSummary, buildErr error) {
	if build == nil {
		return
	}
	msg := ""
	if buildErr != nil {
		msg = buildErr.Error()
	}
	if err := e.store.FinishBuild(build.ID, status, len(summary.Components), len(summary.Warnings), msg); err != nil {
		e.logger.Error("failed to record build", "error", err)
	}
}

// writeArtifacts writes a component's html/css/js triple into the output
// directory. Empty artifacts are skipped so stores emit only their js.
func (e *Engine) writeArtifacts(name string, result *compiler.Result) error {
	if err := os.MkdirAll(e.cfg.OutDir, 0o750); err != nil {
		return fmt.Errorf("create output directory: %w", err)
	}
	for ext, content := range map[string]string{
		".html": result.HTML,
		".css":  result.CSS,
		".js":   result.JS,
	} {
		if content == "" {
			continue
		}
		path := filepath.Join(e.cfg.OutDir, name+ext)
		if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
			return fmt.Errorf("write %s: %w", path, err)
		}
	}
	return nil
}

// newCompiler builds a fresh compiler so session caches never leak
// between builds.
func (e *Engine) newCompiler() *compiler.Compiler {
	pipeline := script.NewPipeline()
	return compiler.New(compiler.Config{
		Loader:     loader.OSLoader{},
		Normalizer: pipeline,
		Minifier:   pipeline,
		Logger:     e.logger,
	})
}

func (e *Engine) options() compiler.Options {
	return compiler.Options{
		Minify:     e.cfg.Minify,
		MinifyHTML: e.cfg.MinifyHTML,
		MinifyCSS:  e.cfg.MinifyCSS,
		MinifyJS:   e.cfg.MinifyJS,
		Dev:        e.cfg.Dev,
		Props:      e.cfg.Props,
	}
}
