// Package server is the development server: it compiles components per
// request, serves preview pages, and pushes a reload signal to open pages
// when a source file changes.
package server

import (
	"context"
	"fmt"
	"html"
	"io/fs"
	"log/slog"
	"net"
	"net/http"
	"path/filepath"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/starfederation/datastar-go/datastar"
	"golang.org/x/sync/errgroup"

	"github.com/leapstack-labs/leaf/internal/engine"
	"github.com/leapstack-labs/leaf/internal/loader"
)

const datastarCDN = "https://cdn.jsdelivr.net/gh/starfederation/datastar@v1.0.0/bundles/datastar.js"

// debounceDelay coalesces editor write bursts into one reload.
const debounceDelay = 100 * time.Millisecond

// Config holds server settings.
type Config struct {
	Engine *engine.Engine
	Port   int
	// SrcDir is watched recursively for component changes.
	SrcDir string
	// Watch enables the file watcher; off, pages still work but never
	// reload themselves.
	Watch  bool
	Logger *slog.Logger
}

// Server is the development server.
type Server struct {
	engine   *engine.Engine
	port     int
	srcDir   string
	watch    bool
	logger   *slog.Logger
	notifier *Notifier

	registry        *prometheus.Registry
	compileTotal    *prometheus.CounterVec
	compileDuration prometheus.Histogram
}

// New creates a Server. Metrics live on a per-server registry so two
// servers in one process never collide.
func New(cfg Config) *Server {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}

	registry := prometheus.NewRegistry()
	factory := promauto.With(registry)
	return &Server{
		engine:   cfg.Engine,
		port:     cfg.Port,
		srcDir:   cfg.SrcDir,
		watch:    cfg.Watch,
		logger:   logger,
		notifier: NewNotifier(),
		registry: registry,
		compileTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "leaf_compiles_total",
			Help: "Component compiles served, by outcome.",
		}, []string{"outcome"}),
		compileDuration: factory.NewHistogram(prometheus.HistogramOpts{
			Name:    "leaf_compile_duration_seconds",
			Help:    "Time spent compiling one component.",
			Buckets: prometheus.DefBuckets,
		}),
	}
}

// Serve runs the HTTP server and the watcher until ctx is cancelled.
func (s *Server) Serve(ctx context.Context) error {
	if _, err := s.engine.Discover(); err != nil {
		return err
	}

	addr := fmt.Sprintf(":%d", s.port)
	s.logger.Info("dev server listening", "addr", fmt.Sprintf("http://localhost:%d", s.port))

	eg, egctx := errgroup.WithContext(ctx)

	srv := &http.Server{
		Addr:    addr,
		Handler: s.routes(),
		BaseContext: func(_ net.Listener) context.Context {
			return egctx
		},
		ReadHeaderTimeout: 10 * time.Second,
	}

	if s.watch {
		eg.Go(func() error {
			return s.watchSources(egctx)
		})
	}

	eg.Go(func() error {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			return fmt.Errorf("dev server: %w", err)
		}
		return nil
	})

	eg.Go(func() error {
		<-egctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		s.logger.Debug("shutting down dev server")
		return srv.Shutdown(shutdownCtx)
	})

	return eg.Wait()
}

// Notifier exposes the reload notifier, mainly for tests.
func (s *Server) Notifier() *Notifier {
	return s.notifier
}

func (s *Server) routes() http.Handler {
	r := chi.NewMux()
	r.Use(
		middleware.Logger,
		middleware.Recoverer,
		middleware.Compress(5),
	)

	r.Get("/", s.handleIndex)
	r.Get("/c/{name}", s.handlePreview)
	r.Get("/c/{name}.css", s.handleArtifact("css"))
	r.Get("/c/{name}.js", s.handleArtifact("js"))
	r.Get("/events", s.handleReloadEvents)
	r.Method(http.MethodGet, "/metrics", promhttp.HandlerFor(s.registry, promhttp.HandlerOpts{}))
	return r
}

// handleIndex lists the discovered components with preview links.
func (s *Server) handleIndex(w http.ResponseWriter, _ *http.Request) {
	var b strings.Builder
	b.WriteString("<!DOCTYPE html>\n<html><head><title>leaf</title></head><body>\n")
	b.WriteString("<h1>Components</h1>\n<ul>\n")
	for _, src := range s.engine.Sources() {
		name := html.EscapeString(src.Name)
		fmt.Fprintf(&b, `<li><a href="/c/%s">%s</a> <small>%s</small></li>`+"\n",
			name, name, html.EscapeString(src.RelPath))
	}
	b.WriteString("</ul>\n</body></html>\n")

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	_, _ = w.Write([]byte(b.String()))
}

// handlePreview compiles the component and assembles a full page from its
// three artifacts, plus the reload wiring.
func (s *Server) handlePreview(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "name")
	result, err := s.compile(name)
	if err != nil {
		http.Error(w, err.Error(), http.StatusUnprocessableEntity)
		return
	}

	var b strings.Builder
	b.WriteString("<!DOCTYPE html>\n<html><head>\n")
	fmt.Fprintf(&b, "<title>%s</title>\n", html.EscapeString(name))
	fmt.Fprintf(&b, "<script type=\"module\" src=\"%s\"></script>\n", datastarCDN)
	if result.CSS != "" {
		fmt.Fprintf(&b, "<style>\n%s</style>\n", result.CSS)
	}
	b.WriteString("</head>\n<body data-on-load=\"@get('/events')\">\n")
	b.WriteString(result.HTML)
	if result.JS != "" {
		fmt.Fprintf(&b, "\n<script>\n%s</script>\n", result.JS)
	}
	b.WriteString("</body></html>\n")

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	_, _ = w.Write([]byte(b.String()))
}

// handleArtifact serves one raw compiled artifact.
func (s *Server) handleArtifact(kind string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		name := chi.URLParam(r, "name")
		result, err := s.compile(name)
		if err != nil {
			http.Error(w, err.Error(), http.StatusUnprocessableEntity)
			return
		}
		switch kind {
		case "css":
			w.Header().Set("Content-Type", "text/css; charset=utf-8")
			_, _ = w.Write([]byte(result.CSS))
		case "js":
			w.Header().Set("Content-Type", "text/javascript; charset=utf-8")
			_, _ = w.Write([]byte(result.JS))
		}
	}
}

// handleReloadEvents is the long-lived SSE connection a preview page
// opens; a notifier ping turns into a page reload.
func (s *Server) handleReloadEvents(w http.ResponseWriter, r *http.Request) {
	sse := datastar.NewSSE(w, r)

	updates := s.notifier.Subscribe()
	defer s.notifier.Unsubscribe(updates)

	for {
		select {
		case <-r.Context().Done():
			return
		case <-updates:
			if err := sse.ExecuteScript("window.location.reload()"); err != nil {
				return
			}
		}
	}
}

func (s *Server) compile(name string) (result *compileResult, err error) {
	started := time.Now()
	res, err := s.engine.CompileComponent(name)
	s.compileDuration.Observe(time.Since(started).Seconds())
	if err != nil {
		s.compileTotal.WithLabelValues("error").Inc()
		return nil, err
	}
	s.compileTotal.WithLabelValues("ok").Inc()
	return &compileResult{HTML: res.HTML, CSS: res.CSS, JS: res.JS}, nil
}

type compileResult struct {
	HTML string
	CSS  string
	JS   string
}

// watchSources watches the source tree and, after a debounce window,
// re-discovers and pings every open page.
func (s *Server) watchSources(ctx context.Context) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer func() { _ = watcher.Close() }()

	if err := watchRecursive(watcher, s.srcDir); err != nil {
		s.logger.Error("failed to watch source directory", "error", err)
		// Keep serving without reload rather than killing the server.
	}

	var debounce *time.Timer
	for {
		select {
		case <-ctx.Done():
			return nil

		case event := <-watcher.Events:
			if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Remove|fsnotify.Rename) == 0 {
				continue
			}
			if filepath.Ext(event.Name) != loader.Ext {
				continue
			}
			if debounce != nil {
				debounce.Stop()
			}
			debounce = time.AfterFunc(debounceDelay, func() {
				s.logger.Debug("source changed", "file", event.Name)
				if _, err := s.engine.Discover(); err != nil {
					s.logger.Error("discover failed", "error", err)
				}
				s.notifier.Broadcast()
			})

		case err := <-watcher.Errors:
			s.logger.Error("watcher error", "error", err)
		}
	}
}

func watchRecursive(watcher *fsnotify.Watcher, dir string) error {
	return filepath.WalkDir(dir, func(path string, entry fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if entry.IsDir() {
			return watcher.Add(path)
		}
		return nil
	})
}
