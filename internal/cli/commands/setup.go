package commands

import (
	"log/slog"
	"os"
	"strconv"
	"strings"

	"github.com/leapstack-labs/leaf/internal/cli/config"
	"github.com/leapstack-labs/leaf/internal/cli/output"
	"github.com/leapstack-labs/leaf/internal/engine"
	"github.com/spf13/cobra"
)

// CommandContext holds common dependencies for CLI commands.
type CommandContext struct {
	Cfg      *config.Config
	Logger   *slog.Logger
	Engine   *engine.Engine
	Renderer *output.Renderer
}

// NewCommandContext creates a CommandContext with engine and renderer.
// Returns the context and a cleanup function that must be called
// (typically via defer).
func NewCommandContext(cmd *cobra.Command) (*CommandContext, func(), error) {
	cfg := getConfig()
	logger := config.GetLogger(cmd.Context())

	eng, err := engine.New(engineConfig(cfg, logger))
	if err != nil {
		return nil, nil, err
	}

	mode := output.Mode(cfg.OutputFormat)
	r := output.NewRenderer(cmd.OutOrStdout(), cmd.ErrOrStderr(), mode)

	cleanup := func() {
		_ = eng.Close()
	}

	return &CommandContext{
		Cfg:      cfg,
		Logger:   logger,
		Engine:   eng,
		Renderer: r,
	}, cleanup, nil
}

// NewCommandContextWithoutEngine creates a CommandContext without an
// engine. Useful for commands that don't touch source files.
func NewCommandContextWithoutEngine(cmd *cobra.Command) *CommandContext {
	cfg := getConfig()
	logger := config.GetLogger(cmd.Context())
	mode := output.Mode(cfg.OutputFormat)
	r := output.NewRenderer(cmd.OutOrStdout(), cmd.ErrOrStderr(), mode)

	return &CommandContext{
		Cfg:      cfg,
		Logger:   logger,
		Renderer: r,
	}
}

// engineConfig maps the CLI configuration onto the engine's.
func engineConfig(cfg *config.Config, logger *slog.Logger) engine.Config {
	return engine.Config{
		SrcDir:     cfg.SrcDir,
		OutDir:     cfg.OutDir,
		Exclude:    cfg.Exclude,
		StatePath:  cfg.StatePath,
		Props:      cfg.Props,
		Minify:     cfg.Minify,
		MinifyHTML: cfg.MinifyHTML,
		MinifyCSS:  cfg.MinifyCSS,
		MinifyJS:   cfg.MinifyJS,
		Dev:        cfg.Dev,
		Logger:     logger,
	}
}

// getConfig returns the current configuration. It uses the loaded config
// when available, otherwise falls back to environment variables so
// commands stay usable when invoked outside the root command.
func getConfig() *config.Config {
	if cfg := config.GetCurrentConfig(); cfg != nil {
		return cfg
	}

	port := config.DefaultPort
	if v := os.Getenv("LEAF_PORT"); v != "" {
		if p, err := strconv.Atoi(v); err == nil {
			port = p
		}
	}

	return &config.Config{
		SrcDir:       getEnvOrDefault("LEAF_SRC_DIR", config.DefaultSrcDir),
		OutDir:       getEnvOrDefault("LEAF_OUT_DIR", config.DefaultOutDir),
		StatePath:    getEnvOrDefault("LEAF_STATE_PATH", config.DefaultStateFile),
		Port:         port,
		Verbose:      os.Getenv("LEAF_VERBOSE") == "true",
		Dev:          os.Getenv("LEAF_DEV") == "true",
		OutputFormat: os.Getenv("LEAF_OUTPUT"),
	}
}

func getEnvOrDefault(key, defaultVal string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return defaultVal
}

// joinOrDash joins names with commas, or returns "-" for an empty list.
// Keeps table cells aligned without empty gaps.
func joinOrDash(names []string) string {
	if len(names) == 0 {
		return "-"
	}
	return strings.Join(names, ", ")
}
