package config

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/confmap"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/posflag"
	"github.com/knadh/koanf/v2"
	"github.com/spf13/pflag"
)

// loggerKey is used to store the logger in context. Shared with the cli
// package via LoggerKey so commands can fetch it without an import cycle.
type loggerKey struct{}

// maxUpwardSearchLevels limits how far up the directory tree to search
// for config files.
const maxUpwardSearchLevels = 10

// Package-level koanf instance and config file tracking.
var (
	k              = koanf.New(".")
	configFileUsed string
	currentConfig  *Config
)

// findConfigFile finds the config file to use.
// Priority: explicit path > leaf.yaml > leaf.yml
func findConfigFile(explicit string) string {
	if explicit != "" {
		return explicit
	}
	if _, err := os.Stat("leaf.yaml"); err == nil {
		return "leaf.yaml"
	}
	if _, err := os.Stat("leaf.yml"); err == nil {
		return "leaf.yml"
	}
	return ""
}

// configExistsIn checks if a leaf config file exists in the directory.
func configExistsIn(dir string) bool {
	for _, name := range []string{"leaf.yaml", "leaf.yml"} {
		if _, err := os.Stat(filepath.Join(dir, name)); err == nil {
			return true
		}
	}
	return false
}

// findProjectRootUpward searches upward from startDir for a leaf config
// file. Returns empty string if not found within maxUpwardSearchLevels.
func findProjectRootUpward(startDir string) string {
	dir := startDir
	for i := 0; i < maxUpwardSearchLevels; i++ {
		if configExistsIn(dir) {
			return dir
		}

		parent := filepath.Dir(dir)
		if parent == dir {
			// Reached filesystem root
			break
		}
		dir = parent
	}
	return ""
}

// inferProjectRoot determines the project root from CLI flags and the
// filesystem. Priority:
//  1. Infer from --src-dir (parent if it contains a config or is named "src")
//  2. Search upward from CWD for leaf.yaml
//  3. Current working directory
func inferProjectRoot(flags *pflag.FlagSet) string {
	if flags != nil {
		if srcDir, _ := flags.GetString("src-dir"); srcDir != "" && flags.Changed("src-dir") {
			absSrc, err := filepath.Abs(srcDir)
			if err == nil {
				parent := filepath.Dir(absSrc)

				if configExistsIn(parent) {
					return parent
				}

				// If the folder is named "src", assume parent is root
				if filepath.Base(absSrc) == "src" {
					return parent
				}
			}
		}
	}

	if cwd, err := os.Getwd(); err == nil {
		if root := findProjectRootUpward(cwd); root != "" {
			return root
		}
	}

	cwd, _ := os.Getwd()
	if cwd == "" {
		cwd = "."
	}
	return cwd
}

// resolvePathRelativeTo resolves a path relative to baseDir if it's not
// absolute. Returns the path unchanged if it's empty or already absolute.
func resolvePathRelativeTo(path, baseDir string) string {
	if path == "" || filepath.IsAbs(path) {
		return path
	}
	return filepath.Join(baseDir, path)
}

// ResetConfig resets the koanf instance. Used for testing.
func ResetConfig() {
	k = koanf.New(".")
	configFileUsed = ""
	currentConfig = nil
}

// LoadConfig loads configuration from file, environment variables, and
// flags. Precedence (highest to lowest): flags > env vars > config file
// > defaults.
func LoadConfig(cfgFile string, flags *pflag.FlagSet) (*Config, error) {
	// Reset koanf for fresh load
	k = koanf.New(".")

	// Infer project root from flags before loading config. This enables
	// the anchor pattern where --src-dir testdata/src implies the
	// project root is testdata/.
	projectRoot := inferProjectRoot(flags)

	// Paths explicitly provided as flags are relative to CWD, not the
	// project root. Convert them to absolute up front so they are not
	// re-resolved against an inferred root below.
	var flagSrcDir, flagOutDir, flagStatePath string
	if flags != nil {
		if flags.Changed("src-dir") {
			if v, _ := flags.GetString("src-dir"); v != "" {
				flagSrcDir, _ = filepath.Abs(v)
			}
		}
		if flags.Changed("out-dir") {
			if v, _ := flags.GetString("out-dir"); v != "" {
				flagOutDir, _ = filepath.Abs(v)
			}
		}
		if flags.Changed("state") {
			if v, _ := flags.GetString("state"); v != "" && v != ":memory:" {
				flagStatePath, _ = filepath.Abs(v)
			}
		}
	}

	// If an explicit config file is provided and no flag-based inference
	// happened, use the config file's directory as the project root.
	if cfgFile != "" && projectRoot == inferProjectRoot(nil) {
		if absPath, err := filepath.Abs(cfgFile); err == nil {
			projectRoot = filepath.Dir(absPath)
		}
	}

	// 1. Load defaults
	if err := k.Load(confmap.Provider(map[string]interface{}{
		"src_dir":     DefaultSrcDir,
		"out_dir":     DefaultOutDir,
		"state_path":  DefaultStateFile,
		"port":        DefaultPort,
		"verbose":     false,
		"dev":         false,
		"minify":      false,
		"minify_html": false,
		"minify_css":  false,
		"minify_js":   false,
		"output":      DefaultOutput,
	}, "."), nil); err != nil {
		return nil, fmt.Errorf("failed to load defaults: %w", err)
	}

	// 2. Find and load the config file, searching the project root when
	// no explicit path was given.
	if cfgFile == "" {
		for _, name := range []string{"leaf.yaml", "leaf.yml"} {
			candidate := filepath.Join(projectRoot, name)
			if _, err := os.Stat(candidate); err == nil {
				cfgFile = candidate
				break
			}
		}
	}
	configFileUsed = findConfigFile(cfgFile)
	if configFileUsed != "" {
		if err := k.Load(file.Provider(configFileUsed), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("error reading config file %s: %w", configFileUsed, err)
		}
	}

	// 3. Load environment variables (LEAF_ prefix)
	// Transform: LEAF_SRC_DIR -> src_dir
	if err := k.Load(env.Provider("LEAF_", ".", func(s string) string {
		return strings.ToLower(strings.TrimPrefix(s, "LEAF_"))
	}), nil); err != nil {
		return nil, fmt.Errorf("failed to load env vars: %w", err)
	}

	// 4. Load flags (highest priority)
	if flags != nil {
		if err := k.Load(posflag.ProviderWithFlag(flags, ".", k, func(f *pflag.Flag) (string, interface{}) {
			// Only load flags that were explicitly set
			if !f.Changed {
				return "", nil
			}
			// Transform kebab-case to snake_case for config keys
			key := strings.ReplaceAll(f.Name, "-", "_")

			// The CLI uses --state for brevity and --prop for a single
			// key=value pair; the config keys are state_path and props.
			switch key {
			case "state":
				return "state_path", posflag.FlagVal(flags, f)
			case "prop":
				return "props", posflag.FlagVal(flags, f)
			}

			return key, posflag.FlagVal(flags, f)
		}), nil); err != nil {
			return nil, fmt.Errorf("failed to load flags: %w", err)
		}
	}

	// 5. Unmarshal into Config struct
	var cfg Config
	if err := k.Unmarshal("", &cfg); err != nil {
		return nil, fmt.Errorf("unable to decode config: %w", err)
	}

	// 6. Set project root and resolve relative paths against it. Paths
	// that came in as flags keep the absolute form computed above.
	cfg.ProjectRoot = projectRoot

	if flagSrcDir != "" {
		cfg.SrcDir = flagSrcDir
	} else {
		cfg.SrcDir = resolvePathRelativeTo(cfg.SrcDir, projectRoot)
	}
	if flagOutDir != "" {
		cfg.OutDir = flagOutDir
	} else {
		cfg.OutDir = resolvePathRelativeTo(cfg.OutDir, projectRoot)
	}
	if flagStatePath != "" {
		cfg.StatePath = flagStatePath
	} else if cfg.StatePath != ":memory:" {
		cfg.StatePath = resolvePathRelativeTo(cfg.StatePath, projectRoot)
	}

	// --minify is shorthand for all three artifact kinds.
	if cfg.Minify {
		cfg.MinifyHTML = true
		cfg.MinifyCSS = true
		cfg.MinifyJS = true
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	// Store config for access by commands
	currentConfig = &cfg

	return &cfg, nil
}

// GetConfigFileUsed returns the path to the config file being used, if any.
func GetConfigFileUsed() string {
	return configFileUsed
}

// GetCurrentConfig returns the currently loaded configuration.
// This is available after LoadConfig is called.
func GetCurrentConfig() *Config {
	return currentConfig
}

// LoggerKey returns the context key used for storing the logger. This
// allows the commands package to retrieve the logger from context
// without creating an import cycle with the cli package.
func LoggerKey() interface{} {
	return loggerKey{}
}

// GetLogger retrieves the logger from the command context.
func GetLogger(ctx context.Context) *slog.Logger {
	if l, ok := ctx.Value(loggerKey{}).(*slog.Logger); ok {
		return l
	}
	// Return discard logger as safe fallback
	return slog.New(slog.DiscardHandler)
}
