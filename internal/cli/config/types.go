// Package config loads CLI configuration for the leaf compiler.
//
// Configuration is layered: defaults, then leaf.yaml, then LEAF_
// environment variables, then command-line flags. Relative paths in the
// config file resolve against the project root (the directory holding
// leaf.yaml), not the current working directory.
package config

// Config holds all CLI configuration options.
type Config struct {
	SrcDir       string         `koanf:"src_dir"`
	OutDir       string         `koanf:"out_dir"`
	StatePath    string         `koanf:"state_path"`
	Port         int            `koanf:"port"`
	Verbose      bool           `koanf:"verbose"`
	Dev          bool           `koanf:"dev"`
	OutputFormat string         `koanf:"output"`
	Minify       bool           `koanf:"minify"`
	MinifyHTML   bool           `koanf:"minify_html"`
	MinifyCSS    bool           `koanf:"minify_css"`
	MinifyJS     bool           `koanf:"minify_js"`
	Exclude      []string       `koanf:"exclude"`
	Props        map[string]any `koanf:"props"`

	// ProjectRoot is the directory all relative paths resolve against.
	// It is inferred at load time, never read from the config file.
	ProjectRoot string `koanf:"-"`
}

// Default configuration values.
const (
	DefaultSrcDir    = "src"
	DefaultOutDir    = "dist"
	DefaultStateFile = ".leaf/state.db"
	DefaultPort      = 8080
	DefaultOutput    = "auto" // Auto-detect: TTY=text, non-TTY=markdown
)
