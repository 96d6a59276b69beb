package config

import (
	"fmt"
	"os"
)

// Validate checks if the configuration is valid.
func (c *Config) Validate() error {
	if c.SrcDir == "" {
		return fmt.Errorf("src_dir is required")
	}
	if c.OutDir == "" {
		return fmt.Errorf("out_dir is required")
	}
	if c.Port < 1 || c.Port > 65535 {
		return fmt.Errorf("port must be between 1 and 65535, got %d", c.Port)
	}
	return nil
}

// ValidateDirectories checks if required directories exist. Kept separate
// from Validate so help and version commands work in an empty directory.
func (c *Config) ValidateDirectories() error {
	if _, err := os.Stat(c.SrcDir); os.IsNotExist(err) {
		return fmt.Errorf("source directory does not exist: %s\nHint: Create the directory or use --src-dir to specify a different path", c.SrcDir)
	}
	return nil
}
