// Package cli provides the command-line interface for the leaf compiler.
package cli

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/leapstack-labs/leaf/internal/cli/commands"
	"github.com/leapstack-labs/leaf/internal/cli/config"
	"github.com/spf13/cobra"
)

var (
	cfgFile string
	cfg     *config.Config
)

// Version information (set at build time).
var (
	Version   = "0.1.0"
	BuildDate = "unknown"
	GitCommit = "unknown"
)

// configKey is used to store config in context.
type configKey struct{}

// NewRootCmd creates and returns the root command.
func NewRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "leaf",
		Short: "Leaf - UI Component Compiler",
		Long: `Leaf is an ahead-of-time compiler for single-file UI components.

Components combine markup, script, and style in one .leaf file with
reactive variables, computed values, and lifecycle hooks. Leaf compiles
them into plain HTML, CSS, and JS with no runtime library.`,
		Version: Version,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			// Skip config loading for help and completion commands
			if cmd.Name() == "help" || cmd.Name() == "completion" || cmd.Name() == "__complete" {
				return nil
			}

			var err error
			cfg, err = config.LoadConfig(cfgFile, cmd.Root().PersistentFlags())
			if err != nil {
				return err
			}

			// Store config in context
			ctx := context.WithValue(cmd.Context(), configKey{}, cfg)

			// Build the logger and store it under the shared key so
			// commands can fetch it without importing this package.
			level := slog.LevelInfo
			if cfg.Verbose {
				level = slog.LevelDebug
			}
			logger := slog.New(slog.NewTextHandler(cmd.ErrOrStderr(), &slog.HandlerOptions{Level: level}))
			ctx = context.WithValue(ctx, config.LoggerKey(), logger)
			cmd.SetContext(ctx)

			// Print config file used (if verbose)
			if cfg.Verbose {
				if configFile := config.GetConfigFileUsed(); configFile != "" {
					fmt.Fprintf(os.Stderr, "Using config file: %s\n", configFile)
				}
			}

			return nil
		},
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	// Set version template
	rootCmd.SetVersionTemplate(`{{.Name}} {{.Version}}
Built with Go and esbuild
`)

	// Global persistent flags
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default: ./leaf.yaml)")
	rootCmd.PersistentFlags().String("src-dir", "", "Path to component sources")
	rootCmd.PersistentFlags().String("out-dir", "", "Path to the artifact output directory")
	rootCmd.PersistentFlags().String("state", "", "Path to the build history database")
	rootCmd.PersistentFlags().Int("port", 0, "Development server port")
	rootCmd.PersistentFlags().BoolP("verbose", "v", false, "Verbose output")
	rootCmd.PersistentFlags().Bool("dev", false, "Development mode (surface compile warnings)")
	rootCmd.PersistentFlags().Bool("minify", false, "Minify all artifacts")
	rootCmd.PersistentFlags().Bool("minify-html", false, "Minify HTML artifacts")
	rootCmd.PersistentFlags().Bool("minify-css", false, "Minify CSS artifacts")
	rootCmd.PersistentFlags().Bool("minify-js", false, "Minify JS artifacts")
	rootCmd.PersistentFlags().StringSlice("exclude", nil, "Discovery exclude patterns (glob, repeatable)")
	rootCmd.PersistentFlags().StringToString("prop", nil, "Prop override as key=value (repeatable)")
	rootCmd.PersistentFlags().StringP("output", "o", "", "Output format (auto|text|markdown|json)")

	// Register completion for output flag
	_ = rootCmd.RegisterFlagCompletionFunc("output", func(_ *cobra.Command, _ []string, _ string) ([]string, cobra.ShellCompDirective) {
		return []string{"auto", "text", "markdown", "json"}, cobra.ShellCompDirectiveNoFileComp
	})

	// Add subcommands
	rootCmd.AddCommand(commands.NewVersionCommand(Version))
	rootCmd.AddCommand(commands.NewBuildCommand())
	rootCmd.AddCommand(commands.NewListCommand())
	rootCmd.AddCommand(commands.NewGraphCommand())
	rootCmd.AddCommand(commands.NewServeCommand())
	rootCmd.AddCommand(commands.NewBuildsCommand())
	rootCmd.AddCommand(NewCompletionCommand())

	return rootCmd
}

// Execute runs the root command.
func Execute() error {
	rootCmd := NewRootCmd()
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return err
	}
	return nil
}

// GetConfig retrieves the config from the command context.
func GetConfig(ctx context.Context) *config.Config {
	if c, ok := ctx.Value(configKey{}).(*config.Config); ok {
		return c
	}
	// Return default config if none in context
	return &config.Config{
		SrcDir:    config.DefaultSrcDir,
		OutDir:    config.DefaultOutDir,
		StatePath: config.DefaultStateFile,
		Port:      config.DefaultPort,
	}
}

// NewCompletionCommand creates the completion command.
func NewCompletionCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "completion [bash|zsh|fish|powershell]",
		Short: "Generate shell completion scripts",
		Long: `Generate shell completion scripts for Leaf.

To load completions:

Bash:
  $ source <(leaf completion bash)

  # To load completions for each session, execute once:
  # Linux:
  $ leaf completion bash > /etc/bash_completion.d/leaf
  # macOS:
  $ leaf completion bash > $(brew --prefix)/etc/bash_completion.d/leaf

Zsh:
  # If shell completion is not already enabled in your environment,
  # you will need to enable it. Execute the following once:
  $ echo "autoload -U compinit; compinit" >> ~/.zshrc

  # To load completions for each session, execute once:
  $ leaf completion zsh > "${fpath[1]}/_leaf"

  # You will need to start a new shell for this setup to take effect.

Fish:
  $ leaf completion fish | source

  # To load completions for each session, execute once:
  $ leaf completion fish > ~/.config/fish/completions/leaf.fish

PowerShell:
  PS> leaf completion powershell | Out-String | Invoke-Expression

  # To load completions for every new session, run:
  PS> leaf completion powershell > leaf.ps1
  # and source this file from your PowerShell profile.
`,
		DisableFlagsInUseLine: true,
		ValidArgs:             []string{"bash", "zsh", "fish", "powershell"},
		Args:                  cobra.MatchAll(cobra.ExactArgs(1), cobra.OnlyValidArgs),
		RunE: func(cmd *cobra.Command, args []string) error {
			switch args[0] {
			case "bash":
				return cmd.Root().GenBashCompletion(os.Stdout)
			case "zsh":
				return cmd.Root().GenZshCompletion(os.Stdout)
			case "fish":
				return cmd.Root().GenFishCompletion(os.Stdout, true)
			case "powershell":
				return cmd.Root().GenPowerShellCompletionWithDesc(os.Stdout)
			}
			return nil
		},
	}
	return cmd
}
