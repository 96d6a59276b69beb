package commands

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/leapstack-labs/leaf/internal/cli/output"
	"github.com/leapstack-labs/leaf/internal/compiler"
	"github.com/leapstack-labs/leaf/internal/engine"
	"github.com/spf13/cobra"
)

// NewBuildCommand creates the build command.
func NewBuildCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "build",
		Short: "Compile all components to static artifacts",
		Long: `Compile every root component in the source tree and write the
resulting HTML, CSS, and JS artifacts to the output directory.

Components imported by other components are compiled inline into their
importers and do not produce artifacts of their own.

Output adapts to environment:
  - Terminal: Styled, colored output
  - Piped/Scripted: Markdown format (agent-friendly)`,
		Example: `  # Build the project
  leaf build

  # Build with minified artifacts
  leaf build --minify

  # Build with a prop override
  leaf build --prop page=1

  # Build and emit a JSON report
  leaf build --output json`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runBuild(cmd)
		},
	}

	return cmd
}

func runBuild(cmd *cobra.Command) error {
	cmdCtx, cleanup, err := NewCommandContext(cmd)
	if err != nil {
		return err
	}
	defer cleanup()

	if err := cmdCtx.Cfg.ValidateDirectories(); err != nil {
		return err
	}

	eng := cmdCtx.Engine
	r := cmdCtx.Renderer

	if _, err := eng.Discover(); err != nil {
		return fmt.Errorf("failed to discover components: %w", err)
	}

	summary, err := eng.Build()
	if err != nil {
		return err
	}

	switch r.EffectiveMode() {
	case output.ModeJSON:
		return buildJSON(r, summary)
	case output.ModeMarkdown:
		return buildMarkdown(r, cmdCtx, summary)
	default:
		return buildText(r, cmdCtx, summary)
	}
}

func buildText(r *output.Renderer, cmdCtx *CommandContext, summary *engine.BuildSummary) error {
	styles := r.Styles()

	r.Header(1, fmt.Sprintf("Built %d components", len(summary.Components)))

	for _, c := range summary.Components {
		line := fmt.Sprintf("  %s %s", styles.Success.Render("✓"), styles.ComponentName.Render(c.Name))
		if c.Warnings > 0 {
			line += " " + styles.Warning.Render(fmt.Sprintf("(%d warnings)", c.Warnings))
		}
		r.Println(line)
	}

	printWarnings(r, summary.Warnings)

	r.Println("")
	r.Println(styles.Muted.Render(fmt.Sprintf("Output: %s", cmdCtx.Cfg.OutDir)))
	r.Println(styles.Muted.Render(fmt.Sprintf("Completed in %s", summary.Duration.Round(time.Millisecond))))

	return nil
}

func buildMarkdown(r *output.Renderer, cmdCtx *CommandContext, summary *engine.BuildSummary) error {
	r.Println(output.FormatHeader(1, fmt.Sprintf("Built %d components", len(summary.Components))))
	r.Println("")

	for _, c := range summary.Components {
		r.Printf("- %s (%s)\n", c.Name, c.File)
	}
	r.Println("")

	if len(summary.Warnings) > 0 {
		r.Println(output.FormatHeader(2, "Warnings"))
		for _, w := range summary.Warnings {
			r.Printf("- %s: %s\n", w.File, w.Message)
		}
		r.Println("")
	}

	r.Println(output.FormatHeader(2, "Summary"))
	r.Println(output.FormatKeyValue("Output", cmdCtx.Cfg.OutDir))
	r.Println(output.FormatKeyValue("Duration", summary.Duration.Round(time.Millisecond).String()))
	if summary.BuildID != "" {
		r.Println(output.FormatKeyValue("Build ID", summary.BuildID))
	}

	return nil
}

func buildJSON(r *output.Renderer, summary *engine.BuildSummary) error {
	out := output.BuildOutput{
		BuildID:    summary.BuildID,
		Status:     "success",
		Components: make([]output.BuildComponentInfo, 0, len(summary.Components)),
		DurationMS: summary.Duration.Milliseconds(),
	}

	for _, c := range summary.Components {
		out.Components = append(out.Components, output.BuildComponentInfo{
			Name:     c.Name,
			File:     c.File,
			ScopeID:  c.ScopeID,
			Warnings: c.Warnings,
		})
	}

	for _, w := range summary.Warnings {
		out.Warnings = append(out.Warnings, output.WarningInfo{
			Message:    w.Message,
			File:       w.File,
			Line:       w.Line,
			Column:     w.Column,
			Suggestion: w.Suggestion,
		})
	}

	enc := json.NewEncoder(r.Writer())
	enc.SetIndent("", "  ")
	return enc.Encode(out)
}

// printWarnings writes compile warnings to the error stream so they
// survive piping of the primary output.
func printWarnings(r *output.Renderer, warnings []compiler.Warning) {
	for _, w := range warnings {
		loc := w.File
		if w.Line > 0 {
			loc = fmt.Sprintf("%s:%d", w.File, w.Line)
		}
		r.Warningf("warning: %s: %s", loc, w.Message)
		if w.Suggestion != "" {
			r.Warningf("  hint: %s", w.Suggestion)
		}
	}
}
