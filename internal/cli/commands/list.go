package commands

import (
	"encoding/json"
	"fmt"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/leapstack-labs/leaf/internal/cli/output"
	"github.com/spf13/cobra"
)

// NewListCommand creates the list command.
func NewListCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List all components and their imports",
		Long: `List all discovered components with their import relationships.

Root components (imported by nothing) produce artifacts on build;
imported components are compiled inline into their importers.

Output adapts to environment:
  - Terminal: Styled table output
  - Piped/Scripted: Markdown format (agent-friendly)

Use --output to override: auto, text, markdown, json`,
		Example: `  # List all components (auto-detect output format)
  leaf list

  # List components as JSON
  leaf list --output json

  # List components as Markdown (for agents/scripts)
  leaf list --output markdown`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runList(cmd)
		},
	}

	return cmd
}

func runList(cmd *cobra.Command) error {
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

	switch r.EffectiveMode() {
	case output.ModeJSON:
		return listJSON(cmdCtx)
	case output.ModeMarkdown:
		return listMarkdown(cmdCtx)
	default:
		return listText(cmdCtx)
	}
}

// listText renders the component table for terminals.
func listText(cmdCtx *CommandContext) error {
	eng := cmdCtx.Engine
	r := cmdCtx.Renderer
	graph := eng.Graph()
	sources := eng.Sources()

	r.Header(1, fmt.Sprintf("Components (%d total)", len(sources)))

	t := table.NewWriter()
	t.SetOutputMirror(r.Writer())
	t.SetStyle(table.StyleRounded)
	t.AppendHeader(table.Row{"Component", "File", "Imports", "Imported By"})

	for _, src := range sources {
		t.AppendRow(table.Row{
			src.Name,
			src.RelPath,
			joinOrDash(graph.ImportsOf(src.Name)),
			joinOrDash(graph.ImportersOf(src.Name)),
		})
	}

	t.Render()
	return nil
}

// listMarkdown renders the component list for scripts and agents.
func listMarkdown(cmdCtx *CommandContext) error {
	eng := cmdCtx.Engine
	r := cmdCtx.Renderer
	graph := eng.Graph()
	sources := eng.Sources()

	r.Println(output.FormatHeader(1, fmt.Sprintf("Components (%d total)", len(sources))))
	r.Println("")

	for _, src := range sources {
		r.Println(output.FormatHeader(2, src.Name))
		r.Println(output.FormatKeyValue("File", src.RelPath))

		if imports := graph.ImportsOf(src.Name); len(imports) > 0 {
			r.Println(output.FormatKeyValue("Imports", joinOrDash(imports)))
		}
		if importers := graph.ImportersOf(src.Name); len(importers) > 0 {
			r.Println(output.FormatKeyValue("Imported By", joinOrDash(importers)))
		} else {
			r.Println(output.FormatKeyValue("Root", "yes"))
		}

		r.Println("")
	}

	return nil
}

// listJSON renders the component list as JSON.
func listJSON(cmdCtx *CommandContext) error {
	eng := cmdCtx.Engine
	r := cmdCtx.Renderer
	graph := eng.Graph()
	sources := eng.Sources()

	out := output.ListOutput{
		Components: make([]output.ComponentInfo, 0, len(sources)),
		Total:      len(sources),
	}

	for _, src := range sources {
		importers := graph.ImportersOf(src.Name)
		out.Components = append(out.Components, output.ComponentInfo{
			Name:       src.Name,
			File:       src.RelPath,
			Imports:    graph.ImportsOf(src.Name),
			ImportedBy: importers,
			Root:       len(importers) == 0,
		})
	}

	enc := json.NewEncoder(r.Writer())
	enc.SetIndent("", "  ")
	return enc.Encode(out)
}
