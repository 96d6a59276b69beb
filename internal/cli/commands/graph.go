package commands

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/leapstack-labs/leaf/internal/cli/output"
	"github.com/leapstack-labs/leaf/internal/dag"
	"github.com/spf13/cobra"
)

// NewGraphCommand creates the graph command.
func NewGraphCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "graph",
		Short: "Show the component import graph",
		Long: `Display the import graph of all components.

Components are grouped by level: level 0 holds components with no
imports, and each higher level imports only components from lower
levels.

Output adapts to environment:
  - Terminal: Styled output with colors
  - Piped/Scripted: Markdown format (agent-friendly)`,
		Example: `  # Show the graph
  leaf graph

  # Output as JSON
  leaf graph --output json

  # Output as Markdown
  leaf graph --output markdown`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runGraph(cmd)
		},
	}

	return cmd
}

func runGraph(cmd *cobra.Command) error {
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

	graph := eng.Graph()

	levels, err := graph.Levels()
	if err != nil {
		return fmt.Errorf("failed to compute import levels: %w", err)
	}

	switch r.EffectiveMode() {
	case output.ModeJSON:
		return graphJSON(r, graph, levels)
	case output.ModeMarkdown:
		return graphMarkdown(r, graph, levels)
	default:
		return graphText(r, graph, levels)
	}
}

// graphText outputs the graph in styled text format.
func graphText(r *output.Renderer, graph *dag.Graph, levels [][]string) error {
	styles := r.Styles()

	r.Header(1, "Import Graph")

	for i, level := range levels {
		r.Println(styles.Header2.Render(fmt.Sprintf("Level %d:", i)))
		for _, name := range level {
			imports := graph.ImportsOf(name)
			importers := graph.ImportersOf(name)

			r.Printf("  %s\n", styles.ComponentName.Render(name))
			if len(imports) > 0 {
				r.Printf("    %s %s\n", styles.Muted.Render("imports:"), strings.Join(imports, ", "))
			}
			if len(importers) > 0 {
				r.Printf("    %s %s\n", styles.Muted.Render("imported by:"), strings.Join(importers, ", "))
			}
		}
		r.Println("")
	}

	nodes, edges := graph.Size()
	r.Println(styles.Muted.Render(fmt.Sprintf("Total: %d components, %d imports", nodes, edges)))

	return nil
}

// graphMarkdown outputs the graph in markdown format.
func graphMarkdown(r *output.Renderer, graph *dag.Graph, levels [][]string) error {
	r.Println(output.FormatHeader(1, "Import Graph"))
	r.Println("")

	for i, level := range levels {
		levelName := fmt.Sprintf("Level %d", i)
		if i == 0 {
			levelName = "Level 0 (Leaves)"
		}
		r.Println(output.FormatHeader(2, levelName))

		for _, name := range level {
			imports := graph.ImportsOf(name)
			importers := graph.ImportersOf(name)

			r.Printf("- %s\n", name)
			if len(imports) > 0 {
				r.Printf("  - imports: %s\n", strings.Join(imports, ", "))
			}
			if len(importers) > 0 {
				r.Printf("  - imported by: %s\n", strings.Join(importers, ", "))
			}
		}
		r.Println("")
	}

	nodes, edges := graph.Size()
	r.Println(output.FormatHeader(2, "Summary"))
	r.Println(output.FormatKeyValue("Total Components", fmt.Sprintf("%d", nodes)))
	r.Println(output.FormatKeyValue("Total Imports", fmt.Sprintf("%d", edges)))

	return nil
}

// graphJSON outputs the graph in JSON format.
func graphJSON(r *output.Renderer, graph *dag.Graph, levels [][]string) error {
	nodes, edges := graph.Size()
	out := output.GraphOutput{
		Levels:          make([]output.GraphLevel, 0, len(levels)),
		TotalComponents: nodes,
		TotalImports:    edges,
	}

	for i, level := range levels {
		graphLevel := output.GraphLevel{
			Level:      i,
			Components: make([]output.GraphNode, 0, len(level)),
		}

		for _, name := range level {
			graphLevel.Components = append(graphLevel.Components, output.GraphNode{
				Name:       name,
				Imports:    graph.ImportsOf(name),
				ImportedBy: graph.ImportersOf(name),
			})
		}

		out.Levels = append(out.Levels, graphLevel)
	}

	enc := json.NewEncoder(r.Writer())
	enc.SetIndent("", "  ")
	return enc.Encode(out)
}
