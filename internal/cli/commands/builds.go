package commands

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/leapstack-labs/leaf/internal/cli/output"
	"github.com/leapstack-labs/leaf/internal/state"
	"github.com/spf13/cobra"
)

// NewBuildsCommand creates the builds command.
func NewBuildsCommand() *cobra.Command {
	var limit int

	cmd := &cobra.Command{
		Use:   "builds",
		Short: "Show build history",
		Long: `Display recent builds from the state database, newest first.

Each entry shows the build's status, how many components it produced,
and how many warnings the compiler raised.`,
		Example: `  # Show the last 20 builds
  leaf builds

  # Show the last 5 builds
  leaf builds --limit 5

  # Build history as JSON
  leaf builds --output json`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runBuilds(cmd, limit)
		},
	}

	cmd.Flags().IntVar(&limit, "limit", 20, "Maximum number of builds to show")

	return cmd
}

func runBuilds(cmd *cobra.Command, limit int) error {
	cmdCtx, cleanup, err := NewCommandContext(cmd)
	if err != nil {
		return err
	}
	defer cleanup()

	r := cmdCtx.Renderer

	store := cmdCtx.Engine.Store()
	if store == nil {
		return fmt.Errorf("build history is disabled: no state path configured")
	}

	builds, err := store.ListBuilds(limit)
	if err != nil {
		return fmt.Errorf("failed to read build history: %w", err)
	}

	switch r.EffectiveMode() {
	case output.ModeJSON:
		return buildsJSON(r, builds)
	case output.ModeMarkdown:
		return buildsMarkdown(r, builds)
	default:
		return buildsText(r, builds)
	}
}

func buildsText(r *output.Renderer, builds []*state.Build) error {
	styles := r.Styles()

	r.Header(1, fmt.Sprintf("Builds (%d shown)", len(builds)))

	if len(builds) == 0 {
		r.Println(styles.Muted.Render("No builds recorded yet. Run 'leaf build' first."))
		return nil
	}

	t := table.NewWriter()
	t.SetOutputMirror(r.Writer())
	t.SetStyle(table.StyleRounded)
	t.AppendHeader(table.Row{"ID", "Status", "Components", "Warnings", "Started"})

	for _, b := range builds {
		status := string(b.Status)
		switch b.Status {
		case state.StatusSuccess:
			status = styles.Success.Render(status)
		case state.StatusFailed:
			status = styles.Error.Render(status)
		}

		t.AppendRow(table.Row{
			shortID(b.ID),
			status,
			b.Components,
			b.Warnings,
			b.StartedAt.Local().Format("2006-01-02 15:04:05"),
		})
	}

	t.Render()
	return nil
}

func buildsMarkdown(r *output.Renderer, builds []*state.Build) error {
	r.Println(output.FormatHeader(1, fmt.Sprintf("Builds (%d shown)", len(builds))))
	r.Println("")

	for _, b := range builds {
		r.Println(output.FormatHeader(2, shortID(b.ID)))
		r.Println(output.FormatKeyValue("Status", string(b.Status)))
		r.Println(output.FormatKeyValue("Components", fmt.Sprintf("%d", b.Components)))
		r.Println(output.FormatKeyValue("Warnings", fmt.Sprintf("%d", b.Warnings)))
		r.Println(output.FormatKeyValue("Started", b.StartedAt.Format(time.RFC3339)))
		if b.CompletedAt != nil {
			r.Println(output.FormatKeyValue("Completed", b.CompletedAt.Format(time.RFC3339)))
		}
		if b.Error != "" {
			r.Println(output.FormatKeyValue("Error", b.Error))
		}
		r.Println("")
	}

	return nil
}

func buildsJSON(r *output.Renderer, builds []*state.Build) error {
	out := output.BuildsOutput{
		Builds: make([]output.BuildHistoryEntry, 0, len(builds)),
	}

	for _, b := range builds {
		entry := output.BuildHistoryEntry{
			ID:         b.ID,
			Status:     string(b.Status),
			Components: b.Components,
			Warnings:   b.Warnings,
			StartedAt:  b.StartedAt.Format(time.RFC3339),
			Error:      b.Error,
		}
		if b.CompletedAt != nil {
			entry.CompletedAt = b.CompletedAt.Format(time.RFC3339)
		}
		out.Builds = append(out.Builds, entry)
	}

	enc := json.NewEncoder(r.Writer())
	enc.SetIndent("", "  ")
	return enc.Encode(out)
}

// shortID trims a UUID to its first segment for table display.
func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}
