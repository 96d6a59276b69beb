// Package output renders command results for terminals, scripts, and
// JSON consumers. Terminal output is styled with lipgloss; piped output
// falls back to markdown so it stays grep- and agent-friendly.
package output

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/mattn/go-isatty"
)

// Mode selects the output format.
type Mode string

const (
	ModeAuto     Mode = "auto"
	ModeText     Mode = "text"
	ModeMarkdown Mode = "markdown"
	ModeJSON     Mode = "json"
)

// Styles holds the lipgloss styles used by text-mode rendering.
type Styles struct {
	Header1       lipgloss.Style
	Header2       lipgloss.Style
	ComponentName lipgloss.Style
	Muted         lipgloss.Style
	Success       lipgloss.Style
	Warning       lipgloss.Style
	Error         lipgloss.Style
}

// DefaultStyles returns the standard style set.
func DefaultStyles() *Styles {
	return &Styles{
		Header1:       lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("12")),
		Header2:       lipgloss.NewStyle().Bold(true),
		ComponentName: lipgloss.NewStyle().Foreground(lipgloss.Color("14")),
		Muted:         lipgloss.NewStyle().Foreground(lipgloss.Color("8")),
		Success:       lipgloss.NewStyle().Foreground(lipgloss.Color("10")),
		Warning:       lipgloss.NewStyle().Foreground(lipgloss.Color("11")),
		Error:         lipgloss.NewStyle().Foreground(lipgloss.Color("9")),
	}
}

// Renderer writes command output in the selected mode.
type Renderer struct {
	out    io.Writer
	errOut io.Writer
	mode   Mode
	styles *Styles
}

// NewRenderer creates a renderer. An empty mode means ModeAuto.
func NewRenderer(out, errOut io.Writer, mode Mode) *Renderer {
	if mode == "" {
		mode = ModeAuto
	}
	return &Renderer{
		out:    out,
		errOut: errOut,
		mode:   mode,
		styles: DefaultStyles(),
	}
}

// Writer returns the primary output writer.
func (r *Renderer) Writer() io.Writer { return r.out }

// ErrWriter returns the error output writer.
func (r *Renderer) ErrWriter() io.Writer { return r.errOut }

// Styles returns the style set for text-mode rendering.
func (r *Renderer) Styles() *Styles { return r.styles }

// EffectiveMode resolves ModeAuto against the output destination:
// a terminal gets styled text, everything else gets markdown.
func (r *Renderer) EffectiveMode() Mode {
	if r.mode != ModeAuto {
		return r.mode
	}
	if f, ok := r.out.(*os.File); ok && isatty.IsTerminal(f.Fd()) {
		return ModeText
	}
	return ModeMarkdown
}

// Println writes a line to the primary output.
func (r *Renderer) Println(a ...any) {
	_, _ = fmt.Fprintln(r.out, a...)
}

// Printf writes formatted output to the primary output.
func (r *Renderer) Printf(format string, a ...any) {
	_, _ = fmt.Fprintf(r.out, format, a...)
}

// Header writes a section header in the effective mode's idiom.
func (r *Renderer) Header(level int, text string) {
	if r.EffectiveMode() == ModeText {
		style := r.styles.Header1
		if level > 1 {
			style = r.styles.Header2
		}
		r.Println(style.Render(text))
		return
	}
	r.Println(FormatHeader(level, text))
	r.Println("")
}

// Warningf writes a styled warning line to the error output.
func (r *Renderer) Warningf(format string, a ...any) {
	msg := fmt.Sprintf(format, a...)
	if r.EffectiveMode() == ModeText {
		msg = r.styles.Warning.Render(msg)
	}
	_, _ = fmt.Fprintln(r.errOut, msg)
}

// FormatHeader returns a markdown header of the given level.
func FormatHeader(level int, text string) string {
	return strings.Repeat("#", level) + " " + text
}

// FormatKeyValue returns a markdown "- **key**: value" line.
func FormatKeyValue(key, value string) string {
	return fmt.Sprintf("- **%s**: %s", key, value)
}
