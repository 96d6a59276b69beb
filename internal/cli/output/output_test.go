package output

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestEffectiveMode(t *testing.T) {
	var buf bytes.Buffer

	// Explicit modes pass through untouched
	for _, mode := range []Mode{ModeText, ModeMarkdown, ModeJSON} {
		r := NewRenderer(&buf, &buf, mode)
		assert.Equal(t, mode, r.EffectiveMode())
	}

	// Auto against a non-terminal writer resolves to markdown
	r := NewRenderer(&buf, &buf, ModeAuto)
	assert.Equal(t, ModeMarkdown, r.EffectiveMode())

	// Empty mode defaults to auto
	r = NewRenderer(&buf, &buf, "")
	assert.Equal(t, ModeMarkdown, r.EffectiveMode())
}

func TestFormatHelpers(t *testing.T) {
	assert.Equal(t, "# Components", FormatHeader(1, "Components"))
	assert.Equal(t, "## App", FormatHeader(2, "App"))
	assert.Equal(t, "- **File**: src/App.leaf", FormatKeyValue("File", "src/App.leaf"))
}

func TestRendererHeader_Markdown(t *testing.T) {
	var buf bytes.Buffer
	r := NewRenderer(&buf, &buf, ModeMarkdown)

	r.Header(1, "Components")
	assert.Contains(t, buf.String(), "# Components")
}

func TestWarningf_GoesToErrStream(t *testing.T) {
	var out, errOut bytes.Buffer
	r := NewRenderer(&out, &errOut, ModeMarkdown)

	r.Warningf("warning: %s", "unknown reference")

	assert.Empty(t, out.String())
	assert.Contains(t, errOut.String(), "unknown reference")
}
