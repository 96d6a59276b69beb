// Package script wraps esbuild as the compiler's script-normalization and
// minification collaborator. Normalization lowers the generated glue code
// to a baseline executable form; the minify passes are pure text-to-text
// and order-independent with respect to compile correctness.
package script

import (
	"fmt"
	"strings"

	"github.com/evanw/esbuild/pkg/api"
)

// Pipeline implements compiler.Normalizer and compiler.Minifier.
type Pipeline struct{}

// NewPipeline returns a Pipeline.
func NewPipeline() *Pipeline {
	return &Pipeline{}
}

// Normalize lowers js to ES2017 and splits top-level import statements out
// of the result so the compiler can re-hoist them ahead of the body.
func (p *Pipeline) Normalize(js string) (string, string, error) {
	out, err := transform(js, api.TransformOptions{
		Loader: api.LoaderJS,
		Target: api.ES2017,
	})
	if err != nil {
		return "", "", err
	}
	return splitImports(out)
}

// MinifyJS minifies JavaScript with full esbuild minification.
func (p *Pipeline) MinifyJS(js string) (string, error) {
	return transform(js, api.TransformOptions{
		Loader:            api.LoaderJS,
		Target:            api.ES2017,
		MinifyWhitespace:  true,
		MinifyIdentifiers: false, // generated names are addressed from markup
		MinifySyntax:      true,
	})
}

// MinifyCSS minifies a stylesheet.
func (p *Pipeline) MinifyCSS(css string) (string, error) {
	return transform(css, api.TransformOptions{
		Loader:           api.LoaderCSS,
		MinifyWhitespace: true,
		MinifySyntax:     true,
	})
}

// MinifyHTML collapses inter-tag whitespace. A full HTML minifier is out
// of scope; this pass only strips indentation and blank lines.
func (p *Pipeline) MinifyHTML(html string) (string, error) {
	lines := strings.Split(html, "\n")
	out := make([]string, 0, len(lines))
	for _, line := range lines {
		trimmed := strings.TrimSpace(line)
		if trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return strings.Join(out, ""), nil
}

func transform(source string, opts api.TransformOptions) (string, error) {
	opts.LogLevel = api.LogLevelSilent
	result := api.Transform(source, opts)
	if len(result.Errors) > 0 {
		var b strings.Builder
		for _, msg := range result.Errors {
			if msg.Location != nil {
				fmt.Fprintf(&b, "%d:%d: ", msg.Location.Line, msg.Location.Column)
			}
			b.WriteString(msg.Text)
			b.WriteByte('\n')
		}
		return "", fmt.Errorf("esbuild: %s", strings.TrimRight(b.String(), "\n"))
	}
	return string(result.Code), nil
}

// splitImports separates top-level import statements from the rest of the
// transformed code.
func splitImports(js string) (body, imports string, err error) {
	var imp, rest []string
	for _, line := range strings.Split(js, "\n") {
		if strings.HasPrefix(strings.TrimSpace(line), "import ") {
			imp = append(imp, strings.TrimSpace(line))
			continue
		}
		rest = append(rest, line)
	}
	body = strings.Join(rest, "\n")
	if len(imp) > 0 {
		imports = strings.Join(imp, "\n") + "\n"
	}
	return body, imports, nil
}
