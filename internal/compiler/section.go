package compiler

import (
	"path/filepath"
	"regexp"
	"strings"
)

// Section tags recognized in a component source. Each may appear at most
// once; lookup is case-insensitive and depth-matched so a section may
// contain nested tags of the same name.
const (
	tagScript   = "script"
	tagTemplate = "template"
	tagStyle    = "style"
	tagStore    = "store"
)

// importPattern matches <import Name from "path"> declarations. Imports are
// scanned over the whole source, independent of section boundaries.
var importPattern = regexp.MustCompile(`<import\s+([A-Za-z_][A-Za-z0-9_]*)\s+from\s+["']([^"']+)["']\s*/?>`)

// ParseComponent splits a raw source into its sections and import
// declarations. The component name is derived from the file name. A missing
// template is a warning unless the file declares a store section, in which
// case no template is expected.
func ParseComponent(source, filename string) (*Component, []Warning, error) {
	if filename == "" {
		return nil, nil, newError(ErrStructure, "", "", "component source needs a filename")
	}

	name := componentName(filename)
	comp := &Component{
		Name:     name,
		FilePath: filename,
		ScopeID:  DeriveScopeID(name),
	}

	script, _, foundScript, err := findSection(source, tagScript)
	if err != nil {
		return nil, nil, wrapError(err, name, filename)
	}
	if foundScript {
		comp.Script = script
	}

	template, _, foundTemplate, err := findSection(source, tagTemplate)
	if err != nil {
		return nil, nil, wrapError(err, name, filename)
	}
	if foundTemplate {
		comp.Template = stripImportDecls(template)
	}

	style, styleAttrs, foundStyle, err := findSection(source, tagStyle)
	if err != nil {
		return nil, nil, wrapError(err, name, filename)
	}
	if foundStyle {
		comp.Style = style
		comp.StyleIsolated = hasAttr(styleAttrs, "isolated")
	} else {
		// No style section behaves like an isolated one: nothing leaks.
		comp.StyleIsolated = true
	}

	store, _, foundStore, err := findSection(source, tagStore)
	if err != nil {
		return nil, nil, wrapError(err, name, filename)
	}
	if foundStore {
		comp.Store = store
		comp.IsStore = !foundTemplate
	}

	for _, m := range importPattern.FindAllStringSubmatch(source, -1) {
		comp.Imports = append(comp.Imports, Import{Name: m[1], Path: m[2]})
	}

	var warnings []Warning
	if !foundTemplate && !foundStore {
		warnings = append(warnings, Warning{
			File:       filename,
			Message:    "component has no template section",
			Suggestion: "add a <template> section or declare a <store>",
		})
	}

	return comp, warnings, nil
}

// componentName derives the component name from a file path by dropping the
// directory and extension.
func componentName(filename string) string {
	base := filepath.Base(filename)
	if ext := filepath.Ext(base); ext != "" {
		base = strings.TrimSuffix(base, ext)
	}
	return base
}

// findSection locates the first occurrence of a section tag and returns its
// inner content up through the depth-matched closing tag, along with the
// open tag's attribute text. Self-closing tags yield empty content.
// Unterminated sections are a structural error.
func findSection(source, tag string) (content, attrs string, found bool, err error) {
	_, openEnd, attrs, selfClosing, ok := findOpenTag(source, tag, 0)
	if !ok {
		return "", "", false, nil
	}
	if selfClosing {
		return "", attrs, true, nil
	}

	depth := 1
	pos := openEnd
	for pos < len(source) {
		lt := strings.IndexByte(source[pos:], '<')
		if lt < 0 {
			break
		}
		pos += lt

		if matchClosingTag(source, pos, tag) {
			depth--
			if depth == 0 {
				return source[openEnd:pos], attrs, true, nil
			}
			pos = skipPast(source, pos, '>')
			continue
		}

		if _, nestedEnd, _, nestedSelf, nested := findOpenTagAt(source, tag, pos); nested {
			if !nestedSelf {
				depth++
			}
			pos = nestedEnd
			continue
		}

		pos++
	}

	return "", "", false, newError(ErrStructure, "", "", "unterminated <%s> section", tag)
}

// findOpenTag scans from to find the next opening <tag ...> (case-
// insensitive, word-boundary checked). It returns the indexes of the tag
// start and of the byte just past '>', the attribute text, and whether the
// tag self-closes.
func findOpenTag(source, tag string, from int) (start, end int, attrs string, selfClosing, found bool) {
	pos := from
	for pos < len(source) {
		lt := strings.IndexByte(source[pos:], '<')
		if lt < 0 {
			return 0, 0, "", false, false
		}
		pos += lt
		if s, e, a, sc, ok := findOpenTagAt(source, tag, pos); ok {
			return s, e, a, sc, true
		}
		pos++
	}
	return 0, 0, "", false, false
}

// findOpenTagAt checks whether an opening <tag ...> starts exactly at pos.
func findOpenTagAt(source, tag string, pos int) (start, end int, attrs string, selfClosing, found bool) {
	if pos+1+len(tag) > len(source) || source[pos] != '<' {
		return 0, 0, "", false, false
	}
	if !strings.EqualFold(source[pos+1:pos+1+len(tag)], tag) {
		return 0, 0, "", false, false
	}
	rest := pos + 1 + len(tag)
	if rest < len(source) {
		c := source[rest]
		if c != '>' && c != '/' && c != ' ' && c != '\t' && c != '\n' && c != '\r' {
			// Longer tag name, e.g. <templates>.
			return 0, 0, "", false, false
		}
	}

	// Scan to the closing '>' of the open tag, ignoring '>' inside quoted
	// attribute values.
	i := rest
	var quote byte
	for i < len(source) {
		c := source[i]
		switch {
		case quote != 0:
			if c == quote {
				quote = 0
			}
		case c == '"' || c == '\'':
			quote = c
		case c == '>':
			raw := strings.TrimSpace(source[rest:i])
			selfClosing = strings.HasSuffix(raw, "/")
			attrs = strings.TrimSpace(strings.TrimSuffix(raw, "/"))
			return pos, i + 1, attrs, selfClosing, true
		}
		i++
	}
	return 0, 0, "", false, false
}

// matchClosingTag checks whether a closing </tag> starts exactly at pos.
func matchClosingTag(source string, pos int, tag string) bool {
	if pos+2+len(tag) > len(source) {
		return false
	}
	if source[pos] != '<' || source[pos+1] != '/' {
		return false
	}
	if !strings.EqualFold(source[pos+2:pos+2+len(tag)], tag) {
		return false
	}
	rest := pos + 2 + len(tag)
	for rest < len(source) && (source[rest] == ' ' || source[rest] == '\t') {
		rest++
	}
	return rest < len(source) && source[rest] == '>'
}

// skipPast returns the index just past the next occurrence of c, or the end
// of the source.
func skipPast(source string, from int, c byte) int {
	idx := strings.IndexByte(source[from:], c)
	if idx < 0 {
		return len(source)
	}
	return from + idx + 1
}

// hasAttr reports whether the attribute text contains the given bare
// attribute name as a whole word.
func hasAttr(attrs, name string) bool {
	for _, field := range strings.Fields(attrs) {
		field = strings.TrimSuffix(field, "/")
		if strings.EqualFold(field, name) {
			return true
		}
		if eq := strings.IndexByte(field, '='); eq >= 0 && strings.EqualFold(field[:eq], name) {
			return true
		}
	}
	return false
}

// stripImportDecls removes <import ...> declarations that happen to sit
// inside a template body; declarations are gathered by the whole-source
// scan, not by section.
func stripImportDecls(template string) string {
	return importPattern.ReplaceAllString(template, "")
}
