package compiler

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
)

const (
	bindAttr     = "data-bind"
	rawAttr      = "data-raw"
	instanceAttr = "data-instance"
)

// bindReferences replaces every interpolation in template text.
// References rooted at a reactive or computed name become marked spans the
// generated update functions address through [marker][data-bind=...];
// references to proven constants are substituted as plain text; anything
// else is left verbatim and reported as a warning.
func bindReferences(template, marker, file string, reactive []ReactiveVar, computedNames []string, consts Constants) (string, []Warning) {
	refs := ParseReferences(template)
	if len(refs) == 0 {
		return template, nil
	}

	live := make(map[string]bool, len(reactive)+len(computedNames))
	byName := make(map[string]ReactiveVar, len(reactive))
	for _, v := range reactive {
		live[v.Name] = true
		byName[v.Name] = v
	}
	for _, n := range computedNames {
		live[n] = true
	}

	var b strings.Builder
	var warnings []Warning
	last := 0
	for _, ref := range refs {
		b.WriteString(template[last:ref.Start])
		last = ref.End

		switch {
		case ref.Base != "" && live[ref.Base]:
			initial := ""
			if v, ok := byName[ref.Base]; ok && v.HasValue {
				initial = renderValue(valueAtPath(v.Value, ref.Path))
			}
			if !ref.Raw {
				initial = htmlEscape(initial)
			}
			bind := ref.Base
			if len(ref.Path) > 0 {
				bind += "." + strings.Join(ref.Path, ".")
			}
			b.WriteString("<span " + marker + ` ` + bindAttr + `="` + bind + `"`)
			if ref.Raw {
				b.WriteString(" " + rawAttr)
			}
			b.WriteString(">" + initial + "</span>")

		case ref.Base != "":
			if v, ok := consts[ref.Base]; ok {
				text := renderValue(valueAtPath(v, ref.Path))
				if !ref.Raw {
					text = htmlEscape(text)
				}
				b.WriteString(text)
				continue
			}
			warnings = append(warnings, Warning{
				File:       file,
				Message:    fmt.Sprintf("template references %q, which is neither reactive nor constant", ref.Base),
				Suggestion: fmt.Sprintf("declare %s = wrap(...) or const %s = ... in the script", ref.Base, ref.Base),
			})
			b.WriteString(ref.Text)

		default:
			b.WriteString(ref.Text)
		}
	}
	b.WriteString(template[last:])
	return b.String(), warnings
}

// applyMarker injects the scope marker attribute onto every element open
// tag that does not already carry it.
func applyMarker(template, marker string) string {
	var b strings.Builder
	pos := 0
	for pos < len(template) {
		lt := strings.IndexByte(template[pos:], '<')
		if lt < 0 {
			break
		}
		b.WriteString(template[pos : pos+lt])
		pos += lt

		tag, ok := parseTagAt(template, pos)
		if !ok {
			b.WriteByte('<')
			pos++
			continue
		}
		if strings.Contains(tag.Attrs, marker) {
			b.WriteString(template[tag.Start:tag.End])
		} else {
			b.WriteString(rebuildTag(tag, appendAttr(tag.Attrs, marker)))
		}
		pos = tag.End
	}
	b.WriteString(template[pos:])
	return b.String()
}

// instantiateChildren replaces every usage of an imported alias tag with
// the child's compiled markup, wrapped in a container that carries the
// parent marker (so non-isolated parent styles can reach in) and a
// per-usage instance id. Usages of one declaration share the declaration's
// deterministic id and differ only in the positional suffix.
func instantiateChildren(template, parentMarker string, imports []*ResolvedImport) string {
	for _, imp := range imports {
		usage := 0
		for {
			tag, ok := findTagNamed(template, imp.Alias)
			if !ok {
				break
			}
			end, ok := elementEnd(template, tag)
			if !ok {
				end = tag.End
			}
			id := fmt.Sprintf("%s-%d", imp.InstanceID, usage)
			usage++
			rendered := "<div " + parentMarker + ` ` + instanceAttr + `="` + id + `">` +
				imp.Result.HTML + "</div>"
			template = template[:tag.Start] + rendered + template[end:]
		}
	}
	return template
}

// findTagNamed locates the first open tag with exactly the given name.
// Alias matching is case-sensitive: component aliases are capitalized and
// must not swallow plain HTML elements.
func findTagNamed(template, name string) (tagInfo, bool) {
	pos := 0
	for pos < len(template) {
		lt := strings.IndexByte(template[pos:], '<')
		if lt < 0 {
			return tagInfo{}, false
		}
		pos += lt
		tag, ok := parseTagAt(template, pos)
		if !ok {
			pos++
			continue
		}
		if tag.Name == name {
			return tag, true
		}
		pos = tag.End
	}
	return tagInfo{}, false
}

// valueAtPath walks a parsed literal value along property-path segments.
func valueAtPath(v any, path []string) any {
	for _, seg := range path {
		m, ok := v.(map[string]any)
		if !ok {
			return nil
		}
		v = m[seg]
	}
	return v
}

// renderValue renders a compile-time value as template text: strings
// unquoted, numbers in shortest form, objects and arrays as JSON, nil as
// nothing.
func renderValue(v any) string {
	switch t := v.(type) {
	case nil:
		return ""
	case string:
		return t
	case bool:
		return strconv.FormatBool(t)
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64)
	case int:
		return strconv.Itoa(t)
	default:
		b, err := json.Marshal(t)
		if err != nil {
			return ""
		}
		return string(b)
	}
}

func htmlEscape(s string) string {
	r := strings.NewReplacer("&", "&amp;", "<", "&lt;", ">", "&gt;", `"`, "&quot;")
	return r.Replace(s)
}
