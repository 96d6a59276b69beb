package compiler

import (
	"encoding/json"
	"fmt"
	"strings"
)

// ReactiveVar describes one wrap-declared state variable.
type ReactiveVar struct {
	Name     string
	Init     string // raw initializer text
	Value    any    // resolved compile-time value
	HasValue bool
	IsObject bool
	Paths    [][]string // property paths referenced from the template
}

// ReactiveCodegen carries the three fragments the transform produces: the
// backing declarations, the accessor/update/setter functions, and the rest
// of the script with declarations removed and uses rewritten.
type ReactiveCodegen struct {
	Backing   string
	Functions string
	Script    string
}

// FindReactiveVars scans script text for wrap declarations and resolves
// each variable's initial value: an override wins, then a parseable
// literal, else only the raw initializer text is kept. Property paths
// referenced from the template are attached to their base variable.
func FindReactiveVars(script string, refs []Reference, overrides map[string]any) []ReactiveVar {
	var vars []ReactiveVar
	seen := make(map[string]bool)

	for _, m := range wrapDeclPattern.FindAllStringSubmatchIndex(script, -1) {
		name := script[m[2]:m[3]]
		if seen[name] {
			continue
		}
		init, _, ok := captureBalanced(script, m[1], '(', ')')
		if !ok {
			continue
		}
		seen[name] = true

		v := ReactiveVar{Name: name, Init: strings.TrimSpace(init)}
		if override, has := overrides[name]; has {
			v.Value = override
			v.HasValue = true
		} else if parsed, ok := ParseLiteral(init); ok {
			v.Value = parsed
			v.HasValue = true
		}
		switch v.Value.(type) {
		case map[string]any, []any:
			v.IsObject = true
		default:
			trimmed := v.Init
			v.IsObject = strings.HasPrefix(trimmed, "{") || strings.HasPrefix(trimmed, "[")
		}
		vars = append(vars, v)
	}

	for i := range vars {
		vars[i].Paths = pathsFor(vars[i].Name, refs)
	}
	return vars
}

func pathsFor(name string, refs []Reference) [][]string {
	var paths [][]string
	seen := make(map[string]bool)
	for _, ref := range refs {
		if ref.Base != name || len(ref.Path) == 0 {
			continue
		}
		key := strings.Join(ref.Path, ".")
		if seen[key] {
			continue
		}
		seen[key] = true
		paths = append(paths, ref.Path)
	}
	return paths
}

// StripReactiveDecls removes every `name = wrap(init)` statement, leaving
// the rest of the script intact for rewriting.
func StripReactiveDecls(script string) string {
	var b strings.Builder
	last := 0
	for _, m := range wrapDeclPattern.FindAllStringSubmatchIndex(script, -1) {
		if m[0] < last {
			continue
		}
		_, end, ok := captureBalanced(script, m[1], '(', ')')
		if !ok {
			continue
		}
		if end < len(script) && script[end] == ';' {
			end++
		}
		b.WriteString(script[last:m[0]])
		last = end
	}
	b.WriteString(script[last:])
	return b.String()
}

// TransformReactivity runs the core rewrite: declarations become backing
// storage plus paired accessor and DOM-update functions, and the remaining
// script has every read and mutation of a reactive name turned into
// accessor calls. extraNames (computed variables) join the rewrite set so
// their reads become calls too.
func TransformReactivity(script string, vars []ReactiveVar, marker string, hasUpdateHooks bool, extraNames []string) ReactiveCodegen {
	names := make(map[string]bool, len(vars)+len(extraNames))
	for _, v := range vars {
		names[v.Name] = true
	}
	for _, n := range extraNames {
		names[n] = true
	}

	var backing, fns strings.Builder
	for _, v := range vars {
		writeBackingDecl(&backing, v, names)
		writeAccessor(&fns, v, hasUpdateHooks)
		writeUpdateFn(&fns, v, marker)
		writePropertySetters(&fns, v)
	}

	rest := RewriteScript(StripReactiveDecls(script), names)

	return ReactiveCodegen{
		Backing:   backing.String(),
		Functions: fns.String(),
		Script:    strings.TrimSpace(rest),
	}
}

func writeBackingDecl(b *strings.Builder, v ReactiveVar, names map[string]bool) {
	init := "undefined"
	if v.HasValue {
		init = jsLiteral(v.Value)
	} else if v.Init != "" {
		init = RewriteScript(v.Init, names)
	}
	fmt.Fprintf(b, "let %s = %s;\n", backingName(v.Name), init)
}

func writeAccessor(b *strings.Builder, v ReactiveVar, hasUpdateHooks bool) {
	fmt.Fprintf(b, "function %s(value) {\n", v.Name)
	fmt.Fprintf(b, "  if (arguments.length === 0) {\n    return %s;\n  }\n", backingName(v.Name))
	fmt.Fprintf(b, "  %s = value;\n", backingName(v.Name))
	fmt.Fprintf(b, "  %s(%s);\n", updateFnName(v.Name), backingName(v.Name))
	if hasUpdateHooks {
		fmt.Fprintf(b, "  runUpdateHooks('%s');\n", v.Name)
	}
	b.WriteString("}\n")
}

func writeUpdateFn(b *strings.Builder, v ReactiveVar, marker string) {
	fmt.Fprintf(b, "function %s(value) {\n", updateFnName(v.Name))
	fmt.Fprintf(b, "  var nodes = document.querySelectorAll('[%s][data-bind=\"%s\"], [%s][data-bind^=\"%s.\"]');\n",
		marker, v.Name, marker, v.Name)
	b.WriteString("  for (var i = 0; i < nodes.length; i++) {\n")
	b.WriteString("    var node = nodes[i];\n")

	if v.Name == "mounted" {
		// Legacy rendering kept for compatibility: a boolean named mounted
		// displays as status text and drives an .indicator element.
		b.WriteString("    node.textContent = value ? 'Mounted' : 'Not Mounted';\n")
		b.WriteString("  }\n")
		fmt.Fprintf(b, "  var indicator = document.querySelector('[%s] .indicator, .indicator[%s]');\n", marker, marker)
		b.WriteString("  if (indicator) {\n    indicator.classList.toggle('active', !!value);\n  }\n")
		b.WriteString("}\n")
		return
	}

	b.WriteString("    var path = node.getAttribute('data-bind').split('.').slice(1);\n")
	b.WriteString("    var v = value;\n")
	b.WriteString("    for (var j = 0; j < path.length; j++) {\n")
	b.WriteString("      if (v == null) { break; }\n")
	b.WriteString("      v = v[path[j]];\n")
	b.WriteString("    }\n")
	b.WriteString("    var text = v !== null && typeof v === 'object' ? JSON.stringify(v) : v;\n")
	b.WriteString("    if (node.hasAttribute('data-raw')) {\n")
	b.WriteString("      node.innerHTML = text;\n")
	b.WriteString("    } else {\n")
	b.WriteString("      node.textContent = text;\n")
	b.WriteString("    }\n")
	b.WriteString("  }\n")
	b.WriteString("}\n")
}

// writePropertySetters emits one setter per template-referenced property
// path of an object variable. Each mutates the nested field and re-runs the
// whole-value update.
func writePropertySetters(b *strings.Builder, v ReactiveVar) {
	if !v.IsObject {
		return
	}
	for _, path := range v.Paths {
		fmt.Fprintf(b, "function %s(value) {\n", setterFnName(v.Name, path))
		fmt.Fprintf(b, "  %s.%s = value;\n", backingName(v.Name), strings.Join(path, "."))
		fmt.Fprintf(b, "  %s(%s);\n", updateFnName(v.Name), backingName(v.Name))
		b.WriteString("}\n")
	}
}

func backingName(name string) string {
	return "_" + name
}

func updateFnName(name string) string {
	return "update" + upperFirst(name) + "DOM"
}

func setterFnName(name string, path []string) string {
	var b strings.Builder
	b.WriteString("set")
	b.WriteString(upperFirst(name))
	for _, seg := range path {
		b.WriteString(upperFirst(seg))
	}
	return b.String()
}

func invalidateFnName(name string) string {
	return "invalidate" + upperFirst(name)
}

func upperFirst(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}

// jsLiteral renders a resolved constant as JavaScript literal text.
func jsLiteral(v any) string {
	b, err := json.Marshal(v)
	if err != nil {
		return "undefined"
	}
	return string(b)
}
