package compiler

import (
	"fmt"
	"regexp"
	"strings"
)

// ComputedVar is a derived value: an expression re-evaluated lazily when a
// tracked dependency invalidates its cache.
type ComputedVar struct {
	Name string
	Expr string   // callback body text, verbatim
	Deps []string // explicit dependency names; nil means inferred
}

// ComputedCodegen carries the generated fragments: getters with caches and
// invalidation, then the wiring that hooks invalidation into each
// dependency's update path.
type ComputedCodegen struct {
	Functions string
	Wiring    string
}

var computedDeclPattern = regexp.MustCompile(`(?m)^[ \t]*(?:let\s+|const\s+|var\s+)?([A-Za-z_$][A-Za-z0-9_$]*)\s*=\s*computed\s*\(`)

// ParseComputed extracts computed declarations of the shape
// name = computed(() => expr[, deps]) and returns them plus the script
// with those declarations removed. The argument is captured with
// bracket-depth scanning since the expression may itself contain parens.
func ParseComputed(script string) ([]ComputedVar, string) {
	var vars []ComputedVar
	var b strings.Builder
	last := 0

	for _, m := range computedDeclPattern.FindAllStringSubmatchIndex(script, -1) {
		if m[0] < last {
			continue
		}
		arg, end, ok := captureBalanced(script, m[1], '(', ')')
		if !ok {
			continue
		}
		if end < len(script) && script[end] == ';' {
			end++
		}

		callback, depsList := splitComputedArgs(arg)
		expr, ok := callbackBody(callback)
		if !ok {
			continue
		}

		vars = append(vars, ComputedVar{
			Name: script[m[2]:m[3]],
			Expr: expr,
			Deps: depsList,
		})

		b.WriteString(script[last:m[0]])
		last = end
	}

	b.WriteString(script[last:])
	return vars, b.String()
}

// splitComputedArgs separates the callback from an optional trailing
// explicit-dependency array at the top comma level.
func splitComputedArgs(arg string) (string, []string) {
	depth := 0
	var quote byte
	for i := 0; i < len(arg); i++ {
		c := arg[i]
		switch {
		case quote != 0:
			if c == '\\' {
				i++
			} else if c == quote {
				quote = 0
			}
		case c == '"' || c == '\'' || c == '`':
			quote = c
		case c == '(' || c == '[' || c == '{':
			depth++
		case c == ')' || c == ']' || c == '}':
			depth--
		case c == ',' && depth == 0:
			return strings.TrimSpace(arg[:i]), parseDepsList(arg[i+1:])
		}
	}
	return strings.TrimSpace(arg), nil
}

// parseDepsList reads an explicit dependency array: string entries or bare
// identifiers.
func parseDepsList(text string) []string {
	text = strings.TrimSpace(text)
	text = strings.TrimPrefix(text, "[")
	text = strings.TrimSuffix(text, "]")

	var deps []string
	for _, part := range strings.Split(text, ",") {
		part = strings.TrimSpace(part)
		part = strings.Trim(part, `"'`)
		if part != "" {
			deps = append(deps, part)
		}
	}
	return deps
}

// callbackBody strips the arrow-function wrapper from a computed callback
// and returns the expression (or block) text.
func callbackBody(callback string) (string, bool) {
	arrow := strings.Index(callback, "=>")
	if arrow < 0 {
		return "", false
	}
	return strings.TrimSpace(callback[arrow+2:]), true
}

// InferDeps resolves a computed variable's dependencies: the explicit list
// when declared, otherwise every known name appearing as a whole identifier
// in the expression.
func InferDeps(v ComputedVar, known []string) []string {
	if v.Deps != nil {
		return v.Deps
	}
	var deps []string
	for _, name := range known {
		if name == v.Name {
			continue
		}
		if identPattern(name).MatchString(v.Expr) {
			deps = append(deps, name)
		}
	}
	return deps
}

func identPattern(name string) *regexp.Regexp {
	return regexp.MustCompile(`\b` + regexp.QuoteMeta(name) + `\b`)
}

// TransformComputed emits the memoized getter, dirty flag, invalidate
// function, and DOM update for each computed variable, then the wiring
// that wraps every dependency's update (reactive) or invalidate (computed)
// function so a change cascades into this variable's invalidation.
func TransformComputed(vars []ComputedVar, reactive []ReactiveVar, marker string, names map[string]bool) ComputedCodegen {
	if len(vars) == 0 {
		return ComputedCodegen{}
	}

	isReactive := make(map[string]bool, len(reactive))
	for _, r := range reactive {
		isReactive[r.Name] = true
	}
	isComputed := make(map[string]bool, len(vars))
	known := make([]string, 0, len(reactive)+len(vars))
	for _, r := range reactive {
		known = append(known, r.Name)
	}
	for _, v := range vars {
		isComputed[v.Name] = true
		known = append(known, v.Name)
	}

	var fns, wiring strings.Builder
	wrapped := 0

	for _, v := range vars {
		cache := "_" + v.Name + "Cache"
		dirty := "_" + v.Name + "Dirty"

		fmt.Fprintf(&fns, "var %s;\nvar %s = true;\n", cache, dirty)
		fmt.Fprintf(&fns, "function %s() {\n", v.Name)
		fmt.Fprintf(&fns, "  if (%s) {\n", dirty)
		expr := RewriteScript(v.Expr, names)
		if strings.HasPrefix(expr, "{") {
			fmt.Fprintf(&fns, "    %s = (function() %s)();\n", cache, expr)
		} else {
			fmt.Fprintf(&fns, "    %s = (%s);\n", cache, expr)
		}
		fmt.Fprintf(&fns, "    %s = false;\n  }\n", dirty)
		fmt.Fprintf(&fns, "  return %s;\n}\n", cache)

		fmt.Fprintf(&fns, "function %s() {\n", invalidateFnName(v.Name))
		fmt.Fprintf(&fns, "  %s = true;\n", dirty)
		fmt.Fprintf(&fns, "  %s(%s());\n}\n", updateFnName(v.Name), v.Name)

		writeUpdateFn(&fns, ReactiveVar{Name: v.Name}, marker)

		for _, dep := range InferDeps(v, known) {
			switch {
			case isReactive[dep]:
				wrapped++
				prev := fmt.Sprintf("_prev%s%d", upperFirst(updateFnName(dep)), wrapped)
				fmt.Fprintf(&wiring, "var %s = %s;\n", prev, updateFnName(dep))
				fmt.Fprintf(&wiring, "%s = function(value) {\n  %s(value);\n  %s();\n};\n",
					updateFnName(dep), prev, invalidateFnName(v.Name))
			case isComputed[dep]:
				wrapped++
				prev := fmt.Sprintf("_prev%s%d", upperFirst(invalidateFnName(dep)), wrapped)
				fmt.Fprintf(&wiring, "var %s = %s;\n", prev, invalidateFnName(dep))
				fmt.Fprintf(&wiring, "%s = function() {\n  %s();\n  %s();\n};\n",
					invalidateFnName(dep), prev, invalidateFnName(v.Name))
			}
		}
	}

	// First paint: computed spans start empty and are filled here.
	for _, v := range vars {
		fmt.Fprintf(&wiring, "%s(%s());\n", updateFnName(v.Name), v.Name)
	}

	return ComputedCodegen{Functions: fns.String(), Wiring: wiring.String()}
}
