package compiler

import (
	"regexp"
	"strings"
)

// Hooks holds lifecycle callback bodies grouped by kind, each kept
// verbatim as written.
type Hooks struct {
	Mount   []string
	Destroy []string
	Update  []string
}

// HasUpdate reports whether any update hooks were declared; accessors only
// notify the update runner when this is true.
func (h Hooks) HasUpdate() bool { return len(h.Update) > 0 }

// Empty reports whether no hooks of any kind were declared.
func (h Hooks) Empty() bool {
	return len(h.Mount) == 0 && len(h.Destroy) == 0 && len(h.Update) == 0
}

// Counts returns per-kind totals for component metadata.
func (h Hooks) Counts() map[string]int {
	counts := make(map[string]int)
	if len(h.Mount) > 0 {
		counts["mount"] = len(h.Mount)
	}
	if len(h.Destroy) > 0 {
		counts["destroy"] = len(h.Destroy)
	}
	if len(h.Update) > 0 {
		counts["update"] = len(h.Update)
	}
	return counts
}

var hookPattern = regexp.MustCompile(`\b(mount|destroy|update)\s*\(`)

// ExtractHooks removes mount/destroy/update registrations from script text
// and returns the grouped callback texts plus the remaining script. It
// must run before the reactivity rewrite so callback bodies stay verbatim.
// A call whose argument is not a callback is left in place; so is a method
// call like obj.update(...).
func ExtractHooks(script string) (Hooks, string) {
	var hooks Hooks
	var b strings.Builder
	last := 0

	for _, m := range hookPattern.FindAllStringSubmatchIndex(script, -1) {
		if m[0] < last {
			continue
		}
		if prev := byteAt(script, m[0]-1); prev == '.' || isIdentByte(prev) {
			continue
		}
		arg, end, ok := captureBalanced(script, m[1], '(', ')')
		if !ok {
			continue
		}
		if !looksLikeCallback(arg) {
			continue
		}
		if end < len(script) && script[end] == ';' {
			end++
		}

		switch script[m[2]:m[3]] {
		case "mount":
			hooks.Mount = append(hooks.Mount, strings.TrimSpace(arg))
		case "destroy":
			hooks.Destroy = append(hooks.Destroy, strings.TrimSpace(arg))
		case "update":
			hooks.Update = append(hooks.Update, strings.TrimSpace(arg))
		}

		b.WriteString(script[last:m[0]])
		last = end
	}

	b.WriteString(script[last:])
	return hooks, b.String()
}

// looksLikeCallback checks that a captured argument is a function
// expression: an arrow function or a function keyword.
func looksLikeCallback(arg string) bool {
	arg = strings.TrimSpace(arg)
	if strings.HasPrefix(arg, "function") {
		return true
	}
	if strings.HasPrefix(arg, "(") {
		return strings.Contains(arg, "=>")
	}
	// Single-parameter arrow without parens.
	if name, end := scanIdent(arg, 0); name != "" {
		rest := strings.TrimSpace(arg[end:])
		return strings.HasPrefix(rest, "=>")
	}
	return false
}

// HookDeclarations emits the callback arrays and their runner functions.
// This fragment precedes the reactivity functions because generated setters
// reference the update runner.
func HookDeclarations(h Hooks) string {
	if h.Empty() {
		return ""
	}
	var b strings.Builder

	writeKind := func(name string, bodies []string, param string) {
		if len(bodies) == 0 {
			return
		}
		b.WriteString("var " + name + "Hooks = [];\n")
		for _, body := range bodies {
			b.WriteString(name + "Hooks.push(" + body + ");\n")
		}
		b.WriteString("function run" + upperFirst(name) + "Hooks(" + param + ") {\n")
		b.WriteString("  for (var i = 0; i < " + name + "Hooks.length; i++) {\n")
		b.WriteString("    " + name + "Hooks[i](" + param + ");\n")
		b.WriteString("  }\n")
		b.WriteString("}\n")
	}

	writeKind("mount", h.Mount, "")
	writeKind("destroy", h.Destroy, "")
	writeKind("update", h.Update, "changed")
	return b.String()
}

// HookExecution emits the code that fires the runners: mount after all
// declarations have executed, destroy on page teardown.
func HookExecution(h Hooks) string {
	var b strings.Builder
	if len(h.Mount) > 0 {
		b.WriteString("runMountHooks();\n")
	}
	if len(h.Destroy) > 0 {
		b.WriteString("window.addEventListener('beforeunload', runDestroyHooks);\n")
	}
	return b.String()
}
