package compiler

import (
	"fmt"
	"sort"
	"strings"
)

// branchAttr and eachAttr are the marker attributes directive compilation
// leaves behind for the generated functions to address.
const (
	branchAttr = "data-branch"
	eachAttr   = "data-each"
)

// DirectiveCodegen is the output of directive compilation: the template
// with directive attributes compiled into marker attributes, and the
// generated toggle/render functions with their load-time invocations and
// re-render wiring.
type DirectiveCodegen struct {
	Template  string
	Functions string
}

// CompileDirectives compiles conditional chains (if / else-if / else) and
// each loops out of the template. Conditionals become display toggles
// evaluated once at load; loops become render functions re-run whenever a
// reactive dependency updates.
func CompileDirectives(template, scopeID string, names map[string]bool) DirectiveCodegen {
	var fns strings.Builder

	template = compileLoops(template, scopeID, names, &fns)
	template = compileConditionals(template, scopeID, names, &fns)

	return DirectiveCodegen{Template: template, Functions: fns.String()}
}

// compileConditionals repeatedly locates the first if-element, groups its
// chain of else-if/else siblings, tags each branch, and emits one evaluator
// per chain.
func compileConditionals(template, scopeID string, names map[string]bool, fns *strings.Builder) string {
	for chain := 0; ; chain++ {
		tag, cond, ok := findAttrTag(template, "if")
		if !ok {
			return template
		}

		type branch struct {
			tag  tagInfo
			end  int
			cond string // empty for else
			has  bool
		}
		branches := []branch{}

		end, ok := elementEnd(template, tag)
		if !ok {
			// Unterminated element: drop the attribute and move on.
			template = spliceTag(template, tag, removeAttr(tag.Attrs, "if"))
			continue
		}
		branches = append(branches, branch{tag: tag, end: end, cond: cond, has: true})

		// Walk following siblings for else-if / else.
		pos := end
		for {
			next := pos
			for next < len(template) && isSpaceByte(template[next]) {
				next++
			}
			if next >= len(template) || template[next] != '<' {
				break
			}
			sib, ok := parseTagAt(template, next)
			if !ok {
				break
			}
			elseCond, isElseIf := attrValue(sib.Attrs, "else-if")
			_, isElse := attrValue(sib.Attrs, "else")
			if !isElseIf && !isElse {
				break
			}
			sibEnd, ok := elementEnd(template, sib)
			if !ok {
				break
			}
			branches = append(branches, branch{tag: sib, end: sibEnd, cond: elseCond, has: isElseIf})
			pos = sibEnd
			if isElse {
				break
			}
		}

		// Rewrite branch open tags back-to-front so earlier indexes stay
		// valid.
		for i := len(branches) - 1; i >= 0; i-- {
			br := branches[i]
			attrs := removeAttr(br.tag.Attrs, "if")
			attrs = removeAttr(attrs, "else-if")
			attrs = removeAttr(attrs, "else")
			marker := fmt.Sprintf("%s-c%d-b%d", scopeID, chain, i)
			attrs = appendAttr(attrs, fmt.Sprintf(`%s="%s"`, branchAttr, marker))
			template = spliceTag(template, br.tag, attrs)
		}

		fmt.Fprintf(fns, "function evaluateBranch%d() {\n", chain)
		fns.WriteString("  var show = null;\n")
		for i, br := range branches {
			marker := fmt.Sprintf("%s-c%d-b%d", scopeID, chain, i)
			switch {
			case i == 0:
				fmt.Fprintf(fns, "  if (%s) {\n", RewriteScript(br.cond, names))
			case br.has:
				fmt.Fprintf(fns, "  } else if (%s) {\n", RewriteScript(br.cond, names))
			default:
				fns.WriteString("  } else {\n")
			}
			fmt.Fprintf(fns, "    show = '%s';\n", marker)
		}
		fns.WriteString("  }\n")
		fmt.Fprintf(fns, "  var branches = document.querySelectorAll('[%s^=\"%s-c%d-\"]');\n", branchAttr, scopeID, chain)
		fns.WriteString("  for (var i = 0; i < branches.length; i++) {\n")
		fns.WriteString("    var el = branches[i];\n")
		fmt.Fprintf(fns, "    el.style.display = el.getAttribute('%s') === show ? '' : 'none';\n", branchAttr)
		fns.WriteString("  }\n")
		fns.WriteString("}\n")
		fmt.Fprintf(fns, "evaluateBranch%d();\n", chain)
	}
}

// compileLoops locates each-elements, lifts their inner markup into a
// runtime-interpolated item template, and emits a batched render function
// wired to every reactive dependency.
func compileLoops(template, scopeID string, names map[string]bool, fns *strings.Builder) string {
	for n := 0; ; n++ {
		tag, spec, ok := findAttrTag(template, "each")
		if !ok {
			return template
		}

		itemVar, idxVar, arrExpr, specOK := parseEachSpec(spec)

		end, ok := elementEnd(template, tag)
		if !ok || !specOK {
			template = spliceTag(template, tag, removeAttr(tag.Attrs, "each"))
			continue
		}

		inner := ""
		closing := ""
		if end > tag.End {
			closeStart := strings.LastIndexByte(template[tag.End:end], '<')
			if closeStart >= 0 {
				inner = template[tag.End : tag.End+closeStart]
				closing = template[tag.End+closeStart : end]
			}
		}
		if closing == "" {
			closing = "</" + tag.Name + ">"
		}

		marker := fmt.Sprintf("%s-e%d", scopeID, n)
		attrs := removeAttr(tag.Attrs, "each")
		attrs = appendAttr(attrs, fmt.Sprintf(`%s="%s"`, eachAttr, marker))

		open := tagInfo{Name: tag.Name, Start: tag.Start, End: tag.End, Attrs: attrs}
		rebuilt := rebuildTag(open, attrs) + closing
		template = template[:tag.Start] + rebuilt + template[end:]

		locals := map[string]bool{itemVar: true}
		if idxVar != "" {
			locals[idxVar] = true
		}
		itemExpr := loopItemExpr(inner, names, locals)

		fmt.Fprintf(fns, "var _each%dContainer = null;\n", n)
		fmt.Fprintf(fns, "function renderEach%d() {\n", n)
		fmt.Fprintf(fns, "  var container = _each%dContainer || document.querySelector('[%s=\"%s\"]');\n", n, eachAttr, marker)
		fns.WriteString("  if (!container) {\n    return;\n  }\n")
		fmt.Fprintf(fns, "  _each%dContainer = container;\n", n)
		fmt.Fprintf(fns, "  var list = %s || [];\n", RewriteScript(arrExpr, names))
		fns.WriteString("  var html = '';\n")
		idx := idxVar
		if idx == "" {
			idx = "_i"
		}
		fmt.Fprintf(fns, "  for (var %s = 0; %s < list.length; %s++) {\n", idx, idx, idx)
		fmt.Fprintf(fns, "    var %s = list[%s];\n", itemVar, idx)
		fmt.Fprintf(fns, "    html += %s;\n", itemExpr)
		fns.WriteString("  }\n")
		fns.WriteString("  container.innerHTML = html;\n")
		fns.WriteString("}\n")
		fmt.Fprintf(fns, "renderEach%d();\n", n)

		for i, dep := range loopDeps(arrExpr, inner, names, locals) {
			prev := fmt.Sprintf("_prev%sEach%d_%d", upperFirst(updateFnName(dep)), n, i)
			fmt.Fprintf(fns, "var %s = %s;\n", prev, updateFnName(dep))
			fmt.Fprintf(fns, "%s = function(value) {\n  %s(value);\n  renderEach%d();\n};\n",
				updateFnName(dep), prev, n)
		}
	}
}

// parseEachSpec splits "item in arr" or "item, i in arr".
func parseEachSpec(spec string) (itemVar, idxVar, arrExpr string, ok bool) {
	in := strings.Index(spec, " in ")
	if in < 0 {
		return "", "", "", false
	}
	left := strings.TrimSpace(spec[:in])
	arrExpr = strings.TrimSpace(spec[in+4:])
	if arrExpr == "" {
		return "", "", "", false
	}
	if comma := strings.IndexByte(left, ','); comma >= 0 {
		itemVar = strings.TrimSpace(left[:comma])
		idxVar = strings.TrimSpace(left[comma+1:])
	} else {
		itemVar = left
	}
	if itemVar == "" {
		return "", "", "", false
	}
	return itemVar, idxVar, arrExpr, true
}

// loopItemExpr turns item markup into a JS concatenation expression:
// literal chunks become string literals, interpolations become
// parenthesized expressions with reactive reads rewritten and loop locals
// left alone.
func loopItemExpr(inner string, names, locals map[string]bool) string {
	refs := ParseReferences(inner)
	if len(refs) == 0 {
		return jsString(inner)
	}

	outer := make(map[string]bool, len(names))
	for name := range names {
		if !locals[name] {
			outer[name] = true
		}
	}

	var parts []string
	last := 0
	for _, ref := range refs {
		if ref.Start > last {
			parts = append(parts, jsString(inner[last:ref.Start]))
		}
		expr := RewriteScript(ref.Expr, outer)
		parts = append(parts, "("+expr+")")
		last = ref.End
	}
	if last < len(inner) {
		parts = append(parts, jsString(inner[last:]))
	}
	return strings.Join(parts, " + ")
}

// loopDeps lists the reactive/computed names the loop reads, from the array
// expression and the item template, excluding loop locals.
func loopDeps(arrExpr, inner string, names, locals map[string]bool) []string {
	var deps []string
	seen := make(map[string]bool)
	add := func(name string) {
		if names[name] && !locals[name] && !seen[name] {
			seen[name] = true
			deps = append(deps, name)
		}
	}

	for name := range names {
		if identPattern(name).MatchString(arrExpr) {
			add(name)
		}
	}
	for _, ref := range ParseReferences(inner) {
		if ref.Base != "" {
			add(ref.Base)
		}
	}

	// Map iteration order would otherwise leak into the wiring.
	sort.Strings(deps)
	return deps
}

// findAttrTag locates the first open tag carrying the named attribute.
func findAttrTag(template, attr string) (tagInfo, string, bool) {
	pos := 0
	for pos < len(template) {
		lt := strings.IndexByte(template[pos:], '<')
		if lt < 0 {
			return tagInfo{}, "", false
		}
		pos += lt
		tag, ok := parseTagAt(template, pos)
		if !ok {
			pos++
			continue
		}
		if value, has := attrValue(tag.Attrs, attr); has {
			return tag, value, true
		}
		pos = tag.End
	}
	return tagInfo{}, "", false
}

// spliceTag replaces a tag's open text with a rebuilt one carrying new
// attribute text.
func spliceTag(template string, tag tagInfo, attrs string) string {
	return template[:tag.Start] + rebuildTag(tag, attrs) + template[tag.End:]
}

func appendAttr(attrs, add string) string {
	if attrs == "" {
		return add
	}
	return attrs + " " + add
}

func isSpaceByte(c byte) bool {
	return c == ' ' || c == '\t' || c == '\n' || c == '\r'
}
