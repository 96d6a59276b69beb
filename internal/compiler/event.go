package compiler

import (
	"fmt"
	"regexp"
	"sort"
	"strings"
)

// EventCodegen is the output of inline-handler compilation: the template
// with handler attributes pointing at hoisted functions, and those
// functions' definitions.
type EventCodegen struct {
	Template  string
	Functions string
	Count     int
}

var onAttrPattern = regexp.MustCompile(`(?i)\bon([a-z]+)\s*=\s*("([^"]*)"|'([^']*)')`)

// CompileEvents hoists every inline onX handler into a uniquely named
// global function whose body has reactive reads and writes rewritten, and
// repoints the attribute at it. Handlers are compiled before directives so
// markup lifted into loop templates already carries the final calls.
func CompileEvents(template, scopeID string, names map[string]bool) EventCodegen {
	var tags []tagInfo
	pos := 0
	for pos < len(template) {
		lt := strings.IndexByte(template[pos:], '<')
		if lt < 0 {
			break
		}
		pos += lt
		tag, ok := parseTagAt(template, pos)
		if !ok {
			pos++
			continue
		}
		tags = append(tags, tag)
		pos = tag.End
	}

	var fns strings.Builder
	count := 0
	type patch struct {
		tag   tagInfo
		attrs string
	}
	var patches []patch

	for _, tag := range tags {
		if !onAttrPattern.MatchString(tag.Attrs) {
			continue
		}
		attrs := onAttrPattern.ReplaceAllStringFunc(tag.Attrs, func(m string) string {
			sub := onAttrPattern.FindStringSubmatch(m)
			event := strings.ToLower(sub[1])
			body := sub[3]
			if body == "" {
				body = sub[4]
			}

			name := handlerName(scopeID, count)
			count++

			fmt.Fprintf(&fns, "function %s(event) {\n  %s;\n", name, strings.TrimSpace(RewriteScript(body, names)))
			for _, upd := range mutationUpdates(body, names) {
				fns.WriteString("  " + upd + "\n")
			}
			fns.WriteString("}\n")

			return fmt.Sprintf(`on%s="%s(event)"`, event, name)
		})
		patches = append(patches, patch{tag: tag, attrs: attrs})
	}

	// Splice backward so earlier tag offsets stay valid.
	for i := len(patches) - 1; i >= 0; i-- {
		template = spliceTag(template, patches[i].tag, patches[i].attrs)
	}

	return EventCodegen{Template: template, Functions: fns.String(), Count: count}
}

func handlerName(scopeID string, n int) string {
	return fmt.Sprintf("h_%s_%d", strings.ReplaceAll(scopeID, "-", "_"), n)
}

// mutationUpdates detects member mutations that slip past accessor
// rewriting (user.name = v, items.push(v)) and returns the extra DOM
// update calls the handler still needs.
func mutationUpdates(body string, names map[string]bool) []string {
	sorted := make([]string, 0, len(names))
	for name := range names {
		sorted = append(sorted, name)
	}
	sort.Strings(sorted)

	var updates []string
	for _, name := range sorted {
		assign := regexp.MustCompile(`\b` + regexp.QuoteMeta(name) + `(\.[A-Za-z_$][A-Za-z0-9_$]*)+\s*([+\-*/]=|=([^=]|$))`)
		method := regexp.MustCompile(`\b` + regexp.QuoteMeta(name) + `(\.[A-Za-z_$][A-Za-z0-9_$]*)*\.(push|pop|splice|shift|unshift|sort|reverse)\s*\(`)
		if assign.MatchString(body) || method.MatchString(body) {
			updates = append(updates, fmt.Sprintf("%s(%s());", updateFnName(name), name))
		}
	}
	return updates
}
