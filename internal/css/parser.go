// Package css implements a small structural CSS parser and the scope
// rewriter that confines component styles to their rendered subtree.
//
// The parser is a single-pass state machine over characters. It does not
// validate CSS; it recovers enough structure (selector lists, declarations,
// at-rule preludes) for selectors to be rewritten and the text re-emitted.
package css

import "strings"

type parseState int

const (
	stateBetween parseState = iota
	stateSelector
	stateProperty
	stateValue
	stateComment
	stateAtRule
	stateString
)

// Property is a single name:value declaration.
type Property struct {
	Name  string
	Value string
}

// Rule is one parsed rule: a selector list with declarations, optionally
// carried inside an at-rule block whose prelude is kept verbatim. Statement
// at-rules such as @import produce a Rule with only AtRule set; at-rule
// blocks holding bare declarations (@font-face) produce a Rule with
// properties and no selectors.
type Rule struct {
	Selectors  []string
	Properties []Property
	AtRule     string
}

// Parse runs the structural parser over raw CSS text. Malformed input
// degrades: unterminated trailing rules are dropped, stray braces are
// ignored, and the parser never fails.
func Parse(source string) []Rule {
	var (
		rules     []Rule
		state     = stateBetween
		returnTo  = stateBetween
		quote     byte
		buf       strings.Builder // selector or at-rule prelude
		name      strings.Builder
		value     strings.Builder
		props     []Property
		selectors []string
		atPrelude string
		inAtBlock bool
		atProps   []Property
		parens    int
	)

	// activeBuf picks the builder a quoted string or comment return feeds.
	activeBuf := func(s parseState) *strings.Builder {
		switch s {
		case stateValue:
			return &value
		case stateProperty:
			return &name
		default:
			return &buf
		}
	}

	flushDecl := func() {
		n := strings.TrimSpace(name.String())
		v := strings.TrimSpace(value.String())
		if n != "" {
			props = append(props, Property{Name: n, Value: v})
		}
		name.Reset()
		value.Reset()
	}

	flushRule := func() {
		if len(selectors) > 0 {
			rules = append(rules, Rule{Selectors: selectors, Properties: props, AtRule: atPrelude})
		}
		selectors = nil
		props = nil
	}

	closeAtBlock := func() {
		if len(atProps) > 0 {
			rules = append(rules, Rule{Properties: atProps, AtRule: atPrelude})
			atProps = nil
		}
		atPrelude = ""
		inAtBlock = false
	}

	isCommentStart := func(i int) bool {
		return source[i] == '/' && i+1 < len(source) && source[i+1] == '*'
	}

	for i := 0; i < len(source); i++ {
		c := source[i]

		switch state {
		case stateComment:
			if c == '*' && i+1 < len(source) && source[i+1] == '/' {
				i++
				state = returnTo
			}

		case stateString:
			activeBuf(returnTo).WriteByte(c)
			if c == '\\' && i+1 < len(source) {
				i++
				activeBuf(returnTo).WriteByte(source[i])
			} else if c == quote {
				state = returnTo
			}

		case stateBetween:
			switch {
			case isCommentStart(i):
				i++
				returnTo = stateBetween
				state = stateComment
			case c == '}':
				if inAtBlock {
					closeAtBlock()
				}
			case c == '@':
				buf.Reset()
				buf.WriteByte(c)
				state = stateAtRule
			case c == ' ' || c == '\t' || c == '\n' || c == '\r' || c == ';':
			default:
				buf.Reset()
				buf.WriteByte(c)
				state = stateSelector
			}

		case stateSelector:
			switch {
			case isCommentStart(i):
				i++
				returnTo = stateSelector
				state = stateComment
			case c == '"' || c == '\'':
				quote = c
				buf.WriteByte(c)
				returnTo = stateSelector
				state = stateString
			case c == '{':
				selectors = splitSelectors(buf.String())
				buf.Reset()
				state = stateProperty
			case c == '}':
				buf.Reset()
				if inAtBlock {
					closeAtBlock()
				}
				state = stateBetween
			case c == ';':
				// No block followed. Inside an at-rule body this is a bare
				// declaration (@font-face); elsewhere the fragment is junk.
				if inAtBlock {
					if txt := buf.String(); strings.Contains(txt, ":") {
						colon := strings.IndexByte(txt, ':')
						atProps = append(atProps, Property{
							Name:  strings.TrimSpace(txt[:colon]),
							Value: strings.TrimSpace(txt[colon+1:]),
						})
					}
				}
				buf.Reset()
				state = stateBetween
			default:
				buf.WriteByte(c)
			}

		case stateAtRule:
			switch {
			case isCommentStart(i):
				i++
				returnTo = stateAtRule
				state = stateComment
			case c == '"' || c == '\'':
				quote = c
				buf.WriteByte(c)
				returnTo = stateAtRule
				state = stateString
			case c == ';':
				rules = append(rules, Rule{AtRule: strings.TrimSpace(buf.String())})
				buf.Reset()
				state = stateBetween
			case c == '{':
				atPrelude = strings.TrimSpace(buf.String())
				inAtBlock = true
				buf.Reset()
				state = stateBetween
			default:
				buf.WriteByte(c)
			}

		case stateProperty:
			switch {
			case isCommentStart(i):
				i++
				returnTo = stateProperty
				state = stateComment
			case c == ':':
				state = stateValue
				parens = 0
			case c == ';':
				name.Reset()
			case c == '}':
				name.Reset()
				flushRule()
				state = stateBetween
			case c == '{':
				// Nested blocks are not part of the grammar; drop the name.
				name.Reset()
			default:
				name.WriteByte(c)
			}

		case stateValue:
			switch {
			case isCommentStart(i):
				i++
				returnTo = stateValue
				state = stateComment
			case c == '"' || c == '\'':
				quote = c
				value.WriteByte(c)
				returnTo = stateValue
				state = stateString
			case c == '(':
				parens++
				value.WriteByte(c)
			case c == ')':
				if parens > 0 {
					parens--
				}
				value.WriteByte(c)
			case c == ';' && parens == 0:
				flushDecl()
				state = stateProperty
			case c == '}':
				flushDecl()
				flushRule()
				state = stateBetween
			default:
				value.WriteByte(c)
			}
		}
	}

	// Whatever is still open at EOF is an unterminated rule and is dropped,
	// but a block-less at-rule body that already produced declarations is
	// kept.
	if inAtBlock {
		closeAtBlock()
	}

	return rules
}

// splitSelectors splits a selector list on commas outside parens, brackets,
// and strings, normalizing internal whitespace.
func splitSelectors(raw string) []string {
	var (
		out   []string
		depth int
		quote byte
		start int
	)
	push := func(end int) {
		s := strings.Join(strings.Fields(raw[start:end]), " ")
		if s != "" {
			out = append(out, s)
		}
	}
	for i := 0; i < len(raw); i++ {
		c := raw[i]
		switch {
		case quote != 0:
			if c == '\\' {
				i++
			} else if c == quote {
				quote = 0
			}
		case c == '"' || c == '\'':
			quote = c
		case c == '(' || c == '[':
			depth++
		case c == ')' || c == ']':
			if depth > 0 {
				depth--
			}
		case c == ',' && depth == 0:
			push(i)
			start = i + 1
		}
	}
	push(len(raw))
	return out
}

// Serialize renders rules back to CSS text. Consecutive rules sharing an
// at-rule prelude are grouped into a single block.
func Serialize(rules []Rule) string {
	var b strings.Builder
	for i := 0; i < len(rules); {
		r := rules[i]
		if r.AtRule == "" {
			writeRule(&b, r, "")
			i++
			continue
		}
		if len(r.Selectors) == 0 && len(r.Properties) == 0 {
			b.WriteString(r.AtRule)
			b.WriteString(";\n")
			i++
			continue
		}
		b.WriteString(r.AtRule)
		b.WriteString(" {\n")
		j := i
		for j < len(rules) && rules[j].AtRule == r.AtRule &&
			(len(rules[j].Selectors) > 0 || len(rules[j].Properties) > 0) {
			writeRule(&b, rules[j], "  ")
			j++
		}
		b.WriteString("}\n")
		i = j
	}
	return b.String()
}

func writeRule(b *strings.Builder, r Rule, indent string) {
	hasBlock := len(r.Selectors) > 0
	if hasBlock {
		b.WriteString(indent)
		b.WriteString(strings.Join(r.Selectors, ", "))
		b.WriteString(" {\n")
	}
	for _, p := range r.Properties {
		b.WriteString(indent)
		if hasBlock {
			b.WriteString("  ")
		}
		b.WriteString(p.Name)
		b.WriteString(": ")
		b.WriteString(p.Value)
		b.WriteString(";\n")
	}
	if hasBlock {
		b.WriteString(indent)
		b.WriteString("}\n")
	}
}
