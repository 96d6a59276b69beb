package compiler

import (
	"encoding/json"
	"regexp"
	"strconv"
	"strings"
)

// Constants maps declared names to their compile-time values. Values are
// parsed literals (float64, bool, string, nil, []any, map[string]any) or,
// when the initializer does not parse as a literal, the raw source text.
type Constants map[string]any

var (
	wrapDeclPattern  = regexp.MustCompile(`(?m)^[ \t]*(?:let\s+|const\s+|var\s+)?([A-Za-z_$][A-Za-z0-9_$]*)\s*=\s*wrap\s*\(`)
	constDeclPattern = regexp.MustCompile(`(?m)^[ \t]*const\s+([A-Za-z_$][A-Za-z0-9_$]*)\s*=\s*`)
)

// ExtractConstants scans script text for reactive declarations with a
// literal argument and for plain const declarations, and resolves each to a
// compile-time value. Externally supplied overrides (route params, props)
// always win over extracted values.
func ExtractConstants(script string, overrides map[string]any) Constants {
	consts := make(Constants)

	for _, m := range wrapDeclPattern.FindAllStringSubmatchIndex(script, -1) {
		name := script[m[2]:m[3]]
		arg, _, ok := captureBalanced(script, m[1], '(', ')')
		if !ok {
			continue
		}
		if v, ok := ParseLiteral(arg); ok {
			consts[name] = v
		} else if strings.TrimSpace(arg) != "" {
			consts[name] = strings.TrimSpace(arg)
		}
	}

	for _, m := range constDeclPattern.FindAllStringSubmatchIndex(script, -1) {
		name := script[m[2]:m[3]]
		if _, taken := consts[name]; taken {
			continue
		}
		raw := captureStatement(script, m[1])
		if strings.HasPrefix(strings.TrimSpace(raw), "wrap") {
			continue
		}
		if v, ok := ParseLiteral(raw); ok {
			consts[name] = v
		} else if strings.TrimSpace(raw) != "" {
			consts[name] = strings.TrimSpace(raw)
		}
	}

	for name, v := range overrides {
		consts[name] = v
	}

	return consts
}

// captureBalanced returns the text between the opening bracket just before
// from and its depth-matched closing bracket, quote-aware, along with the
// index just past the closing bracket.
func captureBalanced(src string, from int, open, close byte) (string, int, bool) {
	depth := 1
	var quote byte
	for i := from; i < len(src); i++ {
		c := src[i]
		switch {
		case quote != 0:
			if c == '\\' {
				i++
			} else if c == quote {
				quote = 0
			}
		case c == '"' || c == '\'' || c == '`':
			quote = c
		case c == open:
			depth++
		case c == close:
			depth--
			if depth == 0 {
				return src[from:i], i + 1, true
			}
		}
	}
	return "", len(src), false
}

// captureStatement returns the initializer text from from to the end of the
// statement: a ';' or newline at bracket depth zero.
func captureStatement(src string, from int) string {
	depth := 0
	var quote byte
	for i := from; i < len(src); i++ {
		c := src[i]
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
		case (c == ';' || c == '\n') && depth <= 0:
			return src[from:i]
		}
	}
	return src[from:]
}

// ParseLiteral parses a restricted literal grammar: numbers, quoted
// strings, booleans, null, and nested arrays/objects of the same. It never
// evaluates code; anything else fails.
func ParseLiteral(text string) (any, bool) {
	p := literalParser{src: text}
	p.skipSpace()
	v, ok := p.value()
	if !ok {
		return nil, false
	}
	p.skipSpace()
	if p.pos != len(p.src) {
		return nil, false
	}
	return v, true
}

type literalParser struct {
	src string
	pos int
}

func (p *literalParser) skipSpace() {
	for p.pos < len(p.src) {
		switch p.src[p.pos] {
		case ' ', '\t', '\n', '\r':
			p.pos++
		default:
			return
		}
	}
}

func (p *literalParser) value() (any, bool) {
	if p.pos >= len(p.src) {
		return nil, false
	}
	switch c := p.src[p.pos]; {
	case c == '"' || c == '\'':
		return p.stringLit(c)
	case c == '[':
		return p.arrayLit()
	case c == '{':
		return p.objectLit()
	case c == '-' || (c >= '0' && c <= '9'):
		return p.numberLit()
	default:
		return p.wordLit()
	}
}

func (p *literalParser) stringLit(quote byte) (any, bool) {
	var b strings.Builder
	i := p.pos + 1
	for i < len(p.src) {
		c := p.src[i]
		if c == '\\' && i+1 < len(p.src) {
			next := p.src[i+1]
			switch next {
			case 'n':
				b.WriteByte('\n')
			case 't':
				b.WriteByte('\t')
			case 'r':
				b.WriteByte('\r')
			default:
				b.WriteByte(next)
			}
			i += 2
			continue
		}
		if c == quote {
			p.pos = i + 1
			return b.String(), true
		}
		b.WriteByte(c)
		i++
	}
	return nil, false
}

func (p *literalParser) arrayLit() (any, bool) {
	p.pos++
	items := []any{}
	p.skipSpace()
	if p.pos < len(p.src) && p.src[p.pos] == ']' {
		p.pos++
		return items, true
	}
	for {
		p.skipSpace()
		v, ok := p.value()
		if !ok {
			return nil, false
		}
		items = append(items, v)
		p.skipSpace()
		if p.pos >= len(p.src) {
			return nil, false
		}
		switch p.src[p.pos] {
		case ',':
			p.pos++
		case ']':
			p.pos++
			return items, true
		default:
			return nil, false
		}
	}
}

func (p *literalParser) objectLit() (any, bool) {
	p.pos++
	obj := map[string]any{}
	p.skipSpace()
	if p.pos < len(p.src) && p.src[p.pos] == '}' {
		p.pos++
		return obj, true
	}
	for {
		p.skipSpace()
		key, ok := p.objectKey()
		if !ok {
			return nil, false
		}
		p.skipSpace()
		if p.pos >= len(p.src) || p.src[p.pos] != ':' {
			return nil, false
		}
		p.pos++
		p.skipSpace()
		v, ok := p.value()
		if !ok {
			return nil, false
		}
		obj[key] = v
		p.skipSpace()
		if p.pos >= len(p.src) {
			return nil, false
		}
		switch p.src[p.pos] {
		case ',':
			p.pos++
		case '}':
			p.pos++
			return obj, true
		default:
			return nil, false
		}
	}
}

func (p *literalParser) objectKey() (string, bool) {
	if p.pos < len(p.src) && (p.src[p.pos] == '"' || p.src[p.pos] == '\'') {
		v, ok := p.stringLit(p.src[p.pos])
		if !ok {
			return "", false
		}
		return v.(string), true
	}
	start := p.pos
	for p.pos < len(p.src) && isIdentByte(p.src[p.pos]) {
		p.pos++
	}
	if p.pos == start {
		return "", false
	}
	return p.src[start:p.pos], true
}

func (p *literalParser) numberLit() (any, bool) {
	start := p.pos
	if p.src[p.pos] == '-' {
		p.pos++
	}
	digits := false
	for p.pos < len(p.src) {
		c := p.src[p.pos]
		if c >= '0' && c <= '9' {
			digits = true
			p.pos++
		} else if c == '.' || c == 'e' || c == 'E' || c == '+' || c == '-' {
			p.pos++
		} else {
			break
		}
	}
	if !digits {
		return nil, false
	}
	f, err := strconv.ParseFloat(p.src[start:p.pos], 64)
	if err != nil {
		return nil, false
	}
	return f, true
}

func (p *literalParser) wordLit() (any, bool) {
	start := p.pos
	for p.pos < len(p.src) && isIdentByte(p.src[p.pos]) {
		p.pos++
	}
	switch p.src[start:p.pos] {
	case "true":
		return true, true
	case "false":
		return false, true
	case "null", "undefined":
		return nil, true
	}
	return nil, false
}

func isIdentByte(c byte) bool {
	return c == '_' || c == '$' ||
		(c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z') || (c >= '0' && c <= '9')
}

// FormatConstant renders a constant value as display text: numbers without
// exponent noise, strings bare, composites as JSON.
func FormatConstant(v any) string {
	switch val := v.(type) {
	case nil:
		return "null"
	case bool:
		return strconv.FormatBool(val)
	case float64:
		return strconv.FormatFloat(val, 'f', -1, 64)
	case int:
		return strconv.Itoa(val)
	case string:
		return val
	default:
		b, err := json.Marshal(val)
		if err != nil {
			return ""
		}
		return string(b)
	}
}
