package compiler

import "strings"

// tagInfo describes one open tag scanned out of template text.
type tagInfo struct {
	Name        string
	Start       int // index of '<'
	End         int // index just past '>'
	Attrs       string
	SelfClosing bool
}

// voidElements never take a closing tag.
var voidElements = map[string]bool{
	"area": true, "base": true, "br": true, "col": true, "embed": true,
	"hr": true, "img": true, "input": true, "link": true, "meta": true,
	"source": true, "track": true, "wbr": true,
}

// parseTagAt parses the open tag starting at pos, which must be '<'.
func parseTagAt(src string, pos int) (tagInfo, bool) {
	if pos >= len(src) || src[pos] != '<' {
		return tagInfo{}, false
	}
	i := pos + 1
	start := i
	for i < len(src) && isTagNameByte(src[i]) {
		i++
	}
	if i == start {
		return tagInfo{}, false
	}
	info := tagInfo{Name: src[start:i], Start: pos}

	var quote byte
	for i < len(src) {
		c := src[i]
		switch {
		case quote != 0:
			if c == quote {
				quote = 0
			}
		case c == '"' || c == '\'':
			quote = c
		case c == '>':
			raw := src[start+len(info.Name) : i]
			info.SelfClosing = strings.HasSuffix(strings.TrimSpace(raw), "/")
			info.Attrs = strings.TrimSpace(strings.TrimSuffix(strings.TrimSpace(raw), "/"))
			info.End = i + 1
			return info, true
		}
		i++
	}
	return tagInfo{}, false
}

// elementEnd returns the index just past the element's closing tag,
// depth-matching nested same-named tags. Void and self-closing elements end
// at their open tag.
func elementEnd(src string, tag tagInfo) (int, bool) {
	if tag.SelfClosing || voidElements[strings.ToLower(tag.Name)] {
		return tag.End, true
	}
	depth := 1
	pos := tag.End
	for pos < len(src) {
		lt := strings.IndexByte(src[pos:], '<')
		if lt < 0 {
			return 0, false
		}
		pos += lt

		if matchClosingTag(src, pos, tag.Name) {
			depth--
			end := skipPast(src, pos, '>')
			if depth == 0 {
				return end, true
			}
			pos = end
			continue
		}
		if nested, ok := parseTagAt(src, pos); ok && strings.EqualFold(nested.Name, tag.Name) {
			if !nested.SelfClosing {
				depth++
			}
			pos = nested.End
			continue
		}
		pos++
	}
	return 0, false
}

// attrValue extracts a named attribute's value from raw attribute text.
// Bare attributes yield an empty value.
func attrValue(attrs, name string) (string, bool) {
	i := 0
	for i < len(attrs) {
		for i < len(attrs) && (attrs[i] == ' ' || attrs[i] == '\t' || attrs[i] == '\n' || attrs[i] == '\r') {
			i++
		}
		start := i
		for i < len(attrs) && attrs[i] != '=' && attrs[i] != ' ' && attrs[i] != '\t' && attrs[i] != '\n' && attrs[i] != '\r' {
			i++
		}
		attrName := attrs[start:i]
		if i >= len(attrs) || attrs[i] != '=' {
			if strings.EqualFold(attrName, name) {
				return "", true
			}
			continue
		}
		i++
		var value string
		if i < len(attrs) && (attrs[i] == '"' || attrs[i] == '\'') {
			quote := attrs[i]
			i++
			vstart := i
			for i < len(attrs) && attrs[i] != quote {
				i++
			}
			value = attrs[vstart:i]
			i++
		} else {
			vstart := i
			for i < len(attrs) && attrs[i] != ' ' && attrs[i] != '\t' {
				i++
			}
			value = attrs[vstart:i]
		}
		if strings.EqualFold(attrName, name) {
			return value, true
		}
	}
	return "", false
}

// removeAttr strips a named attribute (with any value) from raw attribute
// text.
func removeAttr(attrs, name string) string {
	var out []string
	i := 0
	for i < len(attrs) {
		for i < len(attrs) && (attrs[i] == ' ' || attrs[i] == '\t' || attrs[i] == '\n' || attrs[i] == '\r') {
			i++
		}
		start := i
		for i < len(attrs) && attrs[i] != '=' && attrs[i] != ' ' && attrs[i] != '\t' && attrs[i] != '\n' && attrs[i] != '\r' {
			i++
		}
		attrName := attrs[start:i]
		end := i
		if i < len(attrs) && attrs[i] == '=' {
			i++
			if i < len(attrs) && (attrs[i] == '"' || attrs[i] == '\'') {
				quote := attrs[i]
				i++
				for i < len(attrs) && attrs[i] != quote {
					i++
				}
				i++
			} else {
				for i < len(attrs) && attrs[i] != ' ' && attrs[i] != '\t' {
					i++
				}
			}
			end = i
		}
		if attrName != "" && !strings.EqualFold(attrName, name) {
			out = append(out, attrs[start:end])
		}
	}
	return strings.Join(out, " ")
}

// rebuildTag re-emits an open tag with replacement attribute text.
func rebuildTag(tag tagInfo, attrs string) string {
	var b strings.Builder
	b.WriteByte('<')
	b.WriteString(tag.Name)
	if attrs != "" {
		b.WriteByte(' ')
		b.WriteString(attrs)
	}
	if tag.SelfClosing {
		b.WriteString("/>")
	} else {
		b.WriteByte('>')
	}
	return b.String()
}

func isTagNameByte(c byte) bool {
	return c == '-' || (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z') || (c >= '0' && c <= '9')
}

// jsString renders text as a single-quoted JavaScript string literal.
func jsString(text string) string {
	var b strings.Builder
	b.WriteByte('\'')
	for i := 0; i < len(text); i++ {
		switch c := text[i]; c {
		case '\\':
			b.WriteString(`\\`)
		case '\'':
			b.WriteString(`\'`)
		case '\n':
			b.WriteString(`\n`)
		case '\r':
			b.WriteString(`\r`)
		case '\t':
			b.WriteString(`\t`)
		default:
			b.WriteByte(c)
		}
	}
	b.WriteByte('\'')
	return b.String()
}
