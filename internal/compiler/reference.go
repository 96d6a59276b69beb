package compiler

import "strings"

// Reference is one interpolation span found in template text. Base and Path
// are filled only when the expression is a bare identifier or a dot chain;
// call expressions keep their base name for dependency tracking but carry
// no path. Anything more complex leaves Base empty.
type Reference struct {
	Start int
	End   int
	Text  string
	Expr  string
	Raw   bool
	Base  string
	Path  []string
}

// ParseReferences scans template text for the three interpolation forms:
// escaped {{expr}}, and the raw spellings {{{expr}}} and {{@expr}}.
func ParseReferences(template string) []Reference {
	var refs []Reference

	for i := 0; i+1 < len(template); {
		if template[i] != '{' || template[i+1] != '{' {
			i++
			continue
		}

		var (
			opener = 2
			closer = "}}"
			raw    bool
			skip   = 0
		)
		switch {
		case i+2 < len(template) && template[i+2] == '{':
			opener = 3
			closer = "}}}"
			raw = true
		case i+2 < len(template) && template[i+2] == '@':
			opener = 2
			skip = 1
			raw = true
		}

		end := strings.Index(template[i+opener:], closer)
		if end < 0 {
			i += opener
			continue
		}
		end += i + opener

		inner := template[i+opener+skip : end]
		ref := Reference{
			Start: i,
			End:   end + len(closer),
			Text:  template[i : end+len(closer)],
			Expr:  strings.TrimSpace(inner),
			Raw:   raw,
		}
		ref.Base, ref.Path = analyzeExpr(ref.Expr)
		refs = append(refs, ref)

		i = ref.End
	}

	return refs
}

// analyzeExpr classifies an interpolation expression. A bare identifier or
// dot chain yields base plus path segments; a call on a chain yields only
// the base; anything else yields nothing.
func analyzeExpr(expr string) (string, []string) {
	if expr == "" {
		return "", nil
	}

	segs := []string{}
	pos := 0
	for {
		start := pos
		for pos < len(expr) && isIdentByte(expr[pos]) {
			pos++
		}
		if pos == start || (expr[start] >= '0' && expr[start] <= '9') {
			return "", nil
		}
		segs = append(segs, expr[start:pos])

		if pos == len(expr) {
			// Clean chain: identifier or property access.
			if len(segs) == 1 {
				return segs[0], nil
			}
			return segs[0], segs[1:]
		}
		switch expr[pos] {
		case '.':
			pos++
		case '(':
			// Call on the chain: track the base only.
			return segs[0], nil
		default:
			return "", nil
		}
	}
}
