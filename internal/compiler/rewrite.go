package compiler

import "strings"

// RewriteScript rewrites uses of reactive names in script text into
// accessor calls:
//
//	x++        ->  x(x() + 1)        (also --, and the prefix forms)
//	x = v      ->  x(v)
//	x += v     ->  x(x() + v)        (also -=, *=, /=)
//	x          ->  x()               (bare read)
//
// The scan honors identifier boundaries, skips string literals and
// comments, and leaves alone names preceded by '.' (property access),
// names immediately followed by '(' (already a call), and names
// immediately followed by ':' (object keys). Shadowed locals of the same
// name are a known blind spot of this pattern grammar.
func RewriteScript(src string, names map[string]bool) string {
	if len(names) == 0 {
		return src
	}

	var (
		out     strings.Builder
		pending []int // bracket depth at which an open setter call closes
		depth   int
	)
	out.Grow(len(src) + 16)

	closeAtTerminator := func() {
		for len(pending) > 0 && depth <= pending[len(pending)-1] {
			out.WriteByte(')')
			pending = pending[:len(pending)-1]
		}
	}
	closeAtCloser := func() {
		for len(pending) > 0 && depth < pending[len(pending)-1] {
			out.WriteByte(')')
			pending = pending[:len(pending)-1]
		}
	}

	i := 0
	for i < len(src) {
		c := src[i]

		switch {
		case c == '"' || c == '\'' || c == '`':
			end := skipString(src, i)
			out.WriteString(src[i:end])
			i = end
			continue
		case c == '/' && i+1 < len(src) && src[i+1] == '/':
			end := strings.IndexByte(src[i:], '\n')
			if end < 0 {
				end = len(src)
			} else {
				end += i
			}
			out.WriteString(src[i:end])
			i = end
			continue
		case c == '/' && i+1 < len(src) && src[i+1] == '*':
			end := strings.Index(src[i+2:], "*/")
			if end < 0 {
				end = len(src)
			} else {
				end += i + 4
			}
			out.WriteString(src[i:end])
			i = end
			continue
		}

		// Prefix ++x / --x.
		if (c == '+' || c == '-') && i+1 < len(src) && src[i+1] == c {
			j := i + 2
			for j < len(src) && (src[j] == ' ' || src[j] == '\t') {
				j++
			}
			if name, end := scanIdent(src, j); name != "" && names[name] && !isIdentByte(byteAt(src, end)) {
				out.WriteString(name + "(" + name + "() " + string(c) + " 1)")
				i = end
				continue
			}
		}

		if isIdentStart(c) {
			name, end := scanIdent(src, i)
			if names[name] && !isIdentByte(byteAt(src, i-1)) && prevMeaningfulByte(src, i) != '.' {
				i = rewriteUse(&out, src, name, end, &pending, depth)
				continue
			}
			out.WriteString(name)
			i = end
			continue
		}

		switch c {
		case '(', '[', '{':
			depth++
		case ')', ']', '}':
			depth--
			closeAtCloser()
		case ';', ',', '\n':
			closeAtTerminator()
		}
		out.WriteByte(c)
		i++
	}

	for range pending {
		out.WriteByte(')')
	}
	return out.String()
}

// rewriteUse emits the rewritten form of one reactive-name occurrence
// (already scanned as src[...:end]) and returns the position to resume at.
// Setter calls opened here are closed by the caller at statement end.
func rewriteUse(out *strings.Builder, src, name string, end int, pending *[]int, depth int) int {
	j := end
	for j < len(src) && (src[j] == ' ' || src[j] == '\t') {
		j++
	}

	// Postfix x++ / x--.
	if j+1 < len(src) && (src[j] == '+' || src[j] == '-') && src[j+1] == src[j] {
		out.WriteString(name + "(" + name + "() " + string(src[j]) + " 1)")
		return j + 2
	}

	// Compound assignment x += v and friends.
	if j+1 < len(src) && strings.IndexByte("+-*/", src[j]) >= 0 && src[j+1] == '=' && byteAt(src, j+2) != '=' {
		out.WriteString(name + "(" + name + "() " + string(src[j]) + " ")
		*pending = append(*pending, depth)
		return skipHorizontal(src, j+2)
	}

	// Plain assignment x = v, excluding ==, === and =>.
	if j < len(src) && src[j] == '=' && byteAt(src, j+1) != '=' && byteAt(src, j+1) != '>' {
		out.WriteString(name + "(")
		*pending = append(*pending, depth)
		return skipHorizontal(src, j+1)
	}

	// Already a call, or an object key: leave the name alone.
	if end < len(src) && (src[end] == '(' || src[end] == ':') {
		out.WriteString(name)
		return end
	}

	out.WriteString(name + "()")
	return end
}

func scanIdent(src string, i int) (string, int) {
	if i >= len(src) || !isIdentStart(src[i]) {
		return "", i
	}
	end := i
	for end < len(src) && isIdentByte(src[end]) {
		end++
	}
	return src[i:end], end
}

// skipString returns the position just past a string literal starting at i.
func skipString(src string, i int) int {
	quote := src[i]
	for j := i + 1; j < len(src); j++ {
		switch src[j] {
		case '\\':
			j++
		case quote:
			return j + 1
		}
	}
	return len(src)
}

func skipHorizontal(src string, i int) int {
	for i < len(src) && (src[i] == ' ' || src[i] == '\t') {
		i++
	}
	return i
}

// prevMeaningfulByte looks back over horizontal whitespace for the last
// significant byte before i.
func prevMeaningfulByte(src string, i int) byte {
	for j := i - 1; j >= 0; j-- {
		if src[j] != ' ' && src[j] != '\t' {
			return src[j]
		}
	}
	return 0
}

func byteAt(src string, i int) byte {
	if i < 0 || i >= len(src) {
		return 0
	}
	return src[i]
}

func isIdentStart(c byte) bool {
	return c == '_' || c == '$' || (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z')
}
