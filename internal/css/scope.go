package css

import "strings"

// Scoper rewrites parsed rules so their selectors only match inside one
// component's rendered subtree. Selector rewrites are memoized per
// (marker, selector) pair; callers keep one Scoper per compile session so
// repeated compiles stay independent.
type Scoper struct {
	cache map[scopeKey]string
}

type scopeKey struct {
	marker   string
	selector string
}

// NewScoper returns an empty Scoper.
func NewScoper() *Scoper {
	return &Scoper{cache: make(map[scopeKey]string)}
}

// Scope parses source and prefixes every selector with the component's
// marker attribute. :root selectors stay bare, selectors already carrying
// the marker are left alone, and at-rule preludes pass through untouched
// while their inner selectors are scoped. When the style is not isolated,
// every selector is additionally emitted once per child marker as
// "[marker] [child] selector" so a parent stylesheet can reach its rendered
// children.
func (s *Scoper) Scope(source, marker string, childMarkers []string, isolated bool) string {
	return Serialize(s.ScopeRules(Parse(source), marker, childMarkers, isolated))
}

// ScopeRules applies the selector rewrite to already parsed rules.
func (s *Scoper) ScopeRules(rules []Rule, marker string, childMarkers []string, isolated bool) []Rule {
	out := make([]Rule, 0, len(rules))
	for _, r := range rules {
		if len(r.Selectors) == 0 || isKeyframes(r.AtRule) {
			out = append(out, r)
			continue
		}
		scoped := make([]string, 0, len(r.Selectors))
		for _, sel := range r.Selectors {
			scoped = append(scoped, s.scopeSelector(sel, marker))
			if isolated || isRootSelector(sel) || strings.Contains(sel, "["+marker+"]") {
				continue
			}
			for _, child := range childMarkers {
				scoped = append(scoped, "["+marker+"] ["+child+"] "+sel)
			}
		}
		r.Selectors = scoped
		out = append(out, r)
	}
	return out
}

func (s *Scoper) scopeSelector(sel, marker string) string {
	key := scopeKey{marker: marker, selector: sel}
	if cached, ok := s.cache[key]; ok {
		return cached
	}
	scoped := sel
	if !isRootSelector(sel) && !strings.Contains(sel, "["+marker+"]") {
		scoped = "[" + marker + "] " + sel
	}
	s.cache[key] = scoped
	return scoped
}

// isRootSelector reports whether a selector starts at :root, the one
// global-declaration escape hatch left unscoped.
func isRootSelector(sel string) bool {
	const root = ":root"
	if !strings.HasPrefix(sel, root) {
		return false
	}
	if len(sel) == len(root) {
		return true
	}
	switch sel[len(root)] {
	case ' ', '.', '[', ':', '>':
		return true
	}
	return false
}

// isKeyframes reports whether an at-rule prelude declares keyframes, whose
// inner selectors are frame offsets rather than element selectors.
func isKeyframes(prelude string) bool {
	return strings.HasPrefix(prelude, "@keyframes") ||
		strings.HasPrefix(prelude, "@-webkit-keyframes")
}
