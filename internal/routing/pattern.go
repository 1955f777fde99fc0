package routing

import "strings"

// PathPattern matches paths segment by segment. A segment is either a
// literal or a parameter "{name}", optionally followed by a literal
// suffix such as "{id}:cancel".
type PathPattern struct {
	raw      string
	segments []patternSegment
}

type patternSegment struct {
	literal string
	param   string
	suffix  string
}

func parsePathPattern(raw string) (PathPattern, bool) {
	if !strings.Contains(raw, "{") {
		return PathPattern{}, false
	}
	if raw == "" || raw[0] != '/' {
		return PathPattern{}, false
	}

	parts := splitPathSegments(raw)
	segs := make([]patternSegment, 0, len(parts))
	for _, s := range parts {
		if s == "" {
			return PathPattern{}, false
		}
		if !strings.ContainsAny(s, "{}") {
			segs = append(segs, patternSegment{literal: s})
			continue
		}
		seg, ok := parseParamSegment(s)
		if !ok {
			return PathPattern{}, false
		}
		segs = append(segs, seg)
	}
	return PathPattern{raw: raw, segments: segs}, true
}

func parseParamSegment(s string) (patternSegment, bool) {
	if !strings.HasPrefix(s, "{") {
		return patternSegment{}, false
	}
	name, suffix, ok := strings.Cut(s[1:], "}")
	if !ok || name == "" || strings.ContainsAny(name, "{}") || strings.ContainsAny(suffix, "{}") {
		return patternSegment{}, false
	}
	if suffix != "" && !strings.HasPrefix(suffix, ":") {
		return patternSegment{}, false
	}
	return patternSegment{param: name, suffix: suffix}, true
}

func (p PathPattern) String() string { return p.raw }

// specificity counts the literal bytes a path must carry to match.
func (p PathPattern) specificity() int {
	n := 0
	for _, s := range p.segments {
		n += len(s.literal) + len(s.suffix)
	}
	return n
}

// Match returns the captured parameters when path matches.
func (p PathPattern) Match(path string) (map[string]string, bool) {
	if p.raw == "" {
		return nil, false
	}
	in := splitPathSegments(path)
	if len(in) != len(p.segments) {
		return nil, false
	}
	var params map[string]string
	for i, want := range p.segments {
		got := in[i]
		if got == "" {
			return nil, false
		}
		if want.param == "" {
			if got != want.literal {
				return nil, false
			}
			continue
		}
		value, ok := strings.CutSuffix(got, want.suffix)
		if !ok || value == "" {
			return nil, false
		}
		if params == nil {
			params = make(map[string]string, 1)
		}
		params[want.param] = value
	}
	return params, true
}

func splitPathSegments(path string) []string {
	path = strings.TrimSpace(path)
	path = strings.TrimPrefix(path, "/")
	if path == "" {
		return nil
	}
	return strings.Split(path, "/")
}

// MatchPath reports whether path matches the declared route, which may be
// literal or a pattern.
func MatchPath(declared string, path string) bool {
	return matchRoutePath(declared, path)
}
