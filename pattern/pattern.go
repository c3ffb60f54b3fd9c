// Package pattern matches EVDS series codes against wildcard patterns.
//
// A pattern without a "." separator is matched against the whole code, so "*"
// spans segments. A pattern with separators is matched segment by segment: "*"
// and "?" stay inside one segment, an empty segment behaves as "*", and a
// segment that is exactly "**" spans any number of whole segments. A "*" that
// ends the pattern also runs on into any segments that follow, so "TP.DK.*"
// matches every code under TP.DK.
//
//	m, _ := pattern.Compile("TP.DK.USD.*.YTL")
//	m.Match("TP.DK.USD.A.YTL")    // true
//	m.Match("TP.DK.USD.A.EF.YTL") // false
package pattern

import (
	"errors"
	"fmt"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
)

// Separator delimits the segments of a series code.
const Separator = "."

// ErrBadPattern is returned when a pattern cannot be compiled.
var ErrBadPattern = errors.New("pattern: malformed pattern")

// Matcher is a compiled wildcard pattern. It is safe for concurrent use.
type Matcher struct {
	raw       string
	globs     []string
	exact     bool
	segmented bool
}

// Compile prepares a pattern for matching. An empty pattern matches everything.
func Compile(p string) (*Matcher, error) {
	if p == "" {
		p = "*"
	}

	m := &Matcher{raw: p}
	if !HasWildcard(p) {
		m.exact = true
		return m, nil
	}

	if strings.Contains(p, Separator) {
		segments := strings.Split(p, Separator)
		for i, seg := range segments {
			if seg == "" {
				segments[i] = "*"
				continue
			}
			segments[i] = escape(seg)
		}
		glob := strings.Join(segments, "/")
		m.globs = []string{glob}
		if last := segments[len(segments)-1]; last != "**" && strings.HasSuffix(last, "*") {
			m.globs = append(m.globs, glob+"/**")
		}
		m.segmented = true
	} else {
		m.globs = []string{escape(p)}
	}

	for _, glob := range m.globs {
		if !doublestar.ValidatePattern(glob) {
			return nil, fmt.Errorf("%w: %q", ErrBadPattern, p)
		}
	}
	return m, nil
}

// MustCompile is like Compile but panics on error.
func MustCompile(p string) *Matcher {
	m, err := Compile(p)
	if err != nil {
		panic(err)
	}
	return m
}

// String returns the pattern as given to Compile.
func (m *Matcher) String() string {
	return m.raw
}

// Exact reports whether the pattern contains no wildcards.
func (m *Matcher) Exact() bool {
	return m.exact
}

// Match reports whether code matches the pattern. Matching is case-sensitive.
func (m *Matcher) Match(code string) bool {
	if m.exact {
		return code == m.raw
	}

	name := code
	if m.segmented {
		name = strings.ReplaceAll(code, Separator, "/")
	}
	for _, glob := range m.globs {
		if ok, err := doublestar.Match(glob, name); err == nil && ok {
			return true
		}
	}
	return false
}

// Filter returns the codes that match, in their original order. The result is
// empty, never nil, when nothing matches.
func (m *Matcher) Filter(codes []string) []string {
	matched := make([]string, 0)
	if m.exact {
		for _, code := range codes {
			if code == m.raw {
				matched = append(matched, code)
			}
		}
		return matched
	}

	for _, code := range codes {
		if m.Match(code) {
			matched = append(matched, code)
		}
	}
	return matched
}

// Filter compiles p and filters codes with it.
func Filter(p string, codes []string) ([]string, error) {
	m, err := Compile(p)
	if err != nil {
		return nil, err
	}
	return m.Filter(codes), nil
}

// HasWildcard reports whether p needs catalog expansion: it contains "*" or "?",
// has an empty segment, or is empty itself.
func HasWildcard(p string) bool {
	if p == "" || strings.ContainsAny(p, "*?") {
		return true
	}
	return strings.Contains(p, Separator+Separator) ||
		strings.HasPrefix(p, Separator) ||
		strings.HasSuffix(p, Separator)
}

// escape quotes doublestar metacharacters other than "*" and "?" so they match
// literally.
func escape(s string) string {
	if !strings.ContainsAny(s, `[]{}\`) {
		return s
	}
	var b strings.Builder
	for _, r := range s {
		switch r {
		case '[', ']', '{', '}', '\\':
			b.WriteByte('\\')
		}
		b.WriteRune(r)
	}
	return b.String()
}
