// Package normalize implements the lexical normalizer of §4.A: it strips
// blank lines and leading numbered-listing prefixes, leaving one trimmed
// statement per line, and detects a second-program pane (equivalence mode)
// that is blank or consists only of '#' comment lines.
package normalize

import (
	"regexp"
	"strings"
)

var numberedPrefix = regexp.MustCompile(`^\d+\.\s*`)

// Lines normalizes raw source text into an ordered sequence of non-empty,
// trimmed lines.
func Lines(source string) []string {
	var out []string
	for _, raw := range strings.Split(source, "\n") {
		line := strings.TrimSpace(raw)
		if line == "" {
			continue
		}
		line = numberedPrefix.ReplaceAllString(line, "")
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		out = append(out, line)
	}
	return out
}

// IsEmptySecondProgram reports whether a second-program pane (equivalence
// mode) should be treated as "not supplied": blank, or entirely comment
// lines beginning with '#'.
func IsEmptySecondProgram(source string) bool {
	for _, raw := range strings.Split(source, "\n") {
		line := strings.TrimSpace(raw)
		if line == "" {
			continue
		}
		if !strings.HasPrefix(line, "#") {
			return false
		}
	}
	return true
}
