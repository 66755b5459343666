// Package loop implements the loop collector (§4.B) and loop unroller
// (§4.C): both operate on the normalized line sequence, exactly as the
// original brace-balanced-text walker did, since the spec defines their
// behavior in terms of lines and regex-shaped headers rather than a token
// stream.
package loop

import (
	"regexp"
	"strings"

	"boundverify/internal/errors"
)

var headerRe = regexp.MustCompile(`^(for\s*\(.*;.*;.*\)|while\s*\(.*\))\s*\{?$`)

// headerKey reduces a loop header line to the exact shape §3 defines for the
// unroll-bound map key: the source substring from "for"/"while" through the
// matching ")", with a same-line opening brace (and surrounding whitespace)
// dropped — it is punctuation introducing the body, not part of the header.
func headerKey(line string) string {
	return strings.TrimSpace(strings.TrimSuffix(strings.TrimSpace(line), "{"))
}

// Occurrence is one loop header as encountered during the collector's walk,
// numbered in textual order regardless of whether its header text repeats.
type Occurrence struct {
	Header  string
	Ordinal int
}

// Collect returns the ordered, deduplicated set of loop headers (outermost
// first, a nested loop following its parent's header) — the legacy keying
// used by spec.md's BoundMap, where identical header text collides into one
// entry.
func Collect(lines []string) ([]string, error) {
	occs, err := CollectOccurrences(lines)
	if err != nil {
		return nil, err
	}
	seen := make(map[string]bool, len(occs))
	var headers []string
	for _, o := range occs {
		if seen[o.Header] {
			continue
		}
		seen[o.Header] = true
		headers = append(headers, o.Header)
	}
	return headers, nil
}

// CollectOccurrences returns every loop occurrence in textual order without
// deduplication, per the REDESIGN FLAGS fix for header collisions: a bound
// map keyed by Ordinal lets two textually identical loop headers (e.g. two
// "for (i := 0; i < n; i := i + 1) {" loops in different places) receive
// distinct unroll bounds.
func CollectOccurrences(lines []string) ([]Occurrence, error) {
	occs, _, err := collectRecursive(lines, 1)
	return occs, err
}

func collectRecursive(lines []string, startOrdinal int) ([]Occurrence, int, error) {
	var occs []Occurrence
	ordinal := startOrdinal
	i := 0
	for i < len(lines) {
		line := lines[i]
		if !headerRe.MatchString(line) {
			i++
			continue
		}

		occs = append(occs, Occurrence{Header: headerKey(line), Ordinal: ordinal})
		ordinal++

		braceLevel := 0
		if strings.Contains(line, "{") {
			braceLevel = 1
		}
		var body []string
		j := i + 1
		balanced := false
		for j < len(lines) {
			bodyLine := lines[j]
			body = append(body, bodyLine)
			braceLevel += strings.Count(bodyLine, "{")
			braceLevel -= strings.Count(bodyLine, "}")
			if braceLevel == 0 {
				balanced = true
				break
			}
			j++
		}
		if !balanced {
			return nil, 0, errors.New(errors.MalformedLoop, "unbalanced braces in loop body", errors.Position{}).
				WithFragment(line).Build()
		}

		nested, nextOrdinal, err := collectRecursive(body, ordinal)
		if err != nil {
			return nil, 0, err
		}
		occs = append(occs, nested...)
		ordinal = nextOrdinal

		i = j + 1
	}
	return occs, ordinal, nil
}
