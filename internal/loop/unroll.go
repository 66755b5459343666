package loop

import (
	"fmt"
	"regexp"
	"strings"
)

var forHeaderRe = regexp.MustCompile(`for\s*\(([^;]*);([^;]*);([^)]*)\)`)
var whileHeaderRe = regexp.MustCompile(`while\s*\(([^)]*)\)`)

// BoundMap maps a loop header string to a non-negative unroll bound,
// defaulting to 1 for any header the map omits (§4.C).
type BoundMap map[string]int

// Unroll returns a loop-free program with identical sequential semantics,
// provided every bound is at least the true iteration count for the inputs
// of interest (§4.C). Unparseable loop headers emit a warning line in place
// of the loop and leave its body untouched.
func Unroll(lines []string, bounds BoundMap) []string {
	return unrollLines(lines, bounds, 0)
}

func unrollLines(lines []string, bounds BoundMap, indentLevel int) []string {
	indent := strings.Repeat("    ", indentLevel)
	var out []string
	i := 0
	for i < len(lines) {
		line := lines[i]
		if !headerRe.MatchString(line) {
			out = append(out, indent+line)
			i++
			continue
		}

		braceLevel := 0
		if strings.Contains(line, "{") {
			braceLevel = 1
		}
		var body []string
		endIndex := -1
		j := i + 1
		for j < len(lines) {
			bodyLine := lines[j]
			braceLevel += strings.Count(bodyLine, "{")
			if strings.Contains(bodyLine, "}") {
				braceLevel -= strings.Count(bodyLine, "}")
				if braceLevel == 0 {
					endIndex = j
					break
				}
			}
			body = append(body, bodyLine)
			j++
		}
		if endIndex < 0 {
			out = append(out, fmt.Sprintf("%sWarning: unmatched braces in loop starting at %q", indent, line))
			i++
			continue
		}

		n, ok := bounds[headerKey(line)]
		if !ok {
			n = 1
		}
		unrolled, err := unrollSingle(line, body, n, indentLevel, bounds)
		if err != nil {
			out = append(out, fmt.Sprintf("%sWarning: %s", indent, err))
			out = append(out, body...)
			i = endIndex + 1
			continue
		}
		out = append(out, unrolled...)
		i = endIndex + 1
	}
	return out
}

// unrollSingle emits one loop as n nested guarded copies: the essential
// design decision of §4.C is that copy k+1 is nested *inside* copy k's
// "if" block rather than sequenced after it, so that a false guard at
// iteration k skips every remaining iteration without a break primitive.
func unrollSingle(header string, body []string, n, indentLevel int, bounds BoundMap) ([]string, error) {
	indent := strings.Repeat("    ", indentLevel)

	var init, cond, step string
	switch {
	case strings.HasPrefix(header, "for"):
		m := forHeaderRe.FindStringSubmatch(header)
		if m == nil {
			return nil, fmt.Errorf("could not parse for-loop header: %s", header)
		}
		init, cond, step = strings.TrimSpace(m[1]), strings.TrimSpace(m[2]), strings.TrimSpace(m[3])
	case strings.HasPrefix(header, "while"):
		m := whileHeaderRe.FindStringSubmatch(header)
		if m == nil {
			return nil, fmt.Errorf("could not parse while-loop header: %s", header)
		}
		cond = strings.TrimSpace(m[1])
	default:
		return nil, fmt.Errorf("unrecognized loop header: %s", header)
	}

	var out []string
	if init != "" {
		out = append(out, fmt.Sprintf("%s%s;", indent, init))
	}

	level := indentLevel
	for k := 0; k < n; k++ {
		curIndent := strings.Repeat("    ", level)
		out = append(out, fmt.Sprintf("%sif (%s) {", curIndent, cond))
		out = append(out, unrollLines(body, bounds, level+1)...)
		if step != "" {
			out = append(out, fmt.Sprintf("%s    %s;", curIndent, step))
		}
		level++
	}
	for k := n - 1; k >= 0; k-- {
		out = append(out, strings.Repeat("    ", indentLevel+k)+"}")
	}
	return out, nil
}
