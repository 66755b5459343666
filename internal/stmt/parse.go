// Package stmt implements Pass 1 of the SSA converter (§4.E): it partitions
// a loop-free, normalized line sequence into assignments, array-element
// assignments, if/else-if/else chains, and call-shaped final statements,
// parsing every right-hand side and condition with internal/exprparse
// instead of the original tool's regex-driven string rewriting. Every
// recognised line is also tokenized through internal/lexer's participle
// lexer before its regex is trusted, so a stray character is reported at an
// exact column rather than silently swallowed by a permissive capture group.
package stmt

import (
	"regexp"
	"strings"

	"boundverify/internal/ast"
	verr "boundverify/internal/errors"
	"boundverify/internal/exprparse"
	"boundverify/internal/lexer"
)

var (
	assignRe      = regexp.MustCompile(`^(\w+)\s*(:=|=)\s*(.+?)\s*;$`)
	arrayAssignRe = regexp.MustCompile(`^(\w+)\[([^\]]*)\]\s*(:=|=)\s*(.+?)\s*;$`)
	callRe        = regexp.MustCompile(`^(\w+)\((.*)\);$`)
	ifRe          = regexp.MustCompile(`^if\s*\((.*)\)\s*\{$`)
	elseIfRe      = regexp.MustCompile(`^else\s+if\s*\((.*)\)\s*\{$`)
	elseRe        = regexp.MustCompile(`^else\s*\{$`)
	closeRe       = regexp.MustCompile(`^\}$`)
)

// Parse parses a loop-free, normalized line sequence into a statement tree.
func Parse(lines []string) ([]ast.Stmt, error) {
	// The unroller indents nested guard copies; statement shapes are matched
	// on the trimmed line.
	trimmed := make([]string, len(lines))
	for i, l := range lines {
		trimmed[i] = strings.TrimSpace(l)
	}
	stmts, next, err := parseBlock(trimmed, 0)
	if err != nil {
		return nil, err
	}
	if next != len(trimmed) {
		return nil, verr.New(verr.UnsupportedControlFlow, "unexpected closing brace", verr.Position{}).
			WithFragment(trimmed[next]).Build()
	}
	return stmts, nil
}

func parseBlock(lines []string, i int) ([]ast.Stmt, int, error) {
	var out []ast.Stmt
	for i < len(lines) {
		line := lines[i]
		switch {
		case closeRe.MatchString(line):
			return out, i, nil

		case ifRe.MatchString(line):
			ifStmt, next, err := parseIfChain(lines, i)
			if err != nil {
				return nil, 0, err
			}
			out = append(out, ifStmt)
			i = next

		case strings.HasPrefix(line, "Warning:"):
			return nil, 0, verr.New(verr.MalformedLoop, "unresolved loop-unroll warning reached the SSA converter", verr.Position{}).
				WithFragment(line).Build()

		case strings.HasPrefix(line, "for") || strings.HasPrefix(line, "while"):
			return nil, 0, verr.New(verr.UnsupportedControlFlow, "loop present after unrolling", verr.Position{}).
				WithFragment(line).Build()

		case arrayAssignRe.MatchString(line):
			if err := lexer.Validate(line); err != nil {
				return nil, 0, err
			}
			m := arrayAssignRe.FindStringSubmatch(line)
			idx, err := exprparse.Parse(m[2], ast.Position{})
			if err != nil {
				return nil, 0, err
			}
			rhs, err := exprparse.Parse(m[4], ast.Position{})
			if err != nil {
				return nil, 0, err
			}
			out = append(out, &ast.ArrayAssign{Array: m[1], Index: idx, Rhs: rhs})
			i++

		case assignRe.MatchString(line):
			if err := lexer.Validate(line); err != nil {
				return nil, 0, err
			}
			m := assignRe.FindStringSubmatch(line)
			rhs, err := exprparse.Parse(m[3], ast.Position{})
			if err != nil {
				return nil, 0, err
			}
			out = append(out, &ast.Assign{Name: m[1], Rhs: rhs})
			i++

		case callRe.MatchString(line):
			if err := lexer.Validate(line); err != nil {
				return nil, 0, err
			}
			m := callRe.FindStringSubmatch(line)
			argExprs, err := parseArgs(m[2])
			if err != nil {
				return nil, 0, err
			}
			out = append(out, &ast.Call{Name: m[1], Args: argExprs})
			i++

		default:
			return nil, 0, verr.New(verr.MalformedAssertion, "unrecognized statement", verr.Position{}).
				WithFragment(line).Build()
		}
	}
	return out, i, nil
}

// parseIfChain parses one if / else-if* / else? alternation starting at
// lines[i] (which must match ifRe). Pass 1 of §4.E delimits exactly one
// such chain per scope; nested chains inside a branch body are handled by
// the same function recursing through parseBlock, which is the structured
// generalization the REDESIGN FLAGS ask for instead of the single-chain
// restriction.
func parseIfChain(lines []string, i int) (*ast.If, int, error) {
	var branches []ast.Branch
	for i < len(lines) {
		line := lines[i]
		switch {
		case ifRe.MatchString(line) && len(branches) == 0:
			m := ifRe.FindStringSubmatch(line)
			cond, err := exprparse.Parse(m[1], ast.Position{})
			if err != nil {
				return nil, 0, err
			}
			body, next, err := parseBlock(lines, i+1)
			if err != nil {
				return nil, 0, err
			}
			if next >= len(lines) || !closeRe.MatchString(lines[next]) {
				return nil, 0, verr.New(verr.UnsupportedControlFlow, "if-block missing closing brace", verr.Position{}).
					WithFragment(line).Build()
			}
			branches = append(branches, ast.Branch{Cond: cond, Body: body})
			i = next + 1

		case elseIfRe.MatchString(line):
			m := elseIfRe.FindStringSubmatch(line)
			cond, err := exprparse.Parse(m[1], ast.Position{})
			if err != nil {
				return nil, 0, err
			}
			body, next, err := parseBlock(lines, i+1)
			if err != nil {
				return nil, 0, err
			}
			if next >= len(lines) || !closeRe.MatchString(lines[next]) {
				return nil, 0, verr.New(verr.UnsupportedControlFlow, "else-if block missing closing brace", verr.Position{}).
					WithFragment(line).Build()
			}
			branches = append(branches, ast.Branch{Cond: cond, Body: body})
			i = next + 1

		case elseRe.MatchString(line):
			body, next, err := parseBlock(lines, i+1)
			if err != nil {
				return nil, 0, err
			}
			if next >= len(lines) || !closeRe.MatchString(lines[next]) {
				return nil, 0, verr.New(verr.UnsupportedControlFlow, "else block missing closing brace", verr.Position{}).
					WithFragment(line).Build()
			}
			branches = append(branches, ast.Branch{Cond: nil, Body: body})
			return &ast.If{Branches: branches}, next + 1, nil

		default:
			return &ast.If{Branches: branches}, i, nil
		}
	}
	return &ast.If{Branches: branches}, i, nil
}

// parseArgs splits a call's raw argument text on top-level commas and
// parses each into an expression.
func parseArgs(raw string) ([]ast.Expr, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil, nil
	}
	var parts []string
	depth := 0
	start := 0
	for i, r := range raw {
		switch r {
		case '(', '[':
			depth++
		case ')', ']':
			depth--
		case ',':
			if depth == 0 {
				parts = append(parts, raw[start:i])
				start = i + 1
			}
		}
	}
	parts = append(parts, raw[start:])

	exprs := make([]ast.Expr, 0, len(parts))
	for _, p := range parts {
		e, err := exprparse.Parse(strings.TrimSpace(p), ast.Position{})
		if err != nil {
			return nil, err
		}
		exprs = append(exprs, e)
	}
	return exprs, nil
}
