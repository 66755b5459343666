// Package check implements the universal invariants of §8 as runnable
// assertions over pipeline output, rather than leaving them as claims only
// tests exercise indirectly: single-definition over an SSA program,
// unroll-completeness over an unrolled line sequence, declaration-closure
// over emitted SMT-LIB text, and unroll-identity for loop-free input.
package check

import (
	"fmt"
	"strings"

	"boundverify/internal/ast"
	verr "boundverify/internal/errors"
	"boundverify/internal/loop"
	"boundverify/internal/ssa"
)

// SingleDefinition verifies that every Ident referenced by prog names a
// version defined earlier in prog.Lines — free Vars need no definition.
func SingleDefinition(prog *ssa.Program) error {
	defined := make(map[string]bool, len(prog.Lines))
	for _, l := range prog.Lines {
		if err := requireDefined(l.Rhs, defined); err != nil {
			return err
		}
		defined[l.Name] = true
	}
	for _, a := range prog.Assumes {
		if err := requireDefined(a, defined); err != nil {
			return err
		}
	}
	for _, a := range prog.Asserts {
		if err := requireDefined(a, defined); err != nil {
			return err
		}
	}
	return nil
}

func requireDefined(e ast.Expr, defined map[string]bool) error {
	switch v := e.(type) {
	case *ast.Ident:
		name := fmt.Sprintf("%s_%d", v.Name, v.Version)
		if !defined[name] {
			return verr.New(verr.InternalInvariantViolated, "identifier referenced before its SSA definition", verr.Position{}).
				WithFragment(name).Build()
		}
	case *ast.ArrayRead:
		return requireDefined(v.Index, defined)
	case *ast.BinOp:
		if err := requireDefined(v.Left, defined); err != nil {
			return err
		}
		return requireDefined(v.Right, defined)
	case *ast.Ternary:
		if err := requireDefined(v.Cond, defined); err != nil {
			return err
		}
		if err := requireDefined(v.Then, defined); err != nil {
			return err
		}
		return requireDefined(v.Else, defined)
	}
	return nil
}

// UnrollCompleteness verifies that no loop header survives in an unrolled
// line sequence.
func UnrollCompleteness(unrolledLines []string) error {
	occs, err := loop.CollectOccurrences(unrolledLines)
	if err != nil {
		return err
	}
	if len(occs) != 0 {
		return verr.New(verr.InternalInvariantViolated, "loop header survived unrolling", verr.Position{}).
			WithFragment(occs[0].Header).Build()
	}
	return nil
}

// DeclarationClosure verifies that every constant name referenced by an
// "(assert ...)" line in smtText was declared earlier in the script (by a
// "(declare-const name ...)" or "(declare-fun name ...)" line).
func DeclarationClosure(smtText string) error {
	declared := map[string]bool{"true": true, "false": true, "select": true, "store": true}
	lines := strings.Split(smtText, "\n")
	for _, line := range lines {
		trimmed := strings.TrimSpace(line)
		switch {
		case strings.HasPrefix(trimmed, "(declare-const "):
			fields := strings.Fields(trimmed)
			if len(fields) >= 2 {
				declared[fields[1]] = true
			}
		case strings.HasPrefix(trimmed, "(declare-fun "):
			fields := strings.Fields(trimmed)
			if len(fields) >= 2 {
				declared[fields[1]] = true
			}
		}
	}
	for _, line := range lines {
		trimmed := strings.TrimSpace(line)
		if !strings.HasPrefix(trimmed, "(assert ") {
			continue
		}
		for _, sym := range extractSymbols(trimmed) {
			if isNumeric(sym) || declared[sym] {
				continue
			}
			return verr.New(verr.InternalInvariantViolated, "assertion references an undeclared symbol", verr.Position{}).
				WithFragment(sym).Build()
		}
	}
	return nil
}

var smtKeywords = map[string]bool{
	"assert": true, "=": true, "+": true, "-": true, "*": true, "div": true, "mod": true,
	"distinct": true, "<": true, "<=": true, ">": true, ">=": true, "ite": true, "not": true,
	"select": true, "store": true,
}

func extractSymbols(line string) []string {
	replacer := strings.NewReplacer("(", " ", ")", " ")
	var out []string
	for _, tok := range strings.Fields(replacer.Replace(line)) {
		if smtKeywords[tok] {
			continue
		}
		out = append(out, tok)
	}
	return out
}

func isNumeric(tok string) bool {
	if tok == "" {
		return false
	}
	for _, r := range tok {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}

// UnrollIdentity verifies that a loop-free program is unaffected by
// unrolling against an empty bound map (the collector finds nothing to
// touch, so the unroller's own pass-through should be a no-op up to
// whitespace, which Unroll's line-oriented output already normalizes
// away).
func UnrollIdentity(lines []string) bool {
	unrolled := loop.Unroll(lines, nil)
	if len(unrolled) != len(lines) {
		return false
	}
	for i := range lines {
		if strings.TrimSpace(unrolled[i]) != strings.TrimSpace(lines[i]) {
			return false
		}
	}
	return true
}
