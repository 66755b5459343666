// Package smt emits SMT-LIB 2 (QF_UFLIA plus an uninterpreted array sort)
// from an SSA program (§4.F). It replaces the original converter's
// regex-driven type inference and string-sliced goal negation with a walk
// over the typed expression tree and a structured result the solver driver
// can recombine without slicing text.
package smt

import (
	"fmt"
	"sort"
	"strings"

	"github.com/iancoleman/strcase"

	"boundverify/internal/ast"
	"boundverify/internal/ssa"
)

// declName canonicalizes a source or synthetic identifier into its SMT-LIB
// constant spelling. A name with no upper-case letter ("x_3", "phi2",
// "arr_0_1") is emitted as it is; a name containing an upper-case letter (a
// source identifier written in camelCase) goes through strcase.ToSnake,
// keeping emitted constant names uniformly snake_case regardless of the
// program's own naming style.
func declName(name string) string {
	if strings.ToLower(name) == name {
		return name
	}
	return strcase.ToSnake(name)
}

// Result is the emitted query plus the pieces the solver driver needs to
// build a second, negated-goal query without re-parsing or string-slicing
// the first one.
type Result struct {
	Text string // declarations + assignment assertions + assumes + goal + (check-sat)(get-model)

	// Preamble is Text's declaration-and-assertion prefix, ending just
	// after the assumes and every assert() but the last — everything needed
	// to pose a new goal.
	Preamble string

	// GoalText is the rendered SMT-LIB form of the final assert()'s
	// condition; empty when the program has no assert().
	GoalText string
	HasGoal  bool
}

// Emit converts prog into SMT-LIB 2 text.
func Emit(prog *ssa.Program) Result {
	sorts := make(map[string]string, len(prog.Lines))
	used := map[string]bool{}
	arrays := map[string]bool{}

	for _, l := range prog.Lines {
		collectRefs(l.Rhs, used, arrays)
	}
	for _, a := range prog.Assumes {
		collectRefs(a, used, arrays)
	}
	for _, a := range prog.Asserts {
		collectRefs(a, used, arrays)
	}

	// An array that is only ever written, never read through a surviving
	// ArrayRead (every literal-index write rewrites its own later reads to a
	// plain scalar), still needs its IntArray declaration: the store chain
	// below models it so an unresolved, symbolically-indexed read elsewhere
	// can still select against its accumulated state.
	writesByArray := map[string][]ssa.ArrayWrite{}
	for _, w := range prog.ArrayWrites {
		arrays[w.Array] = true
		writesByArray[w.Array] = append(writesByArray[w.Array], w)
	}

	defined := make(map[string]bool, len(prog.Lines))
	for _, l := range prog.Lines {
		defined[l.Name] = true
	}

	free := map[string]string{}
	for name := range used {
		if defined[name] {
			continue
		}
		sort := "Int"
		if strings.HasPrefix(name, "phi") {
			sort = "Bool"
		}
		free[name] = sort
	}
	for _, l := range prog.Lines {
		sorts[l.Name] = sortOf(l.Rhs, sorts)
	}

	var pre strings.Builder
	pre.WriteString("(set-logic QF_UFLIA)\n")

	if len(arrays) > 0 {
		pre.WriteString("(declare-sort IntArray 0)\n")
		pre.WriteString("(declare-fun select (IntArray Int) Int)\n")
		pre.WriteString("(declare-fun store (IntArray Int Int) IntArray)\n")
		for _, arr := range sortedKeys(arrays) {
			pre.WriteString(fmt.Sprintf("(declare-const %s IntArray)\n", declName(arr)))
			if len(writesByArray[arr]) > 0 {
				// The array's state prior to any modeled write is otherwise
				// unconstrained (this program never observed it).
				pre.WriteString(fmt.Sprintf("(declare-const %s IntArray)\n", declName(arr+"_init")))
			}
		}
	}

	for _, name := range sortedStringKeys(free) {
		pre.WriteString(fmt.Sprintf("(declare-const %s %s)\n", declName(name), free[name]))
	}
	for _, l := range prog.Lines {
		pre.WriteString(fmt.Sprintf("(declare-const %s %s)\n", declName(l.Name), sorts[l.Name]))
	}
	for _, l := range prog.Lines {
		pre.WriteString(fmt.Sprintf("(assert (= %s %s))\n", declName(l.Name), renderExpr(l.Rhs)))
	}
	for _, arr := range sortedKeys(arrays) {
		writes := writesByArray[arr]
		if len(writes) == 0 {
			continue
		}
		pre.WriteString(fmt.Sprintf("(assert (= %s %s))\n", declName(arr), storeChain(arr, writes)))
	}
	for _, a := range prog.Assumes {
		pre.WriteString(fmt.Sprintf("(assert %s)\n", renderExpr(a)))
	}
	// Every assert() but the last holds unconditionally alongside the
	// assumes; only the last is held out as the negatable goal (§6's "if a
	// final assert(e) exists").
	for _, a := range prog.Asserts[:max(0, len(prog.Asserts)-1)] {
		pre.WriteString(fmt.Sprintf("(assert %s)\n", renderExpr(a)))
	}

	res := Result{Preamble: pre.String()}

	var full strings.Builder
	full.WriteString(res.Preamble)
	if len(prog.Asserts) > 0 {
		goal := renderExpr(prog.Asserts[len(prog.Asserts)-1])
		res.GoalText = goal
		res.HasGoal = true
		full.WriteString(fmt.Sprintf("(assert %s)\n", goal))
	}
	full.WriteString("(check-sat)\n(get-model)\n")
	res.Text = full.String()
	return res
}

// NegatedGoalQuery builds the query the solver driver poses after an
// UNSAT result on Text: the same declarations and assumptions, with the
// goal replaced by its negation, so a satisfying model is a counterexample
// to the original goal.
func (r Result) NegatedGoalQuery(extra ...string) string {
	var sb strings.Builder
	sb.WriteString(r.Preamble)
	if r.HasGoal {
		sb.WriteString(fmt.Sprintf("(assert (not %s))\n", r.GoalText))
	}
	for _, e := range extra {
		sb.WriteString(e)
		sb.WriteString("\n")
	}
	sb.WriteString("(check-sat)\n(get-model)\n")
	return sb.String()
}

// storeChain folds arr's writes, in SSA order, into a single nested-store
// term starting from its unconstrained "_init" state — the REDESIGN FLAGS'
// "lower to the array theory only at SMT-emit time" applied to a sequence
// of assigned cells instead of a single one.
func storeChain(arr string, writes []ssa.ArrayWrite) string {
	expr := declName(arr + "_init")
	for _, w := range writes {
		expr = fmt.Sprintf("(store %s %s %s)", expr, renderExpr(w.Index), declName(w.ValueName))
	}
	return expr
}

// sortOf infers the SMT sort of an already-versioned expression tree:
// comparisons and boolean literals are Bool, array reads are Int (arrays
// hold Int per §3's data model), a Ternary takes its Then branch's sort
// (both phi slots come from the same source variable), and anything else
// defaults to Int.
func sortOf(e ast.Expr, sorts map[string]string) string {
	switch v := e.(type) {
	case *ast.BoolLit:
		return "Bool"
	case *ast.IntLit:
		return "Int"
	case *ast.Var:
		if s, ok := sorts[v.Name]; ok {
			return s
		}
		if strings.HasPrefix(v.Name, "phi") {
			return "Bool"
		}
		return "Int"
	case *ast.Ident:
		key := fmt.Sprintf("%s_%d", v.Name, v.Version)
		if s, ok := sorts[key]; ok {
			return s
		}
		if strings.HasPrefix(v.Name, "phi") {
			return "Bool"
		}
		return "Int"
	case *ast.ArrayRead:
		return "Int"
	case *ast.BinOp:
		if ast.IsComparison(v.Op) {
			return "Bool"
		}
		return "Int"
	case *ast.Ternary:
		return sortOf(v.Then, sorts)
	default:
		return "Int"
	}
}

// collectRefs walks e collecting every free-identifier name (Var, or a
// phi name appearing as a Var) into used, and every array base name
// appearing in an ArrayRead into arrays.
func collectRefs(e ast.Expr, used, arrays map[string]bool) {
	switch v := e.(type) {
	case *ast.Var:
		used[v.Name] = true
	case *ast.ArrayRead:
		arrays[v.Array] = true
		collectRefs(v.Index, used, arrays)
	case *ast.BinOp:
		collectRefs(v.Left, used, arrays)
		collectRefs(v.Right, used, arrays)
	case *ast.Ternary:
		collectRefs(v.Cond, used, arrays)
		collectRefs(v.Then, used, arrays)
		collectRefs(v.Else, used, arrays)
	}
}

// renderExpr lowers a versioned expression tree to SMT-LIB prefix
// notation, including the point where an unresolved ArrayRead finally
// becomes a true (select arr idx) term (§3's "lower at emission time").
func renderExpr(e ast.Expr) string {
	switch v := e.(type) {
	case *ast.IntLit:
		return fmt.Sprintf("%d", v.Value)
	case *ast.BoolLit:
		if v.Value {
			return "true"
		}
		return "false"
	case *ast.Var:
		return declName(v.Name)
	case *ast.Ident:
		return declName(fmt.Sprintf("%s_%d", v.Name, v.Version))
	case *ast.ArrayRead:
		return fmt.Sprintf("(select %s %s)", declName(v.Array), renderExpr(v.Index))
	case *ast.BinOp:
		return fmt.Sprintf("(%s %s %s)", smtOp(v.Op), renderExpr(v.Left), renderExpr(v.Right))
	case *ast.Ternary:
		return fmt.Sprintf("(ite %s %s %s)", renderExpr(v.Cond), renderExpr(v.Then), renderExpr(v.Else))
	default:
		return "true"
	}
}

// smtOp maps a source operator to its SMT-LIB spelling (division and
// modulo rename; equality and inequality aren't spelled the same way).
func smtOp(op string) string {
	switch op {
	case "/":
		return "div"
	case "%":
		return "mod"
	case "==":
		return "="
	case "!=":
		return "distinct"
	default:
		return op
	}
}

func sortedKeys(m map[string]bool) []string {
	out := make([]string, 0, len(m))
	for k := range m {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

func sortedStringKeys(m map[string]string) []string {
	out := make([]string, 0, len(m))
	for k := range m {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}
