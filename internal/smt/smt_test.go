package smt

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"boundverify/internal/loop"
	"boundverify/internal/normalize"
	"boundverify/internal/ssa"
	"boundverify/internal/stmt"
)

func buildProgram(t *testing.T, source string, bounds loop.BoundMap) *ssa.Program {
	t.Helper()
	lines := normalize.Lines(source)
	unrolled := loop.Unroll(lines, bounds)
	stmts, err := stmt.Parse(unrolled)
	require.NoError(t, err)
	prog, err := ssa.Convert(stmts)
	require.NoError(t, err)
	return prog
}

func TestEmitDeclaresAndAsserts(t *testing.T) {
	prog := buildProgram(t, `x := 3;
if (x < 5) {
    y := x + 1;
} else {
    y := x - 1;
}
assert(y > 0);`, nil)

	res := Emit(prog)
	assert.Contains(t, res.Text, "(set-logic QF_UFLIA)")
	assert.Contains(t, res.Text, "(declare-const phi1 Bool)")
	assert.Contains(t, res.Text, "(check-sat)")
	assert.Contains(t, res.Text, "(get-model)")
	assert.True(t, res.HasGoal)
	assert.NotEmpty(t, res.GoalText)
}

func TestEmitArrayDeclaresSortAndFunctions(t *testing.T) {
	prog := buildProgram(t, `a[0] := 1;
a[0] := a[0] + 1;
assert(a[0] == 2);`, nil)

	res := Emit(prog)
	assert.Contains(t, res.Text, "(declare-sort IntArray 0)")
	assert.Contains(t, res.Text, "(declare-fun select (IntArray Int) Int)")
	assert.Contains(t, res.Text, "(declare-const a IntArray)")

	require.Len(t, prog.ArrayWrites, 2, "both writes to a[0] should be recorded")
	assert.Contains(t, res.Text, "(declare-const a_init IntArray)")
	assert.Contains(t, res.Text, "(assert (= a (store (store a_init 0 a_0_1) 0 a_0_2)))")
}

func TestEmitUnwrittenArrayOmitsStoreChain(t *testing.T) {
	prog := buildProgram(t, `sum := 0;
i := 0;
sum := sum + arr[i];
assert(sum >= 0);`, nil)

	res := Emit(prog)
	assert.Empty(t, prog.ArrayWrites, "arr is only read here, never assigned")
	assert.Contains(t, res.Text, "(declare-const arr IntArray)")
	assert.NotContains(t, res.Text, "arr_init", "an array with no writes has no unconstrained base state to declare")
}

func TestNegatedGoalQueryReusesPreamble(t *testing.T) {
	prog := buildProgram(t, `x := 1;
assert(x == 1);`, nil)

	res := Emit(prog)
	neg := res.NegatedGoalQuery()
	assert.True(t, strings.HasPrefix(neg, res.Preamble))
	assert.Contains(t, neg, "(assert (not "+res.GoalText+"))")
}

func TestEmitWithoutGoalOmitsFinalAssert(t *testing.T) {
	prog := buildProgram(t, `x := 1;
assume(x == 1);`, nil)

	res := Emit(prog)
	assert.False(t, res.HasGoal)
	assert.Empty(t, res.GoalText)
}
