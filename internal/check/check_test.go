package check

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"boundverify/internal/loop"
	"boundverify/internal/normalize"
	"boundverify/internal/smt"
	"boundverify/internal/ssa"
	"boundverify/internal/stmt"
)

func buildProgram(t *testing.T, source string, bounds loop.BoundMap) (*ssa.Program, []string, []string) {
	t.Helper()
	normalized := normalize.Lines(source)
	unrolled := loop.Unroll(normalized, bounds)
	stmts, err := stmt.Parse(unrolled)
	require.NoError(t, err)
	prog, err := ssa.Convert(stmts)
	require.NoError(t, err)
	return prog, normalized, unrolled
}

func TestSingleDefinitionHoldsForWellFormedProgram(t *testing.T) {
	prog, _, _ := buildProgram(t, `x := 3;
if (x < 5) {
    y := x + 1;
} else {
    y := x - 1;
}
assert(y > 0);`, nil)
	assert.NoError(t, SingleDefinition(prog))
}

func TestUnrollCompletenessHoldsAfterUnrolling(t *testing.T) {
	_, _, unrolled := buildProgram(t, `x := 0;
while (x < 4) {
    x := x + 1;
}
assert(x == 4);`, loop.BoundMap{"while (x < 4)": 4})
	assert.NoError(t, UnrollCompleteness(unrolled))
}

func TestDeclarationClosureHoldsForEmittedScript(t *testing.T) {
	prog, _, _ := buildProgram(t, `x := 1;
assert(x == 1);`, nil)
	res := smt.Emit(prog)
	assert.NoError(t, DeclarationClosure(res.Text))
}

func TestDeclarationClosureCatchesUndeclaredSymbol(t *testing.T) {
	text := "(set-logic QF_UFLIA)\n(declare-const x_1 Int)\n(assert (= x_1 1))\n(assert (= y_1 2))\n(check-sat)\n"
	err := DeclarationClosure(text)
	require.Error(t, err)
}

func TestUnrollIdentityForLoopFreeProgram(t *testing.T) {
	lines := normalize.Lines(`x := 1;
assert(x == 1);`)
	assert.True(t, UnrollIdentity(lines))
}

func TestUnrollIdentityFalseWhenLoopPresent(t *testing.T) {
	lines := normalize.Lines(`x := 0;
while (x < 4) {
    x := x + 1;
}`)
	assert.False(t, UnrollIdentity(lines))
}
