package ssa

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"boundverify/internal/loop"
	"boundverify/internal/normalize"
	"boundverify/internal/stmt"
)

func convertSource(t *testing.T, source string, bounds loop.BoundMap) *Program {
	t.Helper()
	lines := normalize.Lines(source)
	unrolled := loop.Unroll(lines, bounds)
	stmts, err := stmt.Parse(unrolled)
	require.NoError(t, err)
	prog, err := Convert(stmts)
	require.NoError(t, err)
	return prog
}

func lastVersion(prog *Program, base string) (string, bool) {
	var name string
	found := false
	for _, l := range prog.Lines {
		if len(l.Name) > len(base)+1 && l.Name[:len(base)+1] == base+"_" {
			name = l.Name
			found = true
		}
	}
	return name, found
}

func TestConvertIfElseMerges(t *testing.T) {
	source := `x := 3;
if (x < 5) {
    y := x + 1;
} else {
    y := x - 1;
}
assert(y > 0);`

	prog := convertSource(t, source, nil)

	require.Len(t, prog.Asserts, 1)
	_, ok := lastVersion(prog, "y")
	assert.True(t, ok, "y should have at least one SSA definition")

	// Exactly one phi guard for a simple two-way if/else.
	phiCount := 0
	for _, l := range prog.Lines {
		if len(l.Name) >= 3 && l.Name[:3] == "phi" {
			phiCount++
		}
	}
	assert.Equal(t, 1, phiCount)
}

func TestConvertLoneIfNoElseStillMerges(t *testing.T) {
	// Mirrors the shape the unroller produces: a guard with no else.
	source := `x := 0;
if (true) {
    x := x + 1;
}
assert(x >= 0);`

	prog := convertSource(t, source, nil)
	name, ok := lastVersion(prog, "x")
	require.True(t, ok)
	assert.NotEmpty(t, name)
}

func TestConvertUnrolledWhileLoop(t *testing.T) {
	source := `x := 0;
while (x < 4) {
    x := x + 1;
}
assert(x == 4);`

	prog := convertSource(t, source, loop.BoundMap{"while (x < 4)": 4})
	require.Len(t, prog.Asserts, 1)

	// Every name defined exactly once (single-definition invariant).
	seen := map[string]bool{}
	for _, l := range prog.Lines {
		assert.False(t, seen[l.Name], "duplicate SSA name %s", l.Name)
		seen[l.Name] = true
	}
}

func TestConvertArrayCellVersioning(t *testing.T) {
	source := `a[0] := 1;
a[0] := a[0] + 1;
assert(a[0] == 2);`

	prog := convertSource(t, source, nil)
	require.Len(t, prog.Asserts, 1)

	defCount := 0
	for _, l := range prog.Lines {
		if len(l.Name) >= 2 && l.Name[:2] == "a_" {
			defCount++
		}
	}
	assert.Equal(t, 2, defCount, "two assignments to a[0] should produce two versioned cell definitions")
}

func TestConvertDuplicateAssertsCollapse(t *testing.T) {
	source := `x := 1;
assert(x == 1);
assert(x == 1);`

	prog := convertSource(t, source, nil)
	assert.Len(t, prog.Asserts, 1, "identical final assertions collapse to one")
}

func TestConvertNestedIfElseChain(t *testing.T) {
	source := `x := 2;
if (x == 1) {
    y := 10;
} else if (x == 2) {
    y := 20;
} else {
    y := 30;
}
assert(y == 20);`

	prog := convertSource(t, source, nil)
	require.Len(t, prog.Asserts, 1)

	phiCount := 0
	for _, l := range prog.Lines {
		if len(l.Name) >= 3 && l.Name[:3] == "phi" {
			phiCount++
		}
	}
	assert.Equal(t, 2, phiCount, "a three-way chain needs two guards")
}
