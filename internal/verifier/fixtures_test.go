package verifier

import (
	"context"
	"os"
	"testing"

	"github.com/stretchr/testify/require"

	"boundverify/internal/loop"
)

// These mirror two of the canned sample programs the original tool's GUI
// offered from a menu (scenarios 1 and 2 of the worked examples): an
// if/else merge and a while-loop unrolled to its true iteration count.
// They exercise the full pipeline up to (but not through) the solver,
// since no solver binary is assumed to be on PATH in this environment.

func readFixture(t *testing.T, name string) string {
	t.Helper()
	data, err := os.ReadFile("testdata/" + name)
	require.NoError(t, err)
	return string(data)
}

func TestFixtureIfElseMergeParsesAndConvertsEndToEnd(t *testing.T) {
	source := readFixture(t, "if_else_merge.txt")
	result, err := Verify(context.Background(), source, nil, "definitely-not-a-real-solver-binary-xyz")
	require.NoError(t, err)
	// The pipeline gets all the way to needing a solver; only the driver
	// construction fails, confirming normalize/unroll/stmt/ssa/smt all
	// succeeded on this fixture.
	require.Equal(t, KindError, result.Verdict.Kind)
	require.NotEmpty(t, result.Sections.Normalized)
	require.NotEmpty(t, result.Sections.SSA)
}

func TestFixtureWhileUnrolledParsesAndConvertsEndToEnd(t *testing.T) {
	source := readFixture(t, "while_unrolled.txt")
	bounds := loop.BoundMap{"while (x < 4)": 4}
	result, err := Verify(context.Background(), source, bounds, "definitely-not-a-real-solver-binary-xyz")
	require.NoError(t, err)
	require.Equal(t, KindError, result.Verdict.Kind)
	require.NotEmpty(t, result.Sections.Unrolled)
	require.NotEmpty(t, result.Sections.SSA)
}
