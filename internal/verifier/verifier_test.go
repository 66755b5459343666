package verifier

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"boundverify/internal/errors"
	"boundverify/internal/loop"
)

func TestVerifyMissingSolverBinaryReportsErrorVerdict(t *testing.T) {
	result, err := Verify(context.Background(), `x := 1;
assert(x == 1);`, nil, "definitely-not-a-real-solver-binary-xyz")
	require.NoError(t, err)
	assert.Equal(t, KindError, result.Verdict.Kind)
	require.NotNil(t, result.Verdict.Err)
	assert.Equal(t, errors.SolverError, result.Verdict.Err.Kind)
}

func TestVerifyMalformedProgramReportsErrorVerdictWithoutSolver(t *testing.T) {
	result, err := Verify(context.Background(), `x := ;`, nil, "definitely-not-a-real-solver-binary-xyz")
	require.NoError(t, err)
	assert.Equal(t, KindError, result.Verdict.Kind)
	require.NotNil(t, result.Verdict.Err)
	assert.NotEmpty(t, result.Sections.Normalized)
}

func TestVerifyUnparseableLoopBoundaryReportsErrorVerdict(t *testing.T) {
	result, err := Verify(context.Background(), `for (i := 0 i < 5; i := i + 1) {
    x := i;
}`, nil, "definitely-not-a-real-solver-binary-xyz")
	require.NoError(t, err)
	// This for-header has a single ';', so it does not match the loop-header
	// shape: the unroller passes it through unchanged and the statement
	// parser rejects it as a loop left after unrolling.
	assert.Equal(t, KindError, result.Verdict.Kind)
}

func TestEquivalenceBothErrorIsEquivalent(t *testing.T) {
	res, err := Equivalence(context.Background(),
		`x := ;`, `y := ;`,
		loop.BoundMap{}, loop.BoundMap{},
		"definitely-not-a-real-solver-binary-xyz")
	require.NoError(t, err)
	// Both sides collapse into the same (non-satisfied) bucket.
	assert.Equal(t, Equivalent, res.Verdict)
}

func TestEquivalenceVerdictString(t *testing.T) {
	assert.Equal(t, "Equivalent", Equivalent.String())
	assert.Equal(t, "NotEquivalent", NotEquivalent.String())
}
