package solver

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParseModelExtractsBindings(t *testing.T) {
	output := `sat
(
  (define-fun x_3 () Int 3)
  (define-fun phi1 () Bool true)
  (define-fun y_2 () Int (- 5))
)
`
	m := parseModel(output)
	assert.Equal(t, "3", m["x_3"])
	assert.Equal(t, "true", m["phi1"])
	assert.Equal(t, "(- 5)", m["y_2"])
}

func TestFirstWordSkipsBlankLines(t *testing.T) {
	assert.Equal(t, "sat", firstWord("\n\n  sat\n(model ...)\n"))
	assert.Equal(t, "unsat", firstWord("unsat\n"))
}

func TestBlockingClauseSingleAndMultiple(t *testing.T) {
	single := blockingClause(Assignment{"x_1": "3"})
	assert.Equal(t, "(assert (not (= x_1 3)))", single)

	multi := blockingClause(Assignment{"x_1": "3", "y_1": "4"})
	assert.Equal(t, "(assert (not (and (= x_1 3) (= y_1 4))))", multi)
}

func TestBlockingClauseEmptyModel(t *testing.T) {
	assert.Equal(t, "(assert false)", blockingClause(Assignment{}))
}
