package lexer

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestValidateAcceptsAssignmentLine(t *testing.T) {
	assert.NoError(t, Validate("x := x + 1;"))
}

func TestValidateAcceptsArrayAssignmentLine(t *testing.T) {
	assert.NoError(t, Validate("arr[i] := arr[i] + 1;"))
}

func TestValidateAcceptsCallLine(t *testing.T) {
	assert.NoError(t, Validate("assert(x == 4);"))
}

func TestValidateRejectsStrayCharacter(t *testing.T) {
	err := Validate("x := x @ 1;")
	assert.Error(t, err)
}

func TestValidateAcceptsTernaryOperators(t *testing.T) {
	assert.NoError(t, Validate("y := x < 5 ? 1 : 0;"))
}
