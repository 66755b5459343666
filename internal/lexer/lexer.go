// Package lexer tokenizes a statement line with participle's stateful
// lexer, the same library and rule shape as the teacher's grammar package
// (grounded on grammar/lexer.go). It is a validation front-end for
// internal/stmt: the structural partitioning into blocks and branches stays
// a hand-rolled brace-balanced walk (no single participle grammar expresses
// the "warn and pass the body through unguarded" recovery §4.C requires for
// a malformed loop header), but every line is tokenized here first so a
// stray character is reported at an exact column before the regex layer
// ever sees it.
package lexer

import (
	"github.com/alecthomas/participle/v2/lexer"

	verr "boundverify/internal/errors"
)

// Rules mirrors the teacher's KansoLexer state machine, adapted to this
// language's smaller token set: `:=` is added alongside `=` since the
// source language accepts either spelling for assignment (§6).
var Rules = lexer.MustStateful(lexer.Rules{
	"Root": {
		{"Ident", `[a-zA-Z_][a-zA-Z0-9_]*`, nil},
		{"Integer", `[0-9]+`, nil},
		{"Operator", `(:=|==|!=|<=|>=|[-+*/%=<>?:])`, nil},
		{"Punctuation", `[{}\[\](),;]`, nil},
		{"Whitespace", `[ \t\r\n]+`, nil},
	},
})

// positioned is implemented by participle's lexer.Error: it carries the
// exact rune position the stateful lexer was at when it gave up.
type positioned interface {
	Position() lexer.Position
}

// toPosition maps participle's 1-based line/column/offset onto our own
// Position type, so a lexing failure reports the same coordinate system
// every other pipeline stage uses.
func toPosition(p lexer.Position) verr.Position {
	return verr.Position{Line: p.Line, Column: p.Column, Offset: p.Offset}
}

// Validate tokenizes line and returns an UnparseableExpression error
// carrying the exact line/column of the first character the lexer's rule
// set cannot classify (e.g. a stray `&`, `@`, or unterminated token).
func Validate(line string) error {
	lex, err := Rules.LexString("", line)
	if err != nil {
		pos := verr.Position{}
		if pe, ok := err.(positioned); ok {
			pos = toPosition(pe.Position())
		}
		return verr.New(verr.UnparseableExpression, err.Error(), pos).WithFragment(line).Build()
	}
	last := lexer.Position{Line: 1, Column: 1}
	for {
		tok, err := lex.Next()
		if err != nil {
			pos := toPosition(last)
			if pe, ok := err.(positioned); ok {
				pos = toPosition(pe.Position())
			}
			return verr.New(verr.UnparseableExpression, err.Error(), pos).WithFragment(line).Build()
		}
		if tok.EOF() {
			return nil
		}
		last = tok.Pos
	}
}
