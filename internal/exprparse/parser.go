package exprparse

import (
	"fmt"

	"boundverify/internal/ast"
	verr "boundverify/internal/errors"
)

// precedence is the table of §3: comparisons (1) < additive (2) <
// multiplicative (3); all binaries are left-associative.
var precedence = map[string]int{
	"==": 1, "!=": 1, "<": 1, "<=": 1, ">": 1, ">=": 1,
	"+": 2, "-": 2,
	"*": 3, "/": 3, "%": 3,
}

// Parse tokenizes source and parses it into an ast.Expr tree. base is the
// position of source's first byte in the enclosing file, used so errors
// point at real source coordinates.
func Parse(source string, base ast.Position) (ast.Expr, error) {
	toks, err := Tokenize(source, base)
	if err != nil {
		return nil, err
	}
	if len(toks) == 0 {
		return nil, verr.New(verr.UnparseableExpression, "empty expression", toErrPos(base)).Build()
	}
	return parseTernary(toks, source)
}

// parseTernary recognises the ternary cond ? then : else as a top-level
// structural split at brace-depth 0 (§4.D), not as shunting-yard operators:
// the expression is split at the first top-level '?' and the first
// following top-level ':', each of the three parts parsed independently.
func parseTernary(toks []Token, source string) (ast.Expr, error) {
	qIdx, cIdx, err := findTernarySplit(toks, source)
	if err != nil {
		return nil, err
	}
	if qIdx < 0 {
		return parseBinary(toks, source)
	}

	condToks := toks[:qIdx]
	thenToks := toks[qIdx+1 : cIdx]
	elseToks := toks[cIdx+1:]

	cond, err := parseTernary(condToks, source)
	if err != nil {
		return nil, err
	}
	then, err := parseTernary(thenToks, source)
	if err != nil {
		return nil, err
	}
	els, err := parseTernary(elseToks, source)
	if err != nil {
		return nil, err
	}
	return &ast.Ternary{Cond: cond, Then: then, Else: els}, nil
}

// findTernarySplit scans toks tracking paren/bracket depth and returns the
// index of the first top-level '?' and the first top-level ':' after it.
// Returns qIdx == -1 when no top-level ternary is present.
func findTernarySplit(toks []Token, source string) (qIdx, cIdx int, err error) {
	depth := 0
	qIdx, cIdx = -1, -1
	for i, t := range toks {
		switch t.Type {
		case LPAREN, LBRACKET:
			depth++
		case RPAREN, RBRACKET:
			depth--
			if depth < 0 {
				return 0, 0, verr.New(verr.ParenImbalance, "unmatched closing bracket", toErrPos(t.Pos)).WithFragment(source).Build()
			}
		case QUESTION:
			if depth == 0 && qIdx < 0 {
				qIdx = i
			}
		case COLON:
			if depth == 0 && qIdx >= 0 && cIdx < 0 {
				cIdx = i
			}
		}
	}
	if depth != 0 {
		return 0, 0, verr.New(verr.ParenImbalance, "unbalanced parentheses", toErrPos(toks[0].Pos)).WithFragment(source).Build()
	}
	if qIdx >= 0 && cIdx < 0 {
		return 0, 0, verr.New(verr.UnparseableExpression, "ternary missing ':'", toErrPos(toks[qIdx].Pos)).WithFragment(source).Build()
	}
	return qIdx, cIdx, nil
}

// parseBinary runs shunting-yard over a ternary-free token run and builds
// the resulting postfix expression into an ast.Expr tree.
func parseBinary(toks []Token, source string) (ast.Expr, error) {
	var opStack []Token
	var outStack []ast.Expr

	apply := func(op Token) error {
		if len(outStack) < 2 {
			return verr.New(verr.UnparseableExpression, "operator missing operand", toErrPos(op.Pos)).WithFragment(source).Build()
		}
		right := outStack[len(outStack)-1]
		left := outStack[len(outStack)-2]
		outStack = outStack[:len(outStack)-2]
		outStack = append(outStack, &ast.BinOp{Op: op.Lexeme, Left: left, Right: right})
		return nil
	}

	i := 0
	for i < len(toks) {
		t := toks[i]
		switch t.Type {
		case INT:
			var v int64
			fmt.Sscan(t.Lexeme, &v)
			outStack = append(outStack, &ast.IntLit{Value: v})
			i++
		case TRUE:
			outStack = append(outStack, &ast.BoolLit{Value: true})
			i++
		case FALSE:
			outStack = append(outStack, &ast.BoolLit{Value: false})
			i++
		case IDENT:
			if i+1 < len(toks) && toks[i+1].Type == LBRACKET {
				end, ferr := matchBracket(toks, i+1, source)
				if ferr != nil {
					return nil, ferr
				}
				idxExpr, ierr := parseTernary(toks[i+2:end], source)
				if ierr != nil {
					return nil, ierr
				}
				outStack = append(outStack, &ast.ArrayRead{Array: t.Lexeme, Index: idxExpr})
				i = end + 1
			} else {
				outStack = append(outStack, &ast.Var{Name: t.Lexeme})
				i++
			}
		case LPAREN:
			end, ferr := matchParen(toks, i, source)
			if ferr != nil {
				return nil, ferr
			}
			inner, ierr := parseTernary(toks[i+1:end], source)
			if ierr != nil {
				return nil, ierr
			}
			outStack = append(outStack, inner)
			i = end + 1
		case OP:
			for len(opStack) > 0 {
				top := opStack[len(opStack)-1]
				if precedence[top.Lexeme] < precedence[t.Lexeme] {
					break
				}
				opStack = opStack[:len(opStack)-1]
				if err := apply(top); err != nil {
					return nil, err
				}
			}
			opStack = append(opStack, t)
			i++
		case RPAREN, RBRACKET:
			return nil, verr.New(verr.ParenImbalance, "unmatched closing bracket", toErrPos(t.Pos)).WithFragment(source).Build()
		default:
			return nil, verr.New(verr.UnparseableExpression, "unexpected token", toErrPos(t.Pos)).WithFragment(source).Build()
		}
	}

	for len(opStack) > 0 {
		top := opStack[len(opStack)-1]
		opStack = opStack[:len(opStack)-1]
		if err := apply(top); err != nil {
			return nil, err
		}
	}

	if len(outStack) != 1 {
		var at ast.Position
		if len(toks) > 0 {
			at = toks[0].Pos
		}
		return nil, verr.New(verr.UnparseableExpression, "expression does not reduce to a single value", toErrPos(at)).WithFragment(source).Build()
	}
	return outStack[0], nil
}

// matchParen returns the index in toks of the ')' matching the '(' at
// open, tracking only paren depth (bracket tokens are skipped over, they
// cannot mismatch a well-formed input's parens).
func matchParen(toks []Token, open int, source string) (int, error) {
	depth := 0
	for i := open; i < len(toks); i++ {
		switch toks[i].Type {
		case LPAREN:
			depth++
		case RPAREN:
			depth--
			if depth == 0 {
				return i, nil
			}
		}
	}
	return 0, verr.New(verr.ParenImbalance, "unclosed '('", toErrPos(toks[open].Pos)).WithFragment(source).Build()
}

// matchBracket returns the index in toks of the ']' matching the '[' at
// open.
func matchBracket(toks []Token, open int, source string) (int, error) {
	depth := 0
	for i := open; i < len(toks); i++ {
		switch toks[i].Type {
		case LBRACKET:
			depth++
		case RBRACKET:
			depth--
			if depth == 0 {
				return i, nil
			}
		}
	}
	return 0, verr.New(verr.ParenImbalance, "unclosed '['", toErrPos(toks[open].Pos)).WithFragment(source).Build()
}
