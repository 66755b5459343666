package ast

import "fmt"

// String renders an expression back to infix source syntax. Used to render
// SSA lines for display and to key the SSA converter's suppression of
// duplicate assert()/assume() statements.

func (e *IntLit) String() string { return fmt.Sprintf("%d", e.Value) }

func (e *BoolLit) String() string {
	if e.Value {
		return "true"
	}
	return "false"
}

func (e *Var) String() string { return e.Name }

func (e *Ident) String() string { return fmt.Sprintf("%s_%d", e.Name, e.Version) }

func (e *ArrayRead) String() string { return fmt.Sprintf("%s[%s]", e.Array, e.Index.String()) }

func (e *BinOp) String() string {
	return fmt.Sprintf("(%s %s %s)", e.Left.String(), e.Op, e.Right.String())
}

func (e *Ternary) String() string {
	return fmt.Sprintf("(%s ? %s : %s)", e.Cond.String(), e.Then.String(), e.Else.String())
}
