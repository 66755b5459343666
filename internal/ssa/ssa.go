// Package ssa implements Passes 2-5 of the SSA converter (§4.E): it walks a
// statement tree produced by internal/stmt and rewrites every variable and
// array-cell reference to a versioned name, materializing a new definition
// line each time a name is (re)assigned or merged out of a branch.
//
// The original tool kept one shared mutable {name: version} dict and
// special-cased the "else" branch of a two-way if. This package replaces
// both: each branch of an if/else-if/else chain starts from its own
// snapshot of the pre-chain version table (an ordinary Go map clone, never
// shared or mutated across alternatives), and every chain — whether a lone
// unrolled-loop guard with no else, or a genuine multi-way alternation, and
// regardless of nesting depth — merges through the same balanced-ternary
// phi construction. This is the structured-CFG walk the REDESIGN FLAGS ask
// for in place of the original's per-branch special case.
package ssa

import (
	"fmt"

	"boundverify/internal/ast"
	verr "boundverify/internal/errors"
)

// Line is one SSA definition: Name (e.g. "x_3" or "phi1") := Rhs.
type Line struct {
	Name string
	Rhs  ast.Expr
}

func (l Line) String() string {
	return fmt.Sprintf("%s = %s", l.Name, l.Rhs.String())
}

// ArrayWrite records one array-cell assignment in SSA order: Index is the
// already-rewritten index expression at the point of the write, and
// ValueName is the versioned scalar name (e.g. "a_0_1") holding the
// assigned value. The SMT emitter folds these, per array, into a
// store-chain lowering (REDESIGN FLAGS: "lower to the array theory only at
// SMT-emit time") so a read with an index that doesn't literally match any
// write still resolves against the array's accumulated state via select.
type ArrayWrite struct {
	Array     string
	Index     ast.Expr
	ValueName string
}

// Program is the complete SSA form of a loop-free statement tree: an
// ordered definition list, any assume()s encountered (plain constraints),
// every assert() encountered (the last is the goal the solver driver
// negates), and the array-cell writes in SSA order.
type Program struct {
	Lines       []Line
	Assumes     []ast.Expr
	Asserts     []ast.Expr // every assert() in source order; solver treats the last as the goal
	ArrayWrites []ArrayWrite
}

// Convert runs Passes 2-5 over stmts and returns the resulting SSA program.
func Convert(stmts []ast.Stmt) (*Program, error) {
	c := &converter{nextVer: map[string]int{}, seenFinal: map[string]bool{}}
	cur := map[string]int{}
	if err := c.convertScope(stmts, cur); err != nil {
		return nil, err
	}
	return &Program{Lines: c.lines, Assumes: c.assumes, Asserts: c.asserts, ArrayWrites: c.arrayWrites}, nil
}

type converter struct {
	lines       []Line
	nextVer     map[string]int // next version number to allocate, per base name
	phiCounter  int
	assumes     []ast.Expr
	asserts     []ast.Expr
	seenFinal   map[string]bool
	arrayWrites []ArrayWrite
}

func clone(m map[string]int) map[string]int {
	out := make(map[string]int, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}

func (c *converter) fresh(name string) int {
	c.nextVer[name]++
	return c.nextVer[name]
}

// rewrite replaces every Var and every array cell read whose flattened key
// is present in using with its versioned Ident, leaving free variables and
// genuinely unversioned array reads (select form) untouched.
func (c *converter) rewrite(e ast.Expr, using map[string]int) ast.Expr {
	switch v := e.(type) {
	case *ast.IntLit, *ast.BoolLit:
		return e
	case *ast.Var:
		if ver, ok := using[v.Name]; ok {
			return &ast.Ident{Name: v.Name, Version: ver}
		}
		return v
	case *ast.Ident:
		return v
	case *ast.ArrayRead:
		idx := c.rewrite(v.Index, using)
		cellName := v.Array + "_" + canonicalIndexKey(idx)
		if ver, ok := using[cellName]; ok {
			return &ast.Ident{Name: cellName, Version: ver}
		}
		return &ast.ArrayRead{Array: v.Array, Index: idx}
	case *ast.BinOp:
		return &ast.BinOp{Op: v.Op, Left: c.rewrite(v.Left, using), Right: c.rewrite(v.Right, using)}
	case *ast.Ternary:
		return &ast.Ternary{
			Cond: c.rewrite(v.Cond, using),
			Then: c.rewrite(v.Then, using),
			Else: c.rewrite(v.Else, using),
		}
	}
	return e
}

// canonicalIndexKey flattens an already-rewritten array index into the
// synthetic scalar-cell name suffix used to key array versions (§3's "a_idx"
// scheme, generalized to a full expression tree). Composite indices join
// their operands with "_", the same crude but faithful flattening the
// original applied only to literal "+" text.
func canonicalIndexKey(e ast.Expr) string {
	switch v := e.(type) {
	case *ast.IntLit:
		return fmt.Sprintf("%d", v.Value)
	case *ast.BoolLit:
		if v.Value {
			return "true"
		}
		return "false"
	case *ast.Var:
		return v.Name
	case *ast.Ident:
		return fmt.Sprintf("%s_%d", v.Name, v.Version)
	case *ast.BinOp:
		return canonicalIndexKey(v.Left) + "_" + canonicalIndexKey(v.Right)
	case *ast.ArrayRead:
		return v.Array + "_" + canonicalIndexKey(v.Index)
	case *ast.Ternary:
		return canonicalIndexKey(v.Cond) + "_" + canonicalIndexKey(v.Then) + "_" + canonicalIndexKey(v.Else)
	default:
		return "x"
	}
}

// assign rewrites rhs against cur, allocates a fresh version for name,
// appends the definition line, and records the new version in cur.
func (c *converter) assign(name string, rhs ast.Expr, cur map[string]int) {
	rewritten := c.rewrite(rhs, cur)
	v := c.fresh(name)
	c.lines = append(c.lines, Line{Name: fmt.Sprintf("%s_%d", name, v), Rhs: rewritten})
	cur[name] = v
}

func (c *converter) convertScope(stmts []ast.Stmt, cur map[string]int) error {
	for _, st := range stmts {
		switch s := st.(type) {
		case *ast.Assign:
			c.assign(s.Name, s.Rhs, cur)

		case *ast.ArrayAssign:
			idx := c.rewrite(s.Index, cur)
			cellName := s.Array + "_" + canonicalIndexKey(idx)
			c.assign(cellName, s.Rhs, cur)
			c.arrayWrites = append(c.arrayWrites, ArrayWrite{
				Array:     s.Array,
				Index:     idx,
				ValueName: fmt.Sprintf("%s_%d", cellName, cur[cellName]),
			})

		case *ast.If:
			if err := c.convertIf(s, cur); err != nil {
				return err
			}

		case *ast.Call:
			if err := c.recordFinal(s, cur); err != nil {
				return err
			}

		default:
			return verr.New(verr.UnsupportedControlFlow, "statement survived unrolling unconverted", verr.Position{}).Build()
		}
	}
	return nil
}

// convertIf processes one if/else-if*/else? chain uniformly: every
// alternative (including an absent trailing else, treated as an implicit
// empty branch) runs against its own clone of the pre-chain snapshot, and
// every name touched by any alternative is merged back into cur through a
// phi guard built from the chain's conditions.
func (c *converter) convertIf(n *ast.If, cur map[string]int) error {
	pre := clone(cur)

	var slots []map[string]int
	var guards []string
	hasElse := false

	for _, br := range n.Branches {
		altCur := clone(pre)
		if br.Cond != nil {
			rewrittenCond := c.rewrite(br.Cond, pre)
			phiName := fmt.Sprintf("phi%d", c.phiCounter+1)
			c.phiCounter++
			c.lines = append(c.lines, Line{Name: phiName, Rhs: rewrittenCond})
			guards = append(guards, phiName)
		} else {
			hasElse = true
		}
		if err := c.convertScope(br.Body, altCur); err != nil {
			return err
		}
		slots = append(slots, altCur)
	}
	if !hasElse {
		slots = append(slots, pre)
	}

	touched := map[string]bool{}
	for _, s := range slots {
		for k, v := range s {
			if pv, ok := pre[k]; !ok || pv != v {
				touched[k] = true
			}
		}
	}

	for name := range touched {
		versions := make([]int, len(slots))
		for i, s := range slots {
			if v, ok := s[name]; ok {
				versions[i] = v
			} else {
				versions[i] = pre[name]
			}
		}
		cur[name] = c.buildPhiTree(name, versions, guards)
	}
	return nil
}

// buildPhiTree implements Pass 4's balanced nested-ternary construction:
// up to three slots fold directly into one ternary chain; beyond that the
// slot list is split at its midpoint and each half is merged recursively
// before being combined by the guard at the split point. The split is a
// depth optimization only — any canonical encoding that preserves the
// guard-combination-to-version mapping is equivalent.
func (c *converter) buildPhiTree(name string, versions []int, guards []string) int {
	if len(versions) == 1 {
		return versions[0]
	}

	var expr ast.Expr
	if len(versions) > 3 {
		mid := len(versions) / 2
		leftVer := c.buildPhiTree(name, versions[:mid], guards[:mid-1])
		rightVer := c.buildPhiTree(name, versions[mid:], guards[mid:])
		expr = &ast.Ternary{
			Cond: &ast.Var{Name: guards[mid-1]},
			Then: &ast.Ident{Name: name, Version: leftVer},
			Else: &ast.Ident{Name: name, Version: rightVer},
		}
	} else {
		expr = &ast.Ident{Name: name, Version: versions[len(versions)-1]}
		for i := len(versions) - 2; i >= 0; i-- {
			expr = &ast.Ternary{
				Cond: &ast.Var{Name: guards[i]},
				Then: &ast.Ident{Name: name, Version: versions[i]},
				Else: expr,
			}
		}
	}

	v := c.fresh(name)
	c.lines = append(c.lines, Line{Name: fmt.Sprintf("%s_%d", name, v), Rhs: expr})
	return v
}

// recordFinal handles a call-shaped statement: assert(e) or assume(e).
// Pass 5 suppresses a final statement that repeats, textually, one already
// recorded — the original's duplicate-assert collapse.
func (c *converter) recordFinal(call *ast.Call, cur map[string]int) error {
	if len(call.Args) != 1 {
		return verr.New(verr.MalformedAssertion, "call-shaped statement takes exactly one argument", verr.Position{}).
			WithFragment(call.Name).Build()
	}
	rewritten := c.rewrite(call.Args[0], cur)
	key := call.Name + ":" + rewritten.String()
	if c.seenFinal[key] {
		return nil
	}
	c.seenFinal[key] = true

	switch call.Name {
	case "assert":
		c.asserts = append(c.asserts, rewritten)
	case "assume":
		c.assumes = append(c.assumes, rewritten)
	default:
		return verr.New(verr.MalformedAssertion, "unrecognized call-shaped statement", verr.Position{}).
			WithFragment(call.Name).Build()
	}
	return nil
}
