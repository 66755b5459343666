// Package verifier wires normalize → loop → stmt → ssa → smt → solver into
// the two entry points the rest of the tool is built around: Verify, for a
// single program, and Equivalence, which runs Verify on two programs and
// compares their verdicts (§6).
package verifier

import (
	"context"

	"boundverify/internal/loop"
	"boundverify/internal/normalize"
	"boundverify/internal/smt"
	"boundverify/internal/solver"
	"boundverify/internal/ssa"
	"boundverify/internal/stmt"
	verr "boundverify/internal/errors"
)

// Kind classifies a Verdict the way §6 enumerates it.
type Kind int

const (
	KindSatisfied Kind = iota
	KindFalsifiable
	KindUnknown
	KindError
)

func (k Kind) String() string {
	switch k {
	case KindSatisfied:
		return "Satisfied"
	case KindFalsifiable:
		return "Falsifiable"
	case KindError:
		return "Error"
	default:
		return "Unknown"
	}
}

// Verdict is Satisfied(model) | Falsifiable(counterexamples) | Unknown |
// Error(kind, message), collapsed into one struct.
type Verdict struct {
	Kind            Kind
	Model           solver.Assignment
	Counterexamples []solver.Assignment
	Err             *verr.VerifierError
}

// Sections is the witness data a caller renders alongside the verdict: the
// four intermediate panels of §6 (normalized source, unrolled source, SSA
// form, SMT-LIB text) plus the run identifier the solver assigned.
type Sections struct {
	Normalized []string
	Unrolled   []string
	SSA        []ssa.Line
	SMT        string
	RunID      string
}

// Result bundles one program's verdict with its witness sections.
type Result struct {
	Verdict  Verdict
	Sections Sections
}

// Verify runs A through G (§6) over source with the given unroll bounds,
// shelling out to solverBin. Every failure, including a missing solver
// binary, is reported as Verdict{Kind: KindError} and the returned error is
// nil. When the failure comes from the solver stage, Sections still carries
// the SSA and SMT output.
func Verify(ctx context.Context, source string, bounds loop.BoundMap, solverBin string) (*Result, error) {
	normalized := normalize.Lines(source)
	unrolled := loop.Unroll(normalized, bounds)

	stmts, err := stmt.Parse(unrolled)
	if err != nil {
		return errorResult(normalized, unrolled, err), nil
	}

	prog, err := ssa.Convert(stmts)
	if err != nil {
		return errorResult(normalized, unrolled, err), nil
	}

	emitted := smt.Emit(prog)

	driver, err := solver.NewDriver(solverBin)
	if err != nil {
		res := errorResult(normalized, unrolled, err)
		res.Sections.SSA = prog.Lines
		res.Sections.SMT = emitted.Text
		return res, nil
	}

	outcome, err := driver.Run(ctx, emitted)
	if err != nil {
		res := errorResult(normalized, unrolled, err)
		res.Sections.SSA = prog.Lines
		res.Sections.SMT = emitted.Text
		return res, nil
	}

	sections := Sections{
		Normalized: normalized,
		Unrolled:   unrolled,
		SSA:        prog.Lines,
		SMT:        emitted.Text,
		RunID:      outcome.RunID,
	}

	switch outcome.Verdict {
	case solver.Satisfied:
		return &Result{Verdict: Verdict{Kind: KindSatisfied, Model: outcome.Model}, Sections: sections}, nil
	case solver.Falsifiable:
		return &Result{Verdict: Verdict{Kind: KindFalsifiable, Counterexamples: outcome.Counterexamples}, Sections: sections}, nil
	default:
		return &Result{Verdict: Verdict{Kind: KindUnknown}, Sections: sections}, nil
	}
}

func errorResult(normalized, unrolled []string, err error) *Result {
	ve, ok := err.(*verr.VerifierError)
	if !ok {
		ve = verr.New(verr.InternalInvariantViolated, err.Error(), verr.Position{}).Build()
	}
	return &Result{
		Verdict: Verdict{Kind: KindError, Err: ve},
		Sections: Sections{
			Normalized: normalized,
			Unrolled:   unrolled,
		},
	}
}

// EquivalenceVerdict is Equivalent or NotEquivalent, per §6's weak
// "same satisfiability result" test — never a proof of semantic equality.
type EquivalenceVerdict int

const (
	Equivalent EquivalenceVerdict = iota
	NotEquivalent
)

func (v EquivalenceVerdict) String() string {
	if v == Equivalent {
		return "Equivalent"
	}
	return "NotEquivalent"
}

// EquivalenceResult is the outcome of comparing two programs' verdicts.
type EquivalenceResult struct {
	Verdict EquivalenceVerdict
	A       *Result
	B       *Result
}

// bucket groups a Kind into the coarse satisfiability class equivalence
// mode compares: Satisfied is its own bucket, everything else (Falsifiable,
// Unknown, Error) shares one, since the spec's equivalence check is
// explicitly a shallow "same satisfiability result" witness, not a proof.
func bucket(k Kind) bool {
	return k == KindSatisfied
}

// Equivalence runs Verify on both programs and compares their verdicts.
// Per the spec this implements, equivalence checking is a shallow witness
// of semantic similarity ("both SAT or both UNSAT"), not a full
// equivalence proof; a sound check would run both programs over shared
// input symbols and assert the negation of output equality.
func Equivalence(ctx context.Context, sourceA, sourceB string, boundsA, boundsB loop.BoundMap, solverBin string) (*EquivalenceResult, error) {
	resultA, err := Verify(ctx, sourceA, boundsA, solverBin)
	if err != nil {
		return nil, err
	}
	resultB, err := Verify(ctx, sourceB, boundsB, solverBin)
	if err != nil {
		return nil, err
	}

	verdict := NotEquivalent
	if bucket(resultA.Verdict.Kind) == bucket(resultB.Verdict.Kind) {
		verdict = Equivalent
	}

	return &EquivalenceResult{Verdict: verdict, A: resultA, B: resultB}, nil
}
