// Package solver drives an external SMT-LIB solver binary (§4.G): it poses
// the emitted query, and on an UNSAT result negates the goal and enumerates
// up to two counterexamples by blocking each model it finds in turn. This
// mirrors the original tool's z3-library call, but shells out to any
// SMT-LIB 2 compliant binary the way a command-line verifier would, rather
// than linking a solver into the process.
package solver

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"regexp"
	"sort"
	"strings"

	pkgerrors "github.com/pkg/errors"
	"github.com/sasha-s/go-deadlock"
	"github.com/segmentio/ksuid"

	verr "boundverify/internal/errors"
	"boundverify/internal/smt"
)

// Verdict is the outcome of discharging a program's obligations.
type Verdict int

const (
	Unknown Verdict = iota
	Satisfied
	Falsifiable
)

func (v Verdict) String() string {
	switch v {
	case Satisfied:
		return "Satisfied"
	case Falsifiable:
		return "Falsifiable"
	default:
		return "Unknown"
	}
}

// Assignment is one model: SMT-LIB constant name to its rendered value.
type Assignment map[string]string

// Outcome is the result of running one query through Driver.Run.
type Outcome struct {
	Verdict         Verdict
	Model           Assignment   // populated when Verdict == Satisfied
	Counterexamples []Assignment // populated (possibly empty) when Verdict == Falsifiable
	RunID           string
}

// Driver shells out to a located solver binary. §5 requires solver access
// to be serialized; deadlock.Mutex is a drop-in sync.Mutex that additionally
// detects a stuck driver instead of hanging silently.
type Driver struct {
	binPath string
	mu      deadlock.Mutex
}

// NewDriver locates name (e.g. "z3", "cvc5") on PATH.
func NewDriver(name string) (*Driver, error) {
	path, err := exec.LookPath(name)
	if err != nil {
		wrapped := pkgerrors.Wrapf(err, "solver binary %q not found on PATH", name)
		return nil, verr.New(verr.SolverError, wrapped.Error(), verr.Position{}).Build()
	}
	return &Driver{binPath: path}, nil
}

// Run poses res's query, and on UNSAT negates the goal and enumerates up
// to two counterexamples, blocking each model found so the next query
// can't return it again.
func (d *Driver) Run(ctx context.Context, res smt.Result) (*Outcome, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	runID := ksuid.New().String()

	sat, model, err := d.check(ctx, res.Text)
	if err != nil {
		return nil, err
	}
	if sat {
		return &Outcome{Verdict: Satisfied, Model: model, RunID: runID}, nil
	}
	if !res.HasGoal {
		return &Outcome{Verdict: Unknown, RunID: runID}, nil
	}

	var counterexamples []Assignment
	var blocking []string
	for i := 0; i < 2; i++ {
		query := res.NegatedGoalQuery(blocking...)
		sat2, model2, err := d.check(ctx, query)
		if err != nil {
			return nil, err
		}
		if !sat2 {
			break
		}
		counterexamples = append(counterexamples, model2)
		blocking = append(blocking, blockingClause(model2))
	}
	return &Outcome{Verdict: Falsifiable, Counterexamples: counterexamples, RunID: runID}, nil
}

// check runs the solver once over query and reports whether it was sat,
// along with the model when it was.
func (d *Driver) check(ctx context.Context, query string) (bool, Assignment, error) {
	tmp, err := os.CreateTemp("", "boundverify-*.smt2")
	if err != nil {
		wrapped := pkgerrors.Wrap(err, "creating solver input file")
		return false, nil, verr.New(verr.SolverError, wrapped.Error(), verr.Position{}).Build()
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.WriteString(query); err != nil {
		tmp.Close()
		wrapped := pkgerrors.Wrap(err, "writing solver input file")
		return false, nil, verr.New(verr.SolverError, wrapped.Error(), verr.Position{}).Build()
	}
	if err := tmp.Close(); err != nil {
		wrapped := pkgerrors.Wrap(err, "closing solver input file")
		return false, nil, verr.New(verr.SolverError, wrapped.Error(), verr.Position{}).Build()
	}

	out, err := exec.CommandContext(ctx, d.binPath, tmp.Name()).CombinedOutput()
	if err != nil {
		wrapped := pkgerrors.Wrapf(err, "solver invocation failed: %s", strings.TrimSpace(string(out)))
		return false, nil, verr.New(verr.SolverError, wrapped.Error(), verr.Position{}).
			WithFragment(query).Build()
	}

	text := string(out)
	switch firstWord(text) {
	case "sat":
		return true, parseModel(text), nil
	case "unsat":
		return false, nil, nil
	default:
		wrapped := pkgerrors.Errorf("solver returned neither sat nor unsat: %q", strings.TrimSpace(text))
		return false, nil, verr.New(verr.SolverError, wrapped.Error(), verr.Position{}).
			WithFragment(query).Build()
	}
}

func firstWord(output string) string {
	for _, line := range strings.Split(output, "\n") {
		line = strings.TrimSpace(line)
		if line != "" {
			return line
		}
	}
	return ""
}

var modelLineRe = regexp.MustCompile(`^\s*\(define-fun\s+(\S+)\s*\(\)\s*\S+\s+(.+)\)\s*$`)

// parseModel extracts each "(define-fun name () Sort value)" binding from
// a solver's (get-model) output. Solvers that pretty-print a model across
// multiple lines per binding are not supported; every binding this tool's
// own queries produce is scalar and fits one line.
func parseModel(output string) Assignment {
	m := Assignment{}
	for _, line := range strings.Split(output, "\n") {
		match := modelLineRe.FindStringSubmatch(line)
		if match == nil {
			continue
		}
		m[match[1]] = strings.TrimSpace(match[2])
	}
	return m
}

// blockingClause builds the full-assignment blocking clause added after a
// counterexample is found, so the next query can't produce the same model.
func blockingClause(m Assignment) string {
	if len(m) == 0 {
		return "(assert false)"
	}
	names := make([]string, 0, len(m))
	for k := range m {
		names = append(names, k)
	}
	sort.Strings(names)

	eqs := make([]string, 0, len(names))
	for _, k := range names {
		eqs = append(eqs, fmt.Sprintf("(= %s %s)", k, m[k]))
	}
	conj := eqs[0]
	if len(eqs) > 1 {
		conj = fmt.Sprintf("(and %s)", strings.Join(eqs, " "))
	}
	return fmt.Sprintf("(assert (not %s))", conj)
}
