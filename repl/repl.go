// Package repl is the collaborator (§6): it supplies the bound-map prompt,
// the one-or-two program buffers, and the four output sections the verifier
// contract requires, over a line-oriented terminal session — the same shape
// as the teacher's REPL, generalized from "type one line, see its AST" to
// "type a program terminated by a blank line, see it verified".
package repl

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/fatih/color"

	"boundverify/internal/loop"
	"boundverify/internal/normalize"
	"boundverify/internal/verifier"
)

const (
	prompt1 = "program 1> "
	prompt2 = "program 2 (blank to skip)> "
	boundP  = "bound> "
)

// Start runs the interactive session: read program 1 (terminated by a blank
// line), read program 2 the same way (an empty buffer selects single-program
// mode per normalize.IsEmptySecondProgram), prompt for a bound per distinct
// collected loop header, run Verify or Equivalence, and print the four
// witness sections plus the verdict.
func Start(in io.Reader, out io.Writer) {
	scanner := bufio.NewScanner(in)

	fmt.Fprint(out, "Enter program 1, blank line to finish:\n")
	sourceA := readBlock(scanner, out, prompt1)

	fmt.Fprint(out, "Enter program 2 (optional), blank line to finish:\n")
	sourceB := readBlock(scanner, out, prompt2)

	ctx := context.Background()
	solverBin := "z3"

	if normalize.IsEmptySecondProgram(sourceB) {
		bounds := promptBounds(scanner, out, normalize.Lines(sourceA))
		result, err := verifier.Verify(ctx, sourceA, bounds, solverBin)
		if err != nil {
			fmt.Fprintf(out, "internal error: %s\n", err)
			return
		}
		printSections(out, result.Sections)
		printVerdict(out, result.Verdict)
		return
	}

	boundsA := promptBounds(scanner, out, normalize.Lines(sourceA))
	boundsB := promptBounds(scanner, out, normalize.Lines(sourceB))
	eq, err := verifier.Equivalence(ctx, sourceA, sourceB, boundsA, boundsB, solverBin)
	if err != nil {
		fmt.Fprintf(out, "internal error: %s\n", err)
		return
	}

	fmt.Fprintln(out, "--- program 1 ---")
	printSections(out, eq.A.Sections)
	printVerdict(out, eq.A.Verdict)
	fmt.Fprintln(out, "--- program 2 ---")
	printSections(out, eq.B.Sections)
	printVerdict(out, eq.B.Verdict)

	if eq.Verdict == verifier.Equivalent {
		color.Green("Equivalent (weak: both verdicts landed in the same satisfiability bucket)")
	} else {
		color.Red("NotEquivalent")
	}
}

func readBlock(scanner *bufio.Scanner, out io.Writer, label string) string {
	var lines []string
	for {
		fmt.Fprint(out, label)
		if !scanner.Scan() {
			break
		}
		line := scanner.Text()
		if strings.TrimSpace(line) == "" {
			break
		}
		lines = append(lines, line)
	}
	return strings.Join(lines, "\n")
}

// promptBounds asks the collaborator for a bound per distinct loop header
// collected from source, defaulting to 1 on unparseable input.
func promptBounds(scanner *bufio.Scanner, out io.Writer, normalized []string) loop.BoundMap {
	headers, err := loop.Collect(normalized)
	if err != nil || len(headers) == 0 {
		return nil
	}

	bounds := make(loop.BoundMap, len(headers))
	for _, header := range headers {
		fmt.Fprintf(out, "%s%s\n", boundP, header)
		fmt.Fprint(out, "n = ")
		n := 1
		if scanner.Scan() {
			fmt.Sscanf(scanner.Text(), "%d", &n)
		}
		bounds[header] = n
	}
	return bounds
}

func printSections(out io.Writer, s verifier.Sections) {
	fmt.Fprintln(out, "=== unrolled ===")
	fmt.Fprintln(out, strings.Join(s.Unrolled, "\n"))
	fmt.Fprintln(out, "=== SSA ===")
	for _, l := range s.SSA {
		fmt.Fprintln(out, l.String())
	}
	fmt.Fprintln(out, "=== SMT ===")
	fmt.Fprint(out, s.SMT)
}

func printVerdict(out io.Writer, v verifier.Verdict) {
	switch v.Kind {
	case verifier.KindSatisfied:
		color.Green("Satisfied")
		for name, val := range v.Model {
			fmt.Fprintf(out, "  %s = %s\n", name, val)
		}
	case verifier.KindFalsifiable:
		color.Red("Falsifiable")
		for i, ce := range v.Counterexamples {
			fmt.Fprintf(out, "  counterexample %d:\n", i+1)
			for name, val := range ce {
				fmt.Fprintf(out, "    %s = %s\n", name, val)
			}
		}
	case verifier.KindUnknown:
		color.Yellow("Unknown")
	case verifier.KindError:
		color.HiRed("Error: %s", v.Err.Error())
	}
}
