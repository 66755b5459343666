// SPDX-License-Identifier: Apache-2.0
package main

import (
	"context"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/fatih/color"

	verr "boundverify/internal/errors"
	"boundverify/internal/loop"
	"boundverify/internal/verifier"
	"boundverify/repl"
)

// Usage: boundverify-cli <solver-binary> <program.txt> [program2.txt] [header=n ...] [2:header=n ...]
//
// A bare "header=n" sets that header's bound for both programs in
// equivalence mode; a "2:header=n" override applies to the second program
// only, since the same loop-header text can legitimately need a different
// bound in each program.
//
// With no arguments it falls back to the interactive collaborator session
// (repl.Start), matching the teacher's line-oriented REPL entry point.
func main() {
	if len(os.Args) < 3 {
		repl.Start(os.Stdin, os.Stdout)
		return
	}

	solverBin := os.Args[1]
	path := os.Args[2]

	source, err := os.ReadFile(path)
	if err != nil {
		color.Red("Failed to read file: %s", err)
		os.Exit(1)
	}

	var secondPath string
	var boundArgs []string
	for _, arg := range os.Args[3:] {
		if strings.Contains(arg, "=") {
			boundArgs = append(boundArgs, arg)
			continue
		}
		if secondPath == "" {
			secondPath = arg
		}
	}

	ctx := context.Background()
	boundsA, boundsBOverride := splitBoundArgs(boundArgs)
	bounds := parseBounds(boundsA)

	if secondPath == "" {
		result, err := verifier.Verify(ctx, string(source), bounds, solverBin)
		if err != nil {
			color.Red("Internal error: %s", err)
			os.Exit(1)
		}
		printResult(path, string(source), result)
		if result.Verdict.Kind == verifier.KindError || result.Verdict.Kind == verifier.KindFalsifiable {
			os.Exit(1)
		}
		return
	}

	source2, err := os.ReadFile(secondPath)
	if err != nil {
		color.Red("Failed to read file: %s", err)
		os.Exit(1)
	}

	boundsB := parseBounds(boundsBOverride)
	if boundsB == nil {
		boundsB = make(loop.BoundMap, len(bounds))
	}
	for header, n := range bounds {
		if _, overridden := boundsB[header]; !overridden {
			boundsB[header] = n
		}
	}
	eq, err := verifier.Equivalence(ctx, string(source), string(source2), bounds, boundsB, solverBin)
	if err != nil {
		color.Red("Internal error: %s", err)
		os.Exit(1)
	}
	printResult(path, string(source), eq.A)
	printResult(secondPath, string(source2), eq.B)
	if eq.Verdict == verifier.Equivalent {
		color.Green("✅ Equivalent (weak: both verdicts share a satisfiability bucket)")
	} else {
		color.Red("❌ NotEquivalent")
		os.Exit(1)
	}
}

// splitBoundArgs separates plain "header=n" entries (apply to both programs)
// from "2:header=n" entries (apply only to the second program's bound map).
func splitBoundArgs(args []string) (shared, secondOnly []string) {
	for _, arg := range args {
		if rest, ok := strings.CutPrefix(arg, "2:"); ok {
			secondOnly = append(secondOnly, rest)
			continue
		}
		shared = append(shared, arg)
	}
	return shared, secondOnly
}

// parseBounds turns "header=n" command-line arguments into a loop.BoundMap.
// Headers containing spaces must be quoted by the shell; unparsed entries
// are skipped, defaulting that loop to bound 1 downstream.
func parseBounds(args []string) loop.BoundMap {
	if len(args) == 0 {
		return nil
	}
	bounds := make(loop.BoundMap, len(args))
	for _, arg := range args {
		parts := strings.SplitN(arg, "=", 2)
		if len(parts) != 2 {
			continue
		}
		n, err := strconv.Atoi(strings.TrimSpace(parts[1]))
		if err != nil {
			continue
		}
		bounds[parts[0]] = n
	}
	return bounds
}

func printResult(path, source string, result *verifier.Result) {
	fmt.Printf("--- %s ---\n", path)
	fmt.Println("=== unrolled ===")
	fmt.Println(strings.Join(result.Sections.Unrolled, "\n"))
	fmt.Println("=== SSA ===")
	for _, l := range result.Sections.SSA {
		fmt.Println(l.String())
	}
	fmt.Println("=== SMT ===")
	fmt.Print(result.Sections.SMT)

	switch result.Verdict.Kind {
	case verifier.KindSatisfied:
		color.Green("✅ Satisfied")
	case verifier.KindFalsifiable:
		color.Red("❌ Falsifiable")
		for i, ce := range result.Verdict.Counterexamples {
			fmt.Printf("  counterexample %d: %v\n", i+1, ce)
		}
	case verifier.KindUnknown:
		color.Yellow("? Unknown")
	case verifier.KindError:
		reportVerifierError(path, source, result.Verdict.Err)
	}
}

// reportVerifierError prints a caret-style message analogous to the
// teacher's participle-error reporter, pointed at a VerifierError's
// position and source fragment instead of a grammar error.
func reportVerifierError(path, src string, ve *verr.VerifierError) {
	if ve == nil {
		return
	}
	lines := strings.Split(src, "\n")
	pos := ve.Position
	if pos.Line <= 0 || pos.Line > len(lines) {
		color.Red("❌ %s: %s", ve.Kind, ve.Message)
		return
	}

	line := lines[pos.Line-1]
	col := pos.Column
	if col < 1 {
		col = 1
	}
	caret := strings.Repeat(" ", col-1) + "^"

	color.Red("❌ %s in %s at line %d, column %d:", ve.Kind, path, pos.Line, pos.Column)
	fmt.Println(line)
	color.HiRed(caret)
	fmt.Printf("→ %s", ve.Message)
	if ve.Fragment != "" {
		fmt.Printf(" (in %q)", ve.Fragment)
	}
	fmt.Println()
}
