// SPDX-License-Identifier: Apache-2.0
package main

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/fatih/color"

	verr "boundverify/internal/errors"
	"boundverify/internal/verifier"
)

// Minimal one-shot entry point: verify a single program against the default
// per-loop bound (1, applied by the unroller when no bound map is given).
// cmd/verifier-cli is the fuller collaborator with bounds, equivalence mode,
// and the interactive REPL fallback.
func main() {
	if len(os.Args) < 2 {
		fmt.Println("Usage: boundverify <file.bv>")
		os.Exit(1)
	}

	path := os.Args[1]
	source, err := os.ReadFile(path)
	if err != nil {
		color.Red("Failed to read file: %s", err)
		os.Exit(1)
	}

	solverBin := "z3"
	if bin := os.Getenv("BOUNDVERIFY_SOLVER"); bin != "" {
		solverBin = bin
	}

	result, err := verifier.Verify(context.Background(), string(source), nil, solverBin)
	if err != nil {
		color.Red("Internal error: %s", err)
		os.Exit(1)
	}

	switch result.Verdict.Kind {
	case verifier.KindSatisfied:
		color.Green("✅ Satisfied")
	case verifier.KindFalsifiable:
		color.Red("❌ Falsifiable")
	case verifier.KindUnknown:
		color.Yellow("? Unknown")
	case verifier.KindError:
		reportVerifierError(path, string(source), result.Verdict.Err)
		os.Exit(1)
	}
}

// reportVerifierError prints a caret-style message pointed at a
// VerifierError's position and source fragment.
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
