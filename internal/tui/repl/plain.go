// ============================================================================
// mBASIC - Scripting Language Front-End
// ============================================================================
//
// Package:     repl
// Description: Line-oriented REPL for pipes and dumb terminals
// Author:      msto63
// Created:     2026-10-19
// License:     MIT
// ============================================================================

package repl

import (
	"bufio"
	"context"
	"fmt"
	"io"
)

// maxLineLength bounds a single input line
const maxLineLength = 1 << 20

// RunPlain reads lines from in until EOF or ctx is done and writes the
// prompt and every outcome to out
func RunPlain(ctx context.Context, exec Executor, in io.Reader, out io.Writer, prompt string) error {
	if prompt == "" {
		prompt = DefaultPrompt
	}

	scanner := bufio.NewScanner(in)
	scanner.Buffer(make([]byte, 0, 4096), maxLineLength)

	for {
		if err := ctx.Err(); err != nil {
			return err
		}
		fmt.Fprint(out, prompt)

		if !scanner.Scan() {
			fmt.Fprintln(out)
			return scanner.Err()
		}

		result, ok := Eval(ctx, exec, scanner.Text())
		if !ok {
			continue
		}
		fmt.Fprintln(out, result.Text)
	}
}
