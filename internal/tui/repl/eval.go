// ============================================================================
// mBASIC - Scripting Language Front-End
// ============================================================================
//
// Package:     repl
// Description: Line evaluation shared by the Bubble Tea and plain REPLs
// Author:      msto63
// Created:     2026-10-19
// License:     MIT
// ============================================================================

package repl

import (
	"context"
	"fmt"
	"strings"

	"github.com/msto63/mbasic/internal/frontend/service"
	"github.com/msto63/mbasic/internal/frontend/store"
)

// DefaultPrompt is shown before every input line
const DefaultPrompt = "basic > "

// Executor runs one line of source. *service.Service implements it.
type Executor interface {
	Execute(ctx context.Context, origin store.Origin, code string) (*service.Response, error)
}

// Output is the printable outcome of one line
type Output struct {
	Text string
	// Failed is set for lexer, syntax and rejection errors
	Failed bool
}

// Eval runs line and formats the outcome. ok is false for blank lines,
// which produce no output.
func Eval(ctx context.Context, exec Executor, line string) (out Output, ok bool) {
	if strings.TrimSpace(line) == "" {
		return Output{}, false
	}

	resp, err := exec.Execute(ctx, store.OriginCLI, line)
	if err != nil {
		return Output{Text: err.Error(), Failed: true}, true
	}
	return Format(resp), true
}

// Format renders a response: the result and token count, or the error
func Format(resp *service.Response) Output {
	switch {
	case !resp.Success:
		return Output{Text: resp.Error, Failed: true}
	case resp.SyntaxError != "":
		return Output{Text: resp.SyntaxError, Failed: true}
	}
	return Output{Text: fmt.Sprintf("Result: %s\nTokens: %d", resp.Result, resp.Tokens)}
}
