// File: result.go
// Title: Parse Result Carrier
// Description: Two-case outcome threaded through every parsing step. A
//              Result holds either a node or a diagnostic, never both.
// Author: msto63
// Version: v0.1.0
// Created: 2026-10-19
// Modified: 2026-10-19
//
// Change History:
// - 2026-10-19 v0.1.0: Initial result carrier

package parser

import (
	"github.com/msto63/mbasic/foundation/basic/ast"
	"github.com/msto63/mbasic/foundation/basic/diag"
)

// Result is the outcome of a parsing step
type Result struct {
	node ast.Node
	err  *diag.Error
}

// Success wraps a parsed node
func Success(node ast.Node) Result {
	return Result{node: node}
}

// Failure wraps a diagnostic. The diagnostic must not be nil.
func Failure(err *diag.Error) Result {
	if err == nil {
		panic("parser: Failure called with nil diagnostic")
	}
	return Result{err: err}
}

// Failed reports whether the step produced a diagnostic
func (r Result) Failed() bool {
	return r.err != nil
}

// Node returns the parsed node, nil on failure
func (r Result) Node() ast.Node {
	return r.node
}

// Err returns the diagnostic, nil on success
func (r Result) Err() *diag.Error {
	return r.err
}

// Unpack returns node and diagnostic; exactly one of them is nil
func (r Result) Unpack() (ast.Node, *diag.Error) {
	return r.node, r.err
}
