// File: diag.go
// Title: Source Diagnostics
// Description: Defines the single diagnostic record returned by the lexer
//              and the parser. A diagnostic is plain data tagged by a closed
//              ErrorKind and renders itself with a caret-underlined excerpt
//              of the offending source text.
// Author: msto63
// Version: v0.1.0
// Created: 2026-10-19
// Modified: 2026-10-19
//
// Change History:
// - 2026-10-19 v0.1.0: Initial diagnostic model

package diag

import (
	"fmt"
	"strings"

	"github.com/msto63/mbasic/foundation/basic/source"
)

// ErrorKind classifies a diagnostic
type ErrorKind int

const (
	// IllegalCharacter is reported by the lexer for a character that
	// starts no token.
	IllegalCharacter ErrorKind = iota
	// InvalidSyntax is reported by the parser for a grammar violation.
	InvalidSyntax
	// InvalidNumber is reported by the lexer for an integer literal that
	// does not fit into 64 bits.
	InvalidNumber
)

var kindNames = map[ErrorKind]string{
	IllegalCharacter: "Illegal Character",
	InvalidSyntax:    "Invalid Syntax",
	InvalidNumber:    "Invalid Number",
}

var kindCodes = map[ErrorKind]string{
	IllegalCharacter: "ILLEGAL_CHARACTER",
	InvalidSyntax:    "INVALID_SYNTAX",
	InvalidNumber:    "INVALID_NUMBER",
}

// String returns the human readable name used in rendered diagnostics
func (k ErrorKind) String() string {
	if name, ok := kindNames[k]; ok {
		return name
	}
	return "Error"
}

// Code returns a stable machine readable identifier, e.g. "INVALID_SYNTAX"
func (k ErrorKind) Code() string {
	if code, ok := kindCodes[k]; ok {
		return code
	}
	return "UNKNOWN"
}

// Error is a diagnostic anchored to a span of source text.
// It is immutable after construction.
type Error struct {
	Kind    ErrorKind
	Start   source.Position
	End     source.Position
	Details string
}

// New creates a diagnostic. start and end are stored as snapshots.
func New(kind ErrorKind, start, end source.Position, details string) *Error {
	return &Error{
		Kind:    kind,
		Start:   start.Copy(),
		End:     end.Copy(),
		Details: details,
	}
}

// IllegalChar creates an IllegalCharacter diagnostic for ch
func IllegalChar(ch rune, start, end source.Position) *Error {
	return New(IllegalCharacter, start, end, fmt.Sprintf("'%c'", ch))
}

// Syntax creates an InvalidSyntax diagnostic
func Syntax(start, end source.Position, details string) *Error {
	return New(InvalidSyntax, start, end, details)
}

// Error returns the one-line form "<kind>: <details>"
func (e *Error) Error() string {
	return fmt.Sprintf("%s: %s", e.Kind, e.Details)
}

// Span returns the span the diagnostic refers to
func (e *Error) Span() source.Span {
	return source.NewSpan(e.Start, e.End)
}

// Render returns the full diagnostic:
//
//	<kind>: <details>
//	File <file>, line <line>
//
//	<source line>
//	<carets>
func (e *Error) Render() string {
	var b strings.Builder
	b.WriteString(e.Error())
	b.WriteByte('\n')
	fmt.Fprintf(&b, "File %s, line %d", e.Start.File, e.Start.Line+1)
	b.WriteString("\n\n")
	b.WriteString(source.Excerpt(e.Start.Text, e.Start, e.End))
	return b.String()
}

// String is an alias for Render
func (e *Error) String() string {
	return e.Render()
}
