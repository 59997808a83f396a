// File: position.go
// Title: Source Positions
// Description: Implements the scan cursor and the position snapshots that
//              tokens, AST nodes and diagnostics carry. A position knows
//              the file name and the full source text so that a diagnostic
//              can later render the surrounding lines on its own.
// Author: msto63
// Version: v0.1.0
// Created: 2026-10-19
// Modified: 2026-10-19
//
// Change History:
// - 2026-10-19 v0.1.0: Initial position model

package source

import (
	"fmt"
	"unicode/utf8"
)

// Position is a location inside one source text.
//
// Index is a byte offset, Line and Column are 0-based. Column counts
// characters, not bytes. Position has value semantics: assigning it or
// calling Copy yields an independent snapshot.
type Position struct {
	Index  int    // Byte offset into Text
	Line   int    // Line number (0-based)
	Column int    // Column number in characters (0-based)
	File   string // Source file name as shown in diagnostics
	Text   string // Full source text, never modified
}

// Start returns the position of the first character of text.
func Start(file, text string) Position {
	return Position{File: file, Text: text}
}

// Advance moves the position past ch and returns it for chaining.
//
// A newline increments the line and resets the column to 0. Passing
// utf8.RuneError or a negative rune (no current character) still moves
// the position by one byte and one column.
func (p *Position) Advance(ch rune) *Position {
	size := 1
	if ch >= 0 && ch != utf8.RuneError {
		size = utf8.RuneLen(ch)
	}

	p.Index += size
	p.Column++

	if ch == '\n' {
		p.Line++
		p.Column = 0
	}

	return p
}

// Copy returns an independent snapshot of the position.
func (p Position) Copy() Position {
	return p
}

// String returns "file:line:column" with 1-based line and column.
func (p Position) String() string {
	return fmt.Sprintf("%s:%d:%d", p.File, p.Line+1, p.Column+1)
}

// Span delimits the text a token, node or diagnostic refers to.
// End is exclusive.
type Span struct {
	Start Position
	End   Position
}

// NewSpan builds a span from two positions.
func NewSpan(start, end Position) Span {
	return Span{Start: start, End: end}
}

// Len returns the byte length of the span.
func (s Span) Len() int {
	return s.End.Index - s.Start.Index
}

// String returns a compact "file:l:c-l:c" description of the span.
func (s Span) String() string {
	return fmt.Sprintf("%s-%d:%d", s.Start.String(), s.End.Line+1, s.End.Column+1)
}
