// File: excerpt.go
// Title: Source Excerpt Rendering
// Description: Renders the first source line covered by a span together
//              with a caret line underlining the columns of the span.
//              Pure formatting over (text, start, end); used by the
//              diagnostic renderer.
// Author: msto63
// Version: v0.1.0
// Created: 2026-10-19
// Modified: 2026-10-19
//
// Change History:
// - 2026-10-19 v0.1.0: Initial caret excerpt renderer
// - 2026-10-19 v0.1.1: Multi-line spans stop at the end of the first line

package source

import (
	"strings"
)

// Caret is the character used to underline a span.
const Caret = '^'

// Excerpt renders the line of text where [start, end) begins with a caret
// line beneath it.
//
// The carets run from start.Column to end.Column, or to the end of the
// line when the span continues on later lines; later lines are not shown.
// Columns are clamped to the line length. A non-empty span that starts at
// or beyond the end of a line (end-of-input diagnostics) gets a single
// caret right after the last character. Tabs in front of the span are
// repeated in the caret line so that terminals keep the carets aligned.
func Excerpt(text string, start, end Position) string {
	lines := strings.Split(text, "\n")

	i := clampInt(start.Line, 0, len(lines)-1)
	line := []rune(strings.TrimSuffix(lines[i], "\r"))

	colEnd := len(line)
	if end.Line <= i {
		colEnd = end.Column
	}

	colStart := clampInt(start.Column, 0, len(line))
	wanted := colEnd > colStart || end.Index > start.Index
	colEnd = clampInt(colEnd, colStart, len(line))
	if wanted && colEnd == colStart {
		colEnd = colStart + 1
	}

	return string(line) + "\n" + caretLine(line, colStart, colEnd)
}

// caretLine builds the underline for one line.
func caretLine(line []rune, colStart, colEnd int) string {
	var b strings.Builder
	for i := 0; i < colStart; i++ {
		if i < len(line) && line[i] == '\t' {
			b.WriteByte('\t')
		} else {
			b.WriteByte(' ')
		}
	}
	for i := colStart; i < colEnd; i++ {
		b.WriteRune(Caret)
	}
	return b.String()
}

func clampInt(v, lo, hi int) int {
	if hi < lo {
		hi = lo
	}
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
