package diag

import (
	"strings"
	"testing"

	"github.com/msto63/mbasic/foundation/basic/source"
)

func at(text string, idx int) source.Position {
	p := source.Start("<stdin>", text)
	for p.Index < idx {
		p.Advance([]rune(text[p.Index:])[0])
	}
	return p
}

func TestErrorKind_String(t *testing.T) {
	tests := []struct {
		kind ErrorKind
		name string
		code string
	}{
		{IllegalCharacter, "Illegal Character", "ILLEGAL_CHARACTER"},
		{InvalidSyntax, "Invalid Syntax", "INVALID_SYNTAX"},
		{InvalidNumber, "Invalid Number", "INVALID_NUMBER"},
		{ErrorKind(42), "Error", "UNKNOWN"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.kind.String(); got != tt.name {
				t.Errorf("String() = %q, want %q", got, tt.name)
			}
			if got := tt.kind.Code(); got != tt.code {
				t.Errorf("Code() = %q, want %q", got, tt.code)
			}
		})
	}
}

func TestError_Error(t *testing.T) {
	text := "a @"
	e := IllegalChar('@', at(text, 2), at(text, 3))
	if got := e.Error(); got != "Illegal Character: '@'" {
		t.Errorf("Error() = %q", got)
	}
}

func TestError_Render(t *testing.T) {
	text := "x\n1 2"
	e := Syntax(at(text, 4), at(text, 5), "Extra stuff after expression")

	want := "Invalid Syntax: Extra stuff after expression\n" +
		"File <stdin>, line 2\n" +
		"\n" +
		"1 2\n" +
		"  ^"
	if got := e.Render(); got != want {
		t.Errorf("Render() =\n%s\nwant\n%s", got, want)
	}
	if e.String() != e.Render() {
		t.Error("String() should equal Render()")
	}
}

func TestError_RenderCaretColumns(t *testing.T) {
	text := "alpha beta gamma"
	start, end := at(text, 6), at(text, 10)
	e := New(InvalidSyntax, start, end, "test")

	lines := strings.Split(e.Render(), "\n")
	carets := lines[len(lines)-1]
	for col, r := range carets {
		inSpan := col >= start.Column && col < end.Column
		if inSpan != (r == '^') {
			t.Errorf("column %d: caret=%v, want %v", col, r == '^', inSpan)
		}
	}
	if strings.Count(carets, "^") != end.Column-start.Column {
		t.Errorf("caret count = %d", strings.Count(carets, "^"))
	}
}

func TestNew_SnapshotsPositions(t *testing.T) {
	text := "abc"
	cursor := at(text, 1)
	e := New(InvalidSyntax, cursor, cursor, "x")

	cursor.Advance('b')
	if e.Start.Index != 1 || e.End.Index != 1 {
		t.Errorf("diagnostic followed the cursor: %d %d", e.Start.Index, e.End.Index)
	}
}
