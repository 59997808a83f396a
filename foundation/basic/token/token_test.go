// File: token_test.go
// Title: Token Unit Tests
// Description: Tests for kind names, symbols and token display rules.
// Author: msto63
// Version: v0.1.0
// Created: 2026-10-19
// Modified: 2026-10-19
//
// Change History:
// - 2026-10-19 v0.1.0: Initial test suite

package token

import (
	"testing"

	"github.com/msto63/mbasic/foundation/basic/source"
)

func TestKind_Symbol(t *testing.T) {
	tests := []struct {
		kind Kind
		want string
	}{
		{PLUS, "+"},
		{MINUS, "-"},
		{MUL, "*"},
		{DIV, "/"},
		{LPAREN, "("},
		{RPAREN, ")"},
		{LSQUARE, "["},
		{RSQUARE, "]"},
		{COMMA, ","},
		{COLON, ":"},
		{EQ, "="},
		{EQEQ, "=="},
		{LT, "<"},
		{LTE, "<="},
		{GT, ">"},
		{GTE, ">="},
		{INCREMENT, "++"},
		{DECREMENT, "--"},
		{EOF, ""},
		{INT, ""},
		{IDENTIFIER, ""},
	}

	for _, tt := range tests {
		t.Run(tt.kind.String(), func(t *testing.T) {
			if got := tt.kind.Symbol(); got != tt.want {
				t.Errorf("Symbol() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestKind_StringRoundTrip(t *testing.T) {
	for _, k := range Kinds() {
		name := k.String()
		if name == "UNKNOWN" {
			t.Errorf("kind %d has no name", int(k))
			continue
		}
		parsed, ok := ParseKind(name)
		if !ok || parsed != k {
			t.Errorf("ParseKind(%q) = %v, %v", name, parsed, ok)
		}
	}
	if len(Kinds()) != 24 {
		t.Errorf("expected 24 kinds, got %d", len(Kinds()))
	}
	if Kind(99).String() != "UNKNOWN" {
		t.Errorf("out of range kind should be UNKNOWN")
	}
}

func TestToken_Display(t *testing.T) {
	var p source.Position

	tests := []struct {
		name string
		tok  Token
		want string
	}{
		{"int", NewInt(123, p, p), "123"},
		{"float", NewFloat(1.5, p, p), "1.5"},
		{"whole float", NewFloat(2, p, p), "2.0"},
		{"string", NewText(STRING, "hi there", p, p), "hi there"},
		{"identifier", NewText(IDENTIFIER, "ifx", p, p), "ifx"},
		{"keyword", NewText(KEYWORD, "while", p, p), "while"},
		{"eqeq", New(EQEQ, p, p), "=="},
		{"increment", New(INCREMENT, p, p), "++"},
		{"eof", New(EOF, p, p), ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.tok.Display(); got != tt.want {
				t.Errorf("Display() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestToken_Value(t *testing.T) {
	var p source.Position

	v, ok := NewInt(7, p, p).Value()
	if !ok || v.Int() != 7 {
		t.Errorf("INT value = %v, %v", v.Int(), ok)
	}

	v, ok = NewFloat(0.25, p, p).Value()
	if !ok || v.Float() != 0.25 {
		t.Errorf("FLOAT value = %v, %v", v.Float(), ok)
	}

	if _, ok := New(PLUS, p, p).Value(); ok {
		t.Error("PLUS should not carry a value")
	}
}

func TestNew_RejectsValuedKinds(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Error("New(INT) should panic")
		}
	}()
	var p source.Position
	New(INT, p, p)
}

func TestNewText_RejectsOtherKinds(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Error("NewText(EOF) should panic")
		}
	}()
	var p source.Position
	NewText(EOF, "x", p, p)
}

func TestToken_String(t *testing.T) {
	var p source.Position
	if got := New(PLUS, p, p).String(); got != "PLUS" {
		t.Errorf("String() = %q, want PLUS", got)
	}
	if got := NewText(IDENTIFIER, "abc", p, p).String(); got != "abc" {
		t.Errorf("String() = %q, want abc", got)
	}
}

func TestFormatFloat(t *testing.T) {
	tests := []struct {
		in   float64
		want string
	}{
		{1.2, "1.2"},
		{3, "3.0"},
		{0, "0.0"},
		{0.5, "0.5"},
		{1e16, "1e+16"},
		{0.00001, "1e-05"},
	}
	for _, tt := range tests {
		if got := FormatFloat(tt.in); got != tt.want {
			t.Errorf("FormatFloat(%v) = %q, want %q", tt.in, got, tt.want)
		}
	}
}
