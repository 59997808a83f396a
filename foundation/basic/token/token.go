// File: token.go
// Title: Lexical Tokens
// Description: Defines the closed set of token kinds, the kind-selected
//              literal payload and the Token type produced by the lexer.
//              Kind names and symbols form the wire contract used by the
//              web and RPC front-ends to display token streams.
// Author: msto63
// Version: v0.1.0
// Created: 2026-10-19
// Modified: 2026-10-19
//
// Change History:
// - 2026-10-19 v0.1.0: Initial token definitions

package token

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/msto63/mbasic/foundation/basic/source"
)

// Kind represents the type of a lexical token
type Kind int

const (
	// Literals
	INT        Kind = iota // 123
	FLOAT                  // 1.5
	STRING                 // "text"
	IDENTIFIER             // name
	KEYWORD                // if, while, ...

	// Operators
	PLUS      // +
	MINUS     // -
	MUL       // *
	DIV       // /
	LPAREN    // (
	RPAREN    // )
	LSQUARE   // [
	RSQUARE   // ]
	COMMA     // ,
	COLON     // :
	EQ        // =
	EQEQ      // ==
	LT        // <
	LTE       // <=
	GT        // >
	GTE       // >=
	INCREMENT // ++
	DECREMENT // --

	// Special
	EOF
)

var kindNames = [...]string{
	INT:        "INT",
	FLOAT:      "FLOAT",
	STRING:     "STRING",
	IDENTIFIER: "IDENTIFIER",
	KEYWORD:    "KEYWORD",
	PLUS:       "PLUS",
	MINUS:      "MINUS",
	MUL:        "MUL",
	DIV:        "DIV",
	LPAREN:     "LPAREN",
	RPAREN:     "RPAREN",
	LSQUARE:    "LSQUARE",
	RSQUARE:    "RSQUARE",
	COMMA:      "COMMA",
	COLON:      "COLON",
	EQ:         "EQ",
	EQEQ:       "EQEQ",
	LT:         "LT",
	LTE:        "LTE",
	GT:         "GT",
	GTE:        "GTE",
	INCREMENT:  "INCREMENT",
	DECREMENT:  "DECREMENT",
	EOF:        "EOF",
}

var kindSymbols = map[Kind]string{
	PLUS:      "+",
	MINUS:     "-",
	MUL:       "*",
	DIV:       "/",
	LPAREN:    "(",
	RPAREN:    ")",
	LSQUARE:   "[",
	RSQUARE:   "]",
	COMMA:     ",",
	COLON:     ":",
	EQ:        "=",
	EQEQ:      "==",
	LT:        "<",
	LTE:       "<=",
	GT:        ">",
	GTE:       ">=",
	INCREMENT: "++",
	DECREMENT: "--",
	EOF:       "",
}

// String returns the kind name, e.g. "EQEQ"
func (k Kind) String() string {
	if k >= 0 && int(k) < len(kindNames) {
		return kindNames[k]
	}
	return "UNKNOWN"
}

// Symbol returns the source text of a punctuation kind. Valued kinds
// have no fixed symbol and return "".
func (k Kind) Symbol() string {
	return kindSymbols[k]
}

// HasValue reports whether tokens of this kind carry a literal payload
func (k Kind) HasValue() bool {
	switch k {
	case INT, FLOAT, STRING, IDENTIFIER, KEYWORD:
		return true
	default:
		return false
	}
}

// Kinds returns all token kinds in declaration order
func Kinds() []Kind {
	kinds := make([]Kind, 0, len(kindNames))
	for k := INT; k <= EOF; k++ {
		kinds = append(kinds, k)
	}
	return kinds
}

// ParseKind resolves a kind name as returned by Kind.String
func ParseKind(name string) (Kind, bool) {
	for k, n := range kindNames {
		if n == name {
			return Kind(k), true
		}
	}
	return 0, false
}

// Value is the literal payload of a token. Which accessor is meaningful
// is selected by the token kind: Int for INT, Float for FLOAT and Text for
// STRING, IDENTIFIER and KEYWORD. The zero Value is the absent payload.
type Value struct {
	i    int64
	f    float64
	text string
}

// Int returns the integer payload of an INT token
func (v Value) Int() int64 { return v.i }

// Float returns the real payload of a FLOAT token
func (v Value) Float() float64 { return v.f }

// Text returns the text payload of STRING, IDENTIFIER and KEYWORD tokens
func (v Value) Text() string { return v.text }

// Token is a lexical token with its source span
type Token struct {
	Kind  Kind
	value Value
	Start source.Position
	End   source.Position
}

// New creates a token without payload. It panics when kind requires a
// payload; use NewInt, NewFloat or NewText for those kinds.
func New(kind Kind, start, end source.Position) Token {
	if kind.HasValue() {
		panic(fmt.Sprintf("token: kind %s requires a value", kind))
	}
	return Token{Kind: kind, Start: start, End: end}
}

// NewInt creates an INT token
func NewInt(v int64, start, end source.Position) Token {
	return Token{Kind: INT, value: Value{i: v}, Start: start, End: end}
}

// NewFloat creates a FLOAT token
func NewFloat(v float64, start, end source.Position) Token {
	return Token{Kind: FLOAT, value: Value{f: v}, Start: start, End: end}
}

// NewText creates a STRING, IDENTIFIER or KEYWORD token. It panics for
// any other kind.
func NewText(kind Kind, text string, start, end source.Position) Token {
	switch kind {
	case STRING, IDENTIFIER, KEYWORD:
	default:
		panic(fmt.Sprintf("token: kind %s does not carry text", kind))
	}
	return Token{Kind: kind, value: Value{text: text}, Start: start, End: end}
}

// Value returns the literal payload and whether the token has one
func (t Token) Value() (Value, bool) {
	return t.value, t.Kind.HasValue()
}

// Span returns the token's source span
func (t Token) Span() source.Span {
	return source.NewSpan(t.Start, t.End)
}

// Display renders the token the way front-ends show it: the literal
// value for valued kinds, the symbol otherwise ("" for EOF).
func (t Token) Display() string {
	switch t.Kind {
	case INT:
		return strconv.FormatInt(t.value.i, 10)
	case FLOAT:
		return FormatFloat(t.value.f)
	case STRING, IDENTIFIER, KEYWORD:
		return t.value.text
	default:
		return t.Kind.Symbol()
	}
}

// String returns the display text for valued tokens and the kind name
// otherwise, e.g. "42", "ifx" or "PLUS"
func (t Token) String() string {
	if t.Kind.HasValue() {
		return t.Display()
	}
	return t.Kind.String()
}

// FormatFloat renders a real number in its shortest round-trip form and
// always keeps a fractional part or an exponent, so 1.0 renders as "1.0"
// and 1e16 as "1e+16".
func FormatFloat(f float64) string {
	switch {
	case math.IsInf(f, 1):
		return "inf"
	case math.IsInf(f, -1):
		return "-inf"
	case math.IsNaN(f):
		return "nan"
	}

	abs := math.Abs(f)
	if abs >= 1e16 || (abs != 0 && abs < 1e-4) {
		return strconv.FormatFloat(f, 'e', -1, 64)
	}

	s := strconv.FormatFloat(f, 'f', -1, 64)
	if !strings.ContainsRune(s, '.') {
		s += ".0"
	}
	return s
}
