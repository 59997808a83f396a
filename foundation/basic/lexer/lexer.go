// File: lexer.go
// Title: mBASIC Lexical Analyzer
// Description: Implements the tokenizer state machine. The lexer walks the
//              source text once from left to right, keeps a single mutable
//              cursor plus the cached current character and emits tokens
//              stamped with independent position snapshots. The first
//              character that starts no token aborts the scan.
// Author: msto63
// Version: v0.1.0
// Created: 2026-10-19
// Modified: 2026-10-19
//
// Change History:
// - 2026-10-19 v0.1.0: Initial lexer implementation

package lexer

import (
	"fmt"
	"strconv"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/msto63/mbasic/foundation/basic/diag"
	"github.com/msto63/mbasic/foundation/basic/source"
	"github.com/msto63/mbasic/foundation/basic/token"
)

// eof is the cached character once the cursor has left the text
const eof rune = -1

// Keywords lists the reserved words. They are recognized by the lexer but
// have no grammar production.
var Keywords = []string{
	"if", "else", "elif", "while", "for", "def", "class", "return",
	"break", "continue", "pass", "import", "from", "as", "try", "except",
	"finally", "with", "lambda", "yield", "True", "False", "None",
	"and", "or", "not", "in", "is",
}

var keywordSet = func() map[string]struct{} {
	m := make(map[string]struct{}, len(Keywords))
	for _, kw := range Keywords {
		m[kw] = struct{}{}
	}
	return m
}()

// IsKeyword reports whether word is a reserved word
func IsKeyword(word string) bool {
	_, ok := keywordSet[word]
	return ok
}

// single character punctuation
var punctuation = map[rune]token.Kind{
	'*': token.MUL,
	'/': token.DIV,
	'(': token.LPAREN,
	')': token.RPAREN,
	'[': token.LSQUARE,
	']': token.RSQUARE,
	':': token.COLON,
	',': token.COMMA,
}

// Lexer scans one source text. A Lexer is used for a single Scan call.
type Lexer struct {
	text  string
	pos   source.Position // scan cursor, owned by the lexer
	ch    rune            // character under the cursor or eof
	width int             // byte width of ch
}

// New creates a lexer positioned on the first character of text
func New(file, text string) *Lexer {
	l := &Lexer{
		text: text,
		pos:  source.Start(file, text),
	}
	l.decode()
	return l
}

// Tokenize scans text and returns its tokens or the diagnostic that
// aborted the scan.
func Tokenize(file, text string) ([]token.Token, *diag.Error) {
	return New(file, text).Scan()
}

// Scan tokenizes the whole input.
//
// On success the returned slice ends with exactly one EOF token and the
// diagnostic is nil. On failure the slice is nil and the diagnostic
// describes the first offending input.
func (l *Lexer) Scan() ([]token.Token, *diag.Error) {
	var tokens []token.Token

	for l.ch != eof {
		switch {
		case l.ch == ' ' || l.ch == '\t' || l.ch == '\n':
			l.readChar()
		case l.ch == '#':
			l.skipComment()
		case l.ch == '"':
			tokens = append(tokens, l.scanString())
		case l.ch == '=':
			tokens = append(tokens, l.scanPair('=', token.EQ, token.EQEQ))
		case l.ch == '<':
			tokens = append(tokens, l.scanPair('=', token.LT, token.LTE))
		case l.ch == '>':
			tokens = append(tokens, l.scanPair('=', token.GT, token.GTE))
		case l.ch == '+':
			tokens = append(tokens, l.scanPair('+', token.PLUS, token.INCREMENT))
		case l.ch == '-':
			tokens = append(tokens, l.scanPair('-', token.MINUS, token.DECREMENT))
		case isDigit(l.ch):
			tok, err := l.scanNumber()
			if err != nil {
				return nil, err
			}
			tokens = append(tokens, tok)
		case isIdentStart(l.ch):
			tokens = append(tokens, l.scanIdentifier())
		default:
			if kind, ok := punctuation[l.ch]; ok {
				start := l.pos.Copy()
				l.readChar()
				tokens = append(tokens, token.New(kind, start, l.pos.Copy()))
				continue
			}

			start := l.pos.Copy()
			ch := l.ch
			l.readChar()
			return nil, diag.IllegalChar(ch, start, l.pos.Copy())
		}
	}

	start := l.pos.Copy()
	end := l.pos.Copy()
	end.Advance(eof)
	tokens = append(tokens, token.New(token.EOF, start, end))

	return tokens, nil
}

// readChar moves the cursor past the current character
func (l *Lexer) readChar() {
	if l.ch == eof {
		return
	}
	next := l.pos.Index + l.width
	l.pos.Advance(l.ch)
	// U+FFFD and invalid bytes both decode to RuneError
	l.pos.Index = next
	l.decode()
}

// decode caches the character under the cursor
func (l *Lexer) decode() {
	if l.pos.Index >= len(l.text) {
		l.ch, l.width = eof, 0
		return
	}
	l.ch, l.width = utf8.DecodeRuneInString(l.text[l.pos.Index:])
}

// skipComment consumes a '#' comment up to, not including, the line end
func (l *Lexer) skipComment() {
	for l.ch != eof && l.ch != '\n' && l.ch != '\r' {
		l.readChar()
	}
}

// scanPair emits double when the character after the current one is
// second, single otherwise.
func (l *Lexer) scanPair(second rune, single, double token.Kind) token.Token {
	start := l.pos.Copy()
	l.readChar()

	if l.ch == second {
		l.readChar()
		return token.New(double, start, l.pos.Copy())
	}
	return token.New(single, start, l.pos.Copy())
}

// scanString reads a double-quoted literal. A missing closing quote is
// accepted and yields everything up to the end of input.
func (l *Lexer) scanString() token.Token {
	start := l.pos.Copy()
	l.readChar() // opening quote

	var b strings.Builder
	for l.ch != eof && l.ch != '"' {
		b.WriteRune(l.ch)
		l.readChar()
	}

	if l.ch == '"' {
		l.readChar()
	}

	return token.NewText(token.STRING, b.String(), start, l.pos.Copy())
}

// scanNumber reads digits with at most one '.'. A second '.' ends the
// literal and is left for the next scan step.
func (l *Lexer) scanNumber() (token.Token, *diag.Error) {
	start := l.pos.Copy()
	dots := 0

	for isDigit(l.ch) || l.ch == '.' {
		if l.ch == '.' {
			if dots == 1 {
				break
			}
			dots++
		}
		l.readChar()
	}

	literal := l.text[start.Index:l.pos.Index]
	end := l.pos.Copy()

	if dots == 0 {
		v, err := strconv.ParseInt(literal, 10, 64)
		if err != nil {
			return token.Token{}, diag.New(diag.InvalidNumber, start, end,
				fmt.Sprintf("'%s' is out of range", literal))
		}
		return token.NewInt(v, start, end), nil
	}

	// Out of range reals become +Inf.
	v, _ := strconv.ParseFloat(literal, 64)
	return token.NewFloat(v, start, end), nil
}

// scanIdentifier reads an identifier and classifies it as keyword or name
func (l *Lexer) scanIdentifier() token.Token {
	start := l.pos.Copy()

	for isIdentPart(l.ch) {
		l.readChar()
	}

	word := l.text[start.Index:l.pos.Index]
	if IsKeyword(word) {
		return token.NewText(token.KEYWORD, word, start, l.pos.Copy())
	}
	return token.NewText(token.IDENTIFIER, word, start, l.pos.Copy())
}

func isDigit(ch rune) bool {
	return '0' <= ch && ch <= '9'
}

func isIdentStart(ch rune) bool {
	return ch == '_' || (ch != utf8.RuneError && unicode.IsLetter(ch))
}

func isIdentPart(ch rune) bool {
	return isIdentStart(ch) || unicode.IsDigit(ch)
}
