// File: parser.go
// Title: mBASIC Recursive Descent Parser
// Description: Converts a token stream into an AST for the expression
//              grammar below. Parsing uses one token of lookahead, never
//              backtracks and stops at the first grammar violation.
//
//                parse     := expr EOF
//                expr      := atom
//                atom      := INT | FLOAT | IDENTIFIER
//                           | '[' list_body? ']'
//                           | '(' expr ')'
//                list_body := expr (',' expr)*
//
// Author: msto63
// Version: v0.1.0
// Created: 2026-10-19
// Modified: 2026-10-19
//
// Change History:
// - 2026-10-19 v0.1.0: Initial parser implementation

package parser

import (
	"github.com/msto63/mbasic/foundation/basic/ast"
	"github.com/msto63/mbasic/foundation/basic/diag"
	"github.com/msto63/mbasic/foundation/basic/source"
	"github.com/msto63/mbasic/foundation/basic/token"
)

// Diagnostic messages
const (
	MsgExtraInput      = "Extra stuff after expression"
	MsgExpectedAtom    = "Expected number, identifier, '[' or '('"
	MsgExpectedRParen  = "Expected ')'"
	MsgExpectedListEnd = "Expected ',' or ']'"
	MsgTooDeep         = "Maximum nesting depth exceeded"
)

// Options configures parser behavior
type Options struct {
	// MaxDepth limits nesting of lists and parentheses. 0 means unlimited.
	MaxDepth int
}

// Parser implements recursive descent parsing over a borrowed token slice.
// A Parser is used for a single Parse call.
type Parser struct {
	tokens  []token.Token
	idx     int
	current token.Token
	depth   int
	options Options
}

// New creates a parser positioned on the first token. tokens is expected
// to be the output of a successful scan and is not modified.
func New(tokens []token.Token, opts Options) *Parser {
	p := &Parser{
		tokens:  tokens,
		idx:     -1,
		options: opts,
	}
	if len(tokens) == 0 {
		var pos source.Position
		p.current = token.New(token.EOF, pos, pos)
	}
	p.advance()
	return p
}

// Parse parses tokens with default options
func Parse(tokens []token.Token) Result {
	return New(tokens, Options{}).Parse()
}

// Parse reduces the whole token stream to one expression
func (p *Parser) Parse() Result {
	res := p.expr()
	if res.Failed() {
		return res
	}

	if p.current.Kind != token.EOF {
		return p.fail(MsgExtraInput)
	}
	return res
}

// advance moves to the next token. The last token stays current once
// the end of the slice is reached.
func (p *Parser) advance() {
	p.idx++
	if p.idx < len(p.tokens) {
		p.current = p.tokens[p.idx]
	}
}

// fail builds an InvalidSyntax failure spanning the current token
func (p *Parser) fail(details string) Result {
	return Failure(diag.Syntax(p.current.Start, p.current.End, details))
}

func (p *Parser) expr() Result {
	return p.atom()
}

func (p *Parser) atom() Result {
	tok := p.current

	switch tok.Kind {
	case token.INT, token.FLOAT:
		p.advance()
		return Success(ast.NewNumber(tok))

	case token.IDENTIFIER:
		p.advance()
		return Success(ast.NewVarAccess(tok))

	case token.LSQUARE, token.LPAREN:
		p.depth++
		defer func() { p.depth-- }()

		if p.options.MaxDepth > 0 && p.depth > p.options.MaxDepth {
			return p.fail(MsgTooDeep)
		}
		if tok.Kind == token.LSQUARE {
			return p.list()
		}
		return p.group()
	}

	return p.fail(MsgExpectedAtom)
}

// group parses '(' expr ')' and yields the inner expression
func (p *Parser) group() Result {
	p.advance() // consume '('

	// truncated input: report the missing ')'
	if p.current.Kind == token.EOF {
		return p.fail(MsgExpectedRParen)
	}

	res := p.expr()
	if res.Failed() {
		return res
	}

	if p.current.Kind != token.RPAREN {
		return p.fail(MsgExpectedRParen)
	}
	p.advance()
	return res
}

// list parses '[' list_body? ']'
func (p *Parser) list() Result {
	start := p.current.Start
	p.advance() // consume '['

	elements := []ast.Node{}

	if p.current.Kind == token.RSQUARE {
		end := p.current.End
		p.advance()
		return Success(ast.NewList(elements, start, end))
	}

	res := p.expr()
	if res.Failed() {
		return res
	}
	elements = append(elements, res.Node())

	for p.current.Kind == token.COMMA {
		p.advance()
		res = p.expr()
		if res.Failed() {
			return res
		}
		elements = append(elements, res.Node())
	}

	if p.current.Kind != token.RSQUARE {
		return p.fail(MsgExpectedListEnd)
	}
	end := p.current.End
	p.advance()

	return Success(ast.NewList(elements, start, end))
}
