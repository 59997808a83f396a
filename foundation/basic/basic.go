// File: basic.go
// Title: mBASIC Front-End Entry Points and Engine
// Description: Composes lexer and parser into the entry points used by
//              every front-end: Run and Tokenize for direct callers and an
//              Engine that adds input limits, nesting limits, logging and
//              timing for services.
// Author: msto63
// Version: v0.1.0
// Created: 2026-10-19
// Modified: 2026-10-19
//
// Change History:
// - 2026-10-19 v0.1.0: Initial front-end engine

package basic

import (
	"context"
	"time"

	"github.com/msto63/mbasic/foundation/basic/ast"
	"github.com/msto63/mbasic/foundation/basic/diag"
	"github.com/msto63/mbasic/foundation/basic/lexer"
	"github.com/msto63/mbasic/foundation/basic/parser"
	"github.com/msto63/mbasic/foundation/basic/token"
	mdwerror "github.com/msto63/mbasic/foundation/core/error"
	mdwlog "github.com/msto63/mbasic/foundation/core/log"
)

// Run lexes and parses text. It returns the AST root or the first
// diagnostic, and the number of tokens excluding EOF. The count is 0 when
// lexing failed.
func Run(filename, text string) (ast.Node, *diag.Error, int) {
	tokens, derr := lexer.Tokenize(filename, text)
	if derr != nil {
		return nil, derr, 0
	}

	node, derr := parser.Parse(tokens).Unpack()
	return node, derr, len(tokens) - 1
}

// Tokenize scans text into tokens ending with EOF, or returns the
// diagnostic that aborted the scan.
func Tokenize(filename, text string) ([]token.Token, *diag.Error) {
	return lexer.Tokenize(filename, text)
}

// Phase names the front-end stage an analysis stopped in
type Phase string

const (
	PhaseLex   Phase = "lex"
	PhaseParse Phase = "parse"
	PhaseDone  Phase = "done"
)

// Analysis is the complete outcome of one Engine.Analyze call
type Analysis struct {
	File   string
	Source string

	// Tokens is nil when lexing failed
	Tokens []token.Token
	// Root is nil when Diagnostic is set
	Root       ast.Node
	Diagnostic *diag.Error
	Phase      Phase

	// TokenCount excludes the EOF token
	TokenCount int
	Duration   time.Duration
}

// OK reports whether lexing and parsing both succeeded
func (a *Analysis) OK() bool {
	return a.Diagnostic == nil
}

// LexFailed reports whether the analysis stopped during lexing
func (a *Analysis) LexFailed() bool {
	return a.Diagnostic != nil && a.Phase == PhaseLex
}

// Result returns the printed AST, or "" when parsing did not succeed
func (a *Analysis) Result() string {
	if a.Root == nil {
		return ""
	}
	return a.Root.String()
}

// Options configures the engine
type Options struct {
	// Logger for engine operations (optional, defaults to default logger)
	Logger *mdwlog.Logger

	// MaxInputLength limits source size in bytes. 0 means unlimited.
	MaxInputLength int

	// MaxDepth limits list and parenthesis nesting. 0 means unlimited.
	MaxDepth int
}

// Engine runs the front-end for services. It holds no per-call state and
// is safe for concurrent use.
type Engine struct {
	logger  *mdwlog.Logger
	options Options
}

// NewEngine creates an engine
func NewEngine(opts Options) *Engine {
	if opts.Logger == nil {
		opts.Logger = mdwlog.GetDefault()
	}
	return &Engine{
		logger:  opts.Logger.WithField("component", "engine"),
		options: opts,
	}
}

// Options returns the engine configuration
func (e *Engine) Options() Options {
	return e.options
}

// Analyze lexes text and, when lexing succeeded, parses the tokens.
//
// Source diagnostics are part of the returned Analysis. The error return
// is reserved for rejected calls: a canceled context (CANCELED) or input
// above MaxInputLength (INVALID_LENGTH).
func (e *Engine) Analyze(ctx context.Context, filename, text string) (*Analysis, error) {
	if err := ctx.Err(); err != nil {
		return nil, mdwerror.Wrap(err, "analysis canceled").
			WithCode(mdwerror.CodeCanceled).
			WithOperation("basic.Analyze")
	}

	if max := e.options.MaxInputLength; max > 0 && len(text) > max {
		e.logger.Warn("Source rejected", mdwlog.Fields{
			"file":   filename,
			"length": len(text),
			"limit":  max,
		})
		return nil, mdwerror.Newf("source exceeds maximum length: %d > %d", len(text), max).
			WithCode(mdwerror.CodeInvalidLength).
			WithOperation("basic.Analyze").
			WithDetail("length", len(text)).
			WithDetail("limit", max)
	}

	start := time.Now()
	a := &Analysis{File: filename, Source: text, Phase: PhaseLex}

	tokens, derr := lexer.Tokenize(filename, text)
	if derr != nil {
		a.Diagnostic = derr
		a.Duration = time.Since(start)
		e.logResult(a)
		return a, nil
	}

	a.Tokens = tokens
	a.TokenCount = len(tokens) - 1
	a.Phase = PhaseParse

	res := parser.New(tokens, parser.Options{MaxDepth: e.options.MaxDepth}).Parse()
	a.Root, a.Diagnostic = res.Unpack()
	if a.Diagnostic == nil {
		a.Phase = PhaseDone
	}
	a.Duration = time.Since(start)

	if a.Diagnostic != nil && a.Diagnostic.Details == parser.MsgTooDeep {
		e.logger.Warn("Nesting limit exceeded", mdwlog.Fields{
			"file":  filename,
			"limit": e.options.MaxDepth,
		})
	}
	e.logResult(a)

	return a, nil
}

func (e *Engine) logResult(a *Analysis) {
	if !e.logger.IsLevelEnabled(mdwlog.LevelDebug) {
		return
	}

	fields := mdwlog.Fields{
		"file":        a.File,
		"phase":       string(a.Phase),
		"tokens":      a.TokenCount,
		"duration_ms": float64(a.Duration.Nanoseconds()) / 1e6,
	}
	if a.Diagnostic != nil {
		fields["diagnostic"] = a.Diagnostic.Error()
		fields["diagnostic_kind"] = a.Diagnostic.Kind.Code()
		fields["line"] = a.Diagnostic.Start.Line + 1
		fields["column"] = a.Diagnostic.Start.Column + 1
	}
	e.logger.Debug("Analysis finished", fields)
}
