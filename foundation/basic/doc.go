// Package basic is the front-end of the mBASIC scripting prototype.
//
// Package: basic
// Title: mBASIC Lexer and Parser Front-End
// Description: Turns source text into tokens and an AST for a narrow
//              expression grammar (numbers, identifiers, parenthesized
//              expressions and bracketed lists) and reports the first
//              problem as a diagnostic with a caret-underlined excerpt.
// Author: msto63
// Version: v0.1.0
// Created: 2026-10-19
// Modified: 2026-10-19
//
// Change History:
// - 2026-10-19 v0.1.0: Initial front-end
//
// Packages:
//
//	source  positions, spans and excerpt rendering
//	token   token kinds and literal payloads
//	diag    diagnostics
//	lexer   tokenizer
//	ast     AST nodes and visitors
//	parser  recursive descent parser and result carrier
//
// Keywords such as if, while and def are tokenized but have no grammar
// production; newlines are whitespace.
//
// Usage:
//
//	node, derr, count := basic.Run("<stdin>", "[1, 2, 3]")
//	if derr != nil {
//		fmt.Println(derr.Render())
//		return
//	}
//	fmt.Println(node, count) // [1, 2, 3] 7
package basic
