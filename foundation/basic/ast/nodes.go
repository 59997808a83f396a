// File: nodes.go
// Title: mBASIC AST Node Definitions
// Description: Defines the node variants produced by the parser: number
//              literals, variable references and list literals. Every node
//              carries its own span independent of the tokens it wraps.
// Author: msto63
// Version: v0.1.0
// Created: 2026-10-19
// Modified: 2026-10-19
//
// Change History:
// - 2026-10-19 v0.1.0: Initial AST node definitions

package ast

import (
	"strings"

	"github.com/msto63/mbasic/foundation/basic/source"
	"github.com/msto63/mbasic/foundation/basic/token"
)

// Node represents the base interface for all AST nodes
type Node interface {
	// String returns the source-like representation, e.g. "[1, x]"
	String() string

	// Accept implements the visitor pattern
	Accept(visitor Visitor) interface{}

	// Span returns the source span of the node
	Span() source.Span

	node() // marker method
}

// NumberNode is an INT or FLOAT literal
type NumberNode struct {
	Token token.Token
	Start source.Position
	End   source.Position
}

// VarAccessNode is a reference to a variable by name
type VarAccessNode struct {
	Name  token.Token // IDENTIFIER token
	Start source.Position
	End   source.Position
}

// ListNode is a bracketed list literal
type ListNode struct {
	Elements []Node
	Start    source.Position
	End      source.Position
}

// NewNumber creates a number node spanning tok
func NewNumber(tok token.Token) *NumberNode {
	return &NumberNode{Token: tok, Start: tok.Start, End: tok.End}
}

// NewVarAccess creates a variable reference spanning tok
func NewVarAccess(tok token.Token) *VarAccessNode {
	return &VarAccessNode{Name: tok, Start: tok.Start, End: tok.End}
}

// NewList creates a list node
func NewList(elements []Node, start, end source.Position) *ListNode {
	return &ListNode{Elements: elements, Start: start, End: end}
}

func (n *NumberNode) String() string {
	return n.Token.Display()
}

func (n *NumberNode) Accept(visitor Visitor) interface{} {
	return visitor.VisitNumber(n)
}

func (n *NumberNode) Span() source.Span {
	return source.NewSpan(n.Start, n.End)
}

// IsFloat reports whether the literal is a FLOAT
func (n *NumberNode) IsFloat() bool {
	return n.Token.Kind == token.FLOAT
}

// Float returns the literal as a real number
func (n *NumberNode) Float() float64 {
	v, _ := n.Token.Value()
	if n.IsFloat() {
		return v.Float()
	}
	return float64(v.Int())
}

func (n *NumberNode) node() {}

func (n *VarAccessNode) String() string {
	return n.Name.Display()
}

func (n *VarAccessNode) Accept(visitor Visitor) interface{} {
	return visitor.VisitVarAccess(n)
}

func (n *VarAccessNode) Span() source.Span {
	return source.NewSpan(n.Start, n.End)
}

// Identifier returns the referenced name
func (n *VarAccessNode) Identifier() string {
	v, _ := n.Name.Value()
	return v.Text()
}

func (n *VarAccessNode) node() {}

func (n *ListNode) String() string {
	parts := make([]string, len(n.Elements))
	for i, el := range n.Elements {
		parts[i] = el.String()
	}
	return "[" + strings.Join(parts, ", ") + "]"
}

func (n *ListNode) Accept(visitor Visitor) interface{} {
	return visitor.VisitList(n)
}

func (n *ListNode) Span() source.Span {
	return source.NewSpan(n.Start, n.End)
}

func (n *ListNode) node() {}
