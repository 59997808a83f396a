// File: visitor.go
// Title: mBASIC AST Visitor Pattern Implementation
// Description: Implements the visitor pattern for AST traversal together
//              with the visitors used by the front-ends: an indented tree
//              dumper, a node counter and a depth calculator.
// Author: msto63
// Version: v0.1.0
// Created: 2026-10-19
// Modified: 2026-10-19
//
// Change History:
// - 2026-10-19 v0.1.0: Initial visitor implementation

package ast

import (
	"fmt"
	"strings"
)

// Visitor interface for traversing AST nodes using the visitor pattern
type Visitor interface {
	VisitNumber(n *NumberNode) interface{}
	VisitVarAccess(n *VarAccessNode) interface{}
	VisitList(n *ListNode) interface{}
}

// BaseVisitor provides default implementations for all visitor methods.
// Embed this in concrete visitors to only override needed methods.
type BaseVisitor struct{}

func (bv *BaseVisitor) VisitNumber(n *NumberNode) interface{} {
	return nil // Terminal node
}

func (bv *BaseVisitor) VisitVarAccess(n *VarAccessNode) interface{} {
	return nil // Terminal node
}

func (bv *BaseVisitor) VisitList(n *ListNode) interface{} {
	for _, el := range n.Elements {
		el.Accept(bv)
	}
	return nil
}

// Inspect traverses the tree depth-first and calls fn for every node.
// Children are skipped when fn returns false.
func Inspect(root Node, fn func(Node) bool) {
	if root == nil || !fn(root) {
		return
	}
	if list, ok := root.(*ListNode); ok {
		for _, el := range list.Elements {
			Inspect(el, fn)
		}
	}
}

// Count returns the number of nodes in the tree
func Count(root Node) int {
	n := 0
	Inspect(root, func(Node) bool {
		n++
		return true
	})
	return n
}

// Depth returns the list nesting depth: 0 for a single atom, 1 for a flat list
func Depth(root Node) int {
	if root == nil {
		return 0
	}
	if v, ok := root.Accept(&depthVisitor{}).(int); ok {
		return v
	}
	return 0
}

type depthVisitor struct {
	BaseVisitor
}

func (dv *depthVisitor) VisitList(n *ListNode) interface{} {
	deepest := 0
	for _, el := range n.Elements {
		if d, ok := el.Accept(dv).(int); ok && d > deepest {
			deepest = d
		}
	}
	return deepest + 1
}

func (dv *depthVisitor) VisitNumber(n *NumberNode) interface{}       { return 0 }
func (dv *depthVisitor) VisitVarAccess(n *VarAccessNode) interface{} { return 0 }

// TreeVisitor renders an indented, one node per line view of the AST
type TreeVisitor struct {
	BaseVisitor
	buffer strings.Builder
	indent int
}

// NewTreeVisitor creates a new tree visitor
func NewTreeVisitor() *TreeVisitor {
	return &TreeVisitor{}
}

// String returns the built tree
func (tv *TreeVisitor) String() string {
	return tv.buffer.String()
}

// Reset clears the internal buffer
func (tv *TreeVisitor) Reset() {
	tv.buffer.Reset()
	tv.indent = 0
}

func (tv *TreeVisitor) writeLine(format string, args ...interface{}) {
	tv.buffer.WriteString(strings.Repeat("  ", tv.indent))
	tv.buffer.WriteString(fmt.Sprintf(format, args...))
	tv.buffer.WriteByte('\n')
}

func (tv *TreeVisitor) VisitNumber(n *NumberNode) interface{} {
	tv.writeLine("Number %s (%s) @%d:%d", n, n.Token.Kind, n.Start.Line+1, n.Start.Column+1)
	return nil
}

func (tv *TreeVisitor) VisitVarAccess(n *VarAccessNode) interface{} {
	tv.writeLine("VarAccess %s @%d:%d", n.Identifier(), n.Start.Line+1, n.Start.Column+1)
	return nil
}

func (tv *TreeVisitor) VisitList(n *ListNode) interface{} {
	tv.writeLine("List (%d elements) @%d:%d", len(n.Elements), n.Start.Line+1, n.Start.Column+1)
	tv.indent++
	for _, el := range n.Elements {
		el.Accept(tv)
	}
	tv.indent--
	return nil
}

// Dump returns the indented tree of root
func Dump(root Node) string {
	if root == nil {
		return ""
	}
	tv := NewTreeVisitor()
	root.Accept(tv)
	return tv.String()
}
