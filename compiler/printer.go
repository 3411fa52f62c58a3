package compiler

import (
	"fmt"
	"strconv"
	"strings"
)

// Sprint renders a node in a parenthesized prefix form, for example
// (+ 1 (* 2 3)). It is meant for debugging and tests, not for reformatting
// source.
func Sprint(n Node) string {
	var b strings.Builder
	printNode(&b, n)
	return b.String()
}

func printNode(b *strings.Builder, n Node) {
	switch n := n.(type) {
	case Expr:
		printExpr(b, n)
	case Stmt:
		printStmt(b, n)
	}
}

func parenthesize(b *strings.Builder, name string, parts ...Node) {
	b.WriteByte('(')
	b.WriteString(name)
	for _, part := range parts {
		b.WriteByte(' ')
		printNode(b, part)
	}
	b.WriteByte(')')
}

func printExpr(b *strings.Builder, expr Expr) {
	switch e := expr.(type) {
	case *Literal:
		b.WriteString(formatLiteral(e.Value))
	case *Grouping:
		parenthesize(b, "group", e.Expression)
	case *Unary:
		parenthesize(b, e.Operator.Lexeme, e.Right)
	case *Binary:
		parenthesize(b, e.Operator.Lexeme, e.Left, e.Right)
	case *Logical:
		parenthesize(b, e.Operator.Lexeme, e.Left, e.Right)
	case *Variable:
		b.WriteString(e.Name.Lexeme)
	case *Assign:
		parenthesize(b, "= "+e.Name.Lexeme, e.Value)
	case *Call:
		parts := make([]Node, 0, len(e.Arguments)+1)
		parts = append(parts, e.Callee)
		for _, arg := range e.Arguments {
			parts = append(parts, arg)
		}
		parenthesize(b, "call", parts...)
	case *Get:
		parenthesize(b, "."+e.Name.Lexeme, e.Object)
	case *Set:
		parenthesize(b, "set ."+e.Name.Lexeme, e.Object, e.Value)
	case *This:
		b.WriteString("this")
	case *Super:
		b.WriteString("(super " + e.Method.Lexeme + ")")
	}
}

func printStmt(b *strings.Builder, stmt Stmt) {
	switch s := stmt.(type) {
	case *ExprStmt:
		parenthesize(b, ";", s.Expr)
	case *Print:
		parenthesize(b, "print", s.Expr)
	case *Var:
		if s.Initializer == nil {
			b.WriteString("(var " + s.Name.Lexeme + ")")
			return
		}
		parenthesize(b, "var "+s.Name.Lexeme, s.Initializer)
	case *Block:
		parenthesize(b, "block", stmtNodes(s.Statements)...)
	case *If:
		if s.ElseBranch == nil {
			parenthesize(b, "if", s.Condition, s.ThenBranch)
			return
		}
		parenthesize(b, "if-else", s.Condition, s.ThenBranch, s.ElseBranch)
	case *While:
		parenthesize(b, "while", s.Condition, s.Body)
	case *Function:
		b.WriteString(signature("fun", s))
		for _, body := range s.Body {
			b.WriteByte(' ')
			printStmt(b, body)
		}
		b.WriteByte(')')
	case *Return:
		if s.Value == nil {
			b.WriteString("(return)")
			return
		}
		parenthesize(b, "return", s.Value)
	case *Class:
		b.WriteString("(class " + s.Name.Lexeme)
		if s.Superclass != nil {
			b.WriteString(" < " + s.Superclass.Name.Lexeme)
		}
		for _, m := range s.Methods {
			b.WriteByte(' ')
			printStmt(b, m)
		}
		b.WriteByte(')')
	}
}

func signature(keyword string, fn *Function) string {
	params := make([]string, len(fn.Params))
	for i, p := range fn.Params {
		params[i] = p.Lexeme
	}
	return fmt.Sprintf("(%s %s(%s)", keyword, fn.Name.Lexeme, strings.Join(params, " "))
}

func stmtNodes(stmts []Stmt) []Node {
	nodes := make([]Node, len(stmts))
	for i, s := range stmts {
		nodes[i] = s
	}
	return nodes
}

func formatLiteral(v any) string {
	switch v := v.(type) {
	case nil:
		return "nil"
	case bool:
		return strconv.FormatBool(v)
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64)
	case string:
		return strconv.Quote(v)
	}
	return fmt.Sprintf("%v", v)
}
