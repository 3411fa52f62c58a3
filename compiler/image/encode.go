package image

import (
	"fmt"

	"github.com/chazu/treelox/compiler"
)

type encoder struct {
	nodes  []record
	locals compiler.Locals
}

func tokenOf(tok compiler.Token) tokenRecord {
	return tokenRecord{Type: int(tok.Type), Lexeme: tok.Lexeme, Line: tok.Line}
}

func tokensOf(toks ...compiler.Token) []tokenRecord {
	out := make([]tokenRecord, len(toks))
	for i, tok := range toks {
		out[i] = tokenOf(tok)
	}
	return out
}

// emit appends rec and returns its index. Expressions carry their hop count
// when the resolver placed them in a local frame.
func (e *encoder) emit(n compiler.Node, rec record) int {
	if expr, ok := n.(compiler.Expr); ok {
		if hops, ok := e.locals[expr]; ok {
			rec.Local = true
			rec.Hops = hops
		}
	}
	e.nodes = append(e.nodes, rec)
	return len(e.nodes) - 1
}

// optional encodes n, or yields noNode when it is nil.
func (e *encoder) optional(n compiler.Node) (int, error) {
	if n == nil {
		return noNode, nil
	}
	return e.node(n)
}

func (e *encoder) all(nodes ...compiler.Node) ([]int, error) {
	idx := make([]int, 0, len(nodes))
	for _, n := range nodes {
		i, err := e.node(n)
		if err != nil {
			return nil, err
		}
		idx = append(idx, i)
	}
	return idx, nil
}

func stmtNodes(stmts []compiler.Stmt) []compiler.Node {
	nodes := make([]compiler.Node, len(stmts))
	for i, s := range stmts {
		nodes[i] = s
	}
	return nodes
}

func exprNodes(exprs []compiler.Expr) []compiler.Node {
	nodes := make([]compiler.Node, len(exprs))
	for i, x := range exprs {
		nodes[i] = x
	}
	return nodes
}

// node encodes n after its children, so records only point backwards.
func (e *encoder) node(n compiler.Node) (int, error) {
	switch n := n.(type) {
	case *compiler.Literal:
		rec := record{Kind: kindLiteral, Line: n.Ln}
		switch v := n.Value.(type) {
		case nil:
			rec.Lit = litNil
		case bool:
			rec.Lit, rec.Bool = litBool, v
		case float64:
			rec.Lit, rec.Num = litNumber, v
		case string:
			rec.Lit, rec.Str = litString, v
		default:
			return 0, fmt.Errorf("image: unsupported literal %T", v)
		}
		return e.emit(n, rec), nil

	case *compiler.Grouping:
		kids, err := e.all(n.Expression)
		if err != nil {
			return 0, err
		}
		return e.emit(n, record{Kind: kindGrouping, Kids: kids}), nil

	case *compiler.Unary:
		kids, err := e.all(n.Right)
		if err != nil {
			return 0, err
		}
		return e.emit(n, record{Kind: kindUnary, Tokens: tokensOf(n.Operator), Kids: kids}), nil

	case *compiler.Binary:
		kids, err := e.all(n.Left, n.Right)
		if err != nil {
			return 0, err
		}
		return e.emit(n, record{Kind: kindBinary, Tokens: tokensOf(n.Operator), Kids: kids}), nil

	case *compiler.Logical:
		kids, err := e.all(n.Left, n.Right)
		if err != nil {
			return 0, err
		}
		return e.emit(n, record{Kind: kindLogical, Tokens: tokensOf(n.Operator), Kids: kids}), nil

	case *compiler.Variable:
		return e.emit(n, record{Kind: kindVariable, Tokens: tokensOf(n.Name)}), nil

	case *compiler.Assign:
		kids, err := e.all(n.Value)
		if err != nil {
			return 0, err
		}
		return e.emit(n, record{Kind: kindAssign, Tokens: tokensOf(n.Name), Kids: kids}), nil

	case *compiler.Call:
		kids, err := e.all(append([]compiler.Node{n.Callee}, exprNodes(n.Arguments)...)...)
		if err != nil {
			return 0, err
		}
		return e.emit(n, record{Kind: kindCall, Tokens: tokensOf(n.Paren), Kids: kids}), nil

	case *compiler.Get:
		kids, err := e.all(n.Object)
		if err != nil {
			return 0, err
		}
		return e.emit(n, record{Kind: kindGet, Tokens: tokensOf(n.Name), Kids: kids}), nil

	case *compiler.Set:
		kids, err := e.all(n.Object, n.Value)
		if err != nil {
			return 0, err
		}
		return e.emit(n, record{Kind: kindSet, Tokens: tokensOf(n.Name), Kids: kids}), nil

	case *compiler.This:
		return e.emit(n, record{Kind: kindThis, Tokens: tokensOf(n.Keyword)}), nil

	case *compiler.Super:
		return e.emit(n, record{Kind: kindSuper, Tokens: tokensOf(n.Keyword, n.Method)}), nil

	case *compiler.ExprStmt:
		kids, err := e.all(n.Expr)
		if err != nil {
			return 0, err
		}
		return e.emit(n, record{Kind: kindExprStmt, Kids: kids}), nil

	case *compiler.Print:
		kids, err := e.all(n.Expr)
		if err != nil {
			return 0, err
		}
		return e.emit(n, record{Kind: kindPrint, Tokens: tokensOf(n.Keyword), Kids: kids}), nil

	case *compiler.Var:
		var init compiler.Node
		if n.Initializer != nil {
			init = n.Initializer
		}
		idx, err := e.optional(init)
		if err != nil {
			return 0, err
		}
		return e.emit(n, record{Kind: kindVar, Tokens: tokensOf(n.Name), Kids: []int{idx}}), nil

	case *compiler.Block:
		kids, err := e.all(stmtNodes(n.Statements)...)
		if err != nil {
			return 0, err
		}
		return e.emit(n, record{Kind: kindBlock, Line: n.Ln, Kids: kids}), nil

	case *compiler.If:
		kids, err := e.all(n.Condition, n.ThenBranch)
		if err != nil {
			return 0, err
		}
		var elseBranch compiler.Node
		if n.ElseBranch != nil {
			elseBranch = n.ElseBranch
		}
		idx, err := e.optional(elseBranch)
		if err != nil {
			return 0, err
		}
		return e.emit(n, record{Kind: kindIf, Tokens: tokensOf(n.Keyword), Kids: append(kids, idx)}), nil

	case *compiler.While:
		kids, err := e.all(n.Condition, n.Body)
		if err != nil {
			return 0, err
		}
		return e.emit(n, record{Kind: kindWhile, Tokens: tokensOf(n.Keyword), Kids: kids}), nil

	case *compiler.Function:
		return e.function(n)

	case *compiler.Return:
		var value compiler.Node
		if n.Value != nil {
			value = n.Value
		}
		idx, err := e.optional(value)
		if err != nil {
			return 0, err
		}
		return e.emit(n, record{Kind: kindReturn, Tokens: tokensOf(n.Keyword), Kids: []int{idx}}), nil

	case *compiler.Class:
		superIdx := noNode
		if n.Superclass != nil {
			idx, err := e.node(n.Superclass)
			if err != nil {
				return 0, err
			}
			superIdx = idx
		}
		kids := []int{superIdx}
		for _, m := range n.Methods {
			idx, err := e.function(m)
			if err != nil {
				return 0, err
			}
			kids = append(kids, idx)
		}
		return e.emit(n, record{Kind: kindClass, Tokens: tokensOf(n.Name), Kids: kids}), nil
	}
	return 0, fmt.Errorf("image: unsupported node %T", n)
}

// function stores the name followed by the parameters as tokens and the
// body statements as children.
func (e *encoder) function(fn *compiler.Function) (int, error) {
	kids, err := e.all(stmtNodes(fn.Body)...)
	if err != nil {
		return 0, err
	}
	toks := append([]compiler.Token{fn.Name}, fn.Params...)
	return e.emit(fn, record{Kind: kindFunction, Tokens: tokensOf(toks...), Kids: kids}), nil
}
