package image

import (
	"fmt"

	"github.com/chazu/treelox/compiler"
)

type decoder struct {
	built  []compiler.Node
	locals compiler.Locals
}

func (r *record) token(i int) (compiler.Token, error) {
	if i >= len(r.Tokens) {
		return compiler.Token{}, fmt.Errorf("missing token %d", i)
	}
	t := r.Tokens[i]
	return compiler.Token{Type: compiler.TokenType(t.Type), Lexeme: t.Lexeme, Line: t.Line}, nil
}

func (r *record) want(kids int) error {
	if len(r.Kids) != kids {
		return fmt.Errorf("kind %d has %d children, want %d", r.Kind, len(r.Kids), kids)
	}
	return nil
}

// ref returns the already built node at idx; self is the index of the
// record being built, so only earlier records are valid.
func (d *decoder) ref(idx, self int) (compiler.Node, error) {
	if idx < 0 || idx >= self {
		return nil, fmt.Errorf("child index %d out of range", idx)
	}
	return d.built[idx], nil
}

func (d *decoder) expr(idx, self int) (compiler.Expr, error) {
	n, err := d.ref(idx, self)
	if err != nil {
		return nil, err
	}
	x, ok := n.(compiler.Expr)
	if !ok {
		return nil, fmt.Errorf("child %d is %T, want expression", idx, n)
	}
	return x, nil
}

func (d *decoder) stmt(idx, self int) (compiler.Stmt, error) {
	n, err := d.ref(idx, self)
	if err != nil {
		return nil, err
	}
	s, ok := n.(compiler.Stmt)
	if !ok {
		return nil, fmt.Errorf("child %d is %T, want statement", idx, n)
	}
	return s, nil
}

func (d *decoder) optionalExpr(idx, self int) (compiler.Expr, error) {
	if idx == noNode {
		return nil, nil
	}
	return d.expr(idx, self)
}

func (d *decoder) stmts(idx []int, self int) ([]compiler.Stmt, error) {
	out := make([]compiler.Stmt, 0, len(idx))
	for _, i := range idx {
		s, err := d.stmt(i, self)
		if err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	return out, nil
}

func (d *decoder) exprs(idx []int, self int) ([]compiler.Expr, error) {
	out := make([]compiler.Expr, 0, len(idx))
	for _, i := range idx {
		x, err := d.expr(i, self)
		if err != nil {
			return nil, err
		}
		out = append(out, x)
	}
	return out, nil
}

// build creates the node for record i and registers its hop count.
func (d *decoder) build(i int, r *record) (compiler.Node, error) {
	n, err := d.buildNode(i, r)
	if err != nil {
		return nil, err
	}
	if r.Local {
		x, ok := n.(compiler.Expr)
		if !ok {
			return nil, fmt.Errorf("hop count on %T", n)
		}
		d.locals[x] = r.Hops
	}
	return n, nil
}

func (d *decoder) buildNode(i int, r *record) (compiler.Node, error) {
	switch r.Kind {
	case kindLiteral:
		lit := &compiler.Literal{Ln: r.Line}
		switch r.Lit {
		case litNil:
		case litBool:
			lit.Value = r.Bool
		case litNumber:
			lit.Value = r.Num
		case litString:
			lit.Value = r.Str
		default:
			return nil, fmt.Errorf("unknown literal kind %d", r.Lit)
		}
		return lit, nil

	case kindGrouping:
		if err := r.want(1); err != nil {
			return nil, err
		}
		inner, err := d.expr(r.Kids[0], i)
		if err != nil {
			return nil, err
		}
		return &compiler.Grouping{Expression: inner}, nil

	case kindUnary:
		if err := r.want(1); err != nil {
			return nil, err
		}
		op, err := r.token(0)
		if err != nil {
			return nil, err
		}
		right, err := d.expr(r.Kids[0], i)
		if err != nil {
			return nil, err
		}
		return &compiler.Unary{Operator: op, Right: right}, nil

	case kindBinary, kindLogical:
		if err := r.want(2); err != nil {
			return nil, err
		}
		op, err := r.token(0)
		if err != nil {
			return nil, err
		}
		left, err := d.expr(r.Kids[0], i)
		if err != nil {
			return nil, err
		}
		right, err := d.expr(r.Kids[1], i)
		if err != nil {
			return nil, err
		}
		if r.Kind == kindLogical {
			return &compiler.Logical{Left: left, Operator: op, Right: right}, nil
		}
		return &compiler.Binary{Left: left, Operator: op, Right: right}, nil

	case kindVariable:
		name, err := r.token(0)
		if err != nil {
			return nil, err
		}
		return &compiler.Variable{Name: name}, nil

	case kindAssign:
		if err := r.want(1); err != nil {
			return nil, err
		}
		name, err := r.token(0)
		if err != nil {
			return nil, err
		}
		value, err := d.expr(r.Kids[0], i)
		if err != nil {
			return nil, err
		}
		return &compiler.Assign{Name: name, Value: value}, nil

	case kindCall:
		if len(r.Kids) == 0 {
			return nil, fmt.Errorf("call without callee")
		}
		paren, err := r.token(0)
		if err != nil {
			return nil, err
		}
		callee, err := d.expr(r.Kids[0], i)
		if err != nil {
			return nil, err
		}
		args, err := d.exprs(r.Kids[1:], i)
		if err != nil {
			return nil, err
		}
		return &compiler.Call{Callee: callee, Paren: paren, Arguments: args}, nil

	case kindGet:
		if err := r.want(1); err != nil {
			return nil, err
		}
		name, err := r.token(0)
		if err != nil {
			return nil, err
		}
		object, err := d.expr(r.Kids[0], i)
		if err != nil {
			return nil, err
		}
		return &compiler.Get{Object: object, Name: name}, nil

	case kindSet:
		if err := r.want(2); err != nil {
			return nil, err
		}
		name, err := r.token(0)
		if err != nil {
			return nil, err
		}
		object, err := d.expr(r.Kids[0], i)
		if err != nil {
			return nil, err
		}
		value, err := d.expr(r.Kids[1], i)
		if err != nil {
			return nil, err
		}
		return &compiler.Set{Object: object, Name: name, Value: value}, nil

	case kindThis:
		kw, err := r.token(0)
		if err != nil {
			return nil, err
		}
		return &compiler.This{Keyword: kw}, nil

	case kindSuper:
		kw, err := r.token(0)
		if err != nil {
			return nil, err
		}
		method, err := r.token(1)
		if err != nil {
			return nil, err
		}
		return &compiler.Super{Keyword: kw, Method: method}, nil

	case kindExprStmt:
		if err := r.want(1); err != nil {
			return nil, err
		}
		x, err := d.expr(r.Kids[0], i)
		if err != nil {
			return nil, err
		}
		return &compiler.ExprStmt{Expr: x}, nil

	case kindPrint:
		if err := r.want(1); err != nil {
			return nil, err
		}
		kw, err := r.token(0)
		if err != nil {
			return nil, err
		}
		x, err := d.expr(r.Kids[0], i)
		if err != nil {
			return nil, err
		}
		return &compiler.Print{Keyword: kw, Expr: x}, nil

	case kindVar:
		if err := r.want(1); err != nil {
			return nil, err
		}
		name, err := r.token(0)
		if err != nil {
			return nil, err
		}
		init, err := d.optionalExpr(r.Kids[0], i)
		if err != nil {
			return nil, err
		}
		return &compiler.Var{Name: name, Initializer: init}, nil

	case kindBlock:
		body, err := d.stmts(r.Kids, i)
		if err != nil {
			return nil, err
		}
		return &compiler.Block{Statements: body, Ln: r.Line}, nil

	case kindIf:
		if err := r.want(3); err != nil {
			return nil, err
		}
		kw, err := r.token(0)
		if err != nil {
			return nil, err
		}
		cond, err := d.expr(r.Kids[0], i)
		if err != nil {
			return nil, err
		}
		then, err := d.stmt(r.Kids[1], i)
		if err != nil {
			return nil, err
		}
		node := &compiler.If{Keyword: kw, Condition: cond, ThenBranch: then}
		if r.Kids[2] != noNode {
			if node.ElseBranch, err = d.stmt(r.Kids[2], i); err != nil {
				return nil, err
			}
		}
		return node, nil

	case kindWhile:
		if err := r.want(2); err != nil {
			return nil, err
		}
		kw, err := r.token(0)
		if err != nil {
			return nil, err
		}
		cond, err := d.expr(r.Kids[0], i)
		if err != nil {
			return nil, err
		}
		body, err := d.stmt(r.Kids[1], i)
		if err != nil {
			return nil, err
		}
		return &compiler.While{Keyword: kw, Condition: cond, Body: body}, nil

	case kindFunction:
		if len(r.Tokens) == 0 {
			return nil, fmt.Errorf("function without name")
		}
		name, _ := r.token(0)
		params := make([]compiler.Token, 0, len(r.Tokens)-1)
		for p := 1; p < len(r.Tokens); p++ {
			tok, _ := r.token(p)
			params = append(params, tok)
		}
		body, err := d.stmts(r.Kids, i)
		if err != nil {
			return nil, err
		}
		return &compiler.Function{Name: name, Params: params, Body: body}, nil

	case kindReturn:
		if err := r.want(1); err != nil {
			return nil, err
		}
		kw, err := r.token(0)
		if err != nil {
			return nil, err
		}
		value, err := d.optionalExpr(r.Kids[0], i)
		if err != nil {
			return nil, err
		}
		return &compiler.Return{Keyword: kw, Value: value}, nil

	case kindClass:
		if len(r.Kids) == 0 {
			return nil, fmt.Errorf("class without superclass slot")
		}
		name, err := r.token(0)
		if err != nil {
			return nil, err
		}
		class := &compiler.Class{Name: name}
		if r.Kids[0] != noNode {
			sup, err := d.expr(r.Kids[0], i)
			if err != nil {
				return nil, err
			}
			v, ok := sup.(*compiler.Variable)
			if !ok {
				return nil, fmt.Errorf("superclass is %T, want variable", sup)
			}
			class.Superclass = v
		}
		for _, idx := range r.Kids[1:] {
			s, err := d.stmt(idx, i)
			if err != nil {
				return nil, err
			}
			m, ok := s.(*compiler.Function)
			if !ok {
				return nil, fmt.Errorf("method is %T, want function", s)
			}
			class.Methods = append(class.Methods, m)
		}
		return class, nil
	}
	return nil, fmt.Errorf("unknown node kind %d", r.Kind)
}
