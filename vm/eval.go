package vm

import (
	"fmt"

	"github.com/chazu/treelox/compiler"
)

func (in *Interpreter) evaluate(expr compiler.Expr) (Value, error) {
	switch e := expr.(type) {
	case *compiler.Literal:
		return e.Value, nil

	case *compiler.Grouping:
		return in.evaluate(e.Expression)

	case *compiler.Unary:
		return in.evalUnary(e)

	case *compiler.Binary:
		return in.evalBinary(e)

	case *compiler.Logical:
		left, err := in.evaluate(e.Left)
		if err != nil {
			return nil, err
		}
		// The result is the last operand evaluated, not a coerced boolean.
		if e.Operator.Type == compiler.TokenOr {
			if IsTruthy(left) {
				return left, nil
			}
		} else if !IsTruthy(left) {
			return left, nil
		}
		return in.evaluate(e.Right)

	case *compiler.Variable:
		return in.lookUpVariable(e.Name, e)

	case *compiler.Assign:
		value, err := in.evaluate(e.Value)
		if err != nil {
			return nil, err
		}
		if hops, ok := in.locals[e]; ok {
			in.env.AssignAt(hops, e.Name.Lexeme, value)
			return value, nil
		}
		if err := in.globals.Assign(e.Name, value); err != nil {
			return nil, err
		}
		return value, nil

	case *compiler.Call:
		return in.evalCall(e)

	case *compiler.Get:
		object, err := in.evaluate(e.Object)
		if err != nil {
			return nil, err
		}
		instance, ok := object.(*Instance)
		if !ok {
			return nil, runtimeErrorf(e.Name, "Only instances have properties.")
		}
		return instance.Get(e.Name)

	case *compiler.Set:
		object, err := in.evaluate(e.Object)
		if err != nil {
			return nil, err
		}
		instance, ok := object.(*Instance)
		if !ok {
			return nil, runtimeErrorf(e.Name, "Only instances have fields.")
		}
		value, err := in.evaluate(e.Value)
		if err != nil {
			return nil, err
		}
		instance.Set(e.Name, value)
		return value, nil

	case *compiler.This:
		return in.lookUpVariable(e.Keyword, e)

	case *compiler.Super:
		return in.evalSuper(e)
	}
	return nil, fmt.Errorf("vm: unknown expression %T", expr)
}

// lookUpVariable reads a resolved local by hop count, or a global by name.
func (in *Interpreter) lookUpVariable(name compiler.Token, expr compiler.Expr) (Value, error) {
	if hops, ok := in.locals[expr]; ok {
		return in.env.GetAt(hops, name.Lexeme), nil
	}
	return in.globals.Get(name)
}

func (in *Interpreter) evalUnary(e *compiler.Unary) (Value, error) {
	right, err := in.evaluate(e.Right)
	if err != nil {
		return nil, err
	}
	switch e.Operator.Type {
	case compiler.TokenMinus:
		n, ok := right.(float64)
		if !ok {
			return nil, runtimeErrorf(e.Operator, "Operand must be a number.")
		}
		return -n, nil
	case compiler.TokenBang:
		return !IsTruthy(right), nil
	}
	return nil, runtimeErrorf(e.Operator, "Unknown unary operator '%s'.", e.Operator.Lexeme)
}

func (in *Interpreter) evalBinary(e *compiler.Binary) (Value, error) {
	left, err := in.evaluate(e.Left)
	if err != nil {
		return nil, err
	}
	right, err := in.evaluate(e.Right)
	if err != nil {
		return nil, err
	}

	switch e.Operator.Type {
	case compiler.TokenEqualEqual:
		return IsEqual(left, right), nil
	case compiler.TokenBangEqual:
		return !IsEqual(left, right), nil
	case compiler.TokenPlus:
		return add(e.Operator, left, right)
	}

	l, lok := left.(float64)
	r, rok := right.(float64)
	if !lok || !rok {
		return nil, runtimeErrorf(e.Operator, "Operands must be numbers.")
	}

	switch e.Operator.Type {
	case compiler.TokenMinus:
		return l - r, nil
	case compiler.TokenStar:
		return l * r, nil
	case compiler.TokenSlash:
		if r == 0 {
			return nil, runtimeErrorf(e.Operator, "Division by zero.")
		}
		return l / r, nil
	case compiler.TokenGreater:
		return l > r, nil
	case compiler.TokenGreaterEqual:
		return l >= r, nil
	case compiler.TokenLess:
		return l < r, nil
	case compiler.TokenLessEqual:
		return l <= r, nil
	}
	return nil, runtimeErrorf(e.Operator, "Unknown binary operator '%s'.", e.Operator.Lexeme)
}

// add implements +: numeric addition, string concatenation, and a number
// mixed with a string converts the number to its printed form.
func add(op compiler.Token, left, right Value) (Value, error) {
	switch l := left.(type) {
	case float64:
		switch r := right.(type) {
		case float64:
			return l + r, nil
		case string:
			return FormatNumber(l) + r, nil
		}
	case string:
		switch r := right.(type) {
		case string:
			return l + r, nil
		case float64:
			return l + FormatNumber(r), nil
		}
	}
	return nil, runtimeErrorf(op, "Operands must be two numbers or two strings.")
}

func (in *Interpreter) evalCall(e *compiler.Call) (Value, error) {
	callee, err := in.evaluate(e.Callee)
	if err != nil {
		return nil, err
	}

	args := make([]Value, 0, len(e.Arguments))
	for _, argExpr := range e.Arguments {
		arg, err := in.evaluate(argExpr)
		if err != nil {
			return nil, err
		}
		args = append(args, arg)
	}

	fn, ok := callee.(Callable)
	if !ok {
		return nil, runtimeErrorf(e.Paren, "Can only call functions and classes.")
	}
	if len(args) != fn.Arity() {
		return nil, runtimeErrorf(e.Paren, "%s", arityMessage(fn.Arity(), len(args)))
	}

	if in.depth >= in.maxDepth {
		return nil, runtimeErrorf(e.Paren, "Stack overflow.")
	}
	in.depth++
	defer func() { in.depth-- }()

	return fn.Call(in, args)
}

func arityMessage(want, got int) string {
	return fmt.Sprintf("Expected %d arguments but got %d.", want, got)
}

// evalSuper looks the method up starting at the superclass of the class
// whose body contains the expression, and binds it to the current this.
func (in *Interpreter) evalSuper(e *compiler.Super) (Value, error) {
	hops, ok := in.locals[e]
	if !ok {
		return nil, runtimeErrorf(e.Keyword, "Can't use 'super' outside of a class.")
	}
	superclass, _ := in.env.GetAt(hops, "super").(*Class)
	receiver, _ := in.env.GetAt(hops-1, "this").(*Instance)
	if superclass == nil || receiver == nil {
		return nil, runtimeErrorf(e.Keyword, "Can't use 'super' outside of a class.")
	}

	method := superclass.FindMethod(e.Method.Lexeme)
	if method == nil {
		return nil, runtimeErrorf(e.Method, "Undefined property '%s'.", e.Method.Lexeme)
	}
	return method.Bind(receiver), nil
}
