package vm

import (
	"fmt"

	"github.com/chazu/treelox/compiler"
)

// completion is the outcome of executing a statement: either normal
// completion or a return carrying a value to the nearest call.
type completion struct {
	returning bool
	value     Value
}

var normal = completion{}

func (in *Interpreter) execute(stmt compiler.Stmt) (completion, error) {
	switch s := stmt.(type) {
	case *compiler.ExprStmt:
		_, err := in.evaluate(s.Expr)
		return normal, err

	case *compiler.Print:
		v, err := in.evaluate(s.Expr)
		if err != nil {
			return normal, err
		}
		fmt.Fprintln(in.stdout, Stringify(v))
		return normal, nil

	case *compiler.Var:
		var value Value
		if s.Initializer != nil {
			v, err := in.evaluate(s.Initializer)
			if err != nil {
				return normal, err
			}
			value = v
		}
		return normal, in.env.Define(s.Name, value)

	case *compiler.Block:
		return in.executeBlock(s.Statements, NewEnvironment(in.env))

	case *compiler.If:
		cond, err := in.evaluate(s.Condition)
		if err != nil {
			return normal, err
		}
		if IsTruthy(cond) {
			return in.execute(s.ThenBranch)
		}
		if s.ElseBranch != nil {
			return in.execute(s.ElseBranch)
		}
		return normal, nil

	case *compiler.While:
		for {
			cond, err := in.evaluate(s.Condition)
			if err != nil {
				return normal, err
			}
			if !IsTruthy(cond) {
				return normal, nil
			}
			c, err := in.execute(s.Body)
			if err != nil || c.returning {
				return c, err
			}
		}

	case *compiler.Function:
		fn := NewFunction(s, in.env, in.locals, false)
		return normal, in.env.Define(s.Name, fn)

	case *compiler.Return:
		var value Value
		if s.Value != nil {
			v, err := in.evaluate(s.Value)
			if err != nil {
				return normal, err
			}
			value = v
		}
		return completion{returning: true, value: value}, nil

	case *compiler.Class:
		return normal, in.executeClass(s)
	}
	return normal, fmt.Errorf("vm: unknown statement %T", stmt)
}

// executeBlock runs stmts with env as the current frame and restores the
// previous frame however the block exits.
func (in *Interpreter) executeBlock(stmts []compiler.Stmt, env *Environment) (completion, error) {
	previous := in.env
	in.env = env
	defer func() { in.env = previous }()

	for _, stmt := range stmts {
		c, err := in.execute(stmt)
		if err != nil || c.returning {
			return c, err
		}
	}
	return normal, nil
}

func (in *Interpreter) executeClass(s *compiler.Class) error {
	var superclass *Class
	if s.Superclass != nil {
		v, err := in.evaluate(s.Superclass)
		if err != nil {
			return err
		}
		sc, ok := v.(*Class)
		if !ok {
			return runtimeErrorf(s.Superclass.Name, "Superclass must be a class.")
		}
		superclass = sc
	}

	// Bound before the methods are built so they can refer to the class.
	if err := in.env.Define(s.Name, nil); err != nil {
		return err
	}

	methodEnv := in.env
	if superclass != nil {
		methodEnv = NewEnvironment(in.env)
		methodEnv.define("super", superclass)
	}

	methods := make(map[string]*Function, len(s.Methods))
	for _, m := range s.Methods {
		methods[m.Name.Lexeme] = NewFunction(m, methodEnv, in.locals, m.Name.Lexeme == "init")
	}

	class := NewClass(s.Name.Lexeme, superclass, methods)
	in.env.AssignAt(0, s.Name.Lexeme, class)
	in.log.Debugf("class %s declared with %d methods", class.Name, len(methods))
	return nil
}
