package vm

import (
	"fmt"

	"github.com/chazu/treelox/compiler"
)

// ---------------------------------------------------------------------------
// Callables: user functions, bound methods, natives
// ---------------------------------------------------------------------------

// Callable is any value that can appear in call position. Arity is checked
// by the interpreter before Call runs.
type Callable interface {
	Arity() int
	Call(in *Interpreter, args []Value) (Value, error)
	String() string
}

// Function is a user-defined function: its declaration plus the frame that
// was active where it was declared. locals holds the hop counts of the
// program the declaration came from, which may be an earlier run.
type Function struct {
	decl          *compiler.Function
	closure       *Environment
	locals        compiler.Locals
	isInitializer bool
}

// NewFunction creates a closure over env whose body resolves through locals.
func NewFunction(decl *compiler.Function, env *Environment, locals compiler.Locals, isInitializer bool) *Function {
	return &Function{decl: decl, closure: env, locals: locals, isInitializer: isInitializer}
}

// Name returns the declared name.
func (f *Function) Name() string { return f.decl.Name.Lexeme }

func (f *Function) Arity() int { return len(f.decl.Params) }

func (f *Function) String() string { return fmt.Sprintf("<fn %s>", f.decl.Name.Lexeme) }

// Call runs the body in a fresh frame chained to the closure, not to the
// caller's frame.
func (f *Function) Call(in *Interpreter, args []Value) (Value, error) {
	return f.callIn(in, f.closure, args)
}

func (f *Function) callIn(in *Interpreter, parent *Environment, args []Value) (Value, error) {
	env := NewEnvironment(parent)
	for i, param := range f.decl.Params {
		env.define(param.Lexeme, args[i])
	}

	previous := in.locals
	in.locals = f.locals
	defer func() { in.locals = previous }()
	return in.callBody(f.decl, env)
}

// Bind pairs the method with a receiver.
func (f *Function) Bind(receiver *Instance) *BoundMethod {
	return &BoundMethod{receiver: receiver, method: f}
}

// BoundMethod is a method looked up on a specific instance. Calling it
// binds this to the receiver in a frame between the method's closure and
// its parameter frame.
type BoundMethod struct {
	receiver *Instance
	method   *Function
}

// Receiver returns the instance the method is bound to.
func (b *BoundMethod) Receiver() *Instance { return b.receiver }

func (b *BoundMethod) Arity() int { return b.method.Arity() }

func (b *BoundMethod) String() string { return b.method.String() }

func (b *BoundMethod) Call(in *Interpreter, args []Value) (Value, error) {
	thisEnv := NewEnvironment(b.method.closure)
	thisEnv.define("this", b.receiver)

	result, err := b.method.callIn(in, thisEnv, args)
	if err != nil {
		return nil, err
	}
	if b.method.isInitializer {
		// init always yields the instance, whatever it returns.
		return b.receiver, nil
	}
	return result, nil
}

// NativeFunc is the Go implementation of a native function.
type NativeFunc func(in *Interpreter, args []Value) (Value, error)

// Native is a host function registered in the global frame.
type Native struct {
	name  string
	arity int
	fn    NativeFunc
}

// NewNative wraps fn as a callable value.
func NewNative(name string, arity int, fn NativeFunc) *Native {
	return &Native{name: name, arity: arity, fn: fn}
}

// Name returns the global name the native is registered under.
func (n *Native) Name() string { return n.name }

func (n *Native) Arity() int { return n.arity }

func (n *Native) String() string { return "<native fn>" }

func (n *Native) Call(in *Interpreter, args []Value) (Value, error) {
	return n.fn(in, args)
}
