package vm

import (
	"bufio"
	"errors"
	"io"
	"os"
	"strings"
	"time"

	"github.com/tliron/commonlog"

	"github.com/chazu/treelox/compiler"
)

// ---------------------------------------------------------------------------
// Interpreter: tree-walking execution engine
// ---------------------------------------------------------------------------

// DefaultMaxCallDepth bounds nested calls before a run fails with a stack
// overflow error.
const DefaultMaxCallDepth = 1024

// ErrReturnOutsideCall is returned when a program that skipped resolution
// executes a return at top level.
var ErrReturnOutsideCall = errors.New("vm: return statement outside of a call")

// Interpreter executes resolved programs. The global frame persists across
// calls to Interpret and Eval, so one Interpreter backs a whole REPL
// session. An Interpreter is not safe for concurrent use.
type Interpreter struct {
	globals *Environment
	env     *Environment // current frame; swapped on block and call entry
	locals  compiler.Locals

	stdout   io.Writer
	readLine func() (string, error)
	now      func() time.Time
	maxDepth int
	depth    int
	log      commonlog.Logger
}

// Option configures an Interpreter.
type Option func(*Interpreter)

// WithStdout sets where print and the print natives write.
func WithStdout(w io.Writer) Option {
	return func(in *Interpreter) { in.stdout = w }
}

// WithStdin sets where the read native reads lines from.
func WithStdin(r io.Reader) Option {
	return WithLineReader(readerLines(r))
}

// WithLineReader makes the read native call next for each line. next
// returns the line without its terminator, or an error at end of input.
// Interactive front ends use it to share one input source with read.
func WithLineReader(next func() (string, error)) Option {
	return func(in *Interpreter) { in.readLine = next }
}

func readerLines(r io.Reader) func() (string, error) {
	br := bufio.NewReader(r)
	return func() (string, error) {
		line, err := br.ReadString('\n')
		if err != nil && line == "" {
			return "", err
		}
		return strings.TrimRight(line, "\r\n"), nil
	}
}

// WithClock replaces the time source of the clock native.
func WithClock(now func() time.Time) Option {
	return func(in *Interpreter) { in.now = now }
}

// WithMaxCallDepth sets the nesting limit for calls. Values below one keep
// the default.
func WithMaxCallDepth(n int) Option {
	return func(in *Interpreter) {
		if n > 0 {
			in.maxDepth = n
		}
	}
}

// WithLogger sets the logger used for run diagnostics.
func WithLogger(log commonlog.Logger) Option {
	return func(in *Interpreter) { in.log = log }
}

// New creates an interpreter with the native functions registered in its
// global frame.
func New(opts ...Option) *Interpreter {
	globals := NewEnvironment(nil)
	in := &Interpreter{
		globals:  globals,
		env:      globals,
		locals:   make(compiler.Locals),
		stdout:   os.Stdout,
		readLine: readerLines(os.Stdin),
		now:      time.Now,
		maxDepth: DefaultMaxCallDepth,
		log:      commonlog.GetLogger("treelox.vm"),
	}
	for _, opt := range opts {
		opt(in)
	}
	registerNatives(in)
	return in
}

// Globals returns the persistent global frame.
func (in *Interpreter) Globals() *Environment {
	return in.globals
}

// Eval compiles and runs source against the global frame. Static errors are
// returned as compiler.Diagnostics and nothing runs; a failed run returns a
// *RuntimeError.
func (in *Interpreter) Eval(source string) error {
	prog, err := compiler.Compile(source, compiler.WithGlobals(in.globals.Names()...))
	if err != nil {
		return err
	}
	return in.Interpret(prog)
}

// Interpret executes a compiled program in the global frame. Execution stops
// at the first runtime error.
func (in *Interpreter) Interpret(prog *compiler.Program) error {
	// Functions declared by earlier runs keep their own hop counts, so only
	// this program's are needed at top level.
	in.locals = prog.Locals
	in.env = in.globals
	in.depth = 0

	in.log.Debugf("run: %d statements, %d resolved references", len(prog.Statements), len(prog.Locals))
	for _, stmt := range prog.Statements {
		c, err := in.execute(stmt)
		if err != nil {
			in.log.Debugf("run aborted: %s", err)
			return err
		}
		if c.returning {
			return ErrReturnOutsideCall
		}
	}
	return nil
}

// Call invokes a callable value from Go, checking arity the same way a call
// expression does.
func (in *Interpreter) Call(fn Callable, args ...Value) (Value, error) {
	if len(args) != fn.Arity() {
		return nil, &RuntimeError{
			Token:   compiler.Token{Type: compiler.TokenIdentifier, Lexeme: fn.String()},
			Message: arityMessage(fn.Arity(), len(args)),
		}
	}
	return fn.Call(in, args)
}

// callBody runs a function body in env, which the caller has populated
// with the parameters. It yields the returned value, or nil when the body
// completes without a return.
func (in *Interpreter) callBody(decl *compiler.Function, env *Environment) (Value, error) {
	c, err := in.executeBlock(decl.Body, env)
	if err != nil {
		return nil, err
	}
	return c.value, nil
}
