package compiler

// ---------------------------------------------------------------------------
// Resolver: static scope analysis
// ---------------------------------------------------------------------------

// Locals maps each statically resolved variable reference to the number of
// environment hops between the frame active at the reference and the frame
// that binds the name. References missing from the map are globals.
type Locals map[Expr]int

// scopeFrame tracks the names of one block or function scope. The value is
// false while a name is declared but its initializer is still being
// resolved.
type scopeFrame map[string]bool

type functionKind int

const (
	functionNone functionKind = iota
	functionPlain
	functionMethod
	functionInitializer
)

type classKind int

const (
	classNone classKind = iota
	classPlain
	classSubclass
)

// Resolver computes Locals for a program and reports scope errors. It
// mirrors the block and call nesting the interpreter creates at run time.
type Resolver struct {
	errors Diagnostics
	locals Locals

	// Names bound in the global frame, either before this run (natives,
	// earlier REPL input) or by a top-level declaration already resolved.
	knownGlobals map[string]bool
	// Name of the top-level var whose initializer is being resolved.
	pendingGlobal string

	scopes   []scopeFrame
	function functionKind
	class    classKind
}

// NewResolver creates a resolver with no known globals.
func NewResolver() *Resolver {
	return &Resolver{
		locals:       make(Locals),
		knownGlobals: make(map[string]bool),
	}
}

// DeclareGlobal records a name as already bound in the global frame.
func (r *Resolver) DeclareGlobal(name string) {
	r.knownGlobals[name] = true
}

// Errors returns accumulated resolution errors.
func (r *Resolver) Errors() Diagnostics {
	return r.errors
}

func (r *Resolver) errorAt(tok Token, msg string) {
	r.errors = append(r.errors, &Diagnostic{
		Phase:   PhaseResolve,
		Line:    tok.Line,
		Where:   whereToken(tok),
		Message: msg,
	})
}

// Resolve walks the statements and returns the hop counts it computed.
func (r *Resolver) Resolve(stmts []Stmt) Locals {
	r.resolveStatements(stmts)
	return r.locals
}

func (r *Resolver) resolveStatements(stmts []Stmt) {
	for _, stmt := range stmts {
		r.resolveStmt(stmt)
	}
}

// ---------------------------------------------------------------------------
// Scope bookkeeping
// ---------------------------------------------------------------------------

func (r *Resolver) beginScope() {
	r.scopes = append(r.scopes, make(scopeFrame))
}

func (r *Resolver) endScope() {
	r.scopes = r.scopes[:len(r.scopes)-1]
}

// declare adds name to the innermost scope as not yet defined.
func (r *Resolver) declare(name Token) {
	if len(r.scopes) == 0 {
		return
	}
	scope := r.scopes[len(r.scopes)-1]
	if _, exists := scope[name.Lexeme]; exists {
		r.errorAt(name, "Already a variable with this name in this scope.")
	}
	scope[name.Lexeme] = false
}

// define marks name in the innermost scope as ready for use. At top level
// the name becomes a known global.
func (r *Resolver) define(name Token) {
	if len(r.scopes) == 0 {
		r.knownGlobals[name.Lexeme] = true
		return
	}
	r.scopes[len(r.scopes)-1][name.Lexeme] = true
}

// resolveLocal records the hop count for a reference to name. A frame where
// the name is only declared belongs to the initializer being resolved, so
// the search continues outward and the initializer reads the enclosing
// binding.
func (r *Resolver) resolveLocal(expr Expr, name Token) {
	initializing := false
	for i := len(r.scopes) - 1; i >= 0; i-- {
		defined, ok := r.scopes[i][name.Lexeme]
		if !ok {
			continue
		}
		if !defined {
			initializing = true
			continue
		}
		r.locals[expr] = len(r.scopes) - 1 - i
		return
	}

	if len(r.scopes) == 0 && name.Lexeme == r.pendingGlobal {
		initializing = true
	}
	if initializing && !r.knownGlobals[name.Lexeme] {
		r.errorAt(name, "Can't read local variable in its own initializer.")
	}
	// Otherwise global: looked up by name at run time.
}

// isBound reports whether name resolves to any enclosing scope or known global.
func (r *Resolver) isBound(name string) bool {
	for i := len(r.scopes) - 1; i >= 0; i-- {
		if r.scopes[i][name] {
			return true
		}
	}
	return r.knownGlobals[name]
}

// ---------------------------------------------------------------------------
// Statements
// ---------------------------------------------------------------------------

func (r *Resolver) resolveStmt(stmt Stmt) {
	switch s := stmt.(type) {
	case *Block:
		r.beginScope()
		r.resolveStatements(s.Statements)
		r.endScope()

	case *Var:
		r.declare(s.Name)
		if s.Initializer != nil {
			if len(r.scopes) == 0 {
				r.pendingGlobal = s.Name.Lexeme
			}
			r.resolveExpr(s.Initializer)
			r.pendingGlobal = ""
		}
		r.define(s.Name)

	case *Function:
		// Defined before the body so the function can refer to itself.
		r.declare(s.Name)
		r.define(s.Name)
		r.resolveFunction(s, functionPlain)

	case *Class:
		r.resolveClass(s)

	case *ExprStmt:
		r.resolveExpr(s.Expr)

	case *Print:
		r.resolveExpr(s.Expr)

	case *If:
		r.resolveExpr(s.Condition)
		r.resolveStmt(s.ThenBranch)
		if s.ElseBranch != nil {
			r.resolveStmt(s.ElseBranch)
		}

	case *While:
		r.resolveExpr(s.Condition)
		r.resolveStmt(s.Body)

	case *Return:
		if r.function == functionNone {
			r.errorAt(s.Keyword, "Can't return from top-level code.")
		}
		if s.Value != nil {
			r.resolveExpr(s.Value)
		}
	}
}

// resolveFunction resolves a function body in a scope that holds its
// parameters, matching the single frame a call creates.
func (r *Resolver) resolveFunction(fn *Function, kind functionKind) {
	enclosing := r.function
	r.function = kind

	r.beginScope()
	for _, param := range fn.Params {
		r.declare(param)
		r.define(param)
	}
	r.resolveStatements(fn.Body)
	r.endScope()

	r.function = enclosing
}

func (r *Resolver) resolveClass(c *Class) {
	enclosing := r.class
	r.class = classPlain

	r.declare(c.Name)
	r.define(c.Name)

	if c.Superclass != nil {
		r.class = classSubclass
		switch {
		case c.Superclass.Name.Lexeme == c.Name.Lexeme:
			r.errorAt(c.Superclass.Name, "A class can't inherit from itself.")
		case !r.isBound(c.Superclass.Name.Lexeme):
			r.errorAt(c.Superclass.Name, "Undefined superclass '"+c.Superclass.Name.Lexeme+"'.")
		default:
			r.resolveExpr(c.Superclass)
		}

		r.beginScope()
		r.scopes[len(r.scopes)-1]["super"] = true
	}

	r.beginScope()
	r.scopes[len(r.scopes)-1]["this"] = true

	for _, method := range c.Methods {
		kind := functionMethod
		if method.Name.Lexeme == "init" {
			kind = functionInitializer
		}
		r.resolveFunction(method, kind)
	}

	r.endScope()
	if c.Superclass != nil {
		r.endScope()
	}

	r.class = enclosing
}

// ---------------------------------------------------------------------------
// Expressions
// ---------------------------------------------------------------------------

func (r *Resolver) resolveExpr(expr Expr) {
	switch e := expr.(type) {
	case *Variable:
		r.resolveLocal(e, e.Name)

	case *Assign:
		r.resolveExpr(e.Value)
		r.resolveLocal(e, e.Name)

	case *Binary:
		r.resolveExpr(e.Left)
		r.resolveExpr(e.Right)

	case *Logical:
		r.resolveExpr(e.Left)
		r.resolveExpr(e.Right)

	case *Unary:
		r.resolveExpr(e.Right)

	case *Grouping:
		r.resolveExpr(e.Expression)

	case *Call:
		r.resolveExpr(e.Callee)
		for _, arg := range e.Arguments {
			r.resolveExpr(arg)
		}

	case *Get:
		r.resolveExpr(e.Object)

	case *Set:
		r.resolveExpr(e.Value)
		r.resolveExpr(e.Object)

	case *This:
		if r.class == classNone {
			r.errorAt(e.Keyword, "Can't use 'this' outside of a class.")
			return
		}
		r.resolveLocal(e, e.Keyword)

	case *Super:
		switch r.class {
		case classNone:
			r.errorAt(e.Keyword, "Can't use 'super' outside of a class.")
			return
		case classPlain:
			r.errorAt(e.Keyword, "Can't use 'super' in a class with no superclass.")
			return
		}
		r.resolveLocal(e, e.Keyword)

	case *Literal:
		// OK
	}
}

// Resolve runs a fresh resolver over stmts with the given known globals.
func Resolve(stmts []Stmt, globals ...string) (Locals, Diagnostics) {
	r := NewResolver()
	for _, name := range globals {
		r.DeclareGlobal(name)
	}
	locals := r.Resolve(stmts)
	return locals, r.Errors()
}
