package compiler

// Program is a parsed and resolved run: the top-level statements plus the
// hop counts the interpreter needs for local variable access.
type Program struct {
	Statements []Stmt
	Locals     Locals
}

type compileOptions struct {
	globals []string
}

// Option configures Compile.
type Option func(*compileOptions)

// WithGlobals declares names that are already bound in the global frame.
func WithGlobals(names ...string) Option {
	return func(o *compileOptions) {
		o.globals = append(o.globals, names...)
	}
}

// Compile scans, parses and resolves source. Lexical and parse errors are
// collected in one pass; resolution only runs over a program that parsed
// cleanly. On any diagnostic the returned error is a Diagnostics value and
// the program must not be executed.
func Compile(source string, opts ...Option) (*Program, error) {
	var o compileOptions
	for _, opt := range opts {
		opt(&o)
	}

	parser := NewParser(source)
	stmts := parser.Parse()
	prog := &Program{Statements: stmts, Locals: make(Locals)}
	if errs := parser.Errors(); len(errs) > 0 {
		return prog, errs
	}

	locals, errs := Resolve(stmts, o.globals...)
	prog.Locals = locals
	return prog, errs.Err()
}
