package compiler

import (
	"testing"

	"github.com/google/go-cmp/cmp"
)

func resolveSource(t *testing.T, src string, globals ...string) (Locals, Diagnostics) {
	t.Helper()
	stmts := parseProgram(t, src)
	return Resolve(stmts, globals...)
}

func resolveMessages(t *testing.T, src string, globals ...string) []string {
	t.Helper()
	_, errs := resolveSource(t, src, globals...)
	msgs := make([]string, len(errs))
	for i, e := range errs {
		msgs[i] = e.Error()
	}
	return msgs
}

// hopsOf returns the hop counts of every resolved Variable named name, in
// source order of discovery.
func hopsOf(t *testing.T, src, name string) []int {
	t.Helper()
	stmts := parseProgram(t, src)
	locals, errs := Resolve(stmts)
	if len(errs) > 0 {
		t.Fatalf("resolve %q: %v", src, errs)
	}

	var hops []int
	var walkExpr func(Expr)
	var walkStmt func(Stmt)
	walkExpr = func(e Expr) {
		switch e := e.(type) {
		case *Variable:
			if e.Name.Lexeme == name {
				if h, ok := locals[e]; ok {
					hops = append(hops, h)
				} else {
					hops = append(hops, -1)
				}
			}
		case *Assign:
			walkExpr(e.Value)
		case *Binary:
			walkExpr(e.Left)
			walkExpr(e.Right)
		case *Call:
			walkExpr(e.Callee)
			for _, a := range e.Arguments {
				walkExpr(a)
			}
		}
	}
	walkStmt = func(s Stmt) {
		switch s := s.(type) {
		case *Print:
			walkExpr(s.Expr)
		case *ExprStmt:
			walkExpr(s.Expr)
		case *Var:
			if s.Initializer != nil {
				walkExpr(s.Initializer)
			}
		case *Block:
			for _, inner := range s.Statements {
				walkStmt(inner)
			}
		case *Function:
			for _, inner := range s.Body {
				walkStmt(inner)
			}
		case *Return:
			if s.Value != nil {
				walkExpr(s.Value)
			}
		}
	}
	for _, s := range stmts {
		walkStmt(s)
	}
	return hops
}

func TestResolverHopCounts(t *testing.T) {
	tests := []struct {
		name string
		src  string
		want []int
	}{
		{"global", "var x = 1; print x;", []int{-1}},
		{"same block", "{ var x = 1; print x; }", []int{0}},
		{"nested block", "{ var x = 1; { { print x; } } }", []int{2}},
		{"parameter", "fun f(x) { print x; }", []int{0}},
		{"closure", "fun f() { var x = 1; fun g() { print x; } }", []int{1}},
		{"function body block", "fun f(x) { { print x; } }", []int{1}},
		{"shadowing initializer", "{ var x = 1; { var x = x + 1; print x; } }", []int{1, 0}},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if diff := cmp.Diff(tc.want, hopsOf(t, tc.src, "x")); diff != "" {
				t.Errorf("hops mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestResolverThisAndSuperHops(t *testing.T) {
	src := "class A { m() { return 1; } }\nclass B < A { m() { return super.m() + this.n; } }"
	stmts := parseProgram(t, src)
	locals, errs := Resolve(stmts)
	if len(errs) > 0 {
		t.Fatalf("resolve: %v", errs)
	}

	ret := stmts[1].(*Class).Methods[0].Body[0].(*Return)
	sum := ret.Value.(*Binary)
	super := sum.Left.(*Call).Callee.(*Super)
	this := sum.Right.(*Get).Object.(*This)

	// method frame -> this frame -> super frame
	if got := locals[super]; got != 2 {
		t.Errorf("super hops = %d, want 2", got)
	}
	if got := locals[this]; got != 1 {
		t.Errorf("this hops = %d, want 1", got)
	}
}

func TestResolverErrors(t *testing.T) {
	tests := []struct {
		name string
		src  string
		want []string
	}{
		{"top level return", "return 1;", []string{"[line 1] Error at 'return': Can't return from top-level code."}},
		{"duplicate local", "{ var a = 1; var a = 2; }", []string{"[line 1] Error at 'a': Already a variable with this name in this scope."}},
		{"duplicate parameter", "fun f(a, a) {}", []string{"[line 1] Error at 'a': Already a variable with this name in this scope."}},
		{"self initializer", "{ var a = a; }", []string{"[line 1] Error at 'a': Can't read local variable in its own initializer."}},
		{"global self initializer", "var a = a;", []string{"[line 1] Error at 'a': Can't read local variable in its own initializer."}},
		{"this outside class", "print this;", []string{"[line 1] Error at 'this': Can't use 'this' outside of a class."}},
		{"this in function", "fun f() { return this; }", []string{"[line 1] Error at 'this': Can't use 'this' outside of a class."}},
		{"super outside class", "super.m();", []string{"[line 1] Error at 'super': Can't use 'super' outside of a class."}},
		{"super without superclass", "class A { m() { super.m(); } }", []string{"[line 1] Error at 'super': Can't use 'super' in a class with no superclass."}},
		{"inherit from self", "class A < A {}", []string{"[line 1] Error at 'A': A class can't inherit from itself."}},
		{"undefined superclass", "class B < Nope {}", []string{"[line 1] Error at 'Nope': Undefined superclass 'Nope'."}},
		{"collects several", "return;\n{ var b; var b; }", []string{
			"[line 1] Error at 'return': Can't return from top-level code.",
			"[line 2] Error at 'b': Already a variable with this name in this scope.",
		}},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if diff := cmp.Diff(tc.want, resolveMessages(t, tc.src)); diff != "" {
				t.Errorf("errors mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestResolverAccepts(t *testing.T) {
	tests := []struct {
		name string
		src  string
	}{
		{"return in function", "fun f() { return 1; }"},
		{"return in initializer", "class A { init() { return; } }"},
		{"recursion", "fun f(n) { if (n > 0) f(n - 1); }"},
		{"shadow enclosing", "var a = 1; { var a = a + 1; }"},
		{"redeclare global", "var a = 1; var a = 2;"},
		{"forward global reference", "fun f() { return g(); } fun g() { return 1; }"},
		{"superclass declared earlier", "class A {} class B < A {}"},
		{"local superclass", "{ class A {} class B < A {} }"},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if msgs := resolveMessages(t, tc.src); len(msgs) != 0 {
				t.Errorf("unexpected errors: %v", msgs)
			}
		})
	}
}

func TestResolverKnownGlobals(t *testing.T) {
	// A name bound by an earlier run is readable in a new global initializer.
	if msgs := resolveMessages(t, "var a = a + 1;", "a"); len(msgs) != 0 {
		t.Errorf("unexpected errors with known global: %v", msgs)
	}
	if msgs := resolveMessages(t, "class B < A {}", "A"); len(msgs) != 0 {
		t.Errorf("unexpected errors with known superclass: %v", msgs)
	}
}

func TestCompileGatesResolution(t *testing.T) {
	// The parse error is reported; the top-level return is not, because
	// resolution only runs on a clean parse.
	_, err := Compile("print ;\nreturn 1;")
	errs, ok := err.(Diagnostics)
	if !ok {
		t.Fatalf("Compile error = %T, want Diagnostics", err)
	}
	if len(errs) != 1 || errs[0].Phase != PhaseParse {
		t.Errorf("errors = %v, want one parse error", errs)
	}

	prog, err := Compile("{ var a = 1; print a; }")
	if err != nil {
		t.Fatalf("Compile failed: %v", err)
	}
	if len(prog.Locals) != 1 {
		t.Errorf("locals = %d, want 1", len(prog.Locals))
	}

	if _, err := Compile("var x = 1; x;", WithGlobals("x")); err != nil {
		t.Errorf("Compile with globals failed: %v", err)
	}
}
