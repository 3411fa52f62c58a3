package compiler

import (
	"fmt"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func parseProgram(t *testing.T, input string) []Stmt {
	t.Helper()
	p := NewParser(input)
	stmts := p.Parse()
	if errs := p.Errors(); len(errs) > 0 {
		t.Fatalf("parse %q: errors: %v", input, errs)
	}
	return stmts
}

func printAll(stmts []Stmt) []string {
	out := make([]string, len(stmts))
	for i, s := range stmts {
		out[i] = Sprint(s)
	}
	return out
}

func TestParserExpressions(t *testing.T) {
	tests := []struct {
		input string
		want  string
	}{
		{"1 + 2 * 3", "(+ 1 (* 2 3))"},
		{"(1 + 2) * 3", "(* (group (+ 1 2)) 3)"},
		{"1 - 2 - 3", "(- (- 1 2) 3)"},
		{"-1.5", "(- 1.5)"},
		{"!!true", "(! (! true))"},
		{"1 < 2 == 3 >= 4", "(== (< 1 2) (>= 3 4))"},
		{"a or b and c", "(or a (and b c))"},
		{"a = b = 3", "(= a (= b 3))"},
		{`"str" + nil`, `(+ "str" nil)`},
		{"f(1, 2)(3)", "(call (call f 1 2) 3)"},
		{"a.b.c", "(.c (.b a))"},
		{"a.b = 1", "(set .b a 1)"},
		{"a.f().x", "(.x (call (.f a)))"},
		{"this.x", "(.x this)"},
		{"super.m(1)", "(call (super m) 1)"},
	}

	for _, tc := range tests {
		p := NewParser(tc.input)
		expr := p.ParseExpression()
		if len(p.Errors()) > 0 {
			t.Errorf("parse %q: errors: %v", tc.input, p.Errors())
			continue
		}
		if got := Sprint(expr); got != tc.want {
			t.Errorf("Sprint(%q) = %s, want %s", tc.input, got, tc.want)
		}
	}
}

func TestParserStatements(t *testing.T) {
	tests := []struct {
		input string
		want  []string
	}{
		{"print 1;", []string{"(print 1)"}},
		{"x;", []string{"(; x)"}},
		{"var a; var b = 2;", []string{"(var a)", "(var b 2)"}},
		{"{ var a = 1; print a; }", []string{"(block (var a 1) (print a))"}},
		{"if (a) print 1;", []string{"(if a (print 1))"}},
		{"if (a) print 1; else print 2;", []string{"(if-else a (print 1) (print 2))"}},
		{"while (a) a = a - 1;", []string{"(while a (; (= a (- a 1))))"}},
		{"fun add(a, b) { return a + b; }", []string{"(fun add(a b) (return (+ a b)))"}},
		{"fun f() { return; }", []string{"(fun f() (return))"}},
		{"class A < B { m() { } }", []string{"(class A < B (fun m()))"}},
		{"class A { init(x) { this.x = x; } }", []string{"(class A (fun init(x) (; (set .x this x))))"}},
	}

	for _, tc := range tests {
		got := printAll(parseProgram(t, tc.input))
		if diff := cmp.Diff(tc.want, got); diff != "" {
			t.Errorf("parse %q mismatch (-want +got):\n%s", tc.input, diff)
		}
	}
}

func TestParserForDesugarsToWhile(t *testing.T) {
	tests := []struct {
		input string
		want  string
	}{
		{
			"for (var i = 0; i < 3; i = i + 1) print i;",
			"(block (var i 0) (while (< i 3) (block (print i) (; (= i (+ i 1))))))",
		},
		{"for (;;) print 1;", "(while true (print 1))"},
		{"for (i = 0; i < 1;) print i;", "(block (; (= i 0)) (while (< i 1) (print i)))"},
	}

	for _, tc := range tests {
		stmts := parseProgram(t, tc.input)
		if len(stmts) != 1 {
			t.Fatalf("parse %q: got %d statements, want 1", tc.input, len(stmts))
		}
		if got := Sprint(stmts[0]); got != tc.want {
			t.Errorf("Sprint(%q) =\n  %s\nwant\n  %s", tc.input, got, tc.want)
		}
	}
}

func TestParserLines(t *testing.T) {
	stmts := parseProgram(t, "var a = 1;\n\nprint a;\nfun f() {\n}\n")
	want := []int{1, 3, 4}
	var got []int
	for _, s := range stmts {
		got = append(got, s.Line())
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("lines mismatch (-want +got):\n%s", diff)
	}
}

func TestParserErrors(t *testing.T) {
	tests := []struct {
		input string
		want  string
	}{
		{"print 1", "[line 1] Error at end: Expect ';' after value."},
		{"var 1 = 2;", "[line 1] Error at '1': Expect variable name."},
		{"1 + ;", "[line 1] Error at ';': Expect expression."},
		{"a + b = c;", "[line 1] Error at '=': Invalid assignment target."},
		{"fun (a) {}", "[line 1] Error at '(': Expect function name."},
		{"class A { 1 }", "[line 1] Error at '1': Expect method name."},
		{"if (x print 1;", "[line 1] Error at 'print': Expect ')' after if condition."},
		{"super;", "[line 1] Error at ';': Expect '.' after 'super'."},
		{"{ print 1;", "[line 1] Error at end: Expect '}' after block."},
	}

	for _, tc := range tests {
		p := NewParser(tc.input)
		p.Parse()
		errs := p.Errors()
		if len(errs) == 0 {
			t.Errorf("parse %q: expected an error", tc.input)
			continue
		}
		if got := errs[0].Error(); got != tc.want {
			t.Errorf("parse %q: error = %q, want %q", tc.input, got, tc.want)
		}
		if errs[0].Phase != PhaseParse {
			t.Errorf("parse %q: phase = %v, want parse", tc.input, errs[0].Phase)
		}
	}
}

func TestParserRecoversAfterError(t *testing.T) {
	p := NewParser("var = 1;\nprint 2;\nvar b = ;\nprint 3;")
	stmts := p.Parse()

	if diff := cmp.Diff([]string{"(print 2)", "(print 3)"}, printAll(stmts)); diff != "" {
		t.Errorf("recovered statements mismatch (-want +got):\n%s", diff)
	}
	errs := p.Errors()
	if len(errs) != 2 {
		t.Fatalf("got %d errors, want 2: %v", len(errs), errs)
	}
	if errs[0].Line != 1 || errs[1].Line != 3 {
		t.Errorf("error lines = %d, %d; want 1, 3", errs[0].Line, errs[1].Line)
	}
}

func TestParserRecoversInsideBlocks(t *testing.T) {
	p := NewParser("fun f() {\n  var = 1;\n  print 2;\n}\nprint 3;")
	stmts := p.Parse()

	if errs := p.Errors(); len(errs) != 1 || errs[0].Line != 2 {
		t.Fatalf("errors = %v, want one on line 2", errs)
	}
	if len(stmts) != 2 {
		t.Fatalf("got %d statements, want 2", len(stmts))
	}
	fn, ok := stmts[0].(*Function)
	if !ok {
		t.Fatalf("first statement is %T, want *Function", stmts[0])
	}
	if diff := cmp.Diff([]string{"(print 2)"}, printAll(fn.Body)); diff != "" {
		t.Errorf("function body mismatch (-want +got):\n%s", diff)
	}
	if got := Sprint(stmts[1]); got != "(print 3)" {
		t.Errorf("second statement = %s", got)
	}
}

func TestParseExpressionReportsError(t *testing.T) {
	p := NewParser("1 +")
	if expr := p.ParseExpression(); expr != nil {
		t.Errorf("ParseExpression = %s, want nil", Sprint(expr))
	}
	if errs := p.Errors(); len(errs) != 1 || errs[0].Error() != "[line 1] Error at end: Expect expression." {
		t.Errorf("errors = %v", errs)
	}
}

func TestParserInvalidAssignmentKeepsStatement(t *testing.T) {
	p := NewParser("1 = 2; print 3;")
	stmts := p.Parse()
	if len(p.Errors()) != 1 {
		t.Fatalf("got %d errors, want 1", len(p.Errors()))
	}
	if len(stmts) != 2 {
		t.Errorf("got %d statements, want 2", len(stmts))
	}
}

func TestParserLexAndParseErrorsTogether(t *testing.T) {
	p := NewParser("var a = @;\nprint 1 +;")
	p.Parse()
	errs := p.Errors()
	if len(errs) < 2 {
		t.Fatalf("got %d errors, want lexical and parse errors: %v", len(errs), errs)
	}
	if errs[0].Phase != PhaseLex || errs[0].Line != 1 {
		t.Errorf("first error = %v (%v), want lexical error on line 1", errs[0], errs[0].Phase)
	}
	last := errs[len(errs)-1]
	if last.Phase != PhaseParse || last.Line != 2 {
		t.Errorf("last error = %v (%v), want parse error on line 2", last, last.Phase)
	}
}

func TestParserTooManyArguments(t *testing.T) {
	args := make([]string, 256)
	for i := range args {
		args[i] = fmt.Sprint(i)
	}
	p := NewParser("f(" + strings.Join(args, ", ") + ");")
	stmts := p.Parse()

	errs := p.Errors()
	if len(errs) != 1 || errs[0].Message != "Can't have more than 255 arguments." {
		t.Fatalf("errors = %v, want the argument limit error", errs)
	}
	if len(stmts) != 1 {
		t.Errorf("got %d statements, want the call to be kept", len(stmts))
	}

	params := make([]string, 256)
	for i := range params {
		params[i] = fmt.Sprintf("p%d", i)
	}
	p = NewParser("fun f(" + strings.Join(params, ", ") + ") {}")
	p.Parse()
	if errs := p.Errors(); len(errs) != 1 || errs[0].Message != "Can't have more than 255 parameters." {
		t.Errorf("errors = %v, want the parameter limit error", errs)
	}
}
