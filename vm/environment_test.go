package vm

import (
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/chazu/treelox/compiler"
)

func ident(name string) compiler.Token {
	return compiler.Token{Type: compiler.TokenIdentifier, Lexeme: name, Line: 3}
}

func TestEnvironmentDefine(t *testing.T) {
	env := NewEnvironment(nil)
	if err := env.Define(ident("x"), 1.0); err != nil {
		t.Fatalf("Define failed: %v", err)
	}

	err := env.Define(ident("x"), 2.0)
	rerr := runtimeError(t, err)
	if rerr.Message != "Variable 'x' is already defined." || rerr.Line() != 3 {
		t.Errorf("redefinition error = %q at line %d", rerr.Message, rerr.Line())
	}
	if v, _ := env.Lookup("x"); v != 1.0 {
		t.Errorf("x = %v after failed redefinition, want 1", v)
	}

	// Shadowing in a nested frame is allowed.
	inner := NewEnvironment(env)
	if err := inner.Define(ident("x"), 3.0); err != nil {
		t.Errorf("shadowing failed: %v", err)
	}
}

func TestEnvironmentGetAssign(t *testing.T) {
	outer := NewEnvironment(nil)
	_ = outer.Define(ident("x"), 1.0)
	inner := NewEnvironment(outer)

	v, err := inner.Get(ident("x"))
	if err != nil || v != 1.0 {
		t.Errorf("Get(x) = %v, %v", v, err)
	}
	if err := inner.Assign(ident("x"), 2.0); err != nil {
		t.Fatalf("Assign failed: %v", err)
	}
	if v, _ := outer.Lookup("x"); v != 2.0 {
		t.Errorf("outer x = %v, want 2", v)
	}
	if _, ok := inner.Lookup("x"); ok {
		t.Error("Assign created a binding in the inner frame")
	}

	for name, err := range map[string]error{
		"get":    func() error { _, err := inner.Get(ident("y")); return err }(),
		"assign": inner.Assign(ident("y"), 1.0),
	} {
		rerr := runtimeError(t, err)
		if rerr.Message != "Undefined variable 'y'." {
			t.Errorf("%s: message = %q", name, rerr.Message)
		}
	}
}

func TestEnvironmentAt(t *testing.T) {
	global := NewEnvironment(nil)
	_ = global.Define(ident("a"), "global")
	mid := NewEnvironment(global)
	_ = mid.Define(ident("a"), "mid")
	leaf := NewEnvironment(mid)

	if got := leaf.GetAt(1, "a"); got != "mid" {
		t.Errorf("GetAt(1) = %v, want mid", got)
	}
	if got := leaf.GetAt(2, "a"); got != "global" {
		t.Errorf("GetAt(2) = %v, want global", got)
	}

	leaf.AssignAt(2, "a", "changed")
	if v, _ := global.Lookup("a"); v != "changed" {
		t.Errorf("global a = %v, want changed", v)
	}
	if v, _ := mid.Lookup("a"); v != "mid" {
		t.Errorf("mid a = %v, want untouched", v)
	}
	if leaf.Enclosing() != mid || global.Enclosing() != nil {
		t.Error("Enclosing links are wrong")
	}
}

func TestEnvironmentNames(t *testing.T) {
	env := NewEnvironment(NewEnvironment(nil))
	for _, n := range []string{"zeta", "alpha", "mid"} {
		_ = env.Define(ident(n), nil)
	}
	if diff := cmp.Diff([]string{"alpha", "mid", "zeta"}, env.Names()); diff != "" {
		t.Errorf("Names mismatch (-want +got):\n%s", diff)
	}

	in := New()
	if diff := cmp.Diff([]string{"clock", "printF", "printFLine", "read"}, in.Globals().Names()); diff != "" {
		t.Errorf("native globals mismatch (-want +got):\n%s", diff)
	}
}
