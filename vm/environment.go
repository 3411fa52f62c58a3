package vm

import (
	"sort"

	"github.com/chazu/treelox/compiler"
)

// ---------------------------------------------------------------------------
// Environment: one lexical scope frame
// ---------------------------------------------------------------------------

// Environment maps names to values for one scope and links to the scope
// that encloses it. Closures hold a pointer to the frame they were created
// in, so frames are shared rather than copied.
type Environment struct {
	values    map[string]Value
	enclosing *Environment
}

// NewEnvironment creates a frame nested inside enclosing, which may be nil
// for the global frame.
func NewEnvironment(enclosing *Environment) *Environment {
	return &Environment{
		values:    make(map[string]Value),
		enclosing: enclosing,
	}
}

// Enclosing returns the parent frame, or nil for the global frame.
func (e *Environment) Enclosing() *Environment {
	return e.enclosing
}

// Define binds name in this frame. Binding a name twice in the same frame is
// an error; shadowing a name from an enclosing frame is not.
func (e *Environment) Define(name compiler.Token, value Value) error {
	if !e.define(name.Lexeme, value) {
		return runtimeErrorf(name, "Variable '%s' is already defined.", name.Lexeme)
	}
	return nil
}

func (e *Environment) define(name string, value Value) bool {
	if _, exists := e.values[name]; exists {
		return false
	}
	e.values[name] = value
	return true
}

// Get looks name up in this frame and then in each enclosing frame.
func (e *Environment) Get(name compiler.Token) (Value, error) {
	for env := e; env != nil; env = env.enclosing {
		if v, ok := env.values[name.Lexeme]; ok {
			return v, nil
		}
	}
	return nil, runtimeErrorf(name, "Undefined variable '%s'.", name.Lexeme)
}

// Assign updates the nearest existing binding of name.
func (e *Environment) Assign(name compiler.Token, value Value) error {
	for env := e; env != nil; env = env.enclosing {
		if _, ok := env.values[name.Lexeme]; ok {
			env.values[name.Lexeme] = value
			return nil
		}
	}
	return runtimeErrorf(name, "Undefined variable '%s'.", name.Lexeme)
}

// GetAt reads name from the frame exactly hops links outward. The resolver
// guarantees the binding exists there.
func (e *Environment) GetAt(hops int, name string) Value {
	return e.ancestor(hops).values[name]
}

// AssignAt writes name in the frame exactly hops links outward.
func (e *Environment) AssignAt(hops int, name string, value Value) {
	e.ancestor(hops).values[name] = value
}

func (e *Environment) ancestor(hops int) *Environment {
	env := e
	for i := 0; i < hops; i++ {
		env = env.enclosing
	}
	return env
}

// Names returns the names bound in this frame only, sorted.
func (e *Environment) Names() []string {
	names := make([]string, 0, len(e.values))
	for name := range e.values {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Lookup returns the value bound to name in this frame only.
func (e *Environment) Lookup(name string) (Value, bool) {
	v, ok := e.values[name]
	return v, ok
}
