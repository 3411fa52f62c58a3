package vm

import (
	"fmt"
	"sort"

	"github.com/chazu/treelox/compiler"
)

// ---------------------------------------------------------------------------
// Class: single-inheritance classes
// ---------------------------------------------------------------------------

// Class is a class value. Its method table holds only the methods declared
// in its own body; inherited methods are found by walking Superclass.
type Class struct {
	Name       string
	Superclass *Class // nil for a root class
	methods    map[string]*Function
}

// NewClass creates a class with the given own methods.
func NewClass(name string, superclass *Class, methods map[string]*Function) *Class {
	if methods == nil {
		methods = make(map[string]*Function)
	}
	return &Class{Name: name, Superclass: superclass, methods: methods}
}

// FindMethod looks name up in this class and then up the superclass chain.
// Returns nil if no class in the chain declares it.
func (c *Class) FindMethod(name string) *Function {
	for current := c; current != nil; current = current.Superclass {
		if m, ok := current.methods[name]; ok {
			return m
		}
	}
	return nil
}

// MethodNames returns the names of the class's own methods, sorted.
func (c *Class) MethodNames() []string {
	names := make([]string, 0, len(c.methods))
	for name := range c.methods {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// IsSubclassOf returns true if c is a subclass of other (or is the same class).
func (c *Class) IsSubclassOf(other *Class) bool {
	for current := c; current != nil; current = current.Superclass {
		if current == other {
			return true
		}
	}
	return false
}

func (c *Class) String() string { return c.Name }

// Arity is the arity of init, or zero when the class has none.
func (c *Class) Arity() int {
	if init := c.FindMethod("init"); init != nil {
		return init.Arity()
	}
	return 0
}

// Call constructs an instance and runs init on it when present.
func (c *Class) Call(in *Interpreter, args []Value) (Value, error) {
	instance := NewInstance(c)
	if init := c.FindMethod("init"); init != nil {
		if _, err := init.Bind(instance).Call(in, args); err != nil {
			return nil, err
		}
	}
	return instance, nil
}

// ---------------------------------------------------------------------------
// Instance: objects
// ---------------------------------------------------------------------------

// Instance is an object of a class. Fields are created by assignment.
type Instance struct {
	class  *Class
	fields map[string]Value
}

// NewInstance creates an instance with no fields.
func NewInstance(class *Class) *Instance {
	return &Instance{class: class, fields: make(map[string]Value)}
}

// Class returns the class the instance was constructed from.
func (i *Instance) Class() *Class { return i.class }

// Get reads a field, falling back to a method bound to the instance. A miss
// is an error and never creates a field.
func (i *Instance) Get(name compiler.Token) (Value, error) {
	if v, ok := i.fields[name.Lexeme]; ok {
		return v, nil
	}
	if m := i.class.FindMethod(name.Lexeme); m != nil {
		return m.Bind(i), nil
	}
	return nil, runtimeErrorf(name, "Undefined property '%s'.", name.Lexeme)
}

// Set writes a field, creating it if needed.
func (i *Instance) Set(name compiler.Token, value Value) {
	i.fields[name.Lexeme] = value
}

func (i *Instance) String() string {
	return fmt.Sprintf("%s instance.", i.class.Name)
}
