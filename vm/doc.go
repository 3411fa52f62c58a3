// Package vm implements the tree-walking evaluator.
//
// This package contains:
//   - the runtime value model (nil, booleans, numbers, strings, callables,
//     classes and instances)
//   - environment frames chained into lexical scopes
//   - user functions as closures, bound methods and native functions
//   - classes with single inheritance and superclass-chain method lookup
//   - the Interpreter, which executes a resolved compiler.Program
package vm
