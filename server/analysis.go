package server

import (
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/chazu/treelox/compiler"
)

// SymbolKind classifies a top-level declaration.
type SymbolKind int

const (
	SymbolVariable SymbolKind = iota
	SymbolFunction
	SymbolClass
	SymbolNative
)

func (k SymbolKind) String() string {
	switch k {
	case SymbolFunction:
		return "fun"
	case SymbolClass:
		return "class"
	case SymbolNative:
		return "native fn"
	}
	return "var"
}

// Symbol is a top-level declaration of a document.
type Symbol struct {
	Name      string
	Kind      SymbolKind
	Signature string // declaration without its keyword, e.g. greet(who, times)
	Methods   []string // classes only, sorted
	Line      int      // 1-based
	Column    int      // 0-based start of the name
}

// Analysis is the compile-only view of one document version.
type Analysis struct {
	Text        string
	Diagnostics compiler.Diagnostics
	Symbols     map[string]*Symbol
}

// Analyze compiles text without running it. Declarations are collected
// from whatever the parser recovered even when there are static errors.
func Analyze(text string) *Analysis {
	a := &Analysis{Text: text, Symbols: make(map[string]*Symbol)}

	prog, err := compiler.Compile(text)
	var diags compiler.Diagnostics
	if errors.As(err, &diags) {
		a.Diagnostics = diags
	}
	if prog == nil {
		return a
	}

	lines := strings.Split(text, "\n")
	for _, stmt := range prog.Statements {
		sym := symbolFor(stmt)
		if sym == nil {
			continue
		}
		// First declaration wins, matching where a reader looks first.
		if _, seen := a.Symbols[sym.Name]; seen {
			continue
		}
		sym.Column = nameColumn(lines, sym.Line, sym.Name)
		a.Symbols[sym.Name] = sym
	}
	return a
}

// SymbolsWithPrefix returns the matching symbols ordered by name.
func (a *Analysis) SymbolsWithPrefix(prefix string) []*Symbol {
	var out []*Symbol
	for name, sym := range a.Symbols {
		if strings.HasPrefix(name, prefix) {
			out = append(out, sym)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

func symbolFor(stmt compiler.Stmt) *Symbol {
	switch s := stmt.(type) {
	case *compiler.Var:
		return &Symbol{
			Name:      s.Name.Lexeme,
			Kind:      SymbolVariable,
			Signature: s.Name.Lexeme,
			Line:      s.Name.Line,
		}
	case *compiler.Function:
		return &Symbol{
			Name:      s.Name.Lexeme,
			Kind:      SymbolFunction,
			Signature: functionSignature(s),
			Line:      s.Name.Line,
		}
	case *compiler.Class:
		sig := s.Name.Lexeme
		if s.Superclass != nil {
			sig += " < " + s.Superclass.Name.Lexeme
		}
		methods := make([]string, 0, len(s.Methods))
		for _, m := range s.Methods {
			methods = append(methods, functionSignature(m))
		}
		sort.Strings(methods)
		return &Symbol{
			Name:      s.Name.Lexeme,
			Kind:      SymbolClass,
			Signature: sig,
			Methods:   methods,
			Line:      s.Name.Line,
		}
	}
	return nil
}

func functionSignature(fn *compiler.Function) string {
	params := make([]string, len(fn.Params))
	for i, p := range fn.Params {
		params[i] = p.Lexeme
	}
	return fmt.Sprintf("%s(%s)", fn.Name.Lexeme, strings.Join(params, ", "))
}

// nameColumn finds name as a whole identifier on the given 1-based line.
func nameColumn(lines []string, line int, name string) int {
	if line < 1 || line > len(lines) {
		return 0
	}
	text := lines[line-1]
	for from := 0; from < len(text); {
		i := strings.Index(text[from:], name)
		if i < 0 {
			break
		}
		start := from + i
		end := start + len(name)
		if (start == 0 || !isIdentByte(text[start-1])) && (end == len(text) || !isIdentByte(text[end])) {
			return start
		}
		from = end
	}
	return 0
}

func isIdentByte(c byte) bool {
	return c == '_' || (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z') || (c >= '0' && c <= '9')
}
