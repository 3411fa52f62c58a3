// Package image serializes compiled programs so they can be run later
// without scanning, parsing or resolving the source again.
//
// An image is a short header followed by a canonical CBOR document. The
// document holds the AST as a flat list of node records in post-order, so
// every record only refers to records that come before it, plus the indices
// of the top-level statements. Each record carries its resolved hop count,
// which lets Decode rebuild the Locals map for the fresh nodes.
package image

import (
	"bytes"
	"errors"
	"fmt"

	"github.com/fxamacker/cbor/v2"

	"github.com/chazu/treelox/compiler"
)

// Version is the image format version written by Encode.
const Version byte = 1

var magic = []byte("TLOX")

var (
	ErrBadHeader          = errors.New("image: not a program image")
	ErrUnsupportedVersion = errors.New("image: unsupported version")
	ErrMalformed          = errors.New("image: malformed node record")
)

var encMode cbor.EncMode

func init() {
	em, err := cbor.CanonicalEncOptions().EncMode()
	if err != nil {
		panic(fmt.Sprintf("image: failed to create CBOR enc mode: %v", err))
	}
	encMode = em
}

type nodeKind uint8

const (
	kindLiteral nodeKind = iota + 1
	kindGrouping
	kindUnary
	kindBinary
	kindLogical
	kindVariable
	kindAssign
	kindCall
	kindGet
	kindSet
	kindThis
	kindSuper
	kindExprStmt
	kindPrint
	kindVar
	kindBlock
	kindIf
	kindWhile
	kindFunction
	kindReturn
	kindClass
)

type literalKind uint8

const (
	litNil literalKind = iota
	litBool
	litNumber
	litString
)

// noNode marks an absent optional child.
const noNode = -1

type tokenRecord struct {
	Type   int    `cbor:"1,keyasint"`
	Lexeme string `cbor:"2,keyasint"`
	Line   int    `cbor:"3,keyasint"`
}

type record struct {
	Kind   nodeKind      `cbor:"1,keyasint"`
	Line   int           `cbor:"2,keyasint,omitempty"`
	Tokens []tokenRecord `cbor:"3,keyasint,omitempty"`
	Kids   []int         `cbor:"4,keyasint,omitempty"`

	Lit  literalKind `cbor:"5,keyasint,omitempty"`
	Bool bool        `cbor:"6,keyasint,omitempty"`
	Num  float64     `cbor:"7,keyasint,omitempty"`
	Str  string      `cbor:"8,keyasint,omitempty"`

	Local bool `cbor:"9,keyasint,omitempty"`
	Hops  int  `cbor:"10,keyasint,omitempty"`
}

type document struct {
	Nodes []record `cbor:"1,keyasint"`
	Roots []int    `cbor:"2,keyasint"`
}

// IsImage reports whether data starts with an image header.
func IsImage(data []byte) bool {
	return bytes.HasPrefix(data, magic)
}

// Encode serializes prog.
func Encode(prog *compiler.Program) ([]byte, error) {
	e := &encoder{locals: prog.Locals}
	roots := make([]int, 0, len(prog.Statements))
	for _, stmt := range prog.Statements {
		idx, err := e.node(stmt)
		if err != nil {
			return nil, err
		}
		roots = append(roots, idx)
	}

	body, err := encMode.Marshal(document{Nodes: e.nodes, Roots: roots})
	if err != nil {
		return nil, fmt.Errorf("image: encode: %w", err)
	}

	out := make([]byte, 0, len(magic)+1+len(body))
	out = append(out, magic...)
	out = append(out, Version)
	return append(out, body...), nil
}

// Decode rebuilds a program from an image produced by Encode. The rebuilt
// tree is resolved again with globals as the names already bound in the
// global frame, and the stored hop counts must agree with the result.
func Decode(data []byte, globals ...string) (*compiler.Program, error) {
	if !IsImage(data) || len(data) < len(magic)+1 {
		return nil, ErrBadHeader
	}
	if v := data[len(magic)]; v != Version {
		return nil, fmt.Errorf("%w: %d", ErrUnsupportedVersion, v)
	}

	var doc document
	if err := cbor.Unmarshal(data[len(magic)+1:], &doc); err != nil {
		return nil, fmt.Errorf("image: decode: %w", err)
	}

	d := &decoder{
		built:  make([]compiler.Node, len(doc.Nodes)),
		locals: make(compiler.Locals),
	}
	for i := range doc.Nodes {
		n, err := d.build(i, &doc.Nodes[i])
		if err != nil {
			return nil, fmt.Errorf("%w: node %d: %v", ErrMalformed, i, err)
		}
		d.built[i] = n
	}

	stmts := make([]compiler.Stmt, 0, len(doc.Roots))
	for _, idx := range doc.Roots {
		stmt, err := d.stmt(idx, len(doc.Nodes))
		if err != nil {
			return nil, fmt.Errorf("%w: root: %v", ErrMalformed, err)
		}
		stmts = append(stmts, stmt)
	}

	locals, diags := compiler.Resolve(stmts, globals...)
	if len(diags) > 0 {
		return nil, fmt.Errorf("%w: %v", ErrMalformed, diags)
	}
	if err := sameHops(d.locals, locals); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformed, err)
	}
	return &compiler.Program{Statements: stmts, Locals: locals}, nil
}

// sameHops reports the first reference whose stored hop count differs from
// the resolved one.
func sameHops(stored, resolved compiler.Locals) error {
	for expr, hops := range resolved {
		got, ok := stored[expr]
		if !ok {
			return fmt.Errorf("line %d: missing hop count", expr.Line())
		}
		if got != hops {
			return fmt.Errorf("line %d: hop count %d, resolves to %d", expr.Line(), got, hops)
		}
	}
	if len(stored) != len(resolved) {
		return fmt.Errorf("%d hop counts for %d local references", len(stored), len(resolved))
	}
	return nil
}
