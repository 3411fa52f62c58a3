package compiler

import (
	"fmt"
	"strings"
)

// ---------------------------------------------------------------------------
// Diagnostics: static errors from scanning, parsing and resolution
// ---------------------------------------------------------------------------

// Phase identifies the pass that reported a diagnostic.
type Phase int

const (
	PhaseLex Phase = iota
	PhaseParse
	PhaseResolve
)

func (p Phase) String() string {
	switch p {
	case PhaseLex:
		return "lex"
	case PhaseParse:
		return "parse"
	case PhaseResolve:
		return "resolve"
	}
	return fmt.Sprintf("Phase(%d)", int(p))
}

// Diagnostic is a single static error tied to a source line.
type Diagnostic struct {
	Phase   Phase
	Line    int    // 1-based
	Where   string // " at 'x'", " at end", or empty
	Message string
}

func (d *Diagnostic) Error() string {
	return fmt.Sprintf("[line %d] Error%s: %s", d.Line, d.Where, d.Message)
}

// Diagnostics is the error returned for every static failure of a run.
type Diagnostics []*Diagnostic

func (ds Diagnostics) Error() string {
	lines := make([]string, len(ds))
	for i, d := range ds {
		lines[i] = d.Error()
	}
	return strings.Join(lines, "\n")
}

// Err returns ds as an error, or nil when there are no diagnostics.
func (ds Diagnostics) Err() error {
	if len(ds) == 0 {
		return nil
	}
	return ds
}

// whereToken renders the location suffix used for token-anchored errors.
func whereToken(tok Token) string {
	if tok.Type == TokenEOF {
		return " at end"
	}
	return fmt.Sprintf(" at '%s'", tok.Lexeme)
}
