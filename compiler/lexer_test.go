package compiler

import (
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func tokenTypes(tokens []Token) []TokenType {
	types := make([]TokenType, len(tokens))
	for i, tok := range tokens {
		types[i] = tok.Type
	}
	return types
}

func TestLexerBasicTokens(t *testing.T) {
	input := `( ) { } , . - + ; / * ! != = == > >= < <=`
	expected := []struct {
		typ TokenType
		lit string
	}{
		{TokenLeftParen, "("},
		{TokenRightParen, ")"},
		{TokenLeftBrace, "{"},
		{TokenRightBrace, "}"},
		{TokenComma, ","},
		{TokenDot, "."},
		{TokenMinus, "-"},
		{TokenPlus, "+"},
		{TokenSemicolon, ";"},
		{TokenSlash, "/"},
		{TokenStar, "*"},
		{TokenBang, "!"},
		{TokenBangEqual, "!="},
		{TokenEqual, "="},
		{TokenEqualEqual, "=="},
		{TokenGreater, ">"},
		{TokenGreaterEqual, ">="},
		{TokenLess, "<"},
		{TokenLessEqual, "<="},
		{TokenEOF, ""},
	}

	l := NewLexer(input)
	for i, exp := range expected {
		tok := l.NextToken()
		if tok.Type != exp.typ {
			t.Errorf("token[%d] type = %v, want %v", i, tok.Type, exp.typ)
		}
		if tok.Lexeme != exp.lit {
			t.Errorf("token[%d] lexeme = %q, want %q", i, tok.Lexeme, exp.lit)
		}
	}
	if errs := l.Errors(); len(errs) != 0 {
		t.Errorf("unexpected errors: %v", errs)
	}
}

func TestLexerNumbers(t *testing.T) {
	tests := []struct {
		input string
		want  []TokenType
		value float64
	}{
		{"42", []TokenType{TokenNumber, TokenEOF}, 42},
		{"0", []TokenType{TokenNumber, TokenEOF}, 0},
		{"3.14", []TokenType{TokenNumber, TokenEOF}, 3.14},
		{"1.", []TokenType{TokenNumber, TokenDot, TokenEOF}, 1},
		{".1", []TokenType{TokenDot, TokenNumber, TokenEOF}, 0},
		{"1.2.3", []TokenType{TokenNumber, TokenDot, TokenNumber, TokenEOF}, 1.2},
	}

	for _, tc := range tests {
		tokens := NewLexer(tc.input).ScanTokens()
		if diff := cmp.Diff(tc.want, tokenTypes(tokens)); diff != "" {
			t.Errorf("Lexer(%q) types mismatch (-want +got):\n%s", tc.input, diff)
			continue
		}
		if tokens[0].Type == TokenNumber && tokens[0].Literal != tc.value {
			t.Errorf("Lexer(%q) literal = %v, want %v", tc.input, tokens[0].Literal, tc.value)
		}
	}
}

func TestLexerStrings(t *testing.T) {
	l := NewLexer("\"hello\" \"two\nlines\" x")
	tokens := l.ScanTokens()

	if tokens[0].Type != TokenString || tokens[0].Literal != "hello" {
		t.Errorf("token[0] = %v, want STRING hello", tokens[0])
	}
	if tokens[1].Literal != "two\nlines" || tokens[1].Line != 1 {
		t.Errorf("token[1] = %v line %d, want multi-line string on line 1", tokens[1], tokens[1].Line)
	}
	if tokens[2].Type != TokenIdentifier || tokens[2].Line != 2 {
		t.Errorf("token[2] = %v line %d, want IDENTIFIER on line 2", tokens[2], tokens[2].Line)
	}
}

func TestLexerUnterminatedString(t *testing.T) {
	l := NewLexer("var a;\n\"never\nclosed")
	tokens := l.ScanTokens()

	want := []TokenType{TokenVar, TokenIdentifier, TokenSemicolon, TokenEOF}
	if diff := cmp.Diff(want, tokenTypes(tokens)); diff != "" {
		t.Errorf("types mismatch (-want +got):\n%s", diff)
	}
	errs := l.Errors()
	if len(errs) != 1 {
		t.Fatalf("got %d errors, want 1: %v", len(errs), errs)
	}
	if errs[0].Line != 2 || errs[0].Message != "Unterminated string." {
		t.Errorf("error = %v, want unterminated string at line 2", errs[0])
	}
}

func TestLexerIdentifiersAndKeywords(t *testing.T) {
	input := "and class else false for fun if nil or print return super this true var while orchid _x1"
	want := []TokenType{
		TokenAnd, TokenClass, TokenElse, TokenFalse, TokenFor, TokenFun, TokenIf, TokenNil,
		TokenOr, TokenPrint, TokenReturn, TokenSuper, TokenThis, TokenTrue, TokenVar, TokenWhile,
		TokenIdentifier, TokenIdentifier, TokenEOF,
	}
	got := tokenTypes(NewLexer(input).ScanTokens())
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("types mismatch (-want +got):\n%s", diff)
	}
}

func TestLexerCommentsAndLines(t *testing.T) {
	input := "// leading comment\nprint 1; // trailing\n\nprint 2;"
	tokens := NewLexer(input).ScanTokens()

	var lines []int
	for _, tok := range tokens {
		if tok.Type == TokenPrint {
			lines = append(lines, tok.Line)
		}
	}
	if diff := cmp.Diff([]int{2, 4}, lines); diff != "" {
		t.Errorf("print lines mismatch (-want +got):\n%s", diff)
	}
}

func TestLexerUnexpectedCharactersContinue(t *testing.T) {
	l := NewLexer("@ 1\n# 2")
	tokens := l.ScanTokens()

	want := []TokenType{TokenNumber, TokenNumber, TokenEOF}
	if diff := cmp.Diff(want, tokenTypes(tokens)); diff != "" {
		t.Errorf("types mismatch (-want +got):\n%s", diff)
	}
	errs := l.Errors()
	if len(errs) != 2 {
		t.Fatalf("got %d errors, want 2", len(errs))
	}
	if errs[0].Line != 1 || errs[1].Line != 2 {
		t.Errorf("error lines = %d, %d; want 1, 2", errs[0].Line, errs[1].Line)
	}
	if !strings.Contains(errs[0].Error(), "Unexpected character.") {
		t.Errorf("error text = %q", errs[0].Error())
	}
}

func TestLexerTokensRestartable(t *testing.T) {
	l := NewLexer("var x = 1; @")
	first := l.ScanTokens()
	second := l.ScanTokens()

	if diff := cmp.Diff(first, second); diff != "" {
		t.Errorf("second scan differs (-first +second):\n%s", diff)
	}
	if len(l.Errors()) != 1 {
		t.Errorf("errors after rescan = %d, want 1", len(l.Errors()))
	}

	// Stopping early must not break the next full scan.
	for tok := range l.Tokens() {
		if tok.Type == TokenIdentifier {
			break
		}
	}
	if got := len(l.ScanTokens()); got != len(first) {
		t.Errorf("token count after early stop = %d, want %d", got, len(first))
	}
}
