package compiler

import (
	"iter"
	"strconv"
	"unicode/utf8"
)

// ---------------------------------------------------------------------------
// Lexer: Tokenizer for Lox source
// ---------------------------------------------------------------------------

// Lexer tokenizes source code. It never stops on an error: bad input is
// recorded as a diagnostic and scanning resumes at the next character.
type Lexer struct {
	input   string
	start   int  // offset of the token being scanned
	pos     int  // current position in input
	readPos int  // reading position (after current char)
	ch      rune // current character
	line    int  // current line (1-based)
	errors  Diagnostics
}

// NewLexer creates a new lexer for the given input.
func NewLexer(input string) *Lexer {
	l := &Lexer{}
	l.reset(input)
	return l
}

func (l *Lexer) reset(input string) {
	*l = Lexer{input: input, line: 1}
	l.readChar()
}

// readChar reads the next character.
func (l *Lexer) readChar() {
	if l.ch == '\n' {
		l.line++
	}
	if l.readPos >= len(l.input) {
		l.ch = 0 // EOF
		l.pos = len(l.input)
		return
	}
	r, size := utf8.DecodeRuneInString(l.input[l.readPos:])
	l.ch = r
	l.pos = l.readPos
	l.readPos += size
}

// peekChar returns the next character without consuming it.
func (l *Lexer) peekChar() rune {
	if l.readPos >= len(l.input) {
		return 0
	}
	r, _ := utf8.DecodeRuneInString(l.input[l.readPos:])
	return r
}

func (l *Lexer) atEnd() bool {
	return l.pos >= len(l.input)
}

// Errors returns the lexical diagnostics collected so far.
func (l *Lexer) Errors() Diagnostics {
	return l.errors
}

func (l *Lexer) errorf(line int, msg string) {
	l.errors = append(l.errors, &Diagnostic{Phase: PhaseLex, Line: line, Message: msg})
}

// NextToken returns the next token. Once the input is exhausted it keeps
// returning EOF.
func (l *Lexer) NextToken() Token {
	for {
		l.skipWhitespaceAndComments()
		l.start = l.pos
		if l.atEnd() {
			return Token{Type: TokenEOF, Line: l.line}
		}

		ch := l.ch
		switch {
		case isDigit(ch):
			return l.readNumber()
		case isAlpha(ch):
			return l.readIdentifier()
		case ch == '"':
			if tok, ok := l.readString(); ok {
				return tok
			}
			continue
		}

		l.readChar()
		switch ch {
		case '(':
			return l.make(TokenLeftParen)
		case ')':
			return l.make(TokenRightParen)
		case '{':
			return l.make(TokenLeftBrace)
		case '}':
			return l.make(TokenRightBrace)
		case ',':
			return l.make(TokenComma)
		case '.':
			return l.make(TokenDot)
		case '-':
			return l.make(TokenMinus)
		case '+':
			return l.make(TokenPlus)
		case ';':
			return l.make(TokenSemicolon)
		case '*':
			return l.make(TokenStar)
		case '/':
			return l.make(TokenSlash)
		case '!':
			return l.makeEither('=', TokenBangEqual, TokenBang)
		case '=':
			return l.makeEither('=', TokenEqualEqual, TokenEqual)
		case '<':
			return l.makeEither('=', TokenLessEqual, TokenLess)
		case '>':
			return l.makeEither('=', TokenGreaterEqual, TokenGreater)
		}

		l.errorf(l.line, "Unexpected character.")
	}
}

// make builds a token from the text between start and the current position.
func (l *Lexer) make(t TokenType) Token {
	return Token{Type: t, Lexeme: l.input[l.start:l.pos], Line: l.line}
}

// makeEither consumes next and returns two if it is present, one otherwise.
func (l *Lexer) makeEither(next rune, two, one TokenType) Token {
	if !l.atEnd() && l.ch == next {
		l.readChar()
		return l.make(two)
	}
	return l.make(one)
}

// skipWhitespaceAndComments skips whitespace and // line comments.
func (l *Lexer) skipWhitespaceAndComments() {
	for !l.atEnd() {
		switch {
		case l.ch == ' ' || l.ch == '\t' || l.ch == '\r' || l.ch == '\n':
			l.readChar()
		case l.ch == '/' && l.peekChar() == '/':
			for !l.atEnd() && l.ch != '\n' {
				l.readChar()
			}
		default:
			return
		}
	}
}

// readString reads a double-quoted string. Strings may span lines and have
// no escape sequences. An unterminated string is reported at the line it
// started on and produces no token.
func (l *Lexer) readString() (Token, bool) {
	startLine := l.line
	l.readChar() // opening quote
	for !l.atEnd() && l.ch != '"' {
		l.readChar()
	}
	if l.atEnd() {
		l.errorf(startLine, "Unterminated string.")
		return Token{}, false
	}
	l.readChar() // closing quote

	lexeme := l.input[l.start:l.pos]
	return Token{
		Type:    TokenString,
		Lexeme:  lexeme,
		Literal: lexeme[1 : len(lexeme)-1],
		Line:    startLine,
	}, true
}

// readNumber reads digits with an optional fractional part. The dot is only
// consumed when a digit follows it, so "1." is NUMBER DOT.
func (l *Lexer) readNumber() Token {
	for isDigit(l.ch) {
		l.readChar()
	}
	if l.ch == '.' && isDigit(l.peekChar()) {
		l.readChar()
		for isDigit(l.ch) {
			l.readChar()
		}
	}

	tok := l.make(TokenNumber)
	// The lexeme is digits with at most one interior dot, which always parses.
	tok.Literal, _ = strconv.ParseFloat(tok.Lexeme, 64)
	return tok
}

// readIdentifier reads the longest identifier and then checks the reserved
// word table.
func (l *Lexer) readIdentifier() Token {
	for isAlpha(l.ch) || isDigit(l.ch) {
		l.readChar()
	}
	tok := l.make(TokenIdentifier)
	if t, ok := reservedWords[tok.Lexeme]; ok {
		tok.Type = t
	}
	return tok
}

// ScanTokens scans the whole input and returns every token, ending with EOF.
func (l *Lexer) ScanTokens() []Token {
	var tokens []Token
	for tok := range l.Tokens() {
		tokens = append(tokens, tok)
	}
	return tokens
}

// Tokens returns the token sequence of the input. Each call restarts the
// scan from the beginning and clears previously collected errors. The final
// token yielded is always EOF.
func (l *Lexer) Tokens() iter.Seq[Token] {
	return func(yield func(Token) bool) {
		l.reset(l.input)
		for {
			tok := l.NextToken()
			if !yield(tok) || tok.Type == TokenEOF {
				return
			}
		}
	}
}

func isDigit(r rune) bool {
	return r >= '0' && r <= '9'
}

func isAlpha(r rune) bool {
	return (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z') || r == '_'
}
