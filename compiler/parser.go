package compiler

import (
	"fmt"
	"slices"
)

// ---------------------------------------------------------------------------
// Parser: Recursive descent parser
// ---------------------------------------------------------------------------

// maxArgs bounds both call arguments and function parameters.
const maxArgs = 255

// Parser parses source code into a list of statements.
//
// Grammar, lowest to highest precedence:
//
//	program     → declaration* EOF
//	declaration → classDecl | funDecl | varDecl | statement
//	classDecl   → "class" IDENTIFIER ( "<" IDENTIFIER )? "{" function* "}"
//	funDecl     → "fun" function
//	function    → IDENTIFIER "(" parameters? ")" block
//	varDecl     → "var" IDENTIFIER ( "=" expression )? ";"
//	statement   → exprStmt | forStmt | ifStmt | printStmt | returnStmt | whileStmt | block
//	expression  → assignment
//	assignment  → ( call "." )? IDENTIFIER "=" assignment | logic_or
//	logic_or    → logic_and ( "or" logic_and )*
//	logic_and   → equality ( "and" equality )*
//	equality    → comparison ( ( "!=" | "==" ) comparison )*
//	comparison  → term ( ( ">" | ">=" | "<" | "<=" ) term )*
//	term        → factor ( ( "-" | "+" ) factor )*
//	factor      → unary ( ( "/" | "*" ) unary )*
//	unary       → ( "!" | "-" ) unary | call
//	call        → primary ( "(" arguments? ")" | "." IDENTIFIER )*
//	primary     → "true" | "false" | "nil" | "this" | NUMBER | STRING
//	            | IDENTIFIER | "(" expression ")" | "super" "." IDENTIFIER
type Parser struct {
	lexer     *Lexer
	prevToken Token
	curToken  Token
	errors    Diagnostics
}

// parseError unwinds the parser to the nearest declaration boundary.
type parseError struct{}

// NewParser creates a new parser for the given input.
func NewParser(input string) *Parser {
	p := &Parser{lexer: NewLexer(input)}
	p.curToken = p.lexer.NextToken()
	return p
}

// Errors returns lexical and parse diagnostics ordered by line.
func (p *Parser) Errors() Diagnostics {
	all := make(Diagnostics, 0, len(p.lexer.Errors())+len(p.errors))
	all = append(all, p.lexer.Errors()...)
	all = append(all, p.errors...)
	slices.SortStableFunc(all, func(a, b *Diagnostic) int { return a.Line - b.Line })
	return all
}

// Parse parses the whole input. Statements that failed to parse are
// dropped; check Errors before using the result.
func (p *Parser) Parse() []Stmt {
	var stmts []Stmt
	for !p.isAtEnd() {
		if stmt := p.declaration(); stmt != nil {
			stmts = append(stmts, stmt)
		}
	}
	return stmts
}

// ParseExpression parses a single expression followed by EOF.
func (p *Parser) ParseExpression() (expr Expr) {
	defer func() {
		if r := recover(); r != nil {
			if _, ok := r.(parseError); !ok {
				panic(r)
			}
			expr = nil
		}
	}()
	expr = p.expression()
	if !p.isAtEnd() {
		panic(p.errorAt(p.curToken, "Expect end of expression."))
	}
	return expr
}

// ---------------------------------------------------------------------------
// Token helpers
// ---------------------------------------------------------------------------

func (p *Parser) isAtEnd() bool {
	return p.curToken.Type == TokenEOF
}

// advance consumes the current token and returns it.
func (p *Parser) advance() Token {
	if !p.isAtEnd() {
		p.prevToken = p.curToken
		p.curToken = p.lexer.NextToken()
	}
	return p.prevToken
}

// check reports whether the current token has type t.
func (p *Parser) check(t TokenType) bool {
	return p.curToken.Type == t
}

// match consumes the current token if it has one of the given types.
func (p *Parser) match(types ...TokenType) bool {
	for _, t := range types {
		if p.check(t) {
			p.advance()
			return true
		}
	}
	return false
}

// consume advances past a token of type t, or fails the current declaration.
func (p *Parser) consume(t TokenType, msg string) Token {
	if p.check(t) {
		return p.advance()
	}
	panic(p.errorAt(p.curToken, msg))
}

// errorAt records a parse error and returns the value to panic with when
// the caller cannot continue.
func (p *Parser) errorAt(tok Token, msg string) parseError {
	p.errors = append(p.errors, &Diagnostic{
		Phase:   PhaseParse,
		Line:    tok.Line,
		Where:   whereToken(tok),
		Message: msg,
	})
	return parseError{}
}

// synchronize discards tokens until a likely statement boundary.
func (p *Parser) synchronize() {
	p.advance()
	for !p.isAtEnd() {
		if p.prevToken.Type == TokenSemicolon {
			return
		}
		switch p.curToken.Type {
		case TokenClass, TokenFun, TokenVar, TokenFor, TokenIf, TokenWhile, TokenPrint, TokenReturn:
			return
		}
		p.advance()
	}
}

// ---------------------------------------------------------------------------
// Declarations
// ---------------------------------------------------------------------------

func (p *Parser) declaration() (stmt Stmt) {
	defer func() {
		if r := recover(); r != nil {
			if _, ok := r.(parseError); !ok {
				panic(r)
			}
			p.synchronize()
			stmt = nil
		}
	}()

	switch {
	case p.match(TokenClass):
		return p.classDeclaration()
	case p.match(TokenFun):
		return p.function("function")
	case p.match(TokenVar):
		return p.varDeclaration()
	}
	return p.statement()
}

func (p *Parser) classDeclaration() Stmt {
	name := p.consume(TokenIdentifier, "Expect class name.")

	var superclass *Variable
	if p.match(TokenLess) {
		p.consume(TokenIdentifier, "Expect superclass name.")
		superclass = &Variable{Name: p.prevToken}
	}

	p.consume(TokenLeftBrace, "Expect '{' before class body.")
	var methods []*Function
	for !p.check(TokenRightBrace) && !p.isAtEnd() {
		methods = append(methods, p.function("method"))
	}
	p.consume(TokenRightBrace, "Expect '}' after class body.")

	return &Class{Name: name, Superclass: superclass, Methods: methods}
}

// function parses a function or method after its leading keyword, if any.
func (p *Parser) function(kind string) *Function {
	name := p.consume(TokenIdentifier, fmt.Sprintf("Expect %s name.", kind))
	p.consume(TokenLeftParen, fmt.Sprintf("Expect '(' after %s name.", kind))

	var params []Token
	if !p.check(TokenRightParen) {
		for {
			if len(params) >= maxArgs {
				p.errorAt(p.curToken, fmt.Sprintf("Can't have more than %d parameters.", maxArgs))
			}
			params = append(params, p.consume(TokenIdentifier, "Expect parameter name."))
			if !p.match(TokenComma) {
				break
			}
		}
	}
	p.consume(TokenRightParen, "Expect ')' after parameters.")

	p.consume(TokenLeftBrace, fmt.Sprintf("Expect '{' before %s body.", kind))
	body := p.block()
	return &Function{Name: name, Params: params, Body: body}
}

func (p *Parser) varDeclaration() Stmt {
	name := p.consume(TokenIdentifier, "Expect variable name.")

	var initializer Expr
	if p.match(TokenEqual) {
		initializer = p.expression()
	}
	p.consume(TokenSemicolon, "Expect ';' after variable declaration.")
	return &Var{Name: name, Initializer: initializer}
}

// ---------------------------------------------------------------------------
// Statements
// ---------------------------------------------------------------------------

func (p *Parser) statement() Stmt {
	switch {
	case p.match(TokenFor):
		return p.forStatement()
	case p.match(TokenIf):
		return p.ifStatement()
	case p.match(TokenPrint):
		return p.printStatement()
	case p.match(TokenReturn):
		return p.returnStatement()
	case p.match(TokenWhile):
		return p.whileStatement()
	case p.match(TokenLeftBrace):
		line := p.prevToken.Line
		return &Block{Statements: p.block(), Ln: line}
	}
	return p.expressionStatement()
}

// forStatement desugars a for loop into an equivalent while loop:
//
//	{ initializer; while (condition) { body; increment; } }
func (p *Parser) forStatement() Stmt {
	keyword := p.prevToken
	p.consume(TokenLeftParen, "Expect '(' after 'for'.")

	var initializer Stmt
	switch {
	case p.match(TokenSemicolon):
		// no initializer
	case p.match(TokenVar):
		initializer = p.varDeclaration()
	default:
		initializer = p.expressionStatement()
	}

	var condition Expr
	if !p.check(TokenSemicolon) {
		condition = p.expression()
	}
	p.consume(TokenSemicolon, "Expect ';' after loop condition.")

	var increment Expr
	if !p.check(TokenRightParen) {
		increment = p.expression()
	}
	p.consume(TokenRightParen, "Expect ')' after for clauses.")

	body := p.statement()

	if increment != nil {
		body = &Block{Statements: []Stmt{body, &ExprStmt{Expr: increment}}, Ln: body.Line()}
	}
	if condition == nil {
		condition = &Literal{Value: true, Ln: keyword.Line}
	}
	body = &While{Keyword: keyword, Condition: condition, Body: body}

	if initializer != nil {
		body = &Block{Statements: []Stmt{initializer, body}, Ln: keyword.Line}
	}
	return body
}

func (p *Parser) ifStatement() Stmt {
	keyword := p.prevToken
	p.consume(TokenLeftParen, "Expect '(' after 'if'.")
	condition := p.expression()
	p.consume(TokenRightParen, "Expect ')' after if condition.")

	thenBranch := p.statement()
	var elseBranch Stmt
	if p.match(TokenElse) {
		elseBranch = p.statement()
	}
	return &If{Keyword: keyword, Condition: condition, ThenBranch: thenBranch, ElseBranch: elseBranch}
}

func (p *Parser) printStatement() Stmt {
	keyword := p.prevToken
	value := p.expression()
	p.consume(TokenSemicolon, "Expect ';' after value.")
	return &Print{Keyword: keyword, Expr: value}
}

func (p *Parser) returnStatement() Stmt {
	keyword := p.prevToken
	var value Expr
	if !p.check(TokenSemicolon) {
		value = p.expression()
	}
	p.consume(TokenSemicolon, "Expect ';' after return value.")
	return &Return{Keyword: keyword, Value: value}
}

func (p *Parser) whileStatement() Stmt {
	keyword := p.prevToken
	p.consume(TokenLeftParen, "Expect '(' after 'while'.")
	condition := p.expression()
	p.consume(TokenRightParen, "Expect ')' after condition.")
	body := p.statement()
	return &While{Keyword: keyword, Condition: condition, Body: body}
}

// block parses declarations up to and including the closing brace. The
// opening brace has already been consumed.
func (p *Parser) block() []Stmt {
	var stmts []Stmt
	for !p.check(TokenRightBrace) && !p.isAtEnd() {
		if stmt := p.declaration(); stmt != nil {
			stmts = append(stmts, stmt)
		}
	}
	p.consume(TokenRightBrace, "Expect '}' after block.")
	return stmts
}

func (p *Parser) expressionStatement() Stmt {
	expr := p.expression()
	p.consume(TokenSemicolon, "Expect ';' after expression.")
	return &ExprStmt{Expr: expr}
}

// ---------------------------------------------------------------------------
// Expressions
// ---------------------------------------------------------------------------

func (p *Parser) expression() Expr {
	return p.assignment()
}

func (p *Parser) assignment() Expr {
	expr := p.or()

	if p.match(TokenEqual) {
		equals := p.prevToken
		value := p.assignment()

		switch target := expr.(type) {
		case *Variable:
			return &Assign{Name: target.Name, Value: value}
		case *Get:
			return &Set{Object: target.Object, Name: target.Name, Value: value}
		}
		// Reported, but the statement is still well formed.
		p.errorAt(equals, "Invalid assignment target.")
	}
	return expr
}

func (p *Parser) or() Expr {
	expr := p.and()
	for p.match(TokenOr) {
		operator := p.prevToken
		right := p.and()
		expr = &Logical{Left: expr, Operator: operator, Right: right}
	}
	return expr
}

func (p *Parser) and() Expr {
	expr := p.equality()
	for p.match(TokenAnd) {
		operator := p.prevToken
		right := p.equality()
		expr = &Logical{Left: expr, Operator: operator, Right: right}
	}
	return expr
}

// binaryLevel parses a left-associative level of binary operators.
func (p *Parser) binaryLevel(next func() Expr, ops ...TokenType) Expr {
	expr := next()
	for p.match(ops...) {
		operator := p.prevToken
		right := next()
		expr = &Binary{Left: expr, Operator: operator, Right: right}
	}
	return expr
}

func (p *Parser) equality() Expr {
	return p.binaryLevel(p.comparison, TokenBangEqual, TokenEqualEqual)
}

func (p *Parser) comparison() Expr {
	return p.binaryLevel(p.term, TokenGreater, TokenGreaterEqual, TokenLess, TokenLessEqual)
}

func (p *Parser) term() Expr {
	return p.binaryLevel(p.factor, TokenMinus, TokenPlus)
}

func (p *Parser) factor() Expr {
	return p.binaryLevel(p.unary, TokenSlash, TokenStar)
}

func (p *Parser) unary() Expr {
	if p.match(TokenBang, TokenMinus) {
		operator := p.prevToken
		right := p.unary()
		return &Unary{Operator: operator, Right: right}
	}
	return p.call()
}

func (p *Parser) call() Expr {
	expr := p.primary()
	for {
		switch {
		case p.match(TokenLeftParen):
			expr = p.finishCall(expr)
		case p.match(TokenDot):
			name := p.consume(TokenIdentifier, "Expect property name after '.'.")
			expr = &Get{Object: expr, Name: name}
		default:
			return expr
		}
	}
}

func (p *Parser) finishCall(callee Expr) Expr {
	var args []Expr
	if !p.check(TokenRightParen) {
		for {
			if len(args) >= maxArgs {
				p.errorAt(p.curToken, fmt.Sprintf("Can't have more than %d arguments.", maxArgs))
			}
			args = append(args, p.expression())
			if !p.match(TokenComma) {
				break
			}
		}
	}
	paren := p.consume(TokenRightParen, "Expect ')' after arguments.")
	return &Call{Callee: callee, Paren: paren, Arguments: args}
}

func (p *Parser) primary() Expr {
	tok := p.curToken
	switch {
	case p.match(TokenFalse):
		return &Literal{Value: false, Ln: tok.Line}
	case p.match(TokenTrue):
		return &Literal{Value: true, Ln: tok.Line}
	case p.match(TokenNil):
		return &Literal{Value: nil, Ln: tok.Line}
	case p.match(TokenNumber, TokenString):
		return &Literal{Value: tok.Literal, Ln: tok.Line}
	case p.match(TokenThis):
		return &This{Keyword: tok}
	case p.match(TokenSuper):
		p.consume(TokenDot, "Expect '.' after 'super'.")
		method := p.consume(TokenIdentifier, "Expect superclass method name.")
		return &Super{Keyword: tok, Method: method}
	case p.match(TokenIdentifier):
		return &Variable{Name: tok}
	case p.match(TokenLeftParen):
		expr := p.expression()
		p.consume(TokenRightParen, "Expect ')' after expression.")
		return &Grouping{Expression: expr}
	}
	panic(p.errorAt(tok, "Expect expression."))
}
