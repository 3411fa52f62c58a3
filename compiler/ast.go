package compiler

// ---------------------------------------------------------------------------
// AST: Abstract Syntax Tree
// ---------------------------------------------------------------------------

// Node is the interface implemented by all AST nodes.
type Node interface {
	Line() int
	node() // marker method
}

// ---------------------------------------------------------------------------
// Expression nodes
// ---------------------------------------------------------------------------

// Expr is the interface for expression nodes. Expression nodes are always
// pointers; their identity keys the resolver's Locals map.
type Expr interface {
	Node
	expr() // marker method
}

// Literal represents nil, a boolean, a number or a string.
type Literal struct {
	Value any // nil, bool, float64 or string
	Ln    int
}

func (n *Literal) Line() int { return n.Ln }
func (n *Literal) node()     {}
func (n *Literal) expr()     {}

// Grouping represents a parenthesized expression.
type Grouping struct {
	Expression Expr
}

func (n *Grouping) Line() int { return n.Expression.Line() }
func (n *Grouping) node()     {}
func (n *Grouping) expr()     {}

// Unary represents a prefix operator (! or -).
type Unary struct {
	Operator Token
	Right    Expr
}

func (n *Unary) Line() int { return n.Operator.Line }
func (n *Unary) node()     {}
func (n *Unary) expr()     {}

// Binary represents an arithmetic, comparison or equality operator.
type Binary struct {
	Left     Expr
	Operator Token
	Right    Expr
}

func (n *Binary) Line() int { return n.Operator.Line }
func (n *Binary) node()     {}
func (n *Binary) expr()     {}

// Logical represents a short-circuiting and/or.
type Logical struct {
	Left     Expr
	Operator Token
	Right    Expr
}

func (n *Logical) Line() int { return n.Operator.Line }
func (n *Logical) node()     {}
func (n *Logical) expr()     {}

// Variable represents a variable reference.
type Variable struct {
	Name Token
}

func (n *Variable) Line() int { return n.Name.Line }
func (n *Variable) node()     {}
func (n *Variable) expr()     {}

// Assign represents a variable assignment (x = expr).
type Assign struct {
	Name  Token
	Value Expr
}

func (n *Assign) Line() int { return n.Name.Line }
func (n *Assign) node()     {}
func (n *Assign) expr()     {}

// Call represents a call expression callee(args...).
type Call struct {
	Callee    Expr
	Paren     Token // closing paren, used for error reporting
	Arguments []Expr
}

func (n *Call) Line() int { return n.Paren.Line }
func (n *Call) node()     {}
func (n *Call) expr()     {}

// Get represents a property read (obj.name).
type Get struct {
	Object Expr
	Name   Token
}

func (n *Get) Line() int { return n.Name.Line }
func (n *Get) node()     {}
func (n *Get) expr()     {}

// Set represents a property write (obj.name = value).
type Set struct {
	Object Expr
	Name   Token
	Value  Expr
}

func (n *Set) Line() int { return n.Name.Line }
func (n *Set) node()     {}
func (n *Set) expr()     {}

// This represents the receiver inside a method body.
type This struct {
	Keyword Token
}

func (n *This) Line() int { return n.Keyword.Line }
func (n *This) node()     {}
func (n *This) expr()     {}

// Super represents a superclass method lookup (super.method).
type Super struct {
	Keyword Token
	Method  Token
}

func (n *Super) Line() int { return n.Keyword.Line }
func (n *Super) node()     {}
func (n *Super) expr()     {}

// ---------------------------------------------------------------------------
// Statement nodes
// ---------------------------------------------------------------------------

// Stmt is the interface for statement nodes.
type Stmt interface {
	Node
	stmt() // marker method
}

// ExprStmt represents an expression evaluated for its effects.
type ExprStmt struct {
	Expr Expr
}

func (n *ExprStmt) Line() int { return n.Expr.Line() }
func (n *ExprStmt) node()     {}
func (n *ExprStmt) stmt()     {}

// Print represents a print statement.
type Print struct {
	Keyword Token
	Expr    Expr
}

func (n *Print) Line() int { return n.Keyword.Line }
func (n *Print) node()     {}
func (n *Print) stmt()     {}

// Var represents a variable declaration with an optional initializer.
type Var struct {
	Name        Token
	Initializer Expr // nil if absent
}

func (n *Var) Line() int { return n.Name.Line }
func (n *Var) node()     {}
func (n *Var) stmt()     {}

// Block represents a braced statement list with its own scope.
type Block struct {
	Statements []Stmt
	Ln         int
}

func (n *Block) Line() int { return n.Ln }
func (n *Block) node()     {}
func (n *Block) stmt()     {}

// If represents a conditional.
type If struct {
	Keyword    Token
	Condition  Expr
	ThenBranch Stmt
	ElseBranch Stmt // nil if absent
}

func (n *If) Line() int { return n.Keyword.Line }
func (n *If) node()     {}
func (n *If) stmt()     {}

// While represents a loop. for loops are desugared into While.
type While struct {
	Keyword   Token
	Condition Expr
	Body      Stmt
}

func (n *While) Line() int { return n.Keyword.Line }
func (n *While) node()     {}
func (n *While) stmt()     {}

// Function represents a function declaration or a class method.
type Function struct {
	Name   Token
	Params []Token
	Body   []Stmt
}

func (n *Function) Line() int { return n.Name.Line }
func (n *Function) node()     {}
func (n *Function) stmt()     {}

// Return represents a return statement.
type Return struct {
	Keyword Token
	Value   Expr // nil for a bare return
}

func (n *Return) Line() int { return n.Keyword.Line }
func (n *Return) node()     {}
func (n *Return) stmt()     {}

// Class represents a class declaration.
type Class struct {
	Name       Token
	Superclass *Variable // nil if absent
	Methods    []*Function
}

func (n *Class) Line() int { return n.Name.Line }
func (n *Class) node()     {}
func (n *Class) stmt()     {}
