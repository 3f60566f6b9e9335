// Package ast defines the weld language syntax tree. Transform passes never
// mutate nodes in place; they build new nodes and share untouched subtrees.
package ast

// Node is the interface for all AST nodes.
type Node interface {
	node()
}

// Statement is the interface for statement nodes.
type Statement interface {
	Node
	stmt()
	StmtLine() int
}

// BaseStmt provides common fields for all statements.
type BaseStmt struct {
	SourceLine int // start line in the original source
}

func (b BaseStmt) StmtLine() int { return b.SourceLine }

// Expr is the interface for expression nodes.
type Expr interface {
	Node
	expr()
}

// Program is the root node.
type Program struct {
	Statements []Statement
	SourceFile string // display path of the source file
}

func (p *Program) node() {}

// Param is a declared parameter, optionally annotated with a type.
type Param struct {
	Name string
	Type *Type // nil if unannotated
}

// FuncDecl represents func name(params) [: type] { body }.
type FuncDecl struct {
	BaseStmt
	Name   string
	Params []Param
	Result *Type // nil if unannotated
	Body   []Statement
}

func (f *FuncDecl) node() {}
func (f *FuncDecl) stmt() {}

// TemplateDecl represents inline func (recv) name(params) [: type] with
// either a statement body or an expression body (= expr).
type TemplateDecl struct {
	BaseStmt
	Receiver Param
	Name     string
	Params   []Param
	Result   *Type
	Body     []Statement // statement-form body
	Expr     Expr        // expression-form body (mutually exclusive with Body)
}

func (t *TemplateDecl) node() {}
func (t *TemplateDecl) stmt() {}

// LetStmt represents let name [: type] = value.
type LetStmt struct {
	BaseStmt
	Name  string
	Type  *Type // nil if unannotated
	Value Expr
}

func (l *LetStmt) node() {}
func (l *LetStmt) stmt() {}

// AssignStmt represents target = value.
type AssignStmt struct {
	BaseStmt
	Target string
	Value  Expr
}

func (a *AssignStmt) node() {}
func (a *AssignStmt) stmt() {}

// IndexAssignStmt represents obj[index] = value.
type IndexAssignStmt struct {
	BaseStmt
	Object Expr
	Index  Expr
	Value  Expr
}

func (ia *IndexAssignStmt) node() {}
func (ia *IndexAssignStmt) stmt() {}

// DotAssignStmt represents obj.field = value.
type DotAssignStmt struct {
	BaseStmt
	Object Expr
	Field  string
	Value  Expr
}

func (da *DotAssignStmt) node() {}
func (da *DotAssignStmt) stmt() {}

// IfStmt represents if cond { } else { }. An else-if chain is a single
// nested IfStmt in Else.
type IfStmt struct {
	BaseStmt
	Cond Expr
	Body []Statement
	Else []Statement
}

func (i *IfStmt) node() {}
func (i *IfStmt) stmt() {}

// WhileStmt represents while cond { }.
type WhileStmt struct {
	BaseStmt
	Cond Expr
	Body []Statement
}

func (w *WhileStmt) node() {}
func (w *WhileStmt) stmt() {}

// LoopStmt represents loop { }, an unconditional loop exited via break.
type LoopStmt struct {
	BaseStmt
	Body []Statement
}

func (l *LoopStmt) node() {}
func (l *LoopStmt) stmt() {}

// ForInStmt represents for var in collection { }.
type ForInStmt struct {
	BaseStmt
	Var        string
	Collection Expr
	Body       []Statement
}

func (f *ForInStmt) node() {}
func (f *ForInStmt) stmt() {}

// ForStmt represents for init; cond; post { }. Init and Post are restricted
// by the parser to let/assignment/expression statements and may be nil.
type ForStmt struct {
	BaseStmt
	Init Statement
	Cond Expr
	Post Statement
	Body []Statement
}

func (f *ForStmt) node() {}
func (f *ForStmt) stmt() {}

// SwitchCase is one case arm of a SwitchStmt.
type SwitchCase struct {
	Values []Expr
	Body   []Statement
}

// SwitchStmt represents switch subject { case v1, v2: ... default: ... }.
// Cases do not fall through.
type SwitchStmt struct {
	BaseStmt
	Subject Expr
	Cases   []SwitchCase
	Default []Statement // nil if absent
	HasDflt bool
}

func (s *SwitchStmt) node() {}
func (s *SwitchStmt) stmt() {}

// BreakStmt represents break.
type BreakStmt struct{ BaseStmt }

func (b *BreakStmt) node() {}
func (b *BreakStmt) stmt() {}

// ContinueStmt represents continue.
type ContinueStmt struct{ BaseStmt }

func (c *ContinueStmt) node() {}
func (c *ContinueStmt) stmt() {}

// ReturnStmt represents return [expr].
type ReturnStmt struct {
	BaseStmt
	Value Expr // nil if bare return
}

func (r *ReturnStmt) node() {}
func (r *ReturnStmt) stmt() {}

// ExprStmt is a statement that is just an expression.
type ExprStmt struct {
	BaseStmt
	Expression Expr
}

func (e *ExprStmt) node() {}
func (e *ExprStmt) stmt() {}

// BinaryExpr represents left op right.
type BinaryExpr struct {
	Left  Expr
	Op    string
	Right Expr
}

func (b *BinaryExpr) node() {}
func (b *BinaryExpr) expr() {}

// UnaryExpr represents op operand.
type UnaryExpr struct {
	Op      string
	Operand Expr
}

func (u *UnaryExpr) node() {}
func (u *UnaryExpr) expr() {}

// TernaryExpr represents cond ? then : else.
type TernaryExpr struct {
	Cond Expr
	Then Expr
	Else Expr
}

func (t *TernaryExpr) node() {}
func (t *TernaryExpr) expr() {}

// CallExpr represents func(args...). Method calls are a CallExpr whose Func
// is a DotExpr.
type CallExpr struct {
	Func Expr
	Args []Expr
}

func (c *CallExpr) node() {}
func (c *CallExpr) expr() {}

// IndexExpr represents obj[index].
type IndexExpr struct {
	Object Expr
	Index  Expr
}

func (i *IndexExpr) node() {}
func (i *IndexExpr) expr() {}

// DotExpr represents obj.field.
type DotExpr struct {
	Object Expr
	Field  string
}

func (d *DotExpr) node() {}
func (d *DotExpr) expr() {}

// IdentExpr is a variable/function reference.
type IdentExpr struct {
	Name string
}

func (i *IdentExpr) node() {}
func (i *IdentExpr) expr() {}

// ParenExpr is an explicitly parenthesized expression. Substitution passes
// wrap non-atomic replacements in ParenExpr to preserve precedence.
type ParenExpr struct {
	Inner Expr
}

func (p *ParenExpr) node() {}
func (p *ParenExpr) expr() {}

// IntLiteral is an integer literal.
type IntLiteral struct {
	Value string
}

func (i *IntLiteral) node() {}
func (i *IntLiteral) expr() {}

// FloatLiteral is a floating point literal.
type FloatLiteral struct {
	Value string
}

func (f *FloatLiteral) node() {}
func (f *FloatLiteral) expr() {}

// StringLiteral is a string literal (with quotes stripped).
type StringLiteral struct {
	Value string
}

func (s *StringLiteral) node() {}
func (s *StringLiteral) expr() {}

// BoolLiteral is true or false.
type BoolLiteral struct {
	Value bool
}

func (b *BoolLiteral) node() {}
func (b *BoolLiteral) expr() {}

// NilLiteral represents nil.
type NilLiteral struct{}

func (n *NilLiteral) node() {}
func (n *NilLiteral) expr() {}

// ArrayLiteral is [elem, ...].
type ArrayLiteral struct {
	Elements []Expr
}

func (a *ArrayLiteral) node() {}
func (a *ArrayLiteral) expr() {}

// LambdaExpr represents |params| expr or |params| { stmts }, the behavior
// literal form. Exactly one of Expr and Body is set.
type LambdaExpr struct {
	Params []string
	Expr   Expr        // expression-form body
	Body   []Statement // block-form body
}

func (l *LambdaExpr) node() {}
func (l *LambdaExpr) expr() {}

// IsExprForm reports whether the lambda has a single-expression body.
func (l *LambdaExpr) IsExprForm() bool { return l.Expr != nil }
