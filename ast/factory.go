package ast

// Factory centralizes AST node creation for transform passes. It keeps the
// engine's tree surgery terse and gives a single place to hang construction
// invariants.
type Factory struct{}

// NewFactory returns a new Factory.
func NewFactory() *Factory { return &Factory{} }

// ProgramFrom creates a new Program copying metadata from src with new statements.
func (f *Factory) ProgramFrom(src *Program, stmts []Statement) *Program {
	return &Program{Statements: stmts, SourceFile: src.SourceFile}
}

// Ident creates an identifier reference.
func (f *Factory) Ident(name string) *IdentExpr { return &IdentExpr{Name: name} }

// Let creates an unannotated let declaration.
func (f *Factory) Let(name string, value Expr, line int) *LetStmt {
	return &LetStmt{BaseStmt: BaseStmt{SourceLine: line}, Name: name, Value: value}
}

// TypedLet creates an annotated let declaration.
func (f *Factory) TypedLet(name string, typ *Type, value Expr, line int) *LetStmt {
	return &LetStmt{BaseStmt: BaseStmt{SourceLine: line}, Name: name, Type: typ, Value: value}
}

// Assign creates an assignment statement.
func (f *Factory) Assign(target string, value Expr, line int) *AssignStmt {
	return &AssignStmt{BaseStmt: BaseStmt{SourceLine: line}, Target: target, Value: value}
}

// If creates an if statement.
func (f *Factory) If(cond Expr, body, elseBody []Statement, line int) *IfStmt {
	return &IfStmt{BaseStmt: BaseStmt{SourceLine: line}, Cond: cond, Body: body, Else: elseBody}
}

// Loop creates an unconditional loop.
func (f *Factory) Loop(body []Statement, line int) *LoopStmt {
	return &LoopStmt{BaseStmt: BaseStmt{SourceLine: line}, Body: body}
}

// Break creates a break statement.
func (f *Factory) Break(line int) *BreakStmt {
	return &BreakStmt{BaseStmt: BaseStmt{SourceLine: line}}
}

// Return creates a return statement.
func (f *Factory) Return(value Expr, line int) *ReturnStmt {
	return &ReturnStmt{BaseStmt: BaseStmt{SourceLine: line}, Value: value}
}

// Not negates a condition, wrapping non-atomic operands in parens.
func (f *Factory) Not(cond Expr) *UnaryExpr {
	return &UnaryExpr{Op: "!", Operand: f.Paren(cond)}
}

// Eq creates an equality comparison.
func (f *Factory) Eq(left, right Expr) *BinaryExpr {
	return &BinaryExpr{Left: f.Paren(left), Op: "==", Right: f.Paren(right)}
}

// Or combines two conditions with ||.
func (f *Factory) Or(left, right Expr) *BinaryExpr {
	return &BinaryExpr{Left: left, Op: "||", Right: right}
}

// Bool creates a boolean literal.
func (f *Factory) Bool(v bool) *BoolLiteral { return &BoolLiteral{Value: v} }

// Nil creates a nil literal.
func (f *Factory) Nil() *NilLiteral { return &NilLiteral{} }

// Paren wraps e in parentheses unless it is atomic enough that precedence
// cannot be disturbed.
func (f *Factory) Paren(e Expr) Expr {
	if IsAtomic(e) {
		return e
	}
	return &ParenExpr{Inner: e}
}

// IsAtomic reports whether an expression binds tighter than any operator
// and therefore never needs parenthesizing when substituted.
func IsAtomic(e Expr) bool {
	switch ex := e.(type) {
	case *IdentExpr, *IntLiteral, *FloatLiteral, *StringLiteral, *BoolLiteral,
		*NilLiteral, *ArrayLiteral, *ParenExpr:
		return true
	case *CallExpr, *IndexExpr, *DotExpr:
		_ = ex
		return true
	default:
		return false
	}
}

// DefaultValue returns the type-appropriate default literal used to
// initialize early-return result variables.
func (f *Factory) DefaultValue(t *Type) Expr {
	if t == nil {
		return f.Nil()
	}
	switch t.Kind {
	case TypeInt:
		return &IntLiteral{Value: "0"}
	case TypeFloat:
		return &FloatLiteral{Value: "0.0"}
	case TypeString:
		return &StringLiteral{Value: ""}
	case TypeBool:
		return f.Bool(false)
	case TypeArray:
		return &ArrayLiteral{}
	default:
		return f.Nil()
	}
}
