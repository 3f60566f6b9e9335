// Package printer serializes weld ASTs back to source text. The engine's
// output per compilation unit is a transformed tree; printing it yields the
// syntactically complete, self-contained source the downstream consumer reads.
package printer

import (
	"fmt"
	"strings"

	"github.com/weldlang/weld/ast"
)

// Print serializes a program to weld source.
func Print(prog *ast.Program) string {
	p := &printer{}
	for i, s := range prog.Statements {
		if i > 0 {
			if isDecl(s) || isDecl(prog.Statements[i-1]) {
				p.blank()
			}
		}
		p.printStmt(s)
	}
	return p.sb.String()
}

// PrintStmts serializes a statement list; used by tests and diagnostics.
func PrintStmts(stmts []ast.Statement) string {
	p := &printer{}
	for _, s := range stmts {
		p.printStmt(s)
	}
	return p.sb.String()
}

// PrintExpr serializes a single expression.
func PrintExpr(e ast.Expr) string {
	p := &printer{}
	p.printExpr(&p.sb, e, 0)
	return p.sb.String()
}

func isDecl(s ast.Statement) bool {
	switch s.(type) {
	case *ast.FuncDecl, *ast.TemplateDecl:
		return true
	}
	return false
}

type printer struct {
	sb     strings.Builder
	indent int
}

func (p *printer) line(format string, args ...any) {
	p.writeIndent()
	fmt.Fprintf(&p.sb, format, args...)
	p.sb.WriteByte('\n')
}

func (p *printer) blank() {
	p.sb.WriteByte('\n')
}

func (p *printer) writeIndent() {
	for i := 0; i < p.indent; i++ {
		p.sb.WriteByte('\t')
	}
}

func (p *printer) printBlock(stmts []ast.Statement) {
	p.indent++
	for _, s := range stmts {
		p.printStmt(s)
	}
	p.indent--
}

func (p *printer) printStmt(s ast.Statement) {
	switch st := s.(type) {
	case *ast.LetStmt:
		if st.Type != nil {
			p.line("let %s: %s = %s", st.Name, st.Type, p.expr(st.Value))
		} else {
			p.line("let %s = %s", st.Name, p.expr(st.Value))
		}
	case *ast.AssignStmt:
		p.line("%s = %s", st.Target, p.expr(st.Value))
	case *ast.IndexAssignStmt:
		p.line("%s[%s] = %s", p.expr(st.Object), p.expr(st.Index), p.expr(st.Value))
	case *ast.DotAssignStmt:
		p.line("%s.%s = %s", p.expr(st.Object), st.Field, p.expr(st.Value))
	case *ast.IfStmt:
		p.printIf(st)
	case *ast.WhileStmt:
		p.line("while %s {", p.expr(st.Cond))
		p.printBlock(st.Body)
		p.line("}")
	case *ast.LoopStmt:
		p.line("loop {")
		p.printBlock(st.Body)
		p.line("}")
	case *ast.ForInStmt:
		p.line("for %s in %s {", st.Var, p.expr(st.Collection))
		p.printBlock(st.Body)
		p.line("}")
	case *ast.ForStmt:
		p.line("for %s; %s; %s {", p.inlineStmt(st.Init), p.expr(st.Cond), p.inlineStmt(st.Post))
		p.printBlock(st.Body)
		p.line("}")
	case *ast.SwitchStmt:
		p.line("switch %s {", p.expr(st.Subject))
		for _, c := range st.Cases {
			vals := make([]string, len(c.Values))
			for i, v := range c.Values {
				vals[i] = p.expr(v)
			}
			p.line("case %s:", strings.Join(vals, ", "))
			p.printBlock(c.Body)
		}
		if st.HasDflt {
			p.line("default:")
			p.printBlock(st.Default)
		}
		p.line("}")
	case *ast.BreakStmt:
		p.line("break")
	case *ast.ContinueStmt:
		p.line("continue")
	case *ast.ReturnStmt:
		if st.Value != nil {
			p.line("return %s", p.expr(st.Value))
		} else {
			p.line("return")
		}
	case *ast.ExprStmt:
		p.line("%s", p.expr(st.Expression))
	case *ast.FuncDecl:
		p.line("func %s(%s)%s {", st.Name, p.params(st.Params), p.result(st.Result))
		p.printBlock(st.Body)
		p.line("}")
	case *ast.TemplateDecl:
		head := fmt.Sprintf("inline func (%s) %s(%s)%s", p.param(st.Receiver), st.Name, p.params(st.Params), p.result(st.Result))
		if st.Expr != nil {
			p.line("%s = %s", head, p.expr(st.Expr))
		} else {
			p.line("%s {", head)
			p.printBlock(st.Body)
			p.line("}")
		}
	}
}

func (p *printer) printIf(st *ast.IfStmt) {
	p.line("if %s {", p.expr(st.Cond))
	p.printBlock(st.Body)
	// Print `else if` chains flat.
	for len(st.Else) == 1 {
		next, ok := st.Else[0].(*ast.IfStmt)
		if !ok {
			break
		}
		p.line("} else if %s {", p.expr(next.Cond))
		p.printBlock(next.Body)
		st = next
	}
	if len(st.Else) > 0 {
		p.line("} else {")
		p.printBlock(st.Else)
	}
	p.line("}")
}

// inlineStmt renders a for-loop init/post statement without a trailing newline.
func (p *printer) inlineStmt(s ast.Statement) string {
	if s == nil {
		return ""
	}
	sub := &printer{}
	sub.printStmt(s)
	return strings.TrimSuffix(sub.sb.String(), "\n")
}

func (p *printer) params(params []ast.Param) string {
	parts := make([]string, len(params))
	for i, prm := range params {
		parts[i] = p.param(prm)
	}
	return strings.Join(parts, ", ")
}

func (p *printer) param(prm ast.Param) string {
	if prm.Type != nil {
		return prm.Name + ": " + prm.Type.String()
	}
	return prm.Name
}

func (p *printer) result(t *ast.Type) string {
	if t == nil {
		return ""
	}
	return ": " + t.String()
}

// Operator precedence for minimal parenthesization; mirrors the parser.
var opPrec = map[string]int{
	"||": 1, "&&": 2,
	"==": 3, "!=": 3,
	"<": 4, ">": 4, "<=": 4, ">=": 4,
	"+": 5, "-": 5,
	"*": 6, "/": 6, "%": 6,
}

const (
	precTernary = 0
	precUnary   = 7
	precPostfix = 8
)

func (p *printer) expr(e ast.Expr) string {
	var sb strings.Builder
	p.printExpr(&sb, e, 0)
	return sb.String()
}

// printExpr writes e, parenthesizing when its precedence is below the
// context's minimum.
func (p *printer) printExpr(sb *strings.Builder, e ast.Expr, minPrec int) {
	switch ex := e.(type) {
	case nil:
		return
	case *ast.BinaryExpr:
		prec := opPrec[ex.Op]
		open := prec < minPrec
		if open {
			sb.WriteByte('(')
		}
		p.printExpr(sb, ex.Left, prec)
		sb.WriteString(" " + ex.Op + " ")
		p.printExpr(sb, ex.Right, prec+1)
		if open {
			sb.WriteByte(')')
		}
	case *ast.UnaryExpr:
		sb.WriteString(ex.Op)
		p.printExpr(sb, ex.Operand, precUnary)
	case *ast.TernaryExpr:
		open := minPrec > precTernary
		if open {
			sb.WriteByte('(')
		}
		p.printExpr(sb, ex.Cond, 1)
		sb.WriteString(" ? ")
		p.printExpr(sb, ex.Then, 1)
		sb.WriteString(" : ")
		p.printExpr(sb, ex.Else, precTernary)
		if open {
			sb.WriteByte(')')
		}
	case *ast.CallExpr:
		p.printExpr(sb, ex.Func, precPostfix)
		sb.WriteByte('(')
		for i, a := range ex.Args {
			if i > 0 {
				sb.WriteString(", ")
			}
			p.printExpr(sb, a, 0)
		}
		sb.WriteByte(')')
	case *ast.IndexExpr:
		p.printExpr(sb, ex.Object, precPostfix)
		sb.WriteByte('[')
		p.printExpr(sb, ex.Index, 0)
		sb.WriteByte(']')
	case *ast.DotExpr:
		p.printExpr(sb, ex.Object, precPostfix)
		sb.WriteByte('.')
		sb.WriteString(ex.Field)
	case *ast.IdentExpr:
		sb.WriteString(ex.Name)
	case *ast.ParenExpr:
		sb.WriteByte('(')
		p.printExpr(sb, ex.Inner, 0)
		sb.WriteByte(')')
	case *ast.IntLiteral:
		sb.WriteString(ex.Value)
	case *ast.FloatLiteral:
		sb.WriteString(ex.Value)
	case *ast.StringLiteral:
		sb.WriteString(quote(ex.Value))
	case *ast.BoolLiteral:
		if ex.Value {
			sb.WriteString("true")
		} else {
			sb.WriteString("false")
		}
	case *ast.NilLiteral:
		sb.WriteString("nil")
	case *ast.ArrayLiteral:
		sb.WriteByte('[')
		for i, el := range ex.Elements {
			if i > 0 {
				sb.WriteString(", ")
			}
			p.printExpr(sb, el, 0)
		}
		sb.WriteByte(']')
	case *ast.LambdaExpr:
		if len(ex.Params) == 0 {
			sb.WriteString("||")
		} else {
			sb.WriteString("|" + strings.Join(ex.Params, ", ") + "|")
		}
		sb.WriteByte(' ')
		if ex.IsExprForm() {
			p.printExpr(sb, ex.Expr, 1)
		} else {
			sb.WriteString("{\n")
			sub := &printer{indent: p.indent + 1}
			for _, s := range ex.Body {
				sub.printStmt(s)
			}
			sb.WriteString(sub.sb.String())
			for i := 0; i < p.indent; i++ {
				sb.WriteByte('\t')
			}
			sb.WriteByte('}')
		}
	}
}

func quote(s string) string {
	r := strings.NewReplacer("\\", "\\\\", "\"", "\\\"", "\n", "\\n", "\t", "\\t")
	return "\"" + r.Replace(s) + "\""
}
