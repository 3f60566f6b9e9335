package ast

// CloneStmts deep-copies a statement list. Expansion instantiates one
// template body at many call sites, so every instantiation starts from an
// independent copy; the engine never shares mutable node identity between
// input and output.
func CloneStmts(stmts []Statement) []Statement {
	if stmts == nil {
		return nil
	}
	out := make([]Statement, len(stmts))
	for i, s := range stmts {
		out[i] = CloneStmt(s)
	}
	return out
}

// CloneStmt deep-copies a single statement.
func CloneStmt(s Statement) Statement {
	switch st := s.(type) {
	case *LetStmt:
		return &LetStmt{BaseStmt: st.BaseStmt, Name: st.Name, Type: st.Type, Value: CloneExpr(st.Value)}
	case *AssignStmt:
		return &AssignStmt{BaseStmt: st.BaseStmt, Target: st.Target, Value: CloneExpr(st.Value)}
	case *IndexAssignStmt:
		return &IndexAssignStmt{BaseStmt: st.BaseStmt, Object: CloneExpr(st.Object), Index: CloneExpr(st.Index), Value: CloneExpr(st.Value)}
	case *DotAssignStmt:
		return &DotAssignStmt{BaseStmt: st.BaseStmt, Object: CloneExpr(st.Object), Field: st.Field, Value: CloneExpr(st.Value)}
	case *IfStmt:
		return &IfStmt{BaseStmt: st.BaseStmt, Cond: CloneExpr(st.Cond), Body: CloneStmts(st.Body), Else: CloneStmts(st.Else)}
	case *WhileStmt:
		return &WhileStmt{BaseStmt: st.BaseStmt, Cond: CloneExpr(st.Cond), Body: CloneStmts(st.Body)}
	case *LoopStmt:
		return &LoopStmt{BaseStmt: st.BaseStmt, Body: CloneStmts(st.Body)}
	case *ForInStmt:
		return &ForInStmt{BaseStmt: st.BaseStmt, Var: st.Var, Collection: CloneExpr(st.Collection), Body: CloneStmts(st.Body)}
	case *ForStmt:
		var init, post Statement
		if st.Init != nil {
			init = CloneStmt(st.Init)
		}
		if st.Post != nil {
			post = CloneStmt(st.Post)
		}
		return &ForStmt{BaseStmt: st.BaseStmt, Init: init, Cond: CloneExpr(st.Cond), Post: post, Body: CloneStmts(st.Body)}
	case *SwitchStmt:
		cases := make([]SwitchCase, len(st.Cases))
		for i, c := range st.Cases {
			cases[i] = SwitchCase{Values: CloneExprs(c.Values), Body: CloneStmts(c.Body)}
		}
		return &SwitchStmt{BaseStmt: st.BaseStmt, Subject: CloneExpr(st.Subject), Cases: cases, Default: CloneStmts(st.Default), HasDflt: st.HasDflt}
	case *BreakStmt:
		return &BreakStmt{BaseStmt: st.BaseStmt}
	case *ContinueStmt:
		return &ContinueStmt{BaseStmt: st.BaseStmt}
	case *ReturnStmt:
		return &ReturnStmt{BaseStmt: st.BaseStmt, Value: CloneExpr(st.Value)}
	case *ExprStmt:
		return &ExprStmt{BaseStmt: st.BaseStmt, Expression: CloneExpr(st.Expression)}
	case *FuncDecl:
		return &FuncDecl{BaseStmt: st.BaseStmt, Name: st.Name, Params: append([]Param(nil), st.Params...), Result: st.Result, Body: CloneStmts(st.Body)}
	case *TemplateDecl:
		return &TemplateDecl{BaseStmt: st.BaseStmt, Receiver: st.Receiver, Name: st.Name, Params: append([]Param(nil), st.Params...), Result: st.Result, Body: CloneStmts(st.Body), Expr: CloneExpr(st.Expr)}
	default:
		return s
	}
}

// CloneExprs deep-copies an expression list.
func CloneExprs(exprs []Expr) []Expr {
	if exprs == nil {
		return nil
	}
	out := make([]Expr, len(exprs))
	for i, e := range exprs {
		out[i] = CloneExpr(e)
	}
	return out
}

// CloneExpr deep-copies an expression. Types are shared; they are immutable
// after parsing.
func CloneExpr(e Expr) Expr {
	switch ex := e.(type) {
	case nil:
		return nil
	case *BinaryExpr:
		return &BinaryExpr{Left: CloneExpr(ex.Left), Op: ex.Op, Right: CloneExpr(ex.Right)}
	case *UnaryExpr:
		return &UnaryExpr{Op: ex.Op, Operand: CloneExpr(ex.Operand)}
	case *TernaryExpr:
		return &TernaryExpr{Cond: CloneExpr(ex.Cond), Then: CloneExpr(ex.Then), Else: CloneExpr(ex.Else)}
	case *CallExpr:
		return &CallExpr{Func: CloneExpr(ex.Func), Args: CloneExprs(ex.Args)}
	case *IndexExpr:
		return &IndexExpr{Object: CloneExpr(ex.Object), Index: CloneExpr(ex.Index)}
	case *DotExpr:
		return &DotExpr{Object: CloneExpr(ex.Object), Field: ex.Field}
	case *IdentExpr:
		return &IdentExpr{Name: ex.Name}
	case *ParenExpr:
		return &ParenExpr{Inner: CloneExpr(ex.Inner)}
	case *IntLiteral:
		return &IntLiteral{Value: ex.Value}
	case *FloatLiteral:
		return &FloatLiteral{Value: ex.Value}
	case *StringLiteral:
		return &StringLiteral{Value: ex.Value}
	case *BoolLiteral:
		return &BoolLiteral{Value: ex.Value}
	case *NilLiteral:
		return &NilLiteral{}
	case *ArrayLiteral:
		return &ArrayLiteral{Elements: CloneExprs(ex.Elements)}
	case *LambdaExpr:
		return &LambdaExpr{Params: append([]string(nil), ex.Params...), Expr: CloneExpr(ex.Expr), Body: CloneStmts(ex.Body)}
	default:
		return e
	}
}
