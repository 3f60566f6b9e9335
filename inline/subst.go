package inline

import "github.com/weldlang/weld/ast"

// SubstituteIdents replaces every occurrence of the mapped identifiers with
// the supplied expressions, building a new tree that shares untouched
// subtrees with the input. It runs after renaming, so every binder inside
// stmts already carries a fresh name and cannot shadow a formal; plain
// structural replacement is therefore hygienic.
//
// Replacement expressions with side effects are evaluated once per mention of
// the formal; a template that names a parameter twice re-evaluates its
// argument. Callers that need single evaluation bind a temporary first, as
// the instantiator does for receivers.
func SubstituteIdents(stmts []ast.Statement, repl map[string]ast.Expr) []ast.Statement {
	s := substituter{repl: repl}
	return s.stmts(stmts)
}

// SubstituteExpr is the expression-level entry point, used for
// expression-form behavior bodies.
func SubstituteExpr(e ast.Expr, repl map[string]ast.Expr) ast.Expr {
	s := substituter{repl: repl}
	return s.expr(e)
}

type substituter struct {
	repl map[string]ast.Expr
}

func (su substituter) stmts(stmts []ast.Statement) []ast.Statement {
	out, _ := ast.MapSlice(stmts, su.stmt)
	return out
}

func (su substituter) stmt(s ast.Statement) ast.Statement {
	switch st := s.(type) {
	case *ast.LetStmt:
		value := su.expr(st.Value)
		if value == st.Value {
			return st
		}
		return &ast.LetStmt{BaseStmt: st.BaseStmt, Name: st.Name, Type: st.Type, Value: value}
	case *ast.AssignStmt:
		return su.assign(st)
	case *ast.IndexAssignStmt:
		obj, idx, value := su.expr(st.Object), su.expr(st.Index), su.expr(st.Value)
		if obj == st.Object && idx == st.Index && value == st.Value {
			return st
		}
		return &ast.IndexAssignStmt{BaseStmt: st.BaseStmt, Object: obj, Index: idx, Value: value}
	case *ast.DotAssignStmt:
		obj, value := su.expr(st.Object), su.expr(st.Value)
		if obj == st.Object && value == st.Value {
			return st
		}
		return &ast.DotAssignStmt{BaseStmt: st.BaseStmt, Object: obj, Field: st.Field, Value: value}
	case *ast.IfStmt:
		cond := su.expr(st.Cond)
		body, bc := ast.MapSlice(st.Body, su.stmt)
		els, ec := ast.MapSlice(st.Else, su.stmt)
		if cond == st.Cond && !bc && !ec {
			return st
		}
		return &ast.IfStmt{BaseStmt: st.BaseStmt, Cond: cond, Body: body, Else: els}
	case *ast.WhileStmt:
		cond := su.expr(st.Cond)
		body, bc := ast.MapSlice(st.Body, su.stmt)
		if cond == st.Cond && !bc {
			return st
		}
		return &ast.WhileStmt{BaseStmt: st.BaseStmt, Cond: cond, Body: body}
	case *ast.LoopStmt:
		body, bc := ast.MapSlice(st.Body, su.stmt)
		if !bc {
			return st
		}
		return &ast.LoopStmt{BaseStmt: st.BaseStmt, Body: body}
	case *ast.ForInStmt:
		coll := su.expr(st.Collection)
		body, bc := ast.MapSlice(st.Body, su.stmt)
		if coll == st.Collection && !bc {
			return st
		}
		return &ast.ForInStmt{BaseStmt: st.BaseStmt, Var: st.Var, Collection: coll, Body: body}
	case *ast.ForStmt:
		out := &ast.ForStmt{BaseStmt: st.BaseStmt, Cond: su.expr(st.Cond)}
		if st.Init != nil {
			out.Init = su.stmt(st.Init)
		}
		if st.Post != nil {
			out.Post = su.stmt(st.Post)
		}
		var bc bool
		out.Body, bc = ast.MapSlice(st.Body, su.stmt)
		if out.Cond == st.Cond && out.Init == st.Init && out.Post == st.Post && !bc {
			return st
		}
		return out
	case *ast.SwitchStmt:
		changed := false
		cases := make([]ast.SwitchCase, len(st.Cases))
		for i, c := range st.Cases {
			values, vc := ast.MapSlice(c.Values, su.expr)
			body, bc := ast.MapSlice(c.Body, su.stmt)
			changed = changed || vc || bc
			cases[i] = ast.SwitchCase{Values: values, Body: body}
		}
		subject := su.expr(st.Subject)
		dflt, dc := ast.MapSlice(st.Default, su.stmt)
		if subject == st.Subject && !changed && !dc {
			return st
		}
		return &ast.SwitchStmt{BaseStmt: st.BaseStmt, Subject: subject, Cases: cases, Default: dflt, HasDflt: st.HasDflt}
	case *ast.ReturnStmt:
		value := su.expr(st.Value)
		if value == st.Value {
			return st
		}
		return &ast.ReturnStmt{BaseStmt: st.BaseStmt, Value: value}
	case *ast.ExprStmt:
		e := su.expr(st.Expression)
		if e == st.Expression {
			return st
		}
		return &ast.ExprStmt{BaseStmt: st.BaseStmt, Expression: e}
	default:
		return s
	}
}

// assign handles substitution into an assignment target. When the formal
// being assigned maps to an l-value-shaped expression, the statement changes
// node kind to match the replacement's shape.
func (su substituter) assign(st *ast.AssignStmt) ast.Statement {
	value := su.expr(st.Value)
	target, ok := su.repl[st.Target]
	if !ok {
		if value == st.Value {
			return st
		}
		return &ast.AssignStmt{BaseStmt: st.BaseStmt, Target: st.Target, Value: value}
	}
	switch t := unwrapParens(target).(type) {
	case *ast.IdentExpr:
		return &ast.AssignStmt{BaseStmt: st.BaseStmt, Target: t.Name, Value: value}
	case *ast.IndexExpr:
		return &ast.IndexAssignStmt{BaseStmt: st.BaseStmt, Object: t.Object, Index: t.Index, Value: value}
	case *ast.DotExpr:
		return &ast.DotAssignStmt{BaseStmt: st.BaseStmt, Object: t.Object, Field: t.Field, Value: value}
	default:
		// Not an l-value; leave the original target so the defect stays
		// visible in the output instead of being silently rewritten.
		return &ast.AssignStmt{BaseStmt: st.BaseStmt, Target: st.Target, Value: value}
	}
}

func (su substituter) expr(e ast.Expr) ast.Expr {
	switch ex := e.(type) {
	case nil:
		return nil
	case *ast.IdentExpr:
		if r, ok := su.repl[ex.Name]; ok {
			return r
		}
		return ex
	case *ast.BinaryExpr:
		left, right := su.expr(ex.Left), su.expr(ex.Right)
		if left == ex.Left && right == ex.Right {
			return ex
		}
		return &ast.BinaryExpr{Left: left, Op: ex.Op, Right: right}
	case *ast.UnaryExpr:
		operand := su.expr(ex.Operand)
		if operand == ex.Operand {
			return ex
		}
		return &ast.UnaryExpr{Op: ex.Op, Operand: operand}
	case *ast.TernaryExpr:
		cond, then, els := su.expr(ex.Cond), su.expr(ex.Then), su.expr(ex.Else)
		if cond == ex.Cond && then == ex.Then && els == ex.Else {
			return ex
		}
		return &ast.TernaryExpr{Cond: cond, Then: then, Else: els}
	case *ast.CallExpr:
		fn := su.expr(ex.Func)
		args, ac := ast.MapSlice(ex.Args, su.expr)
		if fn == ex.Func && !ac {
			return ex
		}
		return &ast.CallExpr{Func: fn, Args: args}
	case *ast.IndexExpr:
		obj, idx := su.expr(ex.Object), su.expr(ex.Index)
		if obj == ex.Object && idx == ex.Index {
			return ex
		}
		return &ast.IndexExpr{Object: obj, Index: idx}
	case *ast.DotExpr:
		obj := su.expr(ex.Object)
		if obj == ex.Object {
			return ex
		}
		return &ast.DotExpr{Object: obj, Field: ex.Field}
	case *ast.ParenExpr:
		inner := su.expr(ex.Inner)
		if inner == ex.Inner {
			return ex
		}
		return &ast.ParenExpr{Inner: inner}
	case *ast.ArrayLiteral:
		elems, ec := ast.MapSlice(ex.Elements, su.expr)
		if !ec {
			return ex
		}
		return &ast.ArrayLiteral{Elements: elems}
	case *ast.LambdaExpr:
		if ex.IsExprForm() {
			inner := su.expr(ex.Expr)
			if inner == ex.Expr {
				return ex
			}
			return &ast.LambdaExpr{Params: ex.Params, Expr: inner}
		}
		body, bc := ast.MapSlice(ex.Body, su.stmt)
		if !bc {
			return ex
		}
		return &ast.LambdaExpr{Params: ex.Params, Body: body}
	default:
		return e
	}
}
