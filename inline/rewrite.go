package inline

import (
	"github.com/weldlang/weld/ast"
	"github.com/weldlang/weld/diag"
)

// rewriteStmts walks a statement list, expanding template calls and behavior
// invocations, draining each expansion's hoisted statements into the list
// right before the statement that contained the call.
func (e *Engine) rewriteStmts(stmts []ast.Statement, env *typeEnv) []ast.Statement {
	var out []ast.Statement
	for _, s := range stmts {
		out = append(out, e.rewriteStmt(s, env)...)
	}
	return out
}

func (e *Engine) rewriteStmt(s ast.Statement, env *typeEnv) []ast.Statement {
	if l := s.StmtLine(); l > 0 {
		e.line = l
	}
	switch st := s.(type) {
	case *ast.TemplateDecl:
		// Template definitions never survive into the output.
		return nil
	case *ast.FuncDecl:
		child := newTypeEnv(env)
		for _, p := range st.Params {
			child.define(p.Name, p.Type)
		}
		body := e.rewriteStmts(st.Body, child)
		return []ast.Statement{&ast.FuncDecl{BaseStmt: st.BaseStmt, Name: st.Name, Params: st.Params, Result: st.Result, Body: body}}
	case *ast.LetStmt:
		v, h := e.expandExpr(st.Value, env)
		if st.Type != nil {
			env.define(st.Name, st.Type)
		} else {
			env.define(st.Name, e.inf.exprType(v, env))
		}
		return append(h, &ast.LetStmt{BaseStmt: st.BaseStmt, Name: st.Name, Type: st.Type, Value: v})
	case *ast.AssignStmt:
		v, h := e.expandExpr(st.Value, env)
		env.set(st.Target, e.inf.exprType(v, env))
		return append(h, &ast.AssignStmt{BaseStmt: st.BaseStmt, Target: st.Target, Value: v})
	case *ast.IndexAssignStmt:
		parts, h := e.expandSeq([]ast.Expr{st.Object, st.Index, st.Value}, env)
		return append(h, &ast.IndexAssignStmt{BaseStmt: st.BaseStmt, Object: parts[0], Index: parts[1], Value: parts[2]})
	case *ast.DotAssignStmt:
		parts, h := e.expandSeq([]ast.Expr{st.Object, st.Value}, env)
		return append(h, &ast.DotAssignStmt{BaseStmt: st.BaseStmt, Object: parts[0], Field: st.Field, Value: parts[1]})
	case *ast.ExprStmt:
		if call, ok := st.Expression.(*ast.CallExpr); ok {
			if id, ok := call.Func.(*ast.IdentExpr); ok {
				if b, ok := e.lookupBehavior(id.Name); ok {
					return e.inlineBehaviorStmt(b, call, env)
				}
			}
		}
		if site, ok := e.reg.Resolve(st.Expression); ok {
			// Statement position is the one place a template may produce no
			// value; its effects all live in the hoists.
			v, h := e.expandCall(site, env)
			if v == nil || isTrivial(v) {
				return h
			}
			return append(h, &ast.ExprStmt{BaseStmt: st.BaseStmt, Expression: v})
		}
		v, h := e.expandExpr(st.Expression, env)
		if v == nil || isTrivial(v) {
			// The expansion's value is a pure leftover; the statement's
			// effects all live in the hoists.
			return h
		}
		return append(h, &ast.ExprStmt{BaseStmt: st.BaseStmt, Expression: v})
	case *ast.IfStmt:
		cond, ch := e.expandExpr(st.Cond, env)
		body := e.rewriteStmts(st.Body, newTypeEnv(env))
		els := e.rewriteStmts(st.Else, newTypeEnv(env))
		return append(ch, &ast.IfStmt{BaseStmt: st.BaseStmt, Cond: cond, Body: body, Else: els})
	case *ast.WhileStmt:
		return e.rewriteWhile(st, env)
	case *ast.LoopStmt:
		return []ast.Statement{&ast.LoopStmt{BaseStmt: st.BaseStmt, Body: e.rewriteStmts(st.Body, newTypeEnv(env))}}
	case *ast.ForInStmt:
		coll, h := e.expandExpr(st.Collection, env)
		child := newTypeEnv(env)
		if t := e.inf.exprType(coll, env); t.Kind == ast.TypeArray {
			child.define(st.Var, t.Elem)
		} else {
			child.define(st.Var, ast.UnknownType)
		}
		body := e.rewriteStmts(st.Body, child)
		return append(h, &ast.ForInStmt{BaseStmt: st.BaseStmt, Var: st.Var, Collection: coll, Body: body})
	case *ast.ForStmt:
		return e.rewriteFor(st, env)
	case *ast.SwitchStmt:
		return e.rewriteSwitch(st, env)
	case *ast.ReturnStmt:
		v, h := e.expandExpr(st.Value, env)
		return append(h, &ast.ReturnStmt{BaseStmt: st.BaseStmt, Value: v})
	default:
		return []ast.Statement{s}
	}
}

// rewriteWhile detaches the loop condition into the body when its expansion
// carries statements: `while cond` becomes `loop { <hoists>; if !cond break }`
// so the hoists rerun on every iteration, continue included.
func (e *Engine) rewriteWhile(st *ast.WhileStmt, env *typeEnv) []ast.Statement {
	cond, ch := e.expandExpr(st.Cond, env)
	body := e.rewriteStmts(st.Body, newTypeEnv(env))
	if len(ch) == 0 {
		return []ast.Statement{&ast.WhileStmt{BaseStmt: st.BaseStmt, Cond: cond, Body: body}}
	}
	line := st.StmtLine()
	loopBody := append(ch, e.f.If(e.f.Not(cond), []ast.Statement{e.f.Break(line)}, nil, line))
	loopBody = append(loopBody, body...)
	return []ast.Statement{e.f.Loop(loopBody, line)}
}

// rewriteFor keeps the three-clause form when every clause stays a single
// hoist-free statement; otherwise the loop is restructured like a while, with
// the post statements replayed before every continue.
func (e *Engine) rewriteFor(st *ast.ForStmt, env *typeEnv) []ast.Statement {
	child := newTypeEnv(env)
	var initOut []ast.Statement
	if st.Init != nil {
		initOut = e.rewriteStmt(st.Init, child)
	}
	cond, ch := e.expandExpr(st.Cond, child)
	var postOut []ast.Statement
	if st.Post != nil {
		postOut = e.rewriteStmt(st.Post, child)
	}
	body := e.rewriteStmts(st.Body, newTypeEnv(child))
	if len(ch) == 0 && len(initOut) <= 1 && len(postOut) <= 1 {
		out := &ast.ForStmt{BaseStmt: st.BaseStmt, Cond: cond, Body: body}
		if len(initOut) == 1 {
			out.Init = initOut[0]
		}
		if len(postOut) == 1 {
			out.Post = postOut[0]
		}
		return []ast.Statement{out}
	}
	line := st.StmtLine()
	out := initOut
	var loopBody []ast.Statement
	loopBody = append(loopBody, ch...)
	if cond != nil {
		loopBody = append(loopBody, e.f.If(e.f.Not(cond), []ast.Statement{e.f.Break(line)}, nil, line))
	}
	loopBody = append(loopBody, replaceContinue(body, postOut)...)
	loopBody = append(loopBody, ast.CloneStmts(postOut)...)
	return append(out, e.f.Loop(loopBody, line))
}

// replaceContinue prepends a copy of post before every continue that belongs
// to the loop being restructured. Nested loops own their continues and are
// not entered.
func replaceContinue(stmts []ast.Statement, post []ast.Statement) []ast.Statement {
	if len(post) == 0 {
		return stmts
	}
	out := make([]ast.Statement, 0, len(stmts))
	for _, s := range stmts {
		switch st := s.(type) {
		case *ast.ContinueStmt:
			out = append(out, ast.CloneStmts(post)...)
			out = append(out, st)
		case *ast.IfStmt:
			out = append(out, &ast.IfStmt{BaseStmt: st.BaseStmt, Cond: st.Cond, Body: replaceContinue(st.Body, post), Else: replaceContinue(st.Else, post)})
		case *ast.SwitchStmt:
			cases := make([]ast.SwitchCase, len(st.Cases))
			for i, c := range st.Cases {
				cases[i] = ast.SwitchCase{Values: c.Values, Body: replaceContinue(c.Body, post)}
			}
			out = append(out, &ast.SwitchStmt{BaseStmt: st.BaseStmt, Subject: st.Subject, Cases: cases, Default: replaceContinue(st.Default, post), HasDflt: st.HasDflt})
		default:
			out = append(out, s)
		}
	}
	return out
}

// rewriteSwitch expands the subject and every case value. Arms are compared
// in order, so a later arm's hoisted statements may only run after the
// earlier arms failed to match; any switch in that situation becomes an
// if/else-if chain over a subject temporary.
func (e *Engine) rewriteSwitch(st *ast.SwitchStmt, env *typeEnv) []ast.Statement {
	subj, out := e.expandExpr(st.Subject, env)
	type arm struct {
		values []ast.Expr
		hoists []ast.Statement
		body   []ast.Statement
	}
	arms := make([]arm, len(st.Cases))
	anyHoists := false
	for i, c := range st.Cases {
		values, h := e.expandSeq(c.Values, env)
		arms[i] = arm{values: values, hoists: h, body: c.Body}
		anyHoists = anyHoists || len(h) > 0
	}
	if !anyHoists {
		cases := make([]ast.SwitchCase, len(arms))
		for i, a := range arms {
			cases[i] = ast.SwitchCase{Values: a.values, Body: e.rewriteStmts(a.body, newTypeEnv(env))}
		}
		dflt := e.rewriteStmts(st.Default, newTypeEnv(env))
		return append(out, &ast.SwitchStmt{BaseStmt: st.BaseStmt, Subject: subj, Cases: cases, Default: dflt, HasDflt: st.HasDflt})
	}
	line := st.StmtLine()
	tmp := e.names.Fresh("sw")
	out = append(out, e.f.Let(tmp, subj, line))
	var chain func(i int) []ast.Statement
	chain = func(i int) []ast.Statement {
		if i == len(arms) {
			return e.rewriteStmts(st.Default, newTypeEnv(env))
		}
		a := arms[i]
		var cond ast.Expr
		for _, v := range a.values {
			eq := e.f.Eq(e.f.Ident(tmp), v)
			if cond == nil {
				cond = eq
			} else {
				cond = e.f.Or(cond, eq)
			}
		}
		body := e.rewriteStmts(a.body, newTypeEnv(env))
		return append(a.hoists, e.f.If(cond, body, chain(i+1), line))
	}
	return append(out, chain(0)...)
}

// expandExpr rewrites one expression, returning the replacement expression
// and the statements that must execute before it.
func (e *Engine) expandExpr(x ast.Expr, env *typeEnv) (ast.Expr, []ast.Statement) {
	if site, ok := e.reg.Resolve(x); ok {
		v, h := e.expandCall(site, env)
		if v == nil {
			// A template without a result used in value position. The nil
			// placeholder keeps the output parseable; the hoisted effects
			// still run.
			e.diags = append(e.diags, diag.Warnf(diag.CodeExpansionVoid, e.pos(),
				"template %s produces no value; nil substituted", site.Template.Name))
			v = e.f.Nil()
		}
		return v, h
	}
	switch ex := x.(type) {
	case nil:
		return nil, nil
	case *ast.CallExpr:
		if id, ok := ex.Func.(*ast.IdentExpr); ok {
			if b, ok := e.lookupBehavior(id.Name); ok {
				return e.inlineBehaviorExpr(b, ex, env)
			}
		}
		fn, fh := e.expandExpr(ex.Func, env)
		args, ah := e.expandSeq(ex.Args, env)
		return &ast.CallExpr{Func: fn, Args: args}, append(fh, ah...)
	case *ast.BinaryExpr:
		if ex.Op == "&&" || ex.Op == "||" {
			return e.expandLogical(ex, env)
		}
		parts, h := e.expandSeq([]ast.Expr{ex.Left, ex.Right}, env)
		return &ast.BinaryExpr{Left: parts[0], Op: ex.Op, Right: parts[1]}, h
	case *ast.UnaryExpr:
		v, h := e.expandExpr(ex.Operand, env)
		return &ast.UnaryExpr{Op: ex.Op, Operand: v}, h
	case *ast.TernaryExpr:
		return e.expandTernary(ex, env)
	case *ast.IndexExpr:
		parts, h := e.expandSeq([]ast.Expr{ex.Object, ex.Index}, env)
		return &ast.IndexExpr{Object: parts[0], Index: parts[1]}, h
	case *ast.DotExpr:
		v, h := e.expandExpr(ex.Object, env)
		return &ast.DotExpr{Object: v, Field: ex.Field}, h
	case *ast.ParenExpr:
		v, h := e.expandExpr(ex.Inner, env)
		return &ast.ParenExpr{Inner: v}, h
	case *ast.ArrayLiteral:
		elems, h := e.expandSeq(ex.Elements, env)
		return &ast.ArrayLiteral{Elements: elems}, h
	case *ast.LambdaExpr:
		return e.expandLambda(ex, env), nil
	default:
		return x, nil
	}
}

// expandLogical preserves short-circuiting when the right operand's expansion
// carries statements: the left side is evaluated into a scratch boolean and
// the right side's statements only run behind a guard on it.
func (e *Engine) expandLogical(ex *ast.BinaryExpr, env *typeEnv) (ast.Expr, []ast.Statement) {
	left, lh := e.expandExpr(ex.Left, env)
	right, rh := e.expandExpr(ex.Right, env)
	if len(rh) == 0 {
		return &ast.BinaryExpr{Left: left, Op: ex.Op, Right: right}, lh
	}
	line := e.line
	scratch := e.names.Fresh("cond")
	hoists := append(lh, e.f.TypedLet(scratch, ast.BoolType, left, line))
	guard := ast.Expr(e.f.Ident(scratch))
	if ex.Op == "||" {
		guard = e.f.Not(e.f.Ident(scratch))
	}
	body := append(rh, e.f.Assign(scratch, right, line))
	hoists = append(hoists, e.f.If(guard, body, nil, line))
	return e.f.Ident(scratch), hoists
}

// expandTernary linearizes a conditional whose branches carry statements into
// an if/else assigning a scratch result, so each branch's statements run only
// when that branch is taken.
func (e *Engine) expandTernary(ex *ast.TernaryExpr, env *typeEnv) (ast.Expr, []ast.Statement) {
	cond, ch := e.expandExpr(ex.Cond, env)
	thenV, th := e.expandExpr(ex.Then, env)
	elseV, eh := e.expandExpr(ex.Else, env)
	if len(th) == 0 && len(eh) == 0 {
		return &ast.TernaryExpr{Cond: cond, Then: thenV, Else: elseV}, ch
	}
	line := e.line
	res := e.names.Fresh("val")
	hoists := append(ch, e.f.Let(res, e.f.Nil(), line))
	thenBody := append(th, e.f.Assign(res, thenV, line))
	elseBody := append(eh, e.f.Assign(res, elseV, line))
	hoists = append(hoists, e.f.If(cond, thenBody, elseBody, line))
	return e.f.Ident(res), hoists
}

// expandLambda rewrites a lambda that is a plain value, not a behavior
// argument. Statements hoisted out of its body stay inside the lambda.
func (e *Engine) expandLambda(ex *ast.LambdaExpr, env *typeEnv) ast.Expr {
	child := newTypeEnv(env)
	for _, p := range ex.Params {
		child.define(p, ast.UnknownType)
	}
	if ex.IsExprForm() {
		v, h := e.expandExpr(ex.Expr, child)
		if len(h) == 0 {
			return &ast.LambdaExpr{Params: ex.Params, Expr: v}
		}
		body := append(h, e.f.Return(v, e.line))
		return &ast.LambdaExpr{Params: ex.Params, Body: body}
	}
	return &ast.LambdaExpr{Params: ex.Params, Body: e.rewriteStmts(ex.Body, child)}
}

// expandSeq expands a left-to-right evaluated operand list. When a later
// operand needs hoisted statements, earlier operands that may carry effects
// are lifted into temporaries first so observable order is kept.
func (e *Engine) expandSeq(exprs []ast.Expr, env *typeEnv) ([]ast.Expr, []ast.Statement) {
	out := make([]ast.Expr, len(exprs))
	var hoists []ast.Statement
	for i, x := range exprs {
		v, h := e.expandExpr(x, env)
		if len(h) > 0 {
			hoists = append(hoists, e.liftEvaluatedOperands(out[:i])...)
			hoists = append(hoists, h...)
		}
		out[i] = v
	}
	return out, hoists
}

// liftEvaluatedOperands moves earlier, possibly effectful operand expressions
// into temporaries. Bare identifiers and literals stay in place; a behavior
// that mutates a captured variable read by such an operand can still observe
// reordering, the same trade-off plain-argument substitution makes.
func (e *Engine) liftEvaluatedOperands(prior []ast.Expr) []ast.Statement {
	var lifts []ast.Statement
	for k, p := range prior {
		if p == nil || isTrivial(p) {
			continue
		}
		tmp := e.names.Fresh("arg")
		lifts = append(lifts, e.f.Let(tmp, p, e.line))
		prior[k] = e.f.Ident(tmp)
	}
	return lifts
}

// isTrivial reports whether evaluating the expression can have no observable
// effect and no dependence on mutable state ordering worth preserving.
func isTrivial(e ast.Expr) bool {
	switch x := e.(type) {
	case *ast.IdentExpr, *ast.IntLiteral, *ast.FloatLiteral, *ast.StringLiteral,
		*ast.BoolLiteral, *ast.NilLiteral, *ast.LambdaExpr:
		return true
	case *ast.ParenExpr:
		return isTrivial(x.Inner)
	}
	return false
}
