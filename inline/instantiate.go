package inline

import (
	"github.com/weldlang/weld/ast"
	"github.com/weldlang/weld/diag"
)

// expandCall instantiates one resolved template call site. The receiver is
// expanded first (a chained template call recurses here through expandExpr)
// and bound to a temporary unless it is a simple reference, guaranteeing
// single evaluation. Plain arguments substitute structurally; behavior
// arguments are bound to fresh marker names the rewriter intercepts.
func (e *Engine) expandCall(site *CallSite, env *typeEnv) (ast.Expr, []ast.Statement) {
	t := site.Template
	var hoists []ast.Statement

	recv, rh := e.expandExpr(site.Recv, env)
	hoists = append(hoists, rh...)
	recvType := e.inf.exprType(recv, env)
	if !isSimpleRef(recv) {
		tmp := e.names.Fresh(t.Receiver.Name)
		hoists = append(hoists, e.f.Let(tmp, recv, e.line))
		env.define(tmp, recvType)
		recv = e.f.Ident(tmp)
	}

	// Plain arguments, expanded left to right before the body sees them.
	argVals := make([]ast.Expr, len(site.Args))
	for i, a := range site.Args {
		if a.Behavior != nil {
			continue
		}
		v, h := e.expandExpr(a.Expr, env)
		if len(h) > 0 {
			hoists = append(hoists, e.liftEvaluatedOperands(argVals[:i])...)
			hoists = append(hoists, h...)
		}
		argVals[i] = v
	}

	// Generic resolution from the inferred receiver and argument types.
	bindings := map[string]*ast.Type{}
	unify(t.Receiver.Type, recvType, bindings)
	for i, p := range t.Params {
		if site.Args[i].Behavior == nil {
			unify(p.Type, e.inf.exprType(argVals[i], env), bindings)
		}
	}
	for _, tp := range t.TypeParams {
		if _, ok := bindings[tp]; !ok {
			e.diags = append(e.diags, diag.Warnf(diag.CodeGenericUnresolved, e.pos(),
				"cannot infer type parameter %s of template %s; left as-is", tp, t.Name))
		}
	}
	body := substTypesStmts(ast.CloneStmts(t.Body), bindings)
	resultType := substType(t.Result, bindings)

	body = newRenamer(e.names).renameStmts(body)

	repl := map[string]ast.Expr{t.Receiver.Name: e.f.Paren(recv)}
	behaviors := map[string]*behaviorBinding{}
	for i, p := range t.Params {
		if b := site.Args[i].Behavior; b != nil {
			marker := e.names.Fresh(p.Name)
			repl[p.Name] = e.f.Ident(marker)
			behaviors[marker] = &behaviorBinding{lam: b}
		} else {
			repl[p.Name] = e.f.Paren(argVals[i])
		}
	}
	body = SubstituteIdents(body, repl)

	if needsNormalization(body) {
		body = NormalizeReturns(body, resultType, e.names)
	}

	// Expand nested template calls and behavior invocations inside the body,
	// draining their hoists; the behavior frame makes the markers visible.
	// Body locals all carry fresh names, so they type straight into the
	// caller's environment, where a chained call can see them.
	e.behav = append(e.behav, behaviors)
	body = e.rewriteStmts(body, env)
	e.behav = e.behav[:len(e.behav)-1]

	// The single trailing return, if any, becomes the expansion's value.
	var value ast.Expr
	if len(body) > 0 {
		if ret, ok := body[len(body)-1].(*ast.ReturnStmt); ok {
			value = ret.Value
			body = body[:len(body)-1]
		}
	}
	return value, append(hoists, body...)
}

// isSimpleRef reports whether re-evaluating the receiver expression is free
// of side effects: a bare identifier or a chain of member/index accesses on
// one with trivial indices.
func isSimpleRef(e ast.Expr) bool {
	switch x := e.(type) {
	case *ast.IdentExpr:
		return true
	case *ast.DotExpr:
		return isSimpleRef(x.Object)
	case *ast.IndexExpr:
		return isSimpleRef(x.Object) && isTrivial(x.Index)
	case *ast.ParenExpr:
		return isSimpleRef(x.Inner)
	}
	return false
}
