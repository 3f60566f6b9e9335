package inline

import (
	"github.com/weldlang/weld/ast"
	"github.com/weldlang/weld/diag"
)

// behaviorBinding is one behavior argument bound to a template's behavior
// formal for the duration of a single instantiation. Extraction happens at
// most once per binding; later invocations reuse the auxiliary function.
type behaviorBinding struct {
	lam    *ast.LambdaExpr
	aux    string   // auxiliary function name once extracted
	caps   []string // captured identifiers the auxiliary takes
	failed bool     // capture resolution failed; placeholder per invocation
}

func (e *Engine) lookupBehavior(name string) (*behaviorBinding, bool) {
	for i := len(e.behav) - 1; i >= 0; i-- {
		if b, ok := e.behav[i][name]; ok {
			return b, true
		}
	}
	return nil, false
}

// inlineBehaviorExpr expands one invocation of a behavior in expression
// position. Expression-form behaviors substitute directly; block-form bodies
// go through return splitting, falling back to auxiliary-function extraction.
func (e *Engine) inlineBehaviorExpr(b *behaviorBinding, call *ast.CallExpr, env *typeEnv) (ast.Expr, []ast.Statement) {
	args, hoists := e.expandSeq(call.Args, env)

	if b.failed {
		return e.f.Nil(), hoists
	}
	if b.aux != "" {
		return e.auxCall(b, args), hoists
	}

	lam := e.renameLambda(b.lam)
	if lam.IsExprForm() {
		repl := make(map[string]ast.Expr, len(lam.Params))
		for i, p := range lam.Params {
			repl[p] = e.f.Paren(argAt(args, i))
		}
		v, h := e.expandExpr(SubstituteExpr(lam.Expr, repl), env)
		return e.f.Paren(v), append(hoists, h...)
	}

	// Block form: bind parameters to temporaries, pre-expand the body
	// bottom-up, then try to split it into prefix + value. The parameters
	// carry fresh names and type into the caller's environment.
	binds := make([]ast.Statement, 0, len(lam.Params))
	for i, p := range lam.Params {
		arg := argAt(args, i)
		binds = append(binds, e.f.Let(p, arg, e.line))
		env.define(p, e.inf.exprType(arg, env))
	}
	body := e.rewriteStmts(lam.Body, env)
	prefix, value, ok := SplitReturns(body)
	if ok {
		hoists = append(hoists, binds...)
		hoists = append(hoists, prefix...)
		return e.f.Paren(value), hoists
	}
	return e.extractBehavior(b, lam.Params, body, args, env, hoists)
}

// inlineBehaviorStmt expands a behavior invocation that is an entire
// statement. A block body without returns splices in place after binding the
// parameters; everything else shares the expression-position path, keeping
// the resulting value only when it can carry effects.
func (e *Engine) inlineBehaviorStmt(b *behaviorBinding, call *ast.CallExpr, env *typeEnv) []ast.Statement {
	if !b.lam.IsExprForm() && !stmtsContainReturn(b.lam.Body) && b.aux == "" && !b.failed {
		args, hoists := e.expandSeq(call.Args, env)
		lam := e.renameLambda(b.lam)
		for i, p := range lam.Params {
			arg := argAt(args, i)
			hoists = append(hoists, e.f.Let(p, arg, e.line))
			env.define(p, e.inf.exprType(arg, env))
		}
		return append(hoists, e.rewriteStmts(lam.Body, env)...)
	}
	v, h := e.inlineBehaviorExpr(b, call, env)
	if v == nil || isTrivial(v) {
		return h
	}
	return append(h, &ast.ExprStmt{BaseStmt: ast.BaseStmt{SourceLine: e.line}, Expression: v})
}

// extractBehavior turns an unsplittable behavior body into a standalone
// function taking the behavior's own parameters plus its captures, appended
// to the compilation unit. The body arrives already renamed and expanded;
// expanding it again here would duplicate the auxiliary functions and
// diagnostics of any nested behavior it contains. Invocations pass the
// then-current capture values.
func (e *Engine) extractBehavior(b *behaviorBinding, paramNames []string, body []ast.Statement, args []ast.Expr, env *typeEnv, hoists []ast.Statement) (ast.Expr, []ast.Statement) {
	params := make([]ast.Param, 0, len(paramNames))
	bound := map[string]bool{}
	for _, p := range paramNames {
		params = append(params, ast.Param{Name: p})
		bound[p] = true
	}

	var caps []string
	var capParams []ast.Param
	for _, name := range FreeIdents(body) {
		if bound[name] || builtins[name] || e.auxNames[name] {
			continue
		}
		if _, ok := e.inf.funcs[name]; ok {
			continue
		}
		t, ok := env.lookup(name)
		if !ok {
			b.failed = true
			e.diags = append(e.diags, diag.Warnf(diag.CodeBehaviorUnresolved, e.pos(),
				"behavior references unresolvable identifier %q; placeholder substituted", name))
			// Best effort: surface the raw statements so the defect is
			// visible in the output rather than silently dropped.
			for i, p := range paramNames {
				hoists = append(hoists, e.f.Let(p, argAt(args, i), e.line))
			}
			return e.f.Nil(), append(hoists, body...)
		}
		caps = append(caps, name)
		p := ast.Param{Name: name}
		if t.IsResolved() {
			p.Type = t
		}
		capParams = append(capParams, p)
	}

	name := e.names.Fresh("aux")
	fn := &ast.FuncDecl{
		BaseStmt: ast.BaseStmt{SourceLine: e.line},
		Name:     name,
		Params:   append(params, capParams...),
		Body:     body,
	}
	e.aux = append(e.aux, fn)
	e.auxNames[name] = true
	b.aux = name
	b.caps = caps
	e.diags = append(e.diags, diag.Infof(diag.CodeBehaviorExtracted, e.pos(),
		"behavior could not be inlined; extracted to %s", name))
	return e.auxCall(b, args), hoists
}

func (e *Engine) auxCall(b *behaviorBinding, args []ast.Expr) ast.Expr {
	callArgs := append([]ast.Expr(nil), args...)
	for _, c := range b.caps {
		callArgs = append(callArgs, e.f.Ident(c))
	}
	return &ast.CallExpr{Func: e.f.Ident(b.aux), Args: callArgs}
}

// renameLambda produces a hygienic copy of the behavior with fresh parameter
// and local names; caller-scope references stay untouched.
func (e *Engine) renameLambda(lam *ast.LambdaExpr) *ast.LambdaExpr {
	return newRenamer(e.names).renameExpr(lam).(*ast.LambdaExpr)
}

func argAt(args []ast.Expr, i int) ast.Expr {
	if i < len(args) && args[i] != nil {
		return args[i]
	}
	return &ast.NilLiteral{}
}
