package inline

import "github.com/weldlang/weld/ast"

// Argument is one call-site argument, pre-classified by syntactic shape:
// a lambda literal is a behavior, anything else is a plain value.
type Argument struct {
	Expr     ast.Expr
	Behavior *ast.LambdaExpr // non-nil for behavior arguments
}

// CallSite is a resolved template invocation: the receiver expression, the
// classified argument list, and the template it targets.
type CallSite struct {
	Template *Template
	Recv     ast.Expr
	Args     []Argument
}

// Resolve identifies whether e is a call to a known template. Failure is not
// an error; most invocations are not template calls and the caller leaves
// the node unmodified.
func (r *Registry) Resolve(e ast.Expr) (*CallSite, bool) {
	call, ok := e.(*ast.CallExpr)
	if !ok {
		return nil, false
	}
	dot, ok := call.Func.(*ast.DotExpr)
	if !ok {
		return nil, false
	}
	t, ok := r.Lookup(dot.Field, len(call.Args))
	if !ok {
		return nil, false
	}
	site := &CallSite{Template: t, Recv: dot.Object}
	for _, a := range call.Args {
		arg := Argument{Expr: a}
		if lam, ok := unwrapParens(a).(*ast.LambdaExpr); ok {
			arg.Behavior = lam
		}
		site.Args = append(site.Args, arg)
	}
	return site, true
}

func unwrapParens(e ast.Expr) ast.Expr {
	for {
		p, ok := e.(*ast.ParenExpr)
		if !ok {
			return e
		}
		e = p.Inner
	}
}
