package inline

import "github.com/weldlang/weld/ast"

// typeEnv is a chained symbol table tracking the declared or inferred type of
// every variable visible at a point in the caller program. Lookup doubles as
// an existence check for capture resolution.
type typeEnv struct {
	parent *typeEnv
	vars   map[string]*ast.Type
}

func newTypeEnv(parent *typeEnv) *typeEnv {
	return &typeEnv{parent: parent, vars: make(map[string]*ast.Type)}
}

func (env *typeEnv) define(name string, t *ast.Type) {
	if t == nil {
		t = ast.UnknownType
	}
	env.vars[name] = t
}

// set updates the frame that declared name, falling back to defining it in
// the current frame when no declaration is visible.
func (env *typeEnv) set(name string, t *ast.Type) {
	if t == nil {
		t = ast.UnknownType
	}
	for e := env; e != nil; e = e.parent {
		if _, ok := e.vars[name]; ok {
			e.vars[name] = t
			return
		}
	}
	env.vars[name] = t
}

func (env *typeEnv) lookup(name string) (*ast.Type, bool) {
	for e := env; e != nil; e = e.parent {
		if t, ok := e.vars[name]; ok {
			return t, true
		}
	}
	return nil, false
}

// inferencer assigns conservative types to expressions. Anything it cannot
// prove stays unknown; unification simply learns nothing from an unknown
// operand, it never guesses.
type inferencer struct {
	funcs map[string]*ast.Type // declared result types of ordinary functions
}

func newInferencer() *inferencer {
	return &inferencer{funcs: make(map[string]*ast.Type)}
}

func (in *inferencer) exprType(e ast.Expr, env *typeEnv) *ast.Type {
	switch ex := e.(type) {
	case *ast.IntLiteral:
		return ast.IntType
	case *ast.FloatLiteral:
		return ast.FloatType
	case *ast.StringLiteral:
		return ast.StringType
	case *ast.BoolLiteral:
		return ast.BoolType
	case *ast.NilLiteral:
		return ast.NilType
	case *ast.LambdaExpr:
		return ast.FuncType
	case *ast.IdentExpr:
		if t, ok := env.lookup(ex.Name); ok {
			return t
		}
		return ast.UnknownType
	case *ast.ParenExpr:
		return in.exprType(ex.Inner, env)
	case *ast.ArrayLiteral:
		return ast.ArrayOf(in.elemType(ex.Elements, env))
	case *ast.UnaryExpr:
		if ex.Op == "!" {
			return ast.BoolType
		}
		return in.exprType(ex.Operand, env)
	case *ast.BinaryExpr:
		return in.binaryType(ex, env)
	case *ast.TernaryExpr:
		thenT := in.exprType(ex.Then, env)
		elseT := in.exprType(ex.Else, env)
		if thenT.Equal(elseT) {
			return thenT
		}
		return ast.UnknownType
	case *ast.IndexExpr:
		objT := in.exprType(ex.Object, env)
		if objT.Kind == ast.TypeArray {
			return objT.Elem
		}
		return ast.UnknownType
	case *ast.CallExpr:
		return in.callType(ex, env)
	default:
		return ast.UnknownType
	}
}

func (in *inferencer) elemType(elems []ast.Expr, env *typeEnv) *ast.Type {
	if len(elems) == 0 {
		return ast.UnknownType
	}
	t := in.exprType(elems[0], env)
	for _, el := range elems[1:] {
		if !t.Equal(in.exprType(el, env)) {
			return ast.AnyType
		}
	}
	return t
}

func (in *inferencer) binaryType(ex *ast.BinaryExpr, env *typeEnv) *ast.Type {
	switch ex.Op {
	case "==", "!=", "<", "<=", ">", ">=", "&&", "||":
		return ast.BoolType
	case "+", "-", "*", "/", "%":
		left := in.exprType(ex.Left, env)
		right := in.exprType(ex.Right, env)
		switch {
		case left.Kind == ast.TypeString || right.Kind == ast.TypeString:
			if ex.Op == "+" {
				return ast.StringType
			}
			return ast.UnknownType
		case left.Kind == ast.TypeFloat || right.Kind == ast.TypeFloat:
			return ast.FloatType
		case left.Kind == ast.TypeInt && right.Kind == ast.TypeInt:
			return ast.IntType
		default:
			return ast.UnknownType
		}
	default:
		return ast.UnknownType
	}
}

func (in *inferencer) callType(ex *ast.CallExpr, env *typeEnv) *ast.Type {
	ident, ok := ex.Func.(*ast.IdentExpr)
	if !ok {
		return ast.UnknownType
	}
	switch ident.Name {
	case "len":
		return ast.IntType
	case "push":
		if len(ex.Args) > 0 {
			return in.exprType(ex.Args[0], env)
		}
		return ast.UnknownType
	}
	if t, ok := in.funcs[ident.Name]; ok && t != nil {
		return t
	}
	return ast.UnknownType
}

// unify matches a template header annotation against an inferred concrete
// type, binding type parameters. Only resolved actual types bind; the first
// binding of a parameter wins and later conflicting evidence is ignored.
func unify(formal, actual *ast.Type, bindings map[string]*ast.Type) {
	if formal == nil || actual == nil {
		return
	}
	switch formal.Kind {
	case ast.TypeParam:
		if actual.IsResolved() {
			if _, bound := bindings[formal.Name]; !bound {
				bindings[formal.Name] = actual
			}
		}
	case ast.TypeArray:
		if actual.Kind == ast.TypeArray {
			unify(formal.Elem, actual.Elem, bindings)
		}
	}
}

// substType replaces type parameters in t with their bindings; unbound
// parameters are left as-is.
func substType(t *ast.Type, bindings map[string]*ast.Type) *ast.Type {
	if t == nil {
		return nil
	}
	switch t.Kind {
	case ast.TypeParam:
		if bound, ok := bindings[t.Name]; ok {
			return bound
		}
		return t
	case ast.TypeArray:
		elem := substType(t.Elem, bindings)
		if elem == t.Elem {
			return t
		}
		return ast.ArrayOf(elem)
	default:
		return t
	}
}

// substTypesStmts rewrites the type annotations inside a template body with
// the resolved generic bindings. Only type positions change; identifiers that
// happen to share a type parameter's name are untouched.
func substTypesStmts(stmts []ast.Statement, bindings map[string]*ast.Type) []ast.Statement {
	if len(bindings) == 0 {
		return stmts
	}
	out := make([]ast.Statement, len(stmts))
	for i, s := range stmts {
		out[i] = substTypesStmt(s, bindings)
	}
	return out
}

func substTypesStmt(s ast.Statement, bindings map[string]*ast.Type) ast.Statement {
	switch st := s.(type) {
	case *ast.LetStmt:
		if st.Type == nil {
			return st
		}
		return &ast.LetStmt{BaseStmt: st.BaseStmt, Name: st.Name, Type: substType(st.Type, bindings), Value: st.Value}
	case *ast.IfStmt:
		return &ast.IfStmt{BaseStmt: st.BaseStmt, Cond: st.Cond, Body: substTypesStmts(st.Body, bindings), Else: substTypesStmts(st.Else, bindings)}
	case *ast.WhileStmt:
		return &ast.WhileStmt{BaseStmt: st.BaseStmt, Cond: st.Cond, Body: substTypesStmts(st.Body, bindings)}
	case *ast.LoopStmt:
		return &ast.LoopStmt{BaseStmt: st.BaseStmt, Body: substTypesStmts(st.Body, bindings)}
	case *ast.ForInStmt:
		return &ast.ForInStmt{BaseStmt: st.BaseStmt, Var: st.Var, Collection: st.Collection, Body: substTypesStmts(st.Body, bindings)}
	case *ast.ForStmt:
		out := &ast.ForStmt{BaseStmt: st.BaseStmt, Cond: st.Cond, Post: st.Post, Body: substTypesStmts(st.Body, bindings)}
		if st.Init != nil {
			out.Init = substTypesStmt(st.Init, bindings)
		}
		return out
	case *ast.SwitchStmt:
		cases := make([]ast.SwitchCase, len(st.Cases))
		for i, c := range st.Cases {
			cases[i] = ast.SwitchCase{Values: c.Values, Body: substTypesStmts(c.Body, bindings)}
		}
		return &ast.SwitchStmt{BaseStmt: st.BaseStmt, Subject: st.Subject, Cases: cases, Default: substTypesStmts(st.Default, bindings), HasDflt: st.HasDflt}
	default:
		return s
	}
}
