package inline

import "github.com/weldlang/weld/ast"

// renamer walks a statement tree and renames every locally-declared variable
// to a run-unique name. It tracks nested lexical scopes so that sibling
// scopes may reuse a source name without colliding after renaming: a name
// visible in an enclosing frame is visible to all inner frames unless
// shadowed, and sibling frames never share a renamed identity.
//
// Identifiers with no local binding are left untouched; they are either
// template formals (substituted later) or caller-scope references.
type renamer struct {
	names  *NameSource
	scopes []map[string]string
}

func newRenamer(names *NameSource) *renamer {
	return &renamer{names: names, scopes: []map[string]string{{}}}
}

func (rn *renamer) push() {
	rn.scopes = append(rn.scopes, map[string]string{})
}

func (rn *renamer) pop() {
	rn.scopes = rn.scopes[:len(rn.scopes)-1]
}

// bind declares name in the innermost frame and returns its fresh identity.
func (rn *renamer) bind(name string) string {
	fresh := rn.names.Fresh(name)
	rn.scopes[len(rn.scopes)-1][name] = fresh
	return fresh
}

// lookup resolves name against the frame stack, innermost first.
func (rn *renamer) lookup(name string) (string, bool) {
	for i := len(rn.scopes) - 1; i >= 0; i-- {
		if renamed, ok := rn.scopes[i][name]; ok {
			return renamed, true
		}
	}
	return "", false
}

func (rn *renamer) renameStmts(stmts []ast.Statement) []ast.Statement {
	out := make([]ast.Statement, 0, len(stmts))
	for _, s := range stmts {
		out = append(out, rn.renameStmt(s))
	}
	return out
}

func (rn *renamer) renameStmt(s ast.Statement) ast.Statement {
	switch st := s.(type) {
	case *ast.LetStmt:
		// The initializer sees the enclosing binding, not the new one.
		value := rn.renameExpr(st.Value)
		return &ast.LetStmt{BaseStmt: st.BaseStmt, Name: rn.bind(st.Name), Type: st.Type, Value: value}
	case *ast.AssignStmt:
		target := st.Target
		if renamed, ok := rn.lookup(target); ok {
			target = renamed
		}
		return &ast.AssignStmt{BaseStmt: st.BaseStmt, Target: target, Value: rn.renameExpr(st.Value)}
	case *ast.IndexAssignStmt:
		return &ast.IndexAssignStmt{BaseStmt: st.BaseStmt, Object: rn.renameExpr(st.Object), Index: rn.renameExpr(st.Index), Value: rn.renameExpr(st.Value)}
	case *ast.DotAssignStmt:
		return &ast.DotAssignStmt{BaseStmt: st.BaseStmt, Object: rn.renameExpr(st.Object), Field: st.Field, Value: rn.renameExpr(st.Value)}
	case *ast.IfStmt:
		cond := rn.renameExpr(st.Cond)
		rn.push()
		body := rn.renameStmts(st.Body)
		rn.pop()
		rn.push()
		elseBody := rn.renameStmts(st.Else)
		rn.pop()
		return &ast.IfStmt{BaseStmt: st.BaseStmt, Cond: cond, Body: body, Else: elseBody}
	case *ast.WhileStmt:
		cond := rn.renameExpr(st.Cond)
		rn.push()
		body := rn.renameStmts(st.Body)
		rn.pop()
		return &ast.WhileStmt{BaseStmt: st.BaseStmt, Cond: cond, Body: body}
	case *ast.LoopStmt:
		rn.push()
		body := rn.renameStmts(st.Body)
		rn.pop()
		return &ast.LoopStmt{BaseStmt: st.BaseStmt, Body: body}
	case *ast.ForInStmt:
		coll := rn.renameExpr(st.Collection)
		rn.push()
		v := rn.bind(st.Var)
		body := rn.renameStmts(st.Body)
		rn.pop()
		return &ast.ForInStmt{BaseStmt: st.BaseStmt, Var: v, Collection: coll, Body: body}
	case *ast.ForStmt:
		rn.push()
		var init, post ast.Statement
		if st.Init != nil {
			init = rn.renameStmt(st.Init)
		}
		cond := rn.renameExpr(st.Cond)
		if st.Post != nil {
			post = rn.renameStmt(st.Post)
		}
		body := rn.renameStmts(st.Body)
		rn.pop()
		return &ast.ForStmt{BaseStmt: st.BaseStmt, Init: init, Cond: cond, Post: post, Body: body}
	case *ast.SwitchStmt:
		subject := rn.renameExpr(st.Subject)
		cases := make([]ast.SwitchCase, len(st.Cases))
		for i, c := range st.Cases {
			values := make([]ast.Expr, len(c.Values))
			for j, v := range c.Values {
				values[j] = rn.renameExpr(v)
			}
			rn.push()
			body := rn.renameStmts(c.Body)
			rn.pop()
			cases[i] = ast.SwitchCase{Values: values, Body: body}
		}
		rn.push()
		dflt := rn.renameStmts(st.Default)
		rn.pop()
		return &ast.SwitchStmt{BaseStmt: st.BaseStmt, Subject: subject, Cases: cases, Default: dflt, HasDflt: st.HasDflt}
	case *ast.ReturnStmt:
		return &ast.ReturnStmt{BaseStmt: st.BaseStmt, Value: rn.renameExpr(st.Value)}
	case *ast.ExprStmt:
		return &ast.ExprStmt{BaseStmt: st.BaseStmt, Expression: rn.renameExpr(st.Expression)}
	case *ast.BreakStmt, *ast.ContinueStmt:
		return s
	default:
		return s
	}
}

func (rn *renamer) renameExprs(exprs []ast.Expr) []ast.Expr {
	out := make([]ast.Expr, len(exprs))
	for i, e := range exprs {
		out[i] = rn.renameExpr(e)
	}
	return out
}

func (rn *renamer) renameExpr(e ast.Expr) ast.Expr {
	switch ex := e.(type) {
	case nil:
		return nil
	case *ast.IdentExpr:
		if renamed, ok := rn.lookup(ex.Name); ok {
			return &ast.IdentExpr{Name: renamed}
		}
		return ex
	case *ast.BinaryExpr:
		return &ast.BinaryExpr{Left: rn.renameExpr(ex.Left), Op: ex.Op, Right: rn.renameExpr(ex.Right)}
	case *ast.UnaryExpr:
		return &ast.UnaryExpr{Op: ex.Op, Operand: rn.renameExpr(ex.Operand)}
	case *ast.TernaryExpr:
		return &ast.TernaryExpr{Cond: rn.renameExpr(ex.Cond), Then: rn.renameExpr(ex.Then), Else: rn.renameExpr(ex.Else)}
	case *ast.CallExpr:
		return &ast.CallExpr{Func: rn.renameExpr(ex.Func), Args: rn.renameExprs(ex.Args)}
	case *ast.IndexExpr:
		return &ast.IndexExpr{Object: rn.renameExpr(ex.Object), Index: rn.renameExpr(ex.Index)}
	case *ast.DotExpr:
		return &ast.DotExpr{Object: rn.renameExpr(ex.Object), Field: ex.Field}
	case *ast.ParenExpr:
		return &ast.ParenExpr{Inner: rn.renameExpr(ex.Inner)}
	case *ast.ArrayLiteral:
		return &ast.ArrayLiteral{Elements: rn.renameExprs(ex.Elements)}
	case *ast.LambdaExpr:
		rn.push()
		params := make([]string, len(ex.Params))
		for i, p := range ex.Params {
			params[i] = rn.bind(p)
		}
		lam := &ast.LambdaExpr{Params: params}
		if ex.IsExprForm() {
			lam.Expr = rn.renameExpr(ex.Expr)
		} else {
			lam.Body = rn.renameStmts(ex.Body)
		}
		rn.pop()
		return lam
	default:
		return e
	}
}
