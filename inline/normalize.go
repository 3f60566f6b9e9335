package inline

import "github.com/weldlang/weld/ast"

// NormalizeReturns rewrites a multi-exit statement sequence into single-exit
// form: a result variable initialized to a type-appropriate default, every
// `return X` converted into a result assignment, and a final `return result`.
//
// Straight guard chains (a branch either returns on every path or contains no
// return) restructure cleanly: the statements following a fully-returning
// branch move into its else side. Mixed branches and returns inside loops
// need a runtime marker: such returns additionally set a done flag (and break
// out of their loop), and the statements they must skip are guarded on it.
// The flag is stripped again when no guard ended up needing it.
func NormalizeReturns(body []ast.Statement, resultType *ast.Type, names *NameSource) []ast.Statement {
	n := &normalizer{
		f:      ast.NewFactory(),
		result: names.Fresh("ret"),
		done:   names.Fresh("done"),
	}
	line := 0
	if len(body) > 0 {
		line = body[0].StmtLine()
	}
	out, _, _ := n.seq(body, false)

	var stmts []ast.Statement
	if resultType != nil {
		stmts = append(stmts, n.f.TypedLet(n.result, resultType, n.f.DefaultValue(resultType), line))
	} else {
		stmts = append(stmts, n.f.Let(n.result, n.f.DefaultValue(resultType), line))
	}
	if n.guarded {
		stmts = append(stmts, n.f.Let(n.done, n.f.Bool(false), line))
		stmts = append(stmts, out...)
	} else {
		stmts = append(stmts, stripAssigns(out, n.done)...)
	}
	stmts = append(stmts, n.f.Return(n.f.Ident(n.result), line))
	return stmts
}

// needsNormalization reports whether body has any return other than a single
// plain one in final position.
func needsNormalization(body []ast.Statement) bool {
	for i, s := range body {
		if _, ok := s.(*ast.ReturnStmt); ok {
			if i != len(body)-1 {
				return true
			}
			continue
		}
		if stmtContainsReturn(s) {
			return true
		}
	}
	return false
}

// stmtContainsReturn reports whether s contains a return belonging to the
// enclosing function body. Lambda bodies own their returns and are skipped.
func stmtContainsReturn(s ast.Statement) bool {
	switch st := s.(type) {
	case *ast.ReturnStmt:
		return true
	case *ast.IfStmt:
		return stmtsContainReturn(st.Body) || stmtsContainReturn(st.Else)
	case *ast.WhileStmt:
		return stmtsContainReturn(st.Body)
	case *ast.LoopStmt:
		return stmtsContainReturn(st.Body)
	case *ast.ForInStmt:
		return stmtsContainReturn(st.Body)
	case *ast.ForStmt:
		return stmtsContainReturn(st.Body)
	case *ast.SwitchStmt:
		for _, c := range st.Cases {
			if stmtsContainReturn(c.Body) {
				return true
			}
		}
		return stmtsContainReturn(st.Default)
	default:
		return false
	}
}

func stmtsContainReturn(stmts []ast.Statement) bool {
	for _, s := range stmts {
		if stmtContainsReturn(s) {
			return true
		}
	}
	return false
}

type normalizer struct {
	f       *ast.Factory
	result  string
	done    string
	guarded bool // a guard on the done flag was emitted
}

// seq normalizes a statement list. completes reports whether some path falls
// off the end without having returned; escapes reports whether some path
// falls off the end with the result assigned (and the done flag set), which
// the caller must keep away from any following statements.
func (n *normalizer) seq(stmts []ast.Statement, inLoop bool) (out []ast.Statement, completes, escapes bool) {
	for i, s := range stmts {
		rest := stmts[i+1:]
		mixed := false // some paths returned, some continue; rest needs a guard
		switch st := s.(type) {
		case *ast.ReturnStmt:
			out = append(out, n.consumeReturn(st, inLoop)...)
			return out, false, !inLoop
		case *ast.IfStmt:
			if !stmtContainsReturn(st) {
				out = append(out, st)
				continue
			}
			stop, consumedRest, c, e := n.branch(st, rest, inLoop)
			out = append(out, stop...)
			if consumedRest {
				return out, c, e
			}
			mixed = e
		case *ast.SwitchStmt:
			if !stmtContainsReturn(st) {
				out = append(out, st)
				continue
			}
			sw, c, e := n.dispatch(st, inLoop)
			out = append(out, sw)
			if !c {
				return out, false, e
			}
			mixed = e
		case *ast.WhileStmt:
			var ls []ast.Statement
			ls, mixed = n.loopish(st, func(body []ast.Statement) ast.Statement {
				return &ast.WhileStmt{BaseStmt: st.BaseStmt, Cond: st.Cond, Body: body}
			}, st.Body, inLoop)
			out = append(out, ls...)
		case *ast.LoopStmt:
			var ls []ast.Statement
			ls, mixed = n.loopish(st, func(body []ast.Statement) ast.Statement {
				return &ast.LoopStmt{BaseStmt: st.BaseStmt, Body: body}
			}, st.Body, inLoop)
			out = append(out, ls...)
		case *ast.ForInStmt:
			var ls []ast.Statement
			ls, mixed = n.loopish(st, func(body []ast.Statement) ast.Statement {
				return &ast.ForInStmt{BaseStmt: st.BaseStmt, Var: st.Var, Collection: st.Collection, Body: body}
			}, st.Body, inLoop)
			out = append(out, ls...)
		case *ast.ForStmt:
			var ls []ast.Statement
			ls, mixed = n.loopish(st, func(body []ast.Statement) ast.Statement {
				return &ast.ForStmt{BaseStmt: st.BaseStmt, Init: st.Init, Cond: st.Cond, Post: st.Post, Body: body}
			}, st.Body, inLoop)
			out = append(out, ls...)
		case *ast.BreakStmt, *ast.ContinueStmt:
			out = append(out, s)
			return out, false, false
		default:
			out = append(out, s)
		}
		if mixed {
			if len(rest) == 0 {
				return out, true, true
			}
			restOut, rc, _ := n.seq(rest, inLoop)
			out = append(out, n.guard(restOut, s.StmtLine())...)
			return out, rc, true
		}
	}
	return out, true, false
}

// consumeReturn lowers one return statement.
func (n *normalizer) consumeReturn(st *ast.ReturnStmt, inLoop bool) []ast.Statement {
	var out []ast.Statement
	if st.Value != nil {
		out = append(out, n.f.Assign(n.result, st.Value, st.StmtLine()))
	}
	out = append(out, n.f.Assign(n.done, n.f.Bool(true), st.StmtLine()))
	if inLoop {
		out = append(out, n.f.Break(st.StmtLine()))
	}
	return out
}

// guard wraps stmts so they only run when the done flag is not set.
func (n *normalizer) guard(stmts []ast.Statement, line int) []ast.Statement {
	if len(stmts) == 0 {
		return nil
	}
	n.guarded = true
	return []ast.Statement{n.f.If(n.f.Not(n.f.Ident(n.done)), stmts, nil, line)}
}

// branch normalizes an if statement that contains returns. When one side
// returns on every path, the remaining statements of the sequence move into
// the other side, consuming them (done=true). Otherwise the if is emitted
// alone and the caller decides whether a guard is needed.
func (n *normalizer) branch(st *ast.IfStmt, rest []ast.Statement, inLoop bool) (out []ast.Statement, consumedRest, completes, escapes bool) {
	thenOut, tc, te := n.seq(st.Body, inLoop)
	elseOut, ec, ee := n.seq(st.Else, inLoop)
	switch {
	case !tc && !ec:
		// Both sides return (or break out); nothing after is reachable.
		out = append(out, n.f.If(st.Cond, thenOut, elseOut, st.StmtLine()))
		return out, true, false, te || ee
	case !tc:
		restOut, rc, re := n.seq(rest, inLoop)
		out = append(out, n.f.If(st.Cond, thenOut, append(elseOut, restOut...), st.StmtLine()))
		return out, true, rc, te || ee || re
	case !ec:
		restOut, rc, re := n.seq(rest, inLoop)
		out = append(out, n.f.If(st.Cond, append(thenOut, restOut...), elseOut, st.StmtLine()))
		return out, true, rc, te || ee || re
	default:
		out = append(out, n.f.If(st.Cond, thenOut, elseOut, st.StmtLine()))
		return out, false, true, te || ee
	}
}

// dispatch normalizes a switch whose arms contain returns. Arms do not fall
// through, so each arm normalizes independently; an arm that completes
// continues into the statements following the switch.
func (n *normalizer) dispatch(st *ast.SwitchStmt, inLoop bool) (out ast.Statement, completes, escapes bool) {
	cases := make([]ast.SwitchCase, len(st.Cases))
	for i, c := range st.Cases {
		body, cc, ce := n.seq(c.Body, inLoop)
		cases[i] = ast.SwitchCase{Values: c.Values, Body: body}
		completes = completes || cc
		escapes = escapes || ce
	}
	dflt, dc, de := n.seq(st.Default, inLoop)
	completes = completes || dc || !st.HasDflt
	escapes = escapes || de
	return &ast.SwitchStmt{BaseStmt: st.BaseStmt, Subject: st.Subject, Cases: cases, Default: dflt, HasDflt: st.HasDflt}, completes, escapes
}

// loopish normalizes one loop statement. Returns inside the body become
// result+done+break; when the body contained a return the loop exit is
// followed by a re-break inside an enclosing loop, or reported as mixed so
// the sequence level guards whatever follows.
func (n *normalizer) loopish(st ast.Statement, rebuild func([]ast.Statement) ast.Statement, body []ast.Statement, inLoop bool) ([]ast.Statement, bool) {
	if !stmtsContainReturn(body) {
		return []ast.Statement{st}, false
	}
	newBody, _, _ := n.seq(body, true)
	out := []ast.Statement{rebuild(newBody)}
	if inLoop {
		n.guarded = true
		out = append(out, n.f.If(n.f.Ident(n.done), []ast.Statement{n.f.Break(st.StmtLine())}, nil, st.StmtLine()))
		return out, false
	}
	return out, true
}

// stripAssigns removes assignments to the given variable; used to drop dead
// done-flag stores when no guard consumed them.
func stripAssigns(stmts []ast.Statement, name string) []ast.Statement {
	out := make([]ast.Statement, 0, len(stmts))
	for _, s := range stmts {
		switch st := s.(type) {
		case *ast.AssignStmt:
			if st.Target == name {
				continue
			}
			out = append(out, st)
		case *ast.IfStmt:
			out = append(out, &ast.IfStmt{BaseStmt: st.BaseStmt, Cond: st.Cond, Body: stripAssigns(st.Body, name), Else: stripAssigns(st.Else, name)})
		case *ast.WhileStmt:
			out = append(out, &ast.WhileStmt{BaseStmt: st.BaseStmt, Cond: st.Cond, Body: stripAssigns(st.Body, name)})
		case *ast.LoopStmt:
			out = append(out, &ast.LoopStmt{BaseStmt: st.BaseStmt, Body: stripAssigns(st.Body, name)})
		case *ast.ForInStmt:
			out = append(out, &ast.ForInStmt{BaseStmt: st.BaseStmt, Var: st.Var, Collection: st.Collection, Body: stripAssigns(st.Body, name)})
		case *ast.ForStmt:
			out = append(out, &ast.ForStmt{BaseStmt: st.BaseStmt, Init: st.Init, Cond: st.Cond, Post: st.Post, Body: stripAssigns(st.Body, name)})
		case *ast.SwitchStmt:
			cases := make([]ast.SwitchCase, len(st.Cases))
			for i, cs := range st.Cases {
				cases[i] = ast.SwitchCase{Values: cs.Values, Body: stripAssigns(cs.Body, name)}
			}
			out = append(out, &ast.SwitchStmt{BaseStmt: st.BaseStmt, Subject: st.Subject, Cases: cases, Default: stripAssigns(st.Default, name), HasDflt: st.HasDflt})
		default:
			out = append(out, s)
		}
	}
	return out
}
