package inline

import "github.com/weldlang/weld/ast"

// SplitReturns attempts to split a statement sequence into a prefix of
// non-returning statements plus a single value expression equivalent to what
// the sequence would have returned. If-returns become ternaries,
// right-associated on the else side. A return buried in a loop or switch, or
// a branch that would need its own conditional prefix, fails the whole split;
// the caller falls back to extraction.
func SplitReturns(stmts []ast.Statement) (prefix []ast.Statement, value ast.Expr, ok bool) {
	for i, s := range stmts {
		switch st := s.(type) {
		case *ast.ReturnStmt:
			return prefix, returnValue(st), true
		case *ast.IfStmt:
			if !stmtContainsReturn(st) {
				prefix = append(prefix, s)
				continue
			}
			value, ok = splitBranch(st, stmts[i+1:])
			if !ok {
				return nil, nil, false
			}
			return prefix, value, true
		default:
			if stmtContainsReturn(s) {
				return nil, nil, false
			}
			prefix = append(prefix, s)
		}
	}
	// No return anywhere: the sequence produces nil.
	return prefix, &ast.NilLiteral{}, true
}

// splitBranch turns an if statement with returns into a ternary. Each branch
// must reduce to a bare value; a branch needing statements of its own cannot
// be expressed conditionally and fails. A branch that completes without
// returning falls through to rest, so rest threads into both sides.
func splitBranch(st *ast.IfStmt, rest []ast.Statement) (ast.Expr, bool) {
	thenVal, ok := tailValue(st.Body, rest)
	if !ok {
		return nil, false
	}
	elseVal, ok := tailValue(st.Else, rest)
	if !ok {
		return nil, false
	}
	return &ast.TernaryExpr{Cond: st.Cond, Then: thenVal, Else: elseVal}, true
}

// tailValue reduces a statement sequence to a single value expression with no
// prefix statements at all; rest is the continuation the sequence falls into
// when it ends without returning.
func tailValue(stmts, rest []ast.Statement) (ast.Expr, bool) {
	if len(stmts) == 0 {
		if len(rest) == 0 {
			return &ast.NilLiteral{}, true
		}
		return tailValue(rest, nil)
	}
	switch st := stmts[0].(type) {
	case *ast.ReturnStmt:
		return returnValue(st), true
	case *ast.IfStmt:
		if !stmtContainsReturn(st) {
			return nil, false
		}
		cont := make([]ast.Statement, 0, len(stmts)-1+len(rest))
		cont = append(cont, stmts[1:]...)
		cont = append(cont, rest...)
		return splitBranch(st, cont)
	default:
		return nil, false
	}
}

func returnValue(st *ast.ReturnStmt) ast.Expr {
	if st.Value == nil {
		return &ast.NilLiteral{}
	}
	return st.Value
}
