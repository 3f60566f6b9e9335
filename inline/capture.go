package inline

import "github.com/weldlang/weld/ast"

// FreeIdents collects the identifiers referenced by stmts but not bound
// inside them, in first-appearance order. Assignment targets count as
// references; binders are lets, loop variables, for-init lets and lambda
// parameters. Call targets are included; the caller filters out function
// names and builtins before treating the rest as captures.
func FreeIdents(stmts []ast.Statement) []string {
	c := newCollector()
	c.stmts(stmts)
	return c.free
}

type collector struct {
	scopes []map[string]bool
	free   []string
	seen   map[string]bool
}

func newCollector() *collector {
	return &collector{scopes: []map[string]bool{{}}, seen: map[string]bool{}}
}

func (c *collector) push() { c.scopes = append(c.scopes, map[string]bool{}) }
func (c *collector) pop()  { c.scopes = c.scopes[:len(c.scopes)-1] }

func (c *collector) bind(name string) {
	c.scopes[len(c.scopes)-1][name] = true
}

func (c *collector) ref(name string) {
	for i := len(c.scopes) - 1; i >= 0; i-- {
		if c.scopes[i][name] {
			return
		}
	}
	if !c.seen[name] {
		c.seen[name] = true
		c.free = append(c.free, name)
	}
}

func (c *collector) stmts(stmts []ast.Statement) {
	for _, s := range stmts {
		c.stmt(s)
	}
}

func (c *collector) stmt(s ast.Statement) {
	switch st := s.(type) {
	case *ast.LetStmt:
		c.expr(st.Value)
		c.bind(st.Name)
	case *ast.AssignStmt:
		c.ref(st.Target)
		c.expr(st.Value)
	case *ast.IndexAssignStmt:
		c.expr(st.Object)
		c.expr(st.Index)
		c.expr(st.Value)
	case *ast.DotAssignStmt:
		c.expr(st.Object)
		c.expr(st.Value)
	case *ast.IfStmt:
		c.expr(st.Cond)
		c.push()
		c.stmts(st.Body)
		c.pop()
		c.push()
		c.stmts(st.Else)
		c.pop()
	case *ast.WhileStmt:
		c.expr(st.Cond)
		c.push()
		c.stmts(st.Body)
		c.pop()
	case *ast.LoopStmt:
		c.push()
		c.stmts(st.Body)
		c.pop()
	case *ast.ForInStmt:
		c.expr(st.Collection)
		c.push()
		c.bind(st.Var)
		c.stmts(st.Body)
		c.pop()
	case *ast.ForStmt:
		c.push()
		if st.Init != nil {
			c.stmt(st.Init)
		}
		c.expr(st.Cond)
		if st.Post != nil {
			c.stmt(st.Post)
		}
		c.stmts(st.Body)
		c.pop()
	case *ast.SwitchStmt:
		c.expr(st.Subject)
		for _, cs := range st.Cases {
			for _, v := range cs.Values {
				c.expr(v)
			}
			c.push()
			c.stmts(cs.Body)
			c.pop()
		}
		c.push()
		c.stmts(st.Default)
		c.pop()
	case *ast.ReturnStmt:
		c.expr(st.Value)
	case *ast.ExprStmt:
		c.expr(st.Expression)
	}
}

func (c *collector) expr(e ast.Expr) {
	switch ex := e.(type) {
	case nil:
	case *ast.IdentExpr:
		c.ref(ex.Name)
	case *ast.BinaryExpr:
		c.expr(ex.Left)
		c.expr(ex.Right)
	case *ast.UnaryExpr:
		c.expr(ex.Operand)
	case *ast.TernaryExpr:
		c.expr(ex.Cond)
		c.expr(ex.Then)
		c.expr(ex.Else)
	case *ast.CallExpr:
		c.expr(ex.Func)
		for _, a := range ex.Args {
			c.expr(a)
		}
	case *ast.IndexExpr:
		c.expr(ex.Object)
		c.expr(ex.Index)
	case *ast.DotExpr:
		c.expr(ex.Object)
	case *ast.ParenExpr:
		c.expr(ex.Inner)
	case *ast.ArrayLiteral:
		for _, el := range ex.Elements {
			c.expr(el)
		}
	case *ast.LambdaExpr:
		c.push()
		for _, p := range ex.Params {
			c.bind(p)
		}
		if ex.IsExprForm() {
			c.expr(ex.Expr)
		} else {
			c.stmts(ex.Body)
		}
		c.pop()
	}
}
