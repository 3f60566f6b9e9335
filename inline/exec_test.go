package inline_test

// A small reference interpreter for weld programs, used to check that
// expanded output executes the same as the behavior the caller wrote.

import (
	"fmt"
	"strconv"
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/weldlang/weld/ast"
	"github.com/weldlang/weld/parser"
)

type value any

type array struct{ elems []value }

type closure struct {
	params []string
	expr   ast.Expr
	body   []ast.Statement
	env    *frame
}

type frame struct {
	parent *frame
	vars   map[string]value
}

func newFrame(parent *frame) *frame {
	return &frame{parent: parent, vars: map[string]value{}}
}

func (f *frame) get(name string) (value, bool) {
	for e := f; e != nil; e = e.parent {
		if v, ok := e.vars[name]; ok {
			return v, true
		}
	}
	return nil, false
}

func (f *frame) set(name string, v value) {
	for e := f; e != nil; e = e.parent {
		if _, ok := e.vars[name]; ok {
			e.vars[name] = v
			return
		}
	}
	f.vars[name] = v
}

const (
	ctrlNone = iota
	ctrlReturn
	ctrlBreak
	ctrlContinue
)

type interp struct {
	t      *testing.T
	funcs  map[string]*ast.FuncDecl
	global *frame
	out    []string
	steps  int
}

// runProgram parses and executes src, returning the interpreter so tests can
// inspect globals and print output. Function declarations are hoisted, so
// auxiliary functions appended at the end of expanded output are callable
// from earlier statements.
func runProgram(t *testing.T, src string) *interp {
	t.Helper()
	prog, err := parser.ParseSource(src, "exec.wd")
	require.NoError(t, err)
	i := &interp{t: t, funcs: map[string]*ast.FuncDecl{}, global: newFrame(nil)}
	var top []ast.Statement
	for _, s := range prog.Statements {
		if fn, ok := s.(*ast.FuncDecl); ok {
			i.funcs[fn.Name] = fn
			continue
		}
		top = append(top, s)
	}
	ctrl, _ := i.exec(top, i.global)
	require.Equal(t, ctrlNone, ctrl, "break/continue/return escaped the top level")
	return i
}

func (i *interp) intVal(name string) int {
	v, ok := i.global.get(name)
	require.True(i.t, ok, "global %s not defined", name)
	n, ok := v.(int)
	require.True(i.t, ok, "global %s is %T, not int", name, v)
	return n
}

func (i *interp) boolVal(name string) bool {
	v, ok := i.global.get(name)
	require.True(i.t, ok, "global %s not defined", name)
	b, ok := v.(bool)
	require.True(i.t, ok, "global %s is %T, not bool", name, v)
	return b
}

func (i *interp) intsVal(name string) []int {
	v, ok := i.global.get(name)
	require.True(i.t, ok, "global %s not defined", name)
	arr, ok := v.(*array)
	require.True(i.t, ok, "global %s is %T, not array", name, v)
	out := make([]int, len(arr.elems))
	for k, el := range arr.elems {
		n, ok := el.(int)
		require.True(i.t, ok, "%s[%d] is %T, not int", name, k, el)
		out[k] = n
	}
	return out
}

func (i *interp) tick() {
	i.steps++
	if i.steps > 1_000_000 {
		i.t.Fatal("interpreter step budget exceeded; likely an infinite loop in expanded output")
	}
}

func (i *interp) exec(stmts []ast.Statement, f *frame) (int, value) {
	for _, s := range stmts {
		i.tick()
		switch st := s.(type) {
		case *ast.LetStmt:
			f.vars[st.Name] = i.eval(st.Value, f)
		case *ast.AssignStmt:
			f.set(st.Target, i.eval(st.Value, f))
		case *ast.IndexAssignStmt:
			arr := i.asArray(i.eval(st.Object, f))
			idx := i.asInt(i.eval(st.Index, f))
			require.Less(i.t, idx, len(arr.elems), "index out of range")
			arr.elems[idx] = i.eval(st.Value, f)
		case *ast.IfStmt:
			var ctrl int
			var ret value
			if i.truthy(i.eval(st.Cond, f)) {
				ctrl, ret = i.exec(st.Body, newFrame(f))
			} else {
				ctrl, ret = i.exec(st.Else, newFrame(f))
			}
			if ctrl != ctrlNone {
				return ctrl, ret
			}
		case *ast.WhileStmt:
			for i.truthy(i.eval(st.Cond, f)) {
				i.tick()
				ctrl, ret := i.exec(st.Body, newFrame(f))
				if ctrl == ctrlBreak {
					break
				}
				if ctrl == ctrlReturn {
					return ctrl, ret
				}
			}
		case *ast.LoopStmt:
			for {
				i.tick()
				ctrl, ret := i.exec(st.Body, newFrame(f))
				if ctrl == ctrlBreak {
					break
				}
				if ctrl == ctrlReturn {
					return ctrl, ret
				}
			}
		case *ast.ForInStmt:
			arr := i.asArray(i.eval(st.Collection, f))
			for _, el := range arr.elems {
				i.tick()
				child := newFrame(f)
				child.vars[st.Var] = el
				ctrl, ret := i.exec(st.Body, child)
				if ctrl == ctrlBreak {
					break
				}
				if ctrl == ctrlReturn {
					return ctrl, ret
				}
			}
		case *ast.ForStmt:
			child := newFrame(f)
			if st.Init != nil {
				if ctrl, ret := i.exec([]ast.Statement{st.Init}, child); ctrl != ctrlNone {
					return ctrl, ret
				}
			}
			for st.Cond == nil || i.truthy(i.eval(st.Cond, child)) {
				i.tick()
				ctrl, ret := i.exec(st.Body, newFrame(child))
				if ctrl == ctrlBreak {
					break
				}
				if ctrl == ctrlReturn {
					return ctrl, ret
				}
				if st.Post != nil {
					if pc, pr := i.exec([]ast.Statement{st.Post}, child); pc != ctrlNone {
						return pc, pr
					}
				}
			}
		case *ast.SwitchStmt:
			subject := i.eval(st.Subject, f)
			matched := false
			for _, c := range st.Cases {
				for _, v := range c.Values {
					if i.equal(subject, i.eval(v, f)) {
						matched = true
						break
					}
				}
				if matched {
					if ctrl, ret := i.exec(c.Body, newFrame(f)); ctrl != ctrlNone {
						return ctrl, ret
					}
					break
				}
			}
			if !matched && st.HasDflt {
				if ctrl, ret := i.exec(st.Default, newFrame(f)); ctrl != ctrlNone {
					return ctrl, ret
				}
			}
		case *ast.BreakStmt:
			return ctrlBreak, nil
		case *ast.ContinueStmt:
			return ctrlContinue, nil
		case *ast.ReturnStmt:
			if st.Value == nil {
				return ctrlReturn, nil
			}
			return ctrlReturn, i.eval(st.Value, f)
		case *ast.ExprStmt:
			i.eval(st.Expression, f)
		case *ast.FuncDecl:
			i.funcs[st.Name] = st
		default:
			i.t.Fatalf("cannot execute %T", s)
		}
	}
	return ctrlNone, nil
}

func (i *interp) eval(e ast.Expr, f *frame) value {
	i.tick()
	switch ex := e.(type) {
	case *ast.IntLiteral:
		n, err := strconv.Atoi(ex.Value)
		require.NoError(i.t, err)
		return n
	case *ast.FloatLiteral:
		n, err := strconv.ParseFloat(ex.Value, 64)
		require.NoError(i.t, err)
		return n
	case *ast.StringLiteral:
		return ex.Value
	case *ast.BoolLiteral:
		return ex.Value
	case *ast.NilLiteral:
		return nil
	case *ast.IdentExpr:
		if v, ok := f.get(ex.Name); ok {
			return v
		}
		if fn, ok := i.funcs[ex.Name]; ok {
			return &closure{params: paramNames(fn.Params), body: fn.Body, env: i.global}
		}
		i.t.Fatalf("undefined identifier %q", ex.Name)
		return nil
	case *ast.ParenExpr:
		return i.eval(ex.Inner, f)
	case *ast.ArrayLiteral:
		arr := &array{}
		for _, el := range ex.Elements {
			arr.elems = append(arr.elems, i.eval(el, f))
		}
		return arr
	case *ast.LambdaExpr:
		return &closure{params: ex.Params, expr: ex.Expr, body: ex.Body, env: f}
	case *ast.UnaryExpr:
		v := i.eval(ex.Operand, f)
		switch ex.Op {
		case "!":
			return !i.truthy(v)
		case "-":
			switch n := v.(type) {
			case int:
				return -n
			case float64:
				return -n
			}
		}
		i.t.Fatalf("bad unary %s on %T", ex.Op, v)
		return nil
	case *ast.BinaryExpr:
		if ex.Op == "&&" {
			return i.truthy(i.eval(ex.Left, f)) && i.truthy(i.eval(ex.Right, f))
		}
		if ex.Op == "||" {
			return i.truthy(i.eval(ex.Left, f)) || i.truthy(i.eval(ex.Right, f))
		}
		return i.binary(i.eval(ex.Left, f), ex.Op, i.eval(ex.Right, f))
	case *ast.TernaryExpr:
		if i.truthy(i.eval(ex.Cond, f)) {
			return i.eval(ex.Then, f)
		}
		return i.eval(ex.Else, f)
	case *ast.IndexExpr:
		arr := i.asArray(i.eval(ex.Object, f))
		idx := i.asInt(i.eval(ex.Index, f))
		require.Less(i.t, idx, len(arr.elems), "index out of range")
		return arr.elems[idx]
	case *ast.CallExpr:
		return i.call(ex, f)
	default:
		i.t.Fatalf("cannot evaluate %T", e)
		return nil
	}
}

func (i *interp) call(ex *ast.CallExpr, f *frame) value {
	if id, ok := ex.Func.(*ast.IdentExpr); ok {
		switch id.Name {
		case "len":
			switch v := i.eval(ex.Args[0], f).(type) {
			case *array:
				return len(v.elems)
			case string:
				return len(v)
			}
			i.t.Fatal("len expects an array or string")
		case "push":
			arr := i.asArray(i.eval(ex.Args[0], f))
			arr.elems = append(arr.elems, i.eval(ex.Args[1], f))
			return arr
		case "print":
			var parts []string
			for _, a := range ex.Args {
				parts = append(parts, fmt.Sprint(i.eval(a, f)))
			}
			i.out = append(i.out, fmt.Sprint(parts))
			return nil
		}
		if _, bound := f.get(id.Name); !bound {
			if fn, ok := i.funcs[id.Name]; ok {
				return i.invoke(&closure{params: paramNames(fn.Params), body: fn.Body, env: i.global}, ex.Args, f)
			}
		}
	}
	cl, ok := i.eval(ex.Func, f).(*closure)
	require.True(i.t, ok, "call target is not callable")
	return i.invoke(cl, ex.Args, f)
}

func (i *interp) invoke(cl *closure, args []ast.Expr, f *frame) value {
	child := newFrame(cl.env)
	for k, p := range cl.params {
		if k < len(args) {
			child.vars[p] = i.eval(args[k], f)
		} else {
			child.vars[p] = nil
		}
	}
	if cl.expr != nil {
		return i.eval(cl.expr, child)
	}
	_, ret := i.exec(cl.body, child)
	return ret
}

func (i *interp) binary(l value, op string, r value) value {
	switch op {
	case "==":
		return i.equal(l, r)
	case "!=":
		return !i.equal(l, r)
	}
	if ls, ok := l.(string); ok {
		rs, ok := r.(string)
		require.True(i.t, ok, "mixed string/%T operands", r)
		switch op {
		case "+":
			return ls + rs
		case "<":
			return ls < rs
		case ">":
			return ls > rs
		case "<=":
			return ls <= rs
		case ">=":
			return ls >= rs
		}
	}
	if lf, rf, isFloat := floatPair(l, r); isFloat {
		switch op {
		case "+":
			return lf + rf
		case "-":
			return lf - rf
		case "*":
			return lf * rf
		case "/":
			return lf / rf
		case "<":
			return lf < rf
		case ">":
			return lf > rf
		case "<=":
			return lf <= rf
		case ">=":
			return lf >= rf
		}
	}
	li, lok := l.(int)
	ri, rok := r.(int)
	require.True(i.t, lok && rok, "bad operands %T %s %T", l, op, r)
	switch op {
	case "+":
		return li + ri
	case "-":
		return li - ri
	case "*":
		return li * ri
	case "/":
		return li / ri
	case "%":
		return li % ri
	case "<":
		return li < ri
	case ">":
		return li > ri
	case "<=":
		return li <= ri
	case ">=":
		return li >= ri
	}
	i.t.Fatalf("unknown operator %s", op)
	return nil
}

func floatPair(l, r value) (float64, float64, bool) {
	lf, lok := l.(float64)
	rf, rok := r.(float64)
	if lok && rok {
		return lf, rf, true
	}
	if lok {
		if ri, ok := r.(int); ok {
			return lf, float64(ri), true
		}
	}
	if rok {
		if li, ok := l.(int); ok {
			return float64(li), rf, true
		}
	}
	return 0, 0, false
}

func (i *interp) equal(l, r value) bool {
	if lf, rf, isFloat := floatPair(l, r); isFloat {
		return lf == rf
	}
	return l == r
}

func (i *interp) truthy(v value) bool {
	switch b := v.(type) {
	case nil:
		return false
	case bool:
		return b
	default:
		return true
	}
}

func (i *interp) asArray(v value) *array {
	arr, ok := v.(*array)
	require.True(i.t, ok, "%T is not an array", v)
	return arr
}

func (i *interp) asInt(v value) int {
	n, ok := v.(int)
	require.True(i.t, ok, "%T is not an int", v)
	return n
}

func paramNames(params []ast.Param) []string {
	out := make([]string, len(params))
	for i, p := range params {
		out[i] = p.Name
	}
	return out
}
