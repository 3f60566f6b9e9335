package inline

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/weldlang/weld/ast"
	"github.com/weldlang/weld/diag"
	"github.com/weldlang/weld/parser"
)

func parseUnit(t *testing.T, src string) *ast.Program {
	t.Helper()
	prog, err := parser.ParseSource(src, "lib.wd")
	require.NoError(t, err)
	return prog
}

func TestRegisterProgram(t *testing.T) {
	prog := parseUnit(t, `
inline func (xs: [T]) first(dflt: T): T {
	for x in xs {
		return x
	}
	return dflt
}

inline func (x: int) doubled(): int = x * 2

let unrelated = 1
`)
	reg := NewRegistry()
	require.Empty(t, reg.RegisterProgram(prog))

	first, ok := reg.Lookup("first", 1)
	require.True(t, ok)
	assert.Equal(t, []string{"T"}, first.TypeParams)
	assert.Equal(t, 1, first.Arity())

	// Expression-form bodies register as a single return.
	doubled, ok := reg.Lookup("doubled", 0)
	require.True(t, ok)
	require.Len(t, doubled.Body, 1)
	_, isRet := doubled.Body[0].(*ast.ReturnStmt)
	assert.True(t, isRet)
}

func TestRegisterMissingReceiver(t *testing.T) {
	prog := parseUnit(t, `
inline func () broken(x): int = x * 2
`)
	reg := NewRegistry()
	diags := reg.RegisterProgram(prog)
	require.Len(t, diags, 1)
	assert.Equal(t, diag.CodeTemplateInvalid, diags[0].Code)
	assert.Equal(t, diag.Error, diags[0].Severity)

	_, ok := reg.Lookup("broken", 1)
	assert.False(t, ok)
}

func TestRegisterDuplicate(t *testing.T) {
	prog := parseUnit(t, `
inline func (x: int) doubled(): int = x * 2
`)
	decl := prog.Statements[0].(*ast.TemplateDecl)
	reg := NewRegistry()
	require.NoError(t, reg.Register(decl, "lib.wd"))
	assert.Error(t, reg.Register(decl, "lib.wd"))
}

func TestArityOverloads(t *testing.T) {
	prog := parseUnit(t, `
inline func (x: int) add(): int = x
inline func (x: int) add(y): int = x + y
`)
	reg := NewRegistry()
	require.Empty(t, reg.RegisterProgram(prog))

	_, ok := reg.Lookup("add", 0)
	assert.True(t, ok)
	_, ok = reg.Lookup("add", 1)
	assert.True(t, ok)
	_, ok = reg.Lookup("add", 2)
	assert.False(t, ok)
}

func TestTemplatesOrdered(t *testing.T) {
	prog := parseUnit(t, `
inline func (x: int) b(): int = x
inline func (x: int) a(y): int = x + y
inline func (x: int) a(): int = x
`)
	reg := NewRegistry()
	require.Empty(t, reg.RegisterProgram(prog))

	var keys []string
	for _, tmpl := range reg.Templates() {
		keys = append(keys, tmpl.Key())
	}
	assert.Equal(t, []string{"a/0", "a/1", "b/0"}, keys)
}

func TestResolveClassifiesArguments(t *testing.T) {
	reg := NewRegistry()
	require.Empty(t, reg.RegisterProgram(parseUnit(t, `
inline func (xs: [T]) pick(pred, dflt): T {
	for x in xs {
		if pred(x) {
			return x
		}
	}
	return dflt
}
`)))

	prog := parseUnit(t, `
let r = data.pick(|x| x > 0, fallback)
`)
	let := prog.Statements[0].(*ast.LetStmt)
	site, ok := reg.Resolve(let.Value)
	require.True(t, ok)
	assert.Equal(t, "pick", site.Template.Name)

	recv, isIdent := site.Recv.(*ast.IdentExpr)
	require.True(t, isIdent)
	assert.Equal(t, "data", recv.Name)

	require.Len(t, site.Args, 2)
	assert.NotNil(t, site.Args[0].Behavior, "lambda literal should classify as behavior")
	assert.Nil(t, site.Args[1].Behavior, "plain reference should stay a value argument")
}

func TestResolveRejectsNonTemplates(t *testing.T) {
	reg := NewRegistry()
	require.Empty(t, reg.RegisterProgram(parseUnit(t, `
inline func (x: int) doubled(): int = x * 2
`)))

	for _, src := range []string{
		"let r = x.halved()",    // unknown name
		"let r = x.doubled(1)",  // wrong arity
		"let r = doubled(x)",    // plain call, no receiver
	} {
		prog := parseUnit(t, src)
		let := prog.Statements[0].(*ast.LetStmt)
		_, ok := reg.Resolve(let.Value)
		assert.False(t, ok, src)
	}
}
