package inline

import (
	"github.com/weldlang/weld/ast"
	"github.com/weldlang/weld/diag"
)

// builtins are callable names the host runtime provides; they are never
// captured or treated as unresolved references.
var builtins = map[string]bool{
	"len":   true,
	"push":  true,
	"print": true,
}

// Engine expands every template call in one compilation unit. Each Engine
// owns its name counter, diagnostics and generated auxiliary functions;
// concurrent units each use their own Engine and aggregate afterwards.
type Engine struct {
	reg      *Registry
	names    *NameSource
	f        *ast.Factory
	inf      *inferencer
	file     string
	line     int
	diags    []diag.Diagnostic
	aux      []ast.Statement
	auxNames map[string]bool
	behav    []map[string]*behaviorBinding
}

// New returns an Engine expanding against the given template registry.
func New(reg *Registry) *Engine {
	return &Engine{
		reg:      reg,
		names:    &NameSource{},
		f:        ast.NewFactory(),
		inf:      newInferencer(),
		auxNames: map[string]bool{},
	}
}

// Expand rewrites prog into a fresh program with every template call
// inlined, template declarations dropped, and any auxiliary functions
// generated by behavior extraction appended at the end.
func (e *Engine) Expand(prog *ast.Program) *ast.Program {
	e.file = prog.SourceFile

	// Function declarations are visible unit-wide.
	for _, s := range prog.Statements {
		if fn, ok := s.(*ast.FuncDecl); ok {
			t := fn.Result
			if t == nil {
				t = ast.UnknownType
			}
			e.inf.funcs[fn.Name] = t
		}
	}

	env := newTypeEnv(nil)
	var out []ast.Statement
	for _, s := range prog.Statements {
		out = append(out, e.rewriteStmt(s, env)...)
	}
	out = append(out, e.aux...)
	return e.f.ProgramFrom(prog, out)
}

// Diagnostics returns the events accumulated by Expand, in emission order.
func (e *Engine) Diagnostics() []diag.Diagnostic {
	return e.diags
}

func (e *Engine) pos() diag.Pos {
	return diag.Pos{File: e.file, Line: e.line}
}
