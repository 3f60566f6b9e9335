package inline

import (
	"fmt"
	"sort"

	"github.com/weldlang/weld/ast"
	"github.com/weldlang/weld/diag"
)

// Template is a registered inline template: an identity, a receiver binding,
// an ordered formal-parameter list, and a body. Templates are discovered
// once per compilation run and immutable thereafter.
type Template struct {
	Name       string
	Receiver   ast.Param
	Params     []ast.Param
	Result     *ast.Type
	Body       []ast.Statement
	TypeParams []string // distinct type parameters in header annotations
	File       string
	Line       int
}

// Arity returns the number of formal parameters, excluding the receiver.
func (t *Template) Arity() int { return len(t.Params) }

// Key returns the identity key a call site is matched against.
func (t *Template) Key() string { return templateKey(t.Name, t.Arity()) }

func templateKey(name string, arity int) string {
	return fmt.Sprintf("%s/%d", name, arity)
}

// Registry holds the discovered template library for one compilation run.
type Registry struct {
	templates map[string]*Template
}

// NewRegistry returns an empty registry.
func NewRegistry() *Registry {
	return &Registry{templates: make(map[string]*Template)}
}

// RegisterProgram registers every template declaration in prog. Malformed
// templates are refused with an Error diagnostic and the remaining templates
// continue to register; a broken definition is a configuration error in the
// template library, not a per-call-site failure.
func (r *Registry) RegisterProgram(prog *ast.Program) []diag.Diagnostic {
	var diags []diag.Diagnostic
	for _, s := range prog.Statements {
		decl, ok := s.(*ast.TemplateDecl)
		if !ok {
			continue
		}
		if err := r.Register(decl, prog.SourceFile); err != nil {
			pos := diag.Pos{File: prog.SourceFile, Line: decl.StmtLine()}
			diags = append(diags, diag.Errorf(diag.CodeTemplateInvalid, pos, "%s", err))
		}
	}
	return diags
}

// Register adds one template declaration. Expression-form bodies are coerced
// to a one-statement return. The declaration's body is cloned so the
// registry never aliases the input tree.
func (r *Registry) Register(decl *ast.TemplateDecl, file string) error {
	if decl.Receiver.Name == "" {
		return fmt.Errorf("template %q: missing receiver parameter", decl.Name)
	}
	if decl.Expr == nil && decl.Body == nil {
		return fmt.Errorf("template %q: missing body", decl.Name)
	}
	t := &Template{
		Name:     decl.Name,
		Receiver: decl.Receiver,
		Params:   append([]ast.Param(nil), decl.Params...),
		Result:   decl.Result,
		File:     file,
		Line:     decl.StmtLine(),
	}
	if decl.Expr != nil {
		t.Body = []ast.Statement{
			&ast.ReturnStmt{BaseStmt: ast.BaseStmt{SourceLine: decl.StmtLine()}, Value: ast.CloneExpr(decl.Expr)},
		}
	} else {
		t.Body = ast.CloneStmts(decl.Body)
	}
	t.TypeParams = headerTypeParams(t)
	if _, exists := r.templates[t.Key()]; exists {
		return fmt.Errorf("template %q with %d parameter(s) already registered", t.Name, t.Arity())
	}
	r.templates[t.Key()] = t
	return nil
}

// Lookup finds a template by name and parameter arity.
func (r *Registry) Lookup(name string, arity int) (*Template, bool) {
	t, ok := r.templates[templateKey(name, arity)]
	return t, ok
}

// Templates returns all registered templates ordered by name then arity.
func (r *Registry) Templates() []*Template {
	out := make([]*Template, 0, len(r.templates))
	for _, t := range r.templates {
		out = append(out, t)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Name != out[j].Name {
			return out[i].Name < out[j].Name
		}
		return out[i].Arity() < out[j].Arity()
	})
	return out
}

// headerTypeParams collects the distinct type parameters appearing in the
// template's receiver, parameter and result annotations.
func headerTypeParams(t *Template) []string {
	var names []string
	add := func(params []string) {
		for _, p := range params {
			found := false
			for _, n := range names {
				if n == p {
					found = true
					break
				}
			}
			if !found {
				names = append(names, p)
			}
		}
	}
	add(t.Receiver.Type.TypeParams())
	for _, p := range t.Params {
		add(p.Type.TypeParams())
	}
	add(t.Result.TypeParams())
	return names
}
