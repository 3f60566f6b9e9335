package ast

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestMapSliceUnchangedSharesInput(t *testing.T) {
	in := []Expr{&IdentExpr{Name: "a"}, &IdentExpr{Name: "b"}}
	out, changed := MapSlice(in, func(e Expr) Expr { return e })
	assert.False(t, changed)
	assert.True(t, &in[0] == &out[0], "unchanged slice must be the input slice")
}

func TestMapSliceCopiesOnChange(t *testing.T) {
	a := &IdentExpr{Name: "a"}
	b := &IdentExpr{Name: "b"}
	in := []Expr{a, b}
	out, changed := MapSlice(in, func(e Expr) Expr {
		if e == Expr(b) {
			return &IdentExpr{Name: "c"}
		}
		return e
	})
	assert.True(t, changed)
	assert.Same(t, Expr(a), out[0], "untouched elements are shared")
	assert.Equal(t, "c", out[1].(*IdentExpr).Name)
	assert.Equal(t, "b", in[1].(*IdentExpr).Name, "input slice is not mutated")
}
