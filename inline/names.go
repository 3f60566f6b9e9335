// Package inline implements compile-time inline expansion of template
// functions: every call site of a registered template is rewritten into the
// template's body with all parameters substituted, so the output contains no
// behavior-parameter calls and no template-call syntax.
package inline

import "strconv"

// NameSource issues globally-unique identifiers for one compilation-unit
// run. It is a plain monotonic counter owned by a single Engine; concurrent
// engines each own their own source and never share one.
type NameSource struct {
	n int
}

// Fresh returns a new identifier derived from base. Generated names carry a
// leading underscore and a run-unique suffix so they cannot collide with
// each other or with source names across sibling scopes.
func (s *NameSource) Fresh(base string) string {
	s.n++
	return "_" + base + strconv.Itoa(s.n)
}
