package inline_test

import (
	"fmt"
	"regexp"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/weldlang/weld/diag"
	"github.com/weldlang/weld/inline"
	"github.com/weldlang/weld/parser"
	"github.com/weldlang/weld/printer"
)

// stock is the template library most scenario tests expand against.
const stock = `
inline func (xs: [T]) map(f): [T] {
	let out: [T] = []
	for x in xs {
		push(out, f(x))
	}
	return out
}

inline func (xs: [T]) filter(pred): [T] {
	let out: [T] = []
	for x in xs {
		if pred(x) {
			push(out, x)
		}
	}
	return out
}

inline func (xs: [T]) any(pred): bool {
	for x in xs {
		if pred(x) {
			return true
		}
	}
	return false
}

inline func (xs: [T]) all(pred): bool {
	for x in xs {
		if !pred(x) {
			return false
		}
	}
	return true
}

inline func (xs: [T]) each(f) {
	for x in xs {
		f(x)
	}
}
`

// expand runs src through the full pipeline and returns the printed output
// plus the engine's diagnostics.
func expand(t *testing.T, src string) (string, []diag.Diagnostic) {
	t.Helper()
	prog, err := parser.ParseSource(src, "test.wd")
	require.NoError(t, err)
	reg := inline.NewRegistry()
	require.Empty(t, reg.RegisterProgram(prog))
	eng := inline.New(reg)
	out := eng.Expand(prog)
	return printer.Print(out), eng.Diagnostics()
}

func codes(diags []diag.Diagnostic) []diag.Code {
	out := make([]diag.Code, len(diags))
	for i, d := range diags {
		out[i] = d.Code
	}
	return out
}

// assertExpanded checks that nothing template-shaped survived expansion.
func assertExpanded(t *testing.T, out string) {
	t.Helper()
	assert.NotContains(t, out, "inline func")
	for _, name := range []string{".map(", ".filter(", ".any(", ".all(", ".each("} {
		assert.NotContains(t, out, name)
	}
}

func TestFilterRoundTrip(t *testing.T) {
	out, diags := expand(t, stock+`
let r = [1, 2, 3, 4, 5].filter(|x| x % 2 == 0)
`)
	require.Empty(t, diags, "unexpected diagnostics: %v", diags)
	assertExpanded(t, out)

	i := runProgram(t, out)
	assert.Equal(t, []int{2, 4}, i.intsVal("r"))
}

func TestChainedExpansion(t *testing.T) {
	src := stock + `
let nums = [1, 2, 3, 4, 5, 6, 7, 8, 9]
let r = nums.map(|x| x + 1).filter(|x| x > 5).map(|x| x * 10)
`
	out1, diags := expand(t, src)
	require.Empty(t, diags, "unexpected diagnostics: %v", diags)
	assertExpanded(t, out1)

	i := runProgram(t, out1)
	assert.Equal(t, []int{60, 70, 80, 90, 100}, i.intsVal("r"))

	// Same input expands to byte-identical output.
	out2, _ := expand(t, src)
	assert.Equal(t, out1, out2)
}

func TestReceiverEvaluatedOnce(t *testing.T) {
	out, diags := expand(t, stock+`
let count = 0
func make(): [int] {
	count = count + 1
	return [1, 2, 3]
}
let r = make().any(|x| x > 2)
`)
	require.Empty(t, diags, "unexpected diagnostics: %v", diags)

	i := runProgram(t, out)
	assert.Equal(t, 1, i.intVal("count"))
	assert.True(t, i.boolVal("r"))
}

func TestShortCircuitPreserved(t *testing.T) {
	out, diags := expand(t, stock+`
let calls = 0
func noisy(x): bool {
	calls = calls + 1
	return x > 0
}
let a: [int] = []
let b = [1, 2]
let r = a.any(|x| x > 0) && b.all(|x| noisy(x))
`)
	require.Empty(t, diags, "unexpected diagnostics: %v", diags)

	i := runProgram(t, out)
	assert.False(t, i.boolVal("r"))
	assert.Equal(t, 0, i.intVal("calls"), "right side of && ran despite false left side")
}

func TestEarlyReturnsLinearize(t *testing.T) {
	src := `
inline func (x: int) classify(): int {
	if x > 10 {
		return 2
	}
	if x > 0 {
		return 1
	}
	return 0
}

let big = 15
let small = 5
let neg = 0 - 3
let a = big.classify()
let b = small.classify()
let c = neg.classify()
`
	out, diags := expand(t, src)
	require.Empty(t, diags, "unexpected diagnostics: %v", diags)

	i := runProgram(t, out)
	assert.Equal(t, 2, i.intVal("a"))
	assert.Equal(t, 1, i.intVal("b"))
	assert.Equal(t, 0, i.intVal("c"))

	// A straight guard chain needs no runtime completion flag.
	assert.NotContains(t, out, "_done")
}

func TestLoopReturnUsesDoneFlag(t *testing.T) {
	out, diags := expand(t, stock+`
let xs = [4, 5, 6]
let found = xs.any(|x| x == 5)
let missing = xs.any(|x| x == 9)
`)
	require.Empty(t, diags, "unexpected diagnostics: %v", diags)
	assertExpanded(t, out)

	i := runProgram(t, out)
	assert.True(t, i.boolVal("found"))
	assert.False(t, i.boolVal("missing"))
}

func TestSiblingExpansionsStayHygienic(t *testing.T) {
	out, diags := expand(t, stock+`
let x = 100
let xs = [1, 2]
let p = xs.any(|v| v > 1)
let q = xs.any(|v| v > 5)
let keep = x
`)
	require.Empty(t, diags, "unexpected diagnostics: %v", diags)

	// Each expansion mints its own loop variable; none shadow the caller's x.
	vars := regexp.MustCompile(`for (_x\d+) in`).FindAllStringSubmatch(out, -1)
	require.Len(t, vars, 2)
	assert.NotEqual(t, vars[0][1], vars[1][1])

	i := runProgram(t, out)
	assert.Equal(t, 100, i.intVal("keep"))
	assert.True(t, i.boolVal("p"))
	assert.False(t, i.boolVal("q"))
}

func TestStatementPositionBehaviorSplices(t *testing.T) {
	out, diags := expand(t, stock+`
let total = 0
let nums = [1, 2, 3]
nums.each(|x| {
	total = total + x
})
`)
	require.Empty(t, diags, "unexpected diagnostics: %v", diags)
	assertExpanded(t, out)
	assert.NotContains(t, out, "func _aux", "effect-only behavior should splice, not extract")

	i := runProgram(t, out)
	assert.Equal(t, 6, i.intVal("total"))
}

func TestExpressionFormTemplate(t *testing.T) {
	out, diags := expand(t, `
inline func (x: int) clamped(lo, hi): int = x < lo ? lo : (x > hi ? hi : x)

let v = 12
let hi = v.clamped(0, 10)
let w = 0 - 4
let lo = w.clamped(0, 10)
let mid = 7
let same = mid.clamped(0, 10)
`)
	require.Empty(t, diags, "unexpected diagnostics: %v", diags)
	assert.NotContains(t, out, "clamped")

	i := runProgram(t, out)
	assert.Equal(t, 10, i.intVal("hi"))
	assert.Equal(t, 0, i.intVal("lo"))
	assert.Equal(t, 7, i.intVal("same"))
}

func TestWhileConditionReexpandsPerIteration(t *testing.T) {
	out, diags := expand(t, stock+`
let xs = [1, 2, 3]
let n = 0
while xs.any(|x| x > n) {
	n = n + 1
}
`)
	require.Empty(t, diags, "unexpected diagnostics: %v", diags)
	assertExpanded(t, out)

	i := runProgram(t, out)
	assert.Equal(t, 3, i.intVal("n"))
}

func TestSwitchArmValueExpansion(t *testing.T) {
	for _, tc := range []struct {
		needle int
		want   int
	}{
		{needle: 2, want: 1},
		{needle: 9, want: 2},
	} {
		out, diags := expand(t, stock+fmt.Sprintf(`
let xs = [1, 2, 3]
let k = %d
let r = 0
switch true {
case xs.any(|x| x == k):
	r = 1
default:
	r = 2
}
`, tc.needle))
		require.Empty(t, diags, "unexpected diagnostics: %v", diags)
		assertExpanded(t, out)

		i := runProgram(t, out)
		assert.Equal(t, tc.want, i.intVal("r"), "needle %d", tc.needle)
	}
}

func TestTernaryBranchExpansion(t *testing.T) {
	out, diags := expand(t, stock+`
let flag = true
let xs = [1, 2, 3, 4]
let r = flag ? xs.filter(|x| x % 2 == 0) : xs.filter(|x| x % 2 == 1)
let n = len(r)
`)
	require.Empty(t, diags, "unexpected diagnostics: %v", diags)
	assertExpanded(t, out)

	i := runProgram(t, out)
	assert.Equal(t, []int{2, 4}, i.intsVal("r"))
	assert.Equal(t, 2, i.intVal("n"))
}

func TestLoopBuriedReturnExtractsBehavior(t *testing.T) {
	for _, tc := range []struct {
		threshold int
		want      int
	}{
		{threshold: 0, want: 3},
		{threshold: 5, want: 1},
		{threshold: 100, want: 0},
	} {
		out, diags := expand(t, stock+fmt.Sprintf(`
let threshold = %d
let data = [[1, 2], [7], [3]]
let r = data.filter(|row| {
	for v in row {
		if v > threshold {
			return true
		}
	}
	return false
})
let n = len(r)
`, tc.threshold))
		require.Equal(t, []diag.Code{diag.CodeBehaviorExtracted}, codes(diags))
		assert.Equal(t, diag.Info, diags[0].Severity)
		assert.Contains(t, out, "func _aux", "extracted auxiliary function missing")
		assert.Contains(t, out, ", threshold)", "capture should be passed at the invocation site")

		i := runProgram(t, out)
		assert.Equal(t, tc.want, i.intVal("n"), "threshold %d", tc.threshold)
	}
}

func TestExtractionHappensOncePerBinding(t *testing.T) {
	out, diags := expand(t, `
inline func (xs: [T]) ends(pred): bool {
	return pred(xs[0]) && pred(xs[len(xs) - 1])
}

let limit = 0
let data = [[1], [2], [3]]
let r = data.ends(|row| {
	for v in row {
		if v > limit {
			return true
		}
	}
	return false
})
`)
	// The template invokes the behavior twice, but the binding extracts a
	// single auxiliary function reused at both sites.
	require.Equal(t, []diag.Code{diag.CodeBehaviorExtracted}, codes(diags))
	assert.Equal(t, 1, strings.Count(out, "func _aux"))

	i := runProgram(t, out)
	assert.True(t, i.boolVal("r"))
}

func TestNestedExtractionEmitsEachAuxiliaryOnce(t *testing.T) {
	out, diags := expand(t, `
inline func (xs: [int]) seek(pred): int {
	for x in xs {
		if pred(x) {
			return x
		}
	}
	return 0
}

let limits: [int] = [4, 8]
let ks: [int] = [8, 9]
let qs: [int] = [5, 7]
let data: [int] = [3, 5, 6]
let r = data.seek(|x| {
	let lim = limits.seek(|d| {
		for k in ks {
			if d == k {
				return true
			}
		}
		return false
	})
	for q in qs {
		if q == x {
			return lim > 0
		}
	}
	return false
})
`)
	// Both behaviors fail splitting: the inner one is extracted while the
	// outer body is pre-expanded, and the outer body then carries that
	// expansion into its own auxiliary instead of expanding again.
	require.Equal(t, []diag.Code{diag.CodeBehaviorExtracted, diag.CodeBehaviorExtracted}, codes(diags))
	assert.Equal(t, 2, strings.Count(out, "func _aux"), "output:\n%s", out)

	i := runProgram(t, out)
	assert.Equal(t, 5, i.intVal("r"))
}

func TestVoidTemplateValuePositionGetsPlaceholder(t *testing.T) {
	out, diags := expand(t, stock+`
let sum = 0
let n = [1, 2]
n.each(|x| { sum = sum + x })
let r = n.each(|x| { sum = sum + x })
`)
	// Statement position tolerates the missing value; value position takes a
	// nil placeholder so the output stays parseable, and the hole is flagged.
	require.Equal(t, []diag.Code{diag.CodeExpansionVoid}, codes(diags))
	assert.Equal(t, diag.Warning, diags[0].Severity)
	assert.Contains(t, diags[0].Message, "each")
	assert.Contains(t, out, "let r = nil")
	assertExpanded(t, out)

	i := runProgram(t, out)
	assert.Equal(t, 6, i.intVal("sum"), "void expansion in value position must keep its effects")
}

func TestUnresolvableCaptureWarns(t *testing.T) {
	out, diags := expand(t, stock+`
let xs = [[1], [2]]
let r = xs.filter(|row| {
	for v in row {
		if v > missing {
			return true
		}
	}
	return false
})
`)
	require.Equal(t, []diag.Code{diag.CodeBehaviorUnresolved}, codes(diags))
	assert.Equal(t, diag.Warning, diags[0].Severity)
	assert.Contains(t, diags[0].Message, "missing")
	assert.Contains(t, out, "nil", "placeholder value missing from output")
}

func TestUnresolvedGenericWarns(t *testing.T) {
	_, diags := expand(t, stock+`
func pick(xs): bool {
	return xs.any(|x| x > 0)
}
`)
	require.Equal(t, []diag.Code{diag.CodeGenericUnresolved}, codes(diags))
	assert.Equal(t, diag.Warning, diags[0].Severity)
	assert.Contains(t, diags[0].Message, "T")
}

func TestTemplateDeclarationsDropped(t *testing.T) {
	out, diags := expand(t, stock+`
let unused = 1
`)
	require.Empty(t, diags)
	assert.NotContains(t, out, "inline")
	assert.Contains(t, out, "let unused = 1")
}

func TestBehaviorForwardedThroughNestedTemplates(t *testing.T) {
	out, diags := expand(t, stock+`
inline func (xs: [T]) keep(pred): [T] {
	return xs.filter(pred)
}

let r = [1, 2, 3, 4].keep(|x| x > 2)
`)
	require.Empty(t, diags, "unexpected diagnostics: %v", diags)
	assertExpanded(t, out)
	assert.NotContains(t, out, ".keep(")

	i := runProgram(t, out)
	assert.Equal(t, []int{3, 4}, i.intsVal("r"))
}
