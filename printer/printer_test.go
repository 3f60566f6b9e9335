package printer

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/weldlang/weld/parser"
)

func roundTrip(t *testing.T, src string) string {
	t.Helper()
	prog, err := parser.ParseSource(src, "rt.wd")
	require.NoError(t, err)
	return Print(prog)
}

func TestRoundTripCanonical(t *testing.T) {
	src := `let xs = [1, 2, 3]
let n = 0
while n < 10 {
	n = n + 1
	if n % 2 == 0 {
		push(xs, n)
	} else {
		continue
	}
}
for x in xs {
	print(x)
}
`
	assert.Equal(t, src, roundTrip(t, src))
}

func TestRoundTripDecls(t *testing.T) {
	src := `func add(a: int, b: int): int {
	return a + b
}

inline func (xs: [T]) first(dflt: T): T {
	for x in xs {
		return x
	}
	return dflt
}

inline func (x: int) doubled(): int = x * 2

let r = add(1, 2)
`
	assert.Equal(t, src, roundTrip(t, src))
}

func TestRoundTripSwitch(t *testing.T) {
	src := `switch k {
case 1, 2:
	use(k)
default:
	other()
}
`
	assert.Equal(t, src, roundTrip(t, src))
}

func TestRoundTripThreeClauseFor(t *testing.T) {
	src := `for let i = 0; i < 3; i = i + 1 {
	use(i)
}
`
	assert.Equal(t, src, roundTrip(t, src))
}

func TestRoundTripLambdas(t *testing.T) {
	src := `let f = |x| x + 1
let g = |a, b| {
	return a + b
}
`
	assert.Equal(t, src, roundTrip(t, src))
}

func TestParensPreserved(t *testing.T) {
	src := `let r = (a + b) * c
`
	assert.Equal(t, src, roundTrip(t, src))
}

func TestTernaryPrinting(t *testing.T) {
	src := `let r = a ? 1 : b ? 2 : 3
`
	assert.Equal(t, src, roundTrip(t, src))
}

func TestStringEscapes(t *testing.T) {
	src := `let s = "a\"b\n\tc"
`
	assert.Equal(t, src, roundTrip(t, src))
}

func TestPrintedOutputReparses(t *testing.T) {
	out := roundTrip(t, `
let xs = [1, 2, 3]
switch len(xs) { case 3: big(xs) default: small(xs) }
let f = |v| { return v * 2 }
`)
	again, err := parser.ParseSource(out, "again.wd")
	require.NoError(t, err)
	assert.Equal(t, out, Print(again))
}
