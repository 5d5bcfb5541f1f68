package builtin_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ckl-lang/ckl/builtin"
	"github.com/ckl-lang/ckl/evaluator"
	"github.com/ckl-lang/ckl/parser"
	"github.com/ckl-lang/ckl/value"
)

func eval(t *testing.T, source string) value.Value {
	t.Helper()
	node, err := parser.ParseProgram(source, "test.ckl")
	require.NoError(t, err, "parse %q", source)
	env := value.NewRootEnvironment()
	builtin.Register(env)
	result, rerr := evaluator.Eval(node, env)
	require.Nil(t, rerr, "eval %q: %v", source, rerr)
	return result
}

func evalErr(t *testing.T, source string) *value.RuntimeError {
	t.Helper()
	node, err := parser.ParseProgram(source, "test.ckl")
	require.NoError(t, err, "parse %q", source)
	env := value.NewRootEnvironment()
	builtin.Register(env)
	_, rerr := evaluator.Eval(node, env)
	return rerr
}

// End-to-end scenarios, one per row: source in, canonical string out.
func TestSpecScenarios(t *testing.T) {
	tests := []struct {
		name   string
		source string
		want   string
	}{
		{"arithmetic precedence", "2 + 3 * 4", "14"},
		{"lambda def and call", "def dup = fn(n) 2 * n; dup(3)", "6"},
		{"list comprehension with filter", "[x * 2 for x in range(5) if x % 2 == 1]", "[2, 6]"},
		{"block-local forward reference", "def a = fn(y) do def b = fn(x) 2 * c(x); def c = fn(x) 3 + x; b(y); end; a(12)", "30"},
		{"list destructuring", "def [a, b] = [1, 2]; [a, b]", "[1, 2]"},
		{"sorted", "sorted([3, 1, 2])", "[1, 2, 3]"},
		{"catch all recovers", "do 1/0 catch all 'div-by-zero' end", "'div-by-zero'"},
		{"method call receives implicit self", "def o = <*a=1, b=fn(self, x) self->a + x*>; o->b(10)", "11"},
		{"starts with", "'abc' starts with 'ab'", "TRUE"},
		{"starts not with", "'abc' starts not with 'ab'", "FALSE"},
		{"spread in list literal", "[1, ...[2, 3], 4]", "[1, 2, 3, 4]"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := eval(t, tt.source)
			assert.Equal(t, tt.want, got.String(), tt.source)
		})
	}
}

func TestParseDateTriesFormatsInOrder(t *testing.T) {
	got := eval(t, "parse_date('201701022015', fmt=['yyyyMMddHHmm','yyyyMMddHH','yyyyMMdd'])")
	assert.Equal(t, "20170102201500", got.String())
}

func TestMapEqualityIgnoresInsertionOrder(t *testing.T) {
	got := eval(t, "<<<a => 1, b => 2>>> == <<<b => 2, a => 1>>>")
	assert.Equal(t, "TRUE", got.String())
}

func TestParseJSON(t *testing.T) {
	got := eval(t, `parse_json('{"a": 1, "b": [1, 2.5, "x", null, true]}')`)
	m, ok := got.(*value.Map)
	require.True(t, ok, "parse_json should produce a Map, got %T", got)
	a, ok := m.Get(value.NewString("a"))
	require.True(t, ok)
	assert.Equal(t, "1", a.String())
	b, ok := m.Get(value.NewString("b"))
	require.True(t, ok)
	assert.Equal(t, "[1, 2.5, 'x', null, TRUE]", b.String())
}

func TestNullPropagationThroughOperators(t *testing.T) {
	for _, src := range []string{"null + 1", "1 + null", "null - 1", "null * 1", "null / 1", "null % 1"} {
		got := eval(t, src)
		assert.Equal(t, "null", got.String(), src)
	}
}

func TestDivisionByZeroWithDiv0ValueOverride(t *testing.T) {
	got := eval(t, "def DIV_0_VALUE = 'inf'; 1 / 0")
	assert.Equal(t, "'inf'", got.String())
}

func TestDivisionByZeroWithoutOverrideErrors(t *testing.T) {
	rerr := evalErr(t, "1 / 0")
	require.NotNil(t, rerr)
}

func TestSecureModeOmitsNonSecureBuiltins(t *testing.T) {
	env := value.NewRootEnvironment()
	env.SetSecure(true)
	builtin.Register(env)
	for _, name := range []string{"execute", "run", "file_input", "file_output"} {
		_, ok := env.Get(name)
		assert.False(t, ok, "%s should not be bound in secure mode", name)
	}
}

func TestNonSecureModeBindsThem(t *testing.T) {
	env := value.NewRootEnvironment()
	builtin.Register(env)
	for _, name := range []string{"execute", "run", "file_input", "file_output"} {
		_, ok := env.Get(name)
		assert.True(t, ok, "%s should be bound outside secure mode", name)
	}
}

func TestDateMinusDateYieldsIntDays(t *testing.T) {
	got := eval(t, "date('20170110') - date('20170102')")
	require.Equal(t, value.KindInt, got.Kind())
	assert.Equal(t, "8", got.String())
}

func TestMapMethodCallGetsNoImplicitSelf(t *testing.T) {
	got := eval(t, "def m = <<<'double' => fn(x) 2 * x>>>; m->double(21)")
	assert.Equal(t, "42", got.String())
}

func TestForOverInputIteratesLines(t *testing.T) {
	got := eval(t, "def inp = str_input('a\\nb\\nc'); [line for line in inp]")
	assert.Equal(t, "['a', 'b', 'c']", got.String())
}

func TestBitwiseOperations32Bit(t *testing.T) {
	got := eval(t, "bit_and(12, 10)")
	assert.Equal(t, "8", got.String())
	got = eval(t, "bit_or(12, 10)")
	assert.Equal(t, "14", got.String())
}

func TestSumOverSetComprehension(t *testing.T) {
	got := eval(t, "sum([x for x in <<3, 1, 2>>])")
	assert.Equal(t, "6", got.String())
}
