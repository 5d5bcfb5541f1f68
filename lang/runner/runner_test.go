package runner

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ckl-lang/ckl/evaluator"
	"github.com/ckl-lang/ckl/parser"
	"github.com/ckl-lang/ckl/value"
)

func evalIn(t *testing.T, env *value.Environment, source string) value.Value {
	t.Helper()
	node, err := parser.ParseProgram(source, "test.ckl")
	require.NoError(t, err, "parse %q", source)
	result, rerr := evaluator.Eval(node, env)
	require.Nil(t, rerr, "eval %q: %v", source, rerr)
	return result
}

func TestNewEnvironmentBindsHostSymbols(t *testing.T) {
	env, rerr := NewEnvironment(Options{ScriptName: "t.ckl", ScriptArgs: []string{"a", "b"}})
	require.Nil(t, rerr)
	for _, name := range []string{"args", "scriptname", "checkerlang_module_path", "stdin", "stdout", "console"} {
		_, ok := env.Get(name)
		assert.True(t, ok, "%s should be bound", name)
	}
	assert.Equal(t, "['a', 'b']", evalIn(t, env, "args").String())
	assert.Equal(t, "'t.ckl'", evalIn(t, env, "scriptname").String())
}

func TestBootstrapPreludeHelpers(t *testing.T) {
	env, rerr := NewEnvironment(Options{ScriptName: "t.ckl"})
	require.Nil(t, rerr)

	tests := []struct {
		source string
		want   string
	}{
		{"join([1, 2, 3], '-')", "'1-2-3'"},
		{"sprintf('{0} < {1}', 1, 2)", "'1 < 2'"},
		{"max(3, 7)", "7"},
		{"non_zero(0)", "FALSE"},
		{"non_empty([1])", "TRUE"},
		{"all([2, 4, 6], fn(n) n % 2 == 0)", "TRUE"},
		{"List->reverse([1, 2, 3])", "[3, 2, 1]"},
		{"Math->sqrt(4)", "2.0"},
		{"Math->PI > 3.14 and Math->PI < 3.15", "TRUE"},
		{"String->upper('abc')", "'ABC'"},
	}
	for _, tt := range tests {
		got := evalIn(t, env, tt.source)
		assert.Equal(t, tt.want, got.String(), tt.source)
	}
}

func TestBootstrapLegacyPrelude(t *testing.T) {
	env, rerr := NewEnvironment(Options{ScriptName: "t.ckl", Legacy: true})
	require.Nil(t, rerr)
	assert.Equal(t, "3", evalIn(t, env, "len_of([1, 2, 3])").String())
	assert.Equal(t, "TRUE", evalIn(t, env, "empty([])").String())
	// base's plain helpers arrive through the unqualified require.
	assert.Equal(t, "5", evalIn(t, env, "max(2, 5)").String())
}

func TestRandomModuleIsDeterministicFromSeed(t *testing.T) {
	env1, rerr := NewEnvironment(Options{ScriptName: "t.ckl"})
	require.Nil(t, rerr)
	env2, rerr := NewEnvironment(Options{ScriptName: "t.ckl"})
	require.Nil(t, rerr)
	a := evalIn(t, env1, "Random->set_seed(42) Random->random()")
	b := evalIn(t, env2, "Random->set_seed(42) Random->random()")
	assert.Equal(t, a.String(), b.String())
}
