package evaluator

import (
	"testing"

	"github.com/ckl-lang/ckl/builtin"
	"github.com/ckl-lang/ckl/parser"
	"github.com/ckl-lang/ckl/value"
)

func newTestEnv(t *testing.T) *value.Environment {
	t.Helper()
	env := value.NewRootEnvironment()
	builtin.Register(env)
	return env
}

func evalSource(t *testing.T, source string) value.Value {
	t.Helper()
	node, err := parser.ParseProgram(source, "test.ckl")
	if err != nil {
		t.Fatalf("ParseProgram(%q) error: %v", source, err)
	}
	result, rerr := Eval(node, newTestEnv(t))
	if rerr != nil {
		t.Fatalf("Eval(%q) returned runtime error: %s", source, rerr.Message)
	}
	return result
}

func TestEvalArithmetic(t *testing.T) {
	tests := []struct {
		source string
		want   string
	}{
		{"1 + 2 * 3", "7"},
		{"(1 + 2) * 3", "9"},
		{"10 / 4", "2"},
		{"10 % 3", "1"},
		{"-5 + 5", "0"},
	}
	for _, tt := range tests {
		got := evalSource(t, tt.source)
		if got.String() != tt.want {
			t.Errorf("eval(%q) = %s, want %s", tt.source, got.String(), tt.want)
		}
	}
}

func TestEvalIf(t *testing.T) {
	got := evalSource(t, "if 1 < 2 then 'yes' else 'no'")
	if s, ok := got.(*value.String); !ok || s.Value != "yes" {
		t.Errorf("got %v, want String(\"yes\")", got)
	}
}

func TestEvalDefAndAssign(t *testing.T) {
	got := evalSource(t, "def x = 1 x = x + 1 x")
	if got.String() != "2" {
		t.Errorf("got %s, want 2", got.String())
	}
}

func TestEvalWhileLoop(t *testing.T) {
	got := evalSource(t, "def i = 0 def sum = 0 while i < 5 do do sum = sum + i i = i + 1 end end sum")
	if got.String() != "10" {
		t.Errorf("got %s, want 10", got.String())
	}
}

func TestEvalForOverList(t *testing.T) {
	got := evalSource(t, "def sum = 0 for x in [1, 2, 3] do sum = sum + x end sum")
	if got.String() != "6" {
		t.Errorf("got %s, want 6", got.String())
	}
}

func TestEvalForDoesNotLeakLoopVariable(t *testing.T) {
	node, err := parser.ParseProgram("for x in [1] do x end", "test.ckl")
	if err != nil {
		t.Fatal(err)
	}
	env := newTestEnv(t)
	if _, rerr := Eval(node, env); rerr != nil {
		t.Fatalf("unexpected runtime error: %s", rerr.Message)
	}
	if _, ok := env.Get("x"); ok {
		t.Error("loop variable x leaked into the enclosing environment")
	}
}

func TestEvalLambdaClosureAndNamedArgs(t *testing.T) {
	got := evalSource(t, "def add3 = fn(a, b, c = 10) a + b + c add3(1, b = 2)")
	if got.String() != "13" {
		t.Errorf("got %s, want 13", got.String())
	}
}

func TestEvalContainerMutationAliasing(t *testing.T) {
	got := evalSource(t, "def x = [1] def y = x append(x, 2) y")
	if got.String() != "[1, 2]" {
		t.Errorf("got %s, want [1, 2] (mutation through an alias should be visible)", got.String())
	}
}

func TestEvalUncaughtErrorIsRuntimeError(t *testing.T) {
	node, err := parser.ParseProgram("1 / 0", "test.ckl")
	if err != nil {
		t.Fatal(err)
	}
	_, rerr := Eval(node, newTestEnv(t))
	if rerr == nil {
		t.Fatal("expected a runtime error dividing by zero")
	}
}

func TestEvalIfWithoutElseYieldsTrue(t *testing.T) {
	got := evalSource(t, "if FALSE then 1")
	if b, ok := got.(*value.Boolean); !ok || !b.Value {
		t.Errorf("got %v, want TRUE", got)
	}
}

func TestEvalNonBooleanConditionIsRuntimeError(t *testing.T) {
	for _, src := range []string{"if 1 then 2", "while 'x' do 1 end", "1 and TRUE", "TRUE or 0", "not 3"} {
		node, err := parser.ParseProgram(src, "test.ckl")
		if err != nil {
			t.Fatalf("ParseProgram(%q) error: %v", src, err)
		}
		if _, rerr := Eval(node, newTestEnv(t)); rerr == nil {
			t.Errorf("eval(%q) should reject a non-boolean condition", src)
		}
	}
}

func TestEvalPositionalAfterNamedArgIsError(t *testing.T) {
	node, err := parser.ParseProgram("def f = fn(a, b, c) a f(a = 1, 2, 3)", "test.ckl")
	if err != nil {
		t.Fatal(err)
	}
	if _, rerr := Eval(node, newTestEnv(t)); rerr == nil {
		t.Error("expected a runtime error for a positional argument after a named one")
	}
}

func TestEvalCatchRecoversFromError(t *testing.T) {
	got := evalSource(t, "do error 'boom' catch 'boom' 'caught' end")
	if s, ok := got.(*value.String); !ok || s.Value != "caught" {
		t.Errorf("got %v, want String(\"caught\")", got)
	}
}
