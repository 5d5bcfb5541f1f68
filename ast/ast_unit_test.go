package ast

import (
	"testing"

	"github.com/ckl-lang/ckl/token"
)

func tok(v string) token.Token { return token.Token{Value: v} }

func TestLiteralStringers(t *testing.T) {
	tests := []struct {
		name string
		node Node
		want string
	}{
		{"null", &NullLiteral{Base: NewBase(tok("null"))}, "null"},
		{"bool true", &BooleanLiteral{Base: NewBase(tok("TRUE")), Value: true}, "TRUE"},
		{"bool false", &BooleanLiteral{Base: NewBase(tok("FALSE")), Value: false}, "FALSE"},
		{"string", &StringLiteral{Base: NewBase(tok("'x'")), Value: "x"}, "'x'"},
		{"identifier", &Identifier{Base: NewBase(tok("y")), Name: "y"}, "y"},
	}
	for _, tt := range tests {
		if got := tt.node.String(); got != tt.want {
			t.Errorf("%s: String() = %q, want %q", tt.name, got, tt.want)
		}
	}
}

func TestFuncallString(t *testing.T) {
	call := &Funcall{
		Base:   NewBase(tok("f")),
		Callee: &Identifier{Name: "f"},
		Args: []Arg{
			{Value: &IntLiteral{Base: NewBase(tok("1")), Value: 1}},
			{Name: "b", Value: &IntLiteral{Base: NewBase(tok("2")), Value: 2}},
			{Spread: true, Value: &Identifier{Name: "rest"}},
		},
	}
	want := "f(1, b=2, ...rest)"
	if got := call.String(); got != want {
		t.Errorf("Funcall.String() = %q, want %q", got, want)
	}
}

func TestIfString(t *testing.T) {
	n := &If{
		Base: NewBase(tok("if")),
		Branches: []IfBranch{
			{Cond: &BooleanLiteral{Value: true}, Then: &IntLiteral{Base: NewBase(tok("1")), Value: 1}},
			{Cond: &BooleanLiteral{Value: false}, Then: &IntLiteral{Base: NewBase(tok("2")), Value: 2}},
		},
		Else: &IntLiteral{Base: NewBase(tok("3")), Value: 3},
	}
	want := "if TRUE then 1 elif FALSE then 2 else 3"
	if got := n.String(); got != want {
		t.Errorf("If.String() = %q, want %q", got, want)
	}
}

func TestPositionDelegatesToToken(t *testing.T) {
	pos := token.Pos{Filename: "a.ckl", Line: 5, Column: 2}
	n := &Identifier{Base: Base{Tok: token.Token{Value: "x", Pos: pos}}, Name: "x"}
	if got := n.Position(); got != pos {
		t.Errorf("Position() = %+v, want %+v", got, pos)
	}
}
