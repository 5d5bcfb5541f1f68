package parser

import (
	"strings"
	"testing"

	"github.com/ckl-lang/ckl/ast"
)

func parseOK(t *testing.T, source string) *ast.Block {
	t.Helper()
	n, err := ParseProgram(source, "test.ckl")
	if err != nil {
		t.Fatalf("ParseProgram(%q) returned error: %v", source, err)
	}
	block, ok := n.(*ast.Block)
	if !ok {
		t.Fatalf("ParseProgram(%q) returned %T, want *ast.Block", source, n)
	}
	return block
}

func TestParseArithmeticPrecedence(t *testing.T) {
	block := parseOK(t, "1 + 2 * 3")
	if len(block.Statements) != 1 {
		t.Fatalf("got %d statements, want 1", len(block.Statements))
	}
	funcall, ok := block.Statements[0].(*ast.Funcall)
	if !ok {
		t.Fatalf("top statement is %T, want *ast.Funcall (add)", block.Statements[0])
	}
	ident, ok := funcall.Callee.(*ast.Identifier)
	if !ok || ident.Name != "add" {
		t.Fatalf("callee = %v, want identifier \"add\"", funcall.Callee)
	}
	if _, ok := funcall.Args[1].Value.(*ast.Funcall); !ok {
		t.Errorf("right operand of + should be the nested mul() call, got %T", funcall.Args[1].Value)
	}
}

func TestParseIfThenElif(t *testing.T) {
	block := parseOK(t, "if TRUE then 1 elif FALSE then 2 else 3")
	ifNode, ok := block.Statements[0].(*ast.If)
	if !ok {
		t.Fatalf("got %T, want *ast.If", block.Statements[0])
	}
	if len(ifNode.Branches) != 2 {
		t.Errorf("got %d branches, want 2", len(ifNode.Branches))
	}
	if ifNode.Else == nil {
		t.Error("expected an else branch")
	}
}

func TestParseFor(t *testing.T) {
	block := parseOK(t, "for x in [1, 2, 3] do x end")
	forNode, ok := block.Statements[0].(*ast.For)
	if !ok {
		t.Fatalf("got %T, want *ast.For", block.Statements[0])
	}
	if len(forNode.Names) != 1 || forNode.Names[0] != "x" {
		t.Errorf("got Names=%v, want [x]", forNode.Names)
	}
	if _, ok := forNode.Iterable.(*ast.ListLiteral); !ok {
		t.Errorf("Iterable = %T, want *ast.ListLiteral", forNode.Iterable)
	}
}

func TestParseLambdaWithDefaultAndRestParam(t *testing.T) {
	block := parseOK(t, "fn(a, b = 2, c...) a")
	lambda, ok := block.Statements[0].(*ast.Lambda)
	if !ok {
		t.Fatalf("got %T, want *ast.Lambda", block.Statements[0])
	}
	if len(lambda.Params) != 3 {
		t.Fatalf("got %d params, want 3", len(lambda.Params))
	}
	if lambda.Params[1].Default == nil {
		t.Error("param b should have a default")
	}
	if !lambda.Params[2].Rest {
		t.Error("param c should be a rest param")
	}
}

func TestParseIsEmptyPredicateDesugarsToBuiltinCall(t *testing.T) {
	block := parseOK(t, "x is empty")
	funcall, ok := block.Statements[0].(*ast.Funcall)
	if !ok {
		t.Fatalf("got %T, want *ast.Funcall", block.Statements[0])
	}
	ident, ok := funcall.Callee.(*ast.Identifier)
	if !ok || ident.Name != "is_empty" {
		t.Fatalf("callee = %v, want identifier \"is_empty\"", funcall.Callee)
	}
}

func TestParseIsFallsBackToEquality(t *testing.T) {
	block := parseOK(t, "x is 3")
	funcall, ok := block.Statements[0].(*ast.Funcall)
	if !ok {
		t.Fatalf("got %T, want *ast.Funcall (equals)", block.Statements[0])
	}
	ident, ok := funcall.Callee.(*ast.Identifier)
	if !ok || ident.Name != "equals" {
		t.Fatalf("callee = %v, want identifier \"equals\"", funcall.Callee)
	}
}

func calleeName(n ast.Node) string {
	funcall, ok := n.(*ast.Funcall)
	if !ok {
		return ""
	}
	ident, ok := funcall.Callee.(*ast.Identifier)
	if !ok {
		return ""
	}
	return ident.Name
}

// `a < b <= c` desugars to `a < b and b <= c`, not to
// `less_equals(less(a, b), c)`.
func TestParseChainedComparisonDesugarsToAnd(t *testing.T) {
	block := parseOK(t, "a < b <= c")
	and, ok := block.Statements[0].(*ast.And)
	if !ok {
		t.Fatalf("got %T, want *ast.And", block.Statements[0])
	}
	if calleeName(and.Left) != "less" {
		t.Fatalf("left clause callee = %q, want \"less\"", calleeName(and.Left))
	}
	if calleeName(and.Right) != "less_equals" {
		t.Fatalf("right clause callee = %q, want \"less_equals\"", calleeName(and.Right))
	}
	leftCall := and.Left.(*ast.Funcall)
	rightCall := and.Right.(*ast.Funcall)
	rhsOfFirst, ok := leftCall.Args[1].Value.(*ast.Identifier)
	if !ok || rhsOfFirst.Name != "b" {
		t.Fatalf("rhs of first clause = %v, want identifier \"b\"", leftCall.Args[1].Value)
	}
	lhsOfSecond, ok := rightCall.Args[0].Value.(*ast.Identifier)
	if !ok || lhsOfSecond.Name != "b" {
		t.Fatalf("lhs of second clause = %v, want identifier \"b\"", rightCall.Args[0].Value)
	}
}

// Three-term chain folds left: (a<b and b<=c) and c<d.
func TestParseThreeTermChainedComparison(t *testing.T) {
	block := parseOK(t, "a < b <= c < d")
	outer, ok := block.Statements[0].(*ast.And)
	if !ok {
		t.Fatalf("got %T, want *ast.And", block.Statements[0])
	}
	if calleeName(outer.Right) != "less" {
		t.Fatalf("outermost right clause callee = %q, want \"less\"", calleeName(outer.Right))
	}
	inner, ok := outer.Left.(*ast.And)
	if !ok {
		t.Fatalf("got %T, want inner *ast.And", outer.Left)
	}
	if calleeName(inner.Left) != "less" || calleeName(inner.Right) != "less_equals" {
		t.Fatalf("inner clauses = %q, %q", calleeName(inner.Left), calleeName(inner.Right))
	}
}

func TestParseListComprehension(t *testing.T) {
	block := parseOK(t, "[x * 2 for x in [1, 2, 3]]")
	list, ok := block.Statements[0].(*ast.ListLiteral)
	if !ok {
		t.Fatalf("got %T, want *ast.ListLiteral", block.Statements[0])
	}
	if list.Comp == nil {
		t.Fatal("expected a comprehension")
	}
	if len(list.Comp.Clauses) != 1 {
		t.Errorf("got %d clauses, want 1", len(list.Comp.Clauses))
	}
}

func TestParseIncompleteInputReportsUnexpectedEndOfInput(t *testing.T) {
	_, err := ParseProgram("if TRUE then", "test.ckl")
	if err == nil {
		t.Fatal("expected a syntax error for incomplete input")
	}
	if !strings.Contains(err.Error(), "Unexpected end of input") {
		t.Errorf("got error %q, want it to report \"Unexpected end of input\"", err.Error())
	}
}

func TestParseRequireQualified(t *testing.T) {
	block := parseOK(t, `require "math"`)
	req, ok := block.Statements[0].(*ast.Require)
	if !ok {
		t.Fatalf("got %T, want *ast.Require", block.Statements[0])
	}
	if req.Mode != "qualified" {
		t.Errorf("Mode = %q, want \"qualified\"", req.Mode)
	}
}
