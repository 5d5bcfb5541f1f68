package lexer

import (
	"testing"

	"github.com/ckl-lang/ckl/token"
)

func kinds(t *testing.T, toks []token.Token) []token.Type {
	t.Helper()
	out := make([]token.Type, len(toks))
	for i, tok := range toks {
		out[i] = tok.Kind
	}
	return out
}

func TestScanBasicTokens(t *testing.T) {
	toks, err := Scan(`x = 1 + 2.5`, "test.ckl")
	if err != nil {
		t.Fatalf("Scan returned error: %v", err)
	}
	want := []struct {
		value string
		kind  token.Type
	}{
		{"x", token.IDENTIFIER},
		{"=", token.OPERATOR},
		{"1", token.INT},
		{"+", token.OPERATOR},
		{"2.5", token.DECIMAL},
		{"", token.EOF},
	}
	if len(toks) != len(want) {
		t.Fatalf("got %d tokens, want %d: %+v", len(toks), len(want), toks)
	}
	for i, w := range want {
		if toks[i].Kind != w.kind {
			t.Errorf("token %d kind = %s, want %s", i, toks[i].Kind, w.kind)
		}
		if w.value != "" && toks[i].Value != w.value {
			t.Errorf("token %d value = %q, want %q", i, toks[i].Value, w.value)
		}
	}
}

func TestScanString(t *testing.T) {
	toks, err := Scan(`"hello world"`, "test.ckl")
	if err != nil {
		t.Fatalf("Scan returned error: %v", err)
	}
	if toks[0].Kind != token.STRING || toks[0].Value != "hello world" {
		t.Errorf("got %+v, want STRING \"hello world\"", toks[0])
	}
}

func TestScanUnterminatedStringErrors(t *testing.T) {
	_, err := Scan(`"unterminated`, "test.ckl")
	if err == nil {
		t.Fatal("expected an error for an unterminated string literal")
	}
}

func TestScanKeyword(t *testing.T) {
	toks, err := Scan(`if x then`, "test.ckl")
	if err != nil {
		t.Fatalf("Scan returned error: %v", err)
	}
	if toks[0].Kind != token.KEYWORD || toks[0].Value != "if" {
		t.Errorf("got %+v, want KEYWORD \"if\"", toks[0])
	}
	if toks[2].Kind != token.KEYWORD || toks[2].Value != "then" {
		t.Errorf("got %+v, want KEYWORD \"then\"", toks[2])
	}
}

func TestScanPattern(t *testing.T) {
	toks, err := Scan(`//[a-z]+//`, "test.ckl")
	if err != nil {
		t.Fatalf("Scan returned error: %v", err)
	}
	if toks[0].Kind != token.PATTERN || toks[0].Value != "[a-z]+" {
		t.Errorf("got %+v, want PATTERN \"[a-z]+\"", toks[0])
	}
}

func TestScanOperatorLongestMatchFirst(t *testing.T) {
	toks, err := Scan(`a <= b`, "test.ckl")
	if err != nil {
		t.Fatalf("Scan returned error: %v", err)
	}
	if toks[1].Value != "<=" {
		t.Errorf("got operator %q, want \"<=\"", toks[1].Value)
	}
}

func TestCursorMatchAtEOFReportsUnexpectedEndOfInput(t *testing.T) {
	toks, err := Scan(`(1`, "test.ckl")
	if err != nil {
		t.Fatalf("Scan returned error: %v", err)
	}
	c := NewCursor(toks)
	c.Next() // "("
	c.Next() // "1"
	if _, err := c.Match(")", token.INTERPUNCT); err == nil {
		t.Fatal("expected an error matching past EOF")
	} else if got := err.Error(); got[:len("Unexpected end of input")] != "Unexpected end of input" {
		t.Errorf("got error %q, want it to start with \"Unexpected end of input\"", got)
	}
}
