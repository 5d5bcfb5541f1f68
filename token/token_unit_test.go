package token

import "testing"

func TestPosString(t *testing.T) {
	tests := []struct {
		pos  Pos
		want string
	}{
		{Pos{Line: 3, Column: 7}, "3:7"},
		{Pos{Filename: "script.ckl", Line: 1, Column: 1}, "script.ckl:1:1"},
	}
	for _, tt := range tests {
		if got := tt.pos.String(); got != tt.want {
			t.Errorf("Pos{%+v}.String() = %q, want %q", tt.pos, got, tt.want)
		}
	}
}

func TestIsReservedWord(t *testing.T) {
	for word := range Keywords {
		if !IsReservedWord(word) {
			t.Errorf("IsReservedWord(%q) = false, want true", word)
		}
	}
	for _, notKeyword := range []string{"x", "foo", "starts", "with", "min_len"} {
		if IsReservedWord(notKeyword) {
			t.Errorf("IsReservedWord(%q) = true, want false", notKeyword)
		}
	}
}

func TestOperatorsAndInterpunctionDisjoint(t *testing.T) {
	seen := map[string]bool{}
	for _, op := range Operators {
		seen[op] = true
	}
	for _, p := range Interpunction {
		if seen[p] {
			t.Errorf("%q appears in both Operators and Interpunction", p)
		}
	}
}
