package value

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ckl-lang/ckl/token"
)

var noPos = token.Pos{Filename: "test.ckl"}

// add(Null, 1) == Null, and same for sub, mul, mod, div.
func TestArithmeticNullPropagation(t *testing.T) {
	one := NewInt(1)
	for _, tt := range []struct {
		name string
		fn   func(a, b Value, pos token.Pos) (Value, *RuntimeError)
	}{
		{"add", Add},
		{"sub", Sub},
		{"mul", Mul},
		{"div", func(a, b Value, pos token.Pos) (Value, *RuntimeError) { return Div(a, b, pos, nil) }},
		{"mod", func(a, b Value, pos token.Pos) (Value, *RuntimeError) { return Mod(a, b, pos, nil) }},
	} {
		got, rerr := tt.fn(TheNull, one, noPos)
		require.Nil(t, rerr, "%s(Null, 1)", tt.name)
		assert.Equal(t, KindNull, got.Kind(), "%s(Null, 1) should be Null", tt.name)

		got, rerr = tt.fn(one, TheNull, noPos)
		require.Nil(t, rerr, "%s(1, Null)", tt.name)
		assert.Equal(t, KindNull, got.Kind(), "%s(1, Null) should be Null", tt.name)
	}
}

func TestAddIntInt(t *testing.T) {
	got, rerr := Add(NewInt(2), NewInt(3), noPos)
	require.Nil(t, rerr)
	assert.Equal(t, "5", got.String())
	assert.Equal(t, KindInt, got.Kind())
}

func TestAddNumericalWideningToDecimal(t *testing.T) {
	got, rerr := Add(NewInt(2), NewDecimal(0.5), noPos)
	require.Nil(t, rerr)
	assert.Equal(t, KindDecimal, got.Kind())
	assert.Equal(t, "2.5", got.String())
}

func TestAddListConcatenationAndAppend(t *testing.T) {
	got, rerr := Add(NewList(NewInt(1)), NewList(NewInt(2)), noPos)
	require.Nil(t, rerr)
	assert.Equal(t, "[1, 2]", got.String())

	got, rerr = Add(NewList(NewInt(1)), NewInt(2), noPos)
	require.Nil(t, rerr)
	assert.Equal(t, "[1, 2]", got.String())
}

func TestAddStringConcatenation(t *testing.T) {
	got, rerr := Add(NewString("x="), NewInt(5), noPos)
	require.Nil(t, rerr)
	assert.Equal(t, "x=5", got.(*String).Value)
}

func TestSetUnion(t *testing.T) {
	s1 := NewSet()
	s1.Add(NewInt(1))
	s2 := NewSet()
	s2.Add(NewInt(2))
	got, rerr := Add(s1, s2, noPos)
	require.Nil(t, rerr)
	set := got.(*Set)
	assert.Equal(t, 2, set.Len())
}

func TestDivisionByZeroErrors(t *testing.T) {
	_, rerr := Div(NewInt(1), NewInt(0), noPos, nil)
	require.NotNil(t, rerr)
}

func TestDivisionByZeroHonorsDiv0ValueOverride(t *testing.T) {
	onZero := func() (Value, bool) { return NewString("inf"), true }
	got, rerr := Div(NewInt(1), NewInt(0), noPos, onZero)
	require.Nil(t, rerr)
	assert.Equal(t, "inf", got.(*String).Value)
}

func TestMulStringRepeatAndListRepeat(t *testing.T) {
	got, rerr := Mul(NewString("ab"), NewInt(3), noPos)
	require.Nil(t, rerr)
	assert.Equal(t, "ababab", got.(*String).Value)

	got, rerr = Mul(NewList(NewInt(1), NewInt(2)), NewInt(2), noPos)
	require.Nil(t, rerr)
	assert.Equal(t, "[1, 2, 1, 2]", got.String())
}

// For any two values a, b, exactly one of a<b,
// a==b, a>b holds under compare."
func TestCompareTotalOrder(t *testing.T) {
	vals := []Value{TheNull, NewBoolean(true), NewInt(1), NewDecimal(1.5), NewString("abc"), NewList(NewInt(1)), NewObject()}
	for _, a := range vals {
		for _, b := range vals {
			c := Compare(a, b)
			lt, eq, gt := c < 0, c == 0, c > 0
			count := 0
			for _, x := range []bool{lt, eq, gt} {
				if x {
					count++
				}
			}
			assert.Equal(t, 1, count, "compare(%s, %s) should satisfy exactly one of <,==,>", a.String(), b.String())
		}
	}
}

func TestCompareNumericCrossVariant(t *testing.T) {
	assert.Equal(t, 0, Compare(NewInt(2), NewDecimal(2.0)))
	assert.True(t, Compare(NewInt(1), NewDecimal(1.5)) < 0)
}

func TestCompareFallsBackToCanonicalStringAcrossVariants(t *testing.T) {
	a := NewList(NewInt(1))
	b := NewObject()
	// Neither is numeric and they're different kinds, so Compare must fall
	// back to ordering their canonical strings ("[1]" vs "<**>") directly,
	// per the cross-variant comparison rule.
	want := 0
	switch {
	case a.String() < b.String():
		want = -1
	case a.String() > b.String():
		want = 1
	}
	got := Compare(a, b)
	normalize := func(n int) int {
		switch {
		case n < 0:
			return -1
		case n > 0:
			return 1
		default:
			return 0
		}
	}
	assert.Equal(t, want, normalize(got))
}

func TestEqualsNullOnlyEqualsNull(t *testing.T) {
	assert.True(t, Equals(TheNull, TheNull))
	assert.False(t, Equals(TheNull, NewInt(0)))
	assert.False(t, Equals(NewInt(0), TheNull))
}

func TestEqualsCrossNumeric(t *testing.T) {
	assert.True(t, Equals(NewInt(2), NewDecimal(2.0)))
}

// Map == Map regardless of insertion order.
func TestMapEqualityIgnoresInsertionOrder(t *testing.T) {
	a := NewMap()
	a.Set(NewString("a"), NewInt(1))
	a.Set(NewString("b"), NewInt(2))

	b := NewMap()
	b.Set(NewString("b"), NewInt(2))
	b.Set(NewString("a"), NewInt(1))

	assert.True(t, Equals(a, b))
}

// Set/Map iteration is in ascending key/value order under the
// canonical total order."
func TestMapIterationIsSortedByKey(t *testing.T) {
	m := NewMap()
	m.Set(NewString("b"), NewInt(2))
	m.Set(NewString("a"), NewInt(1))
	m.Set(NewString("c"), NewInt(3))
	keys := m.Keys()
	require.Len(t, keys, 3)
	assert.Equal(t, "'a'", keys[0].String())
	assert.Equal(t, "'b'", keys[1].String())
	assert.Equal(t, "'c'", keys[2].String())
}

func TestSetIterationIsSorted(t *testing.T) {
	s := NewSet()
	s.Add(NewInt(3))
	s.Add(NewInt(1))
	s.Add(NewInt(2))
	elems := s.Elements()
	require.Len(t, elems, 3)
	assert.Equal(t, "1", elems[0].String())
	assert.Equal(t, "2", elems[1].String())
	assert.Equal(t, "3", elems[2].String())
}

// Mutation through one alias is visible through all.
func TestListMutationIsVisibleThroughAlias(t *testing.T) {
	x := NewList(NewInt(1))
	y := x // same pointer: a language-level `def y = x` aliases the same *List
	x.Elements = append(x.Elements, NewInt(2))
	assert.Equal(t, "[1, 2]", y.String())
}

func TestCanonicalDecimalStringHasFractionalPart(t *testing.T) {
	assert.Equal(t, "1.0", NewDecimal(1.0).String())
}

func TestCanonicalIntString(t *testing.T) {
	assert.Equal(t, "42", NewInt(42).String())
}

func TestObjectPreservesInsertionOrder(t *testing.T) {
	o := NewObject()
	o.Set("z", NewInt(1))
	o.Set("a", NewInt(2))
	assert.Equal(t, []string{"z", "a"}, o.Keys())
}

func TestAsIntAndAsStringCoerceNullToZeroAndEmpty(t *testing.T) {
	n, rerr := AsInt(TheNull, noPos)
	require.Nil(t, rerr)
	assert.EqualValues(t, 0, n)
	assert.Equal(t, "", AsString(TheNull))
}

func TestTruthyOnlyFalseAndNullAreFalsy(t *testing.T) {
	assert.False(t, Truthy(NewBoolean(false)))
	assert.False(t, Truthy(TheNull))
	assert.True(t, Truthy(NewInt(0)))
	assert.True(t, Truthy(NewString("")))
}
