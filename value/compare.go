package value

import "github.com/ckl-lang/ckl/token"

// Equals is value equality: numerics compare across Int/Decimal, String by
// content, containers element-wise, everything else falls back to
// canonical-string identity. Null is special-cased before anything else:
// it equals only Null.
func Equals(a, b Value) bool {
	if _, ok := a.(*Null); ok {
		_, ok2 := b.(*Null)
		return ok2
	}
	if _, ok := b.(*Null); ok {
		return false
	}
	if IsNumeric(a) && IsNumeric(b) {
		af, _ := AsDecimal(a, token.Pos{})
		bf, _ := AsDecimal(b, token.Pos{})
		return af == bf
	}
	switch l := a.(type) {
	case *List:
		r, ok := b.(*List)
		if !ok || len(l.Elements) != len(r.Elements) {
			return false
		}
		for i := range l.Elements {
			if !Equals(l.Elements[i], r.Elements[i]) {
				return false
			}
		}
		return true
	case *Set:
		r, ok := b.(*Set)
		if !ok || l.Len() != r.Len() {
			return false
		}
		for _, e := range l.Elements() {
			if !r.Has(e) {
				return false
			}
		}
		return true
	case *Map:
		r, ok := b.(*Map)
		if !ok || l.Len() != r.Len() {
			return false
		}
		for _, k := range l.Keys() {
			lv, _ := l.Get(k)
			rv, ok := r.Get(k)
			if !ok || !Equals(lv, rv) {
				return false
			}
		}
		return true
	}
	return canonical(a) == canonical(b)
}

// Compare provides the total order used by `sort`/`<`/`>`/Set-and-Map
// iteration across mixed types: Int and Decimal compare numerically
// regardless of which variant each side is; same-kind Lists compare
// element-wise; every other pairing, including across distinct variants,
// falls back to lexicographic comparison of the two values' canonical
// string representations, which is what keeps the order total and stable
// for heterogeneous collections.
func Compare(a, b Value) int {
	if IsNumeric(a) && IsNumeric(b) {
		af, _ := AsDecimal(a, token.Pos{})
		bf, _ := AsDecimal(b, token.Pos{})
		switch {
		case af < bf:
			return -1
		case af > bf:
			return 1
		default:
			return 0
		}
	}
	if l, ok := a.(*List); ok {
		if r, ok := b.(*List); ok {
			n := len(l.Elements)
			if len(r.Elements) < n {
				n = len(r.Elements)
			}
			for i := 0; i < n; i++ {
				if c := Compare(l.Elements[i], r.Elements[i]); c != 0 {
					return c
				}
			}
			return len(l.Elements) - len(r.Elements)
		}
	}
	as, bs := canonical(a), canonical(b)
	switch {
	case as < bs:
		return -1
	case as > bs:
		return 1
	default:
		return 0
	}
}
