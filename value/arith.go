package value

import (
	"github.com/ckl-lang/ckl/token"
)

// Add implements polymorphic `+`: numeric-numeric first, then the
// container/date combinations, then string-atom concatenation (the
// non-string side is stringified). The fallthrough order matters:
// `[1] + "x"` appends while `"x" + [1]` prepends into a new list.
func Add(a, b Value, pos token.Pos) (Value, *RuntimeError) {
	if isNull(a) || isNull(b) {
		return TheNull, nil
	}
	switch l := a.(type) {
	case *Int:
		switch r := b.(type) {
		case *Int:
			return NewInt(l.Value + r.Value), nil
		case *Decimal:
			return NewDecimal(float64(l.Value) + r.Value), nil
		}
	case *Decimal:
		switch r := b.(type) {
		case *Int:
			return NewDecimal(l.Value + float64(r.Value)), nil
		case *Decimal:
			return NewDecimal(l.Value + r.Value), nil
		}
	}
	// List/Set: concatenate-or-union against another collection, else
	// append the bare atom as a single new element.
	if l, ok := a.(*List); ok {
		if isCollection(b) {
			elems, _ := Elements(b, "", pos)
			out := append(append([]Value{}, l.Elements...), elems...)
			return NewList(out...), nil
		}
		out := append(append([]Value{}, l.Elements...), b)
		return NewList(out...), nil
	}
	if l, ok := a.(*Set); ok {
		if isCollection(b) {
			elems, _ := Elements(b, "", pos)
			out := NewSet()
			for _, e := range l.Elements() {
				out.Add(e)
			}
			for _, e := range elems {
				out.Add(e)
			}
			return out, nil
		}
		out := NewSet()
		for _, e := range l.Elements() {
			out.Add(e)
		}
		out.Add(b)
		return out, nil
	}
	if r, ok := b.(*List); ok {
		out := append([]Value{a}, r.Elements...)
		return NewList(out...), nil
	}
	if r, ok := b.(*Set); ok {
		out := NewSet()
		out.Add(a)
		for _, e := range r.Elements() {
			out.Add(e)
		}
		return out, nil
	}
	if m, ok := a.(*Map); ok {
		if r, ok := b.(*Map); ok {
			out := NewMap()
			for _, k := range m.Keys() {
				v, _ := m.Get(k)
				out.Set(k, v)
			}
			for _, k := range r.Keys() {
				v, _ := r.Get(k)
				out.Set(k, v)
			}
			return out, nil
		}
	}
	if d, ok := a.(*Date); ok {
		switch r := b.(type) {
		case *Int:
			return d.AddDays(float64(r.Value)), nil
		case *Decimal:
			return d.AddDays(r.Value), nil
		}
	}
	if (isString(a) && isAtomic(b)) || (isAtomic(a) && isString(b)) {
		return NewString(AsString(a) + AsString(b)), nil
	}
	return nil, NewError(pos, "ERROR", "cannot add %s and %s", a.Kind(), b.Kind())
}

func isCollection(v Value) bool {
	switch v.(type) {
	case *List, *Set:
		return true
	}
	return false
}

func isAtomic(v Value) bool {
	switch v.(type) {
	case *String, *Int, *Decimal, *Boolean, *Date, *Pattern:
		return true
	}
	return false
}

func isString(v Value) bool {
	_, ok := v.(*String)
	return ok
}

// removalElements resolves the right operand of list subtraction to the
// set of values to remove: a List or Set contributes its own elements,
// any other value is treated as a singleton.
func removalElements(b Value) []Value {
	switch t := b.(type) {
	case *List:
		return t.Elements
	case *Set:
		return t.Elements()
	default:
		return []Value{b}
	}
}

// removalSet resolves the right operand of set subtraction the same way
// FuncSub does: Set as-is, List element-by-element, any other value as a
// singleton insert.
func removalSet(b Value) *Set {
	switch t := b.(type) {
	case *Set:
		return t
	case *List:
		out := NewSet()
		for _, e := range t.Elements {
			out.Add(e)
		}
		return out
	default:
		out := NewSet()
		out.Add(b)
		return out
	}
}

func Sub(a, b Value, pos token.Pos) (Value, *RuntimeError) {
	if isNull(a) || isNull(b) {
		return TheNull, nil
	}
	switch l := a.(type) {
	case *Int:
		switch r := b.(type) {
		case *Int:
			return NewInt(l.Value - r.Value), nil
		case *Decimal:
			return NewDecimal(float64(l.Value) - r.Value), nil
		}
	case *Decimal:
		switch r := b.(type) {
		case *Int:
			return NewDecimal(l.Value - float64(r.Value)), nil
		case *Decimal:
			return NewDecimal(l.Value - r.Value), nil
		}
	case *Set:
		minus := removalSet(b)
		out := NewSet()
		for _, e := range l.Elements() {
			if !minus.Has(e) {
				out.Add(e)
			}
		}
		return out, nil
	case *List:
		removal := removalElements(b)
		out := NewList()
		for _, e := range l.Elements {
			skip := false
			for _, re := range removal {
				if canonical(e) == canonical(re) {
					skip = true
					break
				}
			}
			if !skip {
				out.Elements = append(out.Elements, e)
			}
		}
		return out, nil
	case *Date:
		switch r := b.(type) {
		case *Int:
			return l.AddDays(-float64(r.Value)), nil
		case *Decimal:
			return l.AddDays(-r.Value), nil
		case *Date:
			// Date minus date yields whole days as an Int.
			days := l.Value.Sub(r.Value).Hours() / 24
			return NewInt(int64(days)), nil
		}
	}
	return nil, NewError(pos, "ERROR", "cannot subtract %s and %s", b.Kind(), a.Kind())
}

func Mul(a, b Value, pos token.Pos) (Value, *RuntimeError) {
	if isNull(a) || isNull(b) {
		return TheNull, nil
	}
	switch l := a.(type) {
	case *Int:
		switch r := b.(type) {
		case *Int:
			return NewInt(l.Value * r.Value), nil
		case *Decimal:
			return NewDecimal(float64(l.Value) * r.Value), nil
		}
	case *Decimal:
		switch r := b.(type) {
		case *Int:
			return NewDecimal(l.Value * float64(r.Value)), nil
		case *Decimal:
			return NewDecimal(l.Value * r.Value), nil
		}
	case *String:
		if r, ok := b.(*Int); ok {
			out := ""
			for i := int64(0); i < r.Value; i++ {
				out += l.Value
			}
			return NewString(out), nil
		}
	case *List:
		if r, ok := b.(*Int); ok {
			var out []Value
			for i := int64(0); i < r.Value; i++ {
				out = append(out, l.Elements...)
			}
			return NewList(out...), nil
		}
	}
	return nil, NewError(pos, "ERROR", "cannot multiply %s and %s", a.Kind(), b.Kind())
}

// DivZeroHandler lets the caller (the evaluator) supply the DIV_0_VALUE
// environment override instead of erroring on division by zero.
type DivZeroHandler func() (Value, bool)

func Div(a, b Value, pos token.Pos, onZero DivZeroHandler) (Value, *RuntimeError) {
	if isNull(a) || isNull(b) {
		return TheNull, nil
	}
	if isZero(b) {
		if onZero != nil {
			if v, ok := onZero(); ok {
				return v, nil
			}
		}
		return nil, NewError(pos, "ERROR", "division by zero")
	}
	switch l := a.(type) {
	case *Int:
		switch r := b.(type) {
		case *Int:
			// Int/Int always truncates toward zero to an Int, even when
			// not evenly divisible; it never promotes to Decimal.
			return NewInt(l.Value / r.Value), nil
		case *Decimal:
			return NewDecimal(float64(l.Value) / r.Value), nil
		}
	case *Decimal:
		switch r := b.(type) {
		case *Int:
			return NewDecimal(l.Value / float64(r.Value)), nil
		case *Decimal:
			return NewDecimal(l.Value / r.Value), nil
		}
	}
	return nil, NewError(pos, "ERROR", "cannot divide %s by %s", a.Kind(), b.Kind())
}

func Mod(a, b Value, pos token.Pos, onZero DivZeroHandler) (Value, *RuntimeError) {
	if isNull(a) || isNull(b) {
		return TheNull, nil
	}
	if isZero(b) {
		if onZero != nil {
			if v, ok := onZero(); ok {
				return v, nil
			}
		}
		return nil, NewError(pos, "ERROR", "division by zero")
	}
	switch l := a.(type) {
	case *Int:
		switch r := b.(type) {
		case *Int:
			m := l.Value % r.Value
			if m < 0 {
				m += absInt64(r.Value)
			}
			return NewInt(m), nil
		case *Decimal:
			return NewDecimal(modFloat(float64(l.Value), r.Value)), nil
		}
	case *Decimal:
		switch r := b.(type) {
		case *Int:
			return NewDecimal(modFloat(l.Value, float64(r.Value))), nil
		case *Decimal:
			return NewDecimal(modFloat(l.Value, r.Value)), nil
		}
	}
	return nil, NewError(pos, "ERROR", "cannot compute %s mod %s", a.Kind(), b.Kind())
}

// isNull reports whether v is the Null value; arithmetic short-circuits to
// Null whenever either operand is Null.
func isNull(v Value) bool {
	_, ok := v.(*Null)
	return ok
}

func isZero(v Value) bool {
	switch t := v.(type) {
	case *Int:
		return t.Value == 0
	case *Decimal:
		return t.Value == 0
	}
	return false
}

func absInt64(n int64) int64 {
	if n < 0 {
		return -n
	}
	return n
}

func modFloat(a, b float64) float64 {
	m := a - b*float64(int64(a/b))
	if m < 0 {
		if b > 0 {
			m += b
		} else {
			m -= b
		}
	}
	return m
}
