package builtin

import (
	"math"

	"github.com/ckl-lang/ckl/token"
	"github.com/ckl-lang/ckl/value"
)

func arithmeticBuiltins() []entry {
	return []entry{
		// `+ - * / %` desugar to these exact names, so `a + b` and
		// `add(a, b)` are the same call.
		{Name: "add", Fn: func(args []value.Value, pos token.Pos) (value.Value, *value.RuntimeError) {
			if len(args) != 2 {
				return nil, argError(pos, "add", 2, len(args))
			}
			return value.Add(args[0], args[1], pos)
		}},
		{Name: "sub", Fn: func(args []value.Value, pos token.Pos) (value.Value, *value.RuntimeError) {
			if len(args) != 2 {
				return nil, argError(pos, "sub", 2, len(args))
			}
			return value.Sub(args[0], args[1], pos)
		}},
		{Name: "mul", Fn: func(args []value.Value, pos token.Pos) (value.Value, *value.RuntimeError) {
			if len(args) != 2 {
				return nil, argError(pos, "mul", 2, len(args))
			}
			return value.Mul(args[0], args[1], pos)
		}},
		{Name: "div", Fn: func(args []value.Value, pos token.Pos) (value.Value, *value.RuntimeError) {
			if len(args) != 2 {
				return nil, argError(pos, "div", 2, len(args))
			}
			return value.Div(args[0], args[1], pos, nil)
		}},
		{Name: "mod", Fn: func(args []value.Value, pos token.Pos) (value.Value, *value.RuntimeError) {
			if len(args) != 2 {
				return nil, argError(pos, "mod", 2, len(args))
			}
			return value.Mod(args[0], args[1], pos, nil)
		}},

		// `== <> != < <= > >=` and `is` (as equality fallback) desugar
		// directly to these named builtins, the same way `+ - * / %`
		// desugar to add/sub/mul/div/mod.
		{Name: "compare", Fn: func(args []value.Value, pos token.Pos) (value.Value, *value.RuntimeError) {
			return value.NewInt(int64(value.Compare(arg(args, 0), arg(args, 1)))), nil
		}},
		{Name: "equals", Fn: func(args []value.Value, pos token.Pos) (value.Value, *value.RuntimeError) {
			return value.NewBoolean(value.Equals(arg(args, 0), arg(args, 1))), nil
		}},
		{Name: "not_equals", Fn: func(args []value.Value, pos token.Pos) (value.Value, *value.RuntimeError) {
			return value.NewBoolean(!value.Equals(arg(args, 0), arg(args, 1))), nil
		}},
		{Name: "less", Fn: func(args []value.Value, pos token.Pos) (value.Value, *value.RuntimeError) {
			return value.NewBoolean(value.Compare(arg(args, 0), arg(args, 1)) < 0), nil
		}},
		{Name: "less_equals", Fn: func(args []value.Value, pos token.Pos) (value.Value, *value.RuntimeError) {
			return value.NewBoolean(value.Compare(arg(args, 0), arg(args, 1)) <= 0), nil
		}},
		{Name: "greater", Fn: func(args []value.Value, pos token.Pos) (value.Value, *value.RuntimeError) {
			return value.NewBoolean(value.Compare(arg(args, 0), arg(args, 1)) > 0), nil
		}},
		{Name: "greater_equals", Fn: func(args []value.Value, pos token.Pos) (value.Value, *value.RuntimeError) {
			return value.NewBoolean(value.Compare(arg(args, 0), arg(args, 1)) >= 0), nil
		}},

		{Name: "abs", Fn: func(args []value.Value, pos token.Pos) (value.Value, *value.RuntimeError) {
			switch v := arg(args, 0).(type) {
			case *value.Int:
				if v.Value < 0 {
					return value.NewInt(-v.Value), nil
				}
				return v, nil
			case *value.Decimal:
				return value.NewDecimal(math.Abs(v.Value)), nil
			}
			return nil, value.NewError(pos, "ERROR", "abs expects a number")
		}},
		{Name: "sign", Fn: func(args []value.Value, pos token.Pos) (value.Value, *value.RuntimeError) {
			f, rerr := value.AsDecimal(arg(args, 0), pos)
			if rerr != nil {
				return nil, rerr
			}
			switch {
			case f > 0:
				return value.NewInt(1), nil
			case f < 0:
				return value.NewInt(-1), nil
			default:
				return value.NewInt(0), nil
			}
		}},
		{Name: "sqrt", Fn: mathFn1(math.Sqrt)},
		{Name: "exp", Fn: mathFn1(math.Exp)},
		{Name: "log", Fn: mathFn1(math.Log)},
		{Name: "sin", Fn: mathFn1(math.Sin)},
		{Name: "cos", Fn: mathFn1(math.Cos)},
		{Name: "tan", Fn: mathFn1(math.Tan)},
		{Name: "asin", Fn: mathFn1(math.Asin)},
		{Name: "acos", Fn: mathFn1(math.Acos)},
		{Name: "atan", Fn: mathFn1(math.Atan)},
		{Name: "atan2", Fn: func(args []value.Value, pos token.Pos) (value.Value, *value.RuntimeError) {
			y, rerr := value.AsDecimal(arg(args, 0), pos)
			if rerr != nil {
				return nil, rerr
			}
			x, rerr := value.AsDecimal(arg(args, 1), pos)
			if rerr != nil {
				return nil, rerr
			}
			return value.NewDecimal(math.Atan2(y, x)), nil
		}},
		{Name: "pow", Fn: func(args []value.Value, pos token.Pos) (value.Value, *value.RuntimeError) {
			a, rerr := value.AsDecimal(arg(args, 0), pos)
			if rerr != nil {
				return nil, rerr
			}
			b, rerr := value.AsDecimal(arg(args, 1), pos)
			if rerr != nil {
				return nil, rerr
			}
			return value.NewDecimal(math.Pow(a, b)), nil
		}},
		{Name: "floor", Fn: func(args []value.Value, pos token.Pos) (value.Value, *value.RuntimeError) {
			f, rerr := value.AsDecimal(arg(args, 0), pos)
			if rerr != nil {
				return nil, rerr
			}
			return value.NewInt(int64(math.Floor(f))), nil
		}},
		{Name: "ceiling", Fn: func(args []value.Value, pos token.Pos) (value.Value, *value.RuntimeError) {
			f, rerr := value.AsDecimal(arg(args, 0), pos)
			if rerr != nil {
				return nil, rerr
			}
			return value.NewInt(int64(math.Ceil(f))), nil
		}},
		{Name: "round", Fn: func(args []value.Value, pos token.Pos) (value.Value, *value.RuntimeError) {
			f, rerr := value.AsDecimal(arg(args, 0), pos)
			if rerr != nil {
				return nil, rerr
			}
			return value.NewInt(int64(math.Round(f))), nil
		}},

		// Type-conversion/construction builtins, one per value variant.
		{Name: "int", Fn: func(args []value.Value, pos token.Pos) (value.Value, *value.RuntimeError) {
			n, rerr := value.AsInt(arg(args, 0), pos)
			if rerr != nil {
				return nil, rerr
			}
			return value.NewInt(n), nil
		}},
		{Name: "decimal", Fn: func(args []value.Value, pos token.Pos) (value.Value, *value.RuntimeError) {
			f, rerr := value.AsDecimal(arg(args, 0), pos)
			if rerr != nil {
				return nil, rerr
			}
			return value.NewDecimal(f), nil
		}},
		{Name: "string", Fn: func(args []value.Value, pos token.Pos) (value.Value, *value.RuntimeError) {
			if len(args) == 0 {
				return value.NewString(""), nil
			}
			return value.NewString(value.AsString(args[0])), nil
		}},
		{Name: "boolean", Fn: func(args []value.Value, pos token.Pos) (value.Value, *value.RuntimeError) {
			b, rerr := value.AsBoolean(arg(args, 0), pos)
			if rerr != nil {
				return nil, rerr
			}
			return value.NewBoolean(b), nil
		}},
		{Name: "date", Fn: func(args []value.Value, pos token.Pos) (value.Value, *value.RuntimeError) {
			d, rerr := value.AsDate(arg(args, 0), pos)
			if rerr != nil {
				return nil, rerr
			}
			return d, nil
		}},
		{Name: "pattern", Fn: func(args []value.Value, pos token.Pos) (value.Value, *value.RuntimeError) {
			p, rerr := value.AsPattern(arg(args, 0), pos)
			if rerr != nil {
				return nil, rerr
			}
			return p, nil
		}},
		{Name: "list", Fn: func(args []value.Value, pos token.Pos) (value.Value, *value.RuntimeError) {
			switch t := arg(args, 0).(type) {
			case *value.List:
				return value.NewList(append([]value.Value{}, t.Elements...)...), nil
			case *value.Set:
				return value.NewList(append([]value.Value{}, t.Elements()...)...), nil
			case *value.Map:
				var out []value.Value
				for _, k := range t.Keys() {
					v, _ := t.Get(k)
					out = append(out, value.NewList(k, v))
				}
				return value.NewList(out...), nil
			case *value.String:
				var out []value.Value
				for _, r := range t.Value {
					out = append(out, value.NewString(string(r)))
				}
				return value.NewList(out...), nil
			}
			return value.NewList(arg(args, 0)), nil
		}},
		{Name: "set", Fn: func(args []value.Value, pos token.Pos) (value.Value, *value.RuntimeError) {
			out := value.NewSet()
			elems, rerr := value.Elements(arg(args, 0), "", pos)
			if rerr != nil {
				out.Add(arg(args, 0))
				return out, nil
			}
			for _, e := range elems {
				out.Add(e)
			}
			return out, nil
		}},
		{Name: "map", Fn: func(args []value.Value, pos token.Pos) (value.Value, *value.RuntimeError) {
			switch t := arg(args, 0).(type) {
			case *value.Map:
				out := value.NewMap()
				for _, k := range t.Keys() {
					v, _ := t.Get(k)
					out.Set(k, v)
				}
				return out, nil
			case *value.List:
				out := value.NewMap()
				for _, e := range t.Elements {
					pair, rerr := value.AsList(e, pos)
					if rerr != nil || len(pair.Elements) != 2 {
						return nil, value.NewError(pos, "ERROR", "map expects a list of 2-element lists")
					}
					out.Set(pair.Elements[0], pair.Elements[1])
				}
				return out, nil
			}
			return nil, value.NewError(pos, "ERROR", "cannot convert %s to map", arg(args, 0).Kind())
		}},
		{Name: "object", Fn: func(args []value.Value, pos token.Pos) (value.Value, *value.RuntimeError) {
			switch t := arg(args, 0).(type) {
			case *value.Object:
				out := value.NewObject()
				for _, k := range t.Keys() {
					v, _ := t.Get(k)
					out.Set(k, v)
				}
				return out, nil
			case *value.Map:
				out := value.NewObject()
				for _, k := range t.Keys() {
					v, _ := t.Get(k)
					out.Set(value.AsString(k), v)
				}
				return out, nil
			}
			return nil, value.NewError(pos, "ERROR", "cannot convert %s to object", arg(args, 0).Kind())
		}},
		{Name: "type", Fn: func(args []value.Value, pos token.Pos) (value.Value, *value.RuntimeError) {
			return value.NewString(string(arg(args, 0).Kind())), nil
		}},

		{Name: "bit_and", Fn: bitwise(func(a, b uint32) uint32 { return a & b })},
		{Name: "bit_or", Fn: bitwise(func(a, b uint32) uint32 { return a | b })},
		{Name: "bit_xor", Fn: bitwise(func(a, b uint32) uint32 { return a ^ b })},
		{Name: "bit_shift_left", Fn: bitwise(func(a, b uint32) uint32 { return a << (b % 32) })},
		{Name: "bit_shift_right", Fn: bitwise(func(a, b uint32) uint32 { return a >> (b % 32) })},
		{Name: "bit_not", Fn: func(args []value.Value, pos token.Pos) (value.Value, *value.RuntimeError) {
			a, rerr := value.AsInt(arg(args, 0), pos)
			if rerr != nil {
				return nil, rerr
			}
			return value.NewInt(int64(^uint32(a))), nil
		}},
		{Name: "bit_rotate_left", Fn: rotate(func(a uint32, n uint) uint32 {
			n %= 32
			return a<<n | a>>(32-n)
		})},
		{Name: "bit_rotate_right", Fn: rotate(func(a uint32, n uint) uint32 {
			n %= 32
			return a>>n | a<<(32-n)
		})},
	}
}

func mathFn1(f func(float64) float64) value.BuiltinFn {
	return func(args []value.Value, pos token.Pos) (value.Value, *value.RuntimeError) {
		x, rerr := value.AsDecimal(arg(args, 0), pos)
		if rerr != nil {
			return nil, rerr
		}
		return value.NewDecimal(f(x)), nil
	}
}

// bitwise builtins operate on 32-bit unsigned modular arithmetic:
// integers are machine words for bit ops specifically, while arithmetic
// elsewhere stays int64.
func bitwise(op func(a, b uint32) uint32) value.BuiltinFn {
	return func(args []value.Value, pos token.Pos) (value.Value, *value.RuntimeError) {
		a, rerr := value.AsInt(arg(args, 0), pos)
		if rerr != nil {
			return nil, rerr
		}
		b, rerr := value.AsInt(arg(args, 1), pos)
		if rerr != nil {
			return nil, rerr
		}
		return value.NewInt(int64(op(uint32(a), uint32(b)))), nil
	}
}

func rotate(op func(a uint32, n uint) uint32) value.BuiltinFn {
	return func(args []value.Value, pos token.Pos) (value.Value, *value.RuntimeError) {
		a, rerr := value.AsInt(arg(args, 0), pos)
		if rerr != nil {
			return nil, rerr
		}
		n, rerr := value.AsInt(arg(args, 1), pos)
		if rerr != nil {
			return nil, rerr
		}
		return value.NewInt(int64(op(uint32(a), uint(n)))), nil
	}
}
