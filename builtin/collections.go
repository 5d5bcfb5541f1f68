package builtin

import (
	"sort"

	"github.com/ckl-lang/ckl/rt"
	"github.com/ckl-lang/ckl/token"
	"github.com/ckl-lang/ckl/value"
)

func length(v value.Value, pos token.Pos) (int, *value.RuntimeError) {
	switch t := v.(type) {
	case *value.List:
		return len(t.Elements), nil
	case *value.Set:
		return t.Len(), nil
	case *value.Map:
		return t.Len(), nil
	case *value.String:
		return len([]rune(t.Value)), nil
	case *value.Object:
		return t.Len(), nil
	}
	return 0, value.NewError(pos, "ERROR", "cannot take len of %s", v.Kind())
}

func collectionBuiltins() []entry {
	return []entry{
		{Name: "length", Fn: func(args []value.Value, pos token.Pos) (value.Value, *value.RuntimeError) {
			n, rerr := length(arg(args, 0), pos)
			if rerr != nil {
				return nil, rerr
			}
			return value.NewInt(int64(n)), nil
		}},
		{Name: "range", Fn: func(args []value.Value, pos token.Pos) (value.Value, *value.RuntimeError) {
			var from, to, step int64 = 0, 0, 1
			switch len(args) {
			case 1:
				n, rerr := value.AsInt(args[0], pos)
				if rerr != nil {
					return nil, rerr
				}
				to = n
			case 2:
				f, rerr := value.AsInt(args[0], pos)
				if rerr != nil {
					return nil, rerr
				}
				t, rerr := value.AsInt(args[1], pos)
				if rerr != nil {
					return nil, rerr
				}
				from, to = f, t
			default:
				f, rerr := value.AsInt(args[0], pos)
				if rerr != nil {
					return nil, rerr
				}
				t, rerr := value.AsInt(args[1], pos)
				if rerr != nil {
					return nil, rerr
				}
				s, rerr := value.AsInt(args[2], pos)
				if rerr != nil {
					return nil, rerr
				}
				from, to, step = f, t, s
			}
			if step == 0 {
				return nil, value.NewError(pos, "ERROR", "range step must not be 0")
			}
			var out []value.Value
			if step > 0 {
				for i := from; i < to; i += step {
					out = append(out, value.NewInt(i))
				}
			} else {
				for i := from; i > to; i += step {
					out = append(out, value.NewInt(i))
				}
			}
			return value.NewList(out...), nil
		}},
		{Name: "append", Fn: func(args []value.Value, pos token.Pos) (value.Value, *value.RuntimeError) {
			list, rerr := value.AsList(arg(args, 0), pos)
			if rerr != nil {
				return nil, rerr
			}
			// Mutates in place so aliases observe the append.
			list.Elements = append(list.Elements, args[1:]...)
			return list, nil
		}},
		{Name: "insert_at", Fn: func(args []value.Value, pos token.Pos) (value.Value, *value.RuntimeError) {
			list, rerr := value.AsList(arg(args, 0), pos)
			if rerr != nil {
				return nil, rerr
			}
			i, rerr := value.AsInt(arg(args, 1), pos)
			if rerr != nil {
				return nil, rerr
			}
			if i < 0 || i > int64(len(list.Elements)) {
				return nil, value.NewError(pos, "ERROR", "index out of bounds: %d", i)
			}
			list.Elements = append(list.Elements, nil)
			copy(list.Elements[i+1:], list.Elements[i:])
			list.Elements[i] = arg(args, 2)
			return list, nil
		}},
		{Name: "delete_at", Fn: func(args []value.Value, pos token.Pos) (value.Value, *value.RuntimeError) {
			list, rerr := value.AsList(arg(args, 0), pos)
			if rerr != nil {
				return nil, rerr
			}
			i, rerr := value.AsInt(arg(args, 1), pos)
			if rerr != nil {
				return nil, rerr
			}
			if i < 0 || i >= int64(len(list.Elements)) {
				return nil, value.NewError(pos, "ERROR", "index out of bounds: %d", i)
			}
			list.Elements = append(list.Elements[:i], list.Elements[i+1:]...)
			return list, nil
		}},
		{Name: "put", Fn: func(args []value.Value, pos token.Pos) (value.Value, *value.RuntimeError) {
			switch t := arg(args, 0).(type) {
			case *value.Map:
				t.Set(arg(args, 1), arg(args, 2))
				return t, nil
			case *value.Object:
				t.Set(value.AsString(arg(args, 1)), arg(args, 2))
				return t, nil
			case *value.List:
				i, rerr := value.AsInt(arg(args, 1), pos)
				if rerr != nil {
					return nil, rerr
				}
				if i < 0 || i >= int64(len(t.Elements)) {
					return nil, value.NewError(pos, "ERROR", "index out of bounds: %d", i)
				}
				t.Elements[i] = arg(args, 2)
				return t, nil
			}
			return nil, value.NewError(pos, "ERROR", "cannot put into %s", arg(args, 0).Kind())
		}},
		{Name: "sublist", Fn: func(args []value.Value, pos token.Pos) (value.Value, *value.RuntimeError) {
			list, rerr := value.AsList(arg(args, 0), pos)
			if rerr != nil {
				return nil, rerr
			}
			from, rerr := value.AsInt(arg(args, 1), pos)
			if rerr != nil {
				return nil, rerr
			}
			to := int64(len(list.Elements))
			if len(args) > 2 {
				t, rerr := value.AsInt(args[2], pos)
				if rerr != nil {
					return nil, rerr
				}
				to = t
			}
			if from < 0 || to > int64(len(list.Elements)) || from > to {
				return nil, value.NewError(pos, "ERROR", "sublist indices out of bounds")
			}
			out := append([]value.Value{}, list.Elements[from:to]...)
			return value.NewList(out...), nil
		}},
		{Name: "find", Fn: func(args []value.Value, pos token.Pos) (value.Value, *value.RuntimeError) {
			item := arg(args, 1)
			switch t := arg(args, 0).(type) {
			case *value.List:
				for i, e := range t.Elements {
					if value.Equals(e, item) {
						return value.NewInt(int64(i)), nil
					}
				}
				return value.NewInt(-1), nil
			case *value.String:
				return value.NewInt(int64(indexOfStr(t.Value, value.AsString(item)))), nil
			}
			return nil, value.NewError(pos, "ERROR", "cannot find in %s", arg(args, 0).Kind())
		}},
		{Name: "find_last", Fn: func(args []value.Value, pos token.Pos) (value.Value, *value.RuntimeError) {
			item := arg(args, 1)
			switch t := arg(args, 0).(type) {
			case *value.List:
				for i := len(t.Elements) - 1; i >= 0; i-- {
					if value.Equals(t.Elements[i], item) {
						return value.NewInt(int64(i)), nil
					}
				}
				return value.NewInt(-1), nil
			case *value.String:
				return value.NewInt(int64(lastIndexOfStr(t.Value, value.AsString(item)))), nil
			}
			return nil, value.NewError(pos, "ERROR", "cannot find_last in %s", arg(args, 0).Kind())
		}},
		{Name: "split2", Fn: func(args []value.Value, pos token.Pos) (value.Value, *value.RuntimeError) {
			s := value.AsString(arg(args, 0))
			sep := value.AsString(arg(args, 1))
			i := indexOfStr(s, sep)
			if i < 0 {
				return value.NewList(value.NewString(s), value.NewString("")), nil
			}
			return value.NewList(value.NewString(s[:i]), value.NewString(s[i+len(sep):])), nil
		}},
		{Name: "sum", Fn: func(args []value.Value, pos token.Pos) (value.Value, *value.RuntimeError) {
			list, rerr := value.AsList(arg(args, 0), pos)
			if rerr != nil {
				return nil, rerr
			}
			var acc value.Value = value.NewInt(0)
			for _, e := range list.Elements {
				acc, rerr = value.Add(acc, e, pos)
				if rerr != nil {
					return nil, rerr
				}
			}
			return acc, nil
		}},
		{Name: "zip", Fn: func(args []value.Value, pos token.Pos) (value.Value, *value.RuntimeError) {
			a, rerr := value.AsList(arg(args, 0), pos)
			if rerr != nil {
				return nil, rerr
			}
			b, rerr := value.AsList(arg(args, 1), pos)
			if rerr != nil {
				return nil, rerr
			}
			n := len(a.Elements)
			if len(b.Elements) > n {
				n = len(b.Elements)
			}
			out := make([]value.Value, n)
			for i := 0; i < n; i++ {
				var av, bv value.Value = value.TheNull, value.TheNull
				if i < len(a.Elements) {
					av = a.Elements[i]
				}
				if i < len(b.Elements) {
					bv = b.Elements[i]
				}
				out[i] = value.NewList(av, bv)
			}
			return value.NewList(out...), nil
		}},
		{Name: "contains", Fn: func(args []value.Value, pos token.Pos) (value.Value, *value.RuntimeError) {
			item := arg(args, 1)
			switch t := arg(args, 0).(type) {
			case *value.List:
				for _, e := range t.Elements {
					if value.Equals(e, item) {
						return value.True, nil
					}
				}
				return value.False, nil
			case *value.Set:
				return value.NewBoolean(t.Has(item)), nil
			case *value.Map:
				_, ok := t.Get(item)
				return value.NewBoolean(ok), nil
			case *value.String:
				return value.NewBoolean(indexOfStr(t.Value, value.AsString(item)) >= 0), nil
			}
			return nil, value.NewError(pos, "ERROR", "cannot test contains on %s", arg(args, 0).Kind())
		}},
		{Name: "keys", Fn: func(args []value.Value, pos token.Pos) (value.Value, *value.RuntimeError) {
			m, rerr := value.AsMap(arg(args, 0), pos)
			if rerr != nil {
				return nil, rerr
			}
			return value.NewList(m.Keys()...), nil
		}},
		{Name: "values", Fn: func(args []value.Value, pos token.Pos) (value.Value, *value.RuntimeError) {
			m, rerr := value.AsMap(arg(args, 0), pos)
			if rerr != nil {
				return nil, rerr
			}
			var out []value.Value
			for _, k := range m.Keys() {
				v, _ := m.Get(k)
				out = append(out, v)
			}
			return value.NewList(out...), nil
		}},
		{Name: "entries", Fn: func(args []value.Value, pos token.Pos) (value.Value, *value.RuntimeError) {
			m, rerr := value.AsMap(arg(args, 0), pos)
			if rerr != nil {
				return nil, rerr
			}
			var out []value.Value
			for _, k := range m.Keys() {
				v, _ := m.Get(k)
				out = append(out, value.NewList(k, v))
			}
			return value.NewList(out...), nil
		}},
		{Name: "remove", Fn: func(args []value.Value, pos token.Pos) (value.Value, *value.RuntimeError) {
			// Mutates in place, mirroring append.
			switch t := arg(args, 0).(type) {
			case *value.Set:
				t.Remove(args[1])
				return t, nil
			case *value.Map:
				t.Delete(args[1])
				return t, nil
			case *value.List:
				i, rerr := value.AsInt(args[1], pos)
				if rerr != nil {
					return nil, rerr
				}
				if i < 0 || i >= int64(len(t.Elements)) {
					return nil, value.NewError(pos, "ERROR", "index out of bounds: %d", i)
				}
				t.Elements = append(t.Elements[:i], t.Elements[i+1:]...)
				return t, nil
			}
			return nil, value.NewError(pos, "ERROR", "cannot remove from %s", arg(args, 0).Kind())
		}},
		{Name: "sorted", Fn: func(args []value.Value, pos token.Pos) (value.Value, *value.RuntimeError) {
			list, rerr := value.AsList(arg(args, 0), pos)
			if rerr != nil {
				return nil, rerr
			}
			out := append([]value.Value{}, list.Elements...)
			if len(args) >= 2 {
				cmp, rerr := value.AsFunc(args[1], pos)
				if rerr != nil {
					return nil, rerr
				}
				var sortErr *value.RuntimeError
				sort.SliceStable(out, func(i, j int) bool {
					if sortErr != nil {
						return false
					}
					res, err := rt.Apply(cmp, []value.Value{out[i], out[j]}, pos, nil)
					if err != nil {
						sortErr = err
						return false
					}
					n, _ := value.AsInt(res, pos)
					return n < 0
				})
				if sortErr != nil {
					return nil, sortErr
				}
			} else {
				sort.SliceStable(out, func(i, j int) bool { return value.Compare(out[i], out[j]) < 0 })
			}
			return value.NewList(out...), nil
		}},
		{Name: "zip_map", Fn: func(args []value.Value, pos token.Pos) (value.Value, *value.RuntimeError) {
			keys, rerr := value.AsList(arg(args, 0), pos)
			if rerr != nil {
				return nil, rerr
			}
			vals, rerr := value.AsList(arg(args, 1), pos)
			if rerr != nil {
				return nil, rerr
			}
			out := value.NewMap()
			n := len(keys.Elements)
			if len(vals.Elements) < n {
				n = len(vals.Elements)
			}
			for i := 0; i < n; i++ {
				out.Set(keys.Elements[i], vals.Elements[i])
			}
			return out, nil
		}},
	}
}

func indexOfStr(haystack, needle string) int {
	n, m := len(haystack), len(needle)
	for i := 0; i+m <= n; i++ {
		if haystack[i:i+m] == needle {
			return i
		}
	}
	return -1
}

func lastIndexOfStr(haystack, needle string) int {
	n, m := len(haystack), len(needle)
	for i := n - m; i >= 0; i-- {
		if haystack[i:i+m] == needle {
			return i
		}
	}
	return -1
}
