package builtin

import (
	"math"
	"strings"

	"github.com/tidwall/gjson"

	"github.com/ckl-lang/ckl/token"
	"github.com/ckl-lang/ckl/value"
)

// jsonBuiltins binds parse_json, using tidwall/gjson to walk the
// parsed document rather than hand-rolling a JSON decoder: gjson's
// Result already distinguishes array/object/number/string/bool/null the
// way jsonToValue needs to map them onto the Value sum type.
func jsonBuiltins() []entry {
	return []entry{
		{Name: "parse_json", Fn: func(args []value.Value, pos token.Pos) (value.Value, *value.RuntimeError) {
			src := value.AsString(arg(args, 0))
			if !gjson.Valid(src) {
				return nil, value.NewError(pos, "ERROR", "invalid json")
			}
			return jsonToValue(gjson.Parse(src)), nil
		}},
	}
}

func jsonToValue(r gjson.Result) value.Value {
	switch {
	case r.IsArray():
		lst := value.NewList()
		r.ForEach(func(_, v gjson.Result) bool {
			lst.Elements = append(lst.Elements, jsonToValue(v))
			return true
		})
		return lst
	case r.IsObject():
		m := value.NewMap()
		r.ForEach(func(k, v gjson.Result) bool {
			m.Set(value.NewString(k.String()), jsonToValue(v))
			return true
		})
		return m
	default:
		switch r.Type {
		case gjson.Null:
			return value.TheNull
		case gjson.True:
			return value.NewBoolean(true)
		case gjson.False:
			return value.NewBoolean(false)
		case gjson.Number:
			if r.Num == math.Trunc(r.Num) && !strings.ContainsAny(r.Raw, ".eE") {
				return value.NewInt(int64(r.Num))
			}
			return value.NewDecimal(r.Num)
		case gjson.String:
			return value.NewString(r.Str)
		default:
			return value.TheNull
		}
	}
}
