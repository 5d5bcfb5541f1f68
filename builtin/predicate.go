package builtin

import (
	"strconv"
	"time"

	"github.com/ckl-lang/ckl/token"
	"github.com/ckl-lang/ckl/value"
)

// isAllDigits/withinLen back the `min_len`/`max_len`/`exact_len` length
// qualifiers the parser desugars `is numerical`/`is alphanumerical` into.
func isAllDigits(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}

func withinLen(n int, args []value.Value) bool {
	if len(args) > 1 && value.IsNumeric(args[1]) {
		if min, _ := value.AsInt(args[1], token.Pos{}); n < int(min) {
			return false
		}
	}
	if len(args) > 2 && value.IsNumeric(args[2]) {
		if max, _ := value.AsInt(args[2], token.Pos{}); n > int(max) {
			return false
		}
	}
	return true
}

func formatArg(args []value.Value, i int, fallback string) string {
	if i < len(args) {
		return value.AsString(args[i])
	}
	return fallback
}

// validDateFormat parses s against fmtStr and succeeds only when the full
// input is consumed and the resulting components are valid.
func validDateFormat(s, fmtStr string) value.Value {
	_, err := time.Parse(cklToGoLayout(fmtStr), s)
	return value.NewBoolean(err == nil)
}

// predicateBuiltins are the is_* family the parser's `expr is [not] foo`
// suffix desugars into (each takes the tested value first;
// is_numerical/is_alphanumerical also take min/max length bounds and
// is_valid_date/is_valid_time a format), plus the handful of is_valid_* parse-checking predicates
// base.ckl's prelude builds on.
func predicateBuiltins() []entry {
	kindIs := func(k value.Kind) value.BuiltinFn {
		return func(args []value.Value, pos token.Pos) (value.Value, *value.RuntimeError) {
			return value.NewBoolean(arg(args, 0).Kind() == k), nil
		}
	}
	return []entry{
		{Name: "is_string", Fn: kindIs(value.KindString)},
		{Name: "is_int", Fn: kindIs(value.KindInt)},
		{Name: "is_decimal", Fn: kindIs(value.KindDecimal)},
		{Name: "is_boolean", Fn: kindIs(value.KindBoolean)},
		{Name: "is_null", Fn: kindIs(value.KindNull)},
		{Name: "is_list", Fn: kindIs(value.KindList)},
		{Name: "is_set", Fn: kindIs(value.KindSet)},
		{Name: "is_map", Fn: kindIs(value.KindMap)},
		{Name: "is_object", Fn: kindIs(value.KindObject)},
		{Name: "is_func", Fn: kindIs(value.KindFunc)},
		{Name: "is_pattern", Fn: kindIs(value.KindPattern)},
		{Name: "is_date", Fn: kindIs(value.KindDate)},
		{Name: "is_number", Fn: func(args []value.Value, pos token.Pos) (value.Value, *value.RuntimeError) {
			return value.NewBoolean(value.IsNumeric(arg(args, 0))), nil
		}},
		{Name: "is_empty", Fn: func(args []value.Value, pos token.Pos) (value.Value, *value.RuntimeError) {
			n, rerr := length(arg(args, 0), pos)
			if rerr != nil {
				return nil, rerr
			}
			return value.NewBoolean(n == 0), nil
		}},
		{Name: "is_not_empty", Fn: func(args []value.Value, pos token.Pos) (value.Value, *value.RuntimeError) {
			n, rerr := length(arg(args, 0), pos)
			if rerr != nil {
				return nil, rerr
			}
			return value.NewBoolean(n != 0), nil
		}},
		{Name: "is_not_null", Fn: func(args []value.Value, pos token.Pos) (value.Value, *value.RuntimeError) {
			return value.NewBoolean(arg(args, 0).Kind() != value.KindNull), nil
		}},
		{Name: "is_zero", Fn: func(args []value.Value, pos token.Pos) (value.Value, *value.RuntimeError) {
			switch t := arg(args, 0).(type) {
			case *value.Int:
				return value.NewBoolean(t.Value == 0), nil
			case *value.Decimal:
				return value.NewBoolean(t.Value == 0), nil
			}
			return value.False, nil
		}},
		{Name: "is_negative", Fn: func(args []value.Value, pos token.Pos) (value.Value, *value.RuntimeError) {
			switch t := arg(args, 0).(type) {
			case *value.Int:
				return value.NewBoolean(t.Value < 0), nil
			case *value.Decimal:
				return value.NewBoolean(t.Value < 0), nil
			}
			return value.False, nil
		}},
		{Name: "is_numerical", Fn: func(args []value.Value, pos token.Pos) (value.Value, *value.RuntimeError) {
			s := value.AsString(arg(args, 0))
			if !isAllDigits(s) {
				return value.False, nil
			}
			return value.NewBoolean(withinLen(len(s), args)), nil
		}},
		{Name: "is_alphanumerical", Fn: func(args []value.Value, pos token.Pos) (value.Value, *value.RuntimeError) {
			s := value.AsString(arg(args, 0))
			for _, r := range s {
				if !(r >= '0' && r <= '9' || r >= 'a' && r <= 'z' || r >= 'A' && r <= 'Z') {
					return value.False, nil
				}
			}
			return value.NewBoolean(withinLen(len([]rune(s)), args)), nil
		}},
		{Name: "is_valid_date", Fn: func(args []value.Value, pos token.Pos) (value.Value, *value.RuntimeError) {
			return validDateFormat(value.AsString(arg(args, 0)), formatArg(args, 1, "yyyyMMdd")), nil
		}},
		{Name: "is_valid_time", Fn: func(args []value.Value, pos token.Pos) (value.Value, *value.RuntimeError) {
			return validDateFormat(value.AsString(arg(args, 0)), formatArg(args, 1, "HHmm")), nil
		}},
		{Name: "is_valid_int", Fn: func(args []value.Value, pos token.Pos) (value.Value, *value.RuntimeError) {
			_, err := strconv.ParseInt(value.AsString(arg(args, 0)), 10, 64)
			return value.NewBoolean(err == nil), nil
		}},
		{Name: "is_valid_decimal", Fn: func(args []value.Value, pos token.Pos) (value.Value, *value.RuntimeError) {
			_, err := strconv.ParseFloat(value.AsString(arg(args, 0)), 64)
			return value.NewBoolean(err == nil), nil
		}},
		{Name: "starts_with", Fn: func(args []value.Value, pos token.Pos) (value.Value, *value.RuntimeError) {
			s, prefix := value.AsString(arg(args, 0)), value.AsString(arg(args, 1))
			return value.NewBoolean(len(s) >= len(prefix) && s[:len(prefix)] == prefix), nil
		}},
		{Name: "ends_with", Fn: func(args []value.Value, pos token.Pos) (value.Value, *value.RuntimeError) {
			s, suffix := value.AsString(arg(args, 0)), value.AsString(arg(args, 1))
			return value.NewBoolean(len(s) >= len(suffix) && s[len(s)-len(suffix):] == suffix), nil
		}},
	}
}
