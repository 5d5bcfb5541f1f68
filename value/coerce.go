package value

import (
	"strconv"
	"strings"
	"time"

	"github.com/ckl-lang/ckl/token"
)

// Truthy is the permissive truth test used for optional boolean flags
// (builtin arguments, internal tags): only FALSE and Null are falsy.
// Language-level conditions (if/while/and/or/not) reject non-booleans
// outright instead of consulting this.
func Truthy(v Value) bool {
	switch t := v.(type) {
	case *Boolean:
		return t.Value
	case *Null:
		return false
	default:
		return true
	}
}

func AsInt(v Value, pos token.Pos) (int64, *RuntimeError) {
	switch t := v.(type) {
	case *Null:
		return 0, nil
	case *Int:
		return t.Value, nil
	case *Decimal:
		return int64(t.Value), nil
	case *Boolean:
		if t.Value {
			return 1, nil
		}
		return 0, nil
	case *String:
		n, err := strconv.ParseInt(t.Value, 10, 64)
		if err != nil {
			return 0, NewError(pos, "ERROR", "cannot convert %s to int", t.Value)
		}
		return n, nil
	}
	return 0, NewError(pos, "ERROR", "cannot convert %s to int", v.Kind())
}

func AsDecimal(v Value, pos token.Pos) (float64, *RuntimeError) {
	switch t := v.(type) {
	case *Decimal:
		return t.Value, nil
	case *Int:
		return float64(t.Value), nil
	case *String:
		n, err := strconv.ParseFloat(t.Value, 64)
		if err != nil {
			return 0, NewError(pos, "ERROR", "cannot convert %s to decimal", t.Value)
		}
		return n, nil
	}
	return 0, NewError(pos, "ERROR", "cannot convert %s to decimal", v.Kind())
}

func AsString(v Value) string {
	switch t := v.(type) {
	case *String:
		return t.Value
	case *Null:
		return ""
	}
	return v.String()
}

func AsList(v Value, pos token.Pos) (*List, *RuntimeError) {
	if l, ok := v.(*List); ok {
		return l, nil
	}
	return nil, NewError(pos, "ERROR", "expected list, got %s", v.Kind())
}

func AsSet(v Value, pos token.Pos) (*Set, *RuntimeError) {
	if s, ok := v.(*Set); ok {
		return s, nil
	}
	return nil, NewError(pos, "ERROR", "expected set, got %s", v.Kind())
}

func AsMap(v Value, pos token.Pos) (*Map, *RuntimeError) {
	if m, ok := v.(*Map); ok {
		return m, nil
	}
	return nil, NewError(pos, "ERROR", "expected map, got %s", v.Kind())
}

func AsObject(v Value, pos token.Pos) (*Object, *RuntimeError) {
	if o, ok := v.(*Object); ok {
		return o, nil
	}
	return nil, NewError(pos, "ERROR", "expected object, got %s", v.Kind())
}

func AsFunc(v Value, pos token.Pos) (*Func, *RuntimeError) {
	if f, ok := v.(*Func); ok {
		return f, nil
	}
	return nil, NewError(pos, "ERROR", "expected function, got %s", v.Kind())
}

// AsBoolean is the explicit `boolean` built-in's coercion: a String must
// be exactly "1"/"0" or TRUE/FALSE (case-insensitive on the latter two)
// to coerce, anything else is a runtime error.
func AsBoolean(v Value, pos token.Pos) (bool, *RuntimeError) {
	switch t := v.(type) {
	case *Boolean:
		return t.Value, nil
	case *Null:
		return false, nil
	case *String:
		switch strings.ToUpper(t.Value) {
		case "1", "TRUE":
			return true, nil
		case "0", "FALSE":
			return false, nil
		}
		return false, NewError(pos, "ERROR", "cannot convert '%s' to boolean", t.Value)
	case *Int:
		return t.Value != 0, nil
	}
	return false, NewError(pos, "ERROR", "cannot convert %s to boolean", v.Kind())
}

// dateStringLayout picks the fixed layout a string's length selects for
// implicit string->date coercion: exactly 8/10/14 digits.
func dateStringLayout(s string) (string, bool) {
	switch len(s) {
	case 8:
		return "20060102", true
	case 10:
		return "2006010215", true
	case 14:
		return "20060102150405", true
	}
	return "", false
}

// AsDate coerces v to a Date: a string must be exactly
// yyyyMMdd/yyyyMMddHH/yyyyMMddHHmmss; anything else is a runtime error.
func AsDate(v Value, pos token.Pos) (*Date, *RuntimeError) {
	switch t := v.(type) {
	case *Date:
		return t, nil
	case *String:
		layout, ok := dateStringLayout(t.Value)
		if !ok {
			return nil, NewError(pos, "ERROR", "cannot convert '%s' to date", t.Value)
		}
		parsed, err := time.Parse(layout, t.Value)
		if err != nil {
			return nil, NewError(pos, "ERROR", "cannot convert '%s' to date", t.Value)
		}
		return NewDate(parsed.UTC()), nil
	}
	return nil, NewError(pos, "ERROR", "cannot convert %s to date", v.Kind())
}

// AsPattern coerces v to a Pattern: a Pattern passes through, a String is
// compiled as a regex source.
func AsPattern(v Value, pos token.Pos) (*Pattern, *RuntimeError) {
	switch t := v.(type) {
	case *Pattern:
		return t, nil
	case *String:
		p, err := NewPattern(t.Value)
		if err != nil {
			return nil, NewError(pos, "ERROR", "invalid pattern '%s': %s", t.Value, err)
		}
		return p, nil
	}
	return nil, NewError(pos, "ERROR", "cannot convert %s to pattern", v.Kind())
}

func IsNumeric(v Value) bool {
	switch v.(type) {
	case *Int, *Decimal:
		return true
	}
	return false
}

// Iterable elements for `for`/comprehensions: List/Set yield their
// elements; Map and Object yield values unless the keys/entries variant
// is selected; String yields one-rune strings; Input yields its lines.
func Elements(v Value, variant string, pos token.Pos) ([]Value, *RuntimeError) {
	switch t := v.(type) {
	case *List:
		return t.Elements, nil
	case *Set:
		return t.Elements(), nil
	case *Map:
		switch variant {
		case "keys":
			return t.Keys(), nil
		case "entries":
			var out []Value
			for _, k := range t.Keys() {
				val, _ := t.Get(k)
				out = append(out, NewList(k, val))
			}
			return out, nil
		default: // "values" is the default variant
			var out []Value
			for _, k := range t.Keys() {
				val, _ := t.Get(k)
				out = append(out, val)
			}
			return out, nil
		}
	case *String:
		var out []Value
		for _, r := range t.Value {
			out = append(out, NewString(string(r)))
		}
		return out, nil
	case *Input:
		// Line-by-line until EOF, one String per line.
		var out []Value
		for {
			line, more, err := t.Reader.ReadLine()
			if err != nil {
				return nil, NewError(pos, "ERROR", "cannot read from input")
			}
			if !more {
				return out, nil
			}
			out = append(out, NewString(line))
		}
	case *Object:
		switch variant {
		case "keys":
			var out []Value
			for _, k := range t.Keys() {
				out = append(out, NewString(k))
			}
			return out, nil
		case "entries":
			var out []Value
			for _, k := range t.Keys() {
				val, _ := t.Get(k)
				out = append(out, NewList(NewString(k), val))
			}
			return out, nil
		default: // "values" is the default variant
			var out []Value
			for _, k := range t.Keys() {
				val, _ := t.Get(k)
				out = append(out, val)
			}
			return out, nil
		}
	}
	return nil, NewError(pos, "ERROR", "cannot iterate over %s", v.Kind())
}
