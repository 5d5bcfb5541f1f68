package builtin

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/mattn/go-runewidth"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/ckl-lang/ckl/token"
	"github.com/ckl-lang/ckl/value"
)

// upperCaser/lowerCaser use golang.org/x/text/cases for Unicode-correct
// upper/lower casing instead of strings.ToUpper/ToLower.
var (
	upperCaser = cases.Upper(language.Und)
	lowerCaser = cases.Lower(language.Und)
)

func stringBuiltins() []entry {
	return []entry{
		{Name: "upper", Fn: func(args []value.Value, pos token.Pos) (value.Value, *value.RuntimeError) {
			return value.NewString(upperCaser.String(value.AsString(arg(args, 0)))), nil
		}},
		{Name: "lower", Fn: func(args []value.Value, pos token.Pos) (value.Value, *value.RuntimeError) {
			return value.NewString(lowerCaser.String(value.AsString(arg(args, 0)))), nil
		}},
		{Name: "trim", Fn: func(args []value.Value, pos token.Pos) (value.Value, *value.RuntimeError) {
			return value.NewString(strings.TrimSpace(value.AsString(arg(args, 0)))), nil
		}},
		{Name: "split", Fn: func(args []value.Value, pos token.Pos) (value.Value, *value.RuntimeError) {
			s := value.AsString(arg(args, 0))
			sep := value.AsString(arg(args, 1))
			parts := strings.Split(s, sep)
			out := make([]value.Value, len(parts))
			for i, p := range parts {
				out[i] = value.NewString(p)
			}
			return value.NewList(out...), nil
		}},
		{Name: "replace", Fn: func(args []value.Value, pos token.Pos) (value.Value, *value.RuntimeError) {
			s := value.AsString(arg(args, 0))
			old := value.AsString(arg(args, 1))
			new := value.AsString(arg(args, 2))
			return value.NewString(strings.ReplaceAll(s, old, new)), nil
		}},
		{Name: "index_of", Fn: func(args []value.Value, pos token.Pos) (value.Value, *value.RuntimeError) {
			s := value.AsString(arg(args, 0))
			sub := value.AsString(arg(args, 1))
			return value.NewInt(int64(indexOfStr(s, sub))), nil
		}},
		{Name: "substr", Fn: func(args []value.Value, pos token.Pos) (value.Value, *value.RuntimeError) {
			runes := []rune(value.AsString(arg(args, 0)))
			from, rerr := value.AsInt(arg(args, 1), pos)
			if rerr != nil {
				return nil, rerr
			}
			to := int64(len(runes))
			if len(args) > 2 {
				t, rerr := value.AsInt(args[2], pos)
				if rerr != nil {
					return nil, rerr
				}
				to = t
			}
			if from < 0 || to > int64(len(runes)) || from > to {
				return nil, value.NewError(pos, "ERROR", "substring indices out of bounds")
			}
			return value.NewString(string(runes[from:to])), nil
		}},
		{Name: "matches", Fn: func(args []value.Value, pos token.Pos) (value.Value, *value.RuntimeError) {
			s := value.AsString(arg(args, 0))
			p, ok := arg(args, 1).(*value.Pattern)
			if !ok {
				return nil, value.NewError(pos, "ERROR", "matches expects a pattern as its second argument")
			}
			return value.NewBoolean(p.Compiled.MatchString(s)), nil
		}},
		{Name: "s", Fn: func(args []value.Value, pos token.Pos) (value.Value, *value.RuntimeError) {
			// Evaluator intercepts calls to the named builtin "s" before
			// Apply (see evaluator.evalStringTemplate) so {var} can resolve
			// against the caller's lexical environment; this Fn only runs
			// when "s" is invoked indirectly (e.g. via bind_native), where
			// no environment is available, so {var} placeholders resolve
			// against an empty scope.
			if len(args) == 0 {
				return value.NewString(""), nil
			}
			out, rerr := RenderTemplate(value.AsString(args[0]), func(string) (value.Value, bool) { return nil, false }, pos)
			if rerr != nil {
				return nil, rerr
			}
			return value.NewString(out), nil
		}},
		{Name: "escape_pattern", Fn: func(args []value.Value, pos token.Pos) (value.Value, *value.RuntimeError) {
			return value.NewString(regexp.QuoteMeta(value.AsString(arg(args, 0)))), nil
		}},
		{Name: "chr", Fn: func(args []value.Value, pos token.Pos) (value.Value, *value.RuntimeError) {
			n, rerr := value.AsInt(arg(args, 0), pos)
			if rerr != nil {
				return nil, rerr
			}
			return value.NewString(string(rune(n))), nil
		}},
		{Name: "ord", Fn: func(args []value.Value, pos token.Pos) (value.Value, *value.RuntimeError) {
			s := value.AsString(arg(args, 0))
			runes := []rune(s)
			if len(runes) == 0 {
				return nil, value.NewError(pos, "ERROR", "ord expects a non-empty string")
			}
			return value.NewInt(int64(runes[0])), nil
		}},
	}
}

// RenderTemplate implements the `s` built-in's `{var[#spec]}` template
// interpolation: each placeholder names a variable resolved via lookup
// (the caller's lexical environment, wired by package evaluator), with
// an optional printf-like `[-|0]width[.precision][x]` format spec.
// Padding counts display width via go-runewidth, not bytes or runes.
func RenderTemplate(tmpl string, lookup func(name string) (value.Value, bool), pos token.Pos) (string, *value.RuntimeError) {
	var b strings.Builder
	runes := []rune(tmpl)
	for i := 0; i < len(runes); i++ {
		r := runes[i]
		if r != '{' {
			b.WriteRune(r)
			continue
		}
		j := i + 1
		for j < len(runes) && runes[j] != '}' {
			j++
		}
		if j >= len(runes) {
			return "", value.NewError(pos, "ERROR", "unterminated { in template")
		}
		placeholder := string(runes[i+1 : j])
		name, spec := placeholder, ""
		if k := strings.IndexByte(placeholder, '#'); k >= 0 {
			name, spec = placeholder[:k], placeholder[k+1:]
		}
		v, ok := lookup(name)
		if !ok {
			v = value.TheNull
		}
		b.WriteString(applySpec(value.AsString(v), spec))
		i = j
	}
	return b.String(), nil
}

// applySpec applies the `[-|0]width[.precision][x]` spec to s: `-` left-
// justifies (default right), `0` zero-pads, `.precision` truncates to at
// most that many characters, trailing `x` renders the value's hex form
// instead of its string form when it parses as an integer.
func applySpec(s, spec string) string {
	if spec == "" {
		return s
	}
	hex := strings.HasSuffix(spec, "x")
	if hex {
		spec = spec[:len(spec)-1]
		if n, err := strconv.ParseInt(s, 10, 64); err == nil {
			s = strconv.FormatInt(n, 16)
		}
	}
	left := strings.HasPrefix(spec, "-")
	if left {
		spec = spec[1:]
	}
	zero := strings.HasPrefix(spec, "0")
	if zero {
		spec = spec[1:]
	}
	width, precision := spec, ""
	if k := strings.IndexByte(spec, '.'); k >= 0 {
		width, precision = spec[:k], spec[k+1:]
	}
	if precision != "" {
		if p, err := strconv.Atoi(precision); err == nil && p < runewidth.StringWidth(s) {
			r := []rune(s)
			if p < len(r) {
				s = string(r[:p])
			}
		}
	}
	w, err := strconv.Atoi(width)
	if err != nil || w <= runewidth.StringWidth(s) {
		return s
	}
	pad := w - runewidth.StringWidth(s)
	padChar := " "
	if zero {
		padChar = "0"
	}
	fill := strings.Repeat(padChar, pad)
	if left {
		return s + fill
	}
	return fill + s
}
