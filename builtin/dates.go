package builtin

import (
	"strings"
	"time"

	"github.com/ckl-lang/ckl/token"
	"github.com/ckl-lang/ckl/value"
)

// dateFormats are the layouts `parse_date` tries in order when no
// explicit format is given.
var dateFormats = []string{
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"2006-01-02",
	"02.01.2006 15:04:05",
	"02.01.2006",
}

// cklToGoLayout translates the `yyyy MM dd HH mm ss` token vocabulary
// used in user-supplied format strings into Go's reference-time layout.
func cklToGoLayout(fmtStr string) string {
	repl := strings.NewReplacer(
		"yyyy", "2006", "MM", "01", "dd", "02",
		"HH", "15", "mm", "04", "ss", "05",
	)
	return repl.Replace(fmtStr)
}

func dateBuiltins() []entry {
	return []entry{
		{Name: "now", Fn: func(args []value.Value, pos token.Pos) (value.Value, *value.RuntimeError) {
			return value.NewDate(time.Now().UTC()), nil
		}},
		{Name: "parse_date", Fn: func(args []value.Value, pos token.Pos) (value.Value, *value.RuntimeError) {
			s := value.AsString(arg(args, 0))
			if len(args) > 1 {
				// parse_date('...', fmt=['yyyyMMddHHmm', ...]) tries each
				// format in order, returning Null rather than erroring
				// when none of them fits.
				if formats, ok := args[1].(*value.List); ok {
					for _, f := range formats.Elements {
						layout := cklToGoLayout(value.AsString(f))
						if t, err := time.Parse(layout, s); err == nil {
							return value.NewDate(t.UTC()), nil
						}
					}
					return value.TheNull, nil
				}
				layout := cklToGoLayout(value.AsString(args[1]))
				t, err := time.Parse(layout, s)
				if err != nil {
					return value.TheNull, nil
				}
				return value.NewDate(t.UTC()), nil
			}
			for _, layout := range dateFormats {
				if t, err := time.Parse(layout, s); err == nil {
					return value.NewDate(t.UTC()), nil
				}
			}
			return value.TheNull, nil
		}},
		{Name: "timestamp", Fn: func(args []value.Value, pos token.Pos) (value.Value, *value.RuntimeError) {
			if len(args) == 0 {
				return value.NewInt(time.Now().UTC().Unix()), nil
			}
			d, ok := arg(args, 0).(*value.Date)
			if !ok {
				return nil, value.NewError(pos, "ERROR", "timestamp expects a date")
			}
			return value.NewInt(d.Value.Unix()), nil
		}},
		{Name: "format_date", Fn: func(args []value.Value, pos token.Pos) (value.Value, *value.RuntimeError) {
			d, ok := arg(args, 0).(*value.Date)
			if !ok {
				return nil, value.NewError(pos, "ERROR", "format_date expects a date")
			}
			layout := "yyyy-MM-dd HH:mm:ss"
			if len(args) > 1 {
				layout = value.AsString(args[1])
			}
			return value.NewString(d.Value.Format(cklToGoLayout(layout))), nil
		}},
		{Name: "date_add_days", Fn: func(args []value.Value, pos token.Pos) (value.Value, *value.RuntimeError) {
			d, ok := arg(args, 0).(*value.Date)
			if !ok {
				return nil, value.NewError(pos, "ERROR", "date_add_days expects a date")
			}
			n, rerr := value.AsDecimal(arg(args, 1), pos)
			if rerr != nil {
				return nil, rerr
			}
			return d.AddDays(n), nil
		}},
	}
}
