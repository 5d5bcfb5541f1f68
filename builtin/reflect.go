package builtin

import (
	"os"

	"github.com/ckl-lang/ckl/rt"
	"github.com/ckl-lang/ckl/token"
	"github.com/ckl-lang/ckl/value"
)

func reflectBuiltins() []entry {
	return []entry{
		{Name: "identity", Fn: func(args []value.Value, pos token.Pos) (value.Value, *value.RuntimeError) {
			return arg(args, 0), nil
		}},
		{Name: "info", Fn: func(args []value.Value, pos token.Pos) (value.Value, *value.RuntimeError) {
			return value.NewString(arg(args, 0).Info()), nil
		}},
		{Name: "body", Fn: func(args []value.Value, pos token.Pos) (value.Value, *value.RuntimeError) {
			fn, rerr := value.AsFunc(arg(args, 0), pos)
			if rerr != nil {
				return nil, rerr
			}
			if fn.Body == nil {
				return nil, value.NewError(pos, "ERROR", "body() expects a lambda, not a native function")
			}
			return value.NewNode(fn.Body), nil
		}},
		{Name: "parse", Fn: func(args []value.Value, pos token.Pos) (value.Value, *value.RuntimeError) {
			src := value.AsString(arg(args, 0))
			body, err := rt.ParseProgram(src, pos.Filename)
			if err != nil {
				return nil, value.NewError(pos, "ERROR", "cannot parse: %s", err)
			}
			return value.NewNode(body), nil
		}},
		{Name: "eval", Fn: func(args []value.Value, pos token.Pos) (value.Value, *value.RuntimeError) {
			var body value.NodeLike
			switch t := arg(args, 0).(type) {
			case *value.Node:
				body = t.Value
			case *value.String:
				parsed, err := rt.ParseProgram(t.Value, pos.Filename)
				if err != nil {
					return nil, value.NewError(pos, "ERROR", "cannot parse: %s", err)
				}
				body = parsed
			default:
				return nil, value.NewError(pos, "ERROR", "eval expects a string or node")
			}
			// eval runs in a fresh top-level scope: BuiltinFn has no hook
			// back to the caller's own environment.
			evalEnv := value.NewRootEnvironment()
			Register(evalEnv)
			return rt.EvalNode(body, evalEnv)
		}},
		{Name: "bind_native", Fn: func(args []value.Value, pos token.Pos) (value.Value, *value.RuntimeError) {
			name := value.AsString(arg(args, 0))
			fn, ok := lookupNative(name)
			if !ok {
				return nil, value.NewError(pos, "ERROR", "no native function named %s", name)
			}
			if len(args) > 1 {
				alias := value.AsString(args[1])
				return value.NewNativeFunc(alias, fn.Secure, fn.Native), nil
			}
			return fn, nil
		}},
		{Name: "ls", Fn: func(args []value.Value, pos token.Pos) (value.Value, *value.RuntimeError) {
			if len(args) == 0 {
				return value.NewList(), nil
			}
			switch t := arg(args, 0).(type) {
			case *value.Object:
				var out []value.Value
				for _, k := range t.Keys() {
					out = append(out, value.NewString(k))
				}
				return value.NewList(out...), nil
			case *value.Map:
				return value.NewList(t.Keys()...), nil
			}
			return nil, value.NewError(pos, "ERROR", "ls expects a module or map")
		}},
		{Name: "get_env", Fn: func(args []value.Value, pos token.Pos) (value.Value, *value.RuntimeError) {
			return value.NewString(os.Getenv(value.AsString(arg(args, 0)))), nil
		}},
	}
}

// lookupNative resolves a built-in function by name for bind_native;
// re-derives the table rather than caching it since bind_native is rare.
func lookupNative(name string) (*value.Func, bool) {
	for _, e := range allEntries() {
		if e.Name == name && e.Fn != nil {
			return value.NewNativeFunc(e.Name, e.Secure, e.Fn), true
		}
	}
	return nil, false
}
