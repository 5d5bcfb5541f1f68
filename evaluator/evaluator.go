// ==============================================================================================
// FILE: evaluator/evaluator.go
// ==============================================================================================
// PACKAGE: evaluator
// PURPOSE: Implements the runtime execution engine. It traverses the AST
//          and produces Values, a RuntimeError, or an internal control
//          sentinel (break/continue/return) that callers higher up the
//          tree unwind through. Also owns module resolution/loading,
//          since that needs to call back into Eval itself.
// ==============================================================================================
package evaluator

import (
	"github.com/ckl-lang/ckl/ast"
	"github.com/ckl-lang/ckl/builtin"
	"github.com/ckl-lang/ckl/parser"
	"github.com/ckl-lang/ckl/rt"
	"github.com/ckl-lang/ckl/token"
	"github.com/ckl-lang/ckl/value"
)

func init() {
	rt.Apply = Apply
	rt.EvalNode = func(n value.NodeLike, env *value.Environment) (value.Value, *value.RuntimeError) {
		node, ok := n.(ast.Node)
		if !ok {
			return nil, value.NewError(token.Pos{}, "ERROR", "not an evaluable node")
		}
		return Eval(node, env)
	}
	rt.ParseProgram = func(source, filename string) (value.NodeLike, error) {
		n, err := parser.ParseProgram(source, filename)
		if err != nil {
			return nil, err
		}
		return n.(ast.Node), nil
	}
	value.StrHook = func(fn *value.Func, args []value.Value) (value.Value, *value.RuntimeError) {
		return Apply(fn, args, token.Pos{}, nil)
	}
}

// Eval is the heart of the interpreter: it recursively evaluates an AST
// node in env and returns either a Value, a RuntimeError, or (internally)
// a control sentinel Value that Block/For/While/Apply recognize and
// unwind through rather than handing to user code.
func Eval(node ast.Node, env *value.Environment) (value.Value, *value.RuntimeError) {
	switch n := node.(type) {
	case *ast.NullLiteral:
		return value.TheNull, nil
	case *ast.BooleanLiteral:
		return value.NewBoolean(n.Value), nil
	case *ast.IntLiteral:
		return value.NewInt(n.Value), nil
	case *ast.DecimalLiteral:
		return value.NewDecimal(n.Value), nil
	case *ast.StringLiteral:
		return value.NewString(n.Value), nil
	case *ast.PatternLiteral:
		p, err := value.NewPattern(n.Source)
		if err != nil {
			return nil, value.NewError(n.Position(), "ERROR", "invalid pattern: %s", err)
		}
		return p, nil
	case *ast.Identifier:
		return evalIdentifier(n, env)
	case *ast.Assign:
		return evalAssign(n, env)
	case *ast.Def:
		return evalDef(n, env)
	case *ast.DefDestructuring:
		return evalDefDestructuring(n, env)
	case *ast.AssignDestructuring:
		return evalAssignDestructuring(n, env)
	case *ast.Block:
		return evalBlock(n, env)
	case *ast.If:
		return evalIf(n, env)
	case *ast.For:
		return evalFor(n, env)
	case *ast.While:
		return evalWhile(n, env)
	case *ast.And:
		return evalAnd(n, env)
	case *ast.Or:
		return evalOr(n, env)
	case *ast.Not:
		return evalNot(n, env)
	case *ast.In:
		return evalIn(n, env)
	case *ast.Break:
		return &value.BreakSentinel{}, nil
	case *ast.Continue:
		return &value.ContinueSentinel{}, nil
	case *ast.Return:
		return evalReturn(n, env)
	case *ast.ErrorRaise:
		return evalErrorRaise(n, env)
	case *ast.Funcall:
		return evalFuncall(n, env)
	case *ast.Lambda:
		return evalLambda(n, env), nil
	case *ast.Deref:
		return evalDeref(n, env)
	case *ast.DerefAssign:
		return evalDerefAssign(n, env)
	case *ast.DerefInvoke:
		return evalDerefInvoke(n, env)
	case *ast.ListLiteral:
		return evalListLiteral(n, env)
	case *ast.SetLiteral:
		return evalSetLiteral(n, env)
	case *ast.MapLiteral:
		return evalMapLiteral(n, env)
	case *ast.ObjectLiteral:
		return evalObjectLiteral(n, env)
	case *ast.Spread:
		return Eval(n.Value, env)
	case *ast.Require:
		return evalRequire(n, env)
	}
	return nil, value.NewError(node.Position(), "ERROR", "cannot evaluate %T", node)
}

// condBool enforces the boolean-operand rule shared by if/while
// conditions, and/or/not operands and comprehension filters: anything
// other than a Boolean is a runtime error, not a truthy value.
func condBool(v value.Value, pos token.Pos) (bool, *value.RuntimeError) {
	if b, ok := v.(*value.Boolean); ok {
		return b.Value, nil
	}
	return false, value.NewError(pos, "ERROR", "expected boolean condition but got %s", v.Kind())
}

func isControl(v value.Value) bool {
	switch v.Kind() {
	case value.KindBreak, value.KindContinue, value.KindReturn:
		return true
	}
	return false
}

// ---- identifiers / bindings ----

func evalIdentifier(n *ast.Identifier, env *value.Environment) (value.Value, *value.RuntimeError) {
	if v, ok := env.Get(n.Name); ok {
		return v, nil
	}
	return nil, value.NewError(n.Position(), "ERROR", "unbound identifier '%s'", n.Name)
}

func evalAssign(n *ast.Assign, env *value.Environment) (value.Value, *value.RuntimeError) {
	val, rerr := Eval(n.Value, env)
	if rerr != nil || isControl(val) {
		return val, rerr
	}
	if !env.Assign(n.Name, val) {
		return nil, value.NewError(n.Position(), "ERROR", "unbound identifier '%s'", n.Name)
	}
	return val, nil
}

func evalDef(n *ast.Def, env *value.Environment) (value.Value, *value.RuntimeError) {
	val, rerr := Eval(n.Value, env)
	if rerr != nil || isControl(val) {
		return val, rerr
	}
	// A user lambda with no name yet takes the def's identifier as its name
	// (used in stack-trace frames); a preceding docstring becomes its info.
	if fn, ok := val.(*value.Func); ok {
		if fn.Native == nil && fn.Name == "" {
			fn.Name = n.Name
		}
	}
	if n.Doc != "" {
		val.SetInfo(n.Doc)
	}
	env.Def(n.Name, val)
	return val, nil
}

func evalDefDestructuring(n *ast.DefDestructuring, env *value.Environment) (value.Value, *value.RuntimeError) {
	val, rerr := Eval(n.Value, env)
	if rerr != nil || isControl(val) {
		return val, rerr
	}
	elems, rerr := value.Elements(val, "", n.Position())
	if rerr != nil {
		return nil, rerr
	}
	for i, name := range n.Names {
		if i < len(elems) {
			env.Def(name, elems[i])
		} else {
			env.Def(name, value.TheNull)
		}
	}
	return val, nil
}

func evalAssignDestructuring(n *ast.AssignDestructuring, env *value.Environment) (value.Value, *value.RuntimeError) {
	val, rerr := Eval(n.Value, env)
	if rerr != nil || isControl(val) {
		return val, rerr
	}
	elems, rerr := value.Elements(val, "", n.Position())
	if rerr != nil {
		return nil, rerr
	}
	for i, name := range n.Names {
		var v value.Value = value.TheNull
		if i < len(elems) {
			v = elems[i]
		}
		if !env.Assign(name, v) {
			return nil, value.NewError(n.Position(), "ERROR", "unbound identifier '%s'", name)
		}
	}
	return val, nil
}

// ---- blocks / control flow ----

// evalBlock evaluates a `do ... end` block's statements (and its catch/
// finally clauses) directly in the caller's environment; block scopes do
// not own one, so a `def` inside a block is visible to the caller once
// the block returns.
func evalBlock(n *ast.Block, env *value.Environment) (value.Value, *value.RuntimeError) {
	result, rerr := runStatements(n.Statements, env)
	if rerr != nil && len(n.Catches) > 0 {
		handled, hres, hrerr := tryCatches(n.Catches, rerr, env)
		if handled {
			result, rerr = hres, hrerr
		}
	}
	if n.Finally != nil {
		fres, frerr := Eval(n.Finally, env)
		if frerr != nil {
			return fres, frerr
		}
		if isControl(fres) {
			return fres, nil
		}
	}
	return result, rerr
}

func runStatements(stmts []ast.Node, env *value.Environment) (value.Value, *value.RuntimeError) {
	var result value.Value = value.TheNull
	for _, stmt := range stmts {
		v, rerr := Eval(stmt, env)
		if rerr != nil {
			return nil, rerr
		}
		if isControl(v) {
			return v, nil
		}
		result = v
	}
	return result, nil
}

// tryCatches matches a RuntimeError's raised Value against each catch
// clause in order (`catch all` always matches); the matching clause's
// body runs in the same environment the block was evaluated in.
func tryCatches(catches []ast.CatchClause, rerr *value.RuntimeError, env *value.Environment) (bool, value.Value, *value.RuntimeError) {
	for _, c := range catches {
		if c.ValueExpr == nil {
			v, err2 := Eval(c.Body, env)
			return true, v, err2
		}
		want, werr := Eval(c.ValueExpr, env)
		if werr != nil {
			return true, nil, werr
		}
		if value.Equals(want, rerr.Raised) {
			v, err2 := Eval(c.Body, env)
			return true, v, err2
		}
	}
	return false, nil, nil
}

func evalIf(n *ast.If, env *value.Environment) (result value.Value, rerr *value.RuntimeError) {
	for _, branch := range n.Branches {
		cond, cerr := Eval(branch.Cond, env)
		if cerr != nil || isControl(cond) {
			return cond, cerr
		}
		b, berr := condBool(cond, branch.Cond.Position())
		if berr != nil {
			return nil, berr
		}
		if b {
			return Eval(branch.Then, env)
		}
	}
	if n.Else != nil {
		return Eval(n.Else, env)
	}
	return value.True, nil
}

func evalFor(n *ast.For, env *value.Environment) (value.Value, *value.RuntimeError) {
	src, rerr := Eval(n.Iterable, env)
	if rerr != nil || isControl(src) {
		return src, rerr
	}
	elems, rerr := value.Elements(src, n.Variant, n.Position())
	if rerr != nil {
		return nil, rerr
	}
	var result value.Value = value.TheNull
	for _, item := range elems {
		loopEnv := value.NewEnclosedEnvironment(env)
		bindLoopVar(n.Names, item, loopEnv)
		v, rerr := Eval(n.Body, loopEnv)
		if rerr != nil {
			return nil, rerr
		}
		switch v.Kind() {
		case value.KindBreak:
			return result, nil
		case value.KindReturn:
			return v, nil
		case value.KindContinue:
			continue
		}
		result = v
	}
	return result, nil
}

func bindLoopVar(names []string, item value.Value, env *value.Environment) {
	if len(names) <= 1 {
		name := "it"
		if len(names) == 1 {
			name = names[0]
		}
		env.Def(name, item)
		return
	}
	elems, rerr := value.Elements(item, "", token.Pos{})
	if rerr != nil {
		for _, name := range names {
			env.Def(name, value.TheNull)
		}
		return
	}
	for i, name := range names {
		if i < len(elems) {
			env.Def(name, elems[i])
		} else {
			env.Def(name, value.TheNull)
		}
	}
}

func evalWhile(n *ast.While, env *value.Environment) (value.Value, *value.RuntimeError) {
	var result value.Value = value.TheNull
	for {
		cond, rerr := Eval(n.Cond, env)
		if rerr != nil || isControl(cond) {
			return cond, rerr
		}
		b, berr := condBool(cond, n.Cond.Position())
		if berr != nil {
			return nil, berr
		}
		if !b {
			return result, nil
		}
		loopEnv := value.NewEnclosedEnvironment(env)
		v, rerr := Eval(n.Body, loopEnv)
		if rerr != nil {
			return nil, rerr
		}
		switch v.Kind() {
		case value.KindBreak:
			return result, nil
		case value.KindReturn:
			return v, nil
		case value.KindContinue:
			continue
		}
		result = v
	}
}

func evalAnd(n *ast.And, env *value.Environment) (value.Value, *value.RuntimeError) {
	left, rerr := Eval(n.Left, env)
	if rerr != nil || isControl(left) {
		return left, rerr
	}
	lb, berr := condBool(left, n.Left.Position())
	if berr != nil {
		return nil, berr
	}
	if !lb {
		return value.False, nil
	}
	right, rerr := Eval(n.Right, env)
	if rerr != nil || isControl(right) {
		return right, rerr
	}
	rb, berr := condBool(right, n.Right.Position())
	if berr != nil {
		return nil, berr
	}
	return value.NewBoolean(rb), nil
}

func evalOr(n *ast.Or, env *value.Environment) (value.Value, *value.RuntimeError) {
	left, rerr := Eval(n.Left, env)
	if rerr != nil || isControl(left) {
		return left, rerr
	}
	lb, berr := condBool(left, n.Left.Position())
	if berr != nil {
		return nil, berr
	}
	if lb {
		return value.True, nil
	}
	right, rerr := Eval(n.Right, env)
	if rerr != nil || isControl(right) {
		return right, rerr
	}
	rb, berr := condBool(right, n.Right.Position())
	if berr != nil {
		return nil, berr
	}
	return value.NewBoolean(rb), nil
}

func evalNot(n *ast.Not, env *value.Environment) (value.Value, *value.RuntimeError) {
	v, rerr := Eval(n.Operand, env)
	if rerr != nil || isControl(v) {
		return v, rerr
	}
	b, berr := condBool(v, n.Operand.Position())
	if berr != nil {
		return nil, berr
	}
	return value.NewBoolean(!b), nil
}

func evalIn(n *ast.In, env *value.Environment) (value.Value, *value.RuntimeError) {
	left, rerr := Eval(n.Left, env)
	if rerr != nil || isControl(left) {
		return left, rerr
	}
	right, rerr := Eval(n.Right, env)
	if rerr != nil || isControl(right) {
		return right, rerr
	}
	found := false
	switch r := right.(type) {
	case *value.Set:
		found = r.Has(left)
	case *value.Map:
		_, found = r.Get(left)
	case *value.List:
		for _, e := range r.Elements {
			if value.Equals(e, left) {
				found = true
				break
			}
		}
	case *value.String:
		found = containsSubstr(r.Value, value.AsString(left))
	default:
		return nil, value.NewError(n.Position(), "ERROR", "cannot use 'in' on %s", right.Kind())
	}
	if n.Negate {
		found = !found
	}
	return value.NewBoolean(found), nil
}

func containsSubstr(haystack, needle string) bool {
	return len(needle) == 0 || (len(haystack) >= len(needle) && indexOf(haystack, needle) >= 0)
}

func indexOf(haystack, needle string) int {
	n, m := len(haystack), len(needle)
	for i := 0; i+m <= n; i++ {
		if haystack[i:i+m] == needle {
			return i
		}
	}
	return -1
}

func evalReturn(n *ast.Return, env *value.Environment) (value.Value, *value.RuntimeError) {
	var v value.Value = value.TheNull
	if n.Value != nil {
		rv, rerr := Eval(n.Value, env)
		if rerr != nil || isControl(rv) {
			return rv, rerr
		}
		v = rv
	}
	return &value.ReturnSentinel{Value: v}, nil
}

func evalErrorRaise(n *ast.ErrorRaise, env *value.Environment) (value.Value, *value.RuntimeError) {
	v, rerr := Eval(n.Value, env)
	if rerr != nil || isControl(v) {
		return v, rerr
	}
	return nil, &value.RuntimeError{Raised: v, Message: value.AsString(v), Pos: n.Position()}
}

// ---- lambdas / calls ----

func evalLambda(n *ast.Lambda, env *value.Environment) *value.Func {
	params := make([]value.Param, len(n.Params))
	for i, p := range n.Params {
		params[i] = value.Param{Name: p.Name, Default: astDefault(p.Default), Rest: p.Rest}
	}
	return value.NewLambda("", params, n.Body, env)
}

func astDefault(n ast.Node) *value.Node {
	if n == nil {
		return nil
	}
	return value.NewNode(n)
}

func evalFuncall(n *ast.Funcall, env *value.Environment) (value.Value, *value.RuntimeError) {
	calleeV, rerr := Eval(n.Callee, env)
	if rerr != nil || isControl(calleeV) {
		return calleeV, rerr
	}
	fn, rerr := value.AsFunc(calleeV, n.Position())
	if rerr != nil {
		return nil, rerr
	}
	args, rerr := evalArgs(n.Args, env)
	if rerr != nil {
		return nil, rerr
	}
	bound, rerr := BindArgs(fn, args, n.Position())
	if rerr != nil {
		rerr.PushFrame(fn.Name, flattenArgs(args), n.Position())
		return nil, rerr
	}
	if fn.Native != nil && (fn.Name == "div" || fn.Name == "mod") {
		return evalDivMod(fn.Name, bound, n.Position(), env)
	}
	if fn.Native != nil && fn.Name == "s" {
		return evalStringTemplate(bound, n.Position(), env)
	}
	result, rerr := Apply(fn, bound, n.Position(), env)
	if rerr != nil {
		rerr.PushFrame(fn.Name, flattenArgs(args), n.Position())
	}
	return result, rerr
}

// evalDivMod intercepts the div/mod built-ins so division by zero can
// consult the calling scope's DIV_0_VALUE override, something a plain
// native built-in can't do since it never sees the lexical environment
// a call happened in.
func evalDivMod(op string, args []value.Value, pos token.Pos, env *value.Environment) (value.Value, *value.RuntimeError) {
	if len(args) != 2 {
		return nil, value.NewError(pos, "ERROR", "%s expects 2 arguments", op)
	}
	onZero := func() (value.Value, bool) {
		v, ok := env.Get("DIV_0_VALUE")
		if !ok || v.Kind() == value.KindNull {
			return nil, false
		}
		return v, true
	}
	if op == "div" {
		return value.Div(args[0], args[1], pos, onZero)
	}
	return value.Mod(args[0], args[1], pos, onZero)
}

// evalStringTemplate intercepts calls to the `s` built-in the same way
// evalDivMod intercepts div/mod: `{var}` placeholders resolve
// against the calling scope, which a plain value.BuiltinFn never sees.
func evalStringTemplate(args []value.Value, pos token.Pos, env *value.Environment) (value.Value, *value.RuntimeError) {
	if len(args) == 0 {
		return value.NewString(""), nil
	}
	lookup := func(name string) (value.Value, bool) {
		if env == nil {
			return nil, false
		}
		return env.Get(name)
	}
	out, rerr := builtin.RenderTemplate(value.AsString(args[0]), lookup, pos)
	if rerr != nil {
		return nil, rerr
	}
	return value.NewString(out), nil
}

// callArg is an evaluated argument retaining its name/spread-ness for the
// binder.
type callArg struct {
	name   string
	value  value.Value
	spread bool
}

func evalArgs(argNodes []ast.Arg, env *value.Environment) ([]callArg, *value.RuntimeError) {
	var out []callArg
	for _, a := range argNodes {
		v, rerr := Eval(a.Value, env)
		if rerr != nil {
			return nil, rerr
		}
		if isControl(v) {
			return nil, value.NewError(a.Value.Position(), "ERROR", "unexpected control flow in argument")
		}
		if a.Spread {
			switch sv := v.(type) {
			case *value.List:
				for _, e := range sv.Elements {
					out = append(out, callArg{value: e})
				}
			case *value.Map:
				for _, k := range sv.Keys() {
					val, _ := sv.Get(k)
					out = append(out, callArg{name: value.AsString(k), value: val})
				}
			default:
				out = append(out, callArg{value: v})
			}
			continue
		}
		out = append(out, callArg{name: a.Name, value: v})
	}
	return out, nil
}

func flattenArgs(args []callArg) []value.Value {
	out := make([]value.Value, len(args))
	for i, a := range args {
		out[i] = a.value
	}
	return out
}

// BindArgs implements the named-first / positional-fill-leftmost /
// defaults / missing-mandatory-is-error protocol.
func BindArgs(fn *value.Func, args []callArg, pos token.Pos) ([]value.Value, *value.RuntimeError) {
	if fn.Native != nil && fn.Params == nil {
		out := make([]value.Value, len(args))
		for i, a := range args {
			out[i] = a.value
		}
		return out, nil
	}
	bound := make(map[string]value.Value)
	used := make([]bool, len(args))

	// Phase 1: named arguments bind directly.
	for i, a := range args {
		if a.name == "" {
			continue
		}
		found := false
		for _, p := range fn.Params {
			if p.Name == a.name {
				bound[a.name] = a.value
				used[i] = true
				found = true
				break
			}
		}
		if !found {
			return nil, value.NewError(pos, "ERROR", "unknown named argument '%s'", a.name)
		}
	}

	// Phase 2: positional arguments fill the leftmost unbound parameters,
	// in order; a trailing Rest parameter collects any overflow as a List.
	// A positional actual after a named one is an error.
	pi := 0
	inKeywords := false
	for i, a := range args {
		if a.name != "" {
			inKeywords = true
		}
		if used[i] || a.name != "" {
			continue
		}
		if inKeywords {
			return nil, value.NewError(pos, "ERROR", "positional arguments need to be placed before named arguments")
		}
		for pi < len(fn.Params) {
			p := fn.Params[pi]
			if p.Rest {
				rest, _ := bound[p.Name].(*value.List)
				if rest == nil {
					rest = value.NewList()
					bound[p.Name] = rest
				}
				rest.Elements = append(rest.Elements, a.value)
				used[i] = true
				break
			}
			if _, already := bound[p.Name]; already {
				pi++
				continue
			}
			bound[p.Name] = a.value
			used[i] = true
			pi++
			break
		}
	}

	// Phase 3: defaults for anything still unbound.
	out := make([]value.Value, len(fn.Params))
	for i, p := range fn.Params {
		if v, ok := bound[p.Name]; ok {
			out[i] = v
			continue
		}
		if p.Rest {
			out[i] = value.NewList()
			continue
		}
		if p.Default != nil {
			dv, rerr := rt.EvalNode(p.Default.Value, fn.Closure)
			if rerr != nil {
				return nil, rerr
			}
			out[i] = dv
			continue
		}
		return nil, value.NewError(pos, "ERROR", "missing required argument '%s'", p.Name)
	}
	return out, nil
}

// Apply invokes fn with already-bound positional args.
func Apply(fn *value.Func, args []value.Value, pos token.Pos, env *value.Environment) (value.Value, *value.RuntimeError) {
	if fn.Native != nil {
		return fn.Native(args, pos)
	}
	callEnv := value.NewEnclosedEnvironment(fn.Closure)
	for i, p := range fn.Params {
		if i < len(args) {
			callEnv.Def(p.Name, args[i])
		}
	}
	body, ok := fn.Body.(ast.Node)
	if !ok {
		return nil, value.NewError(pos, "ERROR", "corrupt function body")
	}
	v, err := Eval(body, callEnv)
	if err != nil {
		return nil, err
	}
	if ret, ok := v.(*value.ReturnSentinel); ok {
		return ret.Value, nil
	}
	return v, nil
}

// ---- deref / method calls ----

func evalDeref(n *ast.Deref, env *value.Environment) (value.Value, *value.RuntimeError) {
	target, rerr := Eval(n.Target, env)
	if rerr != nil || isControl(target) {
		return target, rerr
	}
	if n.IsArrow {
		if obj, ok := target.(*value.Object); ok {
			if v, ok := obj.Lookup(n.Name); ok {
				return v, nil
			}
		}
		if n.Default != nil {
			return Eval(n.Default, env)
		}
		return nil, value.NewError(n.Position(), "ERROR", "no field '%s'", n.Name)
	}
	idx, rerr := Eval(n.Index, env)
	if rerr != nil || isControl(idx) {
		return idx, rerr
	}
	v, rerr := indexValue(target, idx, n.Position())
	if rerr != nil {
		if n.Default != nil {
			return Eval(n.Default, env)
		}
		return nil, rerr
	}
	return v, nil
}

func indexValue(target, idx value.Value, pos token.Pos) (value.Value, *value.RuntimeError) {
	switch t := target.(type) {
	case *value.List:
		i, rerr := value.AsInt(idx, pos)
		if rerr != nil {
			return nil, rerr
		}
		if i < 0 {
			i += int64(len(t.Elements))
		}
		if i < 0 || i >= int64(len(t.Elements)) {
			return nil, value.NewError(pos, "ERROR", "index out of bounds: %d", i)
		}
		return t.Elements[i], nil
	case *value.String:
		runes := []rune(t.Value)
		i, rerr := value.AsInt(idx, pos)
		if rerr != nil {
			return nil, rerr
		}
		if i < 0 {
			i += int64(len(runes))
		}
		if i < 0 || i >= int64(len(runes)) {
			return nil, value.NewError(pos, "ERROR", "index out of bounds: %d", i)
		}
		return value.NewString(string(runes[i])), nil
	case *value.Map:
		v, ok := t.Get(idx)
		if !ok {
			return nil, value.NewError(pos, "ERROR", "no such key: %s", idx.String())
		}
		return v, nil
	case *value.Object:
		if v, ok := t.Lookup(value.AsString(idx)); ok {
			return v, nil
		}
		return nil, value.NewError(pos, "ERROR", "no field '%s'", value.AsString(idx))
	}
	return nil, value.NewError(pos, "ERROR", "cannot index %s", target.Kind())
}

func evalDerefAssign(n *ast.DerefAssign, env *value.Environment) (value.Value, *value.RuntimeError) {
	target, rerr := Eval(n.Target, env)
	if rerr != nil || isControl(target) {
		return target, rerr
	}
	val, rerr := Eval(n.Value, env)
	if rerr != nil || isControl(val) {
		return val, rerr
	}
	if n.IsArrow {
		obj, rerr := value.AsObject(target, n.Position())
		if rerr != nil {
			return nil, rerr
		}
		obj.Set(n.Name, val)
		return val, nil
	}
	idx, rerr := Eval(n.Index, env)
	if rerr != nil || isControl(idx) {
		return idx, rerr
	}
	switch t := target.(type) {
	case *value.List:
		i, rerr := value.AsInt(idx, n.Position())
		if rerr != nil {
			return nil, rerr
		}
		if i < 0 {
			i += int64(len(t.Elements))
		}
		if i < 0 || i >= int64(len(t.Elements)) {
			return nil, value.NewError(n.Position(), "ERROR", "index out of bounds: %d", i)
		}
		t.Elements[i] = val
		return val, nil
	case *value.Map:
		t.Set(idx, val)
		return val, nil
	case *value.Object:
		t.Set(value.AsString(idx), val)
		return val, nil
	}
	return nil, value.NewError(n.Position(), "ERROR", "cannot assign into %s", target.Kind())
}

func evalDerefInvoke(n *ast.DerefInvoke, env *value.Environment) (value.Value, *value.RuntimeError) {
	target, rerr := Eval(n.Target, env)
	if rerr != nil || isControl(target) {
		return target, rerr
	}
	var method value.Value
	var found bool
	if obj, ok := target.(*value.Object); ok {
		method, found = obj.Lookup(n.Name)
	} else if mod, ok := target.(*value.Map); ok {
		method, found = mod.Get(value.NewString(n.Name))
	}
	if !found {
		return nil, value.NewError(n.Position(), "ERROR", "no method '%s'", n.Name)
	}
	fn, rerr := value.AsFunc(method, n.Position())
	if rerr != nil {
		return nil, rerr
	}
	args, rerr := evalArgs(n.Args, env)
	if rerr != nil {
		return nil, rerr
	}
	// Implicit self applies to Objects only: unless the object is flagged
	// as a module (`_is_module_` tag), it's prepended as the first
	// positional argument so `obj->method(x)` reads as `method(obj, x)`.
	// A Map target is a plain function table; its values are called as-is.
	if obj, ok := target.(*value.Object); ok && !isModuleObject(obj) {
		args = append([]callArg{{value: target}}, args...)
	}
	bound, rerr := BindArgs(fn, args, n.Position())
	if rerr != nil {
		return nil, rerr
	}
	return Apply(fn, bound, n.Position(), env)
}

func isModuleObject(o *value.Object) bool {
	v, ok := o.Get("_is_module_")
	return ok && value.Truthy(v)
}

// ---- container literals ----

func evalListLiteral(n *ast.ListLiteral, env *value.Environment) (value.Value, *value.RuntimeError) {
	if n.Comp != nil {
		elems, rerr := evalComprehension(n.Comp, n.Expr, env)
		if rerr != nil {
			return nil, rerr
		}
		return value.NewList(elems...), nil
	}
	var out []value.Value
	for _, e := range n.Elements {
		v, rerr := Eval(e, env)
		if rerr != nil || isControl(v) {
			return v, rerr
		}
		if spread, ok := e.(*ast.Spread); ok {
			_ = spread
			switch sv := v.(type) {
			case *value.List:
				out = append(out, sv.Elements...)
				continue
			case *value.Set:
				out = append(out, sv.Elements()...)
				continue
			}
		}
		out = append(out, v)
	}
	return value.NewList(out...), nil
}

func evalSetLiteral(n *ast.SetLiteral, env *value.Environment) (value.Value, *value.RuntimeError) {
	out := value.NewSet()
	if n.Comp != nil {
		elems, rerr := evalComprehension(n.Comp, n.Expr, env)
		if rerr != nil {
			return nil, rerr
		}
		for _, e := range elems {
			out.Add(e)
		}
		return out, nil
	}
	for _, e := range n.Elements {
		v, rerr := Eval(e, env)
		if rerr != nil || isControl(v) {
			return v, rerr
		}
		out.Add(v)
	}
	return out, nil
}

// evalComprehension evaluates a (possibly multi-clause) comprehension,
// producing the flattened list of per-iteration Expr results. A "product"
// join nests: each clause's source is iterated inside the previous
// clause's scope. An "also" join walks that clause's source in lockstep
// with the clause just before it.
func evalComprehension(comp *ast.Comprehension, expr ast.Node, env *value.Environment) ([]value.Value, *value.RuntimeError) {
	return evalCompClauses(comp.Clauses, comp.Cond, expr, env)
}

func evalCompClauses(clauses []ast.CompClause, cond, expr ast.Node, env *value.Environment) ([]value.Value, *value.RuntimeError) {
	if len(clauses) == 0 {
		keep := true
		if cond != nil {
			cv, rerr := Eval(cond, env)
			if rerr != nil {
				return nil, rerr
			}
			keep, rerr = condBool(cv, cond.Position())
			if rerr != nil {
				return nil, rerr
			}
		}
		if !keep {
			return nil, nil
		}
		v, rerr := Eval(expr, env)
		if rerr != nil {
			return nil, rerr
		}
		return []value.Value{v}, nil
	}

	first := clauses[0]
	rest := clauses[1:]

	src, rerr := Eval(first.Source, env)
	if rerr != nil {
		return nil, rerr
	}
	elems, rerr := value.Elements(src, first.Variant, first.Source.Position())
	if rerr != nil {
		return nil, rerr
	}

	if len(rest) > 0 && rest[0].Join == "also" {
		alsoSrc, rerr := Eval(rest[0].Source, env)
		if rerr != nil {
			return nil, rerr
		}
		alsoElems, rerr := value.Elements(alsoSrc, rest[0].Variant, rest[0].Source.Position())
		if rerr != nil {
			return nil, rerr
		}
		n := len(elems)
		if len(alsoElems) < n {
			n = len(alsoElems)
		}
		var out []value.Value
		for i := 0; i < n; i++ {
			loopEnv := value.NewEnclosedEnvironment(env)
			bindLoopVar(first.Names, elems[i], loopEnv)
			bindLoopVar(rest[0].Names, alsoElems[i], loopEnv)
			sub, rerr := evalCompClauses(rest[1:], cond, expr, loopEnv)
			if rerr != nil {
				return nil, rerr
			}
			out = append(out, sub...)
		}
		return out, nil
	}

	var out []value.Value
	for _, item := range elems {
		loopEnv := value.NewEnclosedEnvironment(env)
		bindLoopVar(first.Names, item, loopEnv)
		sub, rerr := evalCompClauses(rest, cond, expr, loopEnv)
		if rerr != nil {
			return nil, rerr
		}
		out = append(out, sub...)
	}
	return out, nil
}

func evalMapLiteral(n *ast.MapLiteral, env *value.Environment) (value.Value, *value.RuntimeError) {
	out := value.NewMap()
	if n.IsComp {
		src, rerr := Eval(n.Source, env)
		if rerr != nil {
			return nil, rerr
		}
		elems, rerr := value.Elements(src, n.Variant, n.Position())
		if rerr != nil {
			return nil, rerr
		}
		for _, item := range elems {
			loopEnv := value.NewEnclosedEnvironment(env)
			loopEnv.Def(n.Var, item)
			if n.Cond != nil {
				cv, rerr := Eval(n.Cond, loopEnv)
				if rerr != nil {
					return nil, rerr
				}
				keep, rerr := condBool(cv, n.Cond.Position())
				if rerr != nil {
					return nil, rerr
				}
				if !keep {
					continue
				}
			}
			k, rerr := Eval(n.KeyExpr, loopEnv)
			if rerr != nil {
				return nil, rerr
			}
			v, rerr := Eval(n.ValExpr, loopEnv)
			if rerr != nil {
				return nil, rerr
			}
			out.Set(k, v)
		}
		return out, nil
	}
	for _, pair := range n.Pairs {
		// A bare identifier key names itself: <<<a => 1>>> has the key 'a'.
		if id, ok := pair.Key.(*ast.Identifier); ok {
			v, rerr := Eval(pair.Value, env)
			if rerr != nil || isControl(v) {
				return v, rerr
			}
			out.Set(value.NewString(id.Name), v)
			continue
		}
		k, rerr := Eval(pair.Key, env)
		if rerr != nil || isControl(k) {
			return k, rerr
		}
		v, rerr := Eval(pair.Value, env)
		if rerr != nil || isControl(v) {
			return v, rerr
		}
		out.Set(k, v)
	}
	return out, nil
}

func evalObjectLiteral(n *ast.ObjectLiteral, env *value.Environment) (value.Value, *value.RuntimeError) {
	out := value.NewObject()
	for _, pair := range n.Pairs {
		v, rerr := Eval(pair.Value, env)
		if rerr != nil || isControl(v) {
			return v, rerr
		}
		out.Set(pair.Key, v)
	}
	return out, nil
}
