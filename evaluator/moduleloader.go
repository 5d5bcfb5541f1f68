package evaluator

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/ckl-lang/ckl/ast"
	langerrors "github.com/ckl-lang/ckl/lang/errors"
	"github.com/ckl-lang/ckl/lang/stdlib"
	"github.com/ckl-lang/ckl/parser"
	"github.com/ckl-lang/ckl/token"
	"github.com/ckl-lang/ckl/value"
)

// evalRequire resolves and loads a module: the two built-in
// pseudo-modules "base"/"legacy" come from lang/stdlib's embedded
// sources; anything else is resolved against the environment's module
// search path as "<name>.ckl". Loaded modules are cached on the root
// Environment and a require cycle is a RuntimeError, not a stack
// overflow.
func evalRequire(n *ast.Require, env *value.Environment) (value.Value, *value.RuntimeError) {
	name, rerr := resolveModuleSpec(n.ModuleSpec, n.Position(), env)
	if rerr != nil {
		return nil, rerr
	}

	if mod, ok := env.GetModule(name); ok {
		return bindModule(n, mod, env, name)
	}

	if !env.PushLoading(name) {
		return nil, value.NewError(n.Position(), "ERROR", "circular require of module '%s'", name)
	}
	defer env.PopLoading()

	source, filename, err := resolveModuleSource(name, env.ModulePaths())
	if err != nil {
		return nil, value.NewError(n.Position(), "ERROR", "cannot load module '%s': %s", name, err)
	}

	body, err := parser.ParseProgram(source, filename)
	if err != nil {
		return nil, value.NewError(n.Position(), "ERROR", "syntax error in module '%s': %s", name, err)
	}

	modEnv := value.NewEnclosedEnvironment(env)
	if _, rerr := Eval(body, modEnv); rerr != nil {
		return nil, rerr
	}

	mod := value.NewObject()
	mod.Set("_is_module_", value.True)
	for _, name := range moduleExportNames(modEnv) {
		if strings.HasPrefix(name, "_") {
			continue
		}
		v, _ := modEnv.Get(name)
		if nested, ok := v.(*value.Object); ok {
			if _, isMod := nested.Get("_is_module_"); isMod {
				continue
			}
		}
		mod.Set(name, v)
	}
	env.SetModule(name, mod)
	return bindModule(n, mod, env, name)
}

// resolveModuleSpec turns the require form's spec into a path: a bare
// identifier modulespec is
// kept as-is (the module's own name) unless it is already bound to
// something other than a loaded module Object, in which case that bound
// value (which must be a string) is used instead; any other expression is
// evaluated and must produce a string. This lets `require math` work
// before `math` is ever defined, while requiring a string-valued loop
// variable still resolves through its value.
func resolveModuleSpec(spec ast.Node, pos token.Pos, env *value.Environment) (string, *value.RuntimeError) {
	if id, ok := spec.(*ast.Identifier); ok {
		if val, bound := env.Get(id.Name); bound {
			if obj, isObj := val.(*value.Object); isObj {
				if _, isMod := obj.Get("_is_module_"); isMod {
					return id.Name, nil
				}
			}
			if str, isStr := val.(*value.String); isStr {
				return str.Value, nil
			}
			return "", value.NewError(pos, "ERROR", "expected string or module identifier modulespec but got %s", val.Kind())
		}
		return id.Name, nil
	}
	v, rerr := Eval(spec, env)
	if rerr != nil || isControl(v) {
		if rerr != nil {
			return "", rerr
		}
		return "", value.NewError(pos, "ERROR", "unexpected control flow in modulespec")
	}
	str, ok := v.(*value.String)
	if !ok {
		return "", value.NewError(pos, "ERROR", "expected string modulespec but got %s", v.Kind())
	}
	return str.Value, nil
}

// moduleExportNames lists every binding the module body created in its
// own scope (not inherited from the requiring environment). evalBlock
// runs the body directly against modEnv, so its own store holds exactly
// the module-level defs.
func moduleExportNames(modEnv *value.Environment) []string {
	return modEnv.OwnNames()
}

func bindModule(n *ast.Require, mod value.Value, env *value.Environment, resolvedName string) (value.Value, *value.RuntimeError) {
	switch n.Mode {
	case "unqualified":
		obj, rerr := value.AsObject(mod, n.Position())
		if rerr != nil {
			return nil, rerr
		}
		for _, k := range obj.Keys() {
			if strings.HasPrefix(k, "_") {
				continue
			}
			v, _ := obj.Get(k)
			env.Def(k, v)
		}
		return mod, nil
	case "import":
		obj, rerr := value.AsObject(mod, n.Position())
		if rerr != nil {
			return nil, rerr
		}
		for _, imp := range n.Imports {
			if strings.HasPrefix(imp.Name, "_") {
				return nil, value.NewError(n.Position(), "ERROR", "module member '%s' is private", imp.Name)
			}
			v, ok := obj.Get(imp.Name)
			if !ok {
				return nil, value.NewError(n.Position(), "ERROR", "module has no member '%s'", imp.Name)
			}
			alias := imp.Name
			if imp.Alias != "" {
				alias = imp.Alias
			}
			env.Def(alias, v)
		}
		return mod, nil
	default: // "qualified"
		name := n.Alias
		if name == "" {
			name = moduleIdentifier(resolvedName)
		}
		env.Def(name, mod)
		return mod, nil
	}
}

// moduleIdentifier is the last path segment of a require spec with .ckl
// stripped (the default qualified binding name when no `as` clause is
// given).
func moduleIdentifier(spec string) string {
	base := filepath.Base(spec)
	return strings.TrimSuffix(base, ".ckl")
}

// Bootstrap loads base.ckl (or legacy.ckl, in legacy mode) directly into
// the root environment: unlike `require "base"` from user code,
// the bootstrap module's bindings land straight in the root scope rather
// than behind a module object, so every built-in it defines is globally
// visible without qualification.
func Bootstrap(env *value.Environment, legacy bool) *value.RuntimeError {
	source, filename := stdlib.Base, "base.ckl"
	if legacy {
		source, filename = stdlib.Legacy, "legacy.ckl"
	}
	body, err := parser.ParseProgram(source, filename)
	if err != nil {
		return value.NewError(token.Pos{Filename: filename}, "ERROR", "syntax error in %s: %s", filename, err)
	}
	_, rerr := Eval(body, env)
	return rerr
}

func resolveModuleSource(name string, paths []string) (source, filename string, err error) {
	switch name {
	case "base":
		return stdlib.Base, "base.ckl", nil
	case "legacy":
		return stdlib.Legacy, "legacy.ckl", nil
	}
	filename = name
	if filepath.Ext(filename) == "" {
		filename += ".ckl"
	}
	for _, dir := range paths {
		full := filepath.Join(dir, filename)
		if data, readErr := os.ReadFile(full); readErr == nil {
			return string(data), full, nil
		}
	}
	data, readErr := os.ReadFile(filename)
	if readErr != nil {
		return "", "", langerrors.WrapHost(readErr, "require "+name)
	}
	return string(data), filename, nil
}
