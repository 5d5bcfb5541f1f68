// ==============================================================================================
// FILE: builtin/builtin.go
// ==============================================================================================
// PACKAGE: builtin
// PURPOSE: Registers every native function the evaluator's root
//          Environment starts with, one registration table per category
//          file in this package.
// ==============================================================================================
package builtin

import (
	"github.com/ckl-lang/ckl/token"
	"github.com/ckl-lang/ckl/value"
)

// entry is either a native function (Fn set) or a bound constant (Value
// set, Fn nil). The OS/math constants (PI, E, PS, LS, FS, OS_NAME, ...)
// bind a plain value rather than a callable.
type entry struct {
	Name   string
	Secure bool // true => unavailable when the environment is in --secure mode
	Fn     value.BuiltinFn
	Value  value.Value
}

// Register installs every built-in into env's root scope. Entries flagged
// Secure are skipped entirely when env.IsSecure() so secure-mode scripts
// never even see the identifier bound.
func Register(env *value.Environment) {
	for _, e := range allEntries() {
		if e.Secure && env.IsSecure() {
			continue
		}
		if e.Fn == nil {
			env.Def(e.Name, e.Value)
			continue
		}
		env.Def(e.Name, value.NewNativeFunc(e.Name, e.Secure, e.Fn))
	}
}

func allEntries() []entry {
	var all []entry
	all = append(all, arithmeticBuiltins()...)
	all = append(all, predicateBuiltins()...)
	all = append(all, collectionBuiltins()...)
	all = append(all, stringBuiltins()...)
	all = append(all, dateBuiltins()...)
	all = append(all, ioBuiltins()...)
	all = append(all, reflectBuiltins()...)
	all = append(all, randomBuiltins()...)
	all = append(all, osBuiltins()...)
	all = append(all, jsonBuiltins()...)
	all = append(all, systemBuiltins()...)
	return all
}

func argError(pos token.Pos, name string, want, got int) *value.RuntimeError {
	return value.NewError(pos, "ERROR", "%s expects %d argument(s), got %d", name, want, got)
}

func arg(args []value.Value, i int) value.Value {
	if i < len(args) {
		return args[i]
	}
	return value.TheNull
}
