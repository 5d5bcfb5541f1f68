// Package runner holds the setup shared by the two entry points
// (cmd/ckl, cmd/ckl-repl): building the root environment, injecting the
// host bindings, and formatting errors for the CLI.
package runner

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/adrg/xdg"

	"github.com/ckl-lang/ckl/builtin"
	"github.com/ckl-lang/ckl/evaluator"
	"github.com/ckl-lang/ckl/parser"
	"github.com/ckl-lang/ckl/value"
)

// Options are the flags common to both entry points.
type Options struct {
	Secure      bool
	Legacy      bool
	ModulePaths []string
	ScriptName  string
	ScriptArgs  []string
}

// NewEnvironment builds a root environment with built-ins registered,
// secure mode applied, the module search path set, the base/legacy
// bootstrap module loaded, and the host bindings (`args`, `scriptname`,
// `checkerlang_module_path`, `stdin`, `stdout`, `console`) injected.
func NewEnvironment(opts Options) (*value.Environment, *value.RuntimeError) {
	env := value.NewRootEnvironment()
	env.SetSecure(opts.Secure)

	paths := append([]string{filepath.Join(xdg.DataHome, "ckl")}, opts.ModulePaths...)
	env.SetModulePaths(paths)

	builtin.Register(env)

	if rerr := evaluator.Bootstrap(env, opts.Legacy); rerr != nil {
		return nil, rerr
	}

	argList := make([]value.Value, len(opts.ScriptArgs))
	for i, a := range opts.ScriptArgs {
		argList[i] = value.NewString(a)
	}
	env.Def("args", value.NewList(argList...))
	env.Def("scriptname", value.NewString(opts.ScriptName))
	pathList := make([]value.Value, len(paths))
	for i, p := range paths {
		pathList[i] = value.NewString(p)
	}
	env.Def("checkerlang_module_path", value.NewList(pathList...))
	env.Def("stdin", builtin.StdinHandle())
	env.Def("stdout", builtin.StdoutHandle())
	env.Def("console", builtin.StdoutHandle())

	return env, nil
}

// RunSource parses and evaluates source under filename in env, printing
// the top-level result unless it is Null. It returns the process
// exit code the caller should use.
func RunSource(env *value.Environment, source, filename string) int {
	body, err := parser.ParseProgram(source, filename)
	if err != nil {
		fmt.Fprintln(os.Stderr, err.Error())
		return 1
	}
	result, rerr := evaluator.Eval(body, env)
	if rerr != nil {
		PrintRuntimeError(os.Stderr, rerr)
		return 1
	}
	if _, isNull := result.(*value.Null); !isNull && result != nil {
		fmt.Println(result.String())
	}
	return 0
}

// PrintRuntimeError prints an uncaught RuntimeError as
// `ERROR: <msg> (<file>:<line>:<col>)` followed by each accumulated
// stack frame on its own line.
func PrintRuntimeError(w *os.File, rerr *value.RuntimeError) {
	fmt.Fprintf(w, "ERROR: %s (%s)\n", rerr.Message, rerr.Pos.String())
	for _, frame := range rerr.Frames {
		fmt.Fprintln(w, frame)
	}
}
