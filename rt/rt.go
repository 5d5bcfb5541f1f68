// Package rt holds a small set of function-variable hooks that let package
// builtin call back into package evaluator (Apply a Func, Eval a quoted
// Node, parse source into a Node) without evaluator and builtin importing
// each other. evaluator's init() wires these; builtin only ever reads
// them. A package-level seam rather than a parameter because the builtins
// that need it (sorted with a custom comparator, process_lines, eval,
// parse, run) sit several tables away from registration.
package rt

import (
	"github.com/ckl-lang/ckl/token"
	"github.com/ckl-lang/ckl/value"
)

// Apply invokes a Func (native or lambda) with already-bound arguments.
var Apply func(fn *value.Func, args []value.Value, pos token.Pos, env *value.Environment) (value.Value, *value.RuntimeError)

// EvalNode evaluates a quoted AST fragment (a value.Node's payload) in env.
var EvalNode func(n value.NodeLike, env *value.Environment) (value.Value, *value.RuntimeError)

// ParseProgram parses source text into a quoted Node value, for the
// `parse`/`eval`/`run` built-ins.
var ParseProgram func(source, filename string) (value.NodeLike, error)
