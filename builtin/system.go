package builtin

import (
	"bytes"
	"os"
	"os/exec"

	"github.com/google/shlex"

	"github.com/ckl-lang/ckl/rt"
	"github.com/ckl-lang/ckl/token"
	"github.com/ckl-lang/ckl/value"
)

// systemBuiltins binds the two host-process-reaching intrinsics:
// `execute` (run a shell-style command line) and `run` (load and
// evaluate another script by path). Both are flagged Secure so Register
// omits them under --secure.
func systemBuiltins() []entry {
	return []entry{
		{Name: "execute", Secure: true, Fn: func(args []value.Value, pos token.Pos) (value.Value, *value.RuntimeError) {
			cmdline := value.AsString(arg(args, 0))
			parts, err := shlex.Split(cmdline)
			if err != nil || len(parts) == 0 {
				return nil, value.NewError(pos, "ERROR", "cannot parse command: %s", cmdline)
			}
			cmd := exec.Command(parts[0], parts[1:]...)
			var out bytes.Buffer
			cmd.Stdout = &out
			cmd.Stderr = &out
			if err := cmd.Run(); err != nil {
				return nil, value.NewError(pos, "ERROR", "command failed: %s", err)
			}
			return value.NewString(out.String()), nil
		}},
		{Name: "run", Secure: true, Fn: func(args []value.Value, pos token.Pos) (value.Value, *value.RuntimeError) {
			name := value.AsString(arg(args, 0))
			data, err := os.ReadFile(name)
			if err != nil {
				return nil, value.NewError(pos, "ERROR", "cannot read script %s", name)
			}
			body, perr := rt.ParseProgram(string(data), name)
			if perr != nil {
				return nil, value.NewError(pos, "ERROR", "syntax error in %s: %s", name, perr)
			}
			runEnv := value.NewRootEnvironment()
			Register(runEnv)
			return rt.EvalNode(body, runEnv)
		}},
	}
}
