// Command ckl is the script runner entry point: parses and evaluates a
// .ckl file, printing its top-level result or an ERROR/stack-trace on
// failure.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/ckl-lang/ckl/lang/runner"
)

func main() {
	var secure, legacy bool
	var modulePaths []string

	cmd := &cobra.Command{
		Use:                   "ckl <script> [args...]",
		Short:                 "Run a ckl script",
		Args:                  cobra.MinimumNArgs(1),
		DisableFlagsInUseLine: true,
		SilenceUsage:          true,
		SilenceErrors:         true,
		RunE: func(cmd *cobra.Command, args []string) error {
			scriptName := args[0]
			data, err := os.ReadFile(scriptName)
			if err != nil {
				return fmt.Errorf("cannot read %s: %w", scriptName, err)
			}

			env, rerr := runner.NewEnvironment(runner.Options{
				Secure:      secure,
				Legacy:      legacy,
				ModulePaths: modulePaths,
				ScriptName:  scriptName,
				ScriptArgs:  args[1:],
			})
			if rerr != nil {
				runner.PrintRuntimeError(os.Stderr, rerr)
				os.Exit(1)
			}

			os.Exit(runner.RunSource(env, string(data), scriptName))
			return nil
		},
	}

	cmd.Flags().BoolVarP(&secure, "secure", "s", false, "run in secure mode (disables file/process built-ins)")
	cmd.Flags().BoolVarP(&legacy, "legacy", "l", false, "load legacy.ckl instead of base.ckl")
	cmd.Flags().StringArrayVarP(&modulePaths, "modulepath", "m", nil, "directory to search for required modules (repeatable)")

	if err := cmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
