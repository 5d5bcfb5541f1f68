// Command ckl-repl is the interactive entry point: same flags as the
// script runner, plus optional script files executed first, then an
// interactive read-eval-print loop over stdin/stdout.
package main

import (
	"fmt"
	"os"
	"os/signal"

	"github.com/spf13/cobra"

	"github.com/ckl-lang/ckl/lang/runner"
	"github.com/ckl-lang/ckl/repl"
)

func main() {
	var secure, legacy bool
	var modulePaths []string

	cmd := &cobra.Command{
		Use:                   "ckl-repl [script...]",
		Short:                 "Interactive ckl read-eval-print loop",
		DisableFlagsInUseLine: true,
		SilenceUsage:          true,
		SilenceErrors:         true,
		RunE: func(cmd *cobra.Command, args []string) error {
			env, rerr := runner.NewEnvironment(runner.Options{
				Secure:      secure,
				Legacy:      legacy,
				ModulePaths: modulePaths,
				ScriptName:  "repl",
				ScriptArgs:  nil,
			})
			if rerr != nil {
				runner.PrintRuntimeError(os.Stderr, rerr)
				os.Exit(1)
			}

			for _, script := range args {
				data, err := os.ReadFile(script)
				if err != nil {
					return fmt.Errorf("cannot read %s: %w", script, err)
				}
				if code := runner.RunSource(env, string(data), script); code != 0 {
					os.Exit(code)
				}
			}

			// Ctrl-C ends the session the same way an `exit` line does.
			interrupt := make(chan os.Signal, 1)
			signal.Notify(interrupt, os.Interrupt)
			go func() {
				<-interrupt
				fmt.Fprintln(os.Stdout)
				os.Exit(0)
			}()

			repl.Start(os.Stdin, os.Stdout, env, "repl")
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
