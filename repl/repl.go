// Package repl implements the interactive read-eval-print loop: a plain
// line-oriented reader over the same parser/evaluator pipeline the
// script runner uses. Incomplete input switches to a continuation
// prompt; `exit`, EOF, and a lone `;` are handled specially.
package repl

import (
	"bufio"
	"fmt"
	"io"
	"strings"

	"github.com/ckl-lang/ckl/evaluator"
	"github.com/ckl-lang/ckl/parser"
	"github.com/ckl-lang/ckl/value"
)

const (
	primaryPrompt      = "> "
	continuationPrompt = "+ "
)

// Start runs the loop: reads lines from in, accumulating a chunk across
// a "+ " continuation when parsing stops with "Unexpected end of input",
// evaluates each complete chunk in env, and prints its result (skipping
// Null) to out. Returns on an "exit" line or EOF.
func Start(in io.Reader, out io.Writer, env *value.Environment, filename string) {
	scanner := bufio.NewScanner(in)
	var pending strings.Builder

	for {
		if pending.Len() == 0 {
			fmt.Fprint(out, primaryPrompt)
		} else {
			fmt.Fprint(out, continuationPrompt)
		}

		if !scanner.Scan() {
			return
		}
		line := scanner.Text()

		if pending.Len() == 0 {
			trimmed := strings.TrimSpace(line)
			if trimmed == "exit" {
				return
			}
			if trimmed == ";" {
				continue
			}
		}

		if pending.Len() > 0 {
			pending.WriteByte('\n')
		}
		pending.WriteString(line)

		source := pending.String()
		body, err := parser.ParseProgram(source, filename)
		if err != nil {
			if strings.Contains(err.Error(), "Unexpected end of input") {
				continue // accumulate another line under the "+ " prompt
			}
			fmt.Fprintln(out, err.Error())
			pending.Reset()
			continue
		}
		pending.Reset()

		result, rerr := evaluator.Eval(body, env)
		if rerr != nil {
			fmt.Fprintf(out, "ERROR: %s (%s)\n", rerr.Message, rerr.Pos.String())
			for _, frame := range rerr.Frames {
				fmt.Fprintln(out, frame)
			}
			continue
		}
		if _, isNull := result.(*value.Null); !isNull && result != nil {
			fmt.Fprintln(out, result.String())
		}
	}
}
