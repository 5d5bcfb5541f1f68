package builtin

import (
	"bufio"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/renameio/v2"

	"github.com/ckl-lang/ckl/rt"
	"github.com/ckl-lang/ckl/token"
	"github.com/ckl-lang/ckl/value"
)

// streamOutput adapts an io.Writer (a file, or the process's own
// stdout) to value.OutputWriter.
type streamOutput struct{ w io.Writer }

func (s *streamOutput) Write(str string) error {
	_, err := io.WriteString(s.w, str)
	return err
}

func (s *streamOutput) Close() error {
	if c, ok := s.w.(io.Closer); ok {
		return c.Close()
	}
	return nil
}

// stringOutput is the backing store for str_output()/get_output_string:
// an in-memory sink a script can print to and read back.
type stringOutput struct{ buf strings.Builder }

func (s *stringOutput) Write(str string) error { s.buf.WriteString(str); return nil }
func (s *stringOutput) Close() error            { return nil }

// streamInput adapts a buffered reader to value.InputReader, with an
// extra ReadRune for the single-character read() builtin.
type streamInput struct {
	r      *bufio.Reader
	closer io.Closer
}

func newStreamInput(r io.Reader) *streamInput {
	si := &streamInput{r: bufio.NewReader(r)}
	if c, ok := r.(io.Closer); ok {
		si.closer = c
	}
	return si
}

func (s *streamInput) ReadLine() (string, bool, error) {
	line, err := s.r.ReadString('\n')
	if err != nil && err != io.EOF {
		return "", false, err
	}
	if line == "" && err == io.EOF {
		return "", false, nil
	}
	return strings.TrimRight(line, "\r\n"), true, nil
}

func (s *streamInput) ReadAll() (string, error) {
	data, err := io.ReadAll(s.r)
	if err != nil && err != io.EOF {
		return "", err
	}
	return string(data), nil
}

func (s *streamInput) ReadRune() (string, bool, error) {
	r, _, err := s.r.ReadRune()
	if err == io.EOF {
		return "", false, nil
	}
	if err != nil {
		return "", false, err
	}
	return string(r), true, nil
}

func (s *streamInput) Close() error {
	if s.closer != nil {
		return s.closer.Close()
	}
	return nil
}

// renameioOutput backs file_output: writes accumulate into a pending
// temp file and only land at the real path on Close, via
// google/renameio/v2's atomic rename-into-place, so a script that dies
// mid-write (or is killed) never leaves a half-written file at the
// requested name.
type renameioOutput struct {
	pf *renameio.PendingFile
}

func newRenameioOutput(name string, appendTo bool) (*renameioOutput, error) {
	pf, err := renameio.NewPendingFile(name)
	if err != nil {
		return nil, err
	}
	if appendTo {
		if existing, readErr := os.ReadFile(name); readErr == nil {
			if _, err := pf.Write(existing); err != nil {
				pf.Cleanup()
				return nil, err
			}
		}
	}
	return &renameioOutput{pf: pf}, nil
}

func (r *renameioOutput) Write(s string) error {
	_, err := r.pf.Write([]byte(s))
	return err
}

func (r *renameioOutput) Close() error { return r.pf.CloseAtomicallyReplace() }

// stdoutOutput/stdinInput are the process's default I/O handles.
// The built-in signature has no environment handle to look up a
// rebindable `stdout`/`stdin` name, so `print`/`read`/... default to
// these directly when no `out`/`input` argument is given.
var (
	stdoutOutput = value.NewOutput(&streamOutput{w: os.Stdout})
	stdinInput   = value.NewInput(newStreamInput(os.Stdin))
)

// StdoutHandle and StdinHandle expose the process's default I/O handles
// so the runner/REPL entry points can bind `stdout`/`stdin`/`console`
// to the exact same handles the built-ins default to.
func StdoutHandle() *value.Output { return stdoutOutput }
func StdinHandle() *value.Input   { return stdinInput }

func ioBuiltins() []entry {
	return []entry{
		{Name: "str_input", Fn: func(args []value.Value, pos token.Pos) (value.Value, *value.RuntimeError) {
			s := value.AsString(arg(args, 0))
			return value.NewInput(newStreamInput(strings.NewReader(s))), nil
		}},
		{Name: "str_output", Fn: func(args []value.Value, pos token.Pos) (value.Value, *value.RuntimeError) {
			return value.NewOutput(&stringOutput{}), nil
		}},
		{Name: "get_output_string", Fn: func(args []value.Value, pos token.Pos) (value.Value, *value.RuntimeError) {
			out, ok := arg(args, 0).(*value.Output)
			if !ok {
				return nil, value.NewError(pos, "ERROR", "expected output, got %s", arg(args, 0).Kind())
			}
			so, ok := out.Writer.(*stringOutput)
			if !ok {
				return nil, value.NewError(pos, "ERROR", "output was not created by str_output")
			}
			return value.NewString(so.buf.String()), nil
		}},
		{Name: "file_input", Secure: true, Fn: func(args []value.Value, pos token.Pos) (value.Value, *value.RuntimeError) {
			name := value.AsString(arg(args, 0))
			f, err := os.Open(name)
			if err != nil {
				return nil, value.NewError(pos, "ERROR", "cannot open file %s", name)
			}
			return value.NewInput(newStreamInput(f)), nil
		}},
		{Name: "file_output", Secure: true, Fn: func(args []value.Value, pos token.Pos) (value.Value, *value.RuntimeError) {
			name := value.AsString(arg(args, 0))
			appendTo := len(args) > 2 && value.Truthy(args[2])
			ro, err := newRenameioOutput(name, appendTo)
			if err != nil {
				return nil, value.NewError(pos, "ERROR", "cannot open file %s", name)
			}
			return value.NewOutput(ro), nil
		}},
		{Name: "file_copy", Secure: true, Fn: func(args []value.Value, pos token.Pos) (value.Value, *value.RuntimeError) {
			src, dest := value.AsString(arg(args, 0)), value.AsString(arg(args, 1))
			data, err := os.ReadFile(src)
			if err != nil {
				return nil, value.NewError(pos, "ERROR", "cannot copy file %s", src)
			}
			if err := renameio.WriteFile(dest, data, 0644); err != nil {
				return nil, value.NewError(pos, "ERROR", "cannot copy file %s", src)
			}
			return value.TheNull, nil
		}},
		{Name: "file_move", Secure: true, Fn: func(args []value.Value, pos token.Pos) (value.Value, *value.RuntimeError) {
			src, dest := value.AsString(arg(args, 0)), value.AsString(arg(args, 1))
			if err := os.Rename(src, dest); err != nil {
				return nil, value.NewError(pos, "ERROR", "cannot move file %s", src)
			}
			return value.TheNull, nil
		}},
		{Name: "file_delete", Secure: true, Fn: func(args []value.Value, pos token.Pos) (value.Value, *value.RuntimeError) {
			name := value.AsString(arg(args, 0))
			if err := os.Remove(name); err != nil {
				return nil, value.NewError(pos, "ERROR", "cannot delete file %s", name)
			}
			return value.TheNull, nil
		}},
		{Name: "file_exists", Secure: true, Fn: func(args []value.Value, pos token.Pos) (value.Value, *value.RuntimeError) {
			_, err := os.Stat(value.AsString(arg(args, 0)))
			return value.NewBoolean(err == nil), nil
		}},
		{Name: "file_info", Secure: true, Fn: func(args []value.Value, pos token.Pos) (value.Value, *value.RuntimeError) {
			name := value.AsString(arg(args, 0))
			info, err := os.Stat(name)
			if err != nil {
				return value.TheNull, nil
			}
			out := value.NewObject()
			out.Set("size", value.NewInt(info.Size()))
			out.Set("is_dir", value.NewBoolean(info.IsDir()))
			out.Set("modified", value.NewDate(info.ModTime().UTC()))
			return out, nil
		}},
		{Name: "list_dir", Secure: true, Fn: func(args []value.Value, pos token.Pos) (value.Value, *value.RuntimeError) {
			dir := value.AsString(arg(args, 0))
			recursive := len(args) > 1 && value.Truthy(args[1])
			includePath := recursive
			if len(args) > 2 {
				includePath = value.Truthy(args[2])
			}
			includeDirs := len(args) > 3 && value.Truthy(args[3])
			var out []value.Value
			var walk func(string, string) error
			walk = func(base, rel string) error {
				entries, err := os.ReadDir(filepath.Join(base, rel))
				if err != nil {
					return err
				}
				for _, e := range entries {
					name := filepath.Join(rel, e.Name())
					if includeDirs || !e.IsDir() {
						if includePath {
							out = append(out, value.NewString(name))
						} else {
							out = append(out, value.NewString(e.Name()))
						}
					}
					if recursive && e.IsDir() {
						if err := walk(base, name); err != nil {
							return err
						}
					}
				}
				return nil
			}
			if err := walk(dir, ""); err != nil {
				return nil, value.NewError(pos, "ERROR", "cannot list directory %s", dir)
			}
			return value.NewList(out...), nil
		}},
		{Name: "make_dir", Secure: true, Fn: func(args []value.Value, pos token.Pos) (value.Value, *value.RuntimeError) {
			dir := value.AsString(arg(args, 0))
			withParents := len(args) > 1 && value.Truthy(args[1])
			var err error
			if withParents {
				err = os.MkdirAll(dir, 0755)
			} else {
				err = os.Mkdir(dir, 0755)
			}
			if err != nil {
				return nil, value.NewError(pos, "ERROR", "cannot create directory %s", dir)
			}
			return value.TheNull, nil
		}},
		{Name: "close", Fn: func(args []value.Value, pos token.Pos) (value.Value, *value.RuntimeError) {
			switch t := arg(args, 0).(type) {
			case *value.Input:
				if err := t.Close(); err != nil {
					return nil, value.NewError(pos, "ERROR", "could not close connection")
				}
			case *value.Output:
				if err := t.Close(); err != nil {
					return nil, value.NewError(pos, "ERROR", "could not close connection")
				}
			default:
				return nil, value.NewError(pos, "ERROR", "cannot close %s", t.Kind())
			}
			return value.TheNull, nil
		}},
		{Name: "read", Fn: func(args []value.Value, pos token.Pos) (value.Value, *value.RuntimeError) {
			in := stdinInput
			if len(args) > 0 {
				if v, ok := args[0].(*value.Input); ok {
					in = v
				}
			}
			rr, ok := in.Reader.(interface {
				ReadRune() (string, bool, error)
			})
			if !ok {
				return value.TheNull, nil
			}
			s, more, err := rr.ReadRune()
			if err != nil {
				return nil, value.NewError(pos, "ERROR", "cannot read from input")
			}
			if !more {
				return value.NewString(""), nil
			}
			return value.NewString(s), nil
		}},
		{Name: "read_all", Fn: func(args []value.Value, pos token.Pos) (value.Value, *value.RuntimeError) {
			in := stdinInput
			if len(args) > 0 {
				if v, ok := args[0].(*value.Input); ok {
					in = v
				}
			}
			s, err := in.Reader.ReadAll()
			if err != nil {
				return nil, value.NewError(pos, "ERROR", "cannot read from input")
			}
			return value.NewString(s), nil
		}},
		{Name: "readln", Fn: func(args []value.Value, pos token.Pos) (value.Value, *value.RuntimeError) {
			in := stdinInput
			if len(args) > 0 {
				if v, ok := args[0].(*value.Input); ok {
					in = v
				}
			}
			line, more, err := in.Reader.ReadLine()
			if err != nil {
				return nil, value.NewError(pos, "ERROR", "cannot read from input")
			}
			if !more {
				return value.TheNull, nil
			}
			return value.NewString(line), nil
		}},
		{Name: "print", Fn: func(args []value.Value, pos token.Pos) (value.Value, *value.RuntimeError) {
			out := stdoutOutput
			if len(args) > 1 {
				if v, ok := args[1].(*value.Output); ok {
					out = v
				}
			}
			if err := out.Writer.Write(value.AsString(arg(args, 0))); err != nil {
				return nil, value.NewError(pos, "ERROR", "cannot write to output")
			}
			return value.TheNull, nil
		}},
		{Name: "println", Fn: func(args []value.Value, pos token.Pos) (value.Value, *value.RuntimeError) {
			out := stdoutOutput
			if len(args) > 1 {
				if v, ok := args[1].(*value.Output); ok {
					out = v
				}
			}
			s := ""
			if len(args) > 0 {
				s = value.AsString(args[0])
			}
			if err := out.Writer.Write(s + "\n"); err != nil {
				return nil, value.NewError(pos, "ERROR", "cannot write to output")
			}
			return value.TheNull, nil
		}},
		{Name: "process_lines", Fn: func(args []value.Value, pos token.Pos) (value.Value, *value.RuntimeError) {
			callback, rerr := value.AsFunc(arg(args, 1), pos)
			if rerr != nil {
				return nil, rerr
			}
			switch in := arg(args, 0).(type) {
			case *value.Input:
				n := 0
				for {
					line, more, err := in.Reader.ReadLine()
					if err != nil {
						return nil, value.NewError(pos, "ERROR", "cannot read from input")
					}
					if !more {
						break
					}
					if _, err := rt.Apply(callback, []value.Value{value.NewString(line)}, pos, nil); err != nil {
						return nil, err
					}
					n++
				}
				return value.NewInt(int64(n)), nil
			case *value.List:
				for _, e := range in.Elements {
					if _, err := rt.Apply(callback, []value.Value{value.NewString(value.AsString(e))}, pos, nil); err != nil {
						return nil, err
					}
				}
				return value.NewInt(int64(len(in.Elements))), nil
			}
			return nil, value.NewError(pos, "ERROR", "cannot process lines from %s", arg(args, 0).Kind())
		}},
	}
}
