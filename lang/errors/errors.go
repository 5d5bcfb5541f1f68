// Package errors holds the parser's SyntaxError and wraps host failures
// (such as a module file that cannot be read) with github.com/pkg/errors.
// When such a failure becomes a runtime catchable error, only its message
// text is kept.
//
// value.RuntimeError (in package value) is the catchable-by-user-code
// error channel; SyntaxError here never reaches user code; it's fatal at
// parse time and printed directly by cmd/ckl and cmd/ckl-repl.
package errors

import (
	"fmt"

	"github.com/pkg/errors"

	"github.com/ckl-lang/ckl/token"
)

// SyntaxError is raised by the lexer or parser for malformed source.
type SyntaxError struct {
	Msg string
	Pos token.Pos
}

func (e *SyntaxError) Error() string { return fmt.Sprintf("%s (Line %s)", e.Msg, e.Pos) }

func NewSyntaxError(pos token.Pos, format string, args ...interface{}) *SyntaxError {
	return &SyntaxError{Msg: fmt.Sprintf(format, args...), Pos: pos}
}

// WrapHost annotates a host-interaction failure (file I/O, module lookup)
// with the operation that failed, preserving the original error as the
// cause so %+v on it prints a full trace during development.
func WrapHost(err error, op string) error {
	if err == nil {
		return nil
	}
	return errors.Wrap(err, op)
}

// Wrapf is the formatted counterpart of WrapHost.
func Wrapf(err error, format string, args ...interface{}) error {
	if err == nil {
		return nil
	}
	return errors.Wrapf(err, format, args...)
}
