// Package value implements the runtime value model: a tagged sum type of
// Values plus the coercions, equality/ordering, container semantics and
// lexical Environment the evaluator runs against.
//
// The Environment lives in this same package because Func closures need
// *Environment and Environment needs to store Value; splitting them into
// two packages would be a cycle.
package value

import (
	"fmt"

	"github.com/ckl-lang/ckl/token"
)

// Kind tags a Value's runtime type.
type Kind string

const (
	KindNull    Kind = "null"
	KindBoolean Kind = "boolean"
	KindInt     Kind = "int"
	KindDecimal Kind = "decimal"
	KindString  Kind = "string"
	KindPattern Kind = "pattern"
	KindDate    Kind = "date"
	KindList    Kind = "list"
	KindSet     Kind = "set"
	KindMap     Kind = "map"
	KindObject  Kind = "object"
	KindFunc    Kind = "func"
	KindNode    Kind = "node"
	KindInput   Kind = "input"
	KindOutput  Kind = "output"

	// Internal control-flow sentinels. Never observable as an ordinary
	// value; the evaluator unwinds on them instead of returning them to
	// user code. Deliberately not carried on the error channel.
	KindBreak    Kind = "break"
	KindContinue Kind = "continue"
	KindReturn   Kind = "return"
)

// Value is the interface every runtime value implements.
type Value interface {
	Kind() Kind
	// String is the canonical string representation used for printing and
	// for cross-type ordering.
	String() string
	// Info returns the free-text help string attached to this value, if
	// any (the `info` built-in).
	Info() string
	SetInfo(string)
}

// infoHolder is embedded by every variant to give it an `info` field
// without repeating the Info/SetInfo boilerplate on each type.
type infoHolder struct{ info string }

func (h *infoHolder) Info() string     { return h.info }
func (h *infoHolder) SetInfo(s string) { h.info = s }

// RuntimeError is raised by any illegal operation on a Value (a bad
// coercion, an arithmetic type mismatch, an out-of-bounds index, ...). It
// carries the raised Value (by default a String tag such as "ERROR") so
// `catch` can match against it, a human message, and a position plus a
// stack trace accumulated as it propagates.
type RuntimeError struct {
	Raised  Value
	Message string
	Pos     token.Pos
	Frames  []string
}

func (e *RuntimeError) Error() string { return e.Message }

// NewError builds a RuntimeError whose raised value is a String tag, the
// same shape `error expr` raises so `catch` can match both uniformly.
func NewError(pos token.Pos, tag, format string, args ...interface{}) *RuntimeError {
	msg := fmt.Sprintf(format, args...)
	return &RuntimeError{Raised: NewString(tag), Message: msg, Pos: pos}
}

// PushFrame appends a stack-trace frame, abbreviating any argument value
// string longer than 50 characters to its first 50 chars + ellipsis + last
// 5 chars.
func (e *RuntimeError) PushFrame(name string, args []Value, pos token.Pos) {
	e.Frames = append(e.Frames, FormatFrame(name, args, pos))
}

func FormatFrame(name string, args []Value, pos token.Pos) string {
	s := name + "("
	for i, a := range args {
		if i > 0 {
			s += ", "
		}
		v := a.String()
		if len(v) > 50 {
			v = v[:50] + "..." + v[len(v)-5:]
		}
		s += v
	}
	s += ") " + pos.String()
	return s
}
