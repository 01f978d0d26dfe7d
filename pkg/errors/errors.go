// Provide error wrapper with created locaion.
//
// Usage:
//
//	wrapped := xe.Wrap(err)
//
// `wrapped` knows filename, line, and the name of function where itself is created.
//
// When you read message of this, replace
//
//	s/<-/\n/
//
// and it gives you "stacks" of where you marks.
//
// For messages shown to users (HTTP responses, CLI output), use Describe.
// It drops locations and keeps notes and categories.
package errors

import (
	"errors"
	"fmt"
	"runtime"
)

type ErrWithCaller struct {
	file     string
	line     int
	funcname string
	note     string
	err      error
}

func (e *ErrWithCaller) File() string {
	return e.file
}

func (e *ErrWithCaller) Line() int {
	return e.line
}

func (e *ErrWithCaller) Func() string {
	return e.funcname
}

func (e *ErrWithCaller) Error() string {
	if e.note == "" {
		return fmt.Sprintf(`@ %s "%s" l%d <- %s`, e.funcname, e.file, e.line, e.err.Error())
	}
	return fmt.Sprintf(`@ %s "%s" l%d (%s) <- %s`, e.funcname, e.file, e.line, e.note, e.err.Error())
}

func (e *ErrWithCaller) Unwrap() error {
	return e.err
}

func New(text string) error {
	return wrap("", errors.New(text), 1)
}

func Wrap(err error) error {
	return wrap("", err, 1)
}

func WrapWithNote(note string, err error) error {
	return wrap(note, err, 1)
}

// Describe returns message of err without caller locations.
func Describe(err error) string {
	switch e := err.(type) {
	case nil:
		return ""
	case *ErrWithCaller:
		if e.note == "" {
			return Describe(e.err)
		}
		return e.note + ": " + Describe(e.err)
	case *categorized:
		return e.kind.Error() + ": " + Describe(e.cause)
	default:
		return err.Error()
	}
}

func wrap(note string, err error, depth int) error {
	pc, file, line, ok := runtime.Caller(depth + 1)
	funcname := "(unknown func)"
	if !ok {
		file = "?"
		line = -1
	}
	if fn := runtime.FuncForPC(pc); fn != nil {
		funcname = fn.Name()
	}

	return &ErrWithCaller{
		funcname: funcname,
		file:     file,
		line:     line,
		note:     note,
		err:      err,
	}
}
