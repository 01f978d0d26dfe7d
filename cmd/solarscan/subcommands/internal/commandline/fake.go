package commandline

import (
	"io"

	"github.com/youta-t/flarc"
)

// Fake is a flarc.Commandline for testing tasks without parsing os.Args.
type Fake[T any] struct {
	Name   string
	Values T
	Params map[string][]string

	In  io.Reader
	Out io.Writer
	Err io.Writer
}

var _ flarc.Commandline[struct{}] = Fake[struct{}]{}

func (f Fake[T]) Fullname() string { return f.Name }
func (f Fake[T]) Stdin() io.Reader { return f.In }
func (f Fake[T]) Stdout() io.Writer { return f.Out }
func (f Fake[T]) Stderr() io.Writer { return f.Err }
func (f Fake[T]) Flags() T { return f.Values }
func (f Fake[T]) Args() map[string][]string { return f.Params }
