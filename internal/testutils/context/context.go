package context

import (
	"context"
	"testing"
	"time"
)

// margin left before the test deadline, to clean up child processes and watchers.
const margin = time.Second

// ForTest returns a context canceled when t finishes.
//
// When the test binary has a deadline (go test -timeout), the context is
// done a little before it.
func ForTest(t *testing.T) context.Context {
	t.Helper()
	ctx, cancel := context.WithCancel(context.Background())
	if deadline, ok := t.Deadline(); ok {
		ctx, cancel = context.WithDeadline(ctx, deadline.Add(-margin))
	}
	t.Cleanup(cancel)
	return ctx
}
