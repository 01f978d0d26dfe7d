package filewatch

import (
	"context"
	"fmt"

	"github.com/fsnotify/fsnotify"
)

// Watch starts watching targets, and calls handle for each event on them
// until ctx is canceled.
//
// Targets can be files or directories. For directories, events on their entries are reported.
//
// # Args
//
// - ctx: context.Context. Canceling it stops watching.
//
// - handle: called for each event, in a goroutine for watching.
//
// - targets ...string: file or directory pathes to be watched.
//
// # Returns
//
// - <-chan struct{}: closed when watching is stopped.
//
// - error: error caused when it fails to start watching.
func Watch(ctx context.Context, handle func(fsnotify.Event), targets ...string) (<-chan struct{}, error) {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}

	for _, f := range targets {
		if err := w.Add(f); err != nil {
			w.Close()
			return nil, err
		}
	}

	done := make(chan struct{})
	go func() {
		defer close(done)
		defer w.Close()

		for {
			select {
			case <-ctx.Done():
				return
			case event, ok := <-w.Events:
				if !ok {
					return
				}
				handle(event)
			case _, ok := <-w.Errors:
				if !ok {
					return
				}
			}
		}
	}()

	return done, nil
}

// UntilModifyContext returns a context that is canceled
// when one of target files is modified (= written, created, removed, or renamed).
//
// # Args
//
// - ctx: context.Context
//
// - targetFilePath ...string: file pathes to be watched.
// When any of the files is modified, the context is canceled.
//
// # Returns
//
// - context.Context: context that is canceled when one of target files is modified.
// context.Cause tells which file is modified.
//
// - func(): cancel function.
//
// - error: error caused when it fails to start watching files.
//
// If error is not nil, both of the the context and the cancel function are nil.
func UntilModifyContext(ctx context.Context, targetFilePath ...string) (context.Context, func(), error) {
	cctx, cancel := context.WithCancelCause(ctx)

	_, err := Watch(cctx, func(event fsnotify.Event) {
		cancel(fmt.Errorf("%s is updated (%s)", event.Name, event.Op.String()))
	}, targetFilePath...)
	if err != nil {
		cancel(err)
		return nil, nil, err
	}

	return cctx, func() { cancel(nil) }, nil
}
