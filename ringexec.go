//go:build linux

// Package ringexec runs senders on a process wide io_uring execution context.
package ringexec

import (
	"context"
	"sync"

	"github.com/brickingsoft/errors"
	"github.com/brickingsoft/ringexec/pkg/aio"
)

var (
	defaultOptions []aio.Option
	defaultContext *aio.Context
	defaultErr     error
	defaultDone    chan error
	defaultOnce    sync.Once
	shutdownOnce   sync.Once
	shutdownErr    error
)

// Presets
// preset aio options, must be called before Default.
func Presets(options ...aio.Option) {
	defaultOptions = append(defaultOptions, options...)
}

// Default
// the process wide context, created and started on first use.
func Default() (*aio.Context, error) {
	defaultOnce.Do(func() {
		c, err := aio.New(defaultOptions...)
		if err != nil {
			defaultErr = err
			return
		}
		defaultContext = c
		defaultDone = make(chan error, 1)
		go func() {
			defaultDone <- c.Run(context.Background())
		}()
	})
	return defaultContext, defaultErr
}

// Go
// runs fn on the producer executors with the default scheduler.
func Go(ctx context.Context, fn func(scheduler aio.Scheduler)) error {
	c, err := Default()
	if err != nil {
		return err
	}
	scheduler := c.Scheduler()
	return Executors().Execute(ctx, func() {
		fn(scheduler)
	})
}

// Shutdown
// waits for the producer executors, then stops and closes the default
// context.
func Shutdown() error {
	shutdownOnce.Do(func() {
		var errs []error
		if err := closeExecutors(); err != nil {
			errs = append(errs, err)
		}
		if defaultContext != nil {
			defaultContext.RequestStop()
			if err := <-defaultDone; err != nil {
				errs = append(errs, err)
			}
			if err := defaultContext.Close(); err != nil {
				errs = append(errs, err)
			}
		}
		if len(errs) > 0 {
			shutdownErr = errors.Join(errs...)
		}
	})
	return shutdownErr
}
