package ringexec

import (
	"sync"

	"github.com/brickingsoft/errors"
	"github.com/brickingsoft/rxp"
)

// ErrStarted
// the producer executors exist already.
var ErrStarted = errors.Define("producer executors already started")

var (
	producers     rxp.Executors
	producersOnce sync.Once
)

// Startup
// creates the producer executors with options. Go creates them with
// defaults on first use, so Startup must come first.
func Startup(options ...rxp.Option) error {
	created := false
	producersOnce.Do(func() {
		producers = rxp.New(options...)
		created = true
	})
	if !created {
		return ErrStarted
	}
	return nil
}

// Executors
// the goroutine pool Go runs producers on.
func Executors() rxp.Executors {
	producersOnce.Do(func() {
		producers = rxp.New()
	})
	return producers
}

func closeExecutors() error {
	return Executors().CloseGracefully()
}
