//go:build linux

package aio

import (
	"github.com/brickingsoft/errors"
)

var (
	ErrUnsupported       = errors.Define("io_uring is unsupported")
	ErrClosed            = errors.Define("context was closed")
	ErrRunning           = errors.Define("context is running")
	ErrStopped           = errors.Define("operation was stopped")
	ErrBusy              = errors.Define("submission queue is busy")
	ErrUnknownCompletion = errors.Define("completion for unknown task")
	ErrBroken            = errors.Define("context is broken")
)

func IsStopped(err error) bool {
	return errors.Is(err, ErrStopped)
}

func IsBusy(err error) bool {
	return errors.Is(err, ErrBusy)
}

func IsClosed(err error) bool {
	return errors.Is(err, ErrClosed)
}

func IsUnsupported(err error) bool {
	return errors.Is(err, ErrUnsupported)
}

const (
	errMetaPkgKey = "pkg"
	errMetaPkgVal = "aio"
)

const (
	errMetaOpKey      = "op"
	errMetaOpSetup    = "setup"
	errMetaOpEventfd  = "eventfd"
	errMetaOpEnter    = "enter"
	errMetaOpComplete = "complete"
	errMetaOpClose    = "close"
)

const errMetaTokenKey = "token"
