//go:build linux

package aio

import (
	"context"

	"github.com/brickingsoft/errors"
)

// Receiver
// the continuation of a Sender. Exactly one method is called, once.
type Receiver[T any] interface {
	SetValue(value T)
	SetError(err error)
	SetStopped()
}

// StopTokenProvider
// implemented by receivers whose operations may be stopped early.
type StopTokenProvider interface {
	StopToken() StopToken
}

type OperationState interface {
	Start()
}

// Sender
// a lazy description of work. Nothing happens until the OperationState
// returned by Connect is started.
type Sender[T any] interface {
	Connect(receiver Receiver[T]) OperationState
}

func receiverStopToken[T any](receiver Receiver[T]) StopToken {
	if provider, ok := receiver.(StopTokenProvider); ok {
		return provider.StopToken()
	}
	return StopToken{}
}

// Then
// maps the value of s through fn. fn runs inline wherever s completes,
// for the senders of this package that is the reactor goroutine.
func Then[T any, U any](s Sender[T], fn func(T) (U, error)) Sender[U] {
	return thenSender[T, U]{sender: s, fn: fn}
}

type thenSender[T any, U any] struct {
	sender Sender[T]
	fn     func(T) (U, error)
}

func (s thenSender[T, U]) Connect(receiver Receiver[U]) OperationState {
	return s.sender.Connect(&thenReceiver[T, U]{next: receiver, fn: s.fn})
}

type thenReceiver[T any, U any] struct {
	next Receiver[U]
	fn   func(T) (U, error)
}

func (r *thenReceiver[T, U]) SetValue(value T) {
	mapped, err := r.fn(value)
	if err != nil {
		r.next.SetError(err)
		return
	}
	r.next.SetValue(mapped)
}

func (r *thenReceiver[T, U]) SetError(err error) {
	r.next.SetError(err)
}

func (r *thenReceiver[T, U]) SetStopped() {
	r.next.SetStopped()
}

func (r *thenReceiver[T, U]) StopToken() StopToken {
	return receiverStopToken(r.next)
}

// SyncWait
// starts s and blocks until it completes. ctx being done stops the work.
// A stopped completion returns ErrStopped. Never call it from the reactor
// goroutine, the reactor would wait on itself.
func SyncWait[T any](ctx context.Context, s Sender[T]) (value T, err error) {
	receiver := &syncWaitReceiver[T]{
		done: make(chan struct{}),
	}
	stopWatch := context.AfterFunc(ctx, func() {
		receiver.stop.RequestStop()
	})
	defer stopWatch()

	s.Connect(receiver).Start()
	<-receiver.done

	if receiver.stopped {
		if ctxErr := ctx.Err(); ctxErr != nil {
			err = errors.From(ErrStopped, errors.WithWrap(ctxErr))
			return
		}
		err = ErrStopped
		return
	}
	value, err = receiver.value, receiver.err
	return
}

type syncWaitReceiver[T any] struct {
	stop    StopSource
	value   T
	err     error
	stopped bool
	done    chan struct{}
}

func (r *syncWaitReceiver[T]) SetValue(value T) {
	r.value = value
	close(r.done)
}

func (r *syncWaitReceiver[T]) SetError(err error) {
	r.err = err
	close(r.done)
}

func (r *syncWaitReceiver[T]) SetStopped() {
	r.stopped = true
	close(r.done)
}

func (r *syncWaitReceiver[T]) StopToken() StopToken {
	return r.stop.Token()
}
