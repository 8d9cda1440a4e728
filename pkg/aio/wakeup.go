//go:build linux

package aio

import (
	"syscall"
	"unsafe"

	"github.com/brickingsoft/ringexec/pkg/liburing"
	"golang.org/x/sys/unix"
)

// wakeupOperation
// keeps a read on the context's eventfd in flight so a write from any
// goroutine completes it and returns the reactor from enter.
type wakeupOperation struct {
	Task
	ctx *Context
	buf [8]byte
	iov [1]unix.Iovec
}

func (w *wakeupOperation) init(ctx *Context) {
	w.ctx = ctx
	w.iov[0].Base = &w.buf[0]
	w.iov[0].SetLen(len(w.buf))
}

// start queues the read on the local pending queue.
func (w *wakeupOperation) start() {
	w.Task.Init(w)
	w.ctx.pending.PushFront(&w.Task)
}

func (w *wakeupOperation) Ready() bool {
	return false
}

func (w *wakeupOperation) Prepare(sqe *liburing.SubmissionQueueEntry) {
	if w.ctx.caps.OpRead {
		sqe.PrepareRead(w.ctx.eventfd, w.buf[:], 0)
		return
	}
	sqe.PrepareReadv(w.ctx.eventfd, w.iov[:], 0)
}

func (w *wakeupOperation) Complete(cqe *liburing.CompletionQueueEvent) {
	if cqe.Res >= 0 {
		w.ctx.metrics.incWakeups()
	} else if errno := cqe.Errno(); errno != syscall.ECANCELED {
		w.ctx.logger.Warning().Int("res", int(cqe.Res)).Err(errno).Log("wakeup read failed")
	}
	if w.ctx.stop.StopRequested() {
		return
	}
	w.start()
}

var wakeupValue = uint64(1)

func writeEventfd(fd int) error {
	b := unsafe.Slice((*byte)(unsafe.Pointer(&wakeupValue)), 8)
	_, err := unix.Write(fd, b)
	return err
}
