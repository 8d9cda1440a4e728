//go:build linux

package aio

import (
	"os"
	"syscall"

	"github.com/brickingsoft/ringexec/pkg/liburing"
	"golang.org/x/sys/unix"
)

type readSender struct {
	ctx    *Context
	fd     int
	buf    []byte
	offset int64
}

func (s readSender) Connect(receiver Receiver[int]) OperationState {
	return &readOperation{ctx: s.ctx, receiver: receiver, fd: s.fd, buf: s.buf, offset: s.offset}
}

type readOperation struct {
	Task
	ctx      *Context
	receiver Receiver[int]
	fd       int
	buf      []byte
	offset   int64
	iov      [1]unix.Iovec
	stop     stopLink
}

func (op *readOperation) Start() {
	op.Task.Init(op)
	op.stop.link(op.ctx, &op.Task, false, receiverStopToken(op.receiver))
	if err := op.ctx.Submit(&op.Task); err != nil {
		op.stop.unlink()
		op.receiver.SetError(err)
	}
}

func (op *readOperation) Ready() bool {
	return len(op.buf) == 0 || op.stop.stopped.Load()
}

func (op *readOperation) Prepare(sqe *liburing.SubmissionQueueEntry) {
	if op.ctx.caps.OpRead {
		sqe.PrepareRead(op.fd, op.buf, uint64(op.offset))
		return
	}
	op.iov[0].Base = &op.buf[0]
	op.iov[0].SetLen(len(op.buf))
	sqe.PrepareReadv(op.fd, op.iov[:], uint64(op.offset))
}

func (op *readOperation) Complete(cqe *liburing.CompletionQueueEvent) {
	op.stop.unlink()
	errno := cqe.Errno()
	switch {
	case cqe.Res > 0:
		op.receiver.SetValue(int(cqe.Res))
	case errno == syscall.ECANCELED || op.stop.stopped.Load():
		op.receiver.SetStopped()
	case cqe.Res == 0:
		op.receiver.SetValue(0)
	case errno == syscall.EBUSY:
		op.receiver.SetError(ErrBusy)
	default:
		op.receiver.SetError(os.NewSyscallError("read", errno))
	}
}
