//go:build linux

package aio

import (
	"os"
	"syscall"
	"time"

	"github.com/brickingsoft/ringexec/pkg/liburing"
)

type timerSender struct {
	ctx *Context
	d   time.Duration
}

func (s timerSender) Connect(receiver Receiver[struct{}]) OperationState {
	return &timerOperation{ctx: s.ctx, receiver: receiver, d: s.d}
}

type timerOperation struct {
	Task
	ctx      *Context
	receiver Receiver[struct{}]
	d        time.Duration
	ts       liburing.Timespec
	stop     stopLink
}

func (op *timerOperation) Start() {
	op.Task.Init(op)
	op.ts = liburing.NsecToTimespec(op.d)
	op.stop.link(op.ctx, &op.Task, true, receiverStopToken(op.receiver))
	if err := op.ctx.Submit(&op.Task); err != nil {
		op.stop.unlink()
		op.receiver.SetError(err)
	}
}

func (op *timerOperation) Ready() bool {
	return op.d <= 0 || op.stop.stopped.Load()
}

func (op *timerOperation) Prepare(sqe *liburing.SubmissionQueueEntry) {
	sqe.PrepareTimeout(&op.ts, 0, 0)
}

func (op *timerOperation) Complete(cqe *liburing.CompletionQueueEvent) {
	op.stop.unlink()
	errno := cqe.Errno()
	switch {
	case errno == syscall.ECANCELED || op.stop.stopped.Load():
		op.receiver.SetStopped()
	case errno == 0 || errno == syscall.ETIME:
		op.receiver.SetValue(struct{}{})
	case errno == syscall.EBUSY:
		op.receiver.SetError(ErrBusy)
	default:
		op.receiver.SetError(os.NewSyscallError("timeout", errno))
	}
}
