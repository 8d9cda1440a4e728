//go:build linux

package aio

import (
	"syscall"

	"github.com/brickingsoft/ringexec/pkg/liburing"
)

type scheduleSender struct {
	ctx *Context
}

func (s scheduleSender) Connect(receiver Receiver[struct{}]) OperationState {
	return &scheduleOperation{ctx: s.ctx, receiver: receiver}
}

type scheduleOperation struct {
	Task
	ctx      *Context
	receiver Receiver[struct{}]
}

func (op *scheduleOperation) Start() {
	op.Task.Init(op)
	if err := op.ctx.Submit(&op.Task); err != nil {
		op.receiver.SetError(err)
	}
}

func (op *scheduleOperation) Ready() bool {
	return true
}

func (op *scheduleOperation) Prepare(_ *liburing.SubmissionQueueEntry) {}

func (op *scheduleOperation) Complete(cqe *liburing.CompletionQueueEvent) {
	if cqe.Res == -int32(syscall.ECANCELED) || receiverStopToken(op.receiver).StopRequested() {
		op.receiver.SetStopped()
		return
	}
	op.receiver.SetValue(struct{}{})
}
