//go:build linux

package aio

import (
	"sync/atomic"
	"syscall"

	"github.com/brickingsoft/ringexec/pkg/liburing"
)

// cancelOperation
// aborts target while it is in flight. Timeouts fall back to
// IORING_OP_TIMEOUT_REMOVE on kernels without IORING_OP_ASYNC_CANCEL,
// other targets cannot be aborted there and run to completion.
type cancelOperation struct {
	Task
	ctx     *Context
	target  *Task
	timeout bool
}

func (op *cancelOperation) init(ctx *Context, target *Task, timeout bool) {
	op.ctx = ctx
	op.target = target
	op.timeout = timeout
	op.Task.initCancel(op)
}

func (op *cancelOperation) Ready() bool {
	if !op.target.inflight {
		return true
	}
	return !op.ctx.caps.AsyncCancel && !op.timeout
}

func (op *cancelOperation) Prepare(sqe *liburing.SubmissionQueueEntry) {
	if op.ctx.caps.AsyncCancel {
		sqe.PrepareAsyncCancel(op.target.token, 0)
		return
	}
	sqe.PrepareTimeoutRemove(op.target.token, 0)
}

func (op *cancelOperation) Complete(cqe *liburing.CompletionQueueEvent) {
	switch errno := cqe.Errno(); errno {
	case 0, syscall.ENOENT, syscall.EALREADY, syscall.ECANCELED:
		op.ctx.logger.Debug().Int("res", int(cqe.Res)).Uint64("token", op.target.token).Log("cancel done")
	default:
		op.ctx.logger.Warning().Err(errno).Uint64("token", op.target.token).Log("cancel failed")
	}
}

// stopLink
// submits a cancellation of target the first time the receiver's or the
// context's stop token fires.
type stopLink struct {
	stopped            atomic.Bool
	cancel             cancelOperation
	unregisterReceiver func() bool
	unregisterContext  func() bool
}

func (l *stopLink) link(ctx *Context, target *Task, timeout bool, token StopToken) {
	l.stopped.Store(false)
	l.cancel.init(ctx, target, timeout)
	onStop := func() {
		if l.stopped.CompareAndSwap(false, true) {
			_ = ctx.Submit(&l.cancel.Task)
		}
	}
	l.unregisterReceiver = token.OnStop(onStop)
	l.unregisterContext = ctx.StopToken().OnStop(onStop)
}

func (l *stopLink) unlink() {
	if l.unregisterReceiver != nil {
		l.unregisterReceiver()
		l.unregisterReceiver = nil
	}
	if l.unregisterContext != nil {
		l.unregisterContext()
		l.unregisterContext = nil
	}
}
