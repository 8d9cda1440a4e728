//go:build linux

package aio

import (
	"syscall"

	"github.com/brickingsoft/ringexec/pkg/liburing"
)

type SubmissionResult struct {
	// Submitted is the number of entries placed on the ring.
	Submitted uint32
	// Pending holds tasks that found no free slot, in drain order.
	Pending TaskQueue
	// Ready holds tasks to complete this cycle without the kernel.
	Ready TaskQueue
	// Rejected counts tasks completed with -EBUSY by BackpressureReject.
	Rejected int
}

type submissionQueue struct {
	queue    *liburing.SubmissionQueue
	registry *registry
	policy   Backpressure
	// room reports how many more completions the CQ can take, nil is unbounded.
	room func() uint32
}

// Submit
// drains tasks in order. Ready tasks move to Ready. While stopped, other
// tasks except cancellations complete with -ECANCELED and are never
// prepared. The rest fill free slots; the new tail is published once.
func (sq *submissionQueue) Submit(tasks TaskQueue, stopped bool) (result SubmissionResult) {
	room := ^uint32(0)
	if sq.room != nil {
		room = sq.room()
	}
	for task := tasks.PopFront(); task != nil; task = tasks.PopFront() {
		if task.op.Ready() {
			result.Ready.PushBack(task)
			continue
		}
		if stopped && !task.cancel {
			task.setResult(-int32(syscall.ECANCELED))
			result.Ready.PushBack(task)
			continue
		}
		var sqe *liburing.SubmissionQueueEntry
		if result.Submitted < room {
			sqe = sq.queue.Reserve()
		}
		if sqe == nil {
			if sq.policy == BackpressureReject {
				task.setResult(-int32(syscall.EBUSY))
				result.Ready.PushBack(task)
				result.Rejected++
				continue
			}
			result.Pending.PushBack(task)
			continue
		}
		task.op.Prepare(sqe)
		sqe.SetData64(sq.registry.register(task))
		result.Submitted++
	}
	if result.Submitted > 0 {
		sq.queue.Flush()
	}
	return
}
