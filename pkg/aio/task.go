//go:build linux

package aio

import (
	"github.com/brickingsoft/ringexec/pkg/liburing"
)

// Operation
// the behaviour a Task dispatches to.
//
// All three methods run on the reactor goroutine. Ready must not block.
// Prepare fills exactly one entry; its user data is overwritten afterwards.
// Complete runs exactly once per submission of the task.
type Operation interface {
	Ready() bool
	Prepare(sqe *liburing.SubmissionQueueEntry)
	Complete(cqe *liburing.CompletionQueueEvent)
}

// Task
// one outstanding unit of work, embedded by the operation state that owns it.
type Task struct {
	op        Operation
	next      *Task
	token     uint64
	inflight  bool
	synthetic bool
	cancel    bool
	result    liburing.CompletionQueueEvent
}

// Init
// binds t to op. A completed task must be re-initialized before it is
// submitted again.
func (t *Task) Init(op Operation) {
	*t = Task{op: op}
}

func (t *Task) initCancel(op Operation) {
	t.Init(op)
	t.cancel = true
}

// Token
// the user data of the current submission, 0 before the first Prepare.
func (t *Task) Token() uint64 {
	return t.token
}

func (t *Task) setResult(res int32) {
	t.synthetic = true
	t.result = liburing.CompletionQueueEvent{UserData: t.token, Res: res}
}

func (t *Task) completeImmediately() {
	cqe := liburing.CompletionQueueEvent{UserData: t.token}
	if t.synthetic {
		cqe = t.result
		t.synthetic = false
	}
	t.op.Complete(&cqe)
}
