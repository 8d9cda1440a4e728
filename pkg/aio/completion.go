//go:build linux

package aio

import (
	"strconv"

	"github.com/brickingsoft/errors"
	"github.com/brickingsoft/ringexec/pkg/liburing"
)

type completionQueue struct {
	queue    *liburing.CompletionQueue
	registry *registry
}

// Complete
// completes every ready task, then every kernel completion between head
// and tail, and hands the consumed slots back with a single head store.
// A completion whose token is unknown stops the drain.
func (cq *completionQueue) Complete(ready TaskQueue) (kernel int, immediate int, err error) {
	for task := ready.PopFront(); task != nil; task = ready.PopFront() {
		task.completeImmediately()
		immediate++
	}

	head := cq.queue.Head()
	tail := cq.queue.Tail()
	for ; head != tail; head++ {
		cqe := *cq.queue.Peek(head)
		task, ok := cq.registry.resolve(cqe.UserData)
		if !ok {
			head++
			err = errors.From(
				ErrUnknownCompletion,
				errors.WithMeta(errMetaPkgKey, errMetaPkgVal),
				errors.WithMeta(errMetaOpKey, errMetaOpComplete),
				errors.WithMeta(errMetaTokenKey, strconv.FormatUint(cqe.UserData, 10)),
			)
			break
		}
		task.op.Complete(&cqe)
		kernel++
	}
	cq.queue.Advance(head)
	return
}
