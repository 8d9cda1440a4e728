//go:build linux

package aio

import (
	"sync/atomic"
)

// TaskQueue
// an intrusive FIFO of tasks linked through Task.next. Not safe for
// concurrent use.
type TaskQueue struct {
	head *Task
	tail *Task
	n    int
}

func (q *TaskQueue) Empty() bool {
	return q.head == nil
}

func (q *TaskQueue) Len() int {
	return q.n
}

func (q *TaskQueue) PushBack(t *Task) {
	t.next = nil
	if q.tail == nil {
		q.head = t
	} else {
		q.tail.next = t
	}
	q.tail = t
	q.n++
}

func (q *TaskQueue) PushFront(t *Task) {
	t.next = q.head
	q.head = t
	if q.tail == nil {
		q.tail = t
	}
	q.n++
}

func (q *TaskQueue) PopFront() *Task {
	t := q.head
	if t == nil {
		return nil
	}
	q.head = t.next
	if q.head == nil {
		q.tail = nil
	}
	t.next = nil
	q.n--
	return t
}

// Append
// moves every task of other to the back of q.
func (q *TaskQueue) Append(other TaskQueue) {
	if other.head == nil {
		return
	}
	if q.tail == nil {
		q.head = other.head
	} else {
		q.tail.next = other.head
	}
	q.tail = other.tail
	q.n += other.n
}

// AtomicTaskQueue
// a lock-free multi producer, single consumer intrusive stack.
//
// Push publishes a task with a compare-and-swap on head, PopAll claims the
// whole chain with one swap. Go atomics are sequentially consistent, which
// covers the release on push and the acquire on drain.
type AtomicTaskQueue struct {
	head atomic.Pointer[Task]
}

// Push
// reports whether the queue was empty before t was added.
func (q *AtomicTaskQueue) Push(t *Task) bool {
	for {
		old := q.head.Load()
		t.next = old
		if q.head.CompareAndSwap(old, t) {
			return old == nil
		}
	}
}

func (q *AtomicTaskQueue) Empty() bool {
	return q.head.Load() == nil
}

// PopAll
// takes every queued task, oldest first.
func (q *AtomicTaskQueue) PopAll() (queue TaskQueue) {
	t := q.head.Swap(nil)
	if t == nil {
		return
	}
	queue.tail = t
	var prev *Task
	for t != nil {
		next := t.next
		t.next = prev
		prev = t
		t = next
		queue.n++
	}
	queue.head = prev
	return
}
