//go:build linux

package aio

import (
	"time"
)

// ForwardProgressGuarantee
// how far work started on a scheduler is guaranteed to advance.
type ForwardProgressGuarantee int

const (
	Concurrent ForwardProgressGuarantee = iota
	Parallel
	WeaklyParallel
)

func (g ForwardProgressGuarantee) String() string {
	switch g {
	case Concurrent:
		return "concurrent"
	case Parallel:
		return "parallel"
	case WeaklyParallel:
		return "weakly_parallel"
	default:
		return "unknown"
	}
}

// Scheduler
// a copyable handle to a Context. Two schedulers are equal when they refer
// to the same context.
type Scheduler struct {
	ctx *Context
}

func (s Scheduler) Context() *Context {
	return s.ctx
}

func (s Scheduler) Equal(other Scheduler) bool {
	return s.ctx == other.ctx
}

// ForwardProgressGuarantee
// the reactor runs on a dedicated OS thread, so started work keeps
// advancing regardless of what other goroutines do.
func (s Scheduler) ForwardProgressGuarantee() ForwardProgressGuarantee {
	return Parallel
}

// Schedule
// completes on the reactor goroutine.
func (s Scheduler) Schedule() Sender[struct{}] {
	return scheduleSender{ctx: s.ctx}
}

// ScheduleAfter
// completes on the reactor goroutine once d has elapsed.
func (s Scheduler) ScheduleAfter(d time.Duration) Sender[struct{}] {
	return timerSender{ctx: s.ctx, d: d}
}

func (s Scheduler) ScheduleAt(deadline time.Time) Sender[struct{}] {
	return s.ScheduleAfter(time.Until(deadline))
}

// Read
// reads into buf from fd at offset and completes with the byte count.
// An offset of -1 reads from the current file position.
func (s Scheduler) Read(fd int, buf []byte, offset int64) Sender[int] {
	return readSender{ctx: s.ctx, fd: fd, buf: buf, offset: offset}
}
