//go:build linux

// Package liburingtest drives liburing queues from Go memory, playing the
// kernel side by hand.
package liburingtest

import (
	"sync/atomic"
	"unsafe"

	"github.com/brickingsoft/ringexec/pkg/liburing"
)

const (
	headOff    = 0
	tailOff    = 4
	maskOff    = 8
	entriesOff = 12
)

// MemoryRing
// a submission and completion ring pair laid out the way the kernel lays
// them out. It lets the queue protocol run without io_uring.
type MemoryRing struct {
	sq     *liburing.SubmissionQueue
	cq     *liburing.CompletionQueue
	sqRing *liburing.Region
	cqRing *liburing.Region
	sqes   *liburing.Region
}

func NewMemoryRing(entries uint32, cqEntries uint32) *MemoryRing {
	entries = liburing.RoundupPow2(entries)
	if cqEntries == 0 {
		cqEntries = 2 * entries
	}
	cqEntries = liburing.RoundupPow2(cqEntries)

	m := &MemoryRing{
		sqRing: liburing.Wrap(alignedBytes(liburing.MemoryRingHeader + int(entries)*4)),
		cqRing: liburing.Wrap(alignedBytes(liburing.MemoryRingHeader + int(cqEntries)*int(liburing.CompletionQueueEventSize))),
		sqes:   liburing.Wrap(alignedBytes(int(entries) * int(liburing.SubmissionQueueEntrySize))),
	}
	*m.sqRing.Uint32(maskOff) = entries - 1
	*m.sqRing.Uint32(entriesOff) = entries
	*m.cqRing.Uint32(maskOff) = cqEntries - 1
	*m.cqRing.Uint32(entriesOff) = cqEntries

	m.sq, m.cq = liburing.NewMemoryQueues(m.sqRing, m.sqes, m.cqRing)
	return m
}

func alignedBytes(n int) []byte {
	words := make([]uint64, (n+7)/8)
	return unsafe.Slice((*byte)(unsafe.Pointer(unsafe.SliceData(words))), len(words)*8)[:n]
}

func (m *MemoryRing) SubmissionQueue() *liburing.SubmissionQueue {
	return m.sq
}

func (m *MemoryRing) CompletionQueue() *liburing.CompletionQueue {
	return m.cq
}

// Consume
// takes every published entry and advances the SQ head.
func (m *MemoryRing) Consume() []liburing.SubmissionQueueEntry {
	headp := m.sqRing.Uint32(headOff)
	head := atomic.LoadUint32(headp)
	tail := atomic.LoadUint32(m.sqRing.Uint32(tailOff))
	mask := m.sq.Mask()
	entries := make([]liburing.SubmissionQueueEntry, 0, tail-head)
	for ; head != tail; head++ {
		idx := *m.sqRing.Uint32(liburing.MemoryRingHeader + (head&mask)*4)
		sqe := (*liburing.SubmissionQueueEntry)(m.sqes.Pointer((idx&mask)*uint32(liburing.SubmissionQueueEntrySize), liburing.SubmissionQueueEntrySize))
		entries = append(entries, *sqe)
	}
	atomic.StoreUint32(headp, head)
	return entries
}

// Post
// appends a completion, reporting false when the CQ is full.
func (m *MemoryRing) Post(userData uint64, res int32, flags uint32) bool {
	head := atomic.LoadUint32(m.cqRing.Uint32(headOff))
	tailp := m.cqRing.Uint32(tailOff)
	tail := atomic.LoadUint32(tailp)
	if tail-head >= m.cq.Entries() {
		return false
	}
	cqe := m.cq.Peek(tail)
	cqe.UserData = userData
	cqe.Res = res
	cqe.Flags = flags
	atomic.StoreUint32(tailp, tail+1)
	return true
}

// Published
// the SQ tail as the kernel sees it.
func (m *MemoryRing) Published() uint32 {
	return atomic.LoadUint32(m.sqRing.Uint32(tailOff))
}
