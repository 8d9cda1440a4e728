//go:build linux

package liburing

import (
	"sync/atomic"
)

// CompletionQueue
// the application side of the kernel completion ring.
//
// The kernel owns tail, the application owns head.
type CompletionQueue struct {
	head     *uint32
	tail     *uint32
	overflow *uint32
	ring     *Region
	cqesOff  uint32
	mask     uint32
	entries  uint32
}

func newCompletionQueue(ring *Region, off *CQRingOffsets) *CompletionQueue {
	return &CompletionQueue{
		head:     ring.Uint32(off.head),
		tail:     ring.Uint32(off.tail),
		overflow: ring.Uint32(off.overflow),
		ring:     ring,
		cqesOff:  off.cqes,
		mask:     *ring.Uint32(off.ringMask),
		entries:  *ring.Uint32(off.ringEntries),
	}
}

func (cq *CompletionQueue) Entries() uint32 {
	return cq.entries
}

func (cq *CompletionQueue) Head() uint32 {
	return atomic.LoadUint32(cq.head)
}

// Tail
// acquire-loads the index past the last completion posted by the kernel.
func (cq *CompletionQueue) Tail() uint32 {
	return atomic.LoadUint32(cq.tail)
}

func (cq *CompletionQueue) Ready() uint32 {
	return cq.Tail() - cq.Head()
}

// Peek
// returns the completion at index & mask.
func (cq *CompletionQueue) Peek(index uint32) *CompletionQueueEvent {
	off := cq.cqesOff + (index&cq.mask)*uint32(CompletionQueueEventSize)
	return (*CompletionQueueEvent)(cq.ring.Pointer(off, CompletionQueueEventSize))
}

// Advance
// release-stores head, handing the slots before it back to the kernel.
func (cq *CompletionQueue) Advance(head uint32) {
	atomic.StoreUint32(cq.head, head)
}

func (cq *CompletionQueue) Overflow() uint32 {
	return atomic.LoadUint32(cq.overflow)
}
