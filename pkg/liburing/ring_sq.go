//go:build linux

package liburing

import (
	"sync/atomic"
)

// SubmissionQueue
// the application side of the kernel submission ring.
//
// The kernel owns head, the application owns tail. Entries are reserved
// against a local tail and become visible to the kernel only on Flush.
type SubmissionQueue struct {
	head    *uint32
	tail    *uint32
	flags   *uint32
	dropped *uint32
	array   *Region
	arrOff  uint32
	sqes    *Region
	mask    uint32
	entries uint32
	sqeTail uint32
}

func newSubmissionQueue(ring *Region, sqes *Region, off *SQRingOffsets) *SubmissionQueue {
	sq := &SubmissionQueue{
		head:    ring.Uint32(off.head),
		tail:    ring.Uint32(off.tail),
		flags:   ring.Uint32(off.flags),
		dropped: ring.Uint32(off.dropped),
		array:   ring,
		arrOff:  off.array,
		sqes:    sqes,
		mask:    *ring.Uint32(off.ringMask),
		entries: *ring.Uint32(off.ringEntries),
	}
	sq.sqeTail = atomic.LoadUint32(sq.tail)
	for i := uint32(0); i < sq.entries; i++ {
		*sq.array.Uint32(sq.arrOff + i*4) = i
	}
	return sq
}

func (sq *SubmissionQueue) Entries() uint32 {
	return sq.entries
}

func (sq *SubmissionQueue) Mask() uint32 {
	return sq.mask
}

// Head
// acquire-loads the index of the next entry the kernel will consume.
func (sq *SubmissionQueue) Head() uint32 {
	return atomic.LoadUint32(sq.head)
}

// Tail
// the local tail, including reserved entries not yet flushed.
func (sq *SubmissionQueue) Tail() uint32 {
	return sq.sqeTail
}

// SpaceLeft
// free slots: capacity minus entries the kernel has not consumed yet.
func (sq *SubmissionQueue) SpaceLeft() uint32 {
	return sq.entries - (sq.sqeTail - sq.Head())
}

// Reserve
// returns the slot at tail & mask, or nil when the ring is full.
func (sq *SubmissionQueue) Reserve() *SubmissionQueueEntry {
	head := sq.Head()
	next := sq.sqeTail + 1
	if next-head > sq.entries {
		return nil
	}
	idx := sq.sqeTail & sq.mask
	*sq.array.Uint32(sq.arrOff + idx*4) = idx
	sqe := sq.entry(idx)
	*sqe = SubmissionQueueEntry{}
	sq.sqeTail = next
	return sqe
}

// Flush
// release-stores the local tail and returns how many entries the kernel
// has yet to consume.
func (sq *SubmissionQueue) Flush() uint32 {
	tail := sq.sqeTail
	if atomic.LoadUint32(sq.tail) != tail {
		atomic.StoreUint32(sq.tail, tail)
	}
	return tail - sq.Head()
}

// Unconsumed
// entries published to the kernel but not yet consumed.
func (sq *SubmissionQueue) Unconsumed() uint32 {
	return atomic.LoadUint32(sq.tail) - sq.Head()
}

func (sq *SubmissionQueue) Dropped() uint32 {
	return atomic.LoadUint32(sq.dropped)
}

func (sq *SubmissionQueue) entry(idx uint32) *SubmissionQueueEntry {
	return (*SubmissionQueueEntry)(sq.sqes.Pointer((idx&sq.mask)*uint32(SubmissionQueueEntrySize), SubmissionQueueEntrySize))
}
