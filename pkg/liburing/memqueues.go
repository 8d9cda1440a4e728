//go:build linux

package liburing

// MemoryRingHeader
// size of the header NewMemoryQueues expects at the start of both rings.
// Words are head at 0, tail at 4, mask at 8, entries at 12, flags at 16 and
// dropped (SQ) or overflow (CQ) at 20. The SQ index array and the CQEs
// follow the header.
const MemoryRingHeader = 64

// NewMemoryQueues
// builds a queue pair over memory nobody mapped from the kernel. Mask and
// entries must already be written into both headers.
func NewMemoryQueues(sqRing *Region, sqes *Region, cqRing *Region) (*SubmissionQueue, *CompletionQueue) {
	sqOff := SQRingOffsets{
		head: 0, tail: 4, ringMask: 8, ringEntries: 12, flags: 16, dropped: 20,
		array: MemoryRingHeader,
	}
	cqOff := CQRingOffsets{
		head: 0, tail: 4, ringMask: 8, ringEntries: 12, overflow: 20, flags: 16,
		cqes: MemoryRingHeader,
	}
	return newSubmissionQueue(sqRing, sqes, &sqOff), newCompletionQueue(cqRing, &cqOff)
}
