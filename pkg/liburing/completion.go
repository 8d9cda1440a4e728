//go:build linux

package liburing

import (
	"syscall"
	"unsafe"
)

const (
	IORING_CQE_F_BUFFER uint32 = 1 << iota
	IORING_CQE_F_MORE
	IORING_CQE_F_SOCK_NONEMPTY
	IORING_CQE_F_NOTIF
)

type CompletionQueueEvent struct {
	UserData uint64
	Res      int32
	Flags    uint32
}

const CompletionQueueEventSize = unsafe.Sizeof(CompletionQueueEvent{})

// Errno
// returns the negated result as an errno, or 0 when Res is not negative.
func (c *CompletionQueueEvent) Errno() syscall.Errno {
	if c.Res >= 0 {
		return 0
	}
	return syscall.Errno(-c.Res)
}

type CQRingOffsets struct {
	head        uint32
	tail        uint32
	ringMask    uint32
	ringEntries uint32
	overflow    uint32
	cqes        uint32
	flags       uint32
	resv1       uint32
	userAddr    uint64
}
