//go:build linux

package liburing

import (
	"time"
	"unsafe"

	"golang.org/x/sys/unix"
)

const (
	IORING_OP_NOP uint8 = iota
	IORING_OP_READV
	IORING_OP_WRITEV
	IORING_OP_FSYNC
	IORING_OP_READ_FIXED
	IORING_OP_WRITE_FIXED
	IORING_OP_POLL_ADD
	IORING_OP_POLL_REMOVE
	IORING_OP_SYNC_FILE_RANGE
	IORING_OP_SENDMSG
	IORING_OP_RECVMSG
	IORING_OP_TIMEOUT
	IORING_OP_TIMEOUT_REMOVE
	IORING_OP_ACCEPT
	IORING_OP_ASYNC_CANCEL
	IORING_OP_LINK_TIMEOUT
	IORING_OP_CONNECT
	IORING_OP_FALLOCATE
	IORING_OP_OPENAT
	IORING_OP_CLOSE
	IORING_OP_FILES_UPDATE
	IORING_OP_STATX
	IORING_OP_READ
	IORING_OP_WRITE
)

const (
	IOSQE_FIXED_FILE uint8 = 1 << iota
	IOSQE_IO_DRAIN
	IOSQE_IO_LINK
	IOSQE_IO_HARDLINK
	IOSQE_ASYNC
	IOSQE_BUFFER_SELECT
	IOSQE_CQE_SKIP_SUCCESS
)

const (
	IORING_TIMEOUT_ABS uint32 = 1 << iota
	IORING_TIMEOUT_UPDATE
	IORING_TIMEOUT_BOOTTIME
	IORING_TIMEOUT_REALTIME
)

// Timespec
// is struct __kernel_timespec, 64 bit fields on every arch.
type Timespec struct {
	Sec  int64
	Nsec int64
}

func NsecToTimespec(d time.Duration) Timespec {
	if d < 0 {
		d = 0
	}
	return Timespec{
		Sec:  int64(d / time.Second),
		Nsec: int64(d % time.Second),
	}
}

func (ts Timespec) Duration() time.Duration {
	return time.Duration(ts.Sec)*time.Second + time.Duration(ts.Nsec)
}

type SubmissionQueueEntry struct {
	OpCode      uint8
	Flags       uint8
	IoPrio      uint16
	Fd          int32
	Off         uint64
	Addr        uint64
	Len         uint32
	OpcodeFlags uint32
	UserData    uint64
	BufIG       uint16
	Personality uint16
	SpliceFdIn  int32
	Addr3       uint64
	_pad2       [1]uint64
}

const SubmissionQueueEntrySize = unsafe.Sizeof(SubmissionQueueEntry{})

func (entry *SubmissionQueueEntry) SetData64(data uint64) {
	entry.UserData = data
}

func (entry *SubmissionQueueEntry) SetFlags(flags uint8) {
	entry.Flags |= flags
}

func (entry *SubmissionQueueEntry) PrepareNop() {
	entry.prepareRW(IORING_OP_NOP, -1, 0, 0, 0)
}

// PrepareTimeout
// fires after ts, or after count other completions when count > 0.
// The kernel copies ts while the entry is consumed by enter.
func (entry *SubmissionQueueEntry) PrepareTimeout(ts *Timespec, count, flags uint32) {
	entry.prepareRW(IORING_OP_TIMEOUT, -1, uintptr(unsafe.Pointer(ts)), 1, uint64(count))
	entry.OpcodeFlags = flags
}

// PrepareTimeoutRemove
// removes the pending timeout whose user data is target.
func (entry *SubmissionQueueEntry) PrepareTimeoutRemove(target uint64, flags uint32) {
	entry.prepareRW(IORING_OP_TIMEOUT_REMOVE, -1, 0, 0, 0)
	entry.Addr = target
	entry.OpcodeFlags = flags
}

// PrepareAsyncCancel
// cancels the in-flight request whose user data is target.
func (entry *SubmissionQueueEntry) PrepareAsyncCancel(target uint64, flags uint32) {
	entry.prepareRW(IORING_OP_ASYNC_CANCEL, -1, 0, 0, 0)
	entry.Addr = target
	entry.OpcodeFlags = flags
}

func (entry *SubmissionQueueEntry) PrepareRead(fd int, buf []byte, offset uint64) {
	var addr uintptr
	if len(buf) > 0 {
		addr = uintptr(unsafe.Pointer(unsafe.SliceData(buf)))
	}
	entry.prepareRW(IORING_OP_READ, fd, addr, uint32(len(buf)), offset)
}

func (entry *SubmissionQueueEntry) PrepareReadv(fd int, iovecs []unix.Iovec, offset uint64) {
	var addr uintptr
	if len(iovecs) > 0 {
		addr = uintptr(unsafe.Pointer(unsafe.SliceData(iovecs)))
	}
	entry.prepareRW(IORING_OP_READV, fd, addr, uint32(len(iovecs)), offset)
}

func (entry *SubmissionQueueEntry) prepareRW(opcode uint8, fd int, addr uintptr, length uint32, offset uint64) {
	entry.OpCode = opcode
	entry.Flags = 0
	entry.IoPrio = 0
	entry.Fd = int32(fd)
	entry.Off = offset
	entry.Addr = uint64(addr)
	entry.Len = length
	entry.UserData = 0
	entry.OpcodeFlags = 0
	entry.BufIG = 0
	entry.Personality = 0
	entry.SpliceFdIn = 0
	entry.Addr3 = 0
	entry._pad2[0] = 0
}
