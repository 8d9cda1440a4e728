//go:build linux

package liburing

import (
	"fmt"
	"sync/atomic"
	"unsafe"

	"golang.org/x/sys/unix"
)

// Region
// an owned view of ring memory shared with the kernel.
//
// A region created by Map is unmapped by Close. A region created by Wrap
// borrows the slice and Close only forgets it.
type Region struct {
	mem    []byte
	mapped bool
	closed atomic.Bool
}

// Map
// maps length bytes of the ring fd at offset, shared and populated.
func Map(fd int, offset int64, length int) (*Region, error) {
	if length <= 0 {
		return nil, unix.EINVAL
	}
	mem, err := unix.Mmap(fd, offset, length, unix.PROT_READ|unix.PROT_WRITE, unix.MAP_SHARED|unix.MAP_POPULATE)
	if err != nil {
		return nil, err
	}
	return &Region{mem: mem, mapped: true}, nil
}

// Wrap
// uses b as ring memory. The caller keeps b alive for the region's lifetime.
func Wrap(b []byte) *Region {
	return &Region{mem: b}
}

func (r *Region) Len() int {
	return len(r.mem)
}

// Pointer
// returns the address of size bytes at off, panicking when out of bounds.
func (r *Region) Pointer(off uint32, size uintptr) unsafe.Pointer {
	end := uintptr(off) + size
	if size == 0 || end > uintptr(len(r.mem)) {
		panic(fmt.Sprintf("liburing: region access [%d:%d] out of bounds (len %d)", off, end, len(r.mem)))
	}
	return unsafe.Pointer(&r.mem[off])
}

func (r *Region) Uint32(off uint32) *uint32 {
	if off%4 != 0 {
		panic(fmt.Sprintf("liburing: unaligned uint32 access at %d", off))
	}
	return (*uint32)(r.Pointer(off, 4))
}

// DontFork
// keeps the mapping out of forked children.
func (r *Region) DontFork() error {
	if !r.mapped {
		return nil
	}
	return unix.Madvise(r.mem, unix.MADV_DONTFORK)
}

func (r *Region) Close() error {
	if !r.closed.CompareAndSwap(false, true) {
		return nil
	}
	mem := r.mem
	r.mem = nil
	if !r.mapped {
		return nil
	}
	return unix.Munmap(mem)
}
