//go:build linux

package liburing

import (
	"errors"
	"unsafe"

	"github.com/brickingsoft/ringexec/pkg/kernel"
	"golang.org/x/sys/unix"
)

const (
	sysSetup = 425
)

// New
// creates an io_uring instance and maps its three regions.
func New(options ...Option) (ring *Ring, err error) {
	opts := Options{
		Entries: DefaultEntries,
	}
	for _, o := range options {
		if err = o(&opts); err != nil {
			return
		}
	}
	entries, cqEntries, err := getSqCqEntries(opts.Entries, opts.CQEntries, opts.Flags)
	if err != nil {
		return
	}

	version, versionErr := kernel.Get()
	if versionErr != nil {
		err = versionErr
		return
	}

	params := &Params{}
	params.flags = opts.Flags
	params.cqEntries = cqEntries
	params.Validate(version)

	ring = &Ring{fd: -1}
	if err = ring.setup(entries, params); err != nil {
		ring = nil
	}
	return
}

type Ring struct {
	fd         int
	params     Params
	sqRegion   *Region
	cqRegion   *Region
	sqesRegion *Region
	sq         *SubmissionQueue
	cq         *CompletionQueue
}

func (ring *Ring) setup(entries uint32, params *Params) (err error) {
	fdPtr, _, errno := unix.Syscall(sysSetup, uintptr(entries), uintptr(unsafe.Pointer(params)), 0)
	if errno != 0 {
		return errno
	}
	ring.fd = int(fdPtr)
	ring.params = *params
	defer func() {
		if err != nil {
			_ = ring.Close()
		}
	}()

	sqSize := int(params.sqOff.array + params.sqEntries*4)
	cqSize := int(params.cqOff.cqes + params.cqEntries*uint32(CompletionQueueEventSize))
	sqesSize := int(params.sqEntries * uint32(SubmissionQueueEntrySize))

	if ring.sqRegion, err = Map(ring.fd, IORING_OFF_SQ_RING, sqSize); err != nil {
		return
	}
	if ring.cqRegion, err = Map(ring.fd, IORING_OFF_CQ_RING, cqSize); err != nil {
		return
	}
	if ring.sqesRegion, err = Map(ring.fd, IORING_OFF_SQES, sqesSize); err != nil {
		return
	}

	ring.sq = newSubmissionQueue(ring.sqRegion, ring.sqesRegion, &params.sqOff)
	ring.cq = newCompletionQueue(ring.cqRegion, &params.cqOff)
	unix.CloseOnExec(ring.fd)
	return
}

func (ring *Ring) Fd() int {
	return ring.fd
}

func (ring *Ring) Flags() uint32 {
	return ring.params.flags
}

func (ring *Ring) Features() uint32 {
	return ring.params.features
}

func (ring *Ring) SubmissionQueue() *SubmissionQueue {
	return ring.sq
}

func (ring *Ring) CompletionQueue() *CompletionQueue {
	return ring.cq
}

// DontFork
// excludes every ring region from forked children.
func (ring *Ring) DontFork() error {
	for _, region := range []*Region{ring.sqRegion, ring.cqRegion, ring.sqesRegion} {
		if region == nil {
			continue
		}
		if err := region.DontFork(); err != nil {
			return err
		}
	}
	return nil
}

func (ring *Ring) Close() (err error) {
	for _, region := range []*Region{ring.sqesRegion, ring.cqRegion, ring.sqRegion} {
		if region != nil {
			err = errors.Join(err, region.Close())
		}
	}
	if ring.fd != -1 {
		err = errors.Join(err, unix.Close(ring.fd))
		ring.fd = -1
	}
	return
}

func getSqCqEntries(entries uint32, cqEntries uint32, flags uint32) (uint32, uint32, error) {
	if entries == 0 {
		return 0, 0, unix.EINVAL
	}
	if entries > MaxEntries {
		if flags&IORING_SETUP_CLAMP == 0 {
			return 0, 0, unix.EINVAL
		}
		entries = MaxEntries
	}
	entries = RoundupPow2(entries)
	if flags&IORING_SETUP_CQSIZE == 0 || cqEntries == 0 {
		return entries, 0, nil
	}
	if cqEntries > MaxCQEntries {
		if flags&IORING_SETUP_CLAMP == 0 {
			return 0, 0, unix.EINVAL
		}
		cqEntries = MaxCQEntries
	}
	cqEntries = RoundupPow2(cqEntries)
	if cqEntries < entries {
		return 0, 0, unix.EINVAL
	}
	return entries, cqEntries, nil
}
