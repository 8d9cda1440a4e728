//go:build linux

package liburing

import (
	"github.com/brickingsoft/ringexec/pkg/kernel"
)

type SQRingOffsets struct {
	head        uint32
	tail        uint32
	ringMask    uint32
	ringEntries uint32
	flags       uint32
	dropped     uint32
	array       uint32
	resv1       uint32
	userAddr    uint64
}

type Params struct {
	sqEntries    uint32
	cqEntries    uint32
	flags        uint32
	sqThreadCPU  uint32
	sqThreadIdle uint32
	features     uint32
	wqFd         uint32
	resv         [3]uint32
	sqOff        SQRingOffsets
	cqOff        CQRingOffsets
}

func (params *Params) SQEntries() uint32 {
	return params.sqEntries
}

func (params *Params) CQEntries() uint32 {
	return params.cqEntries
}

func (params *Params) Flags() uint32 {
	return params.flags
}

func (params *Params) Features() uint32 {
	return params.features
}

// Validate
// drops flags the running kernel cannot honour.
// IOPOLL, SQPOLL, SQE128 and CQE32 are always dropped: the queue views
// assume 64 byte entries and submissions driven by enter. SINGLE_ISSUER and
// DEFER_TASKRUN are dropped because the ring is created off the reactor
// thread.
func (params *Params) Validate(version kernel.Version) {
	flags := uint32(0)

	if params.flags&IORING_SETUP_CQSIZE != 0 && params.cqEntries > 0 {
		flags |= IORING_SETUP_CQSIZE
	} else {
		params.cqEntries = 0
	}
	if params.flags&IORING_SETUP_CLAMP != 0 {
		flags |= IORING_SETUP_CLAMP
	}
	if params.flags&IORING_SETUP_SUBMIT_ALL != 0 {
		if version.GTE(5, 18, 0) {
			flags |= IORING_SETUP_SUBMIT_ALL
		}
	}
	if params.flags&IORING_SETUP_COOP_TASKRUN != 0 {
		if version.GTE(5, 19, 0) {
			flags |= IORING_SETUP_COOP_TASKRUN
		}
	}
	if params.flags&IORING_SETUP_TASKRUN_FLAG != 0 {
		if version.GTE(5, 19, 0) && flags&IORING_SETUP_COOP_TASKRUN != 0 {
			flags |= IORING_SETUP_TASKRUN_FLAG
		}
	}
	params.flags = flags
}
