//go:build linux

package process

import (
	"fmt"

	"golang.org/x/sys/unix"
)

type PriorityLevel int

const (
	NORM PriorityLevel = iota
	IDLE
	HIGH
	REALTIME
)

func (level PriorityLevel) String() string {
	switch level {
	case IDLE:
		return "idle"
	case HIGH:
		return "high"
	case REALTIME:
		return "realtime"
	default:
		return "norm"
	}
}

// ParsePriorityLevel
// the level named by s, one of norm, idle, high or realtime.
func ParsePriorityLevel(s string) (PriorityLevel, error) {
	switch s {
	case "", "norm":
		return NORM, nil
	case "idle":
		return IDLE, nil
	case "high":
		return HIGH, nil
	case "realtime":
		return REALTIME, nil
	default:
		return NORM, fmt.Errorf("unknown priority level %q", s)
	}
}

func (level PriorityLevel) nice() int {
	switch level {
	case REALTIME:
		return -19
	case HIGH:
		return -15
	case IDLE:
		return 15
	default:
		return 0
	}
}

// SetThreadPriority
// sets the nice value of the calling thread. Raising it above NORM needs
// CAP_SYS_NICE. The caller must hold runtime.LockOSThread.
func SetThreadPriority(level PriorityLevel) (err error) {
	err = unix.Setpriority(unix.PRIO_PROCESS, unix.Gettid(), level.nice())
	if err != nil {
		err = fmt.Errorf("Setpriority: %w, %s", err, level)
	}
	return
}
