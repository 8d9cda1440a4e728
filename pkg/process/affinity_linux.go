//go:build linux

package process

import (
	"fmt"
	"runtime"

	"golang.org/x/sys/unix"
)

// SetCPUAffinity
// pins the calling thread to cpu index modulo the CPU count. The caller
// must hold runtime.LockOSThread.
func SetCPUAffinity(index int) error {
	var newMask unix.CPUSet

	newMask.Zero()

	cpuIndex := index % runtime.NumCPU()
	newMask.Set(cpuIndex)

	err := unix.SchedSetaffinity(0, &newMask)
	if err != nil {
		return fmt.Errorf("SchedSetaffinity: %w, %v", err, newMask)
	}

	return nil
}

// CPUAffinity
// the CPUs the calling thread may run on.
func CPUAffinity() ([]int, error) {
	var mask unix.CPUSet
	if err := unix.SchedGetaffinity(0, &mask); err != nil {
		return nil, fmt.Errorf("SchedGetaffinity: %w", err)
	}
	cpus := make([]int, 0, mask.Count())
	for i := 0; i < runtime.NumCPU(); i++ {
		if mask.IsSet(i) {
			cpus = append(cpus, i)
		}
	}
	return cpus, nil
}
