//go:build linux

package process_test

import (
	"runtime"
	"testing"

	"github.com/brickingsoft/ringexec/pkg/process"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSetCPUAffinity(t *testing.T) {
	var (
		before, after []int
		setErr        error
		getErr        error
	)
	done := make(chan struct{})
	go func() {
		defer close(done)
		runtime.LockOSThread()
		defer runtime.UnlockOSThread()

		if before, getErr = process.CPUAffinity(); getErr != nil || len(before) == 0 {
			return
		}
		if setErr = process.SetCPUAffinity(before[0]); setErr != nil {
			return
		}
		after, getErr = process.CPUAffinity()
	}()
	<-done

	require.NoError(t, getErr)
	if setErr != nil {
		t.Skip("affinity unavailable:", setErr)
	}
	require.NotEmpty(t, before)
	assert.Equal(t, []int{before[0]}, after)
}

func TestParsePriorityLevel(t *testing.T) {
	for _, level := range []process.PriorityLevel{process.NORM, process.IDLE, process.HIGH, process.REALTIME} {
		parsed, err := process.ParsePriorityLevel(level.String())
		assert.NoError(t, err)
		assert.Equal(t, level, parsed)
	}
	_, err := process.ParsePriorityLevel("urgent")
	assert.Error(t, err)
}

func TestSetThreadPriority(t *testing.T) {
	errs := make(chan error, 1)
	go func() {
		// the nice value stays with the thread, so the thread exits with the goroutine
		runtime.LockOSThread()
		errs <- process.SetThreadPriority(process.IDLE)
	}()
	assert.NoError(t, <-errs)
}
