//go:build linux

package aio

import (
	"sync"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestStopSource_Callbacks(t *testing.T) {
	source := NewStopSource()
	token := source.Token()
	assert.True(t, token.StopPossible())
	assert.False(t, token.StopRequested())

	var calls atomic.Int32
	token.OnStop(func() { calls.Add(1) })
	removed := token.OnStop(func() { calls.Add(100) })
	assert.True(t, removed())
	assert.False(t, removed(), "second unregister")

	assert.True(t, source.RequestStop())
	assert.False(t, source.RequestStop())
	assert.True(t, token.StopRequested())
	assert.Equal(t, int32(1), calls.Load())

	// late registration runs inline
	ran := false
	unregister := token.OnStop(func() { ran = true })
	assert.True(t, ran)
	assert.False(t, unregister())
}

func TestStopToken_Zero(t *testing.T) {
	var token StopToken
	assert.False(t, token.StopPossible())
	assert.False(t, token.StopRequested())
	unregister := token.OnStop(func() { t.Error("zero token stopped") })
	assert.False(t, unregister())
}

func TestStopSource_UnregisterRace(t *testing.T) {
	for i := 0; i < 200; i++ {
		source := NewStopSource()
		var calls atomic.Int32
		unregister := source.Token().OnStop(func() { calls.Add(1) })

		var removed atomic.Bool
		wg := sync.WaitGroup{}
		wg.Add(2)
		go func() {
			defer wg.Done()
			source.RequestStop()
		}()
		go func() {
			defer wg.Done()
			removed.Store(unregister())
		}()
		wg.Wait()

		if removed.Load() {
			assert.Equal(t, int32(0), calls.Load())
		} else {
			assert.Equal(t, int32(1), calls.Load())
		}
	}
}
