//go:build linux

package aio

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/brickingsoft/ringexec/pkg/liburing"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/sync/errgroup"
	"golang.org/x/sys/unix"
)

func newContext(t *testing.T, options ...Option) *Context {
	t.Helper()
	c, err := New(options...)
	if IsUnsupported(err) {
		t.Skip("io_uring unavailable:", err)
	}
	require.NoError(t, err)
	t.Cleanup(func() {
		assert.NoError(t, c.Close())
	})
	return c
}

func runContext(t *testing.T, c *Context) (stop func() error) {
	t.Helper()
	done := make(chan error, 1)
	go func() {
		done <- c.Run(context.Background())
	}()
	once := sync.Once{}
	var err error
	stop = func() error {
		once.Do(func() {
			c.RequestStop()
			err = <-done
		})
		return err
	}
	t.Cleanup(func() {
		assert.NoError(t, stop())
	})
	return
}

type outcome[T any] struct {
	value   T
	err     error
	stopped bool
}

type chanReceiver[T any] struct {
	token StopToken
	ch    chan outcome[T]
}

func newChanReceiver[T any](token StopToken) *chanReceiver[T] {
	return &chanReceiver[T]{token: token, ch: make(chan outcome[T], 1)}
}

func (r *chanReceiver[T]) SetValue(value T) { r.ch <- outcome[T]{value: value} }

func (r *chanReceiver[T]) SetError(err error) { r.ch <- outcome[T]{err: err} }

func (r *chanReceiver[T]) SetStopped() { r.ch <- outcome[T]{stopped: true} }

func (r *chanReceiver[T]) StopToken() StopToken { return r.token }

func (r *chanReceiver[T]) wait(t *testing.T) outcome[T] {
	t.Helper()
	select {
	case o := <-r.ch:
		return o
	case <-time.After(5 * time.Second):
		t.Fatal("operation did not complete")
		return outcome[T]{}
	}
}

func TestContext_Schedule(t *testing.T) {
	c := newContext(t, WithEntries(8))
	runContext(t, c)
	scheduler := c.Scheduler()

	const (
		producers = 3
		perProd   = 2
	)
	g, ctx := errgroup.WithContext(context.Background())
	for p := 0; p < producers; p++ {
		g.Go(func() error {
			for i := 0; i < perProd; i++ {
				onLoop, err := SyncWait(ctx, Then(scheduler.Schedule(), func(struct{}) (bool, error) {
					return c.onLoop(), nil
				}))
				if err != nil {
					return err
				}
				if !onLoop {
					t.Error("continuation ran off the reactor")
				}
			}
			return nil
		})
	}
	require.NoError(t, g.Wait())
}

func TestContext_ScheduleAfter(t *testing.T) {
	c := newContext(t)
	runContext(t, c)

	start := time.Now()
	_, err := SyncWait(context.Background(), c.Scheduler().ScheduleAfter(10*time.Millisecond))
	require.NoError(t, err)
	elapsed := time.Since(start)
	t.Log("elapsed:", elapsed)
	assert.GreaterOrEqual(t, elapsed, 10*time.Millisecond)

	_, err = SyncWait(context.Background(), c.Scheduler().ScheduleAt(time.Now().Add(-time.Second)))
	assert.NoError(t, err, "past deadline completes immediately")
}

func TestContext_RequestStopCancelsTimer(t *testing.T) {
	c := newContext(t)
	stop := runContext(t, c)

	receiver := newChanReceiver[struct{}](StopToken{})
	c.Scheduler().ScheduleAfter(time.Hour).Connect(receiver).Start()
	time.Sleep(20 * time.Millisecond)

	require.NoError(t, stop())
	o := receiver.wait(t)
	assert.True(t, o.stopped)
	assert.True(t, c.StopRequested())

	// stop is sticky, work started afterwards completes stopped
	late := newChanReceiver[struct{}](StopToken{})
	c.Scheduler().ScheduleAfter(time.Hour).Connect(late).Start()
	require.NoError(t, c.Run(context.Background()))
	assert.True(t, late.wait(t).stopped)
}

func TestContext_SyncWaitCancel(t *testing.T) {
	c := newContext(t)
	runContext(t, c)

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	_, err := SyncWait(ctx, c.Scheduler().ScheduleAfter(time.Hour))
	assert.True(t, IsStopped(err), err)

	// the context keeps serving
	_, err = SyncWait(context.Background(), c.Scheduler().Schedule())
	assert.NoError(t, err)
}

func TestContext_StoppedReceiver(t *testing.T) {
	c := newContext(t)
	runContext(t, c)

	source := NewStopSource()
	source.RequestStop()

	timer := newChanReceiver[struct{}](source.Token())
	c.Scheduler().ScheduleAfter(time.Hour).Connect(timer).Start()
	assert.True(t, timer.wait(t).stopped)

	schedule := newChanReceiver[struct{}](source.Token())
	c.Scheduler().Schedule().Connect(schedule).Start()
	assert.True(t, schedule.wait(t).stopped)
}

func TestContext_Read(t *testing.T) {
	detected, err := liburing.DetectCapabilities()
	require.NoError(t, err)

	cases := []struct {
		name string
		caps liburing.Capabilities
	}{
		{name: "readv", caps: liburing.Capabilities{AsyncCancel: detected.AsyncCancel}},
	}
	if detected.OpRead {
		cases = append(cases, struct {
			name string
			caps liburing.Capabilities
		}{name: "read", caps: detected})
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			c := newContext(t, WithCapabilities(tc.caps))
			runContext(t, c)

			fds := make([]int, 2)
			require.NoError(t, unix.Pipe2(fds, unix.O_CLOEXEC))
			defer unix.Close(fds[0])
			defer unix.Close(fds[1])

			_, err := unix.Write(fds[1], []byte("hello"))
			require.NoError(t, err)

			buf := make([]byte, 16)
			n, err := SyncWait(context.Background(), c.Scheduler().Read(fds[0], buf, 0))
			require.NoError(t, err)
			assert.Equal(t, "hello", string(buf[:n]))

			// blocks in the kernel until the writer shows up
			receiver := newChanReceiver[int](StopToken{})
			c.Scheduler().Read(fds[0], buf, 0).Connect(receiver).Start()
			time.Sleep(10 * time.Millisecond)
			_, err = unix.Write(fds[1], []byte("world!"))
			require.NoError(t, err)
			o := receiver.wait(t)
			require.NoError(t, o.err)
			assert.Equal(t, "world!", string(buf[:o.value]))

			n, err = SyncWait(context.Background(), c.Scheduler().Read(fds[0], nil, 0))
			assert.NoError(t, err)
			assert.Equal(t, 0, n)

			_, err = SyncWait(context.Background(), c.Scheduler().Read(-1, buf, 0))
			assert.ErrorIs(t, err, unix.EBADF)
		})
	}
}

func TestContext_Backpressure(t *testing.T) {
	c := newContext(t, WithEntries(2), WithBackpressure(BackpressureReject))

	receivers := make([]*chanReceiver[struct{}], 8)
	for i := range receivers {
		receivers[i] = newChanReceiver[struct{}](StopToken{})
		c.Scheduler().ScheduleAfter(time.Millisecond).Connect(receivers[i]).Start()
	}
	runContext(t, c)

	busy := 0
	for _, receiver := range receivers {
		o := receiver.wait(t)
		if o.err != nil {
			assert.True(t, IsBusy(o.err), o.err)
			busy++
		}
	}
	t.Log("busy:", busy)
	assert.Greater(t, busy, 0)
}

func TestContext_Wakeup(t *testing.T) {
	c := newContext(t)
	c.Wakeup()
	c.Wakeup()
	runContext(t, c)

	g := errgroup.Group{}
	for i := 0; i < 4; i++ {
		g.Go(func() error {
			for j := 0; j < 100; j++ {
				c.Wakeup()
			}
			return nil
		})
	}
	require.NoError(t, g.Wait())

	_, err := SyncWait(context.Background(), c.Scheduler().Schedule())
	assert.NoError(t, err)
}

func TestContext_Lifecycle(t *testing.T) {
	c := newContext(t)
	stop := runContext(t, c)

	// wait until the reactor has started
	_, err := SyncWait(context.Background(), c.Scheduler().Schedule())
	require.NoError(t, err)

	assert.ErrorIs(t, c.Run(context.Background()), ErrRunning)
	assert.ErrorIs(t, c.Close(), ErrRunning)
	require.NoError(t, stop())

	require.NoError(t, c.Close())
	require.NoError(t, c.Close())
	assert.True(t, IsClosed(c.Submit(new(Task))))
	assert.True(t, IsClosed(c.Run(context.Background())))

	receiver := newChanReceiver[struct{}](StopToken{})
	c.Scheduler().Schedule().Connect(receiver).Start()
	assert.True(t, IsClosed(receiver.wait(t).err))
}

func TestContext_RunContextDone(t *testing.T) {
	c := newContext(t)
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() {
		done <- c.Run(ctx)
	}()
	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("run did not return")
	}
}

func TestScheduler(t *testing.T) {
	c := newContext(t)
	s := c.Scheduler()
	assert.Equal(t, Parallel, s.ForwardProgressGuarantee())
	assert.Equal(t, "parallel", s.ForwardProgressGuarantee().String())
	assert.True(t, s.Equal(c.Scheduler()))
	assert.Same(t, c, s.Context())
	assert.NotZero(t, c.Entries())

	other := newContext(t)
	assert.False(t, s.Equal(other.Scheduler()))
}
