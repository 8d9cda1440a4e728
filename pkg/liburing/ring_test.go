//go:build linux

package liburing_test

import (
	"errors"
	"syscall"
	"testing"
	"time"

	"github.com/brickingsoft/ringexec/pkg/liburing"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newRing(t *testing.T, options ...liburing.Option) *liburing.Ring {
	t.Helper()
	ring, err := liburing.New(options...)
	if errors.Is(err, syscall.ENOSYS) || errors.Is(err, syscall.EPERM) {
		t.Skip("io_uring unavailable:", err)
	}
	require.NoError(t, err)
	t.Cleanup(func() {
		assert.NoError(t, ring.Close())
	})
	return ring
}

func TestNew(t *testing.T) {
	ring := newRing(t, liburing.WithEntries(3))
	sq := ring.SubmissionQueue()
	cq := ring.CompletionQueue()
	t.Log("sq:", sq.Entries(), "cq:", cq.Entries(), "features:", ring.Features())

	assert.Equal(t, uint32(4), sq.Entries())
	assert.Equal(t, uint32(3), sq.Mask())
	assert.GreaterOrEqual(t, cq.Entries(), sq.Entries())

	sqe := sq.Reserve()
	require.NotNil(t, sqe)
	sqe.PrepareNop()
	sqe.SetData64(7)

	n := sq.Flush()
	assert.Equal(t, uint32(1), n)
	consumed, err := ring.Enter(n, 1, liburing.IORING_ENTER_GETEVENTS)
	require.NoError(t, err)
	assert.Equal(t, uint(1), consumed)

	require.Equal(t, uint32(1), cq.Ready())
	head := cq.Head()
	cqe := cq.Peek(head)
	assert.Equal(t, uint64(7), cqe.UserData)
	assert.Equal(t, int32(0), cqe.Res)
	cq.Advance(head + 1)
	assert.Equal(t, uint32(0), cq.Ready())
}

func TestRing_Timeout(t *testing.T) {
	ring := newRing(t, liburing.WithEntries(2))
	sq := ring.SubmissionQueue()
	cq := ring.CompletionQueue()

	ts := liburing.NsecToTimespec(5 * time.Millisecond)
	sqe := sq.Reserve()
	require.NotNil(t, sqe)
	sqe.PrepareTimeout(&ts, 0, 0)
	sqe.SetData64(1)

	start := time.Now()
	_, err := ring.Enter(sq.Flush(), 1, liburing.IORING_ENTER_GETEVENTS)
	require.NoError(t, err)
	elapsed := time.Since(start)
	t.Log("elapsed:", elapsed)

	head := cq.Head()
	cqe := cq.Peek(head)
	assert.Equal(t, uint64(1), cqe.UserData)
	assert.Equal(t, syscall.ETIME, cqe.Errno())
	assert.GreaterOrEqual(t, elapsed, 4*time.Millisecond)
	cq.Advance(head + 1)
}

func TestNew_InvalidEntries(t *testing.T) {
	_, err := liburing.New(liburing.WithEntries(0))
	assert.ErrorIs(t, err, syscall.EINVAL)

	_, err = liburing.New(liburing.WithEntries(liburing.MaxEntries + 1))
	assert.ErrorIs(t, err, syscall.EINVAL)

	_, err = liburing.New(liburing.WithEntries(8), liburing.WithCQEntries(4))
	assert.ErrorIs(t, err, syscall.EINVAL)
}

func TestRoundupPow2(t *testing.T) {
	assert.Equal(t, uint32(1), liburing.RoundupPow2(0))
	assert.Equal(t, uint32(1), liburing.RoundupPow2(1))
	assert.Equal(t, uint32(4), liburing.RoundupPow2(3))
	assert.Equal(t, uint32(4), liburing.RoundupPow2(4))
	assert.Equal(t, uint32(128), liburing.RoundupPow2(100))
	assert.True(t, liburing.IsPow2(64))
	assert.False(t, liburing.IsPow2(0))
	assert.False(t, liburing.IsPow2(6))
}

func TestTimespec(t *testing.T) {
	ts := liburing.NsecToTimespec(1500 * time.Millisecond)
	assert.Equal(t, int64(1), ts.Sec)
	assert.Equal(t, int64(500_000_000), ts.Nsec)
	assert.Equal(t, 1500*time.Millisecond, ts.Duration())
	assert.Equal(t, liburing.Timespec{}, liburing.NsecToTimespec(-time.Second))
}
