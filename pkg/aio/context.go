//go:build linux

package aio

import (
	"context"
	"runtime"
	"strconv"
	"sync"
	"sync/atomic"
	"syscall"

	"github.com/brickingsoft/errors"
	"github.com/brickingsoft/ringexec/pkg/liburing"
	"github.com/brickingsoft/ringexec/pkg/process"
	"github.com/joeycumines/logiface"
	"github.com/prometheus/client_golang/prometheus"
	"golang.org/x/sys/unix"
)

// Context
// a single threaded io_uring execution context.
//
// Run drives the rings on one goroutine locked to its OS thread; every
// Operation callback runs there. Submit, Wakeup and RequestStop are safe
// from any goroutine.
type Context struct {
	ring     *liburing.Ring
	sq       submissionQueue
	cq       completionQueue
	registry registry
	caps     liburing.Capabilities
	entries  uint32

	eventfd   int
	eventfdMu sync.RWMutex
	wakeup    wakeupOperation

	requests AtomicTaskQueue
	pending  TaskQueue
	inflight int

	stop    StopSource
	loopID  atomic.Uint64
	running atomic.Bool
	closed  atomic.Bool
	broken  atomic.Bool

	cpu        int
	priority   process.PriorityLevel
	logger     *logiface.Logger[logiface.Event]
	metrics    *Metrics
	registerer prometheus.Registerer
}

// New
// sets up the rings and the wakeup eventfd. No context is returned on failure.
func New(options ...Option) (c *Context, err error) {
	opts := Options{
		Entries:     liburing.DefaultEntries,
		CPUAffinity: -1,
	}
	for _, o := range options {
		o(&opts)
	}

	var caps liburing.Capabilities
	if opts.Capabilities != nil {
		caps = *opts.Capabilities
	} else {
		detected, detectErr := liburing.DetectCapabilities()
		if detectErr != nil {
			err = errors.From(
				ErrUnsupported,
				errors.WithMeta(errMetaPkgKey, errMetaPkgVal),
				errors.WithMeta(errMetaOpKey, errMetaOpSetup),
				errors.WithWrap(detectErr),
			)
			return
		}
		caps = detected
	}

	ringOptions := []liburing.Option{
		liburing.WithEntries(opts.Entries),
		liburing.WithFlags(opts.Flags),
	}
	if opts.CQEntries > 0 {
		ringOptions = append(ringOptions, liburing.WithCQEntries(opts.CQEntries))
	}
	ring, ringErr := liburing.New(ringOptions...)
	if ringErr != nil {
		if errors.Is(ringErr, syscall.ENOSYS) || errors.Is(ringErr, syscall.EPERM) {
			err = errors.From(
				ErrUnsupported,
				errors.WithMeta(errMetaPkgKey, errMetaPkgVal),
				errors.WithMeta(errMetaOpKey, errMetaOpSetup),
				errors.WithWrap(ringErr),
			)
			return
		}
		err = errors.New(
			"setup ring failed",
			errors.WithMeta(errMetaPkgKey, errMetaPkgVal),
			errors.WithMeta(errMetaOpKey, errMetaOpSetup),
			errors.WithWrap(ringErr),
		)
		return
	}

	efd, efdErr := unix.Eventfd(0, unix.EFD_CLOEXEC)
	if efdErr != nil {
		_ = ring.Close()
		err = errors.New(
			"create eventfd failed",
			errors.WithMeta(errMetaPkgKey, errMetaPkgVal),
			errors.WithMeta(errMetaOpKey, errMetaOpEventfd),
			errors.WithWrap(efdErr),
		)
		return
	}

	sq := ring.SubmissionQueue()
	c = &Context{
		ring:       ring,
		caps:       caps,
		entries:    sq.Entries(),
		eventfd:    efd,
		cpu:        opts.CPUAffinity,
		priority:   opts.Priority,
		logger:     opts.Logger,
		metrics:    opts.Metrics,
		registerer: opts.Registerer,
	}
	c.registry = newRegistry(int(sq.Entries()))
	cqEntries := ring.CompletionQueue().Entries()
	c.sq = submissionQueue{
		queue:    sq,
		registry: &c.registry,
		policy:   opts.Backpressure,
		room: func() uint32 {
			return cqEntries - uint32(c.inflight)
		},
	}
	c.cq = completionQueue{queue: ring.CompletionQueue(), registry: &c.registry}
	c.wakeup.init(c)

	if c.registerer != nil {
		if regErr := c.metrics.Register(c.registerer); regErr != nil {
			_ = unix.Close(efd)
			_ = ring.Close()
			c = nil
			err = errors.New(
				"register metrics failed",
				errors.WithMeta(errMetaPkgKey, errMetaPkgVal),
				errors.WithMeta(errMetaOpKey, errMetaOpSetup),
				errors.WithWrap(regErr),
			)
			return
		}
	}

	c.logger.Debug().
		Uint64("entries", uint64(c.entries)).
		Uint64("cq_entries", uint64(ring.CompletionQueue().Entries())).
		Stringer("capabilities", caps).
		Stringer("backpressure", opts.Backpressure).
		Log("context created")
	return
}

// Run
// drives the context until a stop is requested and all work has drained.
// ctx being done requests a stop. Only one Run may be active at a time.
func (c *Context) Run(ctx context.Context) (err error) {
	if !c.running.CompareAndSwap(false, true) {
		return ErrRunning
	}
	defer c.running.Store(false)
	if c.closed.Load() {
		return ErrClosed
	}
	if c.broken.Load() {
		return ErrBroken
	}

	// a pinned or reniced thread stays locked so it exits with the goroutine
	// instead of going back to the scheduler
	runtime.LockOSThread()
	if c.cpu < 0 && c.priority == process.NORM {
		defer runtime.UnlockOSThread()
	}

	if c.cpu > -1 {
		if err = process.SetCPUAffinity(c.cpu); err != nil {
			err = errors.New(
				"pin reactor thread failed",
				errors.WithMeta(errMetaPkgKey, errMetaPkgVal),
				errors.WithMeta("cpu", strconv.Itoa(c.cpu)),
				errors.WithWrap(err),
			)
			return
		}
	}

	if c.priority != process.NORM {
		if err = process.SetThreadPriority(c.priority); err != nil {
			err = errors.New(
				"set reactor priority failed",
				errors.WithMeta(errMetaPkgKey, errMetaPkgVal),
				errors.WithMeta("priority", c.priority.String()),
				errors.WithWrap(err),
			)
			return
		}
	}

	// published only while callbacks run, so producers skip the stack parse
	// whenever the reactor is not dispatching
	loopID := getGoroutineID()
	defer c.loopID.Store(0)

	if ctx != nil {
		stopWatch := context.AfterFunc(ctx, func() {
			c.RequestStop()
		})
		defer stopWatch()
	}

	c.logger.Debug().Int("pending", c.pending.Len()).Log("context running")
	c.wakeup.start()
	for {
		// draining
		c.pending.Append(c.requests.PopAll())

		// submitting
		pending := c.pending
		c.pending = TaskQueue{}
		result := c.sq.Submit(pending, c.stop.StopRequested())
		c.pending = result.Pending
		c.inflight += int(result.Submitted)
		c.metrics.observeSubmit(result.Submitted, result.Rejected)
		if result.Rejected > 0 {
			c.logger.Warning().Int("rejected", result.Rejected).Log("submission ring full, tasks rejected")
		}
		if !c.pending.Empty() && result.Submitted == 0 && c.inflight == 0 && result.Ready.Empty() {
			c.metrics.incNoProgress()
			c.logger.Err().
				Int("pending", c.pending.Len()).
				Uint64("unconsumed", uint64(c.sq.queue.Unconsumed())).
				Log("no submission progress")
		}

		// waiting
		toSubmit := c.sq.queue.Unconsumed()
		var waitNr uint32
		// pending tasks with nothing left to submit are waiting for completion
		// room, which only a completion frees
		if result.Ready.Empty() && c.inflight > 0 && c.cq.queue.Ready() == 0 &&
			(c.pending.Empty() || toSubmit == 0) {
			waitNr = 1
		}
		if toSubmit > 0 || waitNr > 0 {
			var flags uint32
			if waitNr > 0 {
				flags |= liburing.IORING_ENTER_GETEVENTS
			}
			c.metrics.incEnters()
			if _, enterErr := c.ring.Enter(toSubmit, waitNr, flags); enterErr != nil {
				switch {
				case errors.Is(enterErr, syscall.EINTR):
				case errors.Is(enterErr, syscall.EAGAIN), errors.Is(enterErr, syscall.EBUSY):
					c.logger.Warning().Err(enterErr).Uint64("unconsumed", uint64(toSubmit)).Log("enter retried")
				default:
					c.broken.Store(true)
					err = errors.New(
						"enter failed",
						errors.WithMeta(errMetaPkgKey, errMetaPkgVal),
						errors.WithMeta(errMetaOpKey, errMetaOpEnter),
						errors.WithWrap(enterErr),
					)
					c.logger.Crit().Err(enterErr).Log("enter failed")
					return
				}
			}
		}

		// completing
		c.loopID.Store(loopID)
		kernel, immediate, completeErr := c.cq.Complete(result.Ready)
		c.loopID.Store(0)
		c.inflight -= kernel
		c.metrics.observeComplete(kernel, immediate)
		c.metrics.observeQueues(c.inflight, c.pending.Len())
		if completeErr != nil {
			c.broken.Store(true)
			c.logger.Crit().Err(completeErr).Int("inflight", c.inflight).Log("completion queue out of sync")
			err = completeErr
			return
		}

		// stopped
		if c.stop.StopRequested() && c.pending.Empty() && c.requests.Empty() && c.inflight == 0 {
			c.logger.Debug().Log("context stopped")
			return
		}
	}
}

func (c *Context) onLoop() bool {
	id := c.loopID.Load()
	return id != 0 && id == getGoroutineID()
}

// Submit
// hands t to the reactor. On the reactor goroutine t goes straight to the
// pending queue, elsewhere it is queued for the next drain.
func (c *Context) Submit(t *Task) error {
	// Close takes the write lock across marking closed and draining
	c.eventfdMu.RLock()
	defer c.eventfdMu.RUnlock()
	if c.closed.Load() {
		return ErrClosed
	}
	if c.broken.Load() {
		return ErrBroken
	}
	if c.onLoop() {
		c.pending.PushBack(t)
		return nil
	}
	if c.requests.Push(t) {
		c.wakeupLocked()
	}
	return nil
}

// Wakeup
// returns the reactor from a blocking enter. Wakeups coalesce.
func (c *Context) Wakeup() {
	c.eventfdMu.RLock()
	defer c.eventfdMu.RUnlock()
	c.wakeupLocked()
}

func (c *Context) wakeupLocked() {
	if c.eventfd < 0 {
		return
	}
	if err := writeEventfd(c.eventfd); err != nil && !errors.Is(err, syscall.EAGAIN) {
		c.logger.Warning().Err(err).Log("wakeup write failed")
	}
}

// RequestStop
// stops the context. Safe from any goroutine and idempotent.
func (c *Context) RequestStop() bool {
	requested := c.stop.RequestStop()
	c.Wakeup()
	return requested
}

func (c *Context) StopRequested() bool {
	return c.stop.StopRequested()
}

func (c *Context) StopToken() StopToken {
	return c.stop.Token()
}

func (c *Context) Scheduler() Scheduler {
	return Scheduler{ctx: c}
}

func (c *Context) Capabilities() liburing.Capabilities {
	return c.caps
}

// Entries
// the submission ring size.
func (c *Context) Entries() uint32 {
	return c.entries
}

// Close
// releases the rings and the eventfd. Tasks still queued or registered
// complete with -ECANCELED on the calling goroutine.
func (c *Context) Close() (err error) {
	if !c.closed.CompareAndSwap(false, true) {
		return nil
	}
	if c.running.Load() {
		c.closed.Store(false)
		return ErrRunning
	}

	c.stop.RequestStop()
	c.metrics.Unregister()

	// every Submit that saw closed unset has pushed by now
	c.eventfdMu.Lock()
	efd := c.eventfd
	c.eventfd = -1
	c.eventfdMu.Unlock()

	var errs []error
	if efd >= 0 {
		if closeErr := unix.Close(efd); closeErr != nil {
			errs = append(errs, closeErr)
		}
	}
	if closeErr := c.ring.Close(); closeErr != nil {
		errs = append(errs, closeErr)
	}

	c.pending.Append(c.requests.PopAll())
	for _, t := range c.registry.tasks {
		c.pending.PushBack(t)
	}
	c.registry.tasks = nil
	for t := c.pending.PopFront(); t != nil; t = c.pending.PopFront() {
		t.inflight = false
		t.setResult(-int32(syscall.ECANCELED))
		t.completeImmediately()
	}
	c.inflight = 0

	c.logger.Debug().Log("context closed")
	if len(errs) > 0 {
		err = errors.New(
			"close context failed",
			errors.WithMeta(errMetaPkgKey, errMetaPkgVal),
			errors.WithMeta(errMetaOpKey, errMetaOpClose),
			errors.WithWrap(errors.Join(errs...)),
		)
	}
	return
}
