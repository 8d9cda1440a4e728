//go:build linux

package aio

import (
	"github.com/brickingsoft/ringexec/pkg/liburing"
	"github.com/brickingsoft/ringexec/pkg/process"
	"github.com/joeycumines/logiface"
	"github.com/prometheus/client_golang/prometheus"
)

// Backpressure
// what the submission driver does with a task that finds no free slot.
type Backpressure int

const (
	// BackpressureRetry keeps the task pending for the next cycle.
	BackpressureRetry Backpressure = iota
	// BackpressureReject completes the task with -EBUSY.
	BackpressureReject
)

func (b Backpressure) String() string {
	switch b {
	case BackpressureRetry:
		return "retry"
	case BackpressureReject:
		return "reject"
	default:
		return "unknown"
	}
}

type Options struct {
	Entries      uint32
	CQEntries    uint32
	Flags        uint32
	Backpressure Backpressure
	Logger       *logiface.Logger[logiface.Event]
	Metrics      *Metrics
	Registerer   prometheus.Registerer
	CPUAffinity  int
	Priority     process.PriorityLevel
	Capabilities *liburing.Capabilities
}

type Option func(*Options)

// WithEntries
// setup iouring's entries, rounded up to a power of two.
func WithEntries(entries uint32) Option {
	return func(opts *Options) {
		opts.Entries = entries
	}
}

// WithCQSize
// setup the completion ring size.
func WithCQSize(entries uint32) Option {
	return func(opts *Options) {
		opts.CQEntries = entries
	}
}

// WithFlags
// setup iouring's flags, flags the running kernel lacks are dropped.
func WithFlags(flags uint32) Option {
	return func(opts *Options) {
		opts.Flags |= flags
	}
}

// WithBackpressure
// setup what happens when the submission ring is full.
func WithBackpressure(policy Backpressure) Option {
	return func(opts *Options) {
		opts.Backpressure = policy
	}
}

// WithLogger
// setup logger, nil disables logging.
func WithLogger(logger *logiface.Logger[logiface.Event]) Option {
	return func(opts *Options) {
		opts.Logger = logger
	}
}

// WithMetrics
func WithMetrics(metrics *Metrics) Option {
	return func(opts *Options) {
		opts.Metrics = metrics
	}
}

// WithRegisterer
// register the metrics with r in New and unregister them in Close.
func WithRegisterer(r prometheus.Registerer) Option {
	return func(opts *Options) {
		opts.Registerer = r
	}
}

// WithCPUAffinity
// pin the reactor thread to cpu, -1 leaves it unpinned.
func WithCPUAffinity(cpu int) Option {
	return func(opts *Options) {
		opts.CPUAffinity = cpu
	}
}

// WithPriority
// setup the nice level of the reactor thread.
func WithPriority(level process.PriorityLevel) Option {
	return func(opts *Options) {
		opts.Priority = level
	}
}

// WithCapabilities
// use caps instead of the capabilities of the running kernel.
func WithCapabilities(caps liburing.Capabilities) Option {
	return func(opts *Options) {
		opts.Capabilities = &caps
	}
}
