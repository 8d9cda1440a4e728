//go:build linux

package liburing

type Options struct {
	Entries   uint32
	CQEntries uint32
	Flags     uint32
}

type Option func(*Options) error

// WithEntries
// setup iouring's entries, rounded up to a power of two.
func WithEntries(entries uint32) Option {
	return func(opts *Options) error {
		opts.Entries = entries
		return nil
	}
}

// WithCQEntries
// setup the completion ring size, implies IORING_SETUP_CQSIZE.
func WithCQEntries(entries uint32) Option {
	return func(opts *Options) error {
		if entries > 0 {
			opts.CQEntries = entries
			opts.Flags |= IORING_SETUP_CQSIZE
		}
		return nil
	}
}

// WithFlags
// setup iouring's flags.
func WithFlags(flags uint32) Option {
	return func(opts *Options) error {
		opts.Flags |= flags
		return nil
	}
}
