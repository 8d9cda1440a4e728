//go:build linux

package aio

import (
	"sync"
)

// StopSource
// owns a stop request. The request is sticky: once made it is never undone.
type StopSource struct {
	mu        sync.Mutex
	requested bool
	callbacks map[uint64]func()
	last      uint64
}

func NewStopSource() *StopSource {
	return &StopSource{}
}

// RequestStop
// marks the source stopped and runs every registered callback on the
// calling goroutine. Only the first call returns true.
func (s *StopSource) RequestStop() bool {
	s.mu.Lock()
	if s.requested {
		s.mu.Unlock()
		return false
	}
	s.requested = true
	callbacks := s.callbacks
	s.callbacks = nil
	s.mu.Unlock()

	for _, fn := range callbacks {
		fn()
	}
	return true
}

func (s *StopSource) StopRequested() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.requested
}

func (s *StopSource) Token() StopToken {
	return StopToken{source: s}
}

func (s *StopSource) register(fn func()) (id uint64, registered bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.requested {
		return 0, false
	}
	if s.callbacks == nil {
		s.callbacks = make(map[uint64]func())
	}
	s.last++
	s.callbacks[s.last] = fn
	return s.last, true
}

func (s *StopSource) unregister(id uint64) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.callbacks[id]; !ok {
		return false
	}
	delete(s.callbacks, id)
	return true
}

// StopToken
// observes a StopSource. The zero token can never be stopped.
type StopToken struct {
	source *StopSource
}

func (t StopToken) StopRequested() bool {
	return t.source != nil && t.source.StopRequested()
}

func (t StopToken) StopPossible() bool {
	return t.source != nil
}

// OnStop
// runs fn once when a stop is requested, inline when it already was.
// The returned func removes fn and reports whether it had not yet run.
func (t StopToken) OnStop(fn func()) (unregister func() bool) {
	if t.source == nil {
		return func() bool { return false }
	}
	id, registered := t.source.register(fn)
	if !registered {
		fn()
		return func() bool { return false }
	}
	return func() bool {
		return t.source.unregister(id)
	}
}
