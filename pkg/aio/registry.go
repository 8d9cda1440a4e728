//go:build linux

package aio

// registry
// maps submission tokens back to tasks. Owned by the reactor goroutine.
type registry struct {
	tasks map[uint64]*Task
	last  uint64
}

func newRegistry(capacity int) registry {
	return registry{tasks: make(map[uint64]*Task, capacity)}
}

func (r *registry) register(t *Task) uint64 {
	r.last++
	if r.last == 0 {
		r.last++
	}
	t.token = r.last
	t.inflight = true
	r.tasks[t.token] = t
	return t.token
}

func (r *registry) resolve(token uint64) (*Task, bool) {
	t, ok := r.tasks[token]
	if !ok {
		return nil, false
	}
	delete(r.tasks, token)
	t.inflight = false
	return t, true
}

func (r *registry) len() int {
	return len(r.tasks)
}
