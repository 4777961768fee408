package worker

import "sync"

// statusBox is the one deliberately-locked piece of worker state: the
// chat collaborator's "workers" command reads it from a different
// goroutine than the one running the cycle loop.
type statusBox struct {
	mu  sync.Mutex
	val string
}

func (b *statusBox) Set(s string) {
	b.mu.Lock()
	b.val = s
	b.mu.Unlock()
}

func (b *statusBox) Get() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.val
}
