package stats

import (
	"sync"
	"sync/atomic"
)

// counter counts elements of one kind. It is safe for concurrent use.
type counter struct {
	n int64
}

func (c *counter) Add(n int) {
	atomic.AddInt64(&c.n, int64(n))
}

func (c *counter) Value() int64 {
	return atomic.LoadInt64(&c.n)
}

// reasonCounter counts events by reason, like dropped elements by the
// reason they were dropped for. It is safe for concurrent use.
type reasonCounter struct {
	mu     sync.Mutex
	counts map[string]int64
}

func (r *reasonCounter) Add(reason string) {
	r.mu.Lock()
	if r.counts == nil {
		r.counts = make(map[string]int64)
	}
	r.counts[reason]++
	r.mu.Unlock()
}

// Counts returns a copy of all counts.
func (r *reasonCounter) Counts() map[string]int64 {
	r.mu.Lock()
	defer r.mu.Unlock()
	result := make(map[string]int64, len(r.counts))
	for k, v := range r.counts {
		result[k] = v
	}
	return result
}
