package crawler

import "sync"

// Frontier holds the pending crawl targets and the set of URLs already
// handed to the fetcher for this run. A URL enters the seen set exactly
// once, which makes the at-most-once-fetch invariant structural.
type Frontier struct {
	mu      sync.Mutex
	pending []Target
	seen    map[string]struct{}
}

// NewFrontier returns an empty frontier. Frontiers are per-run and are
// never persisted.
func NewFrontier() *Frontier {
	return &Frontier{seen: make(map[string]struct{})}
}

// Push enqueues a target unless its URL is already pending or visited.
// It reports whether the target was accepted.
func (f *Frontier) Push(t Target) bool {
	if t.URL == "" {
		return false
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.seen[t.URL]; ok {
		return false
	}
	f.seen[t.URL] = struct{}{}
	f.pending = append(f.pending, t)
	return true
}

// Pop removes and returns the oldest pending target.
func (f *Frontier) Pop() (Target, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(f.pending) == 0 {
		return Target{}, false
	}
	t := f.pending[0]
	f.pending = f.pending[1:]
	return t, true
}

// MarkVisited records a URL as fetched without queueing it. It reports
// whether the URL was new. The sequential listing walk uses this to bring
// listing URLs under the same at-most-once guarantee as detail targets.
func (f *Frontier) MarkVisited(rawURL string) bool {
	if rawURL == "" {
		return false
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.seen[rawURL]; ok {
		return false
	}
	f.seen[rawURL] = struct{}{}
	return true
}

// Seen reports whether the URL is pending or already visited.
func (f *Frontier) Seen(rawURL string) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	_, ok := f.seen[rawURL]
	return ok
}

// PendingLen returns the number of queued targets.
func (f *Frontier) PendingLen() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.pending)
}

// requeue puts a popped target back at the head of the queue. Used when the
// run deadline fires between popping a target and dispatching it.
func (f *Frontier) requeue(t Target) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.pending = append([]Target{t}, f.pending...)
}
