package location

import "sync"

// DefaultMaxAttempts is the restoration retry budget per location
const DefaultMaxAttempts = 3

// retryTracker counts failed restorations per canonical location
type retryTracker struct {
	mu       sync.Mutex
	attempts map[string]int
	max      int
}

func newRetryTracker(limit int) *retryTracker {
	if limit <= 0 {
		limit = DefaultMaxAttempts
	}
	return &retryTracker{attempts: make(map[string]int), max: limit}
}

// fail records a failure and reports whether the key is now abandoned
func (r *retryTracker) fail(key string) (int, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.attempts[key]++
	n := r.attempts[key]
	return n, n >= r.max
}

func (r *retryTracker) abandoned(key string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.attempts[key] >= r.max
}

func (r *retryTracker) clear(key string) {
	r.mu.Lock()
	delete(r.attempts, key)
	r.mu.Unlock()
}

func (r *retryTracker) count(key string) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.attempts[key]
}
