// ABOUTME: Per-key cooldown limiter held in memory
// ABOUTME: Limits how often one email address can trigger a password reset message

package throttle

import (
	"container/list"
	"sync"
	"time"
)

type entry struct {
	at      time.Time
	element *list.Element
}

// Limiter lets a key through at most once per window. Keys are kept in
// insertion order so the oldest can be evicted when maxKeys is reached.
type Limiter struct {
	mu      sync.Mutex
	entries map[string]*entry
	order   *list.List
	window  time.Duration
	maxKeys int
	now     func() time.Time
	done    chan struct{}
	closed  bool
}

// New creates a Limiter and starts its background sweep. Call Close to stop it.
func New(window time.Duration, maxKeys int) *Limiter {
	l := newLimiter(window, maxKeys, time.Now)
	go l.sweepLoop()
	return l
}

func newLimiter(window time.Duration, maxKeys int, now func() time.Time) *Limiter {
	if maxKeys <= 0 {
		maxKeys = 10_000
	}
	return &Limiter{
		entries: make(map[string]*entry),
		order:   list.New(),
		window:  window,
		maxKeys: maxKeys,
		now:     now,
		done:    make(chan struct{}),
	}
}

// Allow reports whether key may proceed. A successful call starts a new
// window for key; a refused call does not extend the current one.
func (l *Limiter) Allow(key string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	if e, ok := l.entries[key]; ok {
		if now.Sub(e.at) < l.window {
			return false
		}
		e.at = now
		l.order.MoveToBack(e.element)
		return true
	}

	if len(l.entries) >= l.maxKeys {
		l.evictOldest()
	}
	l.entries[key] = &entry{at: now, element: l.order.PushBack(key)}
	return true
}

// Remaining returns how long key still has to wait, or 0.
func (l *Limiter) Remaining(key string) time.Duration {
	l.mu.Lock()
	defer l.mu.Unlock()

	e, ok := l.entries[key]
	if !ok {
		return 0
	}
	if left := l.window - l.now().Sub(e.at); left > 0 {
		return left
	}
	return 0
}

// Len returns the number of tracked keys, expired or not.
func (l *Limiter) Len() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.entries)
}

// evictOldest drops the least recently allowed key. Caller holds mu.
func (l *Limiter) evictOldest() {
	front := l.order.Front()
	if front == nil {
		return
	}
	key, _ := front.Value.(string)
	l.order.Remove(front)
	delete(l.entries, key)
}

func (l *Limiter) sweepLoop() {
	interval := l.window
	if interval < time.Second {
		interval = time.Second
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			l.sweep()
		case <-l.done:
			return
		}
	}
}

// sweep removes keys whose window has passed. Entries are ordered by the
// time they were last allowed, so it stops at the first live one.
func (l *Limiter) sweep() {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	for front := l.order.Front(); front != nil; front = l.order.Front() {
		key, _ := front.Value.(string)
		if now.Sub(l.entries[key].at) < l.window {
			return
		}
		l.order.Remove(front)
		delete(l.entries, key)
	}
}

// Close stops the background sweep. It is safe to call more than once.
func (l *Limiter) Close() {
	l.mu.Lock()
	defer l.mu.Unlock()

	if !l.closed {
		close(l.done)
		l.closed = true
	}
}
