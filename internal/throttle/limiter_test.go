// ABOUTME: Tests for the cooldown limiter
// ABOUTME: Uses a fake clock to cover windows, eviction, sweeping and concurrency

package throttle

import (
	"sync"
	"sync/atomic"
	"testing"
	"time"
)

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

func newTestLimiter(window time.Duration, maxKeys int) (*Limiter, *fakeClock) {
	clock := &fakeClock{now: time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)}
	return newLimiter(window, maxKeys, clock.Now), clock
}

func TestAllow_Window(t *testing.T) {
	l, clock := newTestLimiter(time.Minute, 10)

	if !l.Allow("ana@x.com") {
		t.Fatal("first call should be allowed")
	}
	if l.Allow("ana@x.com") {
		t.Error("second call inside the window should be refused")
	}
	if !l.Allow("beto@x.com") {
		t.Error("other keys are independent")
	}

	clock.Advance(30 * time.Second)
	if l.Allow("ana@x.com") {
		t.Error("still inside the window")
	}
	if got := l.Remaining("ana@x.com"); got != 30*time.Second {
		t.Errorf("Remaining() = %v, want 30s", got)
	}

	clock.Advance(30 * time.Second)
	if !l.Allow("ana@x.com") {
		t.Error("window elapsed, should be allowed")
	}
	if got := l.Remaining("nobody"); got != 0 {
		t.Errorf("Remaining(unknown) = %v, want 0", got)
	}
}

func TestAllow_EvictsOldest(t *testing.T) {
	l, _ := newTestLimiter(time.Hour, 2)

	l.Allow("a")
	l.Allow("b")
	l.Allow("c")

	if l.Len() != 2 {
		t.Fatalf("Len() = %d, want 2", l.Len())
	}
	if !l.Allow("a") {
		t.Error("evicted key should be allowed again")
	}
	if l.Allow("c") {
		t.Error("recent key should still be limited")
	}
}

func TestSweep(t *testing.T) {
	l, clock := newTestLimiter(time.Minute, 10)

	l.Allow("old")
	clock.Advance(45 * time.Second)
	l.Allow("new")
	clock.Advance(30 * time.Second)

	l.sweep()

	if l.Len() != 1 {
		t.Fatalf("Len() after sweep = %d, want 1", l.Len())
	}
	if l.Allow("new") {
		t.Error("live key must survive the sweep")
	}
}

func TestAllow_Concurrent(t *testing.T) {
	l, _ := newTestLimiter(time.Minute, 10)

	var allowed atomic.Int32
	var wg sync.WaitGroup
	for range 50 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if l.Allow("ana@x.com") {
				allowed.Add(1)
			}
		}()
	}
	wg.Wait()

	if got := allowed.Load(); got != 1 {
		t.Errorf("allowed %d concurrent calls, want 1", got)
	}
}

func TestClose_Idempotent(t *testing.T) {
	l := New(time.Minute, 0)
	l.Close()
	l.Close()
}
