package testsupport

import (
	"sort"
	"sync"
	"time"

	"helixprint/internal/helix"
)

// ManualScheduler holds scheduled calls until the test advances its clock.
type ManualScheduler struct {
	mu      sync.Mutex
	now     time.Duration
	pending []*manualTimer
}

type manualTimer struct {
	owner   *ManualScheduler
	due     time.Duration
	fn      func()
	stopped bool
	fired   bool
}

func (t *manualTimer) Stop() bool {
	t.owner.mu.Lock()
	defer t.owner.mu.Unlock()
	if t.stopped || t.fired {
		return false
	}
	t.stopped = true
	return true
}

// AfterFunc implements helix.Scheduler.
func (s *ManualScheduler) AfterFunc(d time.Duration, fn func()) helix.Timer {
	s.mu.Lock()
	defer s.mu.Unlock()
	timer := &manualTimer{owner: s, due: s.now + d, fn: fn}
	s.pending = append(s.pending, timer)
	return timer
}

// Advance moves the clock forward by d and runs every call that became due,
// in due order.
func (s *ManualScheduler) Advance(d time.Duration) int {
	s.mu.Lock()
	s.now += d
	var due []*manualTimer
	remaining := s.pending[:0]
	for _, timer := range s.pending {
		switch {
		case timer.stopped:
		case timer.due <= s.now:
			timer.fired = true
			due = append(due, timer)
		default:
			remaining = append(remaining, timer)
		}
	}
	s.pending = remaining
	s.mu.Unlock()

	sort.SliceStable(due, func(i, j int) bool { return due[i].due < due[j].due })
	for _, timer := range due {
		timer.fn()
	}
	return len(due)
}

// Pending returns the number of scheduled calls that have not run or stopped.
func (s *ManualScheduler) Pending() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := 0
	for _, timer := range s.pending {
		if !timer.stopped {
			n++
		}
	}
	return n
}
